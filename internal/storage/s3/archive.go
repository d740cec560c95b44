package s3

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"go.uber.org/zap"

	"erpverify/internal/domain"
	"erpverify/internal/port"
)

// Archiver keeps a JSON copy of failed results and of results carrying a raw
// model response in the archive bucket. It is used as a result sink.
type Archiver struct {
	storage port.ObjectStorage
	bucket  string
	logger  *zap.Logger
}

// NewArchiver creates an Archiver writing to bucket.
func NewArchiver(storage port.ObjectStorage, bucket string, logger *zap.Logger) *Archiver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Archiver{storage: storage, bucket: bucket, logger: logger}
}

// ArchiveKey returns the object key of a result: results/<job>/<date>/<id>.json.
func ArchiveKey(res *domain.VerificationResult) string {
	job := strings.NewReplacer("/", "_", "\\", "_", " ", "_").Replace(res.JobNo)
	if job == "" {
		job = "_"
	}
	return path.Join("results", job, res.CompletedAt.UTC().Format("2006-01-02"), res.ID.String()+".json")
}

// Wants reports whether res is archived at all.
func Wants(res *domain.VerificationResult) bool {
	return res.State == domain.StateFailed || res.RawModelResponse != nil
}

func (a *Archiver) Save(ctx context.Context, res *domain.VerificationResult) error {
	if !Wants(res) {
		return nil
	}
	body, err := json.Marshal(archivedResult{
		VerificationResult: res,
		RawModelResponse:   res.RawModelResponse,
	})
	if err != nil {
		return fmt.Errorf("s3.Archiver.Save: encoding result: %w", err)
	}

	key := ArchiveKey(res)
	out, err := a.storage.Upload(ctx, port.UploadInput{
		Bucket:      a.bucket,
		Key:         key,
		Body:        bytes.NewReader(body),
		ContentType: "application/json",
	})
	if err != nil {
		return fmt.Errorf("s3.Archiver.Save: %w", err)
	}

	a.logger.Debug("s3.Archiver.Save: result archived",
		zap.String("job_no", res.JobNo),
		zap.String("key", key),
		zap.String("location", out.Location),
	)
	return nil
}

// archivedResult always carries the raw response, even where the API omits it.
type archivedResult struct {
	*domain.VerificationResult
	RawModelResponse *string `json:"raw_model_response"`
}
