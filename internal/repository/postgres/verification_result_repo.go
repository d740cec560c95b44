package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"erpverify/internal/domain"
	"erpverify/internal/port"
)

const resultColumns = `id, job_no, document_id, document_type,
		classification_confidence, classification_reasoning,
		discrepancies, field_confidences, overall_confidence,
		raw_model_response, error_message, notes,
		state, model_used, started_at, completed_at`

// resultRow is the storage shape of a VerificationResult. List fields are
// kept as JSONB.
type resultRow struct {
	ID                       uuid.UUID `db:"id"`
	JobNo                    string    `db:"job_no"`
	DocumentID               string    `db:"document_id"`
	DocumentType             string    `db:"document_type"`
	ClassificationConfidence float64   `db:"classification_confidence"`
	ClassificationReasoning  string    `db:"classification_reasoning"`
	Discrepancies            []byte    `db:"discrepancies"`
	FieldConfidences         []byte    `db:"field_confidences"`
	OverallConfidence        float64   `db:"overall_confidence"`
	RawModelResponse         *string   `db:"raw_model_response"`
	ErrorMessage             *string   `db:"error_message"`
	Notes                    []byte    `db:"notes"`
	State                    string    `db:"state"`
	ModelUsed                string    `db:"model_used"`
	StartedAt                time.Time `db:"started_at"`
	CompletedAt              time.Time `db:"completed_at"`
}

type verificationResultRepo struct {
	db *sqlx.DB
}

// NewVerificationResultRepo creates a new PostgreSQL-backed ResultRepository.
func NewVerificationResultRepo(db *sqlx.DB) port.ResultRepository {
	return &verificationResultRepo{db: db}
}

// Save stores a terminal result. Saving the same result twice overwrites the
// first copy.
func (r *verificationResultRepo) Save(ctx context.Context, res *domain.VerificationResult) error {
	if !res.State.Terminal() {
		return fmt.Errorf("verificationResultRepo.Save: result %s is not terminal (%s)", res.ID, res.State)
	}
	discrepancies, err := marshalList(res.Discrepancies)
	if err != nil {
		return fmt.Errorf("verificationResultRepo.Save: discrepancies: %w", err)
	}
	confidences, err := marshalList(res.FieldConfidences)
	if err != nil {
		return fmt.Errorf("verificationResultRepo.Save: field confidences: %w", err)
	}
	notes, err := marshalList(res.Notes)
	if err != nil {
		return fmt.Errorf("verificationResultRepo.Save: notes: %w", err)
	}

	query := `INSERT INTO verification_results (` + resultColumns + `) VALUES (
		$1, $2, $3, $4,
		$5, $6,
		$7, $8, $9,
		$10, $11, $12,
		$13, $14, $15, $16
	)
	ON CONFLICT (id) DO UPDATE SET
		document_type = EXCLUDED.document_type,
		classification_confidence = EXCLUDED.classification_confidence,
		classification_reasoning = EXCLUDED.classification_reasoning,
		discrepancies = EXCLUDED.discrepancies,
		field_confidences = EXCLUDED.field_confidences,
		overall_confidence = EXCLUDED.overall_confidence,
		raw_model_response = EXCLUDED.raw_model_response,
		error_message = EXCLUDED.error_message,
		notes = EXCLUDED.notes,
		state = EXCLUDED.state,
		model_used = EXCLUDED.model_used,
		completed_at = EXCLUDED.completed_at`

	_, err = r.db.ExecContext(ctx, query,
		res.ID, res.JobNo, res.DocumentID, string(res.DocumentType),
		res.ClassificationConfidence, res.ClassificationReasoning,
		discrepancies, confidences, res.OverallVerificationConfidence,
		res.RawModelResponse, res.ErrorMessage, notes,
		string(res.State), res.ModelUsed, res.StartedAt.UTC(), res.CompletedAt.UTC())
	if err != nil {
		return fmt.Errorf("verificationResultRepo.Save: %w", err)
	}
	return nil
}

func (r *verificationResultRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.VerificationResult, error) {
	var row resultRow
	err := r.db.GetContext(ctx, &row,
		"SELECT "+resultColumns+" FROM verification_results WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("verificationResultRepo.GetByID: %w", err)
	}
	return row.toDomain()
}

func (r *verificationResultRepo) ListByJob(ctx context.Context, jobNo string, offset, limit int) ([]domain.VerificationResult, int, error) {
	var total int
	err := r.db.GetContext(ctx, &total,
		"SELECT COUNT(*) FROM verification_results WHERE job_no = $1", jobNo)
	if err != nil {
		return nil, 0, fmt.Errorf("verificationResultRepo.ListByJob count: %w", err)
	}

	var rows []resultRow
	err = r.db.SelectContext(ctx, &rows,
		"SELECT "+resultColumns+` FROM verification_results WHERE job_no = $1
		ORDER BY completed_at DESC, id LIMIT $2 OFFSET $3`,
		jobNo, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("verificationResultRepo.ListByJob: %w", err)
	}

	results := make([]domain.VerificationResult, 0, len(rows))
	for i := range rows {
		res, err := rows[i].toDomain()
		if err != nil {
			return nil, 0, fmt.Errorf("verificationResultRepo.ListByJob: %w", err)
		}
		results = append(results, *res)
	}
	return results, total, nil
}

func (r *verificationResultRepo) LatestByJob(ctx context.Context, jobNo string) (*domain.VerificationResult, error) {
	var row resultRow
	err := r.db.GetContext(ctx, &row,
		"SELECT "+resultColumns+` FROM verification_results WHERE job_no = $1
		ORDER BY completed_at DESC, id LIMIT 1`, jobNo)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("verificationResultRepo.LatestByJob: %w", err)
	}
	return row.toDomain()
}

func (row *resultRow) toDomain() (*domain.VerificationResult, error) {
	res := &domain.VerificationResult{
		ID:                            row.ID,
		JobNo:                         row.JobNo,
		DocumentID:                    row.DocumentID,
		DocumentType:                  domain.DocumentType(row.DocumentType),
		ClassificationConfidence:      row.ClassificationConfidence,
		ClassificationReasoning:       row.ClassificationReasoning,
		Discrepancies:                 []domain.Discrepancy{},
		FieldConfidences:              []domain.FieldConfidence{},
		OverallVerificationConfidence: row.OverallConfidence,
		RawModelResponse:              row.RawModelResponse,
		ErrorMessage:                  row.ErrorMessage,
		State:                         domain.PipelineState(row.State),
		ModelUsed:                     row.ModelUsed,
		StartedAt:                     row.StartedAt,
		CompletedAt:                   row.CompletedAt,
	}
	if err := unmarshalList(row.Discrepancies, &res.Discrepancies); err != nil {
		return nil, fmt.Errorf("decoding discrepancies of %s: %w", row.ID, err)
	}
	if err := unmarshalList(row.FieldConfidences, &res.FieldConfidences); err != nil {
		return nil, fmt.Errorf("decoding field confidences of %s: %w", row.ID, err)
	}
	if err := unmarshalList(row.Notes, &res.Notes); err != nil {
		return nil, fmt.Errorf("decoding notes of %s: %w", row.ID, err)
	}
	return res, nil
}

// marshalList encodes a slice as a JSON array; nil becomes [].
func marshalList[T any](items []T) ([]byte, error) {
	if items == nil {
		items = []T{}
	}
	return json.Marshal(items)
}

func unmarshalList[T any](raw []byte, dst *[]T) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dst)
}
