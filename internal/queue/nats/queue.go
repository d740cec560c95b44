package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"erpverify/internal/config"
	"erpverify/internal/domain"
	"erpverify/internal/pipeline"
)

// Submitter schedules a verification run; pipeline.Pool implements it.
type Submitter interface {
	Submit(ctx context.Context, req domain.VerificationRequest) <-chan *domain.VerificationResult
}

// Queue connects the verification pipeline to NATS: requests arrive on the
// request subject in a queue group, results leave on the result subject.
type Queue struct {
	conn   *nats.Conn
	cfg    config.QueueConfig
	logger *zap.Logger
}

// Options tune the connection.
type Options struct {
	ConnectTimeout time.Duration
	ReconnectWait  time.Duration
	MaxReconnects  int
}

// New connects to the NATS server in cfg.
func New(cfg *config.QueueConfig, opts Options, logger *zap.Logger) (*Queue, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = 2 * time.Second
	}
	if opts.ReconnectWait <= 0 {
		opts.ReconnectWait = 2 * time.Second
	}
	if opts.MaxReconnects <= 0 {
		opts.MaxReconnects = 60
	}

	conn, err := nats.Connect(
		cfg.URL,
		nats.Name("erpverify"),
		nats.Timeout(opts.ConnectTimeout),
		nats.ReconnectWait(opts.ReconnectWait),
		nats.MaxReconnects(opts.MaxReconnects),
		nats.RetryOnFailedConnect(true),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("nats.Queue: disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats.Queue: reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return &Queue{conn: conn, cfg: *cfg, logger: logger}, nil
}

// Close closes the connection.
func (q *Queue) Close() {
	if q.conn != nil {
		q.conn.Close()
	}
}

// Publisher returns a result sink publishing to the result subject.
func (q *Queue) Publisher() *Publisher {
	return &Publisher{publish: q.conn.Publish, subject: q.cfg.ResultSubject}
}

// Serve consumes requests until ctx is done, then drains the subscription.
// Every request is handed to submitter; a request with a reply subject is
// answered with its result as well.
func (q *Queue) Serve(ctx context.Context, submitter Submitter) error {
	c := &consumer{submitter: submitter, logger: q.logger, publish: q.conn.Publish, resultSubject: q.cfg.ResultSubject}

	sub, err := q.conn.QueueSubscribe(q.cfg.RequestSubject, q.cfg.Group, func(msg *nats.Msg) {
		if ctx.Err() != nil {
			return
		}
		c.handle(ctx, msg.Data, msg.Reply)
	})
	if err != nil {
		return fmt.Errorf("nats subscribe: %w", err)
	}
	if err := q.conn.Flush(); err != nil {
		return fmt.Errorf("nats flush: %w", err)
	}
	q.logger.Info("nats.Queue.Serve: consuming requests",
		zap.String("subject", q.cfg.RequestSubject),
		zap.String("group", q.cfg.Group),
	)

	<-ctx.Done()
	if err := sub.Drain(); err != nil {
		return fmt.Errorf("nats drain subscription: %w", err)
	}
	if err := q.conn.FlushTimeout(5 * time.Second); err != nil {
		return fmt.Errorf("nats flush after drain: %w", err)
	}
	return nil
}

type publishFunc func(subject string, data []byte) error

type consumer struct {
	submitter     Submitter
	logger        *zap.Logger
	publish       publishFunc
	resultSubject string
}

// handle decodes one message and schedules it. Requests that cannot be
// decoded never reach the pipeline; their failed result is published here.
func (c *consumer) handle(ctx context.Context, data []byte, reply string) {
	req, err := DecodeRequest(data)
	if err != nil {
		c.logger.Warn("nats.Queue: rejecting malformed request", zap.Error(err))
		res := pipeline.FailedResult(req, err)
		c.send(c.resultSubject, res)
		if reply != "" {
			c.send(reply, res)
		}
		return
	}

	ch := c.submitter.Submit(ctx, req)
	if reply == "" {
		return
	}
	go func() {
		if res, ok := <-ch; ok && res != nil {
			c.send(reply, res)
		}
	}()
}

func (c *consumer) send(subject string, res *domain.VerificationResult) {
	if subject == "" {
		return
	}
	if err := publishResult(c.publish, subject, res); err != nil {
		c.logger.Error("nats.Queue: publishing result failed",
			zap.String("subject", subject),
			zap.String("job_no", res.JobNo),
			zap.Error(err),
		)
	}
}

// DecodeRequest parses the JSON wire form of a verification request. On
// error the returned request still carries whatever identifiers were read.
func DecodeRequest(data []byte) (domain.VerificationRequest, error) {
	var in domain.InboundRequest
	if err := json.Unmarshal(data, &in); err != nil {
		return domain.VerificationRequest{}, &domain.ValidationError{Field: "body", Reason: "invalid JSON: " + err.Error()}
	}
	req, err := in.ToRequest()
	if err != nil {
		return domain.VerificationRequest{JobNo: in.JobNo, DocumentID: in.DocumentID}, err
	}
	return req, nil
}

// Publisher is a result sink that publishes results as JSON.
type Publisher struct {
	publish publishFunc
	subject string
}

func (p *Publisher) Save(_ context.Context, res *domain.VerificationResult) error {
	return publishResult(p.publish, p.subject, res)
}

func publishResult(publish publishFunc, subject string, res *domain.VerificationResult) error {
	data, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("nats publish: encoding result: %w", err)
	}
	if err := publish(subject, data); err != nil {
		return classifyError(err)
	}
	return nil
}

// classifyError marks connection-level failures as transient.
func classifyError(err error) error {
	if errors.Is(err, nats.ErrNoServers) ||
		errors.Is(err, nats.ErrTimeout) ||
		errors.Is(err, nats.ErrConnectionClosed) ||
		errors.Is(err, nats.ErrDisconnected) ||
		errors.Is(err, nats.ErrConnectionReconnecting) {
		return domain.NewTransientError("nats", "publish", err)
	}
	return fmt.Errorf("nats publish: %w", err)
}
