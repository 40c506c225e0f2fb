// Package queue adapts the job engine onto asynq, the Redis-backed task
// queue. One task type carries every job kind; the payload is the engine's
// claim message and the real dispatch happens in the jobs service
package queue

import (
	"context"
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"

	"turna/internal/platform/config"
	perr "turna/internal/platform/errors"
	"turna/internal/platform/logger"
	jobsdom "turna/internal/services/jobs/domain"
)

// TaskType is the single asynq task type for job claim messages
const TaskType = "turna:job"

// Options configures the Redis connection and worker pool
type Options struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	Concurrency   int
	Retention     time.Duration // completed task retention in Redis
}

// FromConfig reads QUEUE_* options
func FromConfig(cfg config.Conf) Options {
	c := cfg.Prefix("QUEUE_")
	return Options{
		RedisAddr:     c.MayString("REDIS_ADDR", "127.0.0.1:6379"),
		RedisPassword: c.MayString("REDIS_PASSWORD", ""),
		RedisDB:       c.MayInt("REDIS_DB", 0),
		Concurrency:   c.MayInt("CONCURRENCY", 8),
		Retention:     c.MayDuration("RETENTION", 24*time.Hour),
	}
}

func (o Options) redis() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{Addr: o.RedisAddr, Password: o.RedisPassword, DB: o.RedisDB}
}

// Publisher implements the jobs Broker on an asynq client
type Publisher struct {
	client    *asynq.Client
	retention time.Duration
}

var _ jobsdom.Broker = (*Publisher)(nil)

// NewPublisher opens the enqueue-side Redis connection
func NewPublisher(opt Options) *Publisher {
	return &Publisher{client: asynq.NewClient(opt.redis()), retention: opt.Retention}
}

// Publish pushes one claim message. Delivery is at-least-once; the engine
// treats redelivered claims as not_pending skips
func (p *Publisher) Publish(ctx context.Context, msg jobsdom.Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return perr.Wrap(err, perr.ErrorCodeUnknown, "encode claim message")
	}
	_, err = p.client.EnqueueContext(ctx, asynq.NewTask(TaskType, payload),
		asynq.MaxRetry(3),
		asynq.Retention(p.retention),
	)
	if err != nil {
		return perr.Wrap(err, perr.ErrorCodeUnavailable, "broker publish")
	}
	return nil
}

// Close releases the client connection
func (p *Publisher) Close() error { return p.client.Close() }

// Server consumes claim messages and drives the engine's worker port
type Server struct {
	srv    *asynq.Server
	worker jobsdom.WorkerPort
}

// NewServer builds the consume side; Run blocks until ctx ends
func NewServer(opt Options, worker jobsdom.WorkerPort) *Server {
	concurrency := opt.Concurrency
	if concurrency <= 0 {
		concurrency = 8
	}
	srv := asynq.NewServer(opt.redis(), asynq.Config{
		Concurrency: concurrency,
		Logger:      asynqLogger{log: logger.Named("queue")},
	})
	return &Server{srv: srv, worker: worker}
}

// Run starts the worker pool and blocks until ctx is cancelled
func (s *Server) Run(ctx context.Context) error {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskType, s.handle)

	if err := s.srv.Start(mux); err != nil {
		return perr.Wrap(err, perr.ErrorCodeUnavailable, "start queue server")
	}
	<-ctx.Done()
	s.srv.Shutdown()
	return ctx.Err()
}

// handle unmarshals one claim and lets the engine decide. Only transport
// errors propagate so asynq retries them; handler failures and skips were
// already recorded on the job row and must ack
func (s *Server) handle(ctx context.Context, t *asynq.Task) error {
	var msg jobsdom.Message
	if err := json.Unmarshal(t.Payload(), &msg); err != nil {
		logger.Named("queue").Error().Err(err).Msg("dropping undecodable claim message")
		return nil
	}
	outcome, err := s.worker.Process(ctx, msg)
	if err != nil {
		return err
	}
	if !outcome.OK {
		logger.Named("queue").Debug().Str("job_id", msg.JobID).Str("reason", outcome.Reason).Msg("claim skipped")
	}
	return nil
}

// asynqLogger routes asynq's internal logging through zerolog
type asynqLogger struct{ log *logger.Logger }

func (l asynqLogger) Debug(args ...any) { l.log.Debug().Msgf("%v", args) }
func (l asynqLogger) Info(args ...any)  { l.log.Info().Msgf("%v", args) }
func (l asynqLogger) Warn(args ...any)  { l.log.Warn().Msgf("%v", args) }
func (l asynqLogger) Error(args ...any) { l.log.Error().Msgf("%v", args) }
func (l asynqLogger) Fatal(args ...any) { l.log.Fatal().Msgf("%v", args) }
