package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

const TypeActivationMail = "mail:activation"

// QueueNotifier hands events to asynq so delivery is retried by a MailWorker
// even if the process goes away
type QueueNotifier struct {
	client *asynq.Client
}

func NewQueueNotifier(opt asynq.RedisClientOpt) *QueueNotifier {
	return &QueueNotifier{client: asynq.NewClient(opt)}
}

func (q *QueueNotifier) Notify(ctx context.Context, e Event) error {
	t, err := NewActivationTask(e)
	if err != nil {
		return err
	}

	if _, err := q.client.EnqueueContext(ctx, t); err != nil {
		return fmt.Errorf("failed to enqueue %s, %w", t.Type(), err)
	}

	return nil
}

func (q *QueueNotifier) Close() error {
	return q.client.Close()
}

func NewActivationTask(e Event) (*asynq.Task, error) {
	payload, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("failed to encode task payload, %w", err)
	}

	return asynq.NewTask(TypeActivationMail, payload,
		asynq.MaxRetry(5),
		asynq.Timeout(30*time.Second),
	), nil
}

// MailWorker consumes the tasks enqueued by QueueNotifier and delivers them
// through mail
type MailWorker struct {
	srv  *asynq.Server
	mux  *asynq.ServeMux
	mail Notifier
	log  *zap.Logger
}

func NewMailWorker(opt asynq.RedisClientOpt, mail Notifier, log *zap.Logger) *MailWorker {
	w := &MailWorker{
		srv: asynq.NewServer(opt, asynq.Config{
			Concurrency: 2,
			LogLevel:    asynq.WarnLevel,
		}),
		mux:  asynq.NewServeMux(),
		mail: mail,
		log:  log,
	}

	w.mux.HandleFunc(TypeActivationMail, w.HandleActivation)
	return w
}

func (w *MailWorker) HandleActivation(ctx context.Context, t *asynq.Task) error {
	var e Event
	if err := json.Unmarshal(t.Payload(), &e); err != nil {
		w.log.Error("Invalid activation mail payload", zap.Error(err))
		return fmt.Errorf("%v, %w", err, asynq.SkipRetry)
	}

	if err := w.mail.Notify(ctx, e); err != nil {
		w.log.Warn("Failed to deliver activation mail", zap.Error(err), zap.String("userID", e.UserID))
		return err
	}

	w.log.Debug("Activation mail delivered", zap.String("userID", e.UserID))
	return nil
}

// Start runs the worker in the background until Shutdown is called
func (w *MailWorker) Start() error {
	return w.srv.Start(w.mux)
}

func (w *MailWorker) Shutdown() {
	w.srv.Shutdown()
}
