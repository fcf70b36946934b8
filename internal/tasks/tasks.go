package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/bryceheller922-ship-it/Archaleon/internal/config"
	"github.com/bryceheller922-ship-it/Archaleon/internal/email"
	"github.com/bryceheller922-ship-it/Archaleon/internal/outbox"
	"github.com/bryceheller922-ship-it/Archaleon/internal/remote"
)

// TaskType defines the type of a background task.
const (
	TypeRemoteWrite   = "remote:write"
	TypeEmailDelivery = "email:deliver"
)

const remoteWriteMaxRetry = 10

// --- Task Client (Enqueuing tasks) ---

func NewClient(rdb *redis.Client) *asynq.Client {
	clientOpt := asynq.RedisClientOpt{
		Addr:     rdb.Options().Addr,
		Password: rdb.Options().Password,
		DB:       rdb.Options().DB,
	}
	return asynq.NewClient(clientOpt)
}

// AsynqOutbox queues remote-write ops as asynq tasks so the background
// worker can retry them with backoff. This is the durable replacement for
// fire-and-forget mirror writes.
type AsynqOutbox struct {
	client *asynq.Client
}

// NewAsynqOutbox creates an outbox over an asynq client.
func NewAsynqOutbox(client *asynq.Client) *AsynqOutbox {
	return &AsynqOutbox{client: client}
}

func (o *AsynqOutbox) Enqueue(ctx context.Context, op outbox.Op) {
	payload, err := json.Marshal(op)
	if err != nil {
		log.Printf("[Outbox] Failed to marshal %s %s/%s: %v", op.Kind, op.Collection, op.ID, err)
		return
	}
	task := asynq.NewTask(TypeRemoteWrite, payload)
	if _, err := o.client.EnqueueContext(ctx, task, asynq.MaxRetry(remoteWriteMaxRetry)); err != nil {
		log.Printf("[Outbox] Failed to enqueue %s %s/%s: %v", op.Kind, op.Collection, op.ID, err)
	}
}

// EmailTaskPayload is the email delivery task body.
type EmailTaskPayload struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// EnqueueEmail queues an email for delivery by the background worker.
func EnqueueEmail(ctx context.Context, client *asynq.Client, payload EmailTaskPayload) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal email task payload: %w", err)
	}
	if _, err := client.EnqueueContext(ctx, asynq.NewTask(TypeEmailDelivery, raw), asynq.Queue("low")); err != nil {
		return fmt.Errorf("failed to enqueue email to %s: %w", payload.To, err)
	}
	return nil
}

// QueueResetMailer delivers password-reset emails through the task queue.
type QueueResetMailer struct {
	cfg    *config.Config
	client *asynq.Client
}

// NewQueueResetMailer creates a reset mailer over an asynq client.
func NewQueueResetMailer(cfg *config.Config, client *asynq.Client) *QueueResetMailer {
	return &QueueResetMailer{cfg: cfg, client: client}
}

func (m *QueueResetMailer) DeliverPasswordReset(ctx context.Context, to, token string) error {
	subject, body := resetEmailContent(m.cfg.AppName, token)
	return EnqueueEmail(ctx, m.client, EmailTaskPayload{To: to, Subject: subject, Body: body})
}

// DirectResetMailer sends password-reset emails inline through a Sender.
// Used when no task queue is configured.
type DirectResetMailer struct {
	cfg    *config.Config
	sender email.Sender
}

// NewDirectResetMailer creates a reset mailer over an email sender.
func NewDirectResetMailer(cfg *config.Config, sender email.Sender) *DirectResetMailer {
	return &DirectResetMailer{cfg: cfg, sender: sender}
}

func (m *DirectResetMailer) DeliverPasswordReset(ctx context.Context, to, token string) error {
	subject, body := resetEmailContent(m.cfg.AppName, token)
	raw := email.ComposeMessage(m.cfg.SmtpFromAddress, []string{to}, subject, body)
	return m.sender.Send(ctx, []string{to}, subject, raw)
}

func resetEmailContent(appName, token string) (subject, body string) {
	subject = fmt.Sprintf("Reset your %s password", appName)
	body = fmt.Sprintf(
		"<p>We received a request to reset your %s password.</p>"+
			"<p>Your reset code is: <b>%s</b></p>"+
			"<p>The code expires in 15 minutes. If you did not request this, you can ignore this email.</p>",
		appName, token)
	return subject, body
}

// --- Task Server (Processing tasks) ---

// TaskProcessor handles the processing of tasks.
// It holds dependencies needed by task handlers.
type TaskProcessor struct {
	cfg         *config.Config
	emailSender email.Sender
	remote      remote.Client
}

func NewTaskProcessor(cfg *config.Config, emailSender email.Sender, remoteClient remote.Client) *TaskProcessor {
	return &TaskProcessor{
		cfg:         cfg,
		emailSender: emailSender,
		remote:      remoteClient,
	}
}

// SetupServer configures an Asynq server with the worker's handlers. The
// caller runs it and owns its shutdown.
func SetupServer(rdb *redis.Client, processor *TaskProcessor) (*asynq.Server, *asynq.ServeMux) {
	serverOpt := asynq.RedisClientOpt{
		Addr:     rdb.Options().Addr,
		Password: rdb.Options().Password,
		DB:       rdb.Options().DB,
	}

	srv := asynq.NewServer(
		serverOpt,
		asynq.Config{
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				log.Printf("[Asynq Error] Task Type: %s, Payload: %s, Error: %v", task.Type(), string(task.Payload()), err)
			}),
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeRemoteWrite, processor.HandleRemoteWriteTask)
	mux.HandleFunc(TypeEmailDelivery, processor.HandleEmailDeliveryTask)
	log.Println("Registered background task handlers (remote writes & email).")

	return srv, mux
}

// HandleRemoteWriteTask drains one outbox op against the remote database.
// A malformed payload is dropped; a remote failure is retried by asynq.
func (p *TaskProcessor) HandleRemoteWriteTask(ctx context.Context, t *asynq.Task) error {
	var op outbox.Op
	if err := json.Unmarshal(t.Payload(), &op); err != nil {
		return fmt.Errorf("failed to unmarshal remote write payload: %v: %w", err, asynq.SkipRetry)
	}
	if p.remote == nil {
		return fmt.Errorf("no remote database configured: %w", asynq.SkipRetry)
	}

	if err := outbox.Apply(ctx, p.remote, op); err != nil {
		return fmt.Errorf("remote write %s %s/%s failed: %w", op.Kind, op.Collection, op.ID, err)
	}
	return nil
}

// HandleEmailDeliveryTask sends one queued email.
func (p *TaskProcessor) HandleEmailDeliveryTask(ctx context.Context, t *asynq.Task) error {
	var payload EmailTaskPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal email task payload: %v: %w", err, asynq.SkipRetry)
	}

	raw := email.ComposeMessage(p.cfg.SmtpFromAddress, []string{payload.To}, payload.Subject, payload.Body)
	if err := p.emailSender.Send(ctx, []string{payload.To}, payload.Subject, raw); err != nil {
		return fmt.Errorf("email delivery to %s failed: %w", payload.To, err)
	}
	return nil
}
