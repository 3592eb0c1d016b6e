// Package worker runs the reminder pipeline: a scanner that finds due
// reminders and enqueues dispatch jobs, and a processor that delivers them
// to the owner's notification channel.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/chronoplan/backend/internal/events"
	"github.com/chronoplan/backend/pkg/queue"
)

// ReminderSource finds due reminders and stamps them dispatched.
// *events.Repository implements it.
type ReminderSource interface {
	DueReminders(ctx context.Context, until time.Time) ([]events.DueReminder, error)
	MarkReminderDispatched(ctx context.Context, reminderID uuid.UUID) error
}

// Scanner periodically scans for due reminders and enqueues dispatch jobs.
// The dispatched stamp is written before enqueueing so a crashed enqueue
// loses at most one reminder instead of duplicating it on every poll.
type Scanner struct {
	source    ReminderSource
	queue     *queue.Queue
	interval  time.Duration
	lookahead time.Duration
	logger    *zap.Logger
}

// NewScanner creates a reminder scanner.
func NewScanner(source ReminderSource, q *queue.Queue, interval, lookahead time.Duration, logger *zap.Logger) *Scanner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scanner{source: source, queue: q, interval: interval, lookahead: lookahead, logger: logger}
}

// Run scans on the configured interval until ctx is done.
func (s *Scanner) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.scan(ctx)
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("reminder scanner stopping")
			return
		case <-ticker.C:
			s.scan(ctx)
		}
	}
}

func (s *Scanner) scan(ctx context.Context) {
	due, err := s.source.DueReminders(ctx, time.Now().Add(s.lookahead))
	if err != nil {
		s.logger.Error("due reminder scan failed", zap.Error(err))
		return
	}
	for _, d := range due {
		if err := s.source.MarkReminderDispatched(ctx, d.ReminderID); err != nil {
			s.logger.Error("mark dispatched failed", zap.String("reminder_id", d.ReminderID.String()), zap.Error(err))
			continue
		}
		err := s.queue.EnqueueReminder(ctx, queue.ReminderPayload{
			ReminderID: d.ReminderID,
			EventID:    d.EventID,
			OwnerID:    d.OwnerID,
			Title:      d.Title,
			StartTime:  d.StartTime,
		})
		if err != nil {
			s.logger.Error("enqueue reminder failed", zap.String("reminder_id", d.ReminderID.String()), zap.Error(err))
		}
	}
	if len(due) > 0 {
		s.logger.Info("reminders enqueued", zap.Int("count", len(due)))
	}
}

// Notifier delivers a reminder to the owner's notification channel.
// *realtime.Hub and *realtime.RedisPubSub both fit via small adapters; the
// worker process uses the Redis publisher directly.
type Notifier interface {
	NotifyUser(userID uuid.UUID, event string, payload interface{})
}

// Processor consumes reminder jobs and notifies event owners.
type Processor struct {
	queue    *queue.Queue
	notifier Notifier
	logger   *zap.Logger
}

// NewProcessor creates a reminder job processor.
func NewProcessor(q *queue.Queue, notifier Notifier, logger *zap.Logger) *Processor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Processor{queue: q, notifier: notifier, logger: logger}
}

// Process executes one reminder job.
func (p *Processor) Process(ctx context.Context, job *queue.Job) error {
	if job.Type != queue.JobTypeReminder {
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
	var payload queue.ReminderPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	p.notifier.NotifyUser(payload.OwnerID, "reminder_due", map[string]string{
		"reminder_id": payload.ReminderID.String(),
		"event_id":    payload.EventID.String(),
		"title":       payload.Title,
		"start_time":  payload.StartTime.Format(time.RFC3339),
	})
	p.logger.Info("reminder delivered",
		zap.String("reminder_id", payload.ReminderID.String()),
		zap.String("owner_id", payload.OwnerID.String()))
	return nil
}

// Run starts the worker loop: dequeue, process, retry on error.
func (p *Processor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("reminder worker stopping")
			return
		default:
		}

		job, _, err := p.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			p.logger.Warn("dequeue error", zap.Error(err))
			time.Sleep(queue.RetryBackoff)
			continue
		}
		if job == nil {
			continue
		}

		p.logger.Debug("processing job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
		if err := p.Process(ctx, job); err != nil {
			p.logger.Error("job failed", zap.String("job_id", job.ID), zap.Error(err))
			if reErr := p.queue.Retry(ctx, job); reErr != nil {
				p.logger.Error("retry enqueue failed", zap.Error(reErr))
			}
			time.Sleep(queue.RetryBackoff)
		}
	}
}
