package service

import (
	"context"
	"log"
	"time"

	notifRepo "openjournal.app/backend/internal/modules/notification/repository"
	"openjournal.app/backend/internal/entity"
	"openjournal.app/backend/pkg/mailer"
)

const (
	dispatchBatchSize = 50
	maxAttempts       = 5
)

// OutboxService implements the transactional-outbox half of email delivery:
// mutations enqueue, the dispatcher sends with backoff. Enqueue with a dedup
// key is idempotent, which makes the overdue-review sweep safe to re-run.
type OutboxService interface {
	Enqueue(ctx context.Context, email, subject, body string, dedupKey *string) error
	DispatchPending(ctx context.Context) error
}

type outboxService struct {
	repo   notifRepo.NotificationRepository
	sender mailer.Sender
}

func NewOutboxService(repo notifRepo.NotificationRepository, sender mailer.Sender) OutboxService {
	return &outboxService{repo: repo, sender: sender}
}

func (s *outboxService) Enqueue(ctx context.Context, email, subject, body string, dedupKey *string) error {
	row := &entity.EmailOutbox{
		Email:         email,
		Subject:       subject,
		Body:          body,
		DedupKey:      dedupKey,
		Status:        entity.OutboxPending,
		NextAttemptAt: time.Now(),
	}

	created, err := s.repo.EnqueueEmail(ctx, row)
	if err != nil {
		return err
	}
	if !created {
		log.Printf("outbox: skipped duplicate enqueue for %s", email)
	}
	return nil
}

func (s *outboxService) DispatchPending(ctx context.Context) error {
	emails, err := s.repo.FindDueEmails(ctx, time.Now(), dispatchBatchSize)
	if err != nil {
		return err
	}

	for i := range emails {
		row := &emails[i]
		row.Attempts++

		sendErr := s.sender.Send(row.Email, row.Subject, row.Body)
		if sendErr == nil {
			now := time.Now()
			row.Status = entity.OutboxSent
			row.SentAt = &now
			row.LastError = nil
		} else {
			msg := sendErr.Error()
			row.LastError = &msg
			if row.Attempts >= maxAttempts {
				row.Status = entity.OutboxFailed
				log.Printf("outbox: giving up on email to %s after %d attempts: %v", row.Email, row.Attempts, sendErr)
			} else {
				// Exponential backoff: 1m, 2m, 4m, 8m.
				row.NextAttemptAt = time.Now().Add(time.Minute << (row.Attempts - 1))
			}
		}

		if err := s.repo.UpdateEmail(ctx, row); err != nil {
			return err
		}
	}

	return nil
}
