package service_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"openjournal.app/backend/internal/entity"
	notifRepo "openjournal.app/backend/internal/modules/notification/repository"
	"openjournal.app/backend/internal/modules/notification/service"
)

type recordingSender struct {
	sent []string
	fail error
}

func (s *recordingSender) Send(to, subject, htmlBody string) error {
	if s.fail != nil {
		return s.fail
	}
	s.sent = append(s.sent, to)
	return nil
}

func setupOutbox(t *testing.T) (*gorm.DB, *recordingSender, service.OutboxService) {
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&entity.Notification{}, &entity.EmailOutbox{}))

	sender := &recordingSender{}
	repo := notifRepo.NewNotificationRepository(db)
	return db, sender, service.NewOutboxService(repo, sender)
}

func TestEnqueueDeduplicatesByKey(t *testing.T) {
	db, _, outbox := setupOutbox(t)
	ctx := context.Background()

	key := "overdue-review:abc:2026-08-31"
	require.NoError(t, outbox.Enqueue(ctx, "a@test.org", "Reminder", "<p>hi</p>", &key))
	require.NoError(t, outbox.Enqueue(ctx, "a@test.org", "Reminder", "<p>hi</p>", &key))

	var count int64
	require.NoError(t, db.Model(&entity.EmailOutbox{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	// Rows without a dedup key are never collapsed.
	require.NoError(t, outbox.Enqueue(ctx, "a@test.org", "Reminder", "<p>hi</p>", nil))
	require.NoError(t, outbox.Enqueue(ctx, "a@test.org", "Reminder", "<p>hi</p>", nil))
	require.NoError(t, db.Model(&entity.EmailOutbox{}).Count(&count).Error)
	assert.Equal(t, int64(3), count)
}

func TestDispatchMarksSent(t *testing.T) {
	db, sender, outbox := setupOutbox(t)
	ctx := context.Background()

	require.NoError(t, outbox.Enqueue(ctx, "a@test.org", "Hello", "<p>body</p>", nil))
	require.NoError(t, outbox.DispatchPending(ctx))

	assert.Equal(t, []string{"a@test.org"}, sender.sent)

	var row entity.EmailOutbox
	require.NoError(t, db.First(&row).Error)
	assert.Equal(t, entity.OutboxSent, row.Status)
	assert.NotNil(t, row.SentAt)
	assert.Equal(t, 1, row.Attempts)

	// A second dispatch run finds nothing due.
	require.NoError(t, outbox.DispatchPending(ctx))
	assert.Len(t, sender.sent, 1)
}

func TestDispatchRetriesWithBackoff(t *testing.T) {
	db, sender, outbox := setupOutbox(t)
	ctx := context.Background()
	sender.fail = errors.New("smtp unavailable")

	require.NoError(t, outbox.Enqueue(ctx, "a@test.org", "Hello", "<p>body</p>", nil))
	require.NoError(t, outbox.DispatchPending(ctx))

	var row entity.EmailOutbox
	require.NoError(t, db.First(&row).Error)
	assert.Equal(t, entity.OutboxPending, row.Status)
	assert.Equal(t, 1, row.Attempts)
	require.NotNil(t, row.LastError)
	assert.Contains(t, *row.LastError, "smtp unavailable")
	assert.True(t, row.NextAttemptAt.After(time.Now()))
}

func TestDispatchGivesUpAfterMaxAttempts(t *testing.T) {
	db, sender, outbox := setupOutbox(t)
	ctx := context.Background()
	sender.fail = errors.New("smtp unavailable")

	require.NoError(t, outbox.Enqueue(ctx, "a@test.org", "Hello", "<p>body</p>", nil))

	// Exhaust the retry budget by forcing each attempt due immediately.
	for i := 0; i < 5; i++ {
		require.NoError(t, db.Model(&entity.EmailOutbox{}).
			Where("1 = 1").
			Update("next_attempt_at", time.Now().Add(-time.Second)).Error)
		require.NoError(t, outbox.DispatchPending(ctx))
	}

	var row entity.EmailOutbox
	require.NoError(t, db.First(&row).Error)
	assert.Equal(t, entity.OutboxFailed, row.Status)
	assert.Equal(t, 5, row.Attempts)
}
