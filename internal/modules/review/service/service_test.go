package service_test

import (
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"openjournal.app/backend/internal/auth"
	"openjournal.app/backend/internal/entity"
	manuscriptRepo "openjournal.app/backend/internal/modules/manuscript/repository"
	notifRepo "openjournal.app/backend/internal/modules/notification/repository"
	notifService "openjournal.app/backend/internal/modules/notification/service"
	"openjournal.app/backend/internal/modules/review/dto"
	"openjournal.app/backend/internal/modules/review/repository"
	"openjournal.app/backend/internal/modules/review/service"
	userRepo "openjournal.app/backend/internal/modules/user/repository"
	"openjournal.app/backend/pkg/apperror"
)

type stubStorage struct{}

func (stubStorage) Upload(ctx context.Context, r io.Reader, folder, fileName string) (string, error) {
	return folder + "/" + fileName, nil
}
func (stubStorage) ResolveURL(ref string) string           { return "https://files.test/" + ref }
func (stubStorage) Delete(ctx context.Context, ref string) error { return nil }

type stubSender struct{ sent int }

func (s *stubSender) Send(to, subject, htmlBody string) error {
	s.sent++
	return nil
}

type fixture struct {
	db          *gorm.DB
	users       userRepo.UserRepository
	manuscripts manuscriptRepo.ManuscriptRepository
	reviews     repository.ReviewRepository
	svc         service.ReviewService
	sender      *stubSender
}

func setup(t *testing.T) *fixture {
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&entity.User{}, &entity.UserProfile{},
		&entity.Manuscript{}, &entity.ManuscriptAuthor{},
		&entity.Review{}, &entity.ReviewAudit{},
		&entity.Notification{}, &entity.EmailOutbox{},
	))

	users := userRepo.NewUserRepository(db)
	manuscripts := manuscriptRepo.NewManuscriptRepository(db)
	reviews := repository.NewReviewRepository(db)
	notifications := notifRepo.NewNotificationRepository(db)
	notifier := notifService.NewNotificationService(notifications, nil)
	sender := &stubSender{}
	outbox := notifService.NewOutboxService(notifications, sender)

	return &fixture{
		db:          db,
		users:       users,
		manuscripts: manuscripts,
		reviews:     reviews,
		svc:         service.NewReviewService(reviews, manuscripts, users, notifier, outbox, stubStorage{}),
		sender:      sender,
	}
}

func (f *fixture) createUser(t *testing.T, email string, roles ...entity.Role) *auth.Context {
	user := &entity.User{Email: email, Name: email, PasswordHash: "x"}
	require.NoError(t, f.db.Create(user).Error)

	profile, err := f.users.GetOrCreateProfile(context.Background(), user.ID)
	require.NoError(t, err)

	roleStrs := make([]string, 0, len(roles))
	for _, r := range roles {
		roleStrs = append(roleStrs, string(r))
	}
	profile.Roles = datatypes.NewJSONSlice(roleStrs)
	require.NoError(t, f.users.SaveProfile(context.Background(), profile))

	return &auth.Context{UserID: user.ID, Email: email, Name: email, Roles: roles}
}

func (f *fixture) createManuscript(t *testing.T, title string) *entity.Manuscript {
	manuscript := &entity.Manuscript{
		Title:    title,
		Abstract: "abstract",
		Keywords: datatypes.NewJSONSlice([]string{"testing"}),
		Language: "en",
		FileRef:  "manuscripts/file.pdf",
		Status:   entity.StatusSubmitted,
	}
	require.NoError(t, f.manuscripts.Create(context.Background(), manuscript))
	return manuscript
}

func (f *fixture) assign(t *testing.T, editor *auth.Context, manuscriptID, reviewerID uuid.UUID) *dto.ReviewResponse {
	review, err := f.svc.AssignReviewer(context.Background(), editor, dto.AssignReviewerInput{
		ManuscriptID: manuscriptID,
		ReviewerID:   reviewerID,
		Deadline:     time.Now().Add(14 * 24 * time.Hour),
	})
	require.NoError(t, err)
	return review
}

func TestAssignReviewerRequiresEditor(t *testing.T) {
	f := setup(t)
	author := f.createUser(t, "author@test.org", entity.RoleAuthor)
	manuscript := f.createManuscript(t, "Quantum Error Correction")

	_, err := f.svc.AssignReviewer(context.Background(), author, dto.AssignReviewerInput{
		ManuscriptID: manuscript.ID,
		ReviewerID:   author.UserID,
		Deadline:     time.Now().Add(time.Hour),
	})
	assert.ErrorIs(t, err, apperror.ErrForbidden)
}

func TestThirdAssignmentMovesManuscriptToInReview(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	editor := f.createUser(t, "editor@test.org", entity.RoleEditor)
	manuscript := f.createManuscript(t, "Sparse Attention Models")

	for i := 0; i < 2; i++ {
		reviewer := f.createUser(t, fmt.Sprintf("reviewer%d@test.org", i), entity.RoleReviewer)
		f.assign(t, editor, manuscript.ID, reviewer.UserID)

		got, err := f.manuscripts.FindByID(ctx, manuscript.ID)
		require.NoError(t, err)
		assert.Equal(t, entity.StatusSubmitted, got.Status)
	}

	third := f.createUser(t, "reviewer2@test.org", entity.RoleReviewer)
	f.assign(t, editor, manuscript.ID, third.UserID)

	got, err := f.manuscripts.FindByID(ctx, manuscript.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusInReview, got.Status)

	// A fourth assignment succeeds and the status stays inReview.
	fourth := f.createUser(t, "reviewer3@test.org", entity.RoleReviewer)
	f.assign(t, editor, manuscript.ID, fourth.UserID)

	got, err = f.manuscripts.FindByID(ctx, manuscript.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusInReview, got.Status)
}

func TestDuplicateAssignmentRejected(t *testing.T) {
	f := setup(t)
	editor := f.createUser(t, "editor@test.org", entity.RoleEditor)
	reviewer := f.createUser(t, "reviewer@test.org", entity.RoleReviewer)
	manuscript := f.createManuscript(t, "Model Compression")

	f.assign(t, editor, manuscript.ID, reviewer.UserID)

	_, err := f.svc.AssignReviewer(context.Background(), editor, dto.AssignReviewerInput{
		ManuscriptID: manuscript.ID,
		ReviewerID:   reviewer.UserID,
		Deadline:     time.Now().Add(time.Hour),
	})
	assert.ErrorIs(t, err, apperror.ErrInvalidState)
}

func TestRemovingLastReviewerRestoresSubmitted(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	editor := f.createUser(t, "editor@test.org", entity.RoleEditor)
	manuscript := f.createManuscript(t, "Causal Inference at Scale")

	var reviewIDs []uuid.UUID
	for i := 0; i < 3; i++ {
		reviewer := f.createUser(t, fmt.Sprintf("reviewer%d@test.org", i), entity.RoleReviewer)
		review := f.assign(t, editor, manuscript.ID, reviewer.UserID)
		reviewIDs = append(reviewIDs, review.ID)
	}

	got, err := f.manuscripts.FindByID(ctx, manuscript.ID)
	require.NoError(t, err)
	require.Equal(t, entity.StatusInReview, got.Status)

	// Removing one of three leaves the manuscript in review.
	require.NoError(t, f.svc.RemoveReviewer(ctx, editor, reviewIDs[0]))
	got, err = f.manuscripts.FindByID(ctx, manuscript.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusInReview, got.Status)

	require.NoError(t, f.svc.RemoveReviewer(ctx, editor, reviewIDs[1]))
	require.NoError(t, f.svc.RemoveReviewer(ctx, editor, reviewIDs[2]))

	got, err = f.manuscripts.FindByID(ctx, manuscript.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusSubmitted, got.Status)
}

func TestSubmitReviewValidatesScoreBounds(t *testing.T) {
	f := setup(t)
	editor := f.createUser(t, "editor@test.org", entity.RoleEditor)
	reviewer := f.createUser(t, "reviewer@test.org", entity.RoleReviewer)
	manuscript := f.createManuscript(t, "Streaming Joins")
	review := f.assign(t, editor, manuscript.ID, reviewer.UserID)

	for _, score := range []int{0, 11, -3} {
		_, err := f.svc.SubmitReview(context.Background(), reviewer, review.ID, dto.SubmitReviewInput{
			Score:          score,
			CommentsMd:     "comments",
			Recommendation: "accept",
		})
		assert.ErrorIs(t, err, apperror.ErrValidation, "score %d", score)
	}
}

func TestSubmitReviewOwnerOnly(t *testing.T) {
	f := setup(t)
	editor := f.createUser(t, "editor@test.org", entity.RoleEditor)
	reviewer := f.createUser(t, "reviewer@test.org", entity.RoleReviewer)
	intruder := f.createUser(t, "other@test.org", entity.RoleReviewer)
	manuscript := f.createManuscript(t, "Vector Databases")
	review := f.assign(t, editor, manuscript.ID, reviewer.UserID)

	_, err := f.svc.SubmitReview(context.Background(), intruder, review.ID, dto.SubmitReviewInput{
		Score:          7,
		CommentsMd:     "comments",
		Recommendation: "minor",
	})
	assert.ErrorIs(t, err, apperror.ErrForbidden)
}

func TestResubmissionKeepsAuditTrail(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	editor := f.createUser(t, "editor@test.org", entity.RoleEditor)
	reviewer := f.createUser(t, "reviewer@test.org", entity.RoleReviewer)
	manuscript := f.createManuscript(t, "Gradient Checkpointing")
	review := f.assign(t, editor, manuscript.ID, reviewer.UserID)

	first, err := f.svc.SubmitReview(ctx, reviewer, review.ID, dto.SubmitReviewInput{
		Score:          4,
		CommentsMd:     "needs work",
		Recommendation: "major",
	})
	require.NoError(t, err)
	assert.Equal(t, string(entity.ReviewSubmitted), first.Status)

	second, err := f.svc.SubmitReview(ctx, reviewer, review.ID, dto.SubmitReviewInput{
		Score:          8,
		CommentsMd:     "much improved",
		Recommendation: "accept",
	})
	require.NoError(t, err)
	require.NotNil(t, second.Score)
	assert.Equal(t, 8, *second.Score)

	var audits []entity.ReviewAudit
	require.NoError(t, f.db.Where("review_id = ?", review.ID).Find(&audits).Error)
	require.Len(t, audits, 1)
	require.NotNil(t, audits[0].Score)
	assert.Equal(t, 4, *audits[0].Score)
}

func TestBlindManuscriptViewForReviewer(t *testing.T) {
	f := setup(t)
	editor := f.createUser(t, "editor@test.org", entity.RoleEditor)
	reviewer := f.createUser(t, "reviewer@test.org", entity.RoleReviewer)
	manuscript := f.createManuscript(t, "Double Blind Pipelines")
	f.assign(t, editor, manuscript.ID, reviewer.UserID)

	assigned, err := f.svc.GetAssignedReviews(context.Background(), reviewer)
	require.NoError(t, err)
	require.Len(t, assigned, 1)
	assert.Equal(t, manuscript.ID, assigned[0].Manuscript.ID)
	assert.Equal(t, "Double Blind Pipelines", assigned[0].Manuscript.Title)

	// A user without the reviewer role sees an empty list, not an error.
	plain := f.createUser(t, "author@test.org", entity.RoleAuthor)
	none, err := f.svc.GetAssignedReviews(context.Background(), plain)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestOverdueSweepDeduplicatesReminders(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	editor := f.createUser(t, "editor@test.org", entity.RoleEditor)
	reviewer := f.createUser(t, "reviewer@test.org", entity.RoleReviewer)
	manuscript := f.createManuscript(t, "Late Review Handling")
	review := f.assign(t, editor, manuscript.ID, reviewer.UserID)

	// Push the deadline into the past.
	require.NoError(t, f.db.Model(&entity.Review{}).
		Where("id = ?", review.ID).
		Update("deadline", time.Now().Add(-48*time.Hour)).Error)

	require.NoError(t, f.svc.CheckForOverdueReviews(ctx))
	require.NoError(t, f.svc.CheckForOverdueReviews(ctx))

	var count int64
	require.NoError(t, f.db.Model(&entity.EmailOutbox{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	var row entity.EmailOutbox
	require.NoError(t, f.db.First(&row).Error)
	assert.Equal(t, "reviewer@test.org", row.Email)
	assert.Equal(t, entity.OutboxPending, row.Status)

	// A submitted review drops out of the sweep.
	_, err := f.svc.SubmitReview(ctx, reviewer, review.ID, dto.SubmitReviewInput{
		Score:          6,
		CommentsMd:     "done",
		Recommendation: "minor",
	})
	require.NoError(t, err)
	require.NoError(t, f.db.Where("1 = 1").Delete(&entity.EmailOutbox{}).Error)
	require.NoError(t, f.svc.CheckForOverdueReviews(ctx))

	require.NoError(t, f.db.Model(&entity.EmailOutbox{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}
