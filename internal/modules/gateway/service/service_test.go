package service_test

import (
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"openjournal.app/backend/internal/auth"
	"openjournal.app/backend/internal/entity"
	articleRepo "openjournal.app/backend/internal/modules/article/repository"
	articleService "openjournal.app/backend/internal/modules/article/service"
	"openjournal.app/backend/internal/modules/gateway/dto"
	"openjournal.app/backend/internal/modules/gateway/service"
	manuscriptRepo "openjournal.app/backend/internal/modules/manuscript/repository"
	manuscriptService "openjournal.app/backend/internal/modules/manuscript/service"
	notifRepo "openjournal.app/backend/internal/modules/notification/repository"
	notifService "openjournal.app/backend/internal/modules/notification/service"
	proofingRepo "openjournal.app/backend/internal/modules/proofing/repository"
	proofingService "openjournal.app/backend/internal/modules/proofing/service"
	reviewService "openjournal.app/backend/internal/modules/review/service"
	reviewRepo "openjournal.app/backend/internal/modules/review/repository"
	searchService "openjournal.app/backend/internal/modules/search/service"
	userRepo "openjournal.app/backend/internal/modules/user/repository"
	"openjournal.app/backend/pkg/apperror"
)

type stubStorage struct{}

func (stubStorage) Upload(ctx context.Context, r io.Reader, folder, fileName string) (string, error) {
	return folder + "/" + fileName, nil
}
func (stubStorage) ResolveURL(ref string) string           { return "https://files.test/" + ref }
func (stubStorage) Delete(ctx context.Context, ref string) error { return nil }

type stubSender struct{}

func (stubSender) Send(to, subject, htmlBody string) error { return nil }

type fixture struct {
	db          *gorm.DB
	users       userRepo.UserRepository
	manuscripts manuscriptRepo.ManuscriptRepository
	proofings   proofingRepo.ProofingRepository
	reviews     reviewRepo.ReviewRepository
	svc         service.GatewayService
}

func setup(t *testing.T) *fixture {
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&entity.User{}, &entity.UserProfile{},
		&entity.Manuscript{}, &entity.ManuscriptAuthor{}, &entity.EditorialDecision{},
		&entity.Review{}, &entity.ReviewAudit{},
		&entity.ProofingTask{}, &entity.Article{},
		&entity.Notification{}, &entity.EmailOutbox{},
	))

	users := userRepo.NewUserRepository(db)
	manuscripts := manuscriptRepo.NewManuscriptRepository(db)
	proofings := proofingRepo.NewProofingRepository(db)
	reviews := reviewRepo.NewReviewRepository(db)
	articles := articleRepo.NewArticleRepository(db)
	notifications := notifRepo.NewNotificationRepository(db)
	notifier := notifService.NewNotificationService(notifications, nil)
	outbox := notifService.NewOutboxService(notifications, stubSender{})
	search := searchService.NewSearchService(nil)

	proofingSvc := proofingService.NewProofingService(proofings, manuscripts, users, stubStorage{})
	manuscriptSvc := manuscriptService.NewManuscriptService(manuscripts, users, proofingSvc, notifier, search, stubStorage{})
	reviewSvc := reviewService.NewReviewService(reviews, manuscripts, users, notifier, outbox, stubStorage{})
	articleSvc := articleService.NewArticleService(articles, proofings, manuscripts, users, search, stubStorage{})

	return &fixture{
		db:          db,
		users:       users,
		manuscripts: manuscripts,
		proofings:   proofings,
		reviews:     reviews,
		svc: service.NewGatewayService(
			manuscriptSvc, manuscripts, reviewSvc, articleSvc,
			proofings, users, outbox, search,
		),
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

// serviceAccount mirrors what the API key middleware resolves: the super
// admin user, which passes every role check.
func (f *fixture) serviceAccount(t *testing.T) *auth.Context {
	return f.createUser(t, "service@test.org", entity.RoleAdmin)
}

func (f *fixture) submit(t *testing.T, actor *auth.Context, title string) *entity.Manuscript {
	resp, err := f.svc.SubmitManuscript(context.Background(), actor, dto.GatewaySubmitInput{
		Title:    title,
		Abstract: "An abstract.",
		Keywords: []string{"testing"},
		Language: "en",
		FileRef:  "manuscripts/file.pdf",
	})
	require.NoError(t, err)

	manuscript, err := f.manuscripts.FindByID(context.Background(), resp.ID)
	require.NoError(t, err)
	return manuscript
}

func TestGatewayDecisionMapping(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	actor := f.serviceAccount(t)
	// CreateTask assigns the first editor on record.
	f.createUser(t, "editor@test.org", entity.RoleEditor)

	cases := map[string]entity.ManuscriptStatus{
		"accept": entity.StatusProofing,
		"reject": entity.StatusRejected,
		"revise": entity.StatusMajorRevisions,
	}

	for decision, want := range cases {
		manuscript := f.submit(t, actor, "Manuscript "+decision)

		_, err := f.svc.MakeDecision(ctx, actor, manuscript.ID, dto.GatewayDecisionInput{Decision: decision})
		require.NoError(t, err)

		got, err := f.manuscripts.FindByID(ctx, manuscript.ID)
		require.NoError(t, err)
		assert.Equal(t, want, got.Status, decision)
	}
}

func TestGatewayAssignReviewersByEmail(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	actor := f.serviceAccount(t)
	reviewer := f.createUser(t, "reviewer@test.org", entity.RoleReviewer)
	manuscript := f.submit(t, actor, "Reviewed via Gateway")

	results, err := f.svc.AssignReviewers(ctx, actor, manuscript.ID, dto.GatewayAssignReviewersInput{
		ReviewerEmails: []string{"reviewer@test.org", "unknown@test.org"},
	})
	require.NoError(t, err)
	require.Len(t, results, 2)

	require.NotNil(t, results[0].ReviewID)
	assert.Nil(t, results[0].Error)

	assert.Nil(t, results[1].ReviewID)
	require.NotNil(t, results[1].Error)
	assert.Contains(t, *results[1].Error, "no account")

	// The default deadline lands two weeks out.
	review, err := f.reviews.FindByID(ctx, *results[0].ReviewID)
	require.NoError(t, err)
	assert.Equal(t, reviewer.UserID, review.ReviewerID)
	assert.WithinDuration(t, time.Now().Add(14*24*time.Hour), review.Deadline, time.Minute)
}

func TestGatewaySearchPaginatesWithCursor(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	actor := f.serviceAccount(t)

	for i := 0; i < 3; i++ {
		f.submit(t, actor, fmt.Sprintf("Graph Neural Networks %d", i))
	}
	f.submit(t, actor, "Unrelated Topic")

	page, err := f.svc.SearchManuscripts(ctx, actor, "Graph", nil, 2)
	require.NoError(t, err)
	assert.Len(t, page.Results, 2)
	assert.Equal(t, int64(3), page.Pagination.Total)
	assert.True(t, page.Pagination.HasMore)
	require.NotNil(t, page.Pagination.Cursor)
	assert.Equal(t, "2", *page.Pagination.Cursor)

	offset := 2
	next, err := f.svc.SearchManuscripts(ctx, actor, "Graph", &offset, 2)
	require.NoError(t, err)
	assert.Len(t, next.Results, 1)
	assert.False(t, next.Pagination.HasMore)
	assert.Nil(t, next.Pagination.Cursor)
}

func TestGatewaySearchRejectsNegativeCursor(t *testing.T) {
	f := setup(t)
	actor := f.serviceAccount(t)

	bad := -1
	_, err := f.svc.SearchManuscripts(context.Background(), actor, "x", &bad, 10)
	assert.ErrorIs(t, err, apperror.ErrBadRequest)
}

func TestGatewayPublishResolvesProofingTask(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	actor := f.serviceAccount(t)
	f.createUser(t, "editor@test.org", entity.RoleEditor)

	manuscript := f.submit(t, actor, "Published via Gateway")

	// No proofing task yet.
	_, err := f.svc.PublishManuscript(ctx, actor, manuscript.ID, dto.GatewayPublishInput{})
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	_, err = f.svc.MakeDecision(ctx, actor, manuscript.ID, dto.GatewayDecisionInput{Decision: "accept"})
	require.NoError(t, err)

	// The task exists but is not completed.
	_, err = f.svc.PublishManuscript(ctx, actor, manuscript.ID, dto.GatewayPublishInput{})
	assert.ErrorIs(t, err, apperror.ErrInvalidState)

	task, err := f.proofings.FindByManuscriptID(ctx, manuscript.ID)
	require.NoError(t, err)
	ref := "proofs/final.pdf"
	now := time.Now()
	task.Status = entity.ProofingCompleted
	task.ProofedRef = &ref
	task.CompletedAt = &now
	require.NoError(t, f.proofings.Save(ctx, task))

	doi := "10.1/test"
	article, err := f.svc.PublishManuscript(ctx, actor, manuscript.ID, dto.GatewayPublishInput{Doi: &doi})
	require.NoError(t, err)
	assert.Equal(t, manuscript.ID, article.OriginalManuscriptID)

	got, err := f.manuscripts.FindByID(ctx, manuscript.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusPublished, got.Status)
}

func TestGatewayNotifyUser(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	actor := f.serviceAccount(t)
	f.createUser(t, "recipient@test.org", entity.RoleAuthor)

	require.NoError(t, f.svc.NotifyUser(ctx, actor, dto.GatewayNotifyInput{
		UserEmail: "recipient@test.org",
		Subject:   "Desk check",
		Body:      "<p>Please revise.</p>",
	}))

	var row entity.EmailOutbox
	require.NoError(t, f.db.First(&row).Error)
	assert.Equal(t, "recipient@test.org", row.Email)

	err := f.svc.NotifyUser(ctx, actor, dto.GatewayNotifyInput{
		UserEmail: "ghost@test.org",
		Subject:   "Hello",
		Body:      "<p>hi</p>",
	})
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}
