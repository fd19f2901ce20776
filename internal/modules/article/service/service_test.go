package service_test

import (
	"context"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"openjournal.app/backend/internal/auth"
	"openjournal.app/backend/internal/entity"
	"openjournal.app/backend/internal/modules/article/dto"
	"openjournal.app/backend/internal/modules/article/repository"
	"openjournal.app/backend/internal/modules/article/service"
	manuscriptDto "openjournal.app/backend/internal/modules/manuscript/dto"
	manuscriptRepo "openjournal.app/backend/internal/modules/manuscript/repository"
	manuscriptService "openjournal.app/backend/internal/modules/manuscript/service"
	notifRepo "openjournal.app/backend/internal/modules/notification/repository"
	notifService "openjournal.app/backend/internal/modules/notification/service"
	proofingDto "openjournal.app/backend/internal/modules/proofing/dto"
	proofingRepo "openjournal.app/backend/internal/modules/proofing/repository"
	proofingService "openjournal.app/backend/internal/modules/proofing/service"
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

type fixture struct {
	db          *gorm.DB
	users       userRepo.UserRepository
	manuscripts manuscriptRepo.ManuscriptRepository
	proofings   proofingRepo.ProofingRepository
	manuscript  manuscriptService.ManuscriptService
	proofing    proofingService.ProofingService
	svc         service.ArticleService
}

func setup(t *testing.T) *fixture {
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&entity.User{}, &entity.UserProfile{},
		&entity.Manuscript{}, &entity.ManuscriptAuthor{}, &entity.EditorialDecision{},
		&entity.ProofingTask{}, &entity.Article{}, &entity.Notification{},
	))

	users := userRepo.NewUserRepository(db)
	manuscripts := manuscriptRepo.NewManuscriptRepository(db)
	proofings := proofingRepo.NewProofingRepository(db)
	articles := repository.NewArticleRepository(db)
	notifications := notifRepo.NewNotificationRepository(db)
	notifier := notifService.NewNotificationService(notifications, nil)
	search := searchService.NewSearchService(nil)

	proofingSvc := proofingService.NewProofingService(proofings, manuscripts, users, stubStorage{})
	manuscriptSvc := manuscriptService.NewManuscriptService(manuscripts, users, proofingSvc, notifier, search, stubStorage{})

	return &fixture{
		db:          db,
		users:       users,
		manuscripts: manuscripts,
		proofings:   proofings,
		manuscript:  manuscriptSvc,
		proofing:    proofingSvc,
		svc:         service.NewArticleService(articles, proofings, manuscripts, users, search, stubStorage{}),
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

// runToProofing walks a fresh manuscript through submission and the proofing
// decision, returning the open proofing task.
func (f *fixture) runToProofing(t *testing.T, author, editor *auth.Context, title string) (*manuscriptDto.ManuscriptResponse, *entity.ProofingTask) {
	ctx := context.Background()

	manuscript, err := f.manuscript.Submit(ctx, author, manuscriptDto.SubmitManuscriptInput{
		Title:    title,
		Abstract: "An abstract.",
		Keywords: []string{"testing"},
		Language: "en",
		FileRef:  "manuscripts/original.pdf",
	})
	require.NoError(t, err)

	_, err = f.manuscript.MakeDecision(ctx, editor, manuscript.ID, manuscriptDto.DecisionInput{Decision: "proofing"})
	require.NoError(t, err)

	task, err := f.proofings.FindByManuscriptID(ctx, manuscript.ID)
	require.NoError(t, err)
	return manuscript, task
}

func TestPublishArticleFullFlow(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	author := f.createUser(t, "author@test.org", entity.RoleAuthor)
	editor := f.createUser(t, "editor@test.org", entity.RoleEditor)

	manuscript, task := f.runToProofing(t, author, editor, "A Study of Test Coverage")

	notes := "typography fixed"
	_, err := f.proofing.UploadProofedFile(ctx, editor, task.ID, proofingDto.UploadProofedFileInput{
		FileRef:       "proofs/final.pdf",
		ProofingNotes: &notes,
	})
	require.NoError(t, err)

	doi := "10.1/test"
	article, err := f.svc.PublishArticle(ctx, editor, dto.PublishArticleInput{
		ProofingTaskID: task.ID,
		Doi:            &doi,
	})
	require.NoError(t, err)

	// The article carries the manuscript slug and metadata.
	assert.Equal(t, *manuscript.Slug, article.Slug)
	assert.Equal(t, manuscript.ID, article.OriginalManuscriptID)
	require.NotNil(t, article.Doi)
	assert.Equal(t, "10.1/test", *article.Doi)
	require.Len(t, article.Authors, 1)

	got, err := f.manuscripts.FindByID(ctx, manuscript.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusPublished, got.Status)

	updatedTask, err := f.proofings.FindByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.ProofingPublished, updatedTask.Status)

	found, err := f.svc.GetArticleBySlug(ctx, article.Slug)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, article.ID, found.ID)
}

func TestPublishRequiresCompletedProofing(t *testing.T) {
	f := setup(t)
	author := f.createUser(t, "author@test.org", entity.RoleAuthor)
	editor := f.createUser(t, "editor@test.org", entity.RoleEditor)

	_, task := f.runToProofing(t, author, editor, "Premature Publication")

	_, err := f.svc.PublishArticle(context.Background(), editor, dto.PublishArticleInput{
		ProofingTaskID: task.ID,
	})
	assert.ErrorIs(t, err, apperror.ErrInvalidState)
}

func TestDoublePublishRejected(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	author := f.createUser(t, "author@test.org", entity.RoleAuthor)
	editor := f.createUser(t, "editor@test.org", entity.RoleEditor)

	_, task := f.runToProofing(t, author, editor, "Publish Once")

	_, err := f.proofing.UploadProofedFile(ctx, editor, task.ID, proofingDto.UploadProofedFileInput{
		FileRef: "proofs/final.pdf",
	})
	require.NoError(t, err)

	_, err = f.svc.PublishArticle(ctx, editor, dto.PublishArticleInput{ProofingTaskID: task.ID})
	require.NoError(t, err)

	// The task is now published, no longer completed.
	_, err = f.svc.PublishArticle(ctx, editor, dto.PublishArticleInput{ProofingTaskID: task.ID})
	assert.ErrorIs(t, err, apperror.ErrInvalidState)
}

func TestPublishRequiresEditorRole(t *testing.T) {
	f := setup(t)
	author := f.createUser(t, "author@test.org", entity.RoleAuthor)
	editor := f.createUser(t, "editor@test.org", entity.RoleEditor)

	_, task := f.runToProofing(t, author, editor, "No Author Publishing")

	_, err := f.svc.PublishArticle(context.Background(), author, dto.PublishArticleInput{
		ProofingTaskID: task.ID,
	})
	assert.ErrorIs(t, err, apperror.ErrForbidden)
}

func TestGetArticleBySlugReturnsNilForUnknown(t *testing.T) {
	f := setup(t)

	got, err := f.svc.GetArticleBySlug(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSearchArticlesFallsBackToScan(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	author := f.createUser(t, "author@test.org", entity.RoleAuthor)
	editor := f.createUser(t, "editor@test.org", entity.RoleEditor)

	_, task := f.runToProofing(t, author, editor, "Searchable Retrieval Systems")
	_, err := f.proofing.UploadProofedFile(ctx, editor, task.ID, proofingDto.UploadProofedFileInput{
		FileRef: "proofs/final.pdf",
	})
	require.NoError(t, err)
	_, err = f.svc.PublishArticle(ctx, editor, dto.PublishArticleInput{ProofingTaskID: task.ID})
	require.NoError(t, err)

	// No search index is configured, so this exercises the database scan.
	results, err := f.svc.SearchArticles(ctx, "Retrieval", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Searchable Retrieval Systems", results[0].Title)

	none, err := f.svc.SearchArticles(ctx, "nonexistent topic", 10)
	require.NoError(t, err)
	assert.Empty(t, none)
}
