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
	"openjournal.app/backend/internal/modules/manuscript/dto"
	"openjournal.app/backend/internal/modules/manuscript/repository"
	"openjournal.app/backend/internal/modules/manuscript/service"
	notifRepo "openjournal.app/backend/internal/modules/notification/repository"
	notifService "openjournal.app/backend/internal/modules/notification/service"
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
	manuscripts repository.ManuscriptRepository
	proofing    proofingRepo.ProofingRepository
	svc         service.ManuscriptService
}

func setup(t *testing.T) *fixture {
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&entity.User{}, &entity.UserProfile{},
		&entity.Manuscript{}, &entity.ManuscriptAuthor{}, &entity.EditorialDecision{},
		&entity.ProofingTask{}, &entity.Notification{},
	))

	users := userRepo.NewUserRepository(db)
	manuscripts := repository.NewManuscriptRepository(db)
	proofings := proofingRepo.NewProofingRepository(db)
	notifications := notifRepo.NewNotificationRepository(db)
	notifier := notifService.NewNotificationService(notifications, nil)
	search := searchService.NewSearchService(nil)
	proofingSvc := proofingService.NewProofingService(proofings, manuscripts, users, stubStorage{})

	return &fixture{
		db:          db,
		users:       users,
		manuscripts: manuscripts,
		proofing:    proofings,
		svc:         service.NewManuscriptService(manuscripts, users, proofingSvc, notifier, search, stubStorage{}),
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

func submitInput(title string) dto.SubmitManuscriptInput {
	return dto.SubmitManuscriptInput{
		Title:    title,
		Abstract: "An abstract.",
		Keywords: []string{"systems"},
		Language: "en",
		FileRef:  "manuscripts/file.pdf",
	}
}

func TestSubmitCreatesManuscriptWithSlug(t *testing.T) {
	f := setup(t)
	author := f.createUser(t, "author@test.org", entity.RoleAuthor)

	resp, err := f.svc.Submit(context.Background(), author, submitInput("Deep Learning for X"))
	require.NoError(t, err)

	assert.Equal(t, string(entity.StatusSubmitted), resp.Status)
	require.NotNil(t, resp.Slug)
	assert.Equal(t, "deep-learning-for-x", *resp.Slug)
	require.Len(t, resp.Authors, 1)
	assert.Equal(t, author.UserID, resp.Authors[0].ID)
}

func TestSubmitDeduplicatesSlugs(t *testing.T) {
	f := setup(t)
	author := f.createUser(t, "author@test.org", entity.RoleAuthor)

	first, err := f.svc.Submit(context.Background(), author, submitInput("Foo"))
	require.NoError(t, err)
	second, err := f.svc.Submit(context.Background(), author, submitInput("Foo"))
	require.NoError(t, err)
	third, err := f.svc.Submit(context.Background(), author, submitInput("Foo"))
	require.NoError(t, err)

	assert.Equal(t, "foo", *first.Slug)
	assert.Equal(t, "foo-1", *second.Slug)
	assert.Equal(t, "foo-2", *third.Slug)
}

func TestSubmitRequiresAuthentication(t *testing.T) {
	f := setup(t)

	_, err := f.svc.Submit(context.Background(), nil, submitInput("Anonymous Work"))
	assert.ErrorIs(t, err, apperror.ErrUnauthenticated)
}

func TestMakeDecisionRequiresEditor(t *testing.T) {
	f := setup(t)
	author := f.createUser(t, "author@test.org", entity.RoleAuthor)

	manuscript, err := f.svc.Submit(context.Background(), author, submitInput("Unauthorized Decision"))
	require.NoError(t, err)

	_, err = f.svc.MakeDecision(context.Background(), author, manuscript.ID, dto.DecisionInput{Decision: "reject"})
	assert.ErrorIs(t, err, apperror.ErrForbidden)
}

func TestProofingDecisionCreatesTask(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	author := f.createUser(t, "author@test.org", entity.RoleAuthor)
	editor := f.createUser(t, "editor@test.org", entity.RoleEditor)

	manuscript, err := f.svc.Submit(ctx, author, submitInput("Ready for Proofing"))
	require.NoError(t, err)

	decision, err := f.svc.MakeDecision(ctx, editor, manuscript.ID, dto.DecisionInput{Decision: "proofing"})
	require.NoError(t, err)
	assert.Equal(t, string(entity.DecisionProofing), decision.Decision)

	got, err := f.manuscripts.FindByID(ctx, manuscript.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusProofing, got.Status)

	task, err := f.proofing.FindByManuscriptID(ctx, manuscript.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.ProofingPending, task.Status)
	assert.Equal(t, editor.UserID, task.EditorID)

	// The submitting author gets an in-app notification.
	var count int64
	require.NoError(t, f.db.Model(&entity.Notification{}).
		Where("user_id = ? AND type = ?", author.UserID, "decision").
		Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestRevisionDecisionsUpdateStatus(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	author := f.createUser(t, "author@test.org", entity.RoleAuthor)
	editor := f.createUser(t, "editor@test.org", entity.RoleEditor)

	cases := map[string]entity.ManuscriptStatus{
		"minorRevisions": entity.StatusMinorRevisions,
		"majorRevisions": entity.StatusMajorRevisions,
		"reject":         entity.StatusRejected,
	}

	for input, want := range cases {
		manuscript, err := f.svc.Submit(ctx, author, submitInput("Manuscript "+input))
		require.NoError(t, err)

		_, err = f.svc.MakeDecision(ctx, editor, manuscript.ID, dto.DecisionInput{Decision: input})
		require.NoError(t, err)

		got, err := f.manuscripts.FindByID(ctx, manuscript.ID)
		require.NoError(t, err)
		assert.Equal(t, want, got.Status, input)
	}
}

func TestGetBySlugReturnsNilForUnknownOrUnpublished(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	author := f.createUser(t, "author@test.org", entity.RoleAuthor)

	manuscript, err := f.svc.Submit(ctx, author, submitInput("Hidden Until Published"))
	require.NoError(t, err)

	got, err := f.svc.GetBySlug(ctx, "no-such-slug")
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = f.svc.GetBySlug(ctx, *manuscript.Slug)
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, f.manuscripts.UpdateStatus(ctx, manuscript.ID, entity.StatusPublished))

	got, err = f.svc.GetBySlug(ctx, *manuscript.Slug)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, manuscript.ID, got.ID)
}

func TestEditorQueueListsSubmittedAndInReview(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	author := f.createUser(t, "author@test.org", entity.RoleAuthor)
	editor := f.createUser(t, "editor@test.org", entity.RoleEditor)

	submitted, err := f.svc.Submit(ctx, author, submitInput("Waiting"))
	require.NoError(t, err)
	rejected, err := f.svc.Submit(ctx, author, submitInput("Turned Down"))
	require.NoError(t, err)
	_, err = f.svc.MakeDecision(ctx, editor, rejected.ID, dto.DecisionInput{Decision: "reject"})
	require.NoError(t, err)

	queue, err := f.svc.GetEditorQueue(ctx, editor)
	require.NoError(t, err)
	require.Len(t, queue, 1)
	assert.Equal(t, submitted.ID, queue[0].ID)
}
