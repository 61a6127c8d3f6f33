package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"inkwell/internal/identity"
	"inkwell/internal/models"
	"inkwell/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// postRepoStub is a stub for repository.PostRepository.
type postRepoStub struct {
	countFn     func(context.Context, repository.PostFilter) (int64, error)
	listFn      func(context.Context, repository.PostFilter, int, int) ([]models.PostRow, error)
	listAdminFn func(context.Context, repository.PostFilter, int, int) ([]models.AdminPostRow, error)
	getByIDFn   func(context.Context, uint, bool) (*models.PostRow, error)
	existsFn    func(context.Context, uint) (bool, error)
	createFn    func(context.Context, *models.Post) error
	updateFn    func(context.Context, *models.Post) error
	deleteFn    func(context.Context, uint) error
}

func (s *postRepoStub) Count(ctx context.Context, f repository.PostFilter) (int64, error) {
	return s.countFn(ctx, f)
}
func (s *postRepoStub) List(ctx context.Context, f repository.PostFilter, limit, offset int) ([]models.PostRow, error) {
	return s.listFn(ctx, f, limit, offset)
}
func (s *postRepoStub) ListAdmin(ctx context.Context, f repository.PostFilter, limit, offset int) ([]models.AdminPostRow, error) {
	return s.listAdminFn(ctx, f, limit, offset)
}
func (s *postRepoStub) GetByID(ctx context.Context, id uint, publishedOnly bool) (*models.PostRow, error) {
	return s.getByIDFn(ctx, id, publishedOnly)
}
func (s *postRepoStub) Exists(ctx context.Context, id uint) (bool, error) {
	return s.existsFn(ctx, id)
}
func (s *postRepoStub) Create(ctx context.Context, post *models.Post) error {
	return s.createFn(ctx, post)
}
func (s *postRepoStub) Update(ctx context.Context, post *models.Post) error {
	return s.updateFn(ctx, post)
}
func (s *postRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}

func noopPostRepo() *postRepoStub {
	return &postRepoStub{
		countFn: func(context.Context, repository.PostFilter) (int64, error) { return 0, nil },
		listFn: func(context.Context, repository.PostFilter, int, int) ([]models.PostRow, error) {
			return []models.PostRow{}, nil
		},
		listAdminFn: func(context.Context, repository.PostFilter, int, int) ([]models.AdminPostRow, error) {
			return []models.AdminPostRow{}, nil
		},
		getByIDFn: func(_ context.Context, id uint, _ bool) (*models.PostRow, error) {
			return &models.PostRow{ID: id, Title: "post"}, nil
		},
		existsFn: func(context.Context, uint) (bool, error) { return true, nil },
		createFn: func(_ context.Context, p *models.Post) error { p.ID = 1; return nil },
		updateFn: func(context.Context, *models.Post) error { return nil },
		deleteFn: func(context.Context, uint) error { return nil },
	}
}

type likeRepoStub struct {
	toggleFn func(context.Context, uint, string) (*models.LikeResult, error)
	statusFn func(context.Context, uint, string) (*models.LikeResult, error)
}

func (s *likeRepoStub) Toggle(ctx context.Context, postID uint, userID string) (*models.LikeResult, error) {
	return s.toggleFn(ctx, postID, userID)
}
func (s *likeRepoStub) Status(ctx context.Context, postID uint, userID string) (*models.LikeResult, error) {
	return s.statusFn(ctx, postID, userID)
}

func noopLikeRepo() *likeRepoStub {
	return &likeRepoStub{
		toggleFn: func(_ context.Context, postID uint, _ string) (*models.LikeResult, error) {
			return &models.LikeResult{PostID: postID, Liked: true, LikesCount: 1}, nil
		},
		statusFn: func(_ context.Context, postID uint, _ string) (*models.LikeResult, error) {
			return &models.LikeResult{PostID: postID}, nil
		},
	}
}

type categoryRepoStub struct {
	listFn       func(context.Context, string) ([]models.Category, error)
	getByIDFn    func(context.Context, uint) (*models.Category, error)
	existsFn     func(context.Context, uint) (bool, error)
	nameTakenFn  func(context.Context, string, uint) (bool, error)
	createFn     func(context.Context, *models.Category) error
	updateFn     func(context.Context, *models.Category) error
	deleteFn     func(context.Context, uint) error
	countPostsFn func(context.Context, uint) (int64, error)
}

func (s *categoryRepoStub) List(ctx context.Context, search string) ([]models.Category, error) {
	return s.listFn(ctx, search)
}
func (s *categoryRepoStub) GetByID(ctx context.Context, id uint) (*models.Category, error) {
	return s.getByIDFn(ctx, id)
}
func (s *categoryRepoStub) Exists(ctx context.Context, id uint) (bool, error) {
	return s.existsFn(ctx, id)
}
func (s *categoryRepoStub) NameTaken(ctx context.Context, name string, exceptID uint) (bool, error) {
	return s.nameTakenFn(ctx, name, exceptID)
}
func (s *categoryRepoStub) Create(ctx context.Context, c *models.Category) error {
	return s.createFn(ctx, c)
}
func (s *categoryRepoStub) Update(ctx context.Context, c *models.Category) error {
	return s.updateFn(ctx, c)
}
func (s *categoryRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}
func (s *categoryRepoStub) CountPosts(ctx context.Context, id uint) (int64, error) {
	return s.countPostsFn(ctx, id)
}

func noopCategoryRepo() *categoryRepoStub {
	return &categoryRepoStub{
		listFn: func(context.Context, string) ([]models.Category, error) {
			return []models.Category{{ID: 1, Name: "Cat"}}, nil
		},
		getByIDFn: func(_ context.Context, id uint) (*models.Category, error) {
			return &models.Category{ID: id, Name: "Cat"}, nil
		},
		existsFn:     func(context.Context, uint) (bool, error) { return true, nil },
		nameTakenFn:  func(context.Context, string, uint) (bool, error) { return false, nil },
		createFn:     func(_ context.Context, c *models.Category) error { c.ID = 1; return nil },
		updateFn:     func(context.Context, *models.Category) error { return nil },
		deleteFn:     func(context.Context, uint) error { return nil },
		countPostsFn: func(context.Context, uint) (int64, error) { return 0, nil },
	}
}

type statusRepoStub struct {
	listFn   func(context.Context) ([]models.Status, error)
	existsFn func(context.Context, uint) (bool, error)
}

func (s *statusRepoStub) List(ctx context.Context) ([]models.Status, error) { return s.listFn(ctx) }
func (s *statusRepoStub) Exists(ctx context.Context, id uint) (bool, error) {
	return s.existsFn(ctx, id)
}

func noopStatusRepo() *statusRepoStub {
	return &statusRepoStub{
		listFn: func(context.Context) ([]models.Status, error) {
			return []models.Status{{ID: 1, Status: models.StatusDraft}, {ID: 2, Status: models.StatusPublish}}, nil
		},
		existsFn: func(_ context.Context, id uint) (bool, error) { return id == 1 || id == 2, nil },
	}
}

type userRepoStub struct {
	createFn        func(context.Context, *models.User) error
	getByIDFn       func(context.Context, string) (*models.User, error)
	getByUsernameFn func(context.Context, string) (*models.User, error)
	getByIDsFn      func(context.Context, []string) ([]models.User, error)
	usernameTakenFn func(context.Context, string, string) (bool, error)
	updateFn        func(context.Context, *models.User) error
	updateRoleFn    func(context.Context, string, string) error
}

func (s *userRepoStub) Create(ctx context.Context, u *models.User) error { return s.createFn(ctx, u) }
func (s *userRepoStub) GetByID(ctx context.Context, id string) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getByUsernameFn(ctx, username)
}
func (s *userRepoStub) GetByIDs(ctx context.Context, ids []string) ([]models.User, error) {
	return s.getByIDsFn(ctx, ids)
}
func (s *userRepoStub) UsernameTaken(ctx context.Context, username, exceptID string) (bool, error) {
	return s.usernameTakenFn(ctx, username, exceptID)
}
func (s *userRepoStub) Update(ctx context.Context, u *models.User) error { return s.updateFn(ctx, u) }
func (s *userRepoStub) UpdateRole(ctx context.Context, id, role string) error {
	return s.updateRoleFn(ctx, id, role)
}

func noopUserRepo() *userRepoStub {
	return &userRepoStub{
		createFn: func(context.Context, *models.User) error { return nil },
		getByIDFn: func(_ context.Context, id string) (*models.User, error) {
			return &models.User{ID: id, Username: "user-" + id, Role: models.RoleUser}, nil
		},
		getByUsernameFn: func(_ context.Context, username string) (*models.User, error) {
			return &models.User{ID: "id-" + username, Username: username, Role: models.RoleUser}, nil
		},
		getByIDsFn: func(_ context.Context, ids []string) ([]models.User, error) {
			users := make([]models.User, 0, len(ids))
			for _, id := range ids {
				users = append(users, models.User{ID: id, Username: "user-" + id})
			}
			return users, nil
		},
		usernameTakenFn: func(context.Context, string, string) (bool, error) { return false, nil },
		updateFn:        func(context.Context, *models.User) error { return nil },
		updateRoleFn:    func(context.Context, string, string) error { return nil },
	}
}

type commentRepoStub struct {
	createFn     func(context.Context, *models.Comment) error
	getByIDFn    func(context.Context, uint) (*models.Comment, error)
	listByPostFn func(context.Context, uint) ([]models.Comment, error)
	deleteFn     func(context.Context, uint) error
}

func (s *commentRepoStub) Create(ctx context.Context, c *models.Comment) error {
	return s.createFn(ctx, c)
}
func (s *commentRepoStub) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	return s.getByIDFn(ctx, id)
}
func (s *commentRepoStub) ListByPost(ctx context.Context, postID uint) ([]models.Comment, error) {
	return s.listByPostFn(ctx, postID)
}
func (s *commentRepoStub) Delete(ctx context.Context, id uint) error { return s.deleteFn(ctx, id) }

func noopCommentRepo() *commentRepoStub {
	return &commentRepoStub{
		createFn:  func(_ context.Context, c *models.Comment) error { c.ID = 1; return nil },
		getByIDFn: func(context.Context, uint) (*models.Comment, error) { return nil, gorm.ErrRecordNotFound },
		listByPostFn: func(context.Context, uint) ([]models.Comment, error) {
			return []models.Comment{}, nil
		},
		deleteFn: func(context.Context, uint) error { return nil },
	}
}

type activityRepoStub struct {
	commentsFn func(context.Context, int) ([]models.Activity, error)
	likesFn    func(context.Context, int) ([]models.Activity, error)
}

func (s *activityRepoStub) LatestComments(ctx context.Context, limit int) ([]models.Activity, error) {
	return s.commentsFn(ctx, limit)
}
func (s *activityRepoStub) LatestLikes(ctx context.Context, limit int) ([]models.Activity, error) {
	return s.likesFn(ctx, limit)
}

// providerStub is a stub for identity.Provider.
type providerStub struct {
	signUpFn         func(context.Context, string, string) (*identity.Identity, error)
	signInFn         func(context.Context, string, string) (*identity.Session, error)
	getIdentityFn    func(context.Context, string) (*identity.Identity, error)
	updatePasswordFn func(context.Context, string, string, string) error
	signOutFn        func(context.Context, *identity.Claims) error
	deleteFn         func(context.Context, string) error
}

func (p *providerStub) SignUp(ctx context.Context, email, password string) (*identity.Identity, error) {
	return p.signUpFn(ctx, email, password)
}
func (p *providerStub) SignIn(ctx context.Context, email, password string) (*identity.Session, error) {
	return p.signInFn(ctx, email, password)
}
func (p *providerStub) Verify(context.Context, string) (*identity.Claims, error) {
	return nil, identity.ErrTokenInvalid
}
func (p *providerStub) GetIdentity(ctx context.Context, subject string) (*identity.Identity, error) {
	return p.getIdentityFn(ctx, subject)
}
func (p *providerStub) UpdatePassword(ctx context.Context, subject, oldPassword, newPassword string) error {
	return p.updatePasswordFn(ctx, subject, oldPassword, newPassword)
}
func (p *providerStub) SignOut(ctx context.Context, claims *identity.Claims) error {
	return p.signOutFn(ctx, claims)
}
func (p *providerStub) Delete(ctx context.Context, subject string) error {
	return p.deleteFn(ctx, subject)
}

func noopProvider() *providerStub {
	return &providerStub{
		signUpFn: func(_ context.Context, email, _ string) (*identity.Identity, error) {
			return &identity.Identity{Subject: "sub-1", Email: email}, nil
		},
		signInFn: func(context.Context, string, string) (*identity.Session, error) {
			return &identity.Session{AccessToken: "token", Subject: "sub-1"}, nil
		},
		getIdentityFn: func(_ context.Context, subject string) (*identity.Identity, error) {
			return &identity.Identity{Subject: subject, Email: subject + "@example.com"}, nil
		},
		updatePasswordFn: func(context.Context, string, string, string) error { return nil },
		signOutFn:        func(context.Context, *identity.Claims) error { return nil },
		deleteFn:         func(context.Context, string) error { return nil },
	}
}

// publisherStub records published activities.
type publisherStub struct {
	mu   sync.Mutex
	got  []models.Activity
	fail error
}

func (p *publisherStub) Publish(_ context.Context, a models.Activity) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.got = append(p.got, a)
	return p.fail
}

func (p *publisherStub) published() []models.Activity {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]models.Activity(nil), p.got...)
}

func assertAppErrorCode(t *testing.T, err error, code string) *models.AppError {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
	return appErr
}
