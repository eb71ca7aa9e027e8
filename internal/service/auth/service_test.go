package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/ubuzima-connect/api/pkg/errors"

	"github.com/ubuzima-connect/api/internal/model"
	"github.com/ubuzima-connect/api/internal/repository"
	pkgauth "github.com/ubuzima-connect/api/pkg/auth"
)

type fakeUserRepo struct {
	users map[uuid.UUID]*model.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]*model.User)}
}

func (r *fakeUserRepo) Create(_ context.Context, user *model.User) error {
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) Get(_ context.Context, id uuid.UUID) (*model.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return user, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, user := range r.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) List(_ context.Context) ([]*model.User, error) {
	out := make([]*model.User, 0, len(r.users))
	for _, user := range r.users {
		out = append(out, user)
	}
	return out, nil
}

func (r *fakeUserRepo) Update(_ context.Context, user *model.User) error {
	if _, ok := r.users[user.ID]; !ok {
		return repository.ErrNotFound
	}
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.users, id)
	return nil
}

func newTestService(repo repository.UserRepository) *Service {
	jwtSvc := pkgauth.NewJWTService("access-secret", "refresh-secret", time.Hour, 7*24*time.Hour)
	return NewService(repo, jwtSvc)
}

func registerRequest(email string) *model.RegisterRequest {
	return &model.RegisterRequest{
		Email:         email,
		Password:      "strong-password",
		FirstName:     "Jean",
		LastName:      "Habimana",
		Role:          model.RoleGP,
		LicenseNumber: "GP-12345",
	}
}

func TestRegisterAndLogin(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	resp, err := svc.Register(ctx, registerRequest("jean@example.com"))
	require.NoError(t, err)
	require.NotNil(t, resp.User)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.NotEqual(t, "strong-password", resp.User.PasswordHash)

	login, err := svc.Login(ctx, "jean@example.com", "strong-password")
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, login.User.ID)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	_, err := svc.Register(ctx, registerRequest("jean@example.com"))
	require.NoError(t, err)

	_, err = svc.Register(ctx, registerRequest("jean@example.com"))
	require.Error(t, err)

	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrConflict, appErr.Code)
	assert.Len(t, repo.users, 1)
}

// racingUserRepo simulates losing a concurrent registration race: the email
// lookup sees nothing, but the insert hits the unique index.
type racingUserRepo struct {
	*fakeUserRepo
}

func (r *racingUserRepo) GetByEmail(_ context.Context, _ string) (*model.User, error) {
	return nil, repository.ErrNotFound
}

func (r *racingUserRepo) Create(_ context.Context, _ *model.User) error {
	return repository.ErrDuplicate
}

func TestRegisterConcurrentDuplicateEmail(t *testing.T) {
	repo := &racingUserRepo{fakeUserRepo: newFakeUserRepo()}
	svc := newTestService(repo)

	_, err := svc.Register(context.Background(), registerRequest("jean@example.com"))
	require.Error(t, err)

	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrConflict, appErr.Code)
}

func TestLoginWrongPassword(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	_, err := svc.Register(ctx, registerRequest("jean@example.com"))
	require.NoError(t, err)

	_, err = svc.Login(ctx, "jean@example.com", "wrong-password")
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrUnauthorized, appErr.Code)
}

func TestLoginUnknownEmail(t *testing.T) {
	svc := newTestService(newFakeUserRepo())

	_, err := svc.Login(context.Background(), "nobody@example.com", "whatever")
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrUnauthorized, appErr.Code)
	assert.Equal(t, "Invalid credentials", appErr.Message)
}

func TestRefreshToken(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	resp, err := svc.Register(ctx, registerRequest("jean@example.com"))
	require.NoError(t, err)

	tokens, err := svc.RefreshToken(ctx, resp.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, tokens.AccessToken)
	assert.NotEmpty(t, tokens.RefreshToken)
}

func TestRefreshTokenRejectsAccessToken(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	resp, err := svc.Register(ctx, registerRequest("jean@example.com"))
	require.NoError(t, err)

	_, err = svc.RefreshToken(ctx, resp.AccessToken)
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrUnauthorized, appErr.Code)
}

func TestRefreshTokenDeletedUser(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	resp, err := svc.Register(ctx, registerRequest("jean@example.com"))
	require.NoError(t, err)
	require.NoError(t, svc.DeleteUser(ctx, resp.User.ID))

	_, err = svc.RefreshToken(ctx, resp.RefreshToken)
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrUnauthorized, appErr.Code)
}

func TestGetRoleReadsStorageNotToken(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	resp, err := svc.Register(ctx, registerRequest("jean@example.com"))
	require.NoError(t, err)

	// Demote the user directly in storage; the old token still says GP.
	admin := model.RoleSpecialist
	_, err = svc.UpdateUser(ctx, resp.User.ID, &model.UpdateUserRequest{Role: &admin})
	require.NoError(t, err)

	role, err := svc.GetRole(ctx, resp.User.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RoleSpecialist, role)
}

func TestUpdateUserNotFound(t *testing.T) {
	svc := newTestService(newFakeUserRepo())

	email := "new@example.com"
	_, err := svc.UpdateUser(context.Background(), uuid.New(), &model.UpdateUserRequest{Email: &email})
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrNotFound, appErr.Code)
}

func TestUpdateUserRehashesPassword(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	resp, err := svc.Register(ctx, registerRequest("jean@example.com"))
	require.NoError(t, err)
	oldHash := resp.User.PasswordHash

	newPassword := "another-password"
	updated, err := svc.UpdateUser(ctx, resp.User.ID, &model.UpdateUserRequest{Password: &newPassword})
	require.NoError(t, err)
	assert.NotEqual(t, oldHash, updated.PasswordHash)
	assert.NotEqual(t, newPassword, updated.PasswordHash)

	_, err = svc.Login(ctx, "jean@example.com", "another-password")
	assert.NoError(t, err)
}

func TestDeleteUserNotFound(t *testing.T) {
	svc := newTestService(newFakeUserRepo())

	err := svc.DeleteUser(context.Background(), uuid.New())
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrNotFound, appErr.Code)
}
