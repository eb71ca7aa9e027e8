package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ubuzima-connect/api/internal/model"
	"github.com/ubuzima-connect/api/internal/repository"
	authService "github.com/ubuzima-connect/api/internal/service/auth"
	pkgauth "github.com/ubuzima-connect/api/pkg/auth"
)

type memUserRepo struct {
	users map[uuid.UUID]*model.User
}

func (r *memUserRepo) Create(_ context.Context, user *model.User) error {
	r.users[user.ID] = user
	return nil
}

func (r *memUserRepo) Get(_ context.Context, id uuid.UUID) (*model.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return user, nil
}

func (r *memUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, user := range r.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memUserRepo) List(_ context.Context) ([]*model.User, error) {
	var out []*model.User
	for _, user := range r.users {
		out = append(out, user)
	}
	return out, nil
}

func (r *memUserRepo) Update(_ context.Context, user *model.User) error {
	r.users[user.ID] = user
	return nil
}

func (r *memUserRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.users, id)
	return nil
}

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)

	repo := &memUserRepo{users: make(map[uuid.UUID]*model.User)}
	jwtSvc := pkgauth.NewJWTService("access-secret", "refresh-secret", time.Hour, time.Hour)
	svc := authService.NewService(repo, jwtSvc)

	r := gin.New()
	NewHandler(svc).RegisterRoutes(r.Group("/api/v1"))
	return r
}

func postJSON(r *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	data, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func registerBody() map[string]any {
	return map[string]any{
		"email":         "jean@example.com",
		"password":      "strong-password",
		"firstName":     "Jean",
		"lastName":      "Habimana",
		"role":          "GP",
		"licenseNumber": "GP-12345",
	}
}

func TestRegisterEndpoint(t *testing.T) {
	r := newTestRouter()

	w := postJSON(r, "/api/v1/auth/register", registerBody())
	require.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		Status string `json:"status"`
		Data   struct {
			User struct {
				Email string `json:"email"`
				Role  string `json:"role"`
			} `json:"user"`
			AccessToken  string `json:"accessToken"`
			RefreshToken string `json:"refreshToken"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "success", resp.Status)
	assert.Equal(t, "jean@example.com", resp.Data.User.Email)
	assert.Equal(t, "GP", resp.Data.User.Role)
	assert.NotEmpty(t, resp.Data.AccessToken)
	assert.NotEmpty(t, resp.Data.RefreshToken)
	assert.NotContains(t, w.Body.String(), "strong-password")
}

func TestRegisterDuplicateEmailConflict(t *testing.T) {
	r := newTestRouter()

	require.Equal(t, http.StatusCreated, postJSON(r, "/api/v1/auth/register", registerBody()).Code)
	assert.Equal(t, http.StatusConflict, postJSON(r, "/api/v1/auth/register", registerBody()).Code)
}

func TestRegisterValidation(t *testing.T) {
	r := newTestRouter()

	body := registerBody()
	body["role"] = "NURSE"
	assert.Equal(t, http.StatusBadRequest, postJSON(r, "/api/v1/auth/register", body).Code)

	body = registerBody()
	body["password"] = "short"
	assert.Equal(t, http.StatusBadRequest, postJSON(r, "/api/v1/auth/register", body).Code)

	body = registerBody()
	delete(body, "email")
	assert.Equal(t, http.StatusBadRequest, postJSON(r, "/api/v1/auth/register", body).Code)
}

func TestLoginEndpoint(t *testing.T) {
	r := newTestRouter()
	require.Equal(t, http.StatusCreated, postJSON(r, "/api/v1/auth/register", registerBody()).Code)

	w := postJSON(r, "/api/v1/auth/login", map[string]any{
		"email":    "jean@example.com",
		"password": "strong-password",
	})
	assert.Equal(t, http.StatusOK, w.Code)

	w = postJSON(r, "/api/v1/auth/login", map[string]any{
		"email":    "jean@example.com",
		"password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
