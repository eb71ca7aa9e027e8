package router

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ubuzima-connect/api/internal/config"
	"github.com/ubuzima-connect/api/internal/handler"
	appointmentHandler "github.com/ubuzima-connect/api/internal/handler/appointment"
	authHandler "github.com/ubuzima-connect/api/internal/handler/auth"
	patientHandler "github.com/ubuzima-connect/api/internal/handler/patient"
	userHandler "github.com/ubuzima-connect/api/internal/handler/user"
	"github.com/ubuzima-connect/api/internal/middleware"
	"github.com/ubuzima-connect/api/internal/model"
	"github.com/ubuzima-connect/api/internal/repository"
	appointmentService "github.com/ubuzima-connect/api/internal/service/appointment"
	authService "github.com/ubuzima-connect/api/internal/service/auth"
	"github.com/ubuzima-connect/api/internal/service/notification"
	patientService "github.com/ubuzima-connect/api/internal/service/patient"
	pkgauth "github.com/ubuzima-connect/api/pkg/auth"
	"github.com/ubuzima-connect/api/pkg/logger"
	"github.com/ubuzima-connect/api/pkg/metrics"
)

func discardLogger() *logger.Logger {
	return logger.NewLogger(&logger.Config{Level: logger.ErrorLevel, TimeFormat: time.RFC3339, Output: io.Discard})
}

type memUserRepo struct{ users map[uuid.UUID]*model.User }

func (r *memUserRepo) Create(_ context.Context, u *model.User) error { r.users[u.ID] = u; return nil }
func (r *memUserRepo) Get(_ context.Context, id uuid.UUID) (*model.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return u, nil
}
func (r *memUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, repository.ErrNotFound
}
func (r *memUserRepo) List(_ context.Context) ([]*model.User, error) {
	var out []*model.User
	for _, u := range r.users {
		out = append(out, u)
	}
	return out, nil
}
func (r *memUserRepo) Update(_ context.Context, u *model.User) error { r.users[u.ID] = u; return nil }
func (r *memUserRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.users, id)
	return nil
}

type memPatientRepo struct{ patients map[uuid.UUID]*model.Patient }

func (r *memPatientRepo) Create(_ context.Context, p *model.Patient) error {
	r.patients[p.ID] = p
	return nil
}
func (r *memPatientRepo) Get(_ context.Context, id uuid.UUID) (*model.Patient, error) {
	p, ok := r.patients[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return p, nil
}
func (r *memPatientRepo) List(_ context.Context) ([]*model.Patient, error) {
	var out []*model.Patient
	for _, p := range r.patients {
		out = append(out, p)
	}
	return out, nil
}
func (r *memPatientRepo) Update(_ context.Context, p *model.Patient) error {
	if _, ok := r.patients[p.ID]; !ok {
		return repository.ErrNotFound
	}
	r.patients[p.ID] = p
	return nil
}
func (r *memPatientRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.patients[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.patients, id)
	return nil
}

type memAppointmentRepo struct {
	appointments map[uuid.UUID]*model.Appointment
	users        *memUserRepo
	patients     *memPatientRepo
}

func (r *memAppointmentRepo) Create(_ context.Context, a *model.Appointment) error {
	stored := *a
	r.appointments[a.ID] = &stored
	return nil
}
func (r *memAppointmentRepo) Get(_ context.Context, id uuid.UUID) (*model.Appointment, error) {
	stored, ok := r.appointments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	a := *stored
	a.Patient = r.patients.patients[a.PatientID]
	a.GP = r.users.users[a.GPID]
	if a.SpecialistID != nil {
		a.Specialist = r.users.users[*a.SpecialistID]
	}
	return &a, nil
}
func (r *memAppointmentRepo) List(_ context.Context, filter *model.AppointmentFilter) ([]*model.Appointment, error) {
	var out []*model.Appointment
	for id := range r.appointments {
		a, _ := r.Get(context.Background(), id)
		if filter != nil {
			if filter.GPID != nil && a.GPID != *filter.GPID {
				continue
			}
			if filter.SpecialistID != nil && (a.SpecialistID == nil || *a.SpecialistID != *filter.SpecialistID) {
				continue
			}
			if filter.PatientID != nil && a.PatientID != *filter.PatientID {
				continue
			}
		}
		out = append(out, a)
	}
	return out, nil
}
func (r *memAppointmentRepo) Update(_ context.Context, a *model.Appointment) error {
	if _, ok := r.appointments[a.ID]; !ok {
		return repository.ErrNotFound
	}
	stored := *a
	r.appointments[a.ID] = &stored
	return nil
}
func (r *memAppointmentRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.appointments[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.appointments, id)
	return nil
}

type noopSender struct{}

func (noopSender) Send(_ context.Context, _, _ string) error { return nil }

func newTestAPI(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	require.NoError(t, model.RegisterValidators())

	users := &memUserRepo{users: make(map[uuid.UUID]*model.User)}
	patients := &memPatientRepo{patients: make(map[uuid.UUID]*model.Patient)}
	appointments := &memAppointmentRepo{
		appointments: make(map[uuid.UUID]*model.Appointment),
		users:        users,
		patients:     patients,
	}

	registry := prometheus.NewRegistry()
	m := metrics.NewMetrics("test", registry)
	jwtSvc := pkgauth.NewJWTService("access-secret", "refresh-secret", time.Hour, time.Hour)

	notifSvc := notification.NewService(noopSender{}, m)
	authSvc := authService.NewService(users, jwtSvc)
	patientSvc := patientService.NewService(patients, appointments)
	appointmentSvc := appointmentService.NewService(appointments, users, patients, notifSvc, discardLogger())

	cfg := &config.Config{
		Server:   config.ServerConfig{Port: 8080, TimeoutSeconds: 30},
		Security: config.SecurityConfig{AllowedOrigins: []string{"*"}},
	}

	r := NewRouter(
		middleware.NewAuthMiddleware(jwtSvc),
		authHandler.NewHandler(authSvc),
		userHandler.NewHandler(authSvc),
		patientHandler.NewHandler(patientSvc),
		appointmentHandler.NewHandler(appointmentSvc),
		handler.NewHandler(nil, registry, m),
		m,
		cfg,
	)
	r.Setup()
	return r.Engine()
}

func do(r *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func registerAndLogin(t *testing.T, r *gin.Engine, email string, role model.Role) (string, uuid.UUID) {
	t.Helper()

	w := do(r, http.MethodPost, "/api/v1/auth/register", "", map[string]any{
		"email":         email,
		"password":      "strong-password",
		"firstName":     "Test",
		"lastName":      string(role),
		"role":          string(role),
		"licenseNumber": "LIC-1",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		Data struct {
			User struct {
				ID uuid.UUID `json:"id"`
			} `json:"user"`
			AccessToken string `json:"accessToken"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Data.AccessToken, resp.Data.User.ID
}

func TestHealthEndpoints(t *testing.T) {
	r := newTestAPI(t)

	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/api/v1/health/live", "", nil).Code)
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/api/v1/health/ready", "", nil).Code)
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/api/v1/health/metrics", "", nil).Code)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	r := newTestAPI(t)

	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/api/v1/patients", "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/api/v1/appointments", "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/api/v1/users/me", "", nil).Code)
}

func TestFullAppointmentScenario(t *testing.T) {
	r := newTestAPI(t)

	gpToken, gpID := registerAndLogin(t, r, "gp@example.com", model.RoleGP)
	adminToken, _ := registerAndLogin(t, r, "admin@example.com", model.RoleAdmin)
	_, otherGPID := registerAndLogin(t, r, "gp2@example.com", model.RoleGP)

	// GP creates a patient.
	w := do(r, http.MethodPost, "/api/v1/patients", gpToken, map[string]any{
		"firstName":   "Eric",
		"lastName":    "Niyonzima",
		"dateOfBirth": "1990-05-20",
		"gender":      "male",
		"phoneNumber": "+250780000005",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var patientResp struct {
		Data struct {
			ID uuid.UUID `json:"id"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &patientResp))

	// GP books an appointment for themselves; status is forced PENDING.
	w = do(r, http.MethodPost, "/api/v1/appointments", gpToken, map[string]any{
		"patientId": patientResp.Data.ID,
		"gpId":      gpID,
		"date":      time.Now().Add(48 * time.Hour).Format(time.RFC3339),
		"reason":    "Checkup",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var aptResp struct {
		Data struct {
			ID     uuid.UUID `json:"id"`
			Status string    `json:"status"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &aptResp))
	assert.Equal(t, "PENDING", aptResp.Data.Status)

	aptPath := fmt.Sprintf("/api/v1/appointments/%s", aptResp.Data.ID)

	// GP cannot reassign the appointment to another GP.
	w = do(r, http.MethodPatch, aptPath, gpToken, map[string]any{"gpId": otherGPID})
	assert.Equal(t, http.StatusForbidden, w.Code, w.Body.String())

	// Admin can.
	w = do(r, http.MethodPatch, aptPath, adminToken, map[string]any{"gpId": otherGPID})
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// Patient deletion is admin-only.
	patientPath := fmt.Sprintf("/api/v1/patients/%s", patientResp.Data.ID)
	assert.Equal(t, http.StatusForbidden, do(r, http.MethodDelete, patientPath, gpToken, nil).Code)
	assert.Equal(t, http.StatusOK, do(r, http.MethodDelete, patientPath, adminToken, nil).Code)
}

func TestPatientValidationOverHTTP(t *testing.T) {
	r := newTestAPI(t)
	gpToken, _ := registerAndLogin(t, r, "gp@example.com", model.RoleGP)

	w := do(r, http.MethodPost, "/api/v1/patients", gpToken, map[string]any{
		"firstName":   "Eric",
		"lastName":    "Niyonzima",
		"dateOfBirth": time.Now().AddDate(1, 0, 0).Format("2006-01-02"),
		"gender":      "male",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
