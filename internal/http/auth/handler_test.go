package auth_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/entreprenapp/backoffice/internal/apperr"
	"github.com/entreprenapp/backoffice/internal/audit"
	"github.com/entreprenapp/backoffice/internal/http/auth"
	"github.com/entreprenapp/backoffice/internal/http/middleware"
	"github.com/entreprenapp/backoffice/internal/user"
	"github.com/entreprenapp/backoffice/internal/user/lockout"
)

type fixture struct {
	router http.Handler
	repo   *user.MockRepository
	issuer *user.TokenIssuer
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	repo := user.NewMockRepository(gomock.NewController(t))
	issuer := user.NewTokenIssuer("secret", time.Hour)
	locks := lockout.NewMemory(lockout.Policy{Threshold: 2, Window: time.Minute})
	svc := user.NewService(repo, locks, user.LogNotifier{BaseURL: "http://localhost"}, issuer, time.Hour)
	h := auth.NewHandler(svc)

	r := chi.NewRouter()
	r.Route("/auth", h.Routes)
	r.Route("/users", func(r chi.Router) {
		r.Use(middleware.Authenticate(svc))
		h.UserRoutes(r)
	})

	return fixture{router: r, repo: repo, issuer: issuer}
}

func do(t *testing.T, h http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	return rec
}

func TestLogin(t *testing.T) {
	f := newFixture(t)

	hash, err := user.HashPassword("correct horse battery")
	require.NoError(t, err)

	jane := &user.User{ID: uuid.New(), Email: "jane@example.com", PasswordHash: hash, Record: audit.Record{Active: true}}

	f.repo.EXPECT().GetUserByEmail(gomock.Any(), "jane@example.com").Return(jane, nil).Times(3)
	f.repo.EXPECT().UpdateLastLogin(gomock.Any(), jane.ID, gomock.Any()).Return(nil)

	rec := do(t, f.router, http.MethodPost, "/auth/login", "", `{"email":"jane@example.com","password":"correct horse battery"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Token string `json:"token"`
		User  struct {
			ID uuid.UUID `json:"id"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, jane.ID, resp.User.ID)

	for range 2 {
		rec = do(t, f.router, http.MethodPost, "/auth/login", "", `{"email":"jane@example.com","password":"nope"}`)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	}

	rec = do(t, f.router, http.MethodPost, "/auth/login", "", `{"email":"jane@example.com","password":"correct horse battery"}`)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestPasswordReset(t *testing.T) {
	f := newFixture(t)

	f.repo.EXPECT().GetUserByEmail(gomock.Any(), "ghost@example.com").Return(nil, apperr.ErrNotFound)

	rec := do(t, f.router, http.MethodPost, "/auth/password-reset", "", `{"email":"ghost@example.com"}`)
	assert.Equal(t, http.StatusAccepted, rec.Code)

	f.repo.EXPECT().GetReset(gomock.Any(), gomock.Any()).Return(nil, apperr.ErrNotFound)

	rec = do(t, f.router, http.MethodPost, "/auth/password-reset/confirm", "", `{"token":"abc","password":"brand new secret"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, f.router, http.MethodPost, "/auth/password-reset/confirm", "", `{"token":"abc","password":"short"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateUser(t *testing.T) {
	f := newFixture(t)

	staff := &user.User{ID: uuid.New(), Record: audit.Record{Active: true}}
	admin := &user.User{ID: uuid.New(), IsSuperuser: true, Record: audit.Record{Active: true}}
	demoted := &user.User{ID: uuid.New(), Record: audit.Record{Active: true}}

	f.repo.EXPECT().GetUser(gomock.Any(), staff.ID).Return(staff, nil).AnyTimes()
	f.repo.EXPECT().GetUser(gomock.Any(), admin.ID).Return(admin, nil).AnyTimes()
	f.repo.EXPECT().GetUser(gomock.Any(), demoted.ID).Return(demoted, nil).AnyTimes()

	staffToken, _, err := f.issuer.Issue(staff)
	require.NoError(t, err)

	adminToken, _, err := f.issuer.Issue(admin)
	require.NoError(t, err)

	// Issued while still a superuser.
	demotedToken, _, err := f.issuer.Issue(&user.User{ID: demoted.ID, IsSuperuser: true})
	require.NoError(t, err)

	body := `{"email":"max@example.com","first_name":"Max","password":"correct horse battery"}`

	rec := do(t, f.router, http.MethodPost, "/users/", "", body)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, f.router, http.MethodPost, "/users/", staffToken, body)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(t, f.router, http.MethodPost, "/users/", demotedToken, body)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	f.repo.EXPECT().CreateUser(gomock.Any(), gomock.Any()).Return(user.ErrEmailTaken)

	rec = do(t, f.router, http.MethodPost, "/users/", adminToken, body)
	assert.Equal(t, http.StatusConflict, rec.Code)

	f.repo.EXPECT().CreateUser(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, u *user.User) error {
		u.ID = uuid.New()
		return nil
	})

	rec = do(t, f.router, http.MethodPost, "/users/", adminToken, body)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"email":"max@example.com"`)
	assert.NotContains(t, rec.Body.String(), "password")
}

func TestCreateUser_DisabledAccount(t *testing.T) {
	f := newFixture(t)

	disabled := &user.User{ID: uuid.New(), IsSuperuser: true, Record: audit.Record{Active: false}}
	f.repo.EXPECT().GetUser(gomock.Any(), disabled.ID).Return(disabled, nil)

	token, _, err := f.issuer.Issue(disabled)
	require.NoError(t, err)

	rec := do(t, f.router, http.MethodPost, "/users/", token, `{"email":"max@example.com","password":"correct horse battery"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
