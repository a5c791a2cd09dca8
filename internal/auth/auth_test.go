package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/DjordjeVuckovic/news-cms/internal/domain"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func hash(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

func newTestUsers(t *testing.T) (*FileUserStore, uuid.UUID) {
	t.Helper()
	id := uuid.New()
	users, err := LoadUsers(strings.NewReader(`
users:
  - id: ` + id.String() + `
    username: editor
    password_hash: "` + hash(t, "secret") + `"
  - username: " writer "
    password_hash: "` + hash(t, "other") + `"
`))
	require.NoError(t, err)
	return users, id
}

func TestLoadUsers(t *testing.T) {
	users, id := newTestUsers(t)
	ctx := context.Background()

	editor, err := users.FindByUsername(ctx, "editor")
	require.NoError(t, err)
	require.NotNil(t, editor)
	assert.Equal(t, id, editor.ID)

	writer, err := users.FindByUsername(ctx, "writer")
	require.NoError(t, err)
	require.NotNil(t, writer)
	assert.NotEqual(t, uuid.Nil, writer.ID, "missing ids are derived from the username")

	byID, err := users.FindByID(ctx, writer.ID)
	require.NoError(t, err)
	assert.Equal(t, "writer", byID.Username)

	missing, err := users.FindByUsername(ctx, "nobody")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestLoadUsers_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{name: "missing hash", yaml: "users:\n  - username: a\n"},
		{name: "duplicate username", yaml: "users:\n  - username: a\n    password_hash: x\n  - username: a\n    password_hash: y\n"},
		{name: "not yaml", yaml: "users: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadUsers(strings.NewReader(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoadUsers_Empty(t *testing.T) {
	users, err := LoadUsers(strings.NewReader(""))
	require.NoError(t, err)

	u, err := users.FindByUsername(context.Background(), "editor")
	require.NoError(t, err)
	assert.Nil(t, u)
}

func TestService_Login(t *testing.T) {
	users, id := newTestUsers(t)
	svc := NewService(users)
	ctx := context.Background()

	user, err := svc.Login(ctx, " editor ", "secret")
	require.NoError(t, err)
	assert.Equal(t, id, user.ID)

	tests := []struct {
		name     string
		username string
		password string
	}{
		{name: "wrong password", username: "editor", password: "nope"},
		{name: "unknown user", username: "ghost", password: "secret"},
		{name: "empty password", username: "editor", password: ""},
		{name: "empty username", username: "  ", password: "secret"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := svc.Login(ctx, tt.username, tt.password)
			assert.ErrorIs(t, err, ErrInvalidCredentials)
			assert.Nil(t, u)
		})
	}
}

func TestHashPassword(t *testing.T) {
	h, err := HashPassword("secret")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(h), []byte("secret")))

	_, err = HashPassword("")
	assert.ErrorIs(t, err, ErrEmptyPassword)
}

func TestNewSessions_ShortSecret(t *testing.T) {
	users, _ := newTestUsers(t)
	_, err := NewSessions(SessionConfig{Secret: "short"}, users)
	assert.Error(t, err)
}

func TestSessions_Lifecycle(t *testing.T) {
	users, id := newTestUsers(t)
	s, err := NewSessions(SessionConfig{Secret: testSecret}, users)
	require.NoError(t, err)
	e := echo.New()
	user, err := users.FindByID(context.Background(), id)
	require.NoError(t, err)

	// login
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodPost, "/auth/login", nil), rec)
	require.NoError(t, s.Start(c, user))
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, DefaultSessionName, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)

	// follow-up request carries the cookie
	req := httptest.NewRequest(http.MethodGet, "/auth/session", nil)
	req.AddCookie(cookies[0])
	c = e.NewContext(req, httptest.NewRecorder())
	current, err := s.Current(c)
	require.NoError(t, err)
	assert.Equal(t, user.Username, current.Username)

	// logout expires the cookie
	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.AddCookie(cookies[0])
	c = e.NewContext(req, rec)
	require.NoError(t, s.Clear(c))
	cleared := rec.Result().Cookies()
	require.Len(t, cleared, 1)
	assert.Less(t, cleared[0].MaxAge, 0)
}

func TestSessions_Current_Rejects(t *testing.T) {
	users, _ := newTestUsers(t)
	s, err := NewSessions(SessionConfig{Secret: testSecret}, users)
	require.NoError(t, err)
	other, err := NewSessions(SessionConfig{Secret: strings.Repeat("x", 32)}, users)
	require.NoError(t, err)
	e := echo.New()

	t.Run("no cookie", func(t *testing.T) {
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
		_, err := s.Current(c)
		assert.ErrorIs(t, err, ErrNoSession)
	})

	t.Run("foreign signature", func(t *testing.T) {
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodPost, "/", nil), rec)
		require.NoError(t, other.Start(c, &domain.User{ID: uuid.New(), Username: "x"}))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(rec.Result().Cookies()[0])
		_, err := s.Current(e.NewContext(req, httptest.NewRecorder()))
		assert.ErrorIs(t, err, ErrNoSession)
	})

	t.Run("user removed", func(t *testing.T) {
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodPost, "/", nil), rec)
		require.NoError(t, s.Start(c, &domain.User{ID: uuid.New(), Username: "gone"}))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(rec.Result().Cookies()[0])
		_, err := s.Current(e.NewContext(req, httptest.NewRecorder()))
		assert.ErrorIs(t, err, ErrNoSession)
	})
}

func TestRequireSession(t *testing.T) {
	users, id := newTestUsers(t)
	s, err := NewSessions(SessionConfig{Secret: testSecret}, users)
	require.NoError(t, err)
	e := echo.New()

	var seen *domain.User
	h := s.RequireSession()(func(c echo.Context) error {
		seen = UserFrom(c)
		return c.NoContent(http.StatusNoContent)
	})

	err = h(e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder()))
	var he *echo.HTTPError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, http.StatusUnauthorized, he.Code)
	assert.Nil(t, seen)

	user, _ := users.FindByID(context.Background(), id)
	rec := httptest.NewRecorder()
	require.NoError(t, s.Start(e.NewContext(httptest.NewRequest(http.MethodPost, "/", nil), rec), user))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(rec.Result().Cookies()[0])
	require.NoError(t, h(e.NewContext(req, httptest.NewRecorder())))
	require.NotNil(t, seen)
	assert.Equal(t, id, seen.ID)
}
