package auth

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/DjordjeVuckovic/news-cms/internal/domain"
	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/labstack/echo/v4"
)

const (
	DefaultSessionName   = "cms_session"
	DefaultSessionMaxAge = 7 * 24 * 60 * 60

	minSecretLength = 32

	userIDKey   = "user_id"
	usernameKey = "username"

	// ContextUserKey holds the *domain.User of an authenticated request.
	ContextUserKey = "user"
)

type SessionConfig struct {
	Secret string
	Name   string
	Secure bool
	MaxAge int
}

// Sessions keeps the logged in user id in a signed cookie.
type Sessions struct {
	store *sessions.CookieStore
	name  string
	users UserStore
}

func NewSessions(cfg SessionConfig, users UserStore) (*Sessions, error) {
	if len(cfg.Secret) < minSecretLength {
		return nil, fmt.Errorf("session secret must be at least %d bytes", minSecretLength)
	}
	if cfg.Name == "" {
		cfg.Name = DefaultSessionName
	}
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = DefaultSessionMaxAge
	}

	store := sessions.NewCookieStore([]byte(cfg.Secret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   cfg.MaxAge,
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	}

	return &Sessions{store: store, name: cfg.Name, users: users}, nil
}

func (s *Sessions) Start(c echo.Context, user *domain.User) error {
	// A cookie signed with an old secret fails to decode but still yields a fresh session.
	session, _ := s.store.Get(c.Request(), s.name)
	session.Values[userIDKey] = user.ID.String()
	session.Values[usernameKey] = user.Username

	if err := session.Save(c.Request(), c.Response()); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (s *Sessions) Clear(c echo.Context) error {
	session, _ := s.store.Get(c.Request(), s.name)
	session.Values = map[interface{}]interface{}{}
	session.Options.MaxAge = -1

	if err := session.Save(c.Request(), c.Response()); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

// Current returns the user of the request session or ErrNoSession.
func (s *Sessions) Current(c echo.Context) (*domain.User, error) {
	session, err := s.store.Get(c.Request(), s.name)
	if err != nil {
		slog.Debug("Discarding unreadable session cookie", "error", err)
		return nil, ErrNoSession
	}

	raw, ok := session.Values[userIDKey].(string)
	if !ok {
		return nil, ErrNoSession
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, ErrNoSession
	}

	user, err := s.users.FindByID(c.Request().Context(), id)
	if err != nil {
		return nil, fmt.Errorf("failed to load session user: %w", err)
	}
	if user == nil {
		return nil, ErrNoSession
	}
	return user, nil
}

// RequireSession rejects requests without a valid session with 401.
func (s *Sessions) RequireSession() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user, err := s.Current(c)
			if errors.Is(err, ErrNoSession) {
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
			}
			if err != nil {
				return err
			}
			c.Set(ContextUserKey, user)
			return next(c)
		}
	}
}

// UserFrom returns the user stored by RequireSession, nil outside guarded routes.
func UserFrom(c echo.Context) *domain.User {
	user, _ := c.Get(ContextUserKey).(*domain.User)
	return user
}
