package router

import (
	"errors"
	"net/http"

	"github.com/DjordjeVuckovic/news-cms/internal/apperr"
	"github.com/DjordjeVuckovic/news-cms/internal/auth"
	"github.com/labstack/echo/v4"
)

type AuthRouter struct {
	e        *echo.Echo
	service  *auth.Service
	sessions *auth.Sessions
}

func NewAuthRouter(e *echo.Echo, service *auth.Service, sessions *auth.Sessions) *AuthRouter {
	return &AuthRouter{
		e:        e,
		service:  service,
		sessions: sessions,
	}
}

func (r *AuthRouter) Bind() {
	g := r.e.Group("/auth")
	g.POST("/login", r.login)
	g.POST("/logout", r.logout)
	g.GET("/session", r.session)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (r *AuthRouter) login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return apperr.NewValidationWrap("invalid login payload", err)
	}

	user, err := r.service.Login(c.Request().Context(), req.Username, req.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	}
	if err != nil {
		return err
	}

	if err := r.sessions.Start(c, user); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

func (r *AuthRouter) logout(c echo.Context) error {
	if err := r.sessions.Clear(c); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (r *AuthRouter) session(c echo.Context) error {
	user, err := r.sessions.Current(c)
	if errors.Is(err, auth.ErrNoSession) {
		return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}
