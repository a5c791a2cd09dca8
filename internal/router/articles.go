package router

import (
	"errors"
	"net/http"
	"strings"

	"github.com/DjordjeVuckovic/news-cms/internal/apperr"
	"github.com/DjordjeVuckovic/news-cms/internal/domain"
	"github.com/DjordjeVuckovic/news-cms/internal/repository"
	"github.com/DjordjeVuckovic/news-cms/internal/storage"
	"github.com/DjordjeVuckovic/news-cms/pkg/pagination"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type ArticleRouter struct {
	e        *echo.Echo
	registry *repository.Registry
	guard    echo.MiddlewareFunc
}

// NewArticleRouter serves the article repository. guard protects every write route.
func NewArticleRouter(e *echo.Echo, registry *repository.Registry, guard echo.MiddlewareFunc) *ArticleRouter {
	return &ArticleRouter{
		e:        e,
		registry: registry,
		guard:    guard,
	}
}

func (r *ArticleRouter) Bind() {
	g := r.e.Group("/articles")
	g.GET("", r.list)
	g.GET("/published", r.published)
	g.GET("/popular", r.popular)
	g.GET("/search", r.search)
	g.GET("/:id", r.get)
	g.POST("/:id/views", r.incrementViews)

	g.POST("", r.create, r.guard)
	g.PATCH("/:id", r.update, r.guard)
	g.DELETE("/:id", r.delete, r.guard)
	g.POST("/:id/likes", r.updateLikes, r.guard)
	g.PUT("/stats", r.updateStats, r.guard)

	r.e.GET("/authors/:id/articles", r.byAuthor)
}

type likesRequest struct {
	Delta int64 `json:"delta"`
}

func (r *ArticleRouter) repo() (*repository.ArticleRepository, error) {
	repo, err := r.registry.Get()
	if errors.Is(err, repository.ErrRegistryNotInitialized) {
		return nil, echo.NewHTTPError(http.StatusServiceUnavailable, "article repository is not ready")
	}
	return repo, err
}

func (r *ArticleRouter) create(c echo.Context) error {
	var in domain.NewArticle
	if err := c.Bind(&in); err != nil {
		return apperr.NewValidationWrap("invalid article payload", err)
	}
	in.Title = strings.TrimSpace(in.Title)
	in.ContentURL = strings.TrimSpace(in.ContentURL)
	if in.Title == "" || in.ContentURL == "" {
		return apperr.NewValidation("title and content_url are required")
	}
	if in.AuthorID == uuid.Nil {
		return apperr.InvalidField("author_id")
	}

	repo, err := r.repo()
	if err != nil {
		return err
	}
	article, err := repo.Create(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, article)
}

func (r *ArticleRouter) list(c echo.Context) error {
	repo, err := r.repo()
	if err != nil {
		return err
	}

	if raw := c.QueryParam("ids"); raw != "" {
		articles, err := repo.FindByIDs(c.Request().Context(), strings.Split(raw, ","))
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, articles)
	}

	req, err := bindOffset(c)
	if err != nil {
		return err
	}
	filter, err := listFilter(c)
	if err != nil {
		return err
	}
	sort, err := parseSort(c.QueryParam("sort"))
	if err != nil {
		return err
	}

	page, err := repo.FindMany(c.Request().Context(), filter, repository.ListOptions{OffsetRequest: req, Sort: sort})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, page)
}

func (r *ArticleRouter) published(c echo.Context) error {
	req, err := bindOffset(c)
	if err != nil {
		return err
	}
	category, err := optionalID(c, "category_id")
	if err != nil {
		return err
	}

	repo, err := r.repo()
	if err != nil {
		return err
	}
	page, err := repo.FindPublished(c.Request().Context(), repository.PublishedOptions{OffsetRequest: req, CategoryID: category})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, page)
}

func (r *ArticleRouter) popular(c echo.Context) error {
	req, err := bindOffset(c)
	if err != nil {
		return err
	}
	var days int
	if err := echo.QueryParamsBinder(c).Int("days", &days).BindError(); err != nil {
		return apperr.NewValidationWrap("invalid days", err)
	}
	if days > repository.MaxPopularDays {
		return apperr.InvalidField("days")
	}

	repo, err := r.repo()
	if err != nil {
		return err
	}
	page, err := repo.FindPopular(c.Request().Context(), repository.PopularOptions{OffsetRequest: req, Days: days})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, page)
}

func (r *ArticleRouter) search(c echo.Context) error {
	req, err := bindOffset(c)
	if err != nil {
		return err
	}
	var includeUnpublished bool
	if err := echo.QueryParamsBinder(c).Bool("include_unpublished", &includeUnpublished).BindError(); err != nil {
		return apperr.NewValidationWrap("invalid include_unpublished", err)
	}

	repo, err := r.repo()
	if err != nil {
		return err
	}
	page, err := repo.Search(c.Request().Context(), c.QueryParam("q"), repository.SearchOptions{
		OffsetRequest:      req,
		IncludeUnpublished: includeUnpublished,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, page)
}

func (r *ArticleRouter) get(c echo.Context) error {
	repo, err := r.repo()
	if err != nil {
		return err
	}
	article, err := repo.FindByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	if article == nil {
		return echo.NewHTTPError(http.StatusNotFound, "article not found")
	}
	return c.JSON(http.StatusOK, article)
}

func (r *ArticleRouter) update(c echo.Context) error {
	var patch domain.ArticlePatch
	if err := c.Bind(&patch); err != nil {
		return apperr.NewValidationWrap("invalid article patch", err)
	}

	repo, err := r.repo()
	if err != nil {
		return err
	}
	article, err := repo.UpdateByID(c.Request().Context(), c.Param("id"), patch)
	if err != nil {
		return err
	}
	if article == nil {
		return echo.NewHTTPError(http.StatusNotFound, "article not found")
	}
	return c.JSON(http.StatusOK, article)
}

func (r *ArticleRouter) delete(c echo.Context) error {
	repo, err := r.repo()
	if err != nil {
		return err
	}
	article, err := repo.DeleteByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	if article == nil {
		return echo.NewHTTPError(http.StatusNotFound, "article not found")
	}
	return c.JSON(http.StatusOK, article)
}

func (r *ArticleRouter) incrementViews(c echo.Context) error {
	repo, err := r.repo()
	if err != nil {
		return err
	}
	if err := repo.IncrementViews(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (r *ArticleRouter) updateLikes(c echo.Context) error {
	var body likesRequest
	if err := c.Bind(&body); err != nil {
		return apperr.NewValidationWrap("invalid likes payload", err)
	}

	repo, err := r.repo()
	if err != nil {
		return err
	}
	if err := repo.UpdateLikesCount(c.Request().Context(), c.Param("id"), body.Delta); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (r *ArticleRouter) updateStats(c echo.Context) error {
	var stats []domain.ArticleStats
	if err := c.Bind(&stats); err != nil {
		return apperr.NewValidationWrap("invalid stats payload", err)
	}

	repo, err := r.repo()
	if err != nil {
		return err
	}
	if err := repo.UpdateStatsForArticles(c.Request().Context(), stats); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (r *ArticleRouter) byAuthor(c echo.Context) error {
	req, err := bindOffset(c)
	if err != nil {
		return err
	}
	var includeUnpublished bool
	if err := echo.QueryParamsBinder(c).Bool("include_unpublished", &includeUnpublished).BindError(); err != nil {
		return apperr.NewValidationWrap("invalid include_unpublished", err)
	}

	repo, err := r.repo()
	if err != nil {
		return err
	}
	page, err := repo.FindByAuthor(c.Request().Context(), c.Param("id"), repository.AuthorOptions{
		OffsetRequest:      req,
		IncludeUnpublished: includeUnpublished,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, page)
}

// bindOffset reads page and limit, capping limit at pagination.LimitMax.
func bindOffset(c echo.Context) (pagination.OffsetRequest, error) {
	var req pagination.OffsetRequest
	err := echo.QueryParamsBinder(c).
		Int("page", &req.Page).
		Int("limit", &req.Limit).
		BindError()
	if err != nil {
		return req, apperr.NewValidationWrap("invalid pagination", err)
	}
	if err := req.Validate(); err != nil {
		return req, apperr.NewValidationWrap("invalid pagination", err)
	}
	return req, nil
}

func listFilter(c echo.Context) (storage.Filter, error) {
	var f storage.Filter
	var err error
	if f.AuthorID, err = optionalID(c, "author_id"); err != nil {
		return f, err
	}
	if f.CategoryID, err = optionalID(c, "category_id"); err != nil {
		return f, err
	}
	if c.QueryParam("published") != "" {
		var published bool
		if err := echo.QueryParamsBinder(c).Bool("published", &published).BindError(); err != nil {
			return f, apperr.NewValidationWrap("invalid published", err)
		}
		f.Published = &published
	}
	return f, nil
}

func optionalID(c echo.Context, param string) (*uuid.UUID, error) {
	raw := c.QueryParam(param)
	if raw == "" {
		return nil, nil
	}
	id, ok := domain.ParseID(raw)
	if !ok {
		return nil, apperr.InvalidField(param)
	}
	return &id, nil
}

// parseSort reads a comma separated key list, a leading '-' sorting descending.
func parseSort(raw string) ([]storage.SortField, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}

	var fields []storage.SortField
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		desc := strings.HasPrefix(part, "-")
		key := storage.SortKey(strings.TrimPrefix(part, "-"))
		if !key.Valid() || key == storage.SortScore {
			return nil, apperr.NewValidation("invalid sort key " + part)
		}
		fields = append(fields, storage.SortField{Key: key, Desc: desc})
	}
	return fields, nil
}
