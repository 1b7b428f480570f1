package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/kayembe/elimu/core"
	"github.com/kayembe/elimu/core/course"
	"github.com/kayembe/elimu/core/user"
)

type courseApi struct {
	svc *course.Service
}

func registerCourseAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *course.Service) {
	api := courseApi{svc: svc}

	cg := g.Group("/courses")

	// un-authed endpoints: the catalog is public
	cg.GET("", api.search)
	cg.GET("/filter-counts", api.filterCounts)
	cg.GET("/suggest", api.suggest)
	cg.GET("/newly-launched", api.newlyLaunched)

	// authed endpoints; jwt is attached per route because an empty-prefix
	// middleware group would register catch-alls over the public paths above
	cg.POST("", api.create, jwt, authorMiddleware())
	cg.GET("/mine", api.queryMine, jwt, authorMiddleware())

	// detail endpoints; retrieval stays public but honors credentials when present
	cg.GET("/:id", api.retrieve, optionalAuth())
	cg.POST("/:id/enroll", api.enroll, jwt)
	cg.PUT("/:id/status", api.setStatus, jwt, authorMiddleware())
	cg.DELETE("/:id", api.destroy, jwt, authorMiddleware())
}

// Handlers

func (api *courseApi) search(ctx echo.Context) error {
	var filters course.SearchFilters
	if err := ctx.Bind(&filters); err != nil {
		return errors.Wrap(err, "binding to SearchFilters")
	}
	pagination := new(Pagination)
	pagination.Bind(ctx)

	res, err := api.svc.Search(
		ctx.Request().Context(),
		ctx.QueryParam("q"),
		filters,
		ctx.QueryParam("sort"),
		pagination.Page,
		pagination.PageSize,
	)
	if err != nil {
		return errors.Wrap(err, "searching courses")
	}
	if res.Courses == nil {
		res.Courses = []course.Course{}
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *courseApi) filterCounts(ctx echo.Context) error {
	counts, err := api.svc.FilterCounts(ctx.Request().Context(), ctx.QueryParam("q"))
	if err != nil {
		return errors.Wrap(err, "computing filter counts")
	}
	return ctx.JSON(http.StatusOK, counts)
}

func (api *courseApi) suggest(ctx echo.Context) error {
	courses, err := api.svc.Suggest(ctx.Request().Context(), ctx.QueryParam("q"))
	if err != nil {
		return errors.Wrap(err, "suggesting courses")
	}
	return ctx.JSON(http.StatusOK, courses)
}

func (api *courseApi) newlyLaunched(ctx echo.Context) error {
	courses, err := api.svc.NewlyLaunched(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying newly launched courses")
	}
	return ctx.JSON(http.StatusOK, courses)
}

func (api *courseApi) retrieve(ctx echo.Context) error {
	crs, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == course.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "getting course")
	}
	// drafts are only visible to their author and admins
	if crs.Status != course.StatusPublished {
		claims, err := getContextClaims(ctx)
		if err != nil || !(claims.Subject == crs.AuthorID || claims.IsAdmin) {
			return errHttpNotFound
		}
	}
	return ctx.JSON(http.StatusOK, crs)
}

func (api *courseApi) create(ctx echo.Context) error {
	var data CreateCourseRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to CreateCourseRequest")
	}
	if err := data.NewCourse.Validate(data.Publish); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	provider := course.Provider{
		Name:    claims.Username,
		LogoURL: user.AvatarURL(claims.Username),
	}
	crs, err := api.svc.Create(ctx.Request().Context(), claims.Subject, provider, data.NewCourse, data.Publish)
	if err != nil {
		return errors.Wrap(err, "creating course")
	}
	return ctx.JSON(http.StatusCreated, crs)
}

func (api *courseApi) queryMine(ctx echo.Context) error {
	var q course.AuthorQuery
	if err := ctx.Bind(&q); err != nil {
		return errors.Wrap(err, "binding to AuthorQuery")
	}
	q.Clean()

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	courses, err := api.svc.QueryByAuthor(ctx.Request().Context(), claims.Subject, q)
	if err != nil {
		return errors.Wrap(err, "querying author courses")
	}
	if courses == nil {
		courses = []course.Course{}
	}
	return ctx.JSON(http.StatusOK, courses)
}

func (api *courseApi) enroll(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	if err = api.svc.Enroll(ctx.Request().Context(), claims.Subject, ctx.Param("id")); err != nil {
		if errors.Cause(err) == course.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "enrolling")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *courseApi) setStatus(ctx echo.Context) error {
	var data StatusRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to StatusRequest")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	if err := api.requireOwnership(ctx); err != nil {
		return err
	}

	crs, err := api.svc.SetStatus(ctx.Request().Context(), ctx.Param("id"), data.Status)
	if err != nil {
		if errors.Cause(err) == course.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "setting course status")
	}
	return ctx.JSON(http.StatusOK, crs)
}

func (api *courseApi) destroy(ctx echo.Context) error {
	if err := api.requireOwnership(ctx); err != nil {
		return err
	}
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting course")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// requireOwnership restricts mutation to the course's author; admins bypass.
func (api *courseApi) requireOwnership(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	if claims.IsAdmin {
		return nil
	}

	crs, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == course.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "getting course")
	}
	if crs.AuthorID != claims.Subject {
		return errHttpForbidden
	}
	return nil
}

type (
	CreateCourseRequest struct {
		course.NewCourse
		Publish bool `json:"publish"`
	}

	StatusRequest struct {
		Status string `json:"status" validate:"required,oneof=Draft Published Archived"`
	}
)

func (sr *StatusRequest) Validate() error {
	sr.Status = core.CleanString(sr.Status)
	return core.Validate.Struct(sr)
}
