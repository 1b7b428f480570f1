package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/kayembe/elimu/core/banner"
	"github.com/kayembe/elimu/core/course"
	"github.com/kayembe/elimu/core/user"
)

type dashboardApi struct {
	userSvc   *user.Service
	courseSvc *course.Service
	bannerSvc *banner.Service
}

func registerDashboardAPI(g *echo.Group, jwt echo.MiddlewareFunc, userSvc *user.Service, courseSvc *course.Service, bannerSvc *banner.Service) {
	api := dashboardApi{userSvc: userSvc, courseSvc: courseSvc, bannerSvc: bannerSvc}

	mg := g.Group("/me", jwt)
	mg.GET("/dashboard", api.dashboard)
	mg.GET("/stats", api.stats)
	mg.GET("/enrollments", api.enrollments)
	mg.GET("/last-viewed", api.lastViewed)
}

// DashboardResponse aggregates everything the home page needs in one call.
type DashboardResponse struct {
	User          user.User                   `json:"user"`
	Stats         course.UserStats            `json:"stats"`
	LastViewed    []course.CourseWithProgress `json:"last_viewed"`
	NewlyLaunched []course.Course             `json:"newly_launched"`
	Banners       []banner.Banner             `json:"banners"`
}

// Handlers

func (api *dashboardApi) dashboard(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	stats, err := api.courseSvc.Stats(ctx.Request().Context(), usr.ID)
	if err != nil {
		return errors.Wrap(err, "computing stats")
	}
	lastViewed, err := api.courseSvc.LastViewed(ctx.Request().Context(), usr.ID)
	if err != nil {
		return errors.Wrap(err, "querying last viewed courses")
	}
	newlyLaunched, err := api.courseSvc.NewlyLaunched(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying newly launched courses")
	}
	banners, err := api.bannerSvc.Active(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying active banners")
	}

	return ctx.JSON(http.StatusOK, DashboardResponse{
		User:          usr,
		Stats:         stats,
		LastViewed:    lastViewed,
		NewlyLaunched: newlyLaunched,
		Banners:       banners,
	})
}

func (api *dashboardApi) stats(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	stats, err := api.courseSvc.Stats(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "computing stats")
	}
	return ctx.JSON(http.StatusOK, stats)
}

func (api *dashboardApi) enrollments(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	enrs, err := api.courseSvc.Enrollments(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "querying enrollments")
	}
	if enrs == nil {
		enrs = []course.Enrollment{}
	}
	return ctx.JSON(http.StatusOK, enrs)
}

func (api *dashboardApi) lastViewed(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	viewed, err := api.courseSvc.LastViewed(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "querying last viewed courses")
	}
	return ctx.JSON(http.StatusOK, viewed)
}
