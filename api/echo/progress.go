package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/kayembe/elimu/core/course"
	"github.com/kayembe/elimu/core/progress"
)

type progressApi struct {
	courseSvc   *course.Service
	progressSvc *progress.Service
}

func registerProgressAPI(g *echo.Group, jwt echo.MiddlewareFunc, courseSvc *course.Service, progressSvc *progress.Service) {
	api := progressApi{courseSvc: courseSvc, progressSvc: progressSvc}

	// jwt goes per route; a middleware group here would shadow the public
	// GET/DELETE /courses/:id routes with its catch-all registrations
	pg := g.Group("/courses/:id")
	pg.GET("/progress", api.retrieve, jwt)
	pg.PUT("/lectures/:lectureId/progress", api.update, jwt)
	pg.POST("/lectures/:lectureId/complete", api.complete, jwt)
}

// Handlers

func (api *progressApi) retrieve(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	ucp := api.progressSvc.Get(ctx.Request().Context(), ctx.Param("id"), claims.Subject)
	return ctx.JSON(http.StatusOK, ucp)
}

func (api *progressApi) update(ctx echo.Context) error {
	var data progress.ProgressUpdate
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ProgressUpdate")
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	crs, err := api.getCourseLecture(ctx)
	if err != nil {
		return err
	}

	ucp, err := api.progressSvc.Update(
		ctx.Request().Context(),
		crs.ID,
		claims.Subject,
		ctx.Param("lectureId"),
		data,
	)
	if err != nil {
		return errors.Wrap(err, "updating progress")
	}

	api.syncEnrollment(ctx, claims.Subject, crs.ID, ucp.OverallProgress)
	return ctx.JSON(http.StatusOK, ucp)
}

func (api *progressApi) complete(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	crs, err := api.getCourseLecture(ctx)
	if err != nil {
		return err
	}

	ucp, err := api.progressSvc.MarkComplete(
		ctx.Request().Context(),
		crs.ID,
		claims.Subject,
		ctx.Param("lectureId"),
	)
	if err != nil {
		return errors.Wrap(err, "marking lecture complete")
	}

	api.syncEnrollment(ctx, claims.Subject, crs.ID, ucp.OverallProgress)
	return ctx.JSON(http.StatusOK, ucp)
}

// getCourseLecture resolves the course and checks the lecture belongs to it.
func (api *progressApi) getCourseLecture(ctx echo.Context) (course.Course, error) {
	crs, err := api.courseSvc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == course.ErrNotFound {
			return course.Course{}, errHttpNotFound
		}
		return course.Course{}, errors.Wrap(err, "getting course")
	}
	if _, err = api.courseSvc.GetLecture(ctx.Request().Context(), crs.ID, ctx.Param("lectureId")); err != nil {
		if errors.Cause(err) == course.ErrNotFound {
			return course.Course{}, errHttpNotFound
		}
		return course.Course{}, errors.Wrap(err, "getting lecture")
	}
	return crs, nil
}

// syncEnrollment mirrors the overall percent onto the enrollment; failures are
// logged, not surfaced, since the progress write already succeeded.
func (api *progressApi) syncEnrollment(ctx echo.Context, userID, courseID string, percent int) {
	if err := api.courseSvc.SetEnrollmentProgress(ctx.Request().Context(), userID, courseID, percent); err != nil {
		ctx.Logger().Errorf("%+v", errors.Wrap(err, "syncing enrollment progress"))
	}
}
