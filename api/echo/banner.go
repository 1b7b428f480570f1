package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/kayembe/elimu/core"
	"github.com/kayembe/elimu/core/banner"
)

type bannerApi struct {
	svc *banner.Service
}

func registerBannerAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *banner.Service) {
	api := bannerApi{svc: svc}

	bg := g.Group("/banners")

	// the home page carousel is public
	bg.GET("/active", api.active)

	// admin console endpoints
	ag := bg.Group("", jwt, adminMiddleware())
	ag.GET("", api.query)
	ag.POST("", api.create)
	ag.POST("/reorder", api.reorder)
	ag.POST("/upload", api.upload)
	ag.GET("/:id", api.retrieve)
	ag.PUT("/:id", api.update)
	ag.DELETE("/:id", api.destroy)
}

// Handlers

func (api *bannerApi) active(ctx echo.Context) error {
	banners, err := api.svc.Active(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying active banners")
	}
	return ctx.JSON(http.StatusOK, banners)
}

func (api *bannerApi) query(ctx echo.Context) error {
	banners, err := api.svc.Query(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying banners")
	}
	return ctx.JSON(http.StatusOK, banners)
}

func (api *bannerApi) create(ctx echo.Context) error {
	var data banner.NewBanner
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewBanner")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	bnr, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating banner")
	}
	return ctx.JSON(http.StatusCreated, bnr)
}

func (api *bannerApi) retrieve(ctx echo.Context) error {
	bnr, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == banner.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "getting banner")
	}
	return ctx.JSON(http.StatusOK, bnr)
}

func (api *bannerApi) update(ctx echo.Context) error {
	var data banner.UpdateBanner
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateBanner")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	bnr, err := api.svc.Update(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		if errors.Cause(err) == banner.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "updating banner")
	}
	return ctx.JSON(http.StatusOK, bnr)
}

func (api *bannerApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting banner")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *bannerApi) reorder(ctx echo.Context) error {
	var data ReorderRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ReorderRequest")
	}
	if len(data.IDs) == 0 {
		return core.NewFieldError("ids", "At least one banner id is required")
	}

	if err := api.svc.Reorder(ctx.Request().Context(), data.IDs); err != nil {
		return errors.Wrap(err, "reordering banners")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *bannerApi) upload(ctx echo.Context) error {
	var data UploadRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UploadRequest")
	}
	if data.Filename == "" {
		return core.NewFieldError("filename", "A file name is required")
	}
	return ctx.JSON(http.StatusOK, UploadResponse{ImageURL: api.svc.UploadImage(data.Filename)})
}

type (
	ReorderRequest struct {
		IDs []string `json:"ids"`
	}

	UploadRequest struct {
		Filename string `json:"filename"`
	}

	UploadResponse struct {
		ImageURL string `json:"image_url"`
	}
)
