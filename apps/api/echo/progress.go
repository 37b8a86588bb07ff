package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/learnhub/core/course"
	"github.com/trezcool/learnhub/core/progress"
)

type progressApi struct {
	svc      progress.Service
	validate *validator.Validate
}

func registerProgressAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc progress.Service, validate *validator.Validate) {
	api := progressApi{svc: svc, validate: validate}

	pg := g.Group("/progress", jwt)

	pg.GET("", api.query)
	pg.GET("/stats", api.stats)
	pg.GET("/:courseID", api.retrieve)
	pg.POST("/:courseID", api.track)
	pg.PUT("/:courseID/lessons/:lessonID", api.updateLesson)
	pg.POST("/:courseID/lessons/:lessonID/materials/:materialID", api.completeMaterial)
}

// Handlers

func (api *progressApi) query(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	all, err := api.svc.All(claims.Subject)
	if err != nil {
		return errors.Wrap(err, "querying progress")
	}
	if all == nil {
		all = []progress.CourseProgress{}
	}
	return ctx.JSON(http.StatusOK, all)
}

func (api *progressApi) stats(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	stats, err := api.svc.Stats(claims.Subject)
	if err != nil {
		return errors.Wrap(err, "computing stats")
	}
	return ctx.JSON(http.StatusOK, stats)
}

func (api *progressApi) retrieve(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	cp, err := api.svc.Get(claims.Subject, ctx.Param("courseID"))
	if err != nil {
		if errors.Cause(err) == progress.ErrNotTracked {
			return errHttpNotFound
		}
		return errors.Wrap(err, "getting progress")
	}
	return ctx.JSON(http.StatusOK, cp)
}

func (api *progressApi) track(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	cp, err := api.svc.Track(claims.Subject, ctx.Param("courseID"))
	if err != nil {
		if errors.Cause(err) == course.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "tracking progress")
	}
	return ctx.JSON(http.StatusCreated, cp)
}

func (api *progressApi) updateLesson(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var data progress.UpdateLesson
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateLesson")
	}
	if err := api.validate.Struct(&data); err != nil {
		return err
	}

	cp, err := api.svc.UpdateLesson(claims.Subject, ctx.Param("courseID"), ctx.Param("lessonID"), data)
	if err != nil {
		if errors.Cause(err) == progress.ErrNotTracked {
			return errHttpNotFound
		}
		return errors.Wrap(err, "updating lesson progress")
	}
	return ctx.JSON(http.StatusOK, cp)
}

func (api *progressApi) completeMaterial(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	cp, err := api.svc.CompleteMaterial(claims.Subject, ctx.Param("courseID"), ctx.Param("lessonID"), ctx.Param("materialID"))
	if err != nil {
		if errors.Cause(err) == progress.ErrNotTracked {
			return errHttpNotFound
		}
		return errors.Wrap(err, "completing material")
	}
	return ctx.JSON(http.StatusOK, cp)
}
