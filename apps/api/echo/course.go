package echoapi

import (
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/learnhub/core/course"
	"github.com/trezcool/learnhub/core/progress"
	"github.com/trezcool/learnhub/core/user"
	storagesvc "github.com/trezcool/learnhub/services/storage"
)

var errCrsNotFoundInCtx = errors.New("course object not found in echo.Context")

type courseApi struct {
	svc         course.Service
	progressSvc progress.Service
	userSvc     user.Service
	storage     storagesvc.Storage
	validate    *validator.Validate
}

func registerCourseAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc course.Service,
	progressSvc progress.Service,
	userSvc user.Service,
	storage storagesvc.Storage,
	validate *validator.Validate,
) {
	api := courseApi{
		svc:         svc,
		progressSvc: progressSvc,
		userSvc:     userSvc,
		storage:     storage,
		validate:    validate,
	}

	cg := g.Group("/courses")

	// un-authed endpoints: the catalog is public
	cg.GET("", api.query)
	cg.GET("/categories", api.queryCategories)

	// authed endpoints
	ag := cg.Group("", jwt)
	ag.POST("", api.create, teacherMiddleware())
	ag.GET("/enrolled", api.enrolledCourses)

	// detail endpoints
	cg.GET("/:id", api.retrieve, ctxCourseMiddleware(api.svc))
	dg := ag.Group("/:id", ctxCourseMiddleware(api.svc))
	dg.PUT("", api.update, teacherMiddleware())
	dg.DELETE("", api.destroy, teacherMiddleware())
	dg.POST("/enroll", api.enroll)
	dg.GET("/materials", api.queryMaterials)
	dg.POST("/materials", api.uploadMaterial, teacherMiddleware())
	dg.GET("/materials/:name", api.downloadMaterial)
	dg.DELETE("/materials/:name", api.destroyMaterial, teacherMiddleware())
}

// Handlers

func (api *courseApi) create(ctx echo.Context) error {
	var data course.NewCourse
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCourse")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	crs, err := api.svc.Create(data)
	if err != nil {
		return errors.Wrap(err, "creating course")
	}
	return ctx.JSON(http.StatusCreated, crs)
}

func (api *courseApi) query(ctx echo.Context) error {
	filter := new(course.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []course.Course{})
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx)

	courses, err := api.svc.Filter(filter, ordering.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying courses")
	}
	if courses == nil {
		courses = []course.Course{}
	}
	return ctx.JSON(http.StatusOK, courses)
}

func (api *courseApi) queryCategories(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, course.Categories)
}

func (api *courseApi) retrieve(ctx echo.Context) error {
	crs, ok := ctx.Get("object").(course.Course)
	if !ok {
		return errors.Wrap(errCrsNotFoundInCtx, "retrieving object from context")
	}
	return ctx.JSON(http.StatusOK, crs)
}

func (api *courseApi) update(ctx echo.Context) error {
	crs, ok := ctx.Get("object").(course.Course)
	if !ok {
		return errors.Wrap(errCrsNotFoundInCtx, "retrieving object from context")
	}

	var data course.UpdateCourse
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateCourse")
	}
	if err := data.Validate(crs, api.validate); err != nil {
		return err
	}

	crs, err := api.svc.Update(crs.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating course")
	}
	return ctx.JSON(http.StatusOK, crs)
}

func (api *courseApi) destroy(ctx echo.Context) error {
	crs, ok := ctx.Get("object").(course.Course)
	if !ok {
		return errors.Wrap(errCrsNotFoundInCtx, "retrieving object from context")
	}
	if err := api.svc.Delete(crs.ID); err != nil {
		return errors.Wrap(err, "deleting course")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// enroll enrolls the authenticated user and starts progress tracking.
func (api *courseApi) enroll(ctx echo.Context) error {
	crs, ok := ctx.Get("object").(course.Course)
	if !ok {
		return errors.Wrap(errCrsNotFoundInCtx, "retrieving object from context")
	}
	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	enr, err := api.svc.Enroll(ctxUsr.ID, crs.ID)
	if err != nil {
		return errors.Wrap(err, "enrolling user")
	}
	if _, err = api.progressSvc.Track(ctxUsr.ID, crs.ID); err != nil {
		return errors.Wrap(err, "tracking progress")
	}
	return ctx.JSON(http.StatusCreated, enr)
}

func (api *courseApi) enrolledCourses(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	courses, err := api.svc.EnrolledCourses(ctxUsr.ID)
	if err != nil {
		return errors.Wrap(err, "querying enrolled courses")
	}
	if courses == nil {
		courses = []course.Course{}
	}
	return ctx.JSON(http.StatusOK, courses)
}

// Materials

func materialKey(courseID, name string) string {
	return fmt.Sprintf("courses/%s/materials/%s", courseID, name)
}

func (api *courseApi) queryMaterials(ctx echo.Context) error {
	crs, ok := ctx.Get("object").(course.Course)
	if !ok {
		return errors.Wrap(errCrsNotFoundInCtx, "retrieving object from context")
	}

	files, err := api.storage.List(fmt.Sprintf("courses/%s/materials", crs.ID))
	if err != nil {
		return errors.Wrap(err, "listing materials")
	}
	if files == nil {
		files = []storagesvc.FileInfo{}
	}
	return ctx.JSON(http.StatusOK, files)
}

func (api *courseApi) uploadMaterial(ctx echo.Context) error {
	crs, ok := ctx.Get("object").(course.Course)
	if !ok {
		return errors.Wrap(errCrsNotFoundInCtx, "retrieving object from context")
	}

	fh, err := ctx.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "file is required")
	}
	src, err := fh.Open()
	if err != nil {
		return errors.Wrap(err, "opening upload")
	}
	defer src.Close()

	size, err := api.storage.Save(materialKey(crs.ID, fh.Filename), src)
	if err != nil {
		return errors.Wrap(err, "saving material")
	}
	return ctx.JSON(http.StatusCreated, storagesvc.FileInfo{
		Key:  materialKey(crs.ID, fh.Filename),
		Name: fh.Filename,
		Size: size,
		Type: storagesvc.FileType(fh.Filename),
	})
}

func (api *courseApi) downloadMaterial(ctx echo.Context) error {
	crs, ok := ctx.Get("object").(course.Course)
	if !ok {
		return errors.Wrap(errCrsNotFoundInCtx, "retrieving object from context")
	}

	name := ctx.Param("name")
	f, err := api.storage.Open(materialKey(crs.ID, name))
	if err != nil {
		if errors.Cause(err) == storagesvc.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "opening material")
	}
	defer f.Close()

	ctx.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", name))
	return ctx.Stream(http.StatusOK, echo.MIMEOctetStream, f)
}

func (api *courseApi) destroyMaterial(ctx echo.Context) error {
	crs, ok := ctx.Get("object").(course.Course)
	if !ok {
		return errors.Wrap(errCrsNotFoundInCtx, "retrieving object from context")
	}

	if err := api.storage.Delete(materialKey(crs.ID, ctx.Param("name"))); err != nil {
		if errors.Cause(err) == storagesvc.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "deleting material")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func ctxCourseMiddleware(svc course.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			crs, err := svc.GetByID(ctx.Param("id"))
			if err != nil {
				if errors.Cause(err) == course.ErrNotFound {
					return errHttpNotFound
				}
				return errors.Wrap(err, "finding course by ID")
			}
			ctx.Set("object", crs)
			return next(ctx)
		}
	}
}
