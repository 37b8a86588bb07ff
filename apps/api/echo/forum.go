package echoapi

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/learnhub/core/forum"
	"github.com/trezcool/learnhub/core/user"
	storagesvc "github.com/trezcool/learnhub/services/storage"
)

type forumApi struct {
	svc      forum.Service
	userSvc  user.Service
	storage  storagesvc.Storage
	validate *validator.Validate
}

func registerForumAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc forum.Service,
	userSvc user.Service,
	storage storagesvc.Storage,
	validate *validator.Validate,
) {
	api := forumApi{
		svc:      svc,
		userSvc:  userSvc,
		storage:  storage,
		validate: validate,
	}

	fg := g.Group("/forum")

	// un-authed endpoints: reading the forum is public
	fg.GET("/posts", api.query)
	fg.GET("/posts/:id", api.retrieve)
	fg.GET("/categories", api.queryCategories)
	fg.GET("/attachments/:id/:name", api.downloadAttachment)

	// authed endpoints
	ag := fg.Group("", jwt)
	ag.POST("/posts", api.create)
	ag.POST("/posts/:id/replies", api.reply)
	ag.POST("/posts/:id/vote", api.vote)
	ag.PUT("/posts/:id/pin", api.setPinned, adminMiddleware())
	ag.PUT("/posts/:id/close", api.setClosed, adminMiddleware())
	ag.DELETE("/posts/:id", api.destroy, adminMiddleware())
	ag.POST("/attachments", api.uploadAttachment)
}

// Handlers

func (api *forumApi) create(ctx echo.Context) error {
	var data forum.NewPost
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewPost")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	post, err := api.svc.CreatePost(author(ctxUsr), data, data.Attachments...)
	if err != nil {
		return errors.Wrap(err, "creating post")
	}
	return ctx.JSON(http.StatusCreated, post)
}

func (api *forumApi) query(ctx echo.Context) error {
	filter := new(forum.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []forum.Post{})
	}
	filter.Clean()

	posts, err := api.svc.Filter(filter)
	if err != nil {
		return errors.Wrap(err, "querying posts")
	}
	if posts == nil {
		posts = []forum.Post{}
	}
	return ctx.JSON(http.StatusOK, posts)
}

func (api *forumApi) queryCategories(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, forum.Categories)
}

func (api *forumApi) retrieve(ctx echo.Context) error {
	post, err := api.svc.GetByID(ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == forum.ErrPostNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding post by ID")
	}
	return ctx.JSON(http.StatusOK, post)
}

func (api *forumApi) reply(ctx echo.Context) error {
	var data forum.NewReply
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewReply")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	reply, err := api.svc.Reply(ctx.Param("id"), author(ctxUsr), data, data.Attachments...)
	if err != nil {
		switch errors.Cause(err) {
		case forum.ErrPostNotFound:
			return errHttpNotFound
		case forum.ErrPostClosed:
			return echo.NewHTTPError(http.StatusConflict, "post is closed")
		}
		return errors.Wrap(err, "creating reply")
	}
	return ctx.JSON(http.StatusCreated, reply)
}

func (api *forumApi) vote(ctx echo.Context) error {
	var data forum.NewVote
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewVote")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	post, err := api.svc.Vote(ctx.Param("id"), ctxUsr.ID, data.Type)
	if err != nil {
		if errors.Cause(err) == forum.ErrPostNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "voting on post")
	}
	return ctx.JSON(http.StatusOK, post)
}

func (api *forumApi) setPinned(ctx echo.Context) error {
	return api.moderate(ctx, func(postID string, on bool) (forum.Post, error) {
		return api.svc.SetPinned(postID, on)
	})
}

func (api *forumApi) setClosed(ctx echo.Context) error {
	return api.moderate(ctx, func(postID string, on bool) (forum.Post, error) {
		return api.svc.SetClosed(postID, on)
	})
}

func (api *forumApi) moderate(ctx echo.Context, apply func(string, bool) (forum.Post, error)) error {
	var data ModerationRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ModerationRequest")
	}

	post, err := apply(ctx.Param("id"), data.On)
	if err != nil {
		if errors.Cause(err) == forum.ErrPostNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "moderating post")
	}
	return ctx.JSON(http.StatusOK, post)
}

func (api *forumApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting post")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *forumApi) uploadAttachment(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
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

	id := uuid.New().String()
	key := fmt.Sprintf("forum/attachments/%s/%s", id, fh.Filename)
	size, err := api.storage.Save(key, src)
	if err != nil {
		return errors.Wrap(err, "saving attachment")
	}

	return ctx.JSON(http.StatusCreated, forum.Attachment{
		ID:         id,
		Name:       fh.Filename,
		Size:       size,
		Type:       storagesvc.FileType(fh.Filename),
		URL:        "/v1/forum/attachments/" + id + "/" + fh.Filename,
		UploadedBy: ctxUsr.ID,
		UploadedAt: time.Now().UTC(),
	})
}

func (api *forumApi) downloadAttachment(ctx echo.Context) error {
	name := ctx.Param("name")
	key := fmt.Sprintf("forum/attachments/%s/%s", ctx.Param("id"), name)
	f, err := api.storage.Open(key)
	if err != nil {
		if errors.Cause(err) == storagesvc.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "opening attachment")
	}
	defer f.Close()

	ctx.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", name))
	return ctx.Stream(http.StatusOK, echo.MIMEOctetStream, f)
}

func author(usr user.User) forum.Author {
	return forum.Author{ID: usr.ID, Name: usr.Name, Role: usr.Role}
}

type ModerationRequest struct {
	On bool `json:"on"`
}
