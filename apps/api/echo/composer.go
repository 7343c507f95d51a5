package echoapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/composer"
)

type composerApi struct {
	svc *composer.Service
}

// registerComposerAPI mounts the course authoring endpoints. The role
// gate lives in the composer service; these handlers only translate
// HTTP to service calls.
func registerComposerAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *composer.Service) {
	api := composerApi{svc: svc}

	cg := g.Group("/composer/drafts", jwt)
	cg.POST("", api.start)

	dg := cg.Group("/:id")
	dg.GET("", api.retrieve)
	dg.DELETE("", api.cancel)
	dg.PUT("/basic", api.updateBasic)
	dg.PUT("/content", api.updateContent)
	dg.PUT("/metadata", api.updateMetadata)
	dg.PUT("/instructor", api.setInstructor)
	dg.PUT("/step", api.navigate)
	dg.POST("/lists/:field", api.addListItem)
	dg.DELETE("/lists/:field", api.removeListItem)
	dg.POST("/media/:field", api.attachAsset)
	dg.DELETE("/media/:field", api.removeAsset)
	dg.POST("/submit", api.submit)
}

func (api *composerApi) start(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return err
	}

	view, err := api.svc.Start(sess)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, view)
}

func (api *composerApi) retrieve(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return err
	}

	view, err := api.svc.Get(sess, ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, view)
}

func (api *composerApi) updateBasic(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return err
	}

	var data composer.BasicInfo
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to BasicInfo")
	}

	view, _, err := api.svc.UpdateBasic(sess, ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, view)
}

func (api *composerApi) updateContent(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return err
	}

	var data composer.ContentInfo
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ContentInfo")
	}

	view, _, err := api.svc.UpdateContent(sess, ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, view)
}

func (api *composerApi) updateMetadata(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return err
	}

	var data composer.Metadata
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Metadata")
	}

	view, _, err := api.svc.UpdateMetadata(sess, ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, view)
}

func (api *composerApi) setInstructor(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return err
	}

	var data InstructorRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to InstructorRequest")
	}

	view, _, err := api.svc.SetInstructor(sess, ctx.Param("id"), data.InstructorID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, view)
}

func (api *composerApi) navigate(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return err
	}

	var data NavigateRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NavigateRequest")
	}

	view, _, err := api.svc.Navigate(sess, ctx.Param("id"), composer.StepID(data.Step))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, view)
}

func (api *composerApi) addListItem(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return err
	}

	var data ListItemRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ListItemRequest")
	}

	view, err := api.svc.AddListItem(sess, ctx.Param("id"), composer.ListField(ctx.Param("field")), data.Value)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, view)
}

func (api *composerApi) removeListItem(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return err
	}

	view, err := api.svc.RemoveListItem(sess, ctx.Param("id"), composer.ListField(ctx.Param("field")), ctx.QueryParam("value"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, view)
}

// attachAsset accepts a multipart upload: a "file" part plus a
// "strategy" value naming the encoding ("inline" or "url").
func (api *composerApi) attachAsset(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return err
	}

	fh, err := ctx.FormFile("file")
	if err != nil {
		return core.NewValidationError(nil, core.FieldError{Field: "file", Error: "a file is required"})
	}
	f, err := fh.Open()
	if err != nil {
		return errors.Wrap(err, "opening uploaded file")
	}
	defer f.Close()

	in := composer.AssetInput{
		Name:        fh.Filename,
		ContentType: fh.Header.Get(echo.HeaderContentType),
		Size:        fh.Size,
		Content:     f,
	}
	strategy := composer.AssetEncoding(ctx.FormValue("strategy"))

	view, err := api.svc.AttachAsset(sess, ctx.Param("id"), composer.MediaField(ctx.Param("field")), in, strategy)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, view)
}

func (api *composerApi) removeAsset(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return err
	}

	var index int
	if v := ctx.QueryParam("index"); v != "" {
		var err error
		if index, err = strconv.Atoi(v); err != nil {
			return core.NewValidationError(nil, core.FieldError{Field: "index", Error: "must be a number"})
		}
	}

	view, err := api.svc.RemoveAsset(sess, ctx.Param("id"), composer.MediaField(ctx.Param("field")), index)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, view)
}

func (api *composerApi) submit(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return err
	}

	crs, err := api.svc.Submit(sess, ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, crs)
}

func (api *composerApi) cancel(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return err
	}

	if err := api.svc.Cancel(sess, ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

type (
	InstructorRequest struct {
		InstructorID string `json:"instructor_id"`
	}

	NavigateRequest struct {
		Step string `json:"step"`
	}

	ListItemRequest struct {
		Value string `json:"value"`
	}
)
