package echoapi

import (
	"net/http"
	"sort"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/course"
)

type courseApi struct {
	svc *course.Service
}

func registerCourseAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *course.Service) {
	api := courseApi{svc: svc}

	cg := g.Group("/courses", jwt)
	cg.GET("", api.query)
	cg.GET("/:id", api.retrieve)

	catg := g.Group("/categories", jwt)
	catg.GET("", api.queryCategories)
	catg.POST("", api.createCategory, adminMiddleware())
}

func (api *courseApi) query(ctx echo.Context) error {
	filter := new(course.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []course.Course{})
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)

	courses, err := api.svc.Filter(*filter)
	if err != nil {
		return errors.Wrap(err, "querying courses")
	}
	if courses == nil {
		courses = []course.Course{}
	}
	sortCourses(courses, ordering)
	return ctx.JSON(http.StatusOK, courses)
}

func (api *courseApi) retrieve(ctx echo.Context) error {
	crs, err := api.svc.GetByID(ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, crs)
}

func (api *courseApi) queryCategories(ctx echo.Context) error {
	cats, err := api.svc.QueryCategories()
	if err != nil {
		return errors.Wrap(err, "querying categories")
	}
	if cats == nil {
		cats = []course.Category{}
	}
	return ctx.JSON(http.StatusOK, cats)
}

func (api *courseApi) createCategory(ctx echo.Context) error {
	var data CategoryRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to CategoryRequest")
	}

	cat, err := api.svc.CreateCategory(data.Name)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, cat)
}

func sortCourses(courses []course.Course, ordering *Ordering) {
	sort.SliceStable(courses, ordering.Less(func(i, j int, field string) int {
		a, b := courses[i], courses[j]
		switch field {
		case "title":
			return strings.Compare(a.Title, b.Title)
		case "price":
			switch {
			case a.Price == b.Price:
				return 0
			case a.Price < b.Price:
				return -1
			}
			return 1
		case "created_at":
			return compareTimes(a.CreatedAt, b.CreatedAt)
		}
		return 0
	}))
}

type CategoryRequest struct {
	Name string `json:"name"`
}
