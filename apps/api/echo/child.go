package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/checkkid/checkkid/core/child"
)

type childApi struct {
	svc child.Service
}

func registerChildAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc child.Service) {
	api := childApi{svc: svc}

	cg := g.Group("/children", jwt, staffMiddleware())
	cg.GET("", api.query)
	cg.GET("/:id", api.retrieve)
}

// Handlers

func (api *childApi) query(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	children, err := api.svc.QueryByKindergarten(ctx.Request().Context(), claims.KindergartenID)
	if err != nil {
		return mapDomainError(errors.Wrap(err, "querying children"))
	}
	if children == nil {
		children = []child.Child{}
	}
	return ctx.JSON(http.StatusOK, children)
}

func (api *childApi) retrieve(ctx echo.Context) error {
	c, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return mapDomainError(errors.Wrap(err, "finding child by ID"))
	}
	return ctx.JSON(http.StatusOK, c)
}
