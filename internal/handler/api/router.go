package api

import (
	"github.com/labstack/echo/v4"

	xhttp "github.com/Bessaq/AstroManusJules/pkg/http"
)

// Router registers every API handler under one xhttp.Handler.
type Router struct {
	handlers []xhttp.Handler
}

func NewRouter(charts *ChartsEchoHandler, transits *TransitsEchoHandler, geo *GeoEchoHandler) xhttp.Handler {
	return &Router{handlers: []xhttp.Handler{charts, transits, geo}}
}

func (r *Router) RegisterRoutes(e *echo.Echo) {
	for _, h := range r.handlers {
		h.RegisterRoutes(e)
	}
}
