package api

import (
	"context"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Bessaq/AstroManusJules/internal/domain/models"
	xhttp "github.com/Bessaq/AstroManusJules/pkg/http"
	xlogger "github.com/Bessaq/AstroManusJules/pkg/logger"
	"github.com/Bessaq/AstroManusJules/pkg/util"
)

// GeoService is implemented by geo.Service.
type GeoService interface {
	Resolve(ctx context.Context, place string, date time.Time) (*models.GeoResolution, error)
	ClearCaches(ctx context.Context) (map[string]int, error)
}

type GeoEchoHandler struct {
	logger *xlogger.Logger
	geo    GeoService
	now    func() time.Time
}

func NewGeoEchoHandler(logger *xlogger.Logger, geo GeoService) *GeoEchoHandler {
	return &GeoEchoHandler{logger: logger, geo: geo, now: time.Now}
}

func (h *GeoEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/v1/geo")
	g.GET("/resolve", h.Resolve)
	g.DELETE("/cache", h.ClearCache)
}

func (h *GeoEchoHandler) Resolve(c echo.Context) error {
	req := &models.GeoResolveRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	date := h.now().UTC()
	if req.Date != "" {
		d, err := util.ParseDate(req.Date)
		if err != nil {
			return xhttp.AppErrorResponse(c, xhttp.BadRequestError("date", "date must be YYYY-MM-DD"))
		}
		date = d
	}

	res, err := h.geo.Resolve(c.Request().Context(), req.Place, date)
	if err != nil {
		return respondError(c, h.logger, "geo resolve", err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *GeoEchoHandler) ClearCache(c echo.Context) error {
	sizes, err := h.geo.ClearCaches(c.Request().Context())
	if err != nil {
		// local tiers are already empty; the shared tier failed
		h.logger.Warn("geo cache clear incomplete", xlogger.Error(err))
	}
	return xhttp.SuccessResponse(c, map[string]interface{}{"cleared": sizes})
}
