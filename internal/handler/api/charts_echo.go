package api

import (
	"context"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Bessaq/AstroManusJules/internal/domain/models"
	"github.com/Bessaq/AstroManusJules/internal/usecase"
	xhttp "github.com/Bessaq/AstroManusJules/pkg/http"
	xlogger "github.com/Bessaq/AstroManusJules/pkg/logger"
)

// ChartService is implemented by usecase.ChartsUseCase.
type ChartService interface {
	NatalChart(ctx context.Context, req models.NatalChartRequest) (*usecase.NatalChartResult, error)
	Synastry(ctx context.Context, req models.SynastryRequest) (*usecase.SynastryResult, error)
	Composite(ctx context.Context, req models.CompositeChartRequest) (*usecase.CompositeResult, error)
	DailySky(ctx context.Context, date time.Time) (*usecase.SkyReport, error)
	WeeklySky(ctx context.Context, start time.Time) (*usecase.WeeklySkyReport, error)
	MoonPhase(ctx context.Context, date time.Time) (*usecase.MoonPhaseReport, error)
	SolarReturn(ctx context.Context, req models.SolarReturnRequest) (*usecase.ReturnResult, error)
	LunarReturn(ctx context.Context, req models.LunarReturnRequest) (*usecase.ReturnResult, error)
}

type ChartsEchoHandler struct {
	logger *xlogger.Logger
	charts ChartService
}

func NewChartsEchoHandler(logger *xlogger.Logger, charts ChartService) *ChartsEchoHandler {
	return &ChartsEchoHandler{logger: logger, charts: charts}
}

func (h *ChartsEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/v1")
	g.POST("/natal_chart", h.NatalChart)
	g.POST("/synastry", h.Synastry)
	g.POST("/composite_chart", h.Composite)
	g.POST("/transits/daily", h.DailyTransits)
	g.POST("/transits/weekly", h.WeeklyTransits)
	g.POST("/moon_phase", h.MoonPhase)
	g.POST("/solar_return", h.SolarReturn)
	g.POST("/lunar_return", h.LunarReturn)
}

func (h *ChartsEchoHandler) NatalChart(c echo.Context) error {
	req := &models.NatalChartRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	res, err := h.charts.NatalChart(c.Request().Context(), *req)
	if err != nil {
		return respondError(c, h.logger, "natal chart", err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *ChartsEchoHandler) Synastry(c echo.Context) error {
	req := &models.SynastryRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	res, err := h.charts.Synastry(c.Request().Context(), *req)
	if err != nil {
		return respondError(c, h.logger, "synastry", err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *ChartsEchoHandler) Composite(c echo.Context) error {
	req := &models.CompositeChartRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	res, err := h.charts.Composite(c.Request().Context(), *req)
	if err != nil {
		return respondError(c, h.logger, "composite chart", err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *ChartsEchoHandler) DailyTransits(c echo.Context) error {
	d, ok, err := h.readDay(c)
	if !ok {
		return err
	}
	res, err := h.charts.DailySky(c.Request().Context(), d)
	if err != nil {
		return respondError(c, h.logger, "daily transits", err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *ChartsEchoHandler) WeeklyTransits(c echo.Context) error {
	d, ok, err := h.readDay(c)
	if !ok {
		return err
	}
	res, err := h.charts.WeeklySky(c.Request().Context(), d)
	if err != nil {
		return respondError(c, h.logger, "weekly transits", err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *ChartsEchoHandler) MoonPhase(c echo.Context) error {
	d, ok, err := h.readDay(c)
	if !ok {
		return err
	}
	res, err := h.charts.MoonPhase(c.Request().Context(), d)
	if err != nil {
		return respondError(c, h.logger, "moon phase", err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *ChartsEchoHandler) SolarReturn(c echo.Context) error {
	req := &models.SolarReturnRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	res, err := h.charts.SolarReturn(c.Request().Context(), *req)
	if err != nil {
		return respondError(c, h.logger, "solar return", err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *ChartsEchoHandler) LunarReturn(c echo.Context) error {
	req := &models.LunarReturnRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	res, err := h.charts.LunarReturn(c.Request().Context(), *req)
	if err != nil {
		return respondError(c, h.logger, "lunar return", err)
	}
	return xhttp.SuccessResponse(c, res)
}

// readDay binds a DailyTransitsRequest. When ok is false the error
// response has already been written and err is the write result.
func (h *ChartsEchoHandler) readDay(c echo.Context) (d time.Time, ok bool, err error) {
	req := &models.DailyTransitsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return time.Time{}, false, xhttp.BadRequestResponse(c, verr)
	}
	d = time.Date(req.Year, time.Month(req.Month), req.Day, 0, 0, 0, 0, time.UTC)
	if d.Day() != req.Day {
		return time.Time{}, false, xhttp.AppErrorResponse(c, xhttp.BadRequestError("day", "not a valid calendar date"))
	}
	return d, true, nil
}
