package api

import (
	"context"

	"github.com/labstack/echo/v4"

	"github.com/Bessaq/AstroManusJules/internal/domain/models"
	"github.com/Bessaq/AstroManusJules/internal/usecase"
	xhttp "github.com/Bessaq/AstroManusJules/pkg/http"
	xlogger "github.com/Bessaq/AstroManusJules/pkg/logger"
)

// SubjectResolver is implemented by usecase.LocationUseCase.
type SubjectResolver interface {
	ResolveSubject(ctx context.Context, req models.SubjectRequest) (models.Instant, *models.LocationInfo, error)
}

// RangeScanner is implemented by usecase.TransitScanner.
type RangeScanner interface {
	Validate(p usecase.ScanParams) error
	Scan(ctx context.Context, p usecase.ScanParams) (*models.TransitScan, error)
}

type TransitsEchoHandler struct {
	logger        *xlogger.Logger
	subjects      SubjectResolver
	scanner       RangeScanner
	throttle      ThrottleSettings
	defaultOrbMul float64
}

func NewTransitsEchoHandler(
	logger *xlogger.Logger,
	subjects SubjectResolver,
	scanner RangeScanner,
	throttle ThrottleSettings,
	defaultOrbMul float64,
) *TransitsEchoHandler {
	if defaultOrbMul <= 0 {
		defaultOrbMul = 1
	}
	return &TransitsEchoHandler{
		logger:        logger,
		subjects:      subjects,
		scanner:       scanner,
		throttle:      throttle,
		defaultOrbMul: defaultOrbMul,
	}
}

func (h *TransitsEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/v1/transits")
	var mw []echo.MiddlewareFunc
	if h.throttle.Limiter != nil {
		mw = append(mw, throttle(h.throttle))
	}
	g.POST("/range", h.Range, mw...)
}

func (h *TransitsEchoHandler) Range(c echo.Context) error {
	req := &models.TransitRangeRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	orbMul := req.OrbMultiplier
	if orbMul == 0 {
		orbMul = h.defaultOrbMul
	}
	params := usecase.ScanParams{
		Mode:          req.NatalData.CalcMode(),
		StartDate:     req.StartDate,
		EndDate:       req.EndDate,
		Transiting:    req.TransitingPlanets,
		Targets:       req.NatalPoints,
		AspectTypes:   req.AspectTypes,
		Step:          req.Step,
		OrbMultiplier: orbMul,
		OrderByOrb:    req.OrderByOrb,
	}
	// range errors are reported before spending a geocode lookup
	if err := h.scanner.Validate(params); err != nil {
		return respondError(c, h.logger, "transit range", err)
	}

	ctx := c.Request().Context()
	natal, _, err := h.subjects.ResolveSubject(ctx, req.NatalData)
	if err != nil {
		return respondError(c, h.logger, "transit range", models.PrefixField("natal_data", err))
	}
	params.Natal = natal

	scan, err := h.scanner.Scan(ctx, params)
	if err != nil {
		return respondError(c, h.logger, "transit range", err)
	}
	return xhttp.SuccessResponse(c, scan)
}
