package service

import (
	"context"
	"time"

	"github.com/Bessaq/AstroManusJules/internal/domain/models"
)

// PositionProvider is the external ephemeris. Positions is treated as a pure
// function of instant and mode; results are not cached.
type PositionProvider interface {
	Chart(ctx context.Context, at models.Instant, mode models.CalcMode) (*models.Chart, error)
	// TransitEvents returns raw provider event records. Field names vary by
	// provider version and are normalised by the caller.
	TransitEvents(ctx context.Context, q models.TransitQuery) ([]map[string]any, error)
	// ReturnMoment searches for the next solar or lunar return, in UTC.
	ReturnMoment(ctx context.Context, q models.ReturnQuery) (time.Time, error)
}
