package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Bessaq/AstroManusJules/internal/domain/models"
	"github.com/Bessaq/AstroManusJules/internal/services/aspects"
	"github.com/Bessaq/AstroManusJules/pkg/logger"
	"github.com/Bessaq/AstroManusJules/pkg/util"
)

// lunarMonthDays is the estimate used when the provider cannot search for
// a lunar return.
const lunarMonthDays = 28

type MoonPhaseReport struct {
	Date         string  `json:"date"`
	Phase        string  `json:"phase"`
	Illumination float64 `json:"illumination"`
	Elongation   float64 `json:"elongation"`
}

// MoonPhase reads the Sun-Moon elongation at 12:00 UTC on date.
func (uc *ChartsUseCase) MoonPhase(ctx context.Context, date time.Time) (*MoonPhaseReport, error) {
	defer uc.observe("moon_phase", time.Now())

	op := "moon phase " + util.FormatDate(date)
	chart, err := uc.provider.Chart(ctx, models.Instant{Local: util.NoonIn(date, time.UTC)}, models.DefaultCalcMode)
	if err != nil {
		return nil, models.ProviderFailure(op, err)
	}
	sun, okSun := chart.Positions[models.Sun]
	moon, okMoon := chart.Positions[models.Moon]
	if !okSun || !okMoon {
		return nil, models.ProviderFailure(op, errors.New("chart lacks the Sun or the Moon"))
	}

	phase, illumination, elongation := aspects.MoonPhase(sun.Longitude, moon.Longitude)
	return &MoonPhaseReport{
		Date:         util.FormatDate(date),
		Phase:        phase,
		Illumination: models.RoundFloat(illumination, 1),
		Elongation:   models.RoundFloat(elongation, 2),
	}, nil
}

type ReturnResult struct {
	Kind        models.ReturnKind          `json:"kind"`
	ReturnAt    string                     `json:"precise_return_datetime_utc"`
	Approximate bool                       `json:"approximate"`
	Planets     []models.CelestialPosition `json:"planets"`
	Houses      []models.HouseCusp         `json:"houses"`
	Aspects     []models.AspectMatch       `json:"aspects"`
	Highlights  []string                   `json:"highlights"`
	Location    *models.LocationInfo       `json:"location_info"`
}

// SolarReturn casts the chart for the Sun's return in req.ReturnYear, at
// the birthplace.
func (uc *ChartsUseCase) SolarReturn(ctx context.Context, req models.SolarReturnRequest) (*ReturnResult, error) {
	defer uc.observe("solar_return", time.Now())

	natal, loc, err := uc.locations.ResolveSubject(ctx, req.SubjectRequest)
	if err != nil {
		return nil, err
	}
	b := natal.Local
	zone := b.Location()
	q := models.ReturnQuery{
		Kind:  models.SolarReturn,
		Natal: natal,
		Mode:  req.CalcMode(),
		After: time.Date(req.ReturnYear, time.January, 1, 0, 0, 0, 0, zone),
	}
	// birthday at the natal clock time; February 29 rolls to March 1
	estimate := time.Date(req.ReturnYear, b.Month(), b.Day(), b.Hour(), b.Minute(), 0, 0, zone)
	return uc.castReturn(ctx, q, estimate, loc)
}

// LunarReturn casts the chart for the first Moon return after noon UTC on
// req.SearchStartDate, at the birthplace.
func (uc *ChartsUseCase) LunarReturn(ctx context.Context, req models.LunarReturnRequest) (*ReturnResult, error) {
	defer uc.observe("lunar_return", time.Now())

	start, err := util.ParseDate(req.SearchStartDate)
	if err != nil {
		return nil, models.InvalidInput("search_start_date", "%v", err)
	}
	natal, loc, err := uc.locations.ResolveSubject(ctx, req.NatalData)
	if err != nil {
		return nil, models.PrefixField("natal_data", err)
	}
	b := natal.Local
	q := models.ReturnQuery{
		Kind:  models.LunarReturn,
		Natal: natal,
		Mode:  req.NatalData.CalcMode(),
		After: util.NoonIn(start, time.UTC),
	}
	estimate := time.Date(start.Year(), start.Month(), start.Day()+lunarMonthDays, b.Hour(), b.Minute(), 0, 0, b.Location())
	return uc.castReturn(ctx, q, estimate, loc)
}

// castReturn finds the return moment, falling back to estimate when the
// provider's search fails, and casts the chart at the natal place.
func (uc *ChartsUseCase) castReturn(ctx context.Context, q models.ReturnQuery, estimate time.Time, loc *models.LocationInfo) (*ReturnResult, error) {
	approximate := false
	at, err := uc.provider.ReturnMoment(ctx, q)
	if err != nil {
		uc.log.Warn("return search failed, using estimate",
			logger.String("kind", string(q.Kind)),
			logger.String("estimate", estimate.UTC().Format(time.RFC3339)),
			logger.Error(err),
		)
		at, approximate = estimate, true
	}
	at = at.UTC()

	inst := models.Instant{
		Local:     at.In(q.Natal.Local.Location()),
		Latitude:  q.Natal.Latitude,
		Longitude: q.Natal.Longitude,
	}
	chart, err := uc.provider.Chart(ctx, inst, q.Mode)
	if err != nil {
		return nil, models.ProviderFailure(fmt.Sprintf("%s return chart at %s", q.Kind, at.Format(time.RFC3339)), err)
	}

	return &ReturnResult{
		Kind:        q.Kind,
		ReturnAt:    at.Format(time.RFC3339),
		Approximate: approximate,
		Planets:     chart.Positions.Ordered(),
		Houses:      chart.Houses,
		Aspects:     nonNilMatches(aspects.Within(chart.Positions, aspects.Options{})),
		Highlights:  ReturnHighlights(q.Kind, chart, approximate),
		Location:    loc,
	}, nil
}

// ReturnHighlights picks out the placements a return reading starts from.
func ReturnHighlights(kind models.ReturnKind, chart *models.Chart, approximate bool) []string {
	var out []string
	if approximate {
		out = append(out, "The return time is an estimate based on the natal clock time.")
	}
	asc, hasAsc := ascendantSign(chart.Houses)
	moon, hasMoon := chart.Positions[models.Moon]

	switch kind {
	case models.SolarReturn:
		if hasMoon {
			out = append(out, fmt.Sprintf("Moon in %s: emotions and intuition take the lead this year.", moon.Sign))
		}
		if hasAsc {
			out = append(out, fmt.Sprintf("Return Ascendant in %s: a fresh outlook for the year.", asc))
		}
		if sun, ok := chart.Positions[models.Sun]; ok && sun.House != nil {
			out = append(out, fmt.Sprintf("Sun in house %d: the main area of focus and expression.", *sun.House))
		}
		out = append(out, "A year of renewal and new personal cycles.")
	case models.LunarReturn:
		if hasAsc {
			out = append(out, fmt.Sprintf("Lunar return Ascendant in %s.", asc))
		}
		if hasMoon {
			line := fmt.Sprintf("Moon in %s", moon.Sign)
			if moon.House != nil {
				line += fmt.Sprintf(" in house %d", *moon.House)
			}
			out = append(out, line+": the emotional tone of the coming month.")
		}
	}
	return out
}

func ascendantSign(houses []models.HouseCusp) (string, bool) {
	for _, h := range houses {
		if h.House == 1 && h.Sign != "" {
			return h.Sign, true
		}
	}
	return "", false
}
