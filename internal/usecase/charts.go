package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Bessaq/AstroManusJules/internal/domain/models"
	domrepo "github.com/Bessaq/AstroManusJules/internal/domain/repository"
	domsvc "github.com/Bessaq/AstroManusJules/internal/domain/service"
	"github.com/Bessaq/AstroManusJules/internal/services/aspects"
	"github.com/Bessaq/AstroManusJules/pkg/logger"
	"github.com/Bessaq/AstroManusJules/pkg/util"
)

// Sky reports look at the classical planets only and keep tight aspects.
const (
	skyMaxOrb  = 5.0
	skyDays    = 7
	skyWorkers = 4
)

// ChartsUseCase builds natal, synastry, composite, return and sky reports.
type ChartsUseCase struct {
	provider  domsvc.PositionProvider
	locations *LocationUseCase
	metrics   domrepo.Metrics
	log       *logger.Logger
}

func NewChartsUseCase(provider domsvc.PositionProvider, locations *LocationUseCase, metrics domrepo.Metrics, log *logger.Logger) *ChartsUseCase {
	if metrics == nil {
		metrics = domrepo.NopMetrics{}
	}
	return &ChartsUseCase{provider: provider, locations: locations, metrics: metrics, log: log}
}

type NatalChartResult struct {
	Name     string                     `json:"name,omitempty"`
	Planets  []models.CelestialPosition `json:"planets"`
	Houses   []models.HouseCusp         `json:"houses"`
	Aspects  []models.AspectMatch       `json:"aspects"`
	Location *models.LocationInfo       `json:"location_info"`
}

type SynastryResult struct {
	Aspects            []models.AspectMatch `json:"aspects"`
	CompatibilityScore float64              `json:"compatibility_score"`
	Counts             models.ClassCounts   `json:"aspect_counts"`
	Summary            string               `json:"summary"`
	Person1Location    *models.LocationInfo `json:"person1_location_info"`
	Person2Location    *models.LocationInfo `json:"person2_location_info"`
}

type CompositeResult struct {
	Planets         []models.CelestialPosition `json:"planets"`
	Aspects         []models.AspectMatch       `json:"aspects"`
	Person1Location *models.LocationInfo       `json:"person1_location_info"`
	Person2Location *models.LocationInfo       `json:"person2_location_info"`
}

type SkyReport struct {
	Date    string                     `json:"date"`
	Planets []models.CelestialPosition `json:"planets"`
	Aspects []models.AspectMatch       `json:"aspects"`
	Counts  models.ClassCounts         `json:"aspect_counts"`
	Mood    string                     `json:"mood"`
	Summary string                     `json:"summary"`
}

type WeeklySkyReport struct {
	StartDate string      `json:"start_date"`
	EndDate   string      `json:"end_date"`
	Days      []SkyReport `json:"days"`
}

type subjectChart struct {
	chart    *models.Chart
	instant  models.Instant
	location *models.LocationInfo
}

func (uc *ChartsUseCase) subject(ctx context.Context, label string, req models.SubjectRequest) (*subjectChart, error) {
	at, loc, err := uc.locations.ResolveSubject(ctx, req)
	if err != nil {
		return nil, models.PrefixField(label, err)
	}
	chart, err := uc.provider.Chart(ctx, at, req.CalcMode())
	if err != nil {
		return nil, models.ProviderFailure(fmt.Sprintf("%s chart at %s", label, at.Local.Format(time.RFC3339)), err)
	}
	return &subjectChart{chart: chart, instant: at, location: loc}, nil
}

// NatalChart returns positions, houses and internal aspects for one subject.
func (uc *ChartsUseCase) NatalChart(ctx context.Context, req models.NatalChartRequest) (*NatalChartResult, error) {
	defer uc.observe("natal_chart", time.Now())

	sc, err := uc.subject(ctx, "", req.SubjectRequest)
	if err != nil {
		return nil, err
	}
	matches := aspects.Within(sc.chart.Positions, aspects.Options{OrbMultiplier: req.OrbMultiplier})
	aspects.Categorize(matches)
	return &NatalChartResult{
		Name:     req.Name,
		Planets:  sc.chart.Positions.Ordered(),
		Houses:   sc.chart.Houses,
		Aspects:  nonNilMatches(matches),
		Location: sc.location,
	}, nil
}

// pair resolves and computes both subjects concurrently.
func (uc *ChartsUseCase) pair(ctx context.Context, p1, p2 models.SubjectRequest) (*subjectChart, *subjectChart, error) {
	var a, b *subjectChart
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		a, err = uc.subject(gctx, "person1", p1)
		return err
	})
	g.Go(func() error {
		var err error
		b, err = uc.subject(gctx, "person2", p2)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return a, b, nil
}

// Synastry compares two people: every body of person1 against every body
// of person2, reduced to a compatibility score.
func (uc *ChartsUseCase) Synastry(ctx context.Context, req models.SynastryRequest) (*SynastryResult, error) {
	defer uc.observe("synastry", time.Now())

	a, b, err := uc.pair(ctx, req.Person1, req.Person2)
	if err != nil {
		return nil, err
	}
	matches := aspects.Between(a.chart.Positions, b.chart.Positions, aspects.Options{OrbMultiplier: req.OrbMultiplier})
	score := aspects.Score(matches)
	return &SynastryResult{
		Aspects:            nonNilMatches(matches),
		CompatibilityScore: score,
		Counts:             models.CountClasses(matches),
		Summary:            SynastrySummary(matches, score),
		Person1Location:    a.location,
		Person2Location:    b.location,
	}, nil
}

// Composite builds the midpoint chart of two people.
func (uc *ChartsUseCase) Composite(ctx context.Context, req models.CompositeChartRequest) (*CompositeResult, error) {
	defer uc.observe("composite_chart", time.Now())

	a, b, err := uc.pair(ctx, req.Person1, req.Person2)
	if err != nil {
		return nil, err
	}
	set := CompositePositions(a.chart.Positions, b.chart.Positions)
	return &CompositeResult{
		Planets:         set.Ordered(),
		Aspects:         nonNilMatches(aspects.Within(set, aspects.Options{})),
		Person1Location: a.location,
		Person2Location: b.location,
	}, nil
}

// CompositePositions takes the shorter-arc midpoint of every body present
// in both sets. Composite points have no speed, retrograde state or house.
func CompositePositions(a, b models.PositionSet) models.PositionSet {
	out := make(models.PositionSet)
	for body, pa := range a {
		pb, ok := b[body]
		if !ok {
			continue
		}
		lon := aspects.Midpoint(pa.Longitude, pb.Longitude)
		sign, num, deg := aspects.SignOf(lon)
		out[body] = models.CelestialPosition{
			Body:          body,
			Longitude:     models.RoundFloat(lon, 4),
			SignLongitude: models.RoundFloat(deg, 4),
			Sign:          sign,
			SignNum:       num,
			Element:       aspects.ElementOf(sign),
			Quality:       aspects.ModalityOf(sign),
			PositionDMS:   aspects.FormatDMS(deg),
		}
	}
	return out
}

// DailySky reports aspects among the classical planets at 12:00 UTC.
func (uc *ChartsUseCase) DailySky(ctx context.Context, date time.Time) (*SkyReport, error) {
	defer uc.observe("daily_sky", time.Now())
	return uc.daily(ctx, date)
}

func (uc *ChartsUseCase) daily(ctx context.Context, date time.Time) (*SkyReport, error) {
	at := models.Instant{Local: util.NoonIn(date, time.UTC)}
	chart, err := uc.provider.Chart(ctx, at, models.DefaultCalcMode)
	if err != nil {
		return nil, models.ProviderFailure("sky chart "+util.FormatDate(date), err)
	}

	set := make(models.PositionSet, len(models.ClassicalBodies))
	for _, b := range models.ClassicalBodies {
		if p, ok := chart.Positions[b]; ok {
			set[b] = p
		}
	}
	matches := aspects.Within(set, aspects.Options{MaxOrb: skyMaxOrb})
	counts := models.CountClasses(matches)
	mood, summary := DayMood(len(matches), counts)
	return &SkyReport{
		Date:    util.FormatDate(date),
		Planets: set.Ordered(),
		Aspects: nonNilMatches(matches),
		Counts:  counts,
		Mood:    mood,
		Summary: summary,
	}, nil
}

// WeeklySky runs seven consecutive daily reports starting at start.
func (uc *ChartsUseCase) WeeklySky(ctx context.Context, start time.Time) (*WeeklySkyReport, error) {
	defer uc.observe("weekly_sky", time.Now())

	days := make([]SkyReport, skyDays)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(skyWorkers)
	for i := range days {
		g.Go(func() error {
			r, err := uc.daily(gctx, start.AddDate(0, 0, i))
			if err != nil {
				return err
			}
			days[i] = *r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &WeeklySkyReport{
		StartDate: util.FormatDate(start),
		EndDate:   util.FormatDate(start.AddDate(0, 0, skyDays-1)),
		Days:      days,
	}, nil
}

// DayMood classifies a day by whether harmonic or tense aspects dominate.
func DayMood(total int, c models.ClassCounts) (mood, summary string) {
	switch {
	case total == 0:
		return "quiet", "Quiet day with no significant planetary aspects."
	case c.Harmonic > c.Tense:
		return "harmonious", fmt.Sprintf("Harmonious day with %d aspects, mostly supportive energy.", total)
	case c.Tense > c.Harmonic:
		return "challenging", fmt.Sprintf("Challenging day with %d aspects; patience pays off.", total)
	default:
		return "balanced", fmt.Sprintf("Balanced day with %d aspects of mixed energy.", total)
	}
}

// SynastrySummary describes a score band plus the class balance.
func SynastrySummary(matches []models.AspectMatch, score float64) string {
	if len(matches) == 0 {
		return "No significant aspects were found between the charts."
	}

	var parts []string
	switch {
	case score >= 80:
		parts = append(parts, "This is a highly compatible pairing.")
	case score >= 65:
		parts = append(parts, "This is a very promising pairing.")
	case score >= 50:
		parts = append(parts, "This pairing has potential with some work.")
	case score >= 35:
		parts = append(parts, "This pairing faces significant challenges.")
	default:
		parts = append(parts, "This pairing calls for a lot of work and understanding.")
	}

	c := models.CountClasses(matches)
	total := len(matches)
	switch {
	case c.Harmonic > c.Tense:
		parts = append(parts, fmt.Sprintf("With %d of %d aspects harmonic, the overall energy is mutually supportive.", c.Harmonic, total))
	case c.Tense > c.Harmonic:
		parts = append(parts, fmt.Sprintf("With %d of %d aspects tense, there are challenges that can drive growth.", c.Tense, total))
	default:
		parts = append(parts, fmt.Sprintf("With %d harmonic and %d tense aspects out of %d, the relationship has varied dynamics.", c.Harmonic, c.Tense, total))
	}
	if c.Neutral > 0 {
		parts = append(parts, fmt.Sprintf("The %d neutral aspects add further layers to the interaction.", c.Neutral))
	}
	return strings.Join(parts, " ")
}

func (uc *ChartsUseCase) observe(op string, start time.Time) {
	uc.metrics.RecordLatency(op, time.Since(start).Seconds())
}

func nonNilMatches(m []models.AspectMatch) []models.AspectMatch {
	if m == nil {
		return []models.AspectMatch{}
	}
	return m
}
