package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Bessaq/AstroManusJules/internal/domain/models"
	domrepo "github.com/Bessaq/AstroManusJules/internal/domain/repository"
	domsvc "github.com/Bessaq/AstroManusJules/internal/domain/service"
	"github.com/Bessaq/AstroManusJules/internal/services/aspects"
	"github.com/Bessaq/AstroManusJules/pkg/logger"
	"github.com/Bessaq/AstroManusJules/pkg/util"
)

// snapshotClock is the time-of-day stamped on periodic events.
const snapshotClock = "12:00:00"

// TransitScanner enumerates transit-to-natal aspects over a date range.
type TransitScanner struct {
	provider     domsvc.PositionProvider
	publisher    domrepo.EventPublisher
	metrics      domrepo.Metrics
	log          *logger.Logger
	workers      int
	maxRangeDays int
	newID        func() string
}

// NewTransitScanner creates a scanner. publisher may be nil.
func NewTransitScanner(
	provider domsvc.PositionProvider,
	publisher domrepo.EventPublisher,
	metrics domrepo.Metrics,
	log *logger.Logger,
	workers, maxRangeDays int,
) *TransitScanner {
	if workers < 1 {
		workers = 1
	}
	if metrics == nil {
		metrics = domrepo.NopMetrics{}
	}
	return &TransitScanner{
		provider:     provider,
		publisher:    publisher,
		metrics:      metrics,
		log:          log,
		workers:      workers,
		maxRangeDays: maxRangeDays,
		newID:        uuid.NewString,
	}
}

// ScanParams is a resolved transit range request.
type ScanParams struct {
	Natal         models.Instant
	Mode          models.CalcMode
	StartDate     string
	EndDate       string
	Transiting    []string
	Targets       []string
	AspectTypes   []string
	Step          string
	OrbMultiplier float64
	// OrderByOrb sorts same-date events by ascending orb instead of
	// descending strength.
	OrderByOrb bool
}

type scanPlan struct {
	mode       models.Granularity
	start, end time.Time
	transiting []models.Body
	targets    []models.Body
	table      []models.AspectDefinition
}

// Scan validates p and runs an exact or periodic scan.
func (s *TransitScanner) Scan(ctx context.Context, p ScanParams) (*models.TransitScan, error) {
	started := time.Now()
	plan, err := s.plan(p)
	if err != nil {
		s.metrics.RecordError(string(models.KindOf(err)))
		return nil, err
	}

	var events []models.TransitEvent
	if plan.mode == models.GranularityExact {
		events, err = s.scanExact(ctx, p, plan)
	} else {
		events, err = s.scanPeriodic(ctx, p, plan)
	}
	if err != nil {
		s.metrics.RecordError(string(models.KindOf(err)))
		s.log.Error("transit scan failed",
			logger.String("mode", string(plan.mode)),
			logger.String("range", p.StartDate+" to "+p.EndDate),
			logger.Error(err),
		)
		return nil, err
	}
	sortEvents(events, p.OrderByOrb)

	scan := &models.TransitScan{
		Events: events,
		Summary: models.TransitSummary{
			ScanID:          s.newID(),
			CalculationMode: plan.mode,
			TotalEvents:     len(events),
			DateRange:       fmt.Sprintf("%s to %s", util.FormatDate(plan.start), util.FormatDate(plan.end)),
			FiltersApplied: models.TransitFilters{
				TransitingPlanets: nonNil(p.Transiting),
				NatalPoints:       nonNil(p.Targets),
				AspectTypes:       nonNil(p.AspectTypes),
			},
		},
	}

	elapsed := time.Since(started)
	s.metrics.RecordScanEvents(string(plan.mode), len(events))
	s.metrics.RecordLatency("transit_scan", elapsed.Seconds())
	s.log.Info("transit scan completed",
		logger.String("scan_id", scan.Summary.ScanID),
		logger.String("mode", string(plan.mode)),
		logger.String("range", scan.Summary.DateRange),
		logger.Int("events", len(events)),
		logger.Duration("duration_ms", elapsed),
	)

	if s.publisher != nil {
		if err := s.publisher.PublishScan(ctx, scan); err != nil {
			s.log.Warn("publish transit scan failed",
				logger.String("scan_id", scan.Summary.ScanID),
				logger.Error(err),
			)
		}
	}
	return scan, nil
}

// Validate checks the caller-supplied part of p (step, dates, body and
// aspect filters) without touching the provider.
func (s *TransitScanner) Validate(p ScanParams) error {
	if _, err := s.plan(p); err != nil {
		s.metrics.RecordError(string(models.KindOf(err)))
		return err
	}
	return nil
}

func (s *TransitScanner) plan(p ScanParams) (scanPlan, error) {
	var plan scanPlan

	plan.mode = models.Granularity(strings.ToLower(strings.TrimSpace(p.Step)))
	if plan.mode == "" {
		plan.mode = models.GranularityExact
	}
	if !plan.mode.Valid() {
		return plan, models.InvalidInput("step", "step must be one of exact, day, week, month; got %q", p.Step)
	}

	var err error
	if plan.start, err = util.ParseDate(p.StartDate); err != nil {
		return plan, models.InvalidInput("start_date", "%v", err)
	}
	if plan.end, err = util.ParseDate(p.EndDate); err != nil {
		return plan, models.InvalidInput("end_date", "%v", err)
	}
	if plan.end.Before(plan.start) {
		return plan, models.InvalidInput("end_date", "end_date must not be before start_date")
	}
	if days := int(plan.end.Sub(plan.start).Hours() / 24); s.maxRangeDays > 0 && days > s.maxRangeDays {
		return plan, models.InvalidInput("end_date", "range of %d days exceeds the maximum of %d", days, s.maxRangeDays)
	}

	if plan.transiting, err = models.ParseBodies(p.Transiting); err != nil {
		return plan, models.InvalidInput("transiting_planets", "%v", err)
	}
	if plan.targets, err = models.ParseBodies(p.Targets); err != nil {
		return plan, models.InvalidInput("natal_points", "%v", err)
	}
	if plan.table, err = aspects.Select(p.AspectTypes); err != nil {
		return plan, models.InvalidInput("aspect_types", "%v", err)
	}
	return plan, nil
}

func (s *TransitScanner) scanExact(ctx context.Context, p ScanParams, plan scanPlan) ([]models.TransitEvent, error) {
	names := make([]string, 0, len(plan.table))
	if len(p.AspectTypes) > 0 {
		for _, d := range plan.table {
			names = append(names, d.Name)
		}
	}

	raw, err := s.provider.TransitEvents(ctx, models.TransitQuery{
		Natal:      p.Natal,
		Mode:       p.Mode,
		Start:      plan.start,
		End:        plan.end,
		Transiting: plan.transiting,
		Targets:    plan.targets,
		Aspects:    names,
	})
	if err != nil {
		return nil, models.ProviderFailure(fmt.Sprintf("transit events %s to %s", p.StartDate, p.EndDate), err)
	}

	events := make([]models.TransitEvent, 0, len(raw))
	for i, rec := range raw {
		ev, err := NormalizeEvent(rec)
		if err != nil {
			return nil, models.ProviderFailure(fmt.Sprintf("transit event %d", i), err)
		}
		events = append(events, ev)
	}
	return events, nil
}

// StepDates lists every step date in [start, end], inclusive of both ends.
func StepDates(start, end time.Time, stepDays int) []time.Time {
	var dates []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, stepDays) {
		dates = append(dates, d)
	}
	return dates
}

// scanPeriodic snapshots the sky at noon local time on every step date.
// Steps run concurrently; each writes its own slot so the result order does
// not depend on scheduling.
func (s *TransitScanner) scanPeriodic(ctx context.Context, p ScanParams, plan scanPlan) ([]models.TransitEvent, error) {
	natal, err := s.provider.Chart(ctx, p.Natal, p.Mode)
	if err != nil {
		return nil, models.ProviderFailure("natal chart", err)
	}

	step, _ := plan.mode.StepDays()
	dates := StepDates(plan.start, plan.end, step)
	slots := make([][]models.TransitEvent, len(dates))
	loc := p.Natal.Local.Location()
	opts := aspects.Options{
		Table:         plan.table,
		BodiesA:       plan.transiting,
		BodiesB:       plan.targets,
		OrbMultiplier: p.OrbMultiplier,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, date := range dates {
		g.Go(func() error {
			at := models.Instant{
				Local:     util.NoonIn(date, loc),
				Latitude:  p.Natal.Latitude,
				Longitude: p.Natal.Longitude,
			}
			snap, err := s.provider.Chart(gctx, at, p.Mode)
			if err != nil {
				return models.ProviderFailure("transit snapshot "+util.FormatDate(date), err)
			}
			slots[i] = snapshotEvents(util.FormatDate(date), aspects.Between(snap.Positions, natal.Positions, opts))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var events []models.TransitEvent
	for _, slot := range slots {
		events = append(events, slot...)
	}
	return events, nil
}

func snapshotEvents(date string, matches []models.AspectMatch) []models.TransitEvent {
	events := make([]models.TransitEvent, 0, len(matches))
	for _, m := range matches {
		applying := m.Applying
		events = append(events, models.TransitEvent{
			Date:           date,
			Time:           snapshotClock,
			TransitingBody: m.BodyA,
			Aspect:         m.Definition.Name,
			Target:         m.BodyB,
			Orb:            models.RoundFloat(m.Orb, 2),
			Applying:       &applying,
			Duration:       aspects.EstimateDuration(m.Definition.Name, m.BodyA, m.BodyB),
		})
	}
	return events
}

// sortEvents orders by date then time. Ties keep their order unless
// byOrb is set, in which case tighter orbs come first.
func sortEvents(events []models.TransitEvent, byOrb bool) {
	sort.SliceStable(events, func(i, j int) bool {
		a, b := events[i], events[j]
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		if byOrb && a.Orb != b.Orb {
			return a.Orb < b.Orb
		}
		return a.Time < b.Time
	})
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
