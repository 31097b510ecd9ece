package usecase

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Bessaq/AstroManusJules/internal/domain/models"
	"github.com/Bessaq/AstroManusJules/internal/services/aspects"
	"github.com/Bessaq/AstroManusJules/pkg/util"
)

// Accepted field names per logical event field, tried in order. The
// ephemeris has renamed these across versions.
var (
	timestampKeys = []string{"datetime", "timestamp", "event_datetime"}
	dateKeys      = []string{"date", "event_date"}
	timeKeys      = []string{"time", "event_time"}
	transitKeys   = []string{"transiting_planet", "transiting_planet_name", "p1_name"}
	targetKeys    = []string{"target_planet", "target_planet_name", "natal_point", "p2_name"}
	aspectKeys    = []string{"aspect_type", "aspect_name", "aspect"}
	orbKeys       = []string{"orb", "orbit"}
	applyingKeys  = []string{"is_applying", "applying"}
	stateKeys     = []string{"is_applying_str", "state", "aspect_state"}
	durationKeys  = []string{"estimated_duration", "duration"}
)

// Provider clocks may drop the leading zero or the seconds.
var clockLayouts = []string{util.ClockLayout, "15:04"}

const unknownName = "Unknown"

// NormalizeEvent maps one raw provider record onto a TransitEvent. A record
// without any usable date is rejected; missing names become "Unknown",
// a missing orb is 0 and a missing applying state stays unset.
func NormalizeEvent(rec map[string]any) (models.TransitEvent, error) {
	var ev models.TransitEvent

	if ts, ok := firstTime(rec, timestampKeys); ok {
		ev.Date = util.FormatDate(ts)
		ev.Time = ts.Format(util.ClockLayout)
	} else {
		raw, ok := firstString(rec, dateKeys)
		if !ok {
			return ev, fmt.Errorf("event has no date (keys %v)", keysOf(rec))
		}
		d, err := util.ParseDate(raw)
		if err != nil {
			ts, ok := util.ParseTime(raw)
			if !ok {
				return ev, fmt.Errorf("event date: %w", err)
			}
			d = ts
		}
		ev.Date = util.FormatDate(d)
		if clock, ok := firstString(rec, timeKeys); ok {
			ev.Time = normalizeClock(clock)
		}
	}

	ev.TransitingBody = bodyOrUnknown(rec, transitKeys)
	ev.Target = bodyOrUnknown(rec, targetKeys)

	ev.Aspect = unknownName
	if name, ok := firstString(rec, aspectKeys); ok {
		ev.Aspect = aspects.CanonicalName(name)
	}

	if orb, ok := firstNumber(rec, orbKeys); ok {
		ev.Orb = models.RoundFloat(math.Abs(orb), 2)
	}

	if applying, ok := firstBool(rec, applyingKeys); ok {
		ev.Applying = &applying
	} else if state, ok := firstString(rec, stateKeys); ok {
		applying := strings.EqualFold(state, "applying")
		ev.Applying = &applying
	}

	if d, ok := firstString(rec, durationKeys); ok {
		ev.Duration = d
	} else if ev.TransitingBody != unknownName && ev.Target != unknownName && ev.Aspect != unknownName {
		ev.Duration = aspects.EstimateDuration(ev.Aspect, ev.TransitingBody, ev.Target)
	}
	return ev, nil
}

// normalizeClock rewrites a clock as HH:MM:SS so events sort by string.
// Unrecognized clocks are kept as given.
func normalizeClock(raw string) string {
	for _, layout := range clockLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format(util.ClockLayout)
		}
	}
	return raw
}

func bodyOrUnknown(rec map[string]any, keys []string) models.Body {
	name, ok := firstString(rec, keys)
	if !ok {
		return unknownName
	}
	if b, err := models.ParseBody(name); err == nil {
		return b
	}
	return models.Body(name)
}

func firstString(rec map[string]any, keys []string) (string, bool) {
	for _, k := range keys {
		if v, ok := rec[k].(string); ok {
			if s := strings.TrimSpace(v); s != "" {
				return s, true
			}
		}
	}
	return "", false
}

func firstNumber(rec map[string]any, keys []string) (float64, bool) {
	for _, k := range keys {
		switch v := rec[k].(type) {
		case float64:
			return v, true
		case int:
			return float64(v), true
		case int64:
			return float64(v), true
		case string:
			if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
				return f, true
			}
		}
	}
	return 0, false
}

func firstBool(rec map[string]any, keys []string) (bool, bool) {
	for _, k := range keys {
		switch v := rec[k].(type) {
		case bool:
			return v, true
		case string:
			if b, err := strconv.ParseBool(v); err == nil {
				return b, true
			}
		}
	}
	return false, false
}

// firstTime accepts RFC3339-ish strings, unix seconds and time.Time values.
func firstTime(rec map[string]any, keys []string) (time.Time, bool) {
	for _, k := range keys {
		switch v := rec[k].(type) {
		case time.Time:
			return v, true
		case string:
			if t, ok := util.ParseTime(strings.TrimSpace(v)); ok {
				return t, true
			}
		case float64:
			if v > 0 {
				return time.Unix(int64(v), 0).UTC(), true
			}
		}
	}
	return time.Time{}, false
}

func keysOf(rec map[string]any) []string {
	out := make([]string, 0, len(rec))
	for k := range rec {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
