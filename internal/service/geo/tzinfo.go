package geo

import (
	"time"

	"github.com/Bessaq/AstroManusJules/internal/domain/models"
	"github.com/Bessaq/AstroManusJules/pkg/util"
)

// DateInfo evaluates tz on one calendar date. Offsets are taken at 12:00
// local so a date with a DST switch reports the offset in force for most
// of the day. The standard offset is the smaller of the January and July
// offsets, which holds in both hemispheres.
func DateInfo(tz string, date time.Time) (models.TimezoneInfo, error) {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return models.TimezoneInfo{}, models.InvalidInput("tz_str", "unknown timezone %q", tz)
	}

	noon := util.NoonIn(date, loc)
	_, offset := noon.Zone()
	_, jan := time.Date(date.Year(), time.January, 1, 12, 0, 0, 0, loc).Zone()
	_, jul := time.Date(date.Year(), time.July, 1, 12, 0, 0, 0, loc).Zone()
	std := min(jan, jul)

	return models.TimezoneInfo{
		Timezone:       tz,
		UTCOffset:      hours(offset),
		DSTOffset:      hours(offset - std),
		IsDST:          noon.IsDST(),
		StandardOffset: hours(std),
		DateChecked:    util.FormatDate(date),
	}, nil
}

func hours(seconds int) float64 { return float64(seconds) / 3600 }
