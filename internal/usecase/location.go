package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/Bessaq/AstroManusJules/internal/domain/models"
	"github.com/Bessaq/AstroManusJules/internal/service/geo"
	"github.com/Bessaq/AstroManusJules/pkg/logger"
)

// PlaceResolver is the part of the geo service location resolution needs.
type PlaceResolver interface {
	Resolve(ctx context.Context, place string, date time.Time) (*models.GeoResolution, error)
}

// LocationUseCase turns a subject request into an instant at a place.
type LocationUseCase struct {
	places PlaceResolver
	log    *logger.Logger
}

func NewLocationUseCase(places PlaceResolver, log *logger.Logger) *LocationUseCase {
	return &LocationUseCase{places: places, log: log}
}

// ResolveSubject accepts either a city, or latitude + longitude + tz_str.
// The timezone info in the returned record is evaluated on the subject's
// own calendar date.
func (uc *LocationUseCase) ResolveSubject(ctx context.Context, req models.SubjectRequest) (models.Instant, *models.LocationInfo, error) {
	date, err := subjectDate(req)
	if err != nil {
		return models.Instant{}, nil, err
	}

	city := strings.TrimSpace(req.City)
	switch {
	case city != "":
		res, err := uc.places.Resolve(ctx, city, date)
		if err != nil {
			return models.Instant{}, nil, err
		}
		loc, err := time.LoadLocation(res.Timezone)
		if err != nil {
			return models.Instant{}, nil, models.ProviderFailure("resolve "+city, err)
		}
		uc.log.Debug("subject location resolved",
			logger.String("city", city),
			logger.String("timezone", res.Timezone),
		)
		info := res.TimezoneInfo
		return subjectInstant(req, loc, res.Latitude, res.Longitude), &models.LocationInfo{
			Method:       models.LocationByCity,
			InputCity:    city,
			Latitude:     res.Latitude,
			Longitude:    res.Longitude,
			Timezone:     res.Timezone,
			Address:      res.Address,
			TimezoneInfo: &info,
		}, nil

	case req.Latitude != nil && req.Longitude != nil && strings.TrimSpace(req.TZ) != "":
		lat, lng, tz := *req.Latitude, *req.Longitude, strings.TrimSpace(req.TZ)
		if err := geo.ValidateCoordinates(lat, lng); err != nil {
			return models.Instant{}, nil, err
		}
		info, err := geo.DateInfo(tz, date)
		if err != nil {
			return models.Instant{}, nil, err
		}
		loc, _ := time.LoadLocation(tz)
		return subjectInstant(req, loc, lat, lng), &models.LocationInfo{
			Method:       models.LocationByCoordinates,
			InputLat:     req.Latitude,
			InputLng:     req.Longitude,
			InputTZ:      tz,
			Latitude:     lat,
			Longitude:    lng,
			Timezone:     tz,
			TimezoneInfo: &info,
		}, nil
	}

	return models.Instant{}, nil, models.InvalidInput("city",
		"either city or latitude, longitude and tz_str must be provided")
}

// subjectDate rejects dates that time.Date would silently normalise,
// such as February 30.
func subjectDate(req models.SubjectRequest) (time.Time, error) {
	d := time.Date(req.Year, time.Month(req.Month), req.Day, 0, 0, 0, 0, time.UTC)
	if d.Year() != req.Year || int(d.Month()) != req.Month || d.Day() != req.Day {
		return time.Time{}, models.InvalidInput("day", "%04d-%02d-%02d is not a valid date", req.Year, req.Month, req.Day)
	}
	return d, nil
}

func subjectInstant(req models.SubjectRequest, loc *time.Location, lat, lng float64) models.Instant {
	return models.Instant{
		Local:     time.Date(req.Year, time.Month(req.Month), req.Day, req.Hour, req.Minute, 0, 0, loc),
		Latitude:  lat,
		Longitude: lng,
	}
}
