package geo

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Bessaq/AstroManusJules/internal/domain/models"
	xhttp "github.com/Bessaq/AstroManusJules/pkg/http"
)

// errBadPayload marks a well-formed reply that cannot be used. Asking again
// returns the same answer, so it is never retried.
var errBadPayload = errors.New("unusable response")

// NominatimClient geocodes place names with the OpenStreetMap search API.
type NominatimClient struct {
	baseURL string
	client  *xhttp.Client
}

func NewNominatimClient(baseURL, userAgent string, timeout time.Duration) *NominatimClient {
	return &NominatimClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  xhttp.NewClient(xhttp.WithTimeout(timeout), xhttp.WithUserAgent(userAgent)),
	}
}

type nominatimPlace struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// Geocode returns (nil, nil) when the search has no results.
func (n *NominatimClient) Geocode(ctx context.Context, place string) (*models.GeocodeResult, error) {
	var places []nominatimPlace
	err := n.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    n.baseURL + "/search",
		QueryParams: map[string][]string{
			"q":      {place},
			"format": {"json"},
			"limit":  {"1"},
		},
	}, &places)
	if err != nil {
		return nil, fmt.Errorf("nominatim search: %w", err)
	}
	if len(places) == 0 {
		return nil, nil
	}

	lat, err := strconv.ParseFloat(places[0].Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("nominatim latitude %q: %w", places[0].Lat, errors.Join(errBadPayload, err))
	}
	lng, err := strconv.ParseFloat(places[0].Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("nominatim longitude %q: %w", places[0].Lon, errors.Join(errBadPayload, err))
	}
	return &models.GeocodeResult{Latitude: lat, Longitude: lng, Address: places[0].DisplayName}, nil
}

// TimezoneClient maps coordinates to an IANA zone using a timeapi.io style
// endpoint: GET ?latitude=&longitude= returning {"timeZone": "..."}.
type TimezoneClient struct {
	url    string
	client *xhttp.Client
}

func NewTimezoneClient(url, userAgent string, timeout time.Duration) *TimezoneClient {
	return &TimezoneClient{
		url:    url,
		client: xhttp.NewClient(xhttp.WithTimeout(timeout), xhttp.WithUserAgent(userAgent)),
	}
}

func (tc *TimezoneClient) TimezoneAt(ctx context.Context, lat, lng float64) (string, error) {
	var resp struct {
		TimeZone string `json:"timeZone"`
	}
	err := tc.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    tc.url,
		QueryParams: map[string][]string{
			"latitude":  {formatCoord(lat)},
			"longitude": {formatCoord(lng)},
		},
	}, &resp)
	if err != nil {
		return "", fmt.Errorf("timezone lookup: %w", err)
	}
	if resp.TimeZone == "" {
		return "", fmt.Errorf("timezone lookup: empty zone for %s,%s: %w", formatCoord(lat), formatCoord(lng), errBadPayload)
	}
	return resp.TimeZone, nil
}

// ElevationClient queries an Open-Elevation compatible lookup endpoint.
type ElevationClient struct {
	url    string
	client *xhttp.Client
}

func NewElevationClient(url, userAgent string, timeout time.Duration) *ElevationClient {
	return &ElevationClient{
		url:    url,
		client: xhttp.NewClient(xhttp.WithTimeout(timeout), xhttp.WithUserAgent(userAgent)),
	}
}

func (ec *ElevationClient) ElevationAt(ctx context.Context, lat, lng float64) (float64, error) {
	var resp struct {
		Results []struct {
			Elevation *float64 `json:"elevation"`
		} `json:"results"`
	}
	err := ec.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    ec.url,
		QueryParams: map[string][]string{
			"locations": {formatCoord(lat) + "," + formatCoord(lng)},
		},
	}, &resp)
	if err != nil {
		return 0, fmt.Errorf("elevation lookup: %w", err)
	}
	if len(resp.Results) == 0 || resp.Results[0].Elevation == nil {
		return 0, fmt.Errorf("elevation lookup: no result for %s,%s: %w", formatCoord(lat), formatCoord(lng), errBadPayload)
	}
	return *resp.Results[0].Elevation, nil
}

func formatCoord(v float64) string { return strconv.FormatFloat(v, 'f', 6, 64) }
