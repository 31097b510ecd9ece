package ephemeris

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Bessaq/AstroManusJules/internal/domain/models"
	"github.com/Bessaq/AstroManusJules/internal/services/aspects"
	"github.com/Bessaq/AstroManusJules/pkg/config"
	xhttp "github.com/Bessaq/AstroManusJules/pkg/http"
	"github.com/Bessaq/AstroManusJules/pkg/logger"
)

const (
	chartPath   = "/v1/chart"
	eventsPath  = "/v1/transits/events"
	returnsPath = "/v1/returns"
)

// Client talks to the ephemeris service over JSON/HTTP and implements
// service.PositionProvider.
type Client struct {
	baseURL  string
	client   *xhttp.Client
	attempts int
	backoff  time.Duration
	log      *logger.Logger
}

// NewClient builds a client from the ephemeris config section.
func NewClient(cfg *config.Config, log *logger.Logger) *Client {
	timeout := cfg.Ephemeris.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:  strings.TrimRight(cfg.Ephemeris.BaseURL, "/"),
		client:   xhttp.NewClient(xhttp.WithTimeout(timeout)),
		attempts: max(1, cfg.Ephemeris.MaxRetries+1),
		backoff:  100 * time.Millisecond,
		log:      log,
	}
}

type subjectPayload struct {
	Year         int     `json:"year"`
	Month        int     `json:"month"`
	Day          int     `json:"day"`
	Hour         int     `json:"hour"`
	Minute       int     `json:"minute"`
	Second       int     `json:"second"`
	Latitude     float64 `json:"lat"`
	Longitude    float64 `json:"lng"`
	TZ           string  `json:"tz_str"`
	HouseSystem  string  `json:"house_system"`
	ZodiacType   string  `json:"zodiac_type"`
	SiderealMode string  `json:"sidereal_mode,omitempty"`
	Perspective  string  `json:"perspective_type"`
}

func newSubject(at models.Instant, mode models.CalcMode) subjectPayload {
	t := at.Local
	return subjectPayload{
		Year:         t.Year(),
		Month:        int(t.Month()),
		Day:          t.Day(),
		Hour:         t.Hour(),
		Minute:       t.Minute(),
		Second:       t.Second(),
		Latitude:     at.Latitude,
		Longitude:    at.Longitude,
		TZ:           at.TZ(),
		HouseSystem:  mode.HouseSystem,
		ZodiacType:   mode.ZodiacType,
		SiderealMode: mode.SiderealMode,
		Perspective:  mode.Perspective,
	}
}

type chartResponse struct {
	Planets map[string]models.CelestialPosition `json:"planets"`
	Houses  []models.HouseCusp                  `json:"houses"`
}

// Chart fetches positions for one instant.
func (c *Client) Chart(ctx context.Context, at models.Instant, mode models.CalcMode) (*models.Chart, error) {
	var resp chartResponse
	if err := c.postJSONWithRetry(ctx, chartPath, newSubject(at, mode), &resp); err != nil {
		return nil, err
	}
	if len(resp.Planets) == 0 {
		return nil, fmt.Errorf("ephemeris returned no positions")
	}

	set := make(models.PositionSet, len(resp.Planets))
	for key, p := range resp.Planets {
		p.Body = canonicalBody(string(p.Body), key)
		set[p.Body] = normalizePosition(p)
	}
	for i := range resp.Houses {
		resp.Houses[i].Sign = expandSign(resp.Houses[i].Sign)
	}
	return &models.Chart{Positions: set, Houses: resp.Houses}, nil
}

// canonicalBody resolves the record's name, then its map key. Points the
// enumeration does not know keep their raw name.
func canonicalBody(name, key string) models.Body {
	for _, n := range []string{name, key} {
		if b, err := models.ParseBody(n); err == nil {
			return b
		}
	}
	if name != "" {
		return models.Body(name)
	}
	return models.Body(key)
}

// normalizePosition fills derived fields the service may omit.
func normalizePosition(p models.CelestialPosition) models.CelestialPosition {
	p.Longitude = aspects.Normalize(p.Longitude)
	sign, num, deg := aspects.SignOf(p.Longitude)
	if p.Sign == "" {
		p.Sign = sign
	}
	p.Sign = expandSign(p.Sign)
	if p.SignNum == 0 {
		p.SignNum = num
	}
	if p.SignLongitude == 0 {
		p.SignLongitude = deg
	}
	p.PositionDMS = aspects.FormatDMS(p.SignLongitude)
	p.Retrograde = p.Retrograde || p.Speed < 0
	if p.Element == "" {
		p.Element = aspects.ElementOf(p.Sign)
	}
	if p.Quality == "" {
		p.Quality = aspects.ModalityOf(p.Sign)
	}
	return p
}

func expandSign(s string) string {
	if i, ok := aspects.SignIndex(s); ok {
		return aspects.Signs[i]
	}
	return s
}

type eventsRequest struct {
	Natal      subjectPayload `json:"natal"`
	StartDate  string         `json:"start_date"`
	EndDate    string         `json:"end_date"`
	Transiting []models.Body  `json:"transiting_planets,omitempty"`
	Targets    []models.Body  `json:"natal_points,omitempty"`
	Aspects    []string       `json:"aspect_types,omitempty"`
}

type eventsResponse struct {
	Events []map[string]any `json:"events"`
}

// TransitEvents asks the service's own event search for exact aspect times.
func (c *Client) TransitEvents(ctx context.Context, q models.TransitQuery) ([]map[string]any, error) {
	req := eventsRequest{
		Natal:      newSubject(q.Natal, q.Mode),
		StartDate:  q.Start.Format("2006-01-02"),
		EndDate:    q.End.Format("2006-01-02"),
		Transiting: q.Transiting,
		Targets:    q.Targets,
		Aspects:    q.Aspects,
	}
	var resp eventsResponse
	if err := c.postJSONWithRetry(ctx, eventsPath, req, &resp); err != nil {
		return nil, err
	}
	return resp.Events, nil
}

type returnRequest struct {
	Natal      subjectPayload `json:"natal"`
	Kind       string         `json:"kind"`
	SearchFrom string         `json:"search_from"`
}

type returnResponse struct {
	DatetimeUTC string `json:"datetime_utc"`
}

// ReturnMoment asks the service's return search for the exact moment the
// Sun or Moon comes back to its natal longitude.
func (c *Client) ReturnMoment(ctx context.Context, q models.ReturnQuery) (time.Time, error) {
	req := returnRequest{
		Natal:      newSubject(q.Natal, q.Mode),
		Kind:       string(q.Kind),
		SearchFrom: q.After.UTC().Format(time.RFC3339),
	}
	var resp returnResponse
	if err := c.postJSONWithRetry(ctx, returnsPath, req, &resp); err != nil {
		return time.Time{}, err
	}
	at, err := time.Parse(time.RFC3339, resp.DatetimeUTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("ephemeris return moment %q: %w", resp.DatetimeUTC, err)
	}
	return at.UTC(), nil
}

func (c *Client) postJSON(ctx context.Context, path string, payload, dest interface{}) error {
	if c.client == nil || c.baseURL == "" {
		return fmt.Errorf("ephemeris http client not initialized")
	}
	err := c.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodPost,
		URL:    c.baseURL + path,
		Headers: map[string]string{
			"Content-Type": "application/json",
		},
		Body: payload,
	}, dest)
	if err != nil {
		return fmt.Errorf("post %s: %w", path, err)
	}
	return nil
}

// postJSONWithRetry retries transient failures with linear backoff.
// 4xx responses are returned at once.
func (c *Client) postJSONWithRetry(ctx context.Context, path string, payload, dest interface{}) error {
	var err error
	for i := 1; i <= c.attempts; i++ {
		err = c.postJSON(ctx, path, payload, dest)
		if err == nil || !retryable(err) || i == c.attempts {
			return err
		}
		c.log.Warn("ephemeris request failed, retrying",
			logger.String("path", path),
			logger.Int("attempt", i),
			logger.Error(err),
		)
		select {
		case <-time.After(time.Duration(i) * c.backoff):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var se *xhttp.StatusError
	if errors.As(err, &se) {
		return se.Temporary()
	}
	return true
}
