package models

// GeocodeResult is a resolved place name.
type GeocodeResult struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Address   string  `json:"address"`
}

// TimezoneInfo holds offsets valid for one calendar date. Offsets are hours.
type TimezoneInfo struct {
	Timezone       string  `json:"timezone"`
	UTCOffset      float64 `json:"utc_offset"`
	DSTOffset      float64 `json:"dst_offset"`
	IsDST          bool    `json:"is_dst"`
	StandardOffset float64 `json:"standard_offset"`
	DateChecked    string  `json:"date_checked"`
}

// GeoResolution is the combined place resolution for a date.
type GeoResolution struct {
	Input        string       `json:"input"`
	Latitude     float64      `json:"latitude"`
	Longitude    float64      `json:"longitude"`
	Address      string       `json:"address,omitempty"`
	Timezone     string       `json:"timezone"`
	Elevation    *float64     `json:"elevation,omitempty"`
	TimezoneInfo TimezoneInfo `json:"timezone_info"`
}

// Location resolution methods.
const (
	LocationByCity        = "city"
	LocationByCoordinates = "coordinates"
)

// LocationInfo records how a chart's location was obtained.
type LocationInfo struct {
	Method       string        `json:"method"`
	InputCity    string        `json:"input_city,omitempty"`
	InputLat     *float64      `json:"input_latitude,omitempty"`
	InputLng     *float64      `json:"input_longitude,omitempty"`
	InputTZ      string        `json:"input_tz,omitempty"`
	Latitude     float64       `json:"latitude"`
	Longitude    float64       `json:"longitude"`
	Timezone     string        `json:"timezone"`
	Address      string        `json:"address,omitempty"`
	TimezoneInfo *TimezoneInfo `json:"timezone_info,omitempty"`
}
