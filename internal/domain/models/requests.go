package models

// Request bodies for the chart endpoints. Defined in domain for reuse by use-cases.

// SubjectRequest describes a person or event: a local wall-clock time plus
// either a city name or explicit coordinates with an IANA timezone.
type SubjectRequest struct {
	Name         string   `json:"name"`
	Year         int      `json:"year" validate:"gte=1,lte=9999"`
	Month        int      `json:"month" validate:"gte=1,lte=12"`
	Day          int      `json:"day" validate:"gte=1,lte=31"`
	Hour         int      `json:"hour" validate:"gte=0,lte=23"`
	Minute       int      `json:"minute" validate:"gte=0,lte=59"`
	City         string   `json:"city"`
	Latitude     *float64 `json:"latitude" validate:"omitempty,gte=-90,lte=90"`
	Longitude    *float64 `json:"longitude" validate:"omitempty,gte=-180,lte=180"`
	TZ           string   `json:"tz_str"`
	HouseSystem  string   `json:"house_system" default:"placidus" validate:"oneof=placidus koch regiomontanus campanus equal whole_sign"`
	ZodiacType   string   `json:"zodiac_type" default:"Tropic" validate:"oneof=Tropic Sidereal"`
	SiderealMode string   `json:"sidereal_mode"`
	Perspective  string   `json:"perspective_type" default:"Apparent Geocentric" validate:"oneof='Apparent Geocentric' 'True Geocentric' Heliocentric Topocentric"`
}

// CalcMode extracts the provider calculation settings.
func (r SubjectRequest) CalcMode() CalcMode {
	return CalcMode{
		HouseSystem:  r.HouseSystem,
		ZodiacType:   r.ZodiacType,
		SiderealMode: r.SiderealMode,
		Perspective:  r.Perspective,
	}
}

type NatalChartRequest struct {
	SubjectRequest
	OrbMultiplier float64 `json:"orb_multiplier" default:"1" validate:"gt=0,lte=3"`
}

type SynastryRequest struct {
	Person1       SubjectRequest `json:"person1"`
	Person2       SubjectRequest `json:"person2"`
	OrbMultiplier float64        `json:"orb_multiplier" default:"1" validate:"gt=0,lte=3"`
}

type CompositeChartRequest struct {
	Person1 SubjectRequest `json:"person1_natal_data"`
	Person2 SubjectRequest `json:"person2_natal_data"`
}

type TransitRangeRequest struct {
	NatalData         SubjectRequest `json:"natal_data"`
	StartDate         string         `json:"start_date" validate:"required"`
	EndDate           string         `json:"end_date" validate:"required"`
	TransitingPlanets []string       `json:"transiting_planets"`
	NatalPoints       []string       `json:"natal_points"`
	AspectTypes       []string       `json:"aspect_types"`
	Step              string         `json:"step" default:"exact"`
	OrbMultiplier     float64        `json:"orb_multiplier" validate:"gte=0,lte=3"`
	OrderByOrb        bool           `json:"order_by_orb"`
}

type SolarReturnRequest struct {
	SubjectRequest
	ReturnYear int `json:"return_year" validate:"gte=1,lte=9999"`
}

type LunarReturnRequest struct {
	NatalData       SubjectRequest `json:"natal_data"`
	SearchStartDate string         `json:"search_start_date" validate:"required"`
}

type DailyTransitsRequest struct {
	Year  int `json:"year" validate:"gte=1,lte=9999"`
	Month int `json:"month" validate:"gte=1,lte=12"`
	Day   int `json:"day" validate:"gte=1,lte=31"`
}

type GeoResolveRequest struct {
	Place string `query:"place" validate:"required,max=200"`
	Date  string `query:"date"`
}
