package models

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindOfThroughWrapping(t *testing.T) {
	base := InvalidInput("start_date", "invalid date %q", "2025-13-01")
	wrapped := fmt.Errorf("scan: %w", base)

	assert.Equal(t, KindInvalid, KindOf(wrapped))
	assert.True(t, IsCallerError(wrapped))
	assert.Equal(t, `invalid date "2025-13-01"`, base.Error())
}

func TestProviderFailureKeepsCause(t *testing.T) {
	cause := errors.New("ephemeris timeout")
	err := ProviderFailure("positions at 2025-01-03", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, KindProvider, KindOf(err))
	assert.False(t, IsCallerError(err))
	assert.Contains(t, err.Error(), "2025-01-03")
}

func TestLocationNotFoundIsCallerError(t *testing.T) {
	assert.True(t, IsCallerError(LocationNotFound("Atlantis")))
	assert.Equal(t, KindUnavailable, KindOf(ServiceUnavailable("nominatim", errors.New("x"))))
	assert.Equal(t, ErrorKind(""), KindOf(errors.New("plain")))
}

func TestGranularity(t *testing.T) {
	n, ok := GranularityMonth.StepDays()
	assert.True(t, ok)
	assert.Equal(t, 30, n)
	_, ok = GranularityExact.StepDays()
	assert.False(t, ok)
	assert.True(t, GranularityExact.Valid())
	assert.False(t, Granularity("hour").Valid())
}

func TestBodyOrdering(t *testing.T) {
	bodies := []Body{"Vertex", Ascendant, Moon, "Ceres", Sun}
	SortBodies(bodies)
	assert.Equal(t, []Body{Sun, Moon, Ascendant, "Ceres", "Vertex"}, bodies)
}

func TestAspectMatchJSONRounds(t *testing.T) {
	m := AspectMatch{
		BodyA:      Sun,
		BodyB:      Moon,
		Definition: AspectDefinition{Angle: 120, Name: "trine", Orb: 8, Class: Harmonic, Major: true},
		Orb:        1.23456,
		Strength:   84.6,
	}
	b, err := m.MarshalJSON()
	assert.NoError(t, err)
	assert.JSONEq(t, `{"planet1":"Sun","planet2":"Moon","aspect":"trine","angle":120,"class":"harmonic","orb":1.23,"strength":84.6,"applying":false}`, string(b))
}

func TestRoundHalfAwayFromZero(t *testing.T) {
	assert.Equal(t, 2.5, RoundFloat(2.45, 1))
	assert.Equal(t, 0.13, RoundFloat(0.125, 2))
}

func TestParseBody(t *testing.T) {
	b, err := ParseBody("mean node")
	require.NoError(t, err)
	assert.Equal(t, MeanNode, b)

	b, err = ParseBody(" SUN ")
	require.NoError(t, err)
	assert.Equal(t, Sun, b)

	_, err = ParseBody("Vulcan")
	assert.Error(t, err)

	bodies, err := ParseBodies([]string{"moon", "Medium-Coeli"})
	require.NoError(t, err)
	assert.Equal(t, []Body{Moon, MediumCoeli}, bodies)

	bodies, err = ParseBodies(nil)
	require.NoError(t, err)
	assert.Nil(t, bodies)
}

func TestPrefixFieldFollowsWrapping(t *testing.T) {
	wrapped := fmt.Errorf("resolve: %w", LocationNotFound("Atlantis"))

	err := PrefixField("person2", wrapped)
	var e *Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, "person2.city", e.Field)
	assert.Equal(t, KindNotFound, e.Kind)

	plain := ProviderFailure("chart", errors.New("boom"))
	assert.Same(t, plain, PrefixField("natal_data", plain))
	assert.Equal(t, wrapped, PrefixField("", wrapped))
}
