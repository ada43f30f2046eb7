package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePosition(t *testing.T) {
	c, err := ParsePosition([]byte(`{"lat":48.85,"lng":2.35}`))
	require.NoError(t, err)
	assert.Equal(t, &Coordinate{Longitude: 2.35, Latitude: 48.85}, c)
}

func TestParsePosition_Unavailable(t *testing.T) {
	for _, raw := range []string{"", "null", "  null\n"} {
		c, err := ParsePosition([]byte(raw))
		assert.NoError(t, err, raw)
		assert.Nil(t, c, raw)
	}
}

func TestParsePosition_Invalid(t *testing.T) {
	for _, raw := range []string{
		`{"lat":48.85}`,
		`{"lat":91,"lng":0}`,
		`{"lat":0,"lng":-181}`,
		`[1,2]`,
		`{bad json`,
	} {
		_, err := ParsePosition([]byte(raw))
		assert.ErrorIs(t, err, ErrInvalidPosition, raw)
	}
}
