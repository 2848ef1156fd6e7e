package routing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"citybites/internal/models"
)

func TestEncodePolyline_ReferenceVector(t *testing.T) {
	points := []models.Point{
		{Lat: 38.5, Lon: -120.2},
		{Lat: 40.7, Lon: -120.95},
		{Lat: 43.252, Lon: -126.453},
	}

	assert.Equal(t, "_p~iF~ps|U_ulLnnqC_mqNvxq`@", EncodePolyline(points))
}

func TestDecodePolyline_RoundTripWithinPrecision(t *testing.T) {
	points := []models.Point{
		{Lat: 48.856614, Lon: 2.3522219},
		{Lat: -33.868820, Lon: 151.209296},
		{Lat: 0.000004, Lon: -0.000004},
		{Lat: 89.999999, Lon: -179.999999},
	}

	decoded, err := DecodePolyline(EncodePolyline(points))
	require.NoError(t, err)
	require.Len(t, decoded, len(points))

	for i, p := range points {
		assert.InDelta(t, p.Lat, decoded[i].Lat, 2e-5)
		assert.InDelta(t, p.Lon, decoded[i].Lon, 2e-5)
	}
}

func TestEncodePolyline_Empty(t *testing.T) {
	assert.Equal(t, "", EncodePolyline(nil))

	decoded, err := DecodePolyline("")
	require.NoError(t, err)
	assert.Empty(t, decoded)
}

func TestDecodePolyline_Truncated(t *testing.T) {
	_, err := DecodePolyline("_p~iF~ps|U_")

	assert.Error(t, err)
}
