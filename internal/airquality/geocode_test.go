package airquality

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveKnownPlaceNeedsNoKey(t *testing.T) {
	r := NewResolver("")

	coords, err := r.Resolve("Delhi")
	require.NoError(t, err)
	assert.Equal(t, Coordinates{Lat: 28.6139, Lon: 77.2090}, coords)

	// Lookup is case- and whitespace-insensitive.
	coords, err = r.Resolve("  new delhi ")
	require.NoError(t, err)
	assert.Equal(t, 28.6139, coords.Lat)
}

func TestResolveUnknownPlaceWithoutKeyIsNotConfigured(t *testing.T) {
	r := NewResolver("")

	_, err := r.Resolve("Mumbai")
	assert.ErrorIs(t, err, ErrNotConfigured)
}
