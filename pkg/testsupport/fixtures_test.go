package testsupport

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Solideomyers/guests-app/internal/domain"
)

func TestGuests_FreshCopies(t *testing.T) {
	first := Guests(t)
	require.Len(t, first, 5)
	assert.Equal(t, "Alice", first[0].FirstName)
	assert.Equal(t, domain.StatusConfirmed, first[0].Status)
	assert.True(t, first[1].IsPastor)

	first[0].FirstName = "mutated"
	assert.Equal(t, "Alice", Guests(t)[0].FirstName)
}

func TestLoadFixtureJSON(t *testing.T) {
	var guests []map[string]any
	LoadFixtureJSON(t, FixturePath("guests.json"), &guests)
	assert.Len(t, guests, 5)
	assert.Equal(t, filepath.Join("testdata", "guests.json"), FixturePath("guests.json"))
}

func TestClock_Advances(t *testing.T) {
	c := NewClock()
	a, b := c.Now(), c.Now()
	assert.True(t, b.After(a))
}
