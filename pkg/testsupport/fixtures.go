package testsupport

import (
	_ "embed"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/Solideomyers/guests-app/internal/domain"
)

//go:embed testdata/guests.json
var guestsJSON []byte

// LoadFixture loads test data from a fixture file.
// The path is relative to the test package directory.
func LoadFixture(t *testing.T, path string) []byte {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to load fixture from %s: %v", path, err)
	}

	return data
}

// LoadFixtureJSON loads JSON test data from a fixture file and unmarshals it.
func LoadFixtureJSON(t *testing.T, path string, dest any) {
	t.Helper()

	data := LoadFixture(t, path)
	if err := json.Unmarshal(data, dest); err != nil {
		t.Fatalf("failed to unmarshal JSON fixture from %s: %v", path, err)
	}
}

// FixturePath constructs a path to a fixture file relative to the testdata directory.
func FixturePath(filename string) string {
	return filepath.Join("testdata", filename)
}

// Guests returns the shared guest fixture set. Each call returns a fresh copy.
//
// "ali" matches Alice and Alina by first name and Beatriz only through her
// address, which makes it useful for search precedence checks.
func Guests(t *testing.T) []domain.Guest {
	t.Helper()

	var guests []domain.Guest
	if err := json.Unmarshal(guestsJSON, &guests); err != nil {
		t.Fatalf("failed to unmarshal guest fixtures: %v", err)
	}
	return guests
}

// Clock is a manually advanced time source.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock starts a clock at a fixed instant.
func NewClock() *Clock {
	return &Clock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

// Now returns the current instant and advances by one second so every
// timestamp handed out is distinct.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now
	c.now = c.now.Add(time.Second)
	return now
}
