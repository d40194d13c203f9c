package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBundled_SampleCatalog(t *testing.T) {
	offers, err := Bundled()
	require.NoError(t, err)
	require.Len(t, offers, 5)

	ids := make([]string, 0, len(offers))
	for i, o := range offers {
		ids = append(ids, o.ID)
		assert.True(t, o.Active)
		assert.Equal(t, i, o.DisplayOrder)
	}
	assert.Equal(t, []string{"chase", "ally", "discover", "bofa", "wellsfargo"}, ids)

	ally := offers[1]
	assert.Equal(t, "Ally Bank", ally.Name)
	assert.Equal(t, 4.5, ally.Rating)
	assert.Equal(t, 3.75, ally.InterestRates.Savings)
	assert.Equal(t, "Online", ally.Locations[0])

	discover := offers[2]
	assert.False(t, discover.OffersMortgage())
}

func TestBundled_ReturnsIndependentCopies(t *testing.T) {
	first, err := Bundled()
	require.NoError(t, err)
	first[0].Name = "mutated"

	second, err := Bundled()
	require.NoError(t, err)
	assert.Equal(t, "Chase Bank", second[0].Name)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{name: "malformed yaml", yaml: "banks: [\n"},
		{name: "unknown field", yaml: "banks:\n  - id: a\n    name: A\n    colour: red\n"},
		{name: "invalid rating", yaml: "banks:\n  - id: a\n    name: A\n    rating: 9\n"},
		{name: "duplicate id", yaml: "banks:\n  - id: a\n    name: A\n  - id: a\n    name: B\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}

	_, err := Parse([]byte("banks:\n  - id: a\n    name: A\n  - id: a\n    name: B\n"))
	assert.ErrorIs(t, err, ErrDuplicateOffer)
}

func TestParse_EmptyListsAreNonNil(t *testing.T) {
	offers, err := Parse([]byte("banks:\n  - id: solo\n    name: Solo Credit Union\n"))
	require.NoError(t, err)
	require.Len(t, offers, 1)
	assert.NotNil(t, offers[0].Features)
	assert.NotNil(t, offers[0].Locations)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "banks.yaml")
	require.NoError(t, os.WriteFile(path, []byte("banks:\n  - id: local\n    name: Local Bank\n    locations: [Texas]\n"), 0o600))

	offers, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "local", offers[0].ID)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
