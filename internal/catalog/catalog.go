// Package catalog loads the bundled bank offer catalog.
package catalog

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"

	"loan-compare/internal/models"

	"gopkg.in/yaml.v3"
)

//go:embed banks.yaml
var bundledCatalog []byte

var ErrDuplicateOffer = errors.New("duplicate bank offer id")

type file struct {
	Banks []models.BankOffer `yaml:"banks"`
}

// Bundled returns a fresh copy of the embedded sample catalog, in file order
func Bundled() ([]models.BankOffer, error) {
	return Parse(bundledCatalog)
}

// LoadFile reads a catalog with the same layout as the bundled one
func LoadFile(path string) ([]models.BankOffer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML catalog. Unknown keys are rejected.
func Parse(data []byte) ([]models.BankOffer, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var f file
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to decode catalog: %w", err)
	}

	seen := make(map[string]bool, len(f.Banks))
	for i := range f.Banks {
		offer := &f.Banks[i]
		if err := offer.Validate(); err != nil {
			return nil, fmt.Errorf("catalog entry %d: %w", i, err)
		}
		if seen[offer.ID] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateOffer, offer.ID)
		}
		seen[offer.ID] = true

		offer.Active = true
		offer.DisplayOrder = i
		if offer.Features == nil {
			offer.Features = models.StringList{}
		}
		if offer.AccountTypes == nil {
			offer.AccountTypes = models.StringList{}
		}
		if offer.Locations == nil {
			offer.Locations = models.StringList{}
		}
	}

	return f.Banks, nil
}
