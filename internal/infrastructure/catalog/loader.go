// Package catalog loads the plan catalog from YAML.
package catalog

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	domain "github.com/orris-inc/tollgate/internal/domain/catalog"
)

type priceFile struct {
	Value          float64 `yaml:"value"`
	CurrencySymbol string  `yaml:"currency_symbol"`
}

type planFile struct {
	Key           string    `yaml:"key"`
	Name          string    `yaml:"name"`
	Icon          string    `yaml:"icon"`
	Description   string    `yaml:"description"`
	Price         priceFile `yaml:"price"`
	StripePriceID string    `yaml:"stripe_price_id"`
	Show          *bool     `yaml:"show"`
	Lifetime      bool      `yaml:"lifetime"`
	Included      []string  `yaml:"included"`
	NotIncluded   []string  `yaml:"not_included"`
}

type creditPackageFile struct {
	Key           string    `yaml:"key"`
	Name          string    `yaml:"name"`
	Icon          string    `yaml:"icon"`
	Description   string    `yaml:"description"`
	Price         priceFile `yaml:"price"`
	StripePriceID string    `yaml:"stripe_price_id"`
	Show          *bool     `yaml:"show"`
	Credits       int64     `yaml:"credits"`
}

type catalogFile struct {
	Plans          []planFile          `yaml:"plans"`
	CreditPackages []creditPackageFile `yaml:"credit_packages"`
}

// LoadFile reads and validates the catalog at path.
func LoadFile(path string) (*domain.Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}
	cat, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cat, nil
}

// Parse decodes a catalog document. Unknown keys are rejected so that a
// misspelt field does not silently drop a price ID. Entries default to
// show: true.
func Parse(data []byte) (*domain.Catalog, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var f catalogFile
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}

	plans := make([]domain.Plan, 0, len(f.Plans))
	for _, p := range f.Plans {
		plans = append(plans, domain.Plan{
			Key:           p.Key,
			Name:          p.Name,
			Icon:          p.Icon,
			Description:   p.Description,
			Price:         domain.Price(p.Price),
			StripePriceID: p.StripePriceID,
			Show:          boolOr(p.Show, true),
			Lifetime:      p.Lifetime,
			Included:      p.Included,
			NotIncluded:   p.NotIncluded,
		})
	}

	packages := make([]domain.CreditPackage, 0, len(f.CreditPackages))
	for _, p := range f.CreditPackages {
		packages = append(packages, domain.CreditPackage{
			Key:           p.Key,
			Name:          p.Name,
			Icon:          p.Icon,
			Description:   p.Description,
			Price:         domain.Price(p.Price),
			StripePriceID: p.StripePriceID,
			Show:          boolOr(p.Show, true),
			Credits:       p.Credits,
		})
	}

	cat := domain.New(plans, packages)
	if err := cat.Validate(); err != nil {
		return nil, err
	}
	return cat, nil
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}
