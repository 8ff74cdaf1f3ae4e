package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/orris-inc/tollgate/internal/domain/catalog"
)

const sample = `
plans:
  - key: default
    name: Free
    price: {value: 0, currency_symbol: "€"}
    included: [Basic support]
  - key: monthly
    name: Pro
    price: {value: 9.99, currency_symbol: "€"}
    stripe_price_id: price_monthly
  - key: legacy
    name: Legacy
    stripe_price_id: price_legacy
    show: false
credit_packages:
  - key: pack25
    name: 25 credits
    price: {value: 22.5, currency_symbol: "€"}
    stripe_price_id: price_pack25
    credits: 25
`

func TestParse(t *testing.T) {
	cat, err := Parse([]byte(sample))
	require.NoError(t, err)

	require.Len(t, cat.Plans, 3)
	assert.Len(t, cat.VisiblePlans(), 2)

	plan, ok := cat.PlanByPriceID("price_monthly")
	require.True(t, ok)
	assert.Equal(t, "Pro", plan.Name)
	assert.Equal(t, "€ 9.99", plan.Price.String())

	entry, kind := cat.ResolvePriceID("price_pack25")
	assert.Equal(t, domain.KindCreditPackage, kind)
	assert.Equal(t, int64(25), entry.CreditPackage.Credits)
}

func TestParse_Rejects(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"unknown field", "plans:\n  - key: default\n    name: Free\n    stripe_price: x\n"},
		{"missing default plan", "plans:\n  - key: monthly\n    name: Pro\n    stripe_price_id: price_monthly\n"},
		{"package without credits", "plans:\n  - key: default\n    name: Free\ncredit_packages:\n  - key: p\n    name: P\n    stripe_price_id: price_p\n"},
		{"empty document", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o600))

	cat, err := LoadFile(path)
	require.NoError(t, err)
	assert.Len(t, cat.CreditPackages, 1)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
