// Package catalog describes the static plan catalog: subscription plans and
// credit packages, joined to provider events by their price IDs.
package catalog

type Plan struct {
	Key           string   `json:"key" validate:"required"`
	Name          string   `json:"name" validate:"required"`
	Icon          string   `json:"icon,omitempty"`
	Description   string   `json:"description,omitempty"`
	Price         Price    `json:"price"`
	StripePriceID string   `json:"stripe_price_id,omitempty"`
	Show          bool     `json:"show"`
	Lifetime      bool     `json:"lifetime"`
	Included      []string `json:"included,omitempty"`
	NotIncluded   []string `json:"not_included,omitempty"`
}

// Purchasable reports whether a checkout can be started for the plan.
func (p Plan) Purchasable() bool {
	return p.StripePriceID != ""
}

type CreditPackage struct {
	Key           string `json:"key" validate:"required"`
	Name          string `json:"name" validate:"required"`
	Icon          string `json:"icon,omitempty"`
	Description   string `json:"description,omitempty"`
	Price         Price  `json:"price"`
	StripePriceID string `json:"stripe_price_id" validate:"required"`
	Show          bool   `json:"show"`
	Credits       int64  `json:"credits" validate:"gt=0"`
}

// Kind says which half of the catalog a price ID belongs to.
type Kind string

const (
	KindNone          Kind = ""
	KindSubscription  Kind = "subscription"
	KindCreditPackage Kind = "credit_package"
)

// Entry is the result of ResolvePriceID. Exactly one field is set unless the
// kind is KindNone.
type Entry struct {
	Plan          *Plan
	CreditPackage *CreditPackage
}

// Catalog is read-only after Validate. Lookups are linear scans; the catalog
// holds a handful of entries.
type Catalog struct {
	Plans          []Plan          `validate:"required,min=1,dive"`
	CreditPackages []CreditPackage `validate:"dive"`
}

func New(plans []Plan, packages []CreditPackage) *Catalog {
	return &Catalog{Plans: plans, CreditPackages: packages}
}

func (c *Catalog) PlanByKey(key string) (Plan, bool) {
	for _, p := range c.Plans {
		if p.Key == key {
			return p, true
		}
	}
	return Plan{}, false
}

func (c *Catalog) PlanByPriceID(priceID string) (Plan, bool) {
	if priceID == "" {
		return Plan{}, false
	}
	for _, p := range c.Plans {
		if p.StripePriceID == priceID {
			return p, true
		}
	}
	return Plan{}, false
}

func (c *Catalog) CreditPackageByKey(key string) (CreditPackage, bool) {
	for _, p := range c.CreditPackages {
		if p.Key == key {
			return p, true
		}
	}
	return CreditPackage{}, false
}

func (c *Catalog) CreditPackageByPriceID(priceID string) (CreditPackage, bool) {
	if priceID == "" {
		return CreditPackage{}, false
	}
	for _, p := range c.CreditPackages {
		if p.StripePriceID == priceID {
			return p, true
		}
	}
	return CreditPackage{}, false
}

// ResolvePriceID looks the price up among plans first, then credit packages,
// so a price configured in both resolves to the plan.
func (c *Catalog) ResolvePriceID(priceID string) (Entry, Kind) {
	if p, ok := c.PlanByPriceID(priceID); ok {
		return Entry{Plan: &p}, KindSubscription
	}
	if p, ok := c.CreditPackageByPriceID(priceID); ok {
		return Entry{CreditPackage: &p}, KindCreditPackage
	}
	return Entry{}, KindNone
}

// VisiblePlans returns plans with show=true, in catalog order.
func (c *Catalog) VisiblePlans() []Plan {
	out := make([]Plan, 0, len(c.Plans))
	for _, p := range c.Plans {
		if p.Show {
			out = append(out, p)
		}
	}
	return out
}

func (c *Catalog) VisibleCreditPackages() []CreditPackage {
	out := make([]CreditPackage, 0, len(c.CreditPackages))
	for _, p := range c.CreditPackages {
		if p.Show {
			out = append(out, p)
		}
	}
	return out
}
