package catalog

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// DefaultPlanKey mirrors billing.DefaultPlanKey; the catalog must define it.
const DefaultPlanKey = "default"

var ErrInvalidCatalog = errors.New("invalid plan catalog")

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate reports every misconfiguration at once. A catalog that fails
// validation must not be used.
func (c *Catalog) Validate() error {
	var problems []string

	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				problems = append(problems, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
		} else {
			return fmt.Errorf("failed to validate catalog: %w", err)
		}
	}

	if _, ok := c.PlanByKey(DefaultPlanKey); !ok {
		problems = append(problems, fmt.Sprintf("plan %q is required", DefaultPlanKey))
	}

	planKeys := map[string]bool{}
	planPrices := map[string]bool{}
	for _, p := range c.Plans {
		if planKeys[p.Key] {
			problems = append(problems, fmt.Sprintf("duplicate plan key %q", p.Key))
		}
		planKeys[p.Key] = true
		if p.StripePriceID != "" {
			if planPrices[p.StripePriceID] {
				problems = append(problems, fmt.Sprintf("duplicate plan price id %q", p.StripePriceID))
			}
			planPrices[p.StripePriceID] = true
		}
	}

	pkgKeys := map[string]bool{}
	pkgPrices := map[string]bool{}
	for _, p := range c.CreditPackages {
		if pkgKeys[p.Key] {
			problems = append(problems, fmt.Sprintf("duplicate credit package key %q", p.Key))
		}
		pkgKeys[p.Key] = true
		if pkgPrices[p.StripePriceID] {
			problems = append(problems, fmt.Sprintf("duplicate credit package price id %q", p.StripePriceID))
		}
		pkgPrices[p.StripePriceID] = true
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidCatalog, strings.Join(problems, "; "))
	}
	return nil
}
