package catalog

import (
	"fmt"
	"strings"
)

// BillingModel selects which billing features are mounted.
type BillingModel string

const (
	ModelSubscriptions BillingModel = "subscriptions"
	ModelCredits       BillingModel = "credits"
	ModelBoth          BillingModel = "both"
	ModelNone          BillingModel = "none"
)

func ParseBillingModel(s string) (BillingModel, error) {
	m := BillingModel(strings.ToLower(strings.TrimSpace(s)))
	switch m {
	case ModelSubscriptions, ModelCredits, ModelBoth, ModelNone:
		return m, nil
	}
	return "", fmt.Errorf("invalid billing model %q: expected subscriptions, credits, both or none", s)
}

func (m BillingModel) SubscriptionsEnabled() bool {
	return m == ModelSubscriptions || m == ModelBoth
}

func (m BillingModel) CreditsEnabled() bool {
	return m == ModelCredits || m == ModelBoth
}

func (m BillingModel) Enabled() bool {
	return m.SubscriptionsEnabled() || m.CreditsEnabled()
}
