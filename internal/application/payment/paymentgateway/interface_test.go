package paymentgateway

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEventCustomerID(t *testing.T) {
	tests := []struct {
		name  string
		event Event
		want  string
	}{
		{"customer", Event{Customer: &Customer{ID: "cus_1"}}, "cus_1"},
		{"subscription", Event{Subscription: &Subscription{CustomerID: "cus_2"}}, "cus_2"},
		{"invoice", Event{Invoice: &Invoice{CustomerID: "cus_3"}}, "cus_3"},
		{"checkout", Event{CheckoutSession: &CheckoutSession{CustomerID: "cus_4"}}, "cus_4"},
		{"unknown object", Event{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.event.CustomerID())
		})
	}
}
