package stripegateway

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orris-inc/tollgate/internal/application/payment/paymentgateway"
	"github.com/orris-inc/tollgate/internal/shared/config"
	"github.com/orris-inc/tollgate/internal/shared/logger"
)

func newTestGateway(t *testing.T, handler http.HandlerFunc) *Gateway {
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := config.StripeConfig{
		SecretKey: "sk_test_123",
		Breaker: config.BreakerConfig{
			MaxRequests:      1,
			Timeout:          time.Minute,
			FailureThreshold: 2,
		},
	}
	return NewGateway(cfg, logger.NewNopLogger(), WithBackendURL(srv.URL))
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func TestGateway_CreateCustomer(t *testing.T) {
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/customers", r.URL.Path)
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "jane@example.com", r.PostForm.Get("email"))
		assert.Equal(t, "usr_1", r.PostForm.Get("metadata[user_sid]"))
		writeJSON(w, http.StatusOK, `{"id":"cus_1","object":"customer","email":"jane@example.com"}`)
	})

	c, err := g.CreateCustomer(context.Background(), paymentgateway.CreateCustomerRequest{
		Email:    "jane@example.com",
		Name:     "Jane",
		Metadata: map[string]string{"user_sid": "usr_1"},
	})
	require.NoError(t, err)
	assert.Equal(t, "cus_1", c.ID)
}

func TestGateway_GetCustomer(t *testing.T) {
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/customers/cus_live":
			writeJSON(w, http.StatusOK, `{"id":"cus_live","object":"customer"}`)
		case "/v1/customers/cus_deleted":
			writeJSON(w, http.StatusOK, `{"id":"cus_deleted","object":"customer","deleted":true}`)
		default:
			writeJSON(w, http.StatusNotFound, `{"error":{"type":"invalid_request_error","code":"resource_missing","message":"No such customer"}}`)
		}
	})
	ctx := context.Background()

	c, err := g.GetCustomer(ctx, "cus_live")
	require.NoError(t, err)
	assert.Equal(t, "cus_live", c.ID)

	_, err = g.GetCustomer(ctx, "cus_deleted")
	assert.ErrorIs(t, err, paymentgateway.ErrCustomerNotFound)

	// Repeated 404s must not open the breaker.
	for i := 0; i < 3; i++ {
		_, err = g.GetCustomer(ctx, "cus_missing")
		assert.ErrorIs(t, err, paymentgateway.ErrCustomerNotFound)
	}
}

func TestGateway_CreateCheckoutSession(t *testing.T) {
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/checkout/sessions", r.URL.Path)
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "subscription", r.PostForm.Get("mode"))
		assert.Equal(t, "price_monthly", r.PostForm.Get("line_items[0][price]"))
		assert.Equal(t, "1", r.PostForm.Get("line_items[0][quantity]"))
		writeJSON(w, http.StatusOK, `{"id":"cs_1","object":"checkout.session","url":"https://checkout.example/cs_1","customer":"cus_1","mode":"subscription","created":1700000000}`)
	})

	s, err := g.CreateCheckoutSession(context.Background(), paymentgateway.CreateCheckoutRequest{
		CustomerID: "cus_1",
		PriceID:    "price_monthly",
		Mode:       paymentgateway.CheckoutModeSubscription,
		SuccessURL: "https://app.example/checkout/complete",
		CancelURL:  "https://app.example/checkout/cancelled",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://checkout.example/cs_1", s.URL)
	assert.Equal(t, "cus_1", s.CustomerID)
	assert.Equal(t, paymentgateway.CheckoutModeSubscription, s.Mode)
	assert.Equal(t, int64(1700000000), s.Created)
}

func TestGateway_ListCheckoutLineItems(t *testing.T) {
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/checkout/sessions/cs_1/line_items", r.URL.Path)
		writeJSON(w, http.StatusOK, `{"object":"list","url":"/v1/checkout/sessions/cs_1/line_items","has_more":false,"data":[{"id":"li_1","object":"item","quantity":2,"price":{"id":"price_pack25","object":"price"}}]}`)
	})

	items, err := g.ListCheckoutLineItems(context.Background(), "cs_1")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, paymentgateway.LineItem{PriceID: "price_pack25", Quantity: 2}, items[0])
}

func TestGateway_CreatePaidInvoice(t *testing.T) {
	var calls []string
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.Method+" "+r.URL.Path)
		switch r.Method + " " + r.URL.Path {
		case "GET /v1/invoices":
			assert.Equal(t, "cus_1", r.URL.Query().Get("customer"))
			writeJSON(w, http.StatusOK, `{"object":"list","data":[],"has_more":false,"url":"/v1/invoices"}`)
		case "POST /v1/invoices":
			assert.NoError(t, r.ParseForm())
			assert.Equal(t, "cs_1", r.PostForm.Get("metadata[tollgate_receipt]"))
			writeJSON(w, http.StatusOK, `{"id":"in_1","object":"invoice","customer":"cus_1","status":"draft"}`)
		case "POST /v1/invoiceitems":
			assert.NoError(t, r.ParseForm())
			assert.Equal(t, "in_1", r.PostForm.Get("invoice"))
			writeJSON(w, http.StatusOK, `{"id":"ii_1","object":"invoiceitem"}`)
		case "POST /v1/invoices/in_1/finalize":
			writeJSON(w, http.StatusOK, `{"id":"in_1","object":"invoice","customer":"cus_1","number":"A-1","status":"open"}`)
		case "POST /v1/invoices/in_1/pay":
			assert.NoError(t, r.ParseForm())
			assert.Equal(t, "true", r.PostForm.Get("paid_out_of_band"))
			writeJSON(w, http.StatusOK, `{"id":"in_1","object":"invoice","customer":"cus_1","number":"A-1","status":"paid","hosted_invoice_url":"https://invoice.example/in_1","created":1700000000}`)
		default:
			t.Errorf("unexpected call %s %s", r.Method, r.URL.Path)
		}
	})

	inv, err := g.CreatePaidInvoice(context.Background(), paymentgateway.PaidInvoiceRequest{
		CustomerID: "cus_1",
		PriceID:    "price_lifetime",
		Reference:  "cs_1",
	})
	require.NoError(t, err)
	assert.Equal(t, "in_1", inv.ID)
	assert.Equal(t, "A-1", inv.Number)
	assert.Equal(t, "https://invoice.example/in_1", inv.HostedURL)
	assert.Equal(t, []string{
		"GET /v1/invoices",
		"POST /v1/invoices",
		"POST /v1/invoiceitems",
		"POST /v1/invoices/in_1/finalize",
		"POST /v1/invoices/in_1/pay",
	}, calls)
}

func TestGateway_CreatePaidInvoice_ResumesTaggedInvoice(t *testing.T) {
	var calls []string
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.Method+" "+r.URL.Path)
		switch r.Method + " " + r.URL.Path {
		case "GET /v1/invoices":
			writeJSON(w, http.StatusOK, `{"object":"list","has_more":false,"url":"/v1/invoices","data":[
				{"id":"in_void","object":"invoice","status":"void","metadata":{"tollgate_receipt":"cs_1"}},
				{"id":"in_other","object":"invoice","status":"paid","metadata":{"tollgate_receipt":"cs_9"}},
				{"id":"in_1","object":"invoice","status":"open","metadata":{"tollgate_receipt":"cs_1"}}
			]}`)
		case "POST /v1/invoices/in_1/pay":
			writeJSON(w, http.StatusOK, `{"id":"in_1","object":"invoice","customer":"cus_1","status":"paid"}`)
		default:
			t.Errorf("unexpected call %s %s", r.Method, r.URL.Path)
		}
	})

	inv, err := g.CreatePaidInvoice(context.Background(), paymentgateway.PaidInvoiceRequest{
		CustomerID: "cus_1",
		PriceID:    "price_pack25",
		Reference:  "cs_1",
	})
	require.NoError(t, err)
	assert.Equal(t, "in_1", inv.ID)
	assert.Equal(t, []string{"GET /v1/invoices", "POST /v1/invoices/in_1/pay"}, calls)
}

func TestGateway_CreatePaidInvoice_AlreadyPaid(t *testing.T) {
	var calls int
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, "GET /v1/invoices", r.Method+" "+r.URL.Path)
		writeJSON(w, http.StatusOK, `{"object":"list","has_more":false,"url":"/v1/invoices","data":[
			{"id":"in_1","object":"invoice","status":"paid","number":"A-1","metadata":{"tollgate_receipt":"cs_1"}}
		]}`)
	})

	inv, err := g.CreatePaidInvoice(context.Background(), paymentgateway.PaidInvoiceRequest{
		CustomerID: "cus_1",
		PriceID:    "price_pack25",
		Reference:  "cs_1",
	})
	require.NoError(t, err)
	assert.Equal(t, "A-1", inv.Number)
	assert.Equal(t, 1, calls)
}

func TestGateway_BreakerOpensOnServerErrors(t *testing.T) {
	var hits atomic.Int32
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		writeJSON(w, http.StatusInternalServerError, `{"error":{"type":"api_error","message":"boom"}}`)
	})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		err := g.CancelAtPeriodEnd(ctx, "sub_1")
		require.Error(t, err)
		assert.NotErrorIs(t, err, paymentgateway.ErrCircuitOpen)
	}

	err := g.CancelAtPeriodEnd(ctx, "sub_1")
	assert.ErrorIs(t, err, paymentgateway.ErrCircuitOpen)
	assert.Equal(t, int32(2), hits.Load())
}
