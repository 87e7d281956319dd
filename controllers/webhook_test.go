package controllers

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stripe/stripe-go/v81"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"quickbasket/utils"
)

const testWebhookSecret = "whsec_test_secret"

// stubGateway verifies webhook signatures for real (through the Stripe
// webhook package) but stubs the network calls.
type stubGateway struct {
	verifier  *utils.StripeGateway
	listItems []*stripe.LineItem
	listErr   error
	listCalls int
}

func newStubGateway() *stubGateway {
	return &stubGateway{verifier: utils.NewStripeGateway("sk_test_key", testWebhookSecret)}
}

func (g *stubGateway) CreateCheckoutSession(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	return &stripe.CheckoutSession{ID: "cs_stub", URL: "https://checkout.test/cs_stub"}, nil
}

func (g *stubGateway) ListLineItems(sessionID string) ([]*stripe.LineItem, error) {
	g.listCalls++
	return g.listItems, g.listErr
}

func (g *stubGateway) ConstructWebhookEvent(payload []byte, sigHeader string) (stripe.Event, error) {
	return g.verifier.ConstructWebhookEvent(payload, sigHeader)
}

func newWebhookController(gateway PaymentGateway) *OrderController {
	return &OrderController{
		Gateway: gateway,
		locks:   newCheckoutLocks(),
	}
}

// signPayload produces a valid Stripe-Signature header for the payload.
func signPayload(payload []byte, secret string) string {
	ts := time.Now().Unix()
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.", ts)
	mac.Write(payload)
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func eventPayload(eventType string, object map[string]interface{}) []byte {
	payload, _ := json.Marshal(map[string]interface{}{
		"id":          "evt_test_1",
		"object":      "event",
		"api_version": "2024-11-20.acacia",
		"type":        eventType,
		"data":        map[string]interface{}{"object": object},
	})
	return payload
}

func postWebhook(t *testing.T, oc *OrderController, payload []byte, sigHeader string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/order/webhook/stripe", strings.NewReader(string(payload)))
	if sigHeader != "" {
		req.Header.Set("Stripe-Signature", sigHeader)
	}
	rec := httptest.NewRecorder()
	oc.StripeWebhook(rec, req)
	return rec
}

func TestStripeWebhookMissingSignature(t *testing.T) {
	gateway := newStubGateway()
	oc := newWebhookController(gateway)

	payload := eventPayload("checkout.session.completed", map[string]interface{}{
		"id": "cs_1", "object": "checkout.session", "payment_status": "paid",
	})

	rec := postWebhook(t, oc, payload, "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, gateway.listCalls)
}

func TestStripeWebhookInvalidSignature(t *testing.T) {
	gateway := newStubGateway()
	oc := newWebhookController(gateway)

	payload := eventPayload("checkout.session.completed", map[string]interface{}{
		"id": "cs_1", "object": "checkout.session", "payment_status": "paid",
	})

	// Signed with the wrong secret: verification must fail closed and no
	// reconciliation work may run, regardless of payload content.
	rec := postWebhook(t, oc, payload, signPayload(payload, "whsec_wrong_secret"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, gateway.listCalls)
}

func TestStripeWebhookUnpaidSessionIsAcknowledged(t *testing.T) {
	gateway := newStubGateway()
	oc := newWebhookController(gateway)

	payload := eventPayload("checkout.session.completed", map[string]interface{}{
		"id":             "cs_1",
		"object":         "checkout.session",
		"payment_status": "unpaid",
		"metadata": map[string]string{
			"userId":    primitive.NewObjectID().Hex(),
			"addressId": primitive.NewObjectID().Hex(),
		},
	})

	rec := postWebhook(t, oc, payload, signPayload(payload, testWebhookSecret))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"received":true}`, rec.Body.String())
	assert.Zero(t, gateway.listCalls)
}

func TestStripeWebhookMissingMetadata(t *testing.T) {
	gateway := newStubGateway()
	oc := newWebhookController(gateway)

	payload := eventPayload("checkout.session.completed", map[string]interface{}{
		"id":             "cs_1",
		"object":         "checkout.session",
		"payment_status": "paid",
	})

	rec := postWebhook(t, oc, payload, signPayload(payload, testWebhookSecret))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Metadata is missing")
	assert.Zero(t, gateway.listCalls)
}

func TestStripeWebhookUnhandledEventIsAcknowledged(t *testing.T) {
	gateway := newStubGateway()
	oc := newWebhookController(gateway)

	payload := eventPayload("invoice.paid", map[string]interface{}{
		"id": "in_1", "object": "invoice",
	})

	rec := postWebhook(t, oc, payload, signPayload(payload, testWebhookSecret))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"received":true}`, rec.Body.String())
	assert.Zero(t, gateway.listCalls)
}

func TestStripeWebhookExpiredSessionIsNoOp(t *testing.T) {
	gateway := newStubGateway()
	oc := newWebhookController(gateway)

	payload := eventPayload("checkout.session.expired", map[string]interface{}{
		"id": "cs_1", "object": "checkout.session",
	})

	rec := postWebhook(t, oc, payload, signPayload(payload, testWebhookSecret))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, gateway.listCalls)
}

func TestStripeWebhookReconcileFailureStillAcknowledged(t *testing.T) {
	gateway := newStubGateway()
	gateway.listErr = fmt.Errorf("stripe unavailable")
	oc := newWebhookController(gateway)

	payload := eventPayload("checkout.session.completed", map[string]interface{}{
		"id":             "cs_1",
		"object":         "checkout.session",
		"payment_status": "paid",
		"metadata": map[string]string{
			"userId":    primitive.NewObjectID().Hex(),
			"addressId": primitive.NewObjectID().Hex(),
		},
	})

	rec := postWebhook(t, oc, payload, signPayload(payload, testWebhookSecret))

	// Reconciliation failed, but the gateway must still get a 2xx so it
	// stops redelivering; the failure is an operational alert instead.
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"received":true`)
	assert.Contains(t, rec.Body.String(), "order creation failed")
	assert.Equal(t, 1, gateway.listCalls)
}
