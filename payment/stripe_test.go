package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	stripe "github.com/stripe/stripe-go/v76"
)

const testWebhookSecret = "whsec_test_secret"

// signPayload builds a Stripe-Signature header the same way the processor
// does: HMAC-SHA256 over "<timestamp>.<payload>".
func signPayload(payload []byte, secret string, ts time.Time) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", ts.Unix(), payload)
	return fmt.Sprintf("t=%d,v1=%s", ts.Unix(), hex.EncodeToString(mac.Sum(nil)))
}

func webhookPayload(eventID, eventType, intentID string) []byte {
	return []byte(fmt.Sprintf(
		`{"id":%q,"object":"event","api_version":%q,"type":%q,"data":{"object":{"id":%q,"object":"payment_intent"}}}`,
		eventID, stripe.APIVersion, eventType, intentID,
	))
}

func TestParseWebhookValidSignature(t *testing.T) {
	payload := webhookPayload("evt_1", EventPaymentSucceeded, "pi_123")
	header := signPayload(payload, testWebhookSecret, time.Now())

	event, err := ParseWebhook(payload, header, testWebhookSecret)
	if err != nil {
		t.Fatalf("ParseWebhook() error = %v", err)
	}
	if event.ID != "evt_1" {
		t.Errorf("event ID = %q, want evt_1", event.ID)
	}
	if event.Type != EventPaymentSucceeded {
		t.Errorf("event type = %q, want %q", event.Type, EventPaymentSucceeded)
	}
	if event.IntentID != "pi_123" {
		t.Errorf("intent ID = %q, want pi_123", event.IntentID)
	}
}

func TestParseWebhookInvalidSignature(t *testing.T) {
	payload := webhookPayload("evt_1", EventPaymentSucceeded, "pi_123")
	header := signPayload(payload, "whsec_wrong_secret", time.Now())

	if _, err := ParseWebhook(payload, header, testWebhookSecret); err == nil {
		t.Fatal("ParseWebhook() should reject a signature from the wrong secret")
	}
}

func TestParseWebhookTamperedPayload(t *testing.T) {
	payload := webhookPayload("evt_1", EventPaymentSucceeded, "pi_123")
	header := signPayload(payload, testWebhookSecret, time.Now())
	tampered := webhookPayload("evt_1", EventPaymentSucceeded, "pi_999")

	if _, err := ParseWebhook(tampered, header, testWebhookSecret); err == nil {
		t.Fatal("ParseWebhook() should reject a tampered payload")
	}
}

func TestParseWebhookStaleTimestamp(t *testing.T) {
	payload := webhookPayload("evt_1", EventPaymentFailed, "pi_123")
	header := signPayload(payload, testWebhookSecret, time.Now().Add(-time.Hour))

	if _, err := ParseWebhook(payload, header, testWebhookSecret); err == nil {
		t.Fatal("ParseWebhook() should reject a stale timestamp")
	}
}
