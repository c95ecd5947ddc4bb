package model

import (
	"strings"
	"testing"
)

func TestTransitionHappyPath(t *testing.T) {
	steps := []struct {
		from  OrderStatus
		event Event
		want  OrderStatus
	}{
		{OrderStatusPending, EventPrescriptionUploaded, OrderStatusPrescriptionUploaded},
		{OrderStatusPrescriptionUploaded, EventVerificationStarted, OrderStatusVerifying},
		{OrderStatusVerifying, EventVerifierValid, OrderStatusVerified},
		{OrderStatusVerified, EventPaymentConfirmed, OrderStatusPaid},
		{OrderStatusPaid, EventFulfillmentStarted, OrderStatusProcessing},
		{OrderStatusProcessing, EventDeliveryConfirmed, OrderStatusDelivered},
	}
	for _, step := range steps {
		got, ok := Transition(step.from, step.event)
		if !ok {
			t.Fatalf("transition %s + %s rejected", step.from, step.event)
		}
		if got != step.want {
			t.Fatalf("transition %s + %s = %s, want %s", step.from, step.event, got, step.want)
		}
	}
}

func TestTransitionWaivedSkipsVerification(t *testing.T) {
	got, ok := Transition(OrderStatusPending, EventPrescriptionWaived)
	if !ok || got != OrderStatusPaymentPending {
		t.Fatalf("expected pending to move to payment_pending, got %s ok=%v", got, ok)
	}
	got, ok = Transition(OrderStatusPaymentPending, EventPaymentConfirmed)
	if !ok || got != OrderStatusPaid {
		t.Fatalf("expected payment_pending to accept payment, got %s ok=%v", got, ok)
	}
}

func TestTransitionRejectionAllowsResubmission(t *testing.T) {
	got, ok := Transition(OrderStatusVerifying, EventVerifierInvalid)
	if !ok || got != OrderStatusRejected {
		t.Fatalf("expected verifying to move to rejected, got %s ok=%v", got, ok)
	}
	got, ok = Transition(OrderStatusRejected, EventPrescriptionUploaded)
	if !ok || got != OrderStatusPrescriptionUploaded {
		t.Fatalf("expected rejected order to accept a new upload, got %s ok=%v", got, ok)
	}
}

func TestTransitionCancelFromAnyNonTerminal(t *testing.T) {
	nonTerminal := []OrderStatus{
		OrderStatusPending,
		OrderStatusPrescriptionUploaded,
		OrderStatusVerifying,
		OrderStatusVerified,
		OrderStatusRejected,
		OrderStatusPaymentPending,
		OrderStatusPaid,
		OrderStatusProcessing,
	}
	for _, from := range nonTerminal {
		got, ok := Transition(from, EventCancelRequested)
		if !ok || got != OrderStatusCancelled {
			t.Fatalf("expected %s to be cancellable, got %s ok=%v", from, got, ok)
		}
	}
	for _, from := range []OrderStatus{OrderStatusDelivered, OrderStatusCancelled} {
		if _, ok := Transition(from, EventCancelRequested); ok {
			t.Fatalf("expected terminal status %s to reject cancellation", from)
		}
	}
}

func TestTransitionRejectsUnknownEvent(t *testing.T) {
	if _, ok := Transition(OrderStatusPending, EventVerifierValid); ok {
		t.Fatal("expected pending order to reject a verifier verdict")
	}
	if _, ok := Transition(OrderStatusDelivered, EventPaymentConfirmed); ok {
		t.Fatal("expected delivered order to reject further events")
	}
}

func TestTerminal(t *testing.T) {
	if !OrderStatusDelivered.Terminal() || !OrderStatusCancelled.Terminal() {
		t.Fatal("delivered and cancelled must be terminal")
	}
	if OrderStatusVerifying.Terminal() {
		t.Fatal("verifying must not be terminal")
	}
}

func TestNewOrderIDFormat(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		id := NewOrderID()
		if !strings.HasPrefix(id, "ORD_") {
			t.Fatalf("unexpected prefix in %q", id)
		}
		suffix := strings.TrimPrefix(id, "ORD_")
		if len(suffix) != 12 {
			t.Fatalf("expected 12 hex chars, got %q", suffix)
		}
		if suffix != strings.ToUpper(suffix) {
			t.Fatalf("expected uppercase suffix, got %q", suffix)
		}
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate order id %q", id)
		}
		seen[id] = struct{}{}
	}
}

func TestAllowedContentType(t *testing.T) {
	for _, ct := range []string{"image/jpeg", "image/png", "application/pdf"} {
		if !AllowedContentType(ct) {
			t.Fatalf("expected %s to be allowed", ct)
		}
	}
	for _, ct := range []string{"image/gif", "text/plain", "application/zip", ""} {
		if AllowedContentType(ct) {
			t.Fatalf("expected %s to be rejected", ct)
		}
	}
}
