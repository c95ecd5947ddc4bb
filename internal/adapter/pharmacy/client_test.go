package pharmacy

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/medcart/medcart/internal/domain/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestMatchSortsByDistance(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/pharmacies/match" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		var req matchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.DeliveryAddress != "1 Main St" || len(req.Items) != 1 {
			t.Fatalf("unexpected payload %+v", req)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"pharmacies":[
			{"pharmacy_id":"far","name":"Far","distance_km":9.5,"has_all_items":true},
			{"pharmacy_id":"near","name":"Near","distance_km":0.8,"has_all_items":false},
			{"pharmacy_id":"mid","name":"Mid","distance_km":3.1,"has_all_items":true}
		]}`))
	}))
	defer server.Close()

	client, err := NewHTTPClient(server.URL, discardLogger())
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	items := []model.OrderItem{{MedicationName: "Amoxicillin", Quantity: 1}}
	matches, err := client.Match(context.Background(), items, "1 Main St")
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	want := []string{"near", "mid", "far"}
	if len(matches) != len(want) {
		t.Fatalf("expected %d matches, got %d", len(want), len(matches))
	}
	for i, id := range want {
		if matches[i].PharmacyID != id {
			t.Fatalf("position %d: got %s, want %s", i, matches[i].PharmacyID, id)
		}
	}
}

func TestMatchNoContentMeansNoMatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client, _ := NewHTTPClient(server.URL, discardLogger())
	matches, err := client.Match(context.Background(), nil, "1 Main St")
	if err != nil {
		t.Fatalf("no-match must not be an error: %v", err)
	}
	if matches != nil {
		t.Fatalf("expected nil matches, got %v", matches)
	}
}

func TestMatchServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client, _ := NewHTTPClient(server.URL, discardLogger())
	if _, err := client.Match(context.Background(), nil, "1 Main St"); err == nil {
		t.Fatal("expected error on 500")
	}
}

func TestNotify(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/pharmacies/p42/notifications" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		var req notifyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.OrderID != "ORD_ABC123DEF456" {
			t.Fatalf("unexpected order id %q", req.OrderID)
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	client, _ := NewHTTPClient(server.URL, discardLogger())
	err := client.Notify(context.Background(), "ORD_ABC123DEF456", model.PharmacyMatch{PharmacyID: "p42"})
	if err != nil {
		t.Fatalf("notify: %v", err)
	}
}

func TestNotifyFailureStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client, _ := NewHTTPClient(server.URL, discardLogger())
	err := client.Notify(context.Background(), "ORD_ABC123DEF456", model.PharmacyMatch{PharmacyID: "p1"})
	if err == nil {
		t.Fatal("expected error on 503")
	}
}
