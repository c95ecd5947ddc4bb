package verifier

import (
	"io"
	"log/slog"
	"testing"

	"github.com/medcart/medcart/internal/config"
)

func TestNewClientUsesConfig(t *testing.T) {
	cfg := &config.Config{VerifierAddress: "http://example.com"}
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	client, err := newClient(clientParams{Config: cfg, Logger: logger})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if client == nil {
		t.Fatal("expected client instance")
	}
}
