package pharmacy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"time"

	"github.com/medcart/medcart/internal/domain/model"
)

// Client exposes operations against the pharmacy directory service.
type Client interface {
	// Match returns candidate pharmacies for the order, closest first. An
	// empty result is a valid "no match" outcome, not an error.
	Match(ctx context.Context, items []model.OrderItem, deliveryAddress string) ([]model.PharmacyMatch, error)
	// Notify asks one pharmacy to pick up the order for fulfillment.
	Notify(ctx context.Context, orderID string, match model.PharmacyMatch) error
}

// HTTPClient implements Client via HTTP API.
type HTTPClient struct {
	baseURL    *url.URL
	httpClient *http.Client
	logger     *slog.Logger
}

type matchRequest struct {
	DeliveryAddress string      `json:"delivery_address"`
	Items           []matchItem `json:"items"`
}

type matchItem struct {
	MedicationName string `json:"medication_name"`
	Dosage         string `json:"dosage,omitempty"`
	Quantity       int    `json:"quantity"`
}

type matchResponse struct {
	Pharmacies []matchedPharmacy `json:"pharmacies"`
}

type matchedPharmacy struct {
	PharmacyID  string  `json:"pharmacy_id"`
	Name        string  `json:"name"`
	DistanceKM  float64 `json:"distance_km"`
	HasAllItems bool    `json:"has_all_items"`
}

type notifyRequest struct {
	OrderID string `json:"order_id"`
}

// NewHTTPClient creates HTTP pharmacy directory client with default timeout.
func NewHTTPClient(baseURL string, logger *slog.Logger) (*HTTPClient, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse pharmacy url: %w", err)
	}
	if !parsed.IsAbs() {
		return nil, fmt.Errorf("pharmacy url must be absolute")
	}
	return &HTTPClient{
		baseURL: parsed,
		logger:  logger,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}, nil
}

// Match queries the directory for pharmacies able to serve the order.
func (c *HTTPClient) Match(ctx context.Context, items []model.OrderItem, deliveryAddress string) ([]model.PharmacyMatch, error) {
	payload := matchRequest{DeliveryAddress: deliveryAddress, Items: make([]matchItem, 0, len(items))}
	for _, item := range items {
		payload.Items = append(payload.Items, matchItem{
			MedicationName: item.MedicationName,
			Dosage:         item.Dosage,
			Quantity:       item.Quantity,
		})
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	endpoint := *c.baseURL
	endpoint.Path = path.Join(endpoint.Path, "/api/v1/pharmacies/match")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}
		var data matchResponse
		if err := json.Unmarshal(raw, &data); err != nil {
			return nil, err
		}
		matches := make([]model.PharmacyMatch, 0, len(data.Pharmacies))
		for _, p := range data.Pharmacies {
			matches = append(matches, model.PharmacyMatch{
				PharmacyID:  p.PharmacyID,
				Name:        p.Name,
				DistanceKM:  p.DistanceKM,
				HasAllItems: p.HasAllItems,
			})
		}
		model.SortMatches(matches)
		return matches, nil
	case http.StatusNoContent:
		return nil, nil
	default:
		raw, _ := io.ReadAll(resp.Body)
		c.logger.Error("pharmacy match failed", slog.Int("status", resp.StatusCode), slog.String("body", string(raw)))
		return nil, fmt.Errorf("pharmacy directory error: %s", resp.Status)
	}
}

// Notify delivers a fulfillment request to one pharmacy.
func (c *HTTPClient) Notify(ctx context.Context, orderID string, match model.PharmacyMatch) error {
	body, err := json.Marshal(notifyRequest{OrderID: orderID})
	if err != nil {
		return err
	}

	endpoint := *c.baseURL
	endpoint.Path = path.Join(endpoint.Path, "/api/v1/pharmacies/", match.PharmacyID, "/notifications")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("notify pharmacy %s: %s", match.PharmacyID, resp.Status)
	}
	return nil
}
