package verifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"path"
	"time"

	domainErrors "github.com/medcart/medcart/internal/domain/errors"
	"github.com/medcart/medcart/internal/domain/model"
)

// UnavailableError signals a transient verifier outage. It must never be
// treated as an invalid-prescription verdict.
type UnavailableError struct {
	Status string
}

func (e UnavailableError) Error() string {
	return fmt.Sprintf("verifier unavailable: %s", e.Status)
}

func (e UnavailableError) Unwrap() error {
	return domainErrors.ErrVerificationUnavailable
}

// Client exposes operations to verify prescription documents.
type Client interface {
	Verify(ctx context.Context, filename, contentType string, document io.Reader) (*model.VerificationResult, error)
}

// HTTPClient implements Client via HTTP API.
type HTTPClient struct {
	baseURL    *url.URL
	httpClient *http.Client
	logger     *slog.Logger
}

// response mirrors JSON payload from the verification service.
type response struct {
	Valid     bool              `json:"valid"`
	Reason    string            `json:"reason,omitempty"`
	Extracted map[string]string `json:"extracted_fields,omitempty"`
}

// NewHTTPClient creates HTTP verifier client with default timeout.
func NewHTTPClient(baseURL string, logger *slog.Logger) (*HTTPClient, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse verifier url: %w", err)
	}
	if !parsed.IsAbs() {
		return nil, fmt.Errorf("verifier url must be absolute")
	}
	return &HTTPClient{
		baseURL: parsed,
		logger:  logger,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}, nil
}

// Verify submits the document for analysis. Disallowed content types fail
// fast with an invalid verdict and never reach the analysis service.
func (c *HTTPClient) Verify(ctx context.Context, filename, contentType string, document io.Reader) (*model.VerificationResult, error) {
	if !model.AllowedContentType(contentType) {
		return &model.VerificationResult{Valid: false, Reason: "unsupported_type"}, nil
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="document"; filename=%q`, filename))
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, document); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	endpoint := *c.baseURL
	endpoint.Path = path.Join(endpoint.Path, "/api/v1/verify")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, UnavailableError{Status: err.Error()}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}
		var data response
		if err := json.Unmarshal(raw, &data); err != nil {
			return nil, err
		}
		return &model.VerificationResult{Valid: data.Valid, Reason: data.Reason, Extracted: data.Extracted}, nil
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError:
		return nil, UnavailableError{Status: resp.Status}
	default:
		raw, _ := io.ReadAll(resp.Body)
		c.logger.Error("verifier request failed", slog.Int("status", resp.StatusCode), slog.String("body", string(raw)))
		return nil, fmt.Errorf("verifier error: %s", resp.Status)
	}
}
