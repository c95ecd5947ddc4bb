package test

import (
	"bytes"
	"context"
	"io"
	"sync"

	"github.com/medcart/medcart/internal/domain/model"
)

func newStaticReader(content string) io.Reader {
	return bytes.NewReader([]byte(content))
}

// FileStoreStub keeps uploaded documents in-memory.
type FileStoreStub struct {
	SaveFn func(string, string, io.Reader) (string, error)
	OpenFn func(string) (io.ReadCloser, error)

	Saved map[string][]byte
	Err   error
}

// NewFileStoreStub constructs the stub with an initialized map.
func NewFileStoreStub() *FileStoreStub {
	return &FileStoreStub{Saved: make(map[string][]byte)}
}

// Save records the document under the derived path.
func (s *FileStoreStub) Save(orderID, filename string, r io.Reader) (string, error) {
	if s.SaveFn != nil {
		return s.SaveFn(orderID, filename, r)
	}
	if s.Err != nil {
		return "", s.Err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	path := orderID + "_" + filename
	s.Saved[path] = data
	return path, nil
}

// Open returns the stored document.
func (s *FileStoreStub) Open(path string) (io.ReadCloser, error) {
	if s.OpenFn != nil {
		return s.OpenFn(path)
	}
	if s.Err != nil {
		return nil, s.Err
	}
	return io.NopCloser(bytes.NewReader(s.Saved[path])), nil
}

// VerifierStub returns a configurable verification verdict.
type VerifierStub struct {
	VerifyFn func(context.Context, string, string, io.Reader) (*model.VerificationResult, error)
	Result   *model.VerificationResult
	Err      error
}

// Verify delegates to the override or returns the configured result.
func (s *VerifierStub) Verify(ctx context.Context, filename, contentType string, document io.Reader) (*model.VerificationResult, error) {
	if s.VerifyFn != nil {
		return s.VerifyFn(ctx, filename, contentType, document)
	}
	if s.Err != nil {
		return nil, s.Err
	}
	if s.Result != nil {
		return s.Result, nil
	}
	return &model.VerificationResult{Valid: true}, nil
}

// MatcherStub returns a configurable pharmacy candidate list.
type MatcherStub struct {
	MatchFn func(context.Context, []model.OrderItem, string) ([]model.PharmacyMatch, error)
	Matches []model.PharmacyMatch
	Err     error
}

// Match delegates to the override or returns the configured matches.
func (s *MatcherStub) Match(ctx context.Context, items []model.OrderItem, deliveryAddress string) ([]model.PharmacyMatch, error) {
	if s.MatchFn != nil {
		return s.MatchFn(ctx, items, deliveryAddress)
	}
	if s.Err != nil {
		return nil, s.Err
	}
	return s.Matches, nil
}

// NotifierStub records notification attempts per pharmacy.
type NotifierStub struct {
	NotifyFn func(context.Context, string, model.PharmacyMatch) error
	Err      error

	mu    sync.Mutex
	Calls []NotifyCall
}

// NotifyCall is one recorded notification attempt.
type NotifyCall struct {
	OrderID    string
	PharmacyID string
}

// Notify records the call and returns the configured error.
func (s *NotifierStub) Notify(ctx context.Context, orderID string, match model.PharmacyMatch) error {
	s.mu.Lock()
	s.Calls = append(s.Calls, NotifyCall{OrderID: orderID, PharmacyID: match.PharmacyID})
	s.mu.Unlock()
	if s.NotifyFn != nil {
		return s.NotifyFn(ctx, orderID, match)
	}
	return s.Err
}

// CallCount returns the number of recorded notifications.
func (s *NotifierStub) CallCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Calls)
}
