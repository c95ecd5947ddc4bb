package router

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/medcart/medcart/internal/domain/model"
	pkgAuth "github.com/medcart/medcart/internal/pkg/auth"
	"github.com/medcart/medcart/internal/server/http/handlers"
	testhelpers "github.com/medcart/medcart/internal/test"
)

func newEngine(role model.UserRole) *gin.Engine {
	gin.SetMode(gin.TestMode)
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	facade := &testhelpers.PharmacyFacadeStub{
		AuthFacadeStub: testhelpers.AuthFacadeStub{
			ResolveFn: func(token string) (*pkgAuth.Identity, error) {
				if token != "good-token" {
					return nil, pkgAuth.ErrInvalidToken
				}
				return &pkgAuth.Identity{UserID: uuid.New(), Role: role}, nil
			},
		},
	}
	return Setup(facade, logger)
}

func TestSetupPublicRoutes(t *testing.T) {
	engine := newEngine(model.RoleCustomer)

	body, _ := json.Marshal(map[string]string{"fullname": "User", "email": "user@example.com", "password": "password123"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	engine.ServeHTTP(resp, req)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 for register, got %d: %s", resp.Code, resp.Body.String())
	}

	body, _ = json.Marshal(map[string]string{"email": "user@example.com", "password": "password123"})
	req = httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp = httptest.NewRecorder()
	engine.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for login, got %d", resp.Code)
	}
}

func TestSetupProtectedRoutesRequireToken(t *testing.T) {
	engine := newEngine(model.RoleCustomer)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
	resp := httptest.NewRecorder()
	engine.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", resp.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	resp = httptest.NewRecorder()
	engine.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d", resp.Code)
	}
}

func TestSetupStaffRoutes(t *testing.T) {
	customer := newEngine(model.RoleCustomer)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/ORD_X/payment", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	resp := httptest.NewRecorder()
	customer.ServeHTTP(resp, req)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for customer on staff route, got %d", resp.Code)
	}

	staff := newEngine(model.RolePharmacist)
	req = httptest.NewRequest(http.MethodPost, "/api/v1/orders/ORD_X/payment", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	resp = httptest.NewRecorder()
	staff.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for pharmacist on staff route, got %d", resp.Code)
	}
}

func TestSetupCustomerOrderRoutes(t *testing.T) {
	engine := newEngine(model.RoleCustomer)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/ORD_X", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	resp := httptest.NewRecorder()
	engine.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for order read, got %d", resp.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/v1/orders/ORD_X/cancel", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	resp = httptest.NewRecorder()
	engine.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for cancel, got %d", resp.Code)
	}
}

var _ handlers.PharmacyFacade = (*testhelpers.PharmacyFacadeStub)(nil)
