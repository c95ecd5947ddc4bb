package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	domainErrors "github.com/medcart/medcart/internal/domain/errors"
	"github.com/medcart/medcart/internal/domain/model"
	pkgAuth "github.com/medcart/medcart/internal/pkg/auth"
	"github.com/medcart/medcart/internal/server/http/dto"
	"github.com/medcart/medcart/internal/server/http/middleware"
	testhelpers "github.com/medcart/medcart/internal/test"
	"github.com/medcart/medcart/internal/usecase"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func performRequest(t *testing.T, method, route, target string, handler gin.HandlerFunc, setup func(*gin.Context), body []byte, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	router := gin.New()
	router.Handle(method, route, func(c *gin.Context) {
		if setup != nil {
			setup(c)
		}
		handler(c)
	})

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func asActor(id uuid.UUID, role model.UserRole) func(*gin.Context) {
	return func(c *gin.Context) {
		c.Set(middleware.UserIDContextKey, id)
		c.Set(middleware.UserRoleContextKey, role)
	}
}

func jsonHeaders() map[string]string {
	return map[string]string{"Content-Type": "application/json"}
}

func TestCurrentActor(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	if got := CurrentActor(c); got.ID != uuid.Nil || got.Role != "" {
		t.Fatalf("expected zero actor when nothing set, got %+v", got)
	}

	id := uuid.New()
	c.Set(middleware.UserIDContextKey, id)
	c.Set(middleware.UserRoleContextKey, model.RoleAdmin)
	got := CurrentActor(c)
	if got.ID != id || got.Role != model.RoleAdmin {
		t.Fatalf("unexpected actor %+v", got)
	}
}

func TestAuthHandlerRegister(t *testing.T) {
	fullname := "Alice Smith"
	email := testhelpers.RandomASCIIString(5, 10) + "@example.com"
	password := testhelpers.RandomASCIIString(12, 20)
	body, _ := json.Marshal(dto.RegisterRequest{FullName: fullname, Email: email, Password: password})

	facade := testhelpers.AuthFacadeStub{RegisterFn: func(ctx context.Context, gotName, gotEmail, gotPassword string) (*model.User, pkgAuth.TokenPair, error) {
		if gotName != fullname || gotEmail != email || gotPassword != password {
			t.Fatalf("unexpected registration payload: %q %q %q", gotName, gotEmail, gotPassword)
		}
		return &model.User{ID: uuid.New(), FullName: gotName, Email: gotEmail, Role: model.RoleCustomer}, pkgAuth.TokenPair{AccessToken: "a", RefreshToken: "r"}, nil
	}}
	resp := performRequest(t, http.MethodPost, "/register", "/register", NewAuthHandler(facade).Register, nil, body, jsonHeaders())
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", resp.Code, resp.Body.String())
	}

	var out dto.AuthResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if out.AccessToken != "a" || out.RefreshToken != "r" {
		t.Fatalf("tokens missing in response: %+v", out)
	}
	if out.User.Email != email {
		t.Fatalf("user missing in response: %+v", out.User)
	}
}

func TestAuthHandlerRegisterDuplicate(t *testing.T) {
	body, _ := json.Marshal(dto.RegisterRequest{FullName: "Bob", Email: "bob@example.com", Password: "secretsecret"})
	facade := testhelpers.AuthFacadeStub{RegisterFn: func(context.Context, string, string, string) (*model.User, pkgAuth.TokenPair, error) {
		return nil, pkgAuth.TokenPair{}, domainErrors.ErrAlreadyExists
	}}
	resp := performRequest(t, http.MethodPost, "/register", "/register", NewAuthHandler(facade).Register, nil, body, jsonHeaders())
	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.Code)
	}
	var out dto.ErrorResponse
	_ = json.Unmarshal(resp.Body.Bytes(), &out)
	if out.Error != "duplicate_email" {
		t.Fatalf("unexpected error kind %q", out.Error)
	}
}

func TestAuthHandlerRegisterMalformedBody(t *testing.T) {
	resp := performRequest(t, http.MethodPost, "/register", "/register", NewAuthHandler(testhelpers.AuthFacadeStub{}).Register, nil, []byte(`{"email":`), jsonHeaders())
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestAuthHandlerLoginFailure(t *testing.T) {
	body, _ := json.Marshal(dto.LoginRequest{Email: "x@example.com", Password: "wrong"})
	facade := testhelpers.AuthFacadeStub{AuthenticateFn: func(context.Context, string, string) (*model.User, pkgAuth.TokenPair, error) {
		return nil, pkgAuth.TokenPair{}, domainErrors.ErrInvalidCredentials
	}}
	resp := performRequest(t, http.MethodPost, "/login", "/login", NewAuthHandler(facade).Login, nil, body, jsonHeaders())
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}
}

func TestAuthHandlerRefresh(t *testing.T) {
	body, _ := json.Marshal(dto.RefreshRequest{RefreshToken: "refresh-token"})
	facade := testhelpers.AuthFacadeStub{RefreshTokensFn: func(ctx context.Context, token string) (pkgAuth.TokenPair, error) {
		if token != "refresh-token" {
			t.Fatalf("unexpected token %q", token)
		}
		return pkgAuth.TokenPair{AccessToken: "new-access", RefreshToken: "new-refresh"}, nil
	}}
	resp := performRequest(t, http.MethodPost, "/refresh", "/refresh", NewAuthHandler(facade).Refresh, nil, body, jsonHeaders())
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var out dto.TokenResponse
	_ = json.Unmarshal(resp.Body.Bytes(), &out)
	if out.AccessToken != "new-access" || out.TokenType != "bearer" {
		t.Fatalf("unexpected response %+v", out)
	}
}

func TestAuthHandlerRefreshInvalid(t *testing.T) {
	body, _ := json.Marshal(dto.RefreshRequest{RefreshToken: "expired"})
	facade := testhelpers.AuthFacadeStub{RefreshTokensFn: func(context.Context, string) (pkgAuth.TokenPair, error) {
		return pkgAuth.TokenPair{}, pkgAuth.ErrInvalidToken
	}}
	resp := performRequest(t, http.MethodPost, "/refresh", "/refresh", NewAuthHandler(facade).Refresh, nil, body, jsonHeaders())
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}
}

func TestProfileHandlerMe(t *testing.T) {
	userID := uuid.New()
	facade := testhelpers.ProfileFacadeStub{}
	resp := performRequest(t, http.MethodGet, "/me", "/me", NewProfileHandler(facade).Me, asActor(userID, model.RoleCustomer), nil, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var out dto.UserResponse
	_ = json.Unmarshal(resp.Body.Bytes(), &out)
	if out.ID != userID.String() {
		t.Fatalf("expected own profile, got %q", out.ID)
	}
}

func TestProfileHandlerChangePasswordWrongCurrent(t *testing.T) {
	body, _ := json.Marshal(dto.ChangePasswordRequest{CurrentPassword: "wrong", NewPassword: "new-password"})
	facade := testhelpers.ProfileFacadeStub{ChangePasswordFn: func(context.Context, uuid.UUID, string, string) error {
		return domainErrors.ErrInvalidCredentials
	}}
	resp := performRequest(t, http.MethodPut, "/me/password", "/me/password", NewProfileHandler(facade).ChangePassword, asActor(uuid.New(), model.RoleCustomer), body, jsonHeaders())
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}
}

func TestProfileHandlerDelete(t *testing.T) {
	userID := uuid.New()
	deleted := uuid.Nil
	facade := testhelpers.ProfileFacadeStub{DeleteAccountFn: func(ctx context.Context, id uuid.UUID) error {
		deleted = id
		return nil
	}}
	resp := performRequest(t, http.MethodDelete, "/me", "/me", NewProfileHandler(facade).Delete, asActor(userID, model.RoleCustomer), nil, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if deleted != userID {
		t.Fatalf("deleted wrong account %s", deleted)
	}
}

func TestOrderHandlerCreate(t *testing.T) {
	userID := uuid.New()
	body, _ := json.Marshal(dto.CreateOrderRequest{
		Items:           []dto.OrderItemRequest{{MedicationName: "Amoxicillin", Dosage: "500mg", Quantity: 2, UnitPrice: 10}},
		DeliveryAddress: "1 Main St",
	})

	facade := testhelpers.OrderFacadeStub{CreateOrderFn: func(ctx context.Context, gotUser uuid.UUID, items []usecase.NewOrderItem, address, notes string, prescriptionRequired bool) (*model.Order, error) {
		if gotUser != userID {
			t.Fatalf("order attributed to wrong user %s", gotUser)
		}
		if !prescriptionRequired {
			t.Fatal("prescription requirement must default to true")
		}
		if len(items) != 1 || items[0].MedicationName != "Amoxicillin" {
			t.Fatalf("items lost: %+v", items)
		}
		return testhelpers.StubOrder(gotUser, model.OrderStatusPending), nil
	}}
	resp := performRequest(t, http.MethodPost, "/orders", "/orders", NewOrderHandler(facade).Create, asActor(userID, model.RoleCustomer), body, jsonHeaders())
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.Code, resp.Body.String())
	}
	var out dto.OrderResponse
	_ = json.Unmarshal(resp.Body.Bytes(), &out)
	if out.Status != "pending" || out.TotalAmount != 105 {
		t.Fatalf("unexpected order response %+v", out)
	}
}

func TestOrderHandlerCreateValidation(t *testing.T) {
	setup := asActor(uuid.New(), model.RoleCustomer)

	empty, _ := json.Marshal(dto.CreateOrderRequest{DeliveryAddress: "1 Main St"})
	resp := performRequest(t, http.MethodPost, "/orders", "/orders", NewOrderHandler(testhelpers.OrderFacadeStub{}).Create, setup, empty, jsonHeaders())
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("empty medications: expected 400, got %d", resp.Code)
	}

	invalid, _ := json.Marshal(dto.CreateOrderRequest{
		Items:           []dto.OrderItemRequest{{MedicationName: "X", Quantity: 1}},
		DeliveryAddress: "1 Main St",
	})
	rejecting := testhelpers.OrderFacadeStub{CreateOrderFn: func(context.Context, uuid.UUID, []usecase.NewOrderItem, string, string, bool) (*model.Order, error) {
		return nil, domainErrors.ErrInvalidOrder
	}}
	resp = performRequest(t, http.MethodPost, "/orders", "/orders", NewOrderHandler(rejecting).Create, setup, invalid, jsonHeaders())
	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("rejected order: expected 422, got %d", resp.Code)
	}
}

func TestOrderHandlerGetForbidden(t *testing.T) {
	facade := testhelpers.OrderFacadeStub{OrderFn: func(context.Context, usecase.Actor, string) (*model.Order, error) {
		return nil, domainErrors.ErrForbidden
	}}
	resp := performRequest(t, http.MethodGet, "/orders/:orderID", "/orders/ORD_X", NewOrderHandler(facade).Get, asActor(uuid.New(), model.RoleCustomer), nil, nil)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.Code)
	}
}

func TestOrderHandlerListByUser(t *testing.T) {
	userID := uuid.New()
	facade := testhelpers.OrderFacadeStub{OrdersByUserFn: func(ctx context.Context, actor usecase.Actor, gotUser uuid.UUID, skip, limit int) ([]model.Order, error) {
		if gotUser != userID || skip != 5 || limit != 20 {
			t.Fatalf("pagination lost: user=%s skip=%d limit=%d", gotUser, skip, limit)
		}
		return []model.Order{*testhelpers.StubOrder(userID, model.OrderStatusPending)}, nil
	}}
	resp := performRequest(t, http.MethodGet, "/users/:userID/orders", "/users/"+userID.String()+"/orders?skip=5&limit=20",
		NewOrderHandler(facade).ListByUser, asActor(userID, model.RoleCustomer), nil, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var out dto.OrderListResponse
	_ = json.Unmarshal(resp.Body.Bytes(), &out)
	if out.TotalOrders != 1 || out.UserID != userID.String() {
		t.Fatalf("unexpected list response %+v", out)
	}
}

func TestOrderHandlerListByUserBadID(t *testing.T) {
	resp := performRequest(t, http.MethodGet, "/users/:userID/orders", "/users/not-a-uuid/orders",
		NewOrderHandler(testhelpers.OrderFacadeStub{}).ListByUser, asActor(uuid.New(), model.RoleCustomer), nil, nil)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func multipartBody(t *testing.T, field, filename, contentType, content string) ([]byte, string) {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	header := make(map[string][]string)
	header["Content-Disposition"] = []string{`form-data; name="` + field + `"; filename="` + filename + `"`}
	header["Content-Type"] = []string{contentType}
	part, err := writer.CreatePart(header)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	if _, err := part.Write([]byte(content)); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return buf.Bytes(), writer.FormDataContentType()
}

func TestOrderHandlerUploadPrescription(t *testing.T) {
	userID := uuid.New()
	body, contentType := multipartBody(t, "prescription", "rx.pdf", "application/pdf", "%PDF-1.4")

	facade := testhelpers.OrderFacadeStub{UploadPrescriptionFn: func(ctx context.Context, actor usecase.Actor, orderID, filename, ct string, document io.Reader) (*model.Order, error) {
		if orderID != "ORD_X" {
			t.Fatalf("order id lost: %q", orderID)
		}
		if filename != "rx.pdf" || ct != "application/pdf" {
			t.Fatalf("file metadata lost: %q %q", filename, ct)
		}
		data, _ := io.ReadAll(document)
		if string(data) != "%PDF-1.4" {
			t.Fatalf("document content lost: %q", data)
		}
		order := testhelpers.StubOrder(actor.ID, model.OrderStatusPrescriptionUploaded)
		order.ID = orderID
		return order, nil
	}}
	resp := performRequest(t, http.MethodPost, "/orders/:orderID/prescription", "/orders/ORD_X/prescription",
		NewOrderHandler(facade).UploadPrescription, asActor(userID, model.RoleCustomer), body, map[string]string{"Content-Type": contentType})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestOrderHandlerUploadUnsupportedType(t *testing.T) {
	body, contentType := multipartBody(t, "prescription", "rx.gif", "image/gif", "GIF89a")
	facade := testhelpers.OrderFacadeStub{UploadPrescriptionFn: func(context.Context, usecase.Actor, string, string, string, io.Reader) (*model.Order, error) {
		return nil, domainErrors.ErrUnsupportedFileType
	}}
	resp := performRequest(t, http.MethodPost, "/orders/:orderID/prescription", "/orders/ORD_X/prescription",
		NewOrderHandler(facade).UploadPrescription, asActor(uuid.New(), model.RoleCustomer), body, map[string]string{"Content-Type": contentType})
	if resp.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("expected 415, got %d", resp.Code)
	}
}

func TestOrderHandlerUploadMissingFile(t *testing.T) {
	resp := performRequest(t, http.MethodPost, "/orders/:orderID/prescription", "/orders/ORD_X/prescription",
		NewOrderHandler(testhelpers.OrderFacadeStub{}).UploadPrescription, asActor(uuid.New(), model.RoleCustomer), []byte("not multipart"), jsonHeaders())
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestOrderHandlerCancelConflicts(t *testing.T) {
	terminal := testhelpers.OrderFacadeStub{CancelOrderFn: func(context.Context, usecase.Actor, string) (*model.Order, error) {
		return nil, domainErrors.ErrOrderTerminal
	}}
	resp := performRequest(t, http.MethodPost, "/orders/:orderID/cancel", "/orders/ORD_X/cancel",
		NewOrderHandler(terminal).Cancel, asActor(uuid.New(), model.RoleCustomer), nil, nil)
	if resp.Code != http.StatusConflict {
		t.Fatalf("terminal: expected 409, got %d", resp.Code)
	}

	racing := testhelpers.OrderFacadeStub{CancelOrderFn: func(context.Context, usecase.Actor, string) (*model.Order, error) {
		return nil, domainErrors.ErrStateConflict
	}}
	resp = performRequest(t, http.MethodPost, "/orders/:orderID/cancel", "/orders/ORD_X/cancel",
		NewOrderHandler(racing).Cancel, asActor(uuid.New(), model.RoleCustomer), nil, nil)
	if resp.Code != http.StatusConflict {
		t.Fatalf("race: expected 409, got %d", resp.Code)
	}
	var out dto.ErrorResponse
	_ = json.Unmarshal(resp.Body.Bytes(), &out)
	if out.Error != "state_conflict" {
		t.Fatalf("unexpected error kind %q", out.Error)
	}
}

func TestOrderHandlerFulfillmentEndpoints(t *testing.T) {
	handler := NewOrderHandler(testhelpers.OrderFacadeStub{})
	setup := asActor(uuid.New(), model.RolePharmacist)

	cases := []struct {
		name       string
		fn         gin.HandlerFunc
		wantStatus string
	}{
		{"payment", handler.ConfirmPayment, "paid"},
		{"fulfillment", handler.StartFulfillment, "processing"},
		{"delivery", handler.ConfirmDelivery, "delivered"},
	}
	for _, tc := range cases {
		resp := performRequest(t, http.MethodPost, "/orders/:orderID/"+tc.name, "/orders/ORD_X/"+tc.name, tc.fn, setup, nil, nil)
		if resp.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", tc.name, resp.Code)
		}
		var out dto.OrderResponse
		_ = json.Unmarshal(resp.Body.Bytes(), &out)
		if out.Status != tc.wantStatus {
			t.Fatalf("%s: status = %q, want %q", tc.name, out.Status, tc.wantStatus)
		}
	}
}

func TestRespondErrorUnknown(t *testing.T) {
	facade := testhelpers.OrderFacadeStub{OrderFn: func(context.Context, usecase.Actor, string) (*model.Order, error) {
		return nil, errors.New("pool exhausted")
	}}
	resp := performRequest(t, http.MethodGet, "/orders/:orderID", "/orders/ORD_X",
		NewOrderHandler(facade).Get, asActor(uuid.New(), model.RoleCustomer), nil, nil)
	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.Code)
	}
}
