package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"

	sagasqlite "github.com/brail/marketplace/internal/coordinator/sagalog/sqlite"
	"github.com/brail/marketplace/internal/marketplace/core/domain/entity"
	"github.com/brail/marketplace/internal/marketplace/core/services"
	"github.com/brail/marketplace/internal/marketplace/infra/adapters/payment"
	"github.com/brail/marketplace/internal/marketplace/infra/adapters/receipts"
	"github.com/brail/marketplace/internal/marketplace/infra/adapters/session"
	"github.com/brail/marketplace/internal/marketplace/infra/adapters/sqlstore"
	"github.com/brail/marketplace/internal/pkg/cache"
	"github.com/brail/marketplace/internal/pkg/events"
)

type HandlerTestSuite struct {
	suite.Suite
	store   *sqlstore.Store
	sagaLog *sagasqlite.Repository
	gateway *payment.FakeGateway
	router  http.Handler

	buyer      string
	buyerID    int64
	other      string
	admin      string
	logistics1 string
	logistics2 string
}

func TestHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(HandlerTestSuite))
}

func (s *HandlerTestSuite) SetupTest() {
	ctx := context.Background()
	dir := s.T().TempDir()

	store, err := sqlstore.Open(ctx, "sqlite", filepath.Join(dir, "m.db"))
	s.Require().NoError(err)
	s.Require().NoError(store.SeedCatalog(ctx))
	s.store = store
	s.sagaLog, err = sagasqlite.Open(filepath.Join(dir, "saga.db"))
	s.Require().NoError(err)

	c := cache.NewMemoryCache("marketplace-test")
	pub := events.NopPublisher{}
	s.gateway = payment.NewFakeGateway()
	auth := services.NewAuthService(store, session.NewStore(c), time.Hour).WithHashCost(bcrypt.MinCost)

	s.router = NewRouter(NewHandler(Services{
		Auth:     auth,
		Catalog:  services.NewCatalogService(store, c, time.Minute),
		Cart:     services.NewCartService(store, decimal.NewFromInt(10000)),
		Orders:   services.NewOrderService(store, pub, receipts.NewLocalStorage(filepath.Join(dir, "receipts")), s.sagaLog, c),
		Checkout: services.NewCheckoutService(store, pub, s.sagaLog, c),
		Payments: services.NewPaymentService(s.gateway),
		Samples:  services.NewSampleService(store, s.gateway, pub),
	}))

	s.buyer, s.buyerID = s.account(auth, "buyer@acme.com", "11222333000181", entity.RoleUser)
	s.other, _ = s.account(auth, "other@acme.com", "22333444000155", entity.RoleUser)
	s.admin, _ = s.account(auth, "admin@example.com", "00000000000191", entity.RoleAdmin)
	s.logistics1, _ = s.account(auth, "logistics1@example.com", "00000000000272", entity.RoleLogistics1)
	s.logistics2, _ = s.account(auth, "logistics2@example.com", "00000000000353", entity.RoleLogistics2)
}

func (s *HandlerTestSuite) TearDownTest() {
	_ = s.sagaLog.Close()
	_ = s.store.Close()
}

func (s *HandlerTestSuite) account(auth *services.AuthService, email, cnpj string, role entity.Role) (string, int64) {
	ctx := context.Background()
	u, err := auth.EnsureAccount(ctx, entity.Registration{
		Name: email, Email: email, Password: "password123", CNPJ: cnpj,
		Phone: "+55 11 90000-0000", EmployeeCount: "10-50", MonthlyRevenue: "100k",
	}, role)
	s.Require().NoError(err)
	sess, _, err := auth.Login(ctx, email, "password123")
	s.Require().NoError(err)
	return sess.Token, u.ID
}

func (s *HandlerTestSuite) do(method, path, token string, body any, headers ...string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decodeAs[T any](s *HandlerTestSuite, rec *httptest.ResponseRecorder) T {
	var v T
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func (s *HandlerTestSuite) cartID(token string) int64 {
	rec := s.do(http.MethodPost, "/api/cart/getCartId", token, map[string]any{})
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	return decodeAs[CartIDResponse](s, rec).CartID
}

func (s *HandlerTestSuite) addItem(token string, cartID int64, productID string, qty int) *httptest.ResponseRecorder {
	return s.do(http.MethodPost, "/api/cart/add_item", token, AddItemRequest{CartID: cartID, ProductID: productID, Quantity: qty})
}

func (s *HandlerTestSuite) checkout(cartID int64) OrderResponse {
	rec := s.do(http.MethodPost, "/api/order/checkout", s.buyer, CheckoutRequest{CartID: cartID, CustomerName: "Acme Ltda"})
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	return decodeAs[OrderResponse](s, rec)
}

func (s *HandlerTestSuite) TestHealthzAndRequestID() {
	rec := s.do(http.MethodGet, "/healthz", "", nil, "X-Request-Id", "req-42")
	s.Equal(http.StatusOK, rec.Code)
	s.Equal("req-42", rec.Header().Get("x-request-id"))
}

func (s *HandlerTestSuite) TestRegister() {
	body := RegisterRequest{
		Name: "New Co", Email: "new@co.com", Password: "secret1", CNPJ: "33.444.555/0001-66",
		Phone: "1", EmployeeCount: "1-9", MonthlyRevenue: "10k",
	}
	rec := s.do(http.MethodPost, "/api/auth/register", "", body)
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	u := decodeAs[UserResponse](s, rec)
	s.Equal("33444555000166", u.CNPJ)
	s.Equal("user", u.Role)

	rec = s.do(http.MethodPost, "/api/auth/register", "", body)
	s.Equal(http.StatusConflict, rec.Code)

	rec = s.do(http.MethodPost, "/api/auth/register", "", RegisterRequest{Email: "nope", Password: "123"})
	s.Require().Equal(http.StatusBadRequest, rec.Code)
	errResp := decodeAs[ErrorResponse](s, rec)
	s.Equal("invalid_request", errResp.Error)
	s.Equal("invalid format", errResp.Fields["email"])
	s.Equal("must be at least 6 characters", errResp.Fields["password"])
	s.Equal("required", errResp.Fields["employeeCount"])
}

func (s *HandlerTestSuite) TestLoginAndMe() {
	rec := s.do(http.MethodPost, "/api/auth/login", "", LoginRequest{Email: "buyer@acme.com", Password: "wrong"})
	s.Equal(http.StatusUnauthorized, rec.Code)

	rec = s.do(http.MethodPost, "/api/auth/login", "", LoginRequest{Email: "buyer@acme.com", Password: "password123"})
	s.Require().Equal(http.StatusOK, rec.Code)
	login := decodeAs[LoginResponse](s, rec)
	s.NotEmpty(login.Token)

	rec = s.do(http.MethodGet, "/api/auth/me", login.Token, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Equal(s.buyerID, decodeAs[UserResponse](s, rec).ID)

	s.Equal(http.StatusNoContent, s.do(http.MethodPost, "/api/auth/logout", login.Token, nil).Code)
	s.Equal(http.StatusUnauthorized, s.do(http.MethodGet, "/api/auth/me", login.Token, nil).Code)
	s.Equal(http.StatusUnauthorized, s.do(http.MethodGet, "/api/auth/me", "", nil).Code)
}

func (s *HandlerTestSuite) TestCatalogEndpoints() {
	rec := s.do(http.MethodGet, "/api/product/categories", "", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Len(decodeAs[[]CategoryResponse](s, rec), 7)

	rec = s.do(http.MethodGet, "/api/product/categories/1", "", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Len(decodeAs[[]ProductResponse](s, rec), 3)

	s.Equal(http.StatusNotFound, s.do(http.MethodGet, "/api/product/categories/42", "", nil).Code)

	rec = s.do(http.MethodGet, "/api/product/get_product/p-antenna-4k", "", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	detail := decodeAs[ProductDetailResponse](s, rec)
	s.Equal(50, detail.MOQ)
	s.Require().Len(detail.PriceTiers, 3)
	s.True(detail.PriceTiers[1].Price.Equal(decimal.RequireFromString("12.11")))
	s.Require().NotNil(detail.Supplier)
	s.Nil(detail.CostPrice)

	rec = s.do(http.MethodGet, "/api/product/search?q=&page=2&page_size=4", "", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	page := decodeAs[SearchResponse](s, rec)
	s.Equal(6, page.Total)
	s.Equal(2, page.TotalPages)
	s.Len(page.Items, 2)
}

func (s *HandlerTestSuite) TestCartFlow() {
	cartID := s.cartID(s.buyer)

	rec := s.addItem(s.buyer, cartID, "p-antenna-4k", 10)
	s.Require().Equal(http.StatusBadRequest, rec.Code)
	s.Equal("below_moq", decodeAs[ErrorResponse](s, rec).Error)

	rec = s.addItem(s.buyer, cartID, "p-antenna-4k", 50)
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	item := decodeAs[CartItemResponse](s, rec)

	path := "/api/cart/update_item/" + itoa(cartID) + "/" + itoa(item.ID)
	s.Equal(http.StatusBadRequest, s.do(http.MethodPut, path, s.buyer, UpdateItemRequest{Quantity: 49}).Code)
	rec = s.do(http.MethodPut, path, s.buyer, UpdateItemRequest{Quantity: 500})
	s.Require().Equal(http.StatusOK, rec.Code)
	s.True(decodeAs[CartItemResponse](s, rec).UnitPrice.Equal(decimal.RequireFromString("12.11")))

	rec = s.do(http.MethodGet, "/api/cart/get_cart_data/"+itoa(cartID), s.buyer, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	cart := decodeAs[CartResponse](s, rec)
	s.Require().Len(cart.Items, 1)
	s.Equal(50, cart.Items[0].MOQ)
	s.True(cart.Summary.TotalAmount.Equal(decimal.RequireFromString("6055")))
	s.True(cart.Summary.RemainingAmount.Equal(decimal.RequireFromString("3945")))

	s.Equal(http.StatusForbidden, s.do(http.MethodGet, "/api/cart/get_cart_data/"+itoa(cartID), s.other, nil).Code)
	s.Equal(http.StatusForbidden, s.do(http.MethodGet, "/api/cart/getCartId/"+itoa(s.buyerID), s.other, nil).Code)

	rec = s.do(http.MethodDelete, "/api/cart/item", s.buyer, RemoveItemRequest{CartID: cartID, ItemID: item.ID})
	s.Require().Equal(http.StatusNoContent, rec.Code)
	rec = s.do(http.MethodGet, "/api/cart/get_cart_data/"+itoa(cartID), s.buyer, nil)
	s.Empty(decodeAs[CartResponse](s, rec).Items)
}

func (s *HandlerTestSuite) TestClearCart() {
	cartID := s.cartID(s.buyer)
	s.Require().Equal(http.StatusCreated, s.addItem(s.buyer, cartID, "p-yoga-mat", 100).Code)
	s.Require().Equal(http.StatusCreated, s.addItem(s.buyer, cartID, "p-travel-mug", 200).Code)

	s.Equal(http.StatusNoContent, s.do(http.MethodDelete, "/api/cart/"+itoa(cartID), s.buyer, nil).Code)
	rec := s.do(http.MethodGet, "/api/cart/get_cart_data/"+itoa(cartID), s.buyer, nil)
	s.Empty(decodeAs[CartResponse](s, rec).Items)
}

func (s *HandlerTestSuite) TestCreateOrder_IdempotencyKeyHeader() {
	body := CreateOrderRequest{
		CustomerName: "Acme Ltda",
		Items:        []OrderItemRequest{{ProductID: "p-yoga-mat", ProductName: "Yoga Mat", Quantity: 100, Price: decimal.RequireFromString("11.20")}},
	}
	first := s.do(http.MethodPost, "/api/order/create", s.buyer, body, "X-Idempotency-Key", "k-1")
	s.Require().Equal(http.StatusCreated, first.Code, first.Body.String())
	second := s.do(http.MethodPost, "/api/order/create", s.buyer, body, "X-Idempotency-Key", "k-1")
	s.Require().Equal(http.StatusCreated, second.Code)
	s.Equal(decodeAs[OrderResponse](s, first).ID, decodeAs[OrderResponse](s, second).ID)

	rec := s.do(http.MethodPost, "/api/order/create", s.buyer, CreateOrderRequest{})
	s.Require().Equal(http.StatusBadRequest, rec.Code)
	fields := decodeAs[ErrorResponse](s, rec).Fields
	s.Contains(fields, "customer_name")
	s.Contains(fields, "items")

	body.UserID = s.buyerID + 1
	s.Equal(http.StatusForbidden, s.do(http.MethodPost, "/api/order/create", s.buyer, body).Code)
}

func (s *HandlerTestSuite) TestCheckoutAndTracking() {
	cartID := s.cartID(s.buyer)
	s.Require().Equal(http.StatusCreated, s.addItem(s.buyer, cartID, "p-antenna-4k", 500).Code)
	order := s.checkout(cartID)
	s.Equal("Pending", order.Status)
	s.Equal(1, order.StatusStep)
	s.Equal([]string{"approve", "reject"}, order.NextActions)

	rec := s.do(http.MethodPost, "/api/order/list", s.buyer, ListOrdersRequest{})
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Len(decodeAs[OrderListResponse](s, rec).Orders, 1)

	s.Equal(http.StatusOK, s.do(http.MethodGet, "/api/order/"+order.ID, s.buyer, nil).Code)
	s.Equal(http.StatusNotFound, s.do(http.MethodGet, "/api/order/"+order.ID, s.other, nil).Code)

	rec = s.do(http.MethodGet, "/api/order/"+order.ID+"/saga", s.buyer, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	history := decodeAs[[]SagaLogResponse](s, rec)
	s.Require().Len(history, 6)
	s.Equal("STARTED", history[0].Status)
	s.Equal("COMPLETED", history[5].Status)
}

func (s *HandlerTestSuite) TestBackOfficeLifecycle() {
	cartID := s.cartID(s.buyer)
	s.Require().Equal(http.StatusCreated, s.addItem(s.buyer, cartID, "p-yoga-mat", 100).Code)
	order := s.checkout(cartID)

	s.Equal(http.StatusForbidden, s.do(http.MethodGet, "/api/admin/orders", s.buyer, nil).Code)

	rec := s.do(http.MethodGet, "/api/admin/orders?tab=pending", s.admin, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Len(decodeAs[OrderListResponse](s, rec).Orders, 1)

	s.Equal(http.StatusBadRequest, s.do(http.MethodPost, "/api/admin/orders/"+order.ID+"/review", s.admin, ReviewRequest{Decision: "maybe"}).Code)
	rec = s.do(http.MethodPost, "/api/admin/orders/"+order.ID+"/review", s.admin, ReviewRequest{Decision: "approve"})
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	s.Equal("Processing", decodeAs[OrderResponse](s, rec).Status)

	s.Equal(http.StatusForbidden, s.do(http.MethodGet, "/api/logistics/orders?stage=processing", s.logistics2, nil).Code)
	rec = s.do(http.MethodGet, "/api/logistics/orders?stage=processing", s.logistics1, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Len(decodeAs[OrderListResponse](s, rec).Orders, 1)

	status := "/api/logistics/orders/" + order.ID + "/status"
	s.Equal(http.StatusBadRequest, s.do(http.MethodPut, status, s.logistics1, StatusActionRequest{Action: "teleport"}).Code)
	s.Equal(http.StatusConflict, s.do(http.MethodPut, status, s.logistics1, StatusActionRequest{Action: "arrive"}).Code)
	s.Equal(http.StatusForbidden, s.do(http.MethodPut, status, s.logistics2, StatusActionRequest{Action: "ship"}).Code)

	for _, step := range []struct {
		token, action, want string
	}{
		{s.logistics1, "ship", "Shipped"},
		{s.logistics1, "arrive", "Customs"},
		{s.logistics2, "reject", "Rejected"},
	} {
		rec = s.do(http.MethodPut, status, step.token, StatusActionRequest{Action: step.action, Reason: "damaged at customs"})
		s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
		s.Equal(step.want, decodeAs[OrderResponse](s, rec).Status)
	}

	rec = s.do(http.MethodGet, "/api/order/"+order.ID, s.buyer, nil)
	got := decodeAs[OrderResponse](s, rec)
	s.Equal(4, got.StatusStep)
	s.Equal("damaged at customs", got.RejectReason)
	s.False(got.StockReserved)
}

func (s *HandlerTestSuite) TestAdminCatalog() {
	rec := s.do(http.MethodGet, "/api/admin/products", s.admin, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	products := decodeAs[[]ProductResponse](s, rec)
	s.Len(products, 6)
	s.NotNil(products[0].CostPrice)

	rec = s.do(http.MethodGet, "/api/admin/suppliers", s.admin, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Len(decodeAs[[]SupplierResponse](s, rec), 3)
}

func (s *HandlerTestSuite) upload(orderID, filename string, content []byte) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("receipt", filename)
	s.Require().NoError(err)
	_, err = part.Write(content)
	s.Require().NoError(err)
	s.Require().NoError(mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/order/"+orderID+"/receipt", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+s.buyer)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *HandlerTestSuite) TestUploadReceipt() {
	cartID := s.cartID(s.buyer)
	s.Require().Equal(http.StatusCreated, s.addItem(s.buyer, cartID, "p-yoga-mat", 100).Code)
	order := s.checkout(cartID)

	s.Equal(http.StatusUnsupportedMediaType, s.upload(order.ID, "receipt.gif", []byte("GIF89a")).Code)
	s.Equal(http.StatusRequestEntityTooLarge, s.upload(order.ID, "receipt.pdf", bytes.Repeat([]byte("x"), entity.MaxReceiptSize+1)).Code)

	rec := s.upload(order.ID, "receipt.PDF", []byte("%PDF-1.4"))
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	s.True(decodeAs[OrderResponse](s, rec).HasReceipt)
}

func (s *HandlerTestSuite) TestPaymentsAndSamples() {
	rec := s.do(http.MethodPost, "/api/pay/secret", s.buyer, PaymentSecretRequest{Amount: 49})
	s.Equal(http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPost, "/api/pay/secret", s.buyer, PaymentSecretRequest{Amount: 4200})
	s.Require().Equal(http.StatusOK, rec.Code)
	intent := decodeAs[PaymentIntentResponse](s, rec)
	s.NotEmpty(intent.ClientSecret)
	s.Equal("brl", intent.Currency)

	rec = s.do(http.MethodGet, "/api/pay/status/"+intent.IntentID, s.buyer, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	status := decodeAs[PaymentIntentResponse](s, rec)
	s.Equal("processing", status.Status)
	s.Empty(status.ClientSecret)

	buy := SamplePurchaseRequest{ProductID: "p-smart-watch", PaymentIntentID: intent.IntentID}
	rec = s.do(http.MethodPost, "/api/sample/purchase", s.buyer, buy)
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	purchase := decodeAs[SamplePurchaseResponse](s, rec)
	s.Require().NotNil(purchase.Order)
	s.Equal("sample", purchase.Order.Kind)

	s.Equal(http.StatusConflict, s.do(http.MethodPost, "/api/sample/purchase", s.buyer, buy).Code)

	rec = s.do(http.MethodGet, "/api/sample/purchases", s.buyer, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Len(decodeAs[[]SamplePurchaseResponse](s, rec), 1)
}

func (s *HandlerTestSuite) TestSamplePurchase_UnpaidIntent() {
	rec := s.do(http.MethodPost, "/api/pay/secret", s.buyer, PaymentSecretRequest{Amount: 4200})
	s.Require().Equal(http.StatusOK, rec.Code)
	intent := decodeAs[PaymentIntentResponse](s, rec)
	s.gateway.SetStatus(intent.IntentID, entity.PaymentCanceled)

	rec = s.do(http.MethodPost, "/api/sample/purchase", s.buyer, SamplePurchaseRequest{ProductID: "p-smart-watch", PaymentIntentID: intent.IntentID})
	s.Equal(http.StatusPaymentRequired, rec.Code)
}

func (s *HandlerTestSuite) TestMalformedJSON() {
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader("{"))
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Contains(decodeAs[ErrorResponse](s, rec).Fields, "body")
}

func itoa(n int64) string { return strconv.FormatInt(n, 10) }
