package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"

	"github.com/brail/marketplace/internal/coordinator/sagalog"
	sagasqlite "github.com/brail/marketplace/internal/coordinator/sagalog/sqlite"
	"github.com/brail/marketplace/internal/marketplace/core/domain/entity"
	"github.com/brail/marketplace/internal/marketplace/core/ports"
	"github.com/brail/marketplace/internal/marketplace/infra/adapters/payment"
	"github.com/brail/marketplace/internal/marketplace/infra/adapters/receipts"
	"github.com/brail/marketplace/internal/marketplace/infra/adapters/session"
	"github.com/brail/marketplace/internal/marketplace/infra/adapters/sqlstore"
	"github.com/brail/marketplace/internal/pkg/cache"
	"github.com/brail/marketplace/internal/pkg/events"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.OrderEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev events.OrderEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

type ServicesTestSuite struct {
	suite.Suite
	ctx       context.Context
	store     *sqlstore.Store
	sagaLog   *sagasqlite.Repository
	cache     cache.Cache
	publisher *recordingPublisher
	gateway   *payment.FakeGateway

	auth     *AuthService
	catalog  *CatalogService
	cart     *CartService
	orders   *OrderService
	checkout *CheckoutService
	payments *PaymentService
	samples  *SampleService

	buyer *entity.User
	admin ports.Session
	log1  ports.Session
	log2  ports.Session
}

func TestServicesTestSuite(t *testing.T) {
	suite.Run(t, new(ServicesTestSuite))
}

func (s *ServicesTestSuite) SetupTest() {
	s.ctx = context.Background()
	dir := s.T().TempDir()

	store, err := sqlstore.Open(s.ctx, "sqlite", filepath.Join(dir, "m.db"))
	s.Require().NoError(err)
	s.Require().NoError(store.SeedCatalog(s.ctx))
	s.store = store

	s.sagaLog, err = sagasqlite.Open(filepath.Join(dir, "saga.db"))
	s.Require().NoError(err)

	s.cache = cache.NewMemoryCache("marketplace")
	s.publisher = &recordingPublisher{}
	s.gateway = payment.NewFakeGateway()

	s.auth = NewAuthService(store, session.NewStore(s.cache), time.Hour).WithHashCost(bcrypt.MinCost)
	s.catalog = NewCatalogService(store, s.cache, time.Minute)
	s.cart = NewCartService(store, decimal.NewFromInt(10000))
	s.orders = NewOrderService(store, s.publisher, receipts.NewLocalStorage(filepath.Join(dir, "receipts")), s.sagaLog, s.cache)
	s.checkout = NewCheckoutService(store, s.publisher, s.sagaLog, s.cache)
	s.payments = NewPaymentService(s.gateway)
	s.samples = NewSampleService(store, s.gateway, s.publisher)

	s.buyer, err = s.auth.Register(s.ctx, entity.Registration{
		Name: "Acme Ltda", Email: " Buyer@Acme.com ", Password: "password123",
		CNPJ: "11.222.333/0001-81", Phone: "+55 11 99999-0000", EmployeeCount: "10-50", MonthlyRevenue: "100k",
	})
	s.Require().NoError(err)

	s.admin = ports.Session{UserID: 100, Role: entity.RoleAdmin}
	s.log1 = ports.Session{UserID: 101, Role: entity.RoleLogistics1}
	s.log2 = ports.Session{UserID: 102, Role: entity.RoleLogistics2}
}

func (s *ServicesTestSuite) TearDownTest() {
	_ = s.sagaLog.Close()
	_ = s.store.Close()
}

func (s *ServicesTestSuite) buyerSession() ports.Session {
	return ports.Session{UserID: s.buyer.ID, Role: entity.RoleUser}
}

func (s *ServicesTestSuite) reserved(productID string) (stock, reserved int) {
	p, err := s.store.GetProduct(s.ctx, productID)
	s.Require().NoError(err)
	return p.StockQuantity, p.ReservedQuantity
}

// --- auth ---

func (s *ServicesTestSuite) TestRegister_NormalizesAndRejectsDuplicates() {
	s.Equal("buyer@acme.com", s.buyer.Email)
	s.Equal("11222333000181", s.buyer.CNPJ)
	s.Equal(entity.RoleUser, s.buyer.Role)

	_, err := s.auth.Register(s.ctx, entity.Registration{
		Name: "Other", Email: "buyer@acme.com", Password: "password123",
		CNPJ: "99888777000166", Phone: "1", EmployeeCount: "1", MonthlyRevenue: "1",
	})
	s.ErrorIs(err, entity.ErrConflict)

	_, err = s.auth.Register(s.ctx, entity.Registration{Email: "bad"})
	s.ErrorIs(err, entity.ErrValidation)
}

func (s *ServicesTestSuite) TestLoginAuthenticateLogout() {
	_, _, err := s.auth.Login(s.ctx, "buyer@acme.com", "wrong-password")
	s.ErrorIs(err, entity.ErrInvalidCredentials)
	_, _, err = s.auth.Login(s.ctx, "nobody@acme.com", "password123")
	s.ErrorIs(err, entity.ErrInvalidCredentials)

	sess, u, err := s.auth.Login(s.ctx, "BUYER@acme.com", "password123")
	s.Require().NoError(err)
	s.Equal(s.buyer.ID, u.ID)

	got, err := s.auth.Authenticate(s.ctx, sess.Token)
	s.Require().NoError(err)
	s.Equal(s.buyer.ID, got.UserID)
	s.Equal(entity.RoleUser, got.Role)

	s.Require().NoError(s.auth.Logout(s.ctx, sess.Token))
	_, err = s.auth.Authenticate(s.ctx, sess.Token)
	s.ErrorIs(err, entity.ErrUnauthenticated)
	_, err = s.auth.Authenticate(s.ctx, "")
	s.ErrorIs(err, entity.ErrUnauthenticated)
}

func (s *ServicesTestSuite) TestEnsureAccount_IsIdempotent() {
	reg := entity.Registration{
		Name: "Admin", Email: "admin@example.com", Password: "admin123",
		CNPJ: "00000000000191", Phone: "-", EmployeeCount: "-", MonthlyRevenue: "-",
	}
	first, err := s.auth.EnsureAccount(s.ctx, reg, entity.RoleAdmin)
	s.Require().NoError(err)
	second, err := s.auth.EnsureAccount(s.ctx, reg, entity.RoleAdmin)
	s.Require().NoError(err)
	s.Equal(first.ID, second.ID)
	s.Equal(entity.RoleAdmin, second.Role)
}

// --- catalog ---

func (s *ServicesTestSuite) TestCatalog_CategoriesAreCached() {
	cats, err := s.catalog.Categories(s.ctx)
	s.Require().NoError(err)
	s.Len(cats, 7)

	raw, err := s.cache.Get(s.ctx, s.cache.GenerateKey("catalog", "categories"))
	s.Require().NoError(err)
	s.Contains(raw, "Electronics")

	again, err := s.catalog.Categories(s.ctx)
	s.Require().NoError(err)
	s.Equal(cats, again)
}

func (s *ServicesTestSuite) TestCatalog_ProductsAndDetail() {
	products, err := s.catalog.ProductsByCategory(s.ctx, "1")
	s.Require().NoError(err)
	s.Len(products, 3)

	_, err = s.catalog.ProductsByCategory(s.ctx, "99")
	s.ErrorIs(err, entity.ErrNotFound)

	d, err := s.catalog.ProductDetail(s.ctx, "p-antenna-4k")
	s.Require().NoError(err)
	s.Require().NotNil(d.Supplier)
	s.Equal("Shenzhen Signal Tech", d.Supplier.Name)
	s.Len(d.Product.PriceTiers, 3)
}

func (s *ServicesTestSuite) TestCatalog_SearchPages() {
	page, err := s.catalog.Search(s.ctx, "", 2, 4)
	s.Require().NoError(err)
	s.Equal(6, page.Total)
	s.Equal(2, page.TotalPages)
	s.Len(page.Items, 2)

	page, err = s.catalog.Search(s.ctx, "watch", 0, 0)
	s.Require().NoError(err)
	s.Equal(1, page.Page)
	s.Equal(DefaultPageSize, page.PageSize)
	s.Equal(1, page.Total)
}

func (s *ServicesTestSuite) TestTotalPages() {
	s.Equal(1, TotalPages(0, 8))
	s.Equal(1, TotalPages(8, 8))
	s.Equal(2, TotalPages(9, 8))
	s.Equal(3, TotalPages(17, 8))
}

// --- cart ---

func (s *ServicesTestSuite) TestCart_AddMergesAndReprices() {
	cartID, err := s.cart.GetCartID(s.ctx, s.buyer.ID)
	s.Require().NoError(err)

	item, err := s.cart.AddItem(s.ctx, cartID, "p-antenna-4k", 400)
	s.Require().NoError(err)
	s.True(item.UnitPrice.Equal(decimal.RequireFromString("13.63")))

	merged, err := s.cart.AddItem(s.ctx, cartID, "p-antenna-4k", 200)
	s.Require().NoError(err)
	s.Equal(item.ID, merged.ID)
	s.Equal(600, merged.Quantity)
	s.True(merged.UnitPrice.Equal(decimal.RequireFromString("12.11")))

	view, err := s.cart.CartData(s.ctx, cartID)
	s.Require().NoError(err)
	s.Require().Len(view.Lines, 1)
	s.True(view.Summary.TotalAmount.Equal(decimal.RequireFromString("7266")))
	s.Equal(600, view.Summary.TotalUnits)
	s.True(view.Summary.RemainingAmount.Equal(decimal.RequireFromString("2734")))
}

func (s *ServicesTestSuite) TestCart_QuantityNeverBelowMOQ() {
	cartID, err := s.cart.GetCartID(s.ctx, s.buyer.ID)
	s.Require().NoError(err)

	_, err = s.cart.AddItem(s.ctx, cartID, "p-antenna-4k", 49)
	s.ErrorIs(err, entity.ErrBelowMOQ)

	item, err := s.cart.AddItem(s.ctx, cartID, "p-antenna-4k", 50)
	s.Require().NoError(err)

	_, err = s.cart.UpdateItem(s.ctx, cartID, item.ID, 10)
	s.ErrorIs(err, entity.ErrBelowMOQ)

	got, err := s.store.GetCartItem(s.ctx, item.ID)
	s.Require().NoError(err)
	s.Equal(50, got.Quantity)

	updated, err := s.cart.UpdateItem(s.ctx, cartID, item.ID, 5000)
	s.Require().NoError(err)
	s.True(updated.UnitPrice.Equal(decimal.RequireFromString("9.09")))
}

func (s *ServicesTestSuite) TestCart_OwnershipAndRemoval() {
	cartID, err := s.cart.GetCartID(s.ctx, s.buyer.ID)
	s.Require().NoError(err)

	_, err = s.cart.Owned(s.ctx, cartID, s.buyer.ID+1)
	s.ErrorIs(err, entity.ErrForbidden)
	_, err = s.cart.GetCartID(s.ctx, 999)
	s.ErrorIs(err, entity.ErrNotFound)

	a, err := s.cart.AddItem(s.ctx, cartID, "p-yoga-mat", 100)
	s.Require().NoError(err)
	b, err := s.cart.AddItem(s.ctx, cartID, "p-travel-mug", 200)
	s.Require().NoError(err)

	s.ErrorIs(s.cart.RemoveItem(s.ctx, cartID+1, a.ID), entity.ErrNotFound)
	s.Require().NoError(s.cart.RemoveItem(s.ctx, cartID, a.ID))

	view, err := s.cart.CartData(s.ctx, cartID)
	s.Require().NoError(err)
	s.Require().Len(view.Lines, 1)
	s.Equal(b.ID, view.Lines[0].Item.ID)

	s.Require().NoError(s.cart.Clear(s.ctx, cartID))
	view, err = s.cart.CartData(s.ctx, cartID)
	s.Require().NoError(err)
	s.Empty(view.Lines)

	_, err = s.cart.CartData(s.ctx, 12345)
	s.ErrorIs(err, entity.ErrNotFound)
}

// --- orders ---

func (s *ServicesTestSuite) newOrderInput() entity.NewOrderInput {
	return entity.NewOrderInput{
		UserID:       s.buyer.ID,
		CustomerName: "Acme Ltda",
		Items: []entity.OrderItem{
			{ProductID: "p-yoga-mat", ProductName: "Yoga Mat", Quantity: 100, Price: decimal.RequireFromString("11.20")},
		},
	}
}

func (s *ServicesTestSuite) TestOrderCreate_IdempotencyKey() {
	first, err := s.orders.Create(s.ctx, s.newOrderInput(), "key-1")
	s.Require().NoError(err)
	s.Equal(entity.StatusPending, first.Status)
	s.True(first.TotalAmount.Equal(decimal.NewFromInt(1120)))

	again, err := s.orders.Create(s.ctx, s.newOrderInput(), "key-1")
	s.Require().NoError(err)
	s.Equal(first.ID, again.ID)

	other, err := s.orders.Create(s.ctx, s.newOrderInput(), "")
	s.Require().NoError(err)
	s.NotEqual(first.ID, other.ID)

	list, err := s.orders.List(s.ctx, s.buyer.ID)
	s.Require().NoError(err)
	s.Len(list, 2)
	s.Equal([]string{events.TypeOrderCreated, events.TypeOrderCreated}, s.publisher.types())
}

func (s *ServicesTestSuite) TestOrderCreate_ConcurrentSameKeyCreatesOnce() {
	const n = 8
	var (
		wg     sync.WaitGroup
		orders [n]*entity.Order
		errs   [n]error
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			orders[i], errs[i] = s.orders.Create(s.ctx, s.newOrderInput(), "key-race")
		}(i)
	}
	wg.Wait()

	ids := map[string]bool{}
	for i, err := range errs {
		if err != nil {
			s.ErrorIs(err, entity.ErrConflict)
			continue
		}
		ids[orders[i].ID] = true
	}
	s.Len(ids, 1)

	list, err := s.orders.List(s.ctx, s.buyer.ID)
	s.Require().NoError(err)
	s.Len(list, 1)
}

func (s *ServicesTestSuite) TestOrderCreate_KeyInProgressConflicts() {
	key := s.cache.GenerateKey("idempotency", fmt.Sprintf("%d:%s", s.buyer.ID, "busy"))
	s.Require().NoError(s.cache.Set(s.ctx, key, idempotencyPending, time.Minute))

	_, err := s.orders.Create(s.ctx, s.newOrderInput(), "busy")
	s.ErrorIs(err, entity.ErrConflict)

	list, err := s.orders.List(s.ctx, s.buyer.ID)
	s.Require().NoError(err)
	s.Empty(list)
}

func (s *ServicesTestSuite) TestOrderCreate_Validation() {
	_, err := s.orders.Create(s.ctx, entity.NewOrderInput{}, "")
	var v *entity.ValidationError
	s.Require().ErrorAs(err, &v)
	s.Contains(v.Fields, "user_id")
	s.Contains(v.Fields, "customer_name")
	s.Contains(v.Fields, "items")
}

func (s *ServicesTestSuite) TestAdvance_FullLifecycleWithRoles() {
	o, err := s.orders.Create(s.ctx, s.newOrderInput(), "")
	s.Require().NoError(err)

	_, err = s.orders.Advance(s.ctx, s.log1, o.ID, entity.ActionApprove, "")
	s.ErrorIs(err, entity.ErrForbidden)

	o, err = s.orders.Review(s.ctx, s.admin, o.ID, true, "")
	s.Require().NoError(err)
	s.Equal(entity.StatusProcessing, o.Status)

	for _, step := range []struct {
		actor  ports.Session
		action entity.Action
		want   entity.OrderStatus
	}{
		{s.log1, entity.ActionShip, entity.StatusShipped},
		{s.log1, entity.ActionArrive, entity.StatusCustoms},
		{s.log2, entity.ActionClear, entity.StatusCleared},
		{s.log2, entity.ActionDeliver, entity.StatusDelivered},
	} {
		o, err = s.orders.Advance(s.ctx, step.actor, o.ID, step.action, "")
		s.Require().NoError(err)
		s.Equal(step.want, o.Status)
	}
	s.Equal(6, o.StatusStep)

	_, err = s.orders.Advance(s.ctx, s.log2, o.ID, entity.ActionReject, "late")
	s.ErrorIs(err, entity.ErrForbidden)

	s.Len(s.publisher.events, 6)
	last := s.publisher.events[5]
	s.Equal(events.TypeOrderStatusChanged, last.Type)
	s.Equal("Cleared", last.PreviousStatus)
	s.Equal("Delivered", last.Status)
}

func (s *ServicesTestSuite) TestQueue_Visibility() {
	o, err := s.orders.Create(s.ctx, s.newOrderInput(), "")
	s.Require().NoError(err)

	pending, err := s.orders.Queue(s.ctx, entity.RoleAdmin, entity.QueuePending)
	s.Require().NoError(err)
	s.Require().Len(pending, 1)
	s.Equal(o.ID, pending[0].ID)

	_, err = s.orders.Queue(s.ctx, entity.RoleLogistics2, entity.QueueProcessing)
	s.ErrorIs(err, entity.ErrForbidden)

	_, err = s.orders.Queue(s.ctx, entity.RoleAdmin, "bogus")
	s.ErrorIs(err, entity.ErrValidation)
}

func (s *ServicesTestSuite) TestVisible_HidesOtherUsersOrders() {
	o, err := s.orders.Create(s.ctx, s.newOrderInput(), "")
	s.Require().NoError(err)

	_, err = s.orders.Visible(s.ctx, ports.Session{UserID: s.buyer.ID + 1, Role: entity.RoleUser}, o.ID)
	s.ErrorIs(err, entity.ErrNotFound)

	got, err := s.orders.Visible(s.ctx, s.admin, o.ID)
	s.Require().NoError(err)
	s.Equal(o.ID, got.ID)
}

func (s *ServicesTestSuite) TestAttachReceipt() {
	o, err := s.orders.Create(s.ctx, s.newOrderInput(), "")
	s.Require().NoError(err)

	_, err = s.orders.AttachReceipt(s.ctx, s.buyer.ID, o.ID, "pix.gif", []byte("x"))
	s.ErrorIs(err, entity.ErrReceiptType)
	_, err = s.orders.AttachReceipt(s.ctx, s.buyer.ID, o.ID, "pix.pdf", make([]byte, entity.MaxReceiptSize+1))
	s.ErrorIs(err, entity.ErrReceiptTooLarge)
	_, err = s.orders.AttachReceipt(s.ctx, s.buyer.ID+1, o.ID, "pix.pdf", []byte("x"))
	s.ErrorIs(err, entity.ErrNotFound)

	got, err := s.orders.AttachReceipt(s.ctx, s.buyer.ID, o.ID, "PIX.PDF", []byte("%PDF"))
	s.Require().NoError(err)
	s.Contains(got.ReceiptPath, o.ID)

	stored, err := s.orders.Get(s.ctx, o.ID)
	s.Require().NoError(err)
	s.Equal(got.ReceiptPath, stored.ReceiptPath)
}

// --- checkout ---

func (s *ServicesTestSuite) fillCart() (int64, []*entity.CartItem) {
	cartID, err := s.cart.GetCartID(s.ctx, s.buyer.ID)
	s.Require().NoError(err)
	a, err := s.cart.AddItem(s.ctx, cartID, "p-antenna-4k", 500)
	s.Require().NoError(err)
	b, err := s.cart.AddItem(s.ctx, cartID, "p-yoga-mat", 100)
	s.Require().NoError(err)
	return cartID, []*entity.CartItem{a, b}
}

func (s *ServicesTestSuite) TestCheckout_ReservesCreatesAndClears() {
	cartID, lines := s.fillCart()

	o, err := s.checkout.Checkout(s.ctx, CheckoutInput{
		UserID: s.buyer.ID, CartID: cartID, ItemIDs: []int64{lines[0].ID}, CustomerName: "Acme Ltda",
	}, "")
	s.Require().NoError(err)
	s.True(o.StockReserved)
	s.True(o.TotalAmount.Equal(decimal.RequireFromString("6055")))

	_, reserved := s.reserved("p-antenna-4k")
	s.Equal(500, reserved)

	items, err := s.store.ListCartItems(s.ctx, cartID)
	s.Require().NoError(err)
	s.Require().Len(items, 1)
	s.Equal("p-yoga-mat", items[0].ProductID)

	latest, err := s.sagaLog.GetLatest(s.ctx, o.ID)
	s.Require().NoError(err)
	s.Equal(sagalog.StatusCompleted, latest.Status)

	history, err := s.orders.SagaHistory(s.ctx, o.ID)
	s.Require().NoError(err)
	s.Len(history, 6)
}

func (s *ServicesTestSuite) TestCheckout_PublishFailureCompensates() {
	cartID, _ := s.fillCart()
	s.publisher.err = errors.New("broker unreachable")

	_, err := s.checkout.Checkout(s.ctx, CheckoutInput{UserID: s.buyer.ID, CartID: cartID, CustomerName: "Acme Ltda"}, "")
	s.Require().Error(err)

	_, reserved := s.reserved("p-antenna-4k")
	s.Equal(0, reserved)

	items, err := s.store.ListCartItems(s.ctx, cartID)
	s.Require().NoError(err)
	s.Len(items, 2)

	orders, err := s.orders.List(s.ctx, s.buyer.ID)
	s.Require().NoError(err)
	s.Require().Len(orders, 1)
	s.Equal(entity.StatusRejected, orders[0].Status)
	s.False(orders[0].StockReserved)
}

func (s *ServicesTestSuite) TestCheckout_FailedAttemptReleasesIdempotencyKey() {
	cartID, _ := s.fillCart()
	s.publisher.err = errors.New("broker unreachable")

	_, err := s.checkout.Checkout(s.ctx, CheckoutInput{UserID: s.buyer.ID, CartID: cartID, CustomerName: "Acme Ltda"}, "retry-me")
	s.Require().Error(err)

	s.publisher.err = nil
	o, err := s.checkout.Checkout(s.ctx, CheckoutInput{UserID: s.buyer.ID, CartID: cartID, CustomerName: "Acme Ltda"}, "retry-me")
	s.Require().NoError(err)
	s.Equal(entity.StatusPending, o.Status)

	again, err := s.checkout.Checkout(s.ctx, CheckoutInput{UserID: s.buyer.ID, CartID: cartID, CustomerName: "Acme Ltda"}, "retry-me")
	s.Require().NoError(err)
	s.Equal(o.ID, again.ID)
}

func (s *ServicesTestSuite) TestCheckout_Guards() {
	cartID, _ := s.fillCart()

	_, err := s.checkout.Checkout(s.ctx, CheckoutInput{UserID: s.buyer.ID + 1, CartID: cartID, CustomerName: "x"}, "")
	s.ErrorIs(err, entity.ErrForbidden)

	_, err = s.checkout.Checkout(s.ctx, CheckoutInput{UserID: s.buyer.ID, CartID: cartID, ItemIDs: []int64{999}, CustomerName: "x"}, "")
	s.ErrorIs(err, entity.ErrNotFound)

	_, err = s.checkout.Checkout(s.ctx, CheckoutInput{UserID: s.buyer.ID, CartID: cartID}, "")
	s.ErrorIs(err, entity.ErrValidation)

	s.Require().NoError(s.cart.Clear(s.ctx, cartID))
	_, err = s.checkout.Checkout(s.ctx, CheckoutInput{UserID: s.buyer.ID, CartID: cartID, CustomerName: "x"}, "")
	s.ErrorIs(err, entity.ErrValidation)
}

func (s *ServicesTestSuite) TestCheckout_ConcurrentCheckoutsOfOneCart() {
	for round := 1; round <= 10; round++ {
		cartID, _ := s.fillCart()
		_, before := s.reserved("p-antenna-4k")

		var (
			wg     sync.WaitGroup
			orders [2]*entity.Order
			errs   [2]error
		)
		for i := range errs {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				orders[i], errs[i] = s.checkout.Checkout(s.ctx, CheckoutInput{
					UserID: s.buyer.ID, CartID: cartID, CustomerName: "Acme Ltda",
				}, "")
			}(i)
		}
		wg.Wait()

		succeeded := 0
		for i, err := range errs {
			if err == nil {
				succeeded++
				s.NotNil(orders[i])
				continue
			}
			// the loser either lost the claim or found the cart already empty
			s.True(errors.Is(err, entity.ErrConflict) || errors.Is(err, entity.ErrValidation), "round %d: %v", round, err)
		}
		s.Equal(1, succeeded, "round %d", round)

		_, after := s.reserved("p-antenna-4k")
		s.Equal(500, after-before, "round %d", round)
	}

	list, err := s.orders.List(s.ctx, s.buyer.ID)
	s.Require().NoError(err)
	s.Len(list, 10)
	for _, o := range list {
		s.Equal(entity.StatusPending, o.Status)
	}
}

func (s *ServicesTestSuite) TestReject_ReleasesReservedStock() {
	cartID, _ := s.fillCart()
	o, err := s.checkout.Checkout(s.ctx, CheckoutInput{UserID: s.buyer.ID, CartID: cartID, CustomerName: "Acme"}, "idem")
	s.Require().NoError(err)

	again, err := s.checkout.Checkout(s.ctx, CheckoutInput{UserID: s.buyer.ID, CartID: cartID, CustomerName: "Acme"}, "idem")
	s.Require().NoError(err)
	s.Equal(o.ID, again.ID)

	o, err = s.orders.Review(s.ctx, s.admin, o.ID, false, "credit check failed")
	s.Require().NoError(err)
	s.Equal(entity.StatusRejected, o.Status)
	s.Equal(1, o.StatusStep)
	s.False(o.StockReserved)

	_, reserved := s.reserved("p-antenna-4k")
	s.Equal(0, reserved)
}

func (s *ServicesTestSuite) TestDeliver_ConsumesReservedStock() {
	cartID, _ := s.fillCart()
	o, err := s.checkout.Checkout(s.ctx, CheckoutInput{UserID: s.buyer.ID, CartID: cartID, CustomerName: "Acme"}, "")
	s.Require().NoError(err)

	o, err = s.orders.Review(s.ctx, s.admin, o.ID, true, "")
	s.Require().NoError(err)
	for _, a := range []entity.Action{entity.ActionShip, entity.ActionArrive, entity.ActionClear, entity.ActionDeliver} {
		o, err = s.orders.Advance(s.ctx, s.log1, o.ID, a, "")
		s.Require().NoError(err)
	}

	stock, reserved := s.reserved("p-yoga-mat")
	s.Equal(3900, stock)
	s.Equal(0, reserved)
}

// --- payments and samples ---

func (s *ServicesTestSuite) TestPayment_CreateSecret() {
	_, err := s.payments.CreateSecret(s.ctx, decimal.RequireFromString("0.49"), "")
	s.ErrorIs(err, entity.ErrValidation)

	in, err := s.payments.CreateSecret(s.ctx, decimal.RequireFromString("13.63"), "")
	s.Require().NoError(err)
	s.Equal(int64(1363), in.Amount)
	s.Equal("brl", in.Currency)

	_, err = s.payments.Status(s.ctx, " ")
	s.ErrorIs(err, entity.ErrValidation)
}

func (s *ServicesTestSuite) TestSample_Purchase() {
	in, err := s.payments.CreateSecret(s.ctx, decimal.RequireFromString("42.00"), "brl")
	s.Require().NoError(err)

	// first read still reports processing
	_, _, err = s.samples.Purchase(s.ctx, s.buyer.ID, "p-smart-watch", in.ID)
	s.ErrorIs(err, entity.ErrPaymentRequired)

	purchase, order, err := s.samples.Purchase(s.ctx, s.buyer.ID, "p-smart-watch", in.ID)
	s.Require().NoError(err)
	s.Equal(order.ID, purchase.OrderID)
	s.Equal(entity.KindSample, order.Kind)
	s.Equal(entity.StatusProcessing, order.Status)
	s.True(order.TotalAmount.Equal(decimal.NewFromInt(42)))

	_, _, err = s.samples.Purchase(s.ctx, s.buyer.ID, "p-smart-watch", in.ID)
	s.ErrorIs(err, entity.ErrConflict)

	list, err := s.samples.List(s.ctx, s.buyer.ID)
	s.Require().NoError(err)
	s.Len(list, 1)

	queue, err := s.orders.Queue(s.ctx, entity.RoleLogistics1, entity.QueueSamples)
	s.Require().NoError(err)
	s.Len(queue, 1)
}

func (s *ServicesTestSuite) TestSample_IntentPaysForOneSampleAtItsPrice() {
	small, err := s.payments.CreateSecret(s.ctx, decimal.RequireFromString("0.50"), "brl")
	s.Require().NoError(err)
	s.gateway.SetStatus(small.ID, entity.PaymentSucceeded)

	_, _, err = s.samples.Purchase(s.ctx, s.buyer.ID, "p-smart-watch", small.ID)
	s.ErrorIs(err, entity.ErrPaymentRequired)

	paid, err := s.payments.CreateSecret(s.ctx, decimal.RequireFromString("42.00"), "brl")
	s.Require().NoError(err)
	s.gateway.SetStatus(paid.ID, entity.PaymentSucceeded)

	_, _, err = s.samples.Purchase(s.ctx, s.buyer.ID, "p-smart-watch", paid.ID)
	s.Require().NoError(err)

	// the antenna costs less, but the intent is spent
	_, _, err = s.samples.Purchase(s.ctx, s.buyer.ID, "p-antenna-4k", paid.ID)
	s.ErrorIs(err, entity.ErrConflict)

	list, err := s.samples.List(s.ctx, s.buyer.ID)
	s.Require().NoError(err)
	s.Require().Len(list, 1)
	s.Equal("p-smart-watch", list[0].ProductID)

	orders, err := s.orders.List(s.ctx, s.buyer.ID)
	s.Require().NoError(err)
	s.Len(orders, 1)
}
