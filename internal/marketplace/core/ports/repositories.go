package ports

import (
	"context"
	"time"

	"github.com/brail/marketplace/internal/marketplace/core/domain/entity"
)

type UserRepository interface {
	CreateUser(ctx context.Context, u *entity.User) error
	GetUserByEmail(ctx context.Context, email string) (*entity.User, error)
	GetUserByID(ctx context.Context, id int64) (*entity.User, error)
}

type CatalogRepository interface {
	ListCategories(ctx context.Context) ([]entity.Category, error)
	ListProducts(ctx context.Context, f entity.ProductFilter) ([]entity.Product, int, error)
	GetProduct(ctx context.Context, id string) (*entity.Product, error)
	GetSupplier(ctx context.Context, id string) (*entity.Supplier, error)
	ListSuppliers(ctx context.Context) ([]entity.Supplier, error)
	// ReserveStock holds qty units; it fails with entity.ErrInsufficientStock
	// when fewer than qty are available.
	ReserveStock(ctx context.Context, productID string, qty int) error
	ReleaseStock(ctx context.Context, productID string, qty int) error
	// ConsumeStock ships reserved units: both stock and reservation drop by qty.
	ConsumeStock(ctx context.Context, productID string, qty int) error
}

type CartRepository interface {
	GetOrCreateCart(ctx context.Context, userID int64) (*entity.Cart, error)
	GetCart(ctx context.Context, id int64) (*entity.Cart, error)
	ListCartItems(ctx context.Context, cartID int64) ([]entity.CartItem, error)
	GetCartItem(ctx context.Context, id int64) (*entity.CartItem, error)
	FindCartItemByProduct(ctx context.Context, cartID int64, productID string) (*entity.CartItem, error)
	InsertCartItem(ctx context.Context, item *entity.CartItem) error
	UpdateCartItem(ctx context.Context, item *entity.CartItem) error
	DeleteCartItem(ctx context.Context, id int64) error
	// DeleteCartItems removes the given lines of a cart, all or none. A line
	// that is missing from the cart fails the call with entity.ErrConflict.
	DeleteCartItems(ctx context.Context, cartID int64, ids []int64) error
	ClearCart(ctx context.Context, cartID int64) error
}

type OrderRepository interface {
	CreateOrder(ctx context.Context, o *entity.Order) error
	GetOrder(ctx context.Context, id string) (*entity.Order, error)
	ListOrdersByUser(ctx context.Context, userID int64) ([]entity.Order, error)
	ListOrders(ctx context.Context, f entity.OrderFilter) ([]entity.Order, error)
	// UpdateOrderStatus writes the status fields of o only if the stored
	// status still equals from; otherwise it returns entity.ErrInvalidTransition.
	UpdateOrderStatus(ctx context.Context, o *entity.Order, from entity.OrderStatus) error
	AttachReceipt(ctx context.Context, orderID, path string, at time.Time) error
}

type SampleRepository interface {
	CreateSamplePurchase(ctx context.Context, s *entity.SamplePurchase) error
	ListSamplePurchases(ctx context.Context, userID int64) ([]entity.SamplePurchase, error)
	HasSamplePurchase(ctx context.Context, userID int64, productID string) (bool, error)
}

// Repositories bundles every store the services use.
type Repositories interface {
	UserRepository
	CatalogRepository
	CartRepository
	OrderRepository
	SampleRepository
}

// Store is the persistence root; WithTx runs fn against one transaction.
type Store interface {
	Repositories
	WithTx(ctx context.Context, fn func(tx Repositories) error) error
}
