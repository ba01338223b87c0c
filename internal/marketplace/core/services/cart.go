package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/brail/marketplace/internal/marketplace/core/domain/entity"
	"github.com/brail/marketplace/internal/marketplace/core/ports"
)

type CartService struct {
	repo          ports.Store
	minInvestment decimal.Decimal
}

func NewCartService(repo ports.Store, minInvestment decimal.Decimal) *CartService {
	return &CartService{repo: repo, minInvestment: minInvestment}
}

type CartView struct {
	CartID  int64
	Lines   []entity.CartLine
	Summary entity.CartSummary
}

func (s *CartService) GetCartID(ctx context.Context, userID int64) (int64, error) {
	if _, err := s.repo.GetUserByID(ctx, userID); err != nil {
		return 0, err
	}
	cart, err := s.repo.GetOrCreateCart(ctx, userID)
	if err != nil {
		return 0, err
	}
	return cart.ID, nil
}

// Owned returns the cart when it belongs to userID.
func (s *CartService) Owned(ctx context.Context, cartID, userID int64) (*entity.Cart, error) {
	cart, err := s.repo.GetCart(ctx, cartID)
	if err != nil {
		return nil, err
	}
	if cart.UserID != userID {
		return nil, fmt.Errorf("cart %d: %w", cartID, entity.ErrForbidden)
	}
	return cart, nil
}

// CartData joins the cart lines with their products. Lines whose product
// has been removed from the catalog are skipped.
func (s *CartService) CartData(ctx context.Context, cartID int64) (*CartView, error) {
	if _, err := s.repo.GetCart(ctx, cartID); err != nil {
		return nil, err
	}
	items, err := s.repo.ListCartItems(ctx, cartID)
	if err != nil {
		return nil, err
	}

	lines := make([]entity.CartLine, 0, len(items))
	for _, it := range items {
		p, err := s.repo.GetProduct(ctx, it.ProductID)
		if errors.Is(err, entity.ErrNotFound) {
			slog.WarnContext(ctx, "cart line references a missing product", "cart_id", cartID, "product_id", it.ProductID)
			continue
		}
		if err != nil {
			return nil, err
		}
		lines = append(lines, entity.CartLine{Item: it, Product: *p})
	}

	return &CartView{
		CartID:  cartID,
		Lines:   lines,
		Summary: entity.Summarize(lines, s.minInvestment),
	}, nil
}

// AddItem puts qty units of a product in the cart. A product already in the
// cart has its line increased; the line is priced for the new total.
func (s *CartService) AddItem(ctx context.Context, cartID int64, productID string, qty int) (*entity.CartItem, error) {
	var out *entity.CartItem
	err := s.repo.WithTx(ctx, func(tx ports.Repositories) error {
		if _, err := tx.GetCart(ctx, cartID); err != nil {
			return err
		}
		p, err := tx.GetProduct(ctx, productID)
		if err != nil {
			return err
		}
		if err := p.ValidateQuantity(qty); err != nil {
			return err
		}

		existing, err := tx.FindCartItemByProduct(ctx, cartID, productID)
		switch {
		case err == nil:
			total := existing.Quantity + qty
			if err := p.ValidateQuantity(total); err != nil {
				return err
			}
			existing.Quantity = total
			existing.UnitPrice = p.PriceFor(total)
			if err := tx.UpdateCartItem(ctx, existing); err != nil {
				return err
			}
			out = existing
		case errors.Is(err, entity.ErrNotFound):
			item := &entity.CartItem{CartID: cartID, ProductID: productID, Quantity: qty, UnitPrice: p.PriceFor(qty)}
			if err := tx.InsertCartItem(ctx, item); err != nil {
				return err
			}
			out = item
		default:
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "cart item added", "cart_id", cartID, "product_id", productID, "quantity", out.Quantity)
	return out, nil
}

// UpdateItem sets the quantity of a line. The quantity never drops below
// the product MOQ: smaller values are rejected.
func (s *CartService) UpdateItem(ctx context.Context, cartID, itemID int64, qty int) (*entity.CartItem, error) {
	var out *entity.CartItem
	err := s.repo.WithTx(ctx, func(tx ports.Repositories) error {
		item, err := tx.GetCartItem(ctx, itemID)
		if err != nil {
			return err
		}
		if item.CartID != cartID {
			return fmt.Errorf("cart item %d not in cart %d: %w", itemID, cartID, entity.ErrNotFound)
		}
		p, err := tx.GetProduct(ctx, item.ProductID)
		if err != nil {
			return err
		}
		if err := p.ValidateQuantity(qty); err != nil {
			return err
		}
		item.Quantity = qty
		item.UnitPrice = p.PriceFor(qty)
		if err := tx.UpdateCartItem(ctx, item); err != nil {
			return err
		}
		out = item
		return nil
	})
	return out, err
}

func (s *CartService) RemoveItem(ctx context.Context, cartID, itemID int64) error {
	item, err := s.repo.GetCartItem(ctx, itemID)
	if err != nil {
		return err
	}
	if item.CartID != cartID {
		return fmt.Errorf("cart item %d not in cart %d: %w", itemID, cartID, entity.ErrNotFound)
	}
	return s.repo.DeleteCartItem(ctx, itemID)
}

func (s *CartService) RemoveItems(ctx context.Context, cartID int64, itemIDs []int64) error {
	return s.repo.DeleteCartItems(ctx, cartID, itemIDs)
}

func (s *CartService) Clear(ctx context.Context, cartID int64) error {
	if _, err := s.repo.GetCart(ctx, cartID); err != nil {
		return err
	}
	return s.repo.ClearCart(ctx, cartID)
}
