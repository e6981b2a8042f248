package service

import (
	"context"
	"fmt"
	"time"

	"storefront/internal/models"
	"storefront/internal/repository"

	"github.com/google/uuid"
)

type cartService struct {
	repo *repository.Repository
	now  func() time.Time
}

func NewCartService(repo *repository.Repository) CartService {
	return &cartService{
		repo: repo,
		now:  time.Now,
	}
}

func (s *cartService) lookup(ctx context.Context, id CartIdentity) (*models.Cart, error) {
	if !id.valid() {
		return nil, ErrCartIdentityRequired
	}
	if id.UserID != nil {
		return s.repo.Carts.GetByUser(ctx, *id.UserID)
	}
	return s.repo.Carts.GetBySession(ctx, *id.SessionID)
}

// getOrCreate creates the cart lazily on first use.
func (s *cartService) getOrCreate(ctx context.Context, tx *repository.Repository, id CartIdentity) (*models.Cart, error) {
	if !id.valid() {
		return nil, ErrCartIdentityRequired
	}

	var (
		cart *models.Cart
		err  error
	)
	if id.UserID != nil {
		cart, err = tx.Carts.GetByUser(ctx, *id.UserID)
	} else {
		cart, err = tx.Carts.GetBySession(ctx, *id.SessionID)
	}
	if err != nil {
		return nil, err
	}
	if cart != nil {
		return cart, nil
	}

	cart = &models.Cart{UserID: id.UserID, SessionID: id.SessionID}
	if err := tx.Carts.Create(ctx, cart); err != nil {
		return nil, fmt.Errorf("create cart: %w", err)
	}
	return cart, nil
}

func (s *cartService) GetCart(ctx context.Context, id CartIdentity) (*models.Cart, error) {
	cart, err := s.lookup(ctx, id)
	if err != nil {
		return nil, err
	}
	if cart == nil {
		// no cart yet is not an error, the storefront just renders it empty
		return &models.Cart{UserID: id.UserID, SessionID: id.SessionID, Items: []models.CartItem{}}, nil
	}
	return s.repo.Carts.GetWithItems(ctx, cart.ID)
}

func (s *cartService) AddItem(ctx context.Context, id CartIdentity, variantID uuid.UUID, quantity int64) (*models.CartItem, error) {
	if quantity <= 0 {
		return nil, ErrQuantityInvalid
	}

	variant, err := s.repo.Variants.GetByID(ctx, variantID)
	if err != nil {
		return nil, err
	}
	if variant == nil {
		return nil, ErrVariantNotFound
	}

	cart, err := s.getOrCreate(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.CartItems.GetByCartAndVariant(ctx, cart.ID, variantID)
	if err != nil {
		return nil, err
	}

	// stock is soft-reserved only: what the cart already holds counts against
	// the live stock, nothing is decremented until payment
	requested := quantity
	if existing != nil {
		requested += existing.Quantity
	}
	if requested > variant.Stock {
		return nil, &InsufficientStockError{
			ProductName: productName(variant),
			Requested:   requested,
			Available:   variant.Stock,
		}
	}

	if existing != nil {
		// quantity bump keeps the original price snapshot
		if err := s.repo.CartItems.UpdateQuantity(ctx, existing.ID, requested); err != nil {
			return nil, err
		}
		existing.Quantity = requested
		return existing, nil
	}

	item := &models.CartItem{
		CartID:     cart.ID,
		VariantID:  variantID,
		Quantity:   quantity,
		PriceAtAdd: variant.Price,
	}
	if err := s.repo.CartItems.Create(ctx, item); err != nil {
		return nil, fmt.Errorf("create cart item: %w", err)
	}
	return item, nil
}

func (s *cartService) UpdateQuantity(ctx context.Context, id CartIdentity, itemID uuid.UUID, quantity int64) (*models.CartItem, error) {
	item, err := s.ownedItem(ctx, id, itemID)
	if err != nil {
		return nil, err
	}

	if quantity < 1 {
		return nil, s.repo.CartItems.Delete(ctx, item.ID)
	}

	variant := item.Variant
	if variant == nil {
		variant, err = s.repo.Variants.GetByID(ctx, item.VariantID)
		if err != nil {
			return nil, err
		}
		if variant == nil {
			return nil, ErrVariantNotFound
		}
	}

	if quantity > variant.Stock {
		return nil, &InsufficientStockError{
			ProductName: productName(variant),
			Requested:   quantity,
			Available:   variant.Stock,
		}
	}

	if err := s.repo.CartItems.UpdateQuantity(ctx, item.ID, quantity); err != nil {
		return nil, err
	}
	item.Quantity = quantity
	return item, nil
}

func (s *cartService) RemoveItem(ctx context.Context, id CartIdentity, itemID uuid.UUID) error {
	item, err := s.ownedItem(ctx, id, itemID)
	if err != nil {
		return err
	}
	return s.repo.CartItems.Delete(ctx, item.ID)
}

// ownedItem resolves itemID and checks it belongs to the caller's cart.
func (s *cartService) ownedItem(ctx context.Context, id CartIdentity, itemID uuid.UUID) (*models.CartItem, error) {
	cart, err := s.lookup(ctx, id)
	if err != nil {
		return nil, err
	}
	if cart == nil {
		return nil, ErrCartItemNotFound
	}

	item, err := s.repo.CartItems.GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil || item.CartID != cart.ID {
		return nil, ErrCartItemNotFound
	}
	return item, nil
}

func (s *cartService) MergeGuestCart(ctx context.Context, sessionID string, userID uuid.UUID) error {
	guest, err := s.repo.Carts.GetBySession(ctx, sessionID)
	if err != nil {
		return err
	}
	if guest == nil {
		return nil
	}

	guestItems, err := s.repo.CartItems.GetByCartID(ctx, guest.ID)
	if err != nil {
		return err
	}
	if len(guestItems) == 0 {
		return s.repo.Carts.Delete(ctx, guest.ID)
	}

	return s.repo.WithTx(func(tx *repository.Repository) error {
		userCart, err := s.getOrCreate(ctx, tx, CartIdentity{UserID: &userID})
		if err != nil {
			return err
		}

		userItems, err := tx.CartItems.GetByCartID(ctx, userCart.ID)
		if err != nil {
			return err
		}
		byVariant := make(map[uuid.UUID]*models.CartItem, len(userItems))
		for i := range userItems {
			byVariant[userItems[i].VariantID] = &userItems[i]
		}

		// no stock re-validation here: combined quantities are checked again
		// at order placement and once more at payment
		for i := range guestItems {
			gi := &guestItems[i]
			if existing, ok := byVariant[gi.VariantID]; ok {
				if err := tx.CartItems.UpdateQuantity(ctx, existing.ID, existing.Quantity+gi.Quantity); err != nil {
					return err
				}
				continue
			}
			// moving the row keeps the original price snapshot
			if err := tx.CartItems.MoveToCart(ctx, gi.ID, userCart.ID); err != nil {
				return err
			}
		}

		// combined rows are still attached to the guest cart; one bulk delete
		// guarantees no orphans regardless of what happened above
		if _, err := tx.CartItems.DeleteByCartID(ctx, guest.ID); err != nil {
			return err
		}
		return tx.Carts.Delete(ctx, guest.ID)
	})
}

func productName(v *models.Variant) string {
	if v.Product != nil {
		return v.Product.Name
	}
	return v.Name
}
