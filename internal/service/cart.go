package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/flicky/bakery-api/internal/model"
	"github.com/flicky/bakery-api/internal/repository"
)

var ErrCartItemNotFound = errors.New("cart item not found")

// CartService keeps the per-user cart. Every mutation loads the stored list,
// applies the change and writes the whole list back.
type CartService struct {
	carts       repository.CartStore
	productRepo repository.ProductRepository
}

func NewCartService(carts repository.CartStore, productRepo repository.ProductRepository) *CartService {
	return &CartService{carts: carts, productRepo: productRepo}
}

func (s *CartService) GetCart(ctx context.Context, userID uuid.UUID) (*model.Cart, error) {
	return s.carts.Load(ctx, userID)
}

// AddItem adds one unit of the product, snapshotting its current name,
// price and image into the cart line.
func (s *CartService) AddItem(ctx context.Context, userID, productID uuid.UUID) (*model.Cart, error) {
	product, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	if !product.IsAvailable {
		return nil, ErrProductUnavailable
	}

	return s.mutate(ctx, userID, func(cart *model.Cart) error {
		cart.AddOrIncrement(model.CartItem{
			ProductID: product.ID,
			Name:      product.Name,
			Price:     product.Price,
			Image:     product.ImageURL,
		})
		return nil
	})
}

func (s *CartService) UpdateQuantity(ctx context.Context, userID, productID uuid.UUID, delta int) (*model.Cart, error) {
	return s.mutate(ctx, userID, func(cart *model.Cart) error {
		if !cart.UpdateQuantity(productID, delta) {
			return ErrCartItemNotFound
		}
		return nil
	})
}

func (s *CartService) RemoveItem(ctx context.Context, userID, productID uuid.UUID) (*model.Cart, error) {
	return s.mutate(ctx, userID, func(cart *model.Cart) error {
		if !cart.Remove(productID) {
			return ErrCartItemNotFound
		}
		return nil
	})
}

func (s *CartService) Clear(ctx context.Context, userID uuid.UUID) error {
	return s.carts.Clear(ctx, userID)
}

func (s *CartService) mutate(ctx context.Context, userID uuid.UUID, fn func(*model.Cart) error) (*model.Cart, error) {
	cart, err := s.carts.Load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := fn(cart); err != nil {
		return nil, err
	}
	if err := s.carts.Save(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}
