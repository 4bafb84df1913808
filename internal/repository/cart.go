package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/flicky/bakery-api/internal/model"
)

// CartStore persists one cart per user as a JSON array. Writes replace the
// whole list; there is no expiry.
type CartStore interface {
	Load(ctx context.Context, userID uuid.UUID) (*model.Cart, error)
	Save(ctx context.Context, cart *model.Cart) error
	Clear(ctx context.Context, userID uuid.UUID) error
}

type redisCartStore struct{ client *redis.Client }

func NewCartStore(client *redis.Client) CartStore {
	return &redisCartStore{client: client}
}

func cartKey(userID uuid.UUID) string { return "cart:" + userID.String() }

func (s *redisCartStore) Load(ctx context.Context, userID uuid.UUID) (*model.Cart, error) {
	cart := &model.Cart{UserID: userID, Items: []model.CartItem{}}

	data, err := s.client.Get(ctx, cartKey(userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return cart, nil
		}
		return nil, fmt.Errorf("load cart: %w", err)
	}
	if err := json.Unmarshal(data, &cart.Items); err != nil {
		return nil, fmt.Errorf("decode cart: %w", err)
	}
	return cart, nil
}

func (s *redisCartStore) Save(ctx context.Context, cart *model.Cart) error {
	items := cart.Items
	if items == nil {
		items = []model.CartItem{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	if err := s.client.Set(ctx, cartKey(cart.UserID), data, 0).Err(); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}

func (s *redisCartStore) Clear(ctx context.Context, userID uuid.UUID) error {
	if err := s.client.Del(ctx, cartKey(userID)).Err(); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}
