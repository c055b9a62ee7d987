package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"billbuddy/pos/internal/catalog"
	"billbuddy/pos/internal/types"
)

var (
	ErrEmptyCart         = errors.New("cart has no items")
	ErrBillNotFound      = errors.New("bill not found")
	ErrInsufficientStock = errors.New("insufficient stock")
)

const (
	billPrefix = "pos:bill:"
	billIndex  = "pos:bills"
)

func billKey(id string) string { return billPrefix + id }

// Service persists bills. Generate writes the bill, its index entry, and
// every stock decrement in one transaction: either the whole sale lands or
// none of it does.
type Service struct {
	client *redis.Client
}

func NewService(client *redis.Client) *Service {
	return &Service{client: client}
}

func (s *Service) Generate(ctx context.Context, cart *Cart) (*types.Bill, error) {
	if cart == nil || cart.Empty() {
		return nil, ErrEmptyCart
	}

	bill := types.Bill{
		ID:           uuid.New().String(),
		CustomerName: cart.CustomerName,
		VehicleInfo:  cart.VehicleInfo,
		Subtotal:     cart.Subtotal(),
		Profit:       cart.Profit(),
		CreatedAt:    time.Now().UTC(),
	}
	for _, ln := range cart.Lines {
		bill.Items = append(bill.Items, types.BillItem{
			ProductID: ln.Product.ID,
			Name:      ln.Product.Name,
			Quantity:  ln.Quantity,
			UnitPrice: ln.UnitPrice,
			Profit:    (ln.UnitPrice - ln.Product.PurchasePrice) * float64(ln.Quantity),
		})
	}
	billData, err := json.Marshal(bill)
	if err != nil {
		return nil, fmt.Errorf("marshal bill: %w", err)
	}

	watched := make([]string, len(cart.Lines))
	for i, ln := range cart.Lines {
		watched[i] = catalog.ProductKey(ln.Product.ID)
	}

	err = s.client.Watch(ctx, func(tx *redis.Tx) error {
		// Re-read stock under the watch; the cart's snapshot may be stale.
		updated := make([][]byte, 0, len(cart.Lines))
		keys := make([]string, 0, len(cart.Lines))
		for _, ln := range cart.Lines {
			val, err := tx.Get(ctx, catalog.ProductKey(ln.Product.ID)).Result()
			if err == redis.Nil {
				return fmt.Errorf("%w: %s", catalog.ErrNotFound, ln.Product.ID)
			}
			if err != nil {
				return fmt.Errorf("load product %s: %w", ln.Product.ID, err)
			}
			var p types.Product
			if err := json.Unmarshal([]byte(val), &p); err != nil {
				return fmt.Errorf("decode product %s: %w", ln.Product.ID, err)
			}
			if p.Stock < ln.Quantity {
				return fmt.Errorf("%w: %s has %d left, need %d", ErrInsufficientStock, p.Name, p.Stock, ln.Quantity)
			}
			p.Stock -= ln.Quantity
			data, err := json.Marshal(p)
			if err != nil {
				return fmt.Errorf("marshal product %s: %w", p.ID, err)
			}
			updated = append(updated, data)
			keys = append(keys, catalog.ProductKey(p.ID))
		}

		_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, billKey(bill.ID), billData, 0)
			pipe.ZAdd(ctx, billIndex, redis.Z{Score: float64(bill.CreatedAt.UnixMilli()), Member: bill.ID})
			for i, data := range updated {
				pipe.Set(ctx, keys[i], data, 0)
			}
			return nil
		})
		return err
	}, watched...)
	if err != nil {
		return nil, err
	}
	return &bill, nil
}

func (s *Service) Get(ctx context.Context, id string) (*types.Bill, error) {
	val, err := s.client.Get(ctx, billKey(id)).Result()
	if err == redis.Nil {
		return nil, ErrBillNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load bill: %w", err)
	}
	var b types.Bill
	if err := json.Unmarshal([]byte(val), &b); err != nil {
		return nil, fmt.Errorf("decode bill: %w", err)
	}
	return &b, nil
}

// List returns the most recent bills, newest first.
func (s *Service) List(ctx context.Context, limit int) ([]types.Bill, error) {
	if limit <= 0 {
		limit = 50
	}
	ids, err := s.client.ZRevRange(ctx, billIndex, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("list bills: %w", err)
	}
	out := make([]types.Bill, 0, len(ids))
	for _, id := range ids {
		b, err := s.Get(ctx, id)
		if err != nil {
			continue
		}
		out = append(out, *b)
	}
	return out, nil
}
