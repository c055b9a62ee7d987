package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"billbuddy/pos/internal/types"
)

var ErrNotFound = errors.New("product not found")

const (
	productPrefix = "pos:product:"
	indexKey      = "pos:products"
)

// ProductKey returns the redis key holding a product's JSON document.
// Exposed so the billing transaction can watch product keys.
func ProductKey(id string) string { return productPrefix + id }

// Store keeps the product catalog in Redis: one JSON document per product
// plus a set of IDs as the index.
type Store struct {
	client *redis.Client
}

func New(client *redis.Client) *Store {
	return &Store{client: client}
}

func (s *Store) Put(ctx context.Context, p types.Product) error {
	if p.ID == "" || p.Name == "" {
		return errors.New("product needs id and name")
	}
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal product: %w", err)
	}
	pipe := s.client.Pipeline()
	pipe.Set(ctx, ProductKey(p.ID), data, 0)
	pipe.SAdd(ctx, indexKey, p.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save product: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, id string) (types.Product, error) {
	val, err := s.client.Get(ctx, ProductKey(id)).Result()
	if err == redis.Nil {
		return types.Product{}, ErrNotFound
	}
	if err != nil {
		return types.Product{}, fmt.Errorf("load product: %w", err)
	}
	var p types.Product
	if err := json.Unmarshal([]byte(val), &p); err != nil {
		return types.Product{}, fmt.Errorf("decode product: %w", err)
	}
	return p, nil
}

func (s *Store) List(ctx context.Context) ([]types.Product, error) {
	ids, err := s.client.SMembers(ctx, indexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = ProductKey(id)
	}
	vals, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}
	out := make([]types.Product, 0, len(vals))
	for _, v := range vals {
		str, ok := v.(string)
		if !ok {
			continue
		}
		var p types.Product
		if err := json.Unmarshal([]byte(str), &p); err != nil {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Search does a case-insensitive substring match over name, brand, and
// category, ordered by name. Garage catalogs are small enough to scan.
func (s *Store) Search(ctx context.Context, query string, limit int) ([]types.Product, error) {
	start := time.Now()
	metricSearches.Inc()

	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	q := strings.ToLower(strings.TrimSpace(query))
	var out []types.Product
	for _, p := range all {
		if q == "" || matches(p, q) {
			out = append(out, p)
			if limit > 0 && len(out) == limit {
				break
			}
		}
	}
	metricSearchDuration.Observe(float64(time.Since(start).Milliseconds()))
	return out, nil
}

func matches(p types.Product, q string) bool {
	return strings.Contains(strings.ToLower(p.Name), q) ||
		strings.Contains(strings.ToLower(p.Brand), q) ||
		strings.Contains(strings.ToLower(p.Category), q)
}

// SeedFile loads products from a JSON file when the catalog is empty.
// Returns the number of products written.
func (s *Store) SeedFile(ctx context.Context, path string) (int, error) {
	n, err := s.client.SCard(ctx, indexKey).Result()
	if err != nil {
		return 0, fmt.Errorf("check catalog: %w", err)
	}
	if n > 0 {
		return 0, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read seed file: %w", err)
	}
	var products []types.Product
	if err := json.Unmarshal(data, &products); err != nil {
		return 0, fmt.Errorf("decode seed file: %w", err)
	}
	for _, p := range products {
		if err := s.Put(ctx, p); err != nil {
			return 0, err
		}
	}
	return len(products), nil
}
