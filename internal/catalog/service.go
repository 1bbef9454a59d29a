// Package catalog serves the menu: items and categories, with redis-cached
// reads for the storefront and CRUD for the admin console.
package catalog

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// ErrNotFound indicates the requested menu item or category does not exist.
var ErrNotFound = errors.New("catalog: not found")

// MenuItem is one orderable entry on the menu.
type MenuItem struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	ImageURL    string          `json:"imageUrl,omitempty"`
	CategoryID  string          `json:"categoryId,omitempty"`
	Available   bool            `json:"available"`
}

// Category groups menu items for the storefront tabs.
type Category struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	SortOrder int    `json:"sortOrder"`
}

const (
	cacheKeyMenu       = "catalog:menu"
	cacheKeyCategories = "catalog:categories"
)

// Service orchestrates catalog queries and caching.
type Service struct {
	Pool  *pgxpool.Pool
	Cache *Cache
}

const menuColumns = `id, name, COALESCE(description, ''), price, COALESCE(image_url, ''), COALESCE(category_id::text, ''), available`

// ListMenu returns available menu items, optionally filtered by category.
// The unfiltered listing is served from cache when possible.
func (s *Service) ListMenu(ctx context.Context, categoryID string) ([]MenuItem, error) {
	if s == nil || s.Pool == nil {
		return nil, errors.New("catalog service not configured")
	}
	if categoryID == "" {
		var cached []MenuItem
		if ok, err := s.Cache.GetJSON(ctx, cacheKeyMenu, &cached); err == nil && ok {
			return cached, nil
		}
	}

	query := `SELECT ` + menuColumns + ` FROM menu_items WHERE available ORDER BY name`
	args := []any{}
	if categoryID != "" {
		query = `SELECT ` + menuColumns + ` FROM menu_items WHERE available AND category_id = $1 ORDER BY name`
		args = append(args, categoryID)
	}
	rows, err := s.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items, err := scanMenuItems(rows)
	if err != nil {
		return nil, err
	}
	if categoryID == "" {
		_ = s.Cache.SetJSON(ctx, cacheKeyMenu, items)
	}
	return items, nil
}

// GetMenuItem fetches a single item by id, available or not.
func (s *Service) GetMenuItem(ctx context.Context, id string) (MenuItem, error) {
	if s == nil || s.Pool == nil {
		return MenuItem{}, errors.New("catalog service not configured")
	}
	row := s.Pool.QueryRow(ctx, `SELECT `+menuColumns+` FROM menu_items WHERE id = $1`, id)
	item, err := scanMenuItem(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return MenuItem{}, ErrNotFound
		}
		return MenuItem{}, err
	}
	return item, nil
}

// ItemPrice resolves the snapshot price for a cart add. Unavailable items
// are treated as missing so they cannot be ordered.
func (s *Service) ItemPrice(ctx context.Context, itemID string) (string, decimal.Decimal, error) {
	item, err := s.GetMenuItem(ctx, itemID)
	if err != nil {
		return "", decimal.Zero, err
	}
	if !item.Available {
		return "", decimal.Zero, ErrNotFound
	}
	return item.Name, item.Price, nil
}

// ListCategories returns categories in display order, cached.
func (s *Service) ListCategories(ctx context.Context) ([]Category, error) {
	if s == nil || s.Pool == nil {
		return nil, errors.New("catalog service not configured")
	}
	var cached []Category
	if ok, err := s.Cache.GetJSON(ctx, cacheKeyCategories, &cached); err == nil && ok {
		return cached, nil
	}
	rows, err := s.Pool.Query(ctx, `SELECT id, name, sort_order FROM categories ORDER BY sort_order, name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var categories []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.SortOrder); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	_ = s.Cache.SetJSON(ctx, cacheKeyCategories, categories)
	return categories, nil
}

// CreateMenuItem inserts a new item and invalidates the menu cache.
func (s *Service) CreateMenuItem(ctx context.Context, item MenuItem) (MenuItem, error) {
	if s == nil || s.Pool == nil {
		return MenuItem{}, errors.New("catalog service not configured")
	}
	item.ID = uuid.NewString()
	_, err := s.Pool.Exec(ctx,
		`INSERT INTO menu_items (id, name, description, price, image_url, category_id, available)
		 VALUES ($1, $2, NULLIF($3, ''), $4, NULLIF($5, ''), NULLIF($6, '')::uuid, $7)`,
		item.ID, item.Name, item.Description, item.Price, item.ImageURL, item.CategoryID, item.Available)
	if err != nil {
		return MenuItem{}, err
	}
	s.Cache.Invalidate(ctx, cacheKeyMenu)
	return item, nil
}

// UpdateMenuItem overwrites an item by id.
func (s *Service) UpdateMenuItem(ctx context.Context, item MenuItem) (MenuItem, error) {
	if s == nil || s.Pool == nil {
		return MenuItem{}, errors.New("catalog service not configured")
	}
	tag, err := s.Pool.Exec(ctx,
		`UPDATE menu_items
		 SET name = $2, description = NULLIF($3, ''), price = $4, image_url = NULLIF($5, ''),
		     category_id = NULLIF($6, '')::uuid, available = $7, updated_at = now()
		 WHERE id = $1`,
		item.ID, item.Name, item.Description, item.Price, item.ImageURL, item.CategoryID, item.Available)
	if err != nil {
		return MenuItem{}, err
	}
	if tag.RowsAffected() == 0 {
		return MenuItem{}, ErrNotFound
	}
	s.Cache.Invalidate(ctx, cacheKeyMenu)
	return item, nil
}

// DeleteMenuItem removes an item by id.
func (s *Service) DeleteMenuItem(ctx context.Context, id string) error {
	if s == nil || s.Pool == nil {
		return errors.New("catalog service not configured")
	}
	tag, err := s.Pool.Exec(ctx, `DELETE FROM menu_items WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	s.Cache.Invalidate(ctx, cacheKeyMenu)
	return nil
}

// CreateCategory inserts a category.
func (s *Service) CreateCategory(ctx context.Context, c Category) (Category, error) {
	if s == nil || s.Pool == nil {
		return Category{}, errors.New("catalog service not configured")
	}
	c.ID = uuid.NewString()
	_, err := s.Pool.Exec(ctx,
		`INSERT INTO categories (id, name, sort_order) VALUES ($1, $2, $3)`,
		c.ID, c.Name, c.SortOrder)
	if err != nil {
		return Category{}, err
	}
	s.Cache.Invalidate(ctx, cacheKeyCategories)
	return c, nil
}

// UpdateCategory overwrites a category by id.
func (s *Service) UpdateCategory(ctx context.Context, c Category) (Category, error) {
	if s == nil || s.Pool == nil {
		return Category{}, errors.New("catalog service not configured")
	}
	tag, err := s.Pool.Exec(ctx,
		`UPDATE categories SET name = $2, sort_order = $3 WHERE id = $1`,
		c.ID, c.Name, c.SortOrder)
	if err != nil {
		return Category{}, err
	}
	if tag.RowsAffected() == 0 {
		return Category{}, ErrNotFound
	}
	s.Cache.Invalidate(ctx, cacheKeyCategories)
	return c, nil
}

// DeleteCategory removes a category; items keep a dangling reference cleared
// by the foreign key's ON DELETE SET NULL.
func (s *Service) DeleteCategory(ctx context.Context, id string) error {
	if s == nil || s.Pool == nil {
		return errors.New("catalog service not configured")
	}
	tag, err := s.Pool.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	s.Cache.Invalidate(ctx, cacheKeyCategories, cacheKeyMenu)
	return nil
}

func scanMenuItem(row pgx.Row) (MenuItem, error) {
	var item MenuItem
	if err := row.Scan(&item.ID, &item.Name, &item.Description, &item.Price, &item.ImageURL, &item.CategoryID, &item.Available); err != nil {
		return MenuItem{}, err
	}
	return item, nil
}

func scanMenuItems(rows pgx.Rows) ([]MenuItem, error) {
	var items []MenuItem
	for rows.Next() {
		item, err := scanMenuItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// CacheTTLDefault is used when configuration does not set a menu cache TTL.
const CacheTTLDefault = 5 * time.Minute
