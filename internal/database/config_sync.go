package database

import (
	"context"
	"fmt"

	"terroir/internal/config"
)

// SyncProductCategories applies categories.yaml to the database. It upserts
// configured product categories by name and removes categories that
// disappeared from config, detaching their products first.
func (db *DB) SyncProductCategories(ctx context.Context, cfg *config.CategoriesConfig) error {
	if cfg == nil {
		return fmt.Errorf("categories config is nil")
	}

	seen := make(map[string]struct{}, len(cfg.Products))
	for i, cat := range cfg.Products {
		order := cat.Order
		if order == 0 {
			order = i
		}
		_, err := db.ExecContext(ctx, `
			INSERT INTO product_categories (name, icon, display_name, sort_order)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(name) DO UPDATE SET
				icon = excluded.icon,
				display_name = excluded.display_name,
				sort_order = excluded.sort_order`,
			cat.Name, cat.Icon, cat.DisplayName, order,
		)
		if err != nil {
			return fmt.Errorf("sync product category %q: %w", cat.Name, err)
		}
		seen[cat.Name] = struct{}{}
	}

	rows, err := db.QueryContext(ctx, `SELECT id, name FROM product_categories`)
	if err != nil {
		return err
	}
	defer rows.Close()

	var stale []int64
	for rows.Next() {
		var id int64
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			return err
		}
		if _, ok := seen[name]; !ok {
			stale = append(stale, id)
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for _, id := range stale {
		if _, err := db.ExecContext(ctx, `UPDATE products SET category_id = NULL WHERE category_id = ?`, id); err != nil {
			return fmt.Errorf("detach products from category %d: %w", id, err)
		}
		if _, err := db.ExecContext(ctx, `DELETE FROM product_categories WHERE id = ?`, id); err != nil {
			return fmt.Errorf("remove product category %d: %w", id, err)
		}
	}

	return nil
}
