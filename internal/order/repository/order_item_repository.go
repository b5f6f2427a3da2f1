package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"designden/internal/domain"
)

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

type MySQLOrderItemRepository struct {
	db *sql.DB
}

func NewMySQLOrderItemRepository(db *sql.DB) *MySQLOrderItemRepository {
	return &MySQLOrderItemRepository{db: db}
}

func (r *MySQLOrderItemRepository) InsertAll(ctx context.Context, tx *sql.Tx, orderID string, items []domain.OrderItem) error {
	query := `
		INSERT INTO order_items (order_id, line_no, product_id, design_id, name, quantity, unit_price, size, color)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	for i, item := range items {
		_, err := tx.ExecContext(ctx, query,
			orderID, i, item.ProductID, item.DesignID, item.Name,
			item.Quantity, item.UnitPrice, item.Size, item.Color,
		)
		if err != nil {
			return fmt.Errorf("inserting order item %d: %w", i, err)
		}
	}

	return nil
}

// FindByOrderIDs returns the items of every order in ids keyed by order id,
// each slice in line order.
func (r *MySQLOrderItemRepository) FindByOrderIDs(ctx context.Context, q queryer, ids []string) (map[string][]domain.OrderItem, error) {
	result := make(map[string][]domain.OrderItem, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	if q == nil {
		q = r.db
	}

	placeholders := make([]string, len(ids))
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}

	query := fmt.Sprintf(`
		SELECT order_id, product_id, design_id, name, quantity, unit_price, size, color
		FROM order_items
		WHERE order_id IN (%s)
		ORDER BY order_id, line_no`,
		strings.Join(placeholders, ", "),
	)

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			orderID   string
			item      domain.OrderItem
			productID sql.NullString
			designID  sql.NullString
		)
		err := rows.Scan(&orderID, &productID, &designID, &item.Name, &item.Quantity, &item.UnitPrice, &item.Size, &item.Color)
		if err != nil {
			return nil, fmt.Errorf("scanning order item row: %w", err)
		}
		item.ProductID = nullableString(productID)
		item.DesignID = nullableString(designID)
		result[orderID] = append(result[orderID], item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating order item rows: %w", err)
	}

	return result, nil
}

func nullableString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
