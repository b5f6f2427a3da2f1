package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"designden/internal/domain"
)

type MySQLRepository struct {
	db *sql.DB
}

func NewMySQLRepository(db *sql.DB) *MySQLRepository {
	return &MySQLRepository{db: db}
}

func (r *MySQLRepository) FindProductsByIDs(ctx context.Context, ids []string) ([]domain.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders, args := inClause(ids)
	query := fmt.Sprintf(`
		SELECT id, name, price, category, is_active, is_deleted, created_at, updated_at
		FROM products
		WHERE id IN (%s)
		  AND is_deleted = 0`,
		placeholders,
	)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying products: %w", err)
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		var p domain.Product
		err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.Category, &p.IsActive, &p.IsDeleted, &p.CreatedAt, &p.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("scanning product row: %w", err)
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating product rows: %w", err)
	}

	return products, nil
}

func (r *MySQLRepository) FindDesignsByIDs(ctx context.Context, ids []string) ([]domain.Design, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders, args := inClause(ids)
	query := fmt.Sprintf(`
		SELECT id, name, designer_id, price, is_active, created_at, updated_at
		FROM designs
		WHERE id IN (%s)`,
		placeholders,
	)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying designs: %w", err)
	}
	defer rows.Close()

	var designs []domain.Design
	for rows.Next() {
		var (
			d          domain.Design
			designerID sql.NullString
		)
		err := rows.Scan(&d.ID, &d.Name, &designerID, &d.Price, &d.IsActive, &d.CreatedAt, &d.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("scanning design row: %w", err)
		}
		if designerID.Valid {
			d.DesignerID = &designerID.String
		}
		designs = append(designs, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating design rows: %w", err)
	}

	return designs, nil
}

func inClause(ids []string) (string, []interface{}) {
	placeholders := make([]string, len(ids))
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}
	return strings.Join(placeholders, ", "), args
}
