package catalog

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"designden/internal/testutil"
)

// Unit Tests

func TestNewMySQLRepository(t *testing.T) {
	db := &sql.DB{}
	repo := NewMySQLRepository(db)

	assert.NotNil(t, repo)
	assert.Equal(t, db, repo.db)
}

func TestRepository_EmptyIDs(t *testing.T) {
	repo := NewMySQLRepository(&sql.DB{})

	products, err := repo.FindProductsByIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, products)

	designs, err := repo.FindDesignsByIDs(context.Background(), []string{})
	require.NoError(t, err)
	assert.Nil(t, designs)
}

// Integration Tests

func TestRepository_FindProductsByIDs(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	_, err := db.Exec(`
		INSERT INTO products (id, name, price, category, is_active, is_deleted)
		VALUES ('p-1', 'Linen shirt', 40.00, 'tops', 1, 0),
		       ('p-2', 'Wool scarf', 25.50, 'accessories', 0, 0),
		       ('p-3', 'Deleted tee', 10.00, 'tops', 1, 1)
	`)
	require.NoError(t, err)

	repo := NewMySQLRepository(db)
	products, err := repo.FindProductsByIDs(context.Background(), []string{"p-1", "p-2", "p-3", "p-9"})
	require.NoError(t, err)
	require.Len(t, products, 2)

	byID := map[string]float64{}
	for _, p := range products {
		byID[p.ID] = p.Price
	}
	assert.Equal(t, 40.0, byID["p-1"])
	assert.Equal(t, 25.5, byID["p-2"])
}

func TestRepository_FindDesignsByIDs(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	_, err := db.Exec(`
		INSERT INTO designs (id, name, designer_id, price, is_active)
		VALUES ('d-1', 'Dragon print', 'des-1', 95.00, 1),
		       ('d-2', 'Community pattern', NULL, 60.00, 1)
	`)
	require.NoError(t, err)

	repo := NewMySQLRepository(db)
	designs, err := repo.FindDesignsByIDs(context.Background(), []string{"d-1", "d-2"})
	require.NoError(t, err)
	require.Len(t, designs, 2)

	for _, d := range designs {
		switch d.ID {
		case "d-1":
			require.NotNil(t, d.DesignerID)
			assert.Equal(t, "des-1", *d.DesignerID)
		case "d-2":
			assert.Nil(t, d.DesignerID)
		}
	}
}
