package repositories_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stylefinder/internal/models"
	"stylefinder/internal/repositories"
)

func sampleProduct(id int64, name string) *models.Product {
	return &models.Product{
		ProductID:           id,
		Name:                name,
		MainCategory:        models.TopWear,
		Subcategory:         "Shirts",
		TargetAudience:      models.Male,
		Seller:              "Roadster",
		Price:               decimal.RequireFromString("799.50"),
		Discount:            decimal.NewFromInt(20),
		Quantity:            12,
		Date:                time.Date(2024, time.May, 3, 0, 0, 0, 0, time.UTC),
		ExtractedGarmentRef: "shirt.png",
	}
}

// memoryDSN names a shared-cache in-memory database private to the test.
func memoryDSN(t *testing.T) string {
	return "file:" + t.Name() + "?mode=memory&cache=shared"
}

func TestGORMProductRepository(t *testing.T) {
	db, err := repositories.OpenDB("sqlite", memoryDSN(t))
	require.NoError(t, err)
	repo := repositories.NewGORMProductRepository(db)
	ctx := context.Background()
	require.NoError(t, repo.Migrate(ctx))

	require.NoError(t, repo.Create(ctx, sampleProduct(30, "Linen Shirt")))
	require.NoError(t, repo.Create(ctx, sampleProduct(10, "Denim Shirt")))

	err = repo.Create(ctx, sampleProduct(10, "Denim Shirt"))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create product 10")

	columns, err := repo.Columns(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		"product_id", "name", "main_category", "subcategory", "target_audience", "seller",
		"price", "discount", "quantity", "date", "rating", "img", "extract_images",
	}, columns)

	rows, err := repo.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	// product_id is an integer primary key, so it doubles as sqlite's rowid
	assert.Equal(t, int64(10), rows[0].ProductID.Int64)
	assert.Equal(t, int64(30), rows[1].ProductID.Int64)

	first := rows[1]
	assert.Equal(t, "Linen Shirt", first.Name.String)
	assert.Equal(t, "Top Wear", first.MainCategory.String)
	assert.True(t, first.Price.Valid)
	assert.True(t, decimal.RequireFromString("799.5").Equal(first.Price.Decimal))
	assert.Equal(t, int64(12), first.Quantity.Int64)
	assert.True(t, first.Date.Valid)
	assert.Equal(t, 2024, first.Date.Time.Year())
}

func TestGORMProductRepository_MissingTable(t *testing.T) {
	db, err := repositories.OpenDB("sqlite", memoryDSN(t))
	require.NoError(t, err)

	repo := repositories.NewGORMProductRepository(db)
	_, err = repo.GetAll(context.Background())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "table products not found")
}

func TestOpenDB_UnknownDriver(t *testing.T) {
	_, err := repositories.OpenDB("oracle", "dsn")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown database driver")
}

func TestMockProductRepository(t *testing.T) {
	repo := repositories.NewMockProductRepository()
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, sampleProduct(2, "B")))
	require.NoError(t, repo.Create(ctx, sampleProduct(1, "A")))

	err := repo.Create(ctx, sampleProduct(1, "A again"))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	rows, err := repo.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "B", rows[0].Name.String)
	assert.Equal(t, "A", rows[1].Name.String)
	assert.False(t, rows[0].Rating.Valid)
	assert.False(t, rows[0].Img.Valid)
	assert.True(t, rows[0].ExtractImages.Valid)

	repo.WithoutColumns(models.ColumnQuantity)
	columns, err := repo.Columns(ctx)
	require.NoError(t, err)
	assert.NotContains(t, columns, models.ColumnQuantity)

	rows, err = repo.GetAll(ctx)
	require.NoError(t, err)
	assert.False(t, rows[0].Quantity.Valid)
}

func TestGORMProductRepository_PartialTable(t *testing.T) {
	db, err := repositories.OpenDB("sqlite", memoryDSN(t))
	require.NoError(t, err)
	require.NoError(t, db.Exec(`CREATE TABLE products (
		product_id INTEGER, name TEXT, main_category TEXT, target_audience TEXT, extract_images TEXT)`).Error)
	require.NoError(t, db.Exec(`INSERT INTO products VALUES
		(7, 'Track Pants', 'Sports Wear', 'Male', '7.png'),
		(3, 'Yoga Top', 'Sports Wear', 'Female', NULL)`).Error)

	repo := repositories.NewGORMProductRepository(db)
	ctx := context.Background()

	columns, err := repo.Columns(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"product_id", "name", "main_category", "target_audience", "extract_images"}, columns)

	rows, err := repo.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, int64(7), rows[0].ProductID.Int64)
	assert.Equal(t, int64(3), rows[1].ProductID.Int64)
	assert.False(t, rows[0].Quantity.Valid)
	assert.False(t, rows[1].ExtractImages.Valid)
}
