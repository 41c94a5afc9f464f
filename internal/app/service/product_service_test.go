package service

import (
	"testing"

	"github.com/Pood16/REST-API-V1/internal/app/model"
	"github.com/Pood16/REST-API-V1/internal/app/repository"
	"github.com/Pood16/REST-API-V1/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupProductServiceTest(t *testing.T) (ProductService, CategoryService, *model.Category, *gorm.DB) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})

	categoryRepo := repository.NewCategoryRepository(testDB)
	productRepo := repository.NewProductRepository(testDB)
	productService := NewProductService(productRepo, categoryRepo)
	categoryService := NewCategoryService(categoryRepo)

	category := &model.Category{Name: "Accessories", Slug: "accessories"}
	require.NoError(t, testDB.Create(category).Error)

	return productService, categoryService, category, testDB
}

func TestProductService_CreateProduct(t *testing.T) {
	productService, _, category, _ := setupProductServiceTest(t)

	product := &model.Product{
		Name:       "Pro Controller",
		Price:      64.99,
		Stock:      20,
		CategoryID: category.ID,
	}
	require.NoError(t, productService.CreateProduct(product, []string{"https://cdn.example.com/ctl.jpg"}))
	assert.Equal(t, "pro-controller", product.Slug)
	assert.Len(t, product.Images, 1)

	// Same name yields the same slug
	dup := &model.Product{Name: "Pro Controller", Price: 60, Stock: 5, CategoryID: category.ID}
	assert.ErrorIs(t, productService.CreateProduct(dup, nil), ErrProductExists)
}

func TestProductService_CreateProduct_UnknownCategory(t *testing.T) {
	productService, _, _, _ := setupProductServiceTest(t)

	product := &model.Product{Name: "Orphan", Price: 1, Stock: 1, CategoryID: 9999}
	assert.ErrorIs(t, productService.CreateProduct(product, nil), ErrCategoryNotFound)
}

func TestProductService_UpdateProduct(t *testing.T) {
	productService, _, category, _ := setupProductServiceTest(t)

	product := &model.Product{Name: "Headset", Price: 39.99, Stock: 10, CategoryID: category.ID}
	require.NoError(t, productService.CreateProduct(product, nil))

	newPrice := 34.99
	newStock := 25
	updated, err := productService.UpdateProduct(product.ID, ProductUpdate{
		Price: &newPrice,
		Stock: &newStock,
	})
	require.NoError(t, err)
	assert.Equal(t, 34.99, updated.Price)
	assert.Equal(t, 25, updated.Stock)
	assert.Equal(t, "Headset", updated.Name)

	_, err = productService.UpdateProduct(9999, ProductUpdate{Price: &newPrice})
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestProductService_DeleteAndRestore(t *testing.T) {
	productService, _, category, _ := setupProductServiceTest(t)

	product := &model.Product{Name: "Mousepad", Price: 9.99, Stock: 50, CategoryID: category.ID}
	require.NoError(t, productService.CreateProduct(product, nil))

	require.NoError(t, productService.DeleteProduct(product.ID))
	_, err := productService.GetProductByID(product.ID)
	assert.ErrorIs(t, err, ErrProductNotFound)

	require.NoError(t, productService.RestoreProduct(product.ID))
	restored, err := productService.GetProductByID(product.ID)
	require.NoError(t, err)
	assert.Equal(t, "Mousepad", restored.Name)
}

func TestProductService_HardDelete(t *testing.T) {
	productService, _, category, testDB := setupProductServiceTest(t)

	product := &model.Product{Name: "Cable", Price: 4.99, Stock: 5, CategoryID: category.ID}
	require.NoError(t, productService.CreateProduct(product, nil))

	require.NoError(t, productService.HardDeleteProduct(product.ID))

	var count int64
	testDB.Unscoped().Model(&model.Product{}).Where("id = ?", product.ID).Count(&count)
	assert.EqualValues(t, 0, count)

	assert.ErrorIs(t, productService.HardDeleteProduct(product.ID), ErrProductNotFound)
}

func TestCategoryService_DeleteCategory(t *testing.T) {
	productService, categoryService, category, _ := setupProductServiceTest(t)

	product := &model.Product{Name: "Keycaps", Price: 14.99, Stock: 5, CategoryID: category.ID}
	require.NoError(t, productService.CreateProduct(product, nil))

	// Categories with products cannot be deleted
	assert.ErrorIs(t, categoryService.DeleteCategory(category.ID), ErrCategoryInUse)

	require.NoError(t, productService.HardDeleteProduct(product.ID))
	assert.NoError(t, categoryService.DeleteCategory(category.ID))
}

func TestCategoryService_CreateCategory_Duplicate(t *testing.T) {
	_, categoryService, _, _ := setupProductServiceTest(t)

	first := &model.Category{Name: "Retro Consoles"}
	require.NoError(t, categoryService.CreateCategory(first))
	assert.Equal(t, "retro-consoles", first.Slug)

	dup := &model.Category{Name: "Retro Consoles"}
	assert.ErrorIs(t, categoryService.CreateCategory(dup), ErrCategoryExists)
}
