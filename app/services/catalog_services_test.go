package services_test

import (
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/app/services"
	"github.com/shashiranjanraj/storefront/pkg/storage"
)

func TestProductsFilters(t *testing.T) {
	db := newDB(t)
	catalog := services.NewCatalogService()
	women, err := catalog.CreateCategory(bg, services.CategoryInput{Name: "Women"})
	require.NoError(t, err)
	dresses, err := catalog.CreateCategory(bg, services.CategoryInput{Name: "Dresses", ParentID: &women.ID})
	require.NoError(t, err)
	men := category(t, db, "Men")

	product(t, db, dresses, "Midi Dress", 2800, 5)
	gown := product(t, db, dresses, "Evening Gown", 12000, 1)
	product(t, db, men, "Chino Trousers", 3100, 8)
	hidden := product(t, db, men, "Old Stock Blazer", 4000, 2)
	require.NoError(t, catalog.DeactivateProduct(bg, hidden.ID))
	require.NoError(t, db.Model(&gown).Update("is_featured", true).Error)

	page, err := catalog.Products(bg, services.ProductQuery{})
	require.NoError(t, err)
	assert.Len(t, page.Products, 3, "inactive products are hidden")
	assert.EqualValues(t, 3, page.Pagination.Total)

	page, err = catalog.Products(bg, services.ProductQuery{CategoryID: women.ID})
	require.NoError(t, err)
	assert.Len(t, page.Products, 2, "a parent category includes its subcategories")

	page, err = catalog.Products(bg, services.ProductQuery{Category: "Men"})
	require.NoError(t, err)
	require.Len(t, page.Products, 1)
	assert.Equal(t, "Chino Trousers", page.Products[0].Name)

	lo, hi := 2500.0, 3000.0
	page, err = catalog.Products(bg, services.ProductQuery{MinPrice: &lo, MaxPrice: &hi})
	require.NoError(t, err)
	require.Len(t, page.Products, 1)
	assert.Equal(t, "Midi Dress", page.Products[0].Name)

	page, err = catalog.Products(bg, services.ProductQuery{Search: "GOWN"})
	require.NoError(t, err)
	require.Len(t, page.Products, 1)

	page, err = catalog.Products(bg, services.ProductQuery{Featured: true})
	require.NoError(t, err)
	require.Len(t, page.Products, 1)
	assert.Equal(t, gown.ID, page.Products[0].ID)

	page, err = catalog.Products(bg, services.ProductQuery{Page: 2, PerPage: 2})
	require.NoError(t, err)
	assert.Len(t, page.Products, 1)
	assert.Equal(t, 2, page.Pagination.Pages)
}

func TestViewCountsAndHidesInactive(t *testing.T) {
	db := newDB(t)
	p := product(t, db, category(t, db, "Tops"), "Ribbed Tank", 800, 4)
	catalog := services.NewCatalogService()

	viewed, err := catalog.View(bg, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, viewed.ViewCount)
	_, err = catalog.View(bg, p.ID)
	require.NoError(t, err)

	var stored models.Product
	require.NoError(t, db.First(&stored, p.ID).Error)
	assert.Equal(t, 2, stored.ViewCount)

	require.NoError(t, catalog.DeactivateProduct(bg, p.ID))
	_, err = catalog.View(bg, p.ID)
	assert.Equal(t, http.StatusNotFound, serviceError(t, err).Status)

	recent, err := catalog.Recent(bg, []uint{p.ID})
	require.NoError(t, err)
	assert.Empty(t, recent)
}

func TestRememberViewed(t *testing.T) {
	assert.Equal(t, []uint{3, 1, 2}, services.RememberViewed([]uint{1, 3, 2}, 3))

	ids := []uint{}
	for i := uint(1); i <= 12; i++ {
		ids = services.RememberViewed(ids, i)
	}
	assert.Len(t, ids, 10)
	assert.Equal(t, uint(12), ids[0])
	assert.Equal(t, uint(3), ids[9])
}

func TestCreateAndUpdateProduct(t *testing.T) {
	db := newDB(t)
	cat := category(t, db, "Knitwear")
	catalog := services.NewCatalogService()

	_, err := catalog.CreateProduct(bg, services.ProductInput{Name: "Cardigan", Price: 3000, CategoryID: 999})
	assert.Equal(t, "Category not found", serviceError(t, err).Message)

	p, err := catalog.CreateProduct(bg, services.ProductInput{
		Name:          "Chunky Cardigan",
		Price:         3900,
		SKU:           "KN-001",
		CategoryID:    cat.ID,
		StockQuantity: 12,
		Sizes:         []string{"S", " M ", "", "L"},
		Colors:        []string{"Oat", "Rust"},
	})
	require.NoError(t, err)
	assert.Equal(t, "chunky-cardigan", p.Slug)
	assert.Equal(t, []string{"S", "M", "L"}, p.SizeList())
	require.NotNil(t, p.Category)
	assert.Equal(t, "Knitwear", p.Category.Name)

	_, err = catalog.CreateProduct(bg, services.ProductInput{Name: "Other", Price: 10, SKU: "KN-001", CategoryID: cat.ID})
	assert.Equal(t, "SKU already exists", serviceError(t, err).Message)

	sale, zero := 2900.0, 0.0
	updated, err := catalog.UpdateProduct(bg, p.ID, services.ProductUpdate{SalePrice: &sale})
	require.NoError(t, err)
	assert.Equal(t, 2900.0, updated.CurrentPrice())

	updated, err = catalog.UpdateProduct(bg, p.ID, services.ProductUpdate{SalePrice: &zero})
	require.NoError(t, err)
	assert.Nil(t, updated.SalePrice, "zero clears the sale price")
	assert.Equal(t, 3900.0, updated.CurrentPrice())
}

func TestCategoryTree(t *testing.T) {
	db := newDB(t)
	catalog := services.NewCatalogService()
	women, err := catalog.CreateCategory(bg, services.CategoryInput{Name: "Women"})
	require.NoError(t, err)
	dresses, err := catalog.CreateCategory(bg, services.CategoryInput{Name: "Dresses", ParentID: &women.ID})
	require.NoError(t, err)
	product(t, db, dresses, "Tea Dress", 2100, 3)

	_, err = catalog.CreateCategory(bg, services.CategoryInput{Name: "Women"})
	assert.Equal(t, "Category already exists", serviceError(t, err).Message)

	missing := uint(404)
	_, err = catalog.CreateCategory(bg, services.CategoryInput{Name: "Orphans", ParentID: &missing})
	assert.Equal(t, "Parent category not found", serviceError(t, err).Message)

	tree, err := catalog.Categories(bg)
	require.NoError(t, err)
	require.Len(t, tree, 1)
	assert.Equal(t, "Women", tree[0].Name)
	require.Len(t, tree[0].Subcategories, 1)
	assert.Equal(t, "Dresses", tree[0].Subcategories[0].Name)
	assert.EqualValues(t, 1, tree[0].Subcategories[0].ProductCount)
}

func TestUploadAndOpenImage(t *testing.T) {
	db := newDB(t)
	storage.RegisterDisk("test", storage.NewLocalDisk(t.TempDir(), "/files"))
	storage.SetDefault("test")
	t.Cleanup(func() { storage.SetDefault("local") })

	p := product(t, db, category(t, db, "Jewellery"), "Brass Earrings", 650, 9)
	catalog := services.NewCatalogService()

	_, err := catalog.UploadImage(bg, p.ID, "earrings.exe", strings.NewReader("MZ"))
	assert.Equal(t, "Invalid file type", serviceError(t, err).Message)

	updated, err := catalog.UploadImage(bg, p.ID, "Earrings.PNG", strings.NewReader("\x89PNG fake"))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(updated.ImageURL, services.ImageRoute))
	assert.True(t, strings.HasSuffix(updated.ImageURL, ".png"))

	name := strings.TrimPrefix(updated.ImageURL, services.ImageRoute)
	rc, contentType, err := catalog.OpenImage(bg, name)
	require.NoError(t, err)
	defer rc.Close()
	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "image/png", contentType)
	assert.Equal(t, "\x89PNG fake", string(body))

	_, _, err = catalog.OpenImage(bg, "../secrets.png")
	assert.Equal(t, http.StatusNotFound, serviceError(t, err).Status)
	_, _, err = catalog.OpenImage(bg, "missing.png")
	assert.Equal(t, http.StatusNotFound, serviceError(t, err).Status)
}
