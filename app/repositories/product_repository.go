package repositories

import (
	"context"
	"strings"

	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/pkg/orm"
	"gorm.io/gorm"
)

// ProductFilter narrows a catalogue listing. Zero values mean "any".
type ProductFilter struct {
	CategoryName string
	CategoryIDs  []uint
	MinPrice     *float64
	MaxPrice     *float64
	Search       string
	FeaturedOnly bool
	IncludeOff   bool
}

// Stock levels for the inventory listing.
const (
	StockOut    = "out"
	StockLow    = "low"
	StockNormal = "normal"
)

// ProductRepository handles database operations for Product and Category.
type ProductRepository struct{ base }

func NewProductRepository() *ProductRepository {
	return &ProductRepository{}
}

func (r *ProductRepository) WithTx(tx *gorm.DB) *ProductRepository {
	return &ProductRepository{base{tx: tx}}
}

func (r *ProductRepository) filtered(ctx context.Context, f ProductFilter) *orm.Query {
	q := r.q(ctx).Model(&models.Product{}).
		WhereIf(!f.IncludeOff, "products.is_active = ?", true).
		WhereIf(len(f.CategoryIDs) > 0, "products.category_id IN ?", f.CategoryIDs).
		WhereIf(f.FeaturedOnly, "products.is_featured = ?", true).
		WhereIf(f.Search != "", "LOWER(products.name) LIKE ?", likePattern(strings.ToLower(f.Search)))
	if f.CategoryName != "" {
		q = q.Joins("JOIN categories ON categories.id = products.category_id").
			Where("categories.name = ?", f.CategoryName)
	}
	if f.MinPrice != nil {
		q = q.Where("products.price >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		q = q.Where("products.price <= ?", *f.MaxPrice)
	}
	return q
}

// List returns one page of products matching f, newest first.
func (r *ProductRepository) List(ctx context.Context, f ProductFilter, page, perPage int) ([]models.Product, orm.Pagination, error) {
	var products []models.Product
	p, err := r.filtered(ctx, f).
		Preload("Category").
		Order("products.created_at DESC").
		Order("products.id DESC").
		Paginate(page, perPage, &products)
	return products, p, err
}

// Search returns at most limit products matching f.
func (r *ProductRepository) Search(ctx context.Context, f ProductFilter, limit int) ([]models.Product, error) {
	var products []models.Product
	err := r.filtered(ctx, f).Preload("Category").Order("products.id").Limit(limit).Get(&products)
	return products, err
}

func (r *ProductRepository) FindByID(ctx context.Context, id uint) (models.Product, error) {
	var p models.Product
	err := r.q(ctx).Preload("Category").Where("id = ?", id).First(&p)
	return p, err
}

// FindByIDs loads products keeping the order of ids. Unknown ids are
// skipped.
func (r *ProductRepository) FindByIDs(ctx context.Context, ids []uint) ([]models.Product, error) {
	if len(ids) == 0 {
		return []models.Product{}, nil
	}
	var found []models.Product
	if err := r.q(ctx).Preload("Category").Where("id IN ?", ids).Get(&found); err != nil {
		return nil, err
	}
	byID := make(map[uint]models.Product, len(found))
	for _, p := range found {
		byID[p.ID] = p
	}
	out := make([]models.Product, 0, len(found))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *ProductRepository) Create(ctx context.Context, p *models.Product) error {
	return r.q(ctx).Gorm().Omit("Category").Create(p).Error
}

// Save writes every column, zero values included.
func (r *ProductRepository) Save(ctx context.Context, p *models.Product) error {
	return r.q(ctx).Gorm().Omit("Category").Save(p).Error
}

func (r *ProductRepository) IncrementViews(ctx context.Context, id uint) error {
	return r.q(ctx).Model(&models.Product{}).Where("id = ?", id).Gorm().
		UpdateColumn("view_count", gorm.Expr("view_count + ?", 1)).Error
}

// SKUTaken reports whether another product already uses sku.
func (r *ProductRepository) SKUTaken(ctx context.Context, sku string, exceptID uint) (bool, error) {
	n, err := r.q(ctx).Model(&models.Product{}).
		Where("sku = ?", sku).
		WhereIf(exceptID != 0, "id <> ?", exceptID).
		Count()
	return n > 0, err
}

// DecrementStock takes qty units if at least that many are available on
// an active product. It reports false, without error, when they are not.
func (r *ProductRepository) DecrementStock(ctx context.Context, id uint, qty int) (bool, error) {
	res := r.q(ctx).Model(&models.Product{}).
		Where("id = ? AND is_active = ? AND stock_quantity >= ?", id, true, qty).Gorm().
		UpdateColumn("stock_quantity", gorm.Expr("stock_quantity - ?", qty))
	return res.RowsAffected == 1, res.Error
}

// Restock returns qty units to the product.
func (r *ProductRepository) Restock(ctx context.Context, id uint, qty int) error {
	return r.q(ctx).Model(&models.Product{}).Where("id = ?", id).Gorm().
		UpdateColumn("stock_quantity", gorm.Expr("stock_quantity + ?", qty)).Error
}

func (r *ProductRepository) SetStock(ctx context.Context, id uint, qty int) error {
	return r.q(ctx).Model(&models.Product{}).Where("id = ?", id).Gorm().
		Update("stock_quantity", qty).Error
}

// Inventory lists products by ascending stock, optionally restricted to
// one stock level.
func (r *ProductRepository) Inventory(ctx context.Context, level string, threshold, page, perPage int) ([]models.Product, orm.Pagination, error) {
	q := r.q(ctx).Model(&models.Product{}).Preload("Category")
	switch level {
	case StockOut:
		q = q.Where("stock_quantity = 0")
	case StockLow:
		q = q.Where("stock_quantity > 0 AND stock_quantity <= ?", threshold)
	case StockNormal:
		q = q.Where("stock_quantity > ?", threshold)
	}
	var products []models.Product
	p, err := q.Order("stock_quantity ASC").Order("id").Paginate(page, perPage, &products)
	return products, p, err
}

// LowStock returns active products at or below threshold.
func (r *ProductRepository) LowStock(ctx context.Context, threshold int) ([]models.Product, error) {
	var products []models.Product
	err := r.q(ctx).
		Where("is_active = ? AND stock_quantity <= ?", true, threshold).
		Order("stock_quantity ASC").
		Get(&products)
	return products, err
}

// ─── Categories ───────────────────────────────────────────────────────────────

func (r *ProductRepository) FindCategory(ctx context.Context, id uint) (models.Category, error) {
	var c models.Category
	err := r.q(ctx).Where("id = ?", id).First(&c)
	return c, err
}

func (r *ProductRepository) CategoryNameTaken(ctx context.Context, name string) (bool, error) {
	n, err := r.q(ctx).Model(&models.Category{}).Where("name = ? OR slug = ?", name, models.Slugify(name)).Count()
	return n > 0, err
}

func (r *ProductRepository) CreateCategory(ctx context.Context, c *models.Category) error {
	return r.q(ctx).Gorm().Omit("Subcategories").Create(c).Error
}

// ActiveCategories returns every active category, flat.
func (r *ProductRepository) ActiveCategories(ctx context.Context) ([]models.Category, error) {
	var cats []models.Category
	err := r.q(ctx).Where("is_active = ?", true).Order("name").Get(&cats)
	return cats, err
}

// DescendantIDs returns id and the ids of every category beneath it.
func (r *ProductRepository) DescendantIDs(ctx context.Context, id uint) ([]uint, error) {
	type edge struct {
		ID       uint
		ParentID *uint
	}
	var edges []edge
	if err := r.q(ctx).Model(&models.Category{}).Gorm().Select("id, parent_id").Find(&edges).Error; err != nil {
		return nil, err
	}
	children := map[uint][]uint{}
	for _, e := range edges {
		if e.ParentID != nil {
			children[*e.ParentID] = append(children[*e.ParentID], e.ID)
		}
	}

	out := []uint{id}
	seen := map[uint]bool{id: true}
	for i := 0; i < len(out); i++ {
		for _, c := range children[out[i]] {
			if !seen[c] {
				seen[c] = true
				out = append(out, c)
			}
		}
	}
	return out, nil
}

// ProductCounts returns the number of active products per category id.
func (r *ProductRepository) ProductCounts(ctx context.Context) (map[uint]int64, error) {
	var rows []struct {
		CategoryID uint
		N          int64
	}
	err := r.q(ctx).Model(&models.Product{}).Gorm().
		Select("category_id, COUNT(*) AS n").
		Where("is_active = ?", true).
		Group("category_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[uint]int64, len(rows))
	for _, row := range rows {
		out[row.CategoryID] = row.N
	}
	return out, nil
}
