package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/app/repositories"
	"github.com/shashiranjanraj/storefront/config"
	"github.com/shashiranjanraj/storefront/pkg/cache"
	"github.com/shashiranjanraj/storefront/pkg/database"
	"github.com/shashiranjanraj/storefront/pkg/logger"
	"github.com/shashiranjanraj/storefront/pkg/orm"
	"github.com/shashiranjanraj/storefront/pkg/storage"
)

const (
	catalogVersionKey = "storefront:catalog:version"
	// RecentlyViewedKey is the session key for the recently viewed list.
	RecentlyViewedKey = "recently_viewed"
	recentlyViewedMax = 10
	imageDir          = "products"
	// ImageRoute is where stored product images are served from.
	ImageRoute = "/api/products/images/"
)

var imageTypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".webp": "image/webp",
}

// ProductQuery is GET /api/products.
type ProductQuery struct {
	Category   string
	CategoryID uint
	MinPrice   *float64
	MaxPrice   *float64
	Search     string
	Featured   bool
	Page       int
	PerPage    int
}

func (q ProductQuery) cacheKey(version int64) string {
	f := func(p *float64) string {
		if p == nil {
			return ""
		}
		return fmt.Sprint(*p)
	}
	return fmt.Sprintf("storefront:catalog:v%d:products:%s|%d|%s|%s|%s|%t|%d|%d",
		version, q.Category, q.CategoryID, f(q.MinPrice), f(q.MaxPrice),
		strings.ToLower(q.Search), q.Featured, q.Page, q.PerPage)
}

// ProductPage is one page of a catalogue listing.
type ProductPage struct {
	Products   []models.Product `json:"products"`
	Pagination orm.Pagination   `json:"pagination"`
}

// ProductInput creates a product.
type ProductInput struct {
	Name          string   `json:"name" validate:"required,max=200"`
	Description   string   `json:"description"`
	Price         float64  `json:"price" validate:"required,gt=0"`
	SalePrice     *float64 `json:"sale_price" validate:"nullable,gte=0"`
	SKU           string   `json:"sku" validate:"nullable,max=50"`
	CategoryID    uint     `json:"category_id" validate:"required"`
	StockQuantity int      `json:"stock_quantity" validate:"gte=0"`
	ImageURL      string   `json:"image_url" validate:"nullable,max=500"`
	Images        []string `json:"images"`
	Sizes         []string `json:"sizes"`
	Colors        []string `json:"colors"`
	Material      string   `json:"material" validate:"nullable,max=100"`
	IsFeatured    bool     `json:"is_featured"`
}

// ProductUpdate changes a product. Nil fields are left alone.
type ProductUpdate struct {
	Name          *string   `json:"name" validate:"nullable,max=200"`
	Description   *string   `json:"description"`
	Price         *float64  `json:"price" validate:"nullable,gt=0"`
	SalePrice     *float64  `json:"sale_price" validate:"nullable,gte=0"`
	SKU           *string   `json:"sku" validate:"nullable,max=50"`
	CategoryID    *uint     `json:"category_id"`
	StockQuantity *int      `json:"stock_quantity" validate:"nullable,gte=0"`
	ImageURL      *string   `json:"image_url"`
	Images        *[]string `json:"images"`
	Sizes         *[]string `json:"sizes"`
	Colors        *[]string `json:"colors"`
	Material      *string   `json:"material"`
	IsFeatured    *bool     `json:"is_featured"`
	IsActive      *bool     `json:"is_active"`
}

// CategoryInput creates a category.
type CategoryInput struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url" validate:"nullable,max=500"`
	ParentID    *uint  `json:"parent_id"`
}

// CategoryNode is a category with its active product count and children.
type CategoryNode struct {
	models.Category
	ProductCount  int64          `json:"product_count"`
	Subcategories []CategoryNode `json:"subcategories"`
}

type CatalogService struct {
	products *repositories.ProductRepository
	cacheTTL time.Duration
}

func NewCatalogService() *CatalogService {
	return &CatalogService{
		products: repositories.NewProductRepository(),
		cacheTTL: time.Duration(config.CatalogCacheTTLSeconds()) * time.Second,
	}
}

// Products lists active products. Results are cached per query until the
// TTL passes or a catalogue write bumps the version.
func (s *CatalogService) Products(ctx context.Context, q ProductQuery) (ProductPage, error) {
	q.Page, q.PerPage = orm.NormalizePage(q.Page, q.PerPage)

	var out ProductPage
	err := cache.Remember(q.cacheKey(cache.Version(catalogVersionKey)), s.cacheTTL, &out, func() error {
		f := repositories.ProductFilter{
			CategoryName: q.Category,
			MinPrice:     q.MinPrice,
			MaxPrice:     q.MaxPrice,
			Search:       strings.TrimSpace(q.Search),
			FeaturedOnly: q.Featured,
		}
		if q.CategoryID != 0 {
			ids, err := s.products.DescendantIDs(ctx, q.CategoryID)
			if err != nil {
				return err
			}
			f.CategoryIDs = ids
		}
		products, p, err := s.products.List(ctx, f, q.Page, q.PerPage)
		if err != nil {
			return err
		}
		if products == nil {
			products = []models.Product{}
		}
		out = ProductPage{Products: products, Pagination: p}
		return nil
	})
	return out, err
}

// SearchProducts is the unpaged lookup used by GraphQL.
func (s *CatalogService) SearchProducts(ctx context.Context, category, search string, limit int) ([]models.Product, error) {
	if limit <= 0 || limit > orm.MaxPerPage {
		limit = 20
	}
	return s.products.Search(ctx, repositories.ProductFilter{CategoryName: category, Search: search}, limit)
}

// Product returns an active product without side effects.
func (s *CatalogService) Product(ctx context.Context, id uint) (models.Product, error) {
	p, err := s.products.FindByID(ctx, id)
	if err != nil {
		return p, orNotFound(err, "Product not found")
	}
	if !p.IsActive {
		return p, notFound("Product not found")
	}
	return p, nil
}

// View returns a product for its detail page and counts the view.
func (s *CatalogService) View(ctx context.Context, id uint) (models.Product, error) {
	p, err := s.Product(ctx, id)
	if err != nil {
		return p, err
	}
	if err := s.products.IncrementViews(ctx, id); err != nil {
		return p, err
	}
	p.ViewCount++
	return p, nil
}

// RememberViewed puts id at the front of ids, dropping duplicates and
// keeping the newest ten.
func RememberViewed(ids []uint, id uint) []uint {
	out := make([]uint, 0, recentlyViewedMax)
	out = append(out, id)
	for _, v := range ids {
		if v != id && len(out) < recentlyViewedMax {
			out = append(out, v)
		}
	}
	return out
}

// Recent loads the recently viewed products in viewing order, skipping
// any that have since been deactivated.
func (s *CatalogService) Recent(ctx context.Context, ids []uint) ([]models.Product, error) {
	products, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]models.Product, 0, len(products))
	for _, p := range products {
		if p.IsActive {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *CatalogService) CreateProduct(ctx context.Context, in ProductInput) (models.Product, error) {
	if _, err := s.products.FindCategory(ctx, in.CategoryID); err != nil {
		return models.Product{}, orNotFoundAs(err, badRequest("Category not found"))
	}
	p := models.Product{
		Name:          strings.TrimSpace(in.Name),
		Slug:          models.Slugify(in.Name),
		Description:   in.Description,
		Price:         in.Price,
		SalePrice:     in.SalePrice,
		CategoryID:    in.CategoryID,
		StockQuantity: in.StockQuantity,
		ImageURL:      in.ImageURL,
		Images:        models.JoinList(in.Images),
		Sizes:         models.JoinList(in.Sizes),
		Colors:        models.JoinList(in.Colors),
		Material:      in.Material,
		IsActive:      true,
		IsFeatured:    in.IsFeatured,
	}
	if sku := strings.TrimSpace(in.SKU); sku != "" {
		if err := s.checkSKU(ctx, sku, 0); err != nil {
			return p, err
		}
		p.SKU = &sku
	}

	if err := s.products.Create(ctx, &p); err != nil {
		if database.IsUniqueViolation(err) {
			return p, badRequest("A product with this name already exists")
		}
		return p, err
	}
	s.invalidate(ctx)
	logger.WithCtx(ctx).Info("product created", "product_id", p.ID, "slug", p.Slug)
	return s.products.FindByID(ctx, p.ID)
}

func (s *CatalogService) UpdateProduct(ctx context.Context, id uint, in ProductUpdate) (models.Product, error) {
	p, err := s.products.FindByID(ctx, id)
	if err != nil {
		return p, orNotFound(err, "Product not found")
	}

	if in.Name != nil && strings.TrimSpace(*in.Name) != "" {
		p.Name = strings.TrimSpace(*in.Name)
		p.Slug = models.Slugify(p.Name)
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.Price != nil {
		p.Price = *in.Price
	}
	if in.SalePrice != nil {
		if *in.SalePrice == 0 {
			p.SalePrice = nil
		} else {
			p.SalePrice = in.SalePrice
		}
	}
	if in.SKU != nil {
		sku := strings.TrimSpace(*in.SKU)
		if sku == "" {
			p.SKU = nil
		} else {
			if err := s.checkSKU(ctx, sku, id); err != nil {
				return p, err
			}
			p.SKU = &sku
		}
	}
	if in.CategoryID != nil && *in.CategoryID != p.CategoryID {
		if _, err := s.products.FindCategory(ctx, *in.CategoryID); err != nil {
			return p, orNotFoundAs(err, badRequest("Category not found"))
		}
		p.CategoryID = *in.CategoryID
	}
	if in.StockQuantity != nil {
		p.StockQuantity = *in.StockQuantity
	}
	if in.ImageURL != nil {
		p.ImageURL = *in.ImageURL
	}
	if in.Images != nil {
		p.Images = models.JoinList(*in.Images)
	}
	if in.Sizes != nil {
		p.Sizes = models.JoinList(*in.Sizes)
	}
	if in.Colors != nil {
		p.Colors = models.JoinList(*in.Colors)
	}
	if in.Material != nil {
		p.Material = *in.Material
	}
	if in.IsFeatured != nil {
		p.IsFeatured = *in.IsFeatured
	}
	if in.IsActive != nil {
		p.IsActive = *in.IsActive
	}

	p.Category = nil
	if err := s.products.Save(ctx, &p); err != nil {
		if database.IsUniqueViolation(err) {
			return p, badRequest("A product with this name already exists")
		}
		return p, err
	}
	s.invalidate(ctx)
	logger.WithCtx(ctx).Info("product updated", "product_id", p.ID)
	return s.products.FindByID(ctx, p.ID)
}

// DeactivateProduct hides a product from the storefront. Orders keep
// referring to it.
func (s *CatalogService) DeactivateProduct(ctx context.Context, id uint) error {
	p, err := s.products.FindByID(ctx, id)
	if err != nil {
		return orNotFound(err, "Product not found")
	}
	p.IsActive = false
	p.Category = nil
	if err := s.products.Save(ctx, &p); err != nil {
		return err
	}
	s.invalidate(ctx)
	logger.WithCtx(ctx).Info("product deactivated", "product_id", id)
	return nil
}

// UploadImage stores an image for the product on the default disk and
// points image_url at it.
func (s *CatalogService) UploadImage(ctx context.Context, id uint, filename string, r io.Reader) (models.Product, error) {
	ext := strings.ToLower(path.Ext(filename))
	contentType, ok := imageTypes[ext]
	if !ok {
		return models.Product{}, badRequest("Invalid file type")
	}
	p, err := s.products.FindByID(ctx, id)
	if err != nil {
		return p, orNotFound(err, "Product not found")
	}

	name := uuid.NewString() + ext
	if err := storage.Default().PutStream(ctx, imageDir+"/"+name, r, contentType); err != nil {
		return p, fmt.Errorf("store image: %w", err)
	}

	p.ImageURL = ImageRoute + name
	p.Category = nil
	if err := s.products.Save(ctx, &p); err != nil {
		return p, err
	}
	s.invalidate(ctx)
	logger.WithCtx(ctx).Info("product image uploaded", "product_id", id, "file", name)
	return s.products.FindByID(ctx, id)
}

// OpenImage streams a stored product image.
func (s *CatalogService) OpenImage(ctx context.Context, filename string) (io.ReadCloser, string, error) {
	contentType, ok := imageTypes[strings.ToLower(path.Ext(filename))]
	if !ok || strings.ContainsAny(filename, `/\`) || strings.HasPrefix(filename, ".") {
		return nil, "", notFound("Image not found")
	}
	rc, err := storage.Default().GetStream(ctx, imageDir+"/"+filename)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, "", notFound("Image not found")
		}
		return nil, "", err
	}
	return rc, contentType, nil
}

// Categories returns the active category tree with product counts.
func (s *CatalogService) Categories(ctx context.Context) ([]CategoryNode, error) {
	cats, err := s.products.ActiveCategories(ctx)
	if err != nil {
		return nil, err
	}
	counts, err := s.products.ProductCounts(ctx)
	if err != nil {
		return nil, err
	}

	active := make(map[uint]bool, len(cats))
	for _, c := range cats {
		active[c.ID] = true
	}
	children := map[uint][]models.Category{}
	var roots []models.Category
	for _, c := range cats {
		if c.ParentID != nil && active[*c.ParentID] {
			children[*c.ParentID] = append(children[*c.ParentID], c)
			continue
		}
		roots = append(roots, c)
	}

	var build func(c models.Category, depth int) CategoryNode
	build = func(c models.Category, depth int) CategoryNode {
		n := CategoryNode{Category: c, ProductCount: counts[c.ID], Subcategories: []CategoryNode{}}
		n.Category.Subcategories = nil
		if depth < 16 {
			for _, child := range children[c.ID] {
				n.Subcategories = append(n.Subcategories, build(child, depth+1))
			}
		}
		return n
	}
	out := make([]CategoryNode, 0, len(roots))
	for _, c := range roots {
		out = append(out, build(c, 0))
	}
	return out, nil
}

func (s *CatalogService) CreateCategory(ctx context.Context, in CategoryInput) (models.Category, error) {
	name := strings.TrimSpace(in.Name)
	taken, err := s.products.CategoryNameTaken(ctx, name)
	if err != nil {
		return models.Category{}, err
	}
	if taken {
		return models.Category{}, badRequest("Category already exists")
	}
	if in.ParentID != nil {
		if _, err := s.products.FindCategory(ctx, *in.ParentID); err != nil {
			return models.Category{}, orNotFoundAs(err, badRequest("Parent category not found"))
		}
	}

	c := models.Category{
		Name:        name,
		Slug:        models.Slugify(name),
		Description: in.Description,
		ImageURL:    in.ImageURL,
		ParentID:    in.ParentID,
		IsActive:    true,
	}
	if err := s.products.CreateCategory(ctx, &c); err != nil {
		if database.IsUniqueViolation(err) {
			return c, badRequest("Category already exists")
		}
		return c, err
	}
	s.invalidate(ctx)
	return c, nil
}

func (s *CatalogService) checkSKU(ctx context.Context, sku string, exceptID uint) error {
	taken, err := s.products.SKUTaken(ctx, sku, exceptID)
	if err != nil {
		return err
	}
	if taken {
		return badRequest("SKU already exists")
	}
	return nil
}

func (s *CatalogService) invalidate(ctx context.Context) {
	if err := cache.Bump(catalogVersionKey); err != nil {
		logger.WithCtx(ctx).Warn("catalog cache invalidation failed", "error", err)
	}
}
