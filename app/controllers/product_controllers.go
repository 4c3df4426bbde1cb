package controllers

import (
	"io"
	"net/http"
	"strings"

	"github.com/shashiranjanraj/storefront/app/resources"
	"github.com/shashiranjanraj/storefront/app/services"
	"github.com/shashiranjanraj/storefront/pkg/ctx"
	"github.com/shashiranjanraj/storefront/pkg/resource"
	"github.com/shashiranjanraj/storefront/pkg/session"
)

const maxImageBytes = 10 << 20

type ProductController struct {
	catalog *services.CatalogService
}

func NewProductController(catalog *services.CatalogService) *ProductController {
	return &ProductController{catalog: catalog}
}

func truthy(s string) bool {
	switch strings.ToLower(s) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

// Index lists active products with the catalogue filters.
func (p *ProductController) Index(c *ctx.Context) {
	page, perPage := c.Page(20)
	q := services.ProductQuery{
		Category:   c.Query("category"),
		CategoryID: uint(c.QueryInt("category_id", 0)),
		Search:     c.Query("search"),
		Featured:   truthy(c.Query("featured")),
		Page:       page,
		PerPage:    perPage,
	}
	if v, ok := c.QueryFloat("min_price"); ok {
		q.MinPrice = &v
	}
	if v, ok := c.QueryFloat("max_price"); ok {
		q.MaxPrice = &v
	}

	out, err := p.catalog.Products(c.Context(), q)
	if err != nil {
		fail(c, err)
		return
	}
	c.Paginated("products", resource.Many(resources.Product, out.Products), out.Pagination)
}

// Show returns one product, counts the view and remembers it in the
// session's recently viewed list.
func (p *ProductController) Show(c *ctx.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	product, err := p.catalog.View(c.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}

	sess := session.FromCtx(c.R)
	sess.Set(services.RecentlyViewedKey, services.RememberViewed(sess.GetUints(services.RecentlyViewedKey), id))
	if err := sess.Save(c.W); err != nil {
		c.Log().Warn("session save failed", "error", err)
	}
	c.Success(resources.Product(product))
}

// Recent returns this session's recently viewed products.
func (p *ProductController) Recent(c *ctx.Context) {
	ids := session.FromCtx(c.R).GetUints(services.RecentlyViewedKey)
	products, err := p.catalog.Recent(c.Context(), ids)
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(resource.Many(resources.Product, products))
}

func (p *ProductController) Store(c *ctx.Context) {
	var in services.ProductInput
	if !c.BindJSON(&in) {
		return
	}
	product, err := p.catalog.CreateProduct(c.Context(), in)
	if err != nil {
		fail(c, err)
		return
	}
	c.CreatedWithMessage("Product created", resources.Product(product))
}

func (p *ProductController) Update(c *ctx.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var in services.ProductUpdate
	if !c.BindJSON(&in) {
		return
	}
	product, err := p.catalog.UpdateProduct(c.Context(), id, in)
	if err != nil {
		fail(c, err)
		return
	}
	c.Message("Product updated", resources.Product(product))
}

// Destroy deactivates the product.
func (p *ProductController) Destroy(c *ctx.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := p.catalog.DeactivateProduct(c.Context(), id); err != nil {
		fail(c, err)
		return
	}
	c.Message("Product deleted", nil)
}

// UploadImage accepts a multipart "image" field.
func (p *ProductController) UploadImage(c *ctx.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	c.R.Body = http.MaxBytesReader(c.W, c.R.Body, maxImageBytes)
	if err := c.R.ParseMultipartForm(maxImageBytes); err != nil {
		c.Error(http.StatusBadRequest, "No image file provided")
		return
	}
	file, header, err := c.R.FormFile("image")
	if err != nil {
		c.Error(http.StatusBadRequest, "No image file provided")
		return
	}
	defer file.Close()
	if header.Filename == "" {
		c.Error(http.StatusBadRequest, "No file selected")
		return
	}

	product, err := p.catalog.UploadImage(c.Context(), id, header.Filename, file)
	if err != nil {
		fail(c, err)
		return
	}
	c.Message("Image uploaded", resources.Product(product))
}

// Image serves a stored product image.
func (p *ProductController) Image(c *ctx.Context) {
	rc, contentType, err := p.catalog.OpenImage(c.Context(), c.Param("filename"))
	if err != nil {
		fail(c, err)
		return
	}
	defer rc.Close()
	c.SetHeader("Content-Type", contentType)
	c.SetHeader("Cache-Control", "public, max-age=86400")
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.W, rc); err != nil {
		c.Log().Warn("image stream interrupted", "error", err)
	}
}

type CategoryController struct {
	catalog *services.CatalogService
}

func NewCategoryController(catalog *services.CatalogService) *CategoryController {
	return &CategoryController{catalog: catalog}
}

func (cc *CategoryController) Index(c *ctx.Context) {
	tree, err := cc.catalog.Categories(c.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(resource.Many(resources.CategoryTree, tree))
}

func (cc *CategoryController) Store(c *ctx.Context) {
	var in services.CategoryInput
	if !c.BindJSON(&in) {
		return
	}
	cat, err := cc.catalog.CreateCategory(c.Context(), in)
	if err != nil {
		fail(c, err)
		return
	}
	c.CreatedWithMessage("Category created", resources.Category(cat))
}
