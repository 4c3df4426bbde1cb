package seeders

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/pkg/auth"
	"gorm.io/gorm"
)

// Admin credentials created by SeedAdmin.
const (
	AdminEmail    = "admin@shop.com"
	AdminPassword = "admin123"
)

func SeedRoles(db *gorm.DB) error {
	roles := []models.Role{
		{Name: models.RoleAdmin, Description: "Store staff with full access"},
		{Name: models.RoleCustomer, Description: "Registered shopper"},
	}
	for _, r := range roles {
		r := r
		if err := db.Where(models.Role{Name: r.Name}).FirstOrCreate(&r).Error; err != nil {
			return err
		}
	}
	return nil
}

func SeedAdmin(db *gorm.DB) error {
	var admin models.User
	err := db.Where("email = ?", AdminEmail).First(&admin).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hash, err := auth.HashPassword(AdminPassword)
	if err != nil {
		return err
	}
	var role models.Role
	if err := db.Where("name = ?", models.RoleAdmin).First(&role).Error; err != nil {
		return fmt.Errorf("admin role missing, seed roles first: %w", err)
	}

	admin = models.User{
		Email:    AdminEmail,
		Name:     "Store Admin",
		Password: hash,
		IsActive: true,
		IsAdmin:  true,
		Roles:    []models.Role{role},
	}
	return db.Create(&admin).Error
}

type seedProduct struct {
	name, description string
	price             float64
	stock             int
	image             string
}

var seedCategories = []struct {
	name, description string
	products          []seedProduct
}{
	{"Men", "Fashion for men", []seedProduct{
		{"Nairobi Skyline T-Shirt", "Cotton tee with Nairobi skyline print", 1500, 50, "photo-1521572163474-6864f9cf17ab"},
		{"Slim Fit Denim Jeans", "Modern slim fit blue jeans", 3500, 30, "photo-1542272604-787c3835535d"},
		{"Leather Biker Jacket", "Premium leather jacket", 12000, 10, "photo-1551028719-00167b16eac5"},
		{"White Sneakers", "Classic white canvas sneakers", 3500, 40, "photo-1549298916-b41d501d3772"},
		{"Classic Black Jeans", "Versatile black denim", 3200, 35, "photo-1541099649105-f69ad21f3246"},
		{"Bomber Jacket", "Stylish bomber jacket", 5500, 15, "photo-1591047139829-d91aecb6caea"},
		{"Casual Polo Shirt", "Comfortable polo shirt", 2200, 45, "photo-1586790170083-2f9ceadc732d"},
		{"Chino Pants", "Smart casual chino pants", 3800, 28, "photo-1473966968600-fa801b869a1a"},
		{"Formal Dress Shirt", "Classic white dress shirt", 2800, 32, "photo-1602810318383-e386cc2a3ccf"},
	}},
	{"Women", "Fashion for women", []seedProduct{
		{"Ankara Print Dress", "Vibrant African print dress", 4500, 20, "photo-1595777457583-95e059d581b8"},
		{"Kitenge Maxi Dress", "Traditional Kitenge fabric maxi dress", 5500, 15, "photo-1572804013309-59a88b7e92f1"},
		{"Evening Cocktail Dress", "Elegant evening wear", 6500, 12, "photo-1566174053879-31528523f8ae"},
		{"Denim Jacket", "Classic blue denim jacket", 4500, 18, "photo-1576995853123-5a10305d93c0"},
		{"Leather Boots", "Brown leather ankle boots", 6500, 20, "photo-1608256246200-53e635b5b65f"},
		{"Floral Blouse", "Elegant floral print blouse", 2800, 35, "photo-1564257577-1f5b3e7c6c3d"},
		{"High Waist Skirt", "Stylish high waist skirt", 3200, 25, "photo-1583496661160-fb5886a0aaaa"},
		{"Cardigan Sweater", "Cozy knit cardigan", 3800, 22, "photo-1434389677669-e08b4cac3105"},
		{"Silk Scarf", "Luxury silk scarf", 1800, 40, "photo-1601924994987-69e26d50dc26"},
	}},
	{"Children", "Fashion for children", []seedProduct{
		{"Maasai Pattern Tee", "Traditional Maasai pattern design", 1800, 40, "photo-1583743814966-8936f5b7be1a"},
		{"Safari Print T-Shirt", "Wildlife safari themed tee", 1600, 45, "photo-1576566588028-4147f3842f27"},
		{"Kids Denim Jeans", "Comfortable denim for kids", 2500, 35, "photo-1475178626620-a4d074967452"},
		{"Running Shoes", "Comfortable sports shoes", 3000, 30, "photo-1542291026-7eec264c27ff"},
		{"Hoodie Sweatshirt", "Warm and cozy hoodie", 2200, 38, "photo-1556821840-3a63f95609a7"},
		{"Cartoon Print Dress", "Fun cartoon character dress", 2000, 28, "photo-1518831959646-742c3a14ebf7"},
		{"Sports Shorts", "Active wear shorts", 1400, 42, "photo-1591195853828-11db59a44f6b"},
		{"Winter Jacket", "Warm winter jacket for kids", 4200, 20, "photo-1578587018452-892bacefd3f2"},
		{"School Backpack", "Durable school backpack", 2800, 25, "photo-1553062407-98eeb64c6a62"},
	}},
	{"Accessories", "Fashion accessories", []seedProduct{
		{"Beaded Maasai Necklace", "Handcrafted Maasai beaded necklace", 1200, 50, "photo-1599643478518-a784e5dc4c8f"},
		{"Leather Belt", "Genuine leather belt", 1500, 35, "photo-1624222247344-550fb60583bb"},
		{"Sunglasses", "UV protection sunglasses", 2000, 45, "photo-1572635196237-14b3f281503f"},
		{"Leather Wallet", "Premium leather wallet", 1800, 40, "photo-1627123424574-724758594e93"},
		{"Wrist Watch", "Stylish analog watch", 5500, 15, "photo-1524805444758-089113d48a6d"},
		{"Baseball Cap", "Casual baseball cap", 1200, 55, "photo-1588850561407-ed78c282e89b"},
		{"Leather Handbag", "Elegant leather handbag", 6500, 18, "photo-1584917865442-de89df76afd3"},
		{"Silk Tie", "Premium silk necktie", 1600, 30, "photo-1589756823695-278bc8356c60"},
		{"Beanie Hat", "Warm knit beanie", 900, 60, "photo-1576871337622-98d48d1cf531"},
	}},
}

// SeedCatalog creates the four top-level categories and nine products in
// each. The first product of every category is featured.
func SeedCatalog(db *gorm.DB) error {
	return db.Transaction(func(tx *gorm.DB) error {
		for _, c := range seedCategories {
			cat := models.Category{Name: c.name}
			if err := tx.Where("name = ?", c.name).
				Attrs(models.Category{Slug: models.Slugify(c.name), Description: c.description, IsActive: true}).
				FirstOrCreate(&cat).Error; err != nil {
				return err
			}

			for i, p := range c.products {
				sku := fmt.Sprintf("%s-%03d", strings.ToUpper(c.name[:3]), i+1)
				prod := models.Product{Name: p.name}
				err := tx.Where("name = ?", p.name).Attrs(models.Product{
					Slug:          models.Slugify(p.name),
					Description:   p.description,
					Price:         p.price,
					SKU:           &sku,
					CategoryID:    cat.ID,
					StockQuantity: p.stock,
					ImageURL:      "https://images.unsplash.com/" + p.image + "?w=400",
					Sizes:         "S,M,L,XL",
					IsActive:      true,
					IsFeatured:    i == 0,
				}).FirstOrCreate(&prod).Error
				if err != nil {
					return err
				}
			}
		}
		return nil
	})
}
