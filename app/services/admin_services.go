package services

import (
	"context"
	"strings"
	"time"

	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/app/repositories"
	"github.com/shashiranjanraj/storefront/config"
	"github.com/shashiranjanraj/storefront/pkg/database"
	"github.com/shashiranjanraj/storefront/pkg/logger"
	"github.com/shashiranjanraj/storefront/pkg/orm"
	"github.com/shashiranjanraj/storefront/pkg/workerpool"
	"gorm.io/gorm"
)

// UserUpdate is the body of PUT /api/admin/users/{id}. Nil fields are
// left alone.
type UserUpdate struct {
	Name     *string `json:"name" validate:"nullable,max=100"`
	Phone    *string `json:"phone" validate:"nullable,phone"`
	IsActive *bool   `json:"is_active"`
	IsAdmin  *bool   `json:"is_admin"`
}

type RoleInput struct {
	Name        string `json:"name" validate:"required,max=50"`
	Description string `json:"description" validate:"nullable,max=255"`
}

type AssignRolesInput struct {
	Roles []string `json:"roles"`
}

// StockInput is the body of PATCH /api/admin/inventory/{id}.
type StockInput struct {
	StockQuantity *int `json:"stock_quantity" validate:"nullable,gte=0"`
}

type CategoryCount struct {
	Category string `json:"category"`
	Count    int64  `json:"count"`
}

// ProductAnalytics is GET /api/admin/analytics/products.
type ProductAnalytics struct {
	TotalProducts  int64            `json:"totalProducts"`
	ActiveProducts int64            `json:"activeProducts"`
	LowStock       int64            `json:"lowStock"`
	OutOfStock     int64            `json:"outOfStock"`
	FeaturedCount  int64            `json:"featuredCount"`
	MostViewed     []models.Product `json:"mostViewed"`
	ByCategory     []CategoryCount  `json:"byCategory"`
}

type Overview struct {
	TotalUsers    int64   `json:"totalUsers"`
	NewUsers30d   int64   `json:"newUsers30d"`
	TotalOrders   int64   `json:"totalOrders"`
	Orders30d     int64   `json:"orders30d"`
	PendingOrders int64   `json:"pendingOrders"`
	TotalRevenue  float64 `json:"totalRevenue"`
	Revenue30d    float64 `json:"revenue30d"`
}

// Dashboard is GET /api/admin/analytics/dashboard.
type Dashboard struct {
	Overview     Overview       `json:"overview"`
	OrderStatus  []StatusCount  `json:"orderStatus"`
	RecentOrders []models.Order `json:"recentOrders"`
}

// AdminService backs the /api/admin surface.
type AdminService struct {
	users    *repositories.UserRepository
	products *repositories.ProductRepository
	orders   *repositories.OrderRepository
	pool     *workerpool.Pool
	catalog  *CatalogService
	now      func() time.Time
}

func NewAdminService(catalog *CatalogService, pool *workerpool.Pool) *AdminService {
	if pool == nil {
		pool = workerpool.New(4)
	}
	return &AdminService{
		users:    repositories.NewUserRepository(),
		products: repositories.NewProductRepository(),
		orders:   repositories.NewOrderRepository(),
		pool:     pool,
		catalog:  catalog,
		now:      time.Now,
	}
}

// ─── Users ────────────────────────────────────────────────────────────────────

func (s *AdminService) Users(ctx context.Context, search string, page, perPage int) ([]models.User, orm.Pagination, error) {
	return s.users.Paginate(ctx, search, page, perPage)
}

func (s *AdminService) User(ctx context.Context, id uint) (models.User, error) {
	u, err := s.users.FindByID(ctx, id)
	return u, orNotFound(err, "User not found")
}

func (s *AdminService) UpdateUser(ctx context.Context, id uint, in UserUpdate) (models.User, error) {
	u, err := s.User(ctx, id)
	if err != nil {
		return u, err
	}
	if in.Name != nil && strings.TrimSpace(*in.Name) != "" {
		u.Name = strings.TrimSpace(*in.Name)
	}
	if in.Phone != nil && *in.Phone != "" {
		u.Phone = *in.Phone
	}
	if in.IsActive != nil {
		u.IsActive = *in.IsActive
	}
	if in.IsAdmin != nil {
		u.IsAdmin = *in.IsAdmin
	}
	if err := s.users.Update(ctx, &u); err != nil {
		return u, err
	}
	logger.WithCtx(ctx).Info("user updated by admin", "user_id", u.ID, "is_active", u.IsActive, "is_admin", u.IsAdmin)
	return u, nil
}

// DeleteUser removes an account. Admins cannot remove their own.
func (s *AdminService) DeleteUser(ctx context.Context, actorID, id uint) error {
	if actorID == id {
		return badRequest("Cannot delete your own account")
	}
	u, err := s.User(ctx, id)
	if err != nil {
		return err
	}
	err = database.Transaction(ctx, func(tx *gorm.DB) error {
		return s.users.WithTx(tx).Delete(ctx, &u)
	})
	if err != nil {
		return err
	}
	logger.WithCtx(ctx).Info("user deleted", "user_id", id, "by", actorID)
	return nil
}

// ─── Roles ────────────────────────────────────────────────────────────────────

func (s *AdminService) Roles(ctx context.Context) ([]models.Role, error) {
	return s.users.Roles(ctx)
}

func (s *AdminService) CreateRole(ctx context.Context, in RoleInput) (models.Role, error) {
	name := strings.TrimSpace(in.Name)
	if _, err := s.users.FindRole(ctx, name); err == nil {
		return models.Role{}, badRequest("Role already exists")
	} else if !database.IsNotFound(err) {
		return models.Role{}, err
	}
	role := models.Role{Name: name, Description: in.Description}
	if err := s.users.CreateRole(ctx, &role); err != nil {
		if database.IsUniqueViolation(err) {
			return role, badRequest("Role already exists")
		}
		return role, err
	}
	return role, nil
}

// AssignRoles replaces the user's roles. Every name must exist.
func (s *AdminService) AssignRoles(ctx context.Context, id uint, names []string) (models.User, error) {
	u, err := s.User(ctx, id)
	if err != nil {
		return u, err
	}
	want := make([]string, 0, len(names))
	seen := map[string]bool{}
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" && !seen[n] {
			seen[n] = true
			want = append(want, n)
		}
	}
	roles, err := s.users.FindRoles(ctx, want)
	if err != nil {
		return u, err
	}
	if len(roles) != len(want) {
		found := map[string]bool{}
		for _, r := range roles {
			found[r.Name] = true
		}
		var missing []string
		for _, n := range want {
			if !found[n] {
				missing = append(missing, n)
			}
		}
		return u, badRequest("Unknown roles: %s", strings.Join(missing, ", "))
	}
	if err := s.users.ReplaceRoles(ctx, &u, roles); err != nil {
		return u, err
	}
	logger.WithCtx(ctx).Info("user roles replaced", "user_id", u.ID, "roles", want)
	return u, nil
}

// ─── Inventory ────────────────────────────────────────────────────────────────

func (s *AdminService) Inventory(ctx context.Context, level string, page, perPage int) ([]models.Product, orm.Pagination, error) {
	switch level {
	case "", repositories.StockOut, repositories.StockLow, repositories.StockNormal:
	default:
		return nil, orm.Pagination{}, badRequest("Invalid stock filter")
	}
	return s.products.Inventory(ctx, level, config.LowStockThreshold(), page, perPage)
}

func (s *AdminService) SetStock(ctx context.Context, id uint, in StockInput) (models.Product, error) {
	if in.StockQuantity == nil {
		return models.Product{}, badRequest("stock_quantity is required")
	}
	p, err := s.products.FindByID(ctx, id)
	if err != nil {
		return p, orNotFound(err, "Product not found")
	}
	if err := s.products.SetStock(ctx, id, *in.StockQuantity); err != nil {
		return p, err
	}
	p.StockQuantity = *in.StockQuantity
	if s.catalog != nil {
		s.catalog.invalidate(ctx)
	}
	logger.WithCtx(ctx).Info("stock set", "product_id", id, "stock_quantity", p.StockQuantity)
	return p, nil
}

// ─── Analytics ────────────────────────────────────────────────────────────────

func (s *AdminService) ProductAnalytics(ctx context.Context) (ProductAnalytics, error) {
	var out ProductAnalytics
	threshold := config.LowStockThreshold()
	count := func(dst *int64, where string, args ...interface{}) func(context.Context) error {
		return func(ctx context.Context) error {
			q := orm.DB().WithContext(ctx).Model(&models.Product{})
			if where != "" {
				q = q.Where(where, args...)
			}
			n, err := q.Count()
			*dst = n
			return err
		}
	}

	err := s.pool.Run(ctx,
		count(&out.TotalProducts, ""),
		count(&out.ActiveProducts, "is_active = ?", true),
		count(&out.LowStock, "stock_quantity > 0 AND stock_quantity <= ?", threshold),
		count(&out.OutOfStock, "stock_quantity = 0"),
		count(&out.FeaturedCount, "is_featured = ? AND is_active = ?", true, true),
		func(ctx context.Context) error {
			out.MostViewed = []models.Product{}
			return orm.DB().WithContext(ctx).Order("view_count DESC").Order("id").Limit(10).Get(&out.MostViewed)
		},
		func(ctx context.Context) error {
			out.ByCategory = []CategoryCount{}
			return orm.DB().WithContext(ctx).Model(&models.Product{}).Gorm().
				Select("categories.name AS category, COUNT(products.id) AS count").
				Joins("JOIN categories ON categories.id = products.category_id").
				Group("categories.name").Order("categories.name").
				Scan(&out.ByCategory).Error
		},
	)
	return out, err
}

func (s *AdminService) Dashboard(ctx context.Context) (Dashboard, error) {
	var out Dashboard
	since := windowStart(s.now(), DefaultAnalyticsDays)
	ov := &out.Overview

	orderCount := func(dst *int64, where string, args ...interface{}) func(context.Context) error {
		return func(ctx context.Context) error {
			q := orm.DB().WithContext(ctx).Model(&models.Order{})
			if where != "" {
				q = q.Where(where, args...)
			}
			n, err := q.Count()
			*dst = n
			return err
		}
	}
	revenue := func(dst *float64, since time.Time) func(context.Context) error {
		return func(ctx context.Context) error {
			var v float64
			err := orm.DB().WithContext(ctx).Model(&models.Order{}).
				Where("status <> ?", models.StatusCancelled).
				WhereIf(!since.IsZero(), "created_at >= ?", since).Gorm().
				Select("COALESCE(SUM(total_amount), 0)").
				Scan(&v).Error
			*dst = roundMoney(v)
			return err
		}
	}

	err := s.pool.Run(ctx,
		func(ctx context.Context) (err error) {
			ov.TotalUsers, err = s.users.CountSince(ctx, time.Time{})
			return
		},
		func(ctx context.Context) (err error) { ov.NewUsers30d, err = s.users.CountSince(ctx, since); return },
		orderCount(&ov.TotalOrders, ""),
		orderCount(&ov.Orders30d, "created_at >= ?", since),
		orderCount(&ov.PendingOrders, "status = ?", models.StatusPending),
		revenue(&ov.TotalRevenue, time.Time{}),
		revenue(&ov.Revenue30d, since),
		func(ctx context.Context) error {
			out.OrderStatus = []StatusCount{}
			return orm.DB().WithContext(ctx).Model(&models.Order{}).Gorm().
				Select("status, COUNT(*) AS count").
				Group("status").Order("status").
				Scan(&out.OrderStatus).Error
		},
		func(ctx context.Context) (err error) { out.RecentOrders, err = s.orders.Recent(ctx, 10); return },
	)
	return out, err
}
