package services

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/pkg/orm"
	"github.com/shashiranjanraj/storefront/pkg/workerpool"
	"gorm.io/gorm"
)

// DefaultAnalyticsDays is the window used when the caller does not pick
// one.
const DefaultAnalyticsDays = 30

type Summary struct {
	TotalOrders   int64   `json:"totalOrders"`
	TotalRevenue  float64 `json:"totalRevenue"`
	AvgOrderValue float64 `json:"avgOrderValue"`
	PendingOrders int64   `json:"pendingOrders"`
}

type OrdersPoint struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

type RevenuePoint struct {
	Date    string  `json:"date"`
	Revenue float64 `json:"revenue"`
}

type StatusCount struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

type CategoryStat struct {
	Category string  `json:"category"`
	Count    int64   `json:"count"`
	Revenue  float64 `json:"revenue"`
}

// Report is the order analytics for one window.
type Report struct {
	Days               int            `json:"days"`
	Summary            Summary        `json:"summary"`
	OrdersTrend        []OrdersPoint  `json:"ordersTrend"`
	RevenueTrend       []RevenuePoint `json:"revenueTrend"`
	StatusDistribution []StatusCount  `json:"statusDistribution"`
	CategoryStatistics []CategoryStat `json:"categoryStatistics"`
}

// AnalyticsService aggregates orders. Cancelled orders are counted but
// never contribute revenue.
type AnalyticsService struct {
	pool *workerpool.Pool
	now  func() time.Time
}

// NewAnalyticsService runs report sections on pool. A nil pool gets a
// private one sized for the five sections.
func NewAnalyticsService(pool *workerpool.Pool) *AnalyticsService {
	if pool == nil {
		pool = workerpool.New(5)
	}
	return &AnalyticsService{pool: pool, now: time.Now}
}

func (s *AnalyticsService) since(days int) time.Time {
	return windowStart(s.now(), days)
}

// windowStart is the start of a days-long reporting window ending at now,
// in UTC like the stored timestamps.
func windowStart(now time.Time, days int) time.Time {
	if days <= 0 {
		days = DefaultAnalyticsDays
	}
	return now.UTC().AddDate(0, 0, -days)
}

// Report computes every section for the last days days concurrently.
func (s *AnalyticsService) Report(ctx context.Context, days int) (Report, error) {
	if days <= 0 {
		days = DefaultAnalyticsDays
	}
	since := s.since(days)
	out := Report{Days: days}

	err := s.pool.Run(ctx,
		func(ctx context.Context) (err error) { out.Summary, err = s.summary(ctx, since); return },
		func(ctx context.Context) (err error) { out.OrdersTrend, err = s.ordersTrend(ctx, since); return },
		func(ctx context.Context) (err error) { out.RevenueTrend, err = s.revenueTrend(ctx, since); return },
		func(ctx context.Context) (err error) {
			out.StatusDistribution, err = s.statusDistribution(ctx, since)
			return
		},
		func(ctx context.Context) (err error) {
			out.CategoryStatistics, err = s.categoryStatistics(ctx, since)
			return
		},
	)
	return out, err
}

// OrdersTrend is the per-day order count.
func (s *AnalyticsService) OrdersTrend(ctx context.Context, days int) ([]OrdersPoint, int64, error) {
	since := s.since(days)
	trend, err := s.ordersTrend(ctx, since)
	if err != nil {
		return nil, 0, err
	}
	var total int64
	for _, p := range trend {
		total += p.Count
	}
	return trend, total, nil
}

// RevenueTrend is the per-day revenue with the window's summary.
func (s *AnalyticsService) RevenueTrend(ctx context.Context, days int) ([]RevenuePoint, Summary, error) {
	since := s.since(days)
	var (
		trend []RevenuePoint
		sum   Summary
	)
	err := s.pool.Run(ctx,
		func(ctx context.Context) (err error) { trend, err = s.revenueTrend(ctx, since); return },
		func(ctx context.Context) (err error) { sum, err = s.summary(ctx, since); return },
	)
	return trend, sum, err
}

func (s *AnalyticsService) CategoryStatistics(ctx context.Context, days int) ([]CategoryStat, error) {
	return s.categoryStatistics(ctx, s.since(days))
}

func ordersSince(ctx context.Context, since time.Time) *gorm.DB {
	return orm.DB().WithContext(ctx).Model(&models.Order{}).Where("created_at >= ?", since).Gorm()
}

func (s *AnalyticsService) summary(ctx context.Context, since time.Time) (Summary, error) {
	var sum Summary
	if err := ordersSince(ctx, since).Count(&sum.TotalOrders).Error; err != nil {
		return sum, err
	}
	var paid struct {
		N       int64
		Revenue float64
	}
	err := ordersSince(ctx, since).
		Select("COUNT(*) AS n, COALESCE(SUM(total_amount), 0) AS revenue").
		Where("status <> ?", models.StatusCancelled).
		Scan(&paid).Error
	if err != nil {
		return sum, err
	}
	sum.TotalRevenue = roundMoney(paid.Revenue)
	if paid.N > 0 {
		sum.AvgOrderValue = math.Round(paid.Revenue/float64(paid.N)*100) / 100
	}
	err = ordersSince(ctx, since).Where("status = ?", models.StatusPending).Count(&sum.PendingOrders).Error
	return sum, err
}

func (s *AnalyticsService) ordersTrend(ctx context.Context, since time.Time) ([]OrdersPoint, error) {
	db := ordersSince(ctx, since)
	day := DateExpr(db, "created_at")
	out := []OrdersPoint{}
	err := db.Select(day + " AS date, COUNT(*) AS count").
		Group(day).Order(day).
		Scan(&out).Error
	return out, err
}

func (s *AnalyticsService) revenueTrend(ctx context.Context, since time.Time) ([]RevenuePoint, error) {
	db := ordersSince(ctx, since)
	day := DateExpr(db, "created_at")
	out := []RevenuePoint{}
	err := db.Select(day+" AS date, COALESCE(SUM(total_amount), 0) AS revenue").
		Where("status <> ?", models.StatusCancelled).
		Group(day).Order(day).
		Scan(&out).Error
	return out, err
}

func (s *AnalyticsService) statusDistribution(ctx context.Context, since time.Time) ([]StatusCount, error) {
	out := []StatusCount{}
	err := ordersSince(ctx, since).
		Select("status, COUNT(*) AS count").
		Group("status").Order("status").
		Scan(&out).Error
	return out, err
}

// categoryStatistics reads the line snapshots, so a product that has
// since moved category is still reported where it was sold.
func (s *AnalyticsService) categoryStatistics(ctx context.Context, since time.Time) ([]CategoryStat, error) {
	var rows []models.Order
	err := ordersSince(ctx, since).
		Select("id, items").
		Where("status <> ?", models.StatusCancelled).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	byName := map[string]*CategoryStat{}
	for _, o := range rows {
		for _, it := range o.Items {
			name := it.CategoryName
			if name == "" {
				name = uncategorized
			}
			st, ok := byName[name]
			if !ok {
				st = &CategoryStat{Category: name}
				byName[name] = st
			}
			st.Count++
			st.Revenue += it.Price * float64(it.Quantity)
		}
	}

	out := make([]CategoryStat, 0, len(byName))
	for _, st := range byName {
		st.Revenue = roundMoney(st.Revenue)
		out = append(out, *st)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Revenue != out[j].Revenue {
			return out[i].Revenue > out[j].Revenue
		}
		return out[i].Category < out[j].Category
	})
	return out, nil
}

// DateExpr renders col as a YYYY-MM-DD string in db's SQL dialect.
func DateExpr(db *gorm.DB, col string) string {
	switch db.Dialector.Name() {
	case "postgres":
		return "TO_CHAR(" + col + ", 'YYYY-MM-DD')"
	case "mysql":
		return "DATE_FORMAT(" + col + ", '%Y-%m-%d')"
	case "sqlserver":
		return "CONVERT(varchar(10), " + col + ", 23)"
	default:
		return "DATE(" + col + ")"
	}
}
