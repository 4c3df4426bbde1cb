// Package orm is a small chainable layer over gorm with pagination and a
// read-through cache.
package orm

import (
	"context"
	"math"
	"time"

	"github.com/shashiranjanraj/storefront/pkg/database"
	"gorm.io/gorm"
)

// Cacher is implemented by pkg/cache. It is injected at boot so that orm
// does not import cache.
type Cacher interface {
	Get(key string, dest interface{}) bool
	Set(key string, value interface{}, ttl time.Duration) error
}

// CacheStore backs Query.Cache. A nil store disables caching.
var CacheStore Cacher

// Pagination is returned alongside every paged listing.
type Pagination struct {
	Page    int   `json:"page"`
	PerPage int   `json:"per_page"`
	Total   int64 `json:"total"`
	Pages   int   `json:"pages"`
}

// MaxPerPage caps page sizes requested by clients.
const MaxPerPage = 100

// NormalizePage clamps page >= 1 and 1 <= perPage <= MaxPerPage.
func NormalizePage(page, perPage int) (int, int) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 20
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}
	return page, perPage
}

type Query struct {
	db *gorm.DB
}

// DB starts a query on the global connection.
func DB() *Query {
	return &Query{db: database.DB}
}

// On starts a query on db, typically a transaction handle.
func On(db *gorm.DB) *Query {
	return &Query{db: db}
}

// WithContext binds ctx for cancellation.
func (q *Query) WithContext(ctx context.Context) *Query {
	return &Query{db: q.db.WithContext(ctx)}
}

func (q *Query) Model(v interface{}) *Query {
	return &Query{db: q.db.Model(v)}
}

func (q *Query) Where(query interface{}, args ...interface{}) *Query {
	return &Query{db: q.db.Where(query, args...)}
}

// WhereIf applies the condition only when cond is true.
func (q *Query) WhereIf(cond bool, query interface{}, args ...interface{}) *Query {
	if !cond {
		return q
	}
	return q.Where(query, args...)
}

func (q *Query) Order(value interface{}) *Query {
	return &Query{db: q.db.Order(value)}
}

func (q *Query) Preload(query string, args ...interface{}) *Query {
	return &Query{db: q.db.Preload(query, args...)}
}

func (q *Query) Joins(query string, args ...interface{}) *Query {
	return &Query{db: q.db.Joins(query, args...)}
}

func (q *Query) Limit(n int) *Query {
	return &Query{db: q.db.Limit(n)}
}

func (q *Query) Scopes(fns ...func(*gorm.DB) *gorm.DB) *Query {
	return &Query{db: q.db.Scopes(fns...)}
}

// Gorm exposes the underlying handle for anything the builder lacks.
func (q *Query) Gorm() *gorm.DB { return q.db }

func (q *Query) Get(dest interface{}) error {
	return q.db.Find(dest).Error
}

func (q *Query) First(dest interface{}) error {
	return q.db.First(dest).Error
}

func (q *Query) Count() (int64, error) {
	var n int64
	err := q.db.Count(&n).Error
	return n, err
}

func (q *Query) Create(v interface{}) error {
	return q.db.Create(v).Error
}

func (q *Query) Save(v interface{}) error {
	return q.db.Save(v).Error
}

func (q *Query) Delete(v interface{}) error {
	return q.db.Delete(v).Error
}

// Paginate counts the matching rows and loads one page into dest.
func (q *Query) Paginate(page, perPage int, dest interface{}) (Pagination, error) {
	page, perPage = NormalizePage(page, perPage)

	var total int64
	if err := q.db.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return Pagination{}, err
	}

	err := q.db.Session(&gorm.Session{}).Offset((page - 1) * perPage).Limit(perPage).Find(dest).Error
	if err != nil {
		return Pagination{}, err
	}

	return Pagination{
		Page:    page,
		PerPage: perPage,
		Total:   total,
		Pages:   int(math.Ceil(float64(total) / float64(perPage))),
	}, nil
}

// Cache loads dest from the cache under key, or runs the query and stores
// the result for ttl.
func (q *Query) Cache(key string, ttl time.Duration, dest interface{}) error {
	if CacheStore != nil && CacheStore.Get(key, dest) {
		return nil
	}

	if err := q.db.Find(dest).Error; err != nil {
		return err
	}

	if CacheStore != nil {
		_ = CacheStore.Set(key, dest, ttl)
	}
	return nil
}
