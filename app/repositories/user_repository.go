package repositories

import (
	"context"
	"strings"
	"time"

	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/pkg/orm"
	"gorm.io/gorm"
)

// UserRepository handles database operations for User and Role.
type UserRepository struct{ base }

func NewUserRepository() *UserRepository {
	return &UserRepository{}
}

// WithTx returns a copy bound to tx.
func (r *UserRepository) WithTx(tx *gorm.DB) *UserRepository {
	return &UserRepository{base{tx: tx}}
}

// FindByEmail looks up a user by email address, roles included.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (models.User, error) {
	var user models.User
	err := r.q(ctx).Preload("Roles").Where("email = ?", strings.ToLower(email)).First(&user)
	return user, err
}

// FindByID looks up a user by primary key, roles included.
func (r *UserRepository) FindByID(ctx context.Context, id uint) (models.User, error) {
	var user models.User
	err := r.q(ctx).Preload("Roles").Where("id = ?", id).First(&user)
	return user, err
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	return r.q(ctx).Create(user)
}

// Update writes every column of user, zero values included.
func (r *UserRepository) Update(ctx context.Context, user *models.User) error {
	return r.q(ctx).Gorm().Omit("Roles").Save(user).Error
}

func (r *UserRepository) TouchLogin(ctx context.Context, id uint, at time.Time) error {
	return r.q(ctx).Model(&models.User{}).Where("id = ?", id).Gorm().Update("last_login", at).Error
}

// Delete removes the user and their role links.
func (r *UserRepository) Delete(ctx context.Context, user *models.User) error {
	db := r.q(ctx).Gorm()
	if err := db.Model(user).Association("Roles").Clear(); err != nil {
		return err
	}
	return db.Delete(user).Error
}

// Paginate lists users newest first, optionally filtered by a search over
// email and name.
func (r *UserRepository) Paginate(ctx context.Context, search string, page, perPage int) ([]models.User, orm.Pagination, error) {
	var users []models.User
	search = strings.ToLower(strings.TrimSpace(search))
	p, err := r.q(ctx).Model(&models.User{}).
		Preload("Roles").
		WhereIf(search != "", "LOWER(email) LIKE ? OR LOWER(name) LIKE ?", likePattern(search), likePattern(search)).
		Order("created_at DESC").
		Order("id DESC").
		Paginate(page, perPage, &users)
	return users, p, err
}

// CountSince counts users created at or after since. A zero since counts
// everyone.
func (r *UserRepository) CountSince(ctx context.Context, since time.Time) (int64, error) {
	return r.q(ctx).Model(&models.User{}).WhereIf(!since.IsZero(), "created_at >= ?", since).Count()
}

// ReplaceRoles sets the user's roles to exactly roles.
func (r *UserRepository) ReplaceRoles(ctx context.Context, user *models.User, roles []models.Role) error {
	if err := r.q(ctx).Gorm().Model(user).Association("Roles").Replace(roles); err != nil {
		return err
	}
	user.Roles = roles
	return nil
}

// FindRole returns the named role.
func (r *UserRepository) FindRole(ctx context.Context, name string) (models.Role, error) {
	var role models.Role
	err := r.q(ctx).Where("name = ?", name).First(&role)
	return role, err
}

// EnsureRole returns the named role, creating it when missing.
func (r *UserRepository) EnsureRole(ctx context.Context, name string) (models.Role, error) {
	role := models.Role{Name: name}
	err := r.q(ctx).Gorm().Where("name = ?", name).FirstOrCreate(&role).Error
	return role, err
}

// FindRoles loads the named roles. Missing names are simply absent from
// the result.
func (r *UserRepository) FindRoles(ctx context.Context, names []string) ([]models.Role, error) {
	var roles []models.Role
	err := r.q(ctx).Where("name IN ?", names).Order("name").Get(&roles)
	return roles, err
}

func (r *UserRepository) Roles(ctx context.Context) ([]models.Role, error) {
	var roles []models.Role
	err := r.q(ctx).Order("name").Get(&roles)
	return roles, err
}

func (r *UserRepository) CreateRole(ctx context.Context, role *models.Role) error {
	return r.q(ctx).Create(role)
}
