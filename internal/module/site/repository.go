package site

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/simp-lee/sitesapi/internal/domain"
	"github.com/simp-lee/sitesapi/internal/pkg"
)

const (
	columnID   = "site_id"
	columnName = "site_name"
)

// importBatchSize bounds the number of rows per INSERT during SaveAll.
const importBatchSize = 500

// siteRepository implements domain.SiteRepository using GORM.
type siteRepository struct {
	db *gorm.DB
}

// NewSiteRepository creates a new SiteRepository backed by the given GORM database.
func NewSiteRepository(db *gorm.DB) domain.SiteRepository {
	return &siteRepository{db: db}
}

// matching returns a fresh query over the sites that pass the filter.
// Each call starts a new statement so Count and Find never share clauses.
func (r *siteRepository) matching(ctx context.Context, filter domain.SiteFilter) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&domain.Site{})
	if name, ok := filter.NameContains(); ok {
		q = q.Scopes(pkg.ContainsFold(columnName, name))
	}
	return q
}

// List counts every site matching the filter and loads the requested window
// ordered by site id.
func (r *siteRepository) List(ctx context.Context, q domain.SiteQuery) (domain.SiteWindow, error) {
	var total int64
	if err := r.matching(ctx, q.Filter).Count(&total).Error; err != nil {
		return domain.SiteWindow{}, mapError(err)
	}

	sites := []domain.Site{}
	offset, ok := pkg.Offset(q.Page, q.Size)
	if total == 0 || !ok || int64(offset) >= total {
		return domain.SiteWindow{Items: sites, TotalCount: total}, nil
	}

	if err := r.matching(ctx, q.Filter).
		Order(clause.OrderByColumn{Column: clause.Column{Name: columnID}}).
		Scopes(pkg.Paginate(q.Page, q.Size)).
		Find(&sites).Error; err != nil {
		return domain.SiteWindow{}, mapError(err)
	}

	return domain.SiteWindow{Items: sites, TotalCount: total}, nil
}

// SaveAll inserts sites in one transaction. With replace set, rows whose
// site_id already exists are overwritten.
func (r *siteRepository) SaveAll(ctx context.Context, sites []domain.Site, replace bool) error {
	if len(sites) == 0 {
		return nil
	}
	err := pkg.WithTx(ctx, r.db, func(tx *gorm.DB) error {
		if replace {
			tx = tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: columnID}},
				UpdateAll: true,
			})
		}
		return tx.CreateInBatches(&sites, importBatchSize).Error
	})
	return mapError(err)
}

// mapError converts GORM errors to domain errors.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrNotFound
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) || isDuplicateKeyError(err) {
		return domain.NewAppError(domain.CodeAlreadyExists, "site already exists", err)
	}
	return domain.NewAppError(domain.CodeInternal, "database error", err)
}

// isDuplicateKeyError detects unique constraint violations by examining the
// error message. Not every dialector translates driver errors to
// gorm.ErrDuplicatedKey (the pure-Go SQLite driver does not).
func isDuplicateKeyError(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "duplicate entry")
}
