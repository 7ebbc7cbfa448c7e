package pkg

import (
	"math"
	"regexp"
	"strings"

	"gorm.io/gorm"

	"github.com/simp-lee/sitesapi/internal/domain"
)

const firstPage = 1

// validFieldName matches only alphanumeric characters and underscores.
var validFieldName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// likeEscaper escapes LIKE wildcards so user text matches literally.
// The escape character is a backslash, paired with ESCAPE '\' in SQL.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// NormalizePage collapses any page below 1 to 1. There is no upper bound.
func NormalizePage(page int) int {
	if page < firstPage {
		return firstPage
	}
	return page
}

// NormalizePageSize replaces non-positive sizes with the default and clamps
// sizes above the maximum.
func NormalizePageSize(size int, opts domain.PageOptions) int {
	switch {
	case size <= 0:
		return opts.DefaultSize
	case size > opts.MaxSize:
		return opts.MaxSize
	default:
		return size
	}
}

// TotalPages returns ceil(total/pageSize), with an empty result counting as
// one page.
func TotalPages(total int64, pageSize int) int {
	if total <= 0 || pageSize <= 0 {
		return 1
	}
	size := int64(pageSize)
	pages := total / size
	if total%size != 0 {
		pages++
	}
	return int(pages)
}

// Offset returns the number of rows to skip for page. ok is false when the
// offset does not fit in an int.
func Offset(page, pageSize int) (offset int, ok bool) {
	if page <= firstPage || pageSize <= 0 {
		return 0, true
	}
	if page-1 > math.MaxInt/pageSize {
		return 0, false
	}
	return (page - 1) * pageSize, true
}

// NewPageResult builds the envelope for one page of items.
// page and pageSize must already be normalized.
func NewPageResult[T any](items []T, total int64, page, pageSize int) *domain.PageResult[T] {
	if items == nil {
		items = []T{}
	}

	totalPages := TotalPages(total, pageSize)

	return &domain.PageResult[T]{
		Items:       items,
		TotalCount:  total,
		PageNumber:  page,
		PageSize:    pageSize,
		TotalPages:  totalPages,
		HasPrevious: page > firstPage,
		HasNext:     page < totalPages,
	}
}

// Paginate returns a GORM scope that applies LIMIT and OFFSET for the page.
// Callers check Offset first; an overflowing offset is applied as zero.
func Paginate(page, pageSize int) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		offset, _ := Offset(page, pageSize)
		return db.Offset(offset).Limit(pageSize)
	}
}

// ContainsFold returns a GORM scope matching rows whose column contains text,
// ignoring case. Blank text or an invalid column name leaves the query as is.
// text is folded with strings.ToLower, so the database LOWER must fold the
// same way: PostgreSQL does for UTF-8 databases, and SQLite connections get
// the Unicode-aware lower registered in sqlite.go.
func ContainsFold(column, text string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if strings.TrimSpace(text) == "" || !validFieldName.MatchString(column) {
			return db
		}
		pattern := "%" + likeEscaper.Replace(strings.ToLower(text)) + "%"
		return db.Where("LOWER("+column+") LIKE ? ESCAPE '\\'", pattern)
	}
}
