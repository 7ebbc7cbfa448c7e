package domain

import (
	"context"
	"strings"
)

// Site is a single row of the sites table.
// SiteID is assigned externally and is never generated by the database.
type Site struct {
	SiteID   int     `gorm:"column:site_id;primaryKey;autoIncrement:false" json:"siteId"`
	SiteName string  `gorm:"column:site_name;size:255;not null;index" json:"siteName"`
	SiteURL  string  `gorm:"column:site_url;size:2048;not null" json:"siteUrl"`
	SiteX    float64 `gorm:"column:site_x" json:"siteX"`
	SiteY    float64 `gorm:"column:site_y" json:"siteY"`
}

// TableName pins the table name so GORM does not pluralize it differently
// across dialects.
func (Site) TableName() string { return "sites" }

// SiteFilter is either NoFilter or NameContains(text).
// The zero value is NoFilter.
type SiteFilter struct {
	name string
}

// NoFilter matches every site.
func NoFilter() SiteFilter { return SiteFilter{} }

// NameContains matches sites whose name contains text, ignoring case.
// Blank text collapses to NoFilter.
func NameContains(text string) SiteFilter {
	if strings.TrimSpace(text) == "" {
		return SiteFilter{}
	}
	return SiteFilter{name: text}
}

// NameContains returns the substring to match and whether the filter is set.
func (f SiteFilter) NameContains() (string, bool) {
	return f.name, f.name != ""
}

// IsEmpty reports whether f is NoFilter.
func (f SiteFilter) IsEmpty() bool { return f.name == "" }

// String renders the filter for logs.
func (f SiteFilter) String() string {
	if f.name == "" {
		return "none"
	}
	return "name contains " + `"` + f.name + `"`
}

// SiteQuery is an already normalized request for one page window.
type SiteQuery struct {
	Page   int
	Size   int
	Filter SiteFilter
}

// SiteWindow is what the data layer returns for a SiteQuery: the rows of
// the requested window and the number of matching rows across all pages.
type SiteWindow struct {
	Items      []Site
	TotalCount int64
}

// SiteRepository defines the data access interface for sites.
type SiteRepository interface {
	// List applies the filter, counts every match, and returns the window
	// ordered by site id.
	List(ctx context.Context, q SiteQuery) (SiteWindow, error)
	// SaveAll stores sites in a single transaction. With replace set,
	// existing rows with the same id are overwritten.
	SaveAll(ctx context.Context, sites []Site, replace bool) error
}

// SiteService defines the business logic interface for sites.
type SiteService interface {
	GetPaginatedSites(ctx context.Context, page, size int, filter SiteFilter) (*PageResult[Site], error)
	ImportSites(ctx context.Context, sites []Site, replace bool) (int, error)
}
