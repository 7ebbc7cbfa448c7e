package site

import (
	"context"
	"fmt"
	"strings"

	"github.com/simp-lee/sitesapi/internal/domain"
	"github.com/simp-lee/sitesapi/internal/pkg"
)

// siteService implements domain.SiteService.
type siteService struct {
	repo domain.SiteRepository
	opts domain.PageOptions
}

// NewSiteService creates a new SiteService. Zero or inconsistent page
// options fall back to the built-in defaults.
func NewSiteService(repo domain.SiteRepository, opts domain.PageOptions) domain.SiteService {
	defaults := domain.DefaultPageOptions()
	if opts.MaxSize <= 0 {
		opts.MaxSize = defaults.MaxSize
	}
	if opts.DefaultSize <= 0 || opts.DefaultSize > opts.MaxSize {
		opts.DefaultSize = min(defaults.DefaultSize, opts.MaxSize)
	}
	return &siteService{repo: repo, opts: opts}
}

// GetPaginatedSites normalizes page and size, fetches one window from the
// repository, and wraps it with pagination metadata.
//
// Out-of-range input is corrected silently. A page past the end yields an
// empty item list with the real totals. Repository errors are returned as is.
func (s *siteService) GetPaginatedSites(ctx context.Context, page, size int, filter domain.SiteFilter) (*domain.PageResult[domain.Site], error) {
	page = pkg.NormalizePage(page)
	size = pkg.NormalizePageSize(size, s.opts)

	window, err := s.repo.List(ctx, domain.SiteQuery{Page: page, Size: size, Filter: filter})
	if err != nil {
		return nil, err
	}

	return pkg.NewPageResult(window.Items, window.TotalCount, page, size), nil
}

// ImportSites validates sites and stores them in one batch.
// It returns the number of sites written.
func (s *siteService) ImportSites(ctx context.Context, sites []domain.Site, replace bool) (int, error) {
	seen := make(map[int]struct{}, len(sites))
	for i := range sites {
		sites[i].SiteName = strings.TrimSpace(sites[i].SiteName)
		sites[i].SiteURL = strings.TrimSpace(sites[i].SiteURL)

		if err := validateSite(sites[i]); err != nil {
			return 0, domain.NewValidationError(fmt.Sprintf("sites[%d]: %s", i, err.Message), nil)
		}
		if _, dup := seen[sites[i].SiteID]; dup {
			return 0, domain.NewValidationError(fmt.Sprintf("sites[%d]: duplicate siteId %d", i, sites[i].SiteID), nil)
		}
		seen[sites[i].SiteID] = struct{}{}
	}

	if err := s.repo.SaveAll(ctx, sites, replace); err != nil {
		return 0, err
	}
	return len(sites), nil
}

func validateSite(site domain.Site) *domain.AppError {
	if site.SiteID <= 0 {
		return domain.NewValidationError("siteId must be positive", nil)
	}
	if site.SiteName == "" {
		return domain.NewValidationError("siteName is required", nil)
	}
	if site.SiteURL == "" {
		return domain.NewValidationError("siteUrl is required", nil)
	}
	return nil
}
