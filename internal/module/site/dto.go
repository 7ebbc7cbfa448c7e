package site

import (
	"bytes"
	"encoding/json"
	"errors"

	"github.com/gin-gonic/gin/binding"

	"github.com/simp-lee/sitesapi/internal/domain"
)

// ListSitesQuery binds the query string of GET /api/sites.
// An absent size stays zero so the service applies the configured default.
type ListSitesQuery struct {
	Page   int    `form:"page,default=1"`
	Size   int    `form:"size"`
	Filter string `form:"filter"`
}

// FilterParams is the wire form of a site filter: {"siteName": string|null}.
type FilterParams struct {
	SiteName *string `json:"siteName"`
}

// ToFilter converts the wire form into a domain filter. A nil receiver,
// a null name, or a blank name all mean no filtering.
func (p *FilterParams) ToFilter() domain.SiteFilter {
	if p == nil || p.SiteName == nil {
		return domain.NoFilter()
	}
	return domain.NameContains(*p.SiteName)
}

// SearchSitesRequest is the body of POST /api/sites/search.
// Every field is optional.
type SearchSitesRequest struct {
	Page   int           `json:"page"`
	Size   int           `json:"size"`
	Filter *FilterParams `json:"filter"`
}

func newSearchSitesRequest() SearchSitesRequest {
	return SearchSitesRequest{Page: 1}
}

// ParseFilter decodes the JSON filter carried in a query parameter.
// Blank input means no filtering; anything that is not a filter object is a
// validation error.
func ParseFilter(raw string) (domain.SiteFilter, error) {
	body := bytes.TrimSpace([]byte(raw))
	if len(body) == 0 {
		return domain.NoFilter(), nil
	}

	var params FilterParams
	if err := bindStrictJSON(body, &params); err != nil {
		return domain.NoFilter(), domain.NewValidationError(domain.MsgInvalidFilter, err)
	}
	return params.ToFilter(), nil
}

// isMissingBody reports whether a request body carries no request object.
func isMissingBody(body []byte) bool {
	body = bytes.TrimSpace(body)
	return len(body) == 0 || bytes.Equal(body, []byte("null"))
}

var errTrailingData = errors.New("invalid JSON: unexpected data after top-level value")

// bindStrictJSON binds body like gin's JSON binding but rejects input that is
// not exactly one JSON value, such as `{"siteName":"a"} extra`.
func bindStrictJSON(body []byte, obj any) error {
	if !json.Valid(body) {
		if err := binding.JSON.BindBody(body, obj); err != nil {
			return err
		}
		return errTrailingData
	}
	return binding.JSON.BindBody(body, obj)
}
