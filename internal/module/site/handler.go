package site

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/simp-lee/sitesapi/internal/domain"
	"github.com/simp-lee/sitesapi/internal/pkg"
)

// SiteHandler handles REST API requests for the site resource.
type SiteHandler struct {
	svc    domain.SiteService
	logger *slog.Logger
}

// NewSiteHandler creates a new SiteHandler. A nil logger falls back to
// slog.Default().
func NewSiteHandler(svc domain.SiteService, logger *slog.Logger) *SiteHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SiteHandler{svc: svc, logger: logger}
}

// List handles GET /api/sites.
func (h *SiteHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	var q ListSitesQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.logger.WarnContext(ctx, "invalid query parameters",
			slog.String("query", c.Request.URL.RawQuery),
			slog.Any("error", err),
		)
		pkg.ValidationError(c, err, &q, "Invalid query parameters")
		return
	}

	filter, err := ParseFilter(q.Filter)
	if err != nil {
		h.logger.WarnContext(ctx, "invalid JSON filter provided",
			slog.String("filter", q.Filter),
			slog.Any("error", err),
		)
		pkg.Error(c, err)
		return
	}

	h.respond(c, q.Page, q.Size, filter, "error retrieving sites")
}

// Search handles POST /api/sites/search.
func (h *SiteHandler) Search(c *gin.Context) {
	ctx := c.Request.Context()

	body, err := c.GetRawData()
	if err != nil {
		h.logger.WarnContext(ctx, "read search body", slog.Any("error", err))
		pkg.Error(c, domain.NewValidationError(domain.MsgInvalidRequestBody, err))
		return
	}
	if isMissingBody(body) {
		pkg.Error(c, domain.NewValidationError(domain.MsgRequestBodyRequired, nil))
		return
	}

	req := newSearchSitesRequest()
	if err := bindStrictJSON(body, &req); err != nil {
		h.logger.WarnContext(ctx, "invalid search body",
			slog.Int("bytes", len(body)),
			slog.Any("error", err),
		)
		pkg.ValidationError(c, err, &req, domain.MsgInvalidRequestBody)
		return
	}

	h.respond(c, req.Page, req.Size, req.Filter.ToFilter(), "error searching sites")
}

func (h *SiteHandler) respond(c *gin.Context, page, size int, filter domain.SiteFilter, failure string) {
	ctx := c.Request.Context()

	result, err := h.svc.GetPaginatedSites(ctx, page, size, filter)
	if err != nil {
		h.logger.ErrorContext(ctx, failure,
			slog.Int("page", page),
			slog.Int("size", size),
			slog.String("filter", filter.String()),
			slog.Any("error", err),
		)
		// Whatever the service reports, the client only sees a generic 500.
		pkg.Error(c, domain.NewAppError(domain.CodeInternal, domain.MsgInternal, err))
		return
	}

	pkg.OK(c, result)
}
