package site

import "github.com/gin-gonic/gin"

// SiteModule implements the app.Module interface for the site domain.
type SiteModule struct {
	handler *SiteHandler
}

// NewModule creates a new SiteModule with the given handler.
// Panics if h is nil.
func NewModule(h *SiteHandler) *SiteModule {
	if h == nil {
		panic("site.NewModule: handler must not be nil")
	}
	return &SiteModule{handler: h}
}

// RegisterRoutes registers the site API routes under api.
func (m *SiteModule) RegisterRoutes(api *gin.RouterGroup) {
	sites := api.Group("/sites")
	sites.GET("", m.handler.List)
	sites.POST("/search", m.handler.Search)
}
