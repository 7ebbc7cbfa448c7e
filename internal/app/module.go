package app

import "github.com/gin-gonic/gin"

// Module defines the contract for a self-registering business module.
// Each module registers its own routes under the /api group.
type Module interface {
	RegisterRoutes(api *gin.RouterGroup)
}
