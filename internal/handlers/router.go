package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/MohamedAshiq09/authentify/pkg/middleware"
)

// RegisterRoutes mounts the authentication and SDK client endpoints
func RegisterRoutes(r *gin.Engine, h *Handlers) {
	authGroup := r.Group("/auth")
	{
		authGroup.POST("/register", h.Register)
		authGroup.POST("/login", h.Login)
		authGroup.POST("/contract/login", h.ContractLogin)
		authGroup.POST("/refresh", h.Refresh)
		authGroup.POST("/logout", h.Logout)
		authGroup.GET("/me", middleware.RequireUser(h.jwtSecret), h.Me)
	}

	sdkGroup := r.Group("/sdk-client")
	{
		sdkGroup.POST("/verify", h.VerifyClient)
		sdkGroup.POST("/token", h.ClientToken)

		clientsGroup := sdkGroup.Group("/clients", middleware.RequireUser(h.jwtSecret))
		{
			clientsGroup.POST("", h.CreateClient)
			clientsGroup.GET("", h.ListClients)
			clientsGroup.DELETE("/:id", h.RevokeClient)
		}
	}

}

// RegisterAdminRoutes mounts the operator maintenance endpoints. They stay
// off the router entirely when no service token is configured.
func RegisterAdminRoutes(r *gin.Engine, h *Handlers, serviceToken string) {
	if serviceToken == "" {
		return
	}
	adminGroup := r.Group("/admin", middleware.RequireServiceToken(serviceToken))
	{
		adminGroup.POST("/purge-expired", h.PurgeExpired)
	}
}
