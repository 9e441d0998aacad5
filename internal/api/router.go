package api

import (
	"github.com/gin-gonic/gin"

	"etc_backend/internal/api/handler"
	"etc_backend/internal/api/middleware"
	"etc_backend/internal/domain"
)

// Handlers gom các handler mà router cần
type Handlers struct {
	Auth        *handler.AuthHandler
	Vehicle     *handler.VehicleHandler
	Transaction *handler.TransactionHandler
	Scan        *handler.ScanHandler
	Health      *handler.HealthHandler
	WebSocket   *handler.WebSocketHandler
}

func SetupRouter(h Handlers, authMw *middleware.AuthMiddleware) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())

	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	// dashboard realtime không cần auth
	r.GET("/ws", h.WebSocket.HandleWebSocket)
	r.GET("/api/health", h.Health.Health)

	authRoutes := r.Group("/auth")
	{
		authRoutes.POST("/register", h.Auth.Register)
		authRoutes.POST("/login", h.Auth.Login)
	}

	v1 := r.Group("/api/v1")
	v1.Use(authMw.Authenticate())
	{
		vehicleRoutes := v1.Group("/vehicles")
		{
			vehicleRoutes.GET("", h.Vehicle.ListVehicles)
			vehicleRoutes.POST("", authMw.AuthorizeRole(domain.RoleAdmin, domain.RoleOperator), h.Vehicle.CreateVehicle)
			vehicleRoutes.PUT("/id/:id", authMw.AuthorizeRole(domain.RoleAdmin), h.Vehicle.UpdateVehicle)
			vehicleRoutes.GET("/:plate", h.Vehicle.GetVehicle)
			vehicleRoutes.GET("/:plate/detailed", h.Vehicle.GetVehicleDetailed)
			vehicleRoutes.GET("/:plate/balance", h.Vehicle.GetBalance)
		}

		txRoutes := v1.Group("/transactions")
		txRoutes.Use(authMw.AuthorizeRole(domain.RoleAdmin, domain.RoleOperator))
		{
			txRoutes.POST("/topup", h.Transaction.TopUp)
			txRoutes.POST("/toll", h.Transaction.DeductToll)
			txRoutes.GET("/:plate/history", h.Transaction.History)
		}

		scanRoutes := v1.Group("/scan")
		scanRoutes.Use(authMw.AuthorizeRole(domain.RoleAdmin, domain.RoleOperator))
		{
			scanRoutes.POST("/license-plate", h.Scan.ScanUpload)
			scanRoutes.POST("/license-plate/base64", h.Scan.ScanBase64)
			scanRoutes.GET("/history", h.Scan.History)
		}
	}
	return r
}
