package httpserver

import (
	"github.com/labstack/echo/v4"

	"github.com/wasteless/marketplace/internal/auth"
	"github.com/wasteless/marketplace/internal/handlers"
	"github.com/wasteless/marketplace/internal/models"
)

type Deps struct {
	JWTSecret          []byte
	CartHandler        *handlers.CartHandler
	TransactionHandler *handlers.TransactionHandler
	SellerHandler      *handlers.SellerHandler
	AdminHandler       *handlers.AdminHandler
	CatalogHandler     *handlers.CatalogHandler
	AddressHandler     *handlers.AddressHandler
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(200) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(200) })

	v1 := e.Group("/api/v1")

	v1.GET("/products", d.CatalogHandler.GetProducts)
	v1.GET("/products/:id", d.CatalogHandler.GetProduct)
	v1.GET("/categories", d.CatalogHandler.GetCategories)

	// gateway callbacks carry no credentials; correlation id is the only gate
	v1.POST("/transactions/notification", d.TransactionHandler.Notification)

	authed := v1.Group("", auth.Middleware(d.JWTSecret), auth.HydratePrincipal())

	cart := authed.Group("/cart")
	cart.GET("", d.CartHandler.GetCart)
	cart.POST("", d.CartHandler.AddToCart)
	cart.PUT("/items/:productId", d.CartHandler.UpdateCartItem)
	cart.DELETE("/items/:productId", d.CartHandler.RemoveCartItem)
	cart.DELETE("", d.CartHandler.ClearCart)

	authed.POST("/transactions", d.TransactionHandler.Create)
	authed.GET("/transactions", d.TransactionHandler.List)
	authed.GET("/transactions/:id", d.TransactionHandler.GetDetail)
	authed.POST("/transactions/:id/complete", d.TransactionHandler.Complete)

	authed.GET("/address", d.AddressHandler.GetAddress)
	authed.PUT("/address", d.AddressHandler.PutAddress)

	seller := authed.Group("/seller", auth.RequireRole(models.RoleSeller, models.RoleAdmin))
	seller.GET("/orders", d.SellerHandler.GetOrders)
	seller.PUT("/orders/:id/status", d.SellerHandler.UpdateOrderStatus)
	seller.PUT("/orders/:id/payment-status", d.SellerHandler.UpdatePaymentStatus)
	seller.GET("/products", d.SellerHandler.MyProducts)
	seller.POST("/products", d.SellerHandler.CreateProduct)
	seller.DELETE("/products/:id", d.SellerHandler.DeleteProduct)

	admin := authed.Group("/admin", auth.RequireRole(models.RoleAdmin))
	admin.PUT("/products/:id/approve", d.AdminHandler.ApproveProduct)
	admin.PUT("/sellers/:id/approve", d.AdminHandler.ApproveSeller)
}
