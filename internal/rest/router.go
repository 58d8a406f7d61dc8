package rest

import (
	"net/http"

	"zapas-be/internal/metrics"
	"zapas-be/internal/order"
	"zapas-be/internal/product"
	"zapas-be/internal/user"
	"zapas-be/internal/validation"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/shopspring/decimal"
)

func init() {
	// Prices go out as JSON numbers, e.g. "price": 89.99.
	decimal.MarshalJSONWithoutQuotes = true
	binding.Validator = validation.Default
}

type Deps struct {
	Users    user.Service
	Products product.Service
	Orders   order.Service
	Metrics  *metrics.Registry
}

// NewRouter builds the gin engine serving every /api route. Errors from any
// handler, including unknown routes and panics, leave as one JSON envelope.
func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true

	r.Use(ErrorHandler(), Recovery())

	r.NoRoute(func(c *gin.Context) {
		abort(c, errRouteNotFound)
	})
	r.NoMethod(func(c *gin.Context) {
		abort(c, errMethodNotAllowed)
	})

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	authH := &AuthHandler{users: d.Users}
	productH := &ProductHandler{products: d.Products}
	orderH := &OrderHandler{orders: d.Orders}

	api := r.Group("/api")
	{
		api.GET("/metrics", func(c *gin.Context) {
			c.JSON(http.StatusOK, d.Metrics.Snapshot())
		})

		authG := api.Group("/auth")
		authG.POST("/register", authH.Register)
		authG.POST("/login", authH.Login)
		authG.GET("/profile", RequireAuth(), authH.Profile)

		products := api.Group("/products")
		products.GET("", productH.List)
		products.GET("/:id", productH.GetByID)
		products.GET("/slug/:slug", productH.GetBySlug)

		orders := api.Group("/orders", RequireAuth())
		orders.POST("", orderH.Create)
		orders.GET("", orderH.List)
		orders.GET("/:id", orderH.GetByID)
	}

	return r
}
