package main

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// newRouter registra as rotas HTML e JSON no gin
func newRouter(cfg Config, pages *PageHandler, api *APIHandler) (*gin.Engine, error) {
	tmpl, err := loadTemplates()
	if err != nil {
		return nil, err
	}

	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.SetHTMLTemplate(tmpl)

	r.Use(gin.Logger())
	r.Use(gin.RecoveryWithWriter(gin.DefaultWriter, func(c *gin.Context, recovered interface{}) {
		log.Printf("🚨 PANIC RECOVERED: %v", recovered)
		c.AbortWithStatus(http.StatusInternalServerError)
	}))
	if cfg.OTelEnabled {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}

	// Health check
	r.GET("/health", api.HealthCheck)

	// Páginas
	r.GET("/", pages.Menu)
	r.GET("/products/", pages.ListProducts)
	r.GET("/products/new", pages.NewProductForm)
	r.POST("/products/new", pages.CreateProduct)
	r.GET("/products/:id/delete", pages.ConfirmDelete)
	r.POST("/products/:id/delete", pages.DeleteProduct)
	r.POST("/products/register", pages.RegisterSales)

	// API JSON
	apiGroup := r.Group("/api")
	apiGroup.GET("/products", api.ListProducts)
	apiGroup.POST("/products", api.CreateProduct)
	apiGroup.PUT("/products/:id", api.UpdateProduct)
	apiGroup.DELETE("/products/:id", api.DeleteProduct)
	apiGroup.GET("/products/:id/sales", api.ListSales)
	apiGroup.POST("/sales", api.RegisterSales)

	return r, nil
}
