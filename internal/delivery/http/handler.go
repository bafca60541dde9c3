package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"parcelhub/internal/service"

	_ "parcelhub/docs"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

type Handler struct {
	svc service.Packages

	uploadDir      string
	maxUploadBytes int64
	invoiceMIME    string
}

type Options struct {
	UploadDir      string
	MaxUploadBytes int64
	InvoiceMIME    string
}

func NewHandler(s service.Packages, opts Options) *Handler {
	if opts.UploadDir == "" {
		opts.UploadDir = "./uploads/invoices"
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 2 << 20
	}
	if opts.InvoiceMIME == "" {
		opts.InvoiceMIME = "application/pdf"
	}
	return &Handler{
		svc:            s,
		uploadDir:      opts.UploadDir,
		maxUploadBytes: opts.MaxUploadBytes,
		invoiceMIME:    opts.InvoiceMIME,
	}
}

func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.Default()
	router.MaxMultipartMemory = h.maxUploadBytes

	api := router.Group("/api")
	{
		api.POST("/packages/create", h.CreatePackage)
		api.PUT("/packages/update/:id", h.UpdatePackage)
		api.DELETE("/packages/delete/:id", h.DeletePackage)
		api.GET("/packages/all", h.GetAllPackages)
		api.GET("/packages/user/:user", h.GetUserPackages)
		api.GET("/packages/track/:tid", h.GetPackageByTrackingID)
		api.GET("/packages/:id", h.GetPackageByID)
	}

	router.Static("/uploads", strings.TrimSuffix(h.uploadDir, "/invoices"))

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"message": "not found"})
	})

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return router
}
