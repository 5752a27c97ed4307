package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/schoolfinder/schoolfinder/internal/catalog"
	"github.com/schoolfinder/schoolfinder/internal/seo"
	"github.com/schoolfinder/schoolfinder/pkg/logger"
)

// SchoolLister is the part of the catalog the sitemap needs.
type SchoolLister interface {
	List(ctx context.Context) ([]catalog.School, error)
}

// RegisterSitemap serves GET /sitemap.xml for the public pages.
func RegisterSitemap(r *gin.Engine, schools SchoolLister, site seo.Site) {
	r.GET("/sitemap.xml", func(c *gin.Context) {
		list, err := schools.List(c.Request.Context())
		if err != nil {
			logger.Errorf("sitemap: list schools: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "sitemap unavailable"})
			return
		}
		body, err := seo.BuildSitemap(list, site, time.Now().UTC().Format(time.DateOnly)).Encode()
		if err != nil {
			logger.Errorf("sitemap: encode: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "sitemap unavailable"})
			return
		}
		c.Header("Cache-Control", "public, max-age=3600")
		c.Data(http.StatusOK, "application/xml; charset=utf-8", body)
	})
}
