package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/schoolfinder/schoolfinder/internal/catalog"
	"github.com/schoolfinder/schoolfinder/internal/filter"
	"github.com/schoolfinder/schoolfinder/internal/search"
	"github.com/schoolfinder/schoolfinder/internal/seo"
	"github.com/schoolfinder/schoolfinder/pkg/logger"
)

// schoolDetail is a school with its amenities resolved for display.
type schoolDetail struct {
	*catalog.School
	AmenityDetails []catalog.Amenity `json:"amenityDetails"`
}

// RegisterSchoolRoutes mounts the public catalog endpoints.
func RegisterSchoolRoutes(r *gin.Engine, svc search.Service, site seo.Site) {
	api := r.Group("/api/v1")

	api.GET("/schools", func(c *gin.Context) {
		criteria := filter.ParseQuery(c.Request.URL.Query())
		page := search.Page{
			Number: atoiDefault(c.Query("page"), 1),
			Size:   atoiDefault(c.Query("pageSize"), search.DefaultPageSize),
		}
		res, err := svc.Search(c.Request.Context(), criteria, page)
		if err != nil {
			logger.Errorf("search schools: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "search failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"data":        res.Data,
			"totalRows":   res.TotalRows,
			"totalPages":  res.TotalPages,
			"currentPage": res.CurrentPage,
			"pageSize":    res.PageSize,
			"criteria":    criteria,
		})
	})

	api.GET("/schools/:slug", func(c *gin.Context) {
		s, ok := lookup(c, svc)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, schoolDetail{School: s, AmenityDetails: catalog.DescribeAmenities(s.Amenities)})
	})

	api.GET("/schools/:slug/seo", func(c *gin.Context) {
		s, ok := lookup(c, svc)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"metadata":       seo.BuildMetadata(s, site),
			"structuredData": seo.BuildStructuredData(s, site),
		})
	})

	api.GET("/seo", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"metadata":       seo.BuildMetadata(nil, site),
			"structuredData": seo.BuildStructuredData(nil, site),
		})
	})

	api.GET("/filters", func(c *gin.Context) {
		c.JSON(http.StatusOK, svc.Options())
	})
}

func lookup(c *gin.Context, svc search.Service) (*catalog.School, bool) {
	s, err := svc.Get(c.Request.Context(), c.Param("slug"))
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "school not found"})
			return nil, false
		}
		logger.Errorf("get school %s: %v", c.Param("slug"), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return nil, false
	}
	return s, true
}

func atoiDefault(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
