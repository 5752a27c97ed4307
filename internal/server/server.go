package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/schoolfinder/schoolfinder/handlers"
	admissionhandler "github.com/schoolfinder/schoolfinder/internal/admission/handler"
	admissionsvc "github.com/schoolfinder/schoolfinder/internal/admission/service"
	"github.com/schoolfinder/schoolfinder/internal/config"
	"github.com/schoolfinder/schoolfinder/internal/search"
	searchhandler "github.com/schoolfinder/schoolfinder/internal/search/handler"
	"github.com/schoolfinder/schoolfinder/internal/seo"
	"github.com/schoolfinder/schoolfinder/internal/tokens"
	"github.com/schoolfinder/schoolfinder/pkg/logger"
	"github.com/schoolfinder/schoolfinder/pkg/middleware"
)

var startTime = time.Now()

// Check reports whether one dependency is usable.
type Check func(ctx context.Context) error

// Deps are the wired services the router mounts. Nil optional services
// leave their routes unregistered.
type Deps struct {
	Config    *config.Config
	Search    search.Service
	Admission admissionsvc.Service
	Files     admissionhandler.FileStore
	Tokens    *tokens.Manager
	Auth      *handlers.AuthHandler
	Redis     *redis.Client
	Gatherer  prometheus.Gatherer
	Checks    map[string]Check
}

// Site maps the site settings onto the SEO builder's input.
func Site(cfg config.SiteConfig) seo.Site {
	return seo.Site{
		Name:         cfg.Name,
		BaseURL:      cfg.BaseURL,
		DefaultImage: cfg.DefaultImage,
		Description:  cfg.Description,
	}
}

// NewRouter builds the HTTP surface.
func NewRouter(d Deps) *gin.Engine {
	cfg := d.Config
	r := gin.New()
	r.Use(middleware.Recovery(), middleware.RequestLogger(), middleware.CORS(cfg.Server.CORSOrigins))

	// per-user when authenticated, otherwise per-IP
	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.UseRedis && d.Redis != nil {
			win := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
			r.Use(middleware.RedisRateLimitMiddleware(d.Redis, cfg.RateLimit.RPS, cfg.RateLimit.Burst, win))
		} else {
			r.Use(middleware.RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
		}
	}

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "healthy")
	})
	r.GET("/ready", readiness(d.Checks))

	gatherer := d.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	site := Site(cfg.Site)
	handlers.RegisterSwagger(r)
	handlers.RegisterSitemap(r, d.Search, site)
	searchhandler.RegisterSchoolRoutes(r, d.Search, site)

	if d.Auth != nil {
		d.Auth.Register(r)
	} else {
		logger.Warnf("auth handlers not registered because the token manager is unavailable")
	}
	if d.Admission != nil && d.Tokens != nil {
		admissionhandler.RegisterApplicationRoutes(r, d.Admission, d.Tokens)
	}
	if d.Files != nil {
		admissionhandler.RegisterFileRoutes(r, d.Files)
	}
	return r
}

// readiness returns 200 only when every check passes.
func readiness(checks map[string]Check) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		ready := true
		deps := map[string]string{}
		for name, check := range checks {
			if err := check(ctx); err != nil {
				deps[name] = err.Error()
				ready = false
				continue
			}
			deps[name] = "ok"
		}
		status, code := "ready", http.StatusOK
		if !ready {
			status, code = "not_ready", http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{"status": status, "deps": deps, "uptime": time.Since(startTime).String()})
	}
}
