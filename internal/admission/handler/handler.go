package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/schoolfinder/schoolfinder/internal/admission"
	"github.com/schoolfinder/schoolfinder/internal/admission/service"
	"github.com/schoolfinder/schoolfinder/internal/storage"
	"github.com/schoolfinder/schoolfinder/pkg/logger"
	"github.com/schoolfinder/schoolfinder/pkg/middleware"
)

// RegisterApplicationRoutes mounts the parent-facing admission endpoints.
// Every route requires a verified bearer token.
func RegisterApplicationRoutes(r *gin.Engine, svc service.Service, ver middleware.Verifier) {
	apps := r.Group("/api/v1/applications", middleware.AuthMiddleware(ver))

	apps.POST("", func(c *gin.Context) {
		var req service.CreateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		app, err := svc.Create(c.Request.Context(), middleware.Subject(c), req)
		if err != nil {
			fail(c, "create application", err)
			return
		}
		c.JSON(http.StatusCreated, app)
	})

	apps.GET("", func(c *gin.Context) {
		list, err := svc.List(c.Request.Context(), middleware.Subject(c))
		if err != nil {
			fail(c, "list applications", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": list, "totalRows": len(list)})
	})

	apps.GET("/:id", func(c *gin.Context) {
		app, err := svc.Get(c.Request.Context(), middleware.Subject(c), c.Param("id"))
		if err != nil {
			fail(c, "get application", err)
			return
		}
		c.JSON(http.StatusOK, app)
	})

	apps.PATCH("/:id/status", func(c *gin.Context) {
		var req struct {
			Status admission.ApplicationStatus `json:"status"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		app, err := svc.UpdateStatus(c.Request.Context(), middleware.Subject(c), c.Param("id"), req.Status)
		if err != nil {
			fail(c, "update status", err)
			return
		}
		c.JSON(http.StatusOK, app)
	})

	apps.POST("/:id/documents", func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, service.MaxDocumentSize+1<<20)
		fh, err := c.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "multipart field \"file\" is required"})
			return
		}
		f, err := fh.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		defer f.Close()

		doc, err := svc.UploadDocument(c.Request.Context(), middleware.Subject(c), c.Param("id"), service.Upload{
			Type:        admission.DocumentType(strings.TrimSpace(c.PostForm("type"))),
			FileName:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Size:        fh.Size,
			Body:        f,
		})
		if err != nil {
			fail(c, "upload document", err)
			return
		}
		c.JSON(http.StatusCreated, doc)
	})

	apps.POST("/:id/messages", func(c *gin.Context) {
		var req struct {
			Role    admission.ChatRole `json:"role"`
			Content string             `json:"content"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		msg, err := svc.AddMessage(c.Request.Context(), middleware.Subject(c), c.Param("id"), req.Role, req.Content)
		if err != nil {
			fail(c, "add message", err)
			return
		}
		c.JSON(http.StatusCreated, msg)
	})

	apps.PUT("/:id/matches", func(c *gin.Context) {
		var req struct {
			Matches []admission.SchoolMatch `json:"matches"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		app, err := svc.SetMatches(c.Request.Context(), middleware.Subject(c), c.Param("id"), req.Matches)
		if err != nil {
			fail(c, "set matches", err)
			return
		}
		c.JSON(http.StatusOK, app)
	})
}

// FileStore serves objects behind links it signed itself.
type FileStore interface {
	Download(ctx context.Context, key string) (io.ReadCloser, error)
	Stat(ctx context.Context, key string) (storage.ObjectInfo, error)
	VerifyLink(key, expires, signature string) error
}

// RegisterFileRoutes serves stored documents under /files. Requests must carry
// the expires and signature parameters of a presigned URL.
func RegisterFileRoutes(r *gin.Engine, store FileStore) {
	r.GET("/files/*key", func(c *gin.Context) {
		key := strings.TrimPrefix(c.Param("key"), "/")
		switch err := store.VerifyLink(key, c.Query("expires"), c.Query("signature")); {
		case errors.Is(err, storage.ErrLinkExpired):
			c.JSON(http.StatusForbidden, gin.H{"error": "download link expired"})
			return
		case err != nil:
			c.JSON(http.StatusForbidden, gin.H{"error": "invalid download link"})
			return
		}
		info, err := store.Stat(c.Request.Context(), key)
		if errors.Is(err, storage.ErrObjectNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
			return
		}
		if err != nil {
			logger.Errorf("stat %s: %v", key, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "download failed"})
			return
		}
		rc, err := store.Download(c.Request.Context(), key)
		if err != nil {
			logger.Errorf("download %s: %v", key, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "download failed"})
			return
		}
		defer rc.Close()
		ct := info.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		c.DataFromReader(http.StatusOK, info.Size, ct, rc, map[string]string{
			"Content-Disposition": "attachment; filename=\"" + path.Base(key) + "\"",
		})
	})
}

func fail(c *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, admission.ErrInvalidRequest), errors.Is(err, admission.ErrInvalidStatus):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, admission.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	case errors.Is(err, admission.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "application not found"})
	default:
		logger.Errorf("%s: %v", op, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
