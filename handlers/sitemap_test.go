package handlers

import (
	"context"
	"encoding/xml"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schoolfinder/schoolfinder/internal/catalog"
	catalogrepo "github.com/schoolfinder/schoolfinder/internal/catalog/repository"
	"github.com/schoolfinder/schoolfinder/internal/seo"
)

type brokenLister struct{}

func (brokenLister) List(ctx context.Context) ([]catalog.School, error) {
	return nil, errors.New("mongo down")
}

func TestSitemap(t *testing.T) {
	repo := catalogrepo.NewMemoryRepo([]catalog.School{{Slug: "a"}, {Slug: "b"}})
	g := gin.New()
	RegisterSitemap(g, repo, seo.Site{Name: "SF", BaseURL: "https://sf.example"})

	w := httptest.NewRecorder()
	g.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/sitemap.xml", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "application/xml")

	var set seo.URLSet
	require.NoError(t, xml.Unmarshal(w.Body.Bytes(), &set))
	require.Len(t, set.URLs, 4)
	assert.Equal(t, "https://sf.example/", set.URLs[0].Loc)
	assert.Equal(t, "https://sf.example"+seo.SchoolPath("b"), set.URLs[3].Loc)
	assert.Len(t, set.URLs[0].LastMod, len("2006-01-02"))
}

func TestSitemap_ListFails(t *testing.T) {
	g := gin.New()
	RegisterSitemap(g, brokenLister{}, seo.Site{BaseURL: "https://sf.example"})

	w := httptest.NewRecorder()
	g.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/sitemap.xml", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
