package storage

import (
	"context"
	"io"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStorage(t *testing.T) {
	ctx := context.Background()
	ms := NewMemoryStorage("http://files.local", []byte("secret"))
	ms.Now = func() time.Time { return time.Unix(1_700_000_000, 0) }
	var s ObjectStore = ms

	require.NoError(t, s.Upload(ctx, "applications/a/d/birth.pdf", strings.NewReader("pdf"), 3, "application/pdf"))
	require.Error(t, s.Upload(ctx, "short", strings.NewReader("pdf"), 10, "application/pdf"))

	rc, err := s.Download(ctx, "applications/a/d/birth.pdf")
	require.NoError(t, err)
	b, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "pdf", string(b))

	info, err := ms.Stat(ctx, "applications/a/d/birth.pdf")
	require.NoError(t, err)
	assert.Equal(t, ObjectInfo{Size: 3, ContentType: "application/pdf"}, info)

	raw, err := s.PresignedURL(ctx, "applications/a/d/birth.pdf", 15*time.Minute)
	require.NoError(t, err)
	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "files.local", u.Host)
	assert.Equal(t, "/applications/a/d/birth.pdf", u.Path)
	assert.Equal(t, "1700000900", u.Query().Get("expires"))
	assert.Len(t, u.Query().Get("signature"), 64)

	_, err = s.Download(ctx, "missing")
	assert.ErrorIs(t, err, ErrObjectNotFound)
	_, err = s.PresignedURL(ctx, "missing", time.Minute)
	assert.ErrorIs(t, err, ErrObjectNotFound)
	_, err = ms.Stat(ctx, "missing")
	assert.ErrorIs(t, err, ErrObjectNotFound)
}

func TestMemoryStorage_VerifyLink(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(1_700_000_000, 0)
	ms := NewMemoryStorage("/files", []byte("secret"))
	ms.Now = func() time.Time { return now }
	require.NoError(t, ms.Upload(ctx, "k/report.pdf", strings.NewReader("x"), 1, "application/pdf"))

	raw, err := ms.PresignedURL(ctx, "k/report.pdf", time.Minute)
	require.NoError(t, err)
	u, err := url.Parse(raw)
	require.NoError(t, err)
	exp, sig := u.Query().Get("expires"), u.Query().Get("signature")

	require.NoError(t, ms.VerifyLink("k/report.pdf", exp, sig))
	assert.ErrorIs(t, ms.VerifyLink("k/other.pdf", exp, sig), ErrLinkInvalid, "signature is bound to the key")
	assert.ErrorIs(t, ms.VerifyLink("k/report.pdf", "1900000000", sig), ErrLinkInvalid, "signature is bound to the expiry")
	assert.ErrorIs(t, ms.VerifyLink("k/report.pdf", exp, ""), ErrLinkInvalid)
	assert.ErrorIs(t, ms.VerifyLink("k/report.pdf", "soon", sig), ErrLinkInvalid)

	other := NewMemoryStorage("/files", []byte("another secret"))
	assert.ErrorIs(t, other.VerifyLink("k/report.pdf", exp, sig), ErrLinkInvalid)

	now = now.Add(2 * time.Minute)
	assert.ErrorIs(t, ms.VerifyLink("k/report.pdf", exp, sig), ErrLinkExpired)
}
