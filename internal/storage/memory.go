package storage

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"sync"
	"time"
)

type memoryObject struct {
	data        []byte
	contentType string
}

// MemoryStorage keeps objects in process memory. It is used when MinIO is not
// configured and in tests. Presigned URLs point at BaseURL and carry an
// HMAC-SHA256 signature over the key and expiry.
type MemoryStorage struct {
	BaseURL string
	Now     func() time.Time

	signingKey []byte
	mu         sync.RWMutex
	objects    map[string]memoryObject
}

// NewMemoryStorage returns a store whose links are signed with signingKey.
// A random key is used when signingKey is empty.
func NewMemoryStorage(baseURL string, signingKey []byte) *MemoryStorage {
	if len(signingKey) == 0 {
		signingKey = make([]byte, 32)
		if _, err := rand.Read(signingKey); err != nil {
			panic(fmt.Sprintf("storage: generate signing key: %v", err))
		}
	}
	return &MemoryStorage{
		BaseURL:    baseURL,
		Now:        time.Now,
		signingKey: signingKey,
		objects:    make(map[string]memoryObject),
	}
}

func (m *MemoryStorage) Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("read %s: %w", key, err)
	}
	if size >= 0 && int64(len(data)) != size {
		return fmt.Errorf("upload %s: got %d bytes, want %d", key, len(data), size)
	}
	m.mu.Lock()
	m.objects[key] = memoryObject{data: data, contentType: contentType}
	m.mu.Unlock()
	return nil
}

func (m *MemoryStorage) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	obj, ok := m.object(key)
	if !ok {
		return nil, ErrObjectNotFound
	}
	return io.NopCloser(bytes.NewReader(obj.data)), nil
}

// Stat reports the size and content type recorded at upload.
func (m *MemoryStorage) Stat(ctx context.Context, key string) (ObjectInfo, error) {
	obj, ok := m.object(key)
	if !ok {
		return ObjectInfo{}, ErrObjectNotFound
	}
	return ObjectInfo{Size: int64(len(obj.data)), ContentType: obj.contentType}, nil
}

func (m *MemoryStorage) PresignedURL(ctx context.Context, key string, expires time.Duration) (string, error) {
	if _, ok := m.object(key); !ok {
		return "", ErrObjectNotFound
	}
	exp := strconv.FormatInt(m.Now().Add(expires).Unix(), 10)
	q := url.Values{"expires": {exp}, "signature": {m.sign(key, exp)}}
	return fmt.Sprintf("%s/%s?%s", m.BaseURL, url.PathEscape(key), q.Encode()), nil
}

// VerifyLink checks the expires and signature parameters of a presigned URL
// for key.
func (m *MemoryStorage) VerifyLink(key, expires, signature string) error {
	exp, err := strconv.ParseInt(expires, 10, 64)
	if err != nil || signature == "" {
		return ErrLinkInvalid
	}
	if !hmac.Equal([]byte(signature), []byte(m.sign(key, expires))) {
		return ErrLinkInvalid
	}
	if m.Now().Unix() > exp {
		return ErrLinkExpired
	}
	return nil
}

func (m *MemoryStorage) sign(key, expires string) string {
	mac := hmac.New(sha256.New, m.signingKey)
	mac.Write([]byte(key + "\n" + expires))
	return hex.EncodeToString(mac.Sum(nil))
}

func (m *MemoryStorage) object(key string) (memoryObject, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[key]
	return obj, ok
}
