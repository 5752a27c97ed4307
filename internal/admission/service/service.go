package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/schoolfinder/schoolfinder/internal/admission"
	"github.com/schoolfinder/schoolfinder/internal/admission/repository"
	"github.com/schoolfinder/schoolfinder/internal/catalog"
	catalogrepo "github.com/schoolfinder/schoolfinder/internal/catalog/repository"
	"github.com/schoolfinder/schoolfinder/internal/storage"
	"github.com/schoolfinder/schoolfinder/pkg/logger"
	"github.com/schoolfinder/schoolfinder/pkg/metrics"
)

const (
	MaxDocumentSize   = 10 << 20
	maxMessageRunes   = 4000
	maxMatches        = 20
	defaultURLExpires = 15 * time.Minute
	sniffLen          = 3072
)

var allowedContentTypes = map[string]bool{
	"application/pdf": true,
	"image/jpeg":      true,
	"image/png":       true,
}

// CreateRequest starts a new application.
type CreateRequest struct {
	SchoolSlug string                 `json:"schoolSlug"`
	Child      admission.ChildProfile `json:"child"`
}

// Upload is a document file as received from the client.
type Upload struct {
	Type        admission.DocumentType
	FileName    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// Service defines the admission operations used by the handler layer.
// Every operation is scoped to parentID; other parents' applications yield
// admission.ErrForbidden.
type Service interface {
	Create(ctx context.Context, parentID string, req CreateRequest) (*admission.ApplicationData, error)
	Get(ctx context.Context, parentID, id string) (*admission.ApplicationData, error)
	List(ctx context.Context, parentID string) ([]admission.ApplicationData, error)
	UpdateStatus(ctx context.Context, parentID, id string, status admission.ApplicationStatus) (*admission.ApplicationData, error)
	UploadDocument(ctx context.Context, parentID, id string, up Upload) (*admission.DocumentUpload, error)
	AddMessage(ctx context.Context, parentID, id string, role admission.ChatRole, content string) (*admission.ChatMessage, error)
	SetMatches(ctx context.Context, parentID, id string, matches []admission.SchoolMatch) (*admission.ApplicationData, error)
}

type Options struct {
	Repo      repository.Repository
	Store     storage.ObjectStore
	Schools   catalogrepo.Repository
	URLExpiry time.Duration
	Now       func() time.Time
}

func New(o Options) Service {
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.URLExpiry <= 0 {
		o.URLExpiry = defaultURLExpires
	}
	return &service{Options: o}
}

type service struct {
	Options
}

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", admission.ErrInvalidRequest, fmt.Sprintf(format, args...))
}

func (s *service) Create(ctx context.Context, parentID string, req CreateRequest) (*admission.ApplicationData, error) {
	child := req.Child
	child.FirstName = strings.TrimSpace(child.FirstName)
	child.LastName = strings.TrimSpace(child.LastName)
	if child.FirstName == "" {
		return nil, invalid("child first name is required")
	}
	if child.DateOfBirth != "" {
		if _, err := time.Parse("2006-01-02", child.DateOfBirth); err != nil {
			return nil, invalid("dateOfBirth must be YYYY-MM-DD")
		}
	}
	level, ok := catalog.ClassLevelByName(child.ApplyingForClass)
	if !ok {
		return nil, invalid("unknown class level %q", child.ApplyingForClass)
	}
	child.ApplyingForClass = level.Key
	if child.CurrentClass != "" {
		if l, ok := catalog.ClassLevelByName(child.CurrentClass); ok {
			child.CurrentClass = l.Key
		}
	}

	if req.SchoolSlug != "" && s.Schools != nil {
		school, err := s.school(ctx, req.SchoolSlug)
		if err != nil {
			return nil, err
		}
		if !school.Offers(level.Key) {
			return nil, invalid("%s does not offer %s", school.Name, level.Label)
		}
	}

	now := s.Now().UTC()
	app := &admission.ApplicationData{
		ID:         uuid.NewString(),
		ParentID:   parentID,
		SchoolSlug: req.SchoolSlug,
		Child:      child,
		Status:     admission.StatusDraft,
		Documents:  []admission.DocumentUpload{},
		Matches:    []admission.SchoolMatch{},
		Messages:   []admission.ChatMessage{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.Repo.Create(ctx, app); err != nil {
		return nil, err
	}
	logger.Infow("application created", "id", app.ID, "parent", parentID, "school", app.SchoolSlug)
	return app, nil
}

func (s *service) school(ctx context.Context, slug string) (*catalog.School, error) {
	school, err := s.Schools.Get(ctx, slug)
	if errors.Is(err, catalog.ErrNotFound) {
		return nil, invalid("unknown school %q", slug)
	}
	return school, err
}

// owned loads id and checks it belongs to parentID.
func (s *service) owned(ctx context.Context, parentID, id string) (*admission.ApplicationData, error) {
	app, err := s.Repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if app.ParentID != parentID {
		return nil, admission.ErrForbidden
	}
	return app, nil
}

func (s *service) Get(ctx context.Context, parentID, id string) (*admission.ApplicationData, error) {
	app, err := s.owned(ctx, parentID, id)
	if err != nil {
		return nil, err
	}
	s.sign(ctx, app.Documents)
	return app, nil
}

func (s *service) List(ctx context.Context, parentID string) ([]admission.ApplicationData, error) {
	return s.Repo.ListByParent(ctx, parentID)
}

// sign fills download URLs. A document whose URL cannot be signed is returned without one.
func (s *service) sign(ctx context.Context, docs []admission.DocumentUpload) {
	for i := range docs {
		u, err := s.Store.PresignedURL(ctx, docs[i].Key, s.URLExpiry)
		if err != nil {
			logger.Warnf("presign %s: %v", docs[i].Key, err)
			continue
		}
		docs[i].URL = u
	}
}

func (s *service) UpdateStatus(ctx context.Context, parentID, id string, status admission.ApplicationStatus) (*admission.ApplicationData, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: %q", admission.ErrInvalidStatus, status)
	}
	if _, err := s.owned(ctx, parentID, id); err != nil {
		return nil, err
	}
	if err := s.Repo.UpdateStatus(ctx, id, status, s.Now().UTC()); err != nil {
		return nil, err
	}
	return s.Get(ctx, parentID, id)
}

func (s *service) UploadDocument(ctx context.Context, parentID, id string, up Upload) (*admission.DocumentUpload, error) {
	if !up.Type.Valid() {
		return nil, invalid("unknown document type %q", up.Type)
	}
	declared := baseType(up.ContentType)
	if declared == "application/octet-stream" {
		declared = ""
	}
	if declared != "" && !allowedContentTypes[declared] {
		return nil, invalid("content type %q not accepted", up.ContentType)
	}
	if up.Size <= 0 || up.Size > MaxDocumentSize {
		return nil, invalid("document size must be between 1 byte and %d bytes", MaxDocumentSize)
	}
	name := path.Base(strings.ReplaceAll(up.FileName, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		name = string(up.Type)
	}
	if _, err := s.owned(ctx, parentID, id); err != nil {
		return nil, err
	}
	ct, body, err := sniff(up.Body)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	if !allowedContentTypes[ct] {
		return nil, invalid("document content %q not accepted", ct)
	}
	if declared != "" && declared != ct {
		return nil, invalid("document content %q does not match declared type %q", ct, declared)
	}

	doc := admission.DocumentUpload{
		ID:          uuid.NewString(),
		Type:        up.Type,
		FileName:    name,
		ContentType: ct,
		Size:        up.Size,
		Status:      admission.DocumentPending,
		UploadedAt:  s.Now().UTC(),
	}
	doc.Key = ObjectKey(id, doc.ID, name)

	if err := s.Store.Upload(ctx, doc.Key, body, up.Size, ct); err != nil {
		metrics.DocumentUploads.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("store document: %w", err)
	}
	if err := s.Repo.AddDocument(ctx, id, doc, doc.UploadedAt); err != nil {
		metrics.DocumentUploads.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.DocumentUploads.WithLabelValues("ok").Inc()

	docs := []admission.DocumentUpload{doc}
	s.sign(ctx, docs)
	return &docs[0], nil
}

// ObjectKey is the storage key of an application document.
func ObjectKey(applicationID, documentID, fileName string) string {
	return path.Join("applications", applicationID, documentID, fileName)
}

func (s *service) AddMessage(ctx context.Context, parentID, id string, role admission.ChatRole, content string) (*admission.ChatMessage, error) {
	if role == "" {
		role = admission.RoleUser
	}
	if !role.Valid() {
		return nil, invalid("unknown role %q", role)
	}
	if strings.TrimSpace(content) == "" {
		return nil, invalid("message content is required")
	}
	if len([]rune(content)) > maxMessageRunes {
		return nil, invalid("message longer than %d characters", maxMessageRunes)
	}
	if _, err := s.owned(ctx, parentID, id); err != nil {
		return nil, err
	}
	msg := admission.ChatMessage{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		CreatedAt: s.Now().UTC(),
	}
	if err := s.Repo.AppendMessage(ctx, id, msg, msg.CreatedAt); err != nil {
		return nil, err
	}
	return &msg, nil
}

func (s *service) SetMatches(ctx context.Context, parentID, id string, matches []admission.SchoolMatch) (*admission.ApplicationData, error) {
	if len(matches) > maxMatches {
		return nil, invalid("at most %d matches", maxMatches)
	}
	seen := map[string]bool{}
	for _, m := range matches {
		if m.Score < 0 || m.Score > 100 {
			return nil, invalid("score for %s must be within 0-100", m.SchoolSlug)
		}
		if seen[m.SchoolSlug] {
			return nil, invalid("duplicate match %s", m.SchoolSlug)
		}
		seen[m.SchoolSlug] = true
		if m.SchoolSlug == "" {
			return nil, invalid("match without school")
		}
		if s.Schools != nil {
			if _, err := s.school(ctx, m.SchoolSlug); err != nil {
				return nil, err
			}
		}
	}
	if _, err := s.owned(ctx, parentID, id); err != nil {
		return nil, err
	}
	if err := s.Repo.SetMatches(ctx, id, matches, s.Now().UTC()); err != nil {
		return nil, err
	}
	return s.Get(ctx, parentID, id)
}

func baseType(ct string) string {
	return strings.ToLower(strings.TrimSpace(strings.SplitN(ct, ";", 2)[0]))
}

// sniff detects the content type from the leading bytes of body and returns a
// reader that replays them.
func sniff(body io.Reader) (string, io.Reader, error) {
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(body, head)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return "", nil, err
	}
	head = head[:n]
	return baseType(mimetype.Detect(head).String()), io.MultiReader(bytes.NewReader(head), body), nil
}
