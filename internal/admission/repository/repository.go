package repository

import (
	"context"
	"time"

	"github.com/schoolfinder/schoolfinder/internal/admission"
)

// Repository persists applications. Ownership is checked by the service layer.
type Repository interface {
	Create(ctx context.Context, app *admission.ApplicationData) error
	Get(ctx context.Context, id string) (*admission.ApplicationData, error)
	// ListByParent returns the parent's applications, newest first.
	ListByParent(ctx context.Context, parentID string) ([]admission.ApplicationData, error)
	UpdateStatus(ctx context.Context, id string, status admission.ApplicationStatus, at time.Time) error
	AddDocument(ctx context.Context, id string, doc admission.DocumentUpload, at time.Time) error
	AppendMessage(ctx context.Context, id string, msg admission.ChatMessage, at time.Time) error
	SetMatches(ctx context.Context, id string, matches []admission.SchoolMatch, at time.Time) error
}
