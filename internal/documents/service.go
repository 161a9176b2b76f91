package documents

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/google/uuid"

	"lexguard-backend/internal/shared/storage/object"
)

// Service contains business logic for documents.
type Service struct {
	Store           object.ObjectStore
	Repo            DocumentsRepo
	StorageProvider string
}

// Upload saves the file to object storage and records the document. New
// documents start with monitoring enabled and a scan due immediately, so the
// next monitor tick picks them up.
func (s *Service) Upload(ctx context.Context, userID, fileName string, r io.Reader) (Document, error) {
	if fileName == "" {
		return Document{}, ErrInvalidInput
	}

	storageKey, size, mimeType, err := s.Store.Save(ctx, userID, fileName, r)
	if err != nil {
		return Document{}, err
	}

	now := time.Now().UTC()
	doc := Document{
		ID:                uuid.NewString(),
		UserID:            userID,
		FileName:          fileName,
		MimeType:          mimeType,
		SizeBytes:         size,
		StorageProvider:   s.StorageProvider,
		StorageKey:        storageKey,
		MonitoringEnabled: true,
		MonitoringStatus:  MonitoringPending,
		NextScanDue:       &now,
		CreatedAt:         now,
	}

	if err := s.Repo.Create(ctx, doc); err != nil {
		return Document{}, err
	}

	return doc, nil
}

// Get returns a document owned by the user.
func (s *Service) Get(ctx context.Context, userID, documentID string) (Document, error) {
	if userID == "" || documentID == "" {
		return Document{}, ErrInvalidInput
	}
	return s.Repo.GetByID(ctx, userID, documentID)
}

// Current returns the latest document for a user.
func (s *Service) Current(ctx context.Context, userID string) (Document, error) {
	if userID == "" {
		return Document{}, errors.New("user id required")
	}
	return s.Repo.GetCurrentByUser(ctx, userID)
}

// List returns documents for a user, newest first.
func (s *Service) List(ctx context.Context, userID string, limit, offset int) ([]Document, error) {
	if userID == "" {
		return nil, errors.New("user id required")
	}
	return s.Repo.ListByUser(ctx, userID, limit, offset)
}

// SetMonitoring enables or disables scheduled monitoring for a document.
// Enabling schedules the next scan immediately.
func (s *Service) SetMonitoring(ctx context.Context, userID, documentID string, enabled bool) (Document, error) {
	if userID == "" || documentID == "" {
		return Document{}, ErrInvalidInput
	}
	if err := s.Repo.SetMonitoringEnabled(ctx, userID, documentID, enabled, time.Now().UTC()); err != nil {
		return Document{}, err
	}
	return s.Repo.GetByID(ctx, userID, documentID)
}
