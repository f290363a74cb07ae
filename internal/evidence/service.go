package evidence

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/licenciapp/licencias-backend/internal/requests"
	pkgauth "github.com/licenciapp/licencias-backend/pkg/auth"
	"github.com/licenciapp/licencias-backend/pkg/db/models"
	"github.com/licenciapp/licencias-backend/pkg/enums"
	pkgerrors "github.com/licenciapp/licencias-backend/pkg/errors"
	"github.com/licenciapp/licencias-backend/pkg/retry"
)

type requestsReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.LicenseRequest, error)
}

type attachmentsRepository interface {
	Upsert(ctx context.Context, attachment *models.EvidenceAttachment) (*models.EvidenceAttachment, error)
	FindBySlot(ctx context.Context, requestID uuid.UUID, docType enums.DocumentType, itemID int) (*models.EvidenceAttachment, error)
	DeleteBySlot(ctx context.Context, requestID uuid.UUID, docType enums.DocumentType, itemID int) error
	ListByRequest(ctx context.Context, requestID uuid.UUID) ([]models.EvidenceAttachment, error)
}

type objectStore interface {
	UploadObject(ctx context.Context, bucket, object, contentType string, body io.Reader) error
	DeleteObject(ctx context.Context, bucket, object string) error
	SignedReadURL(bucket, object string, expires time.Duration) (string, error)
	PublicURL(bucket, object string) string
}

// PutInput carries the uploaded file and its metadata.
type PutInput struct {
	FileName  string
	MimeType  string
	SizeBytes int64
	Content   io.Reader
}

// Attachment is an evidence row plus a short-lived download URL.
type Attachment struct {
	models.EvidenceAttachment
	SignedURL string `json:"signed_url,omitempty"`
}

// Service manages evidence attachments for license requests.
type Service interface {
	Put(ctx context.Context, actor pkgauth.Actor, requestID uuid.UUID, docType enums.DocumentType, itemID int, input PutInput) (*models.EvidenceAttachment, error)
	Exists(ctx context.Context, actor pkgauth.Actor, requestID uuid.UUID, docType enums.DocumentType, itemID int) (*models.EvidenceAttachment, bool, error)
	Delete(ctx context.Context, actor pkgauth.Actor, requestID uuid.UUID, docType enums.DocumentType, itemID int) error
	ListForRequest(ctx context.Context, actor pkgauth.Actor, requestID uuid.UUID) ([]Attachment, error)
}

type service struct {
	repo           attachmentsRepository
	requestsRepo   requestsReader
	store          objectStore
	bucket         string
	downloadTTL    time.Duration
	maxUploadBytes int64
	retryPolicy    retry.Policy
}

// NewService builds an evidence service over the metadata repository and
// object store.
func NewService(repo attachmentsRepository, requestsRepo requestsReader, store objectStore, bucket string, downloadTTL time.Duration, maxUploadBytes int64, retryPolicy retry.Policy) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("evidence repository required")
	}
	if requestsRepo == nil {
		return nil, fmt.Errorf("requests repository required")
	}
	if store == nil {
		return nil, fmt.Errorf("object store required")
	}
	if bucket == "" {
		return nil, fmt.Errorf("bucket required")
	}
	if downloadTTL <= 0 {
		return nil, fmt.Errorf("download ttl must be positive")
	}
	if maxUploadBytes <= 0 {
		return nil, fmt.Errorf("max upload bytes must be positive")
	}
	return &service{
		repo:           repo,
		requestsRepo:   requestsRepo,
		store:          store,
		bucket:         bucket,
		downloadTTL:    downloadTTL,
		maxUploadBytes: maxUploadBytes,
		retryPolicy:    retryPolicy,
	}, nil
}

func (s *service) Put(ctx context.Context, actor pkgauth.Actor, requestID uuid.UUID, docType enums.DocumentType, itemID int, input PutInput) (*models.EvidenceAttachment, error) {
	if err := validateSlot(actor, requestID, docType, itemID); err != nil {
		return nil, err
	}
	if input.Content == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "file content is required")
	}
	if input.SizeBytes <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "file size is required")
	}
	if input.SizeBytes > s.maxUploadBytes {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("file exceeds the %d byte upload limit", s.maxUploadBytes))
	}
	mimeType, err := sniffMimeType(input.MimeType)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid mime type")
	}
	if !mimeAllowed(docType, mimeType) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("%s slots accept %s only", docType, allowedMimeDescription(docType)))
	}

	request, err := s.findRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if err := authorizeMutation(request, actor); err != nil {
		return nil, err
	}
	// Terminal requests are frozen; fail before any object store contact.
	if !requests.CanMutateEvidence(request.Status) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("evidence is frozen once the request is %s", request.Status))
	}

	// Buffer the payload so every retry attempt sends the full body; a
	// plain reader would be drained by the first failed upload.
	payload, err := io.ReadAll(io.LimitReader(input.Content, s.maxUploadBytes+1))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read file content")
	}
	if int64(len(payload)) > s.maxUploadBytes {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("file exceeds the %d byte upload limit", s.maxUploadBytes))
	}

	previous, err := s.repo.FindBySlot(ctx, requestID, docType, itemID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup evidence slot")
	}

	key := objectKey(request.RequesterID, requestID, docType, itemID, input.FileName)
	err = s.retryPolicy.Do(ctx, func(ctx context.Context) error {
		if uploadErr := s.store.UploadObject(ctx, s.bucket, key, mimeType, bytes.NewReader(payload)); uploadErr != nil {
			return retry.Retryable(uploadErr)
		}
		return nil
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upload evidence object")
	}

	row := &models.EvidenceAttachment{
		RequestID:    requestID,
		DocumentType: docType,
		ItemID:       itemID,
		FileName:     sanitizeFileName(input.FileName),
		ObjectKey:    key,
		PublicURL:    s.store.PublicURL(s.bucket, key),
		MimeType:     mimeType,
		SizeBytes:    int64(len(payload)),
	}
	saved, err := s.repo.Upsert(ctx, row)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save evidence metadata")
	}

	// The slot now points at the new object; drop the superseded one so the
	// bucket stays aligned with the metadata. Best effort, the delete is
	// idempotent and a leftover object is harmless.
	if previous != nil && previous.ObjectKey != key {
		_ = s.store.DeleteObject(ctx, s.bucket, previous.ObjectKey)
	}
	return saved, nil
}

// Exists reports the slot's occupant. An empty slot is a normal outcome,
// not an error.
func (s *service) Exists(ctx context.Context, actor pkgauth.Actor, requestID uuid.UUID, docType enums.DocumentType, itemID int) (*models.EvidenceAttachment, bool, error) {
	if err := validateSlot(actor, requestID, docType, itemID); err != nil {
		return nil, false, err
	}
	request, err := s.findRequest(ctx, requestID)
	if err != nil {
		return nil, false, err
	}
	if err := authorizeRead(request, actor); err != nil {
		return nil, false, err
	}

	row, err := s.repo.FindBySlot(ctx, requestID, docType, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, nil
		}
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup evidence slot")
	}
	return row, true, nil
}

// Delete removes the object first, then the metadata row. Both steps are
// idempotent so a retried delete converges.
func (s *service) Delete(ctx context.Context, actor pkgauth.Actor, requestID uuid.UUID, docType enums.DocumentType, itemID int) error {
	if err := validateSlot(actor, requestID, docType, itemID); err != nil {
		return err
	}
	request, err := s.findRequest(ctx, requestID)
	if err != nil {
		return err
	}
	if err := authorizeMutation(request, actor); err != nil {
		return err
	}
	if !requests.CanMutateEvidence(request.Status) {
		return pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("evidence is frozen once the request is %s", request.Status))
	}

	row, err := s.repo.FindBySlot(ctx, requestID, docType, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup evidence slot")
	}

	err = s.retryPolicy.Do(ctx, func(ctx context.Context) error {
		if deleteErr := s.store.DeleteObject(ctx, s.bucket, row.ObjectKey); deleteErr != nil {
			return retry.Retryable(deleteErr)
		}
		return nil
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete evidence object")
	}

	if err := s.repo.DeleteBySlot(ctx, requestID, docType, itemID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete evidence metadata")
	}
	return nil
}

func (s *service) ListForRequest(ctx context.Context, actor pkgauth.Actor, requestID uuid.UUID) ([]Attachment, error) {
	if actor.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "actor identity missing")
	}
	if requestID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "request id is required")
	}
	request, err := s.findRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if err := authorizeRead(request, actor); err != nil {
		return nil, err
	}

	rows, err := s.repo.ListByRequest(ctx, requestID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list evidence")
	}

	items := make([]Attachment, len(rows))
	for i, row := range rows {
		url, err := s.store.SignedReadURL(s.bucket, row.ObjectKey, s.downloadTTL)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "generate signed read url")
		}
		items[i] = Attachment{EvidenceAttachment: row, SignedURL: url}
	}
	return items, nil
}

func validateSlot(actor pkgauth.Actor, requestID uuid.UUID, docType enums.DocumentType, itemID int) error {
	if actor.IsZero() {
		return pkgerrors.New(pkgerrors.CodeValidation, "actor identity missing")
	}
	if requestID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "request id is required")
	}
	if !docType.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid document type")
	}
	if itemID < 1 {
		return pkgerrors.New(pkgerrors.CodeValidation, "item id must be positive")
	}
	return nil
}

func authorizeMutation(request *models.LicenseRequest, actor pkgauth.Actor) error {
	if request.RequesterID == actor.ID || actor.Role == enums.ActorRoleAdministrador {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeForbidden, "only the requester or an administrator may modify evidence")
}

func authorizeRead(request *models.LicenseRequest, actor pkgauth.Actor) error {
	if request.RequesterID == actor.ID || actor.Role.IsElevated() {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeForbidden, "request belongs to another user")
}

func (s *service) findRequest(ctx context.Context, id uuid.UUID) (*models.LicenseRequest, error) {
	row, err := s.requestsRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "request not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup request")
	}
	return row, nil
}

func objectKey(requesterID, requestID uuid.UUID, docType enums.DocumentType, itemID int, fileName string) string {
	return fmt.Sprintf("evidence/%s/%s/%s/%d/%s", requesterID, requestID, docType, itemID, sanitizeFileName(fileName))
}
