package service

import (
	"context"
	"io"
	"time"

	"github.com/go-playground/validator/v10"

	"parcelhub/internal/models"
	"parcelhub/internal/repository"
)

type Attachment struct {
	Name string
	MIME string
	Size int64
	Data io.Reader
}

type CreateInput struct {
	UserID     uint
	TrackingID string
	Items      []models.Product
	File       *Attachment
}

type UpdateInput struct {
	PackageID  uint
	UserID     uint
	TrackingID string
	Items      []models.Product
	File       *Attachment
}

type Packages interface {
	CreateAggregate(ctx context.Context, in CreateInput) (uint, error)
	UpdateAggregate(ctx context.Context, in UpdateInput) error
	DeletePackage(id, userID uint) error

	GetDbPackage(id uint) (models.Package, error)
	GetAllDbPackages() ([]models.Package, error)
	GetUserPackages(userID uint) ([]models.Package, error)
	GetCachedPackage(trackingID string) (models.Package, error)
	GetAllCachedPackages() ([]models.Package, error)
	WarmCache() error

	HandleMessage(ctx context.Context, payload []byte) error
}

// AttachmentStore is the filesystem side of the aggregate: owner directory
// provisioning and atomic file writes.
type AttachmentStore interface {
	ResolveOwnerDir(userID uint) (string, error)
	Filename(original string) string
	Write(dir, name string, r io.Reader) (string, error)
}

type Event struct {
	Type       string    `json:"type"`
	PackageID  uint      `json:"package_id"`
	TrackingID string    `json:"tracking_id"`
	UserID     uint      `json:"user_id"`
	At         time.Time `json:"at"`
}

type EventPublisher interface {
	PublishEvent(ctx context.Context, ev Event) error
}

type Options struct {
	MaxAttachmentBytes int64
	AttachmentMIME     string
}

type Service struct {
	store    repository.PackageStore
	cache    repository.PackageCache
	invoices AttachmentStore
	events   EventPublisher
	v        *validator.Validate

	maxAttachmentBytes int64
	attachmentMIME     string
}

func NewService(repo *repository.Repository, invoices AttachmentStore, events EventPublisher, opts Options) *Service {
	if opts.MaxAttachmentBytes <= 0 {
		opts.MaxAttachmentBytes = 2 << 20
	}
	if opts.AttachmentMIME == "" {
		opts.AttachmentMIME = "application/pdf"
	}
	return &Service{
		store:              repo.PackageStore,
		cache:              repo.PackageCache,
		invoices:           invoices,
		events:             events,
		v:                  validator.New(),
		maxAttachmentBytes: opts.MaxAttachmentBytes,
		attachmentMIME:     opts.AttachmentMIME,
	}
}
