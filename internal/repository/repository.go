package repository

import (
	"parcelhub/internal/models"
)

// Tx is the set of aggregate mutations valid only inside a running
// transaction. PackageStore.Transaction commits when the closure returns nil
// and rolls back on any error, so a request either lands completely or not at
// all.
type Tx interface {
	CreatePackage(pkg *models.Package) error
	InsertLineItems(packageID uint, items []models.Product) error
	UpdateRoot(packageID uint, trackingID string) error
	LineItems(packageID uint) ([]models.Product, error)
	UpdateLineItem(id uint, item models.Product) error
	DeleteLineItems(ids []uint) error
	AttachInvoice(packageID, userID uint, storedPath string) error
}

type PackageStore interface {
	Transaction(fn func(tx Tx) error) error

	Get(id uint) (models.Package, error)
	GetByTrackingID(trackingID string) (models.Package, error)
	GetAll() ([]models.Package, error)
	GetByUser(userID uint) ([]models.Package, error)

	// Load scopes by owner: a package that exists but belongs to someone
	// else is indistinguishable from a missing one.
	Load(id, userID uint) (models.Package, error)
	TrackingIDAvailable(trackingID string, excludingID uint) (bool, error)
	ResolveOwnerKey(userID uint) (string, error)
	Delete(id uint) error
}

type PackageCache interface {
	PutPackage(trackingID string, pkg models.Package)
	GetPackage(trackingID string) (models.Package, error)
	GetAllPackages() ([]models.Package, error)
	DeletePackage(trackingID string)
}

type Repository struct {
	PackageStore
	PackageCache
}

func NewRepository(store PackageStore, cache PackageCache) *Repository {
	return &Repository{
		PackageStore: store,
		PackageCache: cache,
	}
}
