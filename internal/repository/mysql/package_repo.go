package mysql

import (
	"fmt"

	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/mysql"
	"github.com/pkg/errors"

	"parcelhub/internal/models"
	"parcelhub/internal/repository"
)

type Config struct {
	Host     string
	Port     string
	Username string
	Password string
	DbName   string
}

func ConnectDB(cfg Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		cfg.Username, cfg.Password, cfg.Host, cfg.Port, cfg.DbName,
	)
	db, err := gorm.Open("mysql", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "mysql open")
	}
	if err := db.DB().Ping(); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "mysql ping")
	}
	return db, nil
}

type PackageMysqlRepo struct {
	db *gorm.DB
}

func NewPackageMysql(db *gorm.DB) *PackageMysqlRepo {
	return &PackageMysqlRepo{db: db}
}

type pkgTx struct {
	tx *gorm.DB
}

func (r *PackageMysqlRepo) Transaction(fn func(tx repository.Tx) error) error {
	return r.db.
		Set("gorm:association_autocreate", false).
		Set("gorm:association_autoupdate", false).
		Transaction(func(g *gorm.DB) error {
			return fn(&pkgTx{tx: g})
		})
}

func (t *pkgTx) CreatePackage(pkg *models.Package) error {
	hdr := models.Package{
		TrackingID: pkg.TrackingID,
		Status:     pkg.Status,
		UserID:     pkg.UserID,
		CreatedAt:  pkg.CreatedAt,
	}
	if err := t.tx.Create(&hdr).Error; err != nil {
		return err
	}
	pkg.ID = hdr.ID
	return nil
}

func (t *pkgTx) InsertLineItems(packageID uint, items []models.Product) error {
	for i := range items {
		items[i].ID = 0
		items[i].PackageID = packageID
		if err := t.tx.Create(&items[i]).Error; err != nil {
			return err
		}
	}
	return nil
}

func (t *pkgTx) UpdateRoot(packageID uint, trackingID string) error {
	return t.tx.Model(&models.Package{}).
		Where("id = ?", packageID).
		Update("package_tracking_id", trackingID).Error
}

func (t *pkgTx) LineItems(packageID uint) ([]models.Product, error) {
	var out []models.Product
	err := t.tx.Where("package_id = ?", packageID).Order("id").Find(&out).Error
	return out, err
}

func (t *pkgTx) UpdateLineItem(id uint, item models.Product) error {
	return t.tx.Model(&models.Product{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"product_weight":      item.Weight,
			"product_unit":        item.Unit,
			"product_description": item.Description,
			"product_value":       item.Value,
			"product_store":       item.Store,
		}).Error
}

func (t *pkgTx) DeleteLineItems(ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	return t.tx.Where("id IN (?)", ids).Delete(models.Product{}).Error
}

// AttachInvoice is an upsert: a package never holds more than one invoice
// row, a second attachment replaces the first.
func (t *pkgTx) AttachInvoice(packageID, userID uint, storedPath string) error {
	var inv models.Invoice
	err := t.tx.Where("package_id = ?", packageID).First(&inv).Error
	switch {
	case gorm.IsRecordNotFoundError(err):
		inv = models.Invoice{PackageID: packageID, Path: storedPath, UserID: userID}
		return t.tx.Create(&inv).Error
	case err != nil:
		return err
	default:
		return t.tx.Model(&inv).Updates(map[string]interface{}{
			"invoice_path": storedPath,
			"user_id":      userID,
		}).Error
	}
}

func (r *PackageMysqlRepo) Get(id uint) (models.Package, error) {
	var p models.Package
	q := r.db.Preload("Products").
		Preload("Invoice").
		Where("id = ?", id).
		First(&p)
	return p, q.Error
}

func (r *PackageMysqlRepo) GetByTrackingID(trackingID string) (models.Package, error) {
	var p models.Package
	q := r.db.Preload("Products").
		Preload("Invoice").
		Where("package_tracking_id = ?", trackingID).
		First(&p)
	return p, q.Error
}

func (r *PackageMysqlRepo) GetAll() ([]models.Package, error) {
	var out []models.Package
	q := r.db.Preload("Products").
		Preload("Invoice").
		Find(&out)
	return out, q.Error
}

func (r *PackageMysqlRepo) GetByUser(userID uint) ([]models.Package, error) {
	var out []models.Package
	q := r.db.Preload("Products").
		Preload("Invoice").
		Where("user_id = ?", userID).
		Find(&out)
	return out, q.Error
}

func (r *PackageMysqlRepo) Load(id, userID uint) (models.Package, error) {
	var p models.Package
	q := r.db.Preload("Products").
		Preload("Invoice").
		Where("id = ? AND user_id = ?", id, userID).
		First(&p)
	return p, q.Error
}

func (r *PackageMysqlRepo) TrackingIDAvailable(trackingID string, excludingID uint) (bool, error) {
	var count int
	err := r.db.Model(&models.Package{}).
		Where("package_tracking_id = ? AND id <> ?", trackingID, excludingID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count == 0, nil
}

func (r *PackageMysqlRepo) ResolveOwnerKey(userID uint) (string, error) {
	var u models.User
	if err := r.db.Where("id = ?", userID).First(&u).Error; err != nil {
		return "", err
	}
	if u.UniqueID == "" {
		return "", gorm.ErrRecordNotFound
	}
	return u.UniqueID, nil
}

// Delete removes the root row only; cascade of children and stored files is
// owned by the schema / callers.
func (r *PackageMysqlRepo) Delete(id uint) error {
	return r.db.Where("id = ?", id).Delete(models.Package{}).Error
}
