package service

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	mysqldrv "github.com/go-sql-driver/mysql"
	"github.com/jinzhu/gorm"
	"github.com/sirupsen/logrus"

	"parcelhub/internal/models"
	"parcelhub/internal/reconcile"
	"parcelhub/internal/repository"
	"parcelhub/internal/storage"
)

const (
	EventPackageCreated = "package.created"
	EventPackageUpdated = "package.updated"
	EventPackageDeleted = "package.deleted"
)

func humanizeValidationErrors(errs validator.ValidationErrors) string {
	var b strings.Builder
	for _, fe := range errs {
		if fe.Param() != "" {
			fmt.Fprintf(&b, "%s: %s=%s; ", fe.Namespace(), fe.Tag(), fe.Param())
		} else {
			fmt.Fprintf(&b, "%s: %s; ", fe.Namespace(), fe.Tag())
		}
	}
	s := b.String()
	if len(s) > 2 {
		s = s[:len(s)-2]
	}
	return s
}

// CreateAggregate persists a package root, its line items and the optional
// invoice in one transaction. Cheap rejections (shape, attachment, owner)
// happen before the transaction opens; any later failure rolls everything
// back so no partial aggregate is ever visible.
func (s *Service) CreateAggregate(ctx context.Context, in CreateInput) (uint, error) {
	if in.UserID == 0 || strings.TrimSpace(in.TrackingID) == "" || len(in.Items) == 0 {
		return 0, fmt.Errorf("%w: user id, tracking id and a non-empty item list are required", ErrInvalidRequest)
	}
	if err := s.validateItems(in.Items); err != nil {
		return 0, err
	}
	if err := s.checkAttachment(in.File); err != nil {
		return 0, err
	}

	dir, err := s.invoices.ResolveOwnerDir(in.UserID)
	if err != nil {
		return 0, s.mapStorageErr(err)
	}

	var packageID uint
	err = s.store.Transaction(func(tx repository.Tx) error {
		pkg := models.Package{
			TrackingID: in.TrackingID,
			Status:     models.StatusPending,
			UserID:     in.UserID,
			CreatedAt:  time.Now().UTC(),
		}
		if err := tx.CreatePackage(&pkg); err != nil {
			return err
		}
		if err := tx.InsertLineItems(pkg.ID, in.Items); err != nil {
			return err
		}
		if in.File != nil {
			name := s.invoices.Filename(in.File.Name)
			stored, err := s.invoices.Write(dir, name, in.File.Data)
			if err != nil {
				return err
			}
			if err := tx.AttachInvoice(pkg.ID, in.UserID, stored); err != nil {
				return err
			}
		}
		packageID = pkg.ID
		return nil
	})
	if err != nil {
		return 0, s.mapStoreErr(err)
	}

	s.afterCommit(ctx, EventPackageCreated, packageID, in.TrackingID, in.UserID, "")
	return packageID, nil
}

// UpdateAggregate reconciles the stored aggregate with the incoming one.
// Ownership and tracking-id uniqueness are pre-checked without a transaction;
// the root update, the reconciliation plan and the optional attachment upsert
// then commit or roll back together.
func (s *Service) UpdateAggregate(ctx context.Context, in UpdateInput) error {
	if in.PackageID == 0 || in.UserID == 0 || strings.TrimSpace(in.TrackingID) == "" {
		return fmt.Errorf("%w: package id, user id and tracking id are required", ErrInvalidRequest)
	}
	if err := s.validateItems(in.Items); err != nil {
		return err
	}
	if err := s.checkAttachment(in.File); err != nil {
		return err
	}

	existing, err := s.store.Load(in.PackageID, in.UserID)
	if gorm.IsRecordNotFoundError(err) {
		return ErrNotFound
	}
	if err != nil {
		return s.mapStoreErr(err)
	}

	available, err := s.store.TrackingIDAvailable(in.TrackingID, in.PackageID)
	if err != nil {
		return s.mapStoreErr(err)
	}
	if !available {
		return ErrDuplicateTrackingID
	}

	var dir string
	if in.File != nil {
		if dir, err = s.invoices.ResolveOwnerDir(in.UserID); err != nil {
			return s.mapStorageErr(err)
		}
	}

	err = s.store.Transaction(func(tx repository.Tx) error {
		if err := tx.UpdateRoot(in.PackageID, in.TrackingID); err != nil {
			return err
		}

		persisted, err := tx.LineItems(in.PackageID)
		if err != nil {
			return err
		}
		plan, err := reconcile.Build(persisted, in.Items)
		if err != nil {
			return err
		}
		for _, u := range plan.Updates {
			if err := tx.UpdateLineItem(u.ID, u.Item); err != nil {
				return err
			}
		}
		if err := tx.InsertLineItems(in.PackageID, plan.Inserts); err != nil {
			return err
		}
		if err := tx.DeleteLineItems(plan.Deletes); err != nil {
			return err
		}

		if in.File != nil {
			name := s.invoices.Filename(in.File.Name)
			stored, err := s.invoices.Write(dir, name, in.File.Data)
			if err != nil {
				return err
			}
			if err := tx.AttachInvoice(in.PackageID, in.UserID, stored); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return s.mapStoreErr(err)
	}

	stale := ""
	if existing.TrackingID != in.TrackingID {
		stale = existing.TrackingID
	}
	s.afterCommit(ctx, EventPackageUpdated, in.PackageID, in.TrackingID, in.UserID, stale)
	return nil
}

func (s *Service) DeletePackage(id, userID uint) error {
	pkg, err := s.store.Load(id, userID)
	if gorm.IsRecordNotFoundError(err) {
		return ErrNotFound
	}
	if err != nil {
		return s.mapStoreErr(err)
	}
	if err := s.store.Delete(id); err != nil {
		return s.mapStoreErr(err)
	}
	s.cache.DeletePackage(pkg.TrackingID)
	s.publish(context.Background(), EventPackageDeleted, id, pkg.TrackingID, userID)
	return nil
}

func (s *Service) GetDbPackage(id uint) (models.Package, error) {
	pkg, err := s.store.Get(id)
	if gorm.IsRecordNotFoundError(err) {
		return models.Package{}, ErrNotFound
	}
	return pkg, s.mapStoreErr(err)
}

func (s *Service) GetAllDbPackages() ([]models.Package, error) {
	out, err := s.store.GetAll()
	return out, s.mapStoreErr(err)
}

func (s *Service) GetUserPackages(userID uint) ([]models.Package, error) {
	out, err := s.store.GetByUser(userID)
	return out, s.mapStoreErr(err)
}

func (s *Service) GetCachedPackage(trackingID string) (models.Package, error) {
	return s.cache.GetPackage(trackingID)
}

func (s *Service) GetAllCachedPackages() ([]models.Package, error) {
	return s.cache.GetAllPackages()
}

func (s *Service) WarmCache() error {
	pkgs, err := s.store.GetAll()
	if err != nil {
		return s.mapStoreErr(err)
	}
	for _, p := range pkgs {
		if err := s.v.Struct(p); err != nil {
			logrus.WithError(err).WithField("tracking_id", p.TrackingID).Warn("skip invalid package from DB")
			continue
		}
		s.cache.PutPackage(p.TrackingID, p)
	}
	return nil
}

type feedMessage struct {
	PackageID  uint             `json:"package_id,omitempty"`
	UserID     uint             `json:"user_id"`
	TrackingID string           `json:"tracking_id"`
	Products   []models.Product `json:"products"`
}

// HandleMessage drives the same aggregate flows from the import feed: no
// package id means create, otherwise update.
func (s *Service) HandleMessage(ctx context.Context, payload []byte) error {
	var msg feedMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return fmt.Errorf("%w: %v", ErrDecode, err)
	}

	if msg.PackageID == 0 {
		_, err := s.CreateAggregate(ctx, CreateInput{
			UserID:     msg.UserID,
			TrackingID: msg.TrackingID,
			Items:      msg.Products,
		})
		return err
	}
	return s.UpdateAggregate(ctx, UpdateInput{
		PackageID:  msg.PackageID,
		UserID:     msg.UserID,
		TrackingID: msg.TrackingID,
		Items:      msg.Products,
	})
}

func (s *Service) validateItems(items []models.Product) error {
	for i, it := range items {
		if err := s.v.Struct(it); err != nil {
			if verrs, ok := err.(validator.ValidationErrors); ok {
				return fmt.Errorf("%w: item %d: %s", ErrInvalidLineItem, i, humanizeValidationErrors(verrs))
			}
			return fmt.Errorf("%w: item %d: %v", ErrInvalidLineItem, i, err)
		}
	}
	return nil
}

func (s *Service) checkAttachment(att *Attachment) error {
	if att == nil {
		return nil
	}
	if att.MIME != s.attachmentMIME {
		return fmt.Errorf("%w: only %s is accepted", ErrInvalidAttachment, s.attachmentMIME)
	}
	if att.Size > s.maxAttachmentBytes {
		return fmt.Errorf("%w: file exceeds %d bytes", ErrInvalidAttachment, s.maxAttachmentBytes)
	}
	return nil
}

func (s *Service) mapStorageErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, storage.ErrOwnerNotFound):
		return ErrOwnerNotFound
	case errors.Is(err, storage.ErrWrite):
		return fmt.Errorf("%w: %v", ErrStorageWrite, err)
	}
	return err
}

func (s *Service) mapStoreErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, storage.ErrWrite):
		return fmt.Errorf("%w: %v", ErrStorageWrite, err)
	case errors.Is(err, reconcile.ErrInvalidItem):
		return fmt.Errorf("%w: %v", ErrInvalidLineItem, err)
	case isDuplicateKey(err):
		return ErrDuplicateTrackingID
	case isTransient(err):
		return fmt.Errorf("%w: %v", ErrTransientStorage, err)
	}
	return err
}

func isDuplicateKey(err error) bool {
	var myErr *mysqldrv.MySQLError
	return errors.As(err, &myErr) && myErr.Number == 1062
}

func isTransient(err error) bool {
	return errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, mysqldrv.ErrInvalidConn) ||
		errors.Is(err, context.DeadlineExceeded)
}

func (s *Service) afterCommit(ctx context.Context, eventType string, id uint, trackingID string, userID uint, staleTrackingID string) {
	if staleTrackingID != "" {
		s.cache.DeletePackage(staleTrackingID)
	}
	if pkg, err := s.store.Get(id); err == nil {
		s.cache.PutPackage(pkg.TrackingID, pkg)
	} else {
		logrus.WithError(err).WithField("package_id", id).Warn("cache refresh after commit failed")
	}
	s.publish(ctx, eventType, id, trackingID, userID)
}

func (s *Service) publish(ctx context.Context, eventType string, id uint, trackingID string, userID uint) {
	if s.events == nil {
		return
	}
	ev := Event{
		Type:       eventType,
		PackageID:  id,
		TrackingID: trackingID,
		UserID:     userID,
		At:         time.Now().UTC(),
	}
	if err := s.events.PublishEvent(ctx, ev); err != nil {
		logrus.WithError(err).WithField("tracking_id", trackingID).Warn("event publish failed")
	}
}
