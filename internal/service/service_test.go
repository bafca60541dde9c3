package service_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"testing"

	mysqldrv "github.com/go-sql-driver/mysql"
	"github.com/jinzhu/gorm"
	"github.com/stretchr/testify/require"

	"parcelhub/internal/models"
	"parcelhub/internal/repository"
	svc "parcelhub/internal/service"
	"parcelhub/internal/storage"
)

type txOp struct {
	name string
	args interface{}
}

type txStub struct {
	ops []txOp

	nextID    uint
	lineItems []models.Product

	createErr error
	insertErr error
	attachErr error
}

func (t *txStub) CreatePackage(pkg *models.Package) error {
	t.ops = append(t.ops, txOp{name: "create", args: *pkg})
	if t.createErr != nil {
		return t.createErr
	}
	if t.nextID == 0 {
		t.nextID = 1
	}
	pkg.ID = t.nextID
	return nil
}

func (t *txStub) InsertLineItems(packageID uint, items []models.Product) error {
	if len(items) > 0 {
		t.ops = append(t.ops, txOp{name: "insert", args: len(items)})
	}
	return t.insertErr
}

func (t *txStub) UpdateRoot(packageID uint, trackingID string) error {
	t.ops = append(t.ops, txOp{name: "updateRoot", args: trackingID})
	return nil
}

func (t *txStub) LineItems(packageID uint) ([]models.Product, error) {
	return t.lineItems, nil
}

func (t *txStub) UpdateLineItem(id uint, item models.Product) error {
	t.ops = append(t.ops, txOp{name: "updateItem", args: id})
	return nil
}

func (t *txStub) DeleteLineItems(ids []uint) error {
	if len(ids) > 0 {
		t.ops = append(t.ops, txOp{name: "delete", args: ids})
	}
	return nil
}

func (t *txStub) AttachInvoice(packageID, userID uint, storedPath string) error {
	t.ops = append(t.ops, txOp{name: "attach", args: storedPath})
	return t.attachErr
}

type storeStub struct {
	tx        *txStub
	txCount   int
	committed bool

	loadResp  models.Package
	loadErr   error
	available bool
	availErr  error
	getResp   models.Package
	getErr    error
	allResp   []models.Package
	allErr    error
	deleteErr error
}

func (s *storeStub) Transaction(fn func(tx repository.Tx) error) error {
	s.txCount++
	if err := fn(s.tx); err != nil {
		return err
	}
	s.committed = true
	return nil
}

func (s *storeStub) Get(id uint) (models.Package, error)            { return s.getResp, s.getErr }
func (s *storeStub) GetByTrackingID(t string) (models.Package, error) {
	return s.getResp, s.getErr
}
func (s *storeStub) GetAll() ([]models.Package, error)          { return s.allResp, s.allErr }
func (s *storeStub) GetByUser(uint) ([]models.Package, error)   { return s.allResp, s.allErr }
func (s *storeStub) Load(id, userID uint) (models.Package, error) {
	return s.loadResp, s.loadErr
}
func (s *storeStub) TrackingIDAvailable(string, uint) (bool, error) {
	return s.available, s.availErr
}
func (s *storeStub) ResolveOwnerKey(uint) (string, error) { return "u-abc", nil }
func (s *storeStub) Delete(uint) error                    { return s.deleteErr }

var _ repository.PackageStore = (*storeStub)(nil)

type cacheStub struct {
	m       map[string]models.Package
	puts    int
	deletes []string
}

func (c *cacheStub) PutPackage(tid string, p models.Package) {
	if c.m == nil {
		c.m = map[string]models.Package{}
	}
	c.m[tid] = p
	c.puts++
}
func (c *cacheStub) GetPackage(tid string) (models.Package, error) { return c.m[tid], nil }
func (c *cacheStub) GetAllPackages() ([]models.Package, error) {
	var out []models.Package
	for _, p := range c.m {
		out = append(out, p)
	}
	return out, nil
}
func (c *cacheStub) DeletePackage(tid string) { c.deletes = append(c.deletes, tid) }

var _ repository.PackageCache = (*cacheStub)(nil)

type attachmentsStub struct {
	dir        string
	resolveErr error
	writeErr   error
	written    int
}

func (a *attachmentsStub) ResolveOwnerDir(userID uint) (string, error) {
	if a.resolveErr != nil {
		return "", a.resolveErr
	}
	return a.dir, nil
}
func (a *attachmentsStub) Filename(original string) string { return "1-abcd.pdf" }
func (a *attachmentsStub) Write(dir, name string, r io.Reader) (string, error) {
	if a.writeErr != nil {
		return "", a.writeErr
	}
	a.written++
	return "/uploads/invoices/u-abc/" + name, nil
}

type publisherStub struct {
	events []svc.Event
}

func (p *publisherStub) PublishEvent(_ context.Context, ev svc.Event) error {
	p.events = append(p.events, ev)
	return nil
}

func validItems() []models.Product {
	return []models.Product{{
		Weight:      2,
		Unit:        "kg",
		Description: "Book",
		Value:       15,
		Store:       "Amazon",
	}}
}

func newTestService(store *storeStub, cc *cacheStub, att *attachmentsStub, pub *publisherStub) *svc.Service {
	var events svc.EventPublisher
	if pub != nil {
		events = pub
	}
	return svc.NewService(
		repository.NewRepository(store, cc),
		att, events,
		svc.Options{MaxAttachmentBytes: 2 << 20, AttachmentMIME: "application/pdf"},
	)
}

func TestCreateAggregate_OK(t *testing.T) {
	store := &storeStub{tx: &txStub{nextID: 11}, getResp: models.Package{ID: 11, TrackingID: "TRK-001"}}
	cc := &cacheStub{}
	pub := &publisherStub{}
	s := newTestService(store, cc, &attachmentsStub{dir: "d"}, pub)

	id, err := s.CreateAggregate(context.Background(), svc.CreateInput{
		UserID:     1,
		TrackingID: "TRK-001",
		Items:      validItems(),
	})
	require.NoError(t, err)
	require.Equal(t, uint(11), id)
	require.True(t, store.committed)

	// root insert strictly before line items
	require.Equal(t, "create", store.tx.ops[0].name)
	require.Equal(t, "insert", store.tx.ops[1].name)

	require.Equal(t, 1, cc.puts)
	require.Len(t, pub.events, 1)
	require.Equal(t, svc.EventPackageCreated, pub.events[0].Type)
}

func TestCreateAggregate_WithAttachment(t *testing.T) {
	store := &storeStub{tx: &txStub{}, getResp: models.Package{ID: 1, TrackingID: "TRK-002"}}
	att := &attachmentsStub{dir: "d"}
	s := newTestService(store, &cacheStub{}, att, &publisherStub{})

	_, err := s.CreateAggregate(context.Background(), svc.CreateInput{
		UserID:     1,
		TrackingID: "TRK-002",
		Items:      validItems(),
		File: &svc.Attachment{
			Name: "invoice.pdf",
			MIME: "application/pdf",
			Size: 1024,
			Data: strings.NewReader("%PDF"),
		},
	})
	require.NoError(t, err)
	require.Equal(t, 1, att.written)

	last := store.tx.ops[len(store.tx.ops)-1]
	require.Equal(t, "attach", last.name)
	require.Equal(t, "/uploads/invoices/u-abc/1-abcd.pdf", last.args)
}

func TestCreateAggregate_InvalidRequest_NoTransaction(t *testing.T) {
	store := &storeStub{tx: &txStub{}}
	s := newTestService(store, &cacheStub{}, &attachmentsStub{dir: "d"}, nil)

	_, err := s.CreateAggregate(context.Background(), svc.CreateInput{
		UserID:     1,
		TrackingID: "TRK-003",
		Items:      nil,
	})
	require.ErrorIs(t, err, svc.ErrInvalidRequest)
	require.Zero(t, store.txCount)
}

func TestCreateAggregate_InvalidLineItem_NoTransaction(t *testing.T) {
	store := &storeStub{tx: &txStub{}}
	s := newTestService(store, &cacheStub{}, &attachmentsStub{dir: "d"}, nil)

	bad := validItems()
	bad[0].Store = ""
	_, err := s.CreateAggregate(context.Background(), svc.CreateInput{
		UserID:     1,
		TrackingID: "TRK-004",
		Items:      bad,
	})
	require.ErrorIs(t, err, svc.ErrInvalidLineItem)
	require.Zero(t, store.txCount)
}

func TestCreateAggregate_AttachmentRejectedBeforeStorage(t *testing.T) {
	store := &storeStub{tx: &txStub{}}
	att := &attachmentsStub{dir: "d"}
	s := newTestService(store, &cacheStub{}, att, nil)

	for name, file := range map[string]*svc.Attachment{
		"wrong mime": {Name: "x.png", MIME: "image/png", Size: 10, Data: strings.NewReader("x")},
		"oversized":  {Name: "x.pdf", MIME: "application/pdf", Size: 3 << 20, Data: strings.NewReader("x")},
	} {
		_, err := s.CreateAggregate(context.Background(), svc.CreateInput{
			UserID:     1,
			TrackingID: "TRK-005",
			Items:      validItems(),
			File:       file,
		})
		require.ErrorIs(t, err, svc.ErrInvalidAttachment, name)
	}
	require.Zero(t, store.txCount)
	require.Zero(t, att.written)
}

func TestCreateAggregate_OwnerNotFound_NoTransaction(t *testing.T) {
	store := &storeStub{tx: &txStub{}}
	att := &attachmentsStub{resolveErr: fmt.Errorf("%w: user 9", storage.ErrOwnerNotFound)}
	s := newTestService(store, &cacheStub{}, att, nil)

	_, err := s.CreateAggregate(context.Background(), svc.CreateInput{
		UserID:     9,
		TrackingID: "TRK-006",
		Items:      validItems(),
	})
	require.ErrorIs(t, err, svc.ErrOwnerNotFound)
	require.Zero(t, store.txCount)
}

func TestCreateAggregate_DuplicateTrackingID(t *testing.T) {
	store := &storeStub{tx: &txStub{
		createErr: &mysqldrv.MySQLError{Number: 1062, Message: "Duplicate entry"},
	}}
	s := newTestService(store, &cacheStub{}, &attachmentsStub{dir: "d"}, nil)

	_, err := s.CreateAggregate(context.Background(), svc.CreateInput{
		UserID:     1,
		TrackingID: "TRK-001",
		Items:      validItems(),
	})
	require.ErrorIs(t, err, svc.ErrDuplicateTrackingID)
	require.False(t, store.committed)
}

func TestCreateAggregate_StorageWriteRollsBack(t *testing.T) {
	store := &storeStub{tx: &txStub{}}
	att := &attachmentsStub{dir: "d", writeErr: fmt.Errorf("%w: disk full", storage.ErrWrite)}
	cc := &cacheStub{}
	s := newTestService(store, cc, att, nil)

	_, err := s.CreateAggregate(context.Background(), svc.CreateInput{
		UserID:     1,
		TrackingID: "TRK-007",
		Items:      validItems(),
		File: &svc.Attachment{
			Name: "x.pdf", MIME: "application/pdf", Size: 10, Data: strings.NewReader("x"),
		},
	})
	require.ErrorIs(t, err, svc.ErrStorageWrite)
	require.Equal(t, 1, store.txCount)
	require.False(t, store.committed)
	require.Zero(t, cc.puts)
}

func TestUpdateAggregate_NotFoundScopedByOwner(t *testing.T) {
	store := &storeStub{tx: &txStub{}, loadErr: gorm.ErrRecordNotFound}
	s := newTestService(store, &cacheStub{}, &attachmentsStub{dir: "d"}, nil)

	err := s.UpdateAggregate(context.Background(), svc.UpdateInput{
		PackageID:  3,
		UserID:     999, // package exists, but not for this owner
		TrackingID: "TRK-001",
		Items:      validItems(),
	})
	require.ErrorIs(t, err, svc.ErrNotFound)
	require.Zero(t, store.txCount)
}

func TestUpdateAggregate_DuplicatePrecheckShortCircuits(t *testing.T) {
	store := &storeStub{
		tx:        &txStub{},
		loadResp:  models.Package{ID: 3, TrackingID: "TRK-OLD", UserID: 1},
		available: false,
	}
	s := newTestService(store, &cacheStub{}, &attachmentsStub{dir: "d"}, nil)

	err := s.UpdateAggregate(context.Background(), svc.UpdateInput{
		PackageID:  3,
		UserID:     1,
		TrackingID: "TRK-TAKEN",
		Items:      validItems(),
	})
	require.ErrorIs(t, err, svc.ErrDuplicateTrackingID)
	require.Zero(t, store.txCount)
}

func TestUpdateAggregate_GrowReconciliation(t *testing.T) {
	stored := validItems()
	stored[0].ID = 21
	store := &storeStub{
		tx:        &txStub{lineItems: stored},
		loadResp:  models.Package{ID: 3, TrackingID: "TRK-001", UserID: 1},
		available: true,
		getResp:   models.Package{ID: 3, TrackingID: "TRK-001"},
	}
	pub := &publisherStub{}
	s := newTestService(store, &cacheStub{}, &attachmentsStub{dir: "d"}, pub)

	two := append(validItems(), models.Product{
		Weight: 1, Unit: "kg", Description: "Pen", Value: 3, Store: "Ebay",
	})
	err := s.UpdateAggregate(context.Background(), svc.UpdateInput{
		PackageID:  3,
		UserID:     1,
		TrackingID: "TRK-001",
		Items:      two,
	})
	require.NoError(t, err)
	require.True(t, store.committed)

	names := opNames(store.tx.ops)
	require.Equal(t, []string{"updateRoot", "updateItem", "insert"}, names)
	require.Equal(t, uint(21), store.tx.ops[1].args)

	require.Len(t, pub.events, 1)
	require.Equal(t, svc.EventPackageUpdated, pub.events[0].Type)
}

func TestUpdateAggregate_EmptyListDeletesItems(t *testing.T) {
	stored := validItems()
	stored[0].ID = 21
	store := &storeStub{
		tx:        &txStub{lineItems: stored},
		loadResp:  models.Package{ID: 3, TrackingID: "TRK-001", UserID: 1},
		available: true,
		getResp:   models.Package{ID: 3, TrackingID: "TRK-001"},
	}
	s := newTestService(store, &cacheStub{}, &attachmentsStub{dir: "d"}, nil)

	err := s.UpdateAggregate(context.Background(), svc.UpdateInput{
		PackageID:  3,
		UserID:     1,
		TrackingID: "TRK-001",
		Items:      nil,
	})
	require.NoError(t, err)

	names := opNames(store.tx.ops)
	require.Equal(t, []string{"updateRoot", "delete"}, names)
	require.Equal(t, []uint{21}, store.tx.ops[1].args)
}

func TestUpdateAggregate_TrackingChangeEvictsStaleCacheKey(t *testing.T) {
	store := &storeStub{
		tx:        &txStub{},
		loadResp:  models.Package{ID: 3, TrackingID: "TRK-OLD", UserID: 1},
		available: true,
		getResp:   models.Package{ID: 3, TrackingID: "TRK-NEW"},
	}
	cc := &cacheStub{}
	s := newTestService(store, cc, &attachmentsStub{dir: "d"}, nil)

	err := s.UpdateAggregate(context.Background(), svc.UpdateInput{
		PackageID:  3,
		UserID:     1,
		TrackingID: "TRK-NEW",
		Items:      validItems(),
	})
	require.NoError(t, err)
	require.Contains(t, cc.deletes, "TRK-OLD")
	require.Contains(t, cc.m, "TRK-NEW")
}

func TestDeletePackage_OwnershipAndCacheEviction(t *testing.T) {
	store := &storeStub{tx: &txStub{}, loadResp: models.Package{ID: 4, TrackingID: "TRK-D", UserID: 1}}
	cc := &cacheStub{}
	s := newTestService(store, cc, &attachmentsStub{dir: "d"}, nil)

	require.NoError(t, s.DeletePackage(4, 1))
	require.Contains(t, cc.deletes, "TRK-D")

	store.loadErr = gorm.ErrRecordNotFound
	require.ErrorIs(t, s.DeletePackage(4, 2), svc.ErrNotFound)
}

func TestGetDbPackage_NotFoundMaps(t *testing.T) {
	store := &storeStub{tx: &txStub{}, getErr: gorm.ErrRecordNotFound}
	s := newTestService(store, &cacheStub{}, &attachmentsStub{dir: "d"}, nil)

	_, err := s.GetDbPackage(77)
	require.ErrorIs(t, err, svc.ErrNotFound)
}

func TestHandleMessage_DecodeErrorIsTyped(t *testing.T) {
	s := newTestService(&storeStub{tx: &txStub{}}, &cacheStub{}, &attachmentsStub{dir: "d"}, nil)
	err := s.HandleMessage(context.Background(), []byte("not json"))
	require.ErrorIs(t, err, svc.ErrDecode)
}

func TestHandleMessage_CreatesFromFeed(t *testing.T) {
	store := &storeStub{tx: &txStub{}, getResp: models.Package{ID: 1, TrackingID: "TRK-F"}}
	s := newTestService(store, &cacheStub{}, &attachmentsStub{dir: "d"}, nil)

	msg := map[string]interface{}{
		"user_id":     1,
		"tracking_id": "TRK-F",
		"products":    validItems(),
	}
	b, _ := json.Marshal(msg)
	require.NoError(t, s.HandleMessage(context.Background(), b))
	require.True(t, store.committed)
}

func TestWarmCache_SkipsInvalidPackages(t *testing.T) {
	good := models.Package{ID: 1, TrackingID: "TRK-G", UserID: 1, Products: validItems()}
	bad := models.Package{ID: 2, TrackingID: ""} // fails validation, stays out of cache
	store := &storeStub{tx: &txStub{}, allResp: []models.Package{bad, good}}
	cc := &cacheStub{}
	s := newTestService(store, cc, &attachmentsStub{dir: "d"}, nil)

	require.NoError(t, s.WarmCache())
	require.Equal(t, 1, cc.puts)
	require.Contains(t, cc.m, "TRK-G")
}

func opNames(ops []txOp) []string {
	out := make([]string, 0, len(ops))
	for _, op := range ops {
		out = append(out, op.name)
	}
	return out
}
