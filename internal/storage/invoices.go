package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrOwnerNotFound = errors.New("owner not found")
	ErrWrite         = errors.New("invoice write failed")
)

// OwnerKeyResolver maps an internal user id to the stable external key the
// per-owner upload directory is named after.
type OwnerKeyResolver interface {
	ResolveOwnerKey(userID uint) (string, error)
}

// InvoiceStore owns the per-owner invoice directories under baseDir. It is
// the only component that creates directories on disk.
type InvoiceStore struct {
	baseDir  string
	resolver OwnerKeyResolver
	now      func() time.Time
}

func NewInvoiceStore(baseDir string, resolver OwnerKeyResolver) *InvoiceStore {
	return &InvoiceStore{baseDir: baseDir, resolver: resolver, now: time.Now}
}

// ResolveOwnerDir guarantees a writable directory for the owner. MkdirAll is
// idempotent, concurrent requests for the same owner are safe.
func (s *InvoiceStore) ResolveOwnerDir(userID uint) (string, error) {
	key, err := s.resolver.ResolveOwnerKey(userID)
	if err != nil {
		return "", fmt.Errorf("%w: user %d", ErrOwnerNotFound, userID)
	}
	dir := filepath.Join(s.baseDir, key)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("%w: mkdir %s: %v", ErrWrite, dir, err)
	}
	return dir, nil
}

// Filename combines a millisecond timestamp with a random suffix so that
// concurrent uploads into one owner directory cannot collide without a lock.
func (s *InvoiceStore) Filename(original string) string {
	suffix := strings.Split(uuid.NewString(), "-")[0]
	return fmt.Sprintf("%d-%s%s", s.now().UnixMilli(), suffix, filepath.Ext(original))
}

// Write lands the file under a temp name and renames it into place, so a
// half-written invoice is never visible under its final name. Returns the
// logical path stored in the database and later served statically.
func (s *InvoiceStore) Write(dir, name string, r io.Reader) (string, error) {
	tmp, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("%w: temp: %v", ErrWrite, err)
	}
	tmpName := tmp.Name()

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("%w: copy: %v", ErrWrite, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("%w: close: %v", ErrWrite, err)
	}

	final := filepath.Join(dir, name)
	if err := os.Rename(tmpName, final); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("%w: rename: %v", ErrWrite, err)
	}
	return logicalPath(final), nil
}

func logicalPath(p string) string {
	p = filepath.ToSlash(p)
	p = strings.TrimPrefix(p, "./")
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return p
}
