package cache

import (
	"fmt"
	"net/http"

	"parcelhub/internal/models"
)

type PackageCacheRepo struct {
	cch KV
}

func NewPackageCache(cch KV) *PackageCacheRepo {
	return &PackageCacheRepo{cch: cch}
}

func (c *PackageCacheRepo) PutPackage(trackingID string, pkg models.Package) {
	c.cch.Put(trackingID, pkg)
}

func (c *PackageCacheRepo) GetPackage(trackingID string) (models.Package, error) {
	pkg, ok := c.cch.Get(trackingID)
	if !ok {
		return models.Package{},
			NewErrorHandler(fmt.Errorf("package %s not found", trackingID), http.StatusNotFound)
	}
	return pkg, nil
}

func (c *PackageCacheRepo) GetAllPackages() ([]models.Package, error) {
	snap := c.cch.Snapshot()
	if len(snap) == 0 {
		return []models.Package{}, nil
	}

	out := make([]models.Package, 0, len(snap))
	for _, pkg := range snap {
		out = append(out, pkg)
	}
	return out, nil
}

func (c *PackageCacheRepo) DeletePackage(trackingID string) {
	c.cch.Delete(trackingID)
}
