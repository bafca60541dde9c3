package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"parcelhub/internal/models"
	"parcelhub/internal/repository/cache"
	"parcelhub/internal/service"
)

type createPackageResponse struct {
	Message   string `json:"message"`
	PackageID uint   `json:"packageId"`
}

type getAllPackagesResponse struct {
	Data []models.Package `json:"data"`
}

// CreatePackage
// @Summary CreatePackage
// @Description Creates a package with its products and an optional PDF invoice in one transaction
// @ID create-package
// @Accept mpfd
// @Produce json
// @Param X-User-Id header string true "owner user id"
// @Param trackingId formData string true "tracking id, unique"
// @Param products formData string true "JSON array of products"
// @Param invoice formData file false "PDF invoice, max 2MiB"
// @Success 200 {object} createPackageResponse
// @Failure 400,404,409 {object} errorResponse
// @Failure 500,503 {object} errorResponse
// @Router /api/packages/create [post]
func (h *Handler) CreatePackage(c *gin.Context) {
	userID, ok := h.ownerID(c)
	if !ok {
		return
	}

	items, ok := h.productsForm(c)
	if !ok {
		return
	}

	att, cleanup, ok := h.attachmentForm(c)
	if !ok {
		return
	}
	defer cleanup()

	id, err := h.svc.CreateAggregate(c.Request.Context(), service.CreateInput{
		UserID:     userID,
		TrackingID: strings.TrimSpace(c.PostForm("trackingId")),
		Items:      items,
		File:       att,
	})
	if err != nil {
		newErrorResponse(c, statusForError(err), err.Error())
		return
	}

	c.JSON(http.StatusOK, createPackageResponse{Message: "package created", PackageID: id})
}

// UpdatePackage
// @Summary UpdatePackage
// @Description Reconciles a package's products with the incoming list and optionally replaces the invoice
// @ID update-package
// @Accept mpfd
// @Produce json
// @Param id path int true "package id"
// @Param X-User-Id header string true "owner user id"
// @Param trackingId formData string true "tracking id, unique"
// @Param products formData string true "JSON array of products"
// @Param invoice formData file false "PDF invoice, max 2MiB"
// @Success 200 {object} createPackageResponse
// @Failure 400,404,409 {object} errorResponse
// @Failure 500,503 {object} errorResponse
// @Router /api/packages/update/{id} [put]
func (h *Handler) UpdatePackage(c *gin.Context) {
	id, ok := h.packageID(c)
	if !ok {
		return
	}
	userID, ok := h.ownerID(c)
	if !ok {
		return
	}

	items, ok := h.productsForm(c)
	if !ok {
		return
	}

	att, cleanup, ok := h.attachmentForm(c)
	if !ok {
		return
	}
	defer cleanup()

	err := h.svc.UpdateAggregate(c.Request.Context(), service.UpdateInput{
		PackageID:  id,
		UserID:     userID,
		TrackingID: strings.TrimSpace(c.PostForm("trackingId")),
		Items:      items,
		File:       att,
	})
	if err != nil {
		newErrorResponse(c, statusForError(err), err.Error())
		return
	}

	c.JSON(http.StatusOK, createPackageResponse{Message: "package updated", PackageID: id})
}

// DeletePackage
// @Summary DeletePackage
// @Description Deletes a package owned by the calling user
// @ID delete-package
// @Produce json
// @Param id path int true "package id"
// @Param X-User-Id header string true "owner user id"
// @Success 200 {object} createPackageResponse
// @Failure 400,404 {object} errorResponse
// @Failure 500 {object} errorResponse
// @Router /api/packages/delete/{id} [delete]
func (h *Handler) DeletePackage(c *gin.Context) {
	id, ok := h.packageID(c)
	if !ok {
		return
	}
	userID, ok := h.ownerID(c)
	if !ok {
		return
	}

	if err := h.svc.DeletePackage(id, userID); err != nil {
		newErrorResponse(c, statusForError(err), err.Error())
		return
	}
	c.JSON(http.StatusOK, createPackageResponse{Message: "package deleted", PackageID: id})
}

// GetAllPackages
// @Summary GetAllPackages
// @Description Lists every package with its products and invoice reference
// @ID get-all-packages
// @Produce json
// @Success 200 {object} getAllPackagesResponse
// @Failure 500 {object} errorResponse
// @Router /api/packages/all [get]
func (h *Handler) GetAllPackages(c *gin.Context) {
	pkgs, err := h.svc.GetAllDbPackages()
	if err != nil {
		newErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusOK, getAllPackagesResponse{Data: pkgs})
}

// GetUserPackages
// @Summary GetUserPackages
// @Description Lists the packages belonging to one user
// @ID get-user-packages
// @Produce json
// @Param user path int true "user id"
// @Success 200 {object} getAllPackagesResponse
// @Failure 400,500 {object} errorResponse
// @Router /api/packages/user/{user} [get]
func (h *Handler) GetUserPackages(c *gin.Context) {
	user, err := strconv.ParseUint(c.Param("user"), 10, 32)
	if err != nil || user == 0 {
		newErrorResponse(c, http.StatusBadRequest, "invalid user id")
		return
	}

	pkgs, err := h.svc.GetUserPackages(uint(user))
	if err != nil {
		newErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusOK, getAllPackagesResponse{Data: pkgs})
}

// GetPackageByTrackingID
// @Summary GetPackageByTrackingID
// @Description Reads one package from the app's cache via its tracking id
// @ID get-package-by-tracking-id
// @Produce json
// @Param tid path string true "tracking id"
// @Success 200 {object} models.Package
// @Failure 400,404 {object} errorResponse
// @Failure 500 {object} errorResponse
// @Router /api/packages/track/{tid} [get]
func (h *Handler) GetPackageByTrackingID(c *gin.Context) {
	tid := strings.TrimSpace(c.Param("tid"))
	if tid == "" {
		newErrorResponse(c, http.StatusBadRequest, "missing tracking id")
		return
	}

	pkg, err := h.svc.GetCachedPackage(tid)
	if err != nil {
		if val, ok := err.(cache.ErrorHandler); ok {
			newErrorResponse(c, val.StatusCode, err.Error())
			return
		}
		newErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusOK, pkg)
}

// GetPackageByID
// @Summary GetPackageByID
// @Description Reads one package from the database via its id
// @ID get-package-by-id
// @Produce json
// @Param id path int true "package id"
// @Success 200 {object} models.Package
// @Failure 400,404 {object} errorResponse
// @Failure 500 {object} errorResponse
// @Router /api/packages/{id} [get]
func (h *Handler) GetPackageByID(c *gin.Context) {
	id, ok := h.packageID(c)
	if !ok {
		return
	}

	pkg, err := h.svc.GetDbPackage(id)
	if err != nil {
		newErrorResponse(c, statusForError(err), err.Error())
		return
	}
	c.JSON(http.StatusOK, pkg)
}

func (h *Handler) packageID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		newErrorResponse(c, http.StatusBadRequest, "invalid package id")
		return 0, false
	}
	return uint(id), true
}

// ownerID is trusted: authentication happens upstream, the boundary only
// carries the resolved user id through.
func (h *Handler) ownerID(c *gin.Context) (uint, bool) {
	raw := c.GetHeader("X-User-Id")
	if raw == "" {
		raw = c.Query("user_id")
	}
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		newErrorResponse(c, http.StatusBadRequest, "missing user id")
		return 0, false
	}
	return uint(id), true
}

func (h *Handler) productsForm(c *gin.Context) ([]models.Product, bool) {
	raw := c.PostForm("products")
	if raw == "" {
		newErrorResponse(c, http.StatusBadRequest, "missing products")
		return nil, false
	}
	var items []models.Product
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		newErrorResponse(c, http.StatusBadRequest, "invalid products JSON")
		return nil, false
	}
	return items, true
}

func (h *Handler) attachmentForm(c *gin.Context) (*service.Attachment, func(), bool) {
	noop := func() {}

	fh, err := c.FormFile("invoice")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, noop, true
	}
	if err != nil {
		newErrorResponse(c, http.StatusBadRequest, "invalid invoice upload")
		return nil, noop, false
	}

	f, err := fh.Open()
	if err != nil {
		newErrorResponse(c, http.StatusBadRequest, "invalid invoice upload")
		return nil, noop, false
	}

	att := &service.Attachment{
		Name: fh.Filename,
		MIME: fh.Header.Get("Content-Type"),
		Size: fh.Size,
		Data: f,
	}
	return att, func() { _ = f.Close() }, true
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidRequest),
		errors.Is(err, service.ErrInvalidLineItem),
		errors.Is(err, service.ErrInvalidAttachment):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrNotFound),
		errors.Is(err, service.ErrOwnerNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrDuplicateTrackingID):
		return http.StatusConflict
	case errors.Is(err, service.ErrTransientStorage):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
