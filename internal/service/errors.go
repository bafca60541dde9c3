package service

import "errors"

var (
	ErrInvalidRequest      = errors.New("invalid request")
	ErrInvalidLineItem     = errors.New("invalid line item")
	ErrInvalidAttachment   = errors.New("invalid attachment")
	ErrOwnerNotFound       = errors.New("owner not found")
	ErrDuplicateTrackingID = errors.New("duplicate tracking id")
	ErrNotFound            = errors.New("not found")
	ErrStorageWrite        = errors.New("storage write failed")
	ErrTransientStorage    = errors.New("transient storage error")

	ErrDecode = errors.New("decode")
)
