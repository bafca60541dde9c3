package models

import (
	"time"
)

const (
	StatusPending = "Pending"
	StatusShipped = "Shipped"
	StatusArrived = "Arrived"
)

type Package struct {
	ID         uint      `json:"id"          gorm:"primary_key"`
	TrackingID string    `json:"tracking_id" validate:"required" gorm:"column:package_tracking_id;type:varchar(64);unique_index"`
	Status     string    `json:"status"      gorm:"column:package_status;type:varchar(16)"`
	UserID     uint      `json:"user_id"     validate:"required" gorm:"index"`
	CreatedAt  time.Time `json:"created_at"`
	Products   []Product `json:"products"    validate:"required,min=1,dive" gorm:"foreignkey:PackageID"`
	Invoice    *Invoice  `json:"invoice,omitempty" gorm:"foreignkey:PackageID"`
}

func (Package) TableName() string { return "packages" }
