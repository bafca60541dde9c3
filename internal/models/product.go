package models

type Product struct {
	ID          uint    `json:"id"          gorm:"primary_key"`
	PackageID   uint    `json:"-"           gorm:"index;not null"`
	Weight      float64 `json:"weight"      validate:"required" gorm:"column:product_weight"`
	Unit        string  `json:"unit"        validate:"required" gorm:"column:product_unit;type:varchar(16)"`
	Description string  `json:"description" validate:"required" gorm:"column:product_description"`
	Value       float64 `json:"value"       validate:"required" gorm:"column:product_value"`
	Store       string  `json:"store"       validate:"required" gorm:"column:product_store"`
}

func (Product) TableName() string { return "package_products" }
