package models

type Invoice struct {
	ID        uint   `json:"id"         gorm:"primary_key"`
	PackageID uint   `json:"package_id" gorm:"unique_index;not null"`
	Path      string `json:"path"       gorm:"column:invoice_path;type:varchar(255)"`
	UserID    uint   `json:"user_id"`
}

func (Invoice) TableName() string { return "package_invoices" }
