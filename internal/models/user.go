package models

type User struct {
	ID        uint   `json:"id"         gorm:"primary_key"`
	UniqueID  string `json:"unique_id"  gorm:"column:user_unique_id;type:varchar(64);unique_index"`
	FirstName string `json:"firstname"  gorm:"column:user_firstname"`
	LastName  string `json:"lastname"   gorm:"column:user_lastname"`
	Email     string `json:"email"      gorm:"column:user_email"`
}

func (User) TableName() string { return "users" }
