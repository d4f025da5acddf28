package models

type Product struct {
	ID          uint     `gorm:"primaryKey;autoIncrement"  json:"id"`
	Name        string   `gorm:"type:varchar(50);not null" json:"name"`
	Description *string  `gorm:"type:varchar(100)"         json:"description"`
	Price       *float64 `                                 json:"price"`
	Stock       *int     `                                 json:"stock"`
}

type User struct {
	ID       uint    `gorm:"primaryKey;autoIncrement"     json:"id"`
	Name     *string `gorm:"type:varchar(100)"            json:"name"`
	Email    string  `gorm:"unique;not null"              json:"email"`
	Password string  `gorm:"type:varchar(100);not null"   json:"-"`
	IsAdmin  bool    `gorm:"not null;default:false"       json:"is_admin"`
}
