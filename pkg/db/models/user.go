package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/vikramshaw/shopora-backend/pkg/enums"
)

// User is a storefront account.
type User struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Name      string    `gorm:"column:name;not null"`
	Email     string    `gorm:"column:email;not null;uniqueIndex"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// Address is a saved delivery address for a user.
type Address struct {
	ID          uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	UserID      uuid.UUID         `gorm:"column:user_id;type:uuid;not null;index"`
	FullName    string            `gorm:"column:full_name;not null"`
	Mobile      string            `gorm:"column:mobile;not null"`
	Line        string            `gorm:"column:line;not null"`
	City        string            `gorm:"column:city;not null"`
	Pincode     string            `gorm:"column:pincode;not null"`
	AddressType enums.AddressType `gorm:"column:address_type;type:text;not null;default:'home'"`
	CreatedAt   time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
