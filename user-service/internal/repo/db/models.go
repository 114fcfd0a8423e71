package db

import "time"

type UserModel struct {
	ID           int64  `gorm:"primaryKey;autoIncrement"`
	Name         string `gorm:"not null"`
	Username     string `gorm:"uniqueIndex;not null"`
	Email        string `gorm:"uniqueIndex;not null"`
	PasswordHash string `gorm:"not null"`
	Role         string `gorm:"not null"`
	Profile      string `gorm:"not null"`
	CreatedAt    time.Time

	AccountNonExpired     bool `gorm:"not null;default:true"`
	AccountNonLocked      bool `gorm:"not null;default:true"`
	CredentialsNonExpired bool `gorm:"not null;default:true"`
	Enabled               bool `gorm:"not null;default:true"`
}

func (UserModel) TableName() string {
	return "users"
}
