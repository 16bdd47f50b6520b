package model

import "strings"

type Role string

const (
	RoleAdmin    Role = "Admin"
	RoleCustomer Role = "Customer"
)

type User struct {
	ID           int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string `gorm:"type:varchar(100);not null;uniqueIndex" json:"username"`
	Email        string `gorm:"type:varchar(255);not null;uniqueIndex" json:"email"`
	PasswordHash string `gorm:"column:password_hash;not null" json:"-"`
	FirstName    string `gorm:"type:varchar(100)" json:"first_name"`
	LastName     string `gorm:"type:varchar(100)" json:"last_name"`
	Role         Role   `gorm:"type:varchar(20);not null;default:'Customer'" json:"role"`
	Timestamps
}

// 表示名（姓名が空ならusername）
func (u User) DisplayName() string {
	full := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if full == "" {
		return u.Username
	}
	return full
}
