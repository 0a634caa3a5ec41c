package models

import (
	"time"
)

// UserRole represents the role of a registered user
type UserRole string

const (
	UserRoleMember UserRole = "member"
	UserRoleAdmin  UserRole = "admin"
)

// User represents a storefront account
type User struct {
	ID             string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	Name           string    `gorm:"type:varchar(255)" json:"name"`
	Username       string    `gorm:"type:varchar(255);uniqueIndex" json:"username"`
	Email          string    `gorm:"type:varchar(255);index" json:"email"`
	Password       string    `gorm:"type:varchar(255)" json:"password"`
	Role           UserRole  `gorm:"type:varchar(20);default:'member'" json:"role"`
	CreatedAt      time.Time `json:"createdAt"`
	LastLogin      time.Time `json:"lastLogin"`
	OrderCount     int       `json:"orderCount"`
	TotalSpent     int64     `json:"totalSpent"`
	CouponsClaimed int       `json:"couponsClaimed"`
}

// PublicUser is a User without its password hash
type PublicUser struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	Role           UserRole  `json:"role"`
	CreatedAt      time.Time `json:"createdAt"`
	LastLogin      time.Time `json:"lastLogin"`
	OrderCount     int       `json:"orderCount"`
	TotalSpent     int64     `json:"totalSpent"`
	CouponsClaimed int       `json:"couponsClaimed"`
}

// Public strips the password hash
func (u User) Public() PublicUser {
	return PublicUser{
		ID:             u.ID,
		Name:           u.Name,
		Username:       u.Username,
		Email:          u.Email,
		Role:           u.Role,
		CreatedAt:      u.CreatedAt,
		LastLogin:      u.LastLogin,
		OrderCount:     u.OrderCount,
		TotalSpent:     u.TotalSpent,
		CouponsClaimed: u.CouponsClaimed,
	}
}
