package models

import (
	"time"
)

type User struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	FirstName    string    `gorm:"size:32;not null"         json:"first_name"`
	LastName     string    `gorm:"size:32"                  json:"last_name,omitempty"`
	Username     string    `gorm:"unique;not null"          json:"username"`
	Email        string    `gorm:"unique;not null"          json:"email"`
	PasswordHash string    `gorm:"not null"                 json:"-"`
	CreatedAt    time.Time `json:"created_at"`

	Tokens []RefreshToken `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

type RefreshToken struct {
	ID        uint      `gorm:"primaryKey"      json:"id"`
	Token     string    `gorm:"unique;not null" json:"token"`
	UserID    uint      `gorm:"index;not null"  json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

type PhoneFeatures struct {
	ID         uint    `gorm:"primaryKey;autoIncrement" json:"id"`
	Rating     float64 `gorm:"not null"                 json:"rating"`
	NumRatings int     `gorm:"not null"                 json:"num_ratings"`
	RAM        int     `gorm:"not null"                 json:"ram"`
	ROM        int     `gorm:"not null"                 json:"rom"`
	Battery    int     `gorm:"not null"                 json:"battery"`
	FrontCam   int     `gorm:"not null"                 json:"front_cam"`
}
