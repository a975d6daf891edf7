package repo

import (
	"errors"

	"gorm.io/gorm"
)

var (
	ErrDuplicateUsername = errors.New("username already exists")
	ErrDuplicateEmail    = errors.New("email already exists")
	ErrNotFound          = errors.New("record not found")
	ErrConflict          = errors.New("record already exists")
)

type GormRepo struct {
	DB *gorm.DB
}
