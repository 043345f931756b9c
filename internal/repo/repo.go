package repo

import (
	"errors"

	"gorm.io/gorm"
)

// Sentinel errors surfaced by the repository; handlers translate them
// into HTTP statuses without leaking row-level detail.
var (
	ErrInsufficientParticipants = errors.New("not enough eligible participants")
	ErrConcurrentModification   = errors.New("participants were modified concurrently")
	ErrNotFound                 = errors.New("record not found")
	ErrNotAWinnerYet            = errors.New("participant has not won yet")
	ErrPackageConflict          = errors.New("package already assigned on that date")
	ErrUserNotFound             = errors.New("user not found")
)

type GormRepo struct {
	DB *gorm.DB
}
