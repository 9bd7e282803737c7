package repo

import (
	"errors"

	"gorm.io/gorm"
)

// GormRepo is the injected persistence handle shared by all services.
type GormRepo struct {
	DB *gorm.DB
}

var (
	// ErrTableUnavailable means the occupancy guard lost: the table was not
	// FREE or RESERVED at write time.
	ErrTableUnavailable = errors.New("table unavailable")
	// ErrNotPayable means the order is not in a payable status.
	ErrNotPayable = errors.New("order not payable")
	// ErrRaced means a version-guarded update affected no rows because a
	// concurrent writer got there first.
	ErrRaced = errors.New("concurrent update raced")
)

// IsNotFound reports whether err is gorm's empty-result error.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
