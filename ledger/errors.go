package ledger

import "errors"

var (
	// ErrPillNotFound means the requested pill id is not in the lookup.
	ErrPillNotFound = errors.New("pill not found")

	// ErrInsufficientStock means the requested quantity exceeds what is
	// left after subtracting already staged quantities.
	ErrInsufficientStock = errors.New("insufficient stock")
)
