package repositories

import "github.com/pkg/errors"

var (
	// ErrNotFound is returned when a lookup by id resolves to no row
	ErrNotFound = errors.New("record not found")
	// ErrAlreadyClaimed is returned when the found item already carries an approved claim
	ErrAlreadyClaimed = errors.New("found item already claimed")
	// ErrNotFoundOrNotOwned is returned when an update predicate on id and owner matches no row
	ErrNotFoundOrNotOwned = errors.New("record not found or not owned by user")
)
