package repos

import "errors"

var (
	ErrNoRecord       = errors.New("no matching record found")
	ErrExists         = errors.New("record already exists")
	ErrDuplicateEmail = errors.New("duplicate email")
)
