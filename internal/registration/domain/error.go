package domain

import "errors"

var ErrInvalidFullName = errors.New("full name is required")
