package credentials

import "errors"

// ErrInvalidAccount is returned when an account specification cannot be parsed.
var ErrInvalidAccount = errors.New("invalid account format")
