package service

import "errors"

var ErrNotFound = errors.New("not found")
var ErrUnknownActivity = errors.New("unknown activity")
var ErrInvalidAmount = errors.New("amount must be positive")
var ErrInvalidStreakType = errors.New("invalid streak type")
