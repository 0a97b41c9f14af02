package config

import "github.com/m-mizutani/goerr/v2"

// Sentinel errors for configuration validation
var (
	ErrConfigNotFound   = goerr.New("configuration file not found")
	ErrInvalidConfig    = goerr.New("invalid configuration")
	ErrDuplicateRoom    = goerr.New("duplicate room email")
	ErrMissingRoomEmail = goerr.New("room email is required")
)
