package shared

import "errors"

var (
	ErrNoLogger         = errors.New("no logger provided")
	ErrNoConfig         = errors.New("no config provided")
	ErrNoAPIKey         = errors.New("no API key provided")
	ErrNoModel          = errors.New("no model provided")
	ErrNoEndpoint       = errors.New("no endpoint provided")
	ErrNotConnected     = errors.New("session not connected")
	ErrConnectionFailed = errors.New("connection failed")
	ErrNoSession        = errors.New("no session provided")
	ErrNoPrinter        = errors.New("no printer provided")
	ErrNoProcedure      = errors.New("no procedure provided")
)
