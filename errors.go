/*
Copyright 2024 Tim St. Pierre
Errors returned by the lcd16x2 driver
*/
package lcd16x2

import "errors"

var (
	// ErrValidation is returned for arguments outside what the display
	// accepts: too long, empty, bad line numbers.
	ErrValidation = errors.New("invalid argument")
	// ErrEncoding is returned when text holds a non-ASCII character.
	ErrEncoding = errors.New("not ASCII")
	// ErrProtocol is returned when a byte would be sent on lines that are no
	// longer claimed.
	ErrProtocol = errors.New("protocol violation")
	// ErrHardware wraps any error reported by the Backend.
	ErrHardware = errors.New("hardware fault")
)
