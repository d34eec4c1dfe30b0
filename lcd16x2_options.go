/*
Copyright 2024 Tim St. Pierre
Options for lcd16x2 character display
*/
package lcd16x2

import (
	"fmt"
	"time"
)

// HD44780 enable pulse width, PW_EH.
const minEnableDelay = 450 * time.Nanosecond

type Opts struct {
	// How long E is held high before, between and after the data line
	// writes of a single byte.
	EnableDelay time.Duration
}

var DefaultOpts = Opts{
	EnableDelay: 100 * time.Microsecond,
}

func (o *Opts) enableDelay() (time.Duration, error) {
	switch {
	case o.EnableDelay == 0:
		// Default delay.
		return DefaultOpts.EnableDelay, nil
	case o.EnableDelay < minEnableDelay:
		return 0, fmt.Errorf("lcd16x2: %w: enable delay %s below controller minimum %s", ErrValidation, o.EnableDelay, minEnableDelay)
	default:
		return o.EnableDelay, nil
	}
}
