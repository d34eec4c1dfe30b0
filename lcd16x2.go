/*
Copyright 2024 Tim St. Pierre
Controls a 16x2 character LCD (HD44780) wired to GPIO lines in 8-bit mode
*/
package lcd16x2

import (
	"fmt"
	"unicode/utf8"

	log "github.com/sirupsen/logrus"
	"periph.io/x/conn/v3"
)

const (
	// Commands
	CMD_Clear_Display   = 0x01
	CMD_Return_Home     = 0x02
	CMD_Entry_Mode      = 0x04
	CMD_Display_Control = 0x08
	CMD_Function_Set    = 0x20

	// Options
	OPT_Increment      = 0x02 // CMD_Entry_Mode
	OPT_Enable_Display = 0x04 // CMD_Display_Control
	OPT_Enable_Cursor  = 0x02 // CMD_Display_Control
	OPT_Enable_Blink   = 0x01 // CMD_Display_Control
	OPT_8_Bit          = 0x10 // CMD_Function_Set 0 = 4 bit
	OPT_2_Lines        = 0x08 // CMD_Function_Set 0 = 1 line

	// Geometry. Each row is 40 cells in DDRAM, only the first 16 are shown.
	Cols        = 16
	Rows        = 2
	rowCells    = 40
	hiddenCells = rowCells - Cols
	maxText     = Cols * Rows
	// Last address reachable from 0 through row 0, the hidden cells and row 1.
	appendLimit = Cols + hiddenCells + Cols
)

// Dev is a 16x2 display driven over 11 GPIO lines: register select,
// enable and D0-D7.
//
// Dev is not safe for concurrent use.
type Dev struct {
	b             Backend
	rs            int
	e             int
	data          [8]int
	displayEnable bool
	cursor        bool
	blink         bool
	pos           int
	halted        bool
	opts          Opts
}

var _ conn.Resource = &Dev{}

func (d *Dev) String() string {
	return fmt.Sprintf("lcd16x2{rs=%d e=%d d=%v}", d.rs, d.e, d.data)
}

// New claims the lines on b as outputs, drives them low and initializes the
// controller. data lists the lines wired to D0 through D7.
//
// Use default options if nil is used. On error every line claimed so far is
// released again.
func New(b Backend, rs, e int, data []int, opts *Opts) (*Dev, error) {
	if opts == nil {
		opts = &DefaultOpts
	}
	delay, err := opts.enableDelay()
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, fmt.Errorf("lcd16x2: %w: nil backend", ErrValidation)
	}
	if len(data) != 8 {
		return nil, fmt.Errorf("lcd16x2: %w: need 8 data lines, got %d", ErrValidation, len(data))
	}
	d := &Dev{
		b:             b,
		rs:            rs,
		e:             e,
		displayEnable: true,
		opts:          *opts,
	}
	d.opts.EnableDelay = delay
	copy(d.data[:], data)
	if err := d.checkLines(); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{"rs": rs, "e": e, "data": d.data}).Info("Claiming lcd lines")
	for _, l := range d.lines() {
		if err := b.Output(l); err != nil {
			d.Halt()
			return nil, fmt.Errorf("lcd16x2: line %d: %w: %w", l, ErrHardware, err)
		}
	}
	if err := d.Clear(); err != nil {
		d.Halt()
		return nil, err
	}
	return d, nil
}

// Halt releases every line claimed by the device. It is safe to call more
// than once and never fails; release errors are only logged.
func (d *Dev) Halt() error {
	if d.halted {
		return nil
	}
	d.halted = true
	log.WithField("dev", d.String()).Info("Releasing lcd lines")
	if err := d.b.Release(); err != nil {
		log.WithError(err).Warn("Releasing lcd lines failed")
	}
	return nil
}

// Close implements io.Closer.
func (d *Dev) Close() error {
	return d.Halt()
}

// CursorPosition returns the controller's DDRAM write address as tracked by
// the driver. Row 1 starts at 40.
func (d *Dev) CursorPosition() int {
	return d.pos
}

// Clear blanks the display and re-sends the full configuration. The
// controller's clear instruction also drops its function set and entry
// mode, so this is the only place driver and controller state are synced.
func (d *Dev) Clear() error {
	d.pos = 0
	for _, f := range []func() error{
		func() error { return d.command(CMD_Clear_Display) },
		func() error { return d.command(CMD_Function_Set | OPT_8_Bit | OPT_2_Lines) },
		d.writeDisplaySwitch,
		func() error { return d.command(CMD_Entry_Mode | OPT_Increment) },
		func() error { return d.command(CMD_Return_Home) },
	} {
		if err := f(); err != nil {
			return err
		}
	}
	return nil
}

// SetText clears the display and shows text, at most 32 characters. The
// first 16 go to row 0, the rest to row 1.
//
// A text of exactly 16 characters also fills the hidden part of row 0 so
// that a following Append continues on row 1. Shorter texts leave the
// cursor on row 0.
func (d *Dev) SetText(text string) error {
	if n := utf8.RuneCountInString(text); n > maxText {
		return fmt.Errorf("lcd16x2: %w: text has %d characters, max %d", ErrValidation, n, maxText)
	}
	buf, err := Encode(text)
	if err != nil {
		return err
	}
	if err := d.Clear(); err != nil {
		return err
	}
	if len(buf) <= Cols {
		if err := d.writeChars(buf); err != nil {
			return err
		}
		// Only a full row 0 pre-fills the hidden cells.
		if len(buf) == Cols {
			return d.skipHidden()
		}
		return nil
	}
	if err := d.writeChars(buf[:Cols]); err != nil {
		return err
	}
	if err := d.skipHidden(); err != nil {
		return err
	}
	return d.writeChars(buf[Cols:])
}

// Append writes text after the current content. Crossing the end of row 0
// skips over the hidden cells to row 1.
func (d *Dev) Append(text string) error {
	if text == "" {
		return fmt.Errorf("lcd16x2: %w: empty text", ErrValidation)
	}
	buf, err := Encode(text)
	if err != nil {
		return err
	}
	if !d.fits(len(buf)) {
		return fmt.Errorf("lcd16x2: %w: %d characters do not fit at position %d", ErrValidation, len(buf), d.pos)
	}
	for _, c := range buf {
		if d.pos == Cols {
			if err := d.skipHidden(); err != nil {
				return err
			}
		}
		if d.pos != Cols {
			if err := d.writeChar(c); err != nil {
				return err
			}
		}
	}
	return nil
}

// Write implements io.Writer on top of Append.
func (d *Dev) Write(buf []byte) (int, error) {
	if err := d.Append(string(buf)); err != nil {
		return 0, err
	}
	return len(buf), nil
}

func (d *Dev) WriteString(s string) (int, error) {
	return d.Write([]byte(s))
}

// fits reports whether n characters can be appended at the current position.
// Row 1 is only reachable from row 0 (via the skip) or from position 39 on.
func (d *Dev) fits(n int) bool {
	switch {
	case d.pos <= Cols:
		return d.pos+hiddenCells+n <= appendLimit
	case d.pos >= rowCells-1:
		return d.pos+n <= appendLimit
	default:
		return false
	}
}

func (d *Dev) SetDisplay(value bool) error {
	d.displayEnable = value
	return d.writeDisplaySwitch()
}

func (d *Dev) SetCursor(value bool) error {
	d.cursor = value
	return d.writeDisplaySwitch()
}

func (d *Dev) SetBlink(value bool) error {
	d.blink = value
	return d.writeDisplaySwitch()
}

func (d *Dev) DisplayOn() error  { return d.SetDisplay(true) }
func (d *Dev) DisplayOff() error { return d.SetDisplay(false) }
func (d *Dev) CursorOn() error   { return d.SetCursor(true) }
func (d *Dev) CursorOff() error  { return d.SetCursor(false) }
func (d *Dev) BlinkOn() error    { return d.SetBlink(true) }
func (d *Dev) BlinkOff() error   { return d.SetBlink(false) }

func (d *Dev) displaySwitch() byte {
	option := byte(CMD_Display_Control)
	if d.displayEnable {
		option = option | OPT_Enable_Display
	}
	if d.cursor {
		option = option | OPT_Enable_Cursor
	}
	if d.blink {
		option = option | OPT_Enable_Blink
	}
	return option
}

func (d *Dev) writeDisplaySwitch() error {
	return d.command(d.displaySwitch())
}

func (d *Dev) skipHidden() error {
	for i := 0; i < hiddenCells; i++ {
		if err := d.writeChar(0x00); err != nil {
			return err
		}
	}
	return nil
}

func (d *Dev) writeChars(buf []byte) error {
	for _, c := range buf {
		if err := d.writeChar(c); err != nil {
			return err
		}
	}
	return nil
}

func (d *Dev) writeChar(c byte) error {
	if err := d.write(c, true); err != nil {
		return err
	}
	d.pos++
	return nil
}

func (d *Dev) command(data byte) error {
	return d.write(data, false)
}

// write latches one byte. The controller samples D0-D7 on the falling edge
// of E, so every data line is set while E is high.
func (d *Dev) write(data byte, char bool) error {
	if d.halted {
		return fmt.Errorf("lcd16x2: %w: write on halted device", ErrProtocol)
	}
	log.Debugf("Writing %08b rs=%t", data, char)
	delay := d.opts.EnableDelay
	if err := d.out(d.rs, char); err != nil {
		return err
	}
	if err := d.out(d.e, true); err != nil {
		return err
	}
	d.b.Sleep(delay)
	for n := 0; n < 8; n++ {
		if err := d.out(d.data[7-n], data&(0x80>>n) != 0); err != nil {
			return err
		}
		d.b.Sleep(delay)
	}
	if err := d.out(d.e, false); err != nil {
		return err
	}
	d.b.Sleep(delay)
	return nil
}

func (d *Dev) out(line int, level bool) error {
	if err := d.b.Out(line, level); err != nil {
		return fmt.Errorf("lcd16x2: line %d: %w: %w", line, ErrHardware, err)
	}
	return nil
}

func (d *Dev) lines() []int {
	return append([]int{d.rs, d.e}, d.data[:]...)
}

func (d *Dev) checkLines() error {
	seen := map[int]bool{}
	for _, l := range d.lines() {
		if l < 0 {
			return fmt.Errorf("lcd16x2: %w: invalid line %d", ErrValidation, l)
		}
		if seen[l] {
			return fmt.Errorf("lcd16x2: %w: line %d used twice", ErrValidation, l)
		}
		seen[l] = true
	}
	return nil
}
