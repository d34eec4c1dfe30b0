/*
Copyright 2024 Tim St. Pierre
GPIO backends for the lcd16x2 driver
*/
package lcd16x2

import (
	"fmt"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// Backend drives the digital lines the display is wired to. Lines are
// identified by number.
type Backend interface {
	// Output claims line as an output and drives it low.
	Output(line int) error
	// Out sets a claimed line.
	Out(line int, level bool) error
	// Sleep blocks for d.
	Sleep(d time.Duration)
	// Release gives back every claimed line. It must be safe to call
	// repeatedly and when nothing was claimed.
	Release() error
}

// GPIO is a Backend on top of the periph.io pin registry. Line numbers are
// looked up by name, so on a Raspberry Pi they are BCM numbers.
type GPIO struct {
	byName  func(name string) gpio.PinIO
	claimed map[int]gpio.PinIO
	order   []int
}

var _ Backend = &GPIO{}

// NewGPIO initializes the periph.io host drivers and returns a backend using
// the global pin registry.
func NewGPIO() (*GPIO, error) {
	state, err := host.Init()
	if err != nil {
		return nil, fmt.Errorf("lcd16x2: host init: %w: %w", ErrHardware, err)
	}
	log.Debugf("Loaded %d periph drivers", len(state.Loaded))
	return newGPIO(gpioreg.ByName), nil
}

func newGPIO(byName func(string) gpio.PinIO) *GPIO {
	return &GPIO{byName: byName, claimed: map[int]gpio.PinIO{}}
}

func (g *GPIO) Output(line int) error {
	p := g.byName(strconv.Itoa(line))
	if p == nil {
		return fmt.Errorf("lcd16x2: %w: no gpio %d", ErrValidation, line)
	}
	if _, ok := g.claimed[line]; !ok {
		g.order = append(g.order, line)
	}
	g.claimed[line] = p
	return p.Out(gpio.Low)
}

func (g *GPIO) Out(line int, level bool) error {
	p, ok := g.claimed[line]
	if !ok {
		return fmt.Errorf("lcd16x2: %w: gpio %d not claimed", ErrProtocol, line)
	}
	return p.Out(gpio.Level(level))
}

func (g *GPIO) Sleep(d time.Duration) {
	time.Sleep(d)
}

// Release switches every claimed pin back to a floating input.
func (g *GPIO) Release() error {
	var first error
	for _, line := range g.order {
		p := g.claimed[line]
		if err := p.In(gpio.PullNoChange, gpio.NoEdge); err != nil {
			log.WithError(err).Warnf("Releasing gpio %d", line)
			if first == nil {
				first = err
			}
		}
	}
	g.claimed = map[int]gpio.PinIO{}
	g.order = nil
	return first
}
