/*
Copyright 2024 Tim St. Pierre
Command lcd16x2 writes text to a 16x2 LCD wired to GPIO in 8-bit mode
*/
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/tstpierre-tc/lcd16x2"
)

func parseLines(s string) ([]int, error) {
	var lines []int
	for _, f := range strings.Split(s, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(f))
		if err != nil {
			return nil, fmt.Errorf("bad data line %q: %w", f, err)
		}
		lines = append(lines, n)
	}
	return lines, nil
}

func mainImpl() error {
	rs := flag.Int("rs", 7, "register select gpio")
	e := flag.Int("e", 8, "enable gpio")
	data := flag.String("data", "25,24,23,18,17,27,22,10", "D0-D7 gpios, comma separated")
	appendText := flag.Bool("append", false, "append instead of replacing the text")
	cursor := flag.Bool("cursor", false, "show the cursor")
	blink := flag.Bool("blink", false, "blink the cursor")
	off := flag.Bool("off", false, "turn the display off after writing")
	delay := flag.Duration("delay", lcd16x2.DefaultOpts.EnableDelay, "enable pulse delay")
	verbose := flag.Bool("v", false, "log every byte sent")
	flag.Parse()

	if *verbose {
		log.SetLevel(log.DebugLevel)
	}
	lines, err := parseLines(*data)
	if err != nil {
		return err
	}
	b, err := lcd16x2.NewGPIO()
	if err != nil {
		return err
	}
	dev, err := lcd16x2.New(b, *rs, *e, lines, &lcd16x2.Opts{EnableDelay: *delay})
	if err != nil {
		return err
	}
	defer dev.Halt()

	text := strings.Join(flag.Args(), " ")
	if *appendText {
		err = dev.Append(text)
	} else {
		err = dev.SetText(text)
	}
	if err != nil {
		return err
	}
	if err := dev.SetCursor(*cursor); err != nil {
		return err
	}
	if err := dev.SetBlink(*blink); err != nil {
		return err
	}
	if *off {
		if err := dev.DisplayOff(); err != nil {
			return err
		}
	}
	log.WithField("pos", dev.CursorPosition()).Info("Done")
	return nil
}

func main() {
	if err := mainImpl(); err != nil {
		fmt.Fprintf(os.Stderr, "lcd16x2: %s.\n", err)
		os.Exit(1)
	}
}
