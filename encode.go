/*
Copyright 2024 Tim St. Pierre
ASCII to controller byte encoding
*/
package lcd16x2

import (
	"fmt"
	"unicode/utf8"
)

// Encode returns the controller byte for every character of text. The
// HD44780 character ROM matches ASCII below 0x80; anything else is rejected
// and nothing is returned.
func Encode(text string) ([]byte, error) {
	buf := make([]byte, 0, utf8.RuneCountInString(text))
	for i, r := range text {
		if r >= utf8.RuneSelf {
			return nil, fmt.Errorf("lcd16x2: %w: %q at byte %d", ErrEncoding, r, i)
		}
		buf = append(buf, byte(r))
	}
	return buf, nil
}
