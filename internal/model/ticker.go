package model

import (
	"errors"
	"strings"
)

// ErrEmptyTicker is returned when a ticker is blank after trimming.
var ErrEmptyTicker = errors.New("please enter a stock ticker")

// NormalizeTicker trims and uppercases a user-supplied symbol.
// Every fetch, cache write and comparison goes through it.
func NormalizeTicker(raw string) (string, error) {
	t := strings.ToUpper(strings.TrimSpace(raw))
	if t == "" {
		return "", ErrEmptyTicker
	}
	return t, nil
}
