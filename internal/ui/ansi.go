package ui

import (
	"fmt"
	"io"
	"os"
)

var (
	reset = "\033[0m"
	bold  = "\033[1m"
	dim   = "\033[2m"

	fgGray   = "\033[90m"
	fgGreen  = "\033[32m"
	fgYellow = "\033[33m"
	fgBlue   = "\033[34m"
	fgRed    = "\033[31m"
)

var (
	forceColor   bool
	disableColor bool
)

func SetColorForcing(force, disable bool) {
	forceColor = force
	disableColor = disable
}

func isTTY() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}

// C wraps s in an ANSI color when stdout is a terminal (or color is forced).
func C(color, s string) string {
	if disableColor || color == "" {
		return s
	}
	if forceColor || isTTY() {
		return color + s + reset
	}
	return s
}

// Dim renders s faint.
func Dim(s string) string { return C(dim, s) }

// OK and Fail print a one-line outcome marked with the theme's symbols.
func OK(w io.Writer, msg string) {
	t := Current()
	outcome(w, t.Success, t.SymOK, msg)
}

func Fail(w io.Writer, msg string) {
	t := Current()
	outcome(w, t.Error, t.SymFail, msg)
}

func outcome(w io.Writer, color, sym, msg string) {
	if sym != "" {
		msg = sym + " " + msg
	}
	fmt.Fprintln(w, C(color, msg))
}
