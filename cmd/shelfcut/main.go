// shelfcut - shelf-based sheet packing optimizer
//
// Packs rectangular pieces onto fixed-size sheets row by row, rejecting
// sparse sheets below an efficiency threshold and retrying them, then
// writes the layouts as PDF, QR labels or JSON.
//
// Build:
//   go build -o shelfcut ./cmd/shelfcut
//
// Usage:
//   shelfcut optimize pieces.csv --rotate --pdf layout.pdf
//   shelfcut compare pieces.xlsx
//   shelfcut config init

package main

import (
	"fmt"
	"os"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "shelfcut: %v\n", err)
		os.Exit(1)
	}
}
