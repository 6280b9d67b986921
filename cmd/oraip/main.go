// Package main provides the oraip command: basin-averaged temperature and
// salinity profiles from the ORA-IP reanalysis archive.
package main

import (
	"os"
)

const version = "0.1.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
