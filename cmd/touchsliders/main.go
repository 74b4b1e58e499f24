// Package main starts the TouchSliders server.
package main

import (
	"flag"
	"os"

	"github.com/sirupsen/logrus"
)

// main is the entrypoint for the TouchSliders server.
func main() {
	debug := flag.Bool("debug", false, "Enable verbose debug logging")
	flag.Parse()

	if err := run(*debug); err != nil {
		logrus.WithError(err).Error("fatal")
		os.Exit(1)
	}
}
