package main

import (
	"log"
	"os"

	"github.com/tdewolff/argp"
)

// Version is the release version printed by --version.
const Version = "1.0.0"

var (
	Error   = log.New(os.Stderr, "[ERROR] ", 0)
	Warning = log.New(os.Stderr, "[WARNING] ", 0)
)

func main() {
	cmd := argp.NewCmd(&Panosifier{}, "Panose data editor for fonts")
	cmd.Parse()
}
