package main

import (
	"fmt"
	"io"
	"os"

	"github.com/tdewolff/panose"
)

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

func readFont(filename string) (*panose.Font, error) {
	b, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	return panose.ParseFont(b)
}

// writeFont overwrites the file with the font in its original file format.
func writeFont(filename string, font *panose.Font) error {
	b, err := font.Write()
	if err != nil {
		return err
	}

	w, err := os.Create(filename)
	if err != nil {
		return err
	}
	if _, err := w.Write(b); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

func printPanose(w io.Writer, path string, p *panose.Panose) {
	fmt.Fprintf(w, "%s panose:\n", path)
	for _, field := range panose.Fields() {
		fmt.Fprintf(w, "   %v: %d\n", field, p.Get(field))
	}
}
