package main

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tdewolff/panose"
	"github.com/tdewolff/test"
)

var notoPanose = [panose.NumFields]byte{2, 11, 5, 2, 4, 5, 4, 2, 2, 4}

func testFont(p [panose.NumFields]byte) []byte {
	head := make([]byte, 54)
	binary.BigEndian.PutUint16(head[0:], 1)
	binary.BigEndian.PutUint32(head[12:], 0x5F0F3CF5)
	binary.BigEndian.PutUint16(head[18:], 1000)

	os2 := make([]byte, 96)
	binary.BigEndian.PutUint16(os2[0:], 4)
	binary.BigEndian.PutUint16(os2[4:], 400)
	copy(os2[32:], p[:])

	sfnt := &panose.SFNT{
		IsTrueType: true,
		Tables: map[string][]byte{
			"cmap": make([]byte, 4),
			"glyf": make([]byte, 4),
			"head": head,
			"hhea": make([]byte, 36),
			"hmtx": make([]byte, 4),
			"loca": make([]byte, 4),
			"maxp": make([]byte, 6),
			"name": make([]byte, 6),
			"OS/2": os2,
			"post": make([]byte, 32),
		},
	}
	return sfnt.Write()
}

func writeTestFont(t *testing.T, dir, name string, b []byte) string {
	filename := filepath.Join(dir, name)
	test.Error(t, os.WriteFile(filename, b, 0644))
	return filename
}

func readTestPanose(t *testing.T, filename string) [panose.NumFields]byte {
	font, err := readFont(filename)
	test.Error(t, err)
	return font.Panose().Bytes()
}

func report(path string, p [panose.NumFields]byte) string {
	sb := strings.Builder{}
	fmt.Fprintf(&sb, "%s panose:\n", path)
	labels := []string{"FamilyType", "SerifStyle", "Weight", "Proportion", "Contrast", "StrokeVariation", "ArmStyle", "LetterForm", "Midline", "XHeight"}
	for i, label := range labels {
		fmt.Fprintf(&sb, "   %s: %d\n", label, p[i])
	}
	return sb.String()
}

func TestEdit(t *testing.T) {
	var tests = []struct {
		name string
		cmd  Panosifier
		want [panose.NumFields]byte
	}{
		{"fields", Panosifier{Proportion: 9, XHeight: 2}, [panose.NumFields]byte{2, 11, 5, 9, 4, 5, 4, 2, 2, 2}},
		{"panose", Panosifier{Panose: "1,2,3,4,5,6,7,8,9,10"}, [panose.NumFields]byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}},
		{"strokevar", Panosifier{StrokeVar: 7, Letterform: 3}, [panose.NumFields]byte{2, 11, 5, 2, 4, 7, 4, 3, 2, 4}},
		{"zero skipped", Panosifier{Panose: "0,0,0,0,0,0,0,0,0,1"}, [panose.NumFields]byte{2, 11, 5, 2, 4, 5, 4, 2, 2, 1}},
		{"zero strict", Panosifier{Panose: "0,0,0,0,0,0,0,0,0,1", Strict: true}, [panose.NumFields]byte{0, 0, 0, 0, 0, 0, 0, 0, 0, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filename := writeTestFont(t, t.TempDir(), "Test-Regular.ttf", testFont(notoPanose))
			tt.cmd.Paths = []string{filename}

			w := &bytes.Buffer{}
			test.Error(t, tt.cmd.run(w))
			test.T(t, readTestPanose(t, filename), tt.want)
			test.T(t, w.String(), report(filename, tt.want))
		})
	}
}

func TestEditMultiplePaths(t *testing.T) {
	dir := t.TempDir()
	regular := writeTestFont(t, dir, "Test-Regular.ttf", testFont(notoPanose))
	bold := writeTestFont(t, dir, "Test-Bold.ttf", testFont([panose.NumFields]byte{2, 11, 8, 2, 4, 5, 4, 2, 2, 4}))

	w := &bytes.Buffer{}
	cmd := Panosifier{FamilyType: 3, Paths: []string{regular, bold}}
	test.Error(t, cmd.run(w))
	test.T(t, readTestPanose(t, regular), [panose.NumFields]byte{3, 11, 5, 2, 4, 5, 4, 2, 2, 4})
	test.T(t, readTestPanose(t, bold), [panose.NumFields]byte{3, 11, 8, 2, 4, 5, 4, 2, 2, 4})
	test.That(t, strings.Index(w.String(), regular) < strings.Index(w.String(), bold), "paths are edited in order")
}

func TestEditWOFF2(t *testing.T) {
	font, err := panose.ParseFont(testFont(notoPanose))
	test.Error(t, err)
	font.MediaType = "font/woff2"
	b, err := font.Write()
	test.Error(t, err)
	filename := writeTestFont(t, t.TempDir(), "Test-Regular.woff2", b)

	cmd := Panosifier{Weight: 8, Quiet: true, Paths: []string{filename}}
	defer func(logger *log.Logger) { Warning = logger }(Warning)
	test.Error(t, cmd.run(io.Discard))

	b, err = os.ReadFile(filename)
	test.Error(t, err)
	mediatype, err := panose.MediaType(b)
	test.Error(t, err)
	test.T(t, mediatype, "font/woff2")
	test.T(t, readTestPanose(t, filename), [panose.NumFields]byte{2, 11, 8, 2, 4, 5, 4, 2, 2, 4})
}

func TestQuiet(t *testing.T) {
	filename := writeTestFont(t, t.TempDir(), "Test-Regular.ttf", testFont(notoPanose))

	w := &bytes.Buffer{}
	cmd := Panosifier{Midline: 5, Quiet: true, Paths: []string{filename}}
	defer func(logger *log.Logger) { Warning = logger }(Warning)
	test.Error(t, cmd.run(w))
	test.T(t, w.String(), "")
	test.T(t, readTestPanose(t, filename), [panose.NumFields]byte{2, 11, 5, 2, 4, 5, 4, 2, 5, 4})
}

func TestVersion(t *testing.T) {
	w := &bytes.Buffer{}
	cmd := Panosifier{Version: true}
	test.Error(t, cmd.run(w))
	test.T(t, w.String(), "panosifier v"+Version+"\n")
}

func TestValidation(t *testing.T) {
	dir := t.TempDir()
	filename := writeTestFont(t, dir, "Test-Regular.ttf", testFont(notoPanose))
	missing := filepath.Join(dir, "missing.ttf")

	var tests = []struct {
		name string
		cmd  Panosifier
		err  string
	}{
		{"combo", Panosifier{Panose: "1,2,3,4,5,6,7,8,9,10", Weight: 3, Paths: []string{filename}}, "the '--panose' option cannot be used with other panose definition options"},
		{"none", Panosifier{Paths: []string{filename}}, "include at least one panose definition in your command"},
		{"none before paths", Panosifier{Paths: []string{missing}}, "include at least one panose definition in your command"},
		{"no paths", Panosifier{Weight: 3}, "include at least one font file path in your command"},
		{"missing", Panosifier{Weight: 3, Paths: []string{filename, missing}}, fmt.Sprintf("'%s' does not appear to be a valid file", missing)},
		{"directory", Panosifier{Weight: 3, Paths: []string{dir}}, fmt.Sprintf("'%s' does not appear to be a valid file", dir)},
		{"count", Panosifier{Panose: "1,2,3", Paths: []string{filename}}, "incorrect number of panose values. Received 3 values and require 10 values"},
		{"bogus", Panosifier{Panose: "1,2,3,4,5,6,7,8,9,x", Paths: []string{filename}}, "invalid xheight value 'x': not an integer"},
		{"range", Panosifier{Weight: 300, Paths: []string{filename}}, "invalid weight value '300': must be between 0 and 255"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := &bytes.Buffer{}
			err := tt.cmd.run(w)
			test.That(t, err != nil)
			test.T(t, err.Error(), tt.err)
			test.T(t, w.String(), "")
			test.T(t, readTestPanose(t, filename), notoPanose, "font must be unchanged")
		})
	}

	err := (&Panosifier{Panose: "1,2,3,4,5,6,7,8,9,10", XHeight: 1}).run(io.Discard)
	test.T(t, err, ErrPanoseCombo)
	err = (&Panosifier{}).run(io.Discard)
	test.T(t, err, ErrNoDefinition)

	var pathErr *PathError
	err = (&Panosifier{Weight: 1, Paths: []string{missing}}).run(io.Discard)
	test.That(t, errors.As(err, &pathErr))
	test.T(t, pathErr.Path, missing)
}

func TestEditInvalidFont(t *testing.T) {
	filename := writeTestFont(t, t.TempDir(), "Test-Regular.ttf", []byte("this is not a font file"))

	err := (&Panosifier{Weight: 1, Paths: []string{filename}}).run(io.Discard)
	var fontErr *FontError
	test.That(t, errors.As(err, &fontErr))
	test.T(t, fontErr.Op, "load")
	test.T(t, err.Error(), fmt.Sprintf("during edit of '%s': unknown font format", filename))
}

func TestPrintPanose(t *testing.T) {
	p := panose.PanoseFromBytes(notoPanose)
	w := &bytes.Buffer{}
	printPanose(w, "NotoSans-Regular.ttf", &p)
	test.T(t, w.String(), `NotoSans-Regular.ttf panose:
   FamilyType: 2
   SerifStyle: 11
   Weight: 5
   Proportion: 2
   Contrast: 4
   StrokeVariation: 5
   ArmStyle: 4
   LetterForm: 2
   Midline: 2
   XHeight: 4
`)
}
