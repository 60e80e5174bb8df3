package main

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/tdewolff/panose"
	"github.com/tdewolff/prompt"
)

// ErrPanoseCombo is returned when --panose is combined with a per-field option.
var ErrPanoseCombo = fmt.Errorf("the '--panose' option cannot be used with other panose definition options")

// ErrNoDefinition is returned when no PANOSE value is given.
var ErrNoDefinition = fmt.Errorf("include at least one panose definition in your command")

// PathError is returned when a path is not a regular file.
type PathError struct {
	Path string
}

func (e *PathError) Error() string {
	return fmt.Sprintf("'%s' does not appear to be a valid file", e.Path)
}

// FontError is returned when a font cannot be loaded or saved.
type FontError struct {
	Path string
	Op   string // load or save
	Err  error
}

func (e *FontError) Error() string {
	if e.Op == "load" {
		return fmt.Sprintf("during edit of '%s': %v", e.Path, e.Err)
	}
	return fmt.Sprintf("'%s' error: %v", e.Path, e.Err)
}

func (e *FontError) Unwrap() error {
	return e.Err
}

type Panosifier struct {
	Version     bool     `short:"v" name:"version" desc:"Show version and exit."`
	Panose      string   `name:"panose" desc:"Comma delimited panose value list, eg. 2,11,5,2,4,5,4,2,2,4."`
	FamilyType  int      `name:"familytype" desc:"FamilyType value."`
	SerifStyle  int      `name:"serifstyle" desc:"SerifStyle value."`
	Weight      int      `name:"weight" desc:"Weight value."`
	Proportion  int      `name:"proportion" desc:"Proportion value."`
	Contrast    int      `name:"contrast" desc:"Contrast value."`
	StrokeVar   int      `name:"strokevar" desc:"StrokeVariation value."`
	ArmStyle    int      `name:"armstyle" desc:"ArmStyle value."`
	Letterform  int      `name:"letterform" desc:"Letterform value."`
	Midline     int      `name:"midline" desc:"Midline value."`
	XHeight     int      `name:"xheight" desc:"XHeight value."`
	Strict      bool     `name:"strict" desc:"Also write zero values into the font."`
	Interactive bool     `short:"i" name:"interactive" desc:"Ask before overwriting each font file."`
	Quiet       bool     `short:"q" name:"quiet" desc:"Suppress output except for errors."`
	Paths       []string `index:"*" name:"PATH" desc:"Font file paths."`
}

func (cmd *Panosifier) Run() error {
	if err := cmd.run(os.Stdout); err != nil {
		Error.Println(err)
		os.Exit(1)
	}
	return nil
}

func (cmd *Panosifier) run(w io.Writer) error {
	if cmd.Version {
		fmt.Fprintf(w, "panosifier v%s\n", Version)
		return nil
	}
	if cmd.Quiet {
		Warning = log.New(io.Discard, "", 0)
	}

	if err := cmd.validateAtLeastOneDefinition(); err != nil {
		return err
	} else if err := cmd.validateExclusive(); err != nil {
		return err
	} else if err := cmd.validatePaths(); err != nil {
		return err
	}

	for _, path := range cmd.Paths {
		if err := cmd.edit(w, path); err != nil {
			return err
		}
	}
	return nil
}

// fields returns the per-field options that were given. As zero is the option default, a zero value counts as not given.
func (cmd *Panosifier) fields() map[panose.Field]any {
	options := [panose.NumFields]int{
		cmd.FamilyType, cmd.SerifStyle, cmd.Weight, cmd.Proportion, cmd.Contrast,
		cmd.StrokeVar, cmd.ArmStyle, cmd.Letterform, cmd.Midline, cmd.XHeight,
	}
	values := map[panose.Field]any{}
	for i, v := range options {
		if v != 0 {
			values[panose.Field(i)] = v
		}
	}
	return values
}

func (cmd *Panosifier) validateAtLeastOneDefinition() error {
	if cmd.Panose == "" && len(cmd.fields()) == 0 {
		return ErrNoDefinition
	}
	return nil
}

func (cmd *Panosifier) validateExclusive() error {
	if cmd.Panose != "" && len(cmd.fields()) != 0 {
		return ErrPanoseCombo
	}
	return nil
}

func (cmd *Panosifier) validatePaths() error {
	if len(cmd.Paths) == 0 {
		return fmt.Errorf("include at least one font file path in your command")
	}
	for _, path := range cmd.Paths {
		if !isFile(path) {
			return &PathError{path}
		}
	}
	return nil
}

func (cmd *Panosifier) record() (panose.Record, error) {
	if cmd.Panose != "" {
		return panose.ParseRecord(cmd.Panose)
	}
	return panose.NewRecord(cmd.fields())
}

// edit loads, edits, saves, and reloads a single font, then reports its PANOSE values.
func (cmd *Panosifier) edit(w io.Writer, path string) error {
	font, err := readFont(path)
	if err != nil {
		return &FontError{path, "load", err}
	}

	record, err := cmd.record()
	if err != nil {
		return err
	}
	if cmd.Strict {
		record.ApplyStrict(font.Panose())
	} else {
		record.Apply(font.Panose())
	}

	if font.HasTable("DSIG") {
		Warning.Printf("'%s' has a DSIG table that is invalidated by this edit\n", path)
	}
	if cmd.Interactive && !prompt.YesNo(fmt.Sprintf("overwrite %s?", path), false) {
		Warning.Printf("'%s' skipped\n", path)
		return nil
	}
	if err := writeFont(path, font); err != nil {
		return &FontError{path, "save", err}
	}

	edited, err := readFont(path)
	if err != nil {
		return &FontError{path, "save", err}
	}
	if !cmd.Quiet {
		printPanose(w, path, edited.Panose())
	}
	return nil
}
