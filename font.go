package panose

import (
	"encoding/binary"
	"fmt"
)

// MediaType returns the media type of the font file: font/truetype, font/opentype, font/woff, font/woff2, font/eot or font/collection.
func MediaType(b []byte) (string, error) {
	if len(b) < 4 {
		return "", ErrInvalidFontData
	}
	tag := string(b[:4])
	switch {
	case tag == "wOFF":
		return "font/woff", nil
	case tag == "wOF2":
		return "font/woff2", nil
	case tag == "ttcf":
		return "font/collection", nil
	case tag == "OTTO":
		return "font/opentype", nil
	case isSFNTVersion(tag):
		return "font/truetype", nil
	case 36 <= len(b) && binary.LittleEndian.Uint16(b[34:]) == 0x504C:
		return "font/eot", nil
	}
	return "", fmt.Errorf("unknown font format")
}

// Font is a font file with its parsed SFNT font. It is written back in the same file format it was read from.
type Font struct {
	*SFNT
	MediaType string

	woff *woffInfo // WOFF and WOFF2
	eot  *eotInfo
}

// ParseFont parses a TTF, OTF, WOFF, WOFF2 or EOT font file.
func ParseFont(b []byte) (*Font, error) {
	mediatype, err := MediaType(b)
	if err != nil {
		return nil, err
	}

	f := &Font{MediaType: mediatype}
	switch mediatype {
	case "font/truetype", "font/opentype":
		f.SFNT, err = ParseSFNT(b)
	case "font/woff", "font/woff2":
		var flavor string
		var tables map[string][]byte
		if mediatype == "font/woff" {
			flavor, tables, f.woff, err = parseWOFF(b)
		} else {
			flavor, tables, f.woff, err = parseWOFF2(b)
		}
		if err == nil {
			f.SFNT, err = newSFNT(flavor, tables, uint32(len(b)))
		}
	case "font/eot":
		var sfnt []byte
		if sfnt, f.eot, err = parseEOT(b); err == nil {
			f.SFNT, err = ParseSFNT(sfnt)
		}
	default:
		err = fmt.Errorf("font collections are not supported")
	}
	if err != nil {
		return nil, err
	}
	return f, nil
}

// Panose returns the PANOSE classification of the OS/2 table.
func (f *Font) Panose() *Panose {
	return &f.OS2.Panose
}

// Write writes out the font file in its original file format.
func (f *Font) Write() ([]byte, error) {
	b := f.SFNT.Write()
	switch f.MediaType {
	case "font/woff":
		return writeWOFF(b, f.woff)
	case "font/woff2":
		return writeWOFF2(b, f.woff)
	case "font/eot":
		return writeEOT(f.eot, b, f.OS2.Panose)
	}
	return b, nil
}
