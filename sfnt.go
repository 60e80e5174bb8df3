package panose

import (
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"github.com/tdewolff/parse/v2"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// SFNT is a parsed OpenType font. Only the tables needed to edit the PANOSE classification are decoded, all other tables are kept as raw bytes.
type SFNT struct {
	Length            uint32
	Version           string
	IsCFF, IsTrueType bool // only one can be true
	Tables            map[string][]byte

	Head *headTable
	OS2  *os2Table
}

// HasTable returns true if the font contains a table with the given tag.
func (sfnt *SFNT) HasTable(tag string) bool {
	_, ok := sfnt.Tables[tag]
	return ok
}

// ParseSFNT parses an OpenType file format (TTF, OTF). Font collections are not supported.
func ParseSFNT(b []byte) (*SFNT, error) {
	sfntVersion, tables, err := readTableDirectory(b)
	if err != nil {
		return nil, err
	}
	return newSFNT(sfntVersion, tables, uint32(len(b)))
}

// readTableDirectory reads the offset table and table records, and returns the tables as subslices of b.
func readTableDirectory(b []byte) (string, map[string][]byte, error) {
	if len(b) < 12 || uint(math.MaxUint32) < uint(len(b)) {
		return "", nil, ErrInvalidFontData
	}

	r := parse.NewBinaryReaderBytes(b)
	sfntVersion := r.ReadString(4)
	if sfntVersion == "ttcf" {
		return "", nil, fmt.Errorf("font collections are not supported")
	} else if !isSFNTVersion(sfntVersion) {
		return "", nil, fmt.Errorf("bad SFNT version")
	}
	numTables := r.ReadUint16()
	_ = r.ReadUint16() // searchRange
	_ = r.ReadUint16() // entrySelector
	_ = r.ReadUint16() // rangeShift
	if uint32(len(b))-12 < 16*uint32(numTables) { // can never exceed uint32 as numTables is uint16
		return "", nil, ErrInvalidFontData
	}

	tables := make(map[string][]byte, numTables)
	for i := 0; i < int(numTables); i++ {
		tag := r.ReadString(4)
		_ = r.ReadUint32() // checksum
		offset := r.ReadUint32()
		length := r.ReadUint32()
		if uint32(len(b)) <= offset || uint32(len(b))-offset < length {
			return "", nil, ErrInvalidFontData
		} else if _, ok := tables[tag]; ok {
			return "", nil, fmt.Errorf("%s: table defined more than once", tag)
		}
		tables[tag] = b[offset : offset+length : offset+length]
	}
	return sfntVersion, tables, nil
}

func isSFNTVersion(sfntVersion string) bool {
	return sfntVersion == "OTTO" || sfntVersion == "true" || len(sfntVersion) == 4 && binary.BigEndian.Uint32([]byte(sfntVersion)) == 0x00010000
}

func newSFNT(sfntVersion string, tables map[string][]byte, length uint32) (*SFNT, error) {
	sfnt := &SFNT{}
	sfnt.Length = length
	sfnt.Version = sfntVersion
	sfnt.IsCFF = sfntVersion == "OTTO"
	sfnt.IsTrueType = !sfnt.IsCFF
	sfnt.Tables = tables

	requiredTables := []string{"cmap", "head", "hhea", "hmtx", "maxp", "name", "post", "OS/2"}
	if sfnt.IsTrueType {
		requiredTables = append(requiredTables, "glyf", "loca")
	} else {
		_, hasCFF := tables["CFF "]
		_, hasCFF2 := tables["CFF2"]
		if !hasCFF && !hasCFF2 {
			return nil, fmt.Errorf("CFF: missing table")
		} else if hasCFF && hasCFF2 {
			return nil, fmt.Errorf("CFF2: CFF table already exists")
		}
	}
	for _, requiredTable := range requiredTables {
		if _, ok := tables[requiredTable]; !ok {
			return nil, fmt.Errorf("%s: missing table", requiredTable)
		}
	}

	if err := sfnt.parseHead(); err != nil {
		return nil, err
	} else if err := sfnt.parseOS2(); err != nil {
		return nil, err
	}
	return sfnt, nil
}

// Write writes out the SFNT file. The OS/2 table is encoded from its parsed values, the head table gets a new modification date and checksum adjustment.
func (sfnt *SFNT) Write() []byte {
	if sfnt.OS2 != nil {
		sfnt.Tables["OS/2"] = sfnt.OS2.Write()
	}

	tags := maps.Keys(sfnt.Tables)
	slices.Sort(tags)

	// write header
	w := parse.NewBinaryWriter([]byte{})
	if sfnt.Version == "true" {
		w.WriteString("true") // sfntVersion
	} else if sfnt.IsCFF {
		w.WriteString("OTTO") // sfntVersion
	} else {
		w.WriteUint32(0x00010000) // sfntVersion
	}
	numTables := uint16(len(tags))
	entrySelector := uint16(math.Log2(float64(numTables)))
	searchRange := uint16(1 << (entrySelector + 4))
	w.WriteUint16(numTables)                  // numTables
	w.WriteUint16(searchRange)                // searchRange
	w.WriteUint16(entrySelector)              // entrySelector
	w.WriteUint16(numTables<<4 - searchRange) // rangeShift

	// table records are filled in at the end
	w.WriteBytes(make([]byte, uint32(numTables)<<4))

	// write tables
	checksumAdjustmentPos := -1
	offsets, lengths := make([]uint32, numTables), make([]uint32, numTables)
	for i, tag := range tags {
		offsets[i] = uint32(w.Len())
		table := sfnt.Tables[tag]
		if tag == "head" && 36 <= len(table) {
			checksumAdjustmentPos = int(offsets[i]) + 8
			head := make([]byte, len(table))
			copy(head, table)
			binary.BigEndian.PutUint32(head[8:], 0) // checksumAdjustment
			binary.BigEndian.PutUint64(head[28:], uint64(time.Now().UTC().Sub(headEpoch)/time.Second))
			table = head
		}
		w.WriteBytes(table)
		lengths[i] = uint32(len(table))
		for j := uint32(0); j < padding(lengths[i]); j++ {
			w.WriteByte(0)
		}
	}

	// add table record entries
	buf := w.Bytes()
	for i, tag := range tags {
		pos := 12 + i<<4
		copy(buf[pos:], []byte(tag))
		checksum := calcChecksum(buf[offsets[i] : offsets[i]+lengths[i]+padding(lengths[i])])
		binary.BigEndian.PutUint32(buf[pos+4:], checksum)
		binary.BigEndian.PutUint32(buf[pos+8:], offsets[i])
		binary.BigEndian.PutUint32(buf[pos+12:], lengths[i])
	}
	if checksumAdjustmentPos != -1 {
		binary.BigEndian.PutUint32(buf[checksumAdjustmentPos:], 0xB1B0AFBA-calcChecksum(buf))
	}
	sfnt.Length = uint32(len(buf))
	return buf
}

////////////////////////////////////////////////////////////////

var headEpoch = time.Date(1904, 1, 1, 0, 0, 0, 0, time.UTC)

type headTable struct {
	FontRevision           uint32
	Flags                  uint16
	UnitsPerEm             uint16
	Created, Modified      time.Time
	XMin, YMin, XMax, YMax int16
	MacStyle               uint16
	LowestRecPPEM          uint16
	FontDirectionHint      int16
	IndexToLocFormat       int16
	GlyphDataFormat        int16
}

func (sfnt *SFNT) parseHead() error {
	b, ok := sfnt.Tables["head"]
	if !ok {
		return fmt.Errorf("head: missing table")
	} else if len(b) != 54 {
		return fmt.Errorf("head: bad table")
	}

	sfnt.Head = &headTable{}
	r := parse.NewBinaryReaderBytes(b)
	majorVersion := r.ReadUint16()
	minorVersion := r.ReadUint16()
	if majorVersion != 1 || minorVersion != 0 {
		return fmt.Errorf("head: bad version")
	}
	sfnt.Head.FontRevision = r.ReadUint32()
	_ = r.ReadUint32()                // checksumAdjustment
	if r.ReadUint32() != 0x5F0F3CF5 { // magicNumber
		return fmt.Errorf("head: bad magic version")
	}
	sfnt.Head.Flags = r.ReadUint16()
	sfnt.Head.UnitsPerEm = r.ReadUint16()
	created := r.ReadUint64()
	modified := r.ReadUint64()
	if math.MaxInt64/uint64(time.Second) < created || math.MaxInt64/uint64(time.Second) < modified {
		return fmt.Errorf("head: created and/or modified dates too large")
	}
	sfnt.Head.Created = headEpoch.Add(time.Second * time.Duration(created))
	sfnt.Head.Modified = headEpoch.Add(time.Second * time.Duration(modified))
	sfnt.Head.XMin = r.ReadInt16()
	sfnt.Head.YMin = r.ReadInt16()
	sfnt.Head.XMax = r.ReadInt16()
	sfnt.Head.YMax = r.ReadInt16()
	sfnt.Head.MacStyle = r.ReadUint16()
	sfnt.Head.LowestRecPPEM = r.ReadUint16()
	sfnt.Head.FontDirectionHint = r.ReadInt16()
	sfnt.Head.IndexToLocFormat = r.ReadInt16()
	if sfnt.Head.IndexToLocFormat != 0 && sfnt.Head.IndexToLocFormat != 1 {
		return fmt.Errorf("head: bad indexToLocFormat")
	}
	sfnt.Head.GlyphDataFormat = r.ReadInt16()
	return nil
}
