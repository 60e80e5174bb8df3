package panose

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/tdewolff/test"
	"seehuhn.de/go/sfnt/os2"
)

var notoPanose = [NumFields]byte{2, 11, 5, 2, 4, 5, 4, 2, 2, 4}

func testHead() []byte {
	head := make([]byte, 54)
	binary.BigEndian.PutUint16(head[0:], 1)          // majorVersion
	binary.BigEndian.PutUint32(head[4:], 0x00010000) // fontRevision
	binary.BigEndian.PutUint32(head[12:], 0x5F0F3CF5)
	binary.BigEndian.PutUint16(head[16:], 0x000B) // flags
	binary.BigEndian.PutUint16(head[18:], 1000)   // unitsPerEm
	binary.BigEndian.PutUint16(head[48:], 2)      // fontDirectionHint
	return head
}

func testOS2(version uint16, length int, panose [NumFields]byte) []byte {
	os2 := make([]byte, length)
	binary.BigEndian.PutUint16(os2[0:], version)
	binary.BigEndian.PutUint16(os2[4:], 400) // usWeightClass
	binary.BigEndian.PutUint16(os2[6:], 5)   // usWidthClass
	copy(os2[32:], panose[:])
	copy(os2[58:], "TEST")
	return os2
}

func testTables(os2 []byte) map[string][]byte {
	return map[string][]byte{
		"cmap": make([]byte, 4),
		"glyf": make([]byte, 12),
		"head": testHead(),
		"hhea": make([]byte, 36),
		"hmtx": make([]byte, 4),
		"loca": make([]byte, 4),
		"maxp": make([]byte, 6),
		"name": make([]byte, 6),
		"OS/2": os2,
		"post": make([]byte, 32),
	}
}

func testSFNT(panose [NumFields]byte) []byte {
	sfnt := &SFNT{
		Version:    string([]byte{0, 1, 0, 0}),
		IsTrueType: true,
		Tables:     testTables(testOS2(4, 96, panose)),
	}
	return sfnt.Write()
}

func TestParseSFNT(t *testing.T) {
	sfnt, err := ParseSFNT(testSFNT(notoPanose))
	test.Error(t, err)

	test.T(t, sfnt.IsTrueType, true)
	test.T(t, sfnt.Head.UnitsPerEm, uint16(1000))
	test.T(t, sfnt.OS2.Version, uint16(4))
	test.T(t, sfnt.OS2.UsWeightClass, uint16(400))
	test.T(t, sfnt.OS2.AchVendID, [4]byte{'T', 'E', 'S', 'T'})
	test.T(t, sfnt.OS2.Panose.Bytes(), notoPanose)
	test.T(t, sfnt.OS2.Panose.String(), "2,11,5,2,4,5,4,2,2,4")
}

func TestSFNTWrite(t *testing.T) {
	b := testSFNT(notoPanose)
	sfnt, err := ParseSFNT(b)
	test.Error(t, err)

	sfnt.OS2.Panose.BProportion = 9
	sfnt.OS2.Panose.BXHeight = 2
	b2 := sfnt.Write()
	test.T(t, calcChecksum(b2), uint32(0xB1B0AFBA), "checksum adjustment")

	sfnt2, err := ParseSFNT(b2)
	test.Error(t, err)
	test.T(t, sfnt2.OS2.Panose.Bytes(), [NumFields]byte{2, 11, 5, 9, 4, 5, 4, 2, 2, 2})
	test.T(t, len(sfnt2.Tables), len(sfnt.Tables))
	for tag, table := range sfnt2.Tables {
		if tag == "head" {
			test.T(t, table[:8], sfnt.Tables[tag][:8], tag)
			test.T(t, table[12:28], sfnt.Tables[tag][12:28], tag)
			test.T(t, table[36:], sfnt.Tables[tag][36:], tag)
		} else if tag != "OS/2" {
			test.T(t, table, sfnt.Tables[tag], tag)
		}
	}

	// table directory is sorted and checksums match
	r := bytes.NewReader(b2[12:])
	var prev string
	for i := 0; i < len(sfnt2.Tables); i++ {
		var record struct {
			Tag                      [4]byte
			Checksum, Offset, Length uint32
		}
		test.Error(t, binary.Read(r, binary.BigEndian, &record))
		tag := string(record.Tag[:])
		test.That(t, prev < tag, "table directory order")
		test.T(t, record.Checksum, tableChecksum(tag, b2[record.Offset:record.Offset+record.Length]), tag)
		prev = tag
	}
}

func TestParseSFNTErrors(t *testing.T) {
	noOS2 := testTables(nil)
	delete(noOS2, "OS/2")
	badOS2Version := testTables(testOS2(6, 100, notoPanose))
	shortOS2 := testTables(testOS2(4, 86, notoPanose))

	var tests = []struct {
		tables map[string][]byte
		err    string
	}{
		{noOS2, "OS/2: missing table"},
		{badOS2Version, "OS/2: bad version"},
		{shortOS2, "OS/2: bad table"},
	}
	for _, tt := range tests {
		t.Run(tt.err, func(t *testing.T) {
			b := (&SFNT{IsTrueType: true, Tables: tt.tables}).Write()
			_, err := ParseSFNT(b)
			test.That(t, err != nil)
			test.T(t, err.Error(), tt.err)
		})
	}

	_, err := ParseSFNT([]byte("true"))
	test.T(t, err, ErrInvalidFontData)

	_, err = ParseSFNT([]byte("ttcf\x00\x01\x00\x00\x00\x00\x00\x01"))
	test.T(t, err.Error(), "font collections are not supported")

	_, err = ParseSFNT([]byte("abcd\x00\x00\x00\x00\x00\x00\x00\x00"))
	test.T(t, err.Error(), "bad SFNT version")

	b := testSFNT(notoPanose)
	binary.BigEndian.PutUint32(b[12+12:], uint32(len(b))) // length of first table
	_, err = ParseSFNT(b)
	test.T(t, err, ErrInvalidFontData)
}

func TestOS2Versions(t *testing.T) {
	var tests = []struct {
		version uint16
		length  int
	}{
		{0, 68},
		{0, 78},
		{1, 86},
		{2, 96},
		{3, 96},
		{4, 96},
		{5, 100},
		{4, 98}, // trailing bytes
	}
	for _, tt := range tests {
		table := testOS2(tt.version, tt.length, notoPanose)
		for i := 62; i < tt.length; i++ {
			table[i] = byte(i)
		}

		sfnt := &SFNT{Tables: map[string][]byte{"OS/2": table}}
		test.Error(t, sfnt.parseOS2())
		test.T(t, sfnt.OS2.Panose.Bytes(), notoPanose)
		test.T(t, sfnt.OS2.Write(), table, "version", tt.version, "length", tt.length)
	}
}

func TestOS2Decoder(t *testing.T) {
	sfnt := &SFNT{Tables: map[string][]byte{"OS/2": testOS2(4, 96, notoPanose)}}
	test.Error(t, sfnt.parseOS2())
	sfnt.OS2.Panose.BFamilyType = 3
	sfnt.OS2.Panose.BMidline = 7

	info, err := os2.Read(bytes.NewReader(sfnt.OS2.Write()))
	test.Error(t, err)
	test.T(t, info.Panose, [10]byte{3, 11, 5, 2, 4, 5, 4, 2, 7, 4})
}
