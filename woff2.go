package panose

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/andybalholm/brotli"
	"github.com/tdewolff/parse/v2"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Specification:
// https://www.w3.org/TR/WOFF2/
//
// Only the null transform is supported: glyf and loca with transform version 3 and all other tables with transform version 0.

type woff2Table struct {
	tag              string
	origLength       uint32
	transformVersion int
}

var woff2TableTags = []string{
	"cmap", "head", "hhea", "hmtx",
	"maxp", "name", "OS/2", "post",
	"cvt ", "fpgm", "glyf", "loca",
	"prep", "CFF ", "VORG", "EBDT",
	"EBLC", "gasp", "hdmx", "kern",
	"LTSH", "PCLT", "VDMX", "vhea",
	"vmtx", "BASE", "GDEF", "GPOS",
	"GSUB", "EBSC", "JSTF", "MATH",
	"CBDT", "CBLC", "COLR", "CPAL",
	"SVG ", "sbix", "acnt", "avar",
	"bdat", "bloc", "bsln", "cvar",
	"fdsc", "feat", "fmtx", "fvar",
	"gvar", "hsty", "just", "lcar",
	"mort", "morx", "opbd", "prop",
	"trak", "Zapf", "Silf", "Glat",
	"Gloc", "Feat", "Sill",
}

func woff2NullTransform(tag string) int {
	if tag == "glyf" || tag == "loca" {
		return 3
	}
	return 0
}

// parseWOFF2 parses the WOFF2 font format and returns the flavor and tables of its contained SFNT font.
func parseWOFF2(b []byte) (string, map[string][]byte, *woffInfo, error) {
	if len(b) < 48 {
		return "", nil, nil, ErrInvalidFontData
	}

	r := parse.NewBinaryReaderBytes(b)
	signature := r.ReadString(4)
	if signature != "wOF2" {
		return "", nil, nil, fmt.Errorf("bad signature")
	}
	flavor := r.ReadString(4)
	if flavor == "ttcf" {
		return "", nil, nil, fmt.Errorf("collections are unsupported")
	} else if !isSFNTVersion(flavor) {
		return "", nil, nil, fmt.Errorf("bad flavor")
	}
	length := r.ReadUint32()
	numTables := r.ReadUint16()
	reserved := r.ReadUint16()
	_ = r.ReadUint32() // totalSfntSize
	totalCompressedSize := r.ReadUint32()
	info := &woffInfo{}
	info.majorVersion = r.ReadUint16()
	info.minorVersion = r.ReadUint16()
	metaOffset := r.ReadUint32()
	metaLength := r.ReadUint32()
	metaOrigLength := r.ReadUint32()
	privOffset := r.ReadUint32()
	privLength := r.ReadUint32()
	if length != uint32(len(b)) {
		return "", nil, nil, fmt.Errorf("length in header must match file size")
	} else if numTables == 0 {
		return "", nil, nil, fmt.Errorf("numTables in header must not be zero")
	} else if reserved != 0 {
		return "", nil, nil, fmt.Errorf("reserved in header must be zero")
	}

	tables := []woff2Table{}
	tagTableIndex := map[string]int{}
	var uncompressedSize uint32
	for i := 0; i < int(numTables); i++ {
		if r.Len() < 1 {
			return "", nil, nil, ErrInvalidFontData
		}
		flags := r.ReadUint8()
		tagIndex := int(flags & 0x3F)
		transformVersion := int((flags & 0xC0) >> 6)

		var tag string
		if tagIndex == 63 {
			if r.Len() < 4 {
				return "", nil, nil, ErrInvalidFontData
			}
			tag = uint32ToString(r.ReadUint32())
		} else if tagIndex < len(woff2TableTags) {
			tag = woff2TableTags[tagIndex]
		} else {
			return "", nil, nil, fmt.Errorf("bad table tag index %d", tagIndex)
		}

		origLength, err := readUintBase128(r)
		if err != nil {
			return "", nil, nil, err
		} else if transformVersion != woff2NullTransform(tag) {
			return "", nil, nil, fmt.Errorf("%s: transformed tables are not supported", tag)
		} else if _, ok := tagTableIndex[tag]; ok {
			return "", nil, nil, fmt.Errorf("%s: table defined more than once", tag)
		} else if math.MaxUint32-uncompressedSize < origLength {
			return "", nil, nil, ErrInvalidFontData
		}
		uncompressedSize += origLength

		tagTableIndex[tag] = len(tables)
		tables = append(tables, woff2Table{
			tag:              tag,
			origLength:       origLength,
			transformVersion: transformVersion,
		})
	}
	if _, hasDSIG := tagTableIndex["DSIG"]; hasDSIG {
		return "", nil, nil, fmt.Errorf("DSIG: must be removed")
	}

	// decompress font data using Brotli
	if r.Len() < int64(totalCompressedSize) {
		return "", nil, nil, ErrInvalidFontData
	} else if MaxMemory < uncompressedSize {
		return "", nil, nil, ErrExceedsMemory
	}
	compData := r.ReadBytes(int64(totalCompressedSize))
	rBrotli := brotli.NewReader(bytes.NewReader(compData))
	dataBuf := bytes.NewBuffer(make([]byte, 0, uncompressedSize))
	if _, err := io.Copy(dataBuf, io.LimitReader(rBrotli, int64(uncompressedSize)+1)); err != nil {
		return "", nil, nil, err
	}
	data := dataBuf.Bytes()
	if uint32(len(data)) != uncompressedSize {
		return "", nil, nil, fmt.Errorf("sum of table lengths must match decompressed font data size")
	}

	var offset uint32
	sfntTables := make(map[string][]byte, len(tables))
	for _, table := range tables {
		n := table.origLength
		sfntTables[table.tag] = data[offset : offset+n : offset+n]
		offset += n
	}

	head, hasHead := sfntTables["head"]
	if !hasHead || len(head) < 18 {
		return "", nil, nil, fmt.Errorf("head: must be present")
	} else if flags := binary.BigEndian.Uint16(head[16:]); flags&0x0800 == 0 {
		return "", nil, nil, fmt.Errorf("head: bit 11 in flags must be set")
	}

	if err := info.readExtra(b, metaOffset, metaLength, metaOrigLength, privOffset, privLength); err != nil {
		return "", nil, nil, err
	}
	return flavor, sfntTables, info, nil
}

func readUintBase128(r *parse.BinaryReader) (uint32, error) {
	// see https://www.w3.org/TR/WOFF2/#DataTypes
	var accum uint32
	for i := 0; i < 5; i++ {
		if r.Len() < 1 {
			return 0, ErrInvalidFontData
		}
		dataByte := r.ReadUint8()
		if i == 0 && dataByte == 0x80 {
			return 0, fmt.Errorf("readUintBase128: must not start with leading zeros")
		}
		if (accum & 0xFE000000) != 0 {
			return 0, fmt.Errorf("readUintBase128: overflow")
		}
		accum = (accum << 7) | uint32(dataByte&0x7F)
		if (dataByte & 0x80) == 0 {
			return accum, nil
		}
	}
	return 0, fmt.Errorf("readUintBase128: exceeds 5 bytes")
}

func writeUintBase128(w *parse.BinaryWriter, accum uint32) {
	// see https://www.w3.org/TR/WOFF2/#DataTypes
	if accum == 0 {
		w.WriteByte(0)
		return
	}
	written := false
	for i := 4; 0 <= i; i-- {
		if v := (accum >> (i * 7)) & 0x7F; written || v != 0 {
			if i != 0 {
				v |= 0x80
			}
			w.WriteByte(byte(v))
			written = true
		}
	}
}

// writeWOFF2 wraps an SFNT font file in the WOFF2 format using the null transform for all tables. The DSIG table is dropped.
func writeWOFF2(b []byte, info *woffInfo) ([]byte, error) {
	flavor, tables, err := readTableDirectory(b)
	if err != nil {
		return nil, err
	}
	if info == nil {
		info = &woffInfo{majorVersion: 1}
	}
	delete(tables, "DSIG")
	tags := maps.Keys(tables)
	slices.Sort(tags)

	w := parse.NewBinaryWriter(make([]byte, 0, len(b)))
	w.WriteString("wOF2")                 // signature
	w.WriteString(flavor)                 // flavor
	w.WriteUint32(0)                      // length (set later)
	w.WriteUint16(uint16(len(tags)))      // numTables
	w.WriteUint16(0)                      // reserved
	w.WriteUint32(uint32(len(b)))         // totalSfntSize
	w.WriteUint32(0)                      // totalCompressedSize (set later)
	w.WriteUint16(info.majorVersion)      // majorVersion
	w.WriteUint16(info.minorVersion)      // minorVersion
	w.WriteUint32(0)                      // metaOffset (set later)
	w.WriteUint32(uint32(len(info.meta))) // metaLength
	w.WriteUint32(info.metaOrigLength)    // metaOrigLength
	w.WriteUint32(0)                      // privOffset (set later)
	w.WriteUint32(uint32(len(info.priv))) // privLength

	for _, tag := range tags {
		tagIndex := slices.Index(woff2TableTags, tag)
		if tagIndex == -1 {
			tagIndex = 63
		}
		w.WriteUint8(byte(woff2NullTransform(tag))<<6 | byte(tagIndex)&0x3F) // flags
		if tagIndex == 63 {
			w.WriteString(tag)
		}
		writeUintBase128(w, uint32(len(tables[tag])))
	}

	headerLength := uint32(w.Len())
	wBrotli := brotli.NewWriter(w)
	for _, tag := range tags {
		table := tables[tag]
		if tag == "head" && 18 <= len(table) {
			head := make([]byte, len(table))
			copy(head, table)
			flags := binary.BigEndian.Uint16(head[16:])
			flags |= 0x0800 // set bit 11, font is compressed
			binary.BigEndian.PutUint16(head[16:], flags)
			table = head
		}
		if _, err := wBrotli.Write(table); err != nil {
			return nil, err
		}
	}
	if err := wBrotli.Close(); err != nil {
		return nil, err
	}
	totalCompressedSize := uint32(w.Len()) - headerLength

	var metaOffset, privOffset uint32
	if info.meta != nil {
		writePadding(w)
		metaOffset = uint32(w.Len())
		w.WriteBytes(info.meta)
	}
	if info.priv != nil {
		writePadding(w)
		privOffset = uint32(w.Len())
		w.WriteBytes(info.priv)
	}
	writePadding(w) // required by at least Firefox

	buf := w.Bytes()
	binary.BigEndian.PutUint32(buf[8:], uint32(len(buf)))     // length
	binary.BigEndian.PutUint32(buf[20:], totalCompressedSize) // totalCompressedSize
	binary.BigEndian.PutUint32(buf[28:], metaOffset)          // metaOffset
	binary.BigEndian.PutUint32(buf[40:], privOffset)          // privOffset
	return buf, nil
}
