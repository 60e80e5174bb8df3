package panose

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"
	"github.com/tdewolff/parse/v2"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// woffInfo holds the parts of a WOFF or WOFF2 file that are not SFNT tables and are written back unchanged.
type woffInfo struct {
	majorVersion   uint16
	minorVersion   uint16
	meta           []byte // compressed extended metadata
	metaOrigLength uint32
	priv           []byte
}

func (info *woffInfo) readExtra(b []byte, metaOffset, metaLength, metaOrigLength, privOffset, privLength uint32) error {
	if metaLength != 0 {
		if uint32(len(b)) < metaOffset || uint32(len(b))-metaOffset < metaLength {
			return fmt.Errorf("metadata: %w", ErrInvalidFontData)
		}
		info.meta = append([]byte{}, b[metaOffset:metaOffset+metaLength]...)
		info.metaOrigLength = metaOrigLength
	}
	if privLength != 0 {
		if uint32(len(b)) < privOffset || uint32(len(b))-privOffset < privLength {
			return fmt.Errorf("private data: %w", ErrInvalidFontData)
		}
		info.priv = append([]byte{}, b[privOffset:privOffset+privLength]...)
	}
	return nil
}

// parseWOFF parses the WOFF font format and returns the flavor and tables of its contained SFNT font. See https://www.w3.org/TR/WOFF/
func parseWOFF(b []byte) (string, map[string][]byte, *woffInfo, error) {
	if len(b) < 44 {
		return "", nil, nil, ErrInvalidFontData
	}

	r := parse.NewBinaryReaderBytes(b)
	signature := r.ReadString(4)
	if signature != "wOFF" {
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
	totalSfntSize := r.ReadUint32()
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
	} else if uint32(len(b))-44 < 20*uint32(numTables) {
		return "", nil, nil, ErrInvalidFontData
	} else if MaxMemory < totalSfntSize {
		return "", nil, nil, ErrExceedsMemory
	}

	var uncompressedSize uint32
	tables := make(map[string][]byte, numTables)
	for i := 0; i < int(numTables); i++ {
		tag := r.ReadString(4)
		offset := r.ReadUint32()
		compLength := r.ReadUint32()
		origLength := r.ReadUint32()
		_ = r.ReadUint32() // origChecksum

		if uint32(len(b)) <= offset || uint32(len(b))-offset < compLength {
			return "", nil, nil, ErrInvalidFontData
		} else if origLength < compLength {
			return "", nil, nil, fmt.Errorf("%s: compLength must not exceed origLength", tag)
		} else if _, ok := tables[tag]; ok {
			return "", nil, nil, fmt.Errorf("%s: table defined more than once", tag)
		} else if MaxMemory-uncompressedSize < origLength {
			return "", nil, nil, ErrExceedsMemory
		}
		uncompressedSize += origLength

		data := b[offset : offset+compLength : offset+compLength]
		if compLength < origLength {
			var err error
			if data, err = zlibDecompress(data, origLength); err != nil {
				return "", nil, nil, fmt.Errorf("%s: %w", tag, err)
			}
		}
		tables[tag] = data
	}

	if err := info.readExtra(b, metaOffset, metaLength, metaOrigLength, privOffset, privLength); err != nil {
		return "", nil, nil, err
	}
	return flavor, tables, info, nil
}

func zlibDecompress(b []byte, n uint32) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	data := make([]byte, n)
	if _, err := io.ReadFull(r, data); err != nil {
		r.Close()
		return nil, err
	} else if err := r.Close(); err != nil {
		return nil, err
	}
	return data, nil
}

func zlibCompress(b []byte) ([]byte, error) {
	buf := &bytes.Buffer{}
	w, err := zlib.NewWriterLevel(buf, zlib.BestCompression)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(b); err != nil {
		w.Close()
		return nil, err
	} else if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// tableChecksum returns the checksum of a table as recorded in the table directory, for the head table that is with a zero checkSumAdjustment.
func tableChecksum(tag string, table []byte) uint32 {
	if tag == "head" && 12 <= len(table) {
		head := make([]byte, len(table))
		copy(head, table)
		head[8], head[9], head[10], head[11] = 0, 0, 0, 0
		table = head
	}
	return calcChecksum(table)
}

// writeWOFF wraps an SFNT font file in the WOFF format, where every table that gets smaller is compressed.
func writeWOFF(b []byte, info *woffInfo) ([]byte, error) {
	flavor, tables, err := readTableDirectory(b)
	if err != nil {
		return nil, err
	}
	if info == nil {
		info = &woffInfo{majorVersion: 1}
	}
	tags := maps.Keys(tables)
	slices.Sort(tags)

	datas := make([][]byte, len(tags))
	for i, tag := range tags {
		data, err := zlibCompress(tables[tag])
		if err != nil {
			return nil, err
		} else if len(tables[tag]) <= len(data) {
			data = tables[tag]
		}
		datas[i] = data
	}

	// lay out table data, metadata and private data on four byte boundaries
	offset := 44 + 20*uint32(len(tags))
	offsets := make([]uint32, len(tags))
	for i := range datas {
		offset += padding(offset)
		offsets[i] = offset
		offset += uint32(len(datas[i]))
	}
	var metaOffset, privOffset uint32
	if info.meta != nil {
		offset += padding(offset)
		metaOffset = offset
		offset += uint32(len(info.meta))
	}
	if info.priv != nil {
		offset += padding(offset)
		privOffset = offset
		offset += uint32(len(info.priv))
	}

	w := parse.NewBinaryWriter(make([]byte, 0, offset))
	w.WriteString("wOFF")                 // signature
	w.WriteString(flavor)                 // flavor
	w.WriteUint32(offset)                 // length
	w.WriteUint16(uint16(len(tags)))      // numTables
	w.WriteUint16(0)                      // reserved
	w.WriteUint32(uint32(len(b)))         // totalSfntSize
	w.WriteUint16(info.majorVersion)      // majorVersion
	w.WriteUint16(info.minorVersion)      // minorVersion
	w.WriteUint32(metaOffset)             // metaOffset
	w.WriteUint32(uint32(len(info.meta))) // metaLength
	w.WriteUint32(info.metaOrigLength)    // metaOrigLength
	w.WriteUint32(privOffset)             // privOffset
	w.WriteUint32(uint32(len(info.priv))) // privLength
	for i, tag := range tags {
		w.WriteString(tag)
		w.WriteUint32(offsets[i])
		w.WriteUint32(uint32(len(datas[i])))
		w.WriteUint32(uint32(len(tables[tag])))
		w.WriteUint32(tableChecksum(tag, tables[tag]))
	}
	for _, data := range datas {
		writePadding(w)
		w.WriteBytes(data)
	}
	if info.meta != nil {
		writePadding(w)
		w.WriteBytes(info.meta)
	}
	if info.priv != nil {
		writePadding(w)
		w.WriteBytes(info.priv)
	}
	return w.Bytes(), nil
}

func writePadding(w *parse.BinaryWriter) {
	n := padding(uint32(w.Len()))
	for i := uint32(0); i < n; i++ {
		w.WriteByte(0)
	}
}
