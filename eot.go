package panose

import (
	"encoding/binary"
	"fmt"

	"github.com/tdewolff/parse/v2"
)

// eotInfo holds the EOT header that precedes the font data.
type eotInfo struct {
	header []byte
	flags  uint32
}

func (info *eotInfo) isXORed() bool {
	return info.flags&0x10000000 != 0
}

// parseEOT parses the EOT font format and returns its contained SFNT font file (TTF or OTF). See https://www.w3.org/Submission/EOT/
func parseEOT(b []byte) ([]byte, *eotInfo, error) {
	if len(b) < 82 {
		return nil, nil, ErrInvalidFontData
	}

	r := parse.NewBinaryReaderBytes(b)
	r.ByteOrder = binary.LittleEndian
	_ = r.ReadUint32()             // EOTSize
	fontDataSize := r.ReadUint32() // FontDataSize
	version := r.ReadUint32()      // Version
	if version != 0x00010000 && version != 0x00020001 && version != 0x00020002 {
		return nil, nil, fmt.Errorf("unsupported version")
	}
	flags := r.ReadUint32()       // Flags
	_ = r.ReadBytes(10)           // FontPANOSE
	_ = r.ReadUint8()             // Charset
	_ = r.ReadUint8()             // Italic
	_ = r.ReadUint32()            // Weight
	_ = r.ReadUint16()            // fsType
	magicNumber := r.ReadUint16() // MagicNumber
	if magicNumber != 0x504C {
		return nil, nil, fmt.Errorf("invalid magic number")
	}
	_ = r.ReadBytes(24) // Unicode and CodePage ranges
	_ = r.ReadUint32()  // CheckSumAdjustment
	_ = r.ReadBytes(16) // Reserved
	_ = r.ReadUint16()  // Padding1

	// FamilyName, StyleName, VersionName and FullName, each but the last followed by padding
	for i := 0; i < 4; i++ {
		if r.Len() < 2 {
			return nil, nil, ErrInvalidFontData
		}
		n := int64(r.ReadUint16())
		if i < 3 {
			n += 2
		}
		if r.Len() < n {
			return nil, nil, ErrInvalidFontData
		}
		_ = r.ReadBytes(n)
	}

	if version == 0x00020001 || version == 0x00020002 {
		if r.Len() < 4 {
			return nil, nil, ErrInvalidFontData
		}
		_ = r.ReadUint16()                      // Padding5
		rootStringSize := int64(r.ReadUint16()) // RootStringSize
		if r.Len() < rootStringSize {
			return nil, nil, ErrInvalidFontData
		}
		_ = r.ReadBytes(rootStringSize) // RootString
	}
	if version == 0x00020002 {
		if r.Len() < 12 {
			return nil, nil, ErrInvalidFontData
		}
		_ = r.ReadUint32()                     // RootStringCheckSum
		_ = r.ReadUint32()                     // EUDCCodePage
		_ = r.ReadUint16()                     // Padding6
		signatureSize := int64(r.ReadUint16()) // SignatureSize
		if r.Len() < signatureSize+8 {
			return nil, nil, ErrInvalidFontData
		}
		_ = r.ReadBytes(signatureSize)        // Signature
		_ = r.ReadUint32()                    // EUDCFlags
		eudcFontSize := int64(r.ReadUint32()) // EUDCFontSize
		if r.Len() < eudcFontSize {
			return nil, nil, ErrInvalidFontData
		}
		_ = r.ReadBytes(eudcFontSize) // EUDCFontData
	}

	n := r.Pos()
	if r.Len() < int64(fontDataSize) {
		return nil, nil, ErrInvalidFontData
	}
	fontData := r.ReadBytes(int64(fontDataSize))

	info := &eotInfo{
		header: append([]byte{}, b[:n]...),
		flags:  flags,
	}
	if flags&0x00000004 != 0 {
		// TODO: (EOT) see https://www.w3.org/Submission/MTX/
		return nil, nil, fmt.Errorf("EOT compression not supported")
	}

	fontData = append([]byte{}, fontData...)
	if info.isXORed() {
		for i := 0; i < len(fontData); i++ {
			fontData[i] ^= 0x50
		}
	}
	return fontData, info, nil
}

// writeEOT replaces the font data of the EOT file and updates the FontPANOSE and CheckSumAdjustment fields of its header.
func writeEOT(info *eotInfo, sfnt []byte, panose Panose) ([]byte, error) {
	_, tables, err := readTableDirectory(sfnt)
	if err != nil {
		return nil, err
	}
	head, ok := tables["head"]
	if !ok || len(head) < 12 {
		return nil, fmt.Errorf("head: missing table")
	}

	b := make([]byte, 0, len(info.header)+len(sfnt))
	b = append(b, info.header...)
	b = append(b, sfnt...)
	if info.isXORed() {
		for i := len(info.header); i < len(b); i++ {
			b[i] ^= 0x50
		}
	}

	binary.LittleEndian.PutUint32(b[0:], uint32(len(b)))    // EOTSize
	binary.LittleEndian.PutUint32(b[4:], uint32(len(sfnt))) // FontDataSize
	fontPanose := panose.Bytes()
	copy(b[16:26], fontPanose[:]) // FontPANOSE

	// CheckSumAdjustment is taken from the head table
	binary.LittleEndian.PutUint32(b[60:], binary.BigEndian.Uint32(head[8:]))
	return b, nil
}
