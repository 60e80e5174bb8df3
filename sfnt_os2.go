package panose

import (
	"fmt"

	"github.com/tdewolff/parse/v2"
)

// Panose is the PANOSE classification as stored in the OS/2 table, see https://monotype.github.io/panose/.
type Panose struct {
	BFamilyType      uint8
	BSerifStyle      uint8
	BWeight          uint8
	BProportion      uint8
	BContrast        uint8
	BStrokeVariation uint8
	BArmStyle        uint8
	BLetterform      uint8
	BMidline         uint8
	BXHeight         uint8
}

// PanoseFromBytes returns the classification for the ten bytes in field order.
func PanoseFromBytes(b [NumFields]byte) Panose {
	p := Panose{}
	for f := Field(0); f < NumFields; f++ {
		p.Set(f, b[f])
	}
	return p
}

func (p *Panose) field(f Field) *uint8 {
	switch f {
	case FamilyType:
		return &p.BFamilyType
	case SerifStyle:
		return &p.BSerifStyle
	case Weight:
		return &p.BWeight
	case Proportion:
		return &p.BProportion
	case Contrast:
		return &p.BContrast
	case StrokeVariation:
		return &p.BStrokeVariation
	case ArmStyle:
		return &p.BArmStyle
	case Letterform:
		return &p.BLetterform
	case Midline:
		return &p.BMidline
	case XHeight:
		return &p.BXHeight
	}
	return nil
}

// Get returns the value of a field. It returns zero for an unknown field.
func (p Panose) Get(f Field) uint8 {
	if v := p.field(f); v != nil {
		return *v
	}
	return 0
}

// Set sets the value of a field.
func (p *Panose) Set(f Field, v uint8) {
	if dst := p.field(f); dst != nil {
		*dst = v
	}
}

// Bytes returns the ten bytes in field order.
func (p Panose) Bytes() [NumFields]byte {
	var b [NumFields]byte
	for f := Field(0); f < NumFields; f++ {
		b[f] = p.Get(f)
	}
	return b
}

func (p Panose) String() string {
	b := p.Bytes()
	return fmt.Sprintf("%d,%d,%d,%d,%d,%d,%d,%d,%d,%d", b[0], b[1], b[2], b[3], b[4], b[5], b[6], b[7], b[8], b[9])
}

////////////////////////////////////////////////////////////////

// minimum table lengths per version
var os2Lengths = [6]int{68, 86, 96, 96, 96, 100}

type os2Table struct {
	Version                 uint16
	XAvgCharWidth           int16
	UsWeightClass           uint16
	UsWidthClass            uint16
	FsType                  uint16
	YSubscriptXSize         int16
	YSubscriptYSize         int16
	YSubscriptXOffset       int16
	YSubscriptYOffset       int16
	YSuperscriptXSize       int16
	YSuperscriptYSize       int16
	YSuperscriptXOffset     int16
	YSuperscriptYOffset     int16
	YStrikeoutSize          int16
	YStrikeoutPosition      int16
	SFamilyClass            int16
	Panose                  Panose
	UlUnicodeRange1         uint32
	UlUnicodeRange2         uint32
	UlUnicodeRange3         uint32
	UlUnicodeRange4         uint32
	AchVendID               [4]byte
	FsSelection             uint16
	UsFirstCharIndex        uint16
	UsLastCharIndex         uint16
	STypoAscender           int16
	STypoDescender          int16
	STypoLineGap            int16
	UsWinAscent             uint16
	UsWinDescent            uint16
	UlCodePageRange1        uint32
	UlCodePageRange2        uint32
	SxHeight                int16
	SCapHeight              int16
	UsDefaultChar           uint16
	UsBreakChar             uint16
	UsMaxContent            uint16
	UsLowerOpticalPointSize uint16
	UsUpperOpticalPointSize uint16

	hasTypoMetrics bool   // version 0 tables may end before sTypoAscender
	trailing       []byte // bytes after the fields of the version
}

func (sfnt *SFNT) parseOS2() error {
	b, ok := sfnt.Tables["OS/2"]
	if !ok {
		return fmt.Errorf("OS/2: missing table")
	} else if len(b) < 68 {
		return fmt.Errorf("OS/2: bad table")
	}

	r := parse.NewBinaryReaderBytes(b)
	os2 := &os2Table{}
	os2.Version = r.ReadUint16()
	if 5 < os2.Version {
		return fmt.Errorf("OS/2: bad version")
	} else if len(b) < os2Lengths[os2.Version] {
		return fmt.Errorf("OS/2: bad table")
	}
	os2.XAvgCharWidth = r.ReadInt16()
	os2.UsWeightClass = r.ReadUint16()
	os2.UsWidthClass = r.ReadUint16()
	os2.FsType = r.ReadUint16()
	os2.YSubscriptXSize = r.ReadInt16()
	os2.YSubscriptYSize = r.ReadInt16()
	os2.YSubscriptXOffset = r.ReadInt16()
	os2.YSubscriptYOffset = r.ReadInt16()
	os2.YSuperscriptXSize = r.ReadInt16()
	os2.YSuperscriptYSize = r.ReadInt16()
	os2.YSuperscriptXOffset = r.ReadInt16()
	os2.YSuperscriptYOffset = r.ReadInt16()
	os2.YStrikeoutSize = r.ReadInt16()
	os2.YStrikeoutPosition = r.ReadInt16()
	os2.SFamilyClass = r.ReadInt16()
	os2.Panose.BFamilyType = r.ReadUint8()
	os2.Panose.BSerifStyle = r.ReadUint8()
	os2.Panose.BWeight = r.ReadUint8()
	os2.Panose.BProportion = r.ReadUint8()
	os2.Panose.BContrast = r.ReadUint8()
	os2.Panose.BStrokeVariation = r.ReadUint8()
	os2.Panose.BArmStyle = r.ReadUint8()
	os2.Panose.BLetterform = r.ReadUint8()
	os2.Panose.BMidline = r.ReadUint8()
	os2.Panose.BXHeight = r.ReadUint8()
	os2.UlUnicodeRange1 = r.ReadUint32()
	os2.UlUnicodeRange2 = r.ReadUint32()
	os2.UlUnicodeRange3 = r.ReadUint32()
	os2.UlUnicodeRange4 = r.ReadUint32()
	copy(os2.AchVendID[:], r.ReadBytes(4))
	os2.FsSelection = r.ReadUint16()
	os2.UsFirstCharIndex = r.ReadUint16()
	os2.UsLastCharIndex = r.ReadUint16()
	n := 68
	if 0 < os2.Version || 78 <= len(b) {
		os2.hasTypoMetrics = true
		os2.STypoAscender = r.ReadInt16()
		os2.STypoDescender = r.ReadInt16()
		os2.STypoLineGap = r.ReadInt16()
		os2.UsWinAscent = r.ReadUint16()
		os2.UsWinDescent = r.ReadUint16()
		n = 78
	}
	if 1 <= os2.Version {
		os2.UlCodePageRange1 = r.ReadUint32()
		os2.UlCodePageRange2 = r.ReadUint32()
		n = 86
	}
	if 2 <= os2.Version {
		os2.SxHeight = r.ReadInt16()
		os2.SCapHeight = r.ReadInt16()
		os2.UsDefaultChar = r.ReadUint16()
		os2.UsBreakChar = r.ReadUint16()
		os2.UsMaxContent = r.ReadUint16()
		n = 96
	}
	if 5 <= os2.Version {
		os2.UsLowerOpticalPointSize = r.ReadUint16()
		os2.UsUpperOpticalPointSize = r.ReadUint16()
		n = 100
	}
	if n < len(b) {
		os2.trailing = append([]byte{}, b[n:]...)
	}
	sfnt.OS2 = os2
	return nil
}

// Write encodes the table for its version, followed by any trailing bytes of the parsed table.
func (os2 *os2Table) Write() []byte {
	w := parse.NewBinaryWriter(make([]byte, 0, 100+len(os2.trailing)))
	w.WriteUint16(os2.Version)
	w.WriteInt16(os2.XAvgCharWidth)
	w.WriteUint16(os2.UsWeightClass)
	w.WriteUint16(os2.UsWidthClass)
	w.WriteUint16(os2.FsType)
	w.WriteInt16(os2.YSubscriptXSize)
	w.WriteInt16(os2.YSubscriptYSize)
	w.WriteInt16(os2.YSubscriptXOffset)
	w.WriteInt16(os2.YSubscriptYOffset)
	w.WriteInt16(os2.YSuperscriptXSize)
	w.WriteInt16(os2.YSuperscriptYSize)
	w.WriteInt16(os2.YSuperscriptXOffset)
	w.WriteInt16(os2.YSuperscriptYOffset)
	w.WriteInt16(os2.YStrikeoutSize)
	w.WriteInt16(os2.YStrikeoutPosition)
	w.WriteInt16(os2.SFamilyClass)
	panose := os2.Panose.Bytes()
	w.WriteBytes(panose[:])
	w.WriteUint32(os2.UlUnicodeRange1)
	w.WriteUint32(os2.UlUnicodeRange2)
	w.WriteUint32(os2.UlUnicodeRange3)
	w.WriteUint32(os2.UlUnicodeRange4)
	w.WriteBytes(os2.AchVendID[:])
	w.WriteUint16(os2.FsSelection)
	w.WriteUint16(os2.UsFirstCharIndex)
	w.WriteUint16(os2.UsLastCharIndex)
	if os2.hasTypoMetrics {
		w.WriteInt16(os2.STypoAscender)
		w.WriteInt16(os2.STypoDescender)
		w.WriteInt16(os2.STypoLineGap)
		w.WriteUint16(os2.UsWinAscent)
		w.WriteUint16(os2.UsWinDescent)
	}
	if 1 <= os2.Version {
		w.WriteUint32(os2.UlCodePageRange1)
		w.WriteUint32(os2.UlCodePageRange2)
	}
	if 2 <= os2.Version {
		w.WriteInt16(os2.SxHeight)
		w.WriteInt16(os2.SCapHeight)
		w.WriteUint16(os2.UsDefaultChar)
		w.WriteUint16(os2.UsBreakChar)
		w.WriteUint16(os2.UsMaxContent)
	}
	if 5 <= os2.Version {
		w.WriteUint16(os2.UsLowerOpticalPointSize)
		w.WriteUint16(os2.UsUpperOpticalPointSize)
	}
	w.WriteBytes(os2.trailing)
	return w.Bytes()
}
