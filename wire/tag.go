// Package wire defines forma's on-the-wire type-tag table and the 4-byte
// header envelope. The tag table is closed and stable: adding a type means
// allocating a new positive Tag value; changing what bytes an existing Tag
// emits is a wire-breaking change.
package wire

// Tag is the signed 8-bit type identifier at the head of every encoded
// value. Zero is reserved. Positive values are built-in types (this file).
// Negative values address user-registered extension types: Tag(-k)
// corresponds to custom id k in [1,128].
type Tag int8

// Canonical built-in tag assignments. Do not reuse or renumber these.
const (
	TagReserved Tag = 0

	TagByteArray              Tag = 2
	TagNull                   Tag = 3
	TagBool                   Tag = 4
	TagTextFallback           Tag = 5
	TagOpaque                 Tag = 6

	TagChar   Tag = 10
	TagString Tag = 13
	TagName   Tag = 14

	TagList          Tag = 20
	TagVector        Tag = 21
	TagSet           Tag = 23
	TagGenericSeq    Tag = 24
	TagMetaSentinel  Tag = 25
	TagQueue         Tag = 26
	TagMap           Tag = 27
	TagSortedSet     Tag = 28
	TagSortedMap     Tag = 29

	TagInt8     Tag = 40
	TagInt16    Tag = 41
	TagInt32    Tag = 42
	TagInt64    Tag = 43
	TagBigInt   Tag = 44
	TagBigInt2  Tag = 45 // alternate big-integer framing, decode-only

	TagFloat32  Tag = 60
	TagFloat64  Tag = 61
	TagDecimal  Tag = 62
	TagRational Tag = 70

	TagRecord Tag = 80

	TagCalendarDate Tag = 90
	TagUUID         Tag = 91

	TagInt64As8  Tag = 100
	TagInt64As16 Tag = 101
	TagInt64As32 Tag = 102

	TagSmallString Tag = 105
	TagSmallName   Tag = 106

	// Compact (count-omitted) collection tags for 0-3 element sequences and
	// timestamp variants occupy the 110-125 range.
	TagEmptyVector Tag = 110
	TagVector1     Tag = 111
	TagVector2     Tag = 112
	TagVector3     Tag = 113

	TagEmptyList Tag = 114
	TagList1     Tag = 115
	TagList2     Tag = 116
	TagList3     Tag = 117

	TagInstant  Tag = 120
	TagDuration Tag = 121
	TagPeriod   Tag = 122

	// TagSymbolicExtension marks a user-registered custom type addressed
	// by name rather than by integer id: a length-prefixed UTF-8 name
	// immediately follows this tag, then the encoder's body. It occupies
	// a namespace separate from the integer extension tags below — a
	// symbolic name and an integer id never collide, even if chosen to
	// "look the same" (e.g. name "7" vs id 7).
	TagSymbolicExtension Tag = 125

	// MinExtensionTag/MaxExtensionTag bound the user-extension tag space
	// (Tag(-128)..Tag(-1), inclusive).
	MinExtensionTag Tag = -128
	MaxExtensionTag Tag = -1
)

// IsExtension reports whether t addresses a user-registered custom type.
func (t Tag) IsExtension() bool {
	return t < 0
}

// CustomID converts an extension Tag to its [1,128] custom id.
func (t Tag) CustomID() int {
	return -int(t)
}

// ExtensionTag converts a custom id in [1,128] to its wire Tag.
func ExtensionTag(id int) Tag {
	return Tag(-id)
}

// SmallLenThreshold is the compact-form threshold: strings
// and names of at most this many UTF-8 bytes use the single-byte-length
// "small" tag variant instead of the 4-byte-length general one.
const SmallLenThreshold = 127
