package bert

// External term format tags supported by the codec.
const (
	TagVersion       byte = 131 // external format version magic
	TagCompressed    byte = 80  // zlib envelope: uint32 size + deflate data
	TagSmallInteger  byte = 97  // uint8
	TagInteger       byte = 98  // int32
	TagAtom          byte = 100 // uint16 length + Latin-1 bytes
	TagSmallTuple    byte = 104 // uint8 arity
	TagLargeTuple    byte = 105 // uint32 arity
	TagNil           byte = 106 // empty list, no payload
	TagString        byte = 107 // uint16 length + bytes
	TagList          byte = 108 // uint32 count + elements + tail
	TagBinary        byte = 109 // uint32 length + bytes
	TagSmallAtom     byte = 115 // uint8 length + Latin-1 bytes
	TagAtomUTF8      byte = 118 // uint16 length + UTF-8 bytes
	TagSmallAtomUTF8 byte = 119 // uint8 length + UTF-8 bytes
)

// Wire limits of the length and arity fields.
const (
	MaxSmallTuple  = 0xff
	MaxSmallAtom   = 0xff
	MaxAtom        = 0xffff
	MaxString      = 0xffff
	MaxSmallInt    = 0xff
	MaxLengthField = 0xffffffff
)

// Decoder defaults.
const (
	DefaultMaxDepth    = 512
	DefaultMaxElements = 1 << 20
)

// TagName returns a readable name for a tag byte.
func TagName(tag byte) string {
	switch tag {
	case TagVersion:
		return "VERSION"
	case TagCompressed:
		return "COMPRESSED"
	case TagSmallInteger:
		return "SMALL_INTEGER_EXT"
	case TagInteger:
		return "INTEGER_EXT"
	case TagAtom:
		return "ATOM_EXT"
	case TagSmallTuple:
		return "SMALL_TUPLE_EXT"
	case TagLargeTuple:
		return "LARGE_TUPLE_EXT"
	case TagNil:
		return "NIL_EXT"
	case TagString:
		return "STRING_EXT"
	case TagList:
		return "LIST_EXT"
	case TagBinary:
		return "BINARY_EXT"
	case TagSmallAtom:
		return "SMALL_ATOM_EXT"
	case TagAtomUTF8:
		return "ATOM_UTF8_EXT"
	case TagSmallAtomUTF8:
		return "SMALL_ATOM_UTF8_EXT"
	default:
		return "UNKNOWN"
	}
}
