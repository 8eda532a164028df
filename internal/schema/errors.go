package schema

import "errors"

var (
	// ErrPageFull is returned by Encode when the schema does not fit in
	// one page.
	ErrPageFull = errors.New("schema: encoded schema does not fit in one page")

	// ErrAttrIndexOutOfRange is returned by Offset/value accessors for an
	// attribute index outside [0, NumAttr).
	ErrAttrIndexOutOfRange = errors.New("schema: attribute index out of range")

	// ErrAttrTypeMismatch is returned when a Value's type does not match
	// the schema's declared type for that attribute.
	ErrAttrTypeMismatch = errors.New("schema: attribute type mismatch")

	// ErrUnsupportedDataType is returned for an AttrType outside the four
	// scalar kinds this module knows about.
	ErrUnsupportedDataType = errors.New("schema: unsupported data type")

	// ErrCorruptSchema is returned by Decode when page 0 does not contain
	// a well-formed schema encoding.
	ErrCorruptSchema = errors.New("schema: corrupt schema page")
)
