// Package schema implements the typed attribute list that describes a
// table's rows: the fixed-width record encoding and the schema-page
// byte layout stored on page 0 of every table file.
package schema

import (
	"fmt"

	"github.com/htdao/slotdb/internal/bx"
)

// AttrType is one of the four scalar data types a schema attribute may have.
type AttrType int32

const (
	Int AttrType = iota
	Float
	String
	Bool
)

func (t AttrType) String() string {
	switch t {
	case Int:
		return "INT"
	case Float:
		return "FLOAT"
	case String:
		return "STRING"
	case Bool:
		return "BOOL"
	default:
		return fmt.Sprintf("AttrType(%d)", int32(t))
	}
}

// sizeOf returns the fixed width of one value of type t, consulting
// typeLength only for String.
func sizeOf(t AttrType, typeLength int) (int, error) {
	switch t {
	case Int:
		return 4, nil
	case Float:
		return 8, nil
	case String:
		return typeLength, nil
	case Bool:
		return 1, nil
	default:
		return 0, fmt.Errorf("%w: %v", ErrUnsupportedDataType, t)
	}
}

// Schema describes a table's attributes.
type Schema struct {
	NumAttr    int
	AttrNames  []string
	DataTypes  []AttrType
	TypeLength []int
	KeyAttrs   []int
	KeySize    int

	offsets    []int
	recordSize int
}

// New builds a Schema from parallel attribute descriptions and computes
// its fixed-width record layout. len(attrNames) == len(dataTypes) ==
// len(typeLength) is required; typeLength is ignored for non-String
// attributes.
func New(attrNames []string, dataTypes []AttrType, typeLength []int, keyAttrs []int) (*Schema, error) {
	if len(attrNames) != len(dataTypes) || len(attrNames) != len(typeLength) {
		return nil, fmt.Errorf("schema: attrNames, dataTypes, typeLength must have equal length")
	}
	s := &Schema{
		NumAttr:    len(attrNames),
		AttrNames:  attrNames,
		DataTypes:  dataTypes,
		TypeLength: typeLength,
		KeyAttrs:   keyAttrs,
		KeySize:    len(keyAttrs),
	}
	if err := s.computeLayout(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Schema) computeLayout() error {
	s.offsets = make([]int, s.NumAttr)
	off := 0
	for i := 0; i < s.NumAttr; i++ {
		s.offsets[i] = off
		w, err := sizeOf(s.DataTypes[i], s.TypeLength[i])
		if err != nil {
			return err
		}
		off += w
	}
	s.recordSize = off
	return nil
}

// RecordSize returns the fixed byte width of an encoded record under this
// schema.
func (s *Schema) RecordSize() int {
	return s.recordSize
}

// Offset returns the byte offset of attribute i within a record's payload.
func (s *Schema) Offset(i int) (int, error) {
	if i < 0 || i >= s.NumAttr {
		return 0, ErrAttrIndexOutOfRange
	}
	return s.offsets[i], nil
}

// Encode writes the schema-page layout into page, which must be at
// least one full page long. Returns ErrPageFull if it does not fit.
func (s *Schema) Encode(page []byte) error {
	off := 0
	put := func(n int) error {
		if off+n > len(page) {
			return ErrPageFull
		}
		return nil
	}

	if err := put(4); err != nil {
		return err
	}
	bx.PutI32(page, off, int32(s.NumAttr))
	off += 4

	for _, name := range s.AttrNames {
		if err := put(len(name) + 1); err != nil {
			return err
		}
		off = bx.PutCString(page, off, name)
	}

	for _, dt := range s.DataTypes {
		if err := put(4); err != nil {
			return err
		}
		bx.PutI32(page, off, int32(dt))
		off += 4
	}

	for _, tl := range s.TypeLength {
		if err := put(4); err != nil {
			return err
		}
		bx.PutI32(page, off, int32(tl))
		off += 4
	}

	if err := put(4); err != nil {
		return err
	}
	bx.PutI32(page, off, int32(s.KeySize))
	off += 4

	for _, ka := range s.KeyAttrs {
		if err := put(4); err != nil {
			return err
		}
		bx.PutI32(page, off, int32(ka))
		off += 4
	}

	return nil
}

// Decode reads a schema-page encoding back out of page, the inverse of
// Encode.
func Decode(page []byte) (*Schema, error) {
	if len(page) < 4 {
		return nil, ErrCorruptSchema
	}
	off := 0
	numAttr := int(bx.GetI32(page, off))
	off += 4
	if numAttr < 0 || numAttr > len(page) {
		return nil, ErrCorruptSchema
	}

	names := make([]string, numAttr)
	for i := 0; i < numAttr; i++ {
		if off >= len(page) {
			return nil, ErrCorruptSchema
		}
		var name string
		name, off = bx.GetCString(page, off)
		names[i] = name
	}

	dataTypes := make([]AttrType, numAttr)
	for i := 0; i < numAttr; i++ {
		if off+4 > len(page) {
			return nil, ErrCorruptSchema
		}
		dataTypes[i] = AttrType(bx.GetI32(page, off))
		off += 4
	}

	typeLength := make([]int, numAttr)
	for i := 0; i < numAttr; i++ {
		if off+4 > len(page) {
			return nil, ErrCorruptSchema
		}
		typeLength[i] = int(bx.GetI32(page, off))
		off += 4
	}

	if off+4 > len(page) {
		return nil, ErrCorruptSchema
	}
	keySize := int(bx.GetI32(page, off))
	off += 4
	if keySize < 0 || keySize > numAttr {
		return nil, ErrCorruptSchema
	}

	keyAttrs := make([]int, keySize)
	for i := 0; i < keySize; i++ {
		if off+4 > len(page) {
			return nil, ErrCorruptSchema
		}
		keyAttrs[i] = int(bx.GetI32(page, off))
		off += 4
	}

	s := &Schema{
		NumAttr:    numAttr,
		AttrNames:  names,
		DataTypes:  dataTypes,
		TypeLength: typeLength,
		KeyAttrs:   keyAttrs,
		KeySize:    keySize,
	}
	if err := s.computeLayout(); err != nil {
		return nil, err
	}
	return s, nil
}
