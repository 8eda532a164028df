package schema

import "github.com/htdao/slotdb/internal/bx"

// Value is a tagged union over the four scalar attribute types. The
// caller owns it independently of any Record.
type Value struct {
	Type   AttrType
	Int    int32
	Float  float64
	String string
	Bool   bool
}

func IntValue(v int32) Value      { return Value{Type: Int, Int: v} }
func FloatValue(v float64) Value  { return Value{Type: Float, Float: v} }
func StringValue(v string) Value  { return Value{Type: String, String: v} }
func BoolValue(v bool) Value      { return Value{Type: Bool, Bool: v} }

// Record is a schema-encoded tuple: Data is exactly RecordSize(schema)
// bytes.
type Record struct {
	ID   Rid
	Data []byte
}

// Rid identifies a record by its page and slot.
type Rid struct {
	Page int
	Slot int
}

// InvalidRid is the sentinel rid of a record that has not been inserted.
var InvalidRid = Rid{Page: -1, Slot: -1}

// NewRecord allocates a zeroed record payload sized for s.
func NewRecord(s *Schema) *Record {
	return &Record{ID: InvalidRid, Data: make([]byte, s.RecordSize())}
}

// SetValue encodes v into the attribute-i slot of r's payload.
func (s *Schema) SetValue(r *Record, i int, v Value) error {
	off, err := s.Offset(i)
	if err != nil {
		return err
	}
	if v.Type != s.DataTypes[i] {
		return ErrAttrTypeMismatch
	}
	switch v.Type {
	case Int:
		bx.PutI32(r.Data, off, v.Int)
	case Float:
		bx.PutF64(r.Data, off, v.Float)
	case String:
		width := s.TypeLength[i]
		buf := make([]byte, width)
		copy(buf, v.String)
		copy(r.Data[off:off+width], buf)
	case Bool:
		bx.PutBool(r.Data, off, v.Bool)
	default:
		return ErrUnsupportedDataType
	}
	return nil
}

// GetValue decodes the attribute-i value out of r's payload.
func (s *Schema) GetValue(r *Record, i int) (Value, error) {
	off, err := s.Offset(i)
	if err != nil {
		return Value{}, err
	}
	switch s.DataTypes[i] {
	case Int:
		return IntValue(bx.GetI32(r.Data, off)), nil
	case Float:
		return FloatValue(bx.GetF64(r.Data, off)), nil
	case String:
		width := s.TypeLength[i]
		raw := r.Data[off : off+width]
		n := 0
		for n < len(raw) && raw[n] != 0 {
			n++
		}
		return StringValue(string(raw[:n])), nil
	case Bool:
		return BoolValue(bx.GetBool(r.Data, off)), nil
	default:
		return Value{}, ErrUnsupportedDataType
	}
}
