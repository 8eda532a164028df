// Package predicate treats a scan's expression as an opaque function
// from (record, schema) to a boolean result. It is intentionally thin:
// scans accept any EvalFunc, and this package supplies one concrete,
// minimal implementation (single-attribute equality) so tests have
// something real to pass.
package predicate

import "github.com/htdao/slotdb/internal/schema"

// EvalFunc decides whether r matches an expression, given the schema it
// was encoded under. A nil EvalFunc means "match everything".
type EvalFunc func(r *schema.Record, s *schema.Schema) (bool, error)

// Equals returns an EvalFunc matching records whose attribute attrIdx
// equals want.
func Equals(attrIdx int, want schema.Value) EvalFunc {
	return func(r *schema.Record, s *schema.Schema) (bool, error) {
		got, err := s.GetValue(r, attrIdx)
		if err != nil {
			return false, err
		}
		if got.Type != want.Type {
			return false, schema.ErrAttrTypeMismatch
		}
		switch got.Type {
		case schema.Int:
			return got.Int == want.Int, nil
		case schema.Float:
			return got.Float == want.Float, nil
		case schema.String:
			return got.String == want.String, nil
		case schema.Bool:
			return got.Bool == want.Bool, nil
		default:
			return false, schema.ErrUnsupportedDataType
		}
	}
}

// And combines EvalFuncs with short-circuiting conjunction.
func And(fns ...EvalFunc) EvalFunc {
	return func(r *schema.Record, s *schema.Schema) (bool, error) {
		for _, fn := range fns {
			if fn == nil {
				continue
			}
			ok, err := fn(r, s)
			if err != nil {
				return false, err
			}
			if !ok {
				return false, nil
			}
		}
		return true, nil
	}
}
