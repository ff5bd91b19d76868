package idl

import (
	"fmt"

	"github.com/goccy/go-json"
)

// Type is one declared argument or event field type. Scalar types arrive as
// plain JSON strings ("u64", "publicKey", ...); compound types arrive as
// single-key objects, of which only fixed u8 arrays are supported here.
type Type struct {
	Simple string
	Array  *ArrayType
}

type ArrayType struct {
	Elem string
	Len  int
}

func (t *Type) UnmarshalJSON(b []byte) error {
	var simple string
	if err := json.Unmarshal(b, &simple); err == nil {
		t.Simple = simple
		return nil
	}

	var compound struct {
		Array []json.RawMessage `json:"array"`
	}

	if err := json.Unmarshal(b, &compound); err != nil {
		return fmt.Errorf("%w: unsupported type %s", ErrDecoding, string(b))
	}

	if len(compound.Array) != 2 {
		return fmt.Errorf("%w: unsupported compound type %s", ErrDecoding, string(b))
	}

	arr := &ArrayType{}
	if err := json.Unmarshal(compound.Array[0], &arr.Elem); err != nil {
		return fmt.Errorf("%w: unsupported array element in %s", ErrDecoding, string(b))
	}

	if err := json.Unmarshal(compound.Array[1], &arr.Len); err != nil {
		return fmt.Errorf("%w: unsupported array length in %s", ErrDecoding, string(b))
	}

	t.Array = arr

	return nil
}

func (t Type) MarshalJSON() ([]byte, error) {
	if t.Array != nil {
		return json.Marshal(map[string][]interface{}{
			"array": {t.Array.Elem, t.Array.Len},
		})
	}

	return json.Marshal(t.Simple)
}

func (t Type) String() string {
	if t.Array != nil {
		return fmt.Sprintf("[%s; %d]", t.Array.Elem, t.Array.Len)
	}

	return t.Simple
}
