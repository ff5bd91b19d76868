// Package encoding translates resolved call values into program instruction
// data and program log output back into structured emitted events, following
// the Borsh wire convention the target runtime uses.
package encoding

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math/big"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/pkg/errors"

	"github.com/ra-sun-god/rocket-anchor/pkg/idl"
)

var (
	ErrArgCount    = fmt.Errorf("argument count mismatch")
	ErrArgType     = fmt.Errorf("argument type mismatch")
	ErrArgRange    = fmt.Errorf("argument out of range")
	ErrUnsupported = fmt.Errorf("unsupported interface type")
)

// EncodeInstructionData produces the full data payload for one call: the
// entry point's discriminator followed by the arguments encoded positionally
// against their declared types.
func EncodeInstructionData(ins idl.Instruction, args []interface{}) ([]byte, error) {
	if len(args) != len(ins.Args) {
		return nil, fmt.Errorf("%w: %s declares %d arguments, got %d",
			ErrArgCount, ins.Name, len(ins.Args), len(args))
	}

	buf := new(bytes.Buffer)
	buf.Write(idl.InstructionDiscriminator(ins.Name))

	enc := bin.NewBorshEncoder(buf)

	for i, field := range ins.Args {
		if err := encodeValue(enc, field.Type, args[i]); err != nil {
			return nil, errors.Wrapf(err, "argument %d (%s)", i, field.Name)
		}
	}

	return buf.Bytes(), nil
}

func encodeValue(enc *bin.Encoder, typ idl.Type, value interface{}) error {
	if typ.Array != nil {
		return encodeArray(enc, *typ.Array, value)
	}

	switch typ.Simple {
	case "u8", "u16", "u32", "u64", "i8", "i16", "i32", "i64":
		n, ok := value.(*big.Int)
		if !ok {
			return fmt.Errorf("%w: expected numeric for %s, got %T", ErrArgType, typ.Simple, value)
		}

		return encodeInteger(enc, typ.Simple, n)
	case "bool":
		b, ok := value.(bool)
		if !ok {
			return fmt.Errorf("%w: expected bool, got %T", ErrArgType, value)
		}

		if b {
			return enc.WriteByte(1)
		}

		return enc.WriteByte(0)
	case "string":
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("%w: expected string, got %T", ErrArgType, value)
		}

		return writeLengthPrefixed(enc, []byte(s))
	case "publicKey", "pubkey":
		key, ok := value.(solana.PublicKey)
		if !ok {
			return fmt.Errorf("%w: expected public key, got %T", ErrArgType, value)
		}

		return enc.WriteBytes(key.Bytes(), false)
	case "bytes":
		raw, err := toBytes(value)
		if err != nil {
			return err
		}

		return writeLengthPrefixed(enc, raw)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupported, typ.Simple)
	}
}

func encodeArray(enc *bin.Encoder, arr idl.ArrayType, value interface{}) error {
	if arr.Elem != "u8" {
		return fmt.Errorf("%w: [%s; %d]", ErrUnsupported, arr.Elem, arr.Len)
	}

	raw, err := toBytes(value)
	if err != nil {
		return err
	}

	if len(raw) != arr.Len {
		return fmt.Errorf("%w: expected %d bytes, got %d", ErrArgType, arr.Len, len(raw))
	}

	return enc.WriteBytes(raw, false)
}

func encodeInteger(enc *bin.Encoder, kind string, n *big.Int) error {
	if !fitsInteger(kind, n) {
		return fmt.Errorf("%w: %s cannot hold %s", ErrArgRange, kind, n.String())
	}

	switch kind {
	case "u8":
		return enc.WriteByte(byte(n.Uint64()))
	case "u16":
		return enc.WriteUint16(uint16(n.Uint64()), binary.LittleEndian)
	case "u32":
		return enc.WriteUint32(uint32(n.Uint64()), binary.LittleEndian)
	case "u64":
		return enc.WriteUint64(n.Uint64(), binary.LittleEndian)
	case "i8":
		return enc.WriteByte(byte(int8(n.Int64())))
	case "i16":
		return enc.WriteInt16(int16(n.Int64()), binary.LittleEndian)
	case "i32":
		return enc.WriteInt32(int32(n.Int64()), binary.LittleEndian)
	case "i64":
		return enc.WriteInt64(n.Int64(), binary.LittleEndian)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupported, kind)
	}
}

var integerBounds = map[string][2]*big.Int{
	"u8":  {big.NewInt(0), big.NewInt(1<<8 - 1)},
	"u16": {big.NewInt(0), big.NewInt(1<<16 - 1)},
	"u32": {big.NewInt(0), big.NewInt(1<<32 - 1)},
	"u64": {big.NewInt(0), new(big.Int).SetUint64(^uint64(0))},
	"i8":  {big.NewInt(-1 << 7), big.NewInt(1<<7 - 1)},
	"i16": {big.NewInt(-1 << 15), big.NewInt(1<<15 - 1)},
	"i32": {big.NewInt(-1 << 31), big.NewInt(1<<31 - 1)},
	"i64": {big.NewInt(-1 << 63), big.NewInt(1<<63 - 1)},
}

func fitsInteger(kind string, n *big.Int) bool {
	bounds, ok := integerBounds[kind]
	if !ok {
		return false
	}

	return n.Cmp(bounds[0]) >= 0 && n.Cmp(bounds[1]) <= 0
}

func writeLengthPrefixed(enc *bin.Encoder, raw []byte) error {
	if err := enc.WriteUint32(uint32(len(raw)), binary.LittleEndian); err != nil {
		return err
	}

	return enc.WriteBytes(raw, false)
}

func toBytes(value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, fmt.Errorf("%w: expected bytes, got %T", ErrArgType, value)
	}
}
