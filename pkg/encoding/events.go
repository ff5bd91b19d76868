package encoding

import (
	"encoding/base64"
	"encoding/binary"
	"strings"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/pkg/errors"

	"github.com/ra-sun-god/rocket-anchor/pkg/idl"
)

// eventLogPrefix marks program log lines that carry an emitted-event payload.
const eventLogPrefix = "Program data: "

// DecodedEvent is one structured entry recovered from a confirmed
// transaction's log output. Fields keep their declared order.
type DecodedEvent struct {
	Name   string
	Fields []DecodedField
}

type DecodedField struct {
	Name  string
	Value interface{}
}

// Field returns a decoded field by name.
func (e DecodedEvent) Field(name string) (interface{}, bool) {
	for _, field := range e.Fields {
		if field.Name == name {
			return field.Value, true
		}
	}

	return nil, false
}

// ParseLogs scans a transaction's log lines for emitted events matching the
// program's declared event shapes. Lines that are not event payloads, carry
// an unknown discriminator, or fail to decode are skipped; event extraction
// is observational and never fails the call.
func ParseLogs(doc *idl.IDL, logs []string) []DecodedEvent {
	events := make([]DecodedEvent, 0)

	for _, line := range logs {
		if !strings.HasPrefix(line, eventLogPrefix) {
			continue
		}

		payload, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(line, eventLogPrefix))
		if err != nil || len(payload) < 8 {
			continue
		}

		evt, ok := doc.Event(payload[:8])
		if !ok {
			continue
		}

		decoded, err := DecodeEvent(evt, payload[8:])
		if err != nil {
			continue
		}

		events = append(events, decoded)
	}

	return events
}

// DecodeEvent decodes one event payload (discriminator already stripped)
// against its declared field list.
func DecodeEvent(evt idl.Event, payload []byte) (DecodedEvent, error) {
	dec := bin.NewBorshDecoder(payload)
	decoded := DecodedEvent{Name: evt.Name, Fields: make([]DecodedField, 0, len(evt.Fields))}

	for _, field := range evt.Fields {
		value, err := decodeValue(dec, field.Type)
		if err != nil {
			return decoded, errors.Wrapf(err, "event %s field %s", evt.Name, field.Name)
		}

		decoded.Fields = append(decoded.Fields, DecodedField{Name: field.Name, Value: value})
	}

	return decoded, nil
}

func decodeValue(dec *bin.Decoder, typ idl.Type) (interface{}, error) {
	if typ.Array != nil {
		if typ.Array.Elem != "u8" {
			return nil, errors.Wrapf(ErrUnsupported, "[%s; %d]", typ.Array.Elem, typ.Array.Len)
		}

		return dec.ReadNBytes(typ.Array.Len)
	}

	switch typ.Simple {
	case "u8":
		b, err := dec.ReadByte()
		return uint8(b), err
	case "u16":
		return dec.ReadUint16(binary.LittleEndian)
	case "u32":
		return dec.ReadUint32(binary.LittleEndian)
	case "u64":
		return dec.ReadUint64(binary.LittleEndian)
	case "i8":
		b, err := dec.ReadByte()
		return int8(b), err
	case "i16":
		return dec.ReadInt16(binary.LittleEndian)
	case "i32":
		return dec.ReadInt32(binary.LittleEndian)
	case "i64":
		return dec.ReadInt64(binary.LittleEndian)
	case "bool":
		b, err := dec.ReadByte()
		return b != 0, err
	case "string":
		return readLengthPrefixedString(dec)
	case "publicKey", "pubkey":
		raw, err := dec.ReadNBytes(32)
		if err != nil {
			return nil, err
		}

		return solana.PublicKeyFromBytes(raw), nil
	case "bytes":
		length, err := dec.ReadUint32(binary.LittleEndian)
		if err != nil {
			return nil, err
		}

		return dec.ReadNBytes(int(length))
	default:
		return nil, errors.Wrap(ErrUnsupported, typ.Simple)
	}
}

func readLengthPrefixedString(dec *bin.Decoder) (string, error) {
	length, err := dec.ReadUint32(binary.LittleEndian)
	if err != nil {
		return "", err
	}

	raw, err := dec.ReadNBytes(int(length))
	if err != nil {
		return "", err
	}

	return string(raw), nil
}
