package encoding_test

import (
	"encoding/base64"
	"encoding/binary"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ra-sun-god/rocket-anchor/pkg/encoding"
	"github.com/ra-sun-god/rocket-anchor/pkg/idl"
)

func eventDoc() *idl.IDL {
	return &idl.IDL{
		Name: "counter",
		Events: []idl.Event{
			{
				Name: "Incremented",
				Fields: []idl.Field{
					simpleField("count", "u64"),
					simpleField("by", "publicKey"),
					simpleField("label", "string"),
				},
			},
			{
				Name:   "Reset",
				Fields: []idl.Field{simpleField("hard", "bool")},
			},
		},
	}
}

func incrementedPayload(count uint64, by solana.PublicKey, label string) []byte {
	payload := idl.EventDiscriminator("Incremented")
	payload = binary.LittleEndian.AppendUint64(payload, count)
	payload = append(payload, by.Bytes()...)
	payload = binary.LittleEndian.AppendUint32(payload, uint32(len(label)))
	payload = append(payload, []byte(label)...)

	return payload
}

func TestParseLogs(t *testing.T) {
	t.Parallel()

	by := solana.NewWallet().PublicKey()

	resetPayload := append(idl.EventDiscriminator("Reset"), 1)

	logs := []string{
		"Program 11111111111111111111111111111111 invoke [1]",
		"Program log: Instruction: Increment",
		"Program data: " + base64.StdEncoding.EncodeToString(incrementedPayload(41, by, "warmup")),
		"Program data: " + base64.StdEncoding.EncodeToString(resetPayload),
		"Program data: not-valid-base64!!!",
		"Program consumed 3456 of 200000 compute units",
	}

	events := encoding.ParseLogs(eventDoc(), logs)
	require.Len(t, events, 2, "non-event and malformed lines are skipped")

	assert.Equal(t, "Incremented", events[0].Name)

	count, ok := events[0].Field("count")
	require.True(t, ok)
	assert.Equal(t, uint64(41), count)

	actor, ok := events[0].Field("by")
	require.True(t, ok)
	assert.Equal(t, by, actor)

	label, ok := events[0].Field("label")
	require.True(t, ok)
	assert.Equal(t, "warmup", label)

	assert.Equal(t, "Reset", events[1].Name)

	hard, ok := events[1].Field("hard")
	require.True(t, ok)
	assert.Equal(t, true, hard)
}

func TestParseLogs_UnknownDiscriminatorSkipped(t *testing.T) {
	t.Parallel()

	payload := append(idl.EventDiscriminator("SomethingElse"), 1, 2, 3)
	logs := []string{"Program data: " + base64.StdEncoding.EncodeToString(payload)}

	assert.Empty(t, encoding.ParseLogs(eventDoc(), logs))
}

func TestParseLogs_TruncatedPayloadSkipped(t *testing.T) {
	t.Parallel()

	// Incremented discriminator with too few payload bytes to decode
	payload := append(idl.EventDiscriminator("Incremented"), 1, 2)
	logs := []string{"Program data: " + base64.StdEncoding.EncodeToString(payload)}

	assert.Empty(t, encoding.ParseLogs(eventDoc(), logs))
}

func TestDecodeEvent_FieldOrderPreserved(t *testing.T) {
	t.Parallel()

	by := solana.NewWallet().PublicKey()
	payload := incrementedPayload(7, by, "x")

	decoded, err := encoding.DecodeEvent(eventDoc().Events[0], payload[8:])
	require.NoError(t, err)

	require.Len(t, decoded.Fields, 3)
	assert.Equal(t, "count", decoded.Fields[0].Name)
	assert.Equal(t, "by", decoded.Fields[1].Name)
	assert.Equal(t, "label", decoded.Fields[2].Name)
}
