package idl_test

import (
	"crypto/sha256"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ra-sun-god/rocket-anchor/pkg/idl"
)

const counterDocument = `{
  "version": "0.1.0",
  "name": "counter",
  "instructions": [
    {
      "name": "initialize",
      "accounts": [
        {"name": "counter", "isMut": true, "isSigner": false},
        {"name": "authority", "isMut": true, "isSigner": true},
        {"name": "systemProgram", "isMut": false, "isSigner": false}
      ],
      "args": [{"name": "start", "type": "u64"}]
    },
    {
      "name": "setTraits",
      "accounts": [{"name": "counter", "isMut": true, "isSigner": false}],
      "args": [{"name": "traitHash", "type": {"array": ["u8", 32]}}]
    }
  ],
  "events": [
    {
      "name": "Incremented",
      "fields": [{"name": "count", "type": "u64"}]
    }
  ]
}`

func TestDecode(t *testing.T) {
	t.Parallel()

	doc, err := idl.Decode([]byte(counterDocument))
	require.NoError(t, err)

	assert.Equal(t, "counter", doc.Name)

	ins, ok := doc.Instruction("initialize")
	require.True(t, ok)
	require.Len(t, ins.Accounts, 3)
	assert.Equal(t, "authority", ins.Accounts[1].Name)
	assert.True(t, ins.Accounts[1].IsSigner)
	require.Len(t, ins.Args, 1)
	assert.Equal(t, "u64", ins.Args[0].Type.Simple)

	compound, ok := doc.Instruction("setTraits")
	require.True(t, ok)
	require.NotNil(t, compound.Args[0].Type.Array)
	assert.Equal(t, "u8", compound.Args[0].Type.Array.Elem)
	assert.Equal(t, 32, compound.Args[0].Type.Array.Len)

	_, ok = doc.Instruction("missing")
	assert.False(t, ok)
}

func TestEventLookupByDiscriminator(t *testing.T) {
	t.Parallel()

	doc, err := idl.Decode([]byte(counterDocument))
	require.NoError(t, err)

	evt, ok := doc.Event(idl.EventDiscriminator("Incremented"))
	require.True(t, ok)
	assert.Equal(t, "Incremented", evt.Name)

	_, ok = doc.Event(idl.EventDiscriminator("Other"))
	assert.False(t, ok)
}

func TestInstructionDiscriminator(t *testing.T) {
	t.Parallel()

	// camelCase interface names hash in snake case
	sum := sha256.Sum256([]byte("global:set_traits"))
	assert.Equal(t, sum[:8], idl.InstructionDiscriminator("setTraits"))

	sum = sha256.Sum256([]byte("global:initialize"))
	assert.Equal(t, sum[:8], idl.InstructionDiscriminator("initialize"))
}

func TestToSnake(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"initialize":     "initialize",
		"setTraits":      "set_traits",
		"advanceStageV2": "advance_stage_v2",
		"already_snake":  "already_snake",
	}

	for in, want := range tests {
		assert.Equal(t, want, idl.ToSnake(in))
	}
}

func TestLoad(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	dir := filepath.Join(root, "target", "idl")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "counter.json"), []byte(counterDocument), 0o600))

	doc, err := idl.Load(root, "counter")
	require.NoError(t, err)
	assert.Equal(t, "counter", doc.Name)

	_, err = idl.Load(root, "absent")
	assert.ErrorIs(t, err, idl.ErrNotFound)
}

func TestDecode_Invalid(t *testing.T) {
	t.Parallel()

	_, err := idl.Decode([]byte("not json"))
	assert.ErrorIs(t, err, idl.ErrDecoding)
}
