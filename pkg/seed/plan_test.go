package seed_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ra-sun-god/rocket-anchor/pkg/seed"
)

func TestDecodePlans(t *testing.T) {
	t.Parallel()

	encoded := []byte(`[
		{
			"program": "counter",
			"initialize": {
				"function": "initialize",
				"accounts": {"counter": "pda:counter", "authority": "signer", "systemProgram": "systemProgram"},
				"args": [0]
			},
			"seeds": [
				{"function": "increment", "accounts": {"counter": "pda:counter", "authority": "signer"}, "repeat": 5}
			]
		},
		{"program": "registry"}
	]`)

	plans, err := seed.DecodePlans(encoded)
	require.NoError(t, err)
	require.Len(t, plans, 2)

	assert.Equal(t, "counter", plans[0].Program)
	require.NotNil(t, plans[0].Initialize)
	assert.Equal(t, "initialize", plans[0].Initialize.Function)
	assert.Equal(t, 1, plans[0].Initialize.Repeats())
	require.Len(t, plans[0].Seeds, 1)
	assert.Equal(t, 5, plans[0].Seeds[0].Repeats())

	// a plan with neither initialize nor seeds is a no-op, not an error
	assert.Nil(t, plans[1].Initialize)
	assert.Empty(t, plans[1].Seeds)
}

func TestDecodePlans_SingleObject(t *testing.T) {
	t.Parallel()

	plans, err := seed.DecodePlans([]byte(`{"program": "counter", "seeds": [{"function": "increment"}]}`))
	require.NoError(t, err)
	require.Len(t, plans, 1)

	assert.Equal(t, "counter", plans[0].Program)
}

func TestDecodePlansYAML(t *testing.T) {
	t.Parallel()

	encoded := []byte(`
- program: counter
  initialize:
    function: initialize
    accounts:
      counter: pda:counter
      authority: signer
    args: [0]
  seeds:
    - function: increment
      repeat: 3
`)

	plans, err := seed.DecodePlansYAML(encoded)
	require.NoError(t, err)
	require.Len(t, plans, 1)

	assert.Equal(t, 3, plans[0].Seeds[0].Repeats())
}

func TestDecodePlans_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		encoded string
		wantErr error
	}{
		{name: "missing program", encoded: `[{"seeds": [{"function": "x"}]}]`, wantErr: seed.ErrPlanInvalid},
		{name: "missing function", encoded: `[{"program": "a", "seeds": [{}]}]`, wantErr: seed.ErrPlanInvalid},
		{name: "negative repeat", encoded: `[{"program": "a", "seeds": [{"function": "x", "repeat": -1}]}]`, wantErr: seed.ErrPlanInvalid},
		{name: "not json", encoded: `nonsense`, wantErr: seed.ErrPlanDecoding},
		{name: "empty document", encoded: ``, wantErr: seed.ErrPlanDecoding},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := seed.DecodePlans([]byte(test.encoded))
			assert.ErrorIs(t, err, test.wantErr)
		})
	}
}
