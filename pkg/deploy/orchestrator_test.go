package deploy_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ra-sun-god/rocket-anchor/pkg/config"
	"github.com/ra-sun-god/rocket-anchor/pkg/deploy"
	"github.com/ra-sun-god/rocket-anchor/pkg/seed"
)

type fakeChain struct {
	balance  uint64
	airdrops []uint64
	sent     []*solana.Transaction
}

func (c *fakeChain) LatestBlockhash(context.Context) (solana.Hash, error) {
	return solana.Hash{}, nil
}

func (c *fakeChain) SendTransaction(_ context.Context, tx *solana.Transaction) (solana.Signature, error) {
	c.sent = append(c.sent, tx)

	var sig solana.Signature
	sig[0] = byte(len(c.sent))

	return sig, nil
}

func (c *fakeChain) SignatureStatus(context.Context, solana.Signature) (*rpc.SignatureStatusesResult, error) {
	return &rpc.SignatureStatusesResult{ConfirmationStatus: rpc.ConfirmationStatusFinalized}, nil
}

func (c *fakeChain) Transaction(context.Context, solana.Signature) (*rpc.GetTransactionResult, error) {
	return &rpc.GetTransactionResult{Meta: &rpc.TransactionMeta{
		LogMessages: []string{"Program log: Instruction: Initialize"},
	}}, nil
}

func (c *fakeChain) Balance(context.Context, solana.PublicKey) (uint64, error) {
	return c.balance, nil
}

func (c *fakeChain) RequestAirdrop(_ context.Context, _ solana.PublicKey, lamports uint64) (solana.Signature, error) {
	c.airdrops = append(c.airdrops, lamports)

	var sig solana.Signature
	sig[0] = 0xAD

	return sig, nil
}

const workspaceIDL = `{
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
    }
  ],
  "events": []
}`

const workspaceSeeds = `[
  {
    "program": "counter",
    "initialize": {
      "function": "initialize",
      "accounts": {
        "counter": "pda:counter,signer",
        "authority": "signer",
        "systemProgram": "systemProgram"
      },
      "args": [0]
    }
  }
]`

func writeWorkspace(t *testing.T) string {
	t.Helper()

	root := t.TempDir()
	idlDir := filepath.Join(root, "target", "idl")
	require.NoError(t, os.MkdirAll(idlDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(idlDir, "counter.json"), []byte(workspaceIDL), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(root, "seeds.json"), []byte(workspaceSeeds), 0o600))

	return root
}

func workspaceConfig(cluster string) *config.Config {
	return &config.Config{
		Provider: config.Provider{Cluster: cluster, Commitment: "confirmed"},
		Build:    config.Build{Command: []string{"cargo", "build-sbf"}},
		Seeds:    config.Seeds{LogWindow: config.Duration(time.Second)},
		Programs: []config.Program{
			{Name: "counter", Artifact: "target/deploy/counter.so"},
		},
	}
}

func TestOrchestrator_Run(t *testing.T) {
	t.Parallel()

	programID := solana.NewWallet().PublicKey()
	runner := &fakeRunner{out: map[string][]byte{"solana": deployOutput(programID, nonZeroSignature())}}
	client := &fakeChain{balance: 10_000_000_000}

	orch, err := deploy.NewOrchestrator(workspaceConfig("devnet"), client, runner, solana.NewWallet().PrivateKey, writeWorkspace(t), discardLogger())
	require.NoError(t, err)

	result, err := orch.Run(context.Background(), deploy.RunOptions{Seed: true})
	require.NoError(t, err)
	assert.False(t, result.Failed())

	// build first, then deploy
	require.Len(t, runner.commands, 2)
	assert.Equal(t, []string{"cargo", "build-sbf"}, runner.commands[0])
	assert.Equal(t, "solana", runner.commands[1][0])

	require.Len(t, result.Programs, 1)
	assert.Equal(t, programID, result.Programs[0].ProgramID)

	require.Len(t, result.Plans, 1)
	assert.Equal(t, seed.StateDone, result.Plans[0].State)
	require.Len(t, result.Plans[0].Calls, 1)
	assert.Equal(t, "initialize", result.Plans[0].Calls[0].Function)

	require.Len(t, client.sent, 1, "the initialize call reached the chain")
	assert.Empty(t, client.airdrops, "no airdrop off the local validator")
}

func TestOrchestrator_SkipBuild(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{out: map[string][]byte{"solana": deployOutput(solana.NewWallet().PublicKey(), nonZeroSignature())}}
	client := &fakeChain{balance: 10_000_000_000}

	orch, err := deploy.NewOrchestrator(workspaceConfig("devnet"), client, runner, solana.NewWallet().PrivateKey, writeWorkspace(t), discardLogger())
	require.NoError(t, err)

	_, err = orch.Run(context.Background(), deploy.RunOptions{SkipBuild: true})
	require.NoError(t, err)

	require.Len(t, runner.commands, 1)
	assert.Equal(t, "solana", runner.commands[0][0])
}

func TestOrchestrator_SkipDeployRequiresPin(t *testing.T) {
	t.Parallel()

	pinned := solana.NewWallet().PublicKey()

	cfg := workspaceConfig("devnet")
	cfg.Programs = []config.Program{
		{Name: "counter", Artifact: "counter.so", ProgramID: pinned.String()},
		{Name: "registry", Artifact: "registry.so"},
	}

	runner := &fakeRunner{}
	client := &fakeChain{balance: 10_000_000_000}

	orch, err := deploy.NewOrchestrator(cfg, client, runner, solana.NewWallet().PrivateKey, writeWorkspace(t), discardLogger())
	require.NoError(t, err)

	result, err := orch.Run(context.Background(), deploy.RunOptions{SkipBuild: true, SkipDeploy: true})
	require.NoError(t, err)

	assert.Empty(t, runner.commands, "nothing shells out when both phases are skipped")

	require.Len(t, result.Programs, 2)
	assert.Equal(t, pinned, result.Programs[0].ProgramID)
	assert.ErrorIs(t, result.Programs[1].Err, deploy.ErrUnknownProgramID)
	assert.True(t, result.Failed())
}

func TestOrchestrator_OnlyProgram(t *testing.T) {
	t.Parallel()

	cfg := workspaceConfig("devnet")
	cfg.Programs = append(cfg.Programs, config.Program{Name: "registry", Artifact: "registry.so"})

	runner := &fakeRunner{out: map[string][]byte{"solana": deployOutput(solana.NewWallet().PublicKey(), nonZeroSignature())}}
	client := &fakeChain{balance: 10_000_000_000}

	orch, err := deploy.NewOrchestrator(cfg, client, runner, solana.NewWallet().PrivateKey, writeWorkspace(t), discardLogger())
	require.NoError(t, err)

	result, err := orch.Run(context.Background(), deploy.RunOptions{SkipBuild: true, OnlyProgram: "counter"})
	require.NoError(t, err)

	require.Len(t, result.Programs, 1)
	assert.Equal(t, "counter", result.Programs[0].Name)
}

func TestOrchestrator_LocalAirdrop(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{out: map[string][]byte{"solana": deployOutput(solana.NewWallet().PublicKey(), nonZeroSignature())}}
	client := &fakeChain{balance: 0}

	orch, err := deploy.NewOrchestrator(workspaceConfig("localnet"), client, runner, solana.NewWallet().PrivateKey, writeWorkspace(t), discardLogger())
	require.NoError(t, err)

	_, err = orch.Run(context.Background(), deploy.RunOptions{SkipBuild: true})
	require.NoError(t, err)

	require.Len(t, client.airdrops, 1)
	assert.Equal(t, uint64(2_000_000_000), client.airdrops[0])
}
