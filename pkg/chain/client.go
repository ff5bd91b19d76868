// Package chain wraps the underlying network client behind the narrow
// capability surface the rest of the system consumes: blockhash retrieval,
// transaction submission, confirmation polling, and confirmed-transaction
// readback.
package chain

import (
	"context"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// Client is the chain capability interface. The production implementation is
// an RPC client; tests substitute mocks.
type Client interface {
	LatestBlockhash(ctx context.Context) (solana.Hash, error)
	SendTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error)
	SignatureStatus(ctx context.Context, sig solana.Signature) (*rpc.SignatureStatusesResult, error)
	Transaction(ctx context.Context, sig solana.Signature) (*rpc.GetTransactionResult, error)
	Balance(ctx context.Context, key solana.PublicKey) (uint64, error)
	RequestAirdrop(ctx context.Context, key solana.PublicKey, lamports uint64) (solana.Signature, error)
}

type RPCClient struct {
	rpc        *rpc.Client
	commitment rpc.CommitmentType
}

var _ Client = (*RPCClient)(nil)

func NewRPCClient(endpoint string, commitment rpc.CommitmentType) *RPCClient {
	return &RPCClient{
		rpc:        rpc.New(endpoint),
		commitment: commitment,
	}
}

func (c *RPCClient) LatestBlockhash(ctx context.Context) (solana.Hash, error) {
	out, err := c.rpc.GetLatestBlockhash(ctx, c.commitment)
	if err != nil {
		return solana.Hash{}, err
	}

	return out.Value.Blockhash, nil
}

func (c *RPCClient) SendTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	return c.rpc.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		PreflightCommitment: c.commitment,
	})
}

func (c *RPCClient) SignatureStatus(ctx context.Context, sig solana.Signature) (*rpc.SignatureStatusesResult, error) {
	out, err := c.rpc.GetSignatureStatuses(ctx, true, sig)
	if err != nil {
		return nil, err
	}

	if out == nil || len(out.Value) == 0 {
		return nil, nil
	}

	return out.Value[0], nil
}

func (c *RPCClient) Transaction(ctx context.Context, sig solana.Signature) (*rpc.GetTransactionResult, error) {
	maxVersion := uint64(0)

	return c.rpc.GetTransaction(ctx, sig, &rpc.GetTransactionOpts{
		Commitment:                     c.commitment,
		MaxSupportedTransactionVersion: &maxVersion,
	})
}

func (c *RPCClient) Balance(ctx context.Context, key solana.PublicKey) (uint64, error) {
	out, err := c.rpc.GetBalance(ctx, key, c.commitment)
	if err != nil {
		return 0, err
	}

	return out.Value, nil
}

func (c *RPCClient) RequestAirdrop(ctx context.Context, key solana.PublicKey, lamports uint64) (solana.Signature, error) {
	return c.rpc.RequestAirdrop(ctx, key, lamports, c.commitment)
}
