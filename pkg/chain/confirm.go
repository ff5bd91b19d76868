package chain

import (
	"context"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

var ErrTransactionFailed = fmt.Errorf("transaction failed on chain")

const statusPollInterval = 500 * time.Millisecond

// WaitForSignature blocks until a submitted transaction reaches the requested
// commitment level. The network client's own transport timeout is the only
// deadline beyond the caller's context.
func WaitForSignature(ctx context.Context, client Client, sig solana.Signature, commitment rpc.CommitmentType) error {
	for {
		status, err := client.SignatureStatus(ctx, sig)
		if err != nil {
			return err
		}

		if status != nil {
			if status.Err != nil {
				return fmt.Errorf("%w: %s: %v", ErrTransactionFailed, sig, status.Err)
			}

			if commitmentReached(status.ConfirmationStatus, commitment) {
				return nil
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(statusPollInterval):
		}
	}
}

func commitmentReached(status rpc.ConfirmationStatusType, want rpc.CommitmentType) bool {
	rank := map[rpc.ConfirmationStatusType]int{
		rpc.ConfirmationStatusProcessed: 1,
		rpc.ConfirmationStatusConfirmed: 2,
		rpc.ConfirmationStatusFinalized: 3,
	}

	wantRank := map[rpc.CommitmentType]int{
		rpc.CommitmentProcessed: 1,
		rpc.CommitmentConfirmed: 2,
		rpc.CommitmentFinalized: 3,
	}

	return rank[status] >= wantRank[want]
}

const (
	txPollInitialBackoff = 250 * time.Millisecond
	txPollMaxBackoff     = 2 * time.Second
)

// PollTransaction fetches a confirmed transaction's full record, retrying
// with backoff while the ledger indexes it. A transaction that never appears
// within the budget yields nil without an error; readback is best effort and
// the caller treats absence as zero observable output.
func PollTransaction(ctx context.Context, client Client, sig solana.Signature, budget time.Duration) (*rpc.GetTransactionResult, error) {
	deadline := time.Now().Add(budget)
	backoff := txPollInitialBackoff

	for {
		out, err := client.Transaction(ctx, sig)
		if err == nil && out != nil {
			return out, nil
		}

		if time.Now().After(deadline) {
			return nil, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}

		backoff *= 2
		if backoff > txPollMaxBackoff {
			backoff = txPollMaxBackoff
		}
	}
}
