package seed

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/pkg/errors"

	"github.com/ra-sun-god/rocket-anchor/pkg/chain"
	"github.com/ra-sun-god/rocket-anchor/pkg/encoding"
	"github.com/ra-sun-god/rocket-anchor/pkg/idl"
	"github.com/ra-sun-god/rocket-anchor/pkg/prommetrics"
)

var (
	ErrUnknownFunction = fmt.Errorf("function not found on program interface")
	ErrMissingAccount  = fmt.Errorf("required account role unresolved")
)

// Executor turns one resolved call into a submitted, confirmed transaction
// and extracts the events it emitted.
type Executor struct {
	client     chain.Client
	signer     solana.PrivateKey
	commitment rpc.CommitmentType
	logWindow  time.Duration
	logger     *log.Logger
}

// CallResult is the outcome of one confirmed call.
type CallResult struct {
	Signature solana.Signature
	Events    []encoding.DecodedEvent
}

func NewExecutor(client chain.Client, signer solana.PrivateKey, commitment rpc.CommitmentType, logWindow time.Duration, logger *log.Logger) *Executor {
	return &Executor{
		client:     client,
		signer:     signer,
		commitment: commitment,
		logWindow:  logWindow,
		logger:     log.New(logger.Writer(), "[call-executor] ", log.LstdFlags),
	}
}

// Execute resolves, binds, signs, submits and confirms one call against a
// deployed program, then reads the confirmed transaction's logs back for
// emitted events. Resolution happens here, once per execution, so repeated
// calls mint fresh keypairs each time.
func (e *Executor) Execute(ctx context.Context, program *idl.IDL, programID solana.PublicKey, call CallSpec) (*CallResult, error) {
	ins, ok := program.Instruction(call.Function)
	if !ok {
		return nil, fmt.Errorf("%w: %q on %s", ErrUnknownFunction, call.Function, program.Name)
	}

	resolver := &Resolver{Caller: e.signer.PublicKey(), Program: programID}

	resolution, err := resolver.ResolveCall(call)
	if err != nil {
		prommetrics.SeedResolutionErrors.Inc()
		return nil, errors.Wrapf(err, "resolving %s", call.Function)
	}

	metas, err := bindAccounts(ins, resolution)
	if err != nil {
		return nil, err
	}

	data, err := encoding.EncodeInstructionData(ins, resolution.Args)
	if err != nil {
		return nil, errors.Wrapf(err, "binding %s", call.Function)
	}

	blockhash, err := e.client.LatestBlockhash(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "fetching blockhash")
	}

	tx, err := solana.NewTransaction(
		[]solana.Instruction{solana.NewInstruction(programID, metas, data)},
		blockhash,
		solana.TransactionPayer(e.signer.PublicKey()),
	)
	if err != nil {
		return nil, errors.Wrap(err, "building transaction")
	}

	if err := e.signTransaction(tx, resolution.Signers); err != nil {
		return nil, err
	}

	sig, err := e.client.SendTransaction(ctx, tx)
	if err != nil {
		// the network's own error text is the most useful thing to show
		return nil, err
	}

	prommetrics.SeedSubmissions.Inc()
	e.logger.Printf("%s submitted %s", call.Function, sig)

	if err := chain.WaitForSignature(ctx, e.client, sig, e.commitment); err != nil {
		return nil, err
	}

	prommetrics.SeedConfirmations.Inc()

	events, err := e.collectEvents(ctx, program, sig)
	if err != nil {
		return nil, err
	}

	return &CallResult{Signature: sig, Events: events}, nil
}

// bindAccounts maps resolved account roles onto the entry point's declared
// account set, in declared order. Every declared role must be present; roles
// in the spec that the entry point does not declare are ignored.
func bindAccounts(ins idl.Instruction, resolution *Resolution) (solana.AccountMetaSlice, error) {
	metas := make(solana.AccountMetaSlice, 0, len(ins.Accounts))

	for _, role := range ins.Accounts {
		key, ok := resolution.Accounts[role.Name]
		if !ok {
			return nil, fmt.Errorf("%w: %s requires %q", ErrMissingAccount, ins.Name, role.Name)
		}

		metas = append(metas, solana.NewAccountMeta(key, role.IsMut, role.IsSigner))
	}

	return metas, nil
}

func (e *Executor) signTransaction(tx *solana.Transaction, cosigners []Cosigner) error {
	keys := map[solana.PublicKey]solana.PrivateKey{
		e.signer.PublicKey(): e.signer,
	}

	for _, cosigner := range cosigners {
		keys[cosigner.Key.PublicKey()] = cosigner.Key
	}

	_, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if priv, ok := keys[key]; ok {
			return &priv
		}

		return nil
	})

	return errors.Wrap(err, "signing transaction")
}

// collectEvents reads the confirmed transaction back for its log output. A
// transaction the ledger has not indexed within the window is not a failure;
// the call already confirmed, it just yields no observable events.
func (e *Executor) collectEvents(ctx context.Context, program *idl.IDL, sig solana.Signature) ([]encoding.DecodedEvent, error) {
	record, err := chain.PollTransaction(ctx, e.client, sig, e.logWindow)
	if err != nil {
		return nil, err
	}

	if record == nil || record.Meta == nil {
		e.logger.Printf("%s confirmed but not yet readable; skipping event extraction", sig)
		return nil, nil
	}

	events := encoding.ParseLogs(program, record.Meta.LogMessages)
	prommetrics.SeedEventsDecoded.Add(float64(len(events)))

	return events, nil
}
