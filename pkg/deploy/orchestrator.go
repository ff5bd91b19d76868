package deploy

import (
	"context"
	"fmt"
	"log"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/ra-sun-god/rocket-anchor/pkg/chain"
	"github.com/ra-sun-god/rocket-anchor/pkg/config"
	"github.com/ra-sun-god/rocket-anchor/pkg/idl"
	"github.com/ra-sun-god/rocket-anchor/pkg/seed"
)

const (
	lamportsPerSol = 1_000_000_000

	// Local validators start wallets empty; anything below this triggers an
	// airdrop attempt before deploying.
	localAirdropThreshold = lamportsPerSol / 2
	localAirdropAmount    = 2 * lamportsPerSol
)

// RunOptions select which phases of a run execute and which programs they
// touch.
type RunOptions struct {
	SkipBuild   bool
	SkipDeploy  bool
	Seed        bool
	SeedFile    string
	OnlyProgram string
}

// ProgramResult is one program's deploy outcome within a run.
type ProgramResult struct {
	Name      string
	ProgramID solana.PublicKey
	Signature solana.Signature
	Err       error
}

// RunResult aggregates a whole deploy-and-seed run. A failed program does not
// stop its siblings; every failure is carried here for the caller.
type RunResult struct {
	RunID    uuid.UUID
	Programs []ProgramResult
	Plans    []seed.PlanResult
}

// Failed reports whether any phase of the run failed.
func (r *RunResult) Failed() bool {
	for _, prog := range r.Programs {
		if prog.Err != nil {
			return true
		}
	}

	for _, plan := range r.Plans {
		if plan.Err != nil {
			return true
		}
	}

	return false
}

// Orchestrator owns a full run: funds check, build, per-program deploy, then
// the seeding pass when requested.
type Orchestrator struct {
	cfg        *config.Config
	client     chain.Client
	runner     CommandRunner
	wallet     solana.PrivateKey
	commitment rpc.CommitmentType
	root       string
	logger     *log.Logger
}

func NewOrchestrator(cfg *config.Config, client chain.Client, runner CommandRunner, wallet solana.PrivateKey, root string, logger *log.Logger) (*Orchestrator, error) {
	commitment, err := cfg.Provider.CommitmentType()
	if err != nil {
		return nil, err
	}

	return &Orchestrator{
		cfg:        cfg,
		client:     client,
		runner:     runner,
		wallet:     wallet,
		commitment: commitment,
		root:       root,
		logger:     log.New(logger.Writer(), "[orchestrator] ", log.LstdFlags),
	}, nil
}

func (o *Orchestrator) Run(ctx context.Context, opts RunOptions) (*RunResult, error) {
	result := &RunResult{RunID: uuid.New()}
	o.logger.Printf("run %s against %s", result.RunID, o.cfg.Provider.Endpoint())

	if err := o.checkFunds(ctx); err != nil {
		return nil, err
	}

	if !opts.SkipBuild {
		builder := NewBuilder(o.runner, o.cfg.Build.Command, o.logger)
		if err := builder.Build(ctx); err != nil {
			return nil, err
		}
	}

	deployed := make(map[string]solana.PublicKey)

	for _, prog := range o.cfg.Programs {
		if opts.OnlyProgram != "" && prog.Name != opts.OnlyProgram {
			continue
		}

		outcome := o.deployProgram(ctx, prog, opts.SkipDeploy)
		result.Programs = append(result.Programs, outcome)

		if outcome.Err == nil {
			deployed[outcome.Name] = outcome.ProgramID
		}
	}

	if opts.Seed {
		if err := o.runSeeds(ctx, opts, deployed, result); err != nil {
			return result, err
		}
	}

	return result, nil
}

func (o *Orchestrator) deployProgram(ctx context.Context, prog config.Program, skipDeploy bool) ProgramResult {
	if skipDeploy {
		if prog.ProgramID == "" {
			return ProgramResult{Name: prog.Name, Err: errors.Wrapf(ErrUnknownProgramID, "%s: deployment skipped and no pinned id", prog.Name)}
		}

		key, err := solana.PublicKeyFromBase58(prog.ProgramID)
		if err != nil {
			return ProgramResult{Name: prog.Name, Err: errors.Wrapf(ErrUnknownProgramID, "%s: pinned id %q: %s", prog.Name, prog.ProgramID, err.Error())}
		}

		return ProgramResult{Name: prog.Name, ProgramID: key}
	}

	deployer := NewDeployer(o.runner, o.cfg.Provider.Endpoint(), o.cfg.Provider.Wallet, o.logger)

	deployedProg, err := deployer.Deploy(ctx, prog)
	if err != nil {
		return ProgramResult{Name: prog.Name, Err: err}
	}

	return ProgramResult{Name: deployedProg.Name, ProgramID: deployedProg.ProgramID, Signature: deployedProg.Signature}
}

func (o *Orchestrator) runSeeds(ctx context.Context, opts RunOptions, deployed map[string]solana.PublicKey, result *RunResult) error {
	seedFile := opts.SeedFile
	if seedFile == "" {
		seedFile = o.cfg.Seeds.File
	}

	plans, err := seed.LoadPlans(o.root, seedFile)
	if err != nil {
		return err
	}

	executor := seed.NewExecutor(o.client, o.wallet, o.commitment, o.cfg.Seeds.LogWindow.Value(), o.logger)
	sequencer := seed.NewSequencer(executor, opts.OnlyProgram, o.logger)

	result.Plans = sequencer.Run(ctx, plans, &workspaceCatalog{
		root:     o.root,
		deployed: deployed,
		cfg:      o.cfg,
	})

	return nil
}

// checkFunds logs the payer balance and, against a local validator, tops an
// empty wallet up with an airdrop so deploys do not fail on rent.
func (o *Orchestrator) checkFunds(ctx context.Context) error {
	payer := o.wallet.PublicKey()

	balance, err := o.client.Balance(ctx, payer)
	if err != nil {
		return errors.Wrap(err, "querying payer balance")
	}

	sol := decimal.New(int64(balance), -9)
	o.logger.Printf("payer %s holds %s SOL", payer, sol)

	if balance >= localAirdropThreshold || o.cfg.Provider.Endpoint() != "http://127.0.0.1:8899" {
		return nil
	}

	o.logger.Printf("payer balance low; requesting %s SOL airdrop", decimal.New(localAirdropAmount, -9))

	sig, err := o.client.RequestAirdrop(ctx, payer, localAirdropAmount)
	if err != nil {
		return errors.Wrap(err, "requesting airdrop")
	}

	return chain.WaitForSignature(ctx, o.client, sig, o.commitment)
}

// workspaceCatalog resolves a plan's program to its interface description in
// the workspace artifacts and its deployed address from this run.
type workspaceCatalog struct {
	root     string
	deployed map[string]solana.PublicKey
	cfg      *config.Config
}

var _ seed.ProgramCatalog = (*workspaceCatalog)(nil)

func (c *workspaceCatalog) Lookup(name string) (*idl.IDL, solana.PublicKey, error) {
	doc, err := idl.Load(c.root, name)
	if err != nil {
		return nil, solana.PublicKey{}, err
	}

	if key, ok := c.deployed[name]; ok {
		return doc, key, nil
	}

	// A plan may target a program this run did not deploy, as long as the
	// workspace pins its address.
	if prog, ok := c.cfg.Program(name); ok && prog.ProgramID != "" {
		key, err := solana.PublicKeyFromBase58(prog.ProgramID)
		if err != nil {
			return nil, solana.PublicKey{}, errors.Wrapf(ErrUnknownProgramID, "%s: pinned id %q: %s", name, prog.ProgramID, err.Error())
		}

		return doc, key, nil
	}

	return nil, solana.PublicKey{}, fmt.Errorf("%w: %s", ErrUnknownProgramID, name)
}
