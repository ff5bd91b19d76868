package seed

import (
	"context"
	"log"

	"github.com/gagliardetto/solana-go"
	"github.com/pkg/errors"

	"github.com/ra-sun-god/rocket-anchor/pkg/encoding"
	"github.com/ra-sun-god/rocket-anchor/pkg/idl"
)

// State is a sequencer plan state. A plan moves Idle -> RunningInitialize ->
// RunningSeeds -> Done, with Failed terminal from either running state.
type State string

const (
	StateIdle              State = "idle"
	StateRunningInitialize State = "running_initialize"
	StateRunningSeeds      State = "running_seeds"
	StateDone              State = "done"
	StateFailed            State = "failed"
)

// CallRunner executes one resolved call. Satisfied by Executor; tests
// substitute recorders.
type CallRunner interface {
	Execute(ctx context.Context, program *idl.IDL, programID solana.PublicKey, call CallSpec) (*CallResult, error)
}

// ProgramCatalog maps a plan's program name to its loaded interface
// description and deployed address. A lookup failure is a configuration
// error surfaced before any chain interaction for that plan.
type ProgramCatalog interface {
	Lookup(name string) (*idl.IDL, solana.PublicKey, error)
}

// Sequencer drives seed plans strictly in order: initialize first, then each
// seed entry, each repeated its declared number of times, never concurrently.
// Later iterations may depend on chain state written by earlier ones.
type Sequencer struct {
	runner CallRunner
	filter string
	logger *log.Logger
}

// CallOutcome is one executed call iteration within a plan.
type CallOutcome struct {
	Function  string
	Iteration int
	Signature solana.Signature
	Events    []encoding.DecodedEvent
}

// PlanResult is a plan's terminal state plus everything it executed before
// finishing or failing.
type PlanResult struct {
	Program string
	State   State
	Skipped bool
	Calls   []CallOutcome
	Err     error
}

// NewSequencer builds a sequencer. A non-empty filter restricts execution to
// the named program; every other plan is skipped without entering its
// initialize step.
func NewSequencer(runner CallRunner, filter string, logger *log.Logger) *Sequencer {
	return &Sequencer{
		runner: runner,
		filter: filter,
		logger: log.New(logger.Writer(), "[seed-sequencer] ", log.LstdFlags),
	}
}

// Run processes plans one at a time in the given order. A plan's failure
// abandons that plan's remaining steps but not its siblings; each result
// carries its own error for the caller to aggregate.
func (s *Sequencer) Run(ctx context.Context, plans []SeedPlan, catalog ProgramCatalog) []PlanResult {
	results := make([]PlanResult, 0, len(plans))

	for _, plan := range plans {
		if s.filter != "" && plan.Program != s.filter {
			s.logger.Printf("skipping %s: filtered to %s", plan.Program, s.filter)
			results = append(results, PlanResult{Program: plan.Program, State: StateIdle, Skipped: true})
			continue
		}

		results = append(results, s.RunPlan(ctx, plan, catalog))
	}

	return results
}

// RunPlan executes one plan through its state machine.
func (s *Sequencer) RunPlan(ctx context.Context, plan SeedPlan, catalog ProgramCatalog) PlanResult {
	result := PlanResult{Program: plan.Program, State: StateIdle}

	program, programID, err := catalog.Lookup(plan.Program)
	if err != nil {
		result.State = StateFailed
		result.Err = errors.Wrapf(err, "plan %s", plan.Program)
		return result
	}

	if plan.Initialize != nil {
		result.State = StateRunningInitialize
		s.logger.Printf("%s: running initialize (%s)", plan.Program, plan.Initialize.Function)

		outcome, err := s.runCall(ctx, program, programID, *plan.Initialize, 0)
		if err != nil {
			result.State = StateFailed
			result.Err = errors.Wrapf(err, "plan %s initialize", plan.Program)
			return result
		}

		result.Calls = append(result.Calls, outcome)
	}

	result.State = StateRunningSeeds

	for i, call := range plan.Seeds {
		for iteration := 0; iteration < call.Repeats(); iteration++ {
			outcome, err := s.runCall(ctx, program, programID, call, iteration)
			if err != nil {
				result.State = StateFailed
				result.Err = errors.Wrapf(err, "plan %s seed %d iteration %d", plan.Program, i, iteration)
				return result
			}

			result.Calls = append(result.Calls, outcome)
		}
	}

	result.State = StateDone
	s.logger.Printf("%s: done (%d calls)", plan.Program, len(result.Calls))

	return result
}

func (s *Sequencer) runCall(ctx context.Context, program *idl.IDL, programID solana.PublicKey, call CallSpec, iteration int) (CallOutcome, error) {
	res, err := s.runner.Execute(ctx, program, programID, call)
	if err != nil {
		return CallOutcome{}, err
	}

	for _, event := range res.Events {
		s.logger.Printf("%s emitted %s %v", call.Function, event.Name, event.Fields)
	}

	return CallOutcome{
		Function:  call.Function,
		Iteration: iteration,
		Signature: res.Signature,
		Events:    res.Events,
	}, nil
}
