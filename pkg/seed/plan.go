package seed

import (
	"bytes"
	"fmt"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

var (
	ErrPlanDecoding = fmt.Errorf("seed plan decoding failure")
	ErrPlanInvalid  = fmt.Errorf("seed plan invalid")
)

// SeedPlan is one program's seeding definition: an optional initialize call
// followed by an ordered seed call list. A plan with neither is a no-op, not
// an error.
type SeedPlan struct {
	Program    string     `json:"program" yaml:"program"`
	Initialize *CallSpec  `json:"initialize,omitempty" yaml:"initialize,omitempty"`
	Seeds      []CallSpec `json:"seeds,omitempty" yaml:"seeds,omitempty"`
}

// CallSpec is one declarative function invocation. Accounts map logical role
// names to placeholder values; args match the entry point's parameters
// positionally.
type CallSpec struct {
	Function string                 `json:"function" yaml:"function"`
	Accounts map[string]interface{} `json:"accounts,omitempty" yaml:"accounts,omitempty"`
	Args     []interface{}          `json:"args,omitempty" yaml:"args,omitempty"`
	Repeat   int                    `json:"repeat,omitempty" yaml:"repeat,omitempty"`
}

// Repeats is the effective repetition count: at least one, each a fully
// independent execution with its own re-resolution.
func (c CallSpec) Repeats() int {
	if c.Repeat < 1 {
		return 1
	}

	return c.Repeat
}

func (c CallSpec) validate(plan string, position string) error {
	if c.Function == "" {
		return fmt.Errorf("%w: plan %q %s missing function", ErrPlanInvalid, plan, position)
	}

	if c.Repeat < 0 {
		return fmt.Errorf("%w: plan %q %s has negative repeat %d", ErrPlanInvalid, plan, position, c.Repeat)
	}

	return nil
}

func (p SeedPlan) validate() error {
	if p.Program == "" {
		return fmt.Errorf("%w: plan missing program name", ErrPlanInvalid)
	}

	if p.Initialize != nil {
		if err := p.Initialize.validate(p.Program, "initialize"); err != nil {
			return err
		}
	}

	for i, call := range p.Seeds {
		if err := call.validate(p.Program, fmt.Sprintf("seed %d", i)); err != nil {
			return err
		}
	}

	return nil
}

// DecodePlans parses a JSON seed definition: either a plan list or a single
// plan object.
func DecodePlans(encoded []byte) ([]SeedPlan, error) {
	trimmed := bytes.TrimSpace(encoded)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: empty document", ErrPlanDecoding)
	}

	var plans []SeedPlan

	// UseNumber keeps u64-scale arguments exact instead of rounding them
	// through float64.
	if trimmed[0] == '{' {
		var single SeedPlan

		dec := json.NewDecoder(bytes.NewReader(trimmed))
		dec.UseNumber()

		if err := dec.Decode(&single); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrPlanDecoding, err.Error())
		}

		plans = []SeedPlan{single}
	} else {
		dec := json.NewDecoder(bytes.NewReader(trimmed))
		dec.UseNumber()

		if err := dec.Decode(&plans); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrPlanDecoding, err.Error())
		}
	}

	return validatePlans(plans)
}

// DecodePlansYAML parses a YAML seed definition with the same shape rules as
// the JSON form.
func DecodePlansYAML(encoded []byte) ([]SeedPlan, error) {
	var plans []SeedPlan

	if err := yaml.Unmarshal(encoded, &plans); err != nil {
		var single SeedPlan
		if err := yaml.Unmarshal(encoded, &single); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrPlanDecoding, err.Error())
		}

		plans = []SeedPlan{single}
	}

	return validatePlans(plans)
}

func validatePlans(plans []SeedPlan) ([]SeedPlan, error) {
	for _, plan := range plans {
		if err := plan.validate(); err != nil {
			return nil, err
		}
	}

	return plans, nil
}
