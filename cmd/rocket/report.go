package main

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/ra-sun-god/rocket-anchor/pkg/deploy"
)

// printReport renders a run's per-program deploy and seed outcomes.
func printReport(w io.Writer, result *deploy.RunResult) {
	fmt.Fprintf(w, "run %s\n", result.RunID)

	if len(result.Programs) > 0 {
		t := table.NewWriter()
		t.SetOutputMirror(w)
		t.AppendHeader(table.Row{"Program", "Program Id", "Deploy Signature", "Status"})

		for _, prog := range result.Programs {
			status := "deployed"
			if prog.Err != nil {
				status = prog.Err.Error()
			}

			t.AppendRow(table.Row{prog.Name, prog.ProgramID, prog.Signature, status})
		}

		t.Render()
	}

	if len(result.Plans) > 0 {
		t := table.NewWriter()
		t.SetOutputMirror(w)
		t.AppendHeader(table.Row{"Plan", "State", "Calls", "Events", "Error"})

		for _, plan := range result.Plans {
			events := 0
			for _, call := range plan.Calls {
				events += len(call.Events)
			}

			errText := ""
			if plan.Err != nil {
				errText = plan.Err.Error()
			}

			if plan.Skipped {
				errText = "filtered"
			}

			t.AppendRow(table.Row{plan.Program, plan.State, len(plan.Calls), events, errText})
		}

		t.Render()
	}
}
