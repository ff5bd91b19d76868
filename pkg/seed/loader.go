package seed

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var ErrNoSeedSource = fmt.Errorf("no seed definition found")

// conventionalSeedFiles are probed in order under the workspace root when no
// explicit seed file is configured.
var conventionalSeedFiles = []string{
	"seeds.json",
	"seeds.yaml",
	"seeds.yml",
	filepath.Join(".rocket", "seeds.json"),
}

// LoadPlans discovers and decodes the seed definition. An explicit path wins;
// otherwise the conventional locations are probed in order. An explicit path
// that does not exist is an error, while an empty probe result returns
// ErrNoSeedSource so the caller can decide whether seeding was required.
func LoadPlans(root, explicit string) ([]SeedPlan, error) {
	path := explicit

	if path == "" {
		for _, candidate := range conventionalSeedFiles {
			probe := filepath.Join(root, candidate)
			if _, err := os.Stat(probe); err == nil {
				path = probe
				break
			}
		}

		if path == "" {
			return nil, fmt.Errorf("%w: probed %s under %s",
				ErrNoSeedSource, strings.Join(conventionalSeedFiles, ", "), root)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrPlanDecoding, err.Error())
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return DecodePlansYAML(data)
	default:
		return DecodePlans(data)
	}
}
