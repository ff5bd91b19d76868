package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/gagliardetto/solana-go/rpc"
)

var (
	ErrConfigRead    = fmt.Errorf("workspace config read failure")
	ErrConfigInvalid = fmt.Errorf("workspace config invalid")
)

// DefaultPath is the conventional workspace config file name, probed in the
// workspace root when no explicit path is given.
const DefaultPath = "Rocket.toml"

// Config is the workspace configuration with which to run a deploy-and-seed
// pass. It identifies the target cluster, the payer wallet, the programs in
// the workspace, and how to build them.
type Config struct {
	Provider Provider  `toml:"provider"`
	Build    Build     `toml:"build"`
	Seeds    Seeds     `toml:"seeds"`
	Programs []Program `toml:"programs"`
}

type Provider struct {
	// Cluster is either a named cluster (localnet, devnet, testnet,
	// mainnet) or a full RPC endpoint URL.
	Cluster    string `toml:"cluster"`
	Wallet     string `toml:"wallet"`
	Commitment string `toml:"commitment"`
}

type Build struct {
	// Command is the external build tool invocation, argv style.
	Command []string `toml:"command"`
	Skip    bool     `toml:"skip"`
}

type Seeds struct {
	// File overrides seed source discovery with an explicit path.
	File string `toml:"file"`
	// LogWindow bounds the post-confirmation poll for transaction logs.
	LogWindow Duration `toml:"log_window"`
}

type Program struct {
	Name     string `toml:"name"`
	Artifact string `toml:"artifact"`
	// ProgramID pins the deployed address instead of scraping it from the
	// deploy tool's output. Required when deployment is skipped.
	ProgramID string `toml:"program_id"`
}

var clusterEndpoints = map[string]string{
	"localnet":     "http://127.0.0.1:8899",
	"devnet":       "https://api.devnet.solana.com",
	"testnet":      "https://api.testnet.solana.com",
	"mainnet":      "https://api.mainnet-beta.solana.com",
	"mainnet-beta": "https://api.mainnet-beta.solana.com",
}

// Load reads and validates a workspace config, applying defaults for any
// value not set in the file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrConfigRead, err.Error())
	}

	var conf Config
	if err := toml.Unmarshal(data, &conf); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrConfigInvalid, err.Error())
	}

	conf.applyDefaults()

	if err := conf.Validate(); err != nil {
		return nil, err
	}

	return &conf, nil
}

func (c *Config) applyDefaults() {
	if c.Provider.Cluster == "" {
		c.Provider.Cluster = "localnet"
	}

	if c.Provider.Commitment == "" {
		c.Provider.Commitment = "confirmed"
	}

	if len(c.Build.Command) == 0 {
		c.Build.Command = []string{"cargo", "build-sbf"}
	}

	if c.Seeds.LogWindow.Value() == 0 {
		c.Seeds.LogWindow = DefaultLogWindow
	}
}

func (c *Config) Validate() error {
	if _, err := c.Provider.CommitmentType(); err != nil {
		return err
	}

	names := make(map[string]bool)
	for i, prog := range c.Programs {
		if strings.TrimSpace(prog.Name) == "" {
			return fmt.Errorf("%w: program %d missing name", ErrConfigInvalid, i)
		}

		if names[prog.Name] {
			return fmt.Errorf("%w: duplicate program %q", ErrConfigInvalid, prog.Name)
		}

		names[prog.Name] = true
	}

	return nil
}

// Program returns the configured entry for a named program.
func (c *Config) Program(name string) (Program, bool) {
	for _, prog := range c.Programs {
		if prog.Name == name {
			return prog, true
		}
	}

	return Program{}, false
}

// Endpoint maps a named cluster to its RPC URL; anything unrecognized is
// assumed to already be a URL.
func (p Provider) Endpoint() string {
	if url, ok := clusterEndpoints[strings.ToLower(p.Cluster)]; ok {
		return url
	}

	return p.Cluster
}

func (p Provider) CommitmentType() (rpc.CommitmentType, error) {
	switch strings.ToLower(p.Commitment) {
	case "processed":
		return rpc.CommitmentProcessed, nil
	case "confirmed", "":
		return rpc.CommitmentConfirmed, nil
	case "finalized":
		return rpc.CommitmentFinalized, nil
	default:
		return "", fmt.Errorf("%w: unsupported commitment %q", ErrConfigInvalid, p.Commitment)
	}
}
