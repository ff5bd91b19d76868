package deploy

import (
	"context"
	"fmt"
	"log"
	"regexp"

	"github.com/gagliardetto/solana-go"
	"github.com/pkg/errors"

	"github.com/ra-sun-god/rocket-anchor/pkg/config"
	"github.com/ra-sun-god/rocket-anchor/pkg/prommetrics"
)

var (
	ErrDeployFailed     = fmt.Errorf("deploy failed")
	ErrUnknownProgramID = fmt.Errorf("deployed program address unknown")
)

var (
	// The deploy tool reports in prose; both values are scraped from its
	// standard output. A missing signature is tolerated, a missing program
	// address is not unless the config pins one.
	signaturePattern = regexp.MustCompile(`Signature:\s*([1-9A-HJ-NP-Za-km-z]{64,88})`)
	programIDPattern = regexp.MustCompile(`Program Id:\s*([1-9A-HJ-NP-Za-km-z]{32,44})`)
)

// DeployedProgram describes one successfully deployed artifact. Signature may
// be zero when the deploy tool's output carried no recognizable transaction
// signature; the deploy is still successful.
type DeployedProgram struct {
	Name      string
	ProgramID solana.PublicKey
	Signature solana.Signature
}

// Deployer invokes the external deploy CLI once per program artifact.
type Deployer struct {
	runner   CommandRunner
	endpoint string
	wallet   string
	logger   *log.Logger
}

func NewDeployer(runner CommandRunner, endpoint, wallet string, logger *log.Logger) *Deployer {
	return &Deployer{
		runner:   runner,
		endpoint: endpoint,
		wallet:   wallet,
		logger:   log.New(logger.Writer(), "[deployer] ", log.LstdFlags),
	}
}

func (d *Deployer) Deploy(ctx context.Context, prog config.Program) (*DeployedProgram, error) {
	d.logger.Printf("deploying %s from %s ...", prog.Name, prog.Artifact)

	args := []string{"program", "deploy", prog.Artifact, "--url", d.endpoint}
	if d.wallet != "" {
		args = append(args, "--keypair", d.wallet)
	}

	out, err := d.runner.Run(ctx, "solana", args...)
	if err != nil {
		return nil, errors.Wrapf(ErrDeployFailed, "%s: %s", prog.Name, err.Error())
	}

	deployed := &DeployedProgram{Name: prog.Name}

	if sig, ok := ScrapeSignature(out); ok {
		deployed.Signature = sig
	} else {
		d.logger.Printf("%s: no transaction signature in deploy output", prog.Name)
	}

	programID, err := resolveProgramID(prog, out)
	if err != nil {
		return nil, err
	}

	deployed.ProgramID = programID
	prommetrics.ProgramsDeployed.Inc()
	d.logger.Printf("%s deployed as %s", prog.Name, deployed.ProgramID)

	return deployed, nil
}

// resolveProgramID prefers a pinned address from the workspace config over
// whatever the deploy tool printed.
func resolveProgramID(prog config.Program, out []byte) (solana.PublicKey, error) {
	if prog.ProgramID != "" {
		key, err := solana.PublicKeyFromBase58(prog.ProgramID)
		if err != nil {
			return solana.PublicKey{}, errors.Wrapf(ErrUnknownProgramID, "%s: pinned id %q: %s", prog.Name, prog.ProgramID, err.Error())
		}

		return key, nil
	}

	if match := programIDPattern.FindSubmatch(out); match != nil {
		key, err := solana.PublicKeyFromBase58(string(match[1]))
		if err == nil {
			return key, nil
		}
	}

	return solana.PublicKey{}, errors.Wrapf(ErrUnknownProgramID, "%s: not pinned and not present in deploy output", prog.Name)
}

// ScrapeSignature extracts the first transaction signature printed by the
// deploy tool. Absence is not an error.
func ScrapeSignature(out []byte) (solana.Signature, bool) {
	match := signaturePattern.FindSubmatch(out)
	if match == nil {
		return solana.Signature{}, false
	}

	sig, err := solana.SignatureFromBase58(string(match[1]))
	if err != nil {
		return solana.Signature{}, false
	}

	return sig, true
}
