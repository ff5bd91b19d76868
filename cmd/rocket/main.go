package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	flag "github.com/spf13/pflag"

	"github.com/ra-sun-god/rocket-anchor/pkg/chain"
	"github.com/ra-sun-god/rocket-anchor/pkg/config"
	"github.com/ra-sun-god/rocket-anchor/pkg/deploy"
)

var (
	configPath  = flag.StringP("config", "c", config.DefaultPath, "file path to read workspace config from")
	seedsFile   = flag.StringP("seeds", "s", "", "file path to read seed definitions from")
	program     = flag.StringP("program", "p", "", "restrict the run to one named program")
	skipBuild   = flag.Bool("skip-build", false, "skip the build step")
	skipDeploy  = flag.Bool("skip-deploy", false, "skip deployment; programs must pin their ids")
	seedOnly    = flag.Bool("seed-only", false, "run only the seeding pass against pinned programs")
	noSeed      = flag.Bool("no-seed", false, "deploy without running the seeding pass")
	metricsPort = flag.Int("metrics-port", 0, "port to serve prometheus metrics on; 0 disables")
	profiler    = flag.Bool("pprof", false, "run pprof server on startup")
	pprofPort   = flag.Int("pprof-port", 6060, "port to serve the profiler on")
)

func main() {
	flag.Parse()

	procLog := log.New(log.Writer(), "[rocket] ", log.LstdFlags)

	if *profiler {
		procLog.Println("starting profiler; waiting 5 seconds to start run")
		go func() {
			procLog.Println(http.ListenAndServe(fmt.Sprintf("localhost:%d", *pprofPort), nil))
		}()
		<-time.After(5 * time.Second)
	}

	if *metricsPort > 0 {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			procLog.Println(http.ListenAndServe(fmt.Sprintf("localhost:%d", *metricsPort), mux))
		}()
	}

	// a .env in the workspace can override the wallet location
	_ = godotenv.Load()

	procLog.Println("loading workspace config ...")

	conf, err := config.Load(*configPath)
	if err != nil {
		procLog.Printf("failed to load workspace config: %s", err)
		os.Exit(1)
	}

	wallet, err := loadWallet(conf)
	if err != nil {
		procLog.Printf("failed to load wallet: %s", err)
		os.Exit(1)
	}

	commitment, err := conf.Provider.CommitmentType()
	if err != nil {
		procLog.Printf("invalid commitment: %s", err)
		os.Exit(1)
	}

	client := chain.NewRPCClient(conf.Provider.Endpoint(), commitment)

	root, err := os.Getwd()
	if err != nil {
		procLog.Printf("failed to resolve workspace root: %s", err)
		os.Exit(1)
	}

	runner := deploy.NewExecRunner(root, procLog)

	orchestrator, err := deploy.NewOrchestrator(conf, client, runner, wallet, root, procLog)
	if err != nil {
		procLog.Printf("failed to initialize orchestrator: %s", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		procLog.Println("interrupt received; aborting between plans")
		cancel()
	}()

	opts := deploy.RunOptions{
		SkipBuild:   *skipBuild || *seedOnly,
		SkipDeploy:  *skipDeploy || *seedOnly,
		Seed:        !*noSeed,
		SeedFile:    *seedsFile,
		OnlyProgram: *program,
	}

	result, err := orchestrator.Run(ctx, opts)
	if err != nil {
		procLog.Printf("run failed: %s", err)
		os.Exit(1)
	}

	printReport(os.Stdout, result)

	if result.Failed() {
		os.Exit(1)
	}
}

func loadWallet(conf *config.Config) (solana.PrivateKey, error) {
	if encoded := os.Getenv("ROCKET_WALLET"); encoded != "" {
		return solana.PrivateKeyFromBase58(encoded)
	}

	path := conf.Provider.Wallet
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}

		path = home + "/.config/solana/id.json"
	}

	return solana.PrivateKeyFromSolanaKeygenFile(path)
}
