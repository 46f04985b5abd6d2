// Command minerd drives one of the RandomX/ProgPow/Cuckoo back-end
// miners under the Controller loop, fed jobs and seeds by a
// stratum-client stub. Flag parsing, daemon wiring, and signal
// handling follow cmd/poaid/main.go's shape.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"corepow/internal/config"
	"corepow/internal/controller"
	"corepow/internal/miner"
	"corepow/internal/solution"
	"corepow/internal/store"
	"corepow/internal/stratumclient"
)

func main() {
	handleCLICommands()

	var (
		configPath  = flag.String("config", "miner.toml", "Path to TOML config file")
		algorithm   = flag.String("algorithm", "", "Override configured algorithm (randomx|progpow|cuckoo)")
		dataDir     = flag.String("data-dir", "", "Override configured data directory")
		stratumAddr = flag.String("stratum-server-addr", "", "Override configured stratum server address")
		listenPort  = flag.Int("stratum-listen-port", 0, "Override configured stratum listen port")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("[CONFIG] %v", err)
	}
	if *algorithm != "" {
		cfg.Algorithm = config.Algorithm(*algorithm)
	}
	if *dataDir != "" {
		cfg.DataDir = *dataDir
	}
	if *stratumAddr != "" {
		cfg.StratumServerAddr = *stratumAddr
	}
	if *listenPort != 0 {
		cfg.StratumListenPort = *listenPort
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[CONFIG] %v", err)
	}

	log.Printf("[MINERD] starting, algorithm=%s data_dir=%s", cfg.Algorithm, cfg.DataDir)

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		log.Fatalf("[MINERD] failed to create data dir: %v", err)
	}

	localStore, err := store.Open(cfg.DataDir)
	if err != nil {
		log.Fatalf("[STORE] failed to open: %v", err)
	}
	defer localStore.Close()

	var identity *solution.Identity
	if cfg.MinerPrivateKeyHex != "" {
		identity, err = solution.LoadIdentity(cfg.MinerPrivateKeyHex)
	} else {
		identity, err = solution.GenerateIdentity()
	}
	if err != nil {
		log.Fatalf("[SOLUTION] failed to establish miner identity: %v", err)
	}
	log.Printf("[MINERD] miner address: %x", identity.Address)

	m, err := buildMiner(cfg, localStore)
	if err != nil {
		log.Fatalf("[MINERD] %v", err)
	}
	if err := m.StartSolvers(); err != nil {
		log.Fatalf("[MINERD] failed to start solvers: %v", err)
	}

	ctrl := controller.New(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client, err := stratumclient.New(ctx, cfg.StratumListenPort, ctrl.Inbound())
	if err != nil {
		log.Fatalf("[STRATUM] failed to start: %v", err)
	}
	defer client.Close()
	log.Printf("[STRATUM] node started, listening on:")
	for _, addr := range client.Addrs() {
		log.Printf("[STRATUM]   %s", addr)
	}

	clientCh := make(chan controller.ClientMessage, 64)
	ctrl.SetClientTx(clientCh)
	go forwardSolutions(ctx, client, clientCh, localStore, identity, cfg.Algorithm)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan error, 1)
	go func() { done <- ctrl.Run(m) }()

	select {
	case <-sigChan:
		log.Printf("[MINERD] shutdown signal received")
		ctrl.Inbound() <- controller.MinerMessage{Kind: controller.Shutdown}
		<-done
	case err := <-done:
		if err != nil {
			log.Printf("[MINERD] controller exited with error: %v", err)
		}
	}
	log.Printf("[MINERD] shut down cleanly")
}

// solutionKeepWindow bounds how many of the most recent solution
// records PruneSolutions retains, so the badger database doesn't grow
// unbounded over a long-running process.
const solutionKeepWindow = 1000

// forwardSolutions signs and records each FoundSolution ClientMessage,
// then republishes it on the stratum client's solution topic.
func forwardSolutions(ctx context.Context, client *stratumclient.Client, clientCh <-chan controller.ClientMessage, st *store.Store, identity *solution.Identity, algorithm config.Algorithm) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-clientCh:
			if !ok {
				return
			}
			if msg.Kind != controller.FoundSolution {
				continue
			}
			report := solution.NewReport(identity.Address[:], msg.Height, msg.Solution.ID, string(algorithm), msg.Solution)
			if err := report.Sign(identity.PrivateKey); err != nil {
				log.Printf("[SOLUTION] failed to sign report: %v", err)
				continue
			}
			if err := st.PutSolution(report); err != nil {
				log.Printf("[STORE] failed to record solution: %v", err)
			} else if err := st.PruneSolutions(solutionKeepWindow, msg.Solution.ID); err != nil {
				log.Printf("[STORE] failed to prune old solutions: %v", err)
			}
			if err := client.PublishSolution(ctx, msg); err != nil {
				log.Printf("[STRATUM] failed to publish solution: %v", err)
				continue
			}
			log.Printf("[SOLUTION] submitted %s", report)
		}
	}
}

// buildMiner constructs the configured back-end Miner façade. st is
// only consulted by RandomX, the one back-end with epoch bookkeeping
// to persist.
func buildMiner(cfg config.Config, st *store.Store) (miner.Miner, error) {
	switch cfg.Algorithm {
	case config.AlgorithmRandomX:
		return miner.NewRxMiner(cfg.RandomXThreads, st), nil
	case config.AlgorithmProgPow:
		return miner.NewPpMiner(cfg.GPUs), nil
	case config.AlgorithmCuckoo:
		return miner.NewCuckooMiner(cfg.MinerPluginConfigs), nil
	default:
		return nil, errUnknownAlgorithm(cfg.Algorithm)
	}
}

type errUnknownAlgorithm config.Algorithm

func (e errUnknownAlgorithm) Error() string {
	return "unknown algorithm: " + string(e)
}
