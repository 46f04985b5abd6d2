package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"corepow/internal/compute/cuckoo"
	"corepow/internal/solution"
)

// handleCLICommands dispatches the "generate-key" and "plugins"
// subcommands before the daemon flag set is parsed, mirroring
// cmd/poaid/cli.go's handleCLICommands/os.Args[1] dispatch.
func handleCLICommands() {
	if len(os.Args) < 2 {
		return
	}
	switch os.Args[1] {
	case "generate-key":
		handleGenerateKeyCommand()
	case "plugins":
		handlePluginsCommand()
	case "help":
		printHelp()
	default:
		return
	}
	os.Exit(0)
}

func handleGenerateKeyCommand() {
	id, err := solution.GenerateIdentity()
	if err != nil {
		log.Fatalf("failed to generate key: %v", err)
	}
	fmt.Printf("Generated new miner identity:\n")
	fmt.Printf("Private key (hex): %s\n", id.PrivateKeyHex())
	fmt.Printf("Miner address (hex): %x\n", id.Address)
}

func handlePluginsCommand() {
	pluginsCmd := flag.NewFlagSet("plugins", flag.ExitOnError)
	dir := pluginsCmd.String("plugin-dir", "", "Cuckoo plugin directory to list (empty = plugins next to the executable)")
	pluginsCmd.Parse(os.Args[2:])

	resolved, err := cuckoo.ResolvePluginDir(*dir)
	if err != nil {
		log.Fatalf("failed to resolve plugin dir: %v", err)
	}
	names, err := cuckoo.ListPlugins(resolved)
	if err != nil {
		log.Fatalf("failed to list plugins in %s: %v", resolved, err)
	}
	fmt.Printf("Cuckoo plugins in %s:\n", resolved)
	for _, n := range names {
		fmt.Printf("  %s\n", n)
	}
}

func printHelp() {
	fmt.Println("minerd — RandomX/ProgPow/Cuckoo mining coordination core")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  minerd [flags]              run as a daemon")
	fmt.Println("  minerd generate-key         generate a new miner identity keypair")
	fmt.Println("  minerd plugins              list discovered cuckoo solver plugins")
	fmt.Println("  minerd help                 show this help text")
	fmt.Println()
	fmt.Println("Daemon flags:")
	fmt.Println("  --config=<path>                  - TOML config file (default miner.toml)")
	fmt.Println("  --algorithm=<randomx|progpow|cuckoo> - Override configured algorithm")
	fmt.Println("  --data-dir=<path>                - Override configured data directory")
	fmt.Println("  --stratum-server-addr=<addr>     - Override configured stratum server address")
	fmt.Println("  --stratum-listen-port=<port>     - Override configured stratum listen port")
}
