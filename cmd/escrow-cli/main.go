package main

import (
	"fmt"
	"io"
	"os"
	"strings"
)

var (
	rpcEndpoint  = defaultRPCEndpoint()
	rpcAuthToken = strings.TrimSpace(os.Getenv("ESCROW_RPC_TOKEN"))
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	args, err := applyGlobalFlags(args)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	if len(args) < 1 {
		fmt.Fprintln(stderr, usage())
		return 1
	}
	switch args[0] {
	case "keygen":
		return runKeygen(args[1:], stdout, stderr)
	case "token":
		return runToken(args[1:], stdout, stderr)
	case "balance":
		return runBalance(args[1:], stdout, stderr)
	case "transfer":
		return runTransfer(args[1:], stdout, stderr)
	case "crowdfund":
		return runCrowdfundCommand(args[1:], stdout, stderr)
	case "auction":
		return runAuctionCommand(args[1:], stdout, stderr)
	case "storefront":
		return runStorefrontCommand(args[1:], stdout, stderr)
	case "registry":
		return runRegistryCommand(args[1:], stdout, stderr)
	case "events":
		return runEventsCommand(args[1:], stdout, stderr)
	case "help", "-h", "--help":
		fmt.Fprintln(stdout, usage())
		return 0
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n", args[0])
		fmt.Fprintln(stderr, usage())
		return 1
	}
}

func defaultRPCEndpoint() string {
	if v := strings.TrimSpace(os.Getenv("RPC_URL")); v != "" {
		return v
	}
	return "http://localhost:8080"
}

// applyGlobalFlags strips --rpc and --auth from args wherever they appear.
func applyGlobalFlags(args []string) ([]string, error) {
	out := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "--rpc" || arg == "--auth":
			if i+1 >= len(args) {
				return nil, fmt.Errorf("missing value for %s", arg)
			}
			if arg == "--rpc" {
				rpcEndpoint = args[i+1]
			} else {
				rpcAuthToken = args[i+1]
			}
			i++
		case strings.HasPrefix(arg, "--rpc="):
			rpcEndpoint = strings.TrimPrefix(arg, "--rpc=")
		case strings.HasPrefix(arg, "--auth="):
			rpcAuthToken = strings.TrimPrefix(arg, "--auth=")
		default:
			out = append(out, arg)
		}
	}
	return out, nil
}

func usage() string {
	return strings.TrimSpace(`Usage:
  escrow-cli [--rpc URL] [--auth TOKEN] <command> [flags]

Commands:
  keygen      Generate an account key and print its address
  token       Mint a development bearer token for an account
  balance     Show an account balance
  transfer    Move funds from the authenticated account
  crowdfund   Crowdfunding programs (initialize, deposit, withdraw, get, balance)
  auction     Auction houses (initialize, list, bid, settle, delist, get)
  storefront  Fixed-price storefronts (initialize, list, delist, purchase, get)
  registry    Asset registries (initialize, mint, burn, transfer, get)
  events      Committed events (list, export)

Mutating commands read the bearer token from --auth or ESCROW_RPC_TOKEN.
`)
}
