package main

import (
	"fmt"
	"io"
	"strings"
)

func runRegistryCommand(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(stderr, registryUsage())
		return 1
	}
	switch args[0] {
	case "initialize":
		return runRegistryInitialize(args[1:], stdout, stderr)
	case "mint":
		return runRegistryMint(args[1:], stdout, stderr)
	case "burn":
		return runRegistryTokenCommand("burn", args[1:], stdout, stderr)
	case "transfer":
		return runRegistryTokenCommand("transfer", args[1:], stdout, stderr)
	case "get":
		return runRegistryGet(args[1:], stdout, stderr)
	default:
		fmt.Fprintf(stderr, "Unknown registry subcommand: %s\n", args[0])
		fmt.Fprintln(stderr, registryUsage())
		return 1
	}
}

func runRegistryInitialize(args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("registry initialize", stderr, registryUsage)
	var registry, name, symbol, admin string
	fs.StringVar(&registry, "registry", "", "registry as <kind>/<id>, kind is nft or sbt")
	fs.StringVar(&name, "name", "", "collection name")
	fs.StringVar(&symbol, "symbol", "", "collection symbol")
	fs.StringVar(&admin, "admin", "", "admin account (defaults to the caller)")
	if !parseFlags(fs, args, stderr) {
		return 1
	}
	if err := required(map[string]string{"registry": registry, "name": name, "symbol": symbol}); err != nil {
		return printError(stderr, err.Error())
	}
	params := map[string]interface{}{"registry": registry, "name": name, "symbol": symbol}
	if strings.TrimSpace(admin) != "" {
		params["admin"] = admin
	}
	return invoke("registry_initialize", params, true, stdout, stderr)
}

func runRegistryMint(args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("registry mint", stderr, registryUsage)
	var registry, uri, to string
	fs.StringVar(&registry, "registry", "", "registry as <kind>/<id>")
	fs.StringVar(&uri, "uri", "", "token metadata uri")
	fs.StringVar(&to, "to", "", "recipient (defaults to the caller)")
	if !parseFlags(fs, args, stderr) {
		return 1
	}
	if err := required(map[string]string{"registry": registry, "uri": uri}); err != nil {
		return printError(stderr, err.Error())
	}
	params := map[string]interface{}{"registry": registry, "uri": uri}
	if strings.TrimSpace(to) != "" {
		params["to"] = to
	}
	return invoke("registry_mint", params, true, stdout, stderr)
}

func runRegistryTokenCommand(action string, args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("registry "+action, stderr, registryUsage)
	var registry, tokenID, to string
	fs.StringVar(&registry, "registry", "", "registry as <kind>/<id>")
	fs.StringVar(&tokenID, "token-id", "", "token id")
	if action == "transfer" {
		fs.StringVar(&to, "to", "", "new owner")
	}
	if !parseFlags(fs, args, stderr) {
		return 1
	}
	fields := map[string]string{"registry": registry, "token-id": tokenID}
	if action == "transfer" {
		fields["to"] = to
	}
	if err := required(fields); err != nil {
		return printError(stderr, err.Error())
	}
	id, err := parseTokenID(tokenID)
	if err != nil {
		return printError(stderr, err.Error())
	}
	params := map[string]interface{}{"registry": registry, "tokenId": id}
	if action == "transfer" {
		params["to"] = to
	}
	return invoke("registry_"+action, params, true, stdout, stderr)
}

func runRegistryGet(args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("registry get", stderr, registryUsage)
	var registry, tokenID string
	fs.StringVar(&registry, "registry", "", "registry as <kind>/<id>")
	fs.StringVar(&tokenID, "token-id", "", "token id (omit for the collection)")
	if !parseFlags(fs, args, stderr) {
		return 1
	}
	if err := required(map[string]string{"registry": registry}); err != nil {
		return printError(stderr, err.Error())
	}
	params := map[string]interface{}{"registry": registry}
	if strings.TrimSpace(tokenID) != "" {
		id, err := parseTokenID(tokenID)
		if err != nil {
			return printError(stderr, err.Error())
		}
		params["tokenId"] = id
	}
	return invoke("registry_get", params, false, stdout, stderr)
}

func registryUsage() string {
	return strings.TrimSpace(`Usage:
  escrow-cli registry <command> [flags]

Commands:
  initialize  Create a registry (--registry --name --symbol [--admin])
  mint        Mint a token (--registry --uri [--to])
  burn        Burn an owned token, nft only (--registry --token-id)
  transfer    Transfer an owned token, nft only (--registry --token-id --to)
  get         Show the collection or a token (--registry [--token-id])
`)
}
