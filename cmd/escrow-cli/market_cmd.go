package main

import (
	"fmt"
	"io"
	"strings"
)

func runAuctionCommand(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(stderr, auctionUsage())
		return 1
	}
	switch args[0] {
	case "initialize":
		return runMarketInitialize("auction", args[1:], stdout, stderr, auctionUsage)
	case "list":
		return runAuctionList(args[1:], stdout, stderr)
	case "bid":
		return runAuctionBid(args[1:], stdout, stderr)
	case "settle":
		return runAuctionSettle(args[1:], stdout, stderr)
	case "delist":
		return runAuctionDelist(args[1:], stdout, stderr)
	case "get":
		return runMarketGet("auction", args[1:], stdout, stderr, auctionUsage)
	default:
		fmt.Fprintf(stderr, "Unknown auction subcommand: %s\n", args[0])
		fmt.Fprintln(stderr, auctionUsage())
		return 1
	}
}

func runStorefrontCommand(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(stderr, storefrontUsage())
		return 1
	}
	switch args[0] {
	case "initialize":
		return runMarketInitialize("storefront", args[1:], stdout, stderr, storefrontUsage)
	case "list":
		return runStorefrontList(args[1:], stdout, stderr)
	case "delist":
		return runStorefrontDelist(args[1:], stdout, stderr)
	case "purchase":
		return runStorefrontPurchase(args[1:], stdout, stderr)
	case "get":
		return runMarketGet("storefront", args[1:], stdout, stderr, storefrontUsage)
	default:
		fmt.Fprintf(stderr, "Unknown storefront subcommand: %s\n", args[0])
		fmt.Fprintln(stderr, storefrontUsage())
		return 1
	}
}

func runMarketInitialize(module string, args []string, stdout, stderr io.Writer, usage func() string) int {
	fs := newFlagSet(module+" initialize", stderr, usage)
	var id, registry, admin, token string
	fs.StringVar(&id, "id", "", "program id")
	fs.StringVar(&registry, "registry", "", "asset registry as <kind>/<id>, e.g. nft/art")
	fs.StringVar(&admin, "admin", "", "admin account (defaults to the caller)")
	fs.StringVar(&token, "token", "", "value asset symbol")
	if !parseFlags(fs, args, stderr) {
		return 1
	}
	if err := required(map[string]string{"id": id, "registry": registry, "token": token}); err != nil {
		return printError(stderr, err.Error())
	}
	params := map[string]interface{}{
		"id":       id,
		"registry": registry,
		"token":    strings.ToUpper(strings.TrimSpace(token)),
	}
	if strings.TrimSpace(admin) != "" {
		params["admin"] = admin
	}
	return invoke(module+"_initialize", params, true, stdout, stderr)
}

func runMarketGet(module string, args []string, stdout, stderr io.Writer, usage func() string) int {
	fs := newFlagSet(module+" get", stderr, usage)
	var id, tokenID string
	fs.StringVar(&id, "id", "", "program id")
	fs.StringVar(&tokenID, "token-id", "", "listed asset id (omit for the program configuration)")
	if !parseFlags(fs, args, stderr) {
		return 1
	}
	if err := required(map[string]string{"id": id}); err != nil {
		return printError(stderr, err.Error())
	}
	params := map[string]interface{}{"id": id}
	if strings.TrimSpace(tokenID) != "" {
		parsed, err := parseTokenID(tokenID)
		if err != nil {
			return printError(stderr, err.Error())
		}
		params["tokenId"] = parsed
	}
	return invoke(module+"_get", params, false, stdout, stderr)
}

func runAuctionList(args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("auction list", stderr, auctionUsage)
	var id, tokenID, reserve, expiration string
	fs.StringVar(&id, "id", "", "auction house id")
	fs.StringVar(&tokenID, "token-id", "", "asset id to list")
	fs.StringVar(&reserve, "reserve", "0", "reserve price in base units")
	fs.StringVar(&expiration, "expiration", "", "expiration as unix seconds, RFC3339 or +duration")
	if !parseFlags(fs, args, stderr) {
		return 1
	}
	if err := required(map[string]string{"id": id, "token-id": tokenID}); err != nil {
		return printError(stderr, err.Error())
	}
	asset, err := parseTokenID(tokenID)
	if err != nil {
		return printError(stderr, err.Error())
	}
	reserveAmount, err := normalizeAmount("reserve", reserve)
	if err != nil {
		return printError(stderr, err.Error())
	}
	expires, err := parseTimestamp("expiration", expiration, cliNow())
	if err != nil {
		return printError(stderr, err.Error())
	}
	params := map[string]interface{}{"id": id, "tokenId": asset, "reserve": reserveAmount, "expiration": expires}
	return invoke("auction_list", params, true, stdout, stderr)
}

func runAuctionBid(args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("auction bid", stderr, auctionUsage)
	var id, tokenID, amount, token string
	fs.StringVar(&id, "id", "", "auction house id")
	fs.StringVar(&tokenID, "token-id", "", "listed asset id")
	fs.StringVar(&amount, "amount", "", "bid in base units")
	fs.StringVar(&token, "token", "", "value asset symbol")
	if !parseFlags(fs, args, stderr) {
		return 1
	}
	if err := required(map[string]string{"id": id, "token-id": tokenID, "token": token}); err != nil {
		return printError(stderr, err.Error())
	}
	asset, err := parseTokenID(tokenID)
	if err != nil {
		return printError(stderr, err.Error())
	}
	value, err := normalizeAmount("amount", amount)
	if err != nil {
		return printError(stderr, err.Error())
	}
	params := map[string]interface{}{"id": id, "tokenId": asset, "amount": value, "token": strings.ToUpper(token)}
	return invoke("auction_bid", params, true, stdout, stderr)
}

func runAuctionSettle(args []string, stdout, stderr io.Writer) int {
	return runAuctionClose("settle", args, stdout, stderr)
}

func runAuctionDelist(args []string, stdout, stderr io.Writer) int {
	return runAuctionClose("delist", args, stdout, stderr)
}

func runAuctionClose(action string, args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("auction "+action, stderr, auctionUsage)
	var id, tokenID, owner, token string
	fs.StringVar(&id, "id", "", "auction house id")
	fs.StringVar(&tokenID, "token-id", "", "listed asset id")
	fs.StringVar(&token, "token", "", "value asset symbol")
	if action == "settle" {
		fs.StringVar(&owner, "owner", "", "listing owner (defaults to the caller)")
	}
	if !parseFlags(fs, args, stderr) {
		return 1
	}
	if err := required(map[string]string{"id": id, "token-id": tokenID, "token": token}); err != nil {
		return printError(stderr, err.Error())
	}
	asset, err := parseTokenID(tokenID)
	if err != nil {
		return printError(stderr, err.Error())
	}
	params := map[string]interface{}{"id": id, "tokenId": asset, "token": strings.ToUpper(token)}
	if strings.TrimSpace(owner) != "" {
		params["owner"] = owner
	}
	return invoke("auction_"+action, params, true, stdout, stderr)
}

func runStorefrontList(args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("storefront list", stderr, storefrontUsage)
	var id, tokenID, price string
	fs.StringVar(&id, "id", "", "storefront id")
	fs.StringVar(&tokenID, "token-id", "", "asset id to offer")
	fs.StringVar(&price, "price", "", "price in base units")
	if !parseFlags(fs, args, stderr) {
		return 1
	}
	if err := required(map[string]string{"id": id, "token-id": tokenID}); err != nil {
		return printError(stderr, err.Error())
	}
	asset, err := parseTokenID(tokenID)
	if err != nil {
		return printError(stderr, err.Error())
	}
	value, err := normalizeAmount("price", price)
	if err != nil {
		return printError(stderr, err.Error())
	}
	return invoke("storefront_list", map[string]interface{}{"id": id, "tokenId": asset, "price": value}, true, stdout, stderr)
}

func runStorefrontDelist(args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("storefront delist", stderr, storefrontUsage)
	var id, tokenID string
	fs.StringVar(&id, "id", "", "storefront id")
	fs.StringVar(&tokenID, "token-id", "", "listed asset id")
	if !parseFlags(fs, args, stderr) {
		return 1
	}
	if err := required(map[string]string{"id": id, "token-id": tokenID}); err != nil {
		return printError(stderr, err.Error())
	}
	asset, err := parseTokenID(tokenID)
	if err != nil {
		return printError(stderr, err.Error())
	}
	return invoke("storefront_delist", map[string]interface{}{"id": id, "tokenId": asset}, true, stdout, stderr)
}

func runStorefrontPurchase(args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("storefront purchase", stderr, storefrontUsage)
	var id, tokenID, owner, token string
	fs.StringVar(&id, "id", "", "storefront id")
	fs.StringVar(&tokenID, "token-id", "", "listed asset id")
	fs.StringVar(&owner, "owner", "", "listing owner")
	fs.StringVar(&token, "token", "", "value asset symbol")
	if !parseFlags(fs, args, stderr) {
		return 1
	}
	if err := required(map[string]string{"id": id, "token-id": tokenID, "owner": owner, "token": token}); err != nil {
		return printError(stderr, err.Error())
	}
	asset, err := parseTokenID(tokenID)
	if err != nil {
		return printError(stderr, err.Error())
	}
	params := map[string]interface{}{"id": id, "tokenId": asset, "owner": owner, "token": strings.ToUpper(token)}
	return invoke("storefront_purchase", params, true, stdout, stderr)
}

func auctionUsage() string {
	return strings.TrimSpace(`Usage:
  escrow-cli auction <command> [flags]

Commands:
  initialize  Create an auction house (--id --registry --token [--admin])
  list        List an asset (--id --token-id --reserve --expiration)
  bid         Bid on a listing (--id --token-id --amount --token)
  settle      Settle an expired listing (--id --token-id --token [--owner])
  delist      Cancel a listing (--id --token-id --token)
  get         Show the house or a listing (--id [--token-id])
`)
}

func storefrontUsage() string {
	return strings.TrimSpace(`Usage:
  escrow-cli storefront <command> [flags]

Commands:
  initialize  Create a storefront (--id --registry --token [--admin])
  list        Offer an asset (--id --token-id --price)
  delist      Withdraw an offer (--id --token-id)
  purchase    Buy a listed asset (--id --token-id --owner --token)
  get         Show the storefront or a listing (--id [--token-id])
`)
}
