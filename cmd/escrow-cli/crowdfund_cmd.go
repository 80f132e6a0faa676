package main

import (
	"fmt"
	"io"
	"strings"
)

func runCrowdfundCommand(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(stderr, crowdfundUsage())
		return 1
	}
	switch args[0] {
	case "initialize":
		return runCrowdfundInitialize(args[1:], stdout, stderr)
	case "deposit":
		return runCrowdfundDeposit(args[1:], stdout, stderr)
	case "withdraw":
		return runCrowdfundWithdraw(args[1:], stdout, stderr)
	case "get":
		return runCrowdfundGet(args[1:], stdout, stderr)
	case "balance":
		return runCrowdfundBalance(args[1:], stdout, stderr)
	default:
		fmt.Fprintf(stderr, "Unknown crowdfund subcommand: %s\n", args[0])
		fmt.Fprintln(stderr, crowdfundUsage())
		return 1
	}
}

func runCrowdfundInitialize(args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("crowdfund initialize", stderr, crowdfundUsage)
	var id, recipient, deadline, target, token string
	fs.StringVar(&id, "id", "", "program id")
	fs.StringVar(&recipient, "recipient", "", "recipient bech32 address")
	fs.StringVar(&deadline, "deadline", "", "deadline as unix seconds, RFC3339 or +duration")
	fs.StringVar(&target, "target", "", "funding goal in base units")
	fs.StringVar(&token, "token", "", "value asset symbol")
	if !parseFlags(fs, args, stderr) {
		return 1
	}
	if err := required(map[string]string{"id": id, "recipient": recipient, "token": token}); err != nil {
		return printError(stderr, err.Error())
	}
	deadlineTS, err := parseTimestamp("deadline", deadline, cliNow())
	if err != nil {
		return printError(stderr, err.Error())
	}
	targetAmount, err := normalizeAmount("target", target)
	if err != nil {
		return printError(stderr, err.Error())
	}
	params := map[string]interface{}{
		"id":        id,
		"recipient": recipient,
		"deadline":  deadlineTS,
		"target":    targetAmount,
		"token":     strings.ToUpper(strings.TrimSpace(token)),
	}
	return invoke("crowdfund_initialize", params, true, stdout, stderr)
}

func runCrowdfundDeposit(args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("crowdfund deposit", stderr, crowdfundUsage)
	var id, amount string
	fs.StringVar(&id, "id", "", "program id")
	fs.StringVar(&amount, "amount", "", "deposit in base units")
	if !parseFlags(fs, args, stderr) {
		return 1
	}
	if err := required(map[string]string{"id": id}); err != nil {
		return printError(stderr, err.Error())
	}
	value, err := normalizeAmount("amount", amount)
	if err != nil {
		return printError(stderr, err.Error())
	}
	return invoke("crowdfund_deposit", map[string]interface{}{"id": id, "amount": value}, true, stdout, stderr)
}

func runCrowdfundWithdraw(args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("crowdfund withdraw", stderr, crowdfundUsage)
	var id, to string
	fs.StringVar(&id, "id", "", "program id")
	fs.StringVar(&to, "to", "", "payout account (defaults to the caller)")
	if !parseFlags(fs, args, stderr) {
		return 1
	}
	if err := required(map[string]string{"id": id}); err != nil {
		return printError(stderr, err.Error())
	}
	params := map[string]interface{}{"id": id}
	if strings.TrimSpace(to) != "" {
		params["to"] = to
	}
	return invoke("crowdfund_withdraw", params, true, stdout, stderr)
}

func runCrowdfundGet(args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("crowdfund get", stderr, crowdfundUsage)
	var id string
	fs.StringVar(&id, "id", "", "program id")
	if !parseFlags(fs, args, stderr) {
		return 1
	}
	if err := required(map[string]string{"id": id}); err != nil {
		return printError(stderr, err.Error())
	}
	return invoke("crowdfund_get", map[string]interface{}{"id": id}, false, stdout, stderr)
}

func runCrowdfundBalance(args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("crowdfund balance", stderr, crowdfundUsage)
	var id, user string
	fs.StringVar(&id, "id", "", "program id")
	fs.StringVar(&user, "user", "", "account to inspect")
	if !parseFlags(fs, args, stderr) {
		return 1
	}
	if err := required(map[string]string{"id": id, "user": user}); err != nil {
		return printError(stderr, err.Error())
	}
	return invoke("crowdfund_balance", map[string]interface{}{"id": id, "user": user}, false, stdout, stderr)
}

func crowdfundUsage() string {
	return strings.TrimSpace(`Usage:
  escrow-cli crowdfund <command> [flags]

Commands:
  initialize  Create a fund (--id --recipient --deadline --target --token)
  deposit     Deposit from the caller (--id --amount)
  withdraw    Withdraw the caller's entitlement (--id [--to])
  get         Show fund state (--id)
  balance     Show what an account could withdraw (--id --user)
`)
}
