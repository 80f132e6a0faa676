package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"escrowchain/crypto"
	"escrowchain/rpc"
)

func runKeygen(args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("keygen", stderr, usage)
	var out string
	fs.StringVar(&out, "out", "", "write the hex private key to this file instead of stdout")
	if !parseFlags(fs, args, stderr) {
		return 1
	}
	key, err := crypto.GeneratePrivateKey()
	if err != nil {
		return printError(stderr, fmt.Sprintf("generate key: %v", err))
	}
	encoded := hex.EncodeToString(key.Bytes())
	fmt.Fprintf(stdout, "address: %s\n", key.PubKey().Address().String())
	if out == "" {
		fmt.Fprintf(stdout, "private key: %s\n", encoded)
		return 0
	}
	if err := os.WriteFile(out, []byte(encoded+"\n"), 0o600); err != nil {
		return printError(stderr, fmt.Sprintf("write key: %v", err))
	}
	fmt.Fprintf(stdout, "private key written to %s\n", out)
	return 0
}

// runToken mints an HS256 bearer token for local development. Production
// deployments issue tokens from their own identity provider.
func runToken(args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("token", stderr, usage)
	var account, secret, issuer string
	var ttl time.Duration
	fs.StringVar(&account, "account", "", "bech32 account the token authenticates")
	fs.StringVar(&secret, "secret", strings.TrimSpace(os.Getenv("ESCROW_RPC_SECRET")), "shared HMAC secret (defaults to ESCROW_RPC_SECRET)")
	fs.StringVar(&issuer, "issuer", "escrowd", "issuer claim")
	fs.DurationVar(&ttl, "ttl", time.Hour, "token lifetime")
	if !parseFlags(fs, args, stderr) {
		return 1
	}
	if err := required(map[string]string{"account": account, "secret": secret}); err != nil {
		return printError(stderr, err.Error())
	}
	if ttl <= 0 {
		return printError(stderr, "--ttl must be positive")
	}
	raw, err := crypto.ParseAccount(account)
	if err != nil {
		return printError(stderr, fmt.Sprintf("invalid --account: %v", err))
	}
	token, err := rpc.IssueToken([]byte(secret), issuer, raw, ttl, cliNow())
	if err != nil {
		return printError(stderr, err.Error())
	}
	fmt.Fprintln(stdout, token)
	return 0
}

func runBalance(args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("balance", stderr, usage)
	var address, token string
	fs.StringVar(&address, "address", "", "account to inspect")
	fs.StringVar(&token, "token", "", "value asset symbol")
	if !parseFlags(fs, args, stderr) {
		return 1
	}
	if err := required(map[string]string{"address": address, "token": token}); err != nil {
		return printError(stderr, err.Error())
	}
	params := map[string]interface{}{"address": address, "token": strings.ToUpper(strings.TrimSpace(token))}
	return invoke("bank_balance", params, false, stdout, stderr)
}

func runTransfer(args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("transfer", stderr, usage)
	var to, amount, token string
	fs.StringVar(&to, "to", "", "recipient account")
	fs.StringVar(&amount, "amount", "", "amount in base units")
	fs.StringVar(&token, "token", "", "value asset symbol")
	if !parseFlags(fs, args, stderr) {
		return 1
	}
	if err := required(map[string]string{"to": to, "token": token}); err != nil {
		return printError(stderr, err.Error())
	}
	value, err := normalizeAmount("amount", amount)
	if err != nil {
		return printError(stderr, err.Error())
	}
	if value == "0" {
		return printError(stderr, "--amount must be positive")
	}
	params := map[string]interface{}{"to": to, "amount": value, "token": strings.ToUpper(strings.TrimSpace(token))}
	return invoke("bank_transfer", params, true, stdout, stderr)
}
