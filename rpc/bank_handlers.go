package rpc

import (
	"strings"

	"escrowchain/core"
	"escrowchain/crypto"
)

func handleBankBalance(c *call) (interface{}, error) {
	var params bankBalanceParams
	if err := c.decode(&params); err != nil {
		return nil, err
	}
	account, err := parseAccount("address", params.Address)
	if err != nil {
		return nil, err
	}
	token := strings.ToUpper(strings.TrimSpace(params.Token))
	var out balanceResult
	err = c.view(func(tx *core.Tx) error {
		balance, err := tx.Bank().Balance(token, account)
		if err != nil {
			return err
		}
		out = balanceResult{Address: crypto.FormatAccount(account), Token: token, Balance: formatAmount(balance)}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// handleBankTransfer moves the authenticated caller's own funds.
func handleBankTransfer(c *call) (interface{}, error) {
	var params bankTransferParams
	if err := c.decode(&params); err != nil {
		return nil, err
	}
	to, err := parseAccount("to", params.To)
	if err != nil {
		return nil, err
	}
	amount, err := parseAmount("amount", params.Amount)
	if err != nil {
		return nil, err
	}
	if amount.Sign() <= 0 {
		return nil, invalidParams("amount must be positive")
	}
	token := strings.ToUpper(strings.TrimSpace(params.Token))
	var out balanceResult
	err = c.execute(func(tx *core.Tx) error {
		if err := tx.Bank().Transfer(token, c.caller, to, amount); err != nil {
			return err
		}
		balance, err := tx.Bank().Balance(token, c.caller)
		if err != nil {
			return err
		}
		out = balanceResult{Address: crypto.FormatAccount(c.caller), Token: token, Balance: formatAmount(balance)}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
