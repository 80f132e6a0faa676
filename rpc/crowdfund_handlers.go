package rpc

import (
	"escrowchain/core"
	"escrowchain/crypto"
)

func handleCrowdfundInitialize(c *call) (interface{}, error) {
	var params crowdfundInitializeParams
	if err := c.decode(&params); err != nil {
		return nil, err
	}
	id, err := requireProgramID(params.ID)
	if err != nil {
		return nil, err
	}
	recipient, err := parseAccount("recipient", params.Recipient)
	if err != nil {
		return nil, err
	}
	target, err := parseAmount("target", params.Target)
	if err != nil {
		return nil, err
	}
	var out *crowdfundJSON
	err = c.execute(func(tx *core.Tx) error {
		if err := tx.Crowdfund(id).Initialize(recipient, params.Deadline, target, params.Token); err != nil {
			return err
		}
		view, err := crowdfundView(tx, id)
		out = view
		return err
	})
	return out, err
}

func handleCrowdfundDeposit(c *call) (interface{}, error) {
	var params crowdfundDepositParams
	if err := c.decode(&params); err != nil {
		return nil, err
	}
	id, err := requireProgramID(params.ID)
	if err != nil {
		return nil, err
	}
	amount, err := parseAmount("amount", params.Amount)
	if err != nil {
		return nil, err
	}
	var claim string
	err = c.execute(func(tx *core.Tx) error {
		cf := tx.Crowdfund(id)
		if err := cf.Deposit(c.caller, amount); err != nil {
			return err
		}
		balance, err := cf.Balance(c.caller)
		if err != nil {
			return err
		}
		claim = formatAmount(balance)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return amountResult{Amount: claim}, nil
}

func handleCrowdfundWithdraw(c *call) (interface{}, error) {
	var params crowdfundWithdrawParams
	if err := c.decode(&params); err != nil {
		return nil, err
	}
	id, err := requireProgramID(params.ID)
	if err != nil {
		return nil, err
	}
	to, err := parseAccountOr("to", params.To, c.caller)
	if err != nil {
		return nil, err
	}
	var paid string
	err = c.execute(func(tx *core.Tx) error {
		amount, err := tx.Crowdfund(id).Withdraw(to)
		if err != nil {
			return err
		}
		paid = formatAmount(amount)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return amountResult{Amount: paid}, nil
}

func handleCrowdfundGet(c *call) (interface{}, error) {
	var params programParams
	if err := c.decode(&params); err != nil {
		return nil, err
	}
	id, err := requireProgramID(params.ID)
	if err != nil {
		return nil, err
	}
	var out *crowdfundJSON
	err = c.view(func(tx *core.Tx) error {
		view, err := crowdfundView(tx, id)
		out = view
		return err
	})
	return out, err
}

func handleCrowdfundBalance(c *call) (interface{}, error) {
	var params crowdfundBalanceParams
	if err := c.decode(&params); err != nil {
		return nil, err
	}
	id, err := requireProgramID(params.ID)
	if err != nil {
		return nil, err
	}
	user, err := parseAccount("user", params.User)
	if err != nil {
		return nil, err
	}
	var balance string
	err = c.view(func(tx *core.Tx) error {
		amount, err := tx.Crowdfund(id).Balance(user)
		if err != nil {
			return err
		}
		balance = formatAmount(amount)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return amountResult{Amount: balance}, nil
}

func crowdfundView(tx *core.Tx, id string) (*crowdfundJSON, error) {
	cf := tx.Crowdfund(id)
	cfg, err := cf.Config()
	if err != nil {
		return nil, err
	}
	phase, err := cf.State()
	if err != nil {
		return nil, err
	}
	totals, err := cf.Totals()
	if err != nil {
		return nil, err
	}
	custody, err := tx.Bank().Balance(cfg.Token, cf.Account())
	if err != nil {
		return nil, err
	}
	participants, err := cf.Participants()
	if err != nil {
		return nil, err
	}
	accounts := make([]string, 0, len(participants))
	for _, p := range participants {
		accounts = append(accounts, crypto.FormatAccount(p))
	}
	return &crowdfundJSON{
		ID:           id,
		Account:      crypto.FormatAccount(cf.Account()),
		Recipient:    crypto.FormatAccount(cfg.Recipient),
		Deadline:     cfg.Deadline,
		Started:      cfg.Started,
		Target:       formatAmount(cfg.Target),
		Token:        cfg.Token,
		State:        phase.String(),
		Custody:      formatAmount(custody),
		Deposited:    formatAmount(totals.Deposited),
		Disbursed:    formatAmount(totals.Disbursed),
		Swept:        formatAmount(totals.Swept),
		Participants: accounts,
	}, nil
}
