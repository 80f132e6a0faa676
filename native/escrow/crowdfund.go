package escrow

import (
	"math/big"
	"strings"
)

const kindCrowdfund = "crowdfund"

// Crowdfund collects deposits toward a target until a deadline. After the
// deadline the recipient sweeps custody if the target was met; otherwise each
// depositor reclaims exactly what they put in.
type Crowdfund struct {
	program
}

// NewCrowdfund creates the controller for one crowdfunding instance.
func NewCrowdfund(id string) *Crowdfund {
	return &Crowdfund{program: newProgram(kindCrowdfund, id)}
}

func (c *Crowdfund) claims() claimLedger {
	return newClaimLedger(c.state, c.prefix())
}

// Config returns the stored configuration.
func (c *Crowdfund) Config() (*CrowdfundConfig, error) {
	cfg := new(CrowdfundConfig)
	ok, err := c.loadConfig(cfg)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotInitialized
	}
	return cfg, nil
}

// Initialize records the recipient, deadline, target and value asset. The
// start timestamp is taken from the clock. It may run once per instance.
func (c *Crowdfund) Initialize(recipient [20]byte, deadline uint64, target *big.Int, token string) error {
	if err := c.requireUninitialized(); err != nil {
		return err
	}
	if recipient == ([20]byte{}) || recipient == c.Account() {
		return ErrInvalidRecipient
	}
	if err := requirePositive(target); err != nil {
		return err
	}
	token = strings.ToUpper(strings.TrimSpace(token))
	if !c.bank.Supports(token) {
		return ErrUnsupportedToken
	}
	now := c.now()
	if deadline <= now {
		return ErrInvalidDeadline
	}
	cfg := &CrowdfundConfig{
		Recipient: recipient,
		Deadline:  deadline,
		Started:   now,
		Target:    new(big.Int).Set(target),
		Token:     token,
	}
	if err := c.storeConfig(cfg); err != nil {
		return err
	}
	if err := c.state.KVPut(c.key("totals"), &Totals{Deposited: big.NewInt(0), Disbursed: big.NewInt(0), Swept: big.NewInt(0)}); err != nil {
		return err
	}
	c.emit(crowdfundInitializedEvent(&c.program, cfg))
	return nil
}

// phase derives the current phase. The balance fed to DerivePhase is custody
// plus what the recipient already swept, so a completed sweep keeps the fund
// Succeeded. Refunds are not added back: value arriving after a refund is
// judged on custody alone.
func (c *Crowdfund) phase(cfg *CrowdfundConfig) (Phase, *big.Int, error) {
	custody, err := c.custody(cfg.Token)
	if err != nil {
		return PhaseRunning, nil, err
	}
	totals, err := c.loadTotals()
	if err != nil {
		return PhaseRunning, nil, err
	}
	raised := new(big.Int).Add(custody, totals.Swept)
	return DerivePhase(cfg, raised, c.now()), custody, nil
}

// Deposit moves amount from depositor into custody and records the claim.
func (c *Crowdfund) Deposit(depositor [20]byte, amount *big.Int) error {
	cfg, err := c.Config()
	if err != nil {
		return err
	}
	if err := c.requireAuth(depositor); err != nil {
		return err
	}
	if err := requirePositive(amount); err != nil {
		return err
	}
	if depositor == c.Account() {
		return ErrProgramAccount
	}
	phase, _, err := c.phase(cfg)
	if err != nil {
		return err
	}
	if phase != PhaseRunning {
		return ErrFundingClosed
	}
	if depositor == cfg.Recipient {
		return ErrRecipientDeposit
	}
	claim, err := c.claims().Add(depositor, amount)
	if err != nil {
		return err
	}
	totals, err := c.loadTotals()
	if err != nil {
		return err
	}
	totals.Deposited.Add(totals.Deposited, amount)
	if err := c.state.KVPut(c.key("totals"), totals); err != nil {
		return err
	}
	if err := c.bank.Transfer(cfg.Token, depositor, c.Account(), amount); err != nil {
		return err
	}
	c.emit(crowdfundDepositedEvent(&c.program, depositor, amount, claim))
	return nil
}

// Withdraw resolves funds after the deadline. In Succeeded only the recipient
// may withdraw and receives the entire custody balance. In Failed any account
// except the recipient reclaims its own recorded deposit. The paid amount is
// returned.
func (c *Crowdfund) Withdraw(to [20]byte) (*big.Int, error) {
	cfg, err := c.Config()
	if err != nil {
		return nil, err
	}
	phase, custody, err := c.phase(cfg)
	if err != nil {
		return nil, err
	}
	var payout *big.Int
	switch phase {
	case PhaseRunning:
		return nil, ErrFundingRunning
	case PhaseSucceeded:
		if to != cfg.Recipient {
			return nil, ErrRecipientOnly
		}
		payout = custody
	default:
		if to == cfg.Recipient {
			return nil, ErrRecipientBarred
		}
		claim, err := c.claims().Get(to)
		if err != nil {
			return nil, err
		}
		if claim.Sign() == 0 {
			return nil, ErrNoClaim
		}
		if err := c.claims().Clear(to); err != nil {
			return nil, err
		}
		payout = claim
	}
	if payout.Sign() == 0 {
		return big.NewInt(0), nil
	}
	totals, err := c.loadTotals()
	if err != nil {
		return nil, err
	}
	totals.Disbursed.Add(totals.Disbursed, payout)
	if phase == PhaseSucceeded {
		totals.Swept.Add(totals.Swept, payout)
	}
	if err := c.state.KVPut(c.key("totals"), totals); err != nil {
		return nil, err
	}
	if err := c.bank.Transfer(cfg.Token, c.Account(), to, payout); err != nil {
		return nil, err
	}
	c.emit(crowdfundWithdrawnEvent(&c.program, to, payout, phase))
	return new(big.Int).Set(payout), nil
}

// Totals reports the cumulative deposited and disbursed amounts.
func (c *Crowdfund) Totals() (*Totals, error) {
	if _, err := c.Config(); err != nil {
		return nil, err
	}
	return c.loadTotals()
}

func (c *Crowdfund) loadTotals() (*Totals, error) {
	totals := new(Totals)
	if _, err := c.state.KVGet(c.key("totals"), totals); err != nil {
		return nil, err
	}
	totals.Deposited = cloneBigInt(totals.Deposited)
	totals.Disbursed = cloneBigInt(totals.Disbursed)
	totals.Swept = cloneBigInt(totals.Swept)
	return totals, nil
}

// Recipient returns the account paid on success.
func (c *Crowdfund) Recipient() ([20]byte, error) {
	cfg, err := c.Config()
	if err != nil {
		return [20]byte{}, err
	}
	return cfg.Recipient, nil
}

// Deadline returns the timestamp after which the fund resolves.
func (c *Crowdfund) Deadline() (uint64, error) {
	cfg, err := c.Config()
	if err != nil {
		return 0, err
	}
	return cfg.Deadline, nil
}

// Started returns the timestamp recorded at initialisation.
func (c *Crowdfund) Started() (uint64, error) {
	cfg, err := c.Config()
	if err != nil {
		return 0, err
	}
	return cfg.Started, nil
}

// Target returns the funding goal.
func (c *Crowdfund) Target() (*big.Int, error) {
	cfg, err := c.Config()
	if err != nil {
		return nil, err
	}
	return cloneBigInt(cfg.Target), nil
}

// Token returns the value asset collected by the fund.
func (c *Crowdfund) Token() (string, error) {
	cfg, err := c.Config()
	if err != nil {
		return "", err
	}
	return cfg.Token, nil
}

// State returns the derived phase.
func (c *Crowdfund) State() (Phase, error) {
	cfg, err := c.Config()
	if err != nil {
		return PhaseRunning, err
	}
	phase, _, err := c.phase(cfg)
	return phase, err
}

// Balance reports what user could withdraw under the current phase: the
// recipient sees custody once Succeeded and everyone else zero; otherwise it
// is the user's recorded deposit.
func (c *Crowdfund) Balance(user [20]byte) (*big.Int, error) {
	cfg, err := c.Config()
	if err != nil {
		return nil, err
	}
	phase, custody, err := c.phase(cfg)
	if err != nil {
		return nil, err
	}
	if phase == PhaseSucceeded {
		if user == cfg.Recipient {
			return custody, nil
		}
		return big.NewInt(0), nil
	}
	return c.claims().Get(user)
}

// Participants lists every account that has deposited.
func (c *Crowdfund) Participants() ([][20]byte, error) {
	if _, err := c.Config(); err != nil {
		return nil, err
	}
	return c.claims().Participants()
}
