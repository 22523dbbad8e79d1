package orchestrator

import (
	"fmt"
	"strings"

	"github.com/mbd888/guardian/internal/account"
	"github.com/mbd888/guardian/internal/risk"
)

// All user-facing text lives here. The evaluator and resolver hand back
// structured fields only; this file turns them into sentences.

func lowBalanceText(balance float64) string {
	return fmt.Sprintf("LOW BALANCE: Your balance is only $%.2f.", balance)
}

func balanceText(actx *account.Context) string {
	return fmt.Sprintf("Your current account balance is $%.2f.", actx.Profile.Balance)
}

func detailsText(actx *account.Context) string {
	p := actx.Profile
	return fmt.Sprintf(
		"Here are your primary account details: Account Holder: %s, Account Number (Last 4): %s. Your system User ID is: %s.",
		p.Name, p.MaskedAccount(), p.ID)
}

func statementText(actx *account.Context) string {
	recent := actx.LastTransactions(5)
	if len(recent) == 0 {
		return "You have no recent statement transactions."
	}
	lines := make([]string, 0, len(recent))
	for _, t := range recent {
		label := "Debit"
		if t.Type == account.TypeCredit {
			label = "Credit"
		}
		lines = append(lines, fmt.Sprintf("%s of $%.2f to %s", label, t.Amount, t.Recipient))
	}
	return "Here is a summary of your recent statement transactions: " + strings.Join(lines, "; ") + "."
}

func historyText(actx *account.Context) string {
	recent := actx.LastTransactions(3)
	if len(recent) == 0 {
		return "You have no recent transactions."
	}
	lines := make([]string, 0, len(recent))
	for _, t := range recent {
		lines = append(lines, fmt.Sprintf("%s for $%.2f", t.Recipient, t.Amount))
	}
	return "Your last three transactions were: " + strings.Join(lines, "; ") + "."
}

// loanText summarizes rate-bearing products and reports the credit card
// limit separately; "Credit Limit" is a pseudo-product carrying only a cap.
func loanText(actx *account.Context) string {
	var offers []string
	var creditLimit *float64
	for _, p := range actx.LoanProducts {
		if p.Name == "Credit Limit" {
			limit := p.MaxLimit
			creditLimit = &limit
			continue
		}
		offers = append(offers, fmt.Sprintf("%s at %s", p.Name, p.Rate))
	}
	if len(offers) == 0 && creditLimit == nil {
		return "We have no loan products on file for you right now."
	}
	text := "We offer: " + strings.Join(offers, ", ") + "."
	if creditLimit != nil {
		text += fmt.Sprintf(" Your current credit card limit is $%.0f.", *creditLimit)
	}
	return text + " Would you like details on a specific product?"
}

func settledText(amount float64, recipient string, newBalance float64) string {
	return fmt.Sprintf(
		"Transfer complete. Transfer of $%.2f to %s executed successfully. Your new balance is $%.2f.",
		amount, recipient, newBalance)
}

func executionDetail(amount float64, recipient string) string {
	return fmt.Sprintf("Transfer of %.2f to %s", amount, recipient)
}

// renderSecurityCheck turns a verdict into the confirmation handshake. The
// two phrases differ on purpose: a voice interface makes the user echo the
// risk level back, so a misheard "yes" cannot silently confirm a
// high-risk transfer.
func renderSecurityCheck(v *risk.Verdict) *SecurityCheck {
	switch v.Code {
	case risk.CodeContextUnavailable:
		return &SecurityCheck{
			IsSafe: false,
			Prompt: "System error. Cannot verify context.",
		}
	case risk.CodeInsufficientFunds:
		return &SecurityCheck{
			IsSafe: false,
			Prompt: "I cannot proceed; you have insufficient funds for this transfer.",
		}
	case risk.CodeChallenge:
		score := *v.Score
		return &SecurityCheck{
			IsSafe: false,
			Prompt: fmt.Sprintf(
				"HIGH RISK (%.0f%%): This transfer of $%.2f to %s is highly unusual for you. Please verbally confirm you wish to proceed by saying 'CONFIRM HIGH RISK TRANSFER'.",
				score, v.Amount, v.Recipient),
			RiskScore: fmt.Sprintf("%.0f%%", score),
		}
	default:
		return &SecurityCheck{
			IsSafe: true,
			Prompt: fmt.Sprintf("Transferring $%.2f to %s. Please say 'CONFIRM TRANSACTION' to proceed.", v.Amount, v.Recipient),
		}
	}
}
