// Package nlu resolves free-text utterances into banking intents and
// extracts the entities needed to act on them.
//
// Resolution is deterministic pattern matching, not statistical
// classification: an ordered cascade of lexical cues evaluated top to
// bottom with early return, so specific cues ("top up") always win over
// generic ones ("money").
package nlu

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/mbd888/guardian/internal/account"
)

// Intent is a canonical category of user request.
type Intent string

const (
	IntentTransferFunds    Intent = "Transfer_Funds"
	IntentCheckBalance     Intent = "Check_Balance"
	IntentAccountStatement Intent = "Account_Statement"
	IntentAccountDetails   Intent = "Account_Details"
	IntentViewHistory      Intent = "View_History"
	IntentLoanInquiry      Intent = "Loan_Inquiry"
	IntentSetReminder      Intent = "Set_Reminder"
	IntentUnknown          Intent = "Unknown"
)

// Resolution is the outcome of resolving one utterance.
// Amount and Recipient are nil when the entity could not be extracted —
// a valid "intent known, entity missing" state, not an error.
type Resolution struct {
	Intent    Intent
	Amount    *float64
	Recipient *string
	// SelfDeposit marks the self-deposit form of Transfer_Funds
	// (recipient is the account holder).
	SelfDeposit bool
}

// MissingEntities reports whether a transfer resolution lacks the amount
// or recipient required for risk evaluation.
func (r *Resolution) MissingEntities() bool {
	return r.Intent == IntentTransferFunds && (r.Amount == nil || r.Recipient == nil)
}

// amountPattern captures the first run of decimal digits. The magnitude is
// read as a base-10 integer: "50.75" yields 50. Known limitation, kept
// deliberately — no currency stripping, no decimal parsing.
var amountPattern = regexp.MustCompile(`\d+`)

// Lexical cues, evaluated in this order. Precedence is part of the
// contract: a "top up 500" request mentions money but is never a balance
// check.
var (
	cueSelfDeposit = regexp.MustCompile(`(top up|deposit|add money)\b`)
	cueBalance     = regexp.MustCompile(`(balance|money i have|how much is in)\b`)
	cueStatement   = regexp.MustCompile(`(account statement|full statement|credit and debit)\b`)
	cueDetails     = regexp.MustCompile(`(my account details|account holder name|account number)\b`)
	cueHistory     = regexp.MustCompile(`(history|transactions|spent|last payment)\b`)
	cueLoan        = regexp.MustCompile(`(loan|rate|limit|credit)\b`)
	cueReminder    = regexp.MustCompile(`(remind me|set alert|set reminder|set payment)\b`)
	cueOutbound    = regexp.MustCompile(`(send|transfer|move|pay)\b`)
)

// extractAmount returns the first integer quantity in the text, or nil.
func extractAmount(text string) *float64 {
	m := amountPattern.FindString(text)
	if m == "" {
		return nil
	}
	n, err := strconv.ParseInt(m, 10, 64)
	if err != nil {
		return nil
	}
	f := float64(n)
	return &f
}

// matchRecipient scans known beneficiaries in insertion order and returns
// the first whose name appears as a case-insensitive substring. The
// ordering dependency is a documented tie-break; the beneficiary slice
// keeps a stable order to make resolution reproducible.
func matchRecipient(text string, beneficiaries []account.Beneficiary) *string {
	for _, b := range beneficiaries {
		if strings.Contains(text, strings.ToLower(b.Name)) {
			name := b.Name
			return &name
		}
	}
	return nil
}

// resolve runs the cascade against a lowercased utterance.
func resolve(lower string, actx *account.Context) Resolution {
	if cueSelfDeposit.MatchString(lower) {
		name := actx.Profile.Name
		return Resolution{
			Intent:      IntentTransferFunds,
			Amount:      extractAmount(lower),
			Recipient:   &name,
			SelfDeposit: true,
		}
	}

	switch {
	case cueBalance.MatchString(lower):
		return Resolution{Intent: IntentCheckBalance}
	case cueStatement.MatchString(lower):
		return Resolution{Intent: IntentAccountStatement}
	case cueDetails.MatchString(lower):
		return Resolution{Intent: IntentAccountDetails}
	case cueHistory.MatchString(lower):
		return Resolution{Intent: IntentViewHistory}
	case cueLoan.MatchString(lower):
		return Resolution{Intent: IntentLoanInquiry}
	case cueReminder.MatchString(lower):
		return Resolution{Intent: IntentSetReminder}
	case cueOutbound.MatchString(lower):
		return Resolution{
			Intent:    IntentTransferFunds,
			Amount:    extractAmount(lower),
			Recipient: matchRecipient(lower, actx.Beneficiaries),
		}
	}

	return Resolution{Intent: IntentUnknown}
}
