package payment

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

var (
	ErrMethodRequired       = errors.New("payment: please select a payment method before proceeding")
	ErrUnknownMethod        = errors.New("payment: unknown payment method")
	ErrCardNumberRequired   = errors.New("payment: credit card number is required")
	ErrBankAccountRequired  = errors.New("payment: bank account number is required")
	ErrWalletNumberRequired = errors.New("payment: e-wallet number is required")
)

type Method string

const (
	MethodCreditCard   Method = "credit_card"
	MethodBankTransfer Method = "bank_transfer"
	MethodEWallet      Method = "e_wallet"
)

func (m Method) Valid() bool {
	switch m {
	case MethodCreditCard, MethodBankTransfer, MethodEWallet:
		return true
	}
	return false
}

// Details carries the single required field for the selected method.
// Fields for other methods are ignored.
type Details struct {
	CardNumber   string
	BankAccount  string
	WalletNumber string
}

// ValidateDetails checks that the method is known and its required detail
// field is non-blank. Exactly one field is required per method.
func ValidateDetails(m Method, d Details) error {
	if m == "" {
		return ErrMethodRequired
	}
	switch m {
	case MethodCreditCard:
		if d.CardNumber == "" {
			return ErrCardNumberRequired
		}
	case MethodBankTransfer:
		if d.BankAccount == "" {
			return ErrBankAccountRequired
		}
	case MethodEWallet:
		if d.WalletNumber == "" {
			return ErrWalletNumberRequired
		}
	default:
		return ErrUnknownMethod
	}
	return nil
}

type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// Processor is the external payment collaborator. It resolves after a
// delay; failure is terminal for the attempt and there is no retry policy.
type Processor interface {
	Pay(ctx context.Context, method Method, details Details, amount decimal.Decimal) (Status, error)
}
