package payment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMethodValid(t *testing.T) {
	assert.True(t, MethodCreditCard.Valid())
	assert.True(t, MethodBankTransfer.Valid())
	assert.True(t, MethodEWallet.Valid())
	assert.False(t, Method("").Valid())
	assert.False(t, Method("cash").Valid())
}

func TestValidateDetails_MethodRequired(t *testing.T) {
	err := ValidateDetails("", Details{CardNumber: "4111"})
	assert.ErrorIs(t, err, ErrMethodRequired)
}

func TestValidateDetails_UnknownMethod(t *testing.T) {
	err := ValidateDetails("cash", Details{})
	assert.ErrorIs(t, err, ErrUnknownMethod)
}

func TestValidateDetails_RequiredFieldPerMethod(t *testing.T) {
	assert.ErrorIs(t, ValidateDetails(MethodCreditCard, Details{}), ErrCardNumberRequired)
	assert.ErrorIs(t, ValidateDetails(MethodBankTransfer, Details{}), ErrBankAccountRequired)
	assert.ErrorIs(t, ValidateDetails(MethodEWallet, Details{}), ErrWalletNumberRequired)
}

func TestValidateDetails_OtherFieldsIgnored(t *testing.T) {
	// Only the selected method's field matters; stale input from a previously
	// selected method does not satisfy the check.
	err := ValidateDetails(MethodEWallet, Details{CardNumber: "4111", BankAccount: "12-3"})
	assert.ErrorIs(t, err, ErrWalletNumberRequired)

	assert.NoError(t, ValidateDetails(MethodEWallet, Details{WalletNumber: "0912345678"}))
	assert.NoError(t, ValidateDetails(MethodCreditCard, Details{CardNumber: "4111111111111111"}))
	assert.NoError(t, ValidateDetails(MethodBankTransfer, Details{BankAccount: "001-234567"}))
}
