package billing

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

// PaymentType tells money received (credit) from money paid out or charged (debit)
type PaymentType string

const (
	PaymentTypeCredit PaymentType = "credit"
	PaymentTypeDebit  PaymentType = "debit"
)

// IsValid checks if the payment type is valid
func (t PaymentType) IsValid() bool {
	return t == PaymentTypeCredit || t == PaymentTypeDebit
}

// PaymentMethod represents how a payment was made
type PaymentMethod string

const (
	PaymentMethodCash   PaymentMethod = "cash"
	PaymentMethodBank   PaymentMethod = "bank"
	PaymentMethodCheque PaymentMethod = "cheque"
	PaymentMethodOnline PaymentMethod = "online"
	PaymentMethodUPI    PaymentMethod = "upi"
	PaymentMethodCard   PaymentMethod = "card"
	PaymentMethodOther  PaymentMethod = "other"
)

// IsValid checks if the payment method is valid
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodBank, PaymentMethodCheque, PaymentMethodOnline,
		PaymentMethodUPI, PaymentMethodCard, PaymentMethodOther:
		return true
	}
	return false
}

var (
	ifscPattern  = regexp.MustCompile(`^[A-Z]{4}0[A-Z0-9]{6}$`)
	upiIDPattern = regexp.MustCompile(`^[\w.-]+@[\w.-]+$`)
)

// Bank account numbers are 9 to 18 characters
const (
	minAccountNumberLength = 9
	maxAccountNumberLength = 18
)

// MethodDetails carries the method-specific fields of a payment
type MethodDetails struct {
	AccountNumber  string     `json:"account_number,omitempty"`
	IFSC           string     `json:"ifsc,omitempty"`
	BankName       string     `json:"bank_name,omitempty"`
	ChequeNumber   string     `json:"cheque_number,omitempty"`
	ChequeDate     *time.Time `json:"cheque_date,omitempty"`
	UPIID          string     `json:"upi_id,omitempty"`
	TransactionRef string     `json:"transaction_ref,omitempty"`
}

// Normalize trims all fields and uppercases the IFSC code
func (d MethodDetails) Normalize() MethodDetails {
	d.AccountNumber = strings.TrimSpace(d.AccountNumber)
	d.IFSC = strings.ToUpper(strings.TrimSpace(d.IFSC))
	d.BankName = strings.TrimSpace(d.BankName)
	d.ChequeNumber = strings.TrimSpace(d.ChequeNumber)
	d.UPIID = strings.TrimSpace(d.UPIID)
	d.TransactionRef = strings.TrimSpace(d.TransactionRef)
	return d
}

// Validate checks the fields required by the given method
func (d MethodDetails) Validate(method PaymentMethod) error {
	switch method {
	case PaymentMethodBank:
		n := utf8.RuneCountInString(d.AccountNumber)
		if n < minAccountNumberLength || n > maxAccountNumberLength {
			return invalidInput("Account number must be %d to %d characters", minAccountNumberLength, maxAccountNumberLength)
		}
		if !ifscPattern.MatchString(d.IFSC) {
			return invalidInput("Invalid IFSC code %q", d.IFSC)
		}
		if d.BankName == "" {
			return invalidInput("Bank name is required for bank payments")
		}
	case PaymentMethodCheque:
		if d.ChequeNumber == "" {
			return invalidInput("Cheque number is required")
		}
		if d.ChequeDate == nil {
			return invalidInput("Cheque date is required")
		}
		if d.BankName == "" {
			return invalidInput("Bank name is required for cheque payments")
		}
	case PaymentMethodUPI:
		if !upiIDPattern.MatchString(d.UPIID) {
			return invalidInput("Invalid UPI ID %q", d.UPIID)
		}
	case PaymentMethodOnline, PaymentMethodCard:
		if d.TransactionRef == "" {
			return invalidInput("Transaction reference is required for %s payments", method)
		}
	case PaymentMethodCash, PaymentMethodOther:
	default:
		return invalidInput("Invalid payment method: %q", method)
	}
	return nil
}

// Value implements driver.Valuer for JSONB storage
func (d MethodDetails) Value() (driver.Value, error) {
	b, err := json.Marshal(d)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner
func (d *MethodDetails) Scan(value any) error {
	if value == nil {
		*d = MethodDetails{}
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return errors.New("failed to scan MethodDetails: unsupported type")
	}
	if len(raw) == 0 {
		*d = MethodDetails{}
		return nil
	}
	return json.Unmarshal(raw, d)
}
