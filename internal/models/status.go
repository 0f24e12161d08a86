package models

import "fmt"

// SplitPolicy is the allocation strategy used to derive shares from an expense amount.
type SplitPolicy uint8

const (
	PolicyEqual SplitPolicy = iota + 1
	PolicyPercentage
	PolicyCustom
	PolicyItemwise
)

var splitPolicyNames = map[SplitPolicy]string{
	PolicyEqual:      "equal",
	PolicyPercentage: "percentage",
	PolicyCustom:     "custom",
	PolicyItemwise:   "itemwise",
}

func (p SplitPolicy) String() string {
	if name, ok := splitPolicyNames[p]; ok {
		return name
	}
	return fmt.Sprintf("SplitPolicy(%d)", uint8(p))
}

// Valid reports whether p is one of the declared policies.
func (p SplitPolicy) Valid() bool {
	_, ok := splitPolicyNames[p]
	return ok
}

// ParseSplitPolicy parses the persisted form of a policy.
func ParseSplitPolicy(s string) (SplitPolicy, error) {
	for p, name := range splitPolicyNames {
		if name == s {
			return p, nil
		}
	}
	return 0, fmt.Errorf("unknown split policy %q", s)
}

func (p SplitPolicy) MarshalText() ([]byte, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("cannot marshal %s", p)
	}
	return []byte(p.String()), nil
}

func (p *SplitPolicy) UnmarshalText(text []byte) error {
	parsed, err := ParseSplitPolicy(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// ExpenseStatus is the lifecycle status of an expense. It has exactly two legal values.
type ExpenseStatus uint8

const (
	ExpensePending ExpenseStatus = iota + 1
	ExpenseFullyPaid
)

func (s ExpenseStatus) String() string {
	switch s {
	case ExpensePending:
		return "pending"
	case ExpenseFullyPaid:
		return "fully_paid"
	default:
		return fmt.Sprintf("ExpenseStatus(%d)", uint8(s))
	}
}

// ParseExpenseStatus parses "pending" or "fully_paid".
func ParseExpenseStatus(s string) (ExpenseStatus, error) {
	switch s {
	case "pending":
		return ExpensePending, nil
	case "fully_paid":
		return ExpenseFullyPaid, nil
	default:
		return 0, fmt.Errorf("unknown expense status %q", s)
	}
}

func (s ExpenseStatus) MarshalText() ([]byte, error) {
	if s != ExpensePending && s != ExpenseFullyPaid {
		return nil, fmt.Errorf("cannot marshal %s", s)
	}
	return []byte(s.String()), nil
}

func (s *ExpenseStatus) UnmarshalText(text []byte) error {
	parsed, err := ParseExpenseStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// PaymentStatus is the status of a Payment record. It has exactly three legal values.
type PaymentStatus uint8

const (
	PaymentPending PaymentStatus = iota + 1
	PaymentPaid
	PaymentRejected
)

func (s PaymentStatus) String() string {
	switch s {
	case PaymentPending:
		return "pending"
	case PaymentPaid:
		return "paid"
	case PaymentRejected:
		return "rejected"
	default:
		return fmt.Sprintf("PaymentStatus(%d)", uint8(s))
	}
}

// ParsePaymentStatus parses "pending", "paid" or "rejected".
func ParsePaymentStatus(s string) (PaymentStatus, error) {
	switch s {
	case "pending":
		return PaymentPending, nil
	case "paid":
		return PaymentPaid, nil
	case "rejected":
		return PaymentRejected, nil
	default:
		return 0, fmt.Errorf("unknown payment status %q", s)
	}
}

func (s PaymentStatus) MarshalText() ([]byte, error) {
	if s < PaymentPending || s > PaymentRejected {
		return nil, fmt.Errorf("cannot marshal %s", s)
	}
	return []byte(s.String()), nil
}

func (s *PaymentStatus) UnmarshalText(text []byte) error {
	parsed, err := ParsePaymentStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ShareState is the ledger state of a share, derived from its Payment.
// A share without a Payment is unpaid.
type ShareState uint8

const (
	ShareUnpaid ShareState = iota + 1
	SharePending
	SharePaid
	ShareRejected
)

func (s ShareState) String() string {
	switch s {
	case ShareUnpaid:
		return "unpaid"
	case SharePending:
		return "pending"
	case SharePaid:
		return "paid"
	case ShareRejected:
		return "rejected"
	default:
		return fmt.Sprintf("ShareState(%d)", uint8(s))
	}
}

func (s ShareState) MarshalText() ([]byte, error) {
	if s < ShareUnpaid || s > ShareRejected {
		return nil, fmt.Errorf("cannot marshal %s", s)
	}
	return []byte(s.String()), nil
}

func (s *ShareState) UnmarshalText(text []byte) error {
	switch string(text) {
	case "unpaid":
		*s = ShareUnpaid
	case "pending":
		*s = SharePending
	case "paid":
		*s = SharePaid
	case "rejected":
		*s = ShareRejected
	default:
		return fmt.Errorf("unknown share state %q", text)
	}
	return nil
}
