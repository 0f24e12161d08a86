package rpc

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/settleup/internal/calculator"
	"github.com/mmynk/settleup/internal/models"
)

// Participants travel as "member:<user id>" or "contact:<contact id>".
// Amounts travel as decimal strings and dates as YYYY-MM-DD.

type Member struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name,omitempty"`
	Weight      int    `json:"weight,omitempty"`
}

type Contact struct {
	ID     string `json:"id,omitempty"`
	Name   string `json:"name"`
	Weight int    `json:"weight,omitempty"`
}

type Group struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Members   []Member  `json:"members"`
	Contacts  []Contact `json:"contacts"`
	CreatedAt int64     `json:"created_at"`
}

type Item struct {
	ID          string               `json:"id,omitempty"`
	Description string               `json:"description"`
	Amount      decimal.Decimal      `json:"amount"`
	AssignedTo  []models.Participant `json:"assigned_to"`
}

type Payment struct {
	ID        string               `json:"id"`
	ShareID   string               `json:"share_id"`
	PaidBy    models.Participant   `json:"paid_by"`
	Status    models.PaymentStatus `json:"status"`
	PaidDate  string               `json:"paid_date,omitempty"`
	Note      string               `json:"note,omitempty"`
	UpdatedAt int64                `json:"updated_at"`
}

type Share struct {
	ID          string              `json:"id"`
	Participant models.Participant  `json:"participant"`
	Amount      decimal.Decimal     `json:"amount"`
	Percentage  decimal.NullDecimal `json:"percentage"`
	State       models.ShareState   `json:"state"`
	Payment     *Payment            `json:"payment,omitempty"`
}

type Expense struct {
	ID          string               `json:"id"`
	GroupID     string               `json:"group_id"`
	Description string               `json:"description"`
	Payer       models.Participant   `json:"payer"`
	Amount      decimal.Decimal      `json:"amount"`
	Policy      models.SplitPolicy   `json:"policy"`
	Status      models.ExpenseStatus `json:"status"`
	Date        string               `json:"date"`
	CreatedAt   int64                `json:"created_at"`
	Items       []Item               `json:"items,omitempty"`
	Shares      []Share              `json:"shares"`
}

// Split selects the policy of a new or edited expense. Only the list
// matching Policy is read.
type Split struct {
	Policy        models.SplitPolicy           `json:"policy"`
	Participants  []models.Participant         `json:"participants,omitempty"`
	Percentages   []calculator.PercentageShare `json:"percentages,omitempty"`
	Amounts       []calculator.CustomShare     `json:"amounts,omitempty"`
	ValidateTotal bool                         `json:"validate_total,omitempty"`
}

// GroupService messages.

type CreateGroupRequest struct {
	Name     string    `json:"name"`
	Members  []Member  `json:"members"`
	Contacts []Contact `json:"contacts"`
}

type GroupRequest struct {
	GroupID string `json:"group_id"`
}

type GroupResponse struct {
	Group Group `json:"group"`
}

type AddMemberRequest struct {
	GroupID string `json:"group_id"`
	Member  Member `json:"member"`
}

type AddContactRequest struct {
	GroupID string  `json:"group_id"`
	Contact Contact `json:"contact"`
}

type ContactResponse struct {
	Contact Contact `json:"contact"`
}

type SetWeightRequest struct {
	GroupID     string             `json:"group_id"`
	Participant models.Participant `json:"participant"`
	Weight      int                `json:"weight"`
}

type Empty struct{}

// LedgerService messages.

type ExpenseRequest struct {
	GroupID   string `json:"group_id"`
	ExpenseID string `json:"expense_id"`
}

type SaveExpenseRequest struct {
	GroupID     string             `json:"group_id"`
	ExpenseID   string             `json:"expense_id,omitempty"`
	Description string             `json:"description"`
	Payer       models.Participant `json:"payer"`
	Amount      decimal.Decimal    `json:"amount"`
	Date        string             `json:"date,omitempty"`
	Items       []Item             `json:"items,omitempty"`
	Split       Split              `json:"split"`
}

type ExpenseResponse struct {
	Expense Expense `json:"expense"`
}

type SpecifiedShare struct {
	Key        string              `json:"key"`
	Amount     decimal.Decimal     `json:"amount"`
	Percentage decimal.NullDecimal `json:"percentage"`
}

type SplitBySpecifiedSharesRequest struct {
	GroupID       string           `json:"group_id"`
	ExpenseID     string           `json:"expense_id"`
	Shares        []SpecifiedShare `json:"shares"`
	ValidateTotal bool             `json:"validate_total"`
}

type MarkSharePaidRequest struct {
	GroupID         string             `json:"group_id"`
	ShareID         string             `json:"share_id"`
	PaidBy          models.Participant `json:"paid_by,omitzero"`
	PaidDate        string             `json:"paid_date,omitempty"`
	Note            string             `json:"note,omitempty"`
	RecomputeStatus bool               `json:"recompute_status,omitempty"`
}

type RequestSharePaymentRequest struct {
	GroupID string             `json:"group_id"`
	ShareID string             `json:"share_id"`
	PaidBy  models.Participant `json:"paid_by,omitzero"`
	Note    string             `json:"note,omitempty"`
}

type RejectPaymentRequest struct {
	GroupID   string `json:"group_id"`
	PaymentID string `json:"payment_id"`
	Reason    string `json:"reason"`
}

type PaymentResponse struct {
	Share     Share `json:"share"`
	FullyPaid bool  `json:"fully_paid"`
}

type MemberRequest struct {
	GroupID     string             `json:"group_id"`
	Participant models.Participant `json:"participant"`
}

type MemberBalanceResponse struct {
	Balance calculator.MemberBalance `json:"balance"`
}

type PairwiseDebtsResponse struct {
	Debts calculator.PairwiseDebts `json:"debts"`
}

type ExpenseSettlementResponse struct {
	Edges []calculator.SettlementEdge `json:"edges"`
}

type GroupBalancesResponse struct {
	Balances []calculator.MemberBalance `json:"balances"`
}

type SimplifiedDebtsResponse struct {
	Transfers []calculator.Transfer `json:"transfers"`
}

type ItemBreakdownResponse struct {
	Splits []calculator.PersonSplit `json:"splits"`
}

func toGroup(g *models.Group) Group {
	out := Group{
		ID:        g.ID,
		Name:      g.Name,
		Members:   make([]Member, len(g.Members)),
		Contacts:  make([]Contact, len(g.Contacts)),
		CreatedAt: g.CreatedAt,
	}
	for i, m := range g.Members {
		out.Members[i] = Member{UserID: m.UserID, DisplayName: m.DisplayName, Weight: m.Weight}
	}
	for i, c := range g.Contacts {
		out.Contacts[i] = toContact(&c)
	}
	return out
}

func toContact(c *models.GroupContact) Contact {
	return Contact{ID: c.ID, Name: c.Name, Weight: c.Weight}
}

func toExpense(e *models.Expense) Expense {
	out := Expense{
		ID:          e.ID,
		GroupID:     e.GroupID,
		Description: e.Description,
		Payer:       e.Payer,
		Amount:      e.Amount,
		Policy:      e.Policy,
		Status:      e.Status,
		Date:        formatDate(e.Date),
		CreatedAt:   e.CreatedAt,
		Shares:      make([]Share, len(e.Shares)),
	}
	for _, item := range e.Items {
		out.Items = append(out.Items, Item{
			ID:          item.ID,
			Description: item.Description,
			Amount:      item.Amount,
			AssignedTo:  item.AssignedTo,
		})
	}
	for i := range e.Shares {
		out.Shares[i] = toShare(&e.Shares[i])
	}
	return out
}

func toShare(s *models.ExpenseShare) Share {
	out := Share{
		ID:          s.ID,
		Participant: s.Participant,
		Amount:      s.Amount,
		Percentage:  s.Percentage,
		State:       s.State(),
	}
	if p := s.Payment; p != nil {
		out.Payment = &Payment{
			ID:        p.ID,
			ShareID:   p.ShareID,
			PaidBy:    p.PaidBy,
			Status:    p.Status,
			PaidDate:  formatDate(p.PaidDate),
			Note:      p.Note,
			UpdatedAt: p.UpdatedAt,
		}
	}
	return out
}

func fromItems(items []Item) []models.Item {
	out := make([]models.Item, len(items))
	for i, item := range items {
		out[i] = models.Item{
			ID:          item.ID,
			Description: item.Description,
			Amount:      item.Amount,
			AssignedTo:  item.AssignedTo,
		}
	}
	return out
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.DateOnly)
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation(time.DateOnly, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q is not YYYY-MM-DD", models.ErrInvalidArgument, s)
	}
	return t, nil
}
