package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/Veraticus/finanzas/internal/common"
	"github.com/Veraticus/finanzas/internal/currency"
	"github.com/Veraticus/finanzas/internal/model"
	"github.com/Veraticus/finanzas/internal/status"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentInput is the writable shape of a scheduled payment.
type PaymentInput struct {
	Description *string         `json:"description"`
	Frequency   *string         `json:"frequency"`
	AccountID   *string         `json:"account_id"`
	CategoryID  *string         `json:"category_id"`
	Name        string          `json:"name"`
	Currency    string          `json:"currency"`
	DueDate     string          `json:"due_date"`
	Status      string          `json:"status"`
	Amount      decimal.Decimal `json:"amount"`
	IsRecurring bool            `json:"is_recurring"`
}

// PaymentView is a payment with its due-date state.
type PaymentView struct {
	model.Payment
	status.PaymentState
	AmountFormatted string `json:"amount_formatted"`
}

// PaymentListFilter adds the derived overdue flag to the stored filters.
type PaymentListFilter struct {
	PaymentFilter
	Overdue *bool
}

// PayResult reports everything settling a payment produced.
type PayResult struct {
	Payment     *PaymentView     `json:"payment"`
	Transaction *TransactionView `json:"transaction,omitempty"`
	Next        *PaymentView     `json:"next,omitempty"`
}

// PaymentService manages scheduled payments and their overdue escalation.
type PaymentService struct {
	*core
	ledger *Ledger
}

func (s *PaymentService) view(p *model.Payment, today model.Date) *PaymentView {
	return &PaymentView{
		Payment:         *p,
		PaymentState:    status.Payment(p, today),
		AmountFormatted: currency.Format(p.Amount, p.Currency),
	}
}

func (s *PaymentService) validate(in PaymentInput) (*model.Payment, error) {
	name, err := validateName("name", in.Name, maxAccountNameLength)
	if err != nil {
		return nil, err
	}
	description, err := optionalText("description", in.Description, 1, maxDescriptionLength)
	if err != nil {
		return nil, err
	}
	amount, err := requirePositive("amount", in.Amount)
	if err != nil {
		return nil, err
	}
	code, err := validateCurrency("currency", in.Currency)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.DueDate) == "" {
		return nil, common.Invalid("due_date", "is required")
	}
	due, err := parseDate("due_date", in.DueDate, model.Date{})
	if err != nil {
		return nil, err
	}
	paymentStatus := model.PaymentStatus(strings.ToLower(stringOr(in.Status, string(model.PaymentPending))))
	if !paymentStatus.Valid() {
		return nil, common.Invalid("status", "must be pending, paid, overdue or cancelled")
	}
	frequency, err := parseFrequency("frequency", in.Frequency)
	if err != nil {
		return nil, err
	}
	if in.IsRecurring && frequency == nil {
		return nil, common.Invalid("frequency", "is required for recurring payments")
	}
	if !in.IsRecurring {
		frequency = nil
	}

	return &model.Payment{
		Name:        name,
		Description: description,
		Amount:      amount,
		Currency:    code,
		DueDate:     due,
		Status:      paymentStatus,
		IsRecurring: in.IsRecurring,
		Frequency:   frequency,
		AccountID:   trimmedOrNil(in.AccountID),
		CategoryID:  trimmedOrNil(in.CategoryID),
	}, nil
}

// checkLinks verifies the optional account and category a payment settles
// through. A linked account must be active and hold the payment's currency.
func checkLinks(ctx context.Context, q Queries, p *model.Payment) error {
	if p.AccountID != nil {
		account, err := q.GetAccount(ctx, *p.AccountID)
		if err != nil {
			return referenceError("account_id", err)
		}
		if !account.IsActive {
			return common.Invalid("account_id", "account %q is inactive", account.Name)
		}
		if account.Currency != p.Currency {
			return common.Invalid("account_id", "account %q holds %s, payment is in %s",
				account.Name, account.Currency, p.Currency)
		}
	}
	if p.CategoryID != nil {
		category, err := q.GetCategory(ctx, *p.CategoryID)
		if err != nil {
			return referenceError("category_id", err)
		}
		if category.Type != model.CategoryTypeExpense {
			return common.Invalid("category_id", "payments need an expense category, %q is %s", category.Name, category.Type)
		}
	}
	return nil
}

// Reconcile escalates pending payments whose due date has passed. It is
// idempotent for a given day.
func (s *PaymentService) Reconcile(ctx context.Context) (int64, error) {
	n, err := s.store.MarkOverduePayments(ctx, s.today())
	if err != nil {
		return 0, err
	}
	overdueEscalations.Add(float64(n))
	return n, nil
}

// Create schedules a payment.
func (s *PaymentService) Create(ctx context.Context, in PaymentInput) (*PaymentView, error) {
	payment, err := s.validate(in)
	if err != nil {
		return nil, err
	}
	payment.ID = uuid.NewString()

	err = s.store.WithTx(ctx, func(tx Tx) error {
		if err := checkLinks(ctx, tx, payment); err != nil {
			return err
		}
		return tx.CreatePayment(ctx, payment)
	})
	if err := observe("payment", "create", err); err != nil {
		return nil, err
	}
	return s.view(payment, s.today()), nil
}

// Get reconciles and returns one decorated payment.
func (s *PaymentService) Get(ctx context.Context, id string) (*PaymentView, error) {
	if _, err := s.Reconcile(ctx); err != nil {
		return nil, err
	}
	payment, err := s.store.GetPayment(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.view(payment, s.today()), nil
}

// List reconciles overdue payments and returns the decorated list.
func (s *PaymentService) List(ctx context.Context, filter PaymentListFilter) ([]PaymentView, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, common.Invalid("status", "must be pending, paid, overdue or cancelled")
	}
	filter.Currency = strings.ToUpper(filter.Currency)

	if _, err := s.Reconcile(ctx); err != nil {
		return nil, err
	}

	payments, err := s.store.ListPayments(ctx, filter.PaymentFilter)
	if err != nil {
		return nil, err
	}

	today := s.today()
	views := make([]PaymentView, 0, len(payments))
	for i := range payments {
		view := s.view(&payments[i], today)
		if filter.Overdue != nil && view.IsOverdue != *filter.Overdue {
			continue
		}
		views = append(views, *view)
	}
	return views, nil
}

// Update rewrites a payment, applying the same checks as Create.
func (s *PaymentService) Update(ctx context.Context, id string, in PaymentInput) (*PaymentView, error) {
	payment, err := s.validate(in)
	if err != nil {
		return nil, err
	}

	err = s.store.WithTx(ctx, func(tx Tx) error {
		existing, err := tx.GetPayment(ctx, id)
		if err != nil {
			return err
		}
		if err := checkLinks(ctx, tx, payment); err != nil {
			return err
		}
		payment.ID = id
		payment.CreatedAt = existing.CreatedAt
		payment.PaidDate = existing.PaidDate
		payment.TransactionID = existing.TransactionID
		return tx.UpdatePayment(ctx, payment)
	})
	if err := observe("payment", "update", err); err != nil {
		return nil, err
	}
	return s.view(payment, s.today()), nil
}

// Delete removes a payment. A transaction it produced stays in the ledger.
func (s *PaymentService) Delete(ctx context.Context, id string) error {
	return observe("payment", "delete", s.store.DeletePayment(ctx, id))
}

// Pay settles an open payment. With a linked account and category an
// expense is booked through the ledger; recurring payments get their next
// occurrence scheduled.
func (s *PaymentService) Pay(ctx context.Context, id string) (*PayResult, error) {
	original, err := s.store.GetPayment(ctx, id)
	if err != nil {
		return nil, err
	}

	var accountID string
	if original.AccountID != nil {
		accountID = *original.AccountID
	}
	unlock := s.locks.Lock(accountID)
	defer unlock()

	today := s.today()
	result := &PayResult{}
	err = s.store.WithTx(ctx, func(tx Tx) error {
		payment, err := tx.GetPayment(ctx, id)
		if err != nil {
			return err
		}
		if !payment.Status.Open() {
			return common.Conflict("payment %q is %s", payment.Name, payment.Status)
		}
		if !sameLink(payment.AccountID, original.AccountID) {
			return common.Conflict("payment %q changed account concurrently", payment.Name)
		}

		if payment.AccountID != nil && payment.CategoryID != nil {
			description := "Payment: " + payment.Name
			txn := &model.Transaction{
				AccountID:   *payment.AccountID,
				CategoryID:  *payment.CategoryID,
				Type:        model.TransactionExpense,
				Amount:      model.SignedAmount(model.TransactionExpense, payment.Amount),
				Description: &description,
				Date:        today,
				Tags:        []string{"payment"},
			}
			if err := s.ledger.insert(ctx, tx, txn); err != nil {
				return err
			}
			stored, err := tx.GetTransaction(ctx, txn.ID)
			if err != nil {
				return err
			}
			result.Transaction = transactionView(stored)
			payment.TransactionID = &txn.ID
		}

		payment.Status = model.PaymentPaid
		payment.PaidDate = &today
		if err := tx.UpdatePayment(ctx, payment); err != nil {
			return err
		}
		result.Payment = s.view(payment, today)

		if payment.IsRecurring && payment.Frequency != nil {
			next := *payment
			next.ID = uuid.NewString()
			next.DueDate = payment.Frequency.Next(payment.DueDate)
			next.Status = model.PaymentPending
			next.PaidDate = nil
			next.TransactionID = nil
			if err := tx.CreatePayment(ctx, &next); err != nil {
				return err
			}
			result.Next = s.view(&next, today)
		}
		return nil
	})
	if err := observe("payment", "pay", err); err != nil {
		return nil, err
	}

	slog.Info("settled payment", "id", id, "booked", result.Transaction != nil, "rescheduled", result.Next != nil)
	return result, nil
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	if t == "" {
		return nil
	}
	return &t
}

func sameLink(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
