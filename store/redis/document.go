package redis

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/budget-engine/budget"
)

// =============================================================================
// JSON DOCUMENTS
// =============================================================================

type stateDocument struct {
	MonthlyIncome decimal.NullDecimal   `json:"monthly_income"`
	ActiveMonth   budget.Month          `json:"current_month"`
	BaseExpenses  []baseExpenseDocument `json:"base_expenses"`
	Categories    []categoryDocument    `json:"categories"`
	Goals         []goalDocument        `json:"goals"`
}

type baseExpenseDocument struct {
	ID     string          `json:"id"`
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
}

type categoryDocument struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Percent       decimal.Decimal `json:"percent"`
	Balance       decimal.Decimal `json:"balance"`
	Allocated     decimal.Decimal `json:"allocated"`
	CarryOver     bool            `json:"carry_over"`
	IsSavingsOnly bool            `json:"is_savings_only"`
}

type goalDocument struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Description  string          `json:"description,omitempty"`
	Icon         string          `json:"icon,omitempty"`
	CategoryID   string          `json:"category_id"`
	TargetAmount decimal.Decimal `json:"target_amount"`
	TargetDate   time.Time       `json:"target_date"`
	StartBalance decimal.Decimal `json:"start_balance"`
	CreatedAt    time.Time       `json:"created_at"`
}

type transactionDocument struct {
	ID           string          `json:"id"`
	Seq          int64           `json:"seq"`
	Type         string          `json:"type"`
	Date         time.Time       `json:"date"`
	Month        budget.Month    `json:"month"`
	CategoryID   string          `json:"category_id,omitempty"`
	CategoryName string          `json:"category_name,omitempty"`
	Amount       decimal.Decimal `json:"amount"`
	Description  string          `json:"description,omitempty"`
}

func newStateDocument(s budget.State) stateDocument {
	doc := stateDocument{
		MonthlyIncome: s.MonthlyIncome,
		ActiveMonth:   s.ActiveMonth,
	}
	for _, e := range s.BaseExpenses {
		doc.BaseExpenses = append(doc.BaseExpenses, baseExpenseDocument{ID: e.ID, Name: e.Name, Amount: e.Amount})
	}
	for _, c := range s.Categories {
		doc.Categories = append(doc.Categories, categoryDocument{
			ID:            c.ID,
			Name:          c.Name,
			Percent:       c.PercentShare,
			Balance:       c.PersistedBalance,
			Allocated:     c.Allocated,
			CarryOver:     c.CarryOver,
			IsSavingsOnly: c.IsSavingsOnly,
		})
	}
	for _, g := range s.Goals {
		doc.Goals = append(doc.Goals, goalDocument{
			ID:           g.ID,
			Name:         g.Name,
			Description:  g.Description,
			Icon:         g.Icon,
			CategoryID:   g.CategoryID,
			TargetAmount: g.TargetAmount,
			TargetDate:   g.TargetDate,
			StartBalance: g.StartBalance,
			CreatedAt:    g.CreatedAt,
		})
	}
	return doc
}

func (d stateDocument) toState() budget.State {
	s := budget.State{
		PeriodState: budget.PeriodState{MonthlyIncome: d.MonthlyIncome, ActiveMonth: d.ActiveMonth},
	}
	for _, e := range d.BaseExpenses {
		s.BaseExpenses = append(s.BaseExpenses, budget.BaseExpense{ID: e.ID, Name: e.Name, Amount: e.Amount})
	}
	for _, c := range d.Categories {
		s.Categories = append(s.Categories, budget.Category{
			ID:               c.ID,
			Name:             c.Name,
			PercentShare:     c.Percent,
			PersistedBalance: c.Balance,
			Allocated:        c.Allocated,
			CarryOver:        c.CarryOver,
			IsSavingsOnly:    c.IsSavingsOnly,
		})
	}
	for _, g := range d.Goals {
		s.Goals = append(s.Goals, budget.Goal{
			ID:           g.ID,
			Name:         g.Name,
			Description:  g.Description,
			Icon:         g.Icon,
			CategoryID:   g.CategoryID,
			TargetAmount: g.TargetAmount,
			TargetDate:   g.TargetDate,
			StartBalance: g.StartBalance,
			CreatedAt:    g.CreatedAt,
		})
	}
	return s
}

func newTransactionDocument(tx budget.Transaction) transactionDocument {
	return transactionDocument{
		ID:           string(tx.ID),
		Seq:          tx.Seq,
		Type:         string(tx.Type),
		Date:         tx.Date,
		Month:        tx.Month,
		CategoryID:   tx.CategoryID,
		CategoryName: tx.CategoryName,
		Amount:       tx.Amount,
		Description:  tx.Description,
	}
}

func (d transactionDocument) toTransaction() budget.Transaction {
	return budget.Transaction{
		ID:           budget.TransactionID(d.ID),
		Seq:          d.Seq,
		Type:         budget.TransactionType(d.Type),
		Date:         d.Date,
		Month:        d.Month,
		CategoryID:   d.CategoryID,
		CategoryName: d.CategoryName,
		Amount:       d.Amount,
		Description:  d.Description,
	}
}
