package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EntryType represents the direction of a ledger entry
type EntryType string

const (
	EntryTypeIncome  EntryType = "income"
	EntryTypeExpense EntryType = "expense"
)

// Categories that map to the dedicated forecast columns.
// Any other category is counted as "other" income or expense.
const (
	CategorySales       = "sales"
	CategoryOperational = "operational"
)

// Simulation groups a user's ledger entries for one financial year
type Simulation struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Name      string
	Year      int
	CreatedAt time.Time
}

// Validate ensures the simulation adheres to domain rules
func (s *Simulation) Validate() error {
	if s.UserID == uuid.Nil {
		return Invalid("simulation must have an owner")
	}
	if strings.TrimSpace(s.Name) == "" {
		return Invalid("simulation name cannot be empty")
	}
	if s.Year < MinBaseYear {
		return Invalid("simulation year must be %d or later", MinBaseYear)
	}
	return nil
}

// OwnedBy reports whether the simulation belongs to userID
func (s *Simulation) OwnedBy(userID uuid.UUID) bool {
	return s.UserID == userID
}

// LedgerEntry is a single income or expense transaction inside a simulation
type LedgerEntry struct {
	ID           uuid.UUID
	SimulationID uuid.UUID
	UserID       uuid.UUID
	Type         EntryType
	Category     string
	Amount       decimal.Decimal // ABSOLUTE VALUE (Always Positive)
	Date         time.Time
	Description  string
}

// Validate ensures the entry adheres to domain rules
func (e *LedgerEntry) Validate() error {
	if e.Type != EntryTypeIncome && e.Type != EntryTypeExpense {
		return Invalid("entry type must be income or expense")
	}
	if e.Amount.LessThanOrEqual(decimal.Zero) {
		return Invalid("entry amount must be positive")
	}
	if e.Date.IsZero() {
		return Invalid("entry date is required")
	}
	e.Category = strings.ToLower(strings.TrimSpace(e.Category))
	return nil
}
