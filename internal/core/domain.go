package core

import (
	"errors"
	"regexp"
	"strings"
	"time"
)

type (
	// Date is a calendar date with no time component. It marshals as
	// YYYY-MM-DD, the format the ledger stores and the API exchanges.
	Date struct {
		time.Time
	}

	// Month is a year-month key in YYYY-MM form, used for budget rows and
	// monthly expense summaries.
	Month string

	User struct {
		ID           int64     `json:"id"`
		Email        string    `json:"email"`
		PasswordHash string    `json:"-"`
		CreatedAt    time.Time `json:"created_at"`
	}

	Expense struct {
		ID       int64  `json:"id"`
		UserID   int64  `json:"-"`
		Title    string `json:"title"`
		Amount   Money  `json:"amount"`
		Category string `json:"category"`
		Date     Date   `json:"date"`
	}

	// ExpenseInput carries the mutable fields of an expense. Create and
	// Update both take the full set; an update overwrites every field.
	ExpenseInput struct {
		Title    string
		Amount   Money
		Category string
		Date     Date
	}

	Budget struct {
		ID     int64 `json:"id"`
		UserID int64 `json:"-"`
		Month  Month `json:"month"`
		Amount Money `json:"amount"`
	}

	BudgetInput struct {
		Month  Month
		Amount Money
	}
)

var (
	ErrNotFound           = errors.New("not found")
	ErrEmailTaken         = errors.New("email already in use")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInvalidDate        = errors.New("invalid date")
	ErrInvalidMonth       = errors.New("invalid month")
	ErrEmptyTitle         = errors.New("empty title")
	ErrEmptyCategory      = errors.New("empty category")
)

// ValidationError collects per-field messages so the HTTP layer can surface
// all of them in a single 400 response.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		parts = append(parts, field+": "+msg)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func newValidationError() *ValidationError {
	return &ValidationError{Fields: make(map[string]string)}
}

const dateLayout = "2006-01-02"

// ParseDate parses a YYYY-MM-DD string into a Date.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

// NewDate creates a Date from year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

func (d Date) String() string {
	return d.Format(dateLayout)
}

// Month returns the year-month key this date falls in.
func (d Date) Month() Month {
	return Month(d.Format("2006-01"))
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	parsed, err := ParseDate(strings.Trim(string(data), `"`))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

var monthPattern = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

// ParseMonth validates a YYYY-MM string and returns it as a Month.
func ParseMonth(s string) (Month, error) {
	s = strings.TrimSpace(s)
	if !monthPattern.MatchString(s) {
		return "", ErrInvalidMonth
	}
	return Month(s), nil
}

func (m Month) String() string {
	return string(m)
}

func (m Month) Validate() error {
	if !monthPattern.MatchString(string(m)) {
		return ErrInvalidMonth
	}
	return nil
}

const maxTitleLength = 200

// Validate checks the input and returns a *ValidationError naming every
// failing field, or nil when the input is acceptable.
func (in ExpenseInput) Validate() error {
	ve := newValidationError()
	if strings.TrimSpace(in.Title) == "" {
		ve.Fields["title"] = "title is required"
	} else if len(in.Title) > maxTitleLength {
		ve.Fields["title"] = "title too long (max 200 characters)"
	}
	if err := in.Amount.Validate(); err != nil {
		ve.Fields["amount"] = "amount must be greater than 0"
	}
	if strings.TrimSpace(in.Category) == "" {
		ve.Fields["category"] = "category is required"
	}
	if err := in.Date.Validate(); err != nil {
		ve.Fields["date"] = "invalid date format"
	}
	if len(ve.Fields) > 0 {
		return ve
	}
	return nil
}

func (in BudgetInput) Validate() error {
	ve := newValidationError()
	if err := in.Month.Validate(); err != nil {
		ve.Fields["month"] = "month must be in YYYY-MM format"
	}
	if err := in.Amount.Validate(); err != nil {
		ve.Fields["amount"] = "amount must be greater than 0"
	}
	if len(ve.Fields) > 0 {
		return ve
	}
	return nil
}
