package core

import (
	"encoding/json"
	"strings"
	"time"
)

// DateLayout is the ISO-8601 calendar date layout used for storage, filtering and export.
const DateLayout = "2006-01-02"

type (
	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// Record is a single expense entry.
	Record struct {
		ID        int64     `json:"id"`
		Title     string    `json:"title"`
		Amount    Money     `json:"amount"`
		Category  Category  `json:"category"`
		Date      Date      `json:"date"`
		CreatedAt time.Time `json:"createdAt"`
	}

	// Input carries the raw, user-submitted fields of a record.
	Input struct {
		Title    string `json:"title"`
		Amount   string `json:"amount"`
		Category string `json:"category"`
		Date     string `json:"date"`
	}

	// Fields are the validated, replaceable fields of a record.
	Fields struct {
		Title    string
		Amount   Money
		Category Category
		Date     Date
	}
)

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses an ISO calendar date (YYYY-MM-DD).
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

// String renders the date in ISO form; the zero date renders empty.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// Month returns the month
func (d Date) Month() int {
	return int(d.Time.Month())
}

// SameMonth reports whether d falls in the calendar month of t (in t's location).
func (d Date) SameMonth(t time.Time) bool {
	return d.Year() == t.Year() && d.Month() == int(t.Month())
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Validate checks every field and returns the parsed values.
// The first failing field is reported as a *ValidationError.
func (in Input) Validate() (Fields, error) {
	var f Fields

	f.Title = strings.TrimSpace(in.Title)
	if f.Title == "" {
		return Fields{}, &ValidationError{Field: "title", Err: ErrEmptyTitle}
	}

	if strings.TrimSpace(in.Amount) == "" {
		return Fields{}, &ValidationError{Field: "amount", Err: ErrMissingAmount}
	}
	amount, err := ParseAmount(in.Amount)
	if err != nil {
		return Fields{}, &ValidationError{Field: "amount", Err: err}
	}
	f.Amount = amount

	if strings.TrimSpace(in.Category) == "" {
		return Fields{}, &ValidationError{Field: "category", Err: ErrMissingCategory}
	}
	cat, err := ParseCategory(in.Category)
	if err != nil {
		return Fields{}, &ValidationError{Field: "category", Err: err}
	}
	f.Category = cat

	if strings.TrimSpace(in.Date) == "" {
		return Fields{}, &ValidationError{Field: "date", Err: ErrMissingDate}
	}
	date, err := ParseDate(in.Date)
	if err != nil {
		return Fields{}, &ValidationError{Field: "date", Err: err}
	}
	f.Date = date

	return f, nil
}

// Validate checks the invariants of an already built record.
func (r Record) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return &ValidationError{Field: "title", Err: ErrEmptyTitle}
	}
	if err := r.Amount.Validate(); err != nil {
		return &ValidationError{Field: "amount", Err: err}
	}
	if !r.Category.Valid() {
		return &ValidationError{Field: "category", Err: ErrInvalidCategory}
	}
	if r.Date.IsZero() {
		return &ValidationError{Field: "date", Err: ErrInvalidDate}
	}
	return nil
}

// Apply replaces the user-editable fields, keeping ID and CreatedAt.
func (r Record) Apply(f Fields) Record {
	r.Title = f.Title
	r.Amount = f.Amount
	r.Category = f.Category
	r.Date = f.Date
	return r
}

// Input converts a record back to form values, e.g. to pre-fill an edit form.
func (r Record) Input() Input {
	return Input{
		Title:    r.Title,
		Amount:   r.Amount.String(),
		Category: string(r.Category),
		Date:     r.Date.String(),
	}
}
