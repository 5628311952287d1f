package types

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Book is a catalog entry. TotalCopies is the physical count; OnHoldCopies is
// derived by reconciliation and never authored by a user. Available mirrors
// FreeCopies() > 0 after reconciliation.
type Book struct {
	ID           string `json:"id"`
	Title        string `json:"title" validate:"required"`
	Author       string `json:"author" validate:"required"`
	ISBN         string `json:"isbn" validate:"required,isbn_pattern"`
	Year         int    `json:"year" validate:"required,past_year"`
	Genre        string `json:"genre" validate:"required"`
	TotalCopies  int    `json:"totalCopies" validate:"required,min=1"`
	OnHoldCopies int    `json:"onHoldCopies"`
	Available    bool   `json:"available"`
}

// FreeCopies returns the copies not claimed by an active loan or a pending
// request.
func (b Book) FreeCopies() int {
	return b.TotalCopies - b.OnHoldCopies
}

// Normalize trims whitespace from the text fields.
func (b *Book) Normalize() {
	b.Title = strings.TrimSpace(b.Title)
	b.Author = strings.TrimSpace(b.Author)
	b.ISBN = strings.TrimSpace(b.ISBN)
	b.Genre = strings.TrimSpace(b.Genre)
}

// Matches reports whether term occurs, case-insensitively, in the title,
// author, genre or ISBN. An empty term matches every book.
func (b Book) Matches(term string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return true
	}
	for _, field := range []string{b.Title, b.Author, b.Genre, b.ISBN} {
		if strings.Contains(strings.ToLower(field), term) {
			return true
		}
	}
	return false
}

var isbn10Pattern = regexp.MustCompile(`^[0-9]{9}[0-9Xx]$`)

// ValidISBN10 reports whether isbn, with hyphens removed, has the ISBN-10
// shape: nine digits followed by a digit or X. The check digit is not
// verified.
func ValidISBN10(isbn string) bool {
	return isbn10Pattern.MatchString(strings.ReplaceAll(isbn, "-", ""))
}

var bookValidator = newBookValidator()

func newBookValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	mustRegister(v, "isbn_pattern", func(fl validator.FieldLevel) bool {
		return ValidISBN10(fl.Field().String())
	})
	mustRegisterCtx(v, "past_year", func(ctx context.Context, fl validator.FieldLevel) bool {
		today, ok := ctx.Value(todayKey{}).(Date)
		if !ok {
			return false
		}
		y := fl.Field().Int()
		return y >= 1000 && y <= int64(today.Year)
	})
	return v
}

// todayKey carries the validation date through the validator context.
type todayKey struct{}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Errorf("register %s validation: %w", tag, err))
	}
}

func mustRegisterCtx(v *validator.Validate, tag string, fn validator.FuncCtx) {
	if err := v.RegisterValidationCtx(tag, fn); err != nil {
		panic(fmt.Errorf("register %s validation: %w", tag, err))
	}
}

// Validate checks the user-authored fields as of today, which bounds the
// publication year. Missing fields are reported before malformed ones, then
// ISBN, year and copy count problems.
func (b Book) Validate(today Date) error {
	ctx := context.WithValue(context.Background(), todayKey{}, today)
	err := bookValidator.StructCtx(ctx, b)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validating book: %w", err)
	}
	for _, fe := range fieldErrs {
		if fe.Tag() == "required" {
			return fmt.Errorf("%w: %s", ErrMissingField, fe.Field())
		}
	}
	fe := fieldErrs[0]
	switch fe.Tag() {
	case "isbn_pattern":
		return fmt.Errorf("%w: %q must be 10 digits", ErrInvalidISBN, b.ISBN)
	case "past_year":
		return fmt.Errorf("%w: %d must be a 4-digit year not in the future", ErrInvalidYear, b.Year)
	case "min":
		return fmt.Errorf("%w: total copies must be at least 1, got %d", ErrInvalidCopies, b.TotalCopies)
	default:
		return fmt.Errorf("%w: %s failed %s", ErrInvalidData, fe.Field(), fe.Tag())
	}
}

// flexInt decodes a JSON number or a numeric string. Documents written by
// older front ends store copy counts and years as strings.
type flexInt int

func (n *flexInt) UnmarshalJSON(data []byte) error {
	s := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if s == "" || s == "null" {
		*n = 0
		return nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("%w: %s is not an integer", ErrInvalidData, data)
	}
	*n = flexInt(v)
	return nil
}

// UnmarshalJSON decodes a book, accepting numeric strings for year and copy
// counts. Unknown fields such as the legacy "copies" counter are ignored.
func (b *Book) UnmarshalJSON(data []byte) error {
	type bookAlias Book
	aux := struct {
		*bookAlias
		Year         flexInt `json:"year"`
		TotalCopies  flexInt `json:"totalCopies"`
		OnHoldCopies flexInt `json:"onHoldCopies"`
	}{bookAlias: (*bookAlias)(b)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	b.Year = int(aux.Year)
	b.TotalCopies = int(aux.TotalCopies)
	b.OnHoldCopies = int(aux.OnHoldCopies)
	return nil
}
