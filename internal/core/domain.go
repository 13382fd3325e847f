package core

import (
	"errors"
	"strings"
	"unicode/utf8"
)

const (
	MaxAccountNameLength = 50
	MaxFundNameLength    = 50
	MaxFundIconLength    = 10
	MaxUsernameLength    = 20

	DefaultAccountName     = "Initial Account"
	DefaultDepositsPerYear = 24
)

type (
	Fund struct {
		ID   string
		Icon string
		Name string
	}

	Account struct {
		ID              string
		Name            string
		DepositsPerYear int
		Funds           []Fund
	}

	// AccountInput is the payload of an account update. It carries only the
	// editable fields plus the id of the account being updated.
	AccountInput struct {
		ID              string
		Name            string
		DepositsPerYear int
	}

	// FundInput is the payload of a fund creation. Ids are assigned server side.
	FundInput struct {
		Icon string
		Name string
	}

	User struct {
		ID       string
		Username string
	}

	// Credential is the opaque token proving an authenticated backend session.
	Credential string
)

var (
	ErrEmptyName        = errors.New("empty name")
	ErrNameTooLong      = errors.New("name too long")
	ErrInvalidDeposits  = errors.New("deposits per year must be a positive integer")
	ErrEmptyIcon        = errors.New("empty icon")
	ErrIconTooLong      = errors.New("icon too long")
	ErrEmptyUsername    = errors.New("empty username")
	ErrUsernameTooLong  = errors.New("username too long")
	ErrMissingAccountID = errors.New("missing account id")
	ErrNotFound         = errors.New("not found")
)

// Anonymous reports whether the credential carries no session.
func (c Credential) Anonymous() bool {
	return c == ""
}

func (a AccountInput) Validate() error {
	if a.ID == "" {
		return ErrMissingAccountID
	}
	if err := validateText(a.Name, MaxAccountNameLength, ErrEmptyName, ErrNameTooLong); err != nil {
		return err
	}
	if a.DepositsPerYear <= 0 {
		return ErrInvalidDeposits
	}
	return nil
}

// Normalize returns a copy with surrounding whitespace removed.
func (a AccountInput) Normalize() AccountInput {
	a.Name = strings.TrimSpace(a.Name)
	return a
}

func (f FundInput) Validate() error {
	if err := validateText(f.Icon, MaxFundIconLength, ErrEmptyIcon, ErrIconTooLong); err != nil {
		return err
	}
	return validateText(f.Name, MaxFundNameLength, ErrEmptyName, ErrNameTooLong)
}

func (f FundInput) Normalize() FundInput {
	f.Icon = strings.TrimSpace(f.Icon)
	f.Name = strings.TrimSpace(f.Name)
	return f
}

func ValidateUsername(username string) error {
	return validateText(username, MaxUsernameLength, ErrEmptyUsername, ErrUsernameTooLong)
}

// Input returns the editable subset of the account.
func (a Account) Input() AccountInput {
	return AccountInput{ID: a.ID, Name: a.Name, DepositsPerYear: a.DepositsPerYear}
}

// Label is the display text of a fund row.
func (f Fund) Label() string {
	return f.Icon + " " + f.Name
}

func validateText(s string, max int, empty, tooLong error) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return empty
	}
	if utf8.RuneCountInString(s) > max {
		return tooLong
	}
	return nil
}
