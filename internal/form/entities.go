package form

import (
	"fmt"
	"math"
	"strconv"

	"freedom/internal/core"
	"freedom/internal/validation"
)

var AccountDefinition = Definition[core.AccountInput]{
	Name:        "account",
	SubmitLabel: "Update",
	Schema:      validation.Account,
	Fields: []FieldDef{
		{Name: "name", Label: "Name", Type: "text"},
		{Name: "depositsPerYear", Label: "Deposits / year", Type: "number"},
	},
	Editable: []string{"depositsPerYear", "id", "name"},
	Decode: func(v validation.Values) (core.AccountInput, error) {
		deposits, err := parseInt(v["depositsPerYear"])
		if err != nil {
			return core.AccountInput{}, err
		}
		return core.AccountInput{ID: v["id"], Name: v["name"], DepositsPerYear: deposits}, nil
	},
}

var FundDefinition = Definition[core.FundInput]{
	Name:        "fund",
	SubmitLabel: "Save",
	Schema:      validation.Fund,
	Fields: []FieldDef{
		{Name: "icon", Label: "Icon", Type: "text"},
		{Name: "name", Label: "Name", Type: "text"},
	},
	Editable: []string{"icon", "name"},
	Decode: func(v validation.Values) (core.FundInput, error) {
		return core.FundInput{Icon: v["icon"], Name: v["name"]}, nil
	},
}

var LoginDefinition = Definition[string]{
	Name:        "login",
	SubmitLabel: "Login",
	Schema:      validation.Login,
	Fields: []FieldDef{
		{Name: "username", Label: "Username", Type: "text"},
	},
	Editable: []string{"username"},
	Decode: func(v validation.Values) (string, error) {
		return v["username"], nil
	},
}

// AccountValues flattens every field of an account, server-only ones
// included. Forms narrow it down through their allow-list.
func AccountValues(a core.Account) validation.Values {
	return validation.Values{
		"id":              a.ID,
		"name":            a.Name,
		"depositsPerYear": strconv.Itoa(a.DepositsPerYear),
		"funds":           strconv.Itoa(len(a.Funds)),
	}
}

func FundValues(f core.Fund) validation.Values {
	return validation.Values{"id": f.ID, "icon": f.Icon, "name": f.Name}
}

func NewAccountForm(a core.Account, opts ...Option) *Form[core.AccountInput] {
	return New(AccountDefinition, AccountValues(a), opts...)
}

// NewFundForm opens a creation form with an empty draft.
func NewFundForm(opts ...Option) *Form[core.FundInput] {
	return New(FundDefinition, nil, opts...)
}

func NewLoginForm(opts ...Option) *Form[string] {
	return New(LoginDefinition, nil, opts...)
}

// parseInt decodes a validated integer field. Values the schema accepts in
// float notation ("12.0", "1e2") are allowed as long as they are integral
// and fit in 32 bits; anything else is an error, never a narrowed value.
func parseInt(s string) (int, error) {
	if n, err := strconv.ParseInt(s, 10, 32); err == nil {
		return int(n), nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %q: %w", s, err)
	}
	if f != math.Trunc(f) || f > math.MaxInt32 || f < math.MinInt32 {
		return 0, fmt.Errorf("parse %q: out of int32 range or not integral", s)
	}
	return int(f), nil
}
