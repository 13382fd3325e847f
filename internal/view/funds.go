package view

import (
	"context"
	"slices"
	"strings"

	"github.com/samber/lo"

	"freedom/internal/core"
	"freedom/internal/form"
)

// FundList renders the funds of an account and owns the add-fund session.
type FundList struct {
	adding Toggle[core.FundInput]
}

type FundRow struct {
	ID    string
	Icon  string
	Name  string
	Label string
}

type FundListView struct {
	Rows        []FundRow
	Empty       bool
	Adding      bool
	AddDisabled bool
	Form        *FormView
}

// Add opens the creation form. Only one add session exists at a time.
func (l *FundList) Add() *form.Form[core.FundInput] {
	return l.adding.Open(func(opts ...form.Option) *form.Form[core.FundInput] {
		return form.NewFundForm(opts...)
	})
}

func (l *FundList) Form() *form.Form[core.FundInput] {
	return l.adding.Active()
}

func (l *FundList) Submit(ctx context.Context, onCommit form.CommitFunc[core.FundInput]) error {
	f := l.adding.Active()
	if f == nil {
		return ErrNotEditing
	}
	return f.Submit(ctx, onCommit)
}

func (l *FundList) Cancel() error {
	f := l.adding.Active()
	if f == nil {
		return nil
	}
	return f.Cancel()
}

// Render sorts funds by name on every call. The empty prompt is only shown
// when there are no funds and no add session.
func (l *FundList) Render(funds []core.Fund) FundListView {
	f := l.adding.Active()

	sorted := slices.Clone(funds)
	slices.SortStableFunc(sorted, func(a, b core.Fund) int {
		return strings.Compare(a.Name, b.Name)
	})

	return FundListView{
		Rows: lo.Map(sorted, func(fund core.Fund, _ int) FundRow {
			return FundRow{ID: fund.ID, Icon: fund.Icon, Name: fund.Name, Label: fund.Label()}
		}),
		Empty:       len(sorted) == 0 && f == nil,
		Adding:      f != nil,
		AddDisabled: f != nil,
		Form:        newFormView(f),
	}
}
