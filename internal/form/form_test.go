package form

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"freedom/internal/core"
	"freedom/internal/validation"
)

var testAccount = core.Account{
	ID:              "acc-1",
	Name:            "Savings",
	DepositsPerYear: 24,
	Funds:           []core.Fund{{ID: "f1", Icon: "🚘", Name: "Car Repairs"}},
}

func TestAccountFormSeedsAllowListOnly(t *testing.T) {
	f := NewAccountForm(testAccount)

	assert.Equal(t, validation.Values{"id": "acc-1", "name": "Savings", "depositsPerYear": "24"}, f.Draft())
	assert.Equal(t, Editing, f.State())
}

func TestBlurShowsRequiredMessage(t *testing.T) {
	f := NewAccountForm(testAccount)

	require.NoError(t, f.Change("name", ""))
	assert.Empty(t, f.Field("name").Error, "errors stay hidden until the field is touched")

	require.NoError(t, f.Blur("name"))
	assert.Equal(t, "name is a required field", f.Field("name").Error)
}

func TestBlurRevalidatesWholeEntity(t *testing.T) {
	f := NewAccountForm(testAccount)

	require.NoError(t, f.Change("depositsPerYear", "0"))
	require.NoError(t, f.Blur("depositsPerYear"))
	assert.Equal(t, "depositsPerYear must be a positive number", f.Field("depositsPerYear").Error)

	// fixing the value elsewhere clears the message on the next blur of any field
	require.NoError(t, f.Change("depositsPerYear", "12"))
	require.NoError(t, f.Blur("name"))
	assert.Empty(t, f.Field("depositsPerYear").Error)
}

func TestSubmitCallsCommitWithExactPayload(t *testing.T) {
	var got []core.AccountInput
	succeeded := false
	f := NewAccountForm(testAccount, OnSuccess(func() { succeeded = true }))

	require.NoError(t, f.Change("name", "New Name"))
	require.NoError(t, f.Change("depositsPerYear", "13"))
	err := f.Submit(context.Background(), func(_ context.Context, in core.AccountInput) error {
		got = append(got, in)
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, []core.AccountInput{{ID: "acc-1", Name: "New Name", DepositsPerYear: 13}}, got)
	assert.Equal(t, Succeeded, f.State())
	assert.True(t, succeeded)
}

func TestSubmitInvalidNeverCommits(t *testing.T) {
	f := NewAccountForm(testAccount)
	require.NoError(t, f.Change("name", ""))

	called := false
	err := f.Submit(context.Background(), func(context.Context, core.AccountInput) error {
		called = true
		return nil
	})

	require.ErrorIs(t, err, ErrInvalid)
	assert.False(t, called)
	assert.Equal(t, Editing, f.State())
	assert.Equal(t, "name is a required field", f.Field("name").Error, "submit touches every field")
}

func TestSubmitOutOfRangeDepositsNeverCommits(t *testing.T) {
	for _, raw := range []string{"1e19", "2147483648", "9999999999999999999"} {
		t.Run(raw, func(t *testing.T) {
			f := NewAccountForm(testAccount)
			require.NoError(t, f.Change("depositsPerYear", raw))

			called := false
			err := f.Submit(context.Background(), func(context.Context, core.AccountInput) error {
				called = true
				return nil
			})

			require.ErrorIs(t, err, ErrInvalid)
			assert.False(t, called)
			assert.Equal(t, "depositsPerYear must be at most 2147483647", f.Field("depositsPerYear").Error)
		})
	}
}

func TestParseInt(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{in: "12", want: 12},
		{in: "12.0", want: 12},
		{in: "1e2", want: 100},
		{in: "2147483647", want: 2147483647},
		{in: "2147483648", wantErr: true},
		{in: "1e19", wantErr: true},
		{in: "1.5", wantErr: true},
		{in: "lots", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseInt(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRejectedCommitKeepsDraft(t *testing.T) {
	f := NewAccountForm(testAccount)
	require.NoError(t, f.Change("name", "Renamed"))

	boom := errors.New("boom")
	err := f.Submit(context.Background(), func(context.Context, core.AccountInput) error { return boom })

	require.ErrorIs(t, err, boom)
	assert.Equal(t, Editing, f.State())
	assert.Equal(t, "Renamed", f.Draft()["name"])
	assert.Equal(t, boom, f.CommitError())

	// the user resubmits; nothing is retried automatically
	require.NoError(t, f.Submit(context.Background(), nil))
	assert.Equal(t, Succeeded, f.State())
	assert.NoError(t, f.CommitError())
}

func TestCancelNeverCommits(t *testing.T) {
	edits := [][2]string{{"name", "A"}, {"depositsPerYear", "7"}, {"name", ""}}

	for n := 0; n <= len(edits); n++ {
		cancelled := false
		f := NewAccountForm(testAccount, OnCancel(func() { cancelled = true }))
		for _, e := range edits[:n] {
			require.NoError(t, f.Change(e[0], e[1]))
			require.NoError(t, f.Blur(e[0]))
		}

		require.NoError(t, f.Cancel())
		assert.True(t, cancelled)
		assert.Equal(t, Cancelled, f.State())

		called := false
		err := f.Submit(context.Background(), func(context.Context, core.AccountInput) error {
			called = true
			return nil
		})
		assert.ErrorIs(t, err, ErrClosed)
		assert.False(t, called)
	}
}

func TestSubmitWhileSubmittingIsBlocked(t *testing.T) {
	f := NewFundForm()
	require.NoError(t, f.Change("icon", "✨"))
	require.NoError(t, f.Change("name", "New Fund"))

	started := make(chan struct{})
	release := make(chan struct{})
	var calls int
	var mu sync.Mutex
	commit := func(context.Context, core.FundInput) error {
		mu.Lock()
		calls++
		mu.Unlock()
		close(started)
		<-release
		return nil
	}

	done := make(chan error, 1)
	go func() { done <- f.Submit(context.Background(), commit) }()
	<-started

	assert.Equal(t, Submitting, f.State())
	assert.ErrorIs(t, f.Submit(context.Background(), commit), ErrSubmitting)
	assert.ErrorIs(t, f.Cancel(), ErrSubmitting)
	assert.ErrorIs(t, f.Change("name", "Other"), ErrSubmitting)

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, 1, calls)
	assert.Equal(t, Succeeded, f.State())
}

func TestCommitSurvivesCallerCancellation(t *testing.T) {
	f := NewFundForm()
	require.NoError(t, f.Change("icon", "✨"))
	require.NoError(t, f.Change("name", "New Fund"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := f.Submit(ctx, func(ctx context.Context, _ core.FundInput) error {
		return ctx.Err()
	})
	assert.NoError(t, err)
}

func TestFundFormPayload(t *testing.T) {
	var got core.FundInput
	f := NewFundForm()
	require.NoError(t, f.Change("icon", "✨"))
	require.NoError(t, f.Change("name", " New Fund "))

	require.NoError(t, f.Submit(context.Background(), func(_ context.Context, in core.FundInput) error {
		got = in
		return nil
	}))
	assert.Equal(t, core.FundInput{Icon: "✨", Name: "New Fund"}, got)
}

func TestFieldsCarryLabels(t *testing.T) {
	fields := NewAccountForm(testAccount).Fields()
	require.Len(t, fields, 2)
	assert.Equal(t, "Name", fields[0].Label)
	assert.Equal(t, "Deposits / year", fields[1].Label)
	assert.Equal(t, "number", fields[1].Type)
	assert.Equal(t, "24", fields[1].Value)
}
