package view

import "freedom/internal/core"

// Screen is the edit state of the account page for one browser.
type Screen struct {
	Header AccountHeader
	Funds  FundList
}

type Page struct {
	Header AccountHeaderView
	Funds  FundListView
}

func (s *Screen) Render(a core.Account) Page {
	return Page{
		Header: s.Header.Render(a),
		Funds:  s.Funds.Render(a.Funds),
	}
}

// Reset drops every open form.
func (s *Screen) Reset() {
	s.Header.toggle.Close()
	s.Funds.adding.Close()
}
