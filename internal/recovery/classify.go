// Package recovery decides what happens when a query or mutation fails:
// an expired session sends the user to the login page, anything else is
// shown in place.
package recovery

import (
	"strings"

	"freedom/internal/graphql"
)

type Kind int

const (
	Other Kind = iota
	AuthorizationExpired
)

func (k Kind) String() string {
	if k == AuthorizationExpired {
		return "authorization_expired"
	}
	return "other"
}

const (
	LoginPath   = "/login"
	DefaultPath = "/"
)

// Classify inspects the first GraphQL sub-error. Either the UNAUTHORIZED
// code or the "unauthorized" message sentinel marks an expired session.
func Classify(err error) Kind {
	if err == nil {
		return Other
	}
	gqlErr, ok := graphql.As(err)
	if !ok {
		return Other
	}
	first, ok := gqlErr.First()
	if !ok {
		return Other
	}
	if first.Code() == graphql.CodeUnauthorized || first.Message == graphql.MessageUnauthorized {
		return AuthorizationExpired
	}
	return Other
}

// Decision is the outcome of routing one error.
type Decision struct {
	Kind Kind
	// Redirect is the path to navigate to, empty to stay in place.
	Redirect string
	// ReturnTo is the location restored after the next login.
	ReturnTo string
	// ResetSession asks for the active data session to be invalidated.
	ResetSession bool
	// Message is shown on the failure surface when staying in place.
	Message string
}

// Decide maps err raised at location to a Decision. It has no side effects.
func Decide(err error, location string) Decision {
	if Classify(err) == AuthorizationExpired {
		return Decision{
			Kind:         AuthorizationExpired,
			Redirect:     LoginPath,
			ReturnTo:     ReturnPath(location),
			ResetSession: true,
		}
	}
	d := Decision{Kind: Other}
	if err != nil {
		d.Message = err.Error()
	}
	return d
}

// ReturnPath sanitizes a captured location so it can only point back into
// this application and never at the login page itself.
func ReturnPath(location string) string {
	switch {
	case !strings.HasPrefix(location, "/"),
		strings.HasPrefix(location, "//"),
		strings.HasPrefix(location, "/\\"):
		return DefaultPath
	case location == LoginPath, strings.HasPrefix(location, LoginPath+"?"):
		return DefaultPath
	}
	return location
}
