package auth

import (
	"errors"
	"net/http"
	"strings"
)

var ErrAnonymous = errors.New("auth: anonymous caller")

// Resolver answers "who is the caller" for an inbound request. The
// actual identity provider sits in front of this service; resolvers
// only read what it attached to the request.
type Resolver interface {
	Resolve(r *http.Request) (string, error)
}

// HeaderResolver trusts the caller identifier injected by the
// fronting identity proxy into a fixed header.
type HeaderResolver struct {
	Header string
}

func (h HeaderResolver) Resolve(r *http.Request) (string, error) {
	id := strings.TrimSpace(r.Header.Get(h.Header))
	if id == "" {
		return "", ErrAnonymous
	}
	return id, nil
}
