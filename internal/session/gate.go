// Package session implements the two-step device login: pick an account,
// then type its password.
package session

import (
	"errors"

	"github.com/nhle/prodtask/internal/model"
)

// ErrAuthMismatch is returned by Submit when the password is wrong.
var ErrAuthMismatch = errors.New("password does not match")

// ErrNoCandidate is returned by Submit when no account has been selected.
var ErrNoCandidate = errors.New("no user selected")

// State is the login step the gate is in.
type State int

const (
	StateUserSelection State = iota
	StatePasswordEntry
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StatePasswordEntry:
		return "password_entry"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "user_selection"
	}
}

// Gate tracks the active user. Passwords are compared as plaintext,
// case-sensitive, with no attempt counting.
type Gate struct {
	state     State
	candidate *model.User
	input     string
	user      *model.User
}

// New returns a gate in UserSelection with nobody signed in.
func New() *Gate {
	return &Gate{state: StateUserSelection}
}

// State returns the current login step.
func (g *Gate) State() State { return g.state }

// Select moves to PasswordEntry for u and clears any typed password.
func (g *Gate) Select(u model.User) {
	if g.state == StateAuthenticated {
		return
	}
	g.candidate = &u
	g.input = ""
	g.state = StatePasswordEntry
}

// Input records the password typed so far.
func (g *Gate) Input(password string) {
	if g.state == StatePasswordEntry {
		g.input = password
	}
}

// Submit authenticates the candidate when the typed password matches exactly.
// On mismatch the gate stays in PasswordEntry and keeps the candidate.
func (g *Gate) Submit() error {
	if g.state != StatePasswordEntry || g.candidate == nil {
		return ErrNoCandidate
	}
	if g.input != g.candidate.Password {
		return ErrAuthMismatch
	}

	g.user = g.candidate
	g.candidate = nil
	g.input = ""
	g.state = StateAuthenticated
	return nil
}

// Back returns from PasswordEntry to UserSelection, forgetting the candidate.
func (g *Gate) Back() {
	if g.state != StatePasswordEntry {
		return
	}
	g.candidate = nil
	g.input = ""
	g.state = StateUserSelection
}

// Logout signs the current user out.
func (g *Gate) Logout() {
	g.user = nil
	g.candidate = nil
	g.input = ""
	g.state = StateUserSelection
}

// Current returns the signed-in user, or nil.
func (g *Gate) Current() *model.User {
	if g.user == nil {
		return nil
	}
	u := *g.user
	return &u
}

// Candidate returns the account awaiting a password, or nil.
func (g *Gate) Candidate() *model.User {
	if g.candidate == nil {
		return nil
	}
	u := *g.candidate
	return &u
}

// Refresh replaces the stored session user with its latest record from
// users. It signs out when the user no longer exists.
func (g *Gate) Refresh(users []model.User) {
	if g.user == nil {
		return
	}
	for _, u := range users {
		if u.ID == g.user.ID {
			u := u
			g.user = &u
			return
		}
	}
	g.Logout()
}
