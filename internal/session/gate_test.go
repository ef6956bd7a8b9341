package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/prodtask/internal/model"
)

var liMing = model.User{ID: "u2", Name: "李明", Role: model.RoleEmployee, Password: "123"}

func TestLoginHappyPath(t *testing.T) {
	g := New()
	assert.Equal(t, StateUserSelection, g.State())

	g.Select(liMing)
	assert.Equal(t, StatePasswordEntry, g.State())

	g.Input("123")
	require.NoError(t, g.Submit())
	assert.Equal(t, StateAuthenticated, g.State())
	require.NotNil(t, g.Current())
	assert.Equal(t, "u2", g.Current().ID)
	assert.Nil(t, g.Candidate())
}

func TestWrongPasswordKeepsCandidate(t *testing.T) {
	g := New()
	g.Select(liMing)
	g.Input("1234")

	assert.ErrorIs(t, g.Submit(), ErrAuthMismatch)
	assert.Equal(t, StatePasswordEntry, g.State())
	assert.Nil(t, g.Current())
	require.NotNil(t, g.Candidate())
	assert.Equal(t, "u2", g.Candidate().ID)
}

func TestPasswordIsCaseSensitive(t *testing.T) {
	g := New()
	g.Select(model.User{ID: "u1", Password: "admin"})
	g.Input("ADMIN")
	assert.ErrorIs(t, g.Submit(), ErrAuthMismatch)
}

func TestSelectClearsPriorInput(t *testing.T) {
	g := New()
	g.Select(liMing)
	g.Input("123")
	g.Back()
	g.Select(liMing)

	assert.ErrorIs(t, g.Submit(), ErrAuthMismatch)
}

func TestBackReturnsToSelection(t *testing.T) {
	g := New()
	g.Select(liMing)
	g.Back()

	assert.Equal(t, StateUserSelection, g.State())
	assert.Nil(t, g.Candidate())
	assert.ErrorIs(t, g.Submit(), ErrNoCandidate)
}

func TestLogoutClearsSession(t *testing.T) {
	g := New()
	g.Select(liMing)
	g.Input("123")
	require.NoError(t, g.Submit())

	g.Logout()
	assert.Equal(t, StateUserSelection, g.State())
	assert.Nil(t, g.Current())
}

func TestRefreshSignsOutDeletedUser(t *testing.T) {
	g := New()
	g.Select(liMing)
	g.Input("123")
	require.NoError(t, g.Submit())

	renamed := liMing
	renamed.Name = "李明2"
	g.Refresh([]model.User{renamed})
	assert.Equal(t, "李明2", g.Current().Name)

	g.Refresh(nil)
	assert.Nil(t, g.Current())
	assert.Equal(t, StateUserSelection, g.State())
}
