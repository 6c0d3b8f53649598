package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRole_Valid(t *testing.T) {
	assert.True(t, RoleUser.Valid())
	assert.True(t, RoleAssistant.Valid())
	assert.False(t, Role("system").Valid())
	assert.False(t, Role("").Valid())
}

func TestCloneMessages(t *testing.T) {
	in := []Message{{Role: RoleUser, Text: "a"}}
	out := CloneMessages(in)
	out[0].Text = "b"
	assert.Equal(t, "a", in[0].Text)

	empty := CloneMessages(nil)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}
