package main

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckFailureError(t *testing.T) {
	err := &CheckFailureError{Message: "3 problems across 2 scenarios"}
	assert.Equal(t, "3 problems across 2 scenarios", err.Error())
}

func TestErrorTypeDetection(t *testing.T) {
	var checkErr *CheckFailureError

	assert.True(t, errors.As(&CheckFailureError{Message: "x"}, &checkErr))
	assert.False(t, errors.As(errors.New("config error"), &checkErr))
	assert.True(t, errors.As(
		errors.Join(&CheckFailureError{Message: "x"}, errors.New("context")),
		&checkErr))
}

func TestRootCommandHasSubcommands(t *testing.T) {
	root := newRootCommand()

	want := []string{"run", "batch", "list", "check", "serve", "health", "new"}
	got := map[string]bool{}
	for _, sub := range root.Commands() {
		got[sub.Name()] = true
	}
	for _, name := range want {
		assert.True(t, got[name], "missing subcommand %s", name)
	}
}
