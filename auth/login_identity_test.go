package auth_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gradebook-hq/go-auth-bridge/auth"
)

func TestDeriveLoginIdentity(t *testing.T) {
	tests := []struct {
		name     string
		username string
		expected string
	}{
		{name: "plain username", username: "alice", expected: "alice@test.local"},
		{name: "uppercase is lowered", username: "ALICE", expected: "alice@test.local"},
		{name: "spaces collapse to a dot", username: "Alice Jones", expected: "alice.jones@test.local"},
		{name: "run of junk collapses to one dot", username: "alice!!@#jones", expected: "alice.jones@test.local"},
		{name: "allowed punctuation kept", username: "a.b_c-d", expected: "a.b_c-d@test.local"},
		{name: "leading and trailing dots trimmed", username: "(alice)", expected: "alice@test.local"},
		{name: "digits kept", username: "alice2024", expected: "alice2024@test.local"},
		{name: "empty username falls back", username: "", expected: "user@test.local"},
		{name: "all junk falls back", username: "!!!", expected: "user@test.local"},
		{name: "unicode collapses", username: "ålice", expected: "lice@test.local"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.expected, auth.DeriveLoginIdentity(tc.username, "test.local"))
		})
	}
}

func TestDeriveLoginIdentityIsDeterministic(t *testing.T) {
	first := auth.DeriveLoginIdentity("Alice Jones", "test.local")
	second := auth.DeriveLoginIdentity("Alice Jones", "test.local")
	require.Equal(t, first, second)
}
