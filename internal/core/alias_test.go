package core

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAliasRules_DefaultsMatchPlatformDomain(t *testing.T) {
	rules := NewAliasRules("zenbox.email", "concierge@zenbox.email")

	operator, ok := rules.Match("support", "zenbox.email")
	require.True(t, ok)
	assert.Equal(t, "concierge@zenbox.email", operator)

	_, ok = rules.Match("billing", "zenbox.email")
	assert.True(t, ok)
}

func TestAliasRules_OtherDomainNotRedirected(t *testing.T) {
	rules := NewAliasRules("zenbox.email", "concierge@zenbox.email")

	_, ok := rules.Match("support", "example.com")
	assert.False(t, ok)
}

func TestAliasRules_UnreservedLocalPart(t *testing.T) {
	rules := NewAliasRules("zenbox.email", "concierge@zenbox.email")

	_, ok := rules.Match("alice", "zenbox.email")
	assert.False(t, ok)
}

func TestLoadAliasRules_FileReplacesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aliases.yaml")
	content := `rules:
  - local_part: helpdesk
    operator: desk@zenbox.email
  - local_part: legal
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	rules, err := LoadAliasRules(path, "zenbox.email", "concierge@zenbox.email")
	require.NoError(t, err)

	operator, ok := rules.Match("helpdesk", "zenbox.email")
	require.True(t, ok)
	assert.Equal(t, "desk@zenbox.email", operator)

	// Rule without an operator falls back to the configured one.
	operator, ok = rules.Match("legal", "zenbox.email")
	require.True(t, ok)
	assert.Equal(t, "concierge@zenbox.email", operator)

	// Defaults are replaced, not merged.
	_, ok = rules.Match("support", "zenbox.email")
	assert.False(t, ok)
}

func TestLoadAliasRules_MissingFile(t *testing.T) {
	_, err := LoadAliasRules("/nonexistent/aliases.yaml", "zenbox.email", "op@zenbox.email")
	assert.Error(t, err)
}

func TestLoadAliasRules_RuleWithoutLocalPart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aliases.yaml")
	require.NoError(t, os.WriteFile(path, []byte("rules:\n  - operator: x@y.z\n"), 0o600))

	_, err := LoadAliasRules(path, "zenbox.email", "op@zenbox.email")
	assert.Error(t, err)
}

func TestTagSubject(t *testing.T) {
	assert.Equal(t, "[SUPPORT] Password reset", TagSubject("support", "Password reset"))
	assert.Equal(t, "[BILLING] ", TagSubject("billing", ""))
}
