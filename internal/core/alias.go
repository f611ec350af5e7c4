package core

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// System aliases are reserved local-parts on the platform's own domain that
// redirect to an operator mailbox with a subject tag, e.g. mail to
// support@zenbox.email lands in the operator account as "[SUPPORT] ...".

var defaultAliasLocalParts = []string{"support", "billing", "abuse", "postmaster", "hello"}

type aliasRuleFile struct {
	Rules []struct {
		LocalPart string `yaml:"local_part"`
		Operator  string `yaml:"operator"`
	} `yaml:"rules"`
}

// AliasRules maps reserved local-parts to operator addresses. Immutable
// after load.
type AliasRules struct {
	domain    string
	operators map[string]string
}

// NewAliasRules builds the built-in rule set routing every reserved
// local-part to the configured operator address.
func NewAliasRules(platformDomain, operatorEmail string) *AliasRules {
	operators := make(map[string]string, len(defaultAliasLocalParts))
	for _, lp := range defaultAliasLocalParts {
		operators[lp] = operatorEmail
	}
	return &AliasRules{
		domain:    strings.ToLower(platformDomain),
		operators: operators,
	}
}

// LoadAliasRules reads a YAML rule file when path is non-empty, otherwise
// returns the built-in defaults. Rules in the file replace the defaults.
func LoadAliasRules(path, platformDomain, operatorEmail string) (*AliasRules, error) {
	if path == "" {
		return NewAliasRules(platformDomain, operatorEmail), nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read alias rules %s: %w", path, err)
	}

	var file aliasRuleFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse alias rules %s: %w", path, err)
	}

	operators := make(map[string]string, len(file.Rules))
	for _, r := range file.Rules {
		if r.LocalPart == "" {
			return nil, fmt.Errorf("alias rules %s: rule missing local_part", path)
		}
		operator := r.Operator
		if operator == "" {
			operator = operatorEmail
		}
		operators[strings.ToLower(r.LocalPart)] = strings.ToLower(operator)
	}

	return &AliasRules{
		domain:    strings.ToLower(platformDomain),
		operators: operators,
	}, nil
}

// Match returns the operator address for a reserved local-part on the
// platform domain.
func (r *AliasRules) Match(localPart, domain string) (string, bool) {
	if domain != r.domain {
		return "", false
	}
	operator, ok := r.operators[localPart]
	return operator, ok
}

// TagSubject prefixes the subject with the uppercased alias local-part.
func TagSubject(localPart, subject string) string {
	return "[" + strings.ToUpper(localPart) + "] " + subject
}
