package config

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/credguard/backend/internal/credential"
)

// Policies maps tenants to password policies. Tenants without an entry get
// Default.
type Policies struct {
	Default credential.PasswordPolicy
	Tenants map[string]credential.PasswordPolicy
}

func DefaultPolicies() *Policies {
	return &Policies{
		Default: credential.DefaultPasswordPolicy(),
		Tenants: map[string]credential.PasswordPolicy{},
	}
}

func (p *Policies) For(tenant string) credential.PasswordPolicy {
	if p == nil {
		return credential.DefaultPasswordPolicy()
	}
	if policy, ok := p.Tenants[tenant]; ok {
		return policy
	}
	return p.Default
}

// TenantNames returns the configured tenants in sorted order.
func (p *Policies) TenantNames() []string {
	names := make([]string, 0, len(p.Tenants))
	for name := range p.Tenants {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type policyFile struct {
	Default toml.Primitive            `toml:"default"`
	Tenants map[string]toml.Primitive `toml:"tenants"`
}

// LoadPolicies reads a TOML policy file. An empty path yields the built-in
// defaults.
func LoadPolicies(path string) (*Policies, error) {
	if path == "" {
		return DefaultPolicies(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read policy file: %w", err)
	}
	return ParsePolicies(string(data))
}

// ParsePolicies decodes a policy document of the form
//
//	[default]
//	min_length = 14
//
//	[tenants.research]
//	history_count = 10
//
// Keys omitted from [default] keep the built-in values; keys omitted from a
// tenant table inherit from [default]. Unknown keys are rejected.
func ParsePolicies(doc string) (*Policies, error) {
	var raw policyFile
	md, err := toml.Decode(doc, &raw)
	if err != nil {
		return nil, fmt.Errorf("parse policy file: %w", err)
	}

	policies := DefaultPolicies()
	if md.IsDefined("default") {
		if err := md.PrimitiveDecode(raw.Default, &policies.Default); err != nil {
			return nil, fmt.Errorf("decode default policy: %w", err)
		}
	}
	if err := policies.Default.Validate(); err != nil {
		return nil, fmt.Errorf("default policy: %w", err)
	}

	for name, prim := range raw.Tenants {
		policy := policies.Default
		if err := md.PrimitiveDecode(prim, &policy); err != nil {
			return nil, fmt.Errorf("decode policy for tenant %q: %w", name, err)
		}
		if err := policy.Validate(); err != nil {
			return nil, fmt.Errorf("policy for tenant %q: %w", name, err)
		}
		policies.Tenants[name] = policy
	}

	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("unknown keys in policy file: %s", strings.Join(keys, ", "))
	}

	return policies, nil
}
