// Package config loads named signature sets from YAML files.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/fengyoulin/memhook/sigscan"
)

// Signature is one named pattern.
type Signature struct {
	Name    string `yaml:"name"`
	Pattern string `yaml:"pattern"`
}

// SignatureSet is the on-disk form of a list of signatures sharing a
// wildcard token.
type SignatureSet struct {
	Wildcard   string      `yaml:"wildcard,omitempty"`
	Signatures []Signature `yaml:"signatures"`
}

// Load reads and validates a signature set file.
func Load(path string) (*SignatureSet, error) {
	//nolint:gosec // G304: path is supplied by the operator.
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read signature set: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a signature set.
func Parse(data []byte) (*SignatureSet, error) {
	var set SignatureSet
	if err := yaml.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("parse signature set: %w", err)
	}
	if set.Wildcard == "" {
		set.Wildcard = sigscan.DefaultWildcard
	}
	if err := set.Validate(); err != nil {
		return nil, err
	}
	return &set, nil
}

// Validate checks that names are unique and every pattern parses.
func (s *SignatureSet) Validate() error {
	var errs []error
	seen := make(map[string]bool, len(s.Signatures))
	for i, sig := range s.Signatures {
		if sig.Name == "" {
			errs = append(errs, fmt.Errorf("signature %d: missing name", i))
		} else if seen[sig.Name] {
			errs = append(errs, fmt.Errorf("signature %q: duplicate name", sig.Name))
		}
		seen[sig.Name] = true
		if _, err := sigscan.Parse(sig.Pattern, s.Wildcard); err != nil {
			errs = append(errs, fmt.Errorf("signature %q: %w", sig.Name, err))
		}
	}
	return errors.Join(errs...)
}

// Compile parses every pattern, keyed by name.
func (s *SignatureSet) Compile() (map[string]*sigscan.Signature, error) {
	out := make(map[string]*sigscan.Signature, len(s.Signatures))
	for _, sig := range s.Signatures {
		parsed, err := sigscan.Parse(sig.Pattern, s.Wildcard)
		if err != nil {
			return nil, fmt.Errorf("signature %q: %w", sig.Name, err)
		}
		out[sig.Name] = parsed
	}
	return out, nil
}

// Save writes the set as YAML.
func (s *SignatureSet) Save(path string) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode signature set: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write signature set: %w", err)
	}
	return nil
}
