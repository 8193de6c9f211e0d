package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/kirillkom/kyc-compliance/internal/core/compliance"
)

// LoadPolicy returns the default compliance policy, overlaid with the YAML
// file at path when path is set. Keys absent from the file keep their defaults.
func LoadPolicy(path string) (compliance.Policy, error) {
	policy := compliance.DefaultPolicy()
	if path == "" {
		return policy, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return compliance.Policy{}, fmt.Errorf("read policy file: %w", err)
	}
	return ParsePolicy(raw, policy)
}

func ParsePolicy(raw []byte, base compliance.Policy) (compliance.Policy, error) {
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&base); err != nil && !errors.Is(err, io.EOF) {
		return compliance.Policy{}, fmt.Errorf("decode policy yaml: %w", err)
	}
	if err := validatePolicy(base); err != nil {
		return compliance.Policy{}, err
	}
	return base, nil
}

func validatePolicy(p compliance.Policy) error {
	if err := validator.New().Struct(p); err != nil {
		return fmt.Errorf("validate policy: %w", err)
	}
	th := p.Status
	if !(th.Fully >= th.Mostly && th.Mostly >= th.Partial) {
		return fmt.Errorf("validate policy: status thresholds must satisfy fully >= mostly >= partial")
	}
	seen := make(map[string]struct{}, len(p.Requirements))
	for _, req := range p.Requirements {
		if _, dup := seen[string(req.DocumentType)]; dup {
			return fmt.Errorf("validate policy: duplicate requirement %s", req.DocumentType)
		}
		seen[string(req.DocumentType)] = struct{}{}
	}
	return nil
}
