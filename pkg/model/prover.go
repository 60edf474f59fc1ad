package model

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Prover is a content-addressable descriptor of an external prover binary:
// how to invoke it and how to read its verdict back out of its output.
type Prover struct {
	Name    string `json:"name" mapstructure:"name"`
	Binary  string `json:"binary" mapstructure:"binary"`
	Command string `json:"command" mapstructure:"command"` // template: $file, $timeout, $memory

	SatRegex     string `json:"sat_regex" mapstructure:"sat_regex"`
	UnsatRegex   string `json:"unsat_regex" mapstructure:"unsat_regex"`
	UnknownRegex string `json:"unknown_regex,omitempty" mapstructure:"unknown_regex"`
	TimeoutRegex string `json:"timeout_regex,omitempty" mapstructure:"timeout_regex"`
	MemoryRegex  string `json:"memory_regex,omitempty" mapstructure:"memory_regex"`
}

// proverFingerprintView is the subset of Prover fields that determine its
// identity for caching purposes. Keeping it separate from Prover means
// adding a display-only field later won't silently change every cache key.
type proverFingerprintView struct {
	Name         string `json:"name"`
	Binary       string `json:"binary"`
	Command      string `json:"command"`
	SatRegex     string `json:"sat_regex"`
	UnsatRegex   string `json:"unsat_regex"`
	UnknownRegex string `json:"unknown_regex"`
	TimeoutRegex string `json:"timeout_regex"`
	MemoryRegex  string `json:"memory_regex"`
}

// Fingerprint returns a stable hash of the descriptor's content, used as
// the prover-identity component of an execution fingerprint.
func (p Prover) Fingerprint() string {
	view := proverFingerprintView{
		Name:         p.Name,
		Binary:       p.Binary,
		Command:      p.Command,
		SatRegex:     p.SatRegex,
		UnsatRegex:   p.UnsatRegex,
		UnknownRegex: p.UnknownRegex,
		TimeoutRegex: p.TimeoutRegex,
		MemoryRegex:  p.MemoryRegex,
	}
	// json.Marshal on a struct with a fixed field order is deterministic,
	// which is what makes this hash stable across runs.
	b, err := json.Marshal(view)
	if err != nil {
		// Marshal of a plain string struct cannot fail; treat as a
		// programmer error, not a recoverable one.
		panic(fmt.Sprintf("model: marshal prover fingerprint view: %v", err))
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
