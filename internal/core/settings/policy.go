// Package settings holds the policy read by the assignment engine and the
// codec between it and the key/value settings rows.
package settings

import (
	"strconv"
	"strings"
)

// Setting keys as stored in app_settings.
const (
	KeyDedupEnabled = "fingerprinting_enabled"
	KeyTitle        = "app_title"
	KeyInstructions = "instructions_text"
)

// Defaults applied when a key is missing or malformed.
const (
	DefaultDedupEnabled = true
	DefaultTitle        = "Volunteer Hub"
	DefaultInstructions = "Pick one task to help with.\nUse your full name.\nOnce you sign up the choice is final."
)

// Policy is the dedup toggle plus two opaque display strings.
type Policy struct {
	DedupEnabled bool
	Title        string
	Instructions string
}

// Default returns the policy used for a fresh install.
func Default() Policy {
	return Policy{
		DedupEnabled: DefaultDedupEnabled,
		Title:        DefaultTitle,
		Instructions: DefaultInstructions,
	}
}

// FromValues decodes stored key/value rows. Missing or malformed values fall
// back to their defaults so a damaged row never disables dedup by accident.
func FromValues(values map[string]string) Policy {
	p := Default()
	if v, ok := values[KeyDedupEnabled]; ok {
		p.DedupEnabled = ParseBool(v, DefaultDedupEnabled)
	}
	if v, ok := values[KeyTitle]; ok && v != "" {
		p.Title = v
	}
	if v, ok := values[KeyInstructions]; ok {
		p.Instructions = v
	}
	return p
}

// Values encodes the policy as key/value rows.
func (p Policy) Values() map[string]string {
	return map[string]string{
		KeyDedupEnabled: strconv.FormatBool(p.DedupEnabled),
		KeyTitle:        p.Title,
		KeyInstructions: p.Instructions,
	}
}

// ParseBool parses a stored boolean, accepting JSON-quoted values.
func ParseBool(s string, def bool) bool {
	b, err := strconv.ParseBool(strings.Trim(strings.TrimSpace(s), `"`))
	if err != nil {
		return def
	}
	return b
}

// Problems lists stored values that FromValues would replace with a default.
func Problems(values map[string]string) []string {
	var out []string
	for _, key := range []string{KeyDedupEnabled, KeyTitle, KeyInstructions} {
		if _, ok := values[key]; !ok {
			out = append(out, "missing "+key)
		}
	}
	if v, ok := values[KeyDedupEnabled]; ok {
		if _, err := strconv.ParseBool(strings.Trim(strings.TrimSpace(v), `"`)); err != nil {
			out = append(out, "malformed "+KeyDedupEnabled+" "+strconv.Quote(v))
		}
	}
	if v, ok := values[KeyTitle]; ok && v == "" {
		out = append(out, "blank "+KeyTitle)
	}
	return out
}
