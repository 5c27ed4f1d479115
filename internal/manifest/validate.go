package manifest

import (
	"encoding/json"
	"fmt"
	"regexp"
)

var idPattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// versionPrefix matches the required major.minor.patch prefix; a
// prerelease/build suffix (e.g. "-beta.1" or "+001") may follow.
var versionPrefix = regexp.MustCompile(`^\d+\.\d+\.\d+`)

const maxShortNameLen = 5

// ValidationError names the specific schema rule a manifest broke.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid manifest: %s: %s", e.Field, e.Reason)
}

func missingField(field string) *ValidationError {
	return &ValidationError{Field: field, Reason: "required field missing"}
}

// Validate checks the required-field and shape rules against an already
// constructed Manifest. Parse and Registry.Register both call it.
func Validate(m *Manifest) []error {
	var errs []error

	if m.ID == "" {
		errs = append(errs, missingField("id"))
	} else if !idPattern.MatchString(m.ID) {
		errs = append(errs, &ValidationError{Field: "id", Reason: "must match ^[a-z0-9]+(-[a-z0-9]+)*$"})
	}

	if m.Name == "" {
		errs = append(errs, missingField("name"))
	}

	if m.Entry == "" {
		errs = append(errs, missingField("entry"))
	}

	if m.OpenClaw.MinVersion == "" {
		errs = append(errs, missingField("openclaw.minVersion"))
	}

	if m.Version != "" && !versionPrefix.MatchString(m.Version) {
		errs = append(errs, &ValidationError{Field: "version", Reason: `must begin with "major.minor.patch"`})
	}

	return errs
}

// rawManifest mirrors Manifest but keeps Permissions as json.RawMessage so
// Parse can tell "absent" from "present but not an array" apart, and keeps
// OpenClaw as a pointer so "absent entirely" is distinguishable too.
type rawManifest struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	ShortName   string          `json:"shortName,omitempty"`
	Entry       string          `json:"entry"`
	Version     string          `json:"version,omitempty"`
	Description string          `json:"description,omitempty"`
	Icon        string          `json:"icon,omitempty"`
	Author      string          `json:"author,omitempty"`
	Permissions json.RawMessage `json:"permissions"`
	Config      *ConfigSchema   `json:"config,omitempty"`
	OpenClaw    *OpenClaw       `json:"openclaw"`
}

// Parse decodes and validates a snap.json payload. It returns the parsed
// Manifest (nil if any validation error was found), the list of validation
// errors that reject the manifest, and a list of warnings that do not
// (unknown permission tags, an over-length shortName).
func Parse(data []byte) (*Manifest, []error, []string) {
	var raw rawManifest
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, []error{fmt.Errorf("invalid manifest: malformed JSON: %w", err)}, nil
	}

	var errs []error
	var warnings []string

	// Permissions and OpenClaw presence can only be told apart from
	// "present but empty" at the raw-JSON level; everything else is
	// deferred to Validate once the Manifest is built.
	var permissions []Permission
	if raw.Permissions == nil {
		errs = append(errs, missingField("permissions"))
	} else {
		var list []Permission
		if err := json.Unmarshal(raw.Permissions, &list); err != nil {
			errs = append(errs, &ValidationError{Field: "permissions", Reason: "must be a sequence of permission tags"})
		} else {
			permissions = list
			for _, p := range permissions {
				if !p.Valid() {
					warnings = append(warnings, fmt.Sprintf("unknown permission %q", p))
				}
			}
		}
	}

	if raw.OpenClaw == nil {
		errs = append(errs, missingField("openclaw"))
	}

	if len(raw.ShortName) > maxShortNameLen {
		warnings = append(warnings, fmt.Sprintf("shortName %q exceeds %d characters", raw.ShortName, maxShortNameLen))
	}

	m := &Manifest{
		ID:          raw.ID,
		Name:        raw.Name,
		ShortName:   raw.ShortName,
		Entry:       raw.Entry,
		Version:     raw.Version,
		Description: raw.Description,
		Icon:        raw.Icon,
		Author:      raw.Author,
		Permissions: permissions,
		Config:      raw.Config,
	}
	if raw.OpenClaw != nil {
		m.OpenClaw = *raw.OpenClaw
	}

	errs = append(errs, Validate(m)...)
	if len(errs) > 0 {
		return nil, errs, warnings
	}
	return m, nil, warnings
}
