package utils

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

// MaxJSONSize caps request bodies and websocket frames.
const MaxJSONSize = 64 * 1024

// Limits on raw deltas, checked before any key is parsed.
const (
	MaxIDLength     = 128
	MaxNameLength   = 256
	MaxKeyLength    = 128
	MaxValueLength  = 1024
	MaxDeltaEntries = 64
	MaxDeltaBytes   = 16 * 1024
)

var (
	idPattern     = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	modulePattern = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)
	keyPattern    = regexp.MustCompile(`^[a-zA-Z0-9._]+$`)
)

// FieldError names the input that failed validation.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return e.Field + " " + e.Reason
}

func checkText(field, value string, maxLen int, pattern *regexp.Regexp) error {
	switch {
	case value == "":
		return &FieldError{field, "is required"}
	case utf8.RuneCountInString(value) > maxLen:
		return &FieldError{field, fmt.Sprintf("must not exceed %d characters", maxLen)}
	case pattern != nil && !pattern.MatchString(value):
		return &FieldError{field, "contains invalid characters"}
	}
	return nil
}

// ValidateID accepts letters, digits, hyphens and underscores. Stage
// names and propagated trace ids use it.
func ValidateID(value, field string) error {
	return checkText(field, value, MaxIDLength, idPattern)
}

// ValidateModuleName also accepts dots (com.example.entry).
func ValidateModuleName(name string) error {
	return checkText("module", name, MaxNameLength, modulePattern)
}

// ValidateAbilityName validates an ability name.
func ValidateAbilityName(name string) error {
	return ValidateID(name, "ability")
}

// ValidateDelta checks the shape of a raw delta: entry count, key syntax,
// value length and total size. Whether a value parses for its key is left
// to the configuration container. Every offending entry is reported.
func ValidateDelta(items map[string]string) error {
	if len(items) > MaxDeltaEntries {
		return &FieldError{"delta", fmt.Sprintf("has more than %d entries", MaxDeltaEntries)}
	}

	keys := make([]string, 0, len(items))
	for k := range items {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var errs []error
	size := 0
	for _, key := range keys {
		value := items[key]
		size += len(key) + len(value)
		if err := checkText("key", key, MaxKeyLength, keyPattern); err != nil {
			errs = append(errs, fmt.Errorf("%q: %w", key, err))
			continue
		}
		if utf8.RuneCountInString(value) > MaxValueLength {
			errs = append(errs, &FieldError{key, fmt.Sprintf("value must not exceed %d characters", MaxValueLength)})
		}
		if strings.ContainsRune(value, 0) {
			errs = append(errs, &FieldError{key, "value contains a NUL byte"})
		}
	}
	if size > MaxDeltaBytes {
		errs = append(errs, &FieldError{"delta", fmt.Sprintf("exceeds %d bytes", MaxDeltaBytes)})
	}
	return errors.Join(errs...)
}
