package security

import "unicode"

// ViolationError represents a rejected input.
type ViolationError struct {
	Type    string
	Message string
	Field   string
}

func (sv *ViolationError) Error() string {
	if sv.Field != "" {
		return sv.Message + " in field: " + sv.Field
	}
	return sv.Message
}

// PathValidator checks client-supplied module paths before they are stored
// or echoed into logs and error messages.
type PathValidator struct {
	config *Config
}

// NewPathValidator creates a new path validator.
func NewPathValidator(config *Config) *PathValidator {
	return &PathValidator{config: config}
}

// ValidateModulePath rejects paths containing control characters, text
// direction overrides, or zero-width characters. Paths flow verbatim into
// structured log entries and API responses, so characters that can reorder
// or hide surrounding text are refused outright.
func (pv *PathValidator) ValidateModulePath(path string) error {
	if pv.config.MaxPathLength > 0 && len(path) > pv.config.MaxPathLength {
		return &ViolationError{
			Type:    "path_too_long",
			Message: "module path exceeds maximum length",
		}
	}

	if pv.config.EnableControlCharCheck && containsControlCharacters(path) {
		return &ViolationError{
			Type:    "control_characters",
			Message: "module path contains control characters",
		}
	}

	if pv.config.EnableUnicodeCheck {
		if containsDirectionalOverride(path) {
			return &ViolationError{
				Type:    "unicode_directional_override",
				Message: "module path contains text direction overrides",
			}
		}
		if containsZeroWidthCharacters(path) {
			return &ViolationError{
				Type:    "unicode_zero_width",
				Message: "module path contains zero-width characters",
			}
		}
	}

	return nil
}

func containsControlCharacters(input string) bool {
	for _, char := range input {
		if unicode.IsControl(char) {
			return true
		}
	}
	return false
}

func containsDirectionalOverride(input string) bool {
	directionalOverrides := []rune{
		'\u202D', // Left-to-Right Override
		'\u202E', // Right-to-Left Override
		'\u061C', // Arabic Letter Mark
		'\u200E', // Left-to-Right Mark
		'\u200F', // Right-to-Left Mark
	}

	for _, char := range input {
		for _, override := range directionalOverrides {
			if char == override {
				return true
			}
		}
	}

	return false
}

func containsZeroWidthCharacters(input string) bool {
	zeroWidthChars := []rune{
		'\u200B', // Zero Width Space
		'\u200C', // Zero Width Non-Joiner
		'\u200D', // Zero Width Joiner
		'\u2060', // Word Joiner
		'\uFEFF', // Zero Width No-Break Space
	}

	for _, char := range input {
		for _, zw := range zeroWidthChars {
			if char == zw {
				return true
			}
		}
	}

	return false
}
