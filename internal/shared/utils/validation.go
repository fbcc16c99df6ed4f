package utils

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// JSON size limits (in bytes)
const (
	MaxJSONSize    = 1 * 1024 * 1024 // 1MB - maximum request payload
	MaxEventSize   = 256 * 1024      // 256KB - event payload relayed to plugins
	MaxMetadataLen = 64 * 1024       // 64KB - component metadata
)

// String length limits
const (
	MaxIDLength          = 128
	MaxNameLength        = 256
	MaxLabelLength       = 128
	MaxDescriptionLength = 2048
	MaxTagLength         = 64
	MaxTagCount          = 32
)

var (
	// SafeIDPattern allows alphanumeric, hyphens, underscores and dots
	SafeIDPattern = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)
	// FullIDPattern is "<plugin>:<local>"
	FullIDPattern = regexp.MustCompile(`^[a-zA-Z0-9._-]+:[a-zA-Z0-9._/-]+$`)
	// ComponentNamePattern is a render component reference ("SnakeGame", "widgets/Clock")
	ComponentNamePattern = regexp.MustCompile(`^[a-zA-Z0-9._/-]+$`)
	// EventNamePattern allows namespaced event names ("plugin:event", "shell.layout")
	EventNamePattern = regexp.MustCompile(`^[a-zA-Z0-9._:/-]+$`)
)

// JSONSizeValidator validates JSON size limits
type JSONSizeValidator struct {
	maxSize int
}

// NewJSONSizeValidator creates a new validator with the specified max size
func NewJSONSizeValidator(maxSize int) *JSONSizeValidator {
	return &JSONSizeValidator{maxSize: maxSize}
}

// DefaultJSONValidator returns a validator with the default 1MB limit
func DefaultJSONValidator() *JSONSizeValidator {
	return NewJSONSizeValidator(MaxJSONSize)
}

// ValidateSize checks if the data size is within limits
func (v *JSONSizeValidator) ValidateSize(data []byte) error {
	if size := len(data); size > v.maxSize {
		return fmt.Errorf("JSON size %d bytes exceeds maximum %d bytes", size, v.maxSize)
	}
	return nil
}

// ValidateJSON validates both size and JSON structure
func (v *JSONSizeValidator) ValidateJSON(data []byte) error {
	if err := v.ValidateSize(data); err != nil {
		return err
	}
	if !json.Valid(data) {
		return fmt.Errorf("invalid JSON")
	}
	return nil
}

// ValidateString validates a string field with length and content checks
func ValidateString(value, fieldName string, minLen, maxLen int, required bool) error {
	if required && value == "" {
		return fmt.Errorf("%s is required", fieldName)
	}
	if value == "" {
		return nil
	}

	length := utf8.RuneCountInString(value)
	if length < minLen {
		return fmt.Errorf("%s must be at least %d characters", fieldName, minLen)
	}
	if length > maxLen {
		return fmt.Errorf("%s must not exceed %d characters", fieldName, maxLen)
	}
	if strings.Contains(value, "\x00") {
		return fmt.Errorf("%s contains invalid characters", fieldName)
	}
	return nil
}

// ValidateID validates a plugin id or a local component id
func ValidateID(id, fieldName string, required bool) error {
	if err := ValidateString(id, fieldName, 1, MaxIDLength, required); err != nil {
		return err
	}
	if id != "" && !SafeIDPattern.MatchString(id) {
		return fmt.Errorf("%s contains invalid characters (only alphanumeric, dots, hyphens, and underscores allowed)", fieldName)
	}
	return nil
}

// ValidateFullID validates a "<plugin>:<local>" component id
func ValidateFullID(id, fieldName string) error {
	if err := ValidateString(id, fieldName, 3, MaxIDLength*2, true); err != nil {
		return err
	}
	if !FullIDPattern.MatchString(id) {
		return fmt.Errorf("%s must have the form <plugin>:<local>", fieldName)
	}
	return nil
}

// ValidateComponentName validates the name a render handle refers to
func ValidateComponentName(name, fieldName string) error {
	if err := ValidateString(name, fieldName, 1, MaxNameLength, true); err != nil {
		return err
	}
	if !ComponentNamePattern.MatchString(name) {
		return fmt.Errorf("%s contains invalid characters (allowed: a-z, A-Z, 0-9, ., _, /, -)", fieldName)
	}
	return nil
}

// ValidateEventName validates an event or service name
func ValidateEventName(name, fieldName string) error {
	if err := ValidateString(name, fieldName, 1, MaxNameLength, true); err != nil {
		return err
	}
	if !EventNamePattern.MatchString(name) {
		return fmt.Errorf("%s contains invalid characters", fieldName)
	}
	return nil
}

// ValidateTags validates capability tags
func ValidateTags(tags []string) error {
	if len(tags) > MaxTagCount {
		return fmt.Errorf("too many tags: %d (max %d)", len(tags), MaxTagCount)
	}
	for i, tag := range tags {
		if err := ValidateString(tag, fmt.Sprintf("tags[%d]", i), 1, MaxTagLength, true); err != nil {
			return err
		}
	}
	return nil
}
