package config

import (
	"fmt"
	"math"
	"slices"
	"strings"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config key (e.g., "lead_time")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// ValidLogLevels returns the list of valid log levels
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// Validate checks the Config for invalid values and returns all validation errors found
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	if math.IsNaN(c.LeadTime) || math.IsInf(c.LeadTime, 0) || c.LeadTime < 0 {
		errors = append(errors, ValidationError{
			Field:   "lead_time",
			Value:   c.LeadTime,
			Message: "must be a non-negative number of seconds",
		})
	}

	if c.FanSpeed < 0 || c.FanSpeed > 100 {
		errors = append(errors, ValidationError{
			Field:   "fan_speed",
			Value:   c.FanSpeed,
			Message: "must be between 0 and 100 percent",
		})
	}

	if c.DefaultFeedRate < 0 {
		errors = append(errors, ValidationError{
			Field:   "default_feedrate",
			Value:   c.DefaultFeedRate,
			Message: "must be non-negative, 0 means unknown",
		})
	}

	if len(c.Markers) == 0 {
		errors = append(errors, ValidationError{
			Field:   "markers",
			Value:   c.Markers,
			Message: "at least one bridge marker is required",
		})
	}
	for _, m := range c.Markers {
		if !strings.HasPrefix(m, ";") {
			errors = append(errors, ValidationError{
				Field:   "markers",
				Value:   m,
				Message: "bridge markers are G-code comments and must start with ';'",
			})
		}
	}

	if c.LogLevel != "" && !slices.Contains(ValidLogLevels(), strings.ToLower(c.LogLevel)) {
		errors = append(errors, ValidationError{
			Field:   "log_level",
			Value:   c.LogLevel,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidLogLevels(), ", ")),
		})
	}

	return errors
}
