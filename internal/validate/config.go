// Package validate provides configuration validation utilities shared across
// CORTEX components.
//
// This file implements common validation patterns used by the daemon and CLI
// config packages to ensure consistency and reduce duplication. All functions
// leverage the go-playground/validator library for standardized behavior.
package validate

import (
	"fmt"
	"time"
)

// ValidatePortRange validates that a port number is within the valid range
// (1-65535). Rejects port 0 (OS-assigned) since the hub's listeners need
// predictable addresses for nodes and CLI clients to reach.
func ValidatePortRange(port int) error {
	return ValidateField(port, "required,min=1,max=65535")
}

// ValidateRequiredString validates that a string field is not empty. Prevents
// runtime failures from missing essential configuration parameters.
func ValidateRequiredString(value, fieldName string) error {
	if err := ValidateField(value, "required"); err != nil {
		return fmt.Errorf("%s cannot be empty", fieldName)
	}
	return nil
}

// ValidatePositiveTimeout validates that a timeout duration is positive (> 0).
// Ensures timeout configurations don't cause infinite waits or immediate
// failures in link handling and federation joins.
func ValidatePositiveTimeout(timeout time.Duration, name string) error {
	if timeout <= 0 {
		return fmt.Errorf("%s must be positive", name)
	}
	return nil
}
