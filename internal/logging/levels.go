// Package logging provides centralized log level validation for CORTEX binaries.
//
// This file defines the canonical set of valid log levels used across the hub
// daemon, the node simulator, and the CLI. Centralizing validation ensures
// consistency and makes it easy to add new log levels without updating
// multiple files.
package logging

import "fmt"

// ValidLogLevels defines the canonical set of supported log levels. This map
// serves as the single source of truth for log level validation in daemon
// configs and CLI flags.
var ValidLogLevels = map[string]bool{
	"DEBUG": true,
	"INFO":  true,
	"WARN":  true,
	"ERROR": true,
}

// ValidateLogLevel checks whether the provided level string is supported.
// Level strings are case-sensitive and must be uppercase.
func ValidateLogLevel(level string) error {
	if !ValidLogLevels[level] {
		return fmt.Errorf("invalid log level: %s (must be DEBUG, INFO, WARN, or ERROR)", level)
	}
	return nil
}
