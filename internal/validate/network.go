// Package validate provides network validation utilities for CORTEX services,
// ensuring proper network configuration for the hub API, the node link
// listener, the IPC publisher, and hub federation.
//
// Implements IP address, port range, and address format validation using the
// go-playground/validator library. Prevents network configuration errors that
// would surface only as runtime bind or dial failures.
//
// VALIDATION FEATURES:
//   - IP Address: IPv4 and IPv6 format validation
//   - Port Range: valid port numbers (0-65535)
//   - Address Lists: multiple addresses for hub federation joining
//   - Format: proper "host:port" address formatting
package validate

import (
	"fmt"
	"net"
	"strconv"

	"github.com/go-playground/validator/v10"
)

var (
	// Global validator instance using built-in validations
	validate *validator.Validate
)

func init() {
	validate = validator.New()
	// Using built-in validators: ip, min, max - no custom registration needed
}

// NetworkAddress represents a validated network address with host and port
// components. Uses struct tags for automatic validation via the
// go-playground/validator library.
type NetworkAddress struct {
	Host string `validate:"required,ip"`              // Built-in IP validator
	Port int    `validate:"required,min=0,max=65535"` // Built-in range validator
}

// String returns the network address in standard "host:port" format suitable
// for network connections, configuration display, and logging.
func (na NetworkAddress) String() string {
	return fmt.Sprintf("%s:%d", na.Host, na.Port)
}

// ParseBindAddress parses and validates a "host:port" address string.
// Ensures all network endpoints are properly formatted and valid before
// attempting network operations, providing clear error messages for
// misconfigured flags instead of opaque bind failures.
func ParseBindAddress(addr string) (*NetworkAddress, error) {
	if addr == "" {
		return nil, fmt.Errorf("address cannot be empty")
	}

	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, fmt.Errorf("invalid address format '%s': %w", addr, err)
	}

	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid port '%s': %w", portStr, err)
	}

	netAddr := &NetworkAddress{
		Host: host,
		Port: port,
	}

	if err := validate.Struct(netAddr); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	return netAddr, nil
}

// ValidateField validates individual values against specified validation rules
// using the go-playground/validator library. Supports all built-in validation
// tags including IP addresses, numeric ranges, and required field validation.
//
// Example: ValidateField("192.168.1.1", "required,ip")
func ValidateField(value interface{}, tag string) error {
	return validate.Var(value, tag)
}

// ValidateAddressList validates multiple network addresses for hub federation
// joining. Ensures that if the first address is unreachable, subsequent
// addresses are properly formatted and can be attempted for connection.
func ValidateAddressList(addresses []string) error {
	if len(addresses) == 0 {
		return fmt.Errorf("address list cannot be empty")
	}

	for i, addr := range addresses {
		if _, err := ParseBindAddress(addr); err != nil {
			return fmt.Errorf("invalid address at index %d: %w", i, err)
		}
	}

	return nil
}
