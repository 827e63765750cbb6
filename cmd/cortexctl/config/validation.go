package config

import (
	"fmt"

	"github.com/cortexhq/cortex/internal/validate"
	"github.com/spf13/cobra"
)

// ValidateGlobalFlags runs before every command and rejects flag values the
// handlers would otherwise trip over mid-request.
func ValidateGlobalFlags(cmd *cobra.Command, args []string) error {
	addr, err := validate.ParseBindAddress(Global.APIAddr)
	if err != nil {
		return fmt.Errorf("cannot parse --api %q: want host:port, like %s", Global.APIAddr, DefaultAPIAddr)
	}

	// 0.0.0.0 is a bind address; there is nothing to dial there
	if addr.Host == "0.0.0.0" {
		return fmt.Errorf("--api %q is a wildcard bind address, dial the hub's real IP instead", Global.APIAddr)
	}
	if addr.Port < 1 || addr.Port > 65535 {
		return fmt.Errorf("--api port %d is outside 1-65535", addr.Port)
	}

	switch Global.Output {
	case "table", "json":
	default:
		return fmt.Errorf("unknown output format %q: choose table or json", Global.Output)
	}

	if Global.Timeout < 1 {
		return fmt.Errorf("--timeout must be at least 1 second, got %d", Global.Timeout)
	}

	return nil
}
