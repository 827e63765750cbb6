// Package commands provides personality command definitions for cortexctl.
package commands

import (
	"fmt"

	"github.com/cortexhq/cortex/internal/logging"
	"github.com/spf13/cobra"
)

// Personality command (parent command for mood operations)
var personalityCmd = &cobra.Command{
	Use:   "personality",
	Short: "Inspect and change the hub mood",
	Long: `Commands for the hub's personality state, which scales alert
sensitivity and theming. The hub also drifts to Sleep on its own during
quiet nights.`,
}

// Personality get command
var personalityGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Show the current personality state",
	Example: `  # Show the current mood
  cortexctl personality get

  # Output in JSON format
  cortexctl -o json personality get`,
	Args: cobra.NoArgs,
	// RunE is assigned by the main package
}

// Personality set command
var personalitySetCmd = &cobra.Command{
	Use:   "set <state>",
	Short: "Transition the hub to a new personality state",
	Long: `Transition the hub to a new personality state. Valid states are
Study, Chill, Sleep, and Social.`,
	Example: `  # Switch to Study mode
  cortexctl personality set Study

  # Wind down for the night
  cortexctl personality set Sleep`,
	Args: func(cmd *cobra.Command, args []string) error {
		if len(args) != 1 {
			cmd.Help()
			fmt.Println()
			logging.Error("Invalid arguments: expected 1 state name, got %d", len(args))
			return fmt.Errorf("requires exactly 1 argument (state name)")
		}
		return nil
	},
	// RunE is assigned by the main package
}

// SetupPersonalityCommands initializes personality commands
func SetupPersonalityCommands() {
	personalityCmd.AddCommand(personalityGetCmd)
	personalityCmd.AddCommand(personalitySetCmd)
}

// GetPersonalityCommands returns the personality commands for handler assignment
func GetPersonalityCommands() (*cobra.Command, *cobra.Command) {
	return personalityGetCmd, personalitySetCmd
}
