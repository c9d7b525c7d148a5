// Package parleycmder
package parleycmder

import (
	"github.com/spf13/cobra"

	configcmder "github.com/papercomputeco/parley/cmd/parley/config"
	servecmder "github.com/papercomputeco/parley/cmd/parley/serve"
	versioncmder "github.com/papercomputeco/parley/cmd/version"
)

const parleyLongDesc string = `Parley is a conversational chat proxy with streamed-reply reconciliation.

Run the server using:
  parley serve         Run the chat server

Manage configuration using:
  parley config        Get, set, and list persistent configuration`

const parleyShortDesc string = "Parley - Conversational Chat Proxy"

func NewParleyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parley",
		Short: parleyShortDesc,
		Long:  parleyLongDesc,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override the .parley/ config directory")

	// Add subcommands
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
