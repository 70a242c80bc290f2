package root

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Exported RootCmd
var RootCmd = &cobra.Command{
	Use:   "todo",
	Short: "Todo API CLI",
	Long:  "Command line interface for interacting with the Todo API",
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// GetRoot returns the root command so subcommand packages can attach to it.
func GetRoot() *cobra.Command {
	return RootCmd
}
