package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "vitrine",
	Short:         "Vitrine -- kiosk display supervisor",
	Long:          "Vitrine keeps a browser pinned full-screen on a secondary display\nwhile supervising a workload process and watching system power.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
