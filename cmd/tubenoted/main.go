package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tubenote-ai/tubenote/internal/cli/admin"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "tubenoted",
		Short: "Tubenote daemon and CLI",
		Long:  "Tubenote daemon for running the video Q&A API server and managing the database",
	}

	rootCmd.AddCommand(admin.ServeCmd())
	rootCmd.AddCommand(admin.MigrateCmd())

	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
