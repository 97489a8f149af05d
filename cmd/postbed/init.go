package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/postbed/postbed"
	"github.com/spf13/cobra"
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a postbed vault (git init)",
	Long:  `Initialize a new postbed vault in the current directory. Unless --gitless is set, this effectively runs 'git init'.`,
	Run: func(cmd *cobra.Command, args []string) {
		cwd, err := os.Getwd()
		if err != nil {
			fatal("Failed to get CWD", err)
		}

		_, err = postbed.Init(cwd,
			postbed.WithAutoInit(true),
			postbed.WithVersioning(!gitless),
			postbed.WithLogger(slog.Default()),
			postbed.WithDevSafety(false),
		)
		if err != nil {
			fatal("Failed to initialize vault", err)
		}

		fmt.Println("Initialized empty postbed vault in", cwd)
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
