package main

import (
	"fmt"
	"strings"

	"github.com/postbed/postbed"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of postbed",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("postbed version %s\n", strings.TrimSpace(postbed.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
