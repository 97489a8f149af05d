package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/postbed/postbed"
	"github.com/spf13/cobra"
)

var (
	readJSON bool
)

var readCmd = &cobra.Command{
	Use:   "read [id]",
	Short: "Read a post",
	Long:  `Read a post by its ID. Outputs the raw body by default, or a JSON object with --json.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id := args[0]
		wd, err := os.Getwd()
		if err != nil {
			fatal("Failed to get CWD", err)
		}

		service, err := postbed.New(wd,
			postbed.WithAdapter(adapter),
			postbed.WithVersioning(!gitless),
			postbed.WithMustExist(true),
			postbed.WithLogger(slog.Default()),
			postbed.WithDevSafety(false),
		)
		if err != nil {
			fatal("Failed to open vault", err)
		}

		post, err := service.GetPost(context.Background(), id)
		if err != nil {
			fatal("Failed to read post", err)
		}

		if readJSON {
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			if err := encoder.Encode(post); err != nil {
				fatal("Failed to encode JSON", err)
			}
			return
		}

		fmt.Print(post.Body)
	},
}

func init() {
	rootCmd.AddCommand(readCmd)
	readCmd.Flags().BoolVar(&readJSON, "json", false, "Output in JSON format")
}
