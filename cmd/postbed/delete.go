package main

import (
	"context"
	"fmt"
	"os"

	"github.com/postbed/postbed"
	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete a post from the vault",
	Long:  `Delete permanently removes a post from the vault and stages the deletion in Git.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id := args[0]
		wd, err := os.Getwd()
		if err != nil {
			fatal("Failed to get CWD", err)
		}

		root, err := postbed.FindVaultRoot(wd)
		if err != nil {
			fmt.Printf("Error: Not a postbed vault: %v\n", err)
			os.Exit(1)
		}

		service, err := postbed.New(root,
			postbed.WithAdapter(adapter),
			postbed.WithVersioning(!gitless),
			postbed.WithMustExist(true),
			postbed.WithDevSafety(false),
		)
		if err != nil {
			fatal("Failed to open vault", err)
		}

		if err := service.DeletePost(context.Background(), id); err != nil {
			fatal("Failed to delete post", err)
		}

		fmt.Printf("Post deleted: %s\n", id)
	},
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}
