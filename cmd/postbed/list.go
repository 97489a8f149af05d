package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/postbed/postbed"
	"github.com/postbed/postbed/pkg/core"
	"github.com/spf13/cobra"
)

var (
	listJSON       bool
	filterCategory string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all posts in the vault",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
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

		posts, err := service.ListPosts(context.Background())
		if err != nil {
			fatal("Failed to list posts", err)
		}

		var filtered []core.Post
		for _, post := range posts {
			if filterCategory != "" && !hasCategory(post.Meta, filterCategory) {
				continue
			}
			filtered = append(filtered, post)
		}

		if listJSON {
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			if err := encoder.Encode(filtered); err != nil {
				fatal("Failed to encode JSON", err)
			}
			return
		}

		for _, post := range filtered {
			title := ""
			if t, ok := post.Meta["title"].(string); ok {
				title = fmt.Sprintf("- %s", t)
			}
			fmt.Printf("%s %s\n", post.ID, title)
		}
	},
}

// hasCategory handles []interface{} (from YAML) and []string shapes.
func hasCategory(meta core.Metadata, category string) bool {
	switch cats := meta["categories"].(type) {
	case []interface{}:
		for _, item := range cats {
			if s, ok := item.(string); ok && s == category {
				return true
			}
		}
	case []string:
		for _, s := range cats {
			if s == category {
				return true
			}
		}
	case string:
		return cats == category
	}
	return false
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output in JSON format")
	listCmd.Flags().StringVar(&filterCategory, "category", "", "Filter posts by category")
}
