package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/postbed/postbed"
	"github.com/postbed/postbed/pkg/core"
	"github.com/spf13/cobra"
)

var (
	newLayout     string
	newCategories []string
	newDir        string
)

// newCmd scaffolds a post from a title: the filename is derived from
// today's date and a slug of the title.
var newCmd = &cobra.Command{
	Use:   "new [title]",
	Short: "Create a new post from a title",
	Long: `Create a new post named YEAR-MONTH-DAY-title derived from today's
date and a slugified title, with front matter filled in.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		title := args[0]

		wd, err := os.Getwd()
		if err != nil {
			fatal("Failed to get CWD", err)
		}
		root, err := postbed.FindVaultRoot(wd)
		if err != nil {
			fatal("Not a postbed vault", err)
		}

		service, err := postbed.New(root,
			postbed.WithAdapter(adapter),
			postbed.WithVersioning(!gitless),
			postbed.WithMustExist(true),
			postbed.WithLogger(slog.Default()),
			postbed.WithDevSafety(false),
		)
		if err != nil {
			fatal("Failed to open vault", err)
		}

		now := time.Now()
		id := core.FormatPostName(now, core.Slugify(title))
		if newDir != "" {
			id = strings.TrimSuffix(newDir, "/") + "/" + id
		}

		meta := core.Metadata{
			"layout": newLayout,
			"title":  title,
			"date":   now.Format("2006-01-02 15:04:05 -0700"),
		}
		if len(newCategories) > 0 {
			meta["categories"] = newCategories
		}

		reason := postbed.FormatChangeReason(postbed.CommitTypeDocs, "posts", fmt.Sprintf("add %s", id), "")
		ctx := context.WithValue(context.Background(), core.ChangeReasonKey, reason)

		if err := service.SavePost(ctx, id, "", meta); err != nil {
			fatal("Failed to create post", err)
		}

		fmt.Printf("Created post '%s'\n", id)
	},
}

func init() {
	rootCmd.AddCommand(newCmd)
	newCmd.Flags().StringVar(&newLayout, "layout", "post", "Front matter layout")
	newCmd.Flags().StringSliceVar(&newCategories, "categories", nil, "Front matter categories")
	newCmd.Flags().StringVar(&newDir, "dir", "", "Subdirectory for the post")
}
