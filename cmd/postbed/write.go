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
	writeID      string
	writeBody    string
	writeMeta    string
	changeReason string
	writeType    string
	writeScope   string
)

// writeCmd represents the write command
var writeCmd = &cobra.Command{
	Use:   "write",
	Short: "Write a post",
	Long:  `Create or update a post with the given ID, body, and front matter.`,
	Run: func(cmd *cobra.Command, args []string) {
		if writeID == "" {
			fmt.Println("Error: --id is required")
			cmd.Usage()
			os.Exit(1)
		}

		wd, err := os.Getwd()
		if err != nil {
			fatal("Failed to get CWD", err)
		}

		service, err := postbed.New(wd,
			postbed.WithAdapter(adapter),
			postbed.WithVersioning(!gitless),
			postbed.WithLogger(slog.Default()),
			postbed.WithDevSafety(false),
		)
		if err != nil {
			fatal("Failed to open vault", err)
		}

		var meta core.Metadata
		if writeMeta != "" {
			if err := json.Unmarshal([]byte(writeMeta), &meta); err != nil {
				fatal("Failed to parse --meta JSON", err)
			}
		}

		var finalMsg string
		if writeType != "" {
			if changeReason == "" {
				changeReason = fmt.Sprintf("update %s", writeID)
			}
			finalMsg = postbed.FormatChangeReason(writeType, writeScope, changeReason, "")
		} else if changeReason != "" {
			finalMsg = postbed.AppendFooter(changeReason)
		} else {
			scope := "posts"
			if writeScope != "" {
				scope = writeScope
			}
			finalMsg = postbed.FormatChangeReason(postbed.CommitTypeDocs, scope, fmt.Sprintf("update %s", writeID), "")
		}

		// Pass commit message via context (adapter specific requirement)
		ctx := context.WithValue(context.Background(), core.ChangeReasonKey, finalMsg)

		if err := service.SavePost(ctx, writeID, writeBody, meta); err != nil {
			fatal("Failed to save post", err)
		}

		fmt.Printf("Post '%s' saved and committed.\n", writeID)
	},
}

func init() {
	rootCmd.AddCommand(writeCmd)
	writeCmd.Flags().StringVar(&writeID, "id", "", "Post ID (filename)")
	writeCmd.Flags().StringVar(&writeBody, "body", "", "Post body")
	writeCmd.Flags().StringVar(&writeMeta, "meta", "", "Front matter as JSON")
	writeCmd.Flags().StringVarP(&changeReason, "message", "m", "", "Change reason (audit note)")
	writeCmd.Flags().StringVarP(&writeType, "type", "t", "", "Change type (feat, fix, etc)")
	writeCmd.Flags().StringVarP(&writeScope, "scope", "s", "", "Commit scope")
	writeCmd.MarkFlagRequired("id")
}
