package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/d60-Lab/college-connect/internal/model"
)

// inspectCmd dumps a user's profile and verification record
var inspectCmd = &cobra.Command{
	Use:   "inspect <user-id|display-id>",
	Short: "Print a user's profile and verification record as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, cleanup, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer cleanup()

		ctx := cmd.Context()
		p, err := a.Services.Profiles.Lookup(ctx, args[0])
		if err != nil {
			return err
		}
		rec, err := a.Services.Verification.GetStatus(ctx, p.ID)
		if err != nil {
			return err
		}
		unread, err := a.Services.Notifications.UnreadCount(ctx, p.ID)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{
			"profile":             p,
			"verification":        rec,
			"unreadNotifications": unread,
		})
	},
}

// statsCmd prints record counts
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Count users, posts and pending verifications",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, cleanup, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer cleanup()

		ctx := cmd.Context()
		users, err := a.Repos.Users.List(ctx)
		if err != nil {
			return err
		}
		posts, err := a.Repos.Posts.List(ctx)
		if err != nil {
			return err
		}
		recs, err := a.Repos.Verifications.List(ctx)
		if err != nil {
			return err
		}
		pending := 0
		for _, r := range recs {
			if r.Status == model.VerificationPending {
				pending++
			}
		}
		fmt.Fprintf(cmd.OutOrStdout(), "users=%d posts=%d verifications=%d pending=%d\n",
			len(users), len(posts), len(recs), pending)
		return nil
	},
}
