package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var emailsCmd = &cobra.Command{
	Use:   "emails",
	Short: "List the study inbox",
	RunE: func(cmd *cobra.Command, args []string) error {
		list, err := newClient().ListEmails(cmd.Context())
		if err != nil {
			return fmt.Errorf("list emails: %w", err)
		}
		for _, e := range list {
			fmt.Printf("%-28s %-32s %s\n", e.ID, e.From, e.Subject)
		}
		return nil
	},
}

var answeredCmd = &cobra.Command{
	Use:   "answered",
	Short: "List emails a participant has already answered",
	RunE: func(cmd *cobra.Command, args []string) error {
		if participant == "" {
			return fmt.Errorf("--participant is required")
		}
		ids, err := newClient().AnsweredIDs(cmd.Context(), participant)
		if err != nil {
			return fmt.Errorf("answered ids: %w", err)
		}
		for _, id := range ids {
			fmt.Println(id)
		}
		return nil
	},
}
