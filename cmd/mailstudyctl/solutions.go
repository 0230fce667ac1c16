package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mailstudy/mailstudy/internal/grading"
)

var adminPassword string

func init() {
	solutionsCmd.Flags().StringVar(&adminPassword, "password", os.Getenv("MAILSTUDY_ADMIN_PASSWORD"), "admin password")
	exportCmd.Flags().StringVar(&adminPassword, "password", os.Getenv("MAILSTUDY_ADMIN_PASSWORD"), "admin password")
}

var solutionsCmd = &cobra.Command{
	Use:   "solutions <email-id> <solutions.json>",
	Short: "Commit an email's expected-solution block",
	Long: `Replaces the expected solutions for one email. The file maps question
ids to entries; both bare values ("yes", ["a","b"]) and rich records
({"solution": ..., "solution_regex": ..., "explanation": ...}) are
accepted and normalized before upload.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		emailID, path := args[0], args[1]
		if adminPassword == "" {
			return fmt.Errorf("--password or MAILSTUDY_ADMIN_PASSWORD is required")
		}

		raw, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		var entries map[string]json.RawMessage
		if err := json.Unmarshal(raw, &entries); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
		block := grading.ParseAll(entries)

		ctx := cmd.Context()
		c := newClient()
		token, err := c.AdminLogin(ctx, adminPassword)
		if err != nil {
			return err
		}
		if err := c.PutSolutions(ctx, emailID, block, token); err != nil {
			return err
		}
		fmt.Printf("committed %d solution entries for %s\n", len(block), emailID)
		return nil
	},
}
