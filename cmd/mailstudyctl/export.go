package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export collected answers as NDJSON to stdout",
	RunE: func(cmd *cobra.Command, args []string) error {
		if adminPassword == "" {
			return fmt.Errorf("--password or MAILSTUDY_ADMIN_PASSWORD is required")
		}

		ctx := cmd.Context()
		c := newClient()
		token, err := c.AdminLogin(ctx, adminPassword)
		if err != nil {
			return err
		}
		body, err := c.ExportAnswers(ctx, participant, token)
		if err != nil {
			return err
		}
		defer body.Close()
		_, err = io.Copy(os.Stdout, body)
		return err
	},
}
