// mailstudyctl is the operator CLI for a running MailStudy backend:
// inspecting the inbox, driving a training session from answer files,
// committing expected solutions and exporting collected answers.
package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/mailstudy/mailstudy/internal/client"
)

var (
	serverURL   string
	participant string
)

var rootCmd = &cobra.Command{
	Use:   "mailstudyctl",
	Short: "Operator CLI for the MailStudy backend",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", envOr("MAILSTUDY_SERVER", "http://localhost:8000"), "backend base URL")
	rootCmd.PersistentFlags().StringVar(&participant, "participant", "", "participant id")

	rootCmd.AddCommand(emailsCmd)
	rootCmd.AddCommand(answeredCmd)
	rootCmd.AddCommand(gradeCmd)
	rootCmd.AddCommand(solutionsCmd)
	rootCmd.AddCommand(exportCmd)
}

func newClient() *client.Client {
	return client.New(client.Config{BaseURL: serverURL, Timeout: 30 * time.Second})
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
