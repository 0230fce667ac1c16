package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/mailstudy/mailstudy/internal/grading"
	"github.com/mailstudy/mailstudy/internal/session"
)

var gradeCmd = &cobra.Command{
	Use:   "grade <email-id> <answers.json>",
	Short: "Run one training-mode submission and print verdicts",
	Long: `Opens the email in a training session, applies the answers from the
JSON file (question id to value) and submits once. Hidden questions are
skipped and unkeyed questions stay ungraded, exactly as in the web UI.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		emailID, answersPath := args[0], args[1]
		if participant == "" {
			return fmt.Errorf("--participant is required")
		}

		raw, err := os.ReadFile(answersPath)
		if err != nil {
			return err
		}
		var answers map[string]string
		if err := json.Unmarshal(raw, &answers); err != nil {
			return fmt.Errorf("parse %s: %w", answersPath, err)
		}

		ctx := cmd.Context()
		s := session.New(newClient(), session.ModeTraining, participant)
		if err := s.Refresh(ctx); err != nil {
			return fmt.Errorf("refresh: %w", err)
		}
		if err := s.Open(ctx, emailID); err != nil {
			return fmt.Errorf("open %s: %w", emailID, err)
		}
		for q, v := range answers {
			if err := s.SetAnswer(q, v); err != nil {
				return err
			}
		}

		res, err := s.Submit(ctx)
		if err != nil {
			return fmt.Errorf("submit: %w", err)
		}

		ids := make([]string, 0, len(res.PerQuestion))
		for id := range res.PerQuestion {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			r := res.PerQuestion[id]
			switch r.Verdict {
			case grading.Correct:
				fmt.Printf("%-12s correct\n", id)
			case grading.Incorrect:
				fmt.Printf("%-12s incorrect (expected: %s)\n", id, r.Expected)
			default:
				fmt.Printf("%-12s ungraded\n", id)
			}
		}
		p := s.Progress()
		fmt.Printf("score %d/%d, progress %d%% (%d of %d answered)\n",
			res.CorrectCount, res.Total, p.Percent, p.Answered, p.Total)
		return nil
	},
}
