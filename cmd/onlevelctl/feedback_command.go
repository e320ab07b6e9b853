package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"onlevel/internal/repository"
)

func newFeedbackCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "feedback",
		Short: "Inspect stored feedback",
	}
	cmd.AddCommand(newFeedbackShowCommand(ctx))
	return cmd
}

func newFeedbackShowCommand(ctx *commandContext) *cobra.Command {
	var userID string

	cmd := &cobra.Command{
		Use:   "show INTERVIEW_ID",
		Short: "Show a user's feedback for an interview",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := ctx.open()
			if err != nil {
				return err
			}
			fb, err := repo.GetFeedbackByInterview(cmd.Context(), args[0], userID)
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("no feedback for interview %s and user %s", args[0], userID)
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Feedback %s (interview %s)\n", fb.ID, fb.InterviewID)
			fmt.Fprintf(out, "Total score: %d/100\n\n", fb.TotalScore)

			rows := make([][]string, 0, len(fb.CategoryScores))
			for _, cs := range fb.CategoryScores {
				rows = append(rows, []string{cs.Name, strconv.Itoa(cs.Score), cs.Comment})
			}
			fmt.Fprintln(out, renderTable([]string{"Category", "Score", "Comment"}, rows, 2))

			if len(fb.Strengths) > 0 {
				fmt.Fprintf(out, "\nStrengths:\n- %s\n", strings.Join(fb.Strengths, "\n- "))
			}
			if len(fb.AreasForImprovement) > 0 {
				fmt.Fprintf(out, "\nAreas for improvement:\n- %s\n", strings.Join(fb.AreasForImprovement, "\n- "))
			}
			if fb.FinalAssessment != "" {
				fmt.Fprintf(out, "\nFinal assessment:\n%s\n", fb.FinalAssessment)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "User the feedback belongs to")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
