package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"onlevel/internal/interview"
	"onlevel/internal/model"
	"onlevel/internal/repository"
)

func newInterviewsCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "interviews",
		Short: "List and import interviews",
	}
	cmd.AddCommand(newInterviewsListCommand(ctx))
	cmd.AddCommand(newInterviewsImportCommand(ctx))
	return cmd
}

func newInterviewsListCommand(ctx *commandContext) *cobra.Command {
	var userID string
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List a user's interviews, or the latest finalized ones",
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := ctx.open()
			if err != nil {
				return err
			}
			var interviews []model.Interview
			if userID != "" {
				interviews, err = repo.ListInterviewsByUser(cmd.Context(), userID)
			} else {
				interviews, err = repo.ListLatestInterviews(cmd.Context(), "", limit)
			}
			if err != nil {
				return err
			}
			if len(interviews) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No interviews found")
				return nil
			}

			rows := make([][]string, 0, len(interviews))
			for _, iv := range interviews {
				rows = append(rows, []string{
					iv.ID,
					iv.Role,
					iv.Level,
					iv.Type,
					strings.Join(iv.TechStack, ", "),
					strconv.Itoa(len(iv.Questions)),
					strconv.FormatBool(iv.Finalized),
					iv.CreatedAt.Local().Format("2006-01-02 15:04"),
				})
			}
			headers := []string{"ID", "Role", "Level", "Type", "Tech Stack", "Questions", "Finalized", "Created"}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(headers, rows, 6))
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "Only list interviews created by this user")
	cmd.Flags().IntVar(&limit, "limit", repository.DefaultLatestLimit, "Maximum interviews without --user")
	return cmd
}

// seedFile is the YAML layout accepted by "interviews import".
type seedFile struct {
	Interviews []seedInterview `yaml:"interviews"`
}

type seedInterview struct {
	ID         string   `yaml:"id"`
	UserID     string   `yaml:"userId"`
	Role       string   `yaml:"role"`
	Level      string   `yaml:"level"`
	Type       string   `yaml:"type"`
	TechStack  []string `yaml:"techstack"`
	Questions  []string `yaml:"questions"`
	Finalized  *bool    `yaml:"finalized"`
	CoverImage string   `yaml:"coverImage"`
}

func newInterviewsImportCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Import interviews from a YAML seed file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read seed file: %w", err)
			}
			var seed seedFile
			if err := yaml.Unmarshal(raw, &seed); err != nil {
				return fmt.Errorf("parse seed file: %w", err)
			}
			for i, s := range seed.Interviews {
				if s.UserID == "" || s.Role == "" || len(s.Questions) == 0 {
					return fmt.Errorf("interview %d: userId, role and questions are required", i+1)
				}
			}

			repo, err := ctx.open()
			if err != nil {
				return err
			}
			svc := interview.NewService(repo, nil, nil, nil)
			for _, s := range seed.Interviews {
				finalized := true
				if s.Finalized != nil {
					finalized = *s.Finalized
				}
				iv := &model.Interview{
					ID:         s.ID,
					UserID:     s.UserID,
					Role:       s.Role,
					Level:      s.Level,
					Type:       s.Type,
					TechStack:  s.TechStack,
					Questions:  s.Questions,
					Finalized:  finalized,
					CoverImage: s.CoverImage,
				}
				if err := svc.Create(cmd.Context(), iv); err != nil {
					return fmt.Errorf("import %q: %w", s.Role, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %s (%s)\n", iv.ID, iv.Role)
			}
			return nil
		},
	}
}
