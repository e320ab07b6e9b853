package main

import (
	"os"

	"github.com/spf13/cobra"

	"onlevel/internal/repository"
)

type commandContext struct {
	dbPath string
	repo   repository.Repository
}

// open lazily opens the database named by --db.
func (c *commandContext) open() (repository.Repository, error) {
	if c.repo != nil {
		return c.repo, nil
	}
	repo, err := repository.OpenSQLite(c.dbPath)
	if err != nil {
		return nil, err
	}
	c.repo = repo
	return repo, nil
}

func (c *commandContext) close() {
	if c.repo != nil {
		_ = c.repo.Close()
		c.repo = nil
	}
}

func newRootCommand() *cobra.Command {
	ctx := &commandContext{}

	rootCmd := &cobra.Command{
		Use:           "onlevelctl",
		Short:         "Administer OnLevel interviews and feedback",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			ctx.close()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	defaultDB := os.Getenv("DATABASE_PATH")
	if defaultDB == "" {
		defaultDB = "data/onlevel.db"
	}
	rootCmd.PersistentFlags().StringVar(&ctx.dbPath, "db", defaultDB, "Path to the OnLevel SQLite database")

	rootCmd.AddCommand(newInterviewsCommand(ctx))
	rootCmd.AddCommand(newFeedbackCommand(ctx))
	return rootCmd
}
