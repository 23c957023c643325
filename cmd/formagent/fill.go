package main

import (
	"errors"
	"fmt"
	"io"
	"time"

	"form-agent/internal/application/port/input"
	"form-agent/internal/di"

	"github.com/spf13/cobra"
)

var errNoCompletion = errors.New("no submission completed")

func newFillCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fill",
		Short: "Fill and submit a form one or more times",
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return a.bindFlags(cmd, map[string]string{
				"form-url":       "form.url",
				"headless":       "browser.headless",
				"submissions":    "run.submissions",
				"delay":          "run.delay",
				"screenshot-dir": "run.screenshot_dir",
				"records":        "run.records",
				"store":          "store.path",
			})
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.cfg.Validate(true); err != nil {
				return err
			}
			ctx := cmd.Context()

			c, err := di.NewContainer(ctx, a.cfg, di.WithLogger(a.log))
			if err != nil {
				return err
			}
			defer func() {
				if err := c.Close(); err != nil {
					a.log.Warn("Shutdown incomplete", "error", err)
				}
			}()

			a.log.Info("Starting form filling",
				"url", a.cfg.Form.URL,
				"submissions", a.cfg.Run.Submissions,
				"headless", a.cfg.Browser.Headless,
			)
			summary, err := c.Runner.Run(ctx, a.cfg.Form.URL, a.cfg.Run.Submissions)
			if summary != nil {
				printSummary(cmd.OutOrStdout(), summary)
			}
			if err != nil {
				return err
			}
			if !summary.Succeeded() {
				return errNoCompletion
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.String("form-url", "", "URL of the form to fill")
	f.Bool("headless", true, "run the browser without a window (--headless=false to watch)")
	f.Int("submissions", 1, "number of times to fill the form")
	f.Duration("delay", 5*time.Second, "minimum delay between submissions")
	f.String("screenshot-dir", "screenshots", "where final screenshots go")
	f.String("records", "", "JSONL file for question/answer records")
	f.String("store", "", "sqlite file for run history")
	return cmd
}

func printSummary(w io.Writer, s *input.SubmissionSummary) {
	fmt.Fprintf(w, "Submissions: %d/%d completed\n", s.Completed, s.Attempts)
	for i, res := range s.Results {
		status := "completed"
		if !res.Completed {
			status = "failed"
			if res.Err != nil {
				status += ": " + res.Err.Error()
			}
		}
		fmt.Fprintf(w, "  #%d %s answered=%d failed=%d skipped=%d pages=%d %s\n",
			i+1, res.RunID,
			res.Stats.QuestionsAnswered, res.Stats.QuestionsFailed, res.Stats.QuestionsSkipped, res.Stats.PagesProcessed,
			status)
	}
}
