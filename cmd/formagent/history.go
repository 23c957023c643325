package main

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"form-agent/internal/infrastructure/store/sqlite"

	"github.com/spf13/cobra"
)

func newHistoryCommand(a *app) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "List recorded runs, or the answers of one run",
		Args:  cobra.MaximumNArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return a.bindFlags(cmd, map[string]string{"store": "store.path"})
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg.Store.Path == "" {
				return errors.New("store.path is not configured")
			}
			store, err := sqlite.Open(a.cfg.Store.Path)
			if err != nil {
				return err
			}
			defer store.Close()

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			defer tw.Flush()

			if len(args) == 1 {
				return printAnswers(cmd, tw, store, args[0])
			}

			runs, err := store.RecentRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			fmt.Fprintln(tw, "RUN\tSTARTED\tOUTCOME\tANSWERED\tFAILED\tSKIPPED\tPAGES\tERROR")
			for _, r := range runs {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%d\t%s\n",
					r.ID, r.StartedAt.Local().Format(time.DateTime), orDash(r.Outcome),
					r.Stats.QuestionsAnswered, r.Stats.QuestionsFailed, r.Stats.QuestionsSkipped, r.Stats.PagesProcessed,
					r.Error)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of runs to list")
	cmd.Flags().String("store", "", "sqlite file with run history")
	return cmd
}

func printAnswers(cmd *cobra.Command, tw *tabwriter.Writer, store *sqlite.Store, runID string) error {
	if _, err := store.Run(cmd.Context(), runID); err != nil {
		if sqlite.IsNotFound(err) {
			return fmt.Errorf("run %s not found", runID)
		}
		return err
	}

	answers, err := store.Answers(cmd.Context(), runID)
	if err != nil {
		return err
	}
	fmt.Fprintln(tw, "PAGE\t#\tTYPE\tQUESTION\tANSWER")
	for _, a := range answers {
		fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%s\n", a.Page, a.Number, a.QuestionType, a.QuestionText, answerText(a))
	}
	return nil
}

func answerText(a sqlite.AnswerRow) string {
	switch {
	case a.Answer.Text != nil:
		return *a.Answer.Text
	case a.Answer.SelectedValue != nil:
		return *a.Answer.SelectedValue
	case len(a.Answer.SelectedValues) > 0:
		return fmt.Sprint(a.Answer.SelectedValues)
	case a.Answer.SelectedIndex != nil:
		return fmt.Sprintf("option %d", *a.Answer.SelectedIndex)
	}
	return "-"
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
