package main

import (
	"fmt"

	"form-agent/internal/di"
	"form-agent/internal/infrastructure/browser/static"
	"form-agent/internal/infrastructure/recorder"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type inspectedPage struct {
	File      string                    `json:"file"`
	Questions []recorder.QuestionRecord `json:"questions"`
}

func newInspectCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <page.html>...",
		Short: "Classify saved form pages offline and print the questions as JSON",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pages := make([]inspectedPage, 0, len(args))
			for _, path := range args {
				page, err := a.inspect(cmd, path)
				if err != nil {
					return err
				}
				pages = append(pages, page)
			}

			out, err := json.MarshalIndent(pages, "", "  ")
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return err
		},
	}
}

func (a *app) inspect(cmd *cobra.Command, path string) (inspectedPage, error) {
	driver, err := static.FromFiles(path)
	if err != nil {
		return inspectedPage{}, err
	}
	defer driver.Close()

	log := a.log.WithField("file", path)
	questions, err := di.NewClassifier(driver, a.cfg, log).Extract(cmd.Context())
	if err != nil {
		return inspectedPage{}, fmt.Errorf("%s: %w", path, err)
	}

	page := inspectedPage{File: path, Questions: make([]recorder.QuestionRecord, 0, len(questions))}
	for i, q := range questions {
		page.Questions = append(page.Questions, recorder.QuestionRecord{
			ID:       q.ID,
			Text:     q.Label,
			Type:     q.Type,
			Required: q.Required,
			Number:   i + 1,
			Total:    len(questions),
			Options:  q.Options,
		})
	}
	return page, nil
}
