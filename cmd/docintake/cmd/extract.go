package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/docintake/docintake-backend/internal/docextract/domain"
	"github.com/docintake/docintake-backend/internal/docextract/processor"
	"github.com/docintake/docintake-backend/internal/docextract/service"
)

type extractOutput struct {
	*domain.ProcessingOutcome
	Errors  []string `json:"errors,omitempty"`
	RawText string   `json:"raw_text,omitempty"`
}

func newExtractCommand(a *app) *cobra.Command {
	var (
		kindHint string
		showRaw  bool
	)

	cmd := &cobra.Command{
		Use:   "extract <file>",
		Short: "Run the configured recognition backends on a document",
		Long: `Runs the backend orchestrator on an image or PDF with the configured
backends and prints the outcome as JSON. Nothing is stored.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}

			kind, ok := processor.DetectKind(data, args[0])
			if kindHint != "" {
				kind = domain.DocumentKind(kindHint)
				ok = kind.Valid()
			}
			if !ok {
				return fmt.Errorf("cannot determine document kind of %s, use --type", args[0])
			}

			registry := processor.NewDefaultRegistry(a.cfg.Extraction, processor.NewExecRunner(a.log), a.log)
			orchestrator := service.NewOrchestrator(registry, a.log)

			outcome := orchestrator.Extract(cmd.Context(), domain.ExtractionRequest{
				Data:     data,
				Kind:     kind,
				UserID:   "cli",
				FileName: filepath.Base(args[0]),
			})

			out := extractOutput{ProcessingOutcome: outcome}
			for _, attempt := range outcome.Attempts {
				if msg := attempt.ErrorString(); msg != "" {
					out.Errors = append(out.Errors, msg)
				}
			}
			if showRaw {
				out.RawText = outcome.RawText
			}
			return writeJSON(cmd.OutOrStdout(), out)
		},
	}

	cmd.Flags().StringVar(&kindHint, "type", "", "document kind (image or pdf), detected from content by default")
	cmd.Flags().BoolVar(&showRaw, "raw", false, "include the recognized text in the output")
	return cmd
}
