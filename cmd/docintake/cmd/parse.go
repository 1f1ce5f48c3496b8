package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/docintake/docintake-backend/internal/docextract/parser"
)

func newParseCommand(_ *app) *cobra.Command {
	return &cobra.Command{
		Use:   "parse <text-file|->",
		Short: "Extract identity fields from recognized text",
		Long: `Runs the field extractor on already recognized text and prints the
identity record as JSON. Use - to read from stdin.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}

			record := parser.Parse(string(text))
			return writeJSON(cmd.OutOrStdout(), record)
		},
	}
}

func readInput(cmd *cobra.Command, name string) ([]byte, error) {
	if name == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return data, nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
