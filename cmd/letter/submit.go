package main

import (
	"encoding/json"
	"fmt"
	"os"

	"valentine-server/internal/submission"

	"github.com/spf13/cobra"
)

var submitAnswer bool

var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Send an answer without opening the letter",
	Long: `Send one answer to POST /api/response and print the stored record.

Exit status is non-zero when the answer could not be saved.`,
	RunE: runSubmit,
}

func init() {
	submitCmd.Flags().BoolVar(&submitAnswer, "answer", true, "the answer to record (--answer=false for no)")
}

func runSubmit(cmd *cobra.Command, _ []string) error {
	_, client, closer, err := loadClient()
	if err != nil {
		return err
	}
	defer closer.Close()

	resp, err := client.Submit(cmd.Context(), submitAnswer)
	if err != nil {
		n := submission.FailureNotice()
		fmt.Fprintf(os.Stderr, "%s %s\n", n.Title, n.Body)
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(resp)
}
