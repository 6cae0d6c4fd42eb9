package main

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var showSessionCmd = &cobra.Command{
	Use:   "show-session",
	Short: "Show a session, its evaluations and its consensus result",
	RunE:  runShowSession,
}

var showSession string

func init() {
	showSessionCmd.Flags().StringVarP(&showSession, "session", "s", "", "Session UUID (required)")
	showSessionCmd.MarkFlagRequired("session")

	rootCmd.AddCommand(showSessionCmd)
}

func runShowSession(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	application, err := newApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer application.close()

	sessionID, err := uuid.Parse(showSession)
	if err != nil {
		return fmt.Errorf("invalid session UUID: %w", err)
	}

	current, err := application.engine.GetSession(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("failed to load session: %w", err)
	}
	application.printer.PrintSession(current)

	evals, err := application.engine.Evaluations(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("failed to list evaluations: %w", err)
	}
	fmt.Fprintf(os.Stdout, "Evaluations submitted: %d of %d\n", len(evals), len(current.Participants))
	for _, eval := range evals {
		fmt.Fprintf(os.Stdout, "  %s: overall %.2f, %s (confidence %.2f)\n",
			eval.ParticipantID, eval.OverallScore(), eval.Recommendation, eval.Confidence)
	}

	result, err := application.engine.ConsensusResult(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("failed to load consensus result: %w", err)
	}
	if result != nil {
		application.printer.PrintConsensusResult(result)
	}
	return nil
}
