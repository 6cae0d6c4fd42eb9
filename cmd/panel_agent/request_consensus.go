package main

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jonathan/hiring-panel/internal/types"
)

var requestConsensusCmd = &cobra.Command{
	Use:   "request-consensus",
	Short: "Compute consensus over the submitted evaluations",
	Long:  "Freeze the evaluation set and compute consensus with the session's method. The session ends decided, escalated to human oversight, or (for Delphi) pending a further round.",
	RunE:  runRequestConsensus,
}

var (
	consensusSession     string
	consensusFacilitator string
	consensusMethod      string
)

func init() {
	requestConsensusCmd.Flags().StringVarP(&consensusSession, "session", "s", "", "Session UUID (required)")
	requestConsensusCmd.Flags().StringVar(&consensusFacilitator, "facilitator", "", "Facilitator UUID (required)")
	requestConsensusCmd.Flags().StringVarP(&consensusMethod, "method", "m", "", "Consensus method override (defaults to the session's method)")

	requestConsensusCmd.MarkFlagRequired("session")
	requestConsensusCmd.MarkFlagRequired("facilitator")

	rootCmd.AddCommand(requestConsensusCmd)
}

func runRequestConsensus(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	application, err := newApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer application.close()

	sessionID, err := uuid.Parse(consensusSession)
	if err != nil {
		return fmt.Errorf("invalid session UUID: %w", err)
	}
	facilitatorID, err := uuid.Parse(consensusFacilitator)
	if err != nil {
		return fmt.Errorf("invalid facilitator UUID: %w", err)
	}

	result, err := application.engine.RequestConsensus(ctx, sessionID, facilitatorID, types.ConsensusMethod(consensusMethod))
	if err != nil {
		return fmt.Errorf("failed to compute consensus: %w", err)
	}

	application.printer.PrintConsensusResult(result)

	updated, err := application.engine.GetSession(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("failed to reload session: %w", err)
	}
	fmt.Fprintf(os.Stdout, "Session %s is now %s\n", sessionID, updated.State)
	return nil
}
