package main

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var cancelSessionCmd = &cobra.Command{
	Use:   "cancel-session",
	Short: "Cancel an evaluation session",
	Long:  "Cancel a session from any non-terminal state. Further submissions are rejected and no consensus will be computed; the audit trail is preserved.",
	RunE:  runCancelSession,
}

var (
	cancelSession string
	cancelActor   string
	cancelReason  string
)

func init() {
	cancelSessionCmd.Flags().StringVarP(&cancelSession, "session", "s", "", "Session UUID (required)")
	cancelSessionCmd.Flags().StringVar(&cancelActor, "actor", "system", "Actor recorded in the audit trail")
	cancelSessionCmd.Flags().StringVar(&cancelReason, "reason", "", "Cancellation reason (required)")

	cancelSessionCmd.MarkFlagRequired("session")
	cancelSessionCmd.MarkFlagRequired("reason")

	rootCmd.AddCommand(cancelSessionCmd)
}

func runCancelSession(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	application, err := newApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer application.close()

	sessionID, err := uuid.Parse(cancelSession)
	if err != nil {
		return fmt.Errorf("invalid session UUID: %w", err)
	}

	if err := application.engine.CancelSession(ctx, sessionID, cancelActor, cancelReason); err != nil {
		return fmt.Errorf("failed to cancel session: %w", err)
	}

	fmt.Fprintf(os.Stdout, "Cancelled session %s\n", sessionID)
	return nil
}
