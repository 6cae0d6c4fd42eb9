package main

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jonathan/hiring-panel/internal/types"
)

var resolveEscalationCmd = &cobra.Command{
	Use:   "resolve-escalation",
	Short: "Record the human decision closing an escalated session",
	Long:  "Resolve an escalated session with an explicit human recommendation. The session moves to decided and the stored consensus result carries the signed-off recommendation.",
	RunE:  runResolveEscalation,
}

var (
	resolveSession        string
	resolveActor          string
	resolveRecommendation string
)

func init() {
	resolveEscalationCmd.Flags().StringVarP(&resolveSession, "session", "s", "", "Session UUID (required)")
	resolveEscalationCmd.Flags().StringVar(&resolveActor, "actor", "", "Deciding reviewer, recorded in the audit trail (required)")
	resolveEscalationCmd.Flags().StringVarP(&resolveRecommendation, "recommendation", "r", "", "Final recommendation (hire, reject, further_review; required)")

	resolveEscalationCmd.MarkFlagRequired("session")
	resolveEscalationCmd.MarkFlagRequired("actor")
	resolveEscalationCmd.MarkFlagRequired("recommendation")

	rootCmd.AddCommand(resolveEscalationCmd)
}

func runResolveEscalation(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	application, err := newApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer application.close()

	sessionID, err := uuid.Parse(resolveSession)
	if err != nil {
		return fmt.Errorf("invalid session UUID: %w", err)
	}

	if err := application.engine.ResolveEscalation(ctx, sessionID, resolveActor, types.Recommendation(resolveRecommendation)); err != nil {
		return fmt.Errorf("failed to resolve escalation: %w", err)
	}

	fmt.Fprintf(os.Stdout, "Resolved escalated session %s as %s\n", sessionID, resolveRecommendation)
	return nil
}
