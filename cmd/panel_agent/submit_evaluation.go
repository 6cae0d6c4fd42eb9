package main

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jonathan/hiring-panel/internal/types"
)

var submitEvaluationCmd = &cobra.Command{
	Use:   "submit-evaluation",
	Short: "Submit or overwrite a participant's evaluation",
	Long:  "Submit an evaluation for a roster participant. Resubmitting before consensus overwrites the previous evaluation; only the latest per participant counts.",
	RunE:  runSubmitEvaluation,
}

var (
	submitSession        string
	submitParticipant    string
	submitScores         []string
	submitRecommendation string
	submitConfidence     float64
	submitComments       string
	submitExtensions     []string
)

func init() {
	submitEvaluationCmd.Flags().StringVarP(&submitSession, "session", "s", "", "Session UUID (required)")
	submitEvaluationCmd.Flags().StringVarP(&submitParticipant, "participant", "p", "", "Participant UUID (required)")
	submitEvaluationCmd.Flags().StringArrayVar(&submitScores, "score", nil, "Criterion score as criterion=value in [0,100], repeatable (required)")
	submitEvaluationCmd.Flags().StringVarP(&submitRecommendation, "recommendation", "r", "", "Recommendation (hire, reject, further_review; required)")
	submitEvaluationCmd.Flags().Float64Var(&submitConfidence, "confidence", 1.0, "Reviewer confidence in [0,1]")
	submitEvaluationCmd.Flags().StringVar(&submitComments, "comments", "", "Free-text comments")
	submitEvaluationCmd.Flags().StringArrayVar(&submitExtensions, "extension", nil, "Extension field as key=value, repeatable")

	submitEvaluationCmd.MarkFlagRequired("session")
	submitEvaluationCmd.MarkFlagRequired("participant")
	submitEvaluationCmd.MarkFlagRequired("score")
	submitEvaluationCmd.MarkFlagRequired("recommendation")

	rootCmd.AddCommand(submitEvaluationCmd)
}

func runSubmitEvaluation(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	application, err := newApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer application.close()

	sessionID, err := uuid.Parse(submitSession)
	if err != nil {
		return fmt.Errorf("invalid session UUID: %w", err)
	}
	participantID, err := uuid.Parse(submitParticipant)
	if err != nil {
		return fmt.Errorf("invalid participant UUID: %w", err)
	}
	scores, err := parseScores(submitScores)
	if err != nil {
		return err
	}
	extensions, err := parseExtensions(submitExtensions)
	if err != nil {
		return err
	}

	req := &types.SubmitEvaluationRequest{
		Scores:         scores,
		Recommendation: types.Recommendation(submitRecommendation),
		Comments:       submitComments,
		Extensions:     extensions,
	}
	if cmd.Flags().Changed("confidence") {
		req.Confidence = &submitConfidence
	}

	eval, err := application.engine.SubmitEvaluation(ctx, sessionID, participantID, req)
	if err != nil {
		return fmt.Errorf("failed to submit evaluation: %w", err)
	}

	fmt.Fprintf(os.Stdout, "Recorded evaluation by %s (overall %.2f, recommendation %s)\n",
		eval.ParticipantID, eval.OverallScore(), eval.Recommendation)
	if eval.BiasAnnotation != nil && len(eval.BiasAnnotation.FlaggedTerms) > 0 {
		fmt.Fprintf(os.Stdout, "Warning: comments flagged for biased language: %v\n",
			eval.BiasAnnotation.FlaggedTerms)
	}
	return nil
}
