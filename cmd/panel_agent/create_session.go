package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jonathan/hiring-panel/internal/types"
)

var createSessionCmd = &cobra.Command{
	Use:   "create-session",
	Short: "Create a multi-reviewer evaluation session",
	Long:  "Create an evaluation session with a fixed reviewer roster. The session opens immediately and accepts evaluations until consensus is requested or it is cancelled.",
	RunE:  runCreateSession,
}

var (
	createCandidate    string
	createJob          string
	createType         string
	createMethod       string
	createImpact       string
	createParticipants []string
)

func init() {
	createSessionCmd.Flags().StringVar(&createCandidate, "candidate", "", "Candidate UUID (required)")
	createSessionCmd.Flags().StringVar(&createJob, "job", "", "Job UUID (required)")
	createSessionCmd.Flags().StringVarP(&createType, "type", "t", "panel_review", "Session type (technical_interview, behavioral_interview, panel_review, final_decision)")
	createSessionCmd.Flags().StringVarP(&createMethod, "method", "m", "weighted_average", "Consensus method (weighted_average, majority_vote, delphi_method)")
	createSessionCmd.Flags().StringVar(&createImpact, "impact", "", "Decision impact (low, medium, high, critical; defaults to medium)")
	createSessionCmd.Flags().StringArrayVarP(&createParticipants, "participant", "p", nil, "Participant as uuid:role[:weight], repeatable (at least two required)")

	createSessionCmd.MarkFlagRequired("candidate")
	createSessionCmd.MarkFlagRequired("job")
	createSessionCmd.MarkFlagRequired("participant")

	rootCmd.AddCommand(createSessionCmd)
}

func runCreateSession(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	application, err := newApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer application.close()

	candidateID, err := uuid.Parse(createCandidate)
	if err != nil {
		return fmt.Errorf("invalid candidate UUID: %w", err)
	}
	jobID, err := uuid.Parse(createJob)
	if err != nil {
		return fmt.Errorf("invalid job UUID: %w", err)
	}
	participants, err := parseParticipants(createParticipants)
	if err != nil {
		return err
	}

	created, err := application.engine.CreateSession(ctx, &types.CreateSessionRequest{
		CandidateID:     candidateID,
		JobID:           jobID,
		SessionType:     createType,
		Participants:    participants,
		ConsensusMethod: types.ConsensusMethod(createMethod),
		DecisionImpact:  types.DecisionImpact(createImpact),
	})
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	if application.cfg.Verbose {
		application.printer.PrintSession(created)
	}
	fmt.Fprintf(os.Stdout, "Created session %s (deadline %s)\n",
		created.ID, created.DeadlineAt.Format("2006-01-02 15:04 MST"))
	return nil
}

// parseParticipants parses repeated uuid:role[:weight] specs.
func parseParticipants(specs []string) ([]types.ParticipantInput, error) {
	participants := make([]types.ParticipantInput, 0, len(specs))
	for _, spec := range specs {
		parts := strings.Split(spec, ":")
		if len(parts) < 2 || len(parts) > 3 {
			return nil, fmt.Errorf("invalid participant %q, expected uuid:role[:weight]", spec)
		}
		id, err := uuid.Parse(parts[0])
		if err != nil {
			return nil, fmt.Errorf("invalid participant UUID in %q: %w", spec, err)
		}
		input := types.ParticipantInput{ID: id, Role: parts[1]}
		if len(parts) == 3 {
			weight, err := strconv.ParseFloat(parts[2], 64)
			if err != nil {
				return nil, fmt.Errorf("invalid participant weight in %q: %w", spec, err)
			}
			input.Weight = weight
		}
		participants = append(participants, input)
	}
	return participants, nil
}
