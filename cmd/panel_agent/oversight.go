package main

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jonathan/hiring-panel/internal/types"
)

var oversightCmd = &cobra.Command{
	Use:   "oversight",
	Short: "Manage human oversight requests",
	Long:  "Create oversight requests, assign qualified reviewers, record reviewer verdicts and apply deadline escalations.",
}

var oversightCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Open an oversight request for a decision",
	RunE:  runOversightCreate,
}

var oversightAssignCmd = &cobra.Command{
	Use:   "assign",
	Short: "Assign reviewers to a request after qualification checks",
	Long:  "Verify each candidate reviewer against the required qualifications and assign those that pass. Unverifiable reviewers are rejected, never assigned.",
	RunE:  runOversightAssign,
}

var oversightDecideCmd = &cobra.Command{
	Use:   "decide",
	Short: "Record an assigned reviewer's verdict",
	RunE:  runOversightDecide,
}

var oversightEscalateCmd = &cobra.Command{
	Use:   "escalate",
	Short: "Apply the deadline-breach escalation if it is due",
	RunE:  runOversightEscalate,
}

var oversightShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show an oversight request",
	RunE:  runOversightShow,
}

var (
	oversightDecision  string
	oversightScenario  string
	oversightImpact    string
	oversightRequest   string
	oversightReviewers []string
	oversightReviewer  string
	oversightVerdict   string
	oversightComments  string
)

func init() {
	oversightCreateCmd.Flags().StringVar(&oversightDecision, "decision", "", "Decision UUID under review (required)")
	oversightCreateCmd.Flags().StringVar(&oversightScenario, "scenario", "", "Decision scenario (required)")
	oversightCreateCmd.Flags().StringVar(&oversightImpact, "impact", "medium", "Decision impact (low, medium, high, critical)")
	oversightCreateCmd.MarkFlagRequired("decision")
	oversightCreateCmd.MarkFlagRequired("scenario")

	oversightAssignCmd.Flags().StringVar(&oversightRequest, "request", "", "Oversight request UUID (required)")
	oversightAssignCmd.Flags().StringArrayVar(&oversightReviewers, "reviewer", nil, "Candidate reviewer UUID, repeatable (required)")
	oversightAssignCmd.MarkFlagRequired("request")
	oversightAssignCmd.MarkFlagRequired("reviewer")

	oversightDecideCmd.Flags().StringVar(&oversightRequest, "request", "", "Oversight request UUID (required)")
	oversightDecideCmd.Flags().StringVar(&oversightReviewer, "reviewer", "", "Assigned reviewer UUID (required)")
	oversightDecideCmd.Flags().StringVar(&oversightVerdict, "verdict", "", "Verdict (hire, reject, further_review; required)")
	oversightDecideCmd.Flags().StringVar(&oversightComments, "comments", "", "Reviewer comments")
	oversightDecideCmd.MarkFlagRequired("request")
	oversightDecideCmd.MarkFlagRequired("reviewer")
	oversightDecideCmd.MarkFlagRequired("verdict")

	oversightEscalateCmd.Flags().StringVar(&oversightRequest, "request", "", "Oversight request UUID (required)")
	oversightEscalateCmd.MarkFlagRequired("request")

	oversightShowCmd.Flags().StringVar(&oversightRequest, "request", "", "Oversight request UUID (required)")
	oversightShowCmd.MarkFlagRequired("request")

	oversightCmd.AddCommand(oversightCreateCmd, oversightAssignCmd, oversightDecideCmd, oversightEscalateCmd, oversightShowCmd)
	rootCmd.AddCommand(oversightCmd)
}

func runOversightCreate(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	application, err := newApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer application.close()

	decisionID, err := uuid.Parse(oversightDecision)
	if err != nil {
		return fmt.Errorf("invalid decision UUID: %w", err)
	}

	req, err := application.gate.CreateRequest(ctx, decisionID, oversightScenario, types.DecisionImpact(oversightImpact))
	if err != nil {
		return fmt.Errorf("failed to create oversight request: %w", err)
	}

	fmt.Fprintf(os.Stdout, "Created oversight request %s (escalation deadline %s)\n",
		req.ID, req.Timeline.EscalationDeadline.Format("2006-01-02 15:04 MST"))
	return nil
}

func runOversightAssign(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	application, err := newApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer application.close()

	requestID, err := uuid.Parse(oversightRequest)
	if err != nil {
		return fmt.Errorf("invalid request UUID: %w", err)
	}
	candidates, err := parseUUIDs(oversightReviewers)
	if err != nil {
		return err
	}

	result, err := application.gate.AssignReviewers(ctx, requestID, candidates)
	if result != nil {
		for _, id := range result.Assigned {
			fmt.Fprintf(os.Stdout, "Assigned %s\n", id)
		}
		for _, rejected := range result.Rejected {
			fmt.Fprintf(os.Stdout, "Rejected %s: %s\n", rejected.ReviewerID, rejected.Reason)
		}
	}
	if err != nil {
		return fmt.Errorf("failed to assign reviewers: %w", err)
	}
	return nil
}

func runOversightDecide(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	application, err := newApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer application.close()

	requestID, err := uuid.Parse(oversightRequest)
	if err != nil {
		return fmt.Errorf("invalid request UUID: %w", err)
	}
	reviewerID, err := uuid.Parse(oversightReviewer)
	if err != nil {
		return fmt.Errorf("invalid reviewer UUID: %w", err)
	}

	req, err := application.gate.SubmitDecision(ctx, requestID, reviewerID, types.Recommendation(oversightVerdict), oversightComments)
	if err != nil {
		return fmt.Errorf("failed to submit decision: %w", err)
	}

	if req.Status == types.OversightCompleted {
		fmt.Fprintf(os.Stdout, "Request %s completed with final decision %s\n", req.ID, req.FinalDecision)
	} else {
		fmt.Fprintf(os.Stdout, "Recorded verdict, %d of %d responses in\n", len(req.Responses), req.RequiredReviewers)
	}
	return nil
}

func runOversightEscalate(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	application, err := newApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer application.close()

	requestID, err := uuid.Parse(oversightRequest)
	if err != nil {
		return fmt.Errorf("invalid request UUID: %w", err)
	}

	if err := application.gate.HandleEscalation(ctx, requestID); err != nil {
		return fmt.Errorf("failed to escalate: %w", err)
	}

	req, err := application.gate.GetRequest(ctx, requestID)
	if err != nil {
		return fmt.Errorf("failed to reload request: %w", err)
	}
	fmt.Fprintf(os.Stdout, "Request %s is %s\n", req.ID, req.Status)
	return nil
}

func runOversightShow(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	application, err := newApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer application.close()

	requestID, err := uuid.Parse(oversightRequest)
	if err != nil {
		return fmt.Errorf("invalid request UUID: %w", err)
	}

	req, err := application.gate.GetRequest(ctx, requestID)
	if err != nil {
		return fmt.Errorf("failed to load request: %w", err)
	}
	application.printer.PrintOversightRequest(req)
	return nil
}
