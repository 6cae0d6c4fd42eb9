package main

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jonathan/hiring-panel/internal/store"
	"github.com/jonathan/hiring-panel/internal/types"
)

var violationsCmd = &cobra.Command{
	Use:   "violations",
	Short: "List and resolve ethical violation records",
}

var violationsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List violation records",
	RunE:  runViolationsList,
}

var violationsResolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Mark a violation as resolved",
	Long:  "Stamp a violation with its resolution and preventive measures. Resolving an already resolved violation is a no-op.",
	RunE:  runViolationsResolve,
}

var (
	violationSeverity   string
	violationEntity     string
	violationSince      string
	violationID         string
	violationResolution string
	violationMeasures   []string
)

func init() {
	violationsListCmd.Flags().StringVar(&violationSeverity, "severity", "", "Filter by severity (low, medium, high, critical)")
	violationsListCmd.Flags().StringVar(&violationEntity, "entity", "", "Filter by affected entity, e.g. session/<uuid>")
	violationsListCmd.Flags().StringVar(&violationSince, "since", "", "Only violations detected at or after this RFC 3339 timestamp")

	violationsResolveCmd.Flags().StringVar(&violationID, "id", "", "Violation UUID (required)")
	violationsResolveCmd.Flags().StringVar(&violationResolution, "resolution", "", "Resolution description (required)")
	violationsResolveCmd.Flags().StringArrayVar(&violationMeasures, "measure", nil, "Preventive measure, repeatable")
	violationsResolveCmd.MarkFlagRequired("id")
	violationsResolveCmd.MarkFlagRequired("resolution")

	violationsCmd.AddCommand(violationsListCmd, violationsResolveCmd)
	rootCmd.AddCommand(violationsCmd)
}

func runViolationsList(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	application, err := newApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer application.close()

	filter := store.ViolationFilter{
		Severity: types.Severity(violationSeverity),
		Entity:   violationEntity,
	}
	if violationSince != "" {
		from, err := time.Parse(time.RFC3339, violationSince)
		if err != nil {
			return fmt.Errorf("invalid --since timestamp: %w", err)
		}
		filter.From = from
	}

	records, err := application.ledger.Violations(ctx, filter)
	if err != nil {
		return fmt.Errorf("failed to list violations: %w", err)
	}
	application.printer.PrintViolations(records)
	return nil
}

func runViolationsResolve(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	application, err := newApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer application.close()

	id, err := uuid.Parse(violationID)
	if err != nil {
		return fmt.Errorf("invalid violation UUID: %w", err)
	}

	record, err := application.ledger.ResolveViolation(ctx, id, violationResolution, violationMeasures)
	if err != nil {
		return fmt.Errorf("failed to resolve violation: %w", err)
	}

	fmt.Fprintf(os.Stdout, "Violation %s resolved at %s\n",
		record.ID, record.ResolvedAt.Format(time.RFC3339))
	return nil
}
