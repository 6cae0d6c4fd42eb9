package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonathan/hiring-panel/internal/store"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Query the append-only audit trail",
	Long:  "List audit entries filtered by resource, actor, action or time window, in append order.",
	RunE:  runAuditQuery,
}

var (
	auditResource string
	auditActor    string
	auditAction   string
	auditFrom     string
	auditTo       string
)

func init() {
	auditCmd.Flags().StringVar(&auditResource, "resource", "", "Filter by resource, e.g. session/<uuid>")
	auditCmd.Flags().StringVar(&auditActor, "actor", "", "Filter by actor")
	auditCmd.Flags().StringVar(&auditAction, "action", "", "Filter by action, e.g. session.decided")
	auditCmd.Flags().StringVar(&auditFrom, "from", "", "Only entries recorded at or after this RFC 3339 timestamp")
	auditCmd.Flags().StringVar(&auditTo, "to", "", "Only entries recorded at or before this RFC 3339 timestamp")

	rootCmd.AddCommand(auditCmd)
}

func runAuditQuery(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	application, err := newApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer application.close()

	filter := store.AuditFilter{
		Resource: auditResource,
		Actor:    auditActor,
		Action:   auditAction,
	}
	if auditFrom != "" {
		from, err := time.Parse(time.RFC3339, auditFrom)
		if err != nil {
			return fmt.Errorf("invalid --from timestamp: %w", err)
		}
		filter.From = from
	}
	if auditTo != "" {
		to, err := time.Parse(time.RFC3339, auditTo)
		if err != nil {
			return fmt.Errorf("invalid --to timestamp: %w", err)
		}
		filter.To = to
	}

	entries, err := application.ledger.Entries(ctx, filter)
	if err != nil {
		return fmt.Errorf("failed to query audit trail: %w", err)
	}

	for _, entry := range entries {
		changes := ""
		if len(entry.Changes) > 0 {
			raw, err := json.Marshal(entry.Changes)
			if err == nil {
				changes = " " + string(raw)
			}
		}
		fmt.Fprintf(os.Stdout, "%s  %s  %-28s %s by %s%s\n",
			entry.ID, entry.RecordedAt.Format(time.RFC3339), entry.Action,
			entry.Resource, entry.Actor, changes)
	}
	fmt.Fprintf(os.Stdout, "%d entries\n", len(entries))
	return nil
}
