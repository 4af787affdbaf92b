package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newRiskCmd(client *Client) *cobra.Command {
	var snapshotID string
	cmd := &cobra.Command{
		Use:   "risk",
		Short: "Risk posture reports",
	}
	cmd.PersistentFlags().StringVar(&snapshotID, "snapshot", "", "Snapshot to query (default: latest completed)")

	summary := &cobra.Command{
		Use:   "summary <cluster-id>",
		Short: "Cluster-wide risk summary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp RiskSummary
			if err := client.Get("/clusters/"+args[0]+"/risk-summary", snapshotValues(snapshotID), &resp); err != nil {
				return err
			}
			if getOutputFormat(cmd) == "json" {
				return printJSON(cmd.OutOrStdout(), resp)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Findings: %d high, %d medium, %d low\n",
				resp.HighCount, resp.MediumCount, resp.LowCount)
			fmt.Fprintf(out, "Users with risks (%d/%d): %s\n",
				len(resp.UsersWithRisks), resp.TotalUsers, dash(strings.Join(resp.UsersWithRisks, ", ")))
			fmt.Fprintf(out, "Orphan roles (%d/%d): %s\n",
				len(resp.OrphanRoles), resp.TotalRoles, dash(strings.Join(resp.OrphanRoles, ", ")))
			return nil
		},
	}

	cmd.AddCommand(summary)
	return cmd
}

func newAuditCmd(client *Client) *cobra.Command {
	return &cobra.Command{
		Use:   "audit",
		Short: "Show the audit log, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var resp auditList
			if err := client.Get("/audit", nil, &resp); err != nil {
				return err
			}
			if getOutputFormat(cmd) == "json" {
				return printJSON(cmd.OutOrStdout(), resp)
			}
			rows := make([][]string, 0, len(resp.Entries))
			for _, e := range resp.Entries {
				rows = append(rows, []string{
					e.CreatedAt.Format("2006-01-02 15:04:05"),
					dash(e.PrincipalName),
					e.Action,
					e.Detail,
				})
			}
			printTable(cmd.OutOrStdout(), []string{"TIME", "PRINCIPAL", "ACTION", "DETAIL"}, rows)
			return nil
		},
	}
}
