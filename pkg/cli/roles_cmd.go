package cli

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/cobra"
)

func newRolesCmd(client *Client) *cobra.Command {
	var snapshotID string
	cmd := &cobra.Command{
		Use:   "roles",
		Short: "Explore roles, members, and inherited privileges",
	}
	cmd.PersistentFlags().StringVar(&snapshotID, "snapshot", "", "Snapshot to query (default: latest completed)")

	list := &cobra.Command{
		Use:   "list <cluster-id>",
		Short: "List roles in a snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp roleList
			if err := client.Get("/clusters/"+args[0]+"/roles", snapshotValues(snapshotID), &resp); err != nil {
				return err
			}
			if getOutputFormat(cmd) == "json" {
				return printJSON(cmd.OutOrStdout(), resp)
			}
			rows := make([][]string, 0, len(resp.Roles))
			for _, role := range resp.Roles {
				rows = append(rows, []string{
					role.Name,
					fmt.Sprintf("%d", role.MemberCount),
					fmt.Sprintf("%d", role.DirectGrantCount),
				})
			}
			printTable(cmd.OutOrStdout(), []string{"NAME", "MEMBERS", "DIRECT GRANTS"}, rows)
			return nil
		},
	}

	describe := &cobra.Command{
		Use:   "describe <cluster-id> <role>",
		Short: "Show a role's members, inherited roles, and grants",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var detail map[string]any
			if err := client.Get("/clusters/"+args[0]+"/roles/"+url.PathEscape(args[1]),
				snapshotValues(snapshotID), &detail); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), detail)
		},
	}

	privileges := &cobra.Command{
		Use:   "privileges <cluster-id> <role>",
		Short: "Show a role's effective privileges including inherited ones",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp struct {
				Privileges []EffectivePrivilege `json:"privileges"`
			}
			if err := client.Get("/clusters/"+args[0]+"/roles/"+url.PathEscape(args[1])+"/privileges",
				snapshotValues(snapshotID), &resp); err != nil {
				return err
			}
			if getOutputFormat(cmd) == "json" {
				return printJSON(cmd.OutOrStdout(), resp)
			}
			rows := make([][]string, 0, len(resp.Privileges))
			for _, p := range resp.Privileges {
				scope := derefOr(p.Database, "*") + "." + derefOr(p.Table, "*")
				rows = append(rows, []string{
					p.AccessType, scope, fmt.Sprintf("%t", p.GrantOption),
					p.Source, dash(strings.Join(p.Path, " -> ")),
				})
			}
			printTable(cmd.OutOrStdout(),
				[]string{"ACCESS", "SCOPE", "GRANT OPT", "SOURCE", "PATH"}, rows)
			return nil
		},
	}

	cmd.AddCommand(list, describe, privileges)
	return cmd
}
