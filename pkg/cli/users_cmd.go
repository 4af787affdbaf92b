package cli

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/cobra"
)

func snapshotValues(snapshotID string) url.Values {
	q := url.Values{}
	if snapshotID != "" {
		q.Set("snapshot_id", snapshotID)
	}
	return q
}

func newUsersCmd(client *Client) *cobra.Command {
	var snapshotID string
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Explore users and their effective access",
	}
	cmd.PersistentFlags().StringVar(&snapshotID, "snapshot", "", "Snapshot to query (default: latest completed)")

	list := &cobra.Command{
		Use:   "list <cluster-id>",
		Short: "List users in a snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp userList
			if err := client.Get("/clusters/"+args[0]+"/users", snapshotValues(snapshotID), &resp); err != nil {
				return err
			}
			if getOutputFormat(cmd) == "json" {
				return printJSON(cmd.OutOrStdout(), resp)
			}
			rows := make([][]string, 0, len(resp.Users))
			for _, u := range resp.Users {
				rows = append(rows, []string{
					u.Name,
					u.AuthType,
					dash(strings.Join(u.HostIP, ",")),
					fmt.Sprintf("%d", u.RoleCount),
					fmt.Sprintf("%d", u.DirectGrantCount),
				})
			}
			printTable(cmd.OutOrStdout(),
				[]string{"NAME", "AUTH", "HOSTS", "ROLES", "DIRECT GRANTS"}, rows)
			return nil
		},
	}

	describe := &cobra.Command{
		Use:   "describe <cluster-id> <user>",
		Short: "Show a user's roles and effective privileges",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var detail UserDetail
			if err := client.Get("/clusters/"+args[0]+"/users/"+url.PathEscape(args[1]),
				snapshotValues(snapshotID), &detail); err != nil {
				return err
			}
			if getOutputFormat(cmd) == "json" {
				return printJSON(cmd.OutOrStdout(), detail)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "User: %s (auth: %s)\n\n", detail.Name, detail.AuthType)
			roleRows := make([][]string, 0, len(detail.AllRoles))
			for _, r := range detail.AllRoles {
				roleRows = append(roleRows, []string{
					r.RoleName,
					fmt.Sprintf("%t", r.IsDirect),
					fmt.Sprintf("%t", r.IsDefault),
					strings.Join(r.Path, " -> "),
				})
			}
			printTable(out, []string{"ROLE", "DIRECT", "DEFAULT", "PATH"}, roleRows)
			fmt.Fprintln(out)
			privRows := make([][]string, 0, len(detail.EffectivePrivileges))
			for _, p := range detail.EffectivePrivileges {
				scope := derefOr(p.Database, "*") + "." + derefOr(p.Table, "*")
				privRows = append(privRows, []string{
					p.AccessType, scope, fmt.Sprintf("%t", p.GrantOption), p.Source, dash(p.SourceName),
				})
			}
			printTable(out, []string{"ACCESS", "SCOPE", "GRANT OPT", "SOURCE", "VIA"}, privRows)
			return nil
		},
	}

	risks := &cobra.Command{
		Use:   "risks <cluster-id> <user>",
		Short: "Show risk findings for a user",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp riskFindingList
			if err := client.Get("/clusters/"+args[0]+"/users/"+url.PathEscape(args[1])+"/risks",
				snapshotValues(snapshotID), &resp); err != nil {
				return err
			}
			if getOutputFormat(cmd) == "json" {
				return printJSON(cmd.OutOrStdout(), resp)
			}
			rows := make([][]string, 0, len(resp.Findings))
			for _, f := range resp.Findings {
				rows = append(rows, []string{f.Level, f.Type, f.Message})
			}
			printTable(cmd.OutOrStdout(), []string{"LEVEL", "TYPE", "MESSAGE"}, rows)
			return nil
		},
	}

	cmd.AddCommand(list, describe, risks)
	return cmd
}
