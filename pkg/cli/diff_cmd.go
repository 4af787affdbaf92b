package cli

import (
	"fmt"
	"net/url"

	"github.com/spf13/cobra"
)

func newDiffCmd(client *Client) *cobra.Command {
	return &cobra.Command{
		Use:   "diff <from-snapshot-id> <to-snapshot-id>",
		Short: "Diff two snapshots of the same cluster",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			q := url.Values{}
			q.Set("from", args[0])
			q.Set("to", args[1])
			var resp map[string]any
			if err := client.Get("/diff", q, &resp); err != nil {
				return err
			}
			if getOutputFormat(cmd) == "json" {
				return printJSON(cmd.OutOrStdout(), resp)
			}
			out := cmd.OutOrStdout()
			for _, section := range []string{"users", "roles", "role_grants", "grants"} {
				s, ok := resp[section].(map[string]any)
				if !ok {
					continue
				}
				fmt.Fprintf(out, "%s: +%v -%v ~%v\n", section,
					s["added_count"], s["removed_count"], s["modified_count"])
			}
			return nil
		},
	}
}
