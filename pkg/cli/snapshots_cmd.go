package cli

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"

	"github.com/spf13/cobra"
)

func newSnapshotsCmd(client *Client) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshots",
		Short: "Manage privilege snapshots",
	}
	cmd.AddCommand(newSnapshotsListCmd(client))
	cmd.AddCommand(newSnapshotsImportCmd(client))
	cmd.AddCommand(newSnapshotsGetCmd(client))
	cmd.AddCommand(newSnapshotsDeleteCmd(client))
	return cmd
}

func newSnapshotsListCmd(client *Client) *cobra.Command {
	return &cobra.Command{
		Use:   "list <cluster-id>",
		Short: "List snapshots for a cluster, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp snapshotList
			if err := client.Get("/clusters/"+args[0]+"/snapshots", url.Values{}, &resp); err != nil {
				return err
			}
			if getOutputFormat(cmd) == "json" {
				return printJSON(cmd.OutOrStdout(), resp)
			}
			rows := make([][]string, 0, len(resp.Snapshots))
			for _, s := range resp.Snapshots {
				rows = append(rows, []string{
					s.ID,
					s.Status,
					s.CreatedAt.Format("2006-01-02 15:04:05"),
					fmt.Sprintf("%d", s.UserCount),
					fmt.Sprintf("%d", s.RoleCount),
					fmt.Sprintf("%d", s.RoleGrantCount+s.DirectGrantCount),
				})
			}
			printTable(cmd.OutOrStdout(),
				[]string{"ID", "STATUS", "CREATED", "USERS", "ROLES", "GRANTS"}, rows)
			return nil
		},
	}
}

func newSnapshotsImportCmd(client *Client) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "import <cluster-id>",
		Short: "Import a collector dump as a new snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("read dump: %w", err)
			}
			var payload json.RawMessage
			if err := json.Unmarshal(data, &payload); err != nil {
				return fmt.Errorf("parse dump: %w", err)
			}
			var snap Snapshot
			if err := client.Post("/clusters/"+args[0]+"/snapshots", payload, &snap); err != nil {
				return err
			}
			if getOutputFormat(cmd) == "json" {
				return printJSON(cmd.OutOrStdout(), snap)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported snapshot %s (%d users, %d roles)\n",
				snap.ID, snap.UserCount, snap.RoleCount)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "Path to the JSON dump")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func newSnapshotsGetCmd(client *Client) *cobra.Command {
	return &cobra.Command{
		Use:   "get <snapshot-id>",
		Short: "Show one snapshot with its graph defects",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp map[string]any
			if err := client.Get("/snapshots/"+args[0], url.Values{}, &resp); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}
}

func newSnapshotsDeleteCmd(client *Client) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <snapshot-id>",
		Short: "Delete a snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client.Delete("/snapshots/" + args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted snapshot %s\n", args[0])
			return nil
		},
	}
}
