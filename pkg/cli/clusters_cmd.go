package cli

import (
	"fmt"
	"net/url"

	"github.com/spf13/cobra"
)

func newClustersCmd(client *Client) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clusters",
		Short: "Manage registered clusters",
	}
	cmd.AddCommand(newClustersListCmd(client))
	cmd.AddCommand(newClustersRegisterCmd(client))
	cmd.AddCommand(newClustersDeleteCmd(client))
	return cmd
}

func newClustersListCmd(client *Client) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered clusters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var resp clusterList
			if err := client.Get("/clusters", url.Values{}, &resp); err != nil {
				return err
			}
			if getOutputFormat(cmd) == "json" {
				return printJSON(cmd.OutOrStdout(), resp)
			}
			rows := make([][]string, 0, len(resp.Clusters))
			for _, c := range resp.Clusters {
				rows = append(rows, []string{c.ID, c.Name, c.Host, dash(c.Description)})
			}
			printTable(cmd.OutOrStdout(), []string{"ID", "NAME", "HOST", "DESCRIPTION"}, rows)
			return nil
		},
	}
}

func newClustersRegisterCmd(client *Client) *cobra.Command {
	var (
		host        string
		description string
	)
	cmd := &cobra.Command{
		Use:   "register <name>",
		Short: "Register a cluster",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body := map[string]string{
				"name":        args[0],
				"host":        host,
				"description": description,
			}
			var cluster Cluster
			if err := client.Post("/clusters", body, &cluster); err != nil {
				return err
			}
			if getOutputFormat(cmd) == "json" {
				return printJSON(cmd.OutOrStdout(), cluster)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Registered cluster %s (%s)\n", cluster.Name, cluster.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&host, "cluster-host", "", "Cluster host address")
	cmd.Flags().StringVar(&description, "description", "", "Cluster description")
	_ = cmd.MarkFlagRequired("cluster-host")
	return cmd
}

func newClustersDeleteCmd(client *Client) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <cluster-id>",
		Short: "Delete a cluster and its snapshots",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client.Delete("/clusters/" + args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted cluster %s\n", args[0])
			return nil
		},
	}
}
