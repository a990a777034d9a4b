package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// NewVIMCommand creates the admin extension command group.
func NewVIMCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vim",
		Short: "Inspect attached vSphere servers",
		Long:  "List the vSphere servers and hosts behind the cloud (admin extension)",
	}

	cmd.AddCommand(newVIMServersCommand())
	cmd.AddCommand(newVIMHostsCommand())

	return cmd
}

func newVIMServersCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "servers",
		Short: "List attached vSphere servers",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := CreateClient()
			if err != nil {
				return err
			}

			servers, err := client.Admin().VIMServers(context.Background())
			if err != nil {
				return fmt.Errorf("failed to list vSphere servers: %w", err)
			}

			return outputNameIDMap(servers, "No vSphere servers found", "Name", "ID")
		},
	}
}

func newVIMHostsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "hosts VIM_SERVER_ID",
		Short: "List the hosts of a vSphere server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := CreateClient()
			if err != nil {
				return err
			}

			hosts, err := client.Admin().VIMHosts(context.Background(), args[0])
			if err != nil {
				return fmt.Errorf("failed to list hosts: %w", err)
			}

			return outputNameIDMap(hosts, "No hosts found", "Name", "ID")
		},
	}
}
