package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/cloudgrid-io/vcd/pkg/vcd"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// NewNetworksCommand creates the networks command group.
func NewNetworksCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "networks",
		Aliases: []string{"network"},
		Short:   "Manage organization networks",
		Long:    "Inspect vCloud Director organization networks",
	}

	cmd.AddCommand(newNetworksGetCommand())

	return cmd
}

func newNetworksGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get ORG_NAME NETWORK_NAME",
		Short: "Get network details",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := CreateClient()
			if err != nil {
				return err
			}

			ctx := context.Background()

			networkID, err := client.Networks().GetIDByName(ctx, args[0], args[1])
			if err != nil {
				return fmt.Errorf("failed to resolve network: %w", err)
			}

			network, err := client.Networks().Get(ctx, networkID)
			if err != nil {
				return fmt.Errorf("failed to get network: %w", err)
			}

			return outputNetwork(network)
		},
	}
}

func outputNetwork(network *vcd.OrgNetwork) error {
	output := viper.GetString("output")
	switch output {
	case OutputFormatJSON:
		return StandardJSONRenderer(network)
	case OutputFormatYAML:
		return StandardYAMLRenderer(network)
	default:
		table := tablewriter.NewWriter(os.Stdout)
		table.Header("Property", "Value")

		_ = table.Append("Name", network.Name)
		_ = table.Append("ID", network.ID)
		_ = table.Append("Description", orDefault(network.Description))
		_ = table.Append("Gateway", orDefault(network.Gateway))
		_ = table.Append("Netmask", orDefault(network.Netmask))
		_ = table.Append("Fence Mode", orDefault(network.FenceMode))
		_ = table.Append("Range", orDefault(network.StartAddress)+" - "+orDefault(network.EndAddress))

		_ = table.Render()

		return nil
	}
}
