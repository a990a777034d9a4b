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

// NewVMsCommand creates the VMs command group.
func NewVMsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "vms",
		Aliases: []string{"vm"},
		Short:   "Manage virtual machines",
		Long:    "Inspect and reconfigure individual virtual machines",
	}

	cmd.AddCommand(newVMsGetCommand())

	return cmd
}

func newVMsGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get VM_ID",
		Short: "Get VM details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := CreateClient()
			if err != nil {
				return err
			}

			vm, err := client.VMs().Get(context.Background(), args[0])
			if err != nil {
				return fmt.Errorf("failed to get VM: %w", err)
			}

			return outputVM(vm)
		},
	}
}

func outputVM(vm *vcd.VM) error {
	output := viper.GetString("output")
	switch output {
	case OutputFormatJSON:
		return StandardJSONRenderer(vm)
	case OutputFormatYAML:
		return StandardYAMLRenderer(vm)
	default:
		table := tablewriter.NewWriter(os.Stdout)
		table.Header("Property", "Value")

		_ = table.Append("Name", vm.Name)
		_ = table.Append("ID", vm.ID)
		_ = table.Append("Status", vm.Status)
		_ = table.Append("OS", orDefault(vm.OSDescription))
		_ = table.Append("Computer Name", orDefault(vm.GuestCustomization.ComputerName))

		_ = table.Render()

		if len(vm.Networks) > 0 {
			_, _ = fmt.Fprintln(os.Stdout, "\nNetwork connections:")

			netTable := tablewriter.NewWriter(os.Stdout)
			netTable.Header("Network", "IP", "External IP", "MAC", "Connected", "Allocation")

			for name, conn := range vm.Networks {
				_ = netTable.Append(name, orDefault(conn.IP), orDefault(conn.ExternalIP),
					orDefault(conn.MACAddress), conn.IsConnected, orDefault(conn.AllocationMode))
			}

			_ = netTable.Render()
		}

		return nil
	}
}
