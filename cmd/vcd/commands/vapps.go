package commands

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/cloudgrid-io/vcd/pkg/vcd"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// NewVAppsCommand creates the vApps command group.
func NewVAppsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "vapps",
		Aliases: []string{"vapp"},
		Short:   "Manage vApps",
		Long:    "Inspect and control vCloud Director vApps",
	}

	cmd.AddCommand(newVAppsGetCommand())
	cmd.AddCommand(newVAppsDeleteCommand())
	cmd.AddCommand(newVAppsPowerCommand("power-on", "Power on a vApp"))
	cmd.AddCommand(newVAppsPowerCommand("power-off", "Power off (undeploy) a vApp"))
	cmd.AddCommand(newVAppsPowerActionCommand())
	cmd.AddCommand(newVAppsCreateCommand())
	cmd.AddCommand(newVAppsSnapshotCommand())
	cmd.AddCommand(newVAppsPortForwardingCommand())
	cmd.AddCommand(newVAppsPublicIPCommand())

	return cmd
}

func newVAppsGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get VAPP_ID",
		Short: "Get vApp details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := CreateClient()
			if err != nil {
				return err
			}

			vapp, err := client.VApps().Get(context.Background(), args[0])
			if err != nil {
				return fmt.Errorf("failed to get vApp: %w", err)
			}

			return outputVApp(vapp)
		},
	}
}

func outputVApp(vapp *vcd.VApp) error {
	output := viper.GetString("output")
	switch output {
	case OutputFormatJSON:
		return StandardJSONRenderer(vapp)
	case OutputFormatYAML:
		return StandardYAMLRenderer(vapp)
	default:
		return renderVAppTable(vapp)
	}
}

func renderVAppTable(vapp *vcd.VApp) error {
	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Property", "Value")

	_ = table.Append("Name", vapp.Name)
	_ = table.Append("ID", vapp.ID)
	_ = table.Append("Status", vapp.Status)
	_ = table.Append("Description", orDefault(vapp.Description))
	_ = table.Append("IP", orDefault(vapp.IP))

	_ = table.Render()

	if len(vapp.VMs) > 0 {
		_, _ = fmt.Fprintln(os.Stdout, "\nVMs:")

		vmTable := tablewriter.NewWriter(os.Stdout)
		vmTable.Header("Name", "ID", "Status", "Addresses")

		for name, vm := range vapp.VMs {
			_ = vmTable.Append(name, vm.ID, vm.Status, strings.Join(vm.Addresses, ", "))
		}

		_ = vmTable.Render()
	}

	if len(vapp.Networks) > 0 {
		_, _ = fmt.Fprintln(os.Stdout, "\nNetworks:")

		netTable := tablewriter.NewWriter(os.Stdout)
		netTable.Header("Name", "Gateway", "Netmask", "Fence Mode")

		for name, scope := range vapp.Networks {
			_ = netTable.Append(name, orDefault(scope.Gateway), orDefault(scope.Netmask), orDefault(scope.FenceMode))
		}

		_ = netTable.Render()
	}

	return nil
}

func newVAppsDeleteCommand() *cobra.Command {
	var wait bool

	cmd := &cobra.Command{
		Use:   "delete VAPP_ID",
		Short: "Delete a vApp",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := CreateClient()
			if err != nil {
				return err
			}

			ctx := context.Background()

			taskID, err := client.VApps().Delete(ctx, args[0])
			if err != nil {
				return fmt.Errorf("failed to delete vApp: %w", err)
			}

			return reportTask(ctx, client, taskID, wait)
		},
	}

	cmd.Flags().BoolVar(&wait, "wait", false, "wait for the task to complete")

	return cmd
}

func newVAppsPowerCommand(use, short string) *cobra.Command {
	var wait bool

	cmd := &cobra.Command{
		Use:   use + " VAPP_ID",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := CreateClient()
			if err != nil {
				return err
			}

			ctx := context.Background()

			var taskID string
			if use == "power-on" {
				taskID, err = client.VApps().PowerOn(ctx, args[0])
			} else {
				taskID, err = client.VApps().PowerOff(ctx, args[0])
			}

			if err != nil {
				return fmt.Errorf("failed to %s vApp: %w", use, err)
			}

			return reportTask(ctx, client, taskID, wait)
		},
	}

	cmd.Flags().BoolVar(&wait, "wait", false, "wait for the task to complete")

	return cmd
}

func newVAppsPowerActionCommand() *cobra.Command {
	var wait bool

	cmd := &cobra.Command{
		Use:   "power VAPP_ID ACTION",
		Short: "Invoke a raw power action",
		Long:  "Invoke a power action verb on a vApp (suspend, reboot, reset, shutdown, powerOn)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := CreateClient()
			if err != nil {
				return err
			}

			ctx := context.Background()

			taskID, err := client.VApps().PowerAction(ctx, args[0], args[1])
			if err != nil {
				return fmt.Errorf("failed to run power action: %w", err)
			}

			return reportTask(ctx, client, taskID, wait)
		},
	}

	cmd.Flags().BoolVar(&wait, "wait", false, "wait for the task to complete")

	return cmd
}

func newVAppsCreateCommand() *cobra.Command {
	var (
		description string
		powerOn     bool
		wait        bool
	)

	cmd := &cobra.Command{
		Use:   "create VDC_ID NAME TEMPLATE_ID",
		Short: "Create a vApp from a template",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := CreateClient()
			if err != nil {
				return err
			}

			ctx := context.Background()

			creation, err := client.VApps().CreateFromTemplate(ctx, args[0], args[1], description, args[2], powerOn)
			if err != nil {
				return fmt.Errorf("failed to create vApp: %w", err)
			}

			fmt.Printf("vApp %s created\n", creation.VAppID)

			return reportTask(ctx, client, creation.TaskID, wait)
		},
	}

	cmd.Flags().StringVar(&description, "description", "", "vApp description")
	cmd.Flags().BoolVar(&powerOn, "power-on", false, "power on after instantiation")
	cmd.Flags().BoolVar(&wait, "wait", false, "wait for the task to complete")

	return cmd
}

func newVAppsSnapshotCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Manage vApp snapshots",
	}

	var wait bool

	createCmd := &cobra.Command{
		Use:   "create VAPP_ID [DESCRIPTION]",
		Short: "Take a vApp snapshot",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := CreateClient()
			if err != nil {
				return err
			}

			description := ""
			if len(args) > 1 {
				description = args[1]
			}

			ctx := context.Background()

			taskID, err := client.VApps().CreateSnapshot(ctx, args[0], description)
			if err != nil {
				return fmt.Errorf("failed to create snapshot: %w", err)
			}

			return reportTask(ctx, client, taskID, wait)
		},
	}

	revertCmd := &cobra.Command{
		Use:   "revert VAPP_ID",
		Short: "Revert a vApp to its snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := CreateClient()
			if err != nil {
				return err
			}

			ctx := context.Background()

			taskID, err := client.VApps().RevertSnapshot(ctx, args[0])
			if err != nil {
				return fmt.Errorf("failed to revert snapshot: %w", err)
			}

			return reportTask(ctx, client, taskID, wait)
		},
	}

	createCmd.Flags().BoolVar(&wait, "wait", false, "wait for the task to complete")
	revertCmd.Flags().BoolVar(&wait, "wait", false, "wait for the task to complete")

	cmd.AddCommand(createCmd)
	cmd.AddCommand(revertCmd)

	return cmd
}

func newVAppsPortForwardingCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "port-forwarding VAPP_ID",
		Short: "List vApp port-forwarding rules",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := CreateClient()
			if err != nil {
				return err
			}

			rules, err := client.VApps().GetPortForwardingRules(context.Background(), args[0])
			if err != nil {
				return fmt.Errorf("failed to get port-forwarding rules: %w", err)
			}

			return outputPortForwardingRules(rules)
		},
	}
}

func outputPortForwardingRules(rules map[string]vcd.NatRuleInfo) error {
	output := viper.GetString("output")
	switch output {
	case OutputFormatJSON:
		return StandardJSONRenderer(rules)
	case OutputFormatYAML:
		return StandardYAMLRenderer(rules)
	default:
		if len(rules) == 0 {
			_, _ = fmt.Fprintln(os.Stdout, "No port-forwarding rules found")

			return nil
		}

		table := tablewriter.NewWriter(os.Stdout)
		table.Header("ID", "External IP", "External Port", "Internal Port", "Protocol", "VM")

		for _, rule := range rules {
			_ = table.Append(rule.ID, orDefault(rule.ExternalIP), rule.ExternalPort,
				rule.InternalPort, rule.Protocol, rule.VAppScopedVMID)
		}

		_ = table.Render()

		return nil
	}
}

func newVAppsPublicIPCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "public-ip VAPP_ID",
		Short: "Show the edge gateway public IP of a vApp",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := CreateClient()
			if err != nil {
				return err
			}

			ip, err := client.VApps().GetEdgePublicIP(context.Background(), args[0])
			if err != nil {
				return fmt.Errorf("failed to get public IP: %w", err)
			}

			fmt.Println(ip)

			return nil
		},
	}
}
