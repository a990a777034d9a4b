package commands

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/cloudgrid-io/vcd/pkg/vcd"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// NewDisksCommand creates the independent disks command group.
func NewDisksCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "disks",
		Aliases: []string{"disk"},
		Short:   "Manage independent disks",
		Long:    "Create, inspect, attach and delete independent disks",
	}

	cmd.AddCommand(newDisksCreateCommand())
	cmd.AddCommand(newDisksGetCommand())
	cmd.AddCommand(newDisksDeleteCommand())
	cmd.AddCommand(newDisksAttachCommand("attach", "Attach a disk to a VM"))
	cmd.AddCommand(newDisksAttachCommand("detach", "Detach a disk from a VM"))

	return cmd
}

func newDisksCreateCommand() *cobra.Command {
	var (
		description string
		wait        bool
	)

	cmd := &cobra.Command{
		Use:   "create VDC_ID NAME SIZE_BYTES",
		Short: "Create an independent disk",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			size, err := strconv.ParseInt(args[2], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid disk size %q: %w", args[2], err)
			}

			client, err := CreateClient()
			if err != nil {
				return err
			}

			ctx := context.Background()

			creation, err := client.Disks().Create(ctx, args[0], args[1], size, description)
			if err != nil {
				return fmt.Errorf("failed to create disk: %w", err)
			}

			fmt.Printf("Disk %s created\n", creation.DiskID)

			return reportTask(ctx, client, creation.TaskID, wait)
		},
	}

	cmd.Flags().StringVar(&description, "description", "", "disk description")
	cmd.Flags().BoolVar(&wait, "wait", false, "wait for the task to complete")

	return cmd
}

func newDisksGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get DISK_ID",
		Short: "Get disk details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := CreateClient()
			if err != nil {
				return err
			}

			disk, err := client.Disks().Get(context.Background(), args[0])
			if err != nil {
				return fmt.Errorf("failed to get disk: %w", err)
			}

			return outputDisk(disk)
		},
	}
}

func outputDisk(disk *vcd.Disk) error {
	output := viper.GetString("output")
	switch output {
	case OutputFormatJSON:
		return StandardJSONRenderer(disk)
	case OutputFormatYAML:
		return StandardYAMLRenderer(disk)
	default:
		table := tablewriter.NewWriter(os.Stdout)
		table.Header("Property", "Value")

		_ = table.Append("Name", disk.Name)
		_ = table.Append("ID", disk.ID)
		_ = table.Append("Size", strconv.FormatInt(disk.Size, 10))
		_ = table.Append("Description", orDefault(disk.Description))
		_ = table.Append("Storage Profile", orDefault(disk.StorageProfile))
		_ = table.Append("Owner", orDefault(disk.Owner))

		_ = table.Render()

		return nil
	}
}

func newDisksDeleteCommand() *cobra.Command {
	var wait bool

	cmd := &cobra.Command{
		Use:   "delete DISK_ID",
		Short: "Delete an independent disk",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := CreateClient()
			if err != nil {
				return err
			}

			ctx := context.Background()

			taskID, err := client.Disks().Delete(ctx, args[0])
			if err != nil {
				return fmt.Errorf("failed to delete disk: %w", err)
			}

			return reportTask(ctx, client, taskID, wait)
		},
	}

	cmd.Flags().BoolVar(&wait, "wait", false, "wait for the task to complete")

	return cmd
}

func newDisksAttachCommand(use, short string) *cobra.Command {
	var wait bool

	cmd := &cobra.Command{
		Use:   use + " DISK_ID VM_ID",
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := CreateClient()
			if err != nil {
				return err
			}

			ctx := context.Background()

			var taskID string
			if use == "attach" {
				taskID, err = client.Disks().Attach(ctx, args[0], args[1])
			} else {
				taskID, err = client.Disks().Detach(ctx, args[0], args[1])
			}

			if err != nil {
				return fmt.Errorf("failed to %s disk: %w", use, err)
			}

			return reportTask(ctx, client, taskID, wait)
		},
	}

	cmd.Flags().BoolVar(&wait, "wait", false, "wait for the task to complete")

	return cmd
}
