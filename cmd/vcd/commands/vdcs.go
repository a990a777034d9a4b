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

// NewVDCsCommand creates the vDCs command group.
func NewVDCsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "vdcs",
		Aliases: []string{"vdc"},
		Short:   "Manage virtual data centers",
		Long:    "Inspect vCloud Director virtual data centers",
	}

	cmd.AddCommand(newVDCsGetCommand())

	return cmd
}

func newVDCsGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get ORG_NAME VDC_NAME",
		Short: "Get vDC details",
		Long:  "Display the vApps, templates, disks and networks of a vDC",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := CreateClient()
			if err != nil {
				return err
			}

			vdc, err := client.VDCs().GetByName(context.Background(), args[0], args[1])
			if err != nil {
				return fmt.Errorf("failed to get vDC: %w", err)
			}

			return outputVDC(vdc)
		},
	}
}

func outputVDC(vdc *vcd.VDC) error {
	output := viper.GetString("output")
	switch output {
	case OutputFormatJSON:
		return StandardJSONRenderer(vdc)
	case OutputFormatYAML:
		return StandardYAMLRenderer(vdc)
	default:
		return renderVDCTable(vdc)
	}
}

func renderVDCTable(vdc *vcd.VDC) error {
	_, _ = fmt.Fprintf(os.Stdout, "vDC %s\n\n", vdc.Name)

	sections := []struct {
		title   string
		entries map[string]string
	}{
		{"vApps", vdc.VApps()},
		{"Templates", vdc.Templates()},
		{"Disks", vdc.Disks()},
		{"Networks", vdc.NetworkIDs()},
	}

	for _, section := range sections {
		if len(section.entries) == 0 {
			continue
		}

		_, _ = fmt.Fprintf(os.Stdout, "%s:\n", section.title)

		table := tablewriter.NewWriter(os.Stdout)
		table.Header("Name", "ID")

		for _, name := range sortedKeys(section.entries) {
			_ = table.Append(name, section.entries[name])
		}

		_ = table.Render()
	}

	return nil
}
