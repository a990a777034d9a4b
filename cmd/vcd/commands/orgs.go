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

// NewOrgsCommand creates the organizations command group.
func NewOrgsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "orgs",
		Aliases: []string{"organizations", "org"},
		Short:   "Manage organizations",
		Long:    "List and inspect vCloud Director organizations",
	}

	cmd.AddCommand(newOrgsListCommand())
	cmd.AddCommand(newOrgsGetCommand())

	return cmd
}

func newOrgsListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List organizations",
		Long:  "List all organizations visible to the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := CreateClient()
			if err != nil {
				return err
			}

			orgs, err := client.Organizations().List(context.Background())
			if err != nil {
				return fmt.Errorf("failed to list organizations: %w", err)
			}

			return outputNameIDMap(orgs, "No organizations found", "Name", "ID")
		},
	}
}

func newOrgsGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get ORG_NAME",
		Short: "Get organization details",
		Long:  "Display the catalogs, vDCs and networks of an organization",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := CreateClient()
			if err != nil {
				return err
			}

			org, err := client.Organizations().GetByName(context.Background(), args[0])
			if err != nil {
				return fmt.Errorf("failed to get organization: %w", err)
			}

			return outputOrganization(org)
		},
	}
}

func outputOrganization(org *vcd.Org) error {
	output := viper.GetString("output")
	switch output {
	case OutputFormatJSON:
		return StandardJSONRenderer(org)
	case OutputFormatYAML:
		return StandardYAMLRenderer(org)
	default:
		return renderOrganizationTable(org)
	}
}

func renderOrganizationTable(org *vcd.Org) error {
	_, _ = fmt.Fprintf(os.Stdout, "Organization %s (%s)\n\n", org.Name, orDefault(org.FullName))

	sections := []struct {
		title     string
		mediaType string
	}{
		{"Catalogs", vcd.MimeCatalog},
		{"vDCs", vcd.MimeVDC},
		{"Networks", vcd.MimeOrgNetwork},
	}

	for _, section := range sections {
		entries := org.LinksByType(section.mediaType)
		if len(entries) == 0 {
			continue
		}

		_, _ = fmt.Fprintf(os.Stdout, "%s:\n", section.title)

		table := tablewriter.NewWriter(os.Stdout)
		table.Header("Name", "ID")

		for _, name := range sortedKeys(entries) {
			_ = table.Append(name, entries[name])
		}

		_ = table.Render()
	}

	return nil
}

// outputNameIDMap renders a name→ID map in the configured output format.
func outputNameIDMap(entries map[string]string, emptyMessage, keyHeader, valueHeader string) error {
	output := viper.GetString("output")
	switch output {
	case OutputFormatJSON:
		return StandardJSONRenderer(entries)
	case OutputFormatYAML:
		return StandardYAMLRenderer(entries)
	default:
		if len(entries) == 0 {
			_, _ = fmt.Fprintln(os.Stdout, emptyMessage)

			return nil
		}

		table := tablewriter.NewWriter(os.Stdout)
		table.Header(keyHeader, valueHeader)

		for _, name := range sortedKeys(entries) {
			_ = table.Append(name, entries[name])
		}

		_ = table.Render()

		return nil
	}
}
