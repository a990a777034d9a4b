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

// NewCatalogsCommand creates the catalogs command group.
func NewCatalogsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "catalogs",
		Aliases: []string{"catalog"},
		Short:   "Manage catalogs",
		Long:    "Inspect vCloud Director catalogs and catalog items",
	}

	cmd.AddCommand(newCatalogsGetCommand())
	cmd.AddCommand(newCatalogsItemCommand())

	return cmd
}

func newCatalogsGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get ORG_NAME CATALOG_NAME",
		Short: "Get catalog details",
		Long:  "Display a catalog and its items",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := CreateClient()
			if err != nil {
				return err
			}

			catalog, err := client.Catalogs().GetByName(context.Background(), args[0], args[1])
			if err != nil {
				return fmt.Errorf("failed to get catalog: %w", err)
			}

			return outputCatalog(catalog)
		},
	}
}

func outputCatalog(catalog *vcd.Catalog) error {
	output := viper.GetString("output")
	switch output {
	case OutputFormatJSON:
		return StandardJSONRenderer(catalog)
	case OutputFormatYAML:
		return StandardYAMLRenderer(catalog)
	default:
		_, _ = fmt.Fprintf(os.Stdout, "Catalog %s: %s\n\n", catalog.Name, orDefault(catalog.Description))

		if len(catalog.Items) == 0 {
			_, _ = fmt.Fprintln(os.Stdout, "No catalog items found")

			return nil
		}

		table := tablewriter.NewWriter(os.Stdout)
		table.Header("Name", "ID")

		for _, item := range catalog.Items {
			_ = table.Append(item.Name, item.ID())
		}

		_ = table.Render()

		return nil
	}
}

func newCatalogsItemCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "item CATALOG_ID ITEM_NAME",
		Short: "Get catalog item details",
		Long:  "Display the entities wrapped by a catalog item",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := CreateClient()
			if err != nil {
				return err
			}

			item, err := client.Catalogs().GetItemByName(context.Background(), args[0], args[1])
			if err != nil {
				return fmt.Errorf("failed to get catalog item: %w", err)
			}

			return outputCatalogItem(item)
		},
	}
}

func outputCatalogItem(item *vcd.CatalogItem) error {
	output := viper.GetString("output")
	switch output {
	case OutputFormatJSON:
		return StandardJSONRenderer(item)
	case OutputFormatYAML:
		return StandardYAMLRenderer(item)
	default:
		_, _ = fmt.Fprintf(os.Stdout, "Catalog item %s: %s\n\n", item.Name, orDefault(item.Description))

		table := tablewriter.NewWriter(os.Stdout)
		table.Header("Entity", "Type", "ID")

		for _, entity := range item.Entities {
			_ = table.Append(entity.Name, entity.Type, entity.ID())
		}

		_ = table.Render()

		return nil
	}
}
