package commands

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/cloudgrid-io/vcd/pkg/vcd"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

// NewMediaCommand creates the media command group.
func NewMediaCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "media",
		Short: "Manage media images",
		Long:  "Upload ISO media images to a vDC and register them in a catalog",
	}

	cmd.AddCommand(newMediaUploadCommand())

	return cmd
}

func newMediaUploadCommand() *cobra.Command {
	var (
		name        string
		description string
		chunkSize   int64
		noProgress  bool
	)

	cmd := &cobra.Command{
		Use:   "upload VDC_ID CATALOG_ID ISO_FILE",
		Short: "Upload an ISO image",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := CreateClient()
			if err != nil {
				return err
			}

			opts := &vcd.UploadOptions{ChunkSize: chunkSize}
			if !noProgress {
				opts.Progress = newProgressCallback(filepath.Base(args[2]))
			}

			item, err := client.Media().Upload(context.Background(), args[0], name, description, args[2], args[1], opts)
			if err != nil {
				return fmt.Errorf("failed to upload media: %w", err)
			}

			fmt.Printf("Media %s uploaded (ID %s)\n", item.Name, item.ID)

			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "media name (defaults to the file name)")
	cmd.Flags().StringVar(&description, "description", "", "media description")
	cmd.Flags().Int64Var(&chunkSize, "chunk-size", 0, "upload chunk size in bytes")
	cmd.Flags().BoolVar(&noProgress, "no-progress", false, "disable the progress bar")

	return cmd
}

// NewTemplatesCommand creates the vApp templates command group.
func NewTemplatesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "templates",
		Aliases: []string{"template"},
		Short:   "Manage vApp templates",
		Long:    "Upload OVF packages to a vDC and register them in a catalog",
	}

	cmd.AddCommand(newTemplatesUploadCommand())

	return cmd
}

func newTemplatesUploadCommand() *cobra.Command {
	var (
		description string
		chunkSize   int64
		noManifest  bool
		noProgress  bool
	)

	cmd := &cobra.Command{
		Use:   "upload VDC_ID CATALOG_ID NAME OVF_FILE",
		Short: "Upload an OVF package",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := CreateClient()
			if err != nil {
				return err
			}

			opts := &vcd.UploadOptions{ChunkSize: chunkSize}

			if noManifest {
				sendManifest := false
				opts.SendManifest = &sendManifest
			}

			if !noProgress {
				opts.Progress = newProgressCallback(filepath.Base(args[3]))
			}

			err = client.Templates().UploadOVF(context.Background(), args[0], args[2], description, args[3], args[1], opts)
			if err != nil {
				return fmt.Errorf("failed to upload template: %w", err)
			}

			fmt.Printf("Template %s uploaded\n", args[2])

			return nil
		},
	}

	cmd.Flags().StringVar(&description, "description", "", "template description")
	cmd.Flags().Int64Var(&chunkSize, "chunk-size", 0, "upload chunk size in bytes")
	cmd.Flags().BoolVar(&noManifest, "no-manifest", false, "skip the OVF manifest upload")
	cmd.Flags().BoolVar(&noProgress, "no-progress", false, "disable the progress bar")

	return cmd
}

// newProgressCallback builds a progress bar fed by the server-side
// bytesTransferred counter.
func newProgressCallback(label string) vcd.ProgressFunc {
	var bar *progressbar.ProgressBar

	return func(transferred, total int64) {
		if bar == nil {
			bar = progressbar.DefaultBytes(total, "Uploading "+label)
		}

		_ = bar.Set64(transferred)
	}
}
