package commands

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/cloudgrid-io/vcd/pkg/vcd"
	"github.com/cloudgrid-io/vcd/pkg/vcdclient"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"
)

// NewLoginCommand creates the login command.
func NewLoginCommand() *cobra.Command {
	var (
		host     string
		username string
		password string
		org      string
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Login to vCloud Director",
		Long:  "Authenticate with a vCloud Director endpoint and store the session token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if host == "" {
				host = viper.GetString("host")
			}

			if host == "" {
				reader := bufio.NewReader(os.Stdin)
				fmt.Print("Endpoint: ")
				host, _ = reader.ReadString('\n')
				host = strings.TrimSpace(host)
			}

			if host == "" {
				return ErrHostRequired
			}

			if org == "" {
				org = viper.GetString("org")
			}

			if org == "" {
				return ErrOrgRequired
			}

			if username == "" {
				reader := bufio.NewReader(os.Stdin)
				fmt.Print("Username: ")
				username, _ = reader.ReadString('\n')
				username = strings.TrimSpace(username)
			}

			if username == "" {
				return ErrUsernameRequired
			}

			if password == "" {
				fmt.Print("Password: ")

				bytePassword, err := term.ReadPassword(int(syscall.Stdin))
				if err != nil {
					return fmt.Errorf("failed to read password: %w", err)
				}

				password = string(bytePassword)

				fmt.Println()
			}

			config := &vcd.Config{
				Host:       host,
				Username:   username,
				Password:   password,
				Org:        org,
				APIVersion: viper.GetString("api-version"),
				Debug:      viper.GetBool("verbose"),
			}

			client, err := vcdclient.New(config)
			if err != nil {
				return fmt.Errorf("failed to create client: %w", err)
			}

			ctx := context.Background()

			session, err := client.Login(ctx)
			if err != nil {
				return fmt.Errorf("failed to login: %w", err)
			}

			if err := saveSessionConfig(config.Host, org, username, session.Token); err != nil {
				return fmt.Errorf("failed to save configuration: %w", err)
			}

			fmt.Printf("Successfully logged in to %s as %s@%s\n", config.Host, session.User, session.Org)

			// List organizations visible to the new session
			orgs, err := client.Organizations().List(ctx)
			if err == nil && len(orgs) > 0 {
				fmt.Println("\nAvailable organizations:")

				for _, name := range sortedKeys(orgs) {
					fmt.Printf("  - %s\n", name)
				}
			}

			return nil
		},
	}

	// Add flags
	cmd.Flags().StringVarP(&host, "host", "H", "", "vCloud Director endpoint URL")
	cmd.Flags().StringVarP(&username, "username", "u", "", "username for authentication")
	cmd.Flags().StringVarP(&password, "password", "p", "", "password for authentication")
	cmd.Flags().StringVarP(&org, "org", "o", "", "organization for authentication")

	return cmd
}

// NewLogoutCommand creates the logout command.
func NewLogoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Logout from vCloud Director",
		Long:  "Destroy the server-side session and clear the stored token",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := CreateClient()
			if err == nil {
				// Best effort: the local token is cleared regardless.
				_ = client.Logout(context.Background())
			}

			if err := clearSessionConfig(); err != nil {
				return fmt.Errorf("failed to save configuration: %w", err)
			}

			fmt.Println("Successfully logged out")

			return nil
		},
	}
}
