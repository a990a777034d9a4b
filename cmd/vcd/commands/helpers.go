package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/cloudgrid-io/vcd/internal/constants"
	"github.com/cloudgrid-io/vcd/pkg/vcd"
	"github.com/cloudgrid-io/vcd/pkg/vcdclient"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Output formats.
const (
	OutputFormatJSON = constants.FormatJSON
	OutputFormatYAML = constants.FormatYAML
)

// Common static errors used throughout the commands package.
var (
	ErrHostRequired        = errors.New("host is required (use --host or set VCD_HOST)")
	ErrCredentialsRequired = errors.New("credentials are required (login first or set --token)")
	ErrUsernameRequired    = errors.New("username is required")
	ErrOrgRequired         = errors.New("organization is required (use --org)")
)

// CreateClient builds an API client from the resolved configuration. A
// stored session token takes precedence over Basic credentials.
func CreateClient() (vcd.Client, error) {
	host := viper.GetString("host")
	if host == "" {
		return nil, ErrHostRequired
	}

	config := &vcd.Config{
		Host:       host,
		Token:      viper.GetString("token"),
		Username:   viper.GetString("username"),
		Password:   viper.GetString("password"),
		Org:        viper.GetString("org"),
		APIVersion: viper.GetString("api-version"),
		Debug:      viper.GetBool("verbose"),
	}

	if config.Token == "" && (config.Username == "" || config.Password == "" || config.Org == "") {
		return nil, ErrCredentialsRequired
	}

	return vcdclient.New(config)
}

// StandardJSONRenderer encodes data as indented JSON on stdout.
func StandardJSONRenderer[T any](data T) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")

	err := encoder.Encode(data)
	if err != nil {
		return fmt.Errorf("encoding data to JSON: %w", err)
	}

	return nil
}

// StandardYAMLRenderer encodes data as YAML on stdout.
func StandardYAMLRenderer[T any](data T) error {
	encoder := yaml.NewEncoder(os.Stdout)
	encoder.SetIndent(constants.JSONIndentSize)

	err := encoder.Encode(data)
	if err != nil {
		return fmt.Errorf("encoding data to YAML: %w", err)
	}

	return nil
}

// sortedKeys returns the map's keys in lexical order so table output is
// stable.
func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}

// orDefault substitutes "N/A" for empty values in table cells.
func orDefault(value string) string {
	if value == "" {
		return constants.NotAvailable
	}

	return value
}

// saveSessionConfig persists host, org, username and token to the config
// file so subsequent invocations reuse the session.
func saveSessionConfig(host, org, username, token string) error {
	viper.Set("host", host)
	viper.Set("org", org)
	viper.Set("username", username)
	viper.Set("token", token)

	return writeConfigFile()
}

// clearSessionConfig drops the stored token.
func clearSessionConfig() error {
	viper.Set("token", "")

	return writeConfigFile()
}

func writeConfigFile() error {
	cfgFile := viper.ConfigFileUsed()
	if cfgFile == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("finding home directory: %w", err)
		}

		cfgFile = filepath.Join(home, ".vcd", "config.yml")
	}

	if err := viper.WriteConfigAs(cfgFile); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return os.Chmod(cfgFile, constants.ConfigFilePerm)
}
