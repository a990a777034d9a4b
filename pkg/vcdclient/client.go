// Package vcdclient provides the main entry point for creating vCloud
// Director API clients.
package vcdclient

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudgrid-io/vcd/internal/client"
	"github.com/cloudgrid-io/vcd/pkg/vcd"
)

// New creates a new vCloud Director API client. The returned client is not
// logged in; call Login to exchange the credentials for a session token,
// or supply Config.Token to skip login.
func New(config *vcd.Config) (vcd.Client, error) {
	if config == nil {
		return nil, vcd.ErrConfigRequired
	}

	if config.Host == "" {
		return nil, vcd.ErrHostRequired
	}

	config.Host = normalizeHost(config.Host)

	vcdClient, err := client.New(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create new client: %w", err)
	}

	return vcdClient, nil
}

// normalizeHost strips a trailing slash and defaults the scheme to https.
func normalizeHost(host string) string {
	host = strings.TrimSuffix(host, "/")
	if !strings.HasPrefix(host, "http://") && !strings.HasPrefix(host, "https://") {
		host = "https://" + host
	}

	return host
}

// NewWithToken creates a client from an endpoint and an existing session
// token.
func NewWithToken(endpoint, token string) (vcd.Client, error) {
	return New(&vcd.Config{
		Host:  endpoint,
		Token: token,
	})
}

// NewWithPassword creates a client from an endpoint and Basic credentials,
// then logs in to obtain a session token.
func NewWithPassword(ctx context.Context, endpoint, username, password, org string) (vcd.Client, error) {
	vcdClient, err := New(&vcd.Config{
		Host:     endpoint,
		Username: username,
		Password: password,
		Org:      org,
	})
	if err != nil {
		return nil, err
	}

	_, err = vcdClient.Login(ctx)
	if err != nil {
		return nil, fmt.Errorf("logging in: %w", err)
	}

	return vcdClient, nil
}
