package client

import (
	"context"
	"encoding/xml"
	"fmt"

	"github.com/cloudgrid-io/vcd/internal/constants"
	"github.com/cloudgrid-io/vcd/pkg/vcd"
)

// sessionDoc is the Session document returned by POST /sessions.
type sessionDoc struct {
	XMLName xml.Name   `xml:"Session"`
	User    string     `xml:"user,attr"`
	Org     string     `xml:"org,attr"`
	Links   []vcd.Link `xml:"Link"`
}

// Login implements vcd.Client.Login. It POSTs the Basic bootstrap
// credentials to /sessions and stores the token returned in the
// x-vcloud-authorization header. A 200 without that header is a failure.
func (c *Client) Login(ctx context.Context) (*vcd.Session, error) {
	resp, err := c.httpClient.Post(ctx, "/sessions", nil, "")
	if err != nil {
		return nil, fmt.Errorf("logging in: %w", err)
	}

	token := resp.Headers.Get(constants.AuthHeader)
	if token == "" {
		return nil, vcd.ErrMissingAuthHeader
	}

	c.session.SetToken(token)

	session := &vcd.Session{
		User:  c.session.Username(),
		Org:   c.session.Org(),
		Token: token,
	}

	var doc sessionDoc
	if xml.Unmarshal(resp.Body, &doc) == nil {
		if doc.User != "" {
			session.User = doc.User
		}

		if doc.Org != "" {
			session.Org = doc.Org
		}
	}

	if c.logger != nil {
		c.logger.Info("session established", map[string]interface{}{
			"user": session.User,
			"org":  session.Org,
		})
	}

	return session, nil
}

// Logout implements vcd.Client.Logout. The local token is cleared even when
// the DELETE fails, so a half-dead session cannot be reused.
func (c *Client) Logout(ctx context.Context) error {
	defer c.session.Clear()

	_, err := c.httpClient.Delete(ctx, "/session")
	if err != nil {
		return fmt.Errorf("logging out: %w", err)
	}

	return nil
}

// Current implements vcd.Client.Current.
func (c *Client) Current() *vcd.Session {
	return &vcd.Session{
		User:  c.session.Username(),
		Org:   c.session.Org(),
		Token: c.session.Token(),
	}
}

// extensibilityDoc holds the links of the /extensibility document.
type extensibilityDoc struct {
	Links []vcd.Link `xml:"Link"`
}

// GetExtensibility implements vcd.Client.GetExtensibility.
func (c *Client) GetExtensibility(ctx context.Context) (*vcd.Extensibility, error) {
	resp, err := c.httpClient.Get(ctx, "/extensibility")
	if err != nil {
		return nil, fmt.Errorf("getting extensibility: %w", err)
	}

	var doc extensibilityDoc

	err = xml.Unmarshal(resp.Body, &doc)
	if err != nil {
		return nil, fmt.Errorf("parsing extensibility response: %w", err)
	}

	ext := &vcd.Extensibility{}

	for _, link := range doc.Links {
		switch link.Rel {
		case "down:service":
			ext.ServiceURL = link.Href
		case "down:apidefinitions":
			ext.APIDefinitionsURL = link.Href
		case "down:files":
			ext.FilesURL = link.Href
		}
	}

	return ext, nil
}
