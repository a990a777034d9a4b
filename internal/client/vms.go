package client

import (
	"context"
	"encoding/xml"
	"fmt"

	"github.com/cloudgrid-io/vcd/internal/http"
	"github.com/cloudgrid-io/vcd/pkg/vcd"
)

// VMsClient implements vcd.VMsClient.
type VMsClient struct {
	httpClient *http.Client
}

// NewVMsClient creates a new VMs client.
func NewVMsClient(httpClient *http.Client) *VMsClient {
	return &VMsClient{httpClient: httpClient}
}

// vmDoc maps the slice of a Vm document the condensed view reads.
type vmDoc struct {
	Name                   string `xml:"name,attr"`
	Status                 int    `xml:"status,attr"`
	OperatingSystemSection struct {
		Description string `xml:"Description"`
	} `xml:"OperatingSystemSection"`
	NetworkConnections []struct {
		Network           string `xml:"network,attr"`
		ConnectionIndex   string `xml:"NetworkConnectionIndex"`
		IPAddress         string `xml:"IpAddress"`
		ExternalIPAddress string `xml:"ExternalIpAddress"`
		IsConnected       string `xml:"IsConnected"`
		MACAddress        string `xml:"MACAddress"`
		AllocationMode    string `xml:"IpAddressAllocationMode"`
	} `xml:"NetworkConnectionSection>NetworkConnection"`
	GuestCustomization struct {
		Enabled               string `xml:"Enabled"`
		AdminPasswordEnabled  string `xml:"AdminPasswordEnabled"`
		AdminPasswordAuto     string `xml:"AdminPasswordAuto"`
		AdminPassword         string `xml:"AdminPassword"`
		ResetPasswordRequired string `xml:"ResetPasswordRequired"`
		ComputerName          string `xml:"ComputerName"`
	} `xml:"GuestCustomizationSection"`
}

// Get implements vcd.VMsClient.Get.
func (c *VMsClient) Get(ctx context.Context, vmID string) (*vcd.VM, error) {
	resp, err := c.httpClient.Get(ctx, "/vApp/vm-"+vmID)
	if err != nil {
		return nil, fmt.Errorf("getting VM: %w", err)
	}

	var doc vmDoc

	err = xml.Unmarshal(resp.Body, &doc)
	if err != nil {
		return nil, fmt.Errorf("parsing VM: %w", err)
	}

	vm := &vcd.VM{
		ID:            vmID,
		Name:          doc.Name,
		Status:        vcd.VAppStatusString(doc.Status),
		OSDescription: doc.OperatingSystemSection.Description,
		Networks:      make(map[string]vcd.VMNetwork),
		GuestCustomization: vcd.GuestCustomization{
			Enabled:               doc.GuestCustomization.Enabled,
			AdminPasswordEnabled:  doc.GuestCustomization.AdminPasswordEnabled,
			AdminPasswordAuto:     doc.GuestCustomization.AdminPasswordAuto,
			AdminPassword:         doc.GuestCustomization.AdminPassword,
			ResetPasswordRequired: doc.GuestCustomization.ResetPasswordRequired,
			ComputerName:          doc.GuestCustomization.ComputerName,
		},
	}

	for _, conn := range doc.NetworkConnections {
		vm.Networks[conn.Network] = vcd.VMNetwork{
			Index:          conn.ConnectionIndex,
			IP:             conn.IPAddress,
			ExternalIP:     conn.ExternalIPAddress,
			IsConnected:    conn.IsConnected,
			MACAddress:     conn.MACAddress,
			AllocationMode: conn.AllocationMode,
		}
	}

	return vm, nil
}

// SetNetworkConfig implements vcd.VMsClient.SetNetworkConfig. The NIC is
// flagged for customization so the guest picks up the new address.
func (c *VMsClient) SetNetworkConfig(ctx context.Context, vmID, networkName string, req *vcd.VMNetworkRequest) (string, error) {
	section := &vcd.NetworkConnectionSection{
		Xmlns:                  vcd.NsVCloud,
		XmlnsOVF:               vcd.NsOVF,
		Info:                   "VM Network configuration",
		PrimaryConnectionIndex: req.PrimaryIndex,
		NetworkConnection: &vcd.NetworkConnection{
			Network:            networkName,
			NeedsCustomization: "true",
			ConnectionIndex:    req.NetworkIndex,
			IPAddress:          req.IP,
			IsConnected:        fmt.Sprintf("%t", req.IsConnected),
			AllocationMode:     req.AllocationMode,
		},
	}

	body, err := xml.Marshal(section)
	if err != nil {
		return "", fmt.Errorf("encoding network connection section: %w", err)
	}

	resp, err := c.httpClient.Put(ctx, "/vApp/vm-"+vmID+"/networkConnectionSection", body, vcd.MimeNetworkConnection)
	if err != nil {
		return "", fmt.Errorf("setting VM network config: %w", err)
	}

	return taskIDFromLocation(resp)
}

// SetGuestCustomization implements vcd.VMsClient.SetGuestCustomization.
func (c *VMsClient) SetGuestCustomization(ctx context.Context, vmID, computerName string, req *vcd.GuestCustomizationRequest) (string, error) {
	section := &vcd.GuestCustomizationSection{
		Xmlns:                vcd.NsVCloud,
		XmlnsOVF:             vcd.NsOVF,
		Info:                 "VM Guest Customization configuration",
		Enabled:              req.Enabled,
		AdminPasswordEnabled: req.AdminPasswordEnabled,
		AdminPassword:        req.AdminPassword,
		ComputerName:         computerName,
	}

	body, err := xml.Marshal(section)
	if err != nil {
		return "", fmt.Errorf("encoding guest customization section: %w", err)
	}

	resp, err := c.httpClient.Put(ctx, "/vApp/vm-"+vmID+"/guestCustomizationSection", body, vcd.MimeGuestCustomization)
	if err != nil {
		return "", fmt.Errorf("setting guest customization: %w", err)
	}

	return taskIDFromLocation(resp)
}
