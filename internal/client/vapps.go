package client

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudgrid-io/vcd/internal/http"
	"github.com/cloudgrid-io/vcd/pkg/vcd"
)

// Static errors for err113 compliance.
var (
	ErrVAppNetworkNotFound = errors.New("network not found on this vApp")
)

// VAppsClient implements vcd.VAppsClient.
type VAppsClient struct {
	httpClient *http.Client
}

// NewVAppsClient creates a new vApps client.
func NewVAppsClient(httpClient *http.Client) *VAppsClient {
	return &VAppsClient{httpClient: httpClient}
}

// Wire shapes for the slices of vApp documents the client reads. Only the
// attributes and elements the condensed views need are mapped.
type vappDoc struct {
	Name           string             `xml:"name,attr"`
	Status         int                `xml:"status,attr"`
	Description    string             `xml:"Description"`
	NetworkConfigs []networkConfigDoc `xml:"NetworkConfigSection>NetworkConfig"`
	Children       struct {
		VMs []vappVMDoc `xml:"Vm"`
	} `xml:"Children"`
	Tasks []vcd.Task `xml:"Tasks>Task"`
}

type vappVMDoc struct {
	Name              string `xml:"name,attr"`
	Status            int    `xml:"status,attr"`
	Href              string `xml:"href,attr"`
	VAppScopedLocalID string `xml:"VAppScopedLocalId"`
	Connections       []struct {
		IPAddress string `xml:"ipAddress,attr"`
	} `xml:"VirtualHardwareSection>Item>Connection"`
	NetworkConnections []struct {
		IPAddress string `xml:"IpAddress"`
	} `xml:"NetworkConnectionSection>NetworkConnection"`
}

type networkConfigDoc struct {
	NetworkName   string `xml:"networkName,attr"`
	Configuration struct {
		IPScope struct {
			Gateway string `xml:"Gateway"`
			Netmask string `xml:"Netmask"`
		} `xml:"IpScopes>IpScope"`
		ParentNetwork *vcd.Reference `xml:"ParentNetwork"`
		FenceMode     string         `xml:"FenceMode"`
		RetainNetInfo string         `xml:"RetainNetInfoAcrossDeployments"`
		Features      struct {
			NatService struct {
				NatType string `xml:"NatType"`
				Policy  string `xml:"Policy"`
				Rules   []struct {
					ID     string `xml:"Id"`
					VMRule struct {
						ExternalIPAddress string `xml:"ExternalIpAddress"`
						ExternalPort      string `xml:"ExternalPort"`
						VAppScopedVMID    string `xml:"VAppScopedVmId"`
						VMNicID           string `xml:"VmNicId"`
						InternalPort      string `xml:"InternalPort"`
						Protocol          string `xml:"Protocol"`
					} `xml:"VmRule"`
				} `xml:"NatRule"`
			} `xml:"NatService"`
		} `xml:"Features"`
		RouterInfo struct {
			ExternalIP string `xml:"ExternalIp"`
		} `xml:"RouterInfo"`
	} `xml:"Configuration"`
}

type networkConfigSectionDoc struct {
	Configs []networkConfigDoc `xml:"NetworkConfig"`
}

// taskIDFromLocation extracts the spawned task identifier from the Location
// header of a 202 response.
func taskIDFromLocation(resp *http.Response) (string, error) {
	loc := resp.Location()
	if loc == "" {
		return "", vcd.ErrMissingLocation
	}

	return vcd.LastPathSegment(loc), nil
}

// taskIDByOperation finds the task spawned for a named operation, falling
// back to the first task in the document.
func taskIDByOperation(tasks []vcd.Task, operation string) string {
	for _, task := range tasks {
		if task.Operation == operation {
			return task.ID()
		}
	}

	if len(tasks) > 0 {
		return tasks[0].ID()
	}

	return ""
}

// Get implements vcd.VAppsClient.Get.
func (c *VAppsClient) Get(ctx context.Context, vappID string) (*vcd.VApp, error) {
	resp, err := c.httpClient.Get(ctx, "/vApp/vapp-"+vappID)
	if err != nil {
		return nil, fmt.Errorf("getting vApp: %w", err)
	}

	var doc vappDoc

	err = xml.Unmarshal(resp.Body, &doc)
	if err != nil {
		return nil, fmt.Errorf("parsing vApp: %w", err)
	}

	vapp := &vcd.VApp{
		ID:          vappID,
		Name:        doc.Name,
		Description: doc.Description,
		Status:      vcd.VAppStatusString(doc.Status),
		Networks:    make(map[string]vcd.VAppNetworkScope),
		VMs:         make(map[string]vcd.VAppVM),
	}

	for _, net := range doc.NetworkConfigs {
		if net.NetworkName == "none" {
			continue
		}

		scope := vcd.VAppNetworkScope{
			Gateway:       net.Configuration.IPScope.Gateway,
			Netmask:       net.Configuration.IPScope.Netmask,
			FenceMode:     net.Configuration.FenceMode,
			RetainNetInfo: net.Configuration.RetainNetInfo,
		}
		if net.Configuration.ParentNetwork != nil {
			scope.ParentNetwork = net.Configuration.ParentNetwork.Name
		}

		vapp.Networks[net.NetworkName] = scope
	}

	for _, vm := range doc.Children.VMs {
		addresses := make([]string, 0, len(vm.Connections))
		for _, conn := range vm.Connections {
			addresses = append(addresses, conn.IPAddress)
		}

		vapp.VMs[vm.Name] = vcd.VAppVM{
			ID:                strings.TrimPrefix(vcd.LastPathSegment(vm.Href), "vm-"),
			Status:            vcd.VAppStatusString(vm.Status),
			Addresses:         addresses,
			VAppScopedLocalID: vm.VAppScopedLocalID,
		}

		if vapp.IP == "" {
			for _, conn := range vm.NetworkConnections {
				if conn.IPAddress != "" {
					vapp.IP = conn.IPAddress

					break
				}
			}
		}
	}

	return vapp, nil
}

// Delete implements vcd.VAppsClient.Delete. The vApp is not checked for a
// stopped state first; a running vApp surfaces the server's invalid-state
// error.
func (c *VAppsClient) Delete(ctx context.Context, vappID string) (string, error) {
	resp, err := c.httpClient.Delete(ctx, "/vApp/vapp-"+vappID)
	if err != nil {
		return "", fmt.Errorf("deleting vApp: %w", err)
	}

	return taskIDFromLocation(resp)
}

// PowerOn implements vcd.VAppsClient.PowerOn.
func (c *VAppsClient) PowerOn(ctx context.Context, vappID string) (string, error) {
	return c.PowerAction(ctx, vappID, "powerOn")
}

// PowerAction implements vcd.VAppsClient.PowerAction.
func (c *VAppsClient) PowerAction(ctx context.Context, vappID, action string) (string, error) {
	resp, err := c.httpClient.Post(ctx, "/vApp/vapp-"+vappID+"/power/action/"+action, nil, "")
	if err != nil {
		return "", fmt.Errorf("invoking power action %s: %w", action, err)
	}

	return taskIDFromLocation(resp)
}

// PowerOff implements vcd.VAppsClient.PowerOff. The vApp is undeployed with
// the powerOff action rather than the bare power verb, which also releases
// its deployment resources.
func (c *VAppsClient) PowerOff(ctx context.Context, vappID string) (string, error) {
	body, err := xml.Marshal(vcd.NewUndeployVAppParams("powerOff"))
	if err != nil {
		return "", fmt.Errorf("encoding undeploy params: %w", err)
	}

	resp, err := c.httpClient.Post(ctx, "/vApp/vapp-"+vappID+"/action/undeploy", body, vcd.MimeUndeployVAppParams)
	if err != nil {
		return "", fmt.Errorf("powering off vApp: %w", err)
	}

	return taskIDFromLocation(resp)
}

// ForceCustomization implements vcd.VAppsClient.ForceCustomization.
func (c *VAppsClient) ForceCustomization(ctx context.Context, vappID string) (string, error) {
	body, err := xml.Marshal(&vcd.DeployVAppParams{
		Xmlns:              vcd.NsVCloud,
		ForceCustomization: "true",
	})
	if err != nil {
		return "", fmt.Errorf("encoding deploy params: %w", err)
	}

	resp, err := c.httpClient.Post(ctx, "/vApp/vapp-"+vappID+"/action/deploy", body, vcd.MimeDeployVAppParams)
	if err != nil {
		return "", fmt.Errorf("forcing customization: %w", err)
	}

	return taskIDFromLocation(resp)
}

// CreateSnapshot implements vcd.VAppsClient.CreateSnapshot.
func (c *VAppsClient) CreateSnapshot(ctx context.Context, vappID, description string) (string, error) {
	body, err := xml.Marshal(&vcd.CreateSnapshotParams{
		Xmlns:       vcd.NsVCloud,
		Description: description,
	})
	if err != nil {
		return "", fmt.Errorf("encoding snapshot params: %w", err)
	}

	resp, err := c.httpClient.Post(ctx, "/vApp/vapp-"+vappID+"/action/createSnapshot", body, vcd.MimeCreateSnapshotParams)
	if err != nil {
		return "", fmt.Errorf("creating snapshot: %w", err)
	}

	return taskIDFromLocation(resp)
}

// RevertSnapshot implements vcd.VAppsClient.RevertSnapshot.
func (c *VAppsClient) RevertSnapshot(ctx context.Context, vappID string) (string, error) {
	resp, err := c.httpClient.Post(ctx, "/vApp/vapp-"+vappID+"/action/revertToCurrentSnapshot", nil, "")
	if err != nil {
		return "", fmt.Errorf("reverting snapshot: %w", err)
	}

	return taskIDFromLocation(resp)
}

// CreateFromTemplate implements vcd.VAppsClient.CreateFromTemplate. The new
// vApp ID comes from the Location header and the instantiation task from
// the response body.
func (c *VAppsClient) CreateFromTemplate(ctx context.Context, vdcID, name, description, templateID string, powerOn bool) (*vcd.VAppCreation, error) {
	params := &vcd.InstantiateVAppTemplateParams{
		Xmlns:       vcd.NsVCloud,
		XmlnsXSI:    vcd.NsXSI,
		XmlnsOVF:    vcd.NsOVF,
		Name:        name,
		Deploy:      "true",
		PowerOn:     fmt.Sprintf("%t", powerOn),
		Description: description,
		Source: vcd.SourceRef{
			Href: c.httpClient.APIURL() + "/vAppTemplate/" + templateID,
		},
	}

	body, err := xml.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("encoding instantiate params: %w", err)
	}

	resp, err := c.httpClient.Post(ctx, "/vdc/"+vdcID+"/action/instantiateVAppTemplate", body, vcd.MimeInstantiateVAppParams)
	if err != nil {
		return nil, fmt.Errorf("instantiating vApp template: %w", err)
	}

	vappID, err := taskIDFromLocation(resp)
	if err != nil {
		return nil, err
	}

	var doc vappDoc

	err = xml.Unmarshal(resp.Body, &doc)
	if err != nil {
		return nil, fmt.Errorf("parsing instantiation response: %w", err)
	}

	return &vcd.VAppCreation{
		VAppID: strings.TrimPrefix(vappID, "vapp-"),
		TaskID: taskIDByOperation(doc.Tasks, "vdcInstantiateVapp"),
	}, nil
}

// Compose implements vcd.VAppsClient.Compose. vms maps VM names to template
// VM IDs; every sourced VM is attached to the composed vApp network.
func (c *VAppsClient) Compose(ctx context.Context, vdcID, name, description string, vms map[string]string, network *vcd.ComposeNetworkRequest) (*vcd.VAppCreation, error) {
	params := c.buildComposeParams(name, description, vms, network)

	body, err := xml.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("encoding compose params: %w", err)
	}

	resp, err := c.httpClient.Post(ctx, "/vdc/"+vdcID+"/action/composeVApp", body, vcd.MimeComposeVAppParams)
	if err != nil {
		return nil, fmt.Errorf("composing vApp: %w", err)
	}

	vappID, err := taskIDFromLocation(resp)
	if err != nil {
		return nil, err
	}

	var doc vappDoc

	err = xml.Unmarshal(resp.Body, &doc)
	if err != nil {
		return nil, fmt.Errorf("parsing compose response: %w", err)
	}

	return &vcd.VAppCreation{
		VAppID: strings.TrimPrefix(vappID, "vapp-"),
		TaskID: taskIDByOperation(doc.Tasks, "vdcComposeVapp"),
	}, nil
}

func (c *VAppsClient) buildComposeParams(name, description string, vms map[string]string, network *vcd.ComposeNetworkRequest) *vcd.ComposeVAppParams {
	isInherited := network.IsInherited
	fenceMode := network.FenceMode
	allocationMode := network.AllocationMode

	if allocationMode == "" {
		allocationMode = "POOL"
	}

	params := &vcd.ComposeVAppParams{
		Xmlns:            vcd.NsVCloud,
		XmlnsOVF:         vcd.NsOVF,
		Name:             name,
		Description:      description,
		AllEULAsAccepted: "true",
		InstantiationParams: &vcd.InstantiationParams{
			NetworkConfigSection: &vcd.NetworkConfigSection{
				Info: "Configuration parameters for logical networks",
				NetworkConfig: &vcd.NetworkConfig{
					NetworkName: network.Name,
					Configuration: &vcd.NetworkConfiguration{
						IPScopes: &vcd.IPScopes{
							IPScope: vcd.IPScope{
								IsInherited: fmt.Sprintf("%t", isInherited),
								Gateway:     network.Gateway,
								Netmask:     network.Netmask,
								DNS1:        network.DNS1,
								DNS2:        network.DNS2,
								DNSSuffix:   network.DNSSuffix,
								IPRanges: &vcd.IPRanges{
									IPRange: vcd.IPRange{
										StartAddress: network.StartAddress,
										EndAddress:   network.EndAddress,
									},
								},
							},
						},
						ParentNetwork: &vcd.SourceRef{
							Href: c.httpClient.APIURL() + "/network/" + network.ParentNetworkID,
						},
						FenceMode: fenceMode,
						Features: &vcd.NetworkFeatures{
							FirewallService: &vcd.FirewallService{
								IsEnabled: fmt.Sprintf("%t", network.EnableFirewall),
							},
						},
					},
				},
			},
		},
	}

	for vmName, vmID := range vms {
		vmHref := c.httpClient.APIURL() + "/vAppTemplate/vm-" + vmID

		params.SourcedItems = append(params.SourcedItems, vcd.SourcedItem{
			Source: vcd.SourceRef{Href: vmHref, Name: vmName},
			InstantiationParams: &vcd.InstantiationParams{
				NetworkConnectionSection: &vcd.NetworkConnectionSection{
					Xmlns:    vcd.NsVCloud,
					XmlnsOVF: vcd.NsOVF,
					Type:     vcd.MimeNetworkConnection,
					Href:     vmHref + "/networkConnectionSection/",
					Info:     "Network config for sourced item",
					NetworkConnection: &vcd.NetworkConnection{
						Network:        network.Name,
						IsConnected:    "true",
						AllocationMode: allocationMode,
					},
				},
			},
			NetworkAssignment: &vcd.NetworkAssignment{
				ContainerNetwork: network.Name,
				InnerNetwork:     network.Name,
			},
		})
	}

	return params
}

// networkConfigSection fetches and parses a vApp's network config section.
func (c *VAppsClient) networkConfigSection(ctx context.Context, vappID string) (*networkConfigSectionDoc, error) {
	resp, err := c.httpClient.Get(ctx, "/vApp/vapp-"+vappID+"/networkConfigSection")
	if err != nil {
		return nil, fmt.Errorf("getting network config section: %w", err)
	}

	var doc networkConfigSectionDoc

	err = xml.Unmarshal(resp.Body, &doc)
	if err != nil {
		return nil, fmt.Errorf("parsing network config section: %w", err)
	}

	return &doc, nil
}

// SetPortForwardingRules implements vcd.VAppsClient.SetPortForwardingRules.
// The section is replaced wholesale with the supplied NAT rules.
func (c *VAppsClient) SetPortForwardingRules(ctx context.Context, vappID, networkName string, req *vcd.PortForwardingRequest) (string, error) {
	fenceMode := req.FenceMode
	if fenceMode == "" {
		fenceMode = "isolated"
	}

	policy := req.PolicyType
	if policy == "" {
		policy = "allowTraffic"
	}

	natService := &vcd.NatService{
		IsEnabled: "true",
		NatType:   "portForwarding",
		Policy:    policy,
	}

	for _, rule := range req.Rules {
		protocol := rule.Protocol
		if protocol == "" {
			protocol = "TCP"
		}

		natService.NatRules = append(natService.NatRules, vcd.NatRule{
			VMRule: vcd.VMRule{
				ExternalPort:   rule.ExternalPort,
				VAppScopedVMID: rule.VMScopedLocalID,
				VMNicID:        rule.VMNicID,
				InternalPort:   rule.InternalPort,
				Protocol:       protocol,
			},
		})
	}

	section := &vcd.NetworkConfigSection{
		Xmlns:    vcd.NsVCloud,
		XmlnsOVF: vcd.NsOVF,
		Info:     "Network configuration",
		NetworkConfig: &vcd.NetworkConfig{
			NetworkName: networkName,
			Configuration: &vcd.NetworkConfiguration{
				ParentNetwork: &vcd.SourceRef{
					Href: c.httpClient.APIURL() + "/network/" + req.ParentNetworkID,
				},
				FenceMode: fenceMode,
				Features:  &vcd.NetworkFeatures{NatService: natService},
			},
		},
	}

	body, err := xml.Marshal(section)
	if err != nil {
		return "", fmt.Errorf("encoding network config section: %w", err)
	}

	resp, err := c.httpClient.Put(ctx, "/vApp/vapp-"+vappID+"/networkConfigSection", body, vcd.MimeNetworkConfigSection)
	if err != nil {
		return "", fmt.Errorf("setting port forwarding rules: %w", err)
	}

	return taskIDFromLocation(resp)
}

// GetPortForwardingRules implements vcd.VAppsClient.GetPortForwardingRules.
// The vApp network must be fenced natRouted with portForwarding NAT.
func (c *VAppsClient) GetPortForwardingRules(ctx context.Context, vappID string) (map[string]vcd.NatRuleInfo, error) {
	config, err := c.routedNetworkConfig(ctx, vappID)
	if err != nil {
		return nil, err
	}

	rules := make(map[string]vcd.NatRuleInfo)
	for _, rule := range config.Configuration.Features.NatService.Rules {
		rules[rule.ID] = vcd.NatRuleInfo{
			ID:             rule.ID,
			ExternalIP:     rule.VMRule.ExternalIPAddress,
			ExternalPort:   rule.VMRule.ExternalPort,
			VAppScopedVMID: rule.VMRule.VAppScopedVMID,
			VMNicID:        rule.VMRule.VMNicID,
			InternalPort:   rule.VMRule.InternalPort,
			Protocol:       rule.VMRule.Protocol,
		}
	}

	return rules, nil
}

// GetEdgePublicIP implements vcd.VAppsClient.GetEdgePublicIP. The external
// IP lives in the RouterInfo element of a natRouted vApp network.
func (c *VAppsClient) GetEdgePublicIP(ctx context.Context, vappID string) (string, error) {
	config, err := c.routedNetworkConfig(ctx, vappID)
	if err != nil {
		return "", err
	}

	return config.Configuration.RouterInfo.ExternalIP, nil
}

// routedNetworkConfig returns the first vApp network config, enforcing the
// natRouted/portForwarding preconditions shared by the edge inspections.
func (c *VAppsClient) routedNetworkConfig(ctx context.Context, vappID string) (*networkConfigDoc, error) {
	doc, err := c.networkConfigSection(ctx, vappID)
	if err != nil {
		return nil, err
	}

	if len(doc.Configs) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrVAppNetworkNotFound, vappID)
	}

	config := &doc.Configs[0]

	if config.Configuration.FenceMode != "natRouted" {
		return nil, &vcd.APIError{
			Kind:    vcd.ErrorKindInvalidState,
			Message: "invalid request because FenceMode must be set to natRouted",
		}
	}

	if config.Configuration.Features.NatService.NatType != "portForwarding" {
		return nil, &vcd.APIError{
			Kind:    vcd.ErrorKindInvalidState,
			Message: "invalid request because NatType must be set to portForwarding",
		}
	}

	return config, nil
}

// SetNetworkConfig implements vcd.VAppsClient.SetNetworkConfig. The
// existing section is fetched first so unspecified settings survive the
// round trip.
func (c *VAppsClient) SetNetworkConfig(ctx context.Context, vappID, networkName string, req *vcd.VAppNetworkRequest) (string, error) {
	doc, err := c.networkConfigSection(ctx, vappID)
	if err != nil {
		return "", err
	}

	var picked *networkConfigDoc

	for i := range doc.Configs {
		if doc.Configs[i].NetworkName == networkName {
			picked = &doc.Configs[i]

			break
		}
	}

	if picked == nil {
		return "", fmt.Errorf("%w: %s", ErrVAppNetworkNotFound, networkName)
	}

	fenceMode := picked.Configuration.FenceMode
	if req.FenceMode != "" {
		fenceMode = req.FenceMode
	}

	retain := picked.Configuration.RetainNetInfo
	if req.RetainNetInfo {
		retain = "true"
	}

	configuration := &vcd.NetworkConfiguration{
		IPScopes: &vcd.IPScopes{
			IPScope: vcd.IPScope{
				IsInherited: "true",
				Gateway:     picked.Configuration.IPScope.Gateway,
				Netmask:     picked.Configuration.IPScope.Netmask,
			},
		},
		FenceMode:     fenceMode,
		RetainNetInfo: retain,
	}

	switch {
	case req.ParentNetworkHref != "":
		configuration.ParentNetwork = &vcd.SourceRef{Href: req.ParentNetworkHref}
	case picked.Configuration.ParentNetwork != nil:
		configuration.ParentNetwork = &vcd.SourceRef{
			Href: picked.Configuration.ParentNetwork.Href,
			Name: picked.Configuration.ParentNetwork.Name,
		}
	}

	section := &vcd.NetworkConfigSection{
		Xmlns:    vcd.NsVCloud,
		XmlnsOVF: vcd.NsOVF,
		Info:     "Network configuration",
		NetworkConfig: &vcd.NetworkConfig{
			NetworkName:   networkName,
			Configuration: configuration,
		},
	}

	body, err := xml.Marshal(section)
	if err != nil {
		return "", fmt.Errorf("encoding network config section: %w", err)
	}

	resp, err := c.httpClient.Put(ctx, "/vApp/vapp-"+vappID+"/networkConfigSection", body, vcd.MimeNetworkConfigSection)
	if err != nil {
		return "", fmt.Errorf("setting network config: %w", err)
	}

	return taskIDFromLocation(resp)
}
