package vcd

import "encoding/xml"

// Request payload documents marshaled with encoding/xml. Elements that live
// in the OVF namespace use prefixed tag names with the namespace declared on
// the root element.

// UndeployVAppParams powers off or undeploys a vApp.
type UndeployVAppParams struct {
	XMLName     xml.Name `xml:"UndeployVAppParams"`
	Xmlns       string   `xml:"xmlns,attr"`
	PowerAction string   `xml:"UndeployPowerAction"`
}

// NewUndeployVAppParams builds the undeploy payload for the given action
// (e.g. "powerOff").
func NewUndeployVAppParams(action string) *UndeployVAppParams {
	return &UndeployVAppParams{Xmlns: NsVCloud, PowerAction: action}
}

// DeployVAppParams deploys a vApp, optionally forcing guest customization.
type DeployVAppParams struct {
	XMLName            xml.Name `xml:"DeployVAppParams"`
	Xmlns              string   `xml:"xmlns,attr"`
	ForceCustomization string   `xml:"forceCustomization,attr,omitempty"`
}

// CreateSnapshotParams takes a vApp snapshot.
type CreateSnapshotParams struct {
	XMLName     xml.Name `xml:"CreateSnapshotParams"`
	Xmlns       string   `xml:"xmlns,attr"`
	Description string   `xml:"Description"`
}

// InstantiateVAppTemplateParams creates a vApp from a catalog template.
type InstantiateVAppTemplateParams struct {
	XMLName     xml.Name       `xml:"InstantiateVAppTemplateParams"`
	Xmlns       string         `xml:"xmlns,attr"`
	XmlnsXSI    string         `xml:"xmlns:xsi,attr"`
	XmlnsOVF    string         `xml:"xmlns:ovf,attr"`
	Name        string         `xml:"name,attr"`
	Deploy      string         `xml:"deploy,attr"`
	PowerOn     string         `xml:"powerOn,attr"`
	Description string         `xml:"Description"`
	Source      SourceRef      `xml:"Source"`
}

// SourceRef references a source entity by href.
type SourceRef struct {
	Href string `xml:"href,attr"`
	Name string `xml:"name,attr,omitempty"`
}

// ComposeVAppParams composes a vApp from existing template VMs with a vApp
// network configuration.
type ComposeVAppParams struct {
	XMLName             xml.Name             `xml:"ComposeVAppParams"`
	Xmlns               string               `xml:"xmlns,attr"`
	XmlnsOVF            string               `xml:"xmlns:ovf,attr"`
	Name                string               `xml:"name,attr"`
	Description         string               `xml:"Description"`
	InstantiationParams *InstantiationParams `xml:"InstantiationParams"`
	SourcedItems        []SourcedItem        `xml:"SourcedItem"`
	AllEULAsAccepted    string               `xml:"AllEULAsAccepted"`
}

// InstantiationParams wraps the sections applied at instantiation time.
type InstantiationParams struct {
	NetworkConfigSection     *NetworkConfigSection     `xml:"NetworkConfigSection,omitempty"`
	NetworkConnectionSection *NetworkConnectionSection `xml:"NetworkConnectionSection,omitempty"`
}

// SourcedItem pulls one template VM into a composed vApp.
type SourcedItem struct {
	Source              SourceRef            `xml:"Source"`
	InstantiationParams *InstantiationParams `xml:"InstantiationParams,omitempty"`
	NetworkAssignment   *NetworkAssignment   `xml:"NetworkAssignment,omitempty"`
}

// NetworkAssignment maps a VM network onto a vApp network.
type NetworkAssignment struct {
	ContainerNetwork string `xml:"containerNetwork,attr"`
	InnerNetwork     string `xml:"innerNetwork,attr"`
}

// NetworkConfigSection configures a vApp network.
type NetworkConfigSection struct {
	XMLName       xml.Name       `xml:"NetworkConfigSection"`
	Xmlns         string         `xml:"xmlns,attr,omitempty"`
	XmlnsOVF      string         `xml:"xmlns:ovf,attr,omitempty"`
	Info          string         `xml:"ovf:Info"`
	NetworkConfig *NetworkConfig `xml:"NetworkConfig"`
}

// NetworkConfig is one named network configuration inside a
// NetworkConfigSection.
type NetworkConfig struct {
	NetworkName   string                `xml:"networkName,attr"`
	Configuration *NetworkConfiguration `xml:"Configuration"`
}

// NetworkConfiguration carries the IP scope, parent network, fence mode
// and network features of a vApp network.
type NetworkConfiguration struct {
	IPScopes      *IPScopes        `xml:"IpScopes,omitempty"`
	ParentNetwork *SourceRef       `xml:"ParentNetwork,omitempty"`
	FenceMode     string           `xml:"FenceMode,omitempty"`
	RetainNetInfo string           `xml:"RetainNetInfoAcrossDeployments,omitempty"`
	Features      *NetworkFeatures `xml:"Features,omitempty"`
}

// IPScopes wraps the IpScope list.
type IPScopes struct {
	IPScope IPScope `xml:"IpScope"`
}

// IPScope describes one address scope of a vApp network.
type IPScope struct {
	IsInherited string    `xml:"IsInherited"`
	Gateway     string    `xml:"Gateway"`
	Netmask     string    `xml:"Netmask"`
	DNS1        string    `xml:"Dns1,omitempty"`
	DNS2        string    `xml:"Dns2,omitempty"`
	DNSSuffix   string    `xml:"DnsSuffix,omitempty"`
	IPRanges    *IPRanges `xml:"IpRanges,omitempty"`
}

// IPRanges wraps the IpRange list.
type IPRanges struct {
	IPRange IPRange `xml:"IpRange"`
}

// IPRange is an inclusive address range.
type IPRange struct {
	StartAddress string `xml:"StartAddress"`
	EndAddress   string `xml:"EndAddress"`
}

// NetworkFeatures carries optional vApp network services.
type NetworkFeatures struct {
	FirewallService *FirewallService `xml:"FirewallService,omitempty"`
	NatService      *NatService      `xml:"NatService,omitempty"`
}

// FirewallService toggles the vApp network firewall.
type FirewallService struct {
	IsEnabled string `xml:"IsEnabled"`
}

// NatService configures port-forwarding NAT rules.
type NatService struct {
	IsEnabled string    `xml:"IsEnabled"`
	NatType   string    `xml:"NatType"`
	Policy    string    `xml:"Policy"`
	NatRules  []NatRule `xml:"NatRule"`
}

// NatRule wraps a single VM port-forwarding rule.
type NatRule struct {
	VMRule VMRule `xml:"VmRule"`
}

// VMRule forwards an external port to a VM NIC.
type VMRule struct {
	ExternalPort    int    `xml:"ExternalPort"`
	VAppScopedVMID  string `xml:"VAppScopedVmId"`
	VMNicID         int    `xml:"VmNicId"`
	InternalPort    int    `xml:"InternalPort"`
	Protocol        string `xml:"Protocol"`
}

// NetworkConnectionSection configures VM network connections.
type NetworkConnectionSection struct {
	XMLName                 xml.Name           `xml:"NetworkConnectionSection"`
	Xmlns                   string             `xml:"xmlns,attr,omitempty"`
	XmlnsOVF                string             `xml:"xmlns:ovf,attr,omitempty"`
	Type                    string             `xml:"type,attr,omitempty"`
	Href                    string             `xml:"href,attr,omitempty"`
	Info                    string             `xml:"ovf:Info"`
	PrimaryConnectionIndex  int                `xml:"PrimaryNetworkConnectionIndex"`
	NetworkConnection       *NetworkConnection `xml:"NetworkConnection"`
}

// NetworkConnection is one VM NIC attachment.
type NetworkConnection struct {
	Network            string `xml:"network,attr"`
	NeedsCustomization string `xml:"needsCustomization,attr,omitempty"`
	ConnectionIndex    int    `xml:"NetworkConnectionIndex"`
	IPAddress          string `xml:"IpAddress,omitempty"`
	IsConnected        string `xml:"IsConnected"`
	AllocationMode     string `xml:"IpAddressAllocationMode,omitempty"`
}

// GuestCustomizationSection configures VM guest customization.
type GuestCustomizationSection struct {
	XMLName              xml.Name `xml:"GuestCustomizationSection"`
	Xmlns                string   `xml:"xmlns,attr"`
	XmlnsOVF             string   `xml:"xmlns:ovf,attr"`
	Info                 string   `xml:"ovf:Info"`
	Enabled              string   `xml:"Enabled,omitempty"`
	AdminPasswordEnabled string   `xml:"AdminPasswordEnabled,omitempty"`
	AdminPassword        string   `xml:"AdminPassword,omitempty"`
	ComputerName         string   `xml:"ComputerName"`
}

// UploadVAppTemplateParams starts an OVF package upload against a vDC.
type UploadVAppTemplateParams struct {
	XMLName          xml.Name `xml:"UploadVAppTemplateParams"`
	Xmlns            string   `xml:"xmlns,attr"`
	XmlnsOVF         string   `xml:"xmlns:ovf,attr"`
	ManifestRequired string   `xml:"manifestRequired,attr"`
	Name             string   `xml:"name,attr"`
	Description      string   `xml:"Description"`
}

// MediaParams creates a media entity (ISO image) to be uploaded.
type MediaParams struct {
	XMLName     xml.Name `xml:"Media"`
	Xmlns       string   `xml:"xmlns,attr"`
	XmlnsOVF    string   `xml:"xmlns:ovf,attr"`
	Size        int64    `xml:"size,attr"`
	ImageType   string   `xml:"imageType,attr"`
	Name        string   `xml:"name,attr"`
	Description string   `xml:"Description"`
}

// CatalogItemParams registers an entity (template or media) in a catalog.
type CatalogItemParams struct {
	XMLName     xml.Name  `xml:"CatalogItem"`
	Xmlns       string    `xml:"xmlns,attr"`
	Type        string    `xml:"type,attr"`
	Name        string    `xml:"name,attr"`
	Description string    `xml:"Description"`
	Entity      SourceRef `xml:"Entity"`
}

// DiskCreateParams creates an independent disk in a vDC.
type DiskCreateParams struct {
	XMLName xml.Name  `xml:"DiskCreateParams"`
	Xmlns   string    `xml:"xmlns,attr"`
	Disk    DiskParam `xml:"Disk"`
}

// DiskParam is the disk element of DiskCreateParams.
type DiskParam struct {
	Name        string `xml:"name,attr"`
	Size        int64  `xml:"size,attr"`
	Description string `xml:"Description,omitempty"`
}

// DiskAttachOrDetachParams attaches or detaches an independent disk
// to/from a VM.
type DiskAttachOrDetachParams struct {
	XMLName xml.Name  `xml:"DiskAttachOrDetachParams"`
	Xmlns   string    `xml:"xmlns,attr"`
	Disk    SourceRef `xml:"Disk"`
}
