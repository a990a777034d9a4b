package client

import (
	"context"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloudgrid-io/vcd/internal/auth"
	"github.com/cloudgrid-io/vcd/internal/http"
	"github.com/cloudgrid-io/vcd/pkg/vcd"
)

const vappGetDoc = `<VApp xmlns="http://www.vmware.com/vcloud/v1.5" name="web-tier" status="4" href="https://vcloud.example.com/api/vApp/vapp-1">
	<Description>Web frontends</Description>
	<NetworkConfigSection>
		<NetworkConfig networkName="none">
			<Configuration><FenceMode>isolated</FenceMode></Configuration>
		</NetworkConfig>
		<NetworkConfig networkName="app-net">
			<Configuration>
				<IpScopes><IpScope>
					<Gateway>10.0.0.1</Gateway>
					<Netmask>255.255.255.0</Netmask>
				</IpScope></IpScopes>
				<ParentNetwork name="org-net" href="https://vcloud.example.com/api/network/net-1"/>
				<FenceMode>natRouted</FenceMode>
				<RetainNetInfoAcrossDeployments>false</RetainNetInfoAcrossDeployments>
			</Configuration>
		</NetworkConfig>
	</NetworkConfigSection>
	<Children>
		<Vm name="web-0" status="8" href="https://vcloud.example.com/api/vApp/vm-123">
			<VAppScopedLocalId>web-0-local</VAppScopedLocalId>
			<VirtualHardwareSection>
				<Item><Connection ipAddress="10.0.0.10">app-net</Connection></Item>
			</VirtualHardwareSection>
			<NetworkConnectionSection>
				<NetworkConnection network="app-net"><IpAddress>10.0.0.10</IpAddress></NetworkConnection>
			</NetworkConnectionSection>
		</Vm>
	</Children>
</VApp>`

func newVAppsTestClient(serverURL string) *VAppsClient {
	return NewVAppsClient(http.NewClient(serverURL, auth.NewTokenSession("token")))
}

func TestVAppsGet(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		require.Equal(t, "/api/vApp/vapp-1", r.URL.Path)
		_, _ = w.Write([]byte(vappGetDoc))
	}))
	defer server.Close()

	vapp, err := newVAppsTestClient(server.URL).Get(context.Background(), "1")
	require.NoError(t, err)

	assert.Equal(t, "1", vapp.ID)
	assert.Equal(t, "web-tier", vapp.Name)
	assert.Equal(t, "Web frontends", vapp.Description)
	assert.Equal(t, "running", vapp.Status)
	assert.Equal(t, "10.0.0.10", vapp.IP)

	// The placeholder "none" network is dropped from the view.
	require.Len(t, vapp.Networks, 1)
	scope := vapp.Networks["app-net"]
	assert.Equal(t, "10.0.0.1", scope.Gateway)
	assert.Equal(t, "255.255.255.0", scope.Netmask)
	assert.Equal(t, "natRouted", scope.FenceMode)
	assert.Equal(t, "org-net", scope.ParentNetwork)

	require.Len(t, vapp.VMs, 1)
	vm := vapp.VMs["web-0"]
	assert.Equal(t, "123", vm.ID)
	assert.Equal(t, "stopped", vm.Status)
	assert.Equal(t, []string{"10.0.0.10"}, vm.Addresses)
	assert.Equal(t, "web-0-local", vm.VAppScopedLocalID)
}

func TestVAppsPowerActionReturnsTaskFromLocation(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		require.Equal(t, nethttp.MethodPost, r.Method)
		require.Equal(t, "/api/vApp/vapp-1/power/action/powerOn", r.URL.Path)

		w.Header().Set("Location", "https://vcloud.example.com/api/task/task-9")
		w.WriteHeader(nethttp.StatusAccepted)
	}))
	defer server.Close()

	taskID, err := newVAppsTestClient(server.URL).PowerOn(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, "task-9", taskID)
}

func TestVAppsPowerActionMissingLocation(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		w.WriteHeader(nethttp.StatusAccepted)
	}))
	defer server.Close()

	_, err := newVAppsTestClient(server.URL).PowerAction(context.Background(), "1", "reset")
	assert.ErrorIs(t, err, vcd.ErrMissingLocation)
}

func TestVAppsDelete(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		require.Equal(t, nethttp.MethodDelete, r.Method)
		require.Equal(t, "/api/vApp/vapp-1", r.URL.Path)

		w.Header().Set("Location", "https://vcloud.example.com/api/task/task-3")
		w.WriteHeader(nethttp.StatusAccepted)
	}))
	defer server.Close()

	taskID, err := newVAppsTestClient(server.URL).Delete(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, "task-3", taskID)
}

func TestVAppsPowerOffUndeploys(t *testing.T) {
	t.Parallel()

	var body []byte

	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		require.Equal(t, "/api/vApp/vapp-1/action/undeploy", r.URL.Path)
		require.Equal(t, vcd.MimeUndeployVAppParams, r.Header.Get("Content-Type"))

		body, _ = io.ReadAll(r.Body)

		w.Header().Set("Location", "https://vcloud.example.com/api/task/task-4")
		w.WriteHeader(nethttp.StatusAccepted)
	}))
	defer server.Close()

	taskID, err := newVAppsTestClient(server.URL).PowerOff(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, "task-4", taskID)
	assert.Contains(t, string(body), "powerOff")
}

func TestVAppsCreateFromTemplate(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		require.Equal(t, "/api/vdc/vdc-1/action/instantiateVAppTemplate", r.URL.Path)
		require.Equal(t, vcd.MimeInstantiateVAppParams, r.Header.Get("Content-Type"))

		w.Header().Set("Location", "https://vcloud.example.com/api/vApp/vapp-77")
		w.WriteHeader(nethttp.StatusCreated)
		_, _ = w.Write([]byte(`<VApp xmlns="http://www.vmware.com/vcloud/v1.5" name="new-vapp" status="8">
			<Tasks>
				<Task href="https://vcloud.example.com/api/task/task-ignored" status="running" operationName="somethingElse"/>
				<Task href="https://vcloud.example.com/api/task/task-42" status="running" operationName="vdcInstantiateVapp"/>
			</Tasks>
		</VApp>`))
	}))
	defer server.Close()

	creation, err := newVAppsTestClient(server.URL).CreateFromTemplate(context.Background(), "vdc-1", "new-vapp", "desc", "template-1", true)
	require.NoError(t, err)
	assert.Equal(t, "77", creation.VAppID)
	assert.Equal(t, "task-42", creation.TaskID)
}

func natRoutedSectionDoc(natType string) string {
	return `<NetworkConfigSection xmlns="http://www.vmware.com/vcloud/v1.5">
	<NetworkConfig networkName="app-net">
		<Configuration>
			<FenceMode>natRouted</FenceMode>
			<Features>
				<NatService>
					<NatType>` + natType + `</NatType>
					<Policy>allowTraffic</Policy>
					<NatRule>
						<Id>65537</Id>
						<VmRule>
							<ExternalIpAddress>203.0.113.10</ExternalIpAddress>
							<ExternalPort>2222</ExternalPort>
							<VAppScopedVmId>web-0-local</VAppScopedVmId>
							<VmNicId>0</VmNicId>
							<InternalPort>22</InternalPort>
							<Protocol>TCP</Protocol>
						</VmRule>
					</NatRule>
				</NatService>
			</Features>
			<RouterInfo><ExternalIp>203.0.113.10</ExternalIp></RouterInfo>
		</Configuration>
	</NetworkConfig>
</NetworkConfigSection>`
}

func TestVAppsGetPortForwardingRules(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		require.Equal(t, "/api/vApp/vapp-1/networkConfigSection", r.URL.Path)
		_, _ = w.Write([]byte(natRoutedSectionDoc("portForwarding")))
	}))
	defer server.Close()

	rules, err := newVAppsTestClient(server.URL).GetPortForwardingRules(context.Background(), "1")
	require.NoError(t, err)
	require.Len(t, rules, 1)

	rule := rules["65537"]
	assert.Equal(t, "203.0.113.10", rule.ExternalIP)
	assert.Equal(t, "2222", rule.ExternalPort)
	assert.Equal(t, "web-0-local", rule.VAppScopedVMID)
	assert.Equal(t, "22", rule.InternalPort)
	assert.Equal(t, "TCP", rule.Protocol)
}

func TestVAppsGetPortForwardingRulesPreconditions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		doc     string
		wantMsg string
	}{
		{
			name:    "wrong fence mode",
			doc:     `<NetworkConfigSection xmlns="http://www.vmware.com/vcloud/v1.5"><NetworkConfig networkName="app-net"><Configuration><FenceMode>bridged</FenceMode></Configuration></NetworkConfig></NetworkConfigSection>`,
			wantMsg: "FenceMode must be set to natRouted",
		},
		{
			name:    "wrong nat type",
			doc:     natRoutedSectionDoc("ipTranslation"),
			wantMsg: "NatType must be set to portForwarding",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
				_, _ = w.Write([]byte(tt.doc))
			}))
			defer server.Close()

			_, err := newVAppsTestClient(server.URL).GetPortForwardingRules(context.Background(), "1")
			require.Error(t, err)
			assert.True(t, vcd.IsInvalidState(err))
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestVAppsGetPortForwardingRulesNoNetworks(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		_, _ = w.Write([]byte(`<NetworkConfigSection xmlns="http://www.vmware.com/vcloud/v1.5"/>`))
	}))
	defer server.Close()

	_, err := newVAppsTestClient(server.URL).GetPortForwardingRules(context.Background(), "1")
	assert.ErrorIs(t, err, ErrVAppNetworkNotFound)
}

func TestVAppsGetEdgePublicIP(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		_, _ = w.Write([]byte(natRoutedSectionDoc("portForwarding")))
	}))
	defer server.Close()

	ip, err := newVAppsTestClient(server.URL).GetEdgePublicIP(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, "203.0.113.10", ip)
}

func TestVAppsSetPortForwardingRules(t *testing.T) {
	t.Parallel()

	var body []byte

	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		require.Equal(t, nethttp.MethodPut, r.Method)
		require.Equal(t, "/api/vApp/vapp-1/networkConfigSection", r.URL.Path)
		require.Equal(t, vcd.MimeNetworkConfigSection, r.Header.Get("Content-Type"))

		body, _ = io.ReadAll(r.Body)

		w.Header().Set("Location", "https://vcloud.example.com/api/task/task-8")
		w.WriteHeader(nethttp.StatusAccepted)
	}))
	defer server.Close()

	taskID, err := newVAppsTestClient(server.URL).SetPortForwardingRules(context.Background(), "1", "app-net", &vcd.PortForwardingRequest{
		ParentNetworkID: "net-1",
		FenceMode:       "natRouted",
		Rules: []vcd.PortForwardingRule{
			{ExternalPort: 2222, VMScopedLocalID: "web-0-local", VMNicID: 0, InternalPort: 22},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "task-8", taskID)

	payload := string(body)
	assert.Contains(t, payload, "portForwarding")
	assert.Contains(t, payload, "2222")
	// Protocol defaults to TCP when a rule leaves it empty.
	assert.Contains(t, payload, "TCP")
}
