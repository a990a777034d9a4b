// Package vcd provides the public API surface for the vCloud Director
// REST API client: the Client interface, configuration, the typed error
// taxonomy, and the XML resource records exchanged with the server.
//
// Create clients with github.com/cloudgrid-io/vcd/pkg/vcdclient:
//
//	client, err := vcdclient.New(&vcd.Config{
//		Host:     "https://vcloud.example.com",
//		Username: "operator",
//		Org:      "my-org",
//		Password: "secret",
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	task, err := client.VApps().PowerOn(ctx, vappID)
//	if err != nil {
//		log.Fatal(err)
//	}
//	_, err = client.Tasks().Wait(ctx, task)
//
// All long-running server operations return a task identifier that can be
// polled to completion with Tasks().Wait.
package vcd
