package vcd_test

import (
	"bytes"
	"encoding/xml"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloudgrid-io/vcd/pkg/vcd"
)

func errorDoc(message string) []byte {
	var escaped bytes.Buffer
	_ = xml.EscapeText(&escaped, []byte(message))

	return []byte(`<Error xmlns="http://www.vmware.com/vcloud/v1.5" message="` + escaped.String() + `" majorErrorCode="400" minorErrorCode="BAD_REQUEST"/>`)
}

func TestClassifyResponseBadRequestRules(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		message    string
		check      func(error) bool
		wantInMsg  string
		wantEntity string
	}{
		{
			name:      "invalid accept header",
			message:   "The request has invalid accept header: application/*+xml;version=9.9",
			check:     vcd.IsWrongAPIVersion,
			wantInMsg: "v.5.1",
		},
		{
			name:      "malformed identifier",
			message:   "validation error on field 'id': String value has invalid format or length",
			check:     vcd.IsWrongIdentifier,
			wantInMsg: "invalid ID specified",
		},
		{
			name:       "vApp running",
			message:    `The requested operation could not be executed on vApp "web-tier". Stop the vApp and try again`,
			check:      vcd.IsInvalidState,
			wantInMsg:  "stop vApp 'web-tier'",
			wantEntity: "web-tier",
		},
		{
			name:       "vApp stopped",
			message:    `The requested operation could not be executed since vApp "web-tier" is not running`,
			check:      vcd.IsInvalidState,
			wantInMsg:  "start vApp 'web-tier'",
			wantEntity: "web-tier",
		},
		{
			name:      "unrecognized message falls through",
			message:   "Something nobody has seen before",
			check:     vcd.IsUnhandled,
			wantInMsg: "Please report this issue",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := vcd.ClassifyResponse("POST", "/vApp/vapp-1/power/action/powerOn", 400, errorDoc(tt.message), "5.1")
			require.Error(t, err)
			assert.True(t, tt.check(err))
			assert.Contains(t, err.Error(), tt.wantInMsg)

			apiErr := &vcd.APIError{}
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, 400, apiErr.StatusCode)
			assert.Equal(t, "400", apiErr.MajorErrorCode)

			if tt.wantEntity != "" {
				assert.Equal(t, tt.wantEntity, apiErr.EntityName)
			}
		})
	}
}

func TestClassifyResponseStatusBuckets(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		status int
		check  func(error) bool
	}{
		{"forbidden", 403, vcd.IsAuthentication},
		{"method not allowed", 405, vcd.IsMethodNotAllowed},
		{"server error", 500, vcd.IsServerError},
		{"unknown status", 502, vcd.IsUnhandled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := vcd.ClassifyResponse("GET", "/org", tt.status, errorDoc("detail"), "5.1")
			require.Error(t, err)
			assert.True(t, tt.check(err))
			assert.Contains(t, err.Error(), "detail")
		})
	}
}

func TestClassifyResponse401IgnoresBody(t *testing.T) {
	t.Parallel()

	// 401 responses often carry no parseable body at all.
	err := vcd.ClassifyResponse("GET", "/org", 401, []byte("not xml"), "5.1")
	require.Error(t, err)
	assert.True(t, vcd.IsAuthentication(err))
	assert.Contains(t, err.Error(), "check your credentials")
}

func TestClassifyResponse405EmbedsMethodAndPath(t *testing.T) {
	t.Parallel()

	err := vcd.ClassifyResponse("PUT", "/vdc/1", 405, errorDoc("not allowed"), "5.1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PUT")
	assert.Contains(t, err.Error(), "/vdc/1")
}

func TestClassifyResponseMalformedBody(t *testing.T) {
	t.Parallel()

	err := vcd.ClassifyResponse("GET", "/org", 500, []byte("<<<garbage"), "5.1")
	require.Error(t, err)
	assert.ErrorIs(t, err, vcd.ErrMalformedErrorBody)
	assert.False(t, vcd.IsServerError(err))
}

func TestIsKindHelpersRejectOtherErrors(t *testing.T) {
	t.Parallel()

	plain := errors.New("plain")

	assert.False(t, vcd.IsAuthentication(plain))
	assert.False(t, vcd.IsServerError(plain))
	assert.False(t, vcd.IsInvalidState(plain))
	assert.False(t, vcd.IsUnhandled(nil))
}

func TestParseErrorBody(t *testing.T) {
	t.Parallel()

	body, err := vcd.ParseErrorBody(errorDoc("boom"))
	require.NoError(t, err)
	assert.Equal(t, "boom", body.Message)
	assert.Equal(t, "400", body.MajorErrorCode)
	assert.Equal(t, "BAD_REQUEST", body.MinorErrorCode)
}
