/*
SPDX-FileCopyrightText: 2025 Deutsche Telekom AG

SPDX-License-Identifier: Apache-2.0
*/

package output

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{in: "", want: FormatTable},
		{in: "table", want: FormatTable},
		{in: "JSON", want: FormatJSON},
		{in: " yaml ", want: FormatYAML},
		{in: "xml", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWriteObject_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteObject(&buf, FormatJSON, map[string]int{"count": 42}))

	var result map[string]int
	require.NoError(t, json.Unmarshal(buf.Bytes(), &result))
	assert.Equal(t, 42, result["count"])
}

func TestWriteObject_RawJSONIsIndented(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteObject(&buf, FormatJSON, json.RawMessage(`{"displayName":"Adele"}`)))
	assert.Equal(t, "{\n  \"displayName\": \"Adele\"\n}\n", buf.String())
}

func TestWriteObject_YAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteObject(&buf, FormatYAML, struct {
		Name string `yaml:"name"`
	}{"test"}))

	var result map[string]string
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &result))
	assert.Equal(t, "test", result["name"])
}

func TestWriteObject_Errors(t *testing.T) {
	var buf bytes.Buffer
	require.Error(t, WriteObject(&buf, FormatTable, nil))
	require.ErrorContains(t, WriteObject(&buf, Format("xml"), nil), "unknown output format")
	require.Error(t, WriteObject(&buf, FormatJSON, make(chan int)))
}
