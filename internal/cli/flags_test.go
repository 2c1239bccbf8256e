package cli

import (
	"bytes"
	"reflect"
	"strings"
	"testing"
)

func TestParseToolCallArgsSupportsPositionalJSONObject(t *testing.T) {
	parsed, err := parseToolCallArgs([]string{`{"length":10,"name":"Base"}`}, nil, true)
	if err != nil {
		t.Fatalf("parseToolCallArgs() error = %v", err)
	}
	if parsed.toolArgs["name"] != "Base" {
		t.Fatalf("name = %v, want Base", parsed.toolArgs["name"])
	}
	if length, ok := parsed.toolArgs["length"].(float64); !ok || length != 10 {
		t.Fatalf("length = %#v, want 10", parsed.toolArgs["length"])
	}
}

func TestParseToolCallArgsCoercesFlagValues(t *testing.T) {
	parsed, err := parseToolCallArgs([]string{
		"--length=10", "--width", "5", "--z", "-2.5", "--auto_select_all", "--no-visible", "--object_name", "Box",
	}, nil, true)
	if err != nil {
		t.Fatalf("parseToolCallArgs() error = %v", err)
	}

	want := map[string]any{
		"length":          10.0,
		"width":           5.0,
		"z":               -2.5,
		"auto_select_all": true,
		"visible":         false,
		"object_name":     "Box",
	}
	if !reflect.DeepEqual(parsed.toolArgs, want) {
		t.Fatalf("toolArgs = %#v, want %#v", parsed.toolArgs, want)
	}
}

func TestParseToolCallArgsRepeatedFlagsBuildList(t *testing.T) {
	parsed, err := parseToolCallArgs([]string{"--objects=Box", "--objects=Sphere"}, nil, true)
	if err != nil {
		t.Fatalf("parseToolCallArgs() error = %v", err)
	}
	want := []any{"Box", "Sphere"}
	if !reflect.DeepEqual(parsed.toolArgs["objects"], want) {
		t.Fatalf("objects = %#v, want %#v", parsed.toolArgs["objects"], want)
	}
}

func TestParseToolCallArgsJSONOutputAndSeparator(t *testing.T) {
	parsed, err := parseToolCallArgs([]string{"--json", "--", "--json=raw"}, nil, true)
	if err != nil {
		t.Fatalf("parseToolCallArgs() error = %v", err)
	}
	if !parsed.jsonOut {
		t.Fatal("output mode is not JSON")
	}
	if parsed.toolArgs["json"] != "raw" {
		t.Fatalf("tool json = %v, want raw", parsed.toolArgs["json"])
	}
}

func TestParseToolCallArgsReadsStdin(t *testing.T) {
	stdin := bytes.NewBufferString(`{"operation":"list_objects"}`)
	parsed, err := parseToolCallArgs(nil, stdin, false)
	if err != nil {
		t.Fatalf("parseToolCallArgs() error = %v", err)
	}
	if parsed.toolArgs["operation"] != "list_objects" {
		t.Fatalf("operation = %v, want list_objects", parsed.toolArgs["operation"])
	}
}

func TestParseToolCallArgsIgnoresStdinWhenTTY(t *testing.T) {
	stdin := bytes.NewBufferString(`{"operation":"list_objects"}`)
	parsed, err := parseToolCallArgs(nil, stdin, true)
	if err != nil {
		t.Fatalf("parseToolCallArgs() error = %v", err)
	}
	if len(parsed.toolArgs) != 0 {
		t.Fatalf("toolArgs = %#v, want empty", parsed.toolArgs)
	}
}

func TestParseToolCallArgsRejectsMixedForms(t *testing.T) {
	cases := [][]string{
		{`{"a":1}`, "--b=2"},
		{"--b=2", "positional"},
		{`{"a":1}`, `{"b":2}`},
		{"-x"},
		{`[1,2]`},
	}
	for _, args := range cases {
		if _, err := parseToolCallArgs(args, nil, true); err == nil {
			t.Errorf("parseToolCallArgs(%q) error = nil, want error", strings.Join(args, " "))
		}
	}
}
