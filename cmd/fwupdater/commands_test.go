package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/muurk/fwupdater/internal/config"
	"github.com/muurk/fwupdater/internal/protocol"
)

// execute runs the root command with args and returns its output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	// Flag variables are package globals; reset them between runs.
	configPath = config.DefaultFile
	imagePath, serialPort, baudRate = "", "", 0
	forceInit = false
	outputFormat = "detailed"

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestParseHexArg(t *testing.T) {
	tests := []struct {
		in      string
		want    []byte
		wantErr bool
	}{
		{"aa55", []byte{0xAA, 0x55}, false},
		{"AA 55", []byte{0xAA, 0x55}, false},
		{"aa:55-02", []byte{0xAA, 0x55, 0x02}, false},
		{"0xaa55", []byte{0xAA, 0x55}, false},
		{"aa5", nil, true},
		{"zz", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseHexArg(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseHexArg(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !bytes.Equal(got, tt.want) {
				t.Errorf("parseHexArg(%q) = % x, want % x", tt.in, got, tt.want)
			}
		})
	}
}

func TestDecodeCommand(t *testing.T) {
	out, err := execute(t, "decode", "aa55 0200 0004 0000 0002 0000 0701 0000")
	if err != nil {
		t.Fatalf("decode error = %v\n%s", err, out)
	}
	for _, want := range []string{"SUCCESS", "0x00000400", "0x0107"} {
		if !strings.Contains(out, want) {
			t.Errorf("decode output missing %q:\n%s", want, out)
		}
	}

	out, err = execute(t, "decode", "aa55 0200 0004 0000 0002 0000 0000 0000")
	if err == nil {
		t.Fatalf("decode of bad checksum succeeded:\n%s", out)
	}
	if !strings.Contains(out, "FAILED") {
		t.Errorf("decode failure output missing FAILED:\n%s", out)
	}

	for _, in := range []string{
		"aa55",
		"aa55 0100 0000 0000 0000 0000 0001 0000 00",
		"aa55 0100 0000 0000 0000 0000 0001 0000 deadbeef",
	} {
		out, err := execute(t, "decode", in)
		if err == nil {
			t.Errorf("decode(%q) succeeded:\n%s", in, out)
			continue
		}
		if !strings.Contains(err.Error(), "exactly 16") {
			t.Errorf("decode(%q) error = %v, want length named", in, err)
		}
	}
}

func TestOverrideFlagsScopedToFlashAndShow(t *testing.T) {
	if _, err := execute(t, "decode", "--image", "fw.bin", "aa55 0100 0000 0000 0000 0000 0001 0000"); err == nil {
		t.Error("decode accepted --image")
	}
	if _, err := execute(t, "ports", "--baud", "9600"); err == nil {
		t.Error("ports accepted --baud")
	}
}

func TestFrameDetails(t *testing.T) {
	f := protocol.NewFrame(protocol.OpRequestChunk, 1536, 0x1234).Seal()
	d := frameDetails(f)

	if d["Opcode"] != "2 (request-chunk)" {
		t.Errorf("Opcode = %q", d["Opcode"])
	}
	if d["Address"] != "0x00000600 (1536)" {
		t.Errorf("Address = %q", d["Address"])
	}
	if d["Marker"] != "0x55AA" {
		t.Errorf("Marker = %q", d["Marker"])
	}
}

func TestConfigInitAndShow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "updater.json")

	if out, err := execute(t, "config", "init", "--config", path); err != nil {
		t.Fatalf("config init error = %v\n%s", err, out)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config file not created: %v", err)
	}

	out, err := execute(t, "config", "init", "--config", path)
	if err != nil {
		t.Fatalf("second config init error = %v", err)
	}
	if !strings.Contains(out, "WARNING") {
		t.Errorf("second init should warn, got:\n%s", out)
	}

	out, err = execute(t, "config", "show", "--config", path, "--format", "json", "--baud", "9600")
	if err != nil {
		t.Fatalf("config show error = %v\n%s", err, out)
	}
	var got config.Config
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("config show json output invalid: %v\n%s", err, out)
	}
	if got.BaudRate != 9600 || got.Path != config.DefaultImagePath {
		t.Errorf("config show = %+v, want defaults with baud 9600", got)
	}

	// The file itself keeps its defaults.
	saved, err := config.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if saved.BaudRate != config.DefaultBaudRate {
		t.Errorf("override leaked into file: baud %d", saved.BaudRate)
	}

	if _, err := execute(t, "config", "show", "--config", path, "--format", "xml"); err == nil {
		t.Error("config show --format xml succeeded")
	}
}

func TestConfigShowOverrideFixesBadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "updater.json")
	if err := os.WriteFile(path, []byte(`{"path": "", "baud_rate": 115200}`), 0644); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, "config", "show", "--config", path, "--format", "json", "--image", "fw.bin")
	if err != nil {
		t.Fatalf("config show error = %v\n%s", err, out)
	}
	var got config.Config
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("config show json output invalid: %v\n%s", err, out)
	}
	if got.Path != "fw.bin" {
		t.Errorf("Path = %q, want fw.bin", got.Path)
	}

	_, err = execute(t, "config", "show", "--config", path, "--format", "json")
	if err == nil {
		t.Fatal("config show with empty path and no override succeeded")
	}
	if n := strings.Count(err.Error(), "invalid configuration"); n != 1 {
		t.Errorf("error %q wraps %q %d times, want once", err, "invalid configuration", n)
	}
}

func TestScanCommand(t *testing.T) {
	dir := t.TempDir()

	good := filepath.Join(dir, "good.bin")
	var capture []byte
	capture = append(capture, protocol.Frame{Marker: protocol.Marker, Opcode: protocol.OpRequestChunk, Aux: protocol.ChunkSize}.Seal().Encode()...)
	capture = append(capture, protocol.Frame{Marker: protocol.Marker, Opcode: protocol.OpReportStatus, Status: protocol.StatusDone}.Seal().Encode()...)
	if err := os.WriteFile(good, capture, 0644); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, "scan", good)
	if err != nil {
		t.Fatalf("scan error = %v\n%s", err, out)
	}
	if !strings.Contains(out, "2 valid") {
		t.Errorf("scan output missing frame count:\n%s", out)
	}

	bad := filepath.Join(dir, "bad.bin")
	corrupt := bytes.Clone(capture)
	corrupt[5] ^= 0x01
	if err := os.WriteFile(bad, corrupt, 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := execute(t, "scan", bad); err == nil {
		t.Error("scan of corrupt capture succeeded")
	}

	if _, err := execute(t, "scan", filepath.Join(dir, "absent.bin")); err == nil {
		t.Error("scan of missing file succeeded")
	}
}
