package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/pleimann/tap-pad/internal/gesture"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write temp config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	content := `
source: hid

device:
  vendor_id: 0x1234
  product_id: 0x5678
  reconnect_interval_ms: 500

timing:
  hold_ms: 600
  double_tap_ms: 250
  debounce_ms: 20
  poll_interval_ms: 2

tui:
  command: "test-app"
  args: ["--flag", "value"]
  working_dir: "/tmp"

buttons:
  - index: 0
    name: btn_a
    inverted: true
    hold_ms: 800
    actions:
      single_tap:
        keys: ["ctrl+c"]
      double_tap:
        keys: ["ctrl+z"]
      hold:
        keys: ["q", "enter"]
    suppress:
      hold: [long_release, release]

  - index: 3
    name: btn_b
    actions:
      press:
        keys: ["down"]

display:
  enabled: true
  width: 128
  height: 32
  update_interval_ms: 50
`

	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Source != SourceHID {
		t.Errorf("Source = %q, want hid", cfg.Source)
	}
	if cfg.Device.VendorID != 0x1234 {
		t.Errorf("VendorID = 0x%04X, want 0x1234", cfg.Device.VendorID)
	}
	if cfg.Device.ProductID != 0x5678 {
		t.Errorf("ProductID = 0x%04X, want 0x5678", cfg.Device.ProductID)
	}
	if cfg.Device.ReconnectIntervalMs != 500 {
		t.Errorf("ReconnectIntervalMs = %d, want 500", cfg.Device.ReconnectIntervalMs)
	}

	if cfg.Timing.HoldMs != 600 || cfg.Timing.DoubleTapMs != 250 {
		t.Errorf("Timing = %+v, want hold 600 double tap 250", cfg.Timing)
	}
	if got := cfg.Timing.PollInterval(); got != 2*time.Millisecond {
		t.Errorf("PollInterval() = %v, want 2ms", got)
	}
	if got := cfg.Timing.Debounce(); got != 20*time.Millisecond {
		t.Errorf("Debounce() = %v, want 20ms", got)
	}

	if cfg.TUI.Command != "test-app" {
		t.Errorf("Command = %q, want %q", cfg.TUI.Command, "test-app")
	}
	if !reflect.DeepEqual(cfg.TUI.Args, []string{"--flag", "value"}) {
		t.Errorf("Args = %v, want [--flag value]", cfg.TUI.Args)
	}

	if len(cfg.Buttons) != 2 {
		t.Fatalf("len(Buttons) = %d, want 2", len(cfg.Buttons))
	}
	btn := cfg.Buttons[0]
	if btn.Index != 0 || btn.Label() != "btn_a" {
		t.Errorf("Button[0] = {%d, %s}, want {0, btn_a}", btn.Index, btn.Label())
	}
	if got := btn.HoldDuration(cfg.Timing); got != 800*time.Millisecond {
		t.Errorf("Button[0].HoldDuration() = %v, want 800ms", got)
	}
	if got := btn.DoubleTapInterval(cfg.Timing); got != 250*time.Millisecond {
		t.Errorf("Button[0].DoubleTapInterval() = %v, want 250ms", got)
	}
	if !btn.IsInverted(cfg.Source) {
		t.Error("Button[0].IsInverted() = false, want true")
	}
	if !reflect.DeepEqual(btn.Actions["hold"].Keys, []string{"q", "enter"}) {
		t.Errorf("Button[0] hold keys = %v, want [q enter]", btn.Actions["hold"].Keys)
	}
	wantRules := map[gesture.Event]gesture.Event{
		gesture.Hold: gesture.LongRelease | gesture.Release,
	}
	if got := btn.SuppressRules(); !reflect.DeepEqual(got, wantRules) {
		t.Errorf("Button[0].SuppressRules() = %v, want %v", got, wantRules)
	}

	if cfg.Buttons[1].IsInverted(cfg.Source) {
		t.Error("Button[1].IsInverted() = true, want false for hid")
	}

	if !cfg.Display.Enabled || cfg.Display.Height != 32 {
		t.Errorf("Display = %+v, want enabled 128x32", cfg.Display)
	}
}

func TestLoadDefaults(t *testing.T) {
	content := `
device:
  vendor_id: 0x1234
  product_id: 0x5678

buttons:
  - index: 0
`

	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Source != SourceHID {
		t.Errorf("Source = %q, want default hid", cfg.Source)
	}
	if cfg.Timing.HoldMs != 400 {
		t.Errorf("HoldMs = %d, want default 400", cfg.Timing.HoldMs)
	}
	if cfg.Timing.DoubleTapMs != 150 {
		t.Errorf("DoubleTapMs = %d, want default 150", cfg.Timing.DoubleTapMs)
	}
	if cfg.Timing.DebounceMs != 10 {
		t.Errorf("DebounceMs = %d, want default 10", cfg.Timing.DebounceMs)
	}
	if cfg.Timing.PollIntervalMs != 5 {
		t.Errorf("PollIntervalMs = %d, want default 5", cfg.Timing.PollIntervalMs)
	}
	if cfg.Device.ReconnectIntervalMs != 1000 {
		t.Errorf("ReconnectIntervalMs = %d, want default 1000", cfg.Device.ReconnectIntervalMs)
	}
	if cfg.GPIO.Chip != "gpiochip0" {
		t.Errorf("GPIO.Chip = %q, want default gpiochip0", cfg.GPIO.Chip)
	}
	if cfg.Display.Width != 128 || cfg.Display.Height != 64 {
		t.Errorf("Display size = %dx%d, want default 128x64", cfg.Display.Width, cfg.Display.Height)
	}
	if cfg.Display.UpdateIntervalMs != 100 {
		t.Errorf("Display.UpdateIntervalMs = %d, want default 100", cfg.Display.UpdateIntervalMs)
	}

	btn := cfg.Buttons[0]
	if btn.Label() != "btn_0" {
		t.Errorf("Label() = %q, want btn_0", btn.Label())
	}
	if got := btn.HoldDuration(cfg.Timing); got != gesture.DefaultHoldDuration {
		t.Errorf("HoldDuration() = %v, want %v", got, gesture.DefaultHoldDuration)
	}
}

func TestLoadSources(t *testing.T) {
	t.Run("midi", func(t *testing.T) {
		cfg, err := Load(writeConfig(t, `
source: midi
midi:
  port: "nanoPAD2"
buttons:
  - index: 0
    note: 36
`))
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if cfg.MIDI.Port != "nanoPAD2" || *cfg.Buttons[0].Note != 36 {
			t.Errorf("MIDI config = %+v note %d", cfg.MIDI, *cfg.Buttons[0].Note)
		}
		if cfg.Buttons[0].IsInverted(cfg.Source) {
			t.Error("midi button should not be inverted by default")
		}
	})

	t.Run("gpio", func(t *testing.T) {
		cfg, err := Load(writeConfig(t, `
source: gpio
gpio:
  chip: gpiochip4
buttons:
  - index: 0
    line: 17
  - index: 1
    line: 27
    inverted: false
`))
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if cfg.GPIO.Chip != "gpiochip4" {
			t.Errorf("GPIO.Chip = %q, want gpiochip4", cfg.GPIO.Chip)
		}
		if !cfg.Buttons[0].IsInverted(cfg.Source) {
			t.Error("gpio button should be inverted by default")
		}
		if cfg.Buttons[1].IsInverted(cfg.Source) {
			t.Error("explicit inverted: false was ignored")
		}
	})
}

func TestLoadValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name: "missing vendor_id",
			content: `
device:
  product_id: 0x5678
buttons:
  - index: 0
`,
			wantErr: "vendor_id is required",
		},
		{
			name: "missing product_id",
			content: `
device:
  vendor_id: 0x1234
buttons:
  - index: 0
`,
			wantErr: "product_id is required",
		},
		{
			name: "unknown source",
			content: `
source: serial
buttons:
  - index: 0
`,
			wantErr: "unknown source",
		},
		{
			name: "missing midi port",
			content: `
source: midi
buttons:
  - index: 0
    note: 36
`,
			wantErr: "midi.port is required",
		},
		{
			name: "midi button without note",
			content: `
source: midi
midi:
  port: pad
buttons:
  - index: 0
`,
			wantErr: "note is required",
		},
		{
			name: "gpio button without line",
			content: `
source: gpio
buttons:
  - index: 0
`,
			wantErr: "line is required",
		},
		{
			name: "no buttons",
			content: `
device:
  vendor_id: 0x1234
  product_id: 0x5678
`,
			wantErr: "at least one button",
		},
		{
			name: "duplicate button index",
			content: `
device:
  vendor_id: 0x1234
  product_id: 0x5678
buttons:
  - index: 0
  - index: 0
`,
			wantErr: "duplicate button index",
		},
		{
			name: "index out of range",
			content: `
device:
  vendor_id: 0x1234
  product_id: 0x5678
buttons:
  - index: 16
`,
			wantErr: "out of range",
		},
		{
			name: "unknown action event",
			content: `
device:
  vendor_id: 0x1234
  product_id: 0x5678
buttons:
  - index: 0
    actions:
      triple_tap:
        keys: ["a"]
`,
			wantErr: "unknown event",
		},
		{
			name: "unknown suppressed event",
			content: `
device:
  vendor_id: 0x1234
  product_id: 0x5678
buttons:
  - index: 0
    suppress:
      hold: [long_press]
`,
			wantErr: "unknown event",
		},
		{
			name: "trailing text after user event",
			content: `
device:
  vendor_id: 0x1234
  product_id: 0x5678
buttons:
  - index: 0
    suppress:
      user(3)x: [release]
`,
			wantErr: "unknown event",
		},
		{
			name: "negative timing",
			content: `
device:
  vendor_id: 0x1234
  product_id: 0x5678
timing:
  hold_ms: -1
buttons:
  - index: 0
`,
			wantErr: "must not be negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			if err == nil {
				t.Fatal("Load() expected error, got nil")
			}
			if tt.wantErr != "" && !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Load() error = %q, want containing %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestSuppressRulesAll(t *testing.T) {
	btn := Button{Suppress: map[string][]string{
		"all":  {"release"},
		"hold": {"long_release"},
	}}
	want := map[gesture.Event]gesture.Event{
		gesture.AllEvents: gesture.Release,
		gesture.Hold:      gesture.LongRelease,
	}
	if got := btn.SuppressRules(); !reflect.DeepEqual(got, want) {
		t.Errorf("SuppressRules() = %v, want %v", got, want)
	}
}

func TestLoadFileNotFound(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for nonexistent file, got nil")
	}
}

func TestUpdateDeviceIDs(t *testing.T) {
	content := `# Test config
device:
  vendor_id: 0x1234
  product_id: 0x5678

buttons:
  - index: 0
`
	configPath := writeConfig(t, content)

	if err := UpdateDeviceIDs(configPath, 0xABCD, 0xEF01); err != nil {
		t.Fatalf("UpdateDeviceIDs() error = %v", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		t.Fatalf("Failed to read config: %v", err)
	}

	result := string(data)
	if !strings.Contains(result, "vendor_id: 0xABCD") {
		t.Errorf("vendor_id not updated correctly in: %s", result)
	}
	if !strings.Contains(result, "product_id: 0xEF01") {
		t.Errorf("product_id not updated correctly in: %s", result)
	}
	if !strings.Contains(result, "# Test config") {
		t.Errorf("comment not preserved in: %s", result)
	}
}

func TestUpdateDeviceIDsDecimal(t *testing.T) {
	content := `device:
  vendor_id: 4660
  product_id: 22136
`
	configPath := writeConfig(t, content)

	if err := UpdateDeviceIDs(configPath, 0x1111, 0x2222); err != nil {
		t.Fatalf("UpdateDeviceIDs() error = %v", err)
	}

	data, _ := os.ReadFile(configPath)
	result := string(data)
	if !strings.Contains(result, "vendor_id: 0x1111") {
		t.Errorf("vendor_id not updated correctly in: %s", result)
	}
	if !strings.Contains(result, "product_id: 0x2222") {
		t.Errorf("product_id not updated correctly in: %s", result)
	}
}

func TestCreateDefaultConfig(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "new-config.yaml")

	if err := CreateDefaultConfig(configPath, 0x1234, 0x5678); err != nil {
		t.Fatalf("CreateDefaultConfig() error = %v", err)
	}

	if !Exists(configPath) {
		t.Fatal("Config file was not created")
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load created config: %v", err)
	}

	if cfg.Device.VendorID != 0x1234 {
		t.Errorf("VendorID = 0x%04X, want 0x1234", cfg.Device.VendorID)
	}
	if cfg.Device.ProductID != 0x5678 {
		t.Errorf("ProductID = 0x%04X, want 0x5678", cfg.Device.ProductID)
	}
	if len(cfg.Buttons) != 1 || len(cfg.Buttons[0].Actions) != 3 {
		t.Errorf("Buttons = %+v, want one button with three actions", cfg.Buttons)
	}
}

func TestExists(t *testing.T) {
	tmpDir := t.TempDir()

	if Exists(filepath.Join(tmpDir, "nonexistent.yaml")) {
		t.Error("Exists() = true for non-existent file")
	}

	existingPath := filepath.Join(tmpDir, "exists.yaml")
	if err := os.WriteFile(existingPath, []byte("test"), 0644); err != nil {
		t.Fatal(err)
	}
	if !Exists(existingPath) {
		t.Error("Exists() = false for existing file")
	}
}

func TestResolve(t *testing.T) {
	existing := writeConfig(t, "source: hid\n")
	got, err := Resolve(existing)
	if err != nil || got != existing {
		t.Errorf("Resolve(%q) = %q, %v", existing, got, err)
	}

	t.Setenv("HOME", t.TempDir())
	if _, err := Resolve(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Resolve() expected error for missing config")
	}
}
