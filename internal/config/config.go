package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/pleimann/tap-pad/internal/gesture"
)

// Input sources
const (
	SourceHID  = "hid"
	SourceMIDI = "midi"
	SourceGPIO = "gpio"
)

const (
	defaultFileName = "config.yaml"
	homeDirName     = ".tap-pad"
)

type Config struct {
	Source  string        `yaml:"source"`
	Device  DeviceConfig  `yaml:"device"`
	MIDI    MIDIConfig    `yaml:"midi"`
	GPIO    GPIOConfig    `yaml:"gpio"`
	Timing  TimingConfig  `yaml:"timing"`
	TUI     TUIConfig     `yaml:"tui"`
	Buttons []Button      `yaml:"buttons"`
	Display DisplayConfig `yaml:"display"`
}

type DeviceConfig struct {
	VendorID            uint16 `yaml:"vendor_id"`
	ProductID           uint16 `yaml:"product_id"`
	ReconnectIntervalMs int    `yaml:"reconnect_interval_ms"`
}

type MIDIConfig struct {
	Port string `yaml:"port"`
}

type GPIOConfig struct {
	Chip string `yaml:"chip"`
}

type TimingConfig struct {
	HoldMs         int `yaml:"hold_ms"`
	DoubleTapMs    int `yaml:"double_tap_ms"`
	DebounceMs     int `yaml:"debounce_ms"`
	PollIntervalMs int `yaml:"poll_interval_ms"`
}

type TUIConfig struct {
	Command    string   `yaml:"command"`
	Args       []string `yaml:"args"`
	WorkingDir string   `yaml:"working_dir,omitempty"`
	KeyDelayMs int      `yaml:"key_delay_ms,omitempty"`
}

type Button struct {
	Index       int                  `yaml:"index"`
	Name        string               `yaml:"name,omitempty"`
	Inverted    *bool                `yaml:"inverted,omitempty"`
	HoldMs      int                  `yaml:"hold_ms,omitempty"`
	DoubleTapMs int                  `yaml:"double_tap_ms,omitempty"`
	Note        *int                 `yaml:"note,omitempty"`
	Line        *int                 `yaml:"line,omitempty"`
	Actions     map[string]KeyAction `yaml:"actions,omitempty"`
	Suppress    map[string][]string  `yaml:"suppress,omitempty"`
}

type KeyAction struct {
	Keys []string `yaml:"keys"`
}

type DisplayConfig struct {
	Enabled          bool `yaml:"enabled"`
	Width            int  `yaml:"width"`
	Height           int  `yaml:"height"`
	UpdateIntervalMs int  `yaml:"update_interval_ms"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Source {
	case SourceHID:
		if c.Device.VendorID == 0 {
			return fmt.Errorf("device.vendor_id is required")
		}
		if c.Device.ProductID == 0 {
			return fmt.Errorf("device.product_id is required")
		}
	case SourceMIDI:
		if c.MIDI.Port == "" {
			return fmt.Errorf("midi.port is required")
		}
	case SourceGPIO:
	default:
		return fmt.Errorf("unknown source %q (want hid, midi or gpio)", c.Source)
	}

	if len(c.Buttons) == 0 {
		return fmt.Errorf("at least one button is required")
	}

	seen := make(map[int]bool)
	for _, btn := range c.Buttons {
		if btn.Index < 0 || btn.Index > 15 {
			return fmt.Errorf("button index %d out of range 0..15", btn.Index)
		}
		if seen[btn.Index] {
			return fmt.Errorf("duplicate button index: %d", btn.Index)
		}
		seen[btn.Index] = true

		if btn.HoldMs < 0 || btn.DoubleTapMs < 0 {
			return fmt.Errorf("button %d: durations must not be negative", btn.Index)
		}
		if c.Source == SourceMIDI && btn.Note == nil {
			return fmt.Errorf("button %d: note is required for midi", btn.Index)
		}
		if c.Source == SourceGPIO && btn.Line == nil {
			return fmt.Errorf("button %d: line is required for gpio", btn.Index)
		}

		for name := range btn.Actions {
			if _, err := gesture.ParseEvent(name); err != nil {
				return fmt.Errorf("button %d actions: %w", btn.Index, err)
			}
		}
		for name, events := range btn.Suppress {
			if _, err := gesture.ParseEvent(name); err != nil {
				return fmt.Errorf("button %d suppress: %w", btn.Index, err)
			}
			if _, err := gesture.ParseEvents(events); err != nil {
				return fmt.Errorf("button %d suppress %s: %w", btn.Index, name, err)
			}
		}
	}

	if c.Timing.HoldMs < 0 || c.Timing.DoubleTapMs < 0 || c.Timing.DebounceMs < 0 {
		return fmt.Errorf("timing values must not be negative")
	}

	return nil
}

func (c *Config) applyDefaults() {
	if c.Source == "" {
		c.Source = SourceHID
	}
	if c.Device.ReconnectIntervalMs == 0 {
		c.Device.ReconnectIntervalMs = 1000
	}
	if c.GPIO.Chip == "" {
		c.GPIO.Chip = "gpiochip0"
	}
	if c.Timing.HoldMs == 0 {
		c.Timing.HoldMs = int(gesture.DefaultHoldDuration / time.Millisecond)
	}
	if c.Timing.DoubleTapMs == 0 {
		c.Timing.DoubleTapMs = int(gesture.DefaultDoubleTapInterval / time.Millisecond)
	}
	if c.Timing.DebounceMs == 0 {
		c.Timing.DebounceMs = 10
	}
	if c.Timing.PollIntervalMs <= 0 {
		c.Timing.PollIntervalMs = 5
	}
	if c.Display.Width == 0 {
		c.Display.Width = 128
	}
	if c.Display.Height == 0 {
		c.Display.Height = 64
	}
	if c.Display.UpdateIntervalMs == 0 {
		c.Display.UpdateIntervalMs = 100
	}
}

// PollInterval returns the poll loop period
func (t TimingConfig) PollInterval() time.Duration {
	return time.Duration(t.PollIntervalMs) * time.Millisecond
}

// Debounce returns the debounce interval for sources that debounce
func (t TimingConfig) Debounce() time.Duration {
	return time.Duration(t.DebounceMs) * time.Millisecond
}

// HoldDuration returns the button's hold duration, falling back to the
// global timing
func (b Button) HoldDuration(t TimingConfig) time.Duration {
	if b.HoldMs > 0 {
		return time.Duration(b.HoldMs) * time.Millisecond
	}
	return time.Duration(t.HoldMs) * time.Millisecond
}

// DoubleTapInterval returns the button's double tap interval, falling back
// to the global timing
func (b Button) DoubleTapInterval(t TimingConfig) time.Duration {
	if b.DoubleTapMs > 0 {
		return time.Duration(b.DoubleTapMs) * time.Millisecond
	}
	return time.Duration(t.DoubleTapMs) * time.Millisecond
}

// IsInverted reports whether a low level means pressed. HID reports and MIDI
// notes carry the logical state; GPIO buttons are wired to ground with a
// pull-up.
func (b Button) IsInverted(source string) bool {
	if b.Inverted != nil {
		return *b.Inverted
	}
	return source == SourceGPIO
}

// Label returns the button name, or its index when unnamed
func (b Button) Label() string {
	if b.Name != "" {
		return b.Name
	}
	return fmt.Sprintf("btn_%d", b.Index)
}

// SuppressRules resolves the suppress map into event masks: when the key
// event fires, the value events are suppressed for the rest of the gesture.
// A key of "all" resolves to gesture.AllEvents and covers every event that
// has no rule of its own.
// The config is validated on load, so unknown names are skipped.
func (b Button) SuppressRules() map[gesture.Event]gesture.Event {
	rules := make(map[gesture.Event]gesture.Event, len(b.Suppress))
	for name, names := range b.Suppress {
		on, err := gesture.ParseEvent(name)
		if err != nil {
			continue
		}
		mask, err := gesture.ParseEvents(names)
		if err != nil {
			continue
		}
		rules[on] |= mask
	}
	return rules
}

// UpdateDeviceIDs updates the vendor_id and product_id in a config file
// while preserving the rest of the file structure and comments
func UpdateDeviceIDs(path string, vendorID, productID uint16) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	content := string(data)

	vendorRegex := regexp.MustCompile(`(?m)^(\s*vendor_id:\s*)(?:0x[0-9A-Fa-f]+|\d+)`)
	content = vendorRegex.ReplaceAllString(content, fmt.Sprintf("${1}0x%04X", vendorID))

	productRegex := regexp.MustCompile(`(?m)^(\s*product_id:\s*)(?:0x[0-9A-Fa-f]+|\d+)`)
	content = productRegex.ReplaceAllString(content, fmt.Sprintf("${1}0x%04X", productID))

	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// CreateDefaultConfig creates a new config file for a HID pad with default
// timing and one mapped button
func CreateDefaultConfig(path string, vendorID, productID uint16) error {
	content := fmt.Sprintf(`# tap-pad configuration

source: hid

device:
  vendor_id: 0x%04X
  product_id: 0x%04X

timing:
  hold_ms: 400
  double_tap_ms: 150
  poll_interval_ms: 5

tui:
  command: ""
  args: []

buttons:
  - index: 0
    name: btn_0
    actions:
      single_tap:
        keys: ["enter"]
      double_tap:
        keys: ["tab"]
      hold:
        keys: ["ctrl+c"]
    suppress:
      hold: [long_release]

display:
  enabled: false
  width: 128
  height: 64
  update_interval_ms: 100
`, vendorID, productID)

	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}

	return nil
}

// Exists checks if a config file exists
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Resolve returns path if it exists. Otherwise it looks for config.yaml next
// to the executable and then in ~/.tap-pad.
func Resolve(path string) (string, error) {
	if Exists(path) {
		return path, nil
	}

	var candidates []string
	if exe, err := os.Executable(); err == nil {
		candidates = append(candidates, filepath.Join(filepath.Dir(exe), defaultFileName))
	}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, homeDirName, defaultFileName))
	}

	for _, candidate := range candidates {
		if Exists(candidate) {
			return candidate, nil
		}
	}

	return "", fmt.Errorf("config file not found: %s", path)
}
