package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"syscall"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"
	// Registers the rtmidi backend used by the midi source
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"github.com/pleimann/tap-pad/internal/config"
	"github.com/pleimann/tap-pad/internal/hid"
	"github.com/pleimann/tap-pad/internal/input"
	"github.com/pleimann/tap-pad/internal/midi"
	"github.com/pleimann/tap-pad/internal/pad"
	"github.com/pleimann/tap-pad/internal/ui"
	"github.com/pleimann/tap-pad/internal/utils"
)

const Version = "0.2.0"

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "list-devices":
			runListDevices()
			return
		case "list-midi":
			ui.PrintPortList(midi.ListPorts())
			return
		case "set-device", "select-device":
			runSetDevice(os.Args[2:])
			return
		case "monitor":
			os.Exit(runMonitor(os.Args[2:]))
		case "help", "-h", "--help":
			printUsage()
			os.Exit(0)
		}
	}

	configPath := flag.String("config", "config.yaml", "path to configuration file")
	verbose := flag.Bool("verbose", false, "enable debug logging")
	logFile := flag.String("log-file", "", "write logs to this file instead of stderr")
	version := flag.Bool("version", false, "print version and exit")

	flag.Usage = printUsage
	flag.Parse()

	if *version {
		ui.PrintVersion(Version)
		os.Exit(0)
	}

	// The program's screen owns the terminal, so logs go to a file
	attached := isTerminal()
	if attached && *logFile == "" {
		*logFile = filepath.Join(os.TempDir(), utils.ExecutableName()+".log")
	}

	logger, err := newLogger(*verbose, *logFile)
	if err != nil {
		ui.PrintFatalError("Failed to start", err.Error())
		os.Exit(1)
	}
	defer logger.Sync()

	path, err := config.Resolve(*configPath)
	if err != nil {
		ui.PrintFatalError("Failed to find config", err.Error())
		os.Exit(1)
	}

	watcher, err := config.NewWatcher(logger, path)
	if err != nil {
		ui.PrintFatalError("Failed to load config", err.Error())
		os.Exit(1)
	}
	defer watcher.Stop()

	cfg := watcher.Get()
	logger.Infow("Loaded configuration", "path", path, "source", cfg.Source, "command", cfg.TUI.Command)

	app, err := newApp(logger, cfg, attached)
	if err != nil {
		ui.PrintFatalError("Failed to initialize", err.Error())
		os.Exit(1)
	}

	watcher.OnReload(app.Reload)
	watcher.Start()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Errorw("Application error", "error", err)
	}
	logger.Infow("Shutdown complete")
}

func printUsage() {
	ui.PrintUsage(Version)
}

// runListDevices handles the list-devices subcommand
func runListDevices() {
	devices, err := hid.ListDevices()
	if err != nil {
		ui.PrintFatalError("Failed to list devices", err.Error())
		os.Exit(1)
	}
	ui.PrintDeviceList(toUIDevices(devices))
}

func toUIDevices(devices []hid.DeviceInfo) []ui.DeviceInfo {
	out := make([]ui.DeviceInfo, len(devices))
	for i, d := range devices {
		out[i] = ui.DeviceInfo{
			VendorID:     d.VendorID,
			ProductID:    d.ProductID,
			Manufacturer: d.Manufacturer,
			Product:      d.Product,
		}
	}
	return out
}

// runSetDevice handles the set-device subcommand
func runSetDevice(args []string) {
	fs := flag.NewFlagSet("set-device", flag.ExitOnError)
	configPath := fs.String("config", "config.yaml", "path to configuration file")
	fs.Usage = ui.PrintSetDeviceUsage

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	remaining := fs.Args()
	var vendorID, productID uint16

	switch len(remaining) {
	case 0:
		device, err := selectDevice()
		if err != nil {
			ui.PrintFatalError("Device selection failed", err.Error())
			os.Exit(1)
		}
		if device == nil {
			fmt.Println(ui.Muted("No device selected"))
			os.Exit(0)
		}
		vendorID, productID = device.VendorID, device.ProductID
	case 2:
		vid, err := parseID(remaining[0])
		if err != nil {
			ui.PrintFatalError("Invalid vendor_id", fmt.Sprintf("%q: %v", remaining[0], err))
			os.Exit(1)
		}
		pid, err := parseID(remaining[1])
		if err != nil {
			ui.PrintFatalError("Invalid product_id", fmt.Sprintf("%q: %v", remaining[1], err))
			os.Exit(1)
		}
		vendorID, productID = vid, pid
	default:
		ui.PrintFatalError("Invalid arguments", "Both vendor_id and product_id must be provided, or neither")
		os.Exit(1)
	}

	if config.Exists(*configPath) {
		if err := config.UpdateDeviceIDs(*configPath, vendorID, productID); err != nil {
			ui.PrintFatalError("Failed to update config", err.Error())
			os.Exit(1)
		}
		ui.PrintDeviceUpdated(*configPath, vendorID, productID, false)
		return
	}

	if err := config.CreateDefaultConfig(*configPath, vendorID, productID); err != nil {
		ui.PrintFatalError("Failed to create config", err.Error())
		os.Exit(1)
	}
	ui.PrintDeviceUpdated(*configPath, vendorID, productID, true)
}

// parseID parses a vendor or product ID, hex with a 0x prefix or decimal
func parseID(s string) (uint16, error) {
	s = strings.TrimSpace(s)

	var val uint64
	var err error
	if strings.HasPrefix(strings.ToLower(s), "0x") {
		val, err = strconv.ParseUint(s[2:], 16, 16)
	} else {
		val, err = strconv.ParseUint(s, 10, 16)
	}
	if err != nil {
		return 0, err
	}
	return uint16(val), nil
}

func selectDevice() (*ui.DeviceInfo, error) {
	devices, err := hid.ListDevices()
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}

	unique := hid.Unique(devices)
	if len(unique) == 0 {
		return nil, fmt.Errorf("no identifiable HID devices found")
	}
	return ui.SelectDevice(toUIDevices(unique))
}

// simControls drives a simulated pad from the monitor's keys
type simControls struct {
	bank *input.Bank
	pad  *pad.Pad
}

func (s simControls) Toggle(index int) { s.bank.Toggle(index) }
func (s simControls) Reset()           { s.pad.Reset() }
func (s simControls) Sleep()           { s.pad.Sleep() }
func (s simControls) Wakeup()          { s.pad.Wakeup() }

// runMonitor handles the monitor subcommand and returns the exit code
func runMonitor(args []string) int {
	fs := flag.NewFlagSet("monitor", flag.ExitOnError)
	configPath := fs.String("config", "config.yaml", "path to configuration file")
	simulate := fs.Bool("simulate", false, "drive buttons from the keyboard")
	logFile := fs.String("log-file", "", "write logs to this file")
	fs.Usage = ui.PrintMonitorUsage

	if err := fs.Parse(args); err != nil {
		return 1
	}

	if !isTerminal() {
		ui.PrintError("monitor needs an interactive terminal")
		return 1
	}

	// The monitor owns the screen; without a log file logging is off
	logger := zap.NewNop().Sugar()
	if *logFile != "" {
		var err error
		if logger, err = newLogger(true, *logFile); err != nil {
			ui.PrintFatalError("Failed to start", err.Error())
			return 1
		}
		defer logger.Sync()
	}

	path, err := config.Resolve(*configPath)
	if err != nil {
		ui.PrintFatalError("Failed to find config", err.Error())
		return 1
	}
	cfg, err := config.Load(path)
	if err != nil {
		ui.PrintFatalError("Failed to load config", err.Error())
		return 1
	}

	clk := clock.New()
	in, err := openInputs(logger, clk, cfg, *simulate)
	if err != nil {
		ui.PrintFatalError("Failed to open "+cfg.Source+" source", err.Error())
		return 1
	}
	defer in.Close()

	p, err := pad.New(logger, clk, in.bank, cfg, padOptions(cfg, *simulate))
	if err != nil {
		ui.PrintFatalError("Failed to create pad", err.Error())
		return 1
	}

	events := make(chan pad.Event, 64)
	p.Subscribe(func(ev pad.Event) {
		select {
		case events <- ev:
		default:
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	in.start(ctx, p, &wg)
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = p.Run(ctx)
	}()

	var controls ui.Controls
	title := fmt.Sprintf("%s monitor · %s", utils.ExecutableName(), cfg.Source)
	if *simulate {
		controls = simControls{bank: in.bank, pad: p}
		title = fmt.Sprintf("%s monitor · simulated", utils.ExecutableName())
	}

	err = ui.NewMonitor(title, p.States, events, controls).Run()

	cancel()
	in.Close()
	wg.Wait()

	if err != nil {
		ui.PrintFatalError("Monitor failed", err.Error())
		return 1
	}
	return 0
}
