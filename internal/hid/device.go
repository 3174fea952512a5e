package hid

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/karalabe/hid"
	"go.uber.org/zap"

	"github.com/pleimann/tap-pad/internal/input"
	"github.com/pleimann/tap-pad/internal/utils"
)

// ErrClosed is returned by operations on a closed device
var ErrClosed = errors.New("device closed")

// Device is a connection to the pad's HID interface
type Device struct {
	vendorID  uint16
	productID uint16
	logger    *zap.SugaredLogger

	mu     sync.Mutex
	device *hid.Device
	closed bool
}

// Open opens the first interface of the device with the given IDs that
// accepts a connection
func Open(logger *zap.SugaredLogger, vendorID, productID uint16) (*Device, error) {
	d := &Device{
		vendorID:  vendorID,
		productID: productID,
		logger:    logger.Named("hid"),
	}

	devices := hid.Enumerate(vendorID, productID)
	if len(devices) == 0 {
		if len(hid.Enumerate(0, 0)) == 0 {
			return nil, fmt.Errorf("no HID devices found on system - check USB connection")
		}
		name := utils.ExecutableName()
		return nil, fmt.Errorf("no device found with VendorID=0x%04X, ProductID=0x%04X\n"+
			"  Run '%s list-devices' to see available devices\n"+
			"  Run '%s set-device' to configure the correct device",
			vendorID, productID, name, name)
	}

	dev, err := openAny(devices)
	if err != nil {
		return nil, fmt.Errorf("failed to open device 0x%04X:0x%04X: %w\n"+
			"  This may be a permissions issue. On Linux, add a udev rule for the device;\n"+
			"  on macOS, allow your terminal under Privacy & Security > Input Monitoring",
			vendorID, productID, err)
	}
	d.device = dev

	d.logger.Infow("Device opened", "vendor_id", fmt.Sprintf("0x%04X", vendorID), "product_id", fmt.Sprintf("0x%04X", productID))
	return d, nil
}

// Some devices expose several interfaces and not all of them can be opened
func openAny(devices []hid.DeviceInfo) (*hid.Device, error) {
	var lastErr error
	for _, info := range devices {
		dev, err := info.Open()
		if err == nil {
			return dev, nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("tried %d interface(s): %w", len(devices), lastErr)
}

// Close closes the HID device connection
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil
	}
	d.closed = true

	if d.device != nil {
		return d.device.Close()
	}
	return nil
}

// Read reads one raw report. It blocks until the device sends one.
func (d *Device) Read(buf []byte) (int, error) {
	d.mu.Lock()
	if d.closed || d.device == nil {
		d.mu.Unlock()
		return 0, ErrClosed
	}
	dev := d.device
	d.mu.Unlock()

	return dev.Read(buf)
}

// Feed reads button reports and applies each pressed set to bank until ctx
// is done or the device fails
func (d *Device) Feed(ctx context.Context, bank *input.Bank) error {
	return feed(ctx, d, bank, d.logger)
}

type reportReader interface {
	Read(buf []byte) (int, error)
}

func feed(ctx context.Context, r reportReader, bank *input.Bank, logger *zap.SugaredLogger) error {
	buf := make([]byte, ReportSize)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		n, err := r.Read(buf)
		if err != nil {
			return fmt.Errorf("read error: %w", err)
		}
		if n == 0 {
			continue
		}

		report, err := ParseButtonReport(buf[:n])
		if err != nil {
			logger.Debugw("Ignoring report", "error", err)
			continue
		}

		bank.ApplyMask(report.Pressed)
	}
}

// Write sends a raw report to the device
func (d *Device) Write(data []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed || d.device == nil {
		return ErrClosed
	}

	_, err := d.device.Write(data)
	return err
}

// SendFrame sends a display frame to the device
func (d *Device) SendFrame(frame *DisplayFrame) error {
	return d.Write(frame.Encode())
}

// Reconnect closes the current handle and opens the device again
func (d *Device) Reconnect() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.device != nil {
		d.device.Close()
		d.device = nil
	}
	d.closed = false

	devices := hid.Enumerate(d.vendorID, d.productID)
	if len(devices) == 0 {
		return fmt.Errorf("device not found")
	}

	dev, err := openAny(devices)
	if err != nil {
		return fmt.Errorf("failed to open device: %w", err)
	}
	d.device = dev
	return nil
}

// WaitForDevice retries Reconnect every interval until it succeeds or ctx
// is done
func (d *Device) WaitForDevice(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := d.Reconnect(); err == nil {
				d.logger.Infow("Device reconnected")
				return nil
			}
		}
	}
}

// Hooks are called around a disconnect
type Hooks struct {
	Disconnected func(error)
	Reconnected  func()
}

// Run feeds bank until ctx is done, reconnecting whenever the device drops.
// All levels are released while the device is away.
func (d *Device) Run(ctx context.Context, bank *input.Bank, interval time.Duration, hooks Hooks) error {
	for {
		err := d.Feed(ctx, bank)
		if ctx.Err() != nil {
			return nil
		}

		d.logger.Warnw("Device disconnected", "error", err)
		bank.ApplyMask(0)
		if hooks.Disconnected != nil {
			hooks.Disconnected(err)
		}

		if err := d.WaitForDevice(ctx, interval); err != nil {
			return nil
		}
		if hooks.Reconnected != nil {
			hooks.Reconnected()
		}
	}
}
