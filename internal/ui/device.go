package ui

import (
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
)

// ErrNoChoices is returned when there is nothing to select from
var ErrNoChoices = errors.New("nothing to select from")

// DeviceInfo describes an HID device for display
type DeviceInfo struct {
	VendorID     uint16
	ProductID    uint16
	Manufacturer string
	Product      string
}

// ID formats the vendor and product IDs as used in the config file
func (d DeviceInfo) ID() string {
	return fmt.Sprintf("0x%04X:0x%04X", d.VendorID, d.ProductID)
}

// Name is the manufacturer and product, with a fallback for devices that
// report neither
func (d DeviceInfo) Name() string {
	name := d.Product
	if name == "" {
		name = "Unknown Device"
	}
	if d.Manufacturer != "" {
		name = d.Manufacturer + " " + name
	}
	return name
}

// selectModel runs a huh form inside Bubble Tea so escape cancels cleanly
type selectModel struct {
	form    *huh.Form
	aborted bool
}

func (m selectModel) Init() tea.Cmd {
	return m.form.Init()
}

func (m selectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "ctrl+c", "esc", "q":
			m.aborted = true
			return m, tea.Quit
		}
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}
	if m.form.State == huh.StateCompleted {
		return m, tea.Quit
	}
	return m, cmd
}

func (m selectModel) View() string {
	if m.form.State == huh.StateCompleted {
		return ""
	}
	return m.form.View()
}

// choose shows a single-select list and returns the chosen index, or -1 if
// the user cancelled
func choose(title, description string, labels []string) (int, error) {
	if len(labels) == 0 {
		return -1, ErrNoChoices
	}

	options := make([]huh.Option[int], len(labels))
	for i, label := range labels {
		options[i] = huh.NewOption(label, i)
	}

	var selected int
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[int]().
				Title(title).
				Description(description).
				Options(options...).
				Value(&selected),
		),
	).WithTheme(theme()).WithShowHelp(false)

	final, err := tea.NewProgram(selectModel{form: form}).Run()
	if err != nil {
		return -1, err
	}
	if final.(selectModel).aborted {
		return -1, nil
	}
	return selected, nil
}

// SelectDevice lets the user pick one of devices. It returns nil if the
// user cancelled.
func SelectDevice(devices []DeviceInfo) (*DeviceInfo, error) {
	labels := make([]string, len(devices))
	for i, d := range devices {
		labels[i] = fmt.Sprintf("%s  %s", DeviceIDStyle.Render(d.ID()), d.Name())
	}

	i, err := choose("Select HID Device", "Choose the button pad to use (esc to cancel)", labels)
	if err != nil || i < 0 {
		return nil, err
	}
	return &devices[i], nil
}

// PrintDeviceList displays the HID devices
func PrintDeviceList(devices []DeviceInfo) {
	if len(devices) == 0 {
		fmt.Println(Warning("No HID devices found"))
		return
	}

	fmt.Println()
	fmt.Println(Title("HID Devices"))
	fmt.Println(Muted(fmt.Sprintf("Found %d device(s)", len(devices))))
	fmt.Println()

	for _, d := range devices {
		name := d.Product
		if name == "" {
			name = "Unknown Device"
		}
		line := DeviceNameStyle.Render(name)
		if d.Manufacturer != "" {
			line += " " + DeviceManufacturerStyle.Render("by "+d.Manufacturer)
		}
		fmt.Printf("  %s  %s\n", DeviceIDStyle.Render(d.ID()), line)
	}
	fmt.Println()
}

// PrintPortList displays the MIDI input ports
func PrintPortList(ports []string) {
	if len(ports) == 0 {
		fmt.Println(Warning("No MIDI input ports found"))
		return
	}

	fmt.Println()
	fmt.Println(Title("MIDI Input Ports"))
	fmt.Println(Muted(fmt.Sprintf("Found %d port(s); midi.port matches any part of a name", len(ports))))
	fmt.Println()

	for i, port := range ports {
		fmt.Printf("  %s  %s\n", DeviceIDStyle.Render(fmt.Sprintf("%2d", i)), DeviceNameStyle.Render(port))
	}
	fmt.Println()
}

// PrintDeviceUpdated confirms a device change in configPath. created is
// true when the file was written from the default template.
func PrintDeviceUpdated(configPath string, vendorID, productID uint16, created bool) {
	msg := "Device configuration updated"
	if created {
		msg = "Device configuration created"
	}

	fmt.Println()
	fmt.Println(Success(msg))
	fmt.Println()
	fmt.Printf("  %s %s\n", Muted("Config:"), configPath)
	fmt.Printf("  %s %s\n", Muted("Device:"), DeviceIDStyle.Render(DeviceInfo{VendorID: vendorID, ProductID: productID}.ID()))
	fmt.Println()
}

// theme matches huh's select to the palette
func theme() *huh.Theme {
	t := huh.ThemeBase()

	t.Focused.Title = t.Focused.Title.Foreground(ColorPrimary).Bold(true)
	t.Focused.Description = t.Focused.Description.Foreground(ColorMuted)
	t.Focused.SelectedOption = t.Focused.SelectedOption.Foreground(ColorPrimary)
	t.Focused.UnselectedOption = t.Focused.UnselectedOption.Foreground(ColorLight)
	t.Focused.SelectSelector = t.Focused.SelectSelector.Foreground(ColorPrimary)

	return t
}
