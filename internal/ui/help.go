package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/pleimann/tap-pad/internal/utils"
)

type example struct {
	cmd  string
	desc string
}

// PrintUsage displays the styled help text
func PrintUsage(version string) {
	name := utils.ExecutableName()

	printBanner(name, version, ColorMuted)
	fmt.Println(Muted("Turns button presses into taps, double taps and holds for terminal programs"))
	fmt.Println()

	printSection("Usage", []string{
		name + " [flags]                Run the pad against the configured program",
		name + " monitor [flags]        Watch button gestures live",
		name + " list-devices           List available HID devices",
		name + " list-midi              List available MIDI input ports",
		name + " set-device [args]      Configure the HID device",
		name + " help                   Show this help message",
	})

	printSection("Flags", []string{
		"-config string    Path to configuration file (default \"config.yaml\")",
		"-verbose          Enable debug logging",
		"-log-file string  Write logs to a file instead of stderr",
		"-version          Print version and exit",
	})

	fmt.Println(Bold("Commands"))
	printCommand("monitor", "Show each button's state and a log of gesture events",
		"Pass "+Code("-simulate")+" to drive the buttons from the keyboard")
	printCommand("list-midi", "List MIDI input ports usable as "+Code("midi.port"))
	printCommand("set-device", "Set the HID device in the config file",
		"Run "+Code(name+" set-device --help")+" for more information")

	fmt.Println(Bold("Examples"))
	printExamples([]example{
		{name, "Run with config.yaml"},
		{name + " -config my.yaml", "Run with a custom config file"},
		{name + " monitor -simulate", "Try gestures without hardware"},
		{name + " set-device", "Interactive device selection"},
		{name + " set-device 0x1234 0x5678", "Set device by vendor/product ID"},
	})
}

// PrintMonitorUsage displays the help text for the monitor subcommand
func PrintMonitorUsage() {
	name := utils.ExecutableName()

	fmt.Println(Bold("Usage:"), name+" monitor [options]")
	fmt.Println()
	fmt.Println("Show each button's state and a log of gesture events.")
	fmt.Println()
	fmt.Println(Muted("With -simulate no input source is opened; keys 1-9 toggle buttons,"))
	fmt.Println(Muted("r resets, s sleeps, w wakes and q quits."))
	fmt.Println()

	fmt.Println(Bold("Options"))
	fmt.Printf("  %s    Path to configuration file (default \"config.yaml\")\n", SubtitleStyle.Render("-config string"))
	fmt.Printf("  %s          Drive buttons from the keyboard\n", SubtitleStyle.Render("-simulate"))
	fmt.Println()

	fmt.Println(Bold("Examples"))
	printExamples([]example{
		{name + " monitor", "Watch the configured source"},
		{name + " monitor -simulate", "Keyboard driven buttons"},
	})
}

// PrintSetDeviceUsage displays the help text for the set-device subcommand
func PrintSetDeviceUsage() {
	name := utils.ExecutableName()

	fmt.Println(Bold("Usage:"), name+" set-device [options] [vendor_id product_id]")
	fmt.Println()
	fmt.Println("Set the HID device in the configuration file.")
	fmt.Println()
	fmt.Println(Muted("If vendor_id and product_id are provided, updates the config directly."))
	fmt.Println(Muted("Otherwise, displays a list of connected devices to choose from."))
	fmt.Println()

	fmt.Println(Bold("Arguments"))
	fmt.Printf("  %s    Device vendor ID (hex with 0x prefix or decimal)\n", SubtitleStyle.Render("vendor_id"))
	fmt.Printf("  %s   Device product ID (hex with 0x prefix or decimal)\n", SubtitleStyle.Render("product_id"))
	fmt.Println()

	fmt.Println(Bold("Options"))
	fmt.Printf("  %s    Path to configuration file (default \"config.yaml\")\n", SubtitleStyle.Render("-config string"))
	fmt.Println()

	fmt.Println(Bold("Examples"))
	printExamples([]example{
		{name + " set-device", "Interactive selection"},
		{name + " set-device 0x1234 0x5678", "Set IDs directly"},
		{name + " set-device -config my.yaml", "Use different config"},
	})
}

// PrintVersion displays the version
func PrintVersion(version string) {
	printBanner(utils.ExecutableName(), version, ColorSuccess)
}

// PrintError displays a styled error message
func PrintError(message string) {
	fmt.Println(Error(message))
}

// PrintFatalError displays a styled fatal error with context
func PrintFatalError(context, message string) {
	fmt.Println()
	fmt.Println(Error(context))
	fmt.Printf("  %s\n", Muted(message))
	fmt.Println()
}

func printBanner(name, version string, versionColor lipgloss.Color) {
	banner := TitleStyle.Render(name)
	versionTag := lipgloss.NewStyle().
		Foreground(versionColor).
		Render("v" + version)
	fmt.Printf("%s %s\n", banner, versionTag)
}

func printSection(title string, items []string) {
	fmt.Println(Bold(title))
	for _, item := range items {
		fmt.Printf("  %s\n", item)
	}
	fmt.Println()
}

func printCommand(name string, lines ...string) {
	fmt.Printf("  %s\n", CommandStyle.Render(name))
	for _, line := range lines {
		fmt.Printf("      %s\n", line)
	}
	fmt.Println()
}

func printExamples(examples []example) {
	cmdStyle := lipgloss.NewStyle().
		Foreground(ColorSecondary)

	maxLen := 0
	for _, ex := range examples {
		if len(ex.cmd) > maxLen {
			maxLen = len(ex.cmd)
		}
	}

	for _, ex := range examples {
		padding := strings.Repeat(" ", maxLen-len(ex.cmd)+2)
		fmt.Printf("  %s%s%s\n", cmdStyle.Render(ex.cmd), padding, Muted(ex.desc))
	}
	fmt.Println()
}
