package hid

import (
	"encoding/binary"
	"fmt"
)

// Report IDs
const (
	ReportIDButtons byte = 0x01
	ReportIDDisplay byte = 0x02
)

// Button report edge types. Both carry the full pressed set; the edge only
// says which transition caused the report.
const (
	EdgeTypeDown byte = 0x01
	EdgeTypeUp   byte = 0x02
)

// Display commands
const (
	DisplayCmdFullFrame byte = 0x01
	DisplayCmdPartial   byte = 0x02
	DisplayCmdClear     byte = 0x03
)

// ReportSize is the fixed HID report length
const ReportSize = 64

const displayHeaderSize = 10

// MaxDisplayPayload is the pixel payload that fits a single display report
const MaxDisplayPayload = ReportSize - displayHeaderSize

type Edge byte

const (
	Down Edge = Edge(EdgeTypeDown)
	Up   Edge = Edge(EdgeTypeUp)
)

func (e Edge) String() string {
	switch e {
	case Down:
		return "down"
	case Up:
		return "up"
	default:
		return fmt.Sprintf("unknown(%d)", e)
	}
}

// ButtonReport is the pad's button state after one transition
type ButtonReport struct {
	Edge      Edge
	Pressed   uint16 // bit i set while button i is held
	Timestamp uint32 // device milliseconds since boot
}

// ParseButtonReport parses a raw HID report.
// Format:
//
//	Byte 0: Report ID (0x01)
//	Byte 1: Edge (0x01=down, 0x02=up)
//	Byte 2-3: Pressed buttons bitmask (little-endian)
//	Byte 4-7: Timestamp (ms since boot, little-endian u32)
func ParseButtonReport(data []byte) (*ButtonReport, error) {
	if len(data) < 8 {
		return nil, fmt.Errorf("button report too short: %d bytes", len(data))
	}

	if data[0] != ReportIDButtons {
		return nil, fmt.Errorf("unexpected report ID: 0x%02X", data[0])
	}

	edge := data[1]
	if edge != EdgeTypeDown && edge != EdgeTypeUp {
		return nil, fmt.Errorf("unknown edge type: 0x%02X", edge)
	}

	return &ButtonReport{
		Edge:      Edge(edge),
		Pressed:   binary.LittleEndian.Uint16(data[2:4]),
		Timestamp: binary.LittleEndian.Uint32(data[4:8]),
	}, nil
}

// Buttons returns the indices of the held buttons
func (r *ButtonReport) Buttons() []int {
	var buttons []int
	for i := 0; i < 16; i++ {
		if r.Pressed&(1<<i) != 0 {
			buttons = append(buttons, i)
		}
	}
	return buttons
}

// DisplayFrame is one write to the pad's 1-bit display
type DisplayFrame struct {
	Command byte
	X       uint16
	Y       uint16
	Width   uint16
	Height  uint16
	Data    []byte // 1-bit packed, row-major
}

// Encode serializes the frame.
// Format:
//
//	Byte 0: Report ID (0x02)
//	Byte 1: Command (0x01=full frame, 0x02=partial, 0x03=clear)
//	Byte 2-5: X, Y offsets (little-endian u16)
//	Byte 6-9: Width, Height (little-endian u16)
//	Byte 10+: Pixel data
func (f *DisplayFrame) Encode() []byte {
	buf := make([]byte, displayHeaderSize+len(f.Data))

	buf[0] = ReportIDDisplay
	buf[1] = f.Command
	binary.LittleEndian.PutUint16(buf[2:4], f.X)
	binary.LittleEndian.PutUint16(buf[4:6], f.Y)
	binary.LittleEndian.PutUint16(buf[6:8], f.Width)
	binary.LittleEndian.PutUint16(buf[8:10], f.Height)
	copy(buf[displayHeaderSize:], f.Data)

	return buf
}

// NewPartialFrame creates a frame covering a band of rows
func NewPartialFrame(x, y, width, height uint16, data []byte) *DisplayFrame {
	return &DisplayFrame{
		Command: DisplayCmdPartial,
		X:       x,
		Y:       y,
		Width:   width,
		Height:  height,
		Data:    data,
	}
}

// NewClearCommand creates a display clear command
func NewClearCommand() *DisplayFrame {
	return &DisplayFrame{Command: DisplayCmdClear}
}

// ChunkFrame splits a packed width x height buffer into partial frames
// that each fit a single report. Chunks always hold whole rows.
func ChunkFrame(width, height int, data []byte) []*DisplayFrame {
	bytesPerRow := (width + 7) / 8
	rowsPerChunk := MaxDisplayPayload / bytesPerRow
	if rowsPerChunk == 0 {
		rowsPerChunk = 1
	}

	var frames []*DisplayFrame
	for y := 0; y < height; y += rowsPerChunk {
		rows := rowsPerChunk
		if y+rows > height {
			rows = height - y
		}

		start := y * bytesPerRow
		end := (y + rows) * bytesPerRow
		if start > len(data) {
			start = len(data)
		}
		if end > len(data) {
			end = len(data)
		}

		frames = append(frames, NewPartialFrame(0, uint16(y), uint16(width), uint16(rows), data[start:end]))
	}

	return frames
}
