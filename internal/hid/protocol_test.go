package hid

import (
	"encoding/binary"
	"reflect"
	"testing"
)

func buttonReport(edge byte, pressed uint16, ts uint32) []byte {
	buf := make([]byte, 8)
	buf[0] = ReportIDButtons
	buf[1] = edge
	binary.LittleEndian.PutUint16(buf[2:4], pressed)
	binary.LittleEndian.PutUint32(buf[4:8], ts)
	return buf
}

func TestParseButtonReport(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		want    *ButtonReport
		wantErr bool
	}{
		{
			name: "button 0 down",
			data: buttonReport(EdgeTypeDown, 0x0001, 12345),
			want: &ButtonReport{Edge: Down, Pressed: 0x0001, Timestamp: 12345},
		},
		{
			name: "button 1 up while 0 and 2 held",
			data: buttonReport(EdgeTypeUp, 0x0005, 99999),
			want: &ButtonReport{Edge: Up, Pressed: 0x0005, Timestamp: 99999},
		},
		{
			name: "full size report",
			data: append(buttonReport(EdgeTypeUp, 0, 1), make([]byte, ReportSize-8)...),
			want: &ButtonReport{Edge: Up, Pressed: 0, Timestamp: 1},
		},
		{
			name:    "data too short",
			data:    []byte{0x01, 0x01, 0x00},
			wantErr: true,
		},
		{
			name: "wrong report ID",
			data: func() []byte {
				buf := buttonReport(EdgeTypeDown, 1, 0)
				buf[0] = 0xFF
				return buf
			}(),
			wantErr: true,
		},
		{
			name:    "unknown edge type",
			data:    buttonReport(0xFF, 1, 0),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseButtonReport(tt.data)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseButtonReport() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseButtonReport() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestButtonReportButtons(t *testing.T) {
	tests := []struct {
		name    string
		pressed uint16
		want    []int
	}{
		{"no buttons", 0x0000, nil},
		{"button 0", 0x0001, []int{0}},
		{"button 7", 0x0080, []int{7}},
		{"buttons 0, 2, 4", 0x0015, []int{0, 2, 4}},
		{"all 16 buttons", 0xFFFF, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &ButtonReport{Pressed: tt.pressed}
			if got := r.Buttons(); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Buttons() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDisplayFrameEncode(t *testing.T) {
	tests := []struct {
		name  string
		frame *DisplayFrame
		check func([]byte) bool
	}{
		{
			name:  "partial frame",
			frame: NewPartialFrame(10, 20, 32, 16, []byte{0x11, 0x22}),
			check: func(data []byte) bool {
				return data[0] == ReportIDDisplay &&
					data[1] == DisplayCmdPartial &&
					binary.LittleEndian.Uint16(data[2:4]) == 10 &&
					binary.LittleEndian.Uint16(data[4:6]) == 20 &&
					binary.LittleEndian.Uint16(data[6:8]) == 32 &&
					binary.LittleEndian.Uint16(data[8:10]) == 16 &&
					data[10] == 0x11 && data[11] == 0x22
			},
		},
		{
			name:  "clear command",
			frame: NewClearCommand(),
			check: func(data []byte) bool {
				return data[0] == ReportIDDisplay &&
					data[1] == DisplayCmdClear &&
					len(data) == 10
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := tt.frame.Encode()
			if !tt.check(data) {
				t.Errorf("Encode() = %v, check failed", data)
			}
		})
	}
}

func TestChunkFrame(t *testing.T) {
	tests := []struct {
		name        string
		width       int
		height      int
		wantHeights []int
	}{
		// 2 bytes per row, 54 byte payload = 27 rows per chunk
		{"two chunks", 16, 32, []int{27, 5}},
		{"single chunk", 8, 8, []int{8}},
		// 12 pixels still take 2 bytes per row
		{"partial byte width", 12, 4, []int{4}},
		// 16 bytes per row = 3 rows per chunk
		{"oled 128x8", 128, 8, []int{3, 3, 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bytesPerRow := (tt.width + 7) / 8
			data := make([]byte, bytesPerRow*tt.height)
			frames := ChunkFrame(tt.width, tt.height, data)

			if len(frames) != len(tt.wantHeights) {
				t.Fatalf("len(frames) = %d, want %d", len(frames), len(tt.wantHeights))
			}

			y := 0
			for i, f := range frames {
				if int(f.Y) != y {
					t.Errorf("frame[%d].Y = %d, want %d", i, f.Y, y)
				}
				if int(f.Height) != tt.wantHeights[i] {
					t.Errorf("frame[%d].Height = %d, want %d", i, f.Height, tt.wantHeights[i])
				}
				if int(f.Width) != tt.width {
					t.Errorf("frame[%d].Width = %d, want %d", i, f.Width, tt.width)
				}
				if len(f.Data) != tt.wantHeights[i]*bytesPerRow {
					t.Errorf("len(frame[%d].Data) = %d, want %d", i, len(f.Data), tt.wantHeights[i]*bytesPerRow)
				}
				if len(f.Encode()) > ReportSize {
					t.Errorf("frame[%d] encodes to %d bytes, over the report size", i, len(f.Encode()))
				}
				y += int(f.Height)
			}
		})
	}
}

func TestEdgeString(t *testing.T) {
	tests := []struct {
		edge Edge
		want string
	}{
		{Down, "down"},
		{Up, "up"},
		{Edge(99), "unknown(99)"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.edge.String(); got != tt.want {
				t.Errorf("Edge.String() = %q, want %q", got, tt.want)
			}
		})
	}
}
