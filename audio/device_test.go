package audio

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestPickDevice(t *testing.T) {
	devices := []DeviceInfo{{ID: "a", Name: "Built-in"}, {ID: "b", Name: "AirPods"}, {ID: "c", Name: "USB"}}

	tests := []struct {
		name    string
		input   string
		want    int
		wantErr error
	}{
		{"enter", "\r", 0, nil},
		{"down arrow", "\x1b[B\r", 1, nil},
		{"vim keys", "jjk\r", 1, nil},
		{"clamped", "jjjjj\r", 2, nil},
		{"ctrl c", "\x03", 0, ErrSelectionCancelled},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			got, err := pick(devices, &keyReader{keys: splitKeys(tt.input)}, &out)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr == nil && got != tt.want {
				t.Errorf("picked %d, want %d", got, tt.want)
			}
			if !strings.Contains(out.String(), "Lower audio quality") {
				t.Error("bluetooth device not flagged")
			}
		})
	}
}

func TestFindDevice(t *testing.T) {
	ctx := NewFakeContextFromSamples(Format{SampleRate: 8000, Channels: 1}, nil, false)
	d, err := FindDevice(ctx, "fake")
	if err != nil || d.ID != "fake" {
		t.Fatalf("FindDevice = %v, %v", d, err)
	}
	if _, err := FindDevice(ctx, "nope"); err == nil {
		t.Error("expected error for unknown device")
	}
}

// keyReader returns one keypress per Read like a raw terminal does.
type keyReader struct {
	keys []string
}

func (r *keyReader) Read(p []byte) (int, error) {
	if len(r.keys) == 0 {
		return 0, errors.New("eof")
	}
	n := copy(p, r.keys[0])
	r.keys = r.keys[1:]
	return n, nil
}

func splitKeys(s string) []string {
	var keys []string
	for len(s) > 0 {
		if strings.HasPrefix(s, "\x1b[") && len(s) >= 3 {
			keys = append(keys, s[:3])
			s = s[3:]
			continue
		}
		keys = append(keys, s[:1])
		s = s[1:]
	}
	return keys
}
