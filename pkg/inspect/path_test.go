package inspect

import (
	"errors"
	"testing"

	"github.com/pcicap/pcicap-go/pkg/capability"
	"github.com/pcicap/pcicap-go/pkg/configspace"
)

func TestParsePath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    *Path
		wantErr bool
	}{
		{
			name:  "capability by alias",
			input: "msi",
			want:  &Path{ID: capability.IDMSI, HasID: true},
		},
		{
			name:  "capability by full name",
			input: "Power Management",
			want:  &Path{ID: capability.IDPowerManagement, HasID: true},
		},
		{
			name:  "capability by hex ID",
			input: "0x10",
			want:  &Path{ID: capability.IDPCIExpress, HasID: true},
		},
		{
			name:  "offset",
			input: "@80",
			want:  &Path{Offset: 0x80, HasOffset: true},
		},
		{
			name:  "offset with 0x prefix",
			input: "@0xa8",
			want:  &Path{Offset: 0xa8, HasOffset: true},
		},
		{
			name:  "device only",
			input: "0000:00:1f.2",
			want:  &Path{Device: "0000:00:1f.2", IsPartial: true},
		},
		{
			name:  "short device address",
			input: "00:1f.2",
			want:  &Path{Device: "0000:00:1f.2", IsPartial: true},
		},
		{
			name:  "device and capability",
			input: "0000:00:1f.2/sata",
			want:  &Path{Device: "0000:00:1f.2", ID: capability.IDSATA, HasID: true},
		},
		{
			name:  "device and offset",
			input: "0000:00:1f.2/@70",
			want:  &Path{Device: "0000:00:1f.2", Offset: 0x70, HasOffset: true},
		},
		{
			name:    "empty",
			input:   "",
			wantErr: true,
		},
		{
			name:    "leading slash",
			input:   "/msi",
			wantErr: true,
		},
		{
			name:    "trailing slash",
			input:   "0000:00:1f.2/",
			wantErr: true,
		},
		{
			name:    "too many parts",
			input:   "0000:00:1f.2/msi/extra",
			wantErr: true,
		},
		{
			name:    "device without address",
			input:   "eth0/msi",
			wantErr: true,
		},
		{
			name:    "invalid address",
			input:   "00:20.0/msi",
			wantErr: true,
		},
		{
			name:    "unknown capability",
			input:   "bogus",
			wantErr: true,
		},
		{
			name:    "invalid offset",
			input:   "@zz",
			wantErr: true,
		},
		{
			name:    "offset out of range",
			input:   "@100",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePath(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParsePath(%q) expected error, got nil", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParsePath(%q) unexpected error: %v", tt.input, err)
			}

			if got.Device != tt.want.Device {
				t.Errorf("Device = %q, want %q", got.Device, tt.want.Device)
			}
			if got.ID != tt.want.ID || got.HasID != tt.want.HasID {
				t.Errorf("ID = %02x/%v, want %02x/%v", uint8(got.ID), got.HasID, uint8(tt.want.ID), tt.want.HasID)
			}
			if got.Offset != tt.want.Offset || got.HasOffset != tt.want.HasOffset {
				t.Errorf("Offset = %02x/%v, want %02x/%v", got.Offset, got.HasOffset, tt.want.Offset, tt.want.HasOffset)
			}
			if got.IsPartial != tt.want.IsPartial {
				t.Errorf("IsPartial = %v, want %v", got.IsPartial, tt.want.IsPartial)
			}
			if got.Raw != tt.input {
				t.Errorf("Raw = %q, want %q", got.Raw, tt.input)
			}
		})
	}
}

func TestParsePathErrors(t *testing.T) {
	tests := []struct {
		input string
		want  error
	}{
		{"", ErrEmptyPath},
		{"   ", ErrEmptyPath},
		{"//msi", ErrInvalidPath},
		{"eth0/msi", ErrInvalidPath},
		{"bogus", ErrUnknownCapability},
		{"@xyz", ErrInvalidNumber},
		{"00:20.0", configspace.ErrInvalidAddress},
		{"0000:00:1f.2.bak/msi", configspace.ErrInvalidAddress},
		{"00:1f.2x", configspace.ErrInvalidAddress},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, err := ParsePath(tt.input)
			if !errors.Is(err, tt.want) {
				t.Errorf("ParsePath(%q) error = %v, want %v", tt.input, err, tt.want)
			}
		})
	}
}

func TestPathString(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"msi", "#05"},
		{"@80", "@80"},
		{"00:1f.2", "0000:00:1f.2"},
		{"00:1f.2/pm", "0000:00:1f.2/#01"},
		{"0000:00:1f.2/@a8", "0000:00:1f.2/@a8"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			p, err := ParsePath(tt.input)
			if err != nil {
				t.Fatalf("ParsePath(%q): %v", tt.input, err)
			}
			if got := p.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}

			// The string form parses back to the same selection.
			again, err := ParsePath(p.String())
			if err != nil {
				t.Fatalf("ParsePath(%q): %v", p.String(), err)
			}
			if again.ID != p.ID || again.Offset != p.Offset || again.Device != p.Device {
				t.Errorf("round trip of %q changed the path", tt.input)
			}
		})
	}
}

func TestPathMatches(t *testing.T) {
	msi := capability.Capability{Offset: 0x80, Kind: capability.MSI{}}
	pm := capability.Capability{Offset: 0x70, Kind: capability.PowerManagement{}}
	recordErr := &capability.Error{Offset: 0xf8, ID: capability.IDMSI, Err: capability.ErrPayloadTooShort}
	chainErr := &capability.Error{Offset: 0xff, Err: capability.ErrTruncatedHeader}

	byID := &Path{ID: capability.IDMSI, HasID: true}
	if !byID.Matches(msi) || byID.Matches(pm) {
		t.Error("ID path should match MSI only")
	}
	if !byID.MatchesError(recordErr) || byID.MatchesError(chainErr) {
		t.Error("ID path should match the MSI record error only")
	}

	byOffset := &Path{Offset: 0xff, HasOffset: true}
	if byOffset.Matches(msi) || !byOffset.MatchesError(chainErr) {
		t.Error("offset path should match the chain error at ff only")
	}

	all := &Path{IsPartial: true}
	if !all.Matches(msi) || !all.MatchesError(chainErr) || !all.MatchesError(errors.New("other")) {
		t.Error("partial path should match everything")
	}
}
