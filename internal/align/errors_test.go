package align

import (
	"errors"
	"testing"
)

func TestWrapKeepsMarkerAndCause(t *testing.T) {
	cause := errors.New("boom")
	err := Wrap(ErrResampleFailed, "warp", "dem/a.asc", cause)

	if got, want := err.Error(), "resample failed: warp: dem/a.asc: boom"; got != want {
		t.Fatalf("message = %q, want %q", got, want)
	}
	if !errors.Is(err, ErrResampleFailed) || !errors.Is(err, cause) {
		t.Fatal("marker and cause must both be reachable")
	}
}

func TestWrapWithoutCause(t *testing.T) {
	tests := []struct {
		op, path string
		want     string
	}{
		{"", "", "no valid data"},
		{"valid extent", "", "no valid data: valid extent"},
		{"valid extent", "a.asc", "no valid data: valid extent: a.asc"},
	}
	for _, tt := range tests {
		if got := Wrap(ErrNoValidData, tt.op, tt.path, nil).Error(); got != tt.want {
			t.Errorf("Wrap(%q, %q) = %q, want %q", tt.op, tt.path, got, tt.want)
		}
	}
}

func TestIsBatchFatal(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{Wrap(ErrNoReferenceExtent, "select", "", nil), true},
		{Wrap(ErrNoResolution, "select", "", nil), true},
		{Wrap(ErrNoValidData, "extent", "a.asc", nil), false},
		{Wrap(ErrResampleFailed, "warp", "a.asc", errors.New("x")), false},
		{nil, false},
	}
	for _, tt := range tests {
		if got := IsBatchFatal(tt.err); got != tt.want {
			t.Errorf("IsBatchFatal(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}
