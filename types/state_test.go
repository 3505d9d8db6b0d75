package types

import "testing"

func TestLinkStatusString(t *testing.T) {
	tests := []struct {
		status LinkStatus
		want   string
	}{
		{LinkDisconnected, "Disconnected"},
		{LinkConnected, "Connected"},
		{LinkStatus(999), "Unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.status.String(); got != tt.want {
				t.Errorf("LinkStatus.String() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLinkStatusZeroValueIsDisconnected(t *testing.T) {
	var s LinkStatus
	if s != LinkDisconnected {
		t.Errorf("zero LinkStatus = %v, want Disconnected", s)
	}
}
