package natsutil

import (
	"errors"
	"fmt"
	"testing"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/guidance/types"
)

func TestIsConnectivityError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"timeout", nats.ErrTimeout, true},
		{"wrapped timeout", fmt.Errorf("fetch: %w", nats.ErrTimeout), true},
		{"no servers", nats.ErrNoServers, true},
		{"transient io", types.ErrTransientIO, true},
		{"refused text", errors.New("dial tcp: connection refused"), true},
		{"closed", nats.ErrConnectionClosed, false},
		{"other", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, IsConnectivityError(tt.err))
		})
	}
}

func TestIsClosed(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"connection closed", nats.ErrConnectionClosed, true},
		{"bad subscription", nats.ErrBadSubscription, true},
		{"iterator closed", fmt.Errorf("next: %w", jetstream.ErrMsgIteratorClosed), true},
		{"consumer deleted", jetstream.ErrConsumerDeleted, true},
		{"channel closed", types.ErrChannelClosed, true},
		{"timeout", nats.ErrTimeout, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, IsClosed(tt.err))
		})
	}
}
