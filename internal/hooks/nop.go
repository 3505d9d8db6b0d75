package hooks

import (
	"context"

	"github.com/arloliu/guidance/types"
)

// NopHooks implements Hooks with no-op callbacks.
//
// This is the default implementation used when no custom hooks are provided,
// eliminating the need for nil checks throughout the codebase.
type NopHooks struct{}

// Compile-time assertions that NopHooks implements hook callbacks.
var (
	_ func(context.Context, types.LinkStatus, types.LinkStatus) error = (*NopHooks)(nil).OnLinkStatusChanged
	_ func(context.Context, string) error                             = (*NopHooks)(nil).OnCommandIssued
	_ func(context.Context, error) error                              = (*NopHooks)(nil).OnError
)

// NewNop creates a new no-op hooks implementation.
//
// Returns:
//   - types.Hooks: Hooks with no-op implementations
func NewNop() types.Hooks {
	h := &NopHooks{}
	return types.Hooks{
		OnLinkStatusChanged: h.OnLinkStatusChanged,
		OnCommandIssued:     h.OnCommandIssued,
		OnError:             h.OnError,
	}
}

// Fill returns hooks with every nil callback replaced by its no-op counterpart.
func Fill(h *types.Hooks) types.Hooks {
	nop := NewNop()
	if h == nil {
		return nop
	}

	out := *h
	if out.OnLinkStatusChanged == nil {
		out.OnLinkStatusChanged = nop.OnLinkStatusChanged
	}
	if out.OnCommandIssued == nil {
		out.OnCommandIssued = nop.OnCommandIssued
	}
	if out.OnError == nil {
		out.OnError = nop.OnError
	}

	return out
}

// OnLinkStatusChanged is a no-op implementation.
func (h *NopHooks) OnLinkStatusChanged(ctx context.Context, from, to types.LinkStatus) error {
	return nil
}

// OnCommandIssued is a no-op implementation.
func (h *NopHooks) OnCommandIssued(ctx context.Context, msg string) error {
	return nil
}

// OnError is a no-op implementation.
func (h *NopHooks) OnError(ctx context.Context, err error) error {
	return nil
}
