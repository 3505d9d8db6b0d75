package types

import "context"

// Hooks defines callbacks for Controller lifecycle events.
//
// All hooks are optional and called asynchronously in background goroutines
// to avoid blocking the worker loop or the link monitor. Hooks receive the
// controller's lifecycle context which will be cancelled during shutdown.
//
// IMPORTANT: Hook execution behavior:
//   - Hooks run concurrently and may not complete before Stop() returns
//   - The context passed to hooks is cancelled when the controller stops
//   - Hook errors are logged but don't fail controller operations
//
// Example:
//
//	hooks := &guidance.Hooks{
//	    OnLinkStatusChanged: func(ctx context.Context, from, to guidance.LinkStatus) error {
//	        alerts <- fmt.Sprintf("link %s -> %s", from, to)
//	        return nil
//	    },
//	}
type Hooks struct {
	// OnLinkStatusChanged is called when the command link changes state.
	OnLinkStatusChanged func(ctx context.Context, from, to LinkStatus) error

	// OnCommandIssued is called after a status message for an issued command
	// has been delivered to the outbound channel.
	OnCommandIssued func(ctx context.Context, msg string) error

	// OnError is called when a recoverable error occurs in the worker loop.
	OnError func(ctx context.Context, err error) error
}
