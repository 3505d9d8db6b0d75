package link

import (
	"fmt"

	"github.com/arloliu/guidance/internal/natsutil"
	"github.com/arloliu/guidance/types"
)

// classify wraps a transport error with the guidance error taxonomy.
func classify(op string, err error) error {
	if natsutil.IsClosed(err) {
		return fmt.Errorf("%s: %w: %w", op, types.ErrChannelClosed, err)
	}

	return fmt.Errorf("%s: %w: %w", op, types.ErrTransientIO, err)
}
