package testing

import (
	"testing"

	"github.com/arloliu/guidance/internal/logger"
	"github.com/arloliu/guidance/types"
)

// NewTestLogger creates a logger that writes to the test log and records every entry.
// This is useful for seeing log output during test runs.
func NewTestLogger(t *testing.T) types.Logger {
	return logger.NewTest(t)
}
