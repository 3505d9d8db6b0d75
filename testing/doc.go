// Package testing provides test utilities for the guidance library.
//
// This package offers helpers for setting up test environments, particularly
// embedded NATS servers for integration testing. It follows Go's convention
// of providing testing utilities in a dedicated package (similar to net/http/httptest).
//
// Key utilities:
//   - StartEmbeddedNATS: Single NATS server with JetStream
//   - NewJetStream: JetStream handle bound to the test
//   - CreateStream: In-memory stream for telemetry or status subjects
//   - CreateKV: In-memory KV bucket for command lease tests
//
// Example usage:
//
//	import (
//	    "testing"
//	    guidancetest "github.com/arloliu/guidance/testing"
//	)
//
//	func TestMyComponent(t *testing.T) {
//	    _, nc := guidancetest.StartEmbeddedNATS(t)
//	    // Use nc for your tests
//	}
package testing
