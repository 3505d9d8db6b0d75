// Package hash derives stable identifiers for outbound messages.
package hash

import (
	"encoding/binary"
	"strconv"

	"github.com/zeebo/xxh3"
)

// MessageID returns a deterministic JetStream Nats-Msg-Id for one message.
//
// The ID hashes the producer, its sequence number and the payload into a
// single xxh3 64-bit value, so a retried publish of the same message carries
// the same ID and is dropped by the stream's duplicate window.
//
// Parameters:
//   - producer: Producer identity (e.g., the vehicle ID)
//   - seq: Producer-local sequence number
//   - payload: Encoded message body
//
// Returns:
//   - string: "<producer>-<seq>-<hash>" with the hash in base 36
//
// Example:
//
//	id := hash.MessageID("uav-1", 42, data)
//	_, err := js.Publish(ctx, subject, data, jetstream.WithMsgID(id))
func MessageID(producer string, seq uint64, payload []byte) string {
	h := xxh3.HashString(producer)

	var sb [8]byte
	binary.LittleEndian.PutUint64(sb[:], seq)
	h = xxh3.HashSeed(sb[:], h)
	h = xxh3.HashSeed(payload, h)

	return producer + "-" + strconv.FormatUint(seq, 10) + "-" + strconv.FormatUint(h, 36)
}
