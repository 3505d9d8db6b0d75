package serialbridge

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/arloliu/guidance/types"
)

// ParseLine decodes one "x,y,z,yaw" line.
//
// Returns:
//   - types.TelemetrySample: Decoded sample without timestamp
//   - error: Wraps types.ErrMalformedMessage when the line has the wrong
//     field count or a field is not a finite number
func ParseLine(line string) (types.TelemetrySample, error) {
	fields := strings.Split(strings.TrimSpace(line), ",")
	if len(fields) != 4 {
		return types.TelemetrySample{}, fmt.Errorf("%w: want 4 fields, got %d", types.ErrMalformedMessage, len(fields))
	}

	var values [4]float64
	for i, f := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return types.TelemetrySample{}, fmt.Errorf("%w: field %d %q", types.ErrMalformedMessage, i+1, f)
		}
		values[i] = v
	}

	return types.TelemetrySample{X: values[0], Y: values[1], Z: values[2], Yaw: values[3]}, nil
}
