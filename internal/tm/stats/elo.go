package stats

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// eloBucketLabels are the 21 fixed-width rating-change buckets, ordered
// from heaviest loss to heaviest gain: every 2 points from ±1 to ±18,
// catch-alls beyond ±19, and an exact-zero bucket.
var eloBucketLabels = []string{
	"-19 and down",
	"-17 to -18",
	"-15 to -16",
	"-13 to -14",
	"-11 to -12",
	"-9 to -10",
	"-7 to -8",
	"-5 to -6",
	"-3 to -4",
	"-1 to -2",
	"0",
	"1 to 2",
	"3 to 4",
	"5 to 6",
	"7 to 8",
	"9 to 10",
	"11 to 12",
	"13 to 14",
	"15 to 16",
	"17 to 18",
	"19 and up",
}

// EloBucket returns the histogram bucket label for a rating change.
func EloBucket(change int) string {
	switch {
	case change <= -19:
		return "-19 and down"
	case change < 0:
		// -1..-18 in steps of two: -1..-2, -3..-4, …
		low := ((-change + 1) / 2) * 2 // 2, 4, … upper magnitude of the pair
		return fmt.Sprintf("-%d to -%d", low-1, low)
	case change == 0:
		return "0"
	case change >= 19:
		return "19 and up"
	default:
		low := ((change + 1) / 2) * 2
		return fmt.Sprintf("%d to %d", low-1, low)
	}
}

// EloHistogram counts rating changes per bucket and marshals in fixed
// bucket order.
type EloHistogram map[string]int

// NewEloHistogram returns a histogram with every bucket present at zero.
func NewEloHistogram() EloHistogram {
	h := make(EloHistogram, len(eloBucketLabels))
	for _, l := range eloBucketLabels {
		h[l] = 0
	}
	return h
}

// Add records one rating change.
func (h EloHistogram) Add(change int) {
	h[EloBucket(change)]++
}

// MarshalJSON emits the buckets in loss-to-gain order rather than the
// map's key order.
func (h EloHistogram) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, label := range eloBucketLabels {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(label)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		fmt.Fprintf(&buf, "%d", h[label])
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// EloBucketLabels returns the bucket labels in loss-to-gain order.
func EloBucketLabels() []string {
	labels := make([]string, len(eloBucketLabels))
	copy(labels, eloBucketLabels)
	return labels
}
