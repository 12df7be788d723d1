package stats

import (
	"strings"
	"testing"
)

func TestEloBucket(t *testing.T) {
	tests := []struct {
		change int
		want   string
	}{
		{-40, "-19 and down"},
		{-19, "-19 and down"},
		{-18, "-17 to -18"},
		{-17, "-17 to -18"},
		{-3, "-3 to -4"},
		{-2, "-1 to -2"},
		{-1, "-1 to -2"},
		{0, "0"},
		{1, "1 to 2"},
		{2, "1 to 2"},
		{3, "3 to 4"},
		{17, "17 to 18"},
		{18, "17 to 18"},
		{19, "19 and up"},
		{40, "19 and up"},
	}

	for _, tt := range tests {
		if got := EloBucket(tt.change); got != tt.want {
			t.Errorf("EloBucket(%d) = %q, want %q", tt.change, got, tt.want)
		}
	}
}

func TestEloHistogramMarshalOrder(t *testing.T) {
	h := NewEloHistogram()
	h.Add(-25)
	h.Add(0)
	h.Add(7)
	h.Add(7)

	data, err := h.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON() error: %v", err)
	}
	s := string(data)

	if !strings.HasPrefix(s, `{"-19 and down":1`) {
		t.Errorf("histogram should start with the heaviest loss bucket, got %s", s)
	}
	if !strings.HasSuffix(s, `"19 and up":0}`) {
		t.Errorf("histogram should end with the heaviest gain bucket, got %s", s)
	}
	if !strings.Contains(s, `"7 to 8":2`) {
		t.Errorf("expected two entries in the 7 to 8 bucket, got %s", s)
	}
}

func TestEloBucketLabels(t *testing.T) {
	labels := EloBucketLabels()
	if len(labels) != 21 {
		t.Fatalf("expected 21 bucket labels, got %d", len(labels))
	}
	labels[0] = "mutated"
	if EloBucketLabels()[0] != "-19 and down" {
		t.Error("EloBucketLabels must return a copy")
	}
}
