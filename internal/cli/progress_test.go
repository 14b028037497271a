package cli

import (
	"bytes"
	"strings"
	"testing"
)

func TestProgressReporter(t *testing.T) {
	var buf bytes.Buffer
	report := progressReporter(&buf)

	report(1, 3)
	report(3, 3)
	report(2, 3) // arrives late, dropped

	got := buf.String()
	want := "\rprocessing images 1/3\rprocessing images 3/3\n"
	if got != want {
		t.Errorf("progress output = %q, want %q", got, want)
	}
	if strings.Contains(got, "2/3") {
		t.Error("stale count was printed")
	}
}
