package clipboard

import (
	"testing"
)

func TestWrite(t *testing.T) {
	// Requires clipboard access; headless environments fail Init and skip.
	if err := Init(); err != nil {
		t.Skipf("clipboard unavailable: %v", err)
	}
	if err := Write("test text"); err != nil {
		t.Errorf("Write: %v", err)
	}
	Sink{}.Write("sink text")
}
