package ptr_test

import (
	"testing"

	"github.com/myrjola/dietplan/internal/ptr"
)

func TestRef(t *testing.T) {
	sets := 3
	p := ptr.Ref(sets)
	if p == nil {
		t.Fatal("Expected pointer to be non-nil")
	}
	if *p != sets {
		t.Errorf("Expected %d, got %d", sets, *p)
	}
	sets = 5
	if *p == sets {
		t.Errorf("Pointer value should not change when original value is modified")
	}
}

func TestDeref(t *testing.T) {
	if got := ptr.Deref[int](nil, 60); got != 60 {
		t.Errorf("Deref(nil) = %d, want fallback 60", got)
	}
	if got := ptr.Deref(ptr.Ref(12), 60); got != 12 {
		t.Errorf("Deref(12) = %d, want 12", got)
	}
}
