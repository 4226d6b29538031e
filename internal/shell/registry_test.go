// SPDX-License-Identifier: MPL-2.0

package shell

import (
	"context"
	"slices"
	"testing"
)

func constHandler(code int) Handler {
	return func(context.Context, Invocation) (int, error) { return code, nil }
}

func TestRegistryBindLookup(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	if _, ok := r.Lookup("mdcat"); ok {
		t.Error("Lookup() on empty registry reported a binding")
	}

	r.Bind("mdcat", constHandler(0))
	if _, ok := r.Lookup("mdcat"); !ok {
		t.Error("Lookup() after Bind() found nothing")
	}
}

func TestRegistryLastBindingWins(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	r.Bind("greet", constHandler(1))
	r.Bind("greet", constHandler(7))

	h, ok := r.Lookup("greet")
	if !ok {
		t.Fatal("Lookup() found nothing")
	}
	code, err := h(context.Background(), Invocation{})
	if err != nil || code != 7 {
		t.Errorf("rebound handler returned (%d, %v), want (7, nil)", code, err)
	}
}

func TestRegistryUnbind(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	r.Bind("greet", constHandler(0))
	r.Unbind("greet")
	if _, ok := r.Lookup("greet"); ok {
		t.Error("Lookup() after Unbind() still found a binding")
	}

	// Unbinding an unknown name is a no-op.
	r.Unbind("absent")
}

func TestRegistryNamesSorted(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	for _, name := range []string{"zeta", "alpha", "mid"} {
		r.Bind(name, constHandler(0))
	}
	if got, want := r.Names(), []string{"alpha", "mid", "zeta"}; !slices.Equal(got, want) {
		t.Errorf("Names() = %v, want %v", got, want)
	}
}
