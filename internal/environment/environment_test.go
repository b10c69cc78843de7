package environment_test

import (
	"testing"

	"github.com/sassgo/sassgo/internal/environment"
	"github.com/sassgo/sassgo/internal/value"
)

func TestScopeRestoresGlobalNames(t *testing.T) {
	env := environment.New()
	env.SetVariable("x", value.Int(1), true)

	before := env.GlobalVariableNames()

	env.Scope(func() {
		env.SetVariableInCurrentScope("y", value.Int(2))
		if _, ok := env.GetVariable("y"); !ok {
			t.Fatalf("expected y to be visible inside its own scope")
		}
	})

	if _, ok := env.GetVariable("y"); ok {
		t.Fatalf("expected y to be removed after Scope returns")
	}
	after := env.GlobalVariableNames()
	if len(before) != len(after) {
		t.Fatalf("expected global names to be unchanged: before=%v after=%v", before, after)
	}
}

func TestSetWritesToDeclaringScope(t *testing.T) {
	env := environment.New()
	env.SetVariable("x", value.Int(1), true)

	env.Scope(func() {
		// x was declared in the global scope, so a non-global set() should
		// write back into the global scope, not shadow it locally.
		env.SetVariable("x", value.Int(2), false)
	})

	v, ok := env.GetVariable("x")
	if !ok {
		t.Fatalf("expected x to survive the scope")
	}
	if !value.Equal(v, value.Int(2), value.DefaultPrecision) {
		t.Fatalf("expected x to be updated to 2, got %v", value.Inspect(v))
	}
}

func TestSetWithoutPriorBindingIsLocal(t *testing.T) {
	env := environment.New()
	env.Scope(func() {
		env.SetVariable("local", value.Int(5), false)
		if _, ok := env.GetVariable("local"); !ok {
			t.Fatalf("expected local to be visible in its own scope")
		}
	})
	if _, ok := env.GetVariable("local"); ok {
		t.Fatalf("expected local to not leak into the global scope")
	}
}
