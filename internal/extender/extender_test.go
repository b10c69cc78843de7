package extender

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sassgo/sassgo/internal/ast"
)

func TestApplyAddsExtenderSelectorAfterOwnSelectors(t *testing.T) {
	e := New()
	e.Record(".message", ".error", "file:///a.scss", false, ast.Span{})

	out := e.Apply([]string{".message"})
	assert.Equal(t, []string{".message", ".error"}, out)
}

func TestApplyMatchesCompoundSelectorPiece(t *testing.T) {
	e := New()
	e.Record(".btn", ".btn-primary", "file:///a.scss", false, ast.Span{})

	out := e.Apply([]string{"nav .btn"})
	assert.Equal(t, []string{"nav .btn", "nav .btn-primary"}, out)
}

func TestApplyDeduplicatesRepeatedExtensions(t *testing.T) {
	e := New()
	e.Record(".message", ".error", "file:///a.scss", false, ast.Span{})

	out := e.Apply([]string{".message", ".message"})
	assert.Equal(t, []string{".message", ".error"}, out)
}

func TestApplyIsANoOpWhenTargetNeverMatches(t *testing.T) {
	e := New()
	e.Record(".missing", ".error", "file:///a.scss", false, ast.Span{})

	out := e.Apply([]string{".message"})
	assert.Equal(t, []string{".message"}, out)
}

func TestUnmatchedReportsRequiredExtendWithNoMatch(t *testing.T) {
	e := New()
	e.Record(".missing", ".error", "file:///a.scss", false, ast.Span{})
	e.Apply([]string{".message"})

	errs := e.Unmatched()
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), ".missing")
}

func TestUnmatchedIgnoresOptionalExtend(t *testing.T) {
	e := New()
	e.Record(".missing", ".error", "file:///a.scss", true, ast.Span{})
	e.Apply([]string{".message"})

	assert.Empty(t, e.Unmatched())
}

func TestUnmatchedIsSatisfiedOnceAnyAlternativeMatches(t *testing.T) {
	e := New()
	e.Record(".message", ".error", "file:///a.scss", false, ast.Span{})
	e.Apply([]string{".other"})
	e.Apply([]string{".message"})

	assert.Empty(t, e.Unmatched())
}
