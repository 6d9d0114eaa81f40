package stream

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"crocsthepen/internal/types"
)

func TestAccumulator_FragmentsConcatenateInOrder(t *testing.T) {
	var renders []types.Message
	a := Begin("m1", func(m types.Message) { renders = append(renders, m) })

	require.True(t, a.Message().Generating)
	require.Empty(t, a.Message().Content)

	a.OnFragment(Fragment{Text: "Hel"})
	require.Equal(t, "Hel", a.Message().Content)
	require.True(t, a.Message().Generating, "still generating after first fragment")

	a.OnFragment(Fragment{Text: "lo "})
	require.Equal(t, "Hello ", a.Message().Content)
	require.True(t, a.Message().Generating)

	a.OnFragment(Fragment{Text: "world"})
	final := a.Finalize()

	require.Equal(t, "Hello world", final.Content)
	require.False(t, final.Generating, "generating cleared only by explicit finalize")

	// One render per fragment plus the placeholder and the finalize.
	require.Len(t, renders, 5)
	// Sequential application equals direct concatenation.
	require.Equal(t, "Hel"+"lo "+"world", final.Content)
}

func TestAccumulator_GroundingAccumulatesInArrivalOrder(t *testing.T) {
	a := Begin("m1", nil)

	a.OnFragment(Fragment{Text: "a", Grounding: []types.GroundingChunk{{URI: "https://one", Title: "One"}}})
	a.OnFragment(Fragment{Text: "b"})
	a.OnFragment(Fragment{Text: "c", Grounding: []types.GroundingChunk{
		{URI: "https://two", Title: "Two"},
		{URI: "https://one", Title: "One"}, // duplicates are kept
	}})

	final := a.Finalize()
	require.Equal(t, []types.GroundingChunk{
		{URI: "https://one", Title: "One"},
		{URI: "https://two", Title: "Two"},
		{URI: "https://one", Title: "One"},
	}, final.Grounding)
}

func TestAccumulator_FinalizeAttachesParts(t *testing.T) {
	a := Begin("m1", nil)
	final := a.Finalize(types.MediaURLPart(types.MediaImage, "https://img.example/x.png"))

	require.Len(t, final.Parts, 1)
	require.Equal(t, types.PartMediaURL, final.Parts[0].Kind)
	require.False(t, final.Generating)

	// Fragments after finalize are dropped, content frozen.
	a.OnFragment(Fragment{Text: "late"})
	require.Equal(t, final.Content, a.Message().Content)
}

func TestAccumulator_FailSetsErrorContent(t *testing.T) {
	var last types.Message
	a := Begin("m1", func(m types.Message) { last = m })
	a.OnFragment(Fragment{Text: "partial"})

	failed := a.Fail(errors.New("quota exceeded"))
	require.False(t, failed.Generating)
	require.Equal(t, "Error: quota exceeded", failed.Content)
	require.Equal(t, failed.Content, last.Content, "sink saw the terminal state")
}

func TestExtractArtifact_FenceSplitAcrossFragments(t *testing.T) {
	a := Begin("m1", nil)

	a.OnFragment(Fragment{Text: "```html\n<div>ok</div>\n"})
	_, ok := ExtractArtifact(a.Content())
	require.False(t, ok, "no artifact before the closing fence arrives")

	a.OnFragment(Fragment{Text: "```"})
	code, ok := ExtractArtifact(a.Content())
	require.True(t, ok)
	require.Equal(t, "<div>ok</div>", code)
}

func TestExtractArtifact_UnclosedFenceNeverExposed(t *testing.T) {
	buf := "Here is the site:\n```html\n<!DOCTYPE html>\n<html><body>hi</body></html>"
	_, ok := ExtractArtifact(buf)
	require.False(t, ok, "unclosed fence keeps the artifact unset")
}

func TestExtractArtifact_RawDocumentWithoutFence(t *testing.T) {
	doc := "<!DOCTYPE html>\n<html><body>raw</body></html>"
	code, ok := ExtractArtifact("Sure, here you go: " + doc)
	require.True(t, ok)
	require.Equal(t, doc, code)
}

func TestExtractArtifact_GenericFenceFallback(t *testing.T) {
	code, ok := ExtractArtifact("```\n<html><body>x</body></html>\n```")
	require.True(t, ok)
	require.Equal(t, "<html><body>x</body></html>", code)
}

func TestExtractLiveArtifact_LengthGate(t *testing.T) {
	_, ok := ExtractLiveArtifact("```html\n<p>x</p>\n```")
	require.False(t, ok, "tiny documents withheld from the live preview")

	long := "<html><body>" + strings.Repeat("x", 60) + "</body></html>"
	code, ok := ExtractLiveArtifact("```html\n" + long + "\n```")
	require.True(t, ok)
	require.Equal(t, long, code)
}
