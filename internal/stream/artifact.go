package stream

import (
	"regexp"
	"strings"
)

// Artifact extraction for the website builder: the model is instructed to
// emit a single embedded HTML document, and the preview live-updates as the
// document streams in. The whole accumulated buffer is re-scanned on every
// fragment, which is cheap at chat scale.

var (
	htmlFenceRe    = regexp.MustCompile("(?s)```html\\s*(.*?)\\s*```")
	genericFenceRe = regexp.MustCompile("(?s)```\\s*(.*?)\\s*```")
)

// minArtifactLen filters out near-empty matches while the document is still
// streaming in.
const minArtifactLen = 50

// ExtractArtifact scans the full buffer for a complete ```html fence, then
// any complete fence, then a raw document starting with a document-root tag.
// A fence that opens but never closes yields no artifact: partial fence
// contents are never exposed.
func ExtractArtifact(buffer string) (string, bool) {
	if m := htmlFenceRe.FindStringSubmatch(buffer); m != nil && m[1] != "" {
		return m[1], true
	}
	if m := genericFenceRe.FindStringSubmatch(buffer); m != nil && m[1] != "" {
		return m[1], true
	}

	// An opened-but-unclosed fence means the document is mid-stream; do not
	// fall through to the raw-document check, which would expose the fence
	// opener itself.
	if strings.Contains(buffer, "```") {
		return "", false
	}

	for _, root := range []string{"<!DOCTYPE html>", "<!doctype html>", "<html"} {
		if idx := strings.Index(buffer, root); idx >= 0 {
			return buffer[idx:], true
		}
	}
	return "", false
}

// ExtractLiveArtifact is ExtractArtifact with the streaming length gate:
// tiny fragments of a document are withheld from the live preview.
func ExtractLiveArtifact(buffer string) (string, bool) {
	code, ok := ExtractArtifact(buffer)
	if !ok || len(code) <= minArtifactLen {
		return "", false
	}
	return code, true
}
