package vin

import (
	"encoding/json"
	"strings"
)

// Acceptance band for video-path candidates. Multi-frame recognition output
// is noisy enough that partial and padded reads are surfaced for review
// instead of being dropped at the strict 17-character gate.
const (
	candidateMinLength = 10
	candidateMaxLength = 20
)

// ParseCandidates extracts candidate identifiers from multi-frame recognition
// output. The text is tried as a JSON array of strings first (tolerating a
// Markdown code fence around it); when that yields nothing the raw text is
// scanned for identifier-shaped runs. Candidates are uppercased and
// deduplicated preserving first-seen order. An empty result is not an error.
func ParseCandidates(text string) []string {
	trimmed := stripCodeFence(strings.TrimSpace(text))
	if trimmed == "" {
		return nil
	}

	if candidates := parseJSONArray(trimmed); len(candidates) > 0 {
		return candidates
	}
	return scanRuns(trimmed)
}

func parseJSONArray(text string) []string {
	var elements []any
	if err := json.Unmarshal([]byte(text), &elements); err != nil {
		return nil
	}

	out := make([]string, 0, len(elements))
	seen := make(map[string]struct{}, len(elements))
	for _, element := range elements {
		str, ok := element.(string)
		if !ok {
			continue
		}
		candidate := strings.ToUpper(strings.TrimSpace(str))
		if !withinBand(len(candidate)) {
			continue
		}
		if _, dup := seen[candidate]; dup {
			continue
		}
		seen[candidate] = struct{}{}
		out = append(out, candidate)
	}
	return out
}

// scanRuns collects maximal runs of uppercase letters and digits whose length
// falls inside the acceptance band. Lowercase prose, punctuation, and
// whitespace delimit runs.
func scanRuns(text string) []string {
	var out []string
	seen := make(map[string]struct{})

	flush := func(run []rune) {
		if !withinBand(len(run)) {
			return
		}
		candidate := string(run)
		if _, dup := seen[candidate]; dup {
			return
		}
		seen[candidate] = struct{}{}
		out = append(out, candidate)
	}

	var run []rune
	for _, r := range text {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			run = append(run, r)
			continue
		}
		flush(run)
		run = run[:0]
	}
	flush(run)
	return out
}

func withinBand(length int) bool {
	return length >= candidateMinLength && length <= candidateMaxLength
}

// stripCodeFence removes a surrounding Markdown code fence, including an
// optional language tag, from recognition output.
func stripCodeFence(text string) string {
	if !strings.HasPrefix(text, "```") {
		return text
	}
	body := strings.TrimLeft(text[3:], " \t\r\n")
	if len(body) >= 4 && strings.EqualFold(body[:4], "json") {
		body = strings.TrimLeft(body[4:], " \t\r\n")
	}
	if idx := strings.LastIndex(body, "```"); idx >= 0 {
		body = body[:idx]
	}
	return strings.TrimSpace(body)
}
