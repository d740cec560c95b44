package llm

import (
	"encoding/json"
	"strings"
)

// ExtractJSONObject pulls the first JSON object out of free-form model text.
// Code fences are stripped, the whole text is tried first, then every
// balanced {...} span in order of appearance.
func ExtractJSONObject(text string) (map[string]any, bool) {
	cleaned := stripCodeFences(text)
	if obj, ok := decodeObject(cleaned); ok {
		return obj, true
	}
	for start := strings.IndexByte(cleaned, '{'); start >= 0; {
		end := matchBrace(cleaned, start)
		if end > start {
			if obj, ok := decodeObject(cleaned[start : end+1]); ok {
				return obj, true
			}
		}
		next := strings.IndexByte(cleaned[start+1:], '{')
		if next < 0 {
			break
		}
		start += next + 1
	}
	return nil, false
}

func decodeObject(s string) (map[string]any, bool) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "{") {
		return nil, false
	}
	var obj map[string]any
	if err := json.Unmarshal([]byte(s), &obj); err != nil {
		return nil, false
	}
	return obj, true
}

// matchBrace returns the index of the brace closing the one at start, or -1.
// Braces inside JSON strings are ignored.
func matchBrace(s string, start int) int {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func stripCodeFences(text string) string {
	t := strings.TrimSpace(text)
	if !strings.Contains(t, "```") {
		return t
	}
	var b strings.Builder
	for _, line := range strings.Split(t, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			continue
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return strings.TrimSpace(b.String())
}
