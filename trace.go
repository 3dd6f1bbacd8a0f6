package sqlkit

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

const (
	// maxTraceStringLength bounds printable string parameters; longer values
	// are truncated with an original-length suffix.
	maxTraceStringLength = 100

	// maxTraceBatchSize bounds how many batch entries a trace renders.
	maxTraceBatchSize = 20

	// spaceCollapsePasses bounds the iterative repeated-space collapse.
	// This is a fixed-iteration heuristic, not a true fixed point, so
	// pathological inputs may keep some repeated spaces.
	spaceCollapsePasses = 10

	// maxStackTraceDepth caps the call-site excerpt embedded in trace logs.
	maxStackTraceDepth = 15
)

var whitespaceReplacer = strings.NewReplacer("\t", " ", "\r", " ", "\n", " ")

// collapseWhitespace turns tabs and line breaks into spaces, then collapses
// repeated spaces for up to spaceCollapsePasses passes.
func collapseWhitespace(s string) string {
	s = whitespaceReplacer.Replace(s)
	for i := 0; i < spaceCollapsePasses; i++ {
		collapsed := strings.ReplaceAll(s, "  ", " ")
		if collapsed == s {
			break
		}
		s = collapsed
	}
	return s
}

// printableParam renders one parameter for diagnostics. Optionals resolve
// through the same normalization the binder uses; strings are quoted and
// truncated; line breaks become their two-character escapes. The output is
// never fed back into execution.
func printableParam(v any) string {
	var s string
	switch x := normalizeParam(v).(type) {
	case nil:
		s = "null"
	case string:
		runes := []rune(x)
		if len(runes) > maxTraceStringLength {
			s = fmt.Sprintf("'%s'... (%d chars)", string(runes[:maxTraceStringLength]), len(runes))
		} else {
			s = "'" + x + "'"
		}
	case []byte:
		s = fmt.Sprintf("[bytes:%d]", len(x))
	case time.Time:
		s = formatTemporal(x)
	default:
		s = fmt.Sprintf("%v", x)
	}
	s = strings.ReplaceAll(s, "\r", `\r`)
	s = strings.ReplaceAll(s, "\n", `\n`)
	return s
}

// formatTemporal renders a time value as canonical date, time or timestamp
// text depending on which components it carries.
func formatTemporal(t time.Time) string {
	h, m, s := t.Clock()
	if h == 0 && m == 0 && s == 0 && t.Nanosecond() == 0 {
		return t.Format("2006-01-02")
	}
	if t.Year() == 0 || (t.Year() == 1970 && t.YearDay() == 1) {
		return t.Format("15:04:05")
	}
	return t.Format("2006-01-02 15:04:05.999999999")
}

// renderStatement substitutes each `?` in the collapsed template text with
// the printable form of its positional parameter, in order.
func renderStatement(query string, params []any) string {
	collapsed := collapseWhitespace(query)
	var b strings.Builder
	b.Grow(len(collapsed))
	idx := 0
	for _, r := range collapsed {
		if r == '?' && idx < len(params) {
			b.WriteString(printableParam(params[idx]))
			idx++
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// renderTrace produces the display string for a statement template. A batch
// renders at most maxTraceBatchSize entries joined with "; ", followed by a
// total-count annotation when truncated. Rendering is pure: the same
// template and parameters always yield identical text.
func renderTrace(st *StatementTemplate) string {
	if st == nil {
		return ""
	}
	if !st.batchMode {
		return renderStatement(st.SQL, st.params)
	}
	total := len(st.batch)
	shown := total
	if shown > maxTraceBatchSize {
		shown = maxTraceBatchSize
	}
	parts := make([]string, 0, shown)
	for _, entry := range st.batch[:shown] {
		parts = append(parts, renderStatement(st.SQL, entry))
	}
	out := strings.Join(parts, "; ")
	if total > maxTraceBatchSize {
		out += fmt.Sprintf("; ... (total %d statements)", total)
	}
	return out
}

// modulePath is used to locate the first caller frame outside this library
// when capturing a call-site excerpt.
const modulePath = "github.com/taka-/sqlkit"

// callStackExcerpt returns up to maxStackTraceDepth frames beginning after
// the last frame still inside this execution layer, one frame per line.
func callStackExcerpt() string {
	pc := make([]uintptr, maxStackTraceDepth+32)
	n := runtime.Callers(2, pc)
	frames := runtime.CallersFrames(pc[:n])
	var lines []string
	skipping := true
	for {
		f, more := frames.Next()
		if skipping && insideLibrary(f.Function) {
			if !more {
				break
			}
			continue
		}
		skipping = false
		lines = append(lines, fmt.Sprintf("%s (%s:%d)", f.Function, filepath.Base(f.File), f.Line))
		if len(lines) >= maxStackTraceDepth || !more {
			break
		}
	}
	return strings.Join(lines, "\n  ")
}

// insideLibrary reports whether a function belongs to this package's
// execution layer. Test functions count as call sites, not as layer frames.
func insideLibrary(fn string) bool {
	if !strings.HasPrefix(fn, modulePath+".") {
		return false
	}
	name := strings.TrimPrefix(fn, modulePath+".")
	return !strings.HasPrefix(name, "Test") && !strings.HasPrefix(name, "Benchmark")
}
