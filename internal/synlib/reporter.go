// ABOUTME: Converts faults raised inside the gateway worker into debug log lines.
// ABOUTME: Normalizes severity, message and paths, and renders the call trace.

package synlib

import (
	"fmt"
	"os"
	"reflect"
	"runtime"
	"strconv"
	"strings"

	"github.com/2389/synapse-gateway/internal/metrics"
)

// Severity classifies a fault. Values are bit flags so callers can build masks.
type Severity int

const (
	SeverityError Severity = 1 << iota
	SeverityWarning
	SeverityParse
	SeverityNotice
	SeverityCoreError
	SeverityCoreWarning
	SeverityCompileError
	SeverityCompileWarning
	SeverityUserError
	SeverityUserWarning
	SeverityUserNotice
	SeverityStrict
	SeverityRecoverableError
	SeverityDeprecated
	SeverityUserDeprecated
)

var severityNames = map[Severity]string{
	SeverityError:            "FATAL",
	SeverityWarning:          "WARNING",
	SeverityParse:            "PARSE",
	SeverityNotice:           "NOTICE",
	SeverityCoreError:        "CORE_ERROR",
	SeverityCoreWarning:      "CORE_WARNING",
	SeverityCompileError:     "COMPILE_ERROR",
	SeverityCompileWarning:   "COMPILE_WARNING",
	SeverityUserError:        "USER_ERROR",
	SeverityUserWarning:      "USER_WARNING",
	SeverityUserNotice:       "USER_NOTICE",
	SeverityStrict:           "STRICT",
	SeverityRecoverableError: "RECOVERABLE_ERROR",
	SeverityDeprecated:       "DEPRECATED",
	SeverityUserDeprecated:   "USER_DEPRECATED",
}

// String returns the canonical severity name, or the decimal code when unknown.
func (s Severity) String() string {
	if name, ok := severityNames[s]; ok {
		return name
	}
	return strconv.Itoa(int(s))
}

// label is the metrics label for s. Unknown codes share one label.
func (s Severity) label() string {
	if name, ok := severityNames[s]; ok {
		return name
	}
	return "UNKNOWN"
}

// DefaultCaptureSkip is how many innermost frames are dropped when the trace is
// captured by the reporter itself: the capture helper, ReportFault and the
// helper that raised the fault.
const DefaultCaptureSkip = 3

// Frame is one entry of a call trace. Frame 0 is the innermost call.
type Frame struct {
	File     string
	Line     int
	Class    string
	Function string
	// Static selects "::" between Class and Function instead of "->".
	Static bool
	Args   []any
}

// Fault describes a runtime fault raised inside the gateway worker.
type Fault struct {
	Severity Severity
	Message  string
	File     string
	Line     int

	// Frames is the call trace. When nil the reporter captures the current
	// goroutine's stack.
	Frames []Frame

	// Skip is the index of the first frame to render. Zero selects the
	// default: DefaultCaptureSkip for captured traces, 0 for supplied ones.
	Skip int

	// Masked marks a fault the raising code chose to silence.
	Masked bool
}

// ErrorReporter turns faults into log lines without stopping the worker.
type ErrorReporter struct {
	logger   Logger
	root     string
	wrappers []string
}

// NewErrorReporter creates a reporter logging to logger. Paths are rendered
// relative to root; an empty root uses the working directory. wrappers lists
// archive prefixes stripped from paths (default "file://").
func NewErrorReporter(logger Logger, root string, wrappers ...string) *ErrorReporter {
	if len(wrappers) == 0 {
		wrappers = []string{"file://"}
	}
	r := &ErrorReporter{logger: logger, wrappers: wrappers}
	if root == "" {
		if wd, err := os.Getwd(); err == nil {
			root = wd
		}
	}
	r.root = r.normalize(root)
	return r
}

// ReportFault logs f and returns true. A masked fault is not logged and false
// is returned so the caller falls back to its own silent handling.
func (r *ErrorReporter) ReportFault(f Fault) bool {
	if f.Masked {
		return false
	}

	message := f.Message
	if i := strings.IndexByte(message, '\n'); i >= 0 {
		message = message[:i]
	}

	metrics.FaultsReported.WithLabelValues(f.Severity.label()).Inc()
	r.logger.Debug(fmt.Sprintf("An %s error happened: \"%s\" in \"%s\" at line %d",
		f.Severity, message, r.CleanPath(f.File), f.Line))

	frames, skip := f.Frames, f.Skip
	if frames == nil {
		frames = captureFrames()
		if skip == 0 {
			skip = DefaultCaptureSkip
		}
	}
	for _, line := range r.Trace(frames, skip) {
		r.logger.Debug(line)
	}
	return true
}

// Report raises a fault at the caller's location with a captured trace.
func (r *ErrorReporter) Report(severity Severity, message string) bool {
	_, file, line, _ := runtime.Caller(1)
	return r.ReportFault(Fault{
		Severity: severity,
		Message:  message,
		File:     file,
		Line:     line,
	})
}

// Recover reports a recovered panic value as a recoverable fault located at
// the panicking frame. It must be called from the deferred function that
// called recover.
func (r *ErrorReporter) Recover(value any) bool {
	frames := captureFrames()
	for i, f := range frames {
		if f.Class == "runtime" && f.Function == "gopanic" {
			frames = frames[i+1:]
			for len(frames) > 0 && frames[0].Class == "runtime" {
				frames = frames[1:]
			}
			break
		}
	}

	fault := Fault{
		Severity: SeverityRecoverableError,
		Message:  fmt.Sprint(value),
		Frames:   frames,
	}
	if len(frames) > 0 {
		fault.File = frames[0].File
		fault.Line = frames[0].Line
	}
	return r.ReportFault(fault)
}

// Trace renders frames starting at index start, renumbering from zero.
func (r *ErrorReporter) Trace(frames []Frame, start int) []string {
	if start < 0 {
		start = 0
	}
	if start >= len(frames) {
		return nil
	}

	lines := make([]string, 0, len(frames)-start)
	for j, f := range frames[start:] {
		var b strings.Builder
		fmt.Fprintf(&b, "#%d %s(", j, r.CleanPath(f.File))
		if f.Line > 0 {
			b.WriteString(strconv.Itoa(f.Line))
		}
		b.WriteString("): ")
		if f.Class != "" {
			b.WriteString(f.Class)
			if f.Static {
				b.WriteString("::")
			} else {
				b.WriteString("->")
			}
		}
		b.WriteString(f.Function)
		b.WriteByte('(')
		for i, arg := range f.Args {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(renderArg(arg))
		}
		b.WriteByte(')')
		lines = append(lines, b.String())
	}
	return lines
}

// CleanPath rewrites path relative to the installation root, dropping archive
// prefixes and the source extension and using forward slashes.
func (r *ErrorReporter) CleanPath(path string) string {
	p := r.normalize(path)
	if r.root != "" {
		if p == r.root {
			p = ""
		} else if strings.HasPrefix(p, r.root+"/") {
			p = p[len(r.root):]
		}
	}
	p = strings.TrimSuffix(p, ".go")
	return strings.TrimRight(p, "/")
}

func (r *ErrorReporter) normalize(path string) string {
	p := strings.ReplaceAll(path, `\`, "/")
	for _, w := range r.wrappers {
		p = strings.TrimPrefix(p, w)
	}
	return strings.TrimRight(p, "/")
}

// OnThreadExit is invoked once when the worker's run loop returns and yields
// the terminal state. Exiting without a shutdown request is a crash.
func (r *ErrorReporter) OnThreadExit(current State) State {
	if current != StateShuttingDown {
		r.logger.Emergency("SynLib crashed!")
		return StateCrashed
	}
	return StateStopped
}

func renderArg(v any) (out string) {
	if v == nil {
		return "nil"
	}

	switch reflect.ValueOf(v).Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128,
		reflect.String:
		return fmt.Sprintf("%T %v", v, v)
	}

	typeName := fmt.Sprintf("%T", v)
	s, ok := v.(fmt.Stringer)
	if !ok {
		return typeName + " object"
	}

	// A String method on a nil receiver may panic.
	defer func() {
		if recover() != nil {
			out = typeName + " object"
		}
	}()
	return typeName + " " + s.String()
}

func isVersionSuffix(s string) bool {
	if len(s) < 2 || s[0] != 'v' {
		return false
	}
	for _, c := range s[1:] {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// captureFrames returns the current goroutine's stack, innermost first,
// starting with captureFrames itself.
func captureFrames() []Frame {
	pcs := make([]uintptr, 64)
	n := runtime.Callers(1, pcs)
	iter := runtime.CallersFrames(pcs[:n])

	var frames []Frame
	for {
		rf, more := iter.Next()
		frames = append(frames, frameFromRuntime(rf))
		if !more {
			break
		}
	}
	return frames
}

// frameFromRuntime splits a qualified Go function name into class and
// function. Methods become instance calls on "pkg.Type"; package-level
// functions and closures become static calls on "pkg".
func frameFromRuntime(rf runtime.Frame) Frame {
	f := Frame{File: rf.File, Line: rf.Line}

	name := rf.Function
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		name = name[i+1:]
	}
	pkg, rest, ok := strings.Cut(name, ".")
	if !ok {
		f.Function = name
		return f
	}
	// gopkg.in style import paths end in a ".vN" suffix that belongs to the package.
	if ver, tail, ok := strings.Cut(rest, "."); ok && isVersionSuffix(ver) {
		pkg += "." + ver
		rest = tail
	}

	if strings.HasPrefix(rest, "(") {
		if recv, fn, ok := strings.Cut(rest, ")."); ok {
			recv = strings.TrimPrefix(strings.TrimPrefix(recv, "("), "*")
			f.Class = pkg + "." + recv
			f.Function = fn
			return f
		}
	}
	if typ, fn, ok := strings.Cut(rest, "."); ok && !strings.HasPrefix(fn, "func") {
		f.Class = pkg + "." + typ
		f.Function = fn
		return f
	}

	f.Class = pkg
	f.Static = true
	f.Function = rest
	return f
}
