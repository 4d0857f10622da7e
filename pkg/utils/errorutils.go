package utils

import (
	"errors"
	"fmt"
	"runtime"
	"strings"

	"github.com/Nephrolytics-ai/audio-summarizer/pkg/logging"
)

// ContainsErrorSubstring reports whether err or anything it wraps mentions target.
func ContainsErrorSubstring(err error, target string) bool {
	for err != nil {
		if strings.Contains(err.Error(), target) {
			return true
		}
		err = errors.Unwrap(err)
	}
	return false
}

// ContainsAnyErrorSubstring is ContainsErrorSubstring over several targets.
func ContainsAnyErrorSubstring(err error, targets ...string) bool {
	for _, target := range targets {
		if ContainsErrorSubstring(err, target) {
			return true
		}
	}
	return false
}

// WrapIfNotNil prefixes err with the calling function's name and any context
// strings. A nil err stays nil.
func WrapIfNotNil(err error, context ...string) error {
	if err == nil {
		return nil
	}

	callerName := "unknown"
	if pc, _, _, ok := runtime.Caller(1); ok {
		if fn := runtime.FuncForPC(pc); fn != nil {
			callerName = fn.Name()
		}
	}

	parts := make([]string, 0, 1+len(context))
	parts = append(parts, callerName)
	parts = append(parts, context...)

	return fmt.Errorf("%s: %w", strings.Join(parts, " - "), err)
}

// StackTrace returns "function (file:line)" frames starting skip frames above the caller.
func StackTrace(skip int) []string {
	frames := make([]string, 0, 16)
	for i := skip + 1; ; i++ {
		pc, file, line, ok := runtime.Caller(i)
		if !ok {
			break
		}
		name := "unknown"
		if fn := runtime.FuncForPC(pc); fn != nil {
			name = fn.Name()
		}
		frames = append(frames, fmt.Sprintf("%s (%s:%d)", name, file, line))
	}
	return frames
}

// PrintStack logs the current stack at error level. Call it from the deferred
// recover so the panicking frames are included.
func PrintStack(title string, log logging.Logger) {
	log.Errorf("%s: stack trace", title)
	for _, frame := range StackTrace(2) {
		log.Errorf("    %s", frame)
	}
}
