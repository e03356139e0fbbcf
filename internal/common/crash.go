package common

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/ternarybob/arbor"
)

// DefaultCrashLogDir is used when no log directory is configured
const DefaultCrashLogDir = "logs"

// RecoverWithCrashFile writes a crash report and exits on panic. logDir is
// resolved at panic time, so it can follow configuration loaded after the defer.
// Usage: defer common.RecoverWithCrashFile(func() string { return dir })
func RecoverWithCrashFile(logDir func() string) {
	if r := recover(); r != nil {
		WriteCrashFile(logDir(), r, stack(false))
		os.Exit(1)
	}
}

// WriteCrashFile writes a crash report into logDir and returns its path, or ""
// when the report could only be written to stderr.
func WriteCrashFile(logDir string, panicVal interface{}, stackTrace string) string {
	if logDir == "" {
		logDir = DefaultCrashLogDir
	}

	now := time.Now()
	crashPath := filepath.Join(logDir, fmt.Sprintf("crash-%s.log", now.Format("2006-01-02T15-04-05")))

	var report bytes.Buffer
	fmt.Fprintf(&report, "=== PEULOT CRASH REPORT ===\nTime: %s\nVersion: %s\n\n", now.Format(time.RFC3339), GetFullVersion())
	fmt.Fprintf(&report, "=== PANIC VALUE ===\n%v\n\n", panicVal)
	fmt.Fprintf(&report, "=== STACK TRACE ===\n%s\n", stackTrace)
	fmt.Fprintf(&report, "=== ALL GOROUTINES ===\n%s\n", stack(true))
	fmt.Fprintf(&report, "=== SYSTEM INFO ===\nNumGoroutine: %d\nGOOS: %s\nGOARCH: %s\n", runtime.NumGoroutine(), runtime.GOOS, runtime.GOARCH)

	err := os.MkdirAll(logDir, 0755)
	if err == nil {
		err = os.WriteFile(crashPath, report.Bytes(), 0644)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "CRASH: Failed to write crash file: %v\n%s", err, report.String())
		return ""
	}

	fmt.Fprintf(os.Stderr, "\n!!! FATAL CRASH - Report saved to: %s !!!\nPanic: %v\n", crashPath, panicVal)
	return crashPath
}

// SafeGo runs fn in a goroutine; a panic is logged instead of killing the process.
func SafeGo(logger arbor.ILogger, name string, fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Error().
					Str("goroutine", name).
					Str("panic", fmt.Sprintf("%v", r)).
					Str("stack", stack(false)).
					Msg("Recovered from panic in goroutine")
			}
		}()
		fn()
	}()
}

func stack(all bool) string {
	buf := make([]byte, 64*1024)
	for {
		n := runtime.Stack(buf, all)
		if n < len(buf) || len(buf) >= 16*1024*1024 {
			return string(buf[:n])
		}
		buf = make([]byte, len(buf)*2)
	}
}
