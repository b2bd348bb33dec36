//go:build linux

package engine

import (
	"io"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"zroj/internal/sandbox/spec"
)

func durationFromMs(ms int64) time.Duration {
	if ms <= 0 {
		return 0
	}
	return time.Duration(ms) * time.Millisecond
}

// cpuTimeMs returns user+sys CPU time consumed by the child, in milliseconds.
func cpuTimeMs(state *os.ProcessState) int64 {
	if state == nil {
		return 0
	}
	usage, ok := state.SysUsage().(*syscall.Rusage)
	if !ok {
		return 0
	}
	user := usage.Utime.Sec*1000 + int64(usage.Utime.Usec)/1000
	sys := usage.Stime.Sec*1000 + int64(usage.Stime.Usec)/1000
	return user + sys
}

// resolveHostPath returns the path the parent process should read a
// redirected stdio file from. Relative paths are resolved against the
// sandbox working directory, mirroring how the child helper opens them.
func resolveHostPath(path string, runSpec spec.RunSpec) string {
	if path == "" {
		return ""
	}
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(runSpec.WorkDir, path)
}

func readLimitedFile(path string, maxBytes int64) string {
	if path == "" {
		return ""
	}
	f, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()
	buf := make([]byte, maxBytes)
	n, err := io.ReadFull(f, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return ""
	}
	return string(buf[:n])
}

// signalInfo reports whether the child terminated due to a signal, and
// which one, so classify can distinguish e.g. a seccomp SIGSYS kill from
// an ordinary non-zero exit.
func signalInfo(state *os.ProcessState) (bool, int) {
	if state == nil {
		return false, 0
	}
	ws, ok := state.Sys().(syscall.WaitStatus)
	if !ok || !ws.Signaled() {
		return false, 0
	}
	return true, int(ws.Signal())
}

func stdoutSizeKB(path string) int64 {
	if path == "" {
		return 0
	}
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.Size() / 1024
}
