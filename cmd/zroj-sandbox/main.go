// Command zroj-sandbox is an ad hoc tool for invoking and inspecting the
// sandbox engine directly, without going through the queue or judge
// pipeline: "show" builds a RunSpec for one command and prints it as JSON,
// "run" executes a RunSpec read from a JSON file and prints the result.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"zroj/internal/sandbox/engine"
	"zroj/internal/sandbox/security"
	"zroj/internal/sandbox/spec"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "show":
		err = runShow(os.Args[2:])
	case "run":
		err = runRun(os.Args[2:])
	case "-h", "--help", "help":
		usage()
		return
	default:
		usage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `zroj-sandbox: inspect and invoke the sandbox engine

Usage:
  zroj-sandbox show [flags] -- cmd [args...]
  zroj-sandbox run <runspec.json>

show flags:
  -stdin string     path redirected to stdin
  -stdout string    path redirected to stdout
  -stderr string    path redirected to stderr
  -workdir string   sandbox working directory (default ".")
  -cpu-ms int       cpu time limit in ms
  -mem-mb int       memory limit in MB
  -profile string   isolation profile name recorded in the RunSpec (run ignores
                    it and takes isolation settings from ZROJ_SANDBOX_* variables)`)
}

func runShow(args []string) error {
	fs := flag.NewFlagSet("show", flag.ExitOnError)
	stdin := fs.String("stdin", "", "path redirected to stdin")
	stdout := fs.String("stdout", "", "path redirected to stdout")
	stderr := fs.String("stderr", "", "path redirected to stderr")
	workdir := fs.String("workdir", ".", "sandbox working directory")
	cpuMs := fs.Int64("cpu-ms", 0, "cpu time limit in ms")
	memMB := fs.Int64("mem-mb", 0, "memory limit in MB")
	profileName := fs.String("profile", "", "isolation profile name")
	if err := fs.Parse(args); err != nil {
		return err
	}
	rest := fs.Args()
	if len(rest) == 0 {
		return fmt.Errorf("show requires a command")
	}

	cmdPath, err := exec.LookPath(rest[0])
	if err != nil {
		cmdPath = rest[0]
	}
	cmd := append([]string{cmdPath}, rest[1:]...)

	rs := spec.RunSpec{
		TestID:     "show",
		WorkDir:    *workdir,
		Cmd:        cmd,
		StdinPath:  *stdin,
		StdoutPath: *stdout,
		StderrPath: *stderr,
		Profile:    *profileName,
		Limits: spec.ResourceLimit{
			CPUTimeMs: *cpuMs,
			MemoryMB:  *memMB,
		},
	}
	return printJSON(rs)
}

func runRun(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("run requires exactly one config file argument")
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	var rs spec.RunSpec
	if err := json.Unmarshal(data, &rs); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}

	cfg := configFromEnv()
	resolver := &flagResolver{profile: rs.Profile}
	eng, err := engine.NewEngine(cfg, resolver)
	if err != nil {
		return fmt.Errorf("create engine: %w", err)
	}

	res, err := eng.Run(context.Background(), rs)
	if err != nil {
		return fmt.Errorf("run: %w", err)
	}
	return printJSON(res)
}

// flagResolver ignores the profile name it is asked for and builds the
// isolation profile from the environment: no rootfs or seccomp unless the
// caller points at one via ZROJ_SANDBOX_ROOTFS / ZROJ_SANDBOX_SECCOMP, and
// networking disabled when ZROJ_SANDBOX_DISABLE_NETWORK is "true".
type flagResolver struct {
	profile string
}

func (r *flagResolver) Resolve(profile string) (security.IsolationProfile, error) {
	return security.IsolationProfile{
		RootFS:         os.Getenv("ZROJ_SANDBOX_ROOTFS"),
		SeccompProfile: os.Getenv("ZROJ_SANDBOX_SECCOMP"),
		DisableNetwork: strings.EqualFold(os.Getenv("ZROJ_SANDBOX_DISABLE_NETWORK"), "true"),
	}, nil
}

func configFromEnv() engine.Config {
	return engine.Config{
		CgroupRoot:           envOr("ZROJ_CGROUP_ROOT", "/sys/fs/cgroup/zroj"),
		SeccompDir:           envOr("ZROJ_SECCOMP_DIR", "/etc/zroj/seccomp"),
		HelperPath:           envOr("ZROJ_SANDBOX_HELPER", "/usr/local/bin/zroj-sandbox-init"),
		StdoutStderrMaxBytes: 8 * 1024 * 1024,
		EnableSeccomp:        os.Getenv("ZROJ_SANDBOX_SECCOMP") != "",
		EnableCgroup:         false,
		EnableNamespaces:     os.Getenv("ZROJ_SANDBOX_ROOTFS") != "",
	}
}

func envOr(name, def string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return def
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
