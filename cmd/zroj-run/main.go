// Command zroj-run is an interactive one-off runner: a readline-driven REPL
// for pasting a program and some stdin and seeing what the sandbox makes of
// it, without creating a submission or touching the queue.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chzyer/readline"

	"zroj/internal/lang"
	"zroj/internal/sandbox/engine"
	"zroj/internal/sandbox/profile"
	"zroj/internal/sandbox/security"
)

func main() {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:            "\033[36mzroj-run>\033[0m ",
		HistoryFile:       historyPath(),
		HistorySearchFold: true,
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "readline init error: %v\n", err)
		os.Exit(1)
	}
	defer rl.Close()

	sess := &session{
		rl:      rl,
		langSpec: lang.BuiltinGnuCppO2("c++17"),
		workDir: mustTempDir(),
	}
	fmt.Println("zroj-run — paste a program, give it stdin, see what the sandbox does with it.")
	fmt.Println("commands: :lang <id> | :source | :stdin | :run | :help | :quit")
	sess.printLang()

	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		}
		if err != nil {
			return
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if sess.dispatch(line) {
			return
		}
	}
}

type session struct {
	rl       *readline.Instance
	langSpec profile.LanguageSpec
	workDir  string
	source   string
	stdin    string
}

func (s *session) dispatch(line string) (quit bool) {
	switch {
	case line == ":quit" || line == ":exit":
		return true
	case line == ":help":
		fmt.Println("commands: :lang <id> | :source | :stdin | :run | :help | :quit")
	case line == ":lang" || strings.HasPrefix(line, ":lang "):
		s.handleLang(strings.TrimSpace(strings.TrimPrefix(line, ":lang")))
	case line == ":source":
		s.source = s.readBlock("paste source, end with a line containing only '.'")
	case line == ":stdin":
		s.stdin = s.readBlock("type stdin, end with a line containing only '.'")
	case line == ":run":
		s.run()
	default:
		fmt.Println("unknown command, try :help")
	}
	return false
}

func (s *session) handleLang(id string) {
	switch id {
	case "":
		s.printLang()
	case "cpp17":
		s.langSpec = lang.BuiltinGnuCppO2("c++17")
		s.printLang()
	case "cpp20":
		s.langSpec = lang.BuiltinGnuCppO2("c++20")
		s.printLang()
	default:
		fmt.Printf("unknown language %q, available: cpp17, cpp20\n", id)
	}
}

func (s *session) printLang() {
	fmt.Printf("language: %s\n", s.langSpec.ID)
}

func (s *session) readBlock(prompt string) string {
	fmt.Println(prompt)
	var lines []string
	for {
		line, err := s.rl.Readline()
		if err != nil {
			break
		}
		if line == "." {
			break
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func (s *session) run() {
	if s.source == "" {
		fmt.Println("no source yet, use :source first")
		return
	}
	opt := lang.New(s.langSpec)

	sourcePath := filepath.Join(s.workDir, s.langSpec.SourceFile)
	if err := os.WriteFile(sourcePath, []byte(s.source), 0644); err != nil {
		fmt.Fprintf(os.Stderr, "write source: %v\n", err)
		return
	}
	binPath := filepath.Join(s.workDir, s.langSpec.BinaryFile)

	resolver := localResolver{}
	eng, err := engine.NewEngine(engine.Config{
		HelperPath:           envOr("ZROJ_SANDBOX_HELPER", "/usr/local/bin/zroj-sandbox-init"),
		StdoutStderrMaxBytes: 1 << 20,
		EnableSeccomp:        os.Getenv("ZROJ_SANDBOX_SECCOMP") != "",
		EnableNamespaces:     os.Getenv("ZROJ_SANDBOX_ROOTFS") != "",
	}, resolver)
	if err != nil {
		fmt.Fprintf(os.Stderr, "create engine: %v\n", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if s.langSpec.CompileEnabled {
		compileSpec, err := opt.CompileSpec(sourcePath, binPath, s.workDir)
		if err != nil {
			fmt.Fprintf(os.Stderr, "build compile spec: %v\n", err)
			return
		}
		compileSpec.SubmissionID = "zroj-run"
		compileSpec.TestID = "compile"
		res, err := eng.Run(ctx, compileSpec)
		if err != nil {
			fmt.Fprintf(os.Stderr, "compile: %v\n", err)
			return
		}
		if res.ExitCode != 0 {
			fmt.Printf("compile failed (exit %d)\nstderr:\n%s\n", res.ExitCode, res.Stderr)
			return
		}
	}

	stdinPath := filepath.Join(s.workDir, "stdin.txt")
	if err := os.WriteFile(stdinPath, []byte(s.stdin), 0644); err != nil {
		fmt.Fprintf(os.Stderr, "write stdin: %v\n", err)
		return
	}

	runSpec, err := opt.RunSpec(binPath, s.workDir, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "build run spec: %v\n", err)
		return
	}
	runSpec.SubmissionID = "zroj-run"
	runSpec.TestID = "run"
	runSpec.StdinPath = stdinPath

	res, err := eng.Run(ctx, runSpec)
	if err != nil {
		fmt.Fprintf(os.Stderr, "run: %v\n", err)
		return
	}

	fmt.Printf("exit=%d time=%dms memory=%dKB\n", res.ExitCode, res.TimeMs, res.MemoryKB)
	fmt.Println("--- stdout ---")
	fmt.Println(res.Stdout)
	if res.Stderr != "" {
		fmt.Println("--- stderr ---")
		fmt.Println(res.Stderr)
	}
}

// localResolver grants the unconfined isolation profile, the one a
// developer running this REPL on their own machine is expected to want:
// no rootfs swap, no seccomp filter, unless ZROJ_SANDBOX_ROOTFS/SECCOMP
// are set in the environment.
type localResolver struct{}

func (localResolver) Resolve(profile string) (security.IsolationProfile, error) {
	return security.IsolationProfile{
		RootFS:         os.Getenv("ZROJ_SANDBOX_ROOTFS"),
		SeccompProfile: os.Getenv("ZROJ_SANDBOX_SECCOMP"),
	}, nil
}

func envOr(name, def string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return def
}

func mustTempDir() string {
	dir, err := os.MkdirTemp("", "zroj-run-*")
	if err != nil {
		fmt.Fprintf(os.Stderr, "create work dir: %v\n", err)
		os.Exit(1)
	}
	return dir
}

func historyPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".zroj-run-history"
	}
	return filepath.Join(home, ".zroj-run-history")
}
