package lang

import "testing"

func TestBuiltinGnuCppO2CompileSpecExpandsPlaceholders(t *testing.T) {
	spec := BuiltinGnuCppO2("c++17")
	opt := New(spec)

	rs, err := opt.CompileSpec("/work/source.cpp", "/work/main", "/work")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rs.Cmd) == 0 {
		t.Fatalf("expected a non-empty argv")
	}
	if rs.Cmd[0] != "g++" {
		t.Fatalf("expected g++ as the compiler, got %q", rs.Cmd[0])
	}
	foundSrc, foundDest := false, false
	for _, a := range rs.Cmd {
		if a == "/work/source.cpp" {
			foundSrc = true
		}
		if a == "/work/main" {
			foundDest = true
		}
	}
	if !foundSrc || !foundDest {
		t.Fatalf("expected source and dest substituted into argv: %v", rs.Cmd)
	}
	if rs.WorkDir != "/work" {
		t.Fatalf("unexpected workdir: %s", rs.WorkDir)
	}
}

func TestBuiltinGnuCppO2RunSpecUsesBinaryPath(t *testing.T) {
	spec := BuiltinGnuCppO2("c++20")
	opt := New(spec)

	rs, err := opt.RunSpec("/work/main", "/work", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rs.Cmd) != 1 || rs.Cmd[0] != "/work/main" {
		t.Fatalf("unexpected run argv: %v", rs.Cmd)
	}
}

func TestRunSpecAppendsExtraArgs(t *testing.T) {
	spec := BuiltinGnuCppO2("c++17")
	opt := New(spec)

	rs, err := opt.RunSpec("/work/main", "/work", []string{"--flag", "value"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"/work/main", "--flag", "value"}
	if len(rs.Cmd) != len(want) {
		t.Fatalf("unexpected argv length: %v", rs.Cmd)
	}
	for i := range want {
		if rs.Cmd[i] != want[i] {
			t.Fatalf("argv mismatch at %d: got %q want %q", i, rs.Cmd[i], want[i])
		}
	}
}

func TestCompileSpecRejectsNonCompiledLanguage(t *testing.T) {
	spec := BuiltinGnuCppO2("c++17")
	spec.CompileEnabled = false
	opt := New(spec)

	if _, err := opt.CompileSpec("/work/source.cpp", "/work/main", "/work"); err == nil {
		t.Fatalf("expected an error for a language that does not compile")
	}
}

func TestHashStrDiffersAcrossStandards(t *testing.T) {
	h17 := New(BuiltinGnuCppO2("c++17")).HashStr()
	h20 := New(BuiltinGnuCppO2("c++20")).HashStr()
	if h17 == h20 {
		t.Fatalf("expected distinct hash strings for distinct standards")
	}
}
