// Package lang turns a language identifier into compile and run commands,
// the way judger/src/lang.rs turns a LangOption into a sandbox Singleton.
// Command templates are split into argv with shlex so configuration files
// can express them as ordinary shell-like strings.
package lang

import (
	"fmt"

	"zroj/internal/sandbox/profile"
	"zroj/internal/sandbox/spec"

	"github.com/google/shlex"
)

// Option compiles and runs one source file of a given language. HashStr
// identifies the exact compiler configuration (binary path + flags) so the
// compile cache can key on it alongside the source bytes.
type Option interface {
	HashStr() string
	CompileSpec(sourcePath, destPath string, workDir string) (spec.RunSpec, error)
	RunSpec(binaryPath, workDir string, extraArgs []string) (spec.RunSpec, error)
}

// FromSpec builds an Option out of a LanguageSpec's command templates,
// covering any language whose compile/run step is "substitute paths into a
// shell-like command line" — which is every language this judge supports.
type FromSpec struct {
	Spec profile.LanguageSpec
}

// New wraps a LanguageSpec as an Option.
func New(spec profile.LanguageSpec) FromSpec {
	return FromSpec{Spec: spec}
}

// HashStr identifies this exact language configuration for compile-cache
// keying: id, version, and the literal compile command template.
func (l FromSpec) HashStr() string {
	return fmt.Sprintf("%s@%s:%s", l.Spec.ID, l.Spec.Version, l.Spec.CompileCmdTpl)
}

func (l FromSpec) CompileSpec(sourcePath, destPath, workDir string) (spec.RunSpec, error) {
	if !l.Spec.CompileEnabled {
		return spec.RunSpec{}, fmt.Errorf("language %s does not require compilation", l.Spec.ID)
	}
	cmd, err := expandTemplate(l.Spec.CompileCmdTpl, map[string]string{
		"source": sourcePath,
		"dest":   destPath,
	})
	if err != nil {
		return spec.RunSpec{}, err
	}
	return spec.RunSpec{
		WorkDir: workDir,
		Cmd:     cmd,
		Env:     l.Spec.Env,
	}, nil
}

func (l FromSpec) RunSpec(binaryPath, workDir string, extraArgs []string) (spec.RunSpec, error) {
	cmd, err := expandTemplate(l.Spec.RunCmdTpl, map[string]string{
		"bin":     binaryPath,
		"dest":    binaryPath,
		"workdir": workDir,
	})
	if err != nil {
		return spec.RunSpec{}, err
	}
	cmd = append(cmd, extraArgs...)
	return spec.RunSpec{
		WorkDir: workDir,
		Cmd:     cmd,
		Env:     l.Spec.Env,
	}, nil
}

// expandTemplate splits a shell-like command template with shlex, then
// substitutes ${name} placeholders with the given values.
func expandTemplate(tpl string, vars map[string]string) ([]string, error) {
	parts, err := shlex.Split(tpl)
	if err != nil {
		return nil, fmt.Errorf("split command template %q: %w", tpl, err)
	}
	for i, p := range parts {
		for name, value := range vars {
			placeholder := "${" + name + "}"
			if p == placeholder {
				parts[i] = value
			}
		}
	}
	return parts, nil
}

// BuiltinGnuCppO2 returns the LanguageSpec for a g++ -O2 build of the
// given C++ standard (e.g. "c++17", "c++20"), the judge's most common
// language configuration.
func BuiltinGnuCppO2(std string) profile.LanguageSpec {
	return profile.LanguageSpec{
		ID:             "gnu_cpp_" + std + "_o2",
		Name:           "GNU C++ (" + std + ", O2)",
		SourceFile:     "source.cpp",
		BinaryFile:     "main",
		CompileEnabled: true,
		CompileCmdTpl:  fmt.Sprintf("g++ -std=%s -O2 ${source} -o ${dest}", std),
		RunCmdTpl:      "${bin}",
	}
}

// BuiltinGnuC17O2 returns the LanguageSpec for a gcc -O2 build of the
// given C standard (e.g. "c11", "c17").
func BuiltinGnuC17O2(std string) profile.LanguageSpec {
	return profile.LanguageSpec{
		ID:             "gnu_c_" + std + "_o2",
		Name:           "GNU C (" + std + ", O2)",
		SourceFile:     "source.c",
		BinaryFile:     "main",
		CompileEnabled: true,
		CompileCmdTpl:  fmt.Sprintf("gcc -std=%s -O2 ${source} -o ${dest}", std),
		RunCmdTpl:      "${bin}",
	}
}

// BuiltinPython3 returns the LanguageSpec for CPython 3: there is no
// compile step, so the sandbox runs the interpreter directly against the
// submitted source file. CompileSpec returns an error for it, so the
// compile cache has no artifact to serve for it.
func BuiltinPython3() profile.LanguageSpec {
	return profile.LanguageSpec{
		ID:             "python3",
		Name:           "Python 3",
		SourceFile:     "source.py",
		CompileEnabled: false,
		RunCmdTpl:      "python3 ${dest}",
	}
}
