package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nalgeon/be"
	"github.com/npillmayer/schuko/tracing/gologadapter"
	"github.com/spf13/pflag"
	"github.com/strager/basil/lower"
)

func writeProgram(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "prog.bsx")
	be.Err(t, os.WriteFile(path, []byte(src), 0644), nil)
	return path
}

func runCLI(args ...string) (int, string, string) {
	var stdout, stderr bytes.Buffer
	code := run(append([]string{"--color=never"}, args...), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

const helloProgram = `(program (main (print ^{line: 10} (str "HI"))))`

func TestLowerPrintsIL(t *testing.T) {
	path := writeProgram(t, helloProgram)
	code, stdout, stderr := runCLI("lower", path)
	be.Equal(t, code, exitOK)
	be.Equal(t, stderr, "")
	be.True(t, strings.HasPrefix(stdout, "il 0.1.2\n"))
	be.True(t, strings.Contains(stdout, "call @rt_print_str("))
}

func TestLowerWritesOutputFile(t *testing.T) {
	path := writeProgram(t, helloProgram)
	out := filepath.Join(t.TempDir(), "prog.il")
	code, stdout, _ := runCLI("lower", "-o", out, path)
	be.Equal(t, code, exitOK)
	be.Equal(t, stdout, "")
	data, err := os.ReadFile(out)
	be.Err(t, err, nil)
	be.True(t, strings.Contains(string(data), "func @main() -> i64 {"))
}

func TestCheckReportsErrors(t *testing.T) {
	path := writeProgram(t, `(program (main (goto ^{line: 10} 99)))`)
	code, stdout, stderr := runCLI("check", path)
	be.Equal(t, code, exitFailed)
	be.Equal(t, stdout, "")
	be.True(t, strings.Contains(stderr, ":10:0: error[B0007]: GOTO target line 99 does not exist"))
}

func TestCheckAcceptsWarnings(t *testing.T) {
	path := writeProgram(t, `(program (main (let ^{line: 10} (var A) (\ (int 1) (int 0)))))`)
	code, _, stderr := runCLI("check", path)
	be.Equal(t, code, exitOK)
	be.True(t, strings.Contains(stderr, "warning[B0012]"))
}

func TestFeatures(t *testing.T) {
	path := writeProgram(t, `(program (main (print (pow (float 2.0) (float 3.0)))))`)
	code, stdout, _ := runCLI("features", path)
	be.Equal(t, code, exitOK)
	be.Equal(t, stdout, "rt_pow_f64_chkdom\nrt_print_f64\nrt_print_str\nrt_str_release_maybe\n")

	code, stdout, _ = runCLI("features", "--scan", path)
	be.Equal(t, code, exitOK)
	be.True(t, strings.Contains(stdout, "rt_pow_f64_chkdom\n"))
}

func TestBoundsChecksFlag(t *testing.T) {
	path := writeProgram(t, `(program (main
  (dim A (extents (int 3)))
  (let (index A (int 1)) (int 2))))`)
	_, stdout, _ := runCLI("lower", path)
	be.True(t, !strings.Contains(stdout, "rt_array_oob_panic"))
	_, stdout, _ = runCLI("lower", "--bounds-checks", path)
	be.True(t, strings.Contains(stdout, "rt_array_oob_panic"))
}

func TestBadGosubDepth(t *testing.T) {
	path := writeProgram(t, helloProgram)
	code, _, stderr := runCLI("lower", "--gosub-depth", "0", path)
	be.Equal(t, code, exitUsage)
	be.True(t, strings.Contains(stderr, "lower.gosub-depth must be positive"))
}

func TestInputErrors(t *testing.T) {
	code, _, _ := runCLI("lower", filepath.Join(t.TempDir(), "missing.bsx"))
	be.Equal(t, code, exitFailed)

	path := writeProgram(t, `(program (main (frobnicate)))`)
	code, _, stderr := runCLI("lower", path)
	be.Equal(t, code, exitFailed)
	be.True(t, strings.Contains(stderr, "unknown statement frobnicate"))
}

func TestUsageErrors(t *testing.T) {
	code, _, _ := runCLI("lower")
	be.Equal(t, code, exitUsage)
	code, _, _ = runCLI("nonsense")
	be.Equal(t, code, exitUsage)
}

func TestFlagConfig(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.Bool(flagBoundsChecks, false, "")
	fs.Int(flagGosubDepth, lower.DefaultGosubStackDepth, "")
	be.Err(t, fs.Parse([]string{"--gosub-depth", "8"}), nil)

	conf := newFlagConfig(fs)
	be.True(t, !conf.IsSet(lower.KeyBoundsChecks))
	be.True(t, conf.IsSet(lower.KeyGosubDepth))
	be.Equal(t, conf.GetInt(lower.KeyGosubDepth), 8)
	be.Equal(t, conf.GetBool(lower.KeyBoundsChecks), false)
	be.Equal(t, conf.GetString("no.such.key"), "")

	opts, err := lower.OptionsFromConfig(conf)
	be.Err(t, err, nil)
	be.Equal(t, opts.GosubStackDepth, 8)
	be.Equal(t, opts.BoundsChecks, false)
}

func TestTraceSelector(t *testing.T) {
	logger := gologadapter.New()
	sel := traceSelector{keys: map[string]bool{"basil.lower": true}, trace: logger}
	be.True(t, sel.Select("basil.lower") == logger)
	be.True(t, sel.Select("basil.scan") != logger)

	sel.keys["all"] = true
	be.True(t, sel.Select("basil.scan") == logger)
}
