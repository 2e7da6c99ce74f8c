//go:build integration

package itest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"
)

const cliTimeout = 30 * time.Second

type robustCase struct {
	name            string
	args            func(t *testing.T, repoRoot string) []string
	env             map[string]string
	wantContains    []string
	wantNotContains []string
}

type cliRunResult struct {
	exitCode int
	output   string
}

func TestRobustness_ArgsValidation(t *testing.T) {
	repoRoot := mustRepoRoot(t)
	vtt := fixtureVTT(t)

	cases := []robustCase{
		{
			name: "no args",
			args: staticArgs(),
			wantContains: []string{
				"accepts 1 arg(s), received 0",
			},
		},
		{
			name: "too many args",
			args: staticArgs("talk", "extra"),
			wantContains: []string{
				"accepts 1 arg(s), received 2",
			},
		},
		{
			name: "unknown flag",
			args: staticArgs("talk", "--wat"),
			wantContains: []string{
				"unknown flag: --wat",
			},
		},
		{
			name: "clips non int",
			args: staticArgs("talk", "--clips", "nope"),
			wantContains: []string{
				`invalid argument "nope" for "--clips"`,
			},
		},
		{
			name: "clips zero",
			args: staticArgs("talk", "--captions", vtt, "--clips", "0"),
			wantContains: []string{
				"config: clips.count must be positive",
			},
		},
		{
			name: "min above max",
			args: staticArgs("talk", "--captions", vtt, "--min", "90", "--max", "30"),
			wantContains: []string{
				"clips.max 30s is shorter than clips.min 1m30s",
			},
		},
		{
			name: "bad log level",
			args: staticArgs("talk", "--captions", vtt, "--log-level", "loud"),
			wantContains: []string{
				`log.level "loud" is invalid`,
			},
		},
		{
			name: "unknown config key",
			args: func(t *testing.T, _ string) []string {
				t.Helper()
				path := filepath.Join(t.TempDir(), "bad.yaml")
				if err := os.WriteFile(path, []byte("clips:\n  cuont: 2\n"), 0o644); err != nil {
					t.Fatalf("write config fixture: %v", err)
				}
				return []string{"talk", "--captions", vtt, "--config", path}
			},
			wantContains: []string{
				"field cuont not found",
			},
		},
	}

	runRobustCases(t, repoRoot, cases)
}

func TestRobustness_InvalidInputs(t *testing.T) {
	repoRoot := mustRepoRoot(t)
	vtt := fixtureVTT(t)

	cases := []robustCase{
		{
			name: "missing captions file",
			args: staticArgs("talk", "--captions", filepath.Join(t.TempDir(), "missing.vtt")),
			wantContains: []string{
				"config: stat captions:",
			},
		},
		{
			name: "render without input file",
			args: staticArgs(filepath.Join(t.TempDir(), "does-not-exist.mp4"), "--captions", vtt, "--render"),
			wantContains: []string{
				"config: stat input:",
			},
		},
		{
			name: "no captions and no duration",
			args: staticArgs("not-a-file-id", "--out", t.TempDir(), "--cache-dir", t.TempDir()),
			wantContains: []string{
				"no transcript and no known duration",
			},
		},
		{
			name: "out points to file",
			args: func(t *testing.T, _ string) []string {
				t.Helper()
				tmp := t.TempDir()
				outFile := filepath.Join(tmp, "out-file")
				if err := os.WriteFile(outFile, []byte("x"), 0o644); err != nil {
					t.Fatalf("write out file fixture: %v", err)
				}
				return []string{"talk", "--captions", vtt, "--duration", "120", "--out", outFile, "--cache-dir", filepath.Join(tmp, "cache")}
			},
			wantContains: []string{
				"not a directory",
			},
		},
	}

	runRobustCases(t, repoRoot, cases)
}

func TestCLI_PrintsRunDir(t *testing.T) {
	repoRoot := mustRepoRoot(t)
	out := t.TempDir()
	res := runCLI(t, repoRoot, []string{
		"talk", "--captions", fixtureVTT(t), "--duration", "120",
		"--out", out, "--cache-dir", t.TempDir(), "--log-level", "error",
	}, nil)
	if res.exitCode != 0 {
		t.Fatalf("expected success, got %d\noutput:\n%s", res.exitCode, res.output)
	}
	if !strings.Contains(res.output, filepath.Join(out, "talk-")) {
		t.Fatalf("expected run dir in output:\n%s", res.output)
	}
}

func fixtureVTT(t *testing.T) string {
	t.Helper()
	var b strings.Builder
	b.WriteString("WEBVTT\n\n")
	for i := 0; i < 12; i++ {
		start, end := i*10, i*10+9
		fmt.Fprintf(&b, "00:%02d:%02d.000 --> 00:%02d:%02d.000\nWhy is tip number %d so important?\n\n",
			start/60, start%60, end/60, end%60, i+1)
	}
	path := filepath.Join(t.TempDir(), "talk.vtt")
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		t.Fatalf("write vtt fixture: %v", err)
	}
	return path
}

func runRobustCases(t *testing.T, repoRoot string, cases []robustCase) {
	t.Helper()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := runCLI(t, repoRoot, tc.args(t, repoRoot), tc.env)
			if res.exitCode == 0 {
				t.Fatalf("expected non-zero exit code, got 0\noutput:\n%s", res.output)
			}
			for _, want := range tc.wantContains {
				if !strings.Contains(res.output, want) {
					t.Fatalf("expected output to contain %q\noutput:\n%s", want, res.output)
				}
			}
			for _, notWant := range tc.wantNotContains {
				if strings.Contains(res.output, notWant) {
					t.Fatalf("expected output to not contain %q\noutput:\n%s", notWant, res.output)
				}
			}
		})
	}
}

func runCLI(t *testing.T, repoRoot string, args []string, env map[string]string) cliRunResult {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), cliTimeout)
	defer cancel()

	cmdArgs := append([]string{"run", "./cmd/hlshorts"}, args...)
	cmd := exec.CommandContext(ctx, "go", cmdArgs...)
	cmd.Dir = repoRoot
	cmd.Env = mergeEnv(
		os.Environ(),
		map[string]string{
			"NO_COLOR": "1",
			"TERM":     "dumb",
		},
		env,
	)

	out, err := cmd.CombinedOutput()
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		t.Fatalf("command timed out after %s: go %s", cliTimeout, strings.Join(cmdArgs, " "))
	}

	res := cliRunResult{output: string(out)}
	if err == nil {
		res.exitCode = 0
		return res
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.exitCode = exitErr.ExitCode()
		return res
	}

	t.Fatalf("run command: %v\noutput:\n%s", err, string(out))
	return cliRunResult{}
}

func mergeEnv(base []string, overrides ...map[string]string) []string {
	env := make(map[string]string, len(base))
	for _, kv := range base {
		i := strings.IndexByte(kv, '=')
		if i <= 0 {
			continue
		}
		env[kv[:i]] = kv[i+1:]
	}

	for _, set := range overrides {
		for k, v := range set {
			env[k] = v
		}
	}

	out := make([]string, 0, len(env))
	for k, v := range env {
		out = append(out, fmt.Sprintf("%s=%s", k, v))
	}
	sort.Strings(out)
	return out
}

func mustRepoRoot(t *testing.T) string {
	t.Helper()

	repoRoot, err := findRepoRoot()
	if err != nil {
		t.Fatalf("repo root: %v", err)
	}
	return repoRoot
}

func staticArgs(args ...string) func(t *testing.T, _ string) []string {
	clone := append([]string(nil), args...)
	return func(t *testing.T, _ string) []string {
		t.Helper()
		return append([]string(nil), clone...)
	}
}
