//go:build unix

package runner

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"examclient/internal/judge/sandbox/engine"
	"examclient/internal/judge/sandbox/profile"
	"examclient/internal/judge/sandbox/result"
)

// shellLanguage runs sources with /bin/sh so the tests do not need python.
func shellLanguage() profile.LanguageSpec {
	return profile.LanguageSpec{
		ID:          "python",
		Interpreter: "/bin/sh",
		RunCmdTpl:   "{interpreter} {src}",
	}
}

func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "main sh")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("write script: %v", err)
	}
	return path
}

func TestDefaultRunnerVerdicts(t *testing.T) {
	r := NewRunner(engine.NewEngine(engine.Config{KillGrace: 100 * time.Millisecond}))

	cases := []struct {
		name     string
		script   string
		input    string
		expected string
		limit    time.Duration
		lang     func() profile.LanguageSpec
		verdict  result.Verdict
		verify   func(t *testing.T, res result.CaseResult)
	}{
		{
			name:     "sum_accepted",
			script:   "read a; read b; echo $((a+b))\n",
			input:    "2\n3\n",
			expected: "5",
			verdict:  result.VerdictAC,
			verify: func(t *testing.T, res result.CaseResult) {
				if strings.TrimSpace(res.Output) != "5" {
					t.Fatalf("unexpected output %q", res.Output)
				}
			},
		},
		{
			name:     "whitespace_trimmed",
			script:   "echo '  5  '; echo\n",
			expected: "5\n",
			verdict:  result.VerdictAC,
		},
		{
			name:     "wrong_answer",
			script:   "echo 6\n",
			expected: "5",
			verdict:  result.VerdictWA,
		},
		{
			name:     "non_zero_exit",
			script:   "echo 5; echo oops >&2; exit 1\n",
			expected: "5",
			verdict:  result.VerdictER,
			verify: func(t *testing.T, res result.CaseResult) {
				if res.Error != "oops" {
					t.Fatalf("expected stderr in error, got %q", res.Error)
				}
			},
		},
		{
			name:     "time_limit",
			script:   "sleep 30\n",
			expected: "5",
			limit:    200 * time.Millisecond,
			verdict:  result.VerdictTLE,
			verify: func(t *testing.T, res result.CaseResult) {
				if !strings.Contains(res.Error, result.ExitStatusTimeout) {
					t.Fatalf("expected timeout status in error, got %q", res.Error)
				}
				if res.ExecutionTime > 5000 {
					t.Fatalf("timeout took too long: %dms", res.ExecutionTime)
				}
			},
		},
		{
			name:     "missing_interpreter",
			script:   "echo 5\n",
			expected: "5",
			lang: func() profile.LanguageSpec {
				lang := shellLanguage()
				lang.Interpreter = "/nonexistent/python3"
				return lang
			},
			verdict: result.VerdictER,
			verify: func(t *testing.T, res result.CaseResult) {
				if !strings.Contains(res.Error, msgNoPython) {
					t.Fatalf("expected interpreter message, got %q", res.Error)
				}
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			lang := shellLanguage()
			if tc.lang != nil {
				lang = tc.lang()
			}
			limit := tc.limit
			if limit == 0 {
				limit = 5 * time.Second
			}
			res, err := r.Run(context.Background(), RunRequest{
				PuzzleID:   "p1",
				TestID:     "1-1",
				Language:   lang,
				WorkDir:    t.TempDir(),
				SourcePath: writeScript(t, tc.script),
				Input:      tc.input,
				Expected:   tc.expected,
				TimeLimit:  limit,
			})
			if err != nil {
				t.Fatalf("run: %v", err)
			}
			if res.StatusCode != tc.verdict {
				t.Fatalf("expected %s, got %s (%+v)", tc.verdict, res.StatusCode, res)
			}
			if res.Correct != (tc.verdict == result.VerdictAC) {
				t.Fatalf("correct flag mismatch: %+v", res)
			}
			if tc.verify != nil {
				tc.verify(t, res)
			}
		})
	}
}

func TestDefaultRunnerStop(t *testing.T) {
	r := NewRunner(engine.NewEngine(engine.Config{KillGrace: 100 * time.Millisecond}))
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(100*time.Millisecond, cancel)

	res, err := r.Run(ctx, RunRequest{
		PuzzleID:   "p1",
		TestID:     "1-1",
		Language:   shellLanguage(),
		WorkDir:    t.TempDir(),
		SourcePath: writeScript(t, "sleep 30\n"),
		TimeLimit:  10 * time.Second,
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.StatusCode != result.VerdictSTOP || res.Correct {
		t.Fatalf("expected STOP, got %+v", res)
	}
}

func TestBuildCommand(t *testing.T) {
	cmd, err := buildCommand(profile.LanguageSpec{
		Interpreter: "/opt/my python/bin/python3",
		RunCmdTpl:   "{interpreter} -u {src}",
	}, "/tmp/it's here/main.py")
	if err != nil {
		t.Fatalf("build command: %v", err)
	}
	want := []string{"/opt/my python/bin/python3", "-u", "/tmp/it's here/main.py"}
	if strings.Join(cmd, "|") != strings.Join(want, "|") {
		t.Fatalf("unexpected command %q", cmd)
	}

	if _, err := buildCommand(profile.LanguageSpec{Interpreter: "python3"}, "main.py"); err == nil {
		t.Fatalf("expected error for empty template")
	}
}
