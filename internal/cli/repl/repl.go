package repl

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"examclient/internal/cli/command"
	"examclient/internal/judge/model"
	"examclient/internal/judge/sandbox/result"
	"examclient/internal/store"
	appErr "examclient/pkg/errors"

	"github.com/chzyer/readline"
	"github.com/google/shlex"
	"github.com/zeromicro/go-zero/core/threading"
)

const prompt = "exam> "

// Service is the judge service as seen from the console.
type Service interface {
	Judge(ctx context.Context, puzzleID, sourcePath string) (result.RunResult, error)
	ForceStop(ctx context.Context) bool
	TestResults() result.Table
	PuzzleSummaries() ([]model.PuzzleSummary, error)
	ExamInfo() (model.ExamInfo, error)
	ServerAvailability() bool
	ConfigStatus() store.ConfigStatus
	VerifyStudent(ctx context.Context, studentID string) (model.StudentInformation, error)
	Student() store.Student
	LoadLocalConfig(ctx context.Context, path string) error
	LoadRemoteConfig(ctx context.Context, host string) error
	Recheck(ctx context.Context) bool
	SubmitNow(ctx context.Context) bool
}

// Prompter asks the user for one missing value.
type Prompter func(prompt string) (string, error)

// ErrExit is returned by Execute when the user asks to leave.
var ErrExit = errors.New("exit requested")

// Session holds REPL state.
type Session struct {
	svc      Service
	commands map[string]command.Command
	out      io.Writer
	ask      Prompter

	// background runs judge in its own goroutine so stop can be typed
	// while it is running.
	background bool
}

// New creates a session writing to out. ask may be nil, in which case
// missing required values are an error.
func New(svc Service, commands map[string]command.Command, out io.Writer, ask Prompter) *Session {
	return &Session{svc: svc, commands: commands, out: out, ask: ask}
}

// Run reads commands from the terminal until exit, EOF or ctx is done.
func Run(ctx context.Context, svc Service, historyFile string) error {
	commands := command.Registry()
	items := make([]readline.PrefixCompleterInterface, 0, len(commands)+2)
	for _, name := range command.Names(commands) {
		items = append(items, readline.PcItem(name))
	}
	items = append(items, readline.PcItem("help"), readline.PcItem("exit"))

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          prompt,
		HistoryFile:     historyFile,
		AutoComplete:    readline.NewPrefixCompleter(items...),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("init readline failed: %w", err)
	}
	defer rl.Close()

	go func() {
		<-ctx.Done()
		_ = rl.Close()
	}()

	ask := func(p string) (string, error) {
		rl.SetPrompt(p + ": ")
		defer rl.SetPrompt(prompt)
		return rl.Readline()
	}
	session := New(svc, commands, rl.Stdout(), ask)
	session.background = true
	session.printLine("type help for commands")

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			if line == "" {
				// ^C on an empty line stops a running judge, like the stop button.
				if svc.ForceStop(ctx) {
					session.printLine("stop requested")
				}
			}
			continue
		}
		if err != nil {
			return nil
		}
		if err := session.Execute(ctx, line); err != nil {
			if errors.Is(err, ErrExit) {
				return nil
			}
			session.printError(err)
		}
	}
}

// Execute parses and runs one command line.
func (s *Session) Execute(ctx context.Context, line string) error {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}
	tokens, err := shlex.Split(line)
	if err != nil {
		return fmt.Errorf("parse command failed: %w", err)
	}
	switch tokens[0] {
	case "exit", "quit":
		s.printLine("bye")
		return ErrExit
	case "help":
		s.printHelp()
		return nil
	}

	cmd, ok := s.commands[tokens[0]]
	if !ok {
		return fmt.Errorf("unknown command: %s", tokens[0])
	}
	params, err := s.parseParams(cmd, tokens[1:])
	if err != nil {
		return err
	}
	if err := s.promptMissing(cmd, params); err != nil {
		return err
	}
	return s.dispatch(ctx, cmd, params)
}

// parseParams accepts key=value pairs, or bare values filled into the
// command's fields in order.
func (s *Session) parseParams(cmd command.Command, args []string) (command.Params, error) {
	params := command.Params{}
	positional := 0
	for _, arg := range args {
		if key, value, ok := strings.Cut(arg, "="); ok {
			params.Set(key, value)
			continue
		}
		if positional >= len(cmd.Fields) {
			return nil, fmt.Errorf("invalid param: %s", arg)
		}
		params.Set(cmd.Fields[positional].Name, arg)
		positional++
	}
	params.Canonicalize(cmd.Fields)
	return params, nil
}

func (s *Session) promptMissing(cmd command.Command, params command.Params) error {
	for _, field := range params.Missing(cmd.Fields) {
		if s.ask == nil {
			return fmt.Errorf("%s is required, usage: %s", field.Name, cmd.Usage())
		}
		value, err := s.ask(field.Prompt)
		if err != nil {
			return fmt.Errorf("read input failed: %w", err)
		}
		params.Set(field.Name, strings.TrimSpace(value))
	}
	return nil
}

func (s *Session) dispatch(ctx context.Context, cmd command.Command, params command.Params) error {
	switch cmd.Name {
	case command.Judge:
		puzzleID, source := params.Get("puzzle"), params.Get("source")
		s.printLine("judging %s ...", puzzleID)
		if s.background {
			threading.GoSafe(func() {
				if err := s.judge(ctx, puzzleID, source); err != nil {
					s.printError(err)
				}
			})
			return nil
		}
		return s.judge(ctx, puzzleID, source)
	case command.Stop:
		if s.svc.ForceStop(ctx) {
			s.printLine("stop requested")
		} else {
			s.printLine("nothing is running")
		}
	case command.Results:
		table := s.svc.TestResults()
		if len(table) == 0 {
			s.printLine("no results yet")
			return nil
		}
		s.renderTable(table)
	case command.Puzzles:
		puzzles, err := s.svc.PuzzleSummaries()
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(s.out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tNAME\tLANGUAGE")
		for _, p := range puzzles {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", p.ID, p.Name, p.Language)
		}
		return tw.Flush()
	case command.Exam:
		info, err := s.svc.ExamInfo()
		if err != nil {
			return err
		}
		s.printJSON(info)
	case command.Status:
		s.printJSON(struct {
			Config  store.ConfigStatus `json:"config"`
			Student store.Student      `json:"student"`
			Alive   bool               `json:"serverAlive"`
		}{s.svc.ConfigStatus(), s.svc.Student(), s.svc.ServerAvailability()})
	case command.Verify:
		info, err := s.svc.VerifyStudent(ctx, params.Get("id"))
		if err != nil {
			return err
		}
		s.printLine("verified %s %s", info.ID, info.Name)
	case command.Student:
		s.printJSON(s.svc.Student())
	case command.ConfigLocal:
		if err := s.svc.LoadLocalConfig(ctx, params.Get("path")); err != nil {
			return err
		}
		s.printJSON(s.svc.ConfigStatus())
	case command.ConfigRemote:
		if err := s.svc.LoadRemoteConfig(ctx, params.Get("host")); err != nil {
			return err
		}
		s.printJSON(s.svc.ConfigStatus())
	case command.Recheck:
		if s.svc.Recheck(ctx) {
			s.printLine("server is reachable")
		} else {
			s.printLine("server is unreachable")
		}
	case command.Submit:
		if s.svc.SubmitNow(ctx) {
			s.printLine("submission uploaded")
		} else {
			s.printLine("upload failed, it will be retried when the server is reachable")
		}
	default:
		return fmt.Errorf("unhandled command: %s", cmd.Name)
	}
	return nil
}

func (s *Session) judge(ctx context.Context, puzzleID, source string) error {
	res, err := s.svc.Judge(ctx, puzzleID, source)
	if err != nil {
		return err
	}
	s.renderRun(res)
	return nil
}

func (s *Session) renderRun(res result.RunResult) {
	state := ""
	if res.Cancelled {
		state = " (stopped)"
	}
	s.printLine("%s: %d/%d correct%s", res.PuzzleID, res.CorrectCount, res.CaseCount, state)
	tw := tabwriter.NewWriter(s.out, 0, 4, 2, ' ', 0)
	for _, g := range res.GroupResults {
		fmt.Fprintf(tw, "[%d] %s\t%d/%d\t\n", g.ID, g.Title, g.CorrectCount, g.CaseCount)
		for _, c := range g.CaseResults {
			fmt.Fprintf(tw, "  %s\t%s\t%dms\n", c.ID, c.StatusCode, c.ExecutionTime)
		}
	}
	_ = tw.Flush()
}

func (s *Session) renderTable(table result.Table) {
	tw := tabwriter.NewWriter(s.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PUZZLE\tCORRECT\tTOTAL")
	ids := make([]string, 0, len(table))
	for id := range table {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		run := table[id]
		fmt.Fprintf(tw, "%s\t%d\t%d\n", id, run.CorrectCount, run.CaseCount)
	}
	_ = tw.Flush()
}

func (s *Session) printJSON(v any) {
	formatted, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		s.printLine("render failed: %v", err)
		return
	}
	s.printLine("%s", formatted)
}

func (s *Session) printHelp() {
	s.printLine("commands:")
	for _, name := range command.Names(s.commands) {
		cmd := s.commands[name]
		s.printLine("  %-40s %s", cmd.Usage(), cmd.Summary)
	}
	s.printLine("  %-40s %s", "help", "show this help")
	s.printLine("  %-40s %s", "exit", "leave the console")
}

// printError shows the error code for coded errors so the student can
// quote it to an invigilator.
func (s *Session) printError(err error) {
	code := appErr.GetCode(err)
	if code == appErr.InternalServerError {
		s.printLine("error: %v", err)
		return
	}
	s.printLine("error [%d]: %v", code, err)
}

func (s *Session) printLine(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(s.out, format+"\n", args...)
}
