package command

// Command names understood by the console.
const (
	Judge        = "judge"
	Stop         = "stop"
	Results      = "results"
	Puzzles      = "puzzles"
	Exam         = "exam"
	Status       = "status"
	Verify       = "verify"
	Student      = "student"
	ConfigLocal  = "config-local"
	ConfigRemote = "config-remote"
	Recheck      = "recheck"
	Submit       = "submit"
)

// Registry returns all console commands keyed by name.
func Registry() map[string]Command {
	commands := []Command{
		{
			Name:    Judge,
			Summary: "run a program against every case of a puzzle",
			Fields: []Field{
				{Name: "puzzle", Aliases: []string{"puzzle_id", "id"}, Prompt: "puzzle_id", Required: true},
				{Name: "source", Aliases: []string{"src", "file"}, Prompt: "source_path", Required: true},
			},
		},
		{Name: Stop, Summary: "stop the run in progress"},
		{Name: Results, Summary: "show stored results"},
		{Name: Puzzles, Summary: "list puzzles"},
		{Name: Exam, Summary: "show the exam header"},
		{Name: Status, Summary: "show config, student and server status"},
		{
			Name:    Verify,
			Summary: "verify the student id",
			Fields: []Field{
				{Name: "id", Aliases: []string{"student", "student_id"}, Prompt: "student_id", Required: true},
			},
		},
		{Name: Student, Summary: "show the verified student"},
		{
			Name:    ConfigLocal,
			Summary: "load an exam config file",
			Fields: []Field{
				{Name: "path", Aliases: []string{"file"}, Prompt: "config_path", Required: true},
			},
		},
		{
			Name:    ConfigRemote,
			Summary: "fetch the exam config from a grading server",
			Fields: []Field{
				{Name: "host", Aliases: []string{"url"}, Prompt: "server_url", Required: true},
			},
		},
		{Name: Recheck, Summary: "probe the grading server and flush pending work"},
		{Name: Submit, Summary: "upload the submission archive now"},
	}

	out := make(map[string]Command, len(commands))
	for _, cmd := range commands {
		out[cmd.Name] = cmd
	}
	return out
}
