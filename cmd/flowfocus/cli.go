package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/hpungsan/flowfocus/internal/ai"
	"github.com/hpungsan/flowfocus/internal/deck"
	"github.com/hpungsan/flowfocus/internal/entity"
	"github.com/hpungsan/flowfocus/internal/errors"
	"github.com/hpungsan/flowfocus/internal/ops"
	"github.com/hpungsan/flowfocus/internal/pomodoro"
	"github.com/hpungsan/flowfocus/internal/web"
)

// newCLIApp creates the CLI application with all commands. e is nil when
// only help or version output is needed.
func newCLIApp(e *env) *cli.App {
	app := &cli.App{
		Name:    "flowfocus",
		Usage:   "Notes, tasks, habits and study tools",
		Version: Version,
		Commands: []*cli.Command{
			serveCmd(e),
			noteCmd(e),
			taskCmd(e),
			habitCmd(e),
			deckCmd(e),
			planCmd(e),
			pomodoroCmd(e),
			transcriptCmd(e),
			summarizeCmd(e),
			flashcardsCmd(e),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// serveCmd creates the serve command.
func serveCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the JSON API and note previews over HTTP",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Usage: "Address to listen on (defaults to web_bind)"},
			&cli.IntFlag{Name: "port", Aliases: []string{"p"}, Usage: "Port to listen on (defaults to web_port)"},
		},
		Action: func(c *cli.Context) error {
			bind, port := e.cfg.WebBind, e.cfg.WebPort
			if c.IsSet("bind") {
				bind = c.String("bind")
			}
			if c.IsSet("port") {
				port = c.Int("port")
			}
			srv := web.NewServer(e.ws, e.ai, e.transcripts, e.logger, Version, bind, port)
			return web.Run(c.Context, srv, e.ws, e.logger)
		},
	}
}

// --- notes ---

func noteCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "note",
		Usage: "Manage markdown notes",
		Subcommands: []*cli.Command{
			{
				Name:  "add",
				Usage: "Create a note (reads the body from stdin)",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "title", Aliases: []string{"t"}, Usage: "Note title"},
					&cli.StringFlag{Name: "tags", Usage: "Comma-separated tags"},
					&cli.BoolFlag{Name: "pin", Usage: "Pin the note"},
				},
				Action: func(c *cli.Context) error {
					input := ops.NoteInput{
						Title:    c.String("title"),
						Tags:     parseTags(c.String("tags")),
						IsPinned: c.Bool("pin"),
					}
					if stdinHasData() {
						body, err := readStdin()
						if err != nil {
							return outputError(errors.NewInternal(err))
						}
						input.Body = body
					}
					return result(e.ws.CreateNote(input))
				},
			},
			{
				Name:      "edit",
				Usage:     "Update a note (optionally reads a new body from stdin)",
				ArgsUsage: "<id>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "title", Aliases: []string{"t"}, Usage: "New title"},
					&cli.StringFlag{Name: "tags", Usage: "New comma-separated tags"},
				},
				Action: func(c *cli.Context) error {
					id, err := requireArg(c, "id")
					if err != nil {
						return err
					}
					var patch ops.NotePatch
					if c.IsSet("title") {
						title := c.String("title")
						patch.Title = &title
					}
					if c.IsSet("tags") {
						tags := parseTags(c.String("tags"))
						patch.Tags = &tags
					}
					if stdinHasData() {
						body, err := readStdin()
						if err != nil {
							return outputError(errors.NewInternal(err))
						}
						patch.Body = &body
					}
					return result(e.ws.UpdateNote(id, patch))
				},
			},
			{
				Name:  "list",
				Usage: "List notes, pinned first",
				Flags: append(listFlags(),
					&cli.StringFlag{Name: "tag", Usage: "Only notes with this tag"},
				),
				Action: func(c *cli.Context) error {
					return outputJSON(e.ws.ListNotes(ops.NoteQuery{
						Search: c.String("search"),
						Tag:    c.String("tag"),
						Limit:  c.Int("limit"),
						Offset: c.Int("offset"),
					}))
				},
			},
			idCmd("show", "Show a note", func(id string) error { return result(e.ws.GetNote(id)) }),
			idCmd("pin", "Toggle a note's pin", func(id string) error { return result(e.ws.TogglePin(id)) }),
			idCmd("delete", "Delete a note", func(id string) error { return deleted(id, e.ws.DeleteNote(id)) }),
			{
				Name:      "export",
				Usage:     "Write a note as a markdown file",
				ArgsUsage: "<id>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "path", Usage: "Output file (defaults to <exports>/<title>.md)"},
				},
				Action: func(c *cli.Context) error {
					id, err := requireArg(c, "id")
					if err != nil {
						return err
					}
					return result(e.ws.ExportNoteFile(id, c.String("path")))
				},
			},
			importCmd(e, ops.ImportNotes),
		},
	}
}

// --- tasks ---

func taskCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "task",
		Usage: "Manage tasks",
		Subcommands: []*cli.Command{
			{
				Name:      "add",
				Usage:     "Create a task",
				ArgsUsage: "<name>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "description", Aliases: []string{"d"}, Usage: "Task description"},
					&cli.StringFlag{Name: "category", Aliases: []string{"c"}, Usage: "Task category"},
					&cli.StringFlag{Name: "due", Usage: "Due date (YYYY-MM-DD)"},
					&cli.StringFlag{Name: "priority", Value: string(entity.PriorityMedium), Usage: "Priority: low|medium|high"},
					&cli.StringFlag{Name: "habit", Usage: "Habit id to link"},
				},
				Action: func(c *cli.Context) error {
					name, err := requireArg(c, "name")
					if err != nil {
						return err
					}
					return result(e.ws.CreateTask(ops.TaskInput{
						Name:        name,
						Description: c.String("description"),
						Category:    c.String("category"),
						DueDate:     c.String("due"),
						Priority:    entity.Priority(c.String("priority")),
						HabitID:     c.String("habit"),
					}))
				},
			},
			{
				Name:  "list",
				Usage: "List tasks, high priority first",
				Flags: append(listFlags(),
					&cli.StringFlag{Name: "category", Aliases: []string{"c"}, Usage: "Only tasks in this category"},
					&cli.BoolFlag{Name: "hide-completed", Usage: "Leave out completed tasks"},
				),
				Action: func(c *cli.Context) error {
					return outputJSON(e.ws.ListTasks(ops.TaskQuery{
						Search:        c.String("search"),
						Category:      c.String("category"),
						HideCompleted: c.Bool("hide-completed"),
						Limit:         c.Int("limit"),
						Offset:        c.Int("offset"),
					}))
				},
			},
			idCmd("toggle", "Toggle a task's completion", func(id string) error { return result(e.ws.ToggleTask(id)) }),
			idCmd("delete", "Delete a task", func(id string) error { return deleted(id, e.ws.DeleteTask(id)) }),
			importCmd(e, ops.ImportTasks),
		},
	}
}

// --- habits ---

func habitCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "habit",
		Usage: "Track daily habits",
		Subcommands: []*cli.Command{
			{
				Name:      "add",
				Usage:     "Create a habit",
				ArgsUsage: "<name>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "type", Value: string(entity.HabitBinary), Usage: "Habit type: binary|quantitative"},
					&cli.Float64Flag{Name: "target", Usage: "Daily target for quantitative habits"},
					&cli.StringFlag{Name: "unit", Usage: "Unit of the target, e.g. km"},
					&cli.StringFlag{Name: "category", Aliases: []string{"c"}, Usage: "Habit category"},
					&cli.IntFlag{Name: "goal-streak", Usage: "Streak to aim for"},
				},
				Action: func(c *cli.Context) error {
					name, err := requireArg(c, "name")
					if err != nil {
						return err
					}
					input := ops.HabitInput{
						Name:     name,
						Category: c.String("category"),
						Type:     entity.HabitType(c.String("type")),
						Target:   c.Float64("target"),
						Unit:     c.String("unit"),
					}
					if c.IsSet("goal-streak") {
						goal := c.Int("goal-streak")
						input.GoalStreak = &goal
					}
					return result(e.ws.CreateHabit(input))
				},
			},
			{
				Name:  "list",
				Usage: "List habits",
				Flags: append(listFlags(),
					&cli.StringFlag{Name: "category", Aliases: []string{"c"}, Usage: "Only habits in this category"},
				),
				Action: func(c *cli.Context) error {
					e.ws.RollOverHabits()
					return outputJSON(e.ws.ListHabits(ops.HabitQuery{
						Search:   c.String("search"),
						Category: c.String("category"),
						Limit:    c.Int("limit"),
						Offset:   c.Int("offset"),
					}))
				},
			},
			{
				Name:      "log",
				Usage:     "Record progress on a habit for today",
				ArgsUsage: "<id>",
				Flags: []cli.Flag{
					&cli.Float64Flag{Name: "amount", Aliases: []string{"a"}, Value: 1, Usage: "Amount to add"},
				},
				Action: func(c *cli.Context) error {
					id, err := requireArg(c, "id")
					if err != nil {
						return err
					}
					e.ws.RollOverHabits()
					return result(e.ws.LogHabit(id, c.Float64("amount")))
				},
			},
			idCmd("delete", "Delete a habit", func(id string) error { return deleted(id, e.ws.DeleteHabit(id)) }),
			importCmd(e, ops.ImportHabits),
		},
	}
}

// --- decks ---

func deckCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "deck",
		Usage: "Manage and study flashcard decks",
		Subcommands: []*cli.Command{
			{
				Name:      "add",
				Usage:     "Create a deck",
				ArgsUsage: "<name>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "description", Aliases: []string{"d"}, Usage: "Deck description"},
				},
				Action: func(c *cli.Context) error {
					name, err := requireArg(c, "name")
					if err != nil {
						return err
					}
					return result(e.ws.CreateDeck(ops.DeckInput{Name: name, Description: c.String("description")}))
				},
			},
			{
				Name:  "list",
				Usage: "List decks",
				Flags: listFlags(),
				Action: func(c *cli.Context) error {
					return outputJSON(e.ws.ListDecks(ops.DeckQuery{
						Search: c.String("search"),
						Limit:  c.Int("limit"),
						Offset: c.Int("offset"),
					}))
				},
			},
			idCmd("show", "Show a deck and its cards", func(id string) error { return result(e.ws.GetDeck(id)) }),
			idCmd("delete", "Delete a deck", func(id string) error { return deleted(id, e.ws.DeleteDeck(id)) }),
			{
				Name:      "card",
				Usage:     "Add a card to a deck",
				ArgsUsage: "<deck-id>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "question", Aliases: []string{"q"}, Required: true, Usage: "Front of the card"},
					&cli.StringFlag{Name: "answer", Aliases: []string{"a"}, Required: true, Usage: "Back of the card"},
				},
				Action: func(c *cli.Context) error {
					id, err := requireArg(c, "deck-id")
					if err != nil {
						return err
					}
					return result(e.ws.AddCard(id, ops.CardInput{Question: c.String("question"), Answer: c.String("answer")}))
				},
			},
			{
				Name:      "study",
				Usage:     "Step through a deck interactively",
				ArgsUsage: "<deck-id>",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "shuffle", Usage: "Start in shuffled order"},
				},
				Action: func(c *cli.Context) error {
					id, err := requireArg(c, "deck-id")
					if err != nil {
						return err
					}
					d, err := e.ws.GetDeck(id)
					if err != nil {
						return outputError(err)
					}
					p := deck.New(d, deck.WithTransition(e.cfg.DeckTransition()))
					if c.Bool("shuffle") {
						p.Shuffle()
					}
					return studyDeck(c, e, p)
				},
			},
			importCmd(e, ops.ImportDecks),
		},
	}
}

const studyHelp = "enter/n next, p previous, f flip, s shuffle, d delete card, q quit"

// studyDeck reads one command per line from the app's reader until q or EOF.
func studyDeck(c *cli.Context, e *env, p *deck.Player) error {
	out := c.App.Writer
	fmt.Fprintln(out, studyHelp)
	showCard(out, p.State())

	scanner := bufio.NewScanner(c.App.Reader)
	for scanner.Scan() {
		var err error
		switch strings.TrimSpace(scanner.Text()) {
		case "", "n":
			err = p.Next(c.Context)
		case "p":
			err = p.Prev(c.Context)
		case "f":
			p.Flip()
		case "s":
			if p.State().Shuffled {
				p.Unshuffle()
			} else {
				p.Shuffle()
			}
		case "d":
			card, ok := p.Current()
			if !ok {
				break
			}
			if _, err := e.ws.RemoveCard(p.State().DeckID, card.ID); err != nil {
				return outputError(err)
			}
			p.Remove(card.ID)
		case "q":
			return nil
		default:
			fmt.Fprintln(out, studyHelp)
			continue
		}
		if err != nil {
			return outputError(err)
		}
		showCard(out, p.State())
	}
	return scanner.Err()
}

func showCard(w io.Writer, s deck.State) {
	if s.Card == nil {
		fmt.Fprintln(w, "(deck is empty)")
		return
	}
	text := s.Card.Question
	if s.Face == deck.FaceAnswer {
		text = s.Card.Answer
	}
	fmt.Fprintf(w, "[%d/%d] %s: %s\n", s.Index+1, s.Total, s.Face, text)
}

// --- study plans ---

func planCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "plan",
		Usage: "Manage study plans",
		Subcommands: []*cli.Command{
			{
				Name:  "generate",
				Usage: "Draft a study plan with AI",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "subject", Aliases: []string{"s"}, Required: true, Usage: "What to study"},
					&cli.StringFlag{Name: "goal", Aliases: []string{"g"}, Required: true, Usage: "What the plan should achieve"},
					&cli.IntFlag{Name: "days", Value: 7, Usage: "Length of the plan in days"},
					&cli.Float64Flag{Name: "hours", Value: 1, Usage: "Study hours per day"},
					&cli.StringFlag{Name: "level", Usage: "beginner|intermediate|advanced"},
					&cli.StringFlag{Name: "start", Usage: "First day (YYYY-MM-DD, defaults to today)"},
					&cli.BoolFlag{Name: "save", Usage: "Store the generated plan"},
				},
				Action: func(c *cli.Context) error {
					in := entity.StudyPlanInput{
						Subject:      c.String("subject"),
						Goal:         c.String("goal"),
						DurationDays: c.Int("days"),
						HoursPerDay:  c.Float64("hours"),
						Level:        c.String("level"),
						StartDate:    c.String("start"),
					}
					out, err := e.ai.GenerateStudyPlan(c.Context, in)
					if err != nil || !c.Bool("save") {
						return result(out, err)
					}
					return result(e.ws.CreatePlan(ops.PlanInput{
						Title:     out.Title,
						Goal:      out.Goal,
						Tasks:     out.Tasks,
						UserInput: in,
						StartDate: in.StartDate,
					}))
				},
			},
			{
				Name:  "list",
				Usage: "List study plans",
				Flags: listFlags(),
				Action: func(c *cli.Context) error {
					return outputJSON(e.ws.ListPlans(ops.PlanQuery{
						Search: c.String("search"),
						Limit:  c.Int("limit"),
						Offset: c.Int("offset"),
					}))
				},
			},
			idCmd("show", "Show a study plan", func(id string) error { return result(e.ws.GetPlan(id)) }),
			idCmd("progress", "Show how much of a plan is done", func(id string) error { return result(e.ws.Progress(id)) }),
			idCmd("delete", "Delete a study plan", func(id string) error { return deleted(id, e.ws.DeletePlan(id)) }),
			{
				Name:      "toggle",
				Usage:     "Toggle one task of a plan",
				ArgsUsage: "<plan-id> <task-id>",
				Action: func(c *cli.Context) error {
					if c.NArg() != 2 {
						return outputError(errors.NewInvalidRequest("plan-id and task-id are required"))
					}
					return result(e.ws.TogglePlanTask(c.Args().Get(0), c.Args().Get(1)))
				},
			},
			{
				Name:  "export",
				Usage: "Write every plan to a JSON file",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "path", Usage: "Output file (defaults to <exports>/study-plans-<date>.json)"},
				},
				Action: func(c *cli.Context) error {
					return result(e.ws.ExportPlansFile(c.String("path")))
				},
			},
			importCmd(e, ops.ImportPlans),
		},
	}
}

// --- pomodoro ---

func pomodoroCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "pomodoro",
		Usage: "Run focus sessions",
		Subcommands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Run the timer in the foreground",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "cycles", Aliases: []string{"n"}, Value: 1, Usage: "Focus sessions to complete before exiting"},
					&cli.DurationFlag{Name: "tick", Value: time.Second, Hidden: true},
				},
				Action: func(c *cli.Context) error {
					if c.Int("cycles") < 1 {
						return outputError(errors.NewInvalidRequest("cycles must be at least 1"))
					}
					if c.Duration("tick") <= 0 {
						return outputError(errors.NewInvalidRequest("tick must be positive"))
					}
					return runPomodoro(c, e, c.Int("cycles"), c.Duration("tick"))
				},
			},
			{
				Name:  "stats",
				Usage: "Show completed focus sessions",
				Action: func(c *cli.Context) error {
					stats := e.ws.PomodoroStats()
					return outputJSON(map[string]any{"days": stats.Days, "totals": stats.Totals()})
				},
			},
		},
	}
}

// runPomodoro drives the workspace timer until cycles focus sessions have
// completed, moving straight on to each break. Interrupting pauses the timer.
func runPomodoro(c *cli.Context, e *env, cycles int, tick time.Duration) error {
	out := c.App.Writer
	state, err := e.ws.Pomodoro(ops.PomodoroStart)
	if err != nil {
		return outputError(err)
	}

	ticker := time.NewTicker(tick)
	defer ticker.Stop()
	done := 0
	for {
		fmt.Fprintf(out, "\r%-11s %s", state.State.Phase, pomodoro.Clock(time.Duration(state.State.Remaining)))
		select {
		case <-c.Context.Done():
			_, _ = e.ws.Pomodoro(ops.PomodoroPause)
			fmt.Fprintln(out)
			return nil
		case <-ticker.C:
		}

		if state, err = e.ws.Pomodoro(ops.PomodoroStatus); err != nil {
			return outputError(err)
		}
		for _, ev := range state.Ended {
			fmt.Fprintf(out, "\r%-11s done\n", ev.Phase)
			if ev.Phase == pomodoro.Focus {
				done++
			}
		}
		if done >= cycles {
			return outputJSON(state.Today)
		}
		if !state.State.Running {
			if state, err = e.ws.Pomodoro(ops.PomodoroStart); err != nil {
				return outputError(err)
			}
		}
	}
}

// --- AI and transcripts ---

func transcriptCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:      "transcript",
		Usage:     "Fetch a video's captions",
		ArgsUsage: "<url-or-id>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "segments", Usage: "Include timed segments"},
		},
		Action: func(c *cli.Context) error {
			url, err := requireArg(c, "url")
			if err != nil {
				return err
			}
			tr, err := e.transcripts.Fetch(c.Context, url)
			if err != nil {
				return outputError(err)
			}
			if !c.Bool("segments") {
				tr.Segments = nil
			}
			return outputJSON(tr)
		},
	}
}

func summarizeCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "summarize",
		Usage: "Summarize stdin, a note or a video",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "style", Value: string(ai.StyleBrief), Usage: "brief|detailed|bullets"},
			&cli.StringFlag{Name: "note", Usage: "Summarize this note"},
			&cli.StringFlag{Name: "video", Usage: "Summarize this video's transcript"},
		},
		Action: func(c *cli.Context) error {
			style := ai.SummaryStyle(c.String("style"))
			if c.IsSet("note") && c.IsSet("video") {
				return outputError(errors.NewInvalidRequest("--note and --video are mutually exclusive"))
			}
			if url := c.String("video"); url != "" {
				return result(e.ai.SummarizeVideo(c.Context, ai.VideoSummaryInput{URL: url, Style: style}))
			}

			var text string
			if id := c.String("note"); id != "" {
				n, err := e.ws.GetNote(id)
				if err != nil {
					return outputError(err)
				}
				text = n.Markdown()
			} else if stdinHasData() {
				body, err := readStdin()
				if err != nil {
					return outputError(errors.NewInternal(err))
				}
				text = body
			}
			return result(e.ai.Summarize(c.Context, ai.SummaryInput{Text: text, Style: style}))
		},
	}
}

func flashcardsCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "flashcards",
		Usage: "Generate flashcards from stdin or a topic",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "topic", Aliases: []string{"t"}, Usage: "Topic to write cards about"},
			&cli.IntFlag{Name: "count", Aliases: []string{"n"}, Value: ai.DefaultFlashcardCount, Usage: "Number of cards"},
			&cli.StringFlag{Name: "deck", Usage: "Add the cards to this deck"},
			&cli.StringFlag{Name: "new-deck", Usage: "Create a deck with this name for the cards"},
		},
		Action: func(c *cli.Context) error {
			if c.IsSet("deck") && c.IsSet("new-deck") {
				return outputError(errors.NewInvalidRequest("--deck and --new-deck are mutually exclusive"))
			}
			in := ai.FlashcardInput{Topic: c.String("topic"), Count: c.Int("count")}
			if stdinHasData() {
				text, err := readStdin()
				if err != nil {
					return outputError(errors.NewInternal(err))
				}
				in.Text = text
			}
			out, err := e.ai.GenerateFlashcards(c.Context, in)
			if err != nil {
				return outputError(err)
			}

			cards := make([]ops.CardInput, len(out.Cards))
			for i, card := range out.Cards {
				cards[i] = ops.CardInput{Question: card.Question, Answer: card.Answer}
			}
			switch {
			case c.String("deck") != "":
				return result(e.ws.AddCards(c.String("deck"), cards))
			case c.String("new-deck") != "":
				return result(e.ws.CreateDeck(ops.DeckInput{Name: c.String("new-deck"), Description: in.Topic, Cards: cards}))
			default:
				return outputJSON(out)
			}
		},
	}
}

// --- shared commands ---

// idCmd builds a subcommand that takes a single id argument.
func idCmd(name, usage string, fn func(id string) error) *cli.Command {
	return &cli.Command{
		Name:      name,
		Usage:     usage,
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			id, err := requireArg(c, "id")
			if err != nil {
				return err
			}
			return fn(id)
		},
	}
}

// importCmd builds the import subcommand for one collection.
func importCmd(e *env, kind ops.ImportKind) *cli.Command {
	return &cli.Command{
		Name:      "import",
		Usage:     fmt.Sprintf("Merge %s from a JSON file", kind),
		ArgsUsage: "<path>",
		Action: func(c *cli.Context) error {
			path, err := requireArg(c, "path")
			if err != nil {
				return err
			}
			return result(e.ws.ImportFile(kind, path))
		},
	}
}

func listFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "search", Aliases: []string{"s"}, Usage: "Case-insensitive text filter"},
		&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Value: ops.DefaultListLimit, Usage: "Maximum items to return"},
		&cli.IntFlag{Name: "offset", Usage: "Items to skip"},
	}
}

// Helper functions

// outputJSON marshals result to stdout as JSON.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	fErr := errors.As(err)
	return cli.Exit(fmt.Sprintf("[%s] %s", fErr.Code, fErr.Message), 1)
}

// result prints v or the error of an operation.
func result[T any](v T, err error) error {
	if err != nil {
		return outputError(err)
	}
	return outputJSON(v)
}

func deleted(id string, err error) error {
	if err != nil {
		return outputError(err)
	}
	return outputJSON(map[string]any{"deleted": true, "id": id})
}

// requireArg returns the first positional argument.
func requireArg(c *cli.Context, name string) (string, error) {
	arg := strings.TrimSpace(c.Args().First())
	if arg == "" {
		return "", outputError(errors.NewInvalidRequest(name + " is required"))
	}
	return arg, nil
}

// stdinHasData returns true if stdin has piped data (not a terminal).
func stdinHasData() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

// readStdin reads all content from stdin.
func readStdin() (string, error) {
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// parseTags splits a comma-separated string into a slice of tags.
func parseTags(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}
