package app

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rorical/comgen/internal/executor"
	"github.com/Rorical/comgen/internal/generator"
)

// scriptedPrompter feeds the loop a fixed sequence of input lines and
// decisions, standing in for the operator's terminal.
type scriptedPrompter struct {
	lines     []lineEntry
	decisions []decisionEntry
}

type lineEntry struct {
	text string
	err  error
}

type decisionEntry struct {
	decision Decision
	edited   string
	err      error
}

func (s *scriptedPrompter) ReadLine() (string, error) {
	if len(s.lines) == 0 {
		return "", io.EOF
	}
	entry := s.lines[0]
	s.lines = s.lines[1:]
	return entry.text, entry.err
}

func (s *scriptedPrompter) Decide(string) (Decision, string, error) {
	if len(s.decisions) == 0 {
		return DecisionSkip, "", nil
	}
	entry := s.decisions[0]
	s.decisions = s.decisions[1:]
	return entry.decision, entry.edited, entry.err
}

type fakeGenerator struct {
	outcomes []generator.Outcome
	requests []string
	feedback []string
	cleared  int
}

func (f *fakeGenerator) Generate(_ context.Context, request string) generator.Outcome {
	f.requests = append(f.requests, request)
	if len(f.outcomes) == 0 {
		return generator.ErrorOutcome("no scripted outcome")
	}
	outcome := f.outcomes[0]
	f.outcomes = f.outcomes[1:]
	return outcome
}

func (f *fakeGenerator) AddExecutionResult(command, output string, success bool) {
	status := "failed"
	if success {
		status = "success"
	}
	f.feedback = append(f.feedback, command+" / "+status+" / "+output)
}

func (f *fakeGenerator) ClearHistory() {
	f.cleared++
}

type fakeRunner struct {
	commands []string
	result   executor.Result
}

func (f *fakeRunner) Execute(_ context.Context, command string, _ time.Duration) executor.Result {
	f.commands = append(f.commands, command)
	result := f.result
	result.Command = command
	return result
}

func newTestLoop(p Prompter, gen *fakeGenerator, runner *fakeRunner) (*Loop, *bytes.Buffer) {
	var out bytes.Buffer
	return NewLoop(gen, runner, p, NewRenderer(&out)), &out
}

func TestLoopHappyPath(t *testing.T) {
	gen := &fakeGenerator{outcomes: []generator.Outcome{generator.CommandOutcome("ls -la")}}
	runner := &fakeRunner{result: executor.Result{ExitCode: 0, Stdout: "total 0\n"}}
	prompter := &scriptedPrompter{
		lines:     []lineEntry{{text: "list files"}, {text: "/quit"}},
		decisions: []decisionEntry{{decision: DecisionExecute}},
	}
	loop, out := newTestLoop(prompter, gen, runner)

	err := loop.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"list files"}, gen.requests)
	assert.Equal(t, []string{"ls -la"}, runner.commands)
	require.Len(t, gen.feedback, 1)
	assert.Equal(t, "ls -la / success / total 0\n", gen.feedback[0])
	assert.Contains(t, out.String(), "ls -la")
	assert.Contains(t, out.String(), "Goodbye!")
}

func TestLoopEditPath(t *testing.T) {
	gen := &fakeGenerator{outcomes: []generator.Outcome{generator.CommandOutcome("ls -la")}}
	runner := &fakeRunner{result: executor.Result{ExitCode: 0}}
	prompter := &scriptedPrompter{
		lines:     []lineEntry{{text: "list files"}},
		decisions: []decisionEntry{{decision: DecisionEdit, edited: "ls -la /tmp"}},
	}
	loop, _ := newTestLoop(prompter, gen, runner)

	require.NoError(t, loop.Run(context.Background()))

	// The executor must receive exactly the edited text, not the original.
	assert.Equal(t, []string{"ls -la /tmp"}, runner.commands)
	require.Len(t, gen.feedback, 1)
	assert.Contains(t, gen.feedback[0], "ls -la /tmp")
}

func TestLoopSkipPath(t *testing.T) {
	gen := &fakeGenerator{outcomes: []generator.Outcome{generator.CommandOutcome("rm -rf /")}}
	runner := &fakeRunner{}
	prompter := &scriptedPrompter{
		lines:     []lineEntry{{text: "delete everything"}},
		decisions: []decisionEntry{{decision: DecisionSkip}},
	}
	loop, out := newTestLoop(prompter, gen, runner)

	require.NoError(t, loop.Run(context.Background()))

	assert.Empty(t, runner.commands)
	assert.Empty(t, gen.feedback)
	assert.Contains(t, out.String(), "Command skipped.")
}

func TestLoopInterruptAtDecisionIsSkip(t *testing.T) {
	gen := &fakeGenerator{outcomes: []generator.Outcome{generator.CommandOutcome("ls")}}
	runner := &fakeRunner{}
	prompter := &scriptedPrompter{
		lines:     []lineEntry{{text: "list files"}},
		decisions: []decisionEntry{{err: ErrInterrupted}},
	}
	loop, out := newTestLoop(prompter, gen, runner)

	require.NoError(t, loop.Run(context.Background()))

	assert.Empty(t, runner.commands)
	assert.Contains(t, out.String(), "Command skipped.")
}

func TestLoopGenerationErrorSkipsConfirmation(t *testing.T) {
	gen := &fakeGenerator{outcomes: []generator.Outcome{generator.ErrorOutcome("cannot determine target file")}}
	runner := &fakeRunner{}
	prompter := &scriptedPrompter{
		lines: []lineEntry{{text: "do something impossible"}},
		// No decisions scripted: Decide must never be reached.
	}
	loop, out := newTestLoop(prompter, gen, runner)

	require.NoError(t, loop.Run(context.Background()))

	assert.Empty(t, runner.commands)
	assert.Contains(t, out.String(), "cannot determine target file")
}

func TestLoopFailedExecutionStillInjectsFeedback(t *testing.T) {
	gen := &fakeGenerator{outcomes: []generator.Outcome{generator.CommandOutcome("false")}}
	runner := &fakeRunner{result: executor.Result{ExitCode: 1, Stderr: "nope\n"}}
	prompter := &scriptedPrompter{
		lines:     []lineEntry{{text: "fail please"}},
		decisions: []decisionEntry{{decision: DecisionExecute}},
	}
	loop, out := newTestLoop(prompter, gen, runner)

	require.NoError(t, loop.Run(context.Background()))

	require.Len(t, gen.feedback, 1)
	assert.Equal(t, "false / failed / nope\n", gen.feedback[0])
	assert.Contains(t, out.String(), "exit code: 1")
}

func TestLoopMetaCommands(t *testing.T) {
	t.Run("clear resets history", func(t *testing.T) {
		gen := &fakeGenerator{}
		prompter := &scriptedPrompter{lines: []lineEntry{{text: "/clear"}, {text: "/quit"}}}
		loop, out := newTestLoop(prompter, gen, &fakeRunner{})

		require.NoError(t, loop.Run(context.Background()))

		assert.Equal(t, 1, gen.cleared)
		assert.Contains(t, out.String(), "Conversation history cleared.")
	})

	t.Run("help prints usage", func(t *testing.T) {
		prompter := &scriptedPrompter{lines: []lineEntry{{text: "/help"}, {text: "/quit"}}}
		loop, out := newTestLoop(prompter, &fakeGenerator{}, &fakeRunner{})

		require.NoError(t, loop.Run(context.Background()))

		assert.Contains(t, out.String(), "/clear")
		assert.Contains(t, out.String(), "y=execute, n=skip, e=edit")
	})

	t.Run("quit is case-insensitive and immediate", func(t *testing.T) {
		gen := &fakeGenerator{}
		prompter := &scriptedPrompter{lines: []lineEntry{{text: "/QUIT"}, {text: "never read"}}}
		loop, _ := newTestLoop(prompter, gen, &fakeRunner{})

		require.NoError(t, loop.Run(context.Background()))

		assert.Empty(t, gen.requests)
		assert.Len(t, prompter.lines, 1)
	})

	t.Run("exit is an alias for quit", func(t *testing.T) {
		prompter := &scriptedPrompter{lines: []lineEntry{{text: "/exit"}}}
		loop, out := newTestLoop(prompter, &fakeGenerator{}, &fakeRunner{})

		require.NoError(t, loop.Run(context.Background()))
		assert.Contains(t, out.String(), "Goodbye!")
	})

	t.Run("unknown meta-command prints a hint", func(t *testing.T) {
		gen := &fakeGenerator{}
		prompter := &scriptedPrompter{lines: []lineEntry{{text: "/bogus"}, {text: "/quit"}}}
		loop, out := newTestLoop(prompter, gen, &fakeRunner{})

		require.NoError(t, loop.Run(context.Background()))

		assert.Empty(t, gen.requests)
		assert.Contains(t, out.String(), "Unknown command")
	})
}

func TestLoopInputHandling(t *testing.T) {
	t.Run("empty input reprompts without generating", func(t *testing.T) {
		gen := &fakeGenerator{}
		prompter := &scriptedPrompter{lines: []lineEntry{{text: ""}, {text: "   "}, {text: "/quit"}}}
		loop, _ := newTestLoop(prompter, gen, &fakeRunner{})

		require.NoError(t, loop.Run(context.Background()))
		assert.Empty(t, gen.requests)
	})

	t.Run("interrupt at input prompt continues the loop", func(t *testing.T) {
		gen := &fakeGenerator{outcomes: []generator.Outcome{generator.CommandOutcome("ls")}}
		runner := &fakeRunner{}
		prompter := &scriptedPrompter{
			lines:     []lineEntry{{err: ErrInterrupted}, {text: "list files"}, {text: "/quit"}},
			decisions: []decisionEntry{{decision: DecisionExecute}},
		}
		loop, _ := newTestLoop(prompter, gen, runner)

		require.NoError(t, loop.Run(context.Background()))
		assert.Equal(t, []string{"ls"}, runner.commands)
	})

	t.Run("end of input exits cleanly", func(t *testing.T) {
		prompter := &scriptedPrompter{}
		loop, out := newTestLoop(prompter, &fakeGenerator{}, &fakeRunner{})

		require.NoError(t, loop.Run(context.Background()))
		assert.Contains(t, out.String(), "Goodbye!")
	})
}
