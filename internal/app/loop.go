// Package app drives the interactive request → command → confirmation →
// execution → feedback loop. It is the sole coordinator between the generator
// and the executor; they never call each other.
package app

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/Rorical/comgen/internal/executor"
	"github.com/Rorical/comgen/internal/generator"
	"github.com/Rorical/comgen/internal/logging"
)

// State enumerates the loop's positions within one interactive turn.
type State int

const (
	StateAwaitingInput State = iota
	StateClassifying
	StateGenerating
	StateAwaitingConfirmation
	StateExecuting
	StateFeedbackInjection
	StateDone
)

// Decision is the operator's verdict on a generated command.
type Decision int

const (
	DecisionExecute Decision = iota
	DecisionSkip
	DecisionEdit
)

// ErrInterrupted reports an interrupt signal at a prompt. At the input prompt
// it means reprompt; at the confirmation prompt it means skip.
var ErrInterrupted = errors.New("interrupted")

// Prompter abstracts the operator's terminal so the loop can be driven by a
// scripted input source in tests.
type Prompter interface {
	// ReadLine reads one raw input line. io.EOF ends the loop cleanly.
	ReadLine() (string, error)
	// Decide solicits execute/skip/edit for a generated command. For
	// DecisionEdit the returned string is the replacement command text,
	// pre-filled with the generated command as the default.
	Decide(command string) (Decision, string, error)
}

type commandGenerator interface {
	Generate(ctx context.Context, request string) generator.Outcome
	AddExecutionResult(command, output string, success bool)
	ClearHistory()
}

type commandRunner interface {
	Execute(ctx context.Context, command string, timeout time.Duration) executor.Result
}

// Loop is the interaction orchestrator.
type Loop struct {
	generator commandGenerator
	executor  commandRunner
	prompter  Prompter
	renderer  *Renderer
	timeout   time.Duration
	log       *logging.Logger
}

func NewLoop(gen commandGenerator, exec commandRunner, prompter Prompter, renderer *Renderer) *Loop {
	return &Loop{
		generator: gen,
		executor:  exec,
		prompter:  prompter,
		renderer:  renderer,
		timeout:   executor.DefaultTimeout,
		log:       logging.Get(),
	}
}

// Run drives the state machine until quit or end-of-input. Every failure
// degrades to a rendered message and a return to StateAwaitingInput; nothing
// terminates the loop except an explicit quit, EOF, or context cancellation.
func (l *Loop) Run(ctx context.Context) error {
	state := StateAwaitingInput
	var input, command string
	var result executor.Result

	for state != StateDone {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		switch state {

		case StateAwaitingInput:
			line, err := l.prompter.ReadLine()
			switch {
			case errors.Is(err, io.EOF):
				l.renderer.Farewell()
				state = StateDone
			case errors.Is(err, ErrInterrupted):
				// Abort the current line only, never the process.
			case err != nil:
				l.renderer.Error(err.Error())
			default:
				input = strings.TrimSpace(line)
				if input != "" {
					state = StateClassifying
				}
			}

		case StateClassifying:
			if strings.HasPrefix(input, "/") {
				state = l.handleMetaCommand(input)
			} else {
				state = StateGenerating
			}

		case StateGenerating:
			l.log.Printf("generate: %q", input)
			outcome := l.generator.Generate(ctx, input)
			if outcome.IsError() {
				l.log.Printf("generate failed: %s", outcome.Err())
				l.renderer.Error(outcome.Err())
				state = StateAwaitingInput
				break
			}
			command = outcome.Command()
			l.renderer.Command(command)
			state = StateAwaitingConfirmation

		case StateAwaitingConfirmation:
			decision, edited, err := l.prompter.Decide(command)
			if err != nil {
				// Interrupt or EOF at this prompt means skip, not exit.
				decision = DecisionSkip
			}
			switch decision {
			case DecisionSkip:
				l.renderer.Info("Command skipped.")
				state = StateAwaitingInput
			case DecisionEdit:
				command = edited
				state = StateExecuting
			default:
				state = StateExecuting
			}

		case StateExecuting:
			l.log.Printf("execute: %q", command)
			result = l.executor.Execute(ctx, command, l.timeout)
			l.renderer.Result(result)
			state = StateFeedbackInjection

		case StateFeedbackInjection:
			l.generator.AddExecutionResult(command, result.Output(), result.Success())
			state = StateAwaitingInput
		}
	}

	return nil
}

// handleMetaCommand dispatches reserved /-prefixed inputs and returns the
// next state. Quit is the only meta-command that ends the loop.
func (l *Loop) handleMetaCommand(input string) State {
	verb := strings.ToLower(strings.Fields(input)[0])

	switch verb {
	case "/quit", "/exit":
		l.renderer.Farewell()
		return StateDone
	case "/help":
		l.renderer.Help()
	case "/clear":
		l.generator.ClearHistory()
		l.renderer.Info("Conversation history cleared.")
	default:
		l.renderer.Info("Unknown command. Type /help for available commands.")
	}

	return StateAwaitingInput
}
