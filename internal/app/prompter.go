package app

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
	"github.com/manifoldco/promptui"

	"github.com/Rorical/comgen/ui/styles"
)

// TerminalPrompter is the production Prompter: a readline session with a
// persistent history file for the main prompt, promptui for the confirmation
// and edit prompts.
type TerminalPrompter struct {
	rl  *readline.Instance
	out io.Writer
}

func NewTerminalPrompter(historyFile string, maxHistory int, out io.Writer) (*TerminalPrompter, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:       styles.InfoStyle().Render("comgen> "),
		HistoryFile:  historyFile,
		HistoryLimit: maxHistory,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create prompt session: %w", err)
	}

	return &TerminalPrompter{rl: rl, out: out}, nil
}

func (p *TerminalPrompter) ReadLine() (string, error) {
	line, err := p.rl.Readline()
	switch {
	case errors.Is(err, readline.ErrInterrupt):
		return "", ErrInterrupted
	case errors.Is(err, io.EOF):
		return "", io.EOF
	case err != nil:
		return "", err
	}
	return line, nil
}

// Decide asks for one of execute/skip/edit and re-prompts on anything else.
// An interrupt here is a skip, not a loop termination.
func (p *TerminalPrompter) Decide(command string) (Decision, string, error) {
	fmt.Fprintln(p.out)
	fmt.Fprintln(p.out, styles.DimStyle().Render("Execute this command?"))
	fmt.Fprintln(p.out, "y=yes  n=no  e=edit")

	for {
		prompt := promptui.Prompt{Label: "Choice"}
		choice, err := prompt.Run()
		if err != nil {
			return DecisionSkip, "", ErrInterrupted
		}

		switch strings.ToLower(strings.TrimSpace(choice)) {
		case "y", "yes", "":
			return DecisionExecute, "", nil
		case "n", "no":
			return DecisionSkip, "", nil
		case "e", "edit":
			edit := promptui.Prompt{
				Label:     "$",
				Default:   command,
				AllowEdit: true,
			}
			edited, err := edit.Run()
			if err != nil {
				return DecisionSkip, "", ErrInterrupted
			}
			return DecisionEdit, strings.TrimSpace(edited), nil
		default:
			fmt.Fprintln(p.out, styles.DimStyle().Render("Please enter y, n, or e"))
		}
	}
}

func (p *TerminalPrompter) Close() error {
	return p.rl.Close()
}
