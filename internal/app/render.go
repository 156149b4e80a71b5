package app

import (
	"fmt"
	"io"

	"github.com/Rorical/comgen/internal/executor"
	"github.com/Rorical/comgen/ui/styles"
)

const helpText = `Available Commands:

  /help     Show this help message
  /clear    Clear conversation history
  /quit     Exit comgen (also: /exit, Ctrl+D)

Usage:

  Just type what you want to do in plain English:

  > list all go files modified in the last week
  > find and replace 'foo' with 'bar' in all .txt files
  > show disk usage sorted by size

Execution Flow:

  1. Type your request
  2. Review the generated command
  3. Choose: y=execute, n=skip, e=edit`

// Renderer writes all operator-facing output. It holds an io.Writer so tests
// can capture what the loop prints.
type Renderer struct {
	out io.Writer
}

func NewRenderer(out io.Writer) *Renderer {
	return &Renderer{out: out}
}

func (r *Renderer) Banner() {
	title := styles.TitleStyle().Render("comgen") +
		styles.DimStyle().Render(" - Natural Language to Shell Commands")
	fmt.Fprintln(r.out)
	fmt.Fprintln(r.out, styles.BannerStyle().Render(title))
	fmt.Fprintln(r.out, styles.DimStyle().Render("Type your request in natural language."))
	fmt.Fprintln(r.out, styles.DimStyle().Render("Commands: /help, /clear, /quit"))
	fmt.Fprintln(r.out)
}

func (r *Renderer) Help() {
	fmt.Fprintln(r.out, helpText)
}

func (r *Renderer) Command(command string) {
	fmt.Fprintln(r.out)
	fmt.Fprintln(r.out, styles.CommandStyle().Render(command))
}

func (r *Renderer) Result(result executor.Result) {
	var panel string
	output := result.Output()
	if output == "" {
		output = "No output"
	}

	if result.Success() {
		panel = styles.SuccessStyle().Render("Success\n" + output)
	} else {
		header := fmt.Sprintf("Failed (exit code: %d)\n", result.ExitCode)
		panel = styles.FailureStyle().Render(header + output)
	}

	fmt.Fprintln(r.out)
	fmt.Fprintln(r.out, panel)
}

func (r *Renderer) Error(message string) {
	fmt.Fprintln(r.out)
	fmt.Fprintln(r.out, styles.ErrorStyle().Render("Error: ")+message)
}

func (r *Renderer) Info(message string) {
	fmt.Fprintln(r.out, styles.InfoStyle().Render(message))
}

func (r *Renderer) Farewell() {
	fmt.Fprintln(r.out, styles.DimStyle().Render("Goodbye!"))
}
