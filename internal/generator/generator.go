// Package generator owns the conversation transcript and turns natural
// language requests into shell commands through a chat completion endpoint.
package generator

import (
	"context"
	"fmt"
	"runtime"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// errorMarker is the model's own signal for "cannot comply". The system
// prompt instructs the model to reply with it instead of a command.
const errorMarker = "ERROR:"

// maxOutputLength truncates execution output before it is fed back into the
// transcript, keeping the context window bounded.
const maxOutputLength = 2000

const truncationMarker = "\n... (truncated)"

const maxReplyTokens = 1024

const systemPromptTemplate = `You are a command-line assistant that converts natural language requests into shell commands.

Your task is to generate a single shell command (or a pipeline of commands) that accomplishes the user's request.

Guidelines:
- Generate ONLY the command, no explanations or markdown formatting
- Use common Unix utilities that are typically available on most systems
- Prefer simple, readable commands over complex one-liners when possible
- If the request is ambiguous, generate the most likely intended command
- For dangerous operations (rm -rf, dd, etc.), include appropriate safeguards
- Use proper quoting to handle filenames with spaces
- If you absolutely cannot generate a command for the request, respond with: ERROR: <reason>

Environment information:
- Operating System: %s
- Shell: %s
- Current Directory: %s
`

// Role tags one transcript turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one role-tagged entry in the conversation transcript.
type Turn struct {
	Role    Role
	Content string
}

// Outcome is the tagged result of one Generate call: a command or an error,
// never both.
type Outcome struct {
	command string
	err     string
	isError bool
}

func CommandOutcome(command string) Outcome {
	return Outcome{command: command}
}

func ErrorOutcome(message string) Outcome {
	return Outcome{err: message, isError: true}
}

func (o Outcome) IsError() bool {
	return o.isError
}

func (o Outcome) Command() string {
	return o.command
}

func (o Outcome) Err() string {
	return o.err
}

// completer is the slice of the OpenAI client the generator needs, kept
// narrow so tests can inject a fake.
type completer interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Generator builds commands from requests and maintains the transcript that
// gives follow-up requests their context.
type Generator struct {
	client     completer
	model      string
	shell      string
	workingDir func() string
	transcript []Turn
}

// New creates a Generator. workingDir is a callback rather than a value
// because the executor's directory can change between calls and the system
// prompt must track it.
func New(client completer, model, shell string, workingDir func() string) *Generator {
	if workingDir == nil {
		workingDir = func() string { return "." }
	}
	return &Generator{
		client:     client,
		model:      model,
		shell:      shell,
		workingDir: workingDir,
	}
}

// systemPrompt embeds environment facts. Rebuilt on every call: the working
// directory is live state.
func (g *Generator) systemPrompt() string {
	osInfo := fmt.Sprintf("%s %s", runtime.GOOS, runtime.GOARCH)
	return fmt.Sprintf(systemPromptTemplate, osInfo, g.shell, g.workingDir())
}

// Generate produces a command for a natural language request. The request is
// staged onto the transcript before the model call and reverted on any
// failure, so a failed exchange never leaves an unanswered user turn behind.
func (g *Generator) Generate(ctx context.Context, request string) Outcome {
	revert := g.stageUserTurn(request)

	req := openai.ChatCompletionRequest{
		Model:     g.model,
		MaxTokens: maxReplyTokens,
		Messages:  g.chatMessages(),
	}

	resp, err := g.client.CreateChatCompletion(ctx, req)
	if err != nil {
		revert()
		return ErrorOutcome(fmt.Sprintf("API error: %v", err))
	}

	if len(resp.Choices) == 0 {
		revert()
		return ErrorOutcome("model returned no choices")
	}

	reply := strings.TrimSpace(resp.Choices[0].Message.Content)

	if strings.HasPrefix(reply, errorMarker) {
		revert()
		return ErrorOutcome(strings.TrimSpace(strings.TrimPrefix(reply, errorMarker)))
	}

	if reply == "" {
		revert()
		return ErrorOutcome("model returned an empty command")
	}

	g.appendTurn(RoleAssistant, reply)
	return CommandOutcome(reply)
}

// AddExecutionResult folds an execution outcome back into the transcript as a
// synthetic user turn, making it context for the next Generate call. Output
// longer than 2000 characters is cut and marked. This call cannot fail.
func (g *Generator) AddExecutionResult(command, output string, success bool) {
	status := "failed"
	if success {
		status = "success"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Command executed: %s\n", command)
	fmt.Fprintf(&b, "Status: %s\n", status)
	if output != "" {
		if len(output) > maxOutputLength {
			output = output[:maxOutputLength] + truncationMarker
		}
		fmt.Fprintf(&b, "Output:\n%s", output)
	}

	g.appendTurn(RoleUser, b.String())
}

// ClearHistory resets the transcript to empty.
func (g *Generator) ClearHistory() {
	g.transcript = nil
}

// Transcript returns a copy of the current transcript.
func (g *Generator) Transcript() []Turn {
	out := make([]Turn, len(g.transcript))
	copy(out, g.transcript)
	return out
}

// stageUserTurn appends a user turn and returns a revert function restoring
// the transcript to its prior state. Together with appendTurn's merging this
// is the two-phase stage/commit/revert the rollback semantics need.
func (g *Generator) stageUserTurn(content string) func() {
	if n := len(g.transcript); n > 0 && g.transcript[n-1].Role == RoleUser {
		prior := g.transcript[n-1].Content
		g.transcript[n-1].Content = prior + "\n\n" + content
		return func() { g.transcript[n-1].Content = prior }
	}

	g.transcript = append(g.transcript, Turn{Role: RoleUser, Content: content})
	return func() { g.transcript = g.transcript[:len(g.transcript)-1] }
}

// appendTurn keeps the transcript strictly alternating: a turn landing on a
// same-role tail is merged into it instead of appended. Chat completion APIs
// require a well-formed alternating dialogue.
func (g *Generator) appendTurn(role Role, content string) {
	if n := len(g.transcript); n > 0 && g.transcript[n-1].Role == role {
		g.transcript[n-1].Content += "\n\n" + content
		return
	}
	g.transcript = append(g.transcript, Turn{Role: role, Content: content})
}

func (g *Generator) chatMessages() []openai.ChatCompletionMessage {
	messages := make([]openai.ChatCompletionMessage, 0, len(g.transcript)+1)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: g.systemPrompt(),
	})
	for _, turn := range g.transcript {
		role := openai.ChatMessageRoleUser
		if turn.Role == RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    role,
			Content: turn.Content,
		})
	}
	return messages
}
