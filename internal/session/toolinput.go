package session

import "encoding/json"

// Tool names with typed input payloads. Everything else decodes opaquely.
const (
	ToolAskUserQuestion = "AskUserQuestion"
	ToolExitPlanMode    = "ExitPlanMode"
	ToolTodoWrite       = "TodoWrite"
)

// ToolInput is the decoded form of a tool call's input, discriminated by the
// tool name. Known tools get concrete variants; unknown tools and malformed
// payloads fall back to OpaqueInput. Consumers type-switch over the variants.
type ToolInput interface {
	toolInput()
}

// QuestionOption is a single selectable answer.
type QuestionOption struct {
	Label       string `json:"label"`
	Description string `json:"description,omitempty"`
}

// Question is one question posed by AskUserQuestion.
type Question struct {
	Question    string           `json:"question"`
	Header      string           `json:"header,omitempty"`
	Options     []QuestionOption `json:"options,omitempty"`
	MultiSelect bool             `json:"multiSelect,omitempty"`
}

// AskUserQuestionInput is the payload of an AskUserQuestion call.
type AskUserQuestionInput struct {
	Questions []Question `json:"questions"`
}

// ExitPlanModeInput is the payload of an ExitPlanMode call.
type ExitPlanModeInput struct {
	Plan string `json:"plan"`
}

// TodoStatus is the lifecycle state of one todo item.
type TodoStatus string

const (
	TodoStatusPending    TodoStatus = "pending"
	TodoStatusInProgress TodoStatus = "in_progress"
	TodoStatusCompleted  TodoStatus = "completed"
)

// TodoItem is one entry of a TodoWrite payload. ActiveForm keeps the wire
// name Claude Code emits.
type TodoItem struct {
	Content    string     `json:"content"`
	Status     TodoStatus `json:"status"`
	ActiveForm string     `json:"activeForm,omitempty"`
}

// TodoWriteInput is the payload of a TodoWrite call.
type TodoWriteInput struct {
	Todos []TodoItem `json:"todos"`
}

// OpaqueInput preserves the raw payload of tools without a typed variant.
type OpaqueInput struct {
	Raw json.RawMessage
}

func (AskUserQuestionInput) toolInput() {}
func (ExitPlanModeInput) toolInput()    {}
func (TodoWriteInput) toolInput()       {}
func (OpaqueInput) toolInput()          {}

// DecodeToolInput decodes raw into the variant for the given tool name.
// Malformed payloads for known tools degrade to OpaqueInput rather than
// erroring; callers treat the input as display-only in that case.
func DecodeToolInput(name string, raw json.RawMessage) ToolInput {
	switch name {
	case ToolAskUserQuestion:
		var in AskUserQuestionInput
		if err := json.Unmarshal(raw, &in); err == nil && len(in.Questions) > 0 {
			return in
		}
	case ToolExitPlanMode:
		var in ExitPlanModeInput
		if err := json.Unmarshal(raw, &in); err == nil {
			return in
		}
	case ToolTodoWrite:
		var in TodoWriteInput
		if err := json.Unmarshal(raw, &in); err == nil && len(in.Todos) > 0 {
			return in
		}
	}
	return OpaqueInput{Raw: raw}
}
