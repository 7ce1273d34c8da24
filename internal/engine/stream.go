package engine

import (
	"github.com/skeinhq/skein/internal/backend"
	"github.com/skeinhq/skein/internal/logger"
	"github.com/skeinhq/skein/internal/notification"
	"github.com/skeinhq/skein/internal/session"
)

// HandleChunk folds one streaming chunk into the session's in-progress
// turn. Done and Error chunks finalize the turn.
func (e *Engine) HandleChunk(sessionID string, chunk backend.ResponseChunk) {
	if _, ok := e.store.Session(sessionID); !ok {
		logger.Warn("Engine: Received chunk for unknown session %s", sessionID)
		return
	}
	if chunk.Error != nil {
		e.HandleError(sessionID, chunk.Error)
		return
	}
	if chunk.Done {
		e.finalizeTurn(sessionID, chunk.Usage)
		return
	}

	switch chunk.Type {
	case backend.ChunkTypeText:
		e.assembler.AppendText(sessionID, chunk.Content)
	case backend.ChunkTypeThinking:
		e.assembler.AppendThinking(sessionID, chunk.Content)
	case backend.ChunkTypeToolUse:
		e.assembler.AppendToolUse(sessionID, chunk.ToolUseID)
		tc := session.ToolCall{
			ID:              chunk.ToolUseID,
			Name:            chunk.ToolName,
			Input:           chunk.ToolInput,
			ParentToolUseID: chunk.ParentToolUseID,
		}
		e.store.AddToolCall(sessionID, tc)
		e.noteInputRequest(sessionID, tc)
	case backend.ChunkTypeToolResult:
		logger.Debug("Engine: Session %s tool %s result: %s", sessionID, chunk.ToolUseID, backend.TruncateForLog(chunk.ToolOutput))
		e.store.UpdateToolCallOutput(sessionID, chunk.ToolUseID, chunk.ToolOutput)
	default:
		// Unknown chunk types carrying content are treated as text.
		if chunk.Content != "" {
			e.assembler.AppendText(sessionID, chunk.Content)
		}
	}
}

// noteInputRequest flags the session as blocked on the user when the
// turn calls a tool whose answer must come from them. Malformed
// payloads decode opaquely and do not flip the flag.
func (e *Engine) noteInputRequest(sessionID string, tc session.ToolCall) {
	switch tc.ParsedInput().(type) {
	case session.AskUserQuestionInput, session.ExitPlanModeInput:
		logger.Debug("Engine: Session %s waiting on %s", sessionID, tc.Name)
		e.store.SetWaitingForInput(sessionID, true)
	}
}

// HandleDone finalizes the current turn without usage stats. Hosts that
// stream through HandleChunk get this via the Done chunk instead.
func (e *Engine) HandleDone(sessionID string) {
	e.finalizeTurn(sessionID, nil)
}

// HandleError ends the turn after a backend failure. The error text is
// appended to the partial response so the transcript records what
// happened, and the session stops sending. The queue is not drained;
// the user decides whether to retry.
func (e *Engine) HandleError(sessionID string, err error) {
	logger.Error("Engine: Session %s stream failed: %v", sessionID, err)
	e.assembler.AppendText(sessionID, "\n[Error: "+err.Error()+"]")

	blocks := e.assembler.Blocks(sessionID)
	toolCalls := e.store.ToolCalls(sessionID)
	e.store.AppendMessage(sessionID, session.NewAssistantMessage(sessionID, blocks, toolCalls))

	e.assembler.Clear(sessionID)
	e.store.ClearToolCalls(sessionID)
	e.store.RemoveSendingSession(sessionID)

	if !e.isActiveSession(sessionID) {
		e.store.AddPendingDigest(sessionID)
	}
}

// finalizeTurn assembles the assistant message, appends it to the
// transcript, resets the per-turn state, and starts the next queued
// message if one is waiting.
func (e *Engine) finalizeTurn(sessionID string, usage *session.UsageStats) {
	logger.Debug("Engine: Session %s completed streaming", sessionID)

	blocks := e.assembler.Blocks(sessionID)
	toolCalls := e.store.ToolCalls(sessionID)
	if len(blocks) > 0 || len(toolCalls) > 0 {
		msg := session.NewAssistantMessage(sessionID, blocks, toolCalls)
		msg.Usage = usage
		e.store.AppendMessage(sessionID, msg)
	} else {
		logger.Debug("Engine: Session %s produced no content this turn", sessionID)
	}

	e.assembler.Clear(sessionID)
	e.store.ClearToolCalls(sessionID)
	e.store.RemoveSendingSession(sessionID)

	if !e.isActiveSession(sessionID) {
		e.store.AddPendingDigest(sessionID)
		if e.config.GetNotificationsEnabled() {
			go notification.SessionReady(e.sessionName(sessionID))
		}
	}

	if qm, ok := e.store.DequeueMessage(sessionID); ok {
		logger.Debug("Engine: Session %s sending queued message %s", sessionID, qm.ID)
		e.dispatch(sessionID, qm)
	}
}
