package app

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/example/thoughtstream/internal/command"
	"github.com/example/thoughtstream/internal/core/session"
	"github.com/example/thoughtstream/internal/models"
	"github.com/example/thoughtstream/internal/ports/primary"
	"github.com/example/thoughtstream/internal/ports/secondary"
)

// SessionServiceImpl implements the SessionService interface: the
// session command orchestrator. Each conversation's transitions run
// under that conversation's own mutex (no global lock), and streamed
// fragments are applied by the single execution goroutine in arrival
// order, so the at-most-one-in-flight invariant and text ordering hold
// without sequence numbers.
type SessionServiceImpl struct {
	conversationRepo secondary.ConversationRepository
	messageRepo      secondary.MessageRepository
	taskRepo         secondary.PendingTaskRepository
	analysisRepo     secondary.AnalysisRepository
	executor         secondary.ExecutionClient
	logger           *zap.Logger

	mu       sync.Mutex
	sessions map[string]*sessionState
}

// sessionState is the in-memory state of one attached conversation.
type sessionState struct {
	mu sync.Mutex

	id       string
	attached bool
	messages []*models.Message
	analyses map[string]*models.Analysis // by analysis ID

	state  session.State
	task   *models.PendingTask
	status primary.SystemStatus
	cancel context.CancelFunc // non-nil while executing

	observers map[int]primary.SessionObserver
	nextObsID int
}

// NewSessionService creates a new SessionService with injected dependencies.
func NewSessionService(
	conversationRepo secondary.ConversationRepository,
	messageRepo secondary.MessageRepository,
	taskRepo secondary.PendingTaskRepository,
	analysisRepo secondary.AnalysisRepository,
	executor secondary.ExecutionClient,
	logger *zap.Logger,
) *SessionServiceImpl {
	return &SessionServiceImpl{
		conversationRepo: conversationRepo,
		messageRepo:      messageRepo,
		taskRepo:         taskRepo,
		analysisRepo:     analysisRepo,
		executor:         executor,
		logger:           logger,
		sessions:         make(map[string]*sessionState),
	}
}

func (s *SessionServiceImpl) sessionFor(conversationID string) *sessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.sessions[conversationID]
	if !ok {
		st = &sessionState{
			id:        conversationID,
			analyses:  make(map[string]*models.Analysis),
			observers: make(map[int]primary.SessionObserver),
			status:    primary.SystemStatus{Kind: primary.StatusIdle},
		}
		s.sessions[conversationID] = st
	}
	return st
}

// Attach binds to a conversation and re-derives state from the store.
// State is always re-derived from the persisted pending task, never
// from stale memory: a loading task left by a dead process is surfaced
// as failed and retryable.
func (s *SessionServiceImpl) Attach(ctx context.Context, conversationID string) error {
	st := s.sessionFor(conversationID)
	st.mu.Lock()
	defer st.mu.Unlock()

	if st.cancel != nil {
		// A live execution owns this session; its state is current.
		return nil
	}

	records, err := s.messageRepo.ListByConversation(ctx, conversationID)
	if err != nil {
		return &primary.StoreError{Op: "loadMessages", Err: err}
	}
	st.messages = st.messages[:0]
	for _, r := range records {
		st.messages = append(st.messages, &models.Message{
			ID:         r.ID,
			Text:       r.Text,
			SentByUser: r.SentByUser,
			CommandKey: r.CommandKey,
			AnalysisID: r.AnalysisID,
			CreatedAt:  r.CreatedAt,
		})
	}

	analyses, err := s.analysisRepo.ListByConversation(ctx, conversationID)
	if err != nil {
		return &primary.StoreError{Op: "loadAnalyses", Err: err}
	}
	st.analyses = make(map[string]*models.Analysis, len(analyses))
	for _, record := range analyses {
		var analysis models.Analysis
		if err := json.Unmarshal([]byte(record.Payload), &analysis); err != nil {
			s.logger.Warn("skipping undecodable analysis payload",
				zap.String("conversation", conversationID),
				zap.String("analysis", record.ID))
			continue
		}
		st.analyses[record.ID] = &analysis
	}

	taskRecord, err := s.taskRepo.FetchByConversation(ctx, conversationID)
	if err != nil {
		return &primary.StoreError{Op: "fetchPendingTask", Err: err}
	}
	st.task = taskFromRecord(taskRecord)
	st.state = session.DeriveState(st.task, false)

	switch st.state {
	case session.StateFailed:
		message := st.task.ErrorMessage
		if message == "" {
			// Loading task that outlived its process; the stream is gone.
			message = session.InterruptedMessage
		}
		st.status = primary.SystemStatus{
			Kind:         primary.StatusError,
			Label:        command.DisplayName(st.task.CommandKey),
			ErrorMessage: message,
		}
	default:
		st.status = primary.SystemStatus{Kind: primary.StatusIdle}
	}

	st.attached = true
	st.notifyMessages(conversationID)
	st.notifyStatus(conversationID)
	return nil
}

// SubmitText appends a user message and, when the text resolves to a
// command, drives the Idle/Failed -> Executing transition.
func (s *SessionServiceImpl) SubmitText(ctx context.Context, conversationID, text string) error {
	st := s.sessionFor(conversationID)
	st.mu.Lock()
	defer st.mu.Unlock()

	key := command.Resolve(text)
	message := &models.Message{
		ID:         uuid.NewString(),
		Text:       text,
		SentByUser: true,
		CommandKey: key,
	}

	// The user message is appended and persisted regardless of what
	// happens to the command part; a later failure never rolls it back.
	if _, err := s.conversationRepo.Ensure(ctx, conversationID); err != nil {
		return s.storeFailure(st, "ensureConversation", err)
	}
	appendErr := s.messageRepo.Append(ctx, &secondary.MessageRecord{
		ID:             message.ID,
		ConversationID: conversationID,
		Text:           message.Text,
		SentByUser:     true,
		CommandKey:     key,
	})
	st.messages = append(st.messages, message)
	st.notifyMessages(conversationID)
	if appendErr != nil {
		// In-memory state stays the working truth, but no state machine
		// transition happens on top of an unpersisted message.
		return s.storeFailure(st, "appendMessage", appendErr)
	}

	if key == "" {
		return nil
	}

	if st.state == session.StateExecuting {
		// At-most-one-in-flight: the send affordance is disabled while
		// executing, this is the defensive backstop. Silent no-op.
		s.logger.Debug("command rejected while executing",
			zap.String("conversation", conversationID),
			zap.String("command", key))
		return nil
	}

	input := session.JoinWindow(session.Window(st.messages, key, len(st.messages)-1))
	if guard := session.CanExecute(st.state, input); !guard.Allowed {
		verr := &primary.ValidationError{Reason: guard.Reason}
		st.notifyNotice(conversationID, verr.Reason)
		return verr
	}

	return s.startExecution(ctx, st, key, input)
}

// Retry re-issues the conversation's failed command with input
// recomputed from current history, never cached from the failed attempt.
func (s *SessionServiceImpl) Retry(ctx context.Context, conversationID string) error {
	st := s.sessionFor(conversationID)
	st.mu.Lock()
	defer st.mu.Unlock()

	if guard := session.CanRetry(st.state); !guard.Allowed {
		verr := &primary.ValidationError{Reason: guard.Reason}
		st.notifyNotice(conversationID, verr.Reason)
		return verr
	}

	key := st.task.CommandKey
	upto := len(st.messages)
	for i := len(st.messages) - 1; i >= 0; i-- {
		if st.messages[i].CommandKey == key {
			upto = i
			break
		}
	}
	input := session.JoinWindow(session.Window(st.messages, key, upto))
	if input == "" {
		verr := &primary.ValidationError{Reason: "command requires conversation text and none is available"}
		st.notifyNotice(conversationID, verr.Reason)
		return verr
	}

	return s.startExecution(ctx, st, key, input)
}

// startExecution performs the -> Executing transition and launches the
// single execution goroutine. Caller holds st.mu.
func (s *SessionServiceImpl) startExecution(ctx context.Context, st *sessionState, key, input string) error {
	record, err := s.taskRepo.Upsert(ctx, &secondary.PendingTaskRecord{
		ID:             uuid.NewString(),
		ConversationID: st.id,
		CommandKey:     key,
	})
	if err != nil {
		return s.storeFailure(st, "upsertPendingTask", err)
	}
	st.task = taskFromRecord(record)

	label := command.DisplayName(key)
	st.state = session.StateExecuting
	st.status = primary.SystemStatus{Kind: primary.StatusLoading, Label: label}
	st.notifyStatus(st.id)

	// The execution outlives the caller: it is canceled via Cancel or
	// Detach, not by the submitting request's context.
	execCtx, cancel := context.WithCancel(context.Background())
	st.cancel = cancel

	go s.runExecution(execCtx, st, st.task, input)
	return nil
}

// runExecution is the conversation's single writer while a command is
// in flight. Fragments are applied strictly in arrival order.
func (s *SessionServiceImpl) runExecution(ctx context.Context, st *sessionState, task *models.PendingTask, input string) {
	stream, err := s.executor.Execute(ctx, secondary.ExecutionRequest{
		SessionID:  st.id,
		CommandKey: task.CommandKey,
		Input:      input,
		Stream:     true,
	})
	if err != nil {
		s.finishFailure(ctx, st, task, err)
		return
	}

	var reply *models.Message
	for fragment := range stream.Fragments() {
		st.mu.Lock()
		if reply == nil {
			reply = s.appendReply(ctx, st, task.CommandKey)
		}
		reply.Text += fragment
		if uerr := s.messageRepo.UpdateText(ctx, reply.ID, reply.Text); uerr != nil {
			// Keep streaming; in-memory text is the working truth and
			// the next successful write catches the store up.
			st.notifyNotice(st.id, (&primary.StoreError{Op: "updateMessageText", Err: uerr}).Error())
		}
		st.notifyMessages(st.id)
		st.mu.Unlock()
	}

	result, err := stream.Outcome()
	if err != nil {
		s.finishFailure(ctx, st, task, err)
		return
	}
	s.finishSuccess(ctx, st, task, reply, result)
}

// appendReply inserts the assistant placeholder message. Caller holds
// st.mu.
func (s *SessionServiceImpl) appendReply(ctx context.Context, st *sessionState, commandKey string) *models.Message {
	reply := &models.Message{ID: uuid.NewString()}
	if err := s.messageRepo.Append(ctx, &secondary.MessageRecord{
		ID:             reply.ID,
		ConversationID: st.id,
	}); err != nil {
		st.notifyNotice(st.id, (&primary.StoreError{Op: "appendMessage", Err: err}).Error())
	}
	st.messages = append(st.messages, reply)
	s.logger.Debug("assistant reply started",
		zap.String("conversation", st.id),
		zap.String("command", commandKey))
	return reply
}

func (s *SessionServiceImpl) finishSuccess(ctx context.Context, st *sessionState, task *models.PendingTask, reply *models.Message, result *secondary.ExecutionResult) {
	st.mu.Lock()
	defer st.mu.Unlock()

	if result == nil {
		result = &secondary.ExecutionResult{}
	}
	if reply == nil {
		// Non-streaming completion: the whole reply arrived at once.
		reply = s.appendReply(ctx, st, task.CommandKey)
		reply.Text = result.Text
		if err := s.messageRepo.UpdateText(ctx, reply.ID, reply.Text); err != nil {
			st.notifyNotice(st.id, (&primary.StoreError{Op: "updateMessageText", Err: err}).Error())
		}
		st.notifyMessages(st.id)
	}

	if !result.Analysis.Empty() {
		s.saveAnalysis(ctx, st, reply, result.Analysis)
	}

	if err := s.taskRepo.Clear(ctx, task.ID); err != nil {
		// Completion is not claimed until the store agrees; leave the
		// conversation retryable rather than diverging from the record.
		st.cancel = nil
		st.state = session.StateFailed
		st.status = primary.SystemStatus{
			Kind:         primary.StatusError,
			Label:        command.DisplayName(task.CommandKey),
			ErrorMessage: "failed to record completion",
		}
		st.notifyNotice(st.id, (&primary.StoreError{Op: "clearPendingTask", Err: err}).Error())
		st.notifyStatus(st.id)
		return
	}

	st.cancel = nil
	st.task = nil
	st.state = session.StateIdle
	st.status = primary.SystemStatus{Kind: primary.StatusIdle}
	st.notifyStatus(st.id)

	s.logger.Info("command completed",
		zap.String("conversation", st.id),
		zap.String("command", task.CommandKey))
}

// saveAnalysis persists the analysis, links it to the reply, and
// applies suggested topic and tags to the conversation. Caller holds
// st.mu.
func (s *SessionServiceImpl) saveAnalysis(ctx context.Context, st *sessionState, reply *models.Message, analysis *models.Analysis) {
	payload, err := json.Marshal(analysis)
	if err != nil {
		st.notifyNotice(st.id, fmt.Sprintf("failed to encode analysis: %v", err))
		return
	}

	analysisID := uuid.NewString()
	if err := s.analysisRepo.Save(ctx, &secondary.AnalysisRecord{
		ID:             analysisID,
		ConversationID: st.id,
		MessageID:      reply.ID,
		Payload:        string(payload),
	}); err != nil {
		st.notifyNotice(st.id, (&primary.StoreError{Op: "saveAnalysisResult", Err: err}).Error())
		return
	}
	if err := s.messageRepo.LinkAnalysis(ctx, reply.ID, analysisID); err != nil {
		st.notifyNotice(st.id, (&primary.StoreError{Op: "linkAnalysis", Err: err}).Error())
	}
	if err := s.conversationRepo.ApplyAnalysis(ctx, st.id, analysis.SuggestedTopic, analysis.Tags); err != nil {
		st.notifyNotice(st.id, (&primary.StoreError{Op: "applyAnalysis", Err: err}).Error())
	}

	reply.AnalysisID = analysisID
	st.analyses[analysisID] = analysis
	st.notifyMessages(st.id)
}

func (s *SessionServiceImpl) finishFailure(ctx context.Context, st *sessionState, task *models.PendingTask, execErr error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	message := execErr.Error()
	if ee, ok := execErr.(*secondary.ExecutionError); ok {
		message = ee.Message
	}

	if err := s.taskRepo.MarkError(ctx, task.ID, message); err != nil {
		// The record stays in loading; a later reattach derives the
		// same failed state from it, so memory and store reconverge.
		st.notifyNotice(st.id, (&primary.StoreError{Op: "markPendingTaskError", Err: err}).Error())
	}

	st.cancel = nil
	st.task.Status = models.TaskStatusError
	st.task.ErrorMessage = message
	st.state = session.StateFailed
	st.status = primary.SystemStatus{
		Kind:         primary.StatusError,
		Label:        command.DisplayName(task.CommandKey),
		ErrorMessage: message,
	}
	st.notifyStatus(st.id)

	s.logger.Warn("command failed",
		zap.String("conversation", st.id),
		zap.String("command", task.CommandKey),
		zap.String("error", message))
}

// Cancel best-effort cancels an in-flight execution. The pending task
// record is kept (and marked failed by the unwinding execution), so an
// abandoned command stays retryable.
func (s *SessionServiceImpl) Cancel(conversationID string) {
	st := s.sessionFor(conversationID)
	st.mu.Lock()
	cancel := st.cancel
	st.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Detach releases the conversation's in-memory state. Persisted state
// is untouched.
func (s *SessionServiceImpl) Detach(conversationID string) {
	s.Cancel(conversationID)
	s.mu.Lock()
	delete(s.sessions, conversationID)
	s.mu.Unlock()
}

// Messages returns the current in-memory message list, oldest first.
func (s *SessionServiceImpl) Messages(conversationID string) []primary.Message {
	st := s.sessionFor(conversationID)
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.snapshotMessages()
}

// Status returns the conversation's current system status.
func (s *SessionServiceImpl) Status(conversationID string) primary.SystemStatus {
	st := s.sessionFor(conversationID)
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.status
}

// Subscribe registers an observer. The returned function unsubscribes.
func (s *SessionServiceImpl) Subscribe(conversationID string, observer primary.SessionObserver) func() {
	st := s.sessionFor(conversationID)
	st.mu.Lock()
	id := st.nextObsID
	st.nextObsID++
	st.observers[id] = observer
	st.mu.Unlock()

	return func() {
		st.mu.Lock()
		delete(st.observers, id)
		st.mu.Unlock()
	}
}

func (s *SessionServiceImpl) storeFailure(st *sessionState, op string, err error) error {
	serr := &primary.StoreError{Op: op, Err: err}
	st.notifyNotice(st.id, serr.Error())
	s.logger.Error("store write failed", zap.String("op", op), zap.Error(err))
	return serr
}

// snapshotMessages builds the UI-facing view. Caller holds st.mu.
func (st *sessionState) snapshotMessages() []primary.Message {
	out := make([]primary.Message, 0, len(st.messages))
	for _, m := range st.messages {
		view := primary.Message{
			ID:         m.ID,
			Text:       m.Text,
			SentByUser: m.SentByUser,
			CommandKey: m.CommandKey,
		}
		if m.CommandKey != "" {
			view.CommandLabel = command.DisplayName(m.CommandKey)
		}
		if m.AnalysisID != "" {
			view.Analysis = st.analyses[m.AnalysisID]
		}
		out = append(out, view)
	}
	return out
}

// Observer callbacks run under st.mu, sequentially from the
// conversation's owner. Observers must not call back into the service.

func (st *sessionState) notifyMessages(conversationID string) {
	if len(st.observers) == 0 {
		return
	}
	snapshot := st.snapshotMessages()
	for _, obs := range st.observers {
		obs.MessagesChanged(conversationID, snapshot)
	}
}

func (st *sessionState) notifyStatus(conversationID string) {
	for _, obs := range st.observers {
		obs.StatusChanged(conversationID, st.status)
	}
}

func (st *sessionState) notifyNotice(conversationID, text string) {
	for _, obs := range st.observers {
		obs.Notice(conversationID, text)
	}
}

func taskFromRecord(record *secondary.PendingTaskRecord) *models.PendingTask {
	if record == nil {
		return nil
	}
	return &models.PendingTask{
		ID:             record.ID,
		ConversationID: record.ConversationID,
		CommandKey:     record.CommandKey,
		Status:         record.Status,
		ErrorMessage:   record.ErrorMessage,
		CreatedAt:      record.CreatedAt,
	}
}
