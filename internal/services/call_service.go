package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/bettercallrobots/voicebridge/internal/models"
	"github.com/bettercallrobots/voicebridge/internal/providers/llm"
	"github.com/bettercallrobots/voicebridge/internal/utils"
)

// maxContextTurns bounds how much history is replayed to the backend.
const maxContextTurns = 10

// FallbackReply is returned to the caller whenever the backend fails. The
// session stays alive so the conversation can continue.
const FallbackReply = "I'm sorry, I'm having trouble answering right now. Could you say that again?"

const defaultLLMTimeout = 30 * time.Second

type CallService interface {
	// CreateSession (re)initializes an empty history for the call. Idempotent.
	CreateSession(callSid string)
	HasSession(callSid string) bool
	// SendMessage appends the user turn, asks the backend for a reply and
	// appends it on success. Backend failures never surface: the fallback
	// reply is returned instead. The only error is NOT_FOUND for an unknown
	// callSid; the transport is expected to drop the event.
	SendMessage(ctx context.Context, callSid, text string) (string, error)
	EndSession(callSid string)
}

type callSession struct {
	mu      sync.Mutex // serializes turns within one call
	history []models.Turn
	chat    llm.Chat // non-nil only in session-affinity mode
}

type callService struct {
	mu        sync.RWMutex
	sessions  map[string]*callSession
	completer llm.Completer
	system    string
	timeout   time.Duration
	log       *logrus.Entry
}

func NewCallService(completer llm.Completer, systemPrompt string, timeout time.Duration, l *logrus.Logger) CallService {
	if timeout <= 0 {
		timeout = defaultLLMTimeout
	}
	if l == nil {
		l = logrus.New()
	}
	return &callService{
		sessions:  make(map[string]*callSession),
		completer: completer,
		system:    systemPrompt,
		timeout:   timeout,
		log:       l.WithField("component", "call_service"),
	}
}

func (s *callService) CreateSession(callSid string) {
	sess := &callSession{}
	if s.completer.Mode() == llm.ModeSessionAffinity {
		if starter, ok := s.completer.(llm.ChatStarter); ok {
			sess.chat = starter.StartChat()
		}
	}

	s.mu.Lock()
	s.sessions[callSid] = sess
	s.mu.Unlock()

	s.log.WithField("call_sid", callSid).Info("session created")
}

func (s *callService) HasSession(callSid string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.sessions[callSid]
	return ok
}

func (s *callService) SendMessage(ctx context.Context, callSid, text string) (string, error) {
	const op = "CallService.SendMessage"

	s.mu.RLock()
	sess, ok := s.sessions[callSid]
	s.mu.RUnlock()
	if !ok {
		return "", utils.E(utils.CodeNotFound, op, "no session for call", nil)
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	sess.history = append(sess.history, models.Turn{
		Role:      models.RoleUser,
		Content:   text,
		Timestamp: time.Now().UTC(),
	})

	cctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var reply string
	var err error
	if sess.chat != nil {
		reply, err = sess.chat.Send(cctx, text)
	} else {
		reply, err = s.completer.Complete(cctx, s.buildContext(sess.history))
	}
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"call_sid": callSid,
			"error":    err.Error(),
		}).Warn("completion failed, using fallback reply")
		return FallbackReply, nil
	}

	// The call may have disconnected while the completion was in flight.
	// Its session is gone then and the reply is not recorded.
	s.mu.RLock()
	cur, alive := s.sessions[callSid]
	s.mu.RUnlock()
	if !alive || cur != sess {
		return reply, nil
	}

	sess.history = append(sess.history, models.Turn{
		Role:      models.RoleAssistant,
		Content:   reply,
		Timestamp: time.Now().UTC(),
	})
	return reply, nil
}

func (s *callService) EndSession(callSid string) {
	s.mu.Lock()
	_, ok := s.sessions[callSid]
	delete(s.sessions, callSid)
	s.mu.Unlock()

	if ok {
		s.log.WithField("call_sid", callSid).Info("session ended")
	}
}

// buildContext renders the system instruction plus the most recent turns,
// oldest-first, for a stateless completion backend.
func (s *callService) buildContext(history []models.Turn) string {
	var b strings.Builder
	b.WriteString(s.system)
	b.WriteString("\n\n")

	start := 0
	if len(history) > maxContextTurns {
		start = len(history) - maxContextTurns
	}
	for _, t := range history[start:] {
		if t.Role == models.RoleAssistant {
			b.WriteString("Assistant: ")
		} else {
			b.WriteString("User: ")
		}
		b.WriteString(t.Content)
		b.WriteString("\n")
	}
	b.WriteString("Assistant:")
	return b.String()
}
