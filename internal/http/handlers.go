package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"caixinha/internal/assistant"
	"caixinha/internal/core"
	"caixinha/internal/log"
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.startedAt).Round(time.Second).String(),
	})
}

// handleReady reports template state and runs the optional dependency checks.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]any)

	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["templates"] = "ok"
	}

	for name, check := range s.readiness {
		if err := check(ctx); err != nil {
			checks[name] = fmt.Sprintf("failed: %v", err)
			status = "not_ready"
			httpStatus = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}

	checks["rate_limiter"] = map[string]any{
		"active_clients":      s.limiter.activeClients(),
		"rate_limit_hits":     s.limiter.rejected.Load(),
		"suspicious_requests": s.suspicious.Load(),
	}
	if s.chat != nil {
		checks["assistant"] = map[string]any{"busy": s.chat.Busy()}
	}

	writeJSON(w, httpStatus, map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	data := pageData{
		ReferenceDate: s.ledger.ReferenceDate().String(),
		Summary:       summaryCards(s.ledger.Summary()),
		Members:       memberViews(s.ledger.Members()),
		Rules:         core.Rules(),
		Chat:          s.chatView(),
	}
	s.render(w, r, http.StatusOK, "index.html", data)
}

func (s *Server) handleSummaryPartial(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "summary", summaryCards(s.ledger.Summary()))
}

func (s *Server) handleMembersPartial(w http.ResponseWriter, r *http.Request) {
	s.renderMembers(w, r, false)
}

func (s *Server) handleChatPartial(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "chat", s.chatView())
}

// handleChat submits a question. A question already in flight yields 409
// and the service is not contacted again.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	form, err := readForm(r)
	if err != nil {
		malformedBody().write(w)
		return
	}
	if s.chat == nil {
		assistantUnavailable(assistant.MsgConnectionError).write(w)
		return
	}

	// the exchange runs to completion even if the browser goes away
	ctx := context.WithoutCancel(r.Context())
	_, err = s.chat.Submit(ctx, form.question(), s.ledger.Snapshot())
	switch {
	case errors.Is(err, assistant.ErrBusy):
		chatBusy().write(w)
		return
	case errors.Is(err, assistant.ErrEmptyQuestion):
		emptyQuestion().write(w)
		return
	}

	s.render(w, r, http.StatusOK, "chat", s.chatView())
}

func (s *Server) chatView() chatView {
	if s.chat == nil {
		return chatView{Messages: []assistant.ChatMessage{{Sender: assistant.SenderAssistant, Text: assistant.Greeting}}}
	}
	return chatView{Messages: s.chat.Messages(), Busy: s.chat.Busy()}
}

// render executes a template into a buffer so a failure never leaves a
// half-written page behind.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	s.renderWith(w, r, newReply(status), name, data)
}

func (s *Server) renderWith(w http.ResponseWriter, r *http.Request, rep *reply, name string, data any) {
	if s.templates == nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Templates not loaded", log.FieldPath, r.URL.Path)
		alert(http.StatusInternalServerError, "templates not loaded").write(w)
		return
	}

	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		s.ops.LogError(r.Context(), "Template execution failed", err, "render",
			log.NewFields().WithComponent(log.ComponentHTTP).WithRequestID(RequestID(r.Context())))
		alert(http.StatusInternalServerError, "Erro ao renderizar a página").write(w)
		return
	}
	rep.fragment(buf.String()).write(w)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
