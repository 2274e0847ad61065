package http

import (
	"encoding/json"
	"html/template"
	"net/http"
)

// Client-side events raised through HX-Trigger. The page listens for them
// in web/static/app.js and the summary section's hx-trigger.
const (
	eventRosterChanged = "roster:changed"
	eventFormReset     = "form:reset"
	eventNotification  = "show-notification"
)

type notice string

const (
	noticeSuccess notice = "success"
	noticeWarning notice = "warning"
	noticeError   notice = "error"
)

var noticeDuration = map[notice]int{
	noticeSuccess: 3000,
	noticeWarning: 4000,
	noticeError:   5000,
}

// reply is an htmx answer: an HTML fragment plus the events the page
// should react to.
type reply struct {
	status int
	html   string
	events map[string]any
}

func newReply(status int) *reply {
	return &reply{status: status, events: map[string]any{}}
}

// rosterChanged makes the summary cards reload.
func (r *reply) rosterChanged() *reply {
	r.events[eventRosterChanged] = struct{}{}
	return r
}

// resetForm clears the add-member form after a successful post.
func (r *reply) resetForm() *reply {
	r.events[eventFormReset] = struct{}{}
	return r
}

// notify shows a toast. A later notice replaces an earlier one.
func (r *reply) notify(kind notice, message string) *reply {
	r.events[eventNotification] = map[string]any{
		"type":     string(kind),
		"message":  message,
		"duration": noticeDuration[kind],
	}
	return r
}

func (r *reply) fragment(html string) *reply {
	r.html = html
	return r
}

func (r *reply) write(w http.ResponseWriter) {
	h := w.Header()
	h.Set("Content-Type", "text/html; charset=utf-8")
	if len(r.events) > 0 {
		if b, err := json.Marshal(r.events); err == nil {
			h.Set("HX-Trigger", string(b))
		}
	}
	w.WriteHeader(r.status)
	if r.html != "" {
		_, _ = w.Write([]byte(r.html))
	}
}

// alert is an error fragment; message is escaped.
func alert(status int, message string) *reply {
	return newReply(status).fragment(`<p class="alert" role="alert">` + template.HTMLEscapeString(message) + `</p>`)
}

func malformedBody() *reply {
	return alert(http.StatusBadRequest, "Formato de requisição inválido")
}

func invalidMemberID() *reply {
	return alert(http.StatusBadRequest, "Identificador de cotista inválido")
}

// chatBusy answers a question posted while the previous one is unanswered.
func chatBusy() *reply {
	return alert(http.StatusConflict, "O assistente ainda está respondendo à pergunta anterior.").
		notify(noticeWarning, "Aguarde a resposta do assistente.")
}

func emptyQuestion() *reply {
	return alert(http.StatusUnprocessableEntity, "Digite uma pergunta.")
}

func assistantUnavailable(message string) *reply {
	return alert(http.StatusServiceUnavailable, message).notify(noticeError, message)
}

func tooManyWrites() *reply {
	return alert(http.StatusTooManyRequests, "Muitas requisições. Tente novamente em instantes.")
}
