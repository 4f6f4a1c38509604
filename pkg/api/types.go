package api

import "time"

// AskPayload is the request body for the ask and ask_stream endpoints.
type AskPayload struct {
	Prompt         string `json:"prompt"`
	Namespace      string `json:"namespace,omitempty"`
	K              uint   `json:"k,omitempty"`
	PreferredAgent string `json:"preferred_agent,omitempty"`
	Mode           string `json:"mode,omitempty"`
	SessionID      string `json:"session_id,omitempty"`
}

// Citation references a source passage that grounded an answer.
type Citation struct {
	Source  string  `json:"source"`
	Snippet string  `json:"snippet,omitempty"`
	Score   float64 `json:"score,omitempty"`
}

// AskStep is one intermediate step the backend took while answering.
type AskStep struct {
	Name   string         `json:"name"`
	Detail string         `json:"detail,omitempty"`
	Output map[string]any `json:"output,omitempty"`
}

// AskResponse is the non-streaming answer from POST /chat/ask.
type AskResponse struct {
	Answer    string     `json:"answer"`
	Steps     []AskStep  `json:"steps,omitempty"`
	Citations []Citation `json:"citations,omitempty"`
	SessionID string     `json:"session_id,omitempty"`
	RequestID string     `json:"request_id,omitempty"`
}

// ChatSession is a server-side conversation container.
type ChatSession struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Namespace string    `json:"namespace,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ChatMessage is a single turn stored in a session.
type ChatMessage struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateSessionPayload is the request body for POST /chat/sessions.
type CreateSessionPayload struct {
	Title     string `json:"title,omitempty"`
	Namespace string `json:"namespace,omitempty"`
}

// RenameSessionPayload is the request body for PATCH /chat/sessions/{id}.
type RenameSessionPayload struct {
	Title string `json:"title"`
}
