// Package message implements the request/response protocol between
// page-side consumers and the lookup backend. Every request/response
// pair is self-contained and correlated by id; no session state is
// threaded between messages.
package message

import "encoding/json"

// Kind identifies the operation a request asks for.
type Kind string

const (
	KindFetchMeaning        Kind = "fetch-meaning"
	KindFetchPhonetic       Kind = "fetch-phonetic"
	KindFetchBatchPhonetics Kind = "fetch-batch-phonetics"
	KindOpenSettings        Kind = "open-settings"
	KindShowNotification    Kind = "show-notification"
	KindProxyRequest        Kind = "proxy-request"
	KindMenuItems           Kind = "menu-items"
	KindMenuApply           Kind = "menu-apply"
)

// Request is one message from a client. A missing ID is filled by the
// router before dispatch.
type Request struct {
	ID      string          `json:"id"`
	Kind    Kind            `json:"kind"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Response answers exactly one request.
type Response struct {
	ID      string          `json:"id"`
	Kind    Kind            `json:"kind"`
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// WordPayload asks for the meaning or phonetics of one word.
type WordPayload struct {
	Word string `json:"word"`
}

// WordsPayload asks for phonetics of several words at once.
type WordsPayload struct {
	Words []string `json:"words"`
}

// NotificationPayload triggers a fire-and-forget alert.
type NotificationPayload struct {
	Condition string `json:"condition"`
	Message   string `json:"message"`
}

// MenuPayload names the page a menu request is about. Action is only set
// for menu-apply.
type MenuPayload struct {
	URL    string `json:"url"`
	Action string `json:"action,omitempty"`
}
