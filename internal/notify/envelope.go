// Package notify implements the COAR Notify vocabulary: the typed envelope
// parsed from raw notification payloads and the workflow classification
// rules applied to its type tags.
package notify

import (
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// DecodeError reports a payload that is not valid JSON.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode notification payload: %v", e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// ValidationError reports a decodable payload missing required structural
// fields.
type ValidationError struct {
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid notification payload: %s", e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// TypeList holds the ordered type tags of a notification node. The COAR
// vocabulary allows a bare string or an array here, so both forms decode.
type TypeList []string

func (t *TypeList) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*t = TypeList{single}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("type must be a string or array of strings")
	}
	*t = TypeList(many)
	return nil
}

func (t TypeList) Contains(tag string) bool {
	for _, v := range t {
		if v == tag {
			return true
		}
	}
	return false
}

// Agent is the actor block of a notification: the service or person the
// sender claims to act as.
type Agent struct {
	ID   string   `json:"id" validate:"required"`
	Name string   `json:"name"`
	Type TypeList `json:"type,omitempty"`
}

// Item is the concrete retrievable representation of an object, carried in
// the ietf:item block.
type Item struct {
	ID        string   `json:"id"`
	MediaType string   `json:"mediaType,omitempty"`
	Type      TypeList `json:"type,omitempty"`
}

// Object is a nested notification object. Offer chains carry their own
// actor/object one level down.
type Object struct {
	ID     string   `json:"id"`
	Type   TypeList `json:"type,omitempty"`
	CiteAs string   `json:"ietf:cite-as,omitempty"`
	Item   *Item    `json:"ietf:item,omitempty"`
	Actor  *Agent   `json:"actor,omitempty"`
	Object *Object  `json:"object,omitempty"`
}

// ServiceRef identifies an origin or target service and its inbox.
type ServiceRef struct {
	ID    string   `json:"id"`
	Inbox string   `json:"inbox"`
	Type  TypeList `json:"type,omitempty"`
}

// Envelope is the validated, typed representation of one notification
// payload.
type Envelope struct {
	LDContext TypeList    `json:"@context,omitempty"`
	ID        string      `json:"id" validate:"required"`
	Type      TypeList    `json:"type" validate:"required,min=1"`
	Actor     Agent       `json:"actor"`
	Object    *Object     `json:"object,omitempty"`
	Context   *Object     `json:"context,omitempty"`
	Origin    *ServiceRef `json:"origin,omitempty"`
	Target    *ServiceRef `json:"target,omitempty"`
	InReplyTo string      `json:"inReplyTo,omitempty"`
}

// ParseEnvelope decodes and validates a raw notification payload. Malformed
// JSON yields a *DecodeError; a decodable payload missing its notification
// id, type tags, or actor id yields a *ValidationError. Both are fatal for
// the notification.
func ParseEnvelope(raw []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, &DecodeError{Err: err}
	}
	if err := validate.Struct(&env); err != nil {
		return nil, &ValidationError{Reason: "missing required fields", Err: err}
	}
	if env.Actor.ID == "" {
		return nil, &ValidationError{Reason: "missing actor id"}
	}
	return &env, nil
}

// RecordURL returns the URL identifying the record this notification is
// about: the context id when present, otherwise the object's nested object
// id used by offer chains.
func (e *Envelope) RecordURL() string {
	if e.Context != nil && e.Context.ID != "" {
		return e.Context.ID
	}
	if e.Object != nil && e.Object.Object != nil {
		return e.Object.Object.ID
	}
	return ""
}

// ResultURL returns the URL of the review/endorsement deliverable carried by
// an announce notification.
func (e *Envelope) ResultURL() string {
	if e.Object != nil {
		return e.Object.ID
	}
	return ""
}
