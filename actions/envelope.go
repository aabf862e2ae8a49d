package actions

import (
	"github.com/teranos/joulebench/errors"
)

// Envelope is the success/failure wrapper every exposed operation returns
type Envelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Error   string      `json:"error,omitempty"`
	Kind    string      `json:"kind,omitempty"`
	Hints   []string    `json:"hints,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func ok(data interface{}) Envelope {
	return Envelope{Success: true, Data: data}
}

// Fail wraps err in a failure envelope, for callers that fail before reaching an operation
func Fail(err error) Envelope {
	return failure(err)
}

func failure(err error) Envelope {
	return Envelope{
		Success: false,
		Error:   err.Error(),
		Kind:    errors.KindOf(err),
		Hints:   errors.GetAllHints(err),
	}
}

// Err rebuilds the failure as an error carrying its kind, nil on success
func (e Envelope) Err() error {
	if e.Success {
		return nil
	}
	var kind error
	switch e.Kind {
	case errors.KindNotFound:
		kind = errors.ErrNotFound
	case errors.KindParse:
		kind = errors.ErrParse
	case errors.KindSchema:
		kind = errors.ErrSchema
	case errors.KindStorageUnavailable:
		kind = errors.ErrStorageUnavailable
	case errors.KindStorage:
		kind = errors.ErrStorage
	case errors.KindInvalidRequest:
		kind = errors.ErrInvalidRequest
	default:
		return errors.New(e.Error)
	}
	return errors.Mark(errors.New(e.Error), kind)
}
