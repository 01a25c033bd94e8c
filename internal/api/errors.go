package api

import (
	"encoding/json"
	"errors"

	"github.com/creachadair/jrpc2"
	"github.com/warpdl/warptube/common"
	"github.com/warpdl/warptube/pkg/tubelib"
)

// ErrorData is attached to classified failures so clients can render the
// kind and a suggested action.
type ErrorData struct {
	Kind      tubelib.ErrorKind `json:"kind"`
	Retryable bool              `json:"retryable"`
	Action    string            `json:"action,omitempty"`
}

func invalidParams(msg string) error {
	return &jrpc2.Error{Code: jrpc2.InvalidParams, Message: msg}
}

// rpcError maps core errors onto JSON-RPC error codes.
func rpcError(err error) error {
	if err == nil {
		return nil
	}
	code := jrpc2.Code(common.CodeExtractorFailed)
	switch {
	case errors.Is(err, tubelib.ErrJobNotFound):
		code = common.CodeJobNotFound
	case errors.Is(err, tubelib.ErrDuplicateJob):
		code = common.CodeDuplicateJob
	case errors.Is(err, tubelib.ErrJobNotTerminal):
		code = common.CodeJobNotTerminal
	case errors.Is(err, tubelib.ErrInvalidJob):
		code = jrpc2.InvalidParams
	case errors.Is(err, tubelib.ErrUnsupportedPlatform):
		code = common.CodeUnsupportedURL
	case errors.Is(err, tubelib.ErrManagerClosed):
		code = common.CodeClosed
	}
	kind := tubelib.Classify(err)
	if kind == tubelib.KindInvalidURL {
		code = jrpc2.InvalidParams
	}
	data, _ := json.Marshal(ErrorData{
		Kind:      kind,
		Retryable: kind.Retryable(),
		Action:    tubelib.SuggestedAction(kind),
	})
	return &jrpc2.Error{Code: code, Message: tubelib.UserMessage(err), Data: data}
}
