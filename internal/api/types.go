// Package api implements the Query/Control API (spec §4.8, C8): a thin,
// stateless request/response dispatcher over the query, cluster, and
// daemon-control operations, grounded in rohankatakam-coderisk's
// internal/mcp Handler.Handle verb switch, generalized from its fixed
// JSON-RPC method set into the verbs spec §4.5/§4.6/§6 define.
package api

import "github.com/codegraphd/codegraphd/internal/errs"

// Request carries a verb and a structured parameter block (spec §4.8).
// Every request is independent; the API is stateless.
type Request struct {
	ID     string         `json:"id"`
	Verb   string         `json:"verb"`
	Params map[string]any `json:"params"`
}

// Response carries either a structured result or a tagged error (spec
// §4.8, §7: "API callers always receive either a success result or a
// tagged error; they never observe an internal panic").
type Response struct {
	ID     string     `json:"id"`
	Result any        `json:"result,omitempty"`
	Error  *ErrorBody `json:"error,omitempty"`
}

// ErrorBody is the tagged-error shape of spec §7.
type ErrorBody struct {
	Kind    errs.Kind `json:"kind"`
	Message string    `json:"message"`
}

func errorResponse(id string, kind errs.Kind, err error) Response {
	return Response{ID: id, Error: &ErrorBody{Kind: kind, Message: err.Error()}}
}

func okResponse(id string, result any) Response {
	return Response{ID: id, Result: result}
}
