package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/pricofy/translation-desk/internal/apperrors"
	"github.com/pricofy/translation-desk/internal/authz"
)

// Request is a transport-neutral inbound call. The Lambda and HTTP entry
// points both convert into it.
type Request struct {
	Method    string
	Path      string
	Headers   http.Header
	Query     url.Values
	Body      []byte
	RequestID string
}

// BearerToken returns the token of the Authorization header, or "".
func (r *Request) BearerToken() string {
	if r.Headers == nil {
		return ""
	}
	return authz.BearerToken(r.Headers.Get("Authorization"))
}

// QueryValue returns the first value of the query parameter key.
func (r *Request) QueryValue(key string) string {
	if r.Query == nil {
		return ""
	}
	return r.Query.Get(key)
}

// Decode unmarshals the JSON body into v. An empty body leaves v untouched.
func (r *Request) Decode(v any) error {
	if len(bytes.TrimSpace(r.Body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return apperrors.BadRequest("Invalid JSON body")
	}
	return nil
}

// Response is the outcome of a call: a status and a JSON body.
type Response struct {
	StatusCode int
	Body       []byte
}

// ErrorBody is the payload of every failed call.
type ErrorBody struct {
	Error string `json:"error"`
}

// OK is the payload of writes that report nothing else.
type OK struct {
	OK bool `json:"ok"`
}

// JSON builds a response with v encoded as the body.
func JSON(status int, v any) *Response {
	data, err := json.Marshal(v)
	if err != nil {
		data, _ = json.Marshal(ErrorBody{Error: "failed to encode response: " + err.Error()})
		status = http.StatusInternalServerError
	}
	return &Response{StatusCode: status, Body: data}
}

// Error builds the response for err using its classified status and message.
func Error(err error) *Response {
	return JSON(apperrors.StatusOf(err), ErrorBody{Error: apperrors.MessageOf(err)})
}
