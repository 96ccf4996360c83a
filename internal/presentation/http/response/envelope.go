// Package response renders the JSON envelope shared by every HTTP endpoint.
package response

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Additional-Code/bazaar/pkg/errorbank"
)

// Envelope is the wire shape of every response.
type Envelope struct {
	Success bool           `json:"success"`
	Data    any            `json:"data,omitempty"`
	Meta    map[string]any `json:"meta,omitempty"`
	Error   *ErrorBody     `json:"error,omitempty"`
}

// ErrorBody carries the failure details of an unsuccessful request.
type ErrorBody struct {
	Kind    string         `json:"kind"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// OK renders a 200 with the given payload.
func OK(c echo.Context, data any) error {
	return c.JSON(http.StatusOK, Envelope{Success: true, Data: data})
}

// Created renders a 201 with the given payload.
func Created(c echo.Context, data any) error {
	return c.JSON(http.StatusCreated, Envelope{Success: true, Data: data})
}

// Result renders a 200 with payload and metadata.
func Result(c echo.Context, data any, meta map[string]any) error {
	return c.JSON(http.StatusOK, Envelope{Success: true, Data: data, Meta: meta})
}

// Fail classifies err through errorbank and renders the matching status.
func Fail(c echo.Context, err error) error {
	appErr := errorbank.From(err)
	return c.JSON(appErr.StatusCode(), Envelope{
		Success: false,
		Error: &ErrorBody{
			Kind:    string(appErr.Kind()),
			Message: appErr.Message(),
			Details: appErr.Details(),
		},
	})
}
