package errorbank

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestStatusCodes(t *testing.T) {
	cases := map[*AppError]int{
		BadRequest("bad"):        http.StatusBadRequest,
		Conflict("dupe"):         http.StatusConflict,
		NotFound("missing"):      http.StatusNotFound,
		Unprocessable("invalid"): http.StatusUnprocessableEntity,
		Unavailable("down"):      http.StatusServiceUnavailable,
		Internal("boom"):         http.StatusInternalServerError,
	}
	for err, want := range cases {
		assert.Equal(t, want, err.StatusCode(), err.Message())
	}
}

func TestErrorIncludesCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Unavailable("database unreachable", WithCause(cause))

	assert.Contains(t, err.Error(), "database unreachable")
	assert.ErrorIs(t, err, cause)
}

func TestFromPassesThroughAppErrors(t *testing.T) {
	orig := NotFound("nope")
	wrapped := fmt.Errorf("outer: %w", orig)

	got := From(wrapped)
	assert.Equal(t, KindNotFound, got.Kind())
}

func TestFromWrapsUnknownErrors(t *testing.T) {
	got := From(errors.New("surprise"))
	require.NotNil(t, got)
	assert.Equal(t, KindInternal, got.Kind())
}

func TestFromNil(t *testing.T) {
	assert.Nil(t, From(nil))
	assert.Nil(t, FromMongo("msg", nil))
}

func TestFromMongoDuplicateKey(t *testing.T) {
	err := mongo.WriteException{WriteErrors: mongo.WriteErrors{{Code: 11000, Message: "E11000 duplicate key"}}}

	got := FromMongo("insert failed", err)
	assert.Equal(t, KindConflict, got.Kind())
	assert.Equal(t, http.StatusConflict, got.StatusCode())
}

func TestFromMongoValidationFailure(t *testing.T) {
	writeErr := mongo.WriteException{WriteErrors: mongo.WriteErrors{{Code: 121, Message: "Document failed validation"}}}
	got := FromMongo("insert failed", writeErr)
	assert.Equal(t, KindUnprocessableEntity, got.Kind())

	cmdErr := mongo.CommandError{Code: 121, Message: "Document failed validation"}
	got = FromMongo("insert failed", cmdErr)
	assert.Equal(t, KindUnprocessableEntity, got.Kind())
}

func TestFromMongoCommandFailure(t *testing.T) {
	err := mongo.CommandError{Code: 8000, Message: "something else"}

	got := FromMongo("aggregate failed", err)
	assert.Equal(t, KindInternal, got.Kind())
}

func TestFromMongoKeepsAppErrors(t *testing.T) {
	orig := BadRequest("bad input")

	got := FromMongo("outer", fmt.Errorf("wrap: %w", orig))
	assert.Equal(t, KindBadRequest, got.Kind())
	assert.Equal(t, "bad input", got.Message())
}
