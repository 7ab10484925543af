package profile

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestErrorsCollector(t *testing.T) {
	c := &Errors{}
	assert.NoError(t, c.Err())

	fe := &FieldError{Definition: NewInteger(nil), Field: "id", Value: "x", Index: 3, Message: "bad"}
	ce := &ContentError{Index: 4, Message: "malformed", Err: errors.New("quote")}

	c.ReportFieldError(fe)
	c.ReportContentError(ce)

	assert.Equal(t, 2, c.Len())

	err := c.Err()
	require.Error(t, err)
	assert.True(t, errors.Is(err, fe))
	assert.Contains(t, err.Error(), "[Item 3 id]: x (bad)")
	assert.Contains(t, err.Error(), "[Item 4] malformed")
}

func TestLogErrorHandler(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	h := NewLogErrorHandler(zap.New(core))

	counter := &Counter{Next: h}
	counter.ReportFieldError(&FieldError{
		Definition: NewFloat(nil),
		Field:      "score",
		Value:      "abc",
		Index:      2,
		Message:    "Float property values must be parseable as a float",
	})
	counter.ReportContentError(&ContentError{Index: 5, Message: "wrong number of fields"})

	assert.Equal(t, 1, counter.Fields)
	assert.Equal(t, 1, counter.Contents)

	entries := logs.All()
	require.Len(t, entries, 2)

	assert.Equal(t, "[Item 2 score]: abc (Float property values must be parseable as a float)", entries[0].Message)
	ctx := entries[0].ContextMap()
	assert.Equal(t, int64(2), ctx["index"])
	assert.Equal(t, "score", ctx["field"])
	assert.Equal(t, "Float", ctx["nature"])

	assert.Equal(t, "[Item 5] wrong number of fields", entries[1].Message)
}
