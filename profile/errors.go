package profile

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// FieldError reports a value of one field that failed validation or conversion.
type FieldError struct {
	// Definition that rejected the value.
	Definition *Definition

	// Field is the qualified field name, e.g. "items[2].sku".
	Field string

	// Value is the offending raw value.
	Value interface{}

	// Index of the record the value came from.
	Index int

	// Record the value came from.
	Record Record

	Message string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("[Item %d %s]: %v (%s)", e.Index, e.Field, e.Value, e.Message)
}

// ContentError reports a problem with a whole record, such as a malformed
// source line or a non-object array element.
type ContentError struct {
	Index   int
	Message string

	// Err is the underlying adapter error, if any.
	Err error
}

func (e *ContentError) Error() string {
	return fmt.Sprintf("[Item %d] %s", e.Index, e.Message)
}

func (e *ContentError) Unwrap() error {
	return e.Err
}

// ErrorHandler receives field and record level problems. Implementations must
// not panic; reporting never stops processing.
type ErrorHandler interface {
	ReportFieldError(e *FieldError)
	ReportContentError(e *ContentError)
}

// Errors collects reported problems.
type Errors struct {
	Fields   []*FieldError
	Contents []*ContentError
}

func (c *Errors) ReportFieldError(e *FieldError) {
	c.Fields = append(c.Fields, e)
}

func (c *Errors) ReportContentError(e *ContentError) {
	c.Contents = append(c.Contents, e)
}

// Len returns the number of collected problems.
func (c *Errors) Len() int {
	return len(c.Fields) + len(c.Contents)
}

// Err joins the collected problems or returns nil if there are none.
func (c *Errors) Err() error {
	if c.Len() == 0 {
		return nil
	}

	errs := make([]error, 0, c.Len())
	for _, e := range c.Contents {
		errs = append(errs, e)
	}
	for _, e := range c.Fields {
		errs = append(errs, e)
	}
	return errors.Join(errs...)
}

// LogErrorHandler writes each problem as a warning.
type LogErrorHandler struct {
	Logger *zap.Logger
}

// NewLogErrorHandler returns a handler writing to l, or the global logger if l is nil.
func NewLogErrorHandler(l *zap.Logger) *LogErrorHandler {
	if l == nil {
		l = zap.L()
	}
	return &LogErrorHandler{Logger: l}
}

func (h *LogErrorHandler) ReportFieldError(e *FieldError) {
	h.Logger.Warn(e.Error(),
		zap.Int("index", e.Index),
		zap.String("field", e.Field),
		zap.String("nature", e.Definition.Nature),
		zap.Any("value", e.Value),
		zap.String("message", e.Message),
	)
}

func (h *LogErrorHandler) ReportContentError(e *ContentError) {
	fields := []zap.Field{
		zap.Int("index", e.Index),
		zap.String("message", e.Message),
	}
	if e.Err != nil {
		fields = append(fields, zap.Error(e.Err))
	}
	h.Logger.Warn(e.Error(), fields...)
}

// Discard drops every problem.
var Discard ErrorHandler = discard{}

type discard struct{}

func (discard) ReportFieldError(*FieldError)     {}
func (discard) ReportContentError(*ContentError) {}

// Counter counts problems and forwards them to another handler.
type Counter struct {
	Next     ErrorHandler
	Fields   int
	Contents int
}

func (c *Counter) ReportFieldError(e *FieldError) {
	c.Fields++
	if c.Next != nil {
		c.Next.ReportFieldError(e)
	}
}

func (c *Counter) ReportContentError(e *ContentError) {
	c.Contents++
	if c.Next != nil {
		c.Next.ReportContentError(e)
	}
}
