// Package errors provides the platform's structured error taxonomy.
// Codes map onto gRPC status codes for the health/control plane and onto the
// {success, error} results handed to the UI shell.
package errors

import (
	stderrors "errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/anypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// Code classifies an AppError.
type Code int32

const (
	CodeUnknown Code = iota
	CodeInternal
	CodeInvalidArgument
	CodeNotFound
	CodeUnavailable
	CodeCaptureFailed     // no capture strategy produced bytes
	CodeCaptureInFlight   // another capture already owns the window
	CodePersistenceFailed // screenshot write/delete failed
	CodeWindowUnavailable // overlay window destroyed or never attached
	CodeProcessingFailed  // external processing pipeline rejected the request
)

var codeNames = map[Code]string{
	CodeUnknown:           "UNKNOWN",
	CodeInternal:          "INTERNAL",
	CodeInvalidArgument:   "INVALID_ARGUMENT",
	CodeNotFound:          "NOT_FOUND",
	CodeUnavailable:       "UNAVAILABLE",
	CodeCaptureFailed:     "CAPTURE_FAILED",
	CodeCaptureInFlight:   "CAPTURE_IN_FLIGHT",
	CodePersistenceFailed: "PERSISTENCE_FAILED",
	CodeWindowUnavailable: "WINDOW_UNAVAILABLE",
	CodeProcessingFailed:  "PROCESSING_FAILED",
}

func (c Code) String() string {
	if s, ok := codeNames[c]; ok {
		return s
	}
	return codeNames[CodeUnknown]
}

// ParseCode is the inverse of Code.String; unknown names map to CodeUnknown.
func ParseCode(name string) Code {
	for c, s := range codeNames {
		if s == name {
			return c
		}
	}
	return CodeUnknown
}

// grpcCodeMap maps platform codes to gRPC status codes.
var grpcCodeMap = map[Code]codes.Code{
	CodeUnknown:           codes.Unknown,
	CodeInternal:          codes.Internal,
	CodeInvalidArgument:   codes.InvalidArgument,
	CodeNotFound:          codes.NotFound,
	CodeUnavailable:       codes.Unavailable,
	CodeCaptureFailed:     codes.Internal,
	CodeCaptureInFlight:   codes.Aborted,
	CodePersistenceFailed: codes.DataLoss,
	CodeWindowUnavailable: codes.FailedPrecondition,
	CodeProcessingFailed:  codes.Internal,
}

// AppError is the base error type with structured error code and metadata.
type AppError struct {
	Code     Code
	Message  string
	Metadata map[string]string
	Cause    error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	s := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if len(e.Metadata) > 0 {
		s += fmt.Sprintf(" %v", e.Metadata)
	}
	if e.Cause != nil {
		s += fmt.Sprintf(" caused by: %v", e.Cause)
	}
	return s
}

// Unwrap returns the underlying cause for errors.Is/As.
func (e *AppError) Unwrap() error { return e.Cause }

// GRPCCode returns the corresponding gRPC status code.
func (e *AppError) GRPCCode() codes.Code {
	if c, ok := grpcCodeMap[e.Code]; ok {
		return c
	}
	return codes.Unknown
}

// Details renders the error as a protobuf Struct for status details.
func (e *AppError) Details() *structpb.Struct {
	fields := map[string]any{
		"code":    e.Code.String(),
		"message": e.Message,
	}
	if len(e.Metadata) > 0 {
		md := make(map[string]any, len(e.Metadata))
		for k, v := range e.Metadata {
			md[k] = v
		}
		fields["metadata"] = md
	}
	s, err := structpb.NewStruct(fields)
	if err != nil {
		return &structpb.Struct{}
	}
	return s
}

// GRPCStatus returns a gRPC status with the detail struct attached.
func (e *AppError) GRPCStatus() *status.Status {
	st := status.New(e.GRPCCode(), e.Error())
	detail, err := anypb.New(e.Details())
	if err != nil {
		return st
	}
	if withDetail, err := st.WithDetails(detail); err == nil {
		return withDetail
	}
	return st
}

// New creates a new AppError with the given code and message.
func New(code Code, msg string) *AppError {
	return &AppError{Code: code, Message: msg}
}

// Newf creates a new AppError with formatted message.
func Newf(code Code, format string, args ...any) *AppError {
	return &AppError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps an existing error with an AppError.
func Wrap(err error, code Code, msg string) *AppError {
	return &AppError{Code: code, Message: msg, Cause: err}
}

// Wrapf wraps an existing error with formatted message.
func Wrapf(err error, code Code, format string, args ...any) *AppError {
	return &AppError{Code: code, Message: fmt.Sprintf(format, args...), Cause: err}
}

// WithMetadata adds metadata to an AppError.
func (e *AppError) WithMetadata(key, value string) *AppError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]string)
	}
	e.Metadata[key] = value
	return e
}

// FromGRPCError extracts an AppError from a gRPC error if present.
func FromGRPCError(err error) *AppError {
	st, ok := status.FromError(err)
	if !ok {
		return &AppError{Code: CodeUnknown, Message: err.Error(), Cause: err}
	}

	for _, detail := range st.Details() {
		s, ok := detail.(*structpb.Struct)
		if !ok {
			continue
		}
		fields := s.AsMap()
		appErr := &AppError{Code: CodeUnknown, Message: st.Message()}
		if name, ok := fields["code"].(string); ok {
			appErr.Code = ParseCode(name)
		}
		if msg, ok := fields["message"].(string); ok {
			appErr.Message = msg
		}
		if md, ok := fields["metadata"].(map[string]any); ok {
			for k, v := range md {
				if sv, ok := v.(string); ok {
					appErr.WithMetadata(k, sv)
				}
			}
		}
		return appErr
	}

	return &AppError{Code: grpcToCode(st.Code()), Message: st.Message()}
}

// grpcToCode maps gRPC codes back to platform codes (best effort).
func grpcToCode(c codes.Code) Code {
	switch c {
	case codes.InvalidArgument:
		return CodeInvalidArgument
	case codes.NotFound:
		return CodeNotFound
	case codes.Unavailable, codes.DeadlineExceeded:
		return CodeUnavailable
	case codes.Aborted:
		return CodeCaptureInFlight
	case codes.DataLoss:
		return CodePersistenceFailed
	case codes.FailedPrecondition:
		return CodeWindowUnavailable
	case codes.Internal:
		return CodeInternal
	default:
		return CodeUnknown
	}
}

// As returns the first AppError in err's chain.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsCode checks if an error chain carries a specific code.
func IsCode(err error, code Code) bool {
	if appErr, ok := As(err); ok {
		return appErr.Code == code
	}
	return false
}

// IsRetryable returns true if the error is potentially retryable.
func IsRetryable(err error) bool {
	appErr, ok := As(err)
	if !ok {
		return false
	}
	return appErr.Code == CodeUnavailable
}

// Result is the only error shape that crosses the shell boundary.
type Result struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// OK is the successful Result.
func OK() Result { return Result{Success: true} }

// ResultOf converts err into a Result, using the AppError message when present.
func ResultOf(err error) Result {
	if err == nil {
		return OK()
	}
	return Result{Error: Message(err)}
}

// Message returns a user-facing message without the code prefix or cause chain.
func Message(err error) string {
	if err == nil {
		return ""
	}
	if appErr, ok := As(err); ok {
		if appErr.Cause != nil {
			return appErr.Message + ": " + appErr.Cause.Error()
		}
		return appErr.Message
	}
	return err.Error()
}
