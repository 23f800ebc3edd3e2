package wcerror

import (
	"errors"
	"fmt"
)

const (
	WC_UNEXPECTED            = "WCU"
	WC_INVALID_REQUEST       = "WCI"
	WC_MALFORMED_RESTRICTION = "WCM"
	WC_UNSUPPORTED_RANGE     = "WCR"
	WC_CARDINALITY_MISMATCH  = "WCC"
	WC_UNKNOWN_COLUMN        = "WCK"
	WC_METADATA_ERROR        = "WCD"
	WC_CONFIG_ERROR          = "WCF"
)

var existingErrorCodeMap = map[string]string{
	WC_INVALID_REQUEST:       "invalid request",
	WC_MALFORMED_RESTRICTION: "invalid request: malformed restriction",
	WC_UNSUPPORTED_RANGE:     "invalid request: unsupported range",
	WC_CARDINALITY_MISMATCH:  "invalid request: cardinality mismatch",
	WC_UNKNOWN_COLUMN:        "invalid request: undefined column",
	WC_METADATA_ERROR:        "metadata error",
	WC_CONFIG_ERROR:          "configuration error",
}

// invalidRequestCodes are reported to clients as a single "invalid request" kind.
var invalidRequestCodes = map[string]struct{}{
	WC_INVALID_REQUEST:       {},
	WC_MALFORMED_RESTRICTION: {},
	WC_UNSUPPORTED_RANGE:     {},
	WC_CARDINALITY_MISMATCH:  {},
	WC_UNKNOWN_COLUMN:        {},
}

func GetMessageByCode(errorCode string) string {
	rep, ok := existingErrorCodeMap[errorCode]
	if ok {
		return rep
	}
	return "unexpected error"
}

var _ error = &WcError{}

type WcError struct {
	Err error

	ErrorCode string
	ErrHint   string
}

func New(errorCode string, errorMsg string) *WcError {
	return &WcError{
		Err:       errors.New(errorMsg),
		ErrorCode: errorCode,
	}
}

func Newf(errorCode string, format string, a ...any) *WcError {
	return &WcError{
		Err:       fmt.Errorf(format, a...),
		ErrorCode: errorCode,
	}
}

func NewByCode(errorCode string) *WcError {
	return &WcError{
		Err:       errors.New(GetMessageByCode(errorCode)),
		ErrorCode: errorCode,
	}
}

func (er *WcError) Error() string {
	return fmt.Sprintf("%s: %s", GetMessageByCode(er.ErrorCode), er.Err.Error())
}

func (er *WcError) Unwrap() error {
	return er.Err
}

func (er *WcError) WithHint(hint string) *WcError {
	er.ErrHint = hint
	return er
}

// Code returns the code of the first WcError in err's chain, or an empty string.
func Code(err error) string {
	var wcErr *WcError
	if errors.As(err, &wcErr) {
		return wcErr.ErrorCode
	}
	return ""
}

// IsInvalidRequest reports whether err is a client visible invalid request.
func IsInvalidRequest(err error) bool {
	_, ok := invalidRequestCodes[Code(err)]
	return ok
}
