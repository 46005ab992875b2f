package extractor

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies failures so callers can render them without string matching
type Kind string

const (
	KindUnsupportedPlatform     Kind = "unsupported_platform"
	KindUnsupportedOperation    Kind = "unsupported_operation"
	KindNoURLFound              Kind = "no_url_found"
	KindInvalidInput            Kind = "invalid_input"
	KindHTTPFailure             Kind = "http_failure"
	KindEmptyPageContent        Kind = "empty_page_content"
	KindContentStructureChanged Kind = "content_structure_changed"
	KindExpiredLink             Kind = "expired_link"
	KindDecodeFailure           Kind = "decode_failure"
	KindDownloadFailure         Kind = "download_failure"
	KindTranscodeFailure        Kind = "transcode_failure"
	KindTranscriptionAPIFailure Kind = "transcription_api_failure"
	KindMissingCredential       Kind = "missing_credential"
)

// Error is returned by parsers and the media pipeline
type Error struct {
	Kind     Kind
	Platform string // platform identifier, empty outside parsers
	Op       string // stage that failed, e.g. "fetch page"
	Msg      string
	Tried    []string // markers or keys attempted before giving up
	Err      error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Platform != "" {
		b.WriteString(e.Platform)
		b.WriteString(": ")
	}
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	if e.Msg != "" {
		b.WriteString(e.Msg)
	} else {
		b.WriteString(string(e.Kind))
	}
	if len(e.Tried) > 0 {
		fmt.Fprintf(&b, " (tried: %s)", strings.Join(e.Tried, ", "))
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error by Kind, so errors.Is(err, &Error{Kind: KindExpiredLink}) works
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the Kind of the first *Error in err's chain, or "" if there is none
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// HTTPStatusError reports a non-2xx response
type HTTPStatusError struct {
	URL        string
	StatusCode int
	Location   string
}

func (e *HTTPStatusError) Error() string {
	loc := strings.TrimSpace(e.Location)
	if loc == "" {
		return fmt.Sprintf("HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("HTTP %d location=%s", e.StatusCode, loc)
}

func newError(kind Kind, platform, op, msg string, err error) *Error {
	return &Error{Kind: kind, Platform: platform, Op: op, Msg: msg, Err: err}
}
