package jsonstream

import "github.com/go-jsonstream/jsonstream/token"

// Re-exported so callers never need to import the internal token package
// directly.
type (
	ParseError = token.ParseError
	ErrorCode  = token.ErrorCode
	DecodeMode = token.DecodeMode
)

const (
	UnexpectedChar       = token.UnexpectedChar
	UnterminatedString   = token.UnterminatedString
	InvalidEscape        = token.InvalidEscape
	InvalidUnicodeEscape = token.InvalidUnicodeEscape
	LoneHighSurrogate    = token.LoneHighSurrogate
	LoneLowSurrogate     = token.LoneLowSurrogate
	NumberOutOfRange     = token.NumberOutOfRange
	MalformedNumber      = token.MalformedNumber
	TrailingGarbage      = token.TrailingGarbage
	UnexpectedEndOfInput = token.UnexpectedEndOfInput
	DepthLimitExceeded   = token.DepthLimitExceeded
)

const (
	StrictUnicode       = token.StrictUnicode
	ReplaceInvalid      = token.ReplaceInvalid
	SurrogatePreserving = token.SurrogatePreserving
)

// options holds the resolved configuration for a Parser. Unexported:
// callers only ever see the Option constructors below.
type options struct {
	allowUnicodeWhitespace bool
	allowMultipleValues    bool
	decodeMode             token.DecodeMode
	allowUppercaseU        bool
	allowShortHex          bool
	maxDepth               int // 0 = unlimited
}

func defaultOptions() options {
	return options{decodeMode: token.StrictUnicode}
}

// Option configures a Parser constructed by New.
type Option func(*options)

// AllowUnicodeWhitespace accepts any Unicode-whitespace scalar between
// tokens instead of only {space, tab, LF, CR}.
func AllowUnicodeWhitespace(b bool) Option {
	return func(o *options) { o.allowUnicodeWhitespace = b }
}

// AllowMultipleJSONValues accepts a stream of concatenated top-level
// values separated by whitespace, rather than exactly one.
func AllowMultipleJSONValues(b bool) Option {
	return func(o *options) { o.allowMultipleValues = b }
}

// WithDecodeMode selects how invalid or unpaired \uXXXX escapes are
// handled.
func WithDecodeMode(m token.DecodeMode) Option {
	return func(o *options) { o.decodeMode = m }
}

// AllowUppercaseU accepts \U in addition to \u.
func AllowUppercaseU(b bool) Option {
	return func(o *options) { o.allowUppercaseU = b }
}

// AllowShortHex accepts fewer than 4 hex digits after \u, terminating the
// escape at the first non-hex character.
func AllowShortHex(b bool) Option {
	return func(o *options) { o.allowShortHex = b }
}

// MaxDepth bounds container nesting; exceeding it yields
// DepthLimitExceeded. 0 (the default) means unlimited.
func MaxDepth(n int) Option {
	return func(o *options) { o.maxDepth = n }
}
