package trie

import "fmt"

// Kind identifies the class of error
// raised by the trie engine.
type Kind int

const (
	// ParseError signals malformed hex or
	// nibble input.
	ParseError Kind = iota

	// IndexOutOfRange signals a nibble access
	// past the end of a Nibbles value.
	IndexOutOfRange

	// Empty signals a split or pop attempted
	// on an empty Nibbles value.
	Empty

	// EmptyPath signals an attempt to build an
	// extension node with no path nibbles.
	EmptyPath

	// NotABranch signals a branch-slot mutation
	// attempted on a non-branch node.
	NotABranch

	// DanglingChild signals that the store held
	// no bytes for a digest the trie references.
	DanglingChild

	// MissingNode signals an attempt to remove a
	// digest that is not present in the store.
	MissingNode

	// CorruptSpine signals that spine rewriting
	// encountered a leaf or empty node where only
	// an extension or branch may appear.
	CorruptSpine

	// RlpMalformed signals that the RLP codec
	// rejected a node's encoded bytes.
	RlpMalformed

	// Unimplemented signals an operation the
	// engine deliberately does not support.
	Unimplemented

	// WrongKind signals an accessor called on a
	// node variant it is not defined for (e.g.
	// asking a branch for its leaf value). Not
	// one of the error kinds named by the engine
	// this was ported from, but the same policy
	// applied consistently: wrong-variant access
	// always fails typed, never returns a zero
	// value silently.
	WrongKind
)

func (k Kind) String() string {
	switch k {
	case ParseError:
		return "parse error"
	case IndexOutOfRange:
		return "index out of range"
	case Empty:
		return "empty"
	case EmptyPath:
		return "empty path"
	case NotABranch:
		return "not a branch"
	case DanglingChild:
		return "dangling child"
	case MissingNode:
		return "missing node"
	case CorruptSpine:
		return "corrupt spine"
	case RlpMalformed:
		return "rlp malformed"
	case Unimplemented:
		return "unimplemented"
	case WrongKind:
		return "wrong node kind"
	default:
		return "unknown"
	}
}

// Error is the error type returned by every
// fallible operation in this package. It carries
// a Kind so callers can distinguish failure modes
// with errors.Is / errors.As without parsing
// message strings.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	if e.Msg != "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
	}
	return e.Kind.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// newErr builds an *Error of the given kind with
// a formatted message.
func newErr(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// wrapErr builds an *Error of the given kind that
// wraps an underlying error.
func wrapErr(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}
