package trie

import (
	"strings"
)

const hexDigits = "0123456789abcdef"

// Nibbles is a finite sequence of 4-bit values,
// stored one value per slot. Conceptually this
// mirrors a packed-byte-plus-offset representation
// (the first stored byte contributing one nibble
// when the sequence started life odd-length, two
// when it started even-length), but trie paths are
// short enough in practice that unpacking up front
// keeps indexing and slicing simple.
type Nibbles struct {
	vals []byte
}

// EmptyNibbles is the zero-length Nibbles value.
var EmptyNibbles = Nibbles{}

// FromBytes builds a Nibbles value from a byte
// string. The result always has even length:
// 2*len(b).
func FromBytes(b []byte) Nibbles {
	vals := make([]byte, 0, len(b)*2)
	for _, x := range b {
		vals = append(vals, x>>4, x&0x0f)
	}
	return Nibbles{vals: vals}
}

// FromHexString parses a hex string into a Nibbles
// value, one nibble per character. Fails with
// ParseError if s contains a non-hex character.
func FromHexString(s string) (Nibbles, error) {
	vals := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		v, err := hexVal(s[i])
		if err != nil {
			return Nibbles{}, newErr(ParseError, "invalid hex character %q at index %d", s[i], i)
		}
		vals[i] = v
	}
	return Nibbles{vals: vals}, nil
}

func hexVal(c byte) (byte, error) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', nil
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, nil
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, nil
	default:
		return 0, newErr(ParseError, "not a hex digit")
	}
}

// Len returns the number of nibbles (not bytes)
// in n.
func (n Nibbles) Len() int {
	return len(n.vals)
}

// NibbleAt returns the value of the i-th nibble,
// in [0,15]. Fails with IndexOutOfRange if i is
// out of bounds.
func (n Nibbles) NibbleAt(i int) (byte, error) {
	if i < 0 || i >= len(n.vals) {
		return 0, newErr(IndexOutOfRange, "index %d out of range for nibbles of length %d", i, len(n.vals))
	}
	return n.vals[i], nil
}

// SplitFirst splits off the first nibble, returning
// it along with the remaining tail. Fails with Empty
// if n has zero length.
func (n Nibbles) SplitFirst() (byte, Nibbles, error) {
	if len(n.vals) == 0 {
		return 0, Nibbles{}, newErr(Empty, "cannot split an empty nibble sequence")
	}
	return n.vals[0], Nibbles{vals: n.vals[1:]}, nil
}

// Slice returns the sub-sequence [start, end).
func (n Nibbles) Slice(start, end int) Nibbles {
	return Nibbles{vals: n.vals[start:end]}
}

// CommonPrefix returns the longest shared nibble
// prefix of a and b, along with the unmatched
// remainder of each. Always succeeds, including
// for empty inputs (common prefix length 0).
func CommonPrefix(a, b Nibbles) (common, aRest, bRest Nibbles) {
	max := len(a.vals)
	if len(b.vals) < max {
		max = len(b.vals)
	}

	i := 0
	for i < max && a.vals[i] == b.vals[i] {
		i++
	}

	return a.Slice(0, i), a.Slice(i, len(a.vals)), b.Slice(i, len(b.vals))
}

// ToIndex converts a single nibble value to a
// branch-slot index in [0,15]. The conversion is
// the identity; this exists so call sites read as
// "I am indexing a branch", not "I am using a raw
// nibble value".
func ToIndex(nibble byte) int {
	return int(nibble)
}

// Bytes packs n into a byte string, two nibbles
// per byte. Panics if n has odd length; callers
// must only call this on nibble sequences known to
// be byte-aligned (e.g. full keys, never HP-prefixed
// paths mid-split).
func (n Nibbles) Bytes() []byte {
	if len(n.vals)%2 != 0 {
		panic("trie: Bytes called on odd-length nibble sequence")
	}
	out := make([]byte, len(n.vals)/2)
	for i := range out {
		out[i] = n.vals[2*i]<<4 | n.vals[2*i+1]
	}
	return out
}

// String renders n as a hex string, for logging
// and test failure messages.
func (n Nibbles) String() string {
	var sb strings.Builder
	for _, v := range n.vals {
		sb.WriteByte(hexDigits[v])
	}
	return sb.String()
}

// hpEncode applies Hex-Prefix encoding to path,
// tagging it with a one-nibble prefix T that encodes
// (isLeaf, isOdd) as {ext-even=0, ext-odd=1,
// leaf-even=2, leaf-odd=3}, padding with a zero
// nibble when even, and packing the result into
// bytes.
func hpEncode(path Nibbles, isLeaf bool) []byte {
	odd := path.Len()%2 == 1

	prefix := byte(0)
	if isLeaf {
		prefix = 2
	}
	if odd {
		prefix++
	}

	vals := make([]byte, 0, path.Len()+2)
	vals = append(vals, prefix)
	if !odd {
		vals = append(vals, 0)
	}
	vals = append(vals, path.vals...)

	return Nibbles{vals: vals}.Bytes()
}

// hpDecode reverses hpEncode, returning the
// original path and whether it tagged a leaf.
// Fails with RlpMalformed if b is empty or carries
// an unrecognized prefix nibble.
func hpDecode(b []byte) (path Nibbles, isLeaf bool, err error) {
	if len(b) == 0 {
		return Nibbles{}, false, newErr(RlpMalformed, "hex-prefix encoding must not be empty")
	}

	packed := FromBytes(b)
	prefix := packed.vals[0]

	var odd bool
	switch prefix {
	case 0:
		isLeaf, odd = false, false
	case 1:
		isLeaf, odd = false, true
	case 2:
		isLeaf, odd = true, false
	case 3:
		isLeaf, odd = true, true
	default:
		return Nibbles{}, false, newErr(RlpMalformed, "unrecognized hex-prefix tag %d", prefix)
	}

	if odd {
		return Nibbles{vals: packed.vals[1:]}, isLeaf, nil
	}
	return Nibbles{vals: packed.vals[2:]}, isLeaf, nil
}
