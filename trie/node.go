package trie

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
)

// Digest is a 32-byte content address: the
// Keccak-256 digest of a node's RLP encoding.
type Digest = common.Hash

// NodeKind tags the three variants a Node may be.
type NodeKind int

const (
	KindLeaf NodeKind = iota
	KindExtension
	KindBranch
)

func (k NodeKind) String() string {
	switch k {
	case KindLeaf:
		return "leaf"
	case KindExtension:
		return "extension"
	case KindBranch:
		return "branch"
	default:
		return "unknown"
	}
}

// BranchWidth is the number of child slots in a
// branch node. The value slot comes after them, so a
// branch encodes as a list of BranchWidth+1 items.
const BranchWidth = 16

// Node is a tagged variant over {Leaf, Extension,
// Branch}. Exactly the fields relevant to kind are
// populated; accessors that don't apply to a given
// kind fail with WrongKind rather than silently
// returning a zero value. There is no "Empty" node
// value here: an empty trie is represented purely by
// its root digest equaling the empty-RLP hash, and
// Empty is never constructed or stored (§3).
type Node struct {
	kind NodeKind

	path Nibbles // leaf, extension

	value []byte // leaf value; branch value slot (nil if absent)

	child Digest // extension child digest

	children [BranchWidth]*Digest // branch children; nil slot = absent
}

// NewLeaf constructs a Leaf node with the given
// path and value.
func NewLeaf(path Nibbles, value []byte) *Node {
	return &Node{kind: KindLeaf, path: path, value: value}
}

// NewExtension constructs an Extension node.
// Fails with EmptyPath if path has zero length.
func NewExtension(path Nibbles, child Digest) (*Node, error) {
	if path.Len() == 0 {
		return nil, newErr(EmptyPath, "extension node requires a non-empty path")
	}
	return newExtensionUnchecked(path, child), nil
}

// newExtensionUnchecked builds an extension without
// enforcing the non-empty-path invariant. Used by
// the RLP decoder, by spine rewriting when it
// repoints an extension ancestor, and by cases E1/E2
// of the local rewrite for the extension below the
// new branch, which is constructed unconditionally
// even when it yields a zero-length path (§9, "empty
// extension after split").
func newExtensionUnchecked(path Nibbles, child Digest) *Node {
	return &Node{kind: KindExtension, path: path, child: child}
}

// NewBranch constructs a Branch node with all
// child slots empty and the given optional value
// in its 17th slot.
func NewBranch(value []byte) *Node {
	return &Node{kind: KindBranch, value: value}
}

// Kind reports which of the three variants n is.
func (n *Node) Kind() NodeKind {
	return n.kind
}

// Path returns the path of a Leaf or Extension
// node. Fails with WrongKind for a Branch.
func (n *Node) Path() (Nibbles, error) {
	if n.kind == KindBranch {
		return Nibbles{}, newErr(WrongKind, "branch nodes have no path")
	}
	return n.path, nil
}

// PathLen returns the number of nibbles consumed
// by n's path, or 0 for a branch (§4.6 accounting).
func (n *Node) PathLen() int {
	if n.kind == KindBranch {
		return 0
	}
	return n.path.Len()
}

// Value returns the value carried by n. For a
// Leaf this is its value; for a Branch this is the
// optional 17th-slot value (nil if absent). Fails
// with WrongKind for an Extension, which carries a
// child digest, not a value.
func (n *Node) Value() ([]byte, error) {
	if n.kind == KindExtension {
		return nil, newErr(WrongKind, "extension nodes have no value")
	}
	return n.value, nil
}

// ChildDigest returns the child digest of an
// Extension node. Fails with WrongKind otherwise.
func (n *Node) ChildDigest() (Digest, error) {
	if n.kind != KindExtension {
		return Digest{}, newErr(WrongKind, "only extension nodes carry a single child digest")
	}
	return n.child, nil
}

// BranchChild returns the digest stored at the
// given branch slot, or nil if that slot is empty.
// Fails with NotABranch if n is not a Branch.
func (n *Node) BranchChild(index int) (*Digest, error) {
	if n.kind != KindBranch {
		return nil, newErr(NotABranch, "cannot read branch slot %d of a %s node", index, n.kind)
	}
	if index < 0 || index >= BranchWidth {
		return nil, newErr(IndexOutOfRange, "branch slot %d out of range", index)
	}
	return n.children[index], nil
}

// WithBranchSlot returns a new Branch node, equal
// to n except that slot index now holds child (nil
// clears the slot). n is left untouched: nodes are
// immutable once constructed (§3 Lifecycles). Fails
// with NotABranch if n is not a Branch.
func (n *Node) WithBranchSlot(index int, child *Digest) (*Node, error) {
	if n.kind != KindBranch {
		return nil, newErr(NotABranch, "cannot update branch slot %d of a %s node", index, n.kind)
	}
	if index < 0 || index >= BranchWidth {
		return nil, newErr(IndexOutOfRange, "branch slot %d out of range", index)
	}

	updated := &Node{kind: KindBranch, value: n.value, children: n.children}
	updated.children[index] = child
	return updated, nil
}

// rlpForm is the structured shape encoded for
// hashing and storage: either a two-item
// [hpPath, payload] list (Leaf/Extension) or a
// 17-item list (Branch), per §4.2.
func (n *Node) rlpForm() any {
	switch n.kind {
	case KindLeaf:
		return []any{hpEncode(n.path, true), n.value}
	case KindExtension:
		childCopy := n.child
		return []any{hpEncode(n.path, false), childCopy[:]}
	default: // KindBranch
		items := make([]any, BranchWidth+1)
		for i, c := range n.children {
			if c == nil {
				items[i] = []byte{}
			} else {
				cp := *c
				items[i] = cp[:]
			}
		}
		if n.value == nil {
			items[BranchWidth] = []byte{}
		} else {
			items[BranchWidth] = n.value
		}
		return items
	}
}

// Encode returns the canonical RLP encoding of n,
// the bit-exact bytes stored in the node store and
// hashed to obtain n's digest.
func (n *Node) Encode() []byte {
	encoded, err := rlp.EncodeToBytes(n.rlpForm())
	if err != nil {
		// rlpForm only ever produces byte strings and
		// lists of byte strings; encoding those cannot
		// fail.
		panic("trie: unexpected rlp encode failure: " + err.Error())
	}
	return encoded
}

// Digest returns the Keccak-256 digest of n's
// canonical RLP encoding: its storage key and the
// value written into any parent's child slot.
func (n *Node) Digest() Digest {
	return crypto.Keccak256Hash(n.Encode())
}

// DecodeNode parses the canonical RLP encoding of a
// node. Fails with RlpMalformed on any structural
// mismatch.
func DecodeNode(data []byte) (*Node, error) {
	var items []rlp.RawValue
	if err := rlp.DecodeBytes(data, &items); err != nil {
		return nil, wrapErr(RlpMalformed, "failed to decode node rlp", err)
	}

	switch len(items) {
	case 2:
		return decodeShortNode(items)
	case BranchWidth + 1:
		return decodeBranchNode(items)
	default:
		return nil, newErr(RlpMalformed, "node list has %d items, expected 2 or %d", len(items), BranchWidth+1)
	}
}

func decodeShortNode(items []rlp.RawValue) (*Node, error) {
	var hp []byte
	if err := rlp.DecodeBytes(items[0], &hp); err != nil {
		return nil, wrapErr(RlpMalformed, "failed to decode hex-prefix path", err)
	}

	path, isLeaf, err := hpDecode(hp)
	if err != nil {
		return nil, err
	}

	var payload []byte
	if err := rlp.DecodeBytes(items[1], &payload); err != nil {
		return nil, wrapErr(RlpMalformed, "failed to decode node payload", err)
	}

	if isLeaf {
		return NewLeaf(path, payload), nil
	}

	if len(payload) != len(Digest{}) {
		return nil, newErr(RlpMalformed, "extension child digest has %d bytes, expected %d", len(payload), len(Digest{}))
	}
	var child Digest
	copy(child[:], payload)
	return newExtensionUnchecked(path, child), nil
}

func decodeBranchNode(items []rlp.RawValue) (*Node, error) {
	branch := &Node{kind: KindBranch}

	for i := 0; i < BranchWidth; i++ {
		var raw []byte
		if err := rlp.DecodeBytes(items[i], &raw); err != nil {
			return nil, wrapErr(RlpMalformed, "failed to decode branch slot", err)
		}
		if len(raw) == 0 {
			continue
		}
		if len(raw) != len(Digest{}) {
			return nil, newErr(RlpMalformed, "branch slot %d digest has %d bytes", i, len(raw))
		}
		var d Digest
		copy(d[:], raw)
		branch.children[i] = &d
	}

	var value []byte
	if err := rlp.DecodeBytes(items[BranchWidth], &value); err != nil {
		return nil, wrapErr(RlpMalformed, "failed to decode branch value", err)
	}
	if len(value) > 0 {
		branch.value = value
	}

	return branch, nil
}
