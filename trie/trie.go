package trie

import (
	"github.com/ethereum/go-ethereum/common"
)

// EmptyRootDigest is the root digest of a trie with
// no entries: keccak256(rlp("")). Every new Trie
// starts here; the engine never constructs or
// stores an Empty node explicitly (§3).
var EmptyRootDigest = common.HexToHash("0x56e81f171bcc55a6ff8345e692c0f86e5b48e01b996cadc001622fb5e363b421")

// Trie holds a root digest and the store backing
// it. Values are logically move-based: Put returns a
// new *Trie on success and leaves the receiver's root
// digest untouched (§5, §9 "Move-based trie value").
// The store is shared with the returned trie: a
// successful Put removes the rewritten ancestors from
// it and writes the new nodes into it.
type Trie struct {
	root  Digest
	store NodeStore
}

// New returns an empty trie backed by store.
func New(store NodeStore) *Trie {
	return &Trie{root: EmptyRootDigest, store: store}
}

// Root returns the trie's current root digest.
func (t *Trie) Root() Digest {
	return t.root
}

// Put inserts value under key, returning the
// resulting trie. On error the original trie is
// unaffected: nothing is written until every phase
// (find, process, spine update) has succeeded (§4,
// §7).
func (t *Trie) Put(key Nibbles, value []byte) (*Trie, error) {
	if t.root == EmptyRootDigest {
		leaf := NewLeaf(key, value)
		return t.commit([]*Node{leaf}, nil)
	}

	foundStack, remaining, err := t.find(key)
	if err != nil {
		return nil, err
	}

	newStack, ancestors, err := t.process(foundStack, remaining, value)
	if err != nil {
		return nil, err
	}

	newStack, deleteStack, err := t.updateSpine(key, ancestors, newStack)
	if err != nil {
		return nil, err
	}

	return t.commit(newStack, deleteStack)
}

// find descends from the root collecting the path
// of nodes visited (root-to-leaf order) and the
// unmatched tail of key (§4.4).
func (t *Trie) find(key Nibbles) ([]*Node, Nibbles, error) {
	root, err := t.loadNode(t.root)
	if err != nil {
		return nil, Nibbles{}, err
	}

	stack := []*Node{root}
	remaining := key

	for {
		cur := stack[len(stack)-1]

		switch cur.Kind() {
		case KindLeaf:
			path, _ := cur.Path()
			_, keyTail, leafTail := CommonPrefix(remaining, path)
			if keyTail.Len() == 0 && leafTail.Len() == 0 {
				return stack, EmptyNibbles, nil
			}
			return stack, remaining, nil

		case KindExtension:
			path, _ := cur.Path()
			common, keyTail, extTail := CommonPrefix(remaining, path)
			if common.Len() == 0 || extTail.Len() > 0 {
				return stack, remaining, nil
			}

			childDigest, _ := cur.ChildDigest()
			child, err := t.loadNode(childDigest)
			if err != nil {
				return nil, Nibbles{}, err
			}
			stack = append(stack, child)
			remaining = keyTail

		case KindBranch:
			if remaining.Len() == 0 {
				return nil, Nibbles{}, newErr(Empty, "branch encountered with no remaining key nibbles")
			}

			head, tail, _ := remaining.SplitFirst()
			slot, err := cur.BranchChild(ToIndex(head))
			if err != nil {
				return nil, Nibbles{}, err
			}
			if slot == nil {
				return stack, remaining, nil
			}

			child, err := t.loadNode(*slot)
			if err != nil {
				return nil, Nibbles{}, err
			}
			stack = append(stack, child)
			remaining = tail
		}
	}
}

// loadNode fetches and decodes the node at digest.
// Fails with DanglingChild if absent.
func (t *Trie) loadNode(digest Digest) (*Node, error) {
	encoded, ok, err := t.store.Get(digest)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, newErr(DanglingChild, "no node stored at digest %s", digest.Hex())
	}
	return DecodeNode(encoded)
}

// process dispatches on the deepest found node and
// produces the new-stack realizing the local
// rewrite, plus the remaining ancestors (root-to-
// parent-of-processed, in root-to-leaf order) still
// to be spine-updated (§4.5).
func (t *Trie) process(foundStack []*Node, remainingKey Nibbles, value []byte) ([]*Node, []*Node, error) {
	processed := foundStack[len(foundStack)-1]
	ancestors := foundStack[:len(foundStack)-1]

	switch processed.Kind() {
	case KindLeaf:
		newStack, err := processLeaf(processed, remainingKey, value)
		return newStack, ancestors, err
	case KindBranch:
		newStack, err := processBranch(processed, remainingKey, value)
		return newStack, ancestors, err
	default: // KindExtension
		newStack, err := processExtension(processed, remainingKey, value)
		return newStack, ancestors, err
	}
}

// processLeaf implements cases L0/L1/L2 of §4.5.
func processLeaf(leaf *Node, remainingKey Nibbles, value []byte) ([]*Node, error) {
	leafPath, _ := leaf.Path()

	if remainingKey.Len() == 0 {
		// L0: full match, value replacement.
		return []*Node{NewLeaf(leafPath, value)}, nil
	}

	leafValue, _ := leaf.Value()
	cp, keyTail, leafTail := CommonPrefix(remainingKey, leafPath)

	branch, leaf1, leaf2, err := splitIntoBranch(leafTail, leafValue, keyTail, value)
	if err != nil {
		return nil, err
	}

	if cp.Len() == 0 {
		// L1: branch with two leaves, no extension above.
		return []*Node{branch, leaf1, leaf2}, nil
	}

	// L2: extension -> branch -> two leaves.
	ext, err := NewExtension(cp, branch.Digest())
	if err != nil {
		return nil, err
	}
	return []*Node{ext, branch, leaf1, leaf2}, nil
}

// processBranch implements case B of §4.5.
func processBranch(branch *Node, remainingKey Nibbles, value []byte) ([]*Node, error) {
	head, tail, err := remainingKey.SplitFirst()
	if err != nil {
		return nil, err
	}

	slot, err := branch.BranchChild(ToIndex(head))
	if err != nil {
		return nil, err
	}
	if slot != nil {
		// find only ever stops at a branch when the
		// chosen slot was empty; revisiting a populated
		// slot here means the spine was not what find
		// reported (§9, "overwrite on non-empty branch
		// slot").
		return nil, newErr(CorruptSpine, "branch slot %d already occupied", ToIndex(head))
	}

	newLeaf := NewLeaf(tail, value)
	leafDigest := newLeaf.Digest()
	updatedBranch, err := branch.WithBranchSlot(ToIndex(head), &leafDigest)
	if err != nil {
		return nil, err
	}

	return []*Node{updatedBranch, newLeaf}, nil
}

// processExtension implements cases E1/E2 of §4.5.
func processExtension(ext *Node, remainingKey Nibbles, value []byte) ([]*Node, error) {
	extPath, _ := ext.Path()
	childDigest, _ := ext.ChildDigest()

	cp, keyTail, extTail := CommonPrefix(remainingKey, extPath)

	// extTail/keyTail may be exhausted here: a key ending
	// exactly at this extension's fork point, or an
	// extension whose path was already empty (§9 "empty
	// extension after split"), leaves no nibble to split
	// off. split_at_first_nibble fails the same way in the
	// source this is ported from; propagate rather than
	// slice into an empty sequence.
	extHead, extRest, err := extTail.SplitFirst()
	if err != nil {
		return nil, err
	}
	keyHead, keyRest, err := keyTail.SplitFirst()
	if err != nil {
		return nil, err
	}

	// extBelow is the portion of the old extension's path
	// below the new fork point: the node that used to
	// reach the original child now does so through one
	// fewer nibble, via a (possibly empty, per §9 "empty
	// extension after split") extension below the branch.
	extBelow := newExtensionUnchecked(extRest, childDigest)
	newLeaf := NewLeaf(keyRest, value)

	branch := NewBranch(nil)
	belowDigest := extBelow.Digest()
	branch, err = branch.WithBranchSlot(ToIndex(extHead), &belowDigest)
	if err != nil {
		return nil, err
	}
	leafDigest := newLeaf.Digest()
	branch, err = branch.WithBranchSlot(ToIndex(keyHead), &leafDigest)
	if err != nil {
		return nil, err
	}

	if cp.Len() == 0 {
		// E1: branch -> extension & leaf, no extension above.
		return []*Node{branch, extBelow, newLeaf}, nil
	}

	// E2: extension -> branch -> extension & leaf.
	extAbove, err := NewExtension(cp, branch.Digest())
	if err != nil {
		return nil, err
	}
	return []*Node{extAbove, branch, extBelow, newLeaf}, nil
}

// splitIntoBranch builds the branch-with-two-leaves
// shared by cases L1/L2: a fresh branch whose two
// slots point at fresh leaves carrying the tails of
// the two paths that diverge at this point.
func splitIntoBranch(tailA Nibbles, valueA []byte, tailB Nibbles, valueB []byte) (branch, leafA, leafB *Node, err error) {
	headA, restA, err := tailA.SplitFirst()
	if err != nil {
		return nil, nil, nil, err
	}
	headB, restB, err := tailB.SplitFirst()
	if err != nil {
		return nil, nil, nil, err
	}

	leafA = NewLeaf(restA, valueA)
	leafB = NewLeaf(restB, valueB)

	b := NewBranch(nil)
	digA := leafA.Digest()
	b, err = b.WithBranchSlot(ToIndex(headA), &digA)
	if err != nil {
		return nil, nil, nil, err
	}
	digB := leafB.Digest()
	b, err = b.WithBranchSlot(ToIndex(headB), &digB)
	if err != nil {
		return nil, nil, nil, err
	}

	return b, leafA, leafB, nil
}

// updateSpine pops the remaining ancestors (deepest
// first) and rewrites each to point at the current
// top of the new-stack, retiring the original to the
// delete-stack (§4.6). A branch ancestor is repointed
// at the slot of the key nibble it consumed during
// find.
func (t *Trie) updateSpine(targetKey Nibbles, ancestors []*Node, newStack []*Node) ([]*Node, []*Node, error) {
	var deleteStack []*Node

	for i := len(ancestors) - 1; i >= 0; i-- {
		ancestor := ancestors[i]
		targetDigest := newStack[0].Digest()

		var updated *Node

		switch ancestor.Kind() {
		case KindExtension:
			path, _ := ancestor.Path()
			updated = newExtensionUnchecked(path, targetDigest)

		case KindBranch:
			// Skip the key nibbles consumed above this
			// branch: an extension consumes its whole
			// path, a branch one nibble.
			offset := 0
			for _, above := range ancestors[:i] {
				offset += above.PathLen()
				if above.Kind() == KindBranch {
					offset++
				}
			}
			nibble, err := targetKey.NibbleAt(offset)
			if err != nil {
				return nil, nil, err
			}
			var errUpdate error
			updated, errUpdate = ancestor.WithBranchSlot(ToIndex(nibble), &targetDigest)
			if errUpdate != nil {
				return nil, nil, errUpdate
			}

		default:
			return nil, nil, newErr(CorruptSpine, "spine ancestor is a %s, expected extension or branch", ancestor.Kind())
		}

		newStack = append([]*Node{updated}, newStack...)
		deleteStack = append(deleteStack, ancestor)
	}

	return newStack, deleteStack, nil
}

// commit deletes every node on deleteStack, writes
// every node on newStack, and returns the trie whose
// root is the digest of the node that was at the top
// of newStack (§4.7).
func (t *Trie) commit(newStack []*Node, deleteStack []*Node) (*Trie, error) {
	for _, n := range deleteStack {
		if err := t.store.Remove(n.Digest()); err != nil {
			return nil, err
		}
	}

	var last Digest
	for i := len(newStack) - 1; i >= 0; i-- {
		n := newStack[i]
		last = n.Digest()
		if err := t.store.Put(last, n.Encode()); err != nil {
			return nil, err
		}
	}

	return &Trie{root: last, store: t.store}, nil
}

// Get performs a read-only descent for key, returning
// its value if present. This is a supplemented
// operation: spec.md scopes only Put, but
// original_source's find/find_path already implement
// the read-only descent needed to answer it, and
// exposing it costs nothing beyond what find already
// does.
func (t *Trie) Get(key Nibbles) ([]byte, bool, error) {
	cur, err := t.loadNode(t.root)
	if err != nil {
		return nil, false, err
	}

	remaining := key
	for {
		switch cur.Kind() {
		case KindLeaf:
			path, _ := cur.Path()
			_, keyTail, leafTail := CommonPrefix(remaining, path)
			if keyTail.Len() != 0 || leafTail.Len() != 0 {
				return nil, false, nil
			}
			value, _ := cur.Value()
			return value, true, nil

		case KindExtension:
			// An empty-path extension (left below a branch
			// by case E1) consumes no nibbles and is passed
			// through to its child.
			path, _ := cur.Path()
			_, keyTail, extTail := CommonPrefix(remaining, path)
			if extTail.Len() > 0 {
				return nil, false, nil
			}
			childDigest, _ := cur.ChildDigest()
			child, err := t.loadNode(childDigest)
			if err != nil {
				return nil, false, err
			}
			cur = child
			remaining = keyTail

		case KindBranch:
			if remaining.Len() == 0 {
				value, _ := cur.Value()
				return value, value != nil, nil
			}
			head, tail, _ := remaining.SplitFirst()
			slot, err := cur.BranchChild(ToIndex(head))
			if err != nil {
				return nil, false, err
			}
			if slot == nil {
				return nil, false, nil
			}
			child, err := t.loadNode(*slot)
			if err != nil {
				return nil, false, err
			}
			cur = child
			remaining = tail
		}
	}
}

// Delete is not implemented: the source this engine
// was ported from supports only insertion and
// inclusion construction (§9 "Deletion and lookup").
func (t *Trie) Delete(Nibbles) (*Trie, error) {
	return nil, newErr(Unimplemented, "delete is not implemented")
}
