package services

import (
	"maps"
	"slices"
)

// trie indexes normalized answers by rune for prefix lookups.
type trie struct {
	root *trieNode
}

type trieNode struct {
	children map[rune]*trieNode
	// words holds the original answers that end at this node.
	words []string
}

func newTrie() *trie {
	return &trie{root: &trieNode{children: map[rune]*trieNode{}}}
}

func (t *trie) insert(key, word string) {
	n := t.root
	for _, r := range key {
		next, ok := n.children[r]
		if !ok {
			next = &trieNode{children: map[rune]*trieNode{}}
			n.children[r] = next
		}
		n = next
	}
	n.words = append(n.words, word)
}

// withPrefix returns every word whose key starts with prefix, shorter keys
// first and siblings in rune order.
func (t *trie) withPrefix(prefix string) []string {
	n := t.root
	for _, r := range prefix {
		next, ok := n.children[r]
		if !ok {
			return nil
		}
		n = next
	}
	var out []string
	var walk func(*trieNode)
	walk = func(n *trieNode) {
		out = append(out, n.words...)
		for _, r := range slices.Sorted(maps.Keys(n.children)) {
			walk(n.children[r])
		}
	}
	walk(n)
	return out
}
