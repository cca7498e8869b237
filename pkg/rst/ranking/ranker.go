// Package ranking orders the dependents of each dependency tree head into a
// single deterministic attachment sequence.
//
// Nodes are characterised by their position in the text, so the head of a
// sibling group sits somewhere between its dependents:
//
//	lX, .., l2, l1, h, r1, r2, .., rY
//
// Every strategy produces an inside-out traversal: one that moves strictly
// outward from the head on either side, never skipping a nearer dependent
// to reach a farther one on the same side. Strategies differ only in how
// they interleave the two sides (and, for the closest-* family, in how
// distance ties and sentence boundaries break the order).
//
// The resulting sequence positions become the ranks of the head's
// dependents: within each sibling group, ranks form a permutation of
// 0..k-1. Ranks are not globally unique across the tree.
package ranking

import (
	"errors"
	"fmt"
	"slices"

	"github.com/humsha/educe/pkg/rst/deptree"
)

var (
	// ErrUnknownStrategy is returned by [New] for unrecognized strategy names.
	ErrUnknownStrategy = errors.New("unknown ranking strategy")

	// ErrMissingSentences is returned by [Ranker.Predict] when a
	// closest-intra-* strategy runs on a tree without sentence grouping.
	// There is no silent default: the caller must supply sentence ids.
	ErrMissingSentences = errors.New("strategy depends on sentence grouping which is missing")

	// ErrNotPermutation reports a sibling group whose computed ranks do not
	// form a permutation of 0..k-1. It should be unreachable on valid input.
	ErrNotPermutation = errors.New("ranking is not a permutation of the sibling group")
)

// Strategy names an attachment ordering policy.
type Strategy string

const (
	// StrategyID re-derives the original interleaving of dependents as given
	// in the input, reordering each side inside-out. It is the only strategy
	// with access to a ground-truth order and exists for round-trip fidelity
	// between dependency and constituency forms.
	StrategyID Strategy = "id"

	// StrategyLeftRight takes all left dependents (nearest first), then all
	// right dependents.
	StrategyLeftRight Strategy = "lllrrr"

	// StrategyRightLeft takes all right dependents (nearest first), then all
	// left dependents.
	StrategyRightLeft Strategy = "rrrlll"

	// StrategyAlternateLR alternates sides starting on the left, skipping a
	// side once it is exhausted.
	StrategyAlternateLR Strategy = "lrlrlr"

	// StrategyAlternateRL alternates sides starting on the right.
	StrategyAlternateRL Strategy = "rlrlrl"

	// StrategyClosestLR takes dependents nearest to the head first, breaking
	// equal-distance ties in favor of the left side.
	StrategyClosestLR Strategy = "closest-lr"

	// StrategyClosestRL takes dependents nearest to the head first, breaking
	// equal-distance ties in favor of the right side.
	StrategyClosestRL Strategy = "closest-rl"

	// StrategyClosestIntraRLInterLR sorts same-sentence dependents before
	// other-sentence ones, then by distance; ties break right-first within a
	// sentence and left-first across sentences.
	StrategyClosestIntraRLInterLR Strategy = "closest-intra-rl-inter-lr"

	// StrategyClosestIntraRLInterRL sorts same-sentence dependents first,
	// then by distance; ties always break right-first.
	StrategyClosestIntraRLInterRL Strategy = "closest-intra-rl-inter-rl"

	// StrategyClosestIntraLRInterLR sorts same-sentence dependents first,
	// then by distance; ties always break left-first.
	StrategyClosestIntraLRInterLR Strategy = "closest-intra-lr-inter-lr"
)

// Strategies lists every supported strategy.
var Strategies = []Strategy{
	StrategyID,
	StrategyLeftRight, StrategyRightLeft,
	StrategyAlternateLR, StrategyAlternateRL,
	StrategyClosestLR, StrategyClosestRL,
	StrategyClosestIntraRLInterLR,
	StrategyClosestIntraRLInterRL,
	StrategyClosestIntraLRInterLR,
}

// orderFunc orders one sibling group. It receives the tree, the head and
// the head's dependents in node-index order, and returns the dependents in
// attachment order.
type orderFunc func(t *deptree.DepTree, head int, targets []int) []int

// orderFuncs maps each strategy to its implementation. Membership in this
// map defines strategy validity.
var orderFuncs = map[Strategy]orderFunc{
	StrategyID:                    orderID,
	StrategyLeftRight:             orderLeftRight,
	StrategyRightLeft:             orderRightLeft,
	StrategyAlternateLR:           orderAlternateLR,
	StrategyAlternateRL:           orderAlternateRL,
	StrategyClosestLR:             orderClosest(tieLeft),
	StrategyClosestRL:             orderClosest(tieRight),
	StrategyClosestIntraRLInterLR: orderClosestIntra(tieRight, tieLeft),
	StrategyClosestIntraRLInterRL: orderClosestIntra(tieRight, tieRight),
	StrategyClosestIntraLRInterLR: orderClosestIntra(tieLeft, tieLeft),
}

// ParseStrategy validates a strategy name, rejecting unknown names eagerly.
func ParseStrategy(name string) (Strategy, error) {
	if _, ok := orderFuncs[Strategy(name)]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
	}
	return Strategy(name), nil
}

// NeedsSentences reports whether the strategy requires sentence grouping.
func (s Strategy) NeedsSentences() bool {
	switch s {
	case StrategyClosestIntraRLInterLR, StrategyClosestIntraRLInterRL, StrategyClosestIntraLRInterLR:
		return true
	}
	return false
}

// Ranker produces attachment rankings for dependency trees under a fixed
// strategy. It is immutable after construction and safe for concurrent use.
type Ranker struct {
	strategy Strategy
	order    orderFunc
}

// New creates a ranker for the given strategy.
// Unknown strategy names are rejected here, never deferred to Predict.
func New(strategy Strategy) (*Ranker, error) {
	fn, ok := orderFuncs[strategy]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, strategy)
	}
	return &Ranker{strategy: strategy, order: fn}, nil
}

// Strategy returns the configured strategy name.
func (r *Ranker) Strategy() Strategy { return r.strategy }

// Predict returns, for each tree, an array of ranks parallel to the tree's
// nodes. Within every sibling group the ranks form a permutation of
// 0..k-1; this postcondition is checked and a violation aborts the call.
// Input trees are not mutated.
func (r *Ranker) Predict(trees []*deptree.DepTree) ([][]int, error) {
	out := make([][]int, len(trees))
	for ti, tr := range trees {
		if r.strategy.NeedsSentences() && tr.SentIdx == nil {
			return nil, fmt.Errorf("%w: strategy %q, tree %q",
				ErrMissingSentences, r.strategy, tr.Origin)
		}

		ranks := make([]int, tr.Len())
		for _, head := range uniqueHeads(tr) {
			targets := tr.Targets(head)
			result := r.order(tr, head, targets)
			if err := checkPermutation(head, targets, result); err != nil {
				return nil, err
			}
			for i, tgt := range result {
				ranks[tgt] = i
			}
		}
		out[ti] = ranks
	}
	return out, nil
}

// uniqueHeads returns the distinct heads of real nodes, excluding the fake
// root, in ascending order.
func uniqueHeads(t *deptree.DepTree) []int {
	seen := make(map[int]bool)
	var heads []int
	for i := 1; i < t.Len(); i++ {
		if h := t.Heads[i]; h != 0 && !seen[h] {
			seen[h] = true
			heads = append(heads, h)
		}
	}
	slices.Sort(heads)
	return heads
}

// checkPermutation verifies that result is a permutation of targets.
func checkPermutation(head int, targets, result []int) error {
	if len(result) != len(targets) {
		return fmt.Errorf("%w: head %d has %d dependents but %d were ranked",
			ErrNotPermutation, head, len(targets), len(result))
	}
	seen := make(map[int]bool, len(result))
	for _, n := range result {
		if seen[n] {
			return fmt.Errorf("%w: head %d, node %d ranked twice", ErrNotPermutation, head, n)
		}
		seen[n] = true
	}
	for _, n := range targets {
		if !seen[n] {
			return fmt.Errorf("%w: head %d, node %d missing from ranking", ErrNotPermutation, head, n)
		}
	}
	return nil
}

// splitSides partitions a sibling group around its head by text position.
// Both returned slices are stacks ordered outside-in: the dependent nearest
// to the head sits at the end and pops first.
func splitSides(t *deptree.DepTree, head int, targets []int) (left, right []int) {
	sorted := make([]int, 0, len(targets)+1)
	sorted = append(sorted, head)
	sorted = append(sorted, targets...)
	slices.SortStableFunc(sorted, func(a, b int) int {
		return t.EDUs[a].Span.Start - t.EDUs[b].Span.Start
	})

	centre := slices.Index(sorted, head)
	left = slices.Clone(sorted[:centre])
	right = slices.Clone(sorted[centre+1:])
	slices.Reverse(right)
	return left, right
}

// pop removes and returns the last element of the stack.
func pop(stack *[]int) int {
	s := *stack
	n := s[len(s)-1]
	*stack = s[:len(s)-1]
	return n
}

// orderID keeps the interleaving of left and right dependents exactly as
// it appears in targets, but fills each side inside-out. The target list
// is read as a series of LEFT/RIGHT slots: for targets l3 r1 r3 l2 l1 r2
// the slots are L R R L L R, filled as l1 r1 r2 l2 l3 r3. Interleavings
// already consistent with a strict inside-out order are reproduced
// unchanged, which is what makes round-trip conversion possible.
func orderID(t *deptree.DepTree, head int, targets []int) []int {
	left, right := splitSides(t, head, targets)
	result := make([]int, 0, len(targets))
	for _, tgt := range targets {
		if slices.Contains(left, tgt) {
			result = append(result, pop(&left))
		} else {
			result = append(result, pop(&right))
		}
	}
	return result
}

func orderLeftRight(t *deptree.DepTree, head int, targets []int) []int {
	left, right := splitSides(t, head, targets)
	result := make([]int, 0, len(targets))
	for range targets {
		if len(left) > 0 {
			result = append(result, pop(&left))
		} else {
			result = append(result, pop(&right))
		}
	}
	return result
}

func orderRightLeft(t *deptree.DepTree, head int, targets []int) []int {
	left, right := splitSides(t, head, targets)
	result := make([]int, 0, len(targets))
	for range targets {
		if len(right) > 0 {
			result = append(result, pop(&right))
		} else {
			result = append(result, pop(&left))
		}
	}
	return result
}

// interleave zips two inside-out queues, taking one element from each side
// per round (first side first) and skipping a side once exhausted.
func interleave(first, second []int) []int {
	result := make([]int, 0, len(first)+len(second))
	for i := 0; i < max(len(first), len(second)); i++ {
		if i < len(first) {
			result = append(result, first[i])
		}
		if i < len(second) {
			result = append(result, second[i])
		}
	}
	return result
}

func orderAlternateLR(t *deptree.DepTree, head int, targets []int) []int {
	left, right := splitSides(t, head, targets)
	slices.Reverse(left) // stacks become inside-out queues
	slices.Reverse(right)
	return interleave(left, right)
}

func orderAlternateRL(t *deptree.DepTree, head int, targets []int) []int {
	left, right := splitSides(t, head, targets)
	slices.Reverse(left)
	slices.Reverse(right)
	return interleave(right, left)
}

// tieBreak maps a dependent's side to a sort priority for equal distances.
type tieBreak func(onRight bool) int

func tieLeft(onRight bool) int {
	if onRight {
		return 2
	}
	return 1
}

func tieRight(onRight bool) int {
	if onRight {
		return 1
	}
	return 2
}

// orderClosest builds an ordering by absolute text distance from the head,
// nearest first, with the given side preference on equal distances.
func orderClosest(tie tieBreak) orderFunc {
	return func(t *deptree.DepTree, head int, targets []int) []int {
		headIdx := t.Idx[head]
		result := slices.Clone(targets)
		slices.SortStableFunc(result, func(a, b int) int {
			da, db := abs(t.Idx[a]-headIdx), abs(t.Idx[b]-headIdx)
			if da != db {
				return da - db
			}
			return tie(t.Idx[a] > headIdx) - tie(t.Idx[b] > headIdx)
		})
		return result
	}
}

// orderClosestIntra orders same-sentence dependents before other-sentence
// ones, then by distance, then by a side preference that may differ between
// intra- and inter-sentential attachments.
func orderClosestIntra(intraTie, interTie tieBreak) orderFunc {
	return func(t *deptree.DepTree, head int, targets []int) []int {
		headIdx := t.Idx[head]
		headSent := t.SentIdx[headIdx]

		key := func(e int) [3]int {
			idx := t.Idx[e]
			intra := t.SentIdx[idx] == headSent
			sentKey := 2
			tie := interTie
			if intra {
				sentKey = 1
				tie = intraTie
			}
			return [3]int{sentKey, abs(idx - headIdx), tie(idx > headIdx)}
		}

		result := slices.Clone(targets)
		slices.SortStableFunc(result, func(a, b int) int {
			ka, kb := key(a), key(b)
			for i := range ka {
				if ka[i] != kb[i] {
					return ka[i] - kb[i]
				}
			}
			return 0
		})
		return result
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
