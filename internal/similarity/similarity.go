// Package similarity scores candidate titles against a reference title.
//
// The ratio is the classic longest-matching-block measure: find the longest
// common contiguous run, recurse into the unmatched segments on either side
// of it, and report 2*M/T where M is the number of matched characters and T
// the combined length of both strings. Characters are compared as runes, so
// Japanese titles are measured per character rather than per byte.
package similarity

import "sort"

// Block is a matched run: a[A:A+Size] == b[B:B+Size].
type Block struct {
	A    int
	B    int
	Size int
}

// Score returns one ratio per candidate, in candidate order.
func Score(reference string, candidates []string) []float64 {
	scores := make([]float64, 0, len(candidates))
	for _, candidate := range candidates {
		scores = append(scores, Ratio(reference, candidate))
	}
	return scores
}

// Ratio returns the similarity of a and b in [0, 1]. Two empty strings are
// identical (1.0). Case and whitespace are compared as-is.
//
// Longest-block decomposition depends on which string is scanned first when
// several blocks tie, so the pair is put in a canonical order to keep
// Ratio(a, b) == Ratio(b, a).
func Ratio(a, b string) float64 {
	if b < a {
		a, b = b, a
	}
	ra, rb := []rune(a), []rune(b)
	total := len(ra) + len(rb)
	if total == 0 {
		return 1.0
	}
	matched := 0
	for _, block := range MatchingBlocks(ra, rb) {
		matched += block.Size
	}
	return 2.0 * float64(matched) / float64(total)
}

// MatchingBlocks returns the non-overlapping matched runs of a and b ordered
// by position.
func MatchingBlocks(a, b []rune) []Block {
	index := make(map[rune][]int)
	for j, r := range b {
		index[r] = append(index[r], j)
	}

	type span struct{ alo, ahi, blo, bhi int }
	queue := []span{{0, len(a), 0, len(b)}}
	var blocks []Block

	for len(queue) > 0 {
		s := queue[len(queue)-1]
		queue = queue[:len(queue)-1]

		block := longestMatch(a, index, s.alo, s.ahi, s.blo, s.bhi)
		if block.Size == 0 {
			continue
		}
		blocks = append(blocks, block)
		if s.alo < block.A && s.blo < block.B {
			queue = append(queue, span{s.alo, block.A, s.blo, block.B})
		}
		if block.A+block.Size < s.ahi && block.B+block.Size < s.bhi {
			queue = append(queue, span{block.A + block.Size, s.ahi, block.B + block.Size, s.bhi})
		}
	}

	sort.Slice(blocks, func(i, j int) bool {
		if blocks[i].A != blocks[j].A {
			return blocks[i].A < blocks[j].A
		}
		return blocks[i].B < blocks[j].B
	})
	return blocks
}

// longestMatch finds the longest run shared by a[alo:ahi] and b[blo:bhi].
// Among equally long runs the one starting earliest in a wins, then the one
// starting earliest in b.
func longestMatch(a []rune, index map[rune][]int, alo, ahi, blo, bhi int) Block {
	best := Block{A: alo, B: blo}
	lengths := map[int]int{}
	for i := alo; i < ahi; i++ {
		next := map[int]int{}
		for _, j := range index[a[i]] {
			if j < blo {
				continue
			}
			if j >= bhi {
				break
			}
			k := lengths[j-1] + 1
			next[j] = k
			if k > best.Size {
				best = Block{A: i - k + 1, B: j - k + 1, Size: k}
			}
		}
		lengths = next
	}
	return best
}
