package proximity

import "iter"

// Batch is a contiguous run of candidates. Offset is the index of Items[0]
// in the full candidate list.
type Batch struct {
	Offset int
	Items  []Candidate
}

// Batches splits cands into consecutive batches of at most size items, in
// order. The batches share cands' backing array. size <= 0 yields the whole
// list as one batch.
func Batches(cands []Candidate, size int) iter.Seq[Batch] {
	return func(yield func(Batch) bool) {
		if len(cands) == 0 {
			return
		}
		if size <= 0 {
			size = len(cands)
		}
		for off := 0; off < len(cands); off += size {
			end := min(off+size, len(cands))
			if !yield(Batch{Offset: off, Items: cands[off:end:end]}) {
				return
			}
		}
	}
}
