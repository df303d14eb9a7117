package enrich

// Partition splits ids into consecutive batches of at most max elements.
// Every batch is non-empty, the batches cover ids exactly once in order,
// and only the last batch may be shorter than max. max must be positive;
// a non-positive max degenerates to a single batch.
func Partition(ids []string, max int) [][]string {
	if len(ids) == 0 {
		return nil
	}
	if max <= 0 {
		return [][]string{ids}
	}

	batches := make([][]string, 0, (len(ids)+max-1)/max)
	for start := 0; start < len(ids); start += max {
		end := start + max
		if end > len(ids) {
			end = len(ids)
		}
		batches = append(batches, ids[start:end])
	}
	return batches
}
