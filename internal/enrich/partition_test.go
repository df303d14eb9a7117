package enrich

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestPartition(t *testing.T) {
	tests := []struct {
		name string
		ids  []string
		max  int
		want [][]string
	}{
		{
			name: "Empty",
			ids:  nil,
			max:  5,
			want: nil,
		},
		{
			name: "SingleBatch",
			ids:  []string{"a", "b"},
			max:  5,
			want: [][]string{{"a", "b"}},
		},
		{
			name: "ExactMultiple",
			ids:  []string{"a", "b", "c", "d"},
			max:  2,
			want: [][]string{{"a", "b"}, {"c", "d"}},
		},
		{
			name: "Remainder",
			ids:  []string{"101", "102", "103"},
			max:  2,
			want: [][]string{{"101", "102"}, {"103"}},
		},
		{
			name: "MaxOne",
			ids:  []string{"a", "b", "c"},
			max:  1,
			want: [][]string{{"a"}, {"b"}, {"c"}},
		},
		{
			name: "NonPositiveMax",
			ids:  []string{"a", "b", "c"},
			max:  0,
			want: [][]string{{"a", "b", "c"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Partition(tt.ids, tt.max)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Partition mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

// Partitioning must cover the input exactly once with no batch over max and
// only the final batch shorter.
func TestPartitionProperties(t *testing.T) {
	for _, n := range []int{1, 2, 5, 10, 17, 100} {
		for _, max := range []int{1, 2, 3, 10, 99} {
			t.Run(fmt.Sprintf("n%d_max%d", n, max), func(t *testing.T) {
				ids := make([]string, n)
				for i := range ids {
					ids[i] = fmt.Sprintf("id%d", i)
				}

				batches := Partition(ids, max)

				var flat []string
				for i, b := range batches {
					if len(b) == 0 {
						t.Fatalf("batch %d is empty", i)
					}
					if len(b) > max {
						t.Fatalf("batch %d has size %d > max %d", i, len(b), max)
					}
					if len(b) < max && i != len(batches)-1 {
						t.Fatalf("non-final batch %d has size %d < max %d", i, len(b), max)
					}
					flat = append(flat, b...)
				}
				if diff := cmp.Diff(ids, flat); diff != "" {
					t.Errorf("batches do not cover input exactly (-want +got):\n%s", diff)
				}
			})
		}
	}
}
