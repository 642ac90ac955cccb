package ingest

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMergeDuplicateGroups(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		groups []DuplicateGroup
		want   []DuplicateGroup
	}{
		{
			name: "DisjointGroupsPassThrough",
			groups: []DuplicateGroup{
				{Key: "sig-a", IDs: []int64{1, 4}},
				{Key: "sig-b", IDs: []int64{2, 7}},
			},
			want: []DuplicateGroup{
				{Key: "sig-a", IDs: []int64{1, 4}},
				{Key: "sig-b", IDs: []int64{2, 7}},
			},
		},
		{
			name: "SharedIDBridgesGroups",
			groups: []DuplicateGroup{
				{Key: "sig-a", IDs: []int64{1, 4}},
				{Key: "https://boards.greenhouse.io/acme/1", IDs: []int64{4, 9}},
			},
			want: []DuplicateGroup{
				{Key: "sig-a", IDs: []int64{1, 4, 9}},
			},
		},
		{
			name: "IdenticalGroupsCollapse",
			groups: []DuplicateGroup{
				{Key: "sig-a", IDs: []int64{3, 5}},
				{Key: "https://acme.com/jobs/1", IDs: []int64{3, 5}},
			},
			want: []DuplicateGroup{
				{Key: "sig-a", IDs: []int64{3, 5}},
			},
		},
		{
			name: "ChainAcrossThreeGroups",
			groups: []DuplicateGroup{
				{Key: "sig-a", IDs: []int64{6, 8}},
				{Key: "sig-b", IDs: []int64{8, 2}},
				{Key: "link-c", IDs: []int64{2, 11}},
			},
			want: []DuplicateGroup{
				{Key: "sig-b", IDs: []int64{2, 6, 8, 11}},
			},
		},
		{
			name:   "Empty",
			groups: nil,
			want:   []DuplicateGroup{},
		},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tc.want, MergeDuplicateGroups(tc.groups))
		})
	}
}
