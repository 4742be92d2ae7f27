package universe

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCompareVersions(t *testing.T) {
	tests := []struct {
		name string
		a, b VersionAttribute
		want int
	}{
		{"smaller size", VersionAttribute{Size: 1}, VersionAttribute{Size: 2}, -1},
		{"larger size", VersionAttribute{Size: 3, Signature: 1}, VersionAttribute{Size: 2, Signature: 9}, 1},
		{"signature tiebreak", VersionAttribute{Size: 2, Signature: 1}, VersionAttribute{Size: 2, Signature: 9}, -1},
		{"same signature", VersionAttribute{Size: 2, Signature: 7}, VersionAttribute{Size: 2, Signature: 7}, 0},
		{"one signature missing", VersionAttribute{Size: 2, Signature: 0}, VersionAttribute{Size: 2, Signature: 9}, 0},
		{"timestamps ignored", VersionAttribute{Size: 2, Modified: time.Unix(1, 0)}, VersionAttribute{Size: 2, Modified: time.Unix(99, 0)}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CompareVersions(tt.a, tt.b))
		})
	}
}

func entryWith(size int64, sig uint32, ms int64) Entry {
	return Entry{Version: &VersionAttribute{Size: size, Signature: sig, Modified: time.UnixMilli(ms)}}
}

func TestRankVersions(t *testing.T) {
	entries := []Entry{
		entryWith(10, 0, 1000),
		entryWith(10, 5, 2000), // equal to the first: one signature missing
		entryWith(20, 0, 3000),
		entryWith(20, 0, 4000),
		{},
	}
	assert.Equal(t, []int64{1000, 1000, 3000, 3000, 0}, RankVersions(entries))
	assert.Equal(t, []int{0, 0, 1, 1, -1}, VersionBuckets(entries))
	assert.Equal(t, []int64{1000, 2000, 3000, 4000, 0}, ModifiedValues(entries))
}

func TestVersionBuckets_SameTimestamp(t *testing.T) {
	entries := []Entry{entryWith(1, 0, 1000), entryWith(2, 7, 1000), entryWith(2, 9, 1000), entryWith(2, 0, 1000)}
	assert.Equal(t, []int{0, 1, 2, 1}, VersionBuckets(entries))
	assert.Equal(t, []int64{1000, 1000, 1000, 1000}, RankVersions(entries))
}
