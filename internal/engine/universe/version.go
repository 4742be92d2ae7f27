package universe

import (
	"time"

	"classfinder/internal/engine/classpath"
)

// VersionAttribute carries what duplicate and conflict detection compare.
// Signature is the stored CRC-32 of an archive entry, or zero.
type VersionAttribute struct {
	Size      int64
	Modified  time.Time
	Signature uint32
}

func versionOf(info classpath.Info) *VersionAttribute {
	return &VersionAttribute{Size: info.Size, Modified: info.Modified, Signature: info.CRC32}
}

// CompareVersions orders by size, then by signature when both are known.
// Attributes of equal size without two signatures compare equal.
func CompareVersions(a, b VersionAttribute) int {
	if a.Size != b.Size {
		if a.Size < b.Size {
			return -1
		}
		return 1
	}
	if a.Signature != 0 && b.Signature != 0 {
		switch {
		case a.Signature < b.Signature:
			return -1
		case a.Signature > b.Signature:
			return 1
		}
	}
	return 0
}

// VersionBuckets assigns each entry the ordinal of its comparator bucket,
// in order of first appearance. Entries that compare equal share an
// ordinal; entries without attributes get -1.
func VersionBuckets(entries []Entry) []int {
	var reps []VersionAttribute
	out := make([]int, len(entries))
	for i, e := range entries {
		out[i] = -1
		if e.Version == nil {
			continue
		}
		for b, rep := range reps {
			if CompareVersions(rep, *e.Version) == 0 {
				out[i] = b
				break
			}
		}
		if out[i] < 0 {
			reps = append(reps, *e.Version)
			out[i] = len(reps) - 1
		}
	}
	return out
}

// RankVersions assigns each entry a version value for display. Entries
// that compare equal share the modification time (unix millis) of the
// first such entry; entries without attributes get zero.
func RankVersions(entries []Entry) []int64 {
	buckets := VersionBuckets(entries)
	first := make(map[int]int64)
	out := make([]int64, len(entries))
	for i, b := range buckets {
		if b < 0 {
			continue
		}
		if _, ok := first[b]; !ok {
			first[b] = entries[i].Version.Modified.UnixMilli()
		}
		out[i] = first[b]
	}
	return out
}

// ModifiedValues returns each entry's own modification time (unix millis),
// without grouping by comparator.
func ModifiedValues(entries []Entry) []int64 {
	out := make([]int64, len(entries))
	for i, e := range entries {
		if e.Version != nil {
			out[i] = e.Version.Modified.UnixMilli()
		}
	}
	return out
}
