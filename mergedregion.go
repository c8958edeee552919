package xlparse

import (
	"fmt"
	"strings"
	"sync"

	"github.com/google/btree"
)

// MergedSearch selects how blank cells are looked up inside merged regions.
type MergedSearch int

const (
	MergedNone MergedSearch = iota
	MergedLinear
	MergedTree
	MergedHash
)

var mergedSearchNames = []string{"none", "linear_search", "tree_search", "hash_search"}

// ParseMergedSearch parses a search_merged_cell value. The legacy values
// "true" and "false" map to hash_search and none.
func ParseMergedSearch(s string) (MergedSearch, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	switch v {
	case "true":
		return MergedHash, nil
	case "false":
		return MergedNone, nil
	}
	for i, name := range mergedSearchNames {
		if name == v {
			return MergedSearch(i), nil
		}
	}
	return 0, configErrorf(ErrInvalidOption, "illegal search_merged_cell=%s. expected=%v", s, mergedSearchNames)
}

// String returns the configuration name.
func (m MergedSearch) String() string {
	if int(m) >= 0 && int(m) < len(mergedSearchNames) {
		return mergedSearchNames[m]
	}
	return fmt.Sprintf("MergedSearch(%d)", int(m))
}

// MergedRegionFinder finds the merged region containing a coordinate.
type MergedRegionFinder interface {
	Find(row, col int) (Region, bool)
}

// RegionSource supplies the merged regions of a sheet in grid order.
type RegionSource interface {
	MergedRegions(sheet string) ([]Region, error)
}

// MergedRegionIndex caches one finder per (sheet, mode). Each finder is
// built once under its own guard and read without locking afterwards.
type MergedRegionIndex struct {
	src     RegionSource
	entries sync.Map // finderKey → *finderEntry
}

type finderKey struct {
	sheet string
	mode  MergedSearch
}

type finderEntry struct {
	once   sync.Once
	finder MergedRegionFinder
	err    error
}

// NewMergedRegionIndex creates an index over the given region source.
func NewMergedRegionIndex(src RegionSource) *MergedRegionIndex {
	return &MergedRegionIndex{src: src}
}

// Finder returns the finder for a sheet, building it on first use.
func (x *MergedRegionIndex) Finder(mode MergedSearch, sheet string) (MergedRegionFinder, error) {
	if mode == MergedNone {
		return noneFinder{}, nil
	}
	v, _ := x.entries.LoadOrStore(finderKey{sheet, mode}, &finderEntry{})
	e := v.(*finderEntry)
	e.once.Do(func() {
		regions, err := x.src.MergedRegions(sheet)
		if err != nil {
			e.err = fmt.Errorf("merged regions of sheet %q: %w", sheet, err)
			return
		}
		e.finder = newFinder(mode, regions)
	})
	return e.finder, e.err
}

// Prepare builds the finder for a sheet ahead of the record loop.
func (x *MergedRegionIndex) Prepare(mode MergedSearch, sheet string) error {
	_, err := x.Finder(mode, sheet)
	return err
}

// Find looks up the region containing (row, col) on a sheet.
func (x *MergedRegionIndex) Find(mode MergedSearch, sheet string, row, col int) (Region, bool, error) {
	f, err := x.Finder(mode, sheet)
	if err != nil {
		return Region{}, false, err
	}
	r, ok := f.Find(row, col)
	return r, ok, nil
}

func newFinder(mode MergedSearch, regions []Region) MergedRegionFinder {
	switch mode {
	case MergedLinear:
		return listFinder(regions)
	case MergedHash:
		return newHashFinder(regions)
	case MergedTree:
		return newTreeFinder(regions)
	}
	return noneFinder{}
}

type noneFinder struct{}

func (noneFinder) Find(int, int) (Region, bool) { return Region{}, false }

type listFinder []Region

func (l listFinder) Find(row, col int) (Region, bool) {
	for _, r := range l {
		if r.Contains(row, col) {
			return r, true
		}
	}
	return Region{}, false
}

// hashFinder maps row → column → region for every covered cell.
type hashFinder map[int]map[int]Region

func newHashFinder(regions []Region) hashFinder {
	h := make(hashFinder)
	for _, r := range regions {
		for row := r.FirstRow; row <= r.LastRow; row++ {
			cols, ok := h[row]
			if !ok {
				cols = make(map[int]Region)
				h[row] = cols
			}
			for col := r.FirstCol; col <= r.LastCol; col++ {
				// the first region in grid order wins on overlap
				if _, taken := cols[col]; !taken {
					cols[col] = r
				}
			}
		}
	}
	return h
}

func (h hashFinder) Find(row, col int) (Region, bool) {
	r, ok := h[row][col]
	return r, ok
}

type regionCell struct {
	row, col int
	region   Region
}

func lessRegionCell(a, b regionCell) bool {
	if a.row != b.row {
		return a.row < b.row
	}
	return a.col < b.col
}

// treeFinder keeps covered cells ordered by (row, col).
type treeFinder struct {
	tree *btree.BTreeG[regionCell]
}

func newTreeFinder(regions []Region) treeFinder {
	t := btree.NewG(16, lessRegionCell)
	for _, r := range regions {
		for row := r.FirstRow; row <= r.LastRow; row++ {
			for col := r.FirstCol; col <= r.LastCol; col++ {
				item := regionCell{row: row, col: col, region: r}
				if !t.Has(item) {
					t.ReplaceOrInsert(item)
				}
			}
		}
	}
	return treeFinder{tree: t}
}

func (f treeFinder) Find(row, col int) (Region, bool) {
	item, ok := f.tree.Get(regionCell{row: row, col: col})
	return item.region, ok
}

// Cells visits covered cells in (row, col) order until fn returns false.
func (f treeFinder) Cells(fn func(row, col int, r Region) bool) {
	f.tree.Ascend(func(item regionCell) bool {
		return fn(item.row, item.col, item.region)
	})
}
