package memhook

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/zeebo/xxh3"
)

const mapsPath = "/proc/self/maps"

// Region is one mapping of the process address space, [Start, End).
type Region struct {
	Start uintptr
	End   uintptr
	// Perms is the permission column of the maps line, e.g. "r-xp".
	Perms string
	// Path is the backing file or pseudo-name, empty for anonymous mappings.
	Path string
}

// Size returns End - Start.
func (r Region) Size() uintptr {
	return r.End - r.Start
}

// Contains reports whether addr falls in the region.
func (r Region) Contains(addr uintptr) bool {
	return addr >= r.Start && addr < r.End
}

func (r Region) String() string {
	return fmt.Sprintf("%x-%x %s %s", r.Start, r.End, r.Perms, r.Path)
}

// Hasher turns the leading bytes of a region into a 64-bit content hash.
type Hasher func([]byte) uint64

var (
	// HashXXH64 is XXH64 with seed 0.
	HashXXH64 Hasher = xxhash.Sum64
	// HashXXH3 is the 64-bit XXH3 variant.
	HashXXH3 Hasher = xxh3.Hash
)

// Regions lists the mappings of the current process.
func Regions() ([]Region, error) {
	f, err := os.Open(mapsPath)
	if err != nil {
		return nil, err
	}
	defer f.Close() // nolint:errcheck
	return parseMaps(f)
}

func parseMaps(r io.Reader) ([]Region, error) {
	var regions []Region
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		region, ok := parseMapsLine(scanner.Text())
		if !ok {
			continue
		}
		regions = append(regions, region)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return regions, nil
}

// parseMapsLine reads "start-end perms offset dev inode [path]".
func parseMapsLine(line string) (Region, bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Region{}, false
	}
	lo, hi, ok := strings.Cut(fields[0], "-")
	if !ok {
		return Region{}, false
	}
	start, err := strconv.ParseUint(lo, 16, 64)
	if err != nil {
		return Region{}, false
	}
	end, err := strconv.ParseUint(hi, 16, 64)
	if err != nil || end < start {
		return Region{}, false
	}
	region := Region{Start: uintptr(start), End: uintptr(end)}
	if len(fields) > 1 {
		region.Perms = fields[1]
	}
	if len(fields) > 5 {
		region.Path = strings.Join(fields[5:], " ")
	}
	return region, true
}

func regionContaining(regions []Region, addr uintptr) (Region, bool) {
	for _, r := range regions {
		if r.Contains(addr) {
			return r, true
		}
	}
	return Region{}, false
}

// RegionLookup finds the first mapping at least minSize bytes long whose
// first minSize bytes hash to hash under XXH64. It is meant for relocating a
// blob whose content is stable but whose address changes between runs.
func RegionLookup(hash uint64, minSize int) (Region, bool, error) {
	return RegionLookupWith(HashXXH64, hash, minSize)
}

// RegionLookupWith is RegionLookup with a caller-chosen hash function.
func RegionLookupWith(hasher Hasher, hash uint64, minSize int) (Region, bool, error) {
	if minSize <= 0 {
		return Region{}, false, fmt.Errorf("minimum size must be positive, got %d", minSize)
	}
	regions, err := Regions()
	if err != nil {
		return Region{}, false, err
	}
	r, ok := lookup(regions, hasher, hash, minSize)
	return r, ok, nil
}

func lookup(regions []Region, hasher Hasher, hash uint64, minSize int) (Region, bool) {
	for _, r := range regions {
		if r.Size() < uintptr(minSize) {
			continue
		}
		head, err := ReadBytes(r.Start, minSize)
		if err != nil {
			// guard pages, [vvar] and friends cannot be read
			continue
		}
		if hasher(head) != hash {
			continue
		}
		log().Debug().Stringer("region", r).Uint64("hash", hash).Msg("region matched")
		return r, true
	}
	return Region{}, false
}
