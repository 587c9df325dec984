package firmware

import (
	"fmt"
	"io"
	"os"

	"github.com/marcinbor85/gohex"
)

// HexPadding fills gaps between Intel HEX segments, matching erased flash.
const HexPadding = 0xFF

// OpenHex loads an Intel HEX file into memory.
func OpenHex(path string) (*MemoryImage, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &ImageError{Path: path, Op: "open", Err: err}
	}
	defer f.Close()

	img, err := ParseHex(f)
	if err != nil {
		return nil, &ImageError{Path: path, Op: "parse", Err: err}
	}
	return img, nil
}

// ParseHex reads Intel HEX records from r and flattens them into one image
// starting at the lowest segment address. Gaps are filled with HexPadding.
func ParseHex(r io.Reader) (*MemoryImage, error) {
	mem := gohex.NewMemory()
	if err := mem.ParseIntelHex(r); err != nil {
		return nil, fmt.Errorf("parse intel hex: %w", err)
	}

	segments := mem.GetDataSegments()
	if len(segments) == 0 {
		return nil, ErrEmptyImage
	}

	start := segments[0].Address
	end := start
	for _, seg := range segments {
		if seg.Address < start {
			start = seg.Address
		}
		if segEnd := seg.Address + uint32(len(seg.Data)); segEnd > end {
			end = segEnd
		}
	}

	return NewMemoryImage(mem.ToBinary(start, end-start, HexPadding)), nil
}
