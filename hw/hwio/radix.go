package hwio

import (
	"errors"
	"fmt"
)

var ErrOverlappingRange = errors.New("overlapping range")

// radixTree maps 16-bit addresses to BankIO8 handlers. It is a radix-256
// trie of depth 2: the high byte selects a page, the low byte an entry
// within it. Pages fully covered by a single handler don't allocate an
// entry table, so lookups for big linear areas stay one indirection deep.
type radixTree struct {
	pages [256]radixPage
}

type radixPage struct {
	// full is set when the whole page maps to the same handler. entries
	// is only allocated for pages split between several handlers.
	full    BankIO8
	entries *[256]BankIO8
}

func (t *radixTree) Search(addr uint16) BankIO8 {
	page := &t.pages[addr>>8]
	if page.entries != nil {
		return page.entries[addr&0xFF]
	}
	return page.full
}

// InsertRange maps io over the inclusive range [begin, end]. It returns
// ErrOverlappingRange if any address in the range is already mapped.
func (t *radixTree) InsertRange(begin, end uint16, io BankIO8) error {
	if begin > end {
		return fmt.Errorf("invalid range [%04x, %04x]", begin, end)
	}
	for addr := uint32(begin); addr <= uint32(end); addr++ {
		if t.Search(uint16(addr)) != nil {
			return fmt.Errorf("%w: address %04x already mapped", ErrOverlappingRange, addr)
		}
	}
	t.setRange(begin, end, io)
	return nil
}

// RemoveRange unmaps the inclusive range [begin, end].
func (t *radixTree) RemoveRange(begin, end uint16) {
	t.setRange(begin, end, nil)
}

func (t *radixTree) setRange(begin, end uint16, io BankIO8) {
	for addr := uint32(begin); addr <= uint32(end); {
		page := &t.pages[addr>>8]
		if addr&0xFF == 0 && addr+0xFF <= uint32(end) {
			// Whole page covered.
			page.full = io
			page.entries = nil
			addr += 0x100
			continue
		}
		if page.entries == nil {
			var entries [256]BankIO8
			if page.full != nil {
				for i := range entries {
					entries[i] = page.full
				}
			}
			page.entries = &entries
			page.full = nil
		}
		page.entries[addr&0xFF] = io
		addr++
	}
}
