package ppu

import "sort"

// object is one OAM entry translated into screen space: X and Y have the
// hardware's +8/+16 offsets already removed, so an object at (0,0) covers
// the framebuffer's top-left tile cell.
type object struct {
	x, y  int
	tile  byte
	attr  byte
	index int // OAM slot, for tie-breaking
}

const (
	objBehindBG = 1 << 7
	objYFlip    = 1 << 6
	objXFlip    = 1 << 5
	objAltPal   = 1 << 4 // OBP1 instead of OBP0
)

// lineObjects walks all 40 OAM slots in order and returns the first ten
// that overlap scanline ly, per the hardware's per-line object limit.
// Height is 8 or 16 from LCDC bit 2; in tall mode the tile index's low bit
// is ignored.
func (p *PPU) lineObjects(ly byte) []object {
	height := 8
	if p.lcdc&0x04 != 0 {
		height = 16
	}
	var objs []object
	for i := 0; i < 40 && len(objs) < 10; i++ {
		e := p.oam[i*4 : i*4+4]
		o := object{
			x:     int(e[1]) - 8,
			y:     int(e[0]) - 16,
			tile:  e[2],
			attr:  e[3],
			index: i,
		}
		if height == 16 {
			o.tile &= 0xFE
		}
		if row := int(ly) - o.y; row >= 0 && row < height {
			objs = append(objs, o)
		}
	}
	return objs
}

// objectScanline resolves the selected objects into a row of color indices
// (0 = no object pixel) plus which palette each pixel uses. Overlaps go to
// the smaller X, then the smaller OAM slot; index-0 pixels are transparent;
// the behind-BG attribute hides the pixel under any nonzero BG color.
func objectScanline(mem VRAMReader, objs []object, ly byte, bg *[160]byte, tall bool) (ci [160]byte, altPal [160]bool) {
	height := 8
	if tall {
		height = 16
	}

	byPriority := make([]object, len(objs))
	copy(byPriority, objs)
	sort.SliceStable(byPriority, func(i, j int) bool {
		if byPriority[i].x != byPriority[j].x {
			return byPriority[i].x < byPriority[j].x
		}
		return byPriority[i].index < byPriority[j].index
	})

	var claimed [160]bool
	for _, o := range byPriority {
		row := int(ly) - o.y
		if row < 0 || row >= height {
			continue
		}
		if o.attr&objYFlip != 0 {
			row = height - 1 - row
		}
		tile := o.tile
		if row >= 8 {
			tile |= 0x01
			row -= 8
		}
		addr := tileRowAddr(true, tile, byte(row))
		pixels := decodeTileRow(mem.Read(addr), mem.Read(addr+1), o.attr&objXFlip != 0)

		for col, px := range pixels {
			x := o.x + col
			if x < 0 || x >= 160 || claimed[x] {
				continue
			}
			if px == 0 {
				continue
			}
			// An opaque pixel claims its column even when the BG wins, so a
			// lower-priority object cannot show through it.
			claimed[x] = true
			if o.attr&objBehindBG != 0 && bg[x] != 0 {
				continue
			}
			ci[x] = px
			altPal[x] = o.attr&objAltPal != 0
		}
	}
	return ci, altPal
}
