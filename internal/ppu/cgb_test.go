package ppu

import "testing"

// twoBankVRAM backs the CGB helpers with both VRAM banks.
type twoBankVRAM struct{ banks [2][0x2000]byte }

func (v *twoBankVRAM) Read(addr uint16) byte { return v.ReadBank(0, addr) }
func (v *twoBankVRAM) ReadBank(bank int, addr uint16) byte {
	if addr < 0x8000 || addr >= 0xA000 {
		return 0
	}
	return v.banks[bank][addr-0x8000]
}

func TestUnpackAttr(t *testing.T) {
	attr := unpackAttr(0x80 | 0x40 | 0x20 | 0x08 | 0x05)
	if attr.palette != 5 || attr.bank != 1 || !attr.xflip || !attr.yflip || !attr.priority {
		t.Fatalf("unpacked %+v", attr)
	}
	if a := unpackAttr(0); a != (tileAttr{}) {
		t.Fatalf("zero byte should unpack to the zero attr, got %+v", a)
	}
}

func TestBGScanlineCGBAppliesAttributes(t *testing.T) {
	var v twoBankVRAM
	// Map slot 0 names tile 1; its attribute byte (same slot, bank 1)
	// selects bank 1, both flips, palette 5, priority.
	v.banks[0][0x1800] = 0x01
	v.banks[1][0x1800] = 0x80 | 0x40 | 0x20 | 0x08 | 0x05
	// Tile 1 lives in bank 1; with yflip, line 0 reads tile row 7.
	v.banks[1][0x10+7*2] = 0x0F

	ci, pal, pri := BGScanlineCGB(&v, 0x9800, true, 0, 0, 0)
	if pal[0] != 5 || !pri[0] {
		t.Fatalf("attribute passthrough: pal=%d pri=%v", pal[0], pri[0])
	}
	// Row bits 0x0F occupy the right half; xflip mirrors them to the left.
	for x := 0; x < 4; x++ {
		if ci[x] != 1 {
			t.Fatalf("x=%d = %d, want 1 (xflip should mirror the row)", x, ci[x])
		}
	}
	for x := 4; x < 8; x++ {
		if ci[x] != 0 {
			t.Fatalf("x=%d = %d, want 0", x, ci[x])
		}
	}
}

func TestWindowScanlineCGBBasic(t *testing.T) {
	var v twoBankVRAM
	v.banks[0][0x1800] = 0x02
	v.banks[0][0x20] = 0xFF // tile 2 row 0, bank 0, color 1

	ci, pal, pri := WindowScanlineCGB(&v, 0x9800, true, 0, 0)
	if ci[0] != 1 || pal[0] != 0 || pri[0] {
		t.Fatalf("ci=%d pal=%d pri=%v, want 1/0/false", ci[0], pal[0], pri[0])
	}
}
