package ppu

import "testing"

// writeOAM fills one OAM slot with raw hardware values (y+16, x+8).
func writeOAM(p *PPU, slot int, y, x int, tile, attr byte) {
	p.oam[slot*4+0] = byte(y + 16)
	p.oam[slot*4+1] = byte(x + 8)
	p.oam[slot*4+2] = tile
	p.oam[slot*4+3] = attr
}

func TestLineObjectsSelectionAndLimit(t *testing.T) {
	p := New(nil)
	// Twelve objects on line 10; only the first ten OAM slots qualify.
	for i := 0; i < 12; i++ {
		writeOAM(p, i, 10, i*8, byte(i), 0)
	}
	writeOAM(p, 20, 40, 0, 0, 0) // different line, never selected
	objs := p.lineObjects(10)
	if len(objs) != 10 {
		t.Fatalf("selected %d objects, want the 10-per-line limit", len(objs))
	}
	for i, o := range objs {
		if o.index != i {
			t.Fatalf("selection out of OAM order: slot %d at position %d", o.index, i)
		}
	}
}

func TestLineObjectsTallMode(t *testing.T) {
	p := New(nil)
	p.lcdc |= 0x04 // 8x16 objects
	writeOAM(p, 0, 0, 0, 0x07, 0)
	objs := p.lineObjects(12) // row 12 only exists at height 16
	if len(objs) != 1 {
		t.Fatalf("tall object not selected on its lower half")
	}
	if objs[0].tile != 0x06 {
		t.Fatalf("tall mode tile = %#02x, want low bit cleared (0x06)", objs[0].tile)
	}
}

func TestObjectScanlineTransparencyAndBGPriority(t *testing.T) {
	mem := tileMap{}
	// Tile 0 row 5: only the leftmost pixel opaque (color 1).
	mem[0x8000+5*2] = 0x80

	p := New(nil)
	writeOAM(p, 0, 0, 10, 0, 0)
	objs := p.lineObjects(5)

	var bg [160]byte
	ci, _ := objectScanline(mem, objs, 5, &bg, false)
	if ci[10] != 1 {
		t.Fatalf("object pixel at x=10 = %d, want 1", ci[10])
	}
	if ci[11] != 0 {
		t.Fatalf("transparent object pixel leaked at x=11")
	}

	// Behind-BG attribute hides the pixel wherever the BG is nonzero.
	p.oam[3] = objBehindBG
	bg[10] = 2
	ci, _ = objectScanline(mem, p.lineObjects(5), 5, &bg, false)
	if ci[10] != 0 {
		t.Fatalf("behind-BG object should lose to a nonzero BG pixel")
	}
	bg[10] = 0
	ci, _ = objectScanline(mem, p.lineObjects(5), 5, &bg, false)
	if ci[10] != 1 {
		t.Fatalf("behind-BG object should win over BG color 0")
	}
}

func TestObjectScanlineOverlapGoesToSmallerX(t *testing.T) {
	mem := tileMap{}
	mem[0x8000] = 0xFF // tile 0 row 0 solid color 1
	mem[0x8000+16+1] = 0xFF // tile 1 row 0 solid color 2

	p := New(nil)
	writeOAM(p, 3, 0, 22, 0, 0) // earlier slot, larger X
	writeOAM(p, 7, 0, 20, 1, 0) // later slot, smaller X: wins the overlap
	objs := p.lineObjects(0)

	var bg [160]byte
	ci, _ := objectScanline(mem, objs, 0, &bg, false)
	for x := 20; x < 28; x++ {
		if ci[x] != 2 {
			t.Fatalf("x=%d = %d, want color 2 from the leftmost object", x, ci[x])
		}
	}
	if ci[28] != 1 || ci[29] != 1 {
		t.Fatalf("right tail should fall back to the other object")
	}
}

func TestObjectScanlineFlipsAndPalette(t *testing.T) {
	mem := tileMap{}
	// Tile 0: row 0 has only bit 7 set, row 7 has only bit 0.
	mem[0x8000] = 0x80
	mem[0x8000+7*2] = 0x01

	p := New(nil)
	writeOAM(p, 0, 0, 0, 0, objYFlip|objXFlip|objAltPal)
	objs := p.lineObjects(0)

	var bg [160]byte
	// Line 0 with yflip reads tile row 7; its bit-0 pixel is normally
	// rightmost (x=7), and xflip mirrors it to x=0.
	ci, alt := objectScanline(mem, objs, 0, &bg, false)
	if ci[0] != 1 {
		t.Fatalf("y+x flipped pixel not at x=0: row=%v", ci[:8])
	}
	if !alt[0] {
		t.Fatalf("palette attribute not reported")
	}
}
