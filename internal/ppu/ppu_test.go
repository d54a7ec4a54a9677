package ppu

import "testing"

// statMode reads the current mode bits through the register file.
func statMode(p *PPU) byte { return p.CPURead(0xFF41) & 0x03 }

func TestModeScheduleAcrossOneLine(t *testing.T) {
	p := New(nil)
	p.CPUWrite(0xFF40, 0x80)
	checkpoints := []struct {
		advance int
		mode    byte
		ly      byte
	}{
		{0, 2, 0},           // OAM scan right after LCD on
		{oamScanDots, 3, 0}, // drawing
		{drawDots, 0, 0},    // HBlank for the rest of the line
		{lineDots - oamScanDots - drawDots, 2, 1}, // next line's OAM scan
	}
	for _, cp := range checkpoints {
		p.Tick(cp.advance)
		if m := statMode(p); m != cp.mode {
			t.Fatalf("mode = %d, want %d (ly=%d)", m, cp.mode, cp.ly)
		}
		if ly := p.CPURead(0xFF44); ly != cp.ly {
			t.Fatalf("LY = %d, want %d", ly, cp.ly)
		}
	}
}

func TestFrameCadence(t *testing.T) {
	p := New(nil)
	p.CPUWrite(0xFF40, 0x80) // LCD on: LY=0, mode 2, dot 0
	// Draw-ready rises on the first dot of LY=144.
	p.Tick(144*456 - 1)
	if p.DrawReady() {
		t.Fatalf("draw-ready early: still on line 143")
	}
	p.Tick(1)
	if !p.DrawReady() {
		t.Fatalf("draw-ready not raised on first dot of LY=144")
	}
	// The full frame period is 154 lines * 456 dots = 70224 dots, i.e.
	// 17556 M-cycles between consecutive draw-ready events.
	p.AckDraw()
	p.Tick(70224 - 1)
	if p.DrawReady() {
		t.Fatalf("draw-ready early: frame period shorter than 70224 dots")
	}
	p.Tick(1)
	if !p.DrawReady() {
		t.Fatalf("draw-ready not raised after one full 70224-dot frame")
	}
}

func TestLYCInterruptFiresOncePerFrame(t *testing.T) {
	var statIRQs int
	p := New(func(bit int) {
		if bit == 1 {
			statIRQs++
		}
	})
	p.CPUWrite(0xFF45, 50)
	p.CPUWrite(0xFF41, 1<<6) // LYC enable only
	p.CPUWrite(0xFF40, 0x80)
	p.Tick(70224) // one full frame
	if statIRQs != 1 {
		t.Fatalf("LYC STAT interrupts per frame = %d, want exactly 1", statIRQs)
	}
	if p.CPURead(0xFF41)&(1<<2) != 0 {
		t.Fatalf("coincidence flag still set after wrapping back to LY=0")
	}
}

func TestRenderedBGScanlineUsesBGP(t *testing.T) {
	p := New(nil)
	// Tile 0: every row lo=0xFF, hi=0x00 -> color index 1 across the row.
	for row := 0; row < 8; row++ {
		p.CPUWrite(0x8000+uint16(row)*2, 0xFF)
		p.CPUWrite(0x8001+uint16(row)*2, 0x00)
	}
	// BG map already reads as all zeroes (tile 0 everywhere).
	p.CPUWrite(0xFF47, 0xE4)      // BGP: 3,2,1,0
	p.CPUWrite(0xFF40, 0x91)      // LCD on, BG on, 0x8000 tile addressing
	p.Tick(456)                   // render line 0
	fb := p.Framebuffer()
	want := shadeRGB[(0xE4>>2)&0x03] // palette entry for color index 1
	for x := 0; x < 160; x++ {
		off := x * 3
		if fb[off] != want[0] || fb[off+1] != want[1] || fb[off+2] != want[2] {
			t.Fatalf("pixel (%d,0) = %02x%02x%02x, want %02x%02x%02x",
				x, fb[off], fb[off+1], fb[off+2], want[0], want[1], want[2])
		}
	}
}

func TestWindowLineCounterAdvancesOnlyWhileVisible(t *testing.T) {
	p := New(nil)
	p.CPUWrite(0xFF4A, 10) // WY
	p.CPUWrite(0xFF4B, 7)  // WX: window starts at x=0
	p.CPUWrite(0xFF40, 0x80|0x20|0x01)

	p.Tick(456 * 10) // advance to line 10 (= WY)
	p.Tick(80)       // into mode 3 so line 10's registers latch
	if lr := p.LineRegs(10); lr.WinLine != 0 {
		t.Fatalf("first window line counter = %d, want 0", lr.WinLine)
	}
	p.Tick(456 - 80 + 80) // through to line 11's mode 3
	if lr := p.LineRegs(11); lr.WinLine != 1 {
		t.Fatalf("second window line counter = %d, want 1", lr.WinLine)
	}
}

func TestWindowLineCounterHoldsWhenWXOffscreen(t *testing.T) {
	p := New(nil)
	p.CPUWrite(0xFF4A, 5)
	p.CPUWrite(0xFF4B, 200) // WX > 166: never visible
	p.CPUWrite(0xFF40, 0x80|0x20|0x01)
	p.Tick(456 * 9)
	for y := 5; y <= 8; y++ {
		if p.LineRegs(y).WinLine != 0 {
			t.Fatalf("line %d advanced the window counter with WX offscreen", y)
		}
	}
}

// irqCounter tallies VBlank (bit 0) and STAT (bit 1) requests.
type irqCounter struct{ vblank, stat int }

func (c *irqCounter) request(bit int) {
	if bit == 0 {
		c.vblank++
	} else {
		c.stat++
	}
}

func TestVBlankEntryRaisesBothInterrupts(t *testing.T) {
	var irqs irqCounter
	p := New(irqs.request)
	p.CPUWrite(0xFF41, 1<<4) // STAT-on-VBlank enable
	p.CPUWrite(0xFF40, 0x80)
	p.Tick(visibleLines*lineDots - 1)
	if irqs.vblank != 0 {
		t.Fatalf("VBlank requested before LY=144")
	}
	p.Tick(1)
	if irqs.vblank != 1 {
		t.Fatalf("VBlank requests = %d, want 1 at LY=144 entry", irqs.vblank)
	}
	if irqs.stat == 0 {
		t.Fatalf("STAT-on-VBlank enabled but no STAT request fired")
	}
}

func TestSTATEnablesFireOnModeEdges(t *testing.T) {
	var irqs irqCounter
	p := New(irqs.request)
	p.CPUWrite(0xFF41, (1<<3)|(1<<6)) // HBlank + LYC enables
	p.CPUWrite(0xFF45, 2)
	p.CPUWrite(0xFF40, 0x80)

	p.Tick(oamScanDots + drawDots) // into line 0's HBlank
	if irqs.stat == 0 {
		t.Fatalf("no STAT request on HBlank entry")
	}

	before := irqs.stat
	p.Tick(2 * lineDots) // cross into LY=2, the LYC match
	if p.CPURead(0xFF41)&(1<<2) == 0 {
		t.Fatalf("coincidence flag clear at LY==LYC")
	}
	if irqs.stat <= before {
		t.Fatalf("no STAT request for the LYC match")
	}
}
