// Package ppu models the Game Boy's pixel pipeline: VRAM/OAM storage, the
// LCDC/STAT/LY timing state machine, and the BG/window/object compositor
// that turns that state into a 160x144 framebuffer once per frame.
package ppu

// Dot schedule per scanline. Mode 3 is modeled at its 172-dot minimum and
// HBlank absorbs the remainder, keeping every line exactly 456 dots.
const (
	oamScanDots = 80
	drawDots    = 172
	lineDots    = 456

	visibleLines = 144
	totalLines   = 154
)

// InterruptRequester receives IF bit requests: 0 for VBlank, 1 for STAT.
type InterruptRequester func(bit int)

// shadeRGB maps a 2-bit DMG shade (post-palette) to a 24-bit color.
var shadeRGB = [4][3]byte{
	{0xFF, 0xFF, 0xFF},
	{0xAA, 0xAA, 0xAA},
	{0x55, 0x55, 0x55},
	{0x00, 0x00, 0x00},
}

// LineRegs is the snapshot of compositing registers latched when a line
// enters mode 3, so later same-frame writes to scroll or palettes cannot
// retroactively change a line that already rendered.
type LineRegs struct {
	SCX, SCY, LCDC, WX, WY, BGP, OBP0, OBP1 byte
	WinLine                                 byte
}

// PPU is the pixel processing unit: memory, register file, mode state
// machine, and the per-line compositor feeding the framebuffer.
type PPU struct {
	vram [0x2000]byte // 0x8000-0x9FFF
	oam  [0xA0]byte   // 0xFE00-0xFE9F

	lcdc byte
	stat byte // mode in bits 1-0, LYC flag bit 2, enables bits 3-6
	scy  byte
	scx  byte
	ly   byte
	lyc  byte
	bgp  byte
	obp0 byte
	obp1 byte
	wy   byte
	wx   byte

	dot int // within the current line, 0..455

	winLineCounter int
	lineRegs       [visibleLines]LineRegs

	fb        [160 * visibleLines * 3]byte
	drawReady bool

	req InterruptRequester
}

// New builds a PPU; req may be nil when no interrupt wiring is wanted.
func New(req InterruptRequester) *PPU { return &PPU{req: req} }

// vramView reads VRAM for the compositor without the CPU-facing mode-3
// gate: the compositor runs inside Tick, not as a bus access, so it always
// sees the true tile data.
type vramView struct{ p *PPU }

func (v vramView) Read(addr uint16) byte {
	if addr < 0x8000 || addr > 0x9FFF {
		return 0xFF
	}
	return v.p.vram[addr-0x8000]
}

// Tick advances the state machine by the given number of dots. A scanline
// composites into the framebuffer when its mode 3 ends, and the draw-ready
// flag rises on the first dot of VBlank.
func (p *PPU) Tick(dots int) {
	for i := 0; i < dots; i++ {
		if p.lcdc&0x80 == 0 {
			continue // LCD off: no clock
		}
		p.dot++
		if p.dot >= lineDots {
			p.dot = 0
			p.nextLine()
		}
		p.setMode(p.modeForDot())
	}
}

// modeForDot derives the mode from the current line and dot position.
func (p *PPU) modeForDot() byte {
	switch {
	case p.ly >= visibleLines:
		return 1
	case p.dot < oamScanDots:
		return 2
	case p.dot < oamScanDots+drawDots:
		return 3
	default:
		return 0
	}
}

// nextLine rolls LY over, firing the VBlank edge and frame wrap.
func (p *PPU) nextLine() {
	p.ly++
	switch {
	case p.ly == visibleLines:
		p.drawReady = true
		p.requestIF(0)
		if p.stat&(1<<4) != 0 {
			p.requestIF(1)
		}
	case p.ly >= totalLines:
		p.ly = 0
		p.winLineCounter = 0
	}
	p.compareLYC()
}

// setMode transitions STAT's mode bits, rendering the finished line on the
// 3->0 edge, latching registers on entry to 3, and firing the STAT enables.
func (p *PPU) setMode(mode byte) {
	prev := p.stat & 0x03
	if prev == mode {
		return
	}
	if prev == 3 && mode == 0 {
		p.renderLine(p.ly)
	}
	if mode == 3 {
		p.latchLineRegs(p.ly)
	}
	p.stat = p.stat&^0x03 | mode
	if mode == 0 && p.stat&(1<<3) != 0 {
		p.requestIF(1)
	}
	if mode == 2 && p.stat&(1<<5) != 0 {
		p.requestIF(1)
	}
}

// compareLYC refreshes the coincidence flag and fires the LYC STAT enable.
func (p *PPU) compareLYC() {
	if p.ly != p.lyc {
		p.stat &^= 1 << 2
		return
	}
	p.stat |= 1 << 2
	if p.stat&(1<<6) != 0 {
		p.requestIF(1)
	}
}

func (p *PPU) requestIF(bit int) {
	if p.req != nil {
		p.req(bit)
	}
}

// latchLineRegs captures the compositing registers for line ly and advances
// the window line counter on lines where the window actually paints.
func (p *PPU) latchLineRegs(ly byte) {
	if ly >= visibleLines {
		return
	}
	lr := LineRegs{
		SCX: p.scx, SCY: p.scy, LCDC: p.lcdc,
		WX: p.wx, WY: p.wy,
		BGP: p.bgp, OBP0: p.obp0, OBP1: p.obp1,
	}
	if p.lcdc&0x20 != 0 && ly >= p.wy && p.wx <= 166 {
		lr.WinLine = byte(p.winLineCounter)
		p.winLineCounter++
	}
	p.lineRegs[ly] = lr
}

// renderLine composes the BG, window, and object layers for line ly into
// the framebuffer, using the registers latched at its mode-3 entry.
func (p *PPU) renderLine(ly byte) {
	if ly >= visibleLines {
		return
	}
	lr := p.lineRegs[ly]
	mem := vramView{p}
	data8000 := lr.LCDC&0x10 != 0

	var bgci [160]byte
	if lr.LCDC&0x01 != 0 {
		bgci = bgScanline(mem, mapBaseFor(lr.LCDC, 0x08), data8000, lr.SCX, lr.SCY, ly)
	}

	if lr.LCDC&0x20 != 0 && ly >= lr.WY && lr.WX <= 166 {
		wxStart := int(lr.WX) - 7
		winRow := windowScanline(mem, mapBaseFor(lr.LCDC, 0x40), data8000, wxStart, lr.WinLine)
		for x := max(wxStart, 0); x < 160; x++ {
			bgci[x] = winRow[x]
		}
	}

	var objCI [160]byte
	var objAltPal [160]bool
	if lr.LCDC&0x02 != 0 {
		objCI, objAltPal = objectScanline(mem, p.lineObjects(ly), ly, &bgci, lr.LCDC&0x04 != 0)
	}

	row := p.fb[int(ly)*160*3:]
	for x := 0; x < 160; x++ {
		var shade byte
		switch {
		case objCI[x] != 0:
			pal := lr.OBP0
			if objAltPal[x] {
				pal = lr.OBP1
			}
			shade = pal >> (objCI[x] * 2) & 0x03
		case lr.LCDC&0x01 != 0:
			shade = lr.BGP >> (bgci[x] * 2) & 0x03
		}
		rgb := shadeRGB[shade]
		copy(row[x*3:x*3+3], rgb[:])
	}
}

// mapBaseFor picks the 0x9800/0x9C00 tilemap from an LCDC selector bit.
func mapBaseFor(lcdc, bit byte) uint16 {
	if lcdc&bit != 0 {
		return 0x9C00
	}
	return 0x9800
}

// Framebuffer returns the 160x144x3 packed RGB buffer, updated a line at a
// time. Callers coordinate through DrawReady/AckDraw rather than reading
// concurrently with Tick.
func (p *PPU) Framebuffer() []byte { return p.fb[:] }

// DrawReady reports whether a frame completed since the last AckDraw.
func (p *PPU) DrawReady() bool { return p.drawReady }

// AckDraw acknowledges the current framebuffer contents.
func (p *PPU) AckDraw() { p.drawReady = false }

// LineRegs returns the snapshot latched at line ly's mode-3 entry, for
// tests and debug tooling.
func (p *PPU) LineRegs(ly int) LineRegs {
	if ly < 0 || ly >= visibleLines {
		return LineRegs{}
	}
	return p.lineRegs[ly]
}
