package ppu

// CPU-facing access to VRAM, OAM, and the FF40-FF4B register file. VRAM is
// unreadable during mode 3 and OAM during modes 2 and 3; gated reads see
// 0xFF and gated writes are dropped.

func (p *PPU) mode() byte { return p.stat & 0x03 }

// CPURead serves loads the MMU routes here; unmapped addresses read 0xFF.
func (p *PPU) CPURead(addr uint16) byte {
	if addr >= 0x8000 && addr <= 0x9FFF {
		if p.mode() == 3 {
			return 0xFF
		}
		return p.vram[addr-0x8000]
	}
	if addr >= 0xFE00 && addr <= 0xFE9F {
		if m := p.mode(); m == 2 || m == 3 {
			return 0xFF
		}
		return p.oam[addr-0xFE00]
	}
	switch addr {
	case 0xFF40:
		return p.lcdc
	case 0xFF41:
		// Bit 7 reads high; then enables, the coincidence flag, the mode.
		return 0x80 | p.stat
	case 0xFF42:
		return p.scy
	case 0xFF43:
		return p.scx
	case 0xFF44:
		return p.ly
	case 0xFF45:
		return p.lyc
	case 0xFF47:
		return p.bgp
	case 0xFF48:
		return p.obp0
	case 0xFF49:
		return p.obp1
	case 0xFF4A:
		return p.wy
	case 0xFF4B:
		return p.wx
	}
	return 0xFF
}

// CPUWrite serves stores the MMU routes here; unmapped addresses drop.
func (p *PPU) CPUWrite(addr uint16, value byte) {
	if addr >= 0x8000 && addr <= 0x9FFF {
		if p.mode() != 3 {
			p.vram[addr-0x8000] = value
		}
		return
	}
	if addr >= 0xFE00 && addr <= 0xFE9F {
		if m := p.mode(); m != 2 && m != 3 {
			p.oam[addr-0xFE00] = value
		}
		return
	}
	switch addr {
	case 0xFF40:
		p.writeLCDC(value)
	case 0xFF41:
		// Mode and coincidence bits are read-only.
		p.stat = p.stat&0x07 | value&0x78
	case 0xFF42:
		p.scy = value
	case 0xFF43:
		p.scx = value
	case 0xFF44:
		// LY is read-only; a write resets the scan position.
		p.ly = 0
		p.dot = 0
		p.compareLYC()
		if p.lcdc&0x80 != 0 {
			p.setMode(2)
		}
	case 0xFF45:
		p.lyc = value
		p.compareLYC()
	case 0xFF47:
		p.bgp = value
	case 0xFF48:
		p.obp0 = value
	case 0xFF49:
		p.obp1 = value
	case 0xFF4A:
		p.wy = value
	case 0xFF4B:
		p.wx = value
	}
}

// writeLCDC handles the display-enable edges: switching the LCD off parks
// the PPU at LY=0 mode 0, switching it on restarts a frame at LY=0 mode 2.
func (p *PPU) writeLCDC(value byte) {
	prev := p.lcdc
	p.lcdc = value
	if prev&0x80 == value&0x80 {
		return
	}
	p.ly = 0
	p.dot = 0
	p.winLineCounter = 0
	if value&0x80 != 0 {
		p.setMode(2)
	} else {
		p.setMode(0)
	}
	p.compareLYC()
}

// OAMWrite stores an OAM byte directly, bypassing the CPU-facing gate. OAM
// DMA uses it: the DMA engine owns the bus during a transfer, so its writes
// land regardless of the current mode.
func (p *PPU) OAMWrite(off uint16, value byte) {
	if off < uint16(len(p.oam)) {
		p.oam[off] = value
	}
}
