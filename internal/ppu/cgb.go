package ppu

// CGB scanline helpers. The DMG pipeline above never touches these; they
// carry the color hardware's per-tile attribute lookup (VRAM bank 1 holds
// an attribute byte per map entry) for a front-end that runs CGB ROMs.

// BankedVRAMReader extends VRAMReader with access to the CGB's second VRAM
// bank, selected per tile by the attribute byte.
type BankedVRAMReader interface {
	VRAMReader
	ReadBank(bank int, addr uint16) byte
}

// tileAttr is one unpacked BG/window map attribute byte.
type tileAttr struct {
	palette  int
	bank     int
	xflip    bool
	yflip    bool
	priority bool
}

func unpackAttr(b byte) tileAttr {
	return tileAttr{
		palette:  int(b & 0x07),
		bank:     int(b >> 3 & 0x01),
		xflip:    b&0x20 != 0,
		yflip:    b&0x40 != 0,
		priority: b&0x80 != 0,
	}
}

// attrTileRow reads one tile row through the attribute's bank and flip bits.
func attrTileRow(mem BankedVRAMReader, data8000 bool, tileNum, fineY byte, attr tileAttr) [8]byte {
	if attr.yflip {
		fineY = 7 - fineY
	}
	addr := tileRowAddr(data8000, tileNum, fineY)
	lo := mem.ReadBank(attr.bank, addr)
	hi := mem.ReadBank(attr.bank, addr+1)
	return decodeTileRow(lo, hi, attr.xflip)
}

// BGScanlineCGB composes 160 background pixels for scanline ly with the CGB
// attribute byte applied per tile, returning the color indices, each
// pixel's palette slot, and the BG-over-object priority bit.
func BGScanlineCGB(mem BankedVRAMReader, mapBase uint16, data8000 bool, scx, scy, ly byte) (ci [160]byte, pal [160]byte, pri [160]bool) {
	bgY := uint16(ly) + uint16(scy)
	mapY := bgY >> 3 & 31
	fineY := byte(bgY & 7)

	for x := 0; x < 160; x++ {
		bgX := (uint16(x) + uint16(scx)) & 0xFF
		slot := mapBase + mapY*32 + bgX>>3&31
		tileNum := mem.ReadBank(0, slot)
		attr := unpackAttr(mem.ReadBank(1, slot))
		row := attrTileRow(mem, data8000, tileNum, fineY, attr)
		ci[x] = row[bgX&7]
		pal[x] = byte(attr.palette)
		pri[x] = attr.priority
	}
	return
}

// WindowScanlineCGB is BGScanlineCGB's window-layer counterpart, filling
// from startX (WX-7) using the window's own line counter.
func WindowScanlineCGB(mem BankedVRAMReader, mapBase uint16, data8000 bool, startX int, winLine byte) (ci [160]byte, pal [160]byte, pri [160]bool) {
	if startX < 0 {
		startX = 0
	}
	mapY := uint16(winLine) >> 3 & 31
	fineY := winLine & 7

	for x := startX; x < 160; x++ {
		winX := uint16(x - startX)
		slot := mapBase + mapY*32 + winX>>3&31
		tileNum := mem.ReadBank(0, slot)
		attr := unpackAttr(mem.ReadBank(1, slot))
		row := attrTileRow(mem, data8000, tileNum, fineY, attr)
		ci[x] = row[winX&7]
		pal[x] = byte(attr.palette)
		pri[x] = attr.priority
	}
	return
}
