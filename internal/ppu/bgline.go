package ppu

// bgScanline composes the 160 background color indices for scanline ly,
// honoring SCX/SCY wrap-around on the 256x256 tile plane.
func bgScanline(mem VRAMReader, mapBase uint16, data8000 bool, scx, scy, ly byte) [160]byte {
	var out [160]byte

	bgY := uint16(ly) + uint16(scy)
	f := tileFetcher{
		mem:      mem,
		mapBase:  mapBase,
		data8000: data8000,
		mapY:     bgY >> 3 & 31,
		tileX:    uint16(scx) >> 3 & 31,
		fineY:    byte(bgY & 7),
	}

	var q pixelFIFO
	f.fetchInto(&q)
	q.drop(int(scx & 7))

	for x := 0; x < 160; x++ {
		if q.len() == 0 {
			f.fetchInto(&q)
		}
		out[x] = q.pop()
	}
	return out
}

// windowScanline composes the window layer from startX (WX-7) rightward.
// winLine is the window's own line counter, not ly: the window resumes from
// its last rendered row when it reappears mid-frame. Pixels left of startX
// stay 0 and the caller overlays only from startX on.
func windowScanline(mem VRAMReader, mapBase uint16, data8000 bool, startX int, winLine byte) [160]byte {
	var out [160]byte
	if startX >= 160 {
		return out
	}
	if startX < 0 {
		startX = 0
	}

	f := tileFetcher{
		mem:      mem,
		mapBase:  mapBase,
		data8000: data8000,
		mapY:     uint16(winLine) >> 3 & 31,
		fineY:    winLine & 7,
	}

	var q pixelFIFO
	f.fetchInto(&q)
	for x := startX; x < 160; x++ {
		if q.len() == 0 {
			f.fetchInto(&q)
		}
		out[x] = q.pop()
	}
	return out
}
