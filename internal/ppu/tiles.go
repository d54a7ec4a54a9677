package ppu

// VRAMReader is the read-only view the scanline compositors pull tile data
// through. The live PPU serves its own VRAM array (see vramView in ppu.go);
// tests substitute a map.
type VRAMReader interface {
	Read(addr uint16) byte
}

// tileRowAddr resolves a tile index to the VRAM address of one of its rows.
// With data8000 the index is unsigned off 0x8000; otherwise it is signed off
// 0x9000 (the 0x8800 addressing mode).
func tileRowAddr(data8000 bool, tileNum, fineY byte) uint16 {
	if data8000 {
		return 0x8000 + uint16(tileNum)*16 + uint16(fineY)*2
	}
	return uint16(0x9000 + int32(int8(tileNum))*16 + int32(fineY)*2)
}

// decodeTileRow expands a row's two bitplanes into eight 2-bit color
// indices in screen order, optionally mirrored.
func decodeTileRow(lo, hi byte, xflip bool) [8]byte {
	var row [8]byte
	for px := 0; px < 8; px++ {
		bit := 7 - px
		if xflip {
			bit = px
		}
		row[px] = (hi>>bit&1)<<1 | lo>>bit&1
	}
	return row
}

// pixelFIFO queues decoded color indices between the fetcher and the
// compositor. One tile fetch pushes eight pixels; the compositor pops one
// per dot and asks for a refill when it runs dry.
type pixelFIFO struct {
	pixels [16]byte
	head   int
	count  int
}

func (q *pixelFIFO) len() int { return q.count }

func (q *pixelFIFO) pushRow(row [8]byte) {
	for _, ci := range row {
		if q.count == len(q.pixels) {
			return
		}
		q.pixels[(q.head+q.count)%len(q.pixels)] = ci
		q.count++
	}
}

func (q *pixelFIFO) pop() byte {
	if q.count == 0 {
		return 0
	}
	v := q.pixels[q.head]
	q.head = (q.head + 1) % len(q.pixels)
	q.count--
	return v
}

// drop discards n queued pixels; the compositor uses it to eat the SCX&7
// fine-scroll remainder at the start of a line.
func (q *pixelFIFO) drop(n int) {
	for i := 0; i < n && q.count > 0; i++ {
		q.pop()
	}
}

// tileFetcher walks one map row, decoding a tile row per fetch into the
// FIFO. The same fetcher serves the background and the window; they differ
// only in which map base and starting column they configure.
type tileFetcher struct {
	mem      VRAMReader
	mapBase  uint16 // 0x9800 or 0x9C00
	data8000 bool
	mapY     uint16 // tile row within the 32x32 map
	tileX    uint16 // current tile column, wraps at 32
	fineY    byte   // pixel row within the tile
}

// fetchInto decodes the current tile's row into the FIFO and advances to
// the next map column.
func (f *tileFetcher) fetchInto(q *pixelFIFO) {
	tileNum := f.mem.Read(f.mapBase + f.mapY*32 + f.tileX)
	addr := tileRowAddr(f.data8000, tileNum, f.fineY)
	lo := f.mem.Read(addr)
	hi := f.mem.Read(addr + 1)
	q.pushRow(decodeTileRow(lo, hi, false))
	f.tileX = (f.tileX + 1) & 31
}
