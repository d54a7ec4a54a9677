package mmu

import "testing"

func TestEchoRAMMirror(t *testing.T) {
	b := New(make([]byte, 0x8000))
	b.Write(0xC010, 0x42)
	if got := b.Read(0xE010); got != 0x42 {
		t.Fatalf("echo read = %#02x, want 0x42", got)
	}
	b.Write(0xE020, 0x99)
	if got := b.Read(0xC020); got != 0x99 {
		t.Fatalf("echo write-back read = %#02x, want 0x99", got)
	}
}

func TestReadRangeCopiesContiguousBlock(t *testing.T) {
	b := New(make([]byte, 0x8000))
	for i := 0; i < 16; i++ {
		b.Write(0xC200+uint16(i), byte(0xA0+i))
	}
	got := b.ReadRange(0xC200, 0xC20F)
	if len(got) != 16 {
		t.Fatalf("ReadRange length = %d, want 16", len(got))
	}
	for i, v := range got {
		if v != byte(0xA0+i) {
			t.Fatalf("ReadRange[%d] = %#02x, want %#02x", i, v, byte(0xA0+i))
		}
	}
	b.SetStrict(true)
	_ = b.ReadRange(0xC300, 0xC30F)
	if err := b.TakeError(); err != nil {
		t.Fatalf("ReadRange should not raise strict-mode errors, got %v", err)
	}
}

func TestProhibitedRegionReadsFFAndDropsWrites(t *testing.T) {
	b := New(make([]byte, 0x8000))
	for addr := uint16(0xFEA0); addr <= 0xFEFF; addr++ {
		b.Write(addr, 0x12)
		if got := b.Read(addr); got != 0xFF {
			t.Fatalf("prohibited read at %#04x = %#02x, want 0xFF", addr, got)
		}
	}
}

func TestLY_WriteResetsToZero(t *testing.T) {
	b := New(make([]byte, 0x8000))
	for i := 0; i < 200; i++ {
		b.Tick(1)
	}
	b.Write(0xFF44, 0xFF)
	if got := b.Read(0xFF44); got != 0 {
		t.Fatalf("LY after write = %d, want 0", got)
	}
}

func TestDMACopiesWRAMIntoOAMAfter160Cycles(t *testing.T) {
	b := New(make([]byte, 0x8000))
	for i := 0; i < 0xA0; i++ {
		b.Write(0xC100+uint16(i), byte(i))
	}
	b.Write(0xFF46, 0xC1)
	// One byte per M-cycle: the transfer needs 160 M-cycles (640 T-cycles),
	// and OAM stays gated from the CPU the whole way through.
	b.Tick(639)
	if !b.dmaActive {
		t.Fatalf("DMA finished early: should still be active one T-cycle before completion")
	}
	if got := b.Read(0xFE00); got != 0xFF {
		t.Fatalf("OAM read mid-DMA = %#02x, want 0xFF", got)
	}
	b.Tick(1)
	if b.dmaActive {
		t.Fatalf("DMA still active after 160 M-cycles")
	}
	for i := 0; i < 0xA0; i++ {
		got := b.ppu.CPURead(0xFE00 + uint16(i))
		if got != byte(i) {
			t.Fatalf("OAM[%d] = %#02x, want %#02x", i, got, byte(i))
		}
	}
}

func TestDMABlocksOAMReadsWhileActive(t *testing.T) {
	b := New(make([]byte, 0x8000))
	b.Write(0xFF46, 0x00)
	if got := b.Read(0xFE00); got != 0xFF {
		t.Fatalf("OAM read during DMA = %#02x, want 0xFF", got)
	}
}

func TestTimerFallingEdgeIncrementsTIMA(t *testing.T) {
	b := New(make([]byte, 0x8000))
	b.Write(0xFF07, 0x05) // enabled, bit 3 (262144 Hz)
	for i := 0; i < 16; i++ {
		b.Tick(1)
	}
	if b.tmr.tima == 0 {
		t.Fatalf("TIMA did not increment on falling edge")
	}
}

func TestTIMAOverflowReloadsFromTMAAndRequestsInterrupt(t *testing.T) {
	b := New(make([]byte, 0x8000))
	b.Write(0xFF06, 0x7F)
	b.Write(0xFF05, 0xFF)
	b.Write(0xFF07, 0x05)
	for i := 0; i < 64; i++ {
		b.Tick(1)
		if b.tmr.tima == 0x7F {
			break
		}
	}
	if b.tmr.tima != 0x7F {
		t.Fatalf("TIMA = %#02x after overflow window, want reload to TMA=0x7F", b.tmr.tima)
	}
	if b.Read(0xFF0F)&(1<<2) == 0 {
		t.Fatalf("timer interrupt not requested on overflow")
	}
}

func TestJoypadInterruptOnPressEdge(t *testing.T) {
	b := New(make([]byte, 0x8000))
	b.Write(0xFF00, 0x20) // select direction buttons
	b.SetJoypadState(JoypUp)
	if b.Read(0xFF0F)&(1<<4) == 0 {
		t.Fatalf("joypad interrupt not requested on press edge")
	}
}

func TestStrictModeFlagsUninitializedWRAMRead(t *testing.T) {
	b := New(make([]byte, 0x8000))
	b.SetStrict(true)
	b.Read(0xC000)
	if err := b.TakeError(); err == nil {
		t.Fatalf("expected UninitReadError for never-written WRAM cell")
	}
	b.Write(0xC000, 0x01)
	b.Read(0xC000)
	if err := b.TakeError(); err != nil {
		t.Fatalf("unexpected error after write: %v", err)
	}
}

func TestBootROMOverlayAndDisable(t *testing.T) {
	rom := make([]byte, 0x8000)
	rom[0] = 0xAA
	b := New(rom)
	boot := make([]byte, 0x100)
	boot[0] = 0xBB
	b.SetBootROM(boot)
	if got := b.Read(0x0000); got != 0xBB {
		t.Fatalf("boot overlay read = %#02x, want 0xBB", got)
	}
	b.Write(0xFF50, 0x01)
	if got := b.Read(0x0000); got != 0xAA {
		t.Fatalf("post-disable read = %#02x, want cartridge 0xAA", got)
	}
}

func TestReadSerialReturnsByteOnTransferStart(t *testing.T) {
	b := New(make([]byte, 0x8000))
	if _, ok := b.ReadSerial(); ok {
		t.Fatalf("expected no pending serial byte initially")
	}
	b.Write(0xFF01, 0x42)
	b.Write(0xFF02, 0x81)
	v, ok := b.ReadSerial()
	if !ok || v != 0x42 {
		t.Fatalf("ReadSerial() = (%#02x, %v), want (0x42, true)", v, ok)
	}
	if _, ok := b.ReadSerial(); ok {
		t.Fatalf("expected serial byte to be consumed")
	}
}
