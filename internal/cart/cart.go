// Package cart models the cartridge side of the bus: header parsing and the
// two supported mapper variants, ROM-only and MBC1.
package cart

// Cartridge is what the MMU sees of a cartridge: ROM reads at 0x0000-0x7FFF,
// external RAM at 0xA000-0xBFFF, and mapper control writes in the ROM range.
type Cartridge interface {
	Read(addr uint16) byte
	Write(addr uint16, value byte)
}

// New inspects the header's cartridge-type byte and builds the matching
// mapper. Unsupported types fall back to ROM-only so misreporting homebrew
// and test ROMs still boot.
func New(rom []byte) Cartridge {
	h, err := ParseHeader(rom)
	if err != nil {
		return NewROMOnly(rom, 0)
	}
	switch h.CartType {
	case 0x01, 0x02, 0x03:
		return NewMBC1(rom, h.RAMSizeBytes)
	default:
		return NewROMOnly(rom, h.RAMSizeBytes)
	}
}
