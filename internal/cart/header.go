package cart

import (
	"encoding/binary"
	"errors"
	"strings"
)

// Cartridge header layout, 0x0100-0x014F.
const (
	addrLogo           = 0x0104
	addrTitle          = 0x0134
	addrCGBFlag        = 0x0143
	addrNewLicensee    = 0x0144
	addrSGBFlag        = 0x0146
	addrCartType       = 0x0147
	addrROMSize        = 0x0148
	addrRAMSize        = 0x0149
	addrDestination    = 0x014A
	addrOldLicensee    = 0x014B
	addrROMVersion     = 0x014C
	addrHeaderChecksum = 0x014D
	addrGlobalChecksum = 0x014E
	headerEnd          = 0x014F
)

// ErrNoHeader is returned when the image is too small to hold a header.
var ErrNoHeader = errors.New("cart: image too small to contain a header")

// Header is the parsed cartridge header plus a few decoded convenience
// fields for logging and bank setup.
type Header struct {
	Title          string
	CGBFlag        byte
	NewLicensee    string
	SGBFlag        byte
	CartType       byte
	ROMSizeCode    byte
	RAMSizeCode    byte
	Destination    byte
	OldLicensee    byte
	ROMVersion     byte
	HeaderChecksum byte
	GlobalChecksum uint16

	ROMSizeBytes int
	ROMBanks     int
	RAMSizeBytes int
	CartTypeStr  string
}

// ramSizes maps the 0x0149 code to external RAM bytes. Codes 0x01 and
// anything unlisted decode to zero.
var ramSizes = map[byte]int{
	0x02: 8 << 10,
	0x03: 32 << 10,
	0x04: 128 << 10,
	0x05: 64 << 10,
}

// ParseHeader decodes the header region of a raw ROM image. It does not
// validate checksums or the logo; use HeaderChecksumOK / LogoOK for that.
func ParseHeader(rom []byte) (*Header, error) {
	if len(rom) <= headerEnd {
		return nil, ErrNoHeader
	}
	h := &Header{
		Title:          strings.TrimRight(string(rom[addrTitle:addrCGBFlag+1]), "\x00"),
		CGBFlag:        rom[addrCGBFlag],
		NewLicensee:    string(rom[addrNewLicensee : addrNewLicensee+2]),
		SGBFlag:        rom[addrSGBFlag],
		CartType:       rom[addrCartType],
		ROMSizeCode:    rom[addrROMSize],
		RAMSizeCode:    rom[addrRAMSize],
		Destination:    rom[addrDestination],
		OldLicensee:    rom[addrOldLicensee],
		ROMVersion:     rom[addrROMVersion],
		HeaderChecksum: rom[addrHeaderChecksum],
		GlobalChecksum: binary.BigEndian.Uint16(rom[addrGlobalChecksum : addrGlobalChecksum+2]),
	}
	h.ROMSizeBytes = decodeROMSize(h.ROMSizeCode)
	h.ROMBanks = h.ROMSizeBytes / 0x4000
	h.RAMSizeBytes = ramSizes[h.RAMSizeCode]
	h.CartTypeStr = describeCartType(h.CartType)
	return h, nil
}

// decodeROMSize returns the ROM's total byte count for a 0x0148 code.
// Regular codes are 32 KiB << code; the 0x52-0x54 oddballs are listed as-is.
func decodeROMSize(code byte) int {
	switch {
	case code <= 0x08:
		return (32 << 10) << code
	case code == 0x52:
		return 72 * 0x4000
	case code == 0x53:
		return 80 * 0x4000
	case code == 0x54:
		return 96 * 0x4000
	default:
		return 0
	}
}

func describeCartType(code byte) string {
	switch code {
	case 0x00:
		return "ROM ONLY"
	case 0x01:
		return "MBC1"
	case 0x02:
		return "MBC1+RAM"
	case 0x03:
		return "MBC1+RAM+BATTERY"
	case 0x05, 0x06:
		return "MBC2 (unsupported)"
	case 0x0F, 0x10, 0x11, 0x12, 0x13:
		return "MBC3 (unsupported)"
	case 0x19, 0x1A, 0x1B, 0x1C, 0x1D, 0x1E:
		return "MBC5 (unsupported)"
	default:
		return "unknown"
	}
}

// HeaderChecksumOK recomputes the 0x0134-0x014C checksum and compares it to
// the stored byte at 0x014D.
func HeaderChecksumOK(rom []byte) bool {
	if len(rom) <= addrHeaderChecksum {
		return false
	}
	var sum byte
	for _, v := range rom[addrTitle:addrHeaderChecksum] {
		sum -= v + 1
	}
	return sum == rom[addrHeaderChecksum]
}

// bootLogo is the 48-byte bitmap at 0x0104 the boot ROM insists on.
var bootLogo = [48]byte{
	0xCE, 0xED, 0x66, 0x66, 0xCC, 0x0D, 0x00, 0x0B, 0x03, 0x73, 0x00, 0x83,
	0x00, 0x0C, 0x00, 0x0D, 0x00, 0x08, 0x11, 0x1F, 0x88, 0x89, 0x00, 0x0E,
	0xDC, 0xCC, 0x6E, 0xE6, 0xDD, 0xDD, 0xD9, 0x99, 0xBB, 0xBB, 0x67, 0x63,
	0x6E, 0x0E, 0xEC, 0xCC, 0xDD, 0xDC, 0x99, 0x9F, 0xBB, 0xB9, 0x33, 0x3E,
}

// LogoOK reports whether the image carries the boot logo bitmap. Homebrew
// and test ROMs often omit it; the emulator never requires it, but the
// doctor command reports it.
func LogoOK(rom []byte) bool {
	if len(rom) < addrLogo+len(bootLogo) {
		return false
	}
	for i, v := range bootLogo {
		if rom[addrLogo+i] != v {
			return false
		}
	}
	return true
}
