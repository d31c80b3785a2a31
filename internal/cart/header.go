package cart

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"
)

const (
	headerEnd = 0x014F

	addrTitle       = 0x0134
	addrManufacture = 0x013F
	addrCGBFlag     = 0x0143
	addrNewLicensee = 0x0144
	addrSGBFlag     = 0x0146
	addrCartType    = 0x0147
	addrROMSize     = 0x0148
	addrRAMSize     = 0x0149
	addrDestination = 0x014A
	addrOldLicensee = 0x014B
	addrVersion     = 0x014C
	addrHeaderSum   = 0x014D
	addrGlobalSum   = 0x014E
)

var nintendoLogo = [48]byte{
	0xCE, 0xED, 0x66, 0x66, 0xCC, 0x0D, 0x00, 0x0B, 0x03, 0x73, 0x00, 0x83, 0x00, 0x0C, 0x00, 0x0D,
	0x00, 0x08, 0x11, 0x1F, 0x88, 0x89, 0x00, 0x0E, 0xDC, 0xCC, 0x6E, 0xE6, 0xDD, 0xDD, 0xD9, 0x99,
	0xBB, 0xBB, 0x67, 0x63, 0x6E, 0x0E, 0xEC, 0xCC, 0xDD, 0xDC, 0x99, 0x9F, 0xBB, 0xB9, 0x33, 0x3E,
}

// ErrShortROM is returned for buffers too small to hold a header.
var ErrShortROM = errors.New("cart: ROM too small to contain header")

// DeviceMode says which hardware a cartridge targets.
type DeviceMode uint8

const (
	Classic DeviceMode = iota // DMG only
	Color                     // CGB only
	Any                       // CGB features, runs on DMG
)

func (m DeviceMode) String() string {
	return [...]string{"classic", "color", "any"}[m]
}

type Header struct {
	Title          string
	Manufacturer   string // 0x013F-0x0142, CGB-era carts only
	CGBFlag        byte   // 0x0143
	Mode           DeviceMode
	NewLicensee    string // 0x0144-0x0145 (ASCII), if old==0x33
	LicenseeID     uint16
	SGBFlag        byte // 0x0146
	SGB            bool
	CartType       byte // 0x0147
	Controller     Controller
	ROMSizeCode    byte   // 0x0148
	RAMSizeCode    byte   // 0x0149
	Destination    byte   // 0x014A
	OldLicensee    byte   // 0x014B
	ROMVersion     byte   // 0x014C
	HeaderChecksum byte   // 0x014D
	GlobalChecksum uint16 // 0x014E-0x014F
	LogoOK         bool

	// Decoded helpers (for logs)
	ROMSizeBytes int
	ROMBanks     int
	RAMSizeBytes int
	CartTypeStr  string
}

// ParseHeader decodes the cartridge header. It fails for short buffers and
// for controller or RAM size codes the emulator does not support.
func ParseHeader(rom []byte) (*Header, error) {
	if len(rom) < headerEnd+1 {
		return nil, ErrShortROM
	}
	ctrl, err := ControllerOf(rom)
	if err != nil {
		return nil, err
	}
	ramSize, err := RAMSize(rom)
	if err != nil {
		return nil, err
	}

	h := &Header{
		Title:          Title(rom),
		CGBFlag:        rom[addrCGBFlag],
		Mode:           Mode(rom),
		NewLicensee:    string(rom[addrNewLicensee : addrNewLicensee+2]),
		LicenseeID:     LicenseeID(rom),
		SGBFlag:        rom[addrSGBFlag],
		SGB:            SGBSupport(rom),
		CartType:       rom[addrCartType],
		Controller:     ctrl,
		ROMSizeCode:    rom[addrROMSize],
		RAMSizeCode:    rom[addrRAMSize],
		Destination:    rom[addrDestination],
		OldLicensee:    rom[addrOldLicensee],
		ROMVersion:     Version(rom),
		HeaderChecksum: rom[addrHeaderSum],
		GlobalChecksum: binary.BigEndian.Uint16(rom[addrGlobalSum : addrGlobalSum+2]),
		LogoOK:         logoOK(rom),
		RAMSizeBytes:   ramSize,
		CartTypeStr:    cartTypeString(rom[addrCartType]),
	}
	if h.Mode != Classic {
		h.Manufacturer = trimNUL(rom[addrManufacture:addrCGBFlag])
	}
	h.ROMSizeBytes, h.ROMBanks = decodeROMSize(h.ROMSizeCode)
	return h, nil
}

func trimNUL(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}

func logoOK(rom []byte) bool {
	for i := range nintendoLogo {
		if rom[0x0104+i] != nintendoLogo[i] {
			return false
		}
	}
	return true
}

// Title returns the game title. Carts with a CGB flag reuse the last five
// title bytes for the manufacturer code and flag, leaving 11 characters.
func Title(rom []byte) string {
	end := addrCGBFlag + 1
	if rom[addrCGBFlag]&0x80 != 0 {
		end = addrManufacture
	}
	return trimNUL(rom[addrTitle:end])
}

// Mode decodes the CGB flag.
func Mode(rom []byte) DeviceMode {
	switch f := rom[addrCGBFlag]; {
	case f&0xC0 == 0xC0:
		return Color
	case f&0x80 != 0:
		return Any
	}
	return Classic
}

// LicenseeID returns the publisher code. Old licensee 0x33 defers to the
// two ASCII characters of the new licensee field, which are read as hex.
func LicenseeID(rom []byte) uint16 {
	old := rom[addrOldLicensee]
	if old != 0x33 {
		return uint16(old)
	}
	code := string(rom[addrNewLicensee : addrNewLicensee+2])
	if v, err := strconv.ParseUint(code, 16, 16); err == nil {
		return uint16(v)
	}
	return binary.BigEndian.Uint16(rom[addrNewLicensee : addrNewLicensee+2])
}

// SGBSupport reports whether the cart uses Super Game Boy functions.
func SGBSupport(rom []byte) bool { return rom[addrSGBFlag] == 0x03 }

// Version returns the mask ROM version number.
func Version(rom []byte) byte { return rom[addrVersion] }

// RAMSize decodes the external RAM size byte.
func RAMSize(rom []byte) (int, error) {
	switch code := rom[addrRAMSize]; code {
	case 0x00:
		return 0, nil
	case 0x01:
		return 2 * 1024, nil
	case 0x02:
		return 8 * 1024, nil
	case 0x03:
		return 32 * 1024, nil
	case 0x04:
		return 128 * 1024, nil
	case 0x05:
		return 64 * 1024, nil
	default:
		return 0, &UnsupportedRAMSizeError{Code: code}
	}
}

// UnsupportedRAMSizeError reports an unknown RAM size byte.
type UnsupportedRAMSizeError struct {
	Code byte
}

func (e *UnsupportedRAMSizeError) Error() string {
	return fmt.Sprintf("cart: unsupported RAM size code %#02x", e.Code)
}

func HeaderChecksumOK(rom []byte) bool {
	if len(rom) < 0x014E {
		return false
	}
	var sum byte = 0
	for addr := addrTitle; addr <= addrVersion; addr++ {
		sum = sum - rom[addr] - 1
	}
	return sum == rom[addrHeaderSum]
}

func decodeROMSize(code byte) (size, banks int) {
	switch code {
	case 0x00, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08:
		banks = 2 << code
		return banks * 16 * 1024, banks
	case 0x52:
		return 1152 * 1024, 72
	case 0x53:
		return 1280 * 1024, 80
	case 0x54:
		return 1536 * 1024, 96
	default:
		return 0, 0
	}
}

func cartTypeString(code byte) string {
	switch code {
	case 0x00, 0x08, 0x09:
		return "ROM ONLY"
	case 0x01, 0x02, 0x03:
		return "MBC1 (variants)"
	case 0x05, 0x06:
		return "MBC2 (variants)"
	case 0x0B, 0x0C, 0x0D:
		return "MMM01 (variants)"
	case 0x0F, 0x10, 0x11, 0x12, 0x13:
		return "MBC3 (variants)"
	case 0x19, 0x1A, 0x1B, 0x1C, 0x1D, 0x1E:
		return "MBC5 (variants)"
	case 0x20:
		return "MBC6"
	case 0x22:
		return "MBC7"
	case 0xFC:
		return "POCKET CAMERA"
	case 0xFD:
		return "BANDAI TAMA5"
	case 0xFE:
		return "HuC3"
	case 0xFF:
		return "HuC1"
	default:
		return "Other/unknown"
	}
}
