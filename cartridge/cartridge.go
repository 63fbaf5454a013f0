// Package cartridge defines the cartridge descriptor the CORE consumes and
// a small iNES loader used to build one from raw ROM bytes in tests and
// the demo driver. Parsing a ROM file off disk is explicitly outside the
// emulator core; the core's only contract is the Cartridge value below.
package cartridge

import (
	"fmt"

	"github.com/bdwalton/nescore/mappers"
)

const (
	prgBankSize = 16 * 1024
	chrBankSize = 8 * 1024
)

// Cartridge is the immutable, already-parsed description of a loaded game:
// PRG-ROM bytes, CHR-ROM bytes (or a CHR-RAM flag with no backing bytes),
// a mapper number, the hardware nametable mirroring mode, and whether the
// board has battery-backed PRG-RAM. Its lifetime is the lifetime of the
// program; nothing in the CORE mutates these fields after construction.
type Cartridge struct {
	PRG       []byte
	CHR       []byte
	ChrIsRAM  bool
	Mapper    uint8
	Mirroring mappers.Mirroring
	Battery   bool
}

// ErrInvalidCartridge wraps every validation failure New returns.
var ErrInvalidCartridge = fmt.Errorf("invalid cartridge")

// New validates a cartridge descriptor's shape. A parser outside the CORE
// is expected to have already split a ROM image into these fields; New's
// job is only to reject descriptors the CORE cannot run: PRG-ROM must be a
// non-zero multiple of 16 KiB, and CHR-ROM (when not CHR-RAM) must be a
// non-zero multiple of 8 KiB.
func New(c Cartridge) (*Cartridge, error) {
	if len(c.PRG) == 0 || len(c.PRG)%prgBankSize != 0 {
		return nil, fmt.Errorf("PRG-ROM size %d is not a non-zero multiple of %d bytes: %w", len(c.PRG), prgBankSize, ErrInvalidCartridge)
	}
	if !c.ChrIsRAM && (len(c.CHR) == 0 || len(c.CHR)%chrBankSize != 0) {
		return nil, fmt.Errorf("CHR-ROM size %d is not a non-zero multiple of %d bytes: %w", len(c.CHR), chrBankSize, ErrInvalidCartridge)
	}

	cart := c
	return &cart, nil
}

// NewMapper constructs the Mapper implementation this cartridge's header
// declares, or an error wrapping mappers.ErrUnsupportedMapper for a mapper
// number the CORE doesn't implement (only 0, 1 and 4 are supported).
func (c *Cartridge) NewMapper() (mappers.Mapper, error) {
	return mappers.Get(c.Mapper, c.PRG, c.CHR, c.ChrIsRAM, c.Mirroring, c.Battery)
}
