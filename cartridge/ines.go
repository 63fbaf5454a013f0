package cartridge

import (
	"fmt"
	"io"

	"github.com/bdwalton/nescore/mappers"
)

const (
	headerSize  = 16
	trainerSize = 512
)

// iNES header flags 6/7 bits this loader cares about.
const (
	flag6Mirroring  = 1 << 0
	flag6Battery    = 1 << 1
	flag6Trainer    = 1 << 2
	flag6FourScreen = 1 << 3
)

// FromINES reads an iNES-formatted ROM image and builds a Cartridge from
// it. This is ambient test/demo infrastructure, not part of the CORE's
// runtime path: the CORE itself only ever sees a *Cartridge, never a raw
// byte stream.
func FromINES(r io.Reader) (*Cartridge, error) {
	header := make([]byte, headerSize)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, fmt.Errorf("reading iNES header: %w", err)
	}
	if string(header[0:4]) != "NES\x1A" {
		return nil, fmt.Errorf("not an iNES file (bad magic): %w", ErrInvalidCartridge)
	}

	prgBanks := int(header[4])
	chrBanks := int(header[5])
	flags6 := header[6]
	flags7 := header[7]

	if flags6&flag6Trainer != 0 {
		if _, err := io.CopyN(io.Discard, r, trainerSize); err != nil {
			return nil, fmt.Errorf("reading trainer: %w", err)
		}
	}

	prg := make([]byte, prgBanks*prgBankSize)
	if _, err := io.ReadFull(r, prg); err != nil {
		return nil, fmt.Errorf("reading PRG-ROM (%d banks): %w", prgBanks, err)
	}

	chrIsRAM := chrBanks == 0
	chr := make([]byte, chrBanks*chrBankSize)
	if !chrIsRAM {
		if _, err := io.ReadFull(r, chr); err != nil {
			return nil, fmt.Errorf("reading CHR-ROM (%d banks): %w", chrBanks, err)
		}
	}

	mapperNum := (flags6 >> 4) | (flags7 & 0xF0)

	mirror := mappers.MirrorHorizontal
	if flags6&flag6FourScreen != 0 {
		mirror = mappers.MirrorFourScreen
	} else if flags6&flag6Mirroring != 0 {
		mirror = mappers.MirrorVertical
	}

	return New(Cartridge{
		PRG:       prg,
		CHR:       chr,
		ChrIsRAM:  chrIsRAM,
		Mapper:    mapperNum,
		Mirroring: mirror,
		Battery:   flags6&flag6Battery != 0,
	})
}
