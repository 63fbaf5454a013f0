package cartridge

import (
	"bytes"
	"errors"
	"testing"

	"github.com/bdwalton/nescore/mappers"
)

func TestNewRejectsShortPRG(t *testing.T) {
	_, err := New(Cartridge{PRG: make([]byte, 100), CHR: make([]byte, chrBankSize)})
	if !errors.Is(err, ErrInvalidCartridge) {
		t.Fatalf("err = %v, want ErrInvalidCartridge", err)
	}
}

func TestNewRejectsBadCHRWhenNotRAM(t *testing.T) {
	_, err := New(Cartridge{PRG: make([]byte, prgBankSize), CHR: make([]byte, 100)})
	if !errors.Is(err, ErrInvalidCartridge) {
		t.Fatalf("err = %v, want ErrInvalidCartridge", err)
	}
}

func TestNewAcceptsCHRRAMWithNoBytes(t *testing.T) {
	c, err := New(Cartridge{PRG: make([]byte, prgBankSize), ChrIsRAM: true})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if !c.ChrIsRAM {
		t.Fatal("ChrIsRAM should be preserved")
	}
}

func TestNewMapperRejectsUnknownMapperNumber(t *testing.T) {
	c, err := New(Cartridge{PRG: make([]byte, prgBankSize), ChrIsRAM: true, Mapper: 250})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := c.NewMapper(); !errors.Is(err, mappers.ErrUnsupportedMapper) {
		t.Fatalf("NewMapper err = %v, want ErrUnsupportedMapper", err)
	}
}

func buildINES(prgBanks, chrBanks int, flags6, flags7 byte) []byte {
	var buf bytes.Buffer
	buf.WriteString("NES\x1A")
	buf.WriteByte(byte(prgBanks))
	buf.WriteByte(byte(chrBanks))
	buf.WriteByte(flags6)
	buf.WriteByte(flags7)
	buf.Write(make([]byte, 8)) // flags 8-15, unused here
	buf.Write(make([]byte, prgBanks*prgBankSize))
	buf.Write(make([]byte, chrBanks*chrBankSize))
	return buf.Bytes()
}

func TestFromINESParsesNROM(t *testing.T) {
	raw := buildINES(2, 1, 0x00, 0x00)
	c, err := FromINES(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("FromINES: %v", err)
	}
	if c.Mapper != 0 {
		t.Errorf("Mapper = %d, want 0", c.Mapper)
	}
	if len(c.PRG) != 2*prgBankSize {
		t.Errorf("len(PRG) = %d, want %d", len(c.PRG), 2*prgBankSize)
	}
	if c.Mirroring != mappers.MirrorHorizontal {
		t.Errorf("Mirroring = %v, want MirrorHorizontal", c.Mirroring)
	}
}

func TestFromINESDecodesMapperNumberAndCHRRAM(t *testing.T) {
	// mapper 4 (MMC3): flags6 high nibble 0x40, flags7 high nibble 0x00.
	raw := buildINES(4, 0, 0x41, 0x00)
	c, err := FromINES(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("FromINES: %v", err)
	}
	if c.Mapper != 4 {
		t.Errorf("Mapper = %d, want 4", c.Mapper)
	}
	if !c.ChrIsRAM {
		t.Error("chrBanks=0 should mean ChrIsRAM")
	}
	if c.Mirroring != mappers.MirrorVertical {
		t.Errorf("Mirroring = %v, want MirrorVertical", c.Mirroring)
	}
}

func TestFromINESRejectsBadMagic(t *testing.T) {
	if _, err := FromINES(bytes.NewReader([]byte("BAD\x1A\x01\x01\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00"))); err == nil {
		t.Fatal("expected an error for a bad iNES magic")
	}
}
