package console

import "testing"

func TestControllerStrobeHoldReturnsAOnEveryRead(t *testing.T) {
	c := &Controller{}
	c.SetButton(ButtonA, true)
	c.Write(1) // strobe held on
	for i := 0; i < 3; i++ {
		if got := c.Read(); got != 1 {
			t.Errorf("read %d while strobing = %d, want 1 (A pressed)", i, got)
		}
	}
}

func TestControllerShiftsButtonsInHardwareOrder(t *testing.T) {
	c := &Controller{}
	c.SetButton(ButtonA, true)
	c.SetButton(ButtonStart, true)
	c.Write(1)
	c.Write(0) // latch and begin shifting

	want := []uint8{1, 0, 0, 0, 0, 0, 0, 0} // A, B, Select, Start, Up, Down, Left, Right
	want[3] = 1                             // Start
	for i, w := range want {
		if got := c.Read(); got != w {
			t.Errorf("bit %d = %d, want %d", i, got, w)
		}
	}
}

func TestControllerReadsPastEighthBitReturnOne(t *testing.T) {
	c := &Controller{}
	c.Write(1)
	c.Write(0)
	for i := 0; i < 8; i++ {
		c.Read()
	}
	if got := c.Read(); got != 1 {
		t.Errorf("ninth read = %d, want 1", got)
	}
}

func TestControllerSetButtonClearsOnRelease(t *testing.T) {
	c := &Controller{}
	c.SetButton(ButtonB, true)
	c.SetButton(ButtonB, false)
	c.Write(1)
	c.Write(0)
	c.Read() // A
	if got := c.Read(); got != 0 {
		t.Error("B should read 0 after being released before the strobe latch")
	}
}
