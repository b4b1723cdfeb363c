package memory

import "testing"

func TestReadWriteRoundTrip(t *testing.T) {
	m := New(64)
	if err := m.WriteWord(16, 0x1234); err != nil {
		t.Fatalf("WriteWord: %v", err)
	}
	v, err := m.ReadWord(16)
	if err != nil {
		t.Fatalf("ReadWord: %v", err)
	}
	if v != 0x1234 {
		t.Errorf("got %d, want 0x1234", v)
	}
}

func TestUnalignedAddressFails(t *testing.T) {
	m := New(64)
	if _, err := m.ReadWord(3); err == nil {
		t.Errorf("expected error for unaligned address")
	}
}

func TestOutOfRangeFails(t *testing.T) {
	m := New(4)
	if err := m.WriteWord(4*4, 1); err == nil {
		t.Errorf("expected bounds error")
	}
	if _, err := m.ReadWord(-4); err == nil {
		t.Errorf("expected bounds error for negative address")
	}
}

func TestViewByCoreStripe(t *testing.T) {
	m := New(8)
	for i := 0; i < 8; i++ {
		_ = m.WriteWord(i*WordSize, int32(i))
	}
	stripes := m.ViewByCoreStripe(4)
	if len(stripes) != 4 {
		t.Fatalf("got %d stripes, want 4", len(stripes))
	}
	if stripes[0][0] != 0 || stripes[0][1] != 4 {
		t.Errorf("stripe 0 = %v, want [0 4]", stripes[0])
	}
	if stripes[1][0] != 1 || stripes[1][1] != 5 {
		t.Errorf("stripe 1 = %v, want [1 5]", stripes[1])
	}
}
