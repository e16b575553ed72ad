package pfs

import "testing"

func TestCrcEmpty(t *testing.T) {
	if got := Crc(""); got != 0 {
		t.Errorf("Crc(\"\") = %d, want 0", got)
	}
}

func TestCrcDeterministic(t *testing.T) {
	a := Crc("gfaydark.wld")
	b := Crc("gfaydark.wld")
	if a != b {
		t.Errorf("Crc not deterministic: %d vs %d", a, b)
	}
	if a == 0 {
		t.Error("Crc of a real name should not be zero")
	}
}

func TestCrcDistinguishesNames(t *testing.T) {
	names := []string{
		"gfaydark.wld",
		"gfaydark_obj.wld",
		"objects.wld",
		"lights.wld",
		"palette.bmp",
	}
	seen := make(map[int32]string)
	for _, name := range names {
		crc := Crc(name)
		if prev, ok := seen[crc]; ok {
			t.Errorf("Crc(%q) == Crc(%q) == %d", name, prev, crc)
		}
		seen[crc] = name
	}
}

func TestCrcCaseSensitive(t *testing.T) {
	if Crc("GFAYDARK.WLD") == Crc("gfaydark.wld") {
		t.Error("Crc should be case sensitive over raw bytes")
	}
}
