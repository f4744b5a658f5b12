package regs

import "testing"

func TestNewClassAndMask(t *testing.T) {
	c := NewClass("gp", "Iu", []string{"eax", "ebx", "ecx", "edx"})
	if c.Len() != 4 {
		t.Fatalf("Len() = %d, want 4", c.Len())
	}
	for i, r := range c.Registers {
		if r.Class != c || r.Index != i {
			t.Errorf("register %d back-link wrong: class=%v index=%d", i, r.Class, r.Index)
		}
	}
}

func TestMaskOf(t *testing.T) {
	c := NewClass("gp", "Iu", []string{"eax", "ebx", "ecx", "edx"})
	m := c.MaskOf(1, 3)
	if m.IsSet(0) || !m.IsSet(1) || m.IsSet(2) || !m.IsSet(3) {
		t.Errorf("MaskOf(1,3) produced unexpected bits")
	}
}

func TestRequirementSatisfies(t *testing.T) {
	c := NewClass("gp", "Iu", []string{"eax", "ebx", "ecx", "edx"})
	other := NewClass("xmm", "F64", []string{"xmm0", "xmm1"})

	none := None
	if !none.Satisfies(c.Registers[0]) {
		t.Error("ReqNone should be satisfied by any register")
	}

	normal := Requirement{Class: c, Kind: ReqNormal}
	if !normal.Satisfies(c.Registers[0]) {
		t.Error("ReqNormal should accept a same-class register")
	}
	if normal.Satisfies(other.Registers[0]) {
		t.Error("ReqNormal should reject a different-class register")
	}

	limited := Requirement{Class: c, Kind: ReqLimited, LimitedMask: c.MaskOf(0, 2)}
	if !limited.Satisfies(c.Registers[0]) {
		t.Error("ReqLimited should accept a register in the mask")
	}
	if limited.Satisfies(c.Registers[1]) {
		t.Error("ReqLimited should reject a register outside the mask")
	}
}
