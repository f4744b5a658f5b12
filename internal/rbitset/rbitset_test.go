package rbitset

import "testing"

func TestSetClearIsSet(t *testing.T) {
	s := New(70)
	for _, pos := range []int{0, 1, 31, 32, 33, 69} {
		s.Set(pos)
		if !s.IsSet(pos) {
			t.Errorf("bit %d not set after Set", pos)
		}
		s.Clear(pos)
		if s.IsSet(pos) {
			t.Errorf("bit %d still set after Clear", pos)
		}
	}
}

func TestPopcountMatchesSetBits(t *testing.T) {
	s := New(100)
	want := 0
	for _, pos := range []int{0, 5, 31, 32, 63, 64, 99} {
		s.Set(pos)
		want++
	}
	if got := s.Popcount(); got != want {
		t.Errorf("Popcount() = %d, want %d", got, want)
	}
}

func TestSetAllClearAllFlipAll(t *testing.T) {
	s := New(40)
	s.SetAll()
	if s.Popcount() != 40 {
		t.Errorf("SetAll: Popcount() = %d, want 40", s.Popcount())
	}
	s.ClearAll()
	if !s.IsEmpty() {
		t.Error("ClearAll: not empty")
	}
	s.FlipAll()
	if s.Popcount() != 40 {
		t.Errorf("FlipAll: Popcount() = %d, want 40", s.Popcount())
	}
	s.FlipAll()
	if !s.IsEmpty() {
		t.Error("FlipAll twice: not empty")
	}
}

func TestEqual(t *testing.T) {
	a := New(64)
	b := New(64)
	if !a.Equal(b) {
		t.Error("two empty sets not equal")
	}
	a.Set(40)
	if a.Equal(b) {
		t.Error("sets differ but Equal reported true")
	}
	b.Set(40)
	if !a.Equal(b) {
		t.Error("sets identical but Equal reported false")
	}
}

func TestAndOrXorAndNot(t *testing.T) {
	a := New(32)
	b := New(32)
	a.Set(1)
	a.Set(2)
	b.Set(2)
	b.Set(3)

	and := a.Duplicate()
	and.And(b)
	if and.Popcount() != 1 || !and.IsSet(2) {
		t.Errorf("And: got popcount %d, want bit 2 only", and.Popcount())
	}

	or := a.Duplicate()
	or.Or(b)
	if or.Popcount() != 3 {
		t.Errorf("Or: got popcount %d, want 3", or.Popcount())
	}

	xor := a.Duplicate()
	xor.Xor(b)
	if xor.Popcount() != 2 || xor.IsSet(2) {
		t.Errorf("Xor: got popcount %d with bit2=%v, want 2 and bit2 clear", xor.Popcount(), xor.IsSet(2))
	}

	andNot := a.Duplicate()
	andNot.AndNot(b)
	if andNot.Popcount() != 1 || !andNot.IsSet(1) {
		t.Errorf("AndNot: got popcount %d, want bit 1 only", andNot.Popcount())
	}
}

func TestSubsetAndHasCommon(t *testing.T) {
	a := New(32)
	b := New(32)
	a.Set(5)
	b.Set(5)
	b.Set(6)
	if !a.Subset(b) {
		t.Error("a should be subset of b")
	}
	if b.Subset(a) {
		t.Error("b should not be subset of a")
	}
	if !a.HasCommon(b) {
		t.Error("a and b should share bit 5")
	}
}

func TestNextMax(t *testing.T) {
	s := New(128)
	s.Set(3)
	s.Set(40)
	s.Set(100)

	var got []int
	for i := s.NextMax(0, s.Size(), true); i != None; i = s.NextMax(i+1, s.Size(), true) {
		got = append(got, i)
	}
	want := []int{3, 40, 100}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got %v, want %v", got, want)
			break
		}
	}

	if i := s.NextMax(101, s.Size(), true); i != None {
		t.Errorf("NextMax past last set bit = %d, want None", i)
	}
}

func TestSetRange(t *testing.T) {
	s := New(70)
	s.SetRange(5, 40, true)
	for i := 0; i < 70; i++ {
		want := i >= 5 && i < 40
		if s.IsSet(i) != want {
			t.Errorf("bit %d: IsSet=%v, want %v", i, s.IsSet(i), want)
		}
	}
	s.SetRange(10, 20, false)
	for i := 10; i < 20; i++ {
		if s.IsSet(i) {
			t.Errorf("bit %d still set after clearing range", i)
		}
	}
}

func TestSetRangeSameWord(t *testing.T) {
	s := New(32)
	s.SetRange(2, 5, true)
	for i := 0; i < 32; i++ {
		want := i >= 2 && i < 5
		if s.IsSet(i) != want {
			t.Errorf("bit %d: IsSet=%v, want %v", i, s.IsSet(i), want)
		}
	}
}

func TestMinus1(t *testing.T) {
	s := New(8)
	s.Set(3) // value 0b00001000 = 8
	s.Minus1()
	for i := 0; i < 3; i++ {
		if !s.IsSet(i) {
			t.Errorf("bit %d should be set after 8-1=7", i)
		}
	}
	if s.IsSet(3) {
		t.Error("bit 3 should be clear after 8-1=7")
	}
}

func TestMinus1AcrossWordBoundary(t *testing.T) {
	s := New(64)
	s.Set(32) // low word all zero, bit 32 set: value = 1<<32
	s.Minus1()
	for i := 0; i < 32; i++ {
		if !s.IsSet(i) {
			t.Errorf("bit %d should be set (borrow propagated)", i)
		}
	}
	if s.IsSet(32) {
		t.Error("bit 32 should be clear after borrow")
	}
}

func TestDuplicateIsIndependent(t *testing.T) {
	a := New(32)
	a.Set(7)
	b := a.Duplicate()
	b.Set(8)
	if a.IsSet(8) {
		t.Error("Duplicate shares storage with original")
	}
	if !b.IsSet(7) {
		t.Error("Duplicate lost original bits")
	}
}

func TestForEachSetAscending(t *testing.T) {
	s := New(50)
	s.Set(49)
	s.Set(0)
	s.Set(25)
	var got []int
	s.ForEachSet(func(i int) { got = append(got, i) })
	want := []int{0, 25, 49}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got %v, want %v", got, want)
		}
	}
}
