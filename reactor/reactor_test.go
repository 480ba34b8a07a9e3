package reactor

import "testing"

func TestArenaPutGetRemove(t *testing.T) {
	a := NewArena()
	t1 := a.Put("conn-a")
	t2 := a.Put("conn-b")
	if t1 == t2 {
		t.Fatalf("expected distinct tags, got %d and %d", t1, t2)
	}
	if v, ok := a.Get(t1); !ok || v != "conn-a" {
		t.Fatalf("Get(t1) = %v, %v", v, ok)
	}
	a.Remove(t1)
	if _, ok := a.Get(t1); ok {
		t.Fatal("expected t1 to be gone after Remove")
	}
	if a.Len() != 1 {
		t.Fatalf("expected 1 remaining tag, got %d", a.Len())
	}
}

func TestArenaTagsStartAboveSentinels(t *testing.T) {
	a := NewArena()
	tag := a.Put("x")
	if tag <= TagInvalid || tag == TagListener || tag == TagWakeup {
		t.Fatalf("connection tag %d collides with a sentinel", tag)
	}
}

func TestInterestMaskString(t *testing.T) {
	cases := []struct {
		mask InterestMask
		want string
	}{
		{0, "(none)"},
		{Readable, "READABLE"},
		{Readable | Writable, "READABLE, WRITABLE"},
		{Hangup | Error, "HANGUP, ERROR"},
	}
	for _, c := range cases {
		if got := c.mask.String(); got != c.want {
			t.Errorf("mask %d: got %q, want %q", c.mask, got, c.want)
		}
	}
}

func TestTagString(t *testing.T) {
	if TagListener.String() != "listener" {
		t.Errorf("got %q", TagListener.String())
	}
	if TagWakeup.String() != "wakeup" {
		t.Errorf("got %q", TagWakeup.String())
	}
	if Tag(7).String() != "conn#7" {
		t.Errorf("got %q", Tag(7).String())
	}
}
