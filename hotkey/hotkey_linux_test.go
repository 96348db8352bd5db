package hotkey

import "testing"

func TestModStateFeed(t *testing.T) {
	c := Combo{Ctrl: true, Shift: true, Key: "r"}
	r := keyCodes["r"]
	var st modState

	type ev struct {
		code  uint16
		value int32
		down  bool
		up    bool
	}
	steps := []ev{
		{r, keyPress, false, false}, // no modifiers
		{r, keyRelease, false, false},
		{keyLCtrl, keyPress, false, false},
		{r, keyPress, false, false}, // shift missing
		{r, keyRelease, false, false},
		{keyRShift, keyPress, false, false},
		{r, keyPress, true, false},
		{r, 2, false, false}, // autorepeat
		{r, keyRelease, false, true},
		{keyLAlt, keyPress, false, false},
		{r, keyPress, false, false}, // extra modifier
		{r, keyRelease, false, false},
	}
	for i, s := range steps {
		down, up := st.feed(c, r, s.code, s.value)
		if down != s.down || up != s.up {
			t.Errorf("step %d: down=%v up=%v, want %v %v", i, down, up, s.down, s.up)
		}
	}
}

func TestModStateReleaseAfterModifiers(t *testing.T) {
	c := Combo{Alt: true, Key: "space"}
	sp := keyCodes["space"]
	var st modState
	st.feed(c, sp, keyRAlt, keyPress)
	if down, _ := st.feed(c, sp, sp, keyPress); !down {
		t.Fatal("combo not recognised")
	}
	st.feed(c, sp, keyRAlt, keyRelease)
	if _, up := st.feed(c, sp, sp, keyRelease); !up {
		t.Error("keyup lost when modifier released first")
	}
}
