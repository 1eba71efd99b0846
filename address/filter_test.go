package address

import "testing"

func TestFilterWildcard(t *testing.T) {
	f := MustNewFilter("1/2/*")
	if !f.MatchString("1/2/7") {
		t.Error("expected 1/2/7 to match 1/2/*")
	}
	if f.MatchString("1/3/7") {
		t.Error("expected 1/3/7 not to match 1/2/*")
	}
}

func TestFilterRange(t *testing.T) {
	f := MustNewFilter("1/4/[5-6]")
	for _, s := range []string{"1/4/5", "1/4/6"} {
		if !f.MatchString(s) {
			t.Errorf("expected %s to match 1/4/[5-6]", s)
		}
	}
	for _, s := range []string{"1/4/4", "1/4/7"} {
		if f.MatchString(s) {
			t.Errorf("expected %s not to match 1/4/[5-6]", s)
		}
	}
}

func TestFilterSet(t *testing.T) {
	f := MustNewFilter("1/4/{8,10}")
	for _, s := range []string{"1/4/8", "1/4/10"} {
		if !f.MatchString(s) {
			t.Errorf("expected %s to match 1/4/{8,10}", s)
		}
	}
	if f.MatchString("1/4/9") {
		t.Error("expected 1/4/9 not to match 1/4/{8,10}")
	}
}

func TestFilterInvalidPattern(t *testing.T) {
	if _, err := NewFilter("1/2"); err == nil {
		t.Error("expected error for two-level pattern")
	}
	if _, err := NewFilter("1/[7-/3"); err == nil {
		t.Error("expected error for malformed range")
	}
}
