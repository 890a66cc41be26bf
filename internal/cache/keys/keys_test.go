package keys

import (
	"regexp"
	"testing"

	"github.com/mohammed-shakir/airport-proximity/internal/core/model"
)

var keyPattern = regexp.MustCompile(`^[A-Za-z0-9:_=\-]+$`)

func TestDeterminism_SameInputsSameKey(t *testing.T) {
	allow := model.NewCountryAllowList("UAE", "Serbia")
	k1 := Key("nearest", "SVO", model.FilterFriendly, allow, 42)
	k2 := Key("nearest", " svo ", model.FilterFriendly, model.NewCountryAllowList("Serbia", "UAE"), 42)
	if k1 != k2 {
		t.Fatalf("determinism failed:\n k1=%s\n k2=%s", k1, k2)
	}
	if !keyPattern.MatchString(k1) {
		t.Fatalf("key contains disallowed characters: %s", k1)
	}
}

func TestDistinctInputs_DistinctKeys(t *testing.T) {
	allow := model.NewCountryAllowList("UAE")
	base := Key("nearest", "SVO", model.FilterFriendly, allow, 1)
	others := []string{
		Key("map", "SVO", model.FilterFriendly, allow, 1),
		Key("nearest", "DXB", model.FilterFriendly, allow, 1),
		Key("nearest", "SVO", model.FilterNone, allow, 1),
		Key("nearest", "SVO", model.FilterFriendly, model.NewCountryAllowList("UAE", "Serbia"), 1),
		Key("nearest", "SVO", model.FilterFriendly, allow, 2),
	}
	for _, k := range others {
		if k == base {
			t.Fatalf("expected %s to differ from base", k)
		}
	}
}

func TestUnfilteredKey_IgnoresAllowList(t *testing.T) {
	k1 := Key("nearest", "SVO", model.FilterNone, model.NewCountryAllowList("UAE"), 7)
	k2 := Key("nearest", "SVO", model.FilterNone, model.NewCountryAllowList("Serbia"), 7)
	if k1 != k2 {
		t.Fatalf("allow-list must not affect unfiltered keys:\n%s\n%s", k1, k2)
	}
}

func TestHostileCode_IsSanitized(t *testing.T) {
	k := Key("nearest", "S:V O\n*", model.FilterNone, model.CountryAllowList{}, 0)
	if !keyPattern.MatchString(k) {
		t.Fatalf("key contains disallowed characters: %s", k)
	}
}
