package compliance

import (
	"testing"

	"github.com/draftstudio/engine/internal/store"
)

func TestCheckPass(t *testing.T) {
	res := Check("Morning routine with coffee and a ring light")
	if res.Level != store.CompliancePass || len(res.Reasons) != 0 {
		t.Fatalf("expected clean pass, got %+v", res)
	}
}

func TestCheckWarn(t *testing.T) {
	res := Check("feeling a little spicy today")
	if res.Level != store.ComplianceWarn {
		t.Fatalf("level = %s, want warn", res.Level)
	}
	if len(res.Reasons) == 0 {
		t.Fatal("expected a reason for the warning")
	}
}

func TestCheckFail(t *testing.T) {
	res := Check("link in bio to onlyfans.com")
	if res.Level != store.ComplianceFail {
		t.Fatalf("level = %s, want fail", res.Level)
	}
}

func TestCheckFailBeatsWarn(t *testing.T) {
	res := Check("naughty and explicit")
	if res.Level != store.ComplianceFail {
		t.Fatalf("banned phrase must veto even with caution phrases present, got %s", res.Level)
	}
}

func TestCheckCaseInsensitive(t *testing.T) {
	if res := Check("EXPLICIT content"); res.Level != store.ComplianceFail {
		t.Fatalf("uppercase banned phrase not caught: %s", res.Level)
	}
}

func TestCheckWordBoundaries(t *testing.T) {
	// "hotel" contains "hot" but is not a caution phrase.
	if res := Check("filming at the hotel lobby"); res.Level != store.CompliancePass {
		t.Fatalf("substring match leaked through: %s", res.Level)
	}
}

func TestCheckItem(t *testing.T) {
	it := store.Item{
		Persona:     "luna",
		ContentType: "talking_style",
		Title:       "clean title",
		Hook:        "something naughty in the hook",
	}
	if res := CheckItem(&it); res.Level != store.ComplianceWarn {
		t.Fatalf("item check level = %s, want warn", res.Level)
	}
}
