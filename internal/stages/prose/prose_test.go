package prose

import (
	"strings"
	"testing"
)

func TestRenderPlainKeepsWords(t *testing.T) {
	UseStyle(PlainStyle)
	out := Render("## Stage 1\n\nRepeat the record **exactly**.", 40)
	for _, want := range []string{"Stage 1", "Repeat", "exactly"} {
		if !strings.Contains(out, want) {
			t.Fatalf("render missing %q:\n%s", want, out)
		}
	}
	if Render("   ", 40) != "" {
		t.Fatalf("blank markdown should render empty")
	}
}

func TestJoinSkipsBlankBlocks(t *testing.T) {
	got := Join("a", "", "  ", "b")
	if got != "a\n\nb" {
		t.Fatalf("join = %q", got)
	}
}

func TestStatusLinesCarryText(t *testing.T) {
	if !strings.Contains(Success("saved"), "saved") || !strings.Contains(Failure("lost"), "lost") {
		t.Fatalf("status lines should contain their text")
	}
}
