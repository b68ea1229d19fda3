package savefile

import (
	"errors"
	"io"
	"strings"
	"testing"
)

func TestParse_BuiltRecord(t *testing.T) {
	rec, err := Parse(`{"action-built", "finished", "worker", "U002A", "progress", 1200, "frame", 2, "cancel"}`)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(rec) != 9 {
		t.Fatalf("expected 9 values, got %d", len(rec))
	}
	c := rec.Cursor()
	if s, _ := c.String(); s != "action-built" {
		t.Fatalf("first value = %q", s)
	}
	c.Next()
	c.Next()
	if ref, _ := c.String(); ref != "U002A" {
		t.Errorf("worker ref = %q", ref)
	}
	c.Next()
	if n, _ := c.Int(); n != 1200 {
		t.Errorf("progress = %d", n)
	}
}

func TestParse_NestedAndNegative(t *testing.T) {
	rec, err := Parse(`{"tile", {3, -4}, true, false, "a\"b"} -- trailing comment`)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	inner := rec[1].Table
	if len(inner) != 2 || inner[1].Int != -4 {
		t.Fatalf("nested table = %v", inner)
	}
	if !rec[2].Bool || rec[3].Bool {
		t.Error("booleans decoded wrong")
	}
	if rec[4].Str != `a"b` {
		t.Errorf("escaped string = %q", rec[4].Str)
	}
}

func TestParse_Errors(t *testing.T) {
	cases := []string{
		`{"unterminated`,
		`{1, 2`,
		`{nil}`,
		`{1} {2}`,
		`"not a table"`,
	}
	for _, src := range cases {
		if _, err := Parse(src); !errors.Is(err, ErrSyntax) {
			t.Errorf("Parse(%q) error = %v, want ErrSyntax", src, err)
		}
	}
}

func TestCursor_TypeMismatch(t *testing.T) {
	rec, _ := Parse(`{"ticks", "ten"}`)
	c := rec.Cursor()
	c.Next()
	if _, err := c.Int(); !errors.Is(err, ErrType) {
		t.Fatalf("expected ErrType, got %v", err)
	}
	if _, err := c.Int(); !errors.Is(err, ErrEndOfData) {
		t.Fatalf("expected ErrEndOfData, got %v", err)
	}
}

func TestTableString(t *testing.T) {
	rec := Table{Str("action-train")}.
		AddKey("type", Str("unit-footman")).
		AddKey("player", Int(0)).
		AddKey("ticks", Int(30))
	want := `{"action-train", "type", "unit-footman", "player", 0, "ticks", 30}`
	if got := rec.String(); got != want {
		t.Fatalf("String() = %s, want %s", got, want)
	}
}

func TestDecoder_SkipsComments(t *testing.T) {
	src := "-- header\n\n{1}\n{\"x\", {2}}\n"
	d := NewDecoder(strings.NewReader(src))
	first, err := d.Next()
	if err != nil || first[0].Int != 1 {
		t.Fatalf("first = %v, %v", first, err)
	}
	second, err := d.Next()
	if err != nil || second[1].Table[0].Int != 2 {
		t.Fatalf("second = %v, %v", second, err)
	}
	if _, err := d.Next(); err != io.EOF {
		t.Fatalf("expected EOF, got %v", err)
	}
}
