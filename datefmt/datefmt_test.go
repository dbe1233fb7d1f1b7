package datefmt

import (
	"testing"
	"time"
)

func TestParseAcceptedShapes(t *testing.T) {
	want := time.Date(2024, time.March, 7, 0, 0, 0, 0, time.UTC)
	for _, in := range []string{
		"2024-03-07",
		"2024/3/7",
		"2024.03.07",
		"07-03-2024",
		"7/3/2024",
		" 07.03.2024 ",
		"2024-03-07T10:30:00Z",
		"7 March 2024",
		"March 7, 2024",
		"Mar 7, 2024",
		"Thu Mar 07 2024",
		"Thu Mar 7 2024",
		"Thu Mar 07 2024 00:00:00 GMT+0000 (Coordinated Universal Time)",
		"Thu, 07 Mar 2024 00:00:00 GMT",
		"2024-3-7T00:00",
		"2024-03-07T00:00:00.000Z",
	} {
		got, ok := Parse(in)
		if !ok {
			t.Fatalf("Parse(%q) 失败", in)
		}
		if !got.Equal(want) {
			t.Fatalf("Parse(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestParseRejects(t *testing.T) {
	for _, in := range []string{"", "   ", "not a date", "2024-03", "32/13"} {
		if _, ok := Parse(in); ok {
			t.Fatalf("Parse(%q) 应当失败", in)
		}
	}
}

func TestParseNormalisesOverflow(t *testing.T) {
	got, ok := Parse("31-02-2024")
	if !ok {
		t.Fatalf("越界日期应顺延而不是失败")
	}
	if got.Month() != time.March || got.Day() != 2 {
		t.Fatalf("31-02-2024 期望顺延为 2024-03-02，实际 %v", got)
	}
}

func TestFormatFull(t *testing.T) {
	cases := []struct {
		in, token, want string
	}{
		{"2024-03-07", "DD-MM-YYYY", "07-03-2024"},
		{"07/03/2024", "YYYYMMDD", "20240307"},
		{"2024-03-07", "DDMMYYYY", "07032024"},
		{"2024-03-07", "MMDDYYYY", "03072024"},
		{"2024-03-07", "YYYYDDMM", "20240703"},
		{"2024-03-07", "DD/MM/YYYY", "07/03/2024"},
		{"2024-03-07", "DD.MM.YYYY", "07.03.2024"},
		{"2024-03-07", "yyyy-mm-dd", "2024-03-07"},
		{"2024-03-07", "MM/DD/YY", "03/07/2024"},
		{"2024-03-07", "D.M.Y", "07.03.2024"},
		{"2024-03-07", "", "07032024"},
		{"2024-03-07", "nonsense", "07032024"},
		{"0999-01-02", "YYYYMMDD", "09990102"},
		{"garbage", "DDMMYYYY", ""},
		{"", "DD-MM-YYYY", ""},
	}
	for _, c := range cases {
		if got := FormatFull(c.in, c.token); got != c.want {
			t.Fatalf("FormatFull(%q, %q) = %q, want %q", c.in, c.token, got, c.want)
		}
	}
}

func TestFormatDigitsAndDigit(t *testing.T) {
	if got := FormatDigits("07-03-2024", "DDMMYYYY"); got != "07032024" {
		t.Fatalf("FormatDigits = %q", got)
	}
	if got := FormatDigits("07-03-2024", "DD-MM-YYYY"); got != "07032024" {
		t.Fatalf("分隔符应被去除: %q", got)
	}
	if got := len(FormatDigits("2024-12-31", "YYYYDDMM")); got != DigitCount {
		t.Fatalf("数字串长度期望 %d，实际 %d", DigitCount, got)
	}

	cases := []struct {
		index int
		want  string
	}{
		{0, "0"}, {1, "7"}, {2, "0"}, {3, "3"}, {4, "2"}, {7, "4"}, {8, ""}, {-1, ""},
	}
	for _, c := range cases {
		if got := Digit("07-03-2024", "DDMMYYYY", c.index); got != c.want {
			t.Fatalf("Digit(index=%d) = %q, want %q", c.index, got, c.want)
		}
	}
	if got := Digit("bad", "DDMMYYYY", 0); got != "" {
		t.Fatalf("无法解析的日期应返回空串，实际 %q", got)
	}
}

func TestIsDDMMYYYY(t *testing.T) {
	for in, want := range map[string]bool{
		"07-03-2024": true,
		"29-02-2024": true,
		"29-02-2023": false,
		"7-3-2024":   false,
		"2024-03-07": false,
		"":           false,
	} {
		if got := IsDDMMYYYY(in); got != want {
			t.Fatalf("IsDDMMYYYY(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestValid(t *testing.T) {
	for in, want := range map[string]bool{
		"":            true,
		"07-03-2024":  true,
		"31-02-2024":  false,
		"2024-03-07":  true,
		"7/3/2024":    true,
		"next friday": false,
	} {
		if got := Valid(in); got != want {
			t.Fatalf("Valid(%q) = %v, want %v", in, got, want)
		}
	}
}
