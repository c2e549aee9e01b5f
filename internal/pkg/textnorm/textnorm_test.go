package textnorm

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "", want: ""},
		{in: "Văn Phòng", want: "van phong"},
		{in: "  Cà   Fe\tVũ ", want: "ca fe vu"},
		{in: "Đường Điện Biên Phủ", want: "duong dien bien phu"},
		{in: "HỒ CHÍ MINH", want: "ho chi minh"},
		{in: "Quận 1\n\nTP.HCM", want: "quan 1 tp.hcm"},
		{in: "plain ascii", want: "plain ascii"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := Normalize(tt.in); got != tt.want {
				t.Fatalf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"Cà Fe  Vũ",
		"Không gian làm việc chung ở Đà Nẵng",
		"  MIXED case\tand   tabs ",
		"Ứng dụng – văn phòng",
		"",
	}
	for _, in := range inputs {
		once := Normalize(in)
		if twice := Normalize(once); twice != once {
			t.Fatalf("Normalize not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestCompact(t *testing.T) {
	if got, want := Compact("Cà Fe  Vũ"), Compact("cafevu"); got != want {
		t.Fatalf("Compact mismatch: %q vs %q", got, want)
	}
	if got := Compact(" Văn phòng  chia sẻ "); got != "vanphongchiase" {
		t.Fatalf("Compact = %q", got)
	}
}

func TestContains(t *testing.T) {
	tests := []struct {
		name  string
		field string
		query string
		want  bool
	}{
		{name: "empty query", field: "anything", query: "", want: true},
		{name: "whitespace query", field: "anything", query: "   ", want: true},
		{name: "accent insensitive", field: "Văn phòng chia sẻ Quận 3", query: "van phong", want: true},
		{name: "space insensitive", field: "Văn phòng chia sẻ", query: "vanphong", want: true},
		{name: "query spacing", field: "cafe", query: "ca fe", want: true},
		{name: "d stroke", field: "Đà Nẵng", query: "da nang", want: true},
		{name: "no match", field: "Kho xưởng", query: "van phong", want: false},
		{name: "empty field", field: "", query: "x", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Contains(tt.field, tt.query); got != tt.want {
				t.Fatalf("Contains(%q, %q) = %v, want %v", tt.field, tt.query, got, tt.want)
			}
		})
	}
}
