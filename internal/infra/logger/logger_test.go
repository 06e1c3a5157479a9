package logger

import "testing"

func TestMaskEmail(t *testing.T) {
	cases := map[string]string{
		"":                     "",
		"admin@ivony.io":       "adm***@ivony.io",
		"jo@ivony.io":          "jo***@ivony.io",
		"not-an-email":         "***",
		"john.doe@example.com": "joh***@example.com",
	}
	for in, want := range cases {
		if got := MaskEmail(in); got != want {
			t.Fatalf("MaskEmail(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMaskIP(t *testing.T) {
	cases := map[string]string{
		"":                                "",
		"192.168.1.100":                   "192.168.*.*",
		"2001:db8:85a3:0:0:8a2e:370:7334": "2001:db8:85a3:0:*:*:*:*",
		"garbage":                         "***",
	}
	for in, want := range cases {
		if got := MaskIP(in); got != want {
			t.Fatalf("MaskIP(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMaskString(t *testing.T) {
	if got := MaskString("secret123"); got != "se***23" {
		t.Fatalf("unexpected mask %q", got)
	}
	if got := MaskString("abc"); got != "***" {
		t.Fatalf("unexpected mask %q", got)
	}
}
