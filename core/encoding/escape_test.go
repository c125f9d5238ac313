package encoding

import "testing"

func TestEscapeXMLText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"plain text", "Al-Fatiha", "Al-Fatiha"},
		{"ampersand", "Al-Anfal & At-Tawba", "Al-Anfal &amp; At-Tawba"},
		{"less than", "a < b", "a &lt; b"},
		{"greater than", "a > b", "a &gt; b"},
		{"quotes preserved", `He said "hello"`, `He said "hello"`},
		{"arabic", "بِسْمِ ٱللَّهِ", "بِسْمِ ٱللَّهِ"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EscapeXMLText(tt.input)
			if got != tt.want {
				t.Errorf("EscapeXMLText(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestEscapeXMLAttr(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"double quote", `say "x"`, "say &quot;x&quot;"},
		{"mixed", `<a href="x">&`, "&lt;a href=&quot;x&quot;&gt;&amp;"},
		{"apostrophe preserved", "it's", "it's"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EscapeXMLAttr(tt.input)
			if got != tt.want {
				t.Errorf("EscapeXMLAttr(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestQuoteSQLString(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", "''"},
		{"plain", "Meccan", "'Meccan'"},
		{"apostrophe", "Al-Mu'minun", "'Al-Mu''minun'"},
		{"arabic", "الفاتحة", "'الفاتحة'"},
		{"invalid utf8", "a\xffb", "'a�b'"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := QuoteSQLString(tt.input); got != tt.want {
				t.Errorf("QuoteSQLString(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestQuoteIdent(t *testing.T) {
	if got := QuoteIdent("groups"); got != `"groups"` {
		t.Errorf("QuoteIdent(groups) = %s", got)
	}
	if got := QuoteIdent(`a"b`); got != `"a""b"` {
		t.Errorf("QuoteIdent(a\"b) = %s", got)
	}
}
