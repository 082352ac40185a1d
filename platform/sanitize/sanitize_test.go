package sanitize

import "testing"

func TestLineCollapsesWhitespaceAndTags(t *testing.T) {
	if got := Line("  Jane \n\t <b>Doe</b> "); got != "Jane Doe" {
		t.Fatalf("unexpected line %q", got)
	}
}

func TestStripHTMLCatchesEncodedTags(t *testing.T) {
	if got := StripHTML("hi &lt;script&gt;alert(1)&lt;/script&gt;"); got != "hi alert(1)" {
		t.Fatalf("unexpected result %q", got)
	}
}

func TestEmail(t *testing.T) {
	if got := Email("  Ana@Example.COM "); got != "ana@example.com" {
		t.Fatalf("unexpected email %q", got)
	}
}
