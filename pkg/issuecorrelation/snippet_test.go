package issuecorrelation

import (
	"crypto/md5"
	"encoding/hex"
	"testing"

	"github.com/scan-io-git/issuetrack/pkg/textrange"
)

func expectedDigest(content string) Hash {
	sum := md5.Sum([]byte(content))
	return Hash(hex.EncodeToString(sum[:]))
}

func TestDigest(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		expected Hash
	}{
		{name: "empty string", content: "", expected: expectedDigest("")},
		{name: "plain text", content: "INSTANCE;", expected: expectedDigest("INSTANCE;")},
		{name: "whitespace is ignored", content: "public  static\tString\r\n INSTANCE;", expected: expectedDigest("publicstaticStringINSTANCE;")},
		{name: "only whitespace", content: " \t\n", expected: expectedDigest("")},
		{name: "non ascii", content: "héllo wörld", expected: expectedDigest("héllowörld")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Digest(tt.content); got != tt.expected {
				t.Fatalf("Digest(%q) = %s, want %s", tt.content, got, tt.expected)
			}
		})
	}
}

func TestDigestIsDeterministic(t *testing.T) {
	if Digest("a = b") != Digest("a = b") {
		t.Fatalf("expected equal digests for equal content")
	}
	if Digest("a = b") == Digest("a = c") {
		t.Fatalf("expected different digests for different content")
	}
}

func TestLineHash(t *testing.T) {
	doc := textrange.NewDocument("first\n  second line\r\nthird")

	h := LineHash(doc, line(2))
	if h == nil {
		t.Fatalf("expected a hash for an existing line")
	}
	if *h != Digest("  second line") {
		t.Fatalf("unexpected line hash %s", *h)
	}

	if LineHash(doc, line(4)) != nil {
		t.Fatalf("expected nil hash for a line past the end")
	}
	if LineHash(doc, nil) != nil {
		t.Fatalf("expected nil hash for a file level issue")
	}
	if LineHash(nil, line(1)) != nil {
		t.Fatalf("expected nil hash without a document")
	}
}

func TestRangeHash(t *testing.T) {
	lf := textrange.NewDocument("class A {\n  public static String\n    INSTANCE;\n}")
	crlf := textrange.NewDocument("class A {\r\n  public static String\r\n    INSTANCE;\r\n}")
	r := &textrange.Range{StartLine: 2, StartLineOffset: 2, EndLine: 3, EndLineOffset: 13}

	lfHash := RangeHash(lf, r)
	crlfHash := RangeHash(crlf, r)
	if lfHash == nil || crlfHash == nil {
		t.Fatalf("expected hashes for a resolvable range")
	}
	if *lfHash != *crlfHash {
		t.Fatalf("expected delimiter style not to change the range hash")
	}
	if *lfHash != Digest("public static String INSTANCE;") {
		t.Fatalf("unexpected range hash %s", *lfHash)
	}

	if RangeHash(lf, nil) != nil {
		t.Fatalf("expected nil hash for an absent range")
	}
	if RangeHash(lf, &textrange.Range{StartLine: 9, EndLine: 9}) != nil {
		t.Fatalf("expected nil hash for an out of bounds range")
	}
}
