package shared

import (
	"testing"

	"github.com/spf13/pflag"
)

func TestHasFlags(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("sarif", "", "")
	flags.Bool("refresh", false, "")

	if err := flags.Parse(nil); err != nil {
		t.Fatalf("parse: %v", err)
	}
	if HasFlags(flags) {
		t.Fatalf("expected no flags to be reported before any is set")
	}

	if err := flags.Parse([]string{"--refresh"}); err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !HasFlags(flags) {
		t.Fatalf("expected --refresh to be reported")
	}
}
