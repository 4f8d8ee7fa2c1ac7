package cliutil

import "testing"

func Test_ResolveIgnoreCase_ExplicitFlagWins(t *testing.T) {
	if !ResolveIgnoreCase("Foo", true, true, false) {
		t.Fatal("explicit -i should force case-insensitive regardless of pattern case")
	}
	if ResolveIgnoreCase("foo", false, true, false) {
		t.Fatal("explicit -i absence (ignoreCase=false but set) should force case-sensitive")
	}
}

func Test_ResolveIgnoreCase_NoSmartCaseDisablesHeuristic(t *testing.T) {
	if ResolveIgnoreCase("foo", false, false, true) {
		t.Fatal("--no-smart-case should leave matching case-sensitive for a lowercase pattern")
	}
}

func Test_ResolveIgnoreCase_SmartCaseDefault(t *testing.T) {
	if ResolveIgnoreCase("Foo", false, false, false) {
		t.Fatal("mixed-case pattern under smart-case should stay case-sensitive")
	}
	if !ResolveIgnoreCase("foo", false, false, false) {
		t.Fatal("all-lowercase pattern under smart-case should become case-insensitive")
	}
}

func Test_DefaultDirJobs_IsTwo(t *testing.T) {
	if DefaultDirJobs() != 2 {
		t.Fatalf("DefaultDirJobs() = %d, want 2", DefaultDirJobs())
	}
}

func Test_DefaultScanJobs_AtLeastOne(t *testing.T) {
	if DefaultScanJobs() < 1 {
		t.Fatal("DefaultScanJobs() must be at least 1")
	}
}

func Test_Parse_FillsPatternAndDefaultsPathToCwd(t *testing.T) {
	fs, cfg := NewFlagSet("ucg")
	if err := Parse(fs, cfg, []string{"needle"}); err != nil {
		t.Fatal(err)
	}
	if cfg.Pattern != "needle" {
		t.Fatalf("Pattern = %q, want needle", cfg.Pattern)
	}
	if len(cfg.Paths) != 1 || cfg.Paths[0] != "." {
		t.Fatalf("Paths = %v, want [.]", cfg.Paths)
	}
}

func Test_Parse_MissingPatternIsUsageError(t *testing.T) {
	fs, cfg := NewFlagSet("ucg")
	err := Parse(fs, cfg, []string{"--ignore-case"})
	if err == nil {
		t.Fatal("expected usage error for missing PATTERN")
	}
	cliErr, ok := err.(*CLIError)
	if !ok || cliErr.Code != ExitUsageError {
		t.Fatalf("got %v, want a CLIError with code %d", err, ExitUsageError)
	}
}

func Test_Parse_TracksWhetherIgnoreCaseWasExplicit(t *testing.T) {
	fs, cfg := NewFlagSet("ucg")
	if err := Parse(fs, cfg, []string{"-i", "needle"}); err != nil {
		t.Fatal(err)
	}
	if !cfg.IgnoreCaseSet {
		t.Fatal("expected IgnoreCaseSet to be true when -i was passed")
	}
}

func Test_Parse_RepeatableFlagsCollectAllOccurrences(t *testing.T) {
	fs, cfg := NewFlagSet("ucg")
	err := Parse(fs, cfg, []string{
		"--ignore-dir", "vendor",
		"--ignore-dir", "build",
		"needle",
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(cfg.ExcludeDirs) != 2 || cfg.ExcludeDirs[0] != "vendor" || cfg.ExcludeDirs[1] != "build" {
		t.Fatalf("ExcludeDirs = %v, want [vendor build]", cfg.ExcludeDirs)
	}
}

func Test_KnownLongFlags_ContainsStaticFlagNames(t *testing.T) {
	known := KnownLongFlags()
	for _, name := range []string{"ignore-case", "type-add", "ignore-dir", "format"} {
		if !known[name] {
			t.Fatalf("expected %q to be a known long flag", name)
		}
	}
}
