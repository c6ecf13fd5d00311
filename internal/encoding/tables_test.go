package encoding

import "testing"

func contains(list []string, want string) bool {
	for _, v := range list {
		if v == want {
			return true
		}
	}
	return false
}

func TestDotsContainsOverlongVariant(t *testing.T) {
	if !contains(DOTS, "%c0%ae%c0%ae") {
		t.Fatal("DOTS must contain the UTF-8 overlong \"..\" variant %c0%ae%c0%ae")
	}
}

func TestNonRecursivePatternsContainEncodedBase(t *testing.T) {
	if !contains(NonRecursiveBypassPatterns, "..%252f") {
		t.Fatal("NonRecursiveBypassPatterns must contain the base pattern ..%252f")
	}
}

func TestNullEncodingsContainPlainNull(t *testing.T) {
	if !contains(NullEncodings, "%00") {
		t.Fatal("NullEncodings must contain %00")
	}
}

func TestFakeExtensionsContainPNG(t *testing.T) {
	if !contains(FakeExtensions, ".png") {
		t.Fatal("FakeExtensions must contain .png")
	}
}

func TestTablesNonEmpty(t *testing.T) {
	tables := map[string][]string{
		"DOTS":                       DOTS,
		"SLASHES":                    SLASHES,
		"SpecialPatterns":            SpecialPatterns,
		"NonRecursiveBypassPatterns": NonRecursiveBypassPatterns,
		"FilesWindows":               FilesWindows,
		"FilesUnix":                  FilesUnix,
		"ExtraFiles":                 ExtraFiles,
		"AbsFilesWindows":            AbsFilesWindows,
		"AbsFilesUnix":               AbsFilesUnix,
		"PrefixesWindows":            PrefixesWindows,
		"PrefixesUnix":               PrefixesUnix,
		"NullEncodings":              NullEncodings,
		"FakeExtensions":             FakeExtensions,
	}
	for name, table := range tables {
		if len(table) == 0 {
			t.Errorf("table %s must not be empty", name)
		}
	}
}
