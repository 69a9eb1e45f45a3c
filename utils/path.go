package utils

import (
	"strings"

	"github.com/projecteru2/guestops/types"
)

// Guest paths are remote strings: they follow the guest's conventions, not
// the host's, so path/filepath does not apply here.

// Separator returns the path separator for the guest OS family.
func Separator(f types.OSFamily) string {
	if f == types.OSFamilyWindows {
		return `\`
	}
	return "/"
}

// JoinGuest joins path elements with the guest separator, trimming
// redundant separators between elements.
func JoinGuest(f types.OSFamily, elems ...string) string {
	sep := Separator(f)
	var parts []string
	for _, e := range elems {
		e = strings.Trim(e, `/\`)
		if e != "" {
			parts = append(parts, e)
		}
	}
	joined := strings.Join(parts, sep)
	if f != types.OSFamilyWindows && len(elems) > 0 && strings.HasPrefix(elems[0], "/") {
		return "/" + joined
	}
	return joined
}

// BaseName returns the last path element, accepting either separator since
// callers may hold paths of a foreign OS family.
func BaseName(p string) string {
	p = strings.TrimRight(p, `/\`)
	if i := strings.LastIndexAny(p, `/\`); i >= 0 {
		return p[i+1:]
	}
	return p
}

// ParentDir returns the directory containing p, or "" when p has no parent.
func ParentDir(p string) string {
	p = strings.TrimRight(p, `/\`)
	i := strings.LastIndexAny(p, `/\`)
	switch {
	case i < 0:
		return ""
	case i == 0:
		return p[:1] // POSIX root
	default:
		return p[:i]
	}
}

// Ancestors decomposes path into its ancestor chain in root-to-leaf order,
// ending with path itself. Volume roots ("/", `C:`) are not included.
//
//	Ancestors(posix, "/a/b/c")   → ["/a", "/a/b", "/a/b/c"]
//	Ancestors(windows, `C:\a\b`) → [`C:\a`, `C:\a\b`]
func Ancestors(f types.OSFamily, path string) []string {
	sep := Separator(f)
	trimmed := strings.Trim(path, `/\`)
	if trimmed == "" {
		return nil
	}

	prefix := ""
	if f == types.OSFamilyWindows {
		if i := strings.Index(trimmed, ":"); i == 1 {
			prefix = trimmed[:2] + sep // drive letter
			trimmed = strings.Trim(trimmed[2:], `/\`)
		}
	} else if strings.HasPrefix(path, "/") {
		prefix = "/"
	}

	var out []string
	segments := strings.FieldsFunc(trimmed, func(r rune) bool { return r == '/' || r == '\\' })
	current := ""
	for _, seg := range segments {
		if current == "" {
			current = prefix + seg
		} else {
			current = current + sep + seg
		}
		out = append(out, current)
	}
	return out
}
