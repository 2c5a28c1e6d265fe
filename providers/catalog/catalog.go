// Package catalog maps file extensions to the languages junify can migrate.
package catalog

import (
	"path/filepath"
	"slices"
	"strings"
	"sync"
)

// LanguageInfo describes a registered language.
type LanguageInfo struct {
	ID         string
	Extensions []string
}

var (
	mu     sync.RWMutex
	byLang = make(map[string]LanguageInfo)
	byExt  = make(map[string]string)
)

// Register records info, replacing an earlier entry for the same language
// and dropping the extensions that entry claimed.
func Register(info LanguageInfo) {
	id := strings.ToLower(strings.TrimSpace(info.ID))
	if id == "" {
		return
	}
	info.ID = id
	info.Extensions = normalize(info.Extensions)

	mu.Lock()
	defer mu.Unlock()
	if prev, ok := byLang[id]; ok {
		for _, ext := range prev.Extensions {
			if byExt[ext] == id {
				delete(byExt, ext)
			}
		}
	}
	byLang[id] = info
	for _, ext := range info.Extensions {
		byExt[ext] = id
	}
}

// Lookup returns the language registered under id
func Lookup(id string) (LanguageInfo, bool) {
	mu.RLock()
	defer mu.RUnlock()
	info, ok := byLang[strings.ToLower(id)]
	return info, ok
}

// LookupByExtension returns the language claiming ext, with or without dot
func LookupByExtension(ext string) (LanguageInfo, bool) {
	norm := normalize([]string{ext})
	if len(norm) == 0 {
		return LanguageInfo{}, false
	}
	mu.RLock()
	defer mu.RUnlock()
	id, ok := byExt[norm[0]]
	if !ok {
		return LanguageInfo{}, false
	}
	return byLang[id], true
}

// Detect returns the language of path from its extension, or ""
func Detect(path string) string {
	if info, ok := LookupByExtension(filepath.Ext(path)); ok {
		return info.ID
	}
	return ""
}

// Languages returns every registered language ordered by ID
func Languages() []LanguageInfo {
	mu.RLock()
	defer mu.RUnlock()
	infos := make([]LanguageInfo, 0, len(byLang))
	for _, info := range byLang {
		infos = append(infos, info)
	}
	slices.SortFunc(infos, func(a, b LanguageInfo) int {
		return strings.Compare(a.ID, b.ID)
	})
	return infos
}

// normalize lowercases extensions, adds the leading dot and drops duplicates
func normalize(exts []string) []string {
	out := make([]string, 0, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" || ext == "." {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		if !slices.Contains(out, ext) {
			out = append(out, ext)
		}
	}
	return out
}
