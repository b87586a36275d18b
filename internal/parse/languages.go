package parse

import (
	"path/filepath"
	"sort"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
)

// Language is the canonical name of the only grammar the extractor handles.
const Language = "javascript"

// extToLanguage maps file extensions to canonical language names.
var extToLanguage = map[string]string{
	".js":  Language,
	".mjs": Language,
	".cjs": Language,
	".jsx": Language,
}

var (
	grammar     *sitter.Language
	grammarOnce sync.Once
)

func javascriptGrammar() *sitter.Language {
	grammarOnce.Do(func() {
		grammar = javascript.GetLanguage()
	})
	return grammar
}

// LanguageForFile returns the canonical language name for a file path based
// on its extension. Returns ("", false) if the extension is not recognized.
func LanguageForFile(path string) (string, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	lang, ok := extToLanguage[ext]
	return lang, ok
}

// Extensions returns the recognized file extensions, with leading dots, in
// sorted order.
func Extensions() []string {
	exts := make([]string, 0, len(extToLanguage))
	for ext := range extToLanguage {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}
