package java

import (
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/java"

	"github.com/oxhq/junify/engine"
)

// Config implements base.LanguageConfig for Java
type Config struct{}

// Language returns the language identifier
func (Config) Language() string {
	return "java"
}

// Extensions returns supported file extensions
func (Config) Extensions() []string {
	return []string{".java"}
}

// GetLanguage returns the tree-sitter Java grammar
func (Config) GetLanguage() *sitter.Language {
	return java.GetLanguage()
}

// NodeTypes maps a pattern kind to the grammar node types carrying it
func (Config) NodeTypes(kind engine.Kind) []string {
	switch kind {
	case engine.KindMarker:
		return []string{"marker_annotation", "annotation"}
	case engine.KindKeyedSingleValue, engine.KindKeyedMultiValue:
		return []string{"annotation"}
	case engine.KindCall:
		return []string{"method_invocation"}
	case engine.KindTypeDecl:
		return []string{"class_declaration"}
	case engine.KindFieldDecl:
		return []string{"field_declaration"}
	}
	return nil
}
