package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndLookup(t *testing.T) {
	Register(LanguageInfo{ID: "Java", Extensions: []string{".java", "JAV", " .java "}})

	info, ok := Lookup("java")
	require.True(t, ok)
	assert.Equal(t, []string{".java", ".jav"}, info.Extensions)

	for _, ext := range []string{".java", ".JAVA", "java", ".jav"} {
		info, ok := LookupByExtension(ext)
		require.True(t, ok, ext)
		assert.Equal(t, "java", info.ID)
	}

	_, ok = LookupByExtension(".kt")
	assert.False(t, ok)
	_, ok = LookupByExtension("")
	assert.False(t, ok)
}

func TestRegisterReplacesExtensions(t *testing.T) {
	Register(LanguageInfo{ID: "groovy", Extensions: []string{".groovy", ".gvy"}})
	Register(LanguageInfo{ID: "groovy", Extensions: []string{".groovy"}})

	assert.Equal(t, "groovy", Detect("build/Build.groovy"))
	assert.Empty(t, Detect("build/Build.gvy"))
}

func TestRegisterIgnoresEmptyID(t *testing.T) {
	before := len(Languages())
	Register(LanguageInfo{Extensions: []string{".x"}})
	assert.Len(t, Languages(), before)
}

func TestDetect(t *testing.T) {
	Register(LanguageInfo{ID: "java", Extensions: []string{".java"}})

	assert.Equal(t, "java", Detect("src/test/java/FooTest.java"))
	assert.Empty(t, Detect("README.md"))
	assert.Empty(t, Detect("Makefile"))
}

func TestLanguagesSorted(t *testing.T) {
	Register(LanguageInfo{ID: "java", Extensions: []string{".java"}})
	Register(LanguageInfo{ID: "groovy", Extensions: []string{".groovy"}})

	var ids []string
	for _, info := range Languages() {
		ids = append(ids, info.ID)
	}
	assert.IsNonDecreasing(t, ids)
}
