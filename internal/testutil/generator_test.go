package testutil

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestGenerateDocument_LineCount(t *testing.T) {
	content := GenerateDocument(100)
	assert.Equal(t, 99, strings.Count(content, "\n"))
	assert.False(t, strings.HasSuffix(content, "\n"))
}

func TestGenerateDocument_ValidUTF8(t *testing.T) {
	assert.True(t, utf8.ValidString(GenerateDocument(50)))
}

func TestGenerateDocument_ContainsCRLF(t *testing.T) {
	assert.Contains(t, GenerateDocument(20), "\r\n")
}

func TestGenerateDocument_Empty(t *testing.T) {
	assert.Equal(t, "", GenerateDocument(0))
}

func TestLineStarts(t *testing.T) {
	assert.Equal(t, []int{0}, LineStarts(""))
	assert.Equal(t, []int{0, 2, 4}, LineStarts("a\nb\n"))
	assert.Equal(t, []int{0, 3}, LineStarts("a\r\nb"))
}
