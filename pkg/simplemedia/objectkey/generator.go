package objectkey

import (
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"
)

// Generator defines the interface for object key generation strategies
type Generator interface {
	// GenerateKey creates an object key for a payload placed in folder
	GenerateKey(folder string, objectID uuid.UUID, fileName string) string
}

// FolderGenerator keeps the folder taxonomy in the key.
// Structure: {folder}/{objectID-hex}_{filename}
type FolderGenerator struct {
	// Prefix is prepended to every key, e.g. "studio"
	Prefix string
}

func NewFolderGenerator() *FolderGenerator {
	return &FolderGenerator{}
}

func (g *FolderGenerator) GenerateKey(folder string, objectID uuid.UUID, fileName string) string {
	name := strings.ReplaceAll(objectID.String(), "-", "")
	if fileName != "" {
		name = fmt.Sprintf("%s_%s", name, sanitizeFilename(fileName))
	}
	return join(g.Prefix, SanitizeFolder(folder), name)
}

// FlatGenerator ignores the folder and shards by object ID.
// Structure: objects/{ab}/{cd1234ef5678}_{filename}
type FlatGenerator struct {
	// ShardLength controls how many characters to use for sharding (default: 2)
	ShardLength int
}

func NewFlatGenerator() *FlatGenerator {
	return &FlatGenerator{ShardLength: 2}
}

func (g *FlatGenerator) GenerateKey(folder string, objectID uuid.UUID, fileName string) string {
	idStr := strings.ReplaceAll(objectID.String(), "-", "")
	shard := g.ShardLength
	if shard <= 0 || shard > len(idStr) {
		shard = 2
	}
	name := idStr[shard:]
	if fileName != "" {
		name = fmt.Sprintf("%s_%s", name, sanitizeFilename(fileName))
	}
	return join("objects", idStr[:shard], name)
}

// CustomFuncGenerator allows users to provide their own key generation function
type CustomFuncGenerator struct {
	GenerateFunc func(folder string, objectID uuid.UUID, fileName string) string
}

func NewCustomFuncGenerator(fn func(folder string, objectID uuid.UUID, fileName string) string) *CustomFuncGenerator {
	return &CustomFuncGenerator{GenerateFunc: fn}
}

func (g *CustomFuncGenerator) GenerateKey(folder string, objectID uuid.UUID, fileName string) string {
	return g.GenerateFunc(folder, objectID, fileName)
}

// SanitizeFolder cleans every segment of a slash separated folder and drops
// empty, "." and ".." segments.
func SanitizeFolder(folder string) string {
	var segs []string
	for _, s := range strings.Split(folder, "/") {
		s = sanitizePathComponent(s)
		if s == "" || s == "." || s == ".." {
			continue
		}
		segs = append(segs, s)
	}
	return strings.Join(segs, "/")
}

func join(parts ...string) string {
	var nonEmpty []string
	for _, p := range parts {
		if p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return path.Join(nonEmpty...)
}

var unsafeChars = strings.NewReplacer(
	"/", "_",
	"\\", "_",
	":", "_",
	"*", "_",
	"?", "_",
	"\"", "_",
	"<", "_",
	">", "_",
	"|", "_",
	" ", "_",
	"#", "_",
	"%", "_",
)

// Helper functions for path sanitization
func sanitizeFilename(filename string) string {
	filename = path.Base(strings.ReplaceAll(filename, "\\", "/"))
	if filename == "." || filename == "/" {
		return ""
	}
	return unsafeChars.Replace(filename)
}

func sanitizePathComponent(component string) string {
	return strings.ToLower(unsafeChars.Replace(strings.TrimSpace(component)))
}

// NewRecommendedGenerator returns the recommended generator for new installations
func NewRecommendedGenerator() Generator {
	return NewFolderGenerator()
}
