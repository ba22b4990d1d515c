// Package parser parses JavaScript and TypeScript sources with tree-sitter
// and lowers the concrete syntax tree into an ESTree-shaped tree.
package parser

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"

	"github.com/panbanda/jsflow/pkg/estree"
)

// Language represents a supported source language.
type Language string

const (
	LangJavaScript Language = "javascript"
	LangTypeScript Language = "typescript"
	LangTSX        Language = "tsx"
	LangUnknown    Language = "unknown"
)

// Parser wraps a tree-sitter parser. A Parser is not safe for concurrent
// use; create one per goroutine.
type Parser struct {
	parser *sitter.Parser
}

// ParseResult contains the lowered program and its metadata.
type ParseResult struct {
	Tree     *sitter.Tree
	Program  *estree.Node
	Language Language
	Source   []byte
	Path     string
}

// SyntaxError reports source that tree-sitter could not parse.
type SyntaxError struct {
	Path   string
	Line   int
	Column int
	Near   string
}

func (e *SyntaxError) Error() string {
	if e.Near != "" {
		return fmt.Sprintf("%s:%d:%d: parsing error near %q", e.Path, e.Line, e.Column, e.Near)
	}
	return fmt.Sprintf("%s:%d:%d: parsing error", e.Path, e.Line, e.Column)
}

// New creates a new parser instance.
func New() *Parser {
	return &Parser{
		parser: sitter.NewParser(),
	}
}

// ParseFile reads and parses a source file.
func (p *Parser) ParseFile(path string) (*ParseResult, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	lang := DetectLanguage(path)
	if lang == LangUnknown {
		return nil, fmt.Errorf("unsupported language for file: %s", path)
	}

	return p.Parse(source, lang, path)
}

// Parse parses source in the given language and lowers it to ESTree.
func (p *Parser) Parse(source []byte, lang Language, path string) (*ParseResult, error) {
	return p.ParseCtx(context.Background(), source, lang, path)
}

// ParseCtx is Parse with a context that can cancel a long parse.
func (p *Parser) ParseCtx(ctx context.Context, source []byte, lang Language, path string) (*ParseResult, error) {
	tsLang, err := GetTreeSitterLanguage(lang)
	if err != nil {
		return nil, err
	}

	p.parser.SetLanguage(tsLang)
	tree, err := p.parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, fmt.Errorf("failed to parse: %w", err)
	}

	root := tree.RootNode()
	if root.HasError() {
		return nil, syntaxError(root, source, path)
	}

	c := &converter{src: source}
	program := c.program(root)
	estree.LinkParents(program)

	return &ParseResult{
		Tree:     tree,
		Program:  program,
		Language: lang,
		Source:   source,
		Path:     path,
	}, nil
}

func syntaxError(root *sitter.Node, source []byte, path string) *SyntaxError {
	bad := root
	Walk(root, source, func(n *sitter.Node, _ []byte) bool {
		if n.IsError() || n.IsMissing() {
			bad = n
			return false
		}
		return bad == root
	})

	near := GetNodeText(bad, source)
	if i := strings.IndexByte(near, '\n'); i >= 0 {
		near = near[:i]
	}
	if len(near) > 40 {
		near = near[:40]
	}
	if bad == root {
		near = ""
	}

	pt := bad.StartPoint()
	return &SyntaxError{Path: path, Line: int(pt.Row) + 1, Column: int(pt.Column), Near: near}
}

// GetTreeSitterLanguage returns the tree-sitter grammar for lang.
func GetTreeSitterLanguage(lang Language) (*sitter.Language, error) {
	switch lang {
	case LangJavaScript:
		return javascript.GetLanguage(), nil
	case LangTypeScript:
		return typescript.GetLanguage(), nil
	case LangTSX:
		return tsx.GetLanguage(), nil
	default:
		return nil, fmt.Errorf("unsupported language: %s", lang)
	}
}

// DetectLanguage determines the language from a file path.
func DetectLanguage(path string) Language {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".js", ".mjs", ".cjs":
		return LangJavaScript
	case ".jsx":
		return LangTSX // the TSX grammar parses JSX
	case ".ts", ".mts", ".cts":
		return LangTypeScript
	case ".tsx":
		return LangTSX
	default:
		return LangUnknown
	}
}

// Close releases parser resources.
func (p *Parser) Close() {
	p.parser.Close()
}

// NodeVisitor is a function that visits tree-sitter nodes.
type NodeVisitor func(node *sitter.Node, source []byte) bool

// Walk traverses the concrete tree calling visitor for each node.
func Walk(node *sitter.Node, source []byte, visitor NodeVisitor) {
	if node == nil {
		return
	}

	if !visitor(node, source) {
		return
	}

	for i := range int(node.ChildCount()) {
		Walk(node.Child(i), source, visitor)
	}
}

// GetNodeText extracts the source text for a node.
// Returns empty string if node is nil or byte offsets are out of bounds.
func GetNodeText(node *sitter.Node, source []byte) string {
	if node == nil {
		return ""
	}
	start := node.StartByte()
	end := node.EndByte()
	if start > end || end > uint32(len(source)) {
		return ""
	}
	return string(source[start:end])
}
