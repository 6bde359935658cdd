package python

import (
	"bytes"
	"context"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/mertakgul/depscope/internal/ir"
	"github.com/mertakgul/depscope/internal/plugins"
)

// Plugin implements SourcePlugin for Python.
type Plugin struct{}

func New() *Plugin { return &Plugin{} }

func (p *Plugin) Language() string { return "python" }

func (p *Plugin) FileExtensions() []string { return []string{".py"} }

func (p *Plugin) Extract(ctx context.Context, files []plugins.SourceFile) (*ir.ScanResult, error) {
	result := &ir.ScanResult{
		Metadata: map[string]string{"source_language": "python"},
	}

	for _, f := range files {
		result.Files = append(result.Files, scanFile(f))
	}

	return result, nil
}

var (
	// import a.b, c.d as e
	importPattern = regexp.MustCompile(`^import\s+(.+)$`)
	importItem    = regexp.MustCompile(`^([\w.]+)(?:\s+as\s+(\w+))?$`)

	// from ..pkg.mod import a, b as c
	fromPattern = regexp.MustCompile(`^from\s+(\.*)([\w.]*)\s+import\s+(.+)$`)
	nameItem    = regexp.MustCompile(`^([\w*]+)(?:\s+as\s+(\w+))?$`)

	// class Foo(Base): / def bar(): / async def baz(): at column 0
	classPattern = regexp.MustCompile(`^class\s+(\w+)`)
	defPattern   = regexp.MustCompile(`^(?:async\s+)?def\s+(\w+)`)

	// importlib.import_module("pkg.mod") / __import__(name)
	dynamicPattern = regexp.MustCompile(`\b(importlib\.import_module|__import__)\s*\(\s*([^),]*)`)
	literalArg     = regexp.MustCompile(`^(['"])([\w.]+)(['"])$`)
)

func scanFile(f plugins.SourceFile) *ir.FileSummary {
	sum := &ir.FileSummary{
		Path:     f.Path,
		Module:   ir.ModuleName(f.Path),
		Language: "python",
	}

	if f.ReadError != "" {
		sum.Unparsable = true
		sum.ParseError = f.ReadError
		return sum
	}
	if !utf8.Valid(f.Content) || bytes.IndexByte(f.Content, 0) >= 0 {
		sum.Unparsable = true
		sum.ParseError = "content is not valid UTF-8 text"
		return sum
	}

	lines := splitLines(string(f.Content))
	sum.Lines = len(lines)

	inString := "" // active triple-quote delimiter, "" when outside
	for i := 0; i < len(lines); i++ {
		raw := lines[i]
		lineNo := i + 1

		var code string
		code, inString = stripStrings(raw, inString)

		for _, m := range dynamicPattern.FindAllStringSubmatch(code, -1) {
			sum.DynamicCalls = append(sum.DynamicCalls, classifyDynamic(m[1], m[2], lineNo))
		}

		trimmed := strings.TrimSpace(code)

		if m := classPattern.FindStringSubmatch(code); m != nil {
			sum.ClassNames = append(sum.ClassNames, m[1])
			continue
		}
		if m := defPattern.FindStringSubmatch(code); m != nil {
			sum.FunctionNames = append(sum.FunctionNames, m[1])
			continue
		}

		// Parenthesized from-imports span lines; fold the group into the
		// statement's first line before matching.
		if strings.Contains(trimmed, "import") && unbalanced(trimmed) {
			for i+1 < len(lines) && unbalanced(trimmed) {
				i++
				next, rest := stripStrings(lines[i], inString)
				inString = rest
				trimmed += " " + strings.TrimSpace(next)
			}
			trimmed = strings.ReplaceAll(trimmed, "(", " ")
			trimmed = strings.ReplaceAll(trimmed, ")", " ")
			trimmed = strings.TrimSpace(trimmed)
		}

		if m := fromPattern.FindStringSubmatch(trimmed); m != nil {
			stmt := &ir.ImportStmt{
				Target: m[2],
				Line:   lineNo,
			}
			if len(m[1]) > 0 {
				stmt.Relative = true
				stmt.Level = len(m[1])
			}
			for _, item := range strings.Split(m[3], ",") {
				item = strings.TrimSpace(item)
				if nm := nameItem.FindStringSubmatch(item); nm != nil {
					stmt.Names = append(stmt.Names, nm[1])
				}
			}
			if len(stmt.Names) > 0 {
				sum.Imports = append(sum.Imports, stmt)
			}
			continue
		}

		if m := importPattern.FindStringSubmatch(trimmed); m != nil {
			for _, item := range strings.Split(m[1], ",") {
				item = strings.TrimSpace(item)
				im := importItem.FindStringSubmatch(item)
				if im == nil {
					continue
				}
				sum.Imports = append(sum.Imports, &ir.ImportStmt{
					Target: im[1],
					Alias:  im[2],
					Line:   lineNo,
				})
			}
		}
	}

	return sum
}

func classifyDynamic(mechanism, arg string, line int) *ir.DynamicCall {
	call := &ir.DynamicCall{
		Mechanism: mechanism,
		ArgKind:   ir.ArgComputed,
		Line:      line,
	}
	arg = strings.TrimSpace(arg)
	if m := literalArg.FindStringSubmatch(arg); m != nil && m[1] == m[3] {
		call.ArgKind = ir.ArgLiteral
		call.Arg = m[2]
	}
	return call
}

// stripStrings removes comments and blanks out string contents so that
// keywords inside literals never match. Triple-quoted strings carry state
// across lines through the returned delimiter.
func stripStrings(line, open string) (string, string) {
	var out strings.Builder
	i := 0
	for i < len(line) {
		if open != "" {
			end := strings.Index(line[i:], open)
			if end < 0 {
				return out.String(), open
			}
			i += end + len(open)
			open = ""
			continue
		}
		c := line[i]
		if c == '#' {
			break
		}
		if c == '\'' || c == '"' {
			q := string(c)
			if strings.HasPrefix(line[i:], q+q+q) {
				rest := line[i+3:]
				end := strings.Index(rest, q+q+q)
				if end < 0 {
					return out.String(), q + q + q
				}
				i += 3 + end + 3
				out.WriteString(`""`)
				continue
			}
			// single-quoted literal, keep it verbatim so literal
			// dynamic-import arguments survive
			end := strings.Index(line[i+1:], q)
			if end < 0 {
				out.WriteByte(c)
				i++
				continue
			}
			out.WriteString(line[i : i+1+end+1])
			i += end + 2
			continue
		}
		out.WriteByte(c)
		i++
	}
	return out.String(), open
}

func unbalanced(s string) bool {
	return strings.Count(s, "(") > strings.Count(s, ")")
}

func splitLines(content string) []string {
	if content == "" {
		return nil
	}
	lines := strings.Split(content, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
