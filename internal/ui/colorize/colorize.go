// Package colorize highlights instruction cells for terminal output.
package colorize

import (
	"os"
	"strings"

	"github.com/acarl005/stripansi"
	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// Disabled reports whether DUMPDIFF_NO_COLOR or NO_COLOR turns colour off.
func Disabled() bool {
	return os.Getenv("DUMPDIFF_NO_COLOR") != "" || os.Getenv("NO_COLOR") != ""
}

// getAssemblyLexer returns an appropriate assembly lexer with fallbacks
func getAssemblyLexer() chroma.Lexer {
	candidates := []string{"armasm", "gas", "GAS", "nasm"}
	for _, name := range candidates {
		if lexer := lexers.Get(name); lexer != nil {
			return lexer
		}
	}
	return nil
}

// getDisasmStyle returns the disassembly style with fallbacks
func getDisasmStyle() *chroma.Style {
	candidates := []string{"disasm-dark", "dracula", "monokai"}
	for _, name := range candidates {
		if style := styles.Get(name); style != nil {
			return style
		}
	}
	return styles.Fallback
}

// getTerminalFormatter returns an appropriate terminal formatter
func getTerminalFormatter() chroma.Formatter {
	candidates := []string{"terminal16m", "terminal256"}
	for _, name := range candidates {
		if formatter := formatters.Get(name); formatter != nil {
			return formatter
		}
	}
	return formatters.Fallback
}

// Instruction highlights a single instruction cell. It returns the input
// unchanged when colour is disabled or highlighting fails, so the caller can
// always pad on the plain text.
func Instruction(text string) string {
	if text == "" || Disabled() {
		return text
	}

	lexer := getAssemblyLexer()
	if lexer == nil {
		return text
	}

	iterator, err := lexer.Tokenise(nil, text)
	if err != nil {
		return text
	}

	var buf strings.Builder
	if err := getTerminalFormatter().Format(&buf, getDisasmStyle(), iterator); err != nil {
		return text
	}

	// Some lexers ensure a trailing newline; a cell must stay on one line.
	return strings.ReplaceAll(buf.String(), "\n", "")
}

// StripANSI removes ANSI escape sequences.
func StripANSI(s string) string {
	return stripansi.Strip(s)
}
