package expr

import (
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"

	"github.com/matzehuels/reana/pkg/errors"
)

// Substitute replaces every identifier of src that has an entry in
// replacements by the parenthesized replacement text. Identifiers without an
// entry are kept. The result is normalized to single spaces between tokens.
func Substitute(src string, replacements map[string]string) (string, error) {
	tokens, diags := hclsyntax.LexExpression([]byte(src), filename, hcl.Pos{Line: 1, Column: 1})
	if diags.HasErrors() {
		return "", errors.Wrap(errors.ErrCodeInvalidExpression, diags, "lex %q", src)
	}

	var b strings.Builder
	for _, tok := range tokens {
		if tok.Type == hclsyntax.TokenEOF {
			break
		}
		text := string(tok.Bytes)
		if tok.Type == hclsyntax.TokenIdent {
			if r, ok := replacements[text]; ok {
				text = atom(r)
			}
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(text)
	}
	if b.Len() == 0 {
		return "", errors.New(errors.ErrCodeInvalidExpression, "empty expression")
	}
	return b.String(), nil
}
