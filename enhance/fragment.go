package enhance

import (
	"github.com/beevik/etree"
)

// rewriteFn inspects one text token and returns the replacement token
// sequence, or nil to leave the token alone. Tokens are owned by the caller
// after return.
type rewriteFn func(parent *etree.Element, text string) []etree.Token

// rewriteText walks the subtree under root and applies fn to every text
// token. Subtrees produced by earlier annotation passes (marked with
// AttrKind) are skipped, patterns inside generated markup never match twice.
func rewriteText(root *etree.Element, fn rewriteFn) {
	for _, child := range root.ChildElements() {
		if child.SelectAttr(AttrKind) != nil {
			continue
		}
		rewriteText(child, fn)
	}

	var (
		out     []etree.Token
		changed bool
	)
	for _, tok := range root.Child {
		cd, ok := tok.(*etree.CharData)
		if !ok {
			out = append(out, tok)
			continue
		}
		repl := fn(root, cd.Data)
		if repl == nil {
			out = append(out, tok)
			continue
		}
		out = append(out, repl...)
		changed = true
	}
	if !changed {
		return
	}
	for len(root.Child) > 0 {
		root.RemoveChildAt(0)
	}
	for _, tok := range out {
		root.AddChild(tok)
	}
}
