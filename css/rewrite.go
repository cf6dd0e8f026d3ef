package css

import "strings"

// Rewrite confines stylesheet to the chapters it is used by. Font faces are
// dropped, every selector is prefixed with each namespace in turn (selectors
// addressing body and html are removed together with rules left without
// selectors) and finally every top level at-rule goes away. With no
// namespaces selectors are kept as is.
func Rewrite(sheet *Stylesheet, namespaces []string) {
	sheet.Items = dropFontFaces(sheet.Items)
	sheet.Items = scope(sheet.Items, namespaces)

	kept := sheet.Items[:0]
	for _, item := range sheet.Items {
		if item.AtRule == nil {
			kept = append(kept, item)
		}
	}
	sheet.Items = kept
}

func dropFontFaces(items []Item) []Item {
	kept := items[:0]
	for _, item := range items {
		if item.AtRule != nil {
			if item.AtRule.Name == "@font-face" {
				continue
			}
			item.AtRule.Items = dropFontFaces(item.AtRule.Items)
		}
		kept = append(kept, item)
	}
	return kept
}

func scope(items []Item, namespaces []string) []Item {
	kept := items[:0]
	for _, item := range items {
		switch {
		case item.AtRule != nil:
			item.AtRule.Items = scope(item.AtRule.Items, namespaces)
		case item.Rule != nil:
			item.Rule.Selectors = scopeSelectors(item.Rule.Selectors, namespaces)
			if len(item.Rule.Selectors) == 0 {
				continue
			}
		}
		kept = append(kept, item)
	}
	return kept
}

func scopeSelectors(selectors, namespaces []string) []string {
	res := make([]string, 0, len(selectors)*max(len(namespaces), 1))
	for _, sel := range selectors {
		sel = strings.TrimSpace(sel)
		if len(sel) == 0 || sel == "body" || sel == "html" {
			continue
		}
		if len(namespaces) == 0 {
			res = append(res, sel)
			continue
		}
		for _, ns := range namespaces {
			res = append(res, ns+" "+sel)
		}
	}
	return res
}
