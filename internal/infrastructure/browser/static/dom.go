package static

import (
	"strings"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
)

func attr(n *html.Node, name string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}

func setAttr(n *html.Node, name, value string) {
	for i := range n.Attr {
		if n.Attr[i].Key == name {
			n.Attr[i].Val = value
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: name, Val: value})
}

// setValue keeps the value attribute and, for textarea, the text content in sync.
func setValue(n *html.Node, value string) {
	setAttr(n, "value", value)
	if n.Data != "textarea" {
		return
	}
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		n.RemoveChild(c)
		c = next
	}
	if value != "" {
		n.AppendChild(&html.Node{Type: html.TextNode, Data: value})
	}
}

func hidden(n *html.Node) bool {
	for p := n; p != nil; p = p.Parent {
		if p.Type != html.ElementNode {
			continue
		}
		if _, ok := attr(p, "hidden"); ok {
			return true
		}
		if v, _ := attr(p, "aria-hidden"); v == "true" {
			return true
		}
		style := strings.ReplaceAll(htmlquery.SelectAttr(p, "style"), " ", "")
		if strings.Contains(style, "display:none") || strings.Contains(style, "visibility:hidden") {
			return true
		}
		if p.Data == "input" && htmlquery.SelectAttr(p, "type") == "hidden" {
			return true
		}
	}
	return false
}

func disabled(n *html.Node) bool {
	if _, ok := attr(n, "disabled"); ok {
		return true
	}
	v, _ := attr(n, "aria-disabled")
	return v == "true"
}

func closestRole(n *html.Node, role string) *html.Node {
	for p := n.Parent; p != nil; p = p.Parent {
		if v, _ := attr(p, "role"); v == role {
			return p
		}
	}
	return nil
}

func documentOrder(root, target *html.Node) int {
	idx := 0
	var found int = -1
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if found >= 0 {
			return
		}
		if n.Type == html.ElementNode {
			if n == target {
				found = idx
				return
			}
			idx++
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return found
}
