// Package static is a BrowserPort over in-memory markup. Pages are parsed with
// htmlquery and XPath lookups run against the parsed tree, so the same selector
// catalogue works here and in a real browser.
//
// Navigation between pages is declared in the markup: clicking an element (or
// a descendant of an element) carrying data-goto="N" switches to page N, and
// data-goto="next" to the following page. Positions come from data-x/data-y.
package static

import (
	"bytes"
	"context"
	"fmt"
	"image/color"
	"os"
	"strconv"
	"strings"
	"sync"

	"form-agent/internal/application/port/output"
	"form-agent/internal/domain/entity"

	"github.com/antchfx/htmlquery"
	"github.com/disintegration/imaging"
	"golang.org/x/net/html"
)

var _ output.BrowserPort = (*Driver)(nil)

type ClickHook func(el *Element) error

type Driver struct {
	mu         sync.Mutex
	sources    []string
	docs       []*html.Node
	current    int
	generation int
	url        string
	closed     bool
	clicks     []string

	// OnClick and OnScriptClick run before the click is applied; an error
	// makes the click fail.
	OnClick       ClickHook
	OnScriptClick ClickHook
	// OnEscape runs before open listboxes collapse; an error aborts the key press.
	OnEscape func() error
}

type Element struct {
	node       *html.Node
	generation int
}

func (e *Element) Describe() string {
	if e == nil || e.node == nil {
		return "<nil>"
	}
	var b strings.Builder
	b.WriteString(e.node.Data)
	for _, name := range []string{"id", "role", "aria-label", "type"} {
		if v := htmlquery.SelectAttr(e.node, name); v != "" {
			fmt.Fprintf(&b, "[%s=%q]", name, v)
		}
	}
	return b.String()
}

func (e *Element) Node() *html.Node {
	return e.node
}

func New(pages ...string) (*Driver, error) {
	if len(pages) == 0 {
		return nil, fmt.Errorf("static driver needs at least one page")
	}
	d := &Driver{sources: pages, url: "about:blank"}
	if err := d.parse(); err != nil {
		return nil, err
	}
	return d, nil
}

func FromFiles(paths ...string) (*Driver, error) {
	pages := make([]string, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("read page %s: %w", p, err)
		}
		pages = append(pages, string(data))
	}
	return New(pages...)
}

func (d *Driver) parse() error {
	docs := make([]*html.Node, 0, len(d.sources))
	for i, src := range d.sources {
		doc, err := htmlquery.Parse(strings.NewReader(src))
		if err != nil {
			return fmt.Errorf("parse page %d: %w", i, err)
		}
		docs = append(docs, doc)
	}
	d.docs = docs
	return nil
}

// PageIndex is the index of the page currently shown.
func (d *Driver) PageIndex() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.current
}

// Document exposes the current tree for assertions.
func (d *Driver) Document() *html.Node {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.docs[d.current]
}

// Clicks lists the elements successfully clicked, in order.
func (d *Driver) Clicks() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.clicks...)
}

func (d *Driver) Navigate(ctx context.Context, url string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return fmt.Errorf("navigate: %w", entity.ErrDriverFatal)
	}
	if err := d.parse(); err != nil {
		return err
	}
	d.url = url
	d.current = 0
	d.generation++
	return nil
}

func (d *Driver) PageSource(ctx context.Context) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return "", fmt.Errorf("page source: %w", entity.ErrDriverFatal)
	}
	var buf bytes.Buffer
	if err := html.Render(&buf, d.docs[d.current]); err != nil {
		return "", fmt.Errorf("render page: %w", err)
	}
	return buf.String(), nil
}

func (d *Driver) FindElements(ctx context.Context, scope entity.ElementHandle, xpath string) ([]entity.ElementHandle, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, fmt.Errorf("find elements: %w", entity.ErrDriverFatal)
	}

	top := d.docs[d.current]
	if scope != nil {
		el, err := d.resolve(scope)
		if err != nil {
			return nil, err
		}
		top = el.node
	}

	nodes, err := htmlquery.QueryAll(top, xpath)
	if err != nil {
		return nil, fmt.Errorf("invalid xpath %q: %w", xpath, err)
	}
	result := make([]entity.ElementHandle, 0, len(nodes))
	for _, n := range nodes {
		if n.Type != html.ElementNode {
			continue
		}
		result = append(result, &Element{node: n, generation: d.generation})
	}
	return result, nil
}

func (d *Driver) ExecuteScript(ctx context.Context, target entity.ElementHandle, script string) (string, error) {
	return "", entity.ErrScriptUnsupported
}

func (d *Driver) Click(ctx context.Context, handle entity.ElementHandle) error {
	return d.click(handle, d.OnClick, true)
}

// ScriptClick ignores visibility, like element.click() in a page.
func (d *Driver) ScriptClick(ctx context.Context, handle entity.ElementHandle) error {
	return d.click(handle, d.OnScriptClick, false)
}

func (d *Driver) click(handle entity.ElementHandle, hook ClickHook, native bool) error {
	d.mu.Lock()
	el, err := d.resolve(handle)
	d.mu.Unlock()
	if err != nil {
		return err
	}
	if hook != nil {
		if err := hook(el); err != nil {
			return err
		}
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if native {
		if hidden(el.node) {
			return fmt.Errorf("element %s is not visible", el.Describe())
		}
		if disabled(el.node) {
			return fmt.Errorf("element %s is disabled", el.Describe())
		}
	}
	d.clicks = append(d.clicks, el.Describe())

	switch htmlquery.SelectAttr(el.node, "role") {
	case "radio":
		if group := closestRole(el.node, "radiogroup"); group != nil {
			nodes, _ := htmlquery.QueryAll(group, ".//*[@role='radio']")
			for _, n := range nodes {
				setAttr(n, "aria-checked", "false")
			}
		}
		setAttr(el.node, "aria-checked", "true")
	case "checkbox":
		if htmlquery.SelectAttr(el.node, "aria-checked") == "true" {
			setAttr(el.node, "aria-checked", "false")
		} else {
			setAttr(el.node, "aria-checked", "true")
		}
	case "listbox":
		if htmlquery.SelectAttr(el.node, "aria-expanded") == "true" {
			setAttr(el.node, "aria-expanded", "false")
		} else {
			setAttr(el.node, "aria-expanded", "true")
		}
	case "option":
		setAttr(el.node, "aria-selected", "true")
	}

	for n := el.node; n != nil; n = n.Parent {
		target, ok := attr(n, "data-goto")
		if !ok {
			continue
		}
		next := d.current + 1
		if target != "next" {
			idx, err := strconv.Atoi(target)
			if err != nil {
				return fmt.Errorf("bad data-goto %q", target)
			}
			next = idx
		}
		if next < 0 || next >= len(d.docs) {
			return fmt.Errorf("data-goto %d out of range", next)
		}
		d.current = next
		d.generation++
		break
	}
	return nil
}

func (d *Driver) Clear(ctx context.Context, handle entity.ElementHandle) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	el, err := d.resolve(handle)
	if err != nil {
		return err
	}
	switch el.node.Data {
	case "input", "textarea":
		setValue(el.node, "")
		return nil
	}
	return fmt.Errorf("element %s cannot be cleared", el.Describe())
}

func (d *Driver) SelectAllAndDelete(ctx context.Context, handle entity.ElementHandle) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	el, err := d.resolve(handle)
	if err != nil {
		return err
	}
	setValue(el.node, "")
	return nil
}

func (d *Driver) Type(ctx context.Context, handle entity.ElementHandle, text string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	el, err := d.resolve(handle)
	if err != nil {
		return err
	}
	if disabled(el.node) {
		return fmt.Errorf("element %s is disabled", el.Describe())
	}
	current, _ := attr(el.node, "value")
	setValue(el.node, current+text)
	return nil
}

func (d *Driver) PressEscape(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.OnEscape != nil {
		if err := d.OnEscape(); err != nil {
			return err
		}
	}
	nodes, _ := htmlquery.QueryAll(d.docs[d.current], "//*[@role='listbox' and @aria-expanded='true']")
	for _, n := range nodes {
		setAttr(n, "aria-expanded", "false")
	}
	return nil
}

func (d *Driver) Text(ctx context.Context, handle entity.ElementHandle) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	el, err := d.resolve(handle)
	if err != nil {
		return "", err
	}
	return strings.Join(strings.Fields(htmlquery.InnerText(el.node)), " "), nil
}

func (d *Driver) Attribute(ctx context.Context, handle entity.ElementHandle, name string) (string, bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	el, err := d.resolve(handle)
	if err != nil {
		return "", false, err
	}
	v, ok := attr(el.node, name)
	return v, ok, nil
}

func (d *Driver) Visible(ctx context.Context, handle entity.ElementHandle) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	el, err := d.resolve(handle)
	if err != nil {
		return false, err
	}
	return !hidden(el.node), nil
}

func (d *Driver) Position(ctx context.Context, handle entity.ElementHandle) (entity.Point, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	el, err := d.resolve(handle)
	if err != nil {
		return entity.Point{}, err
	}
	var p entity.Point
	if v, ok := attr(el.node, "data-x"); ok {
		p.X, _ = strconv.ParseFloat(v, 64)
	}
	if v, ok := attr(el.node, "data-y"); ok {
		p.Y, _ = strconv.ParseFloat(v, 64)
		return p, nil
	}
	// без разметки: каждый элемент на своей "строке"
	p.Y = float64(documentOrder(d.docs[d.current], el.node)) * 100
	return p, nil
}

func (d *Driver) Screenshot(ctx context.Context) (*entity.Screenshot, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, fmt.Errorf("screenshot: %w", entity.ErrDriverFatal)
	}
	img := imaging.New(800, 600, color.White)
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG); err != nil {
		return nil, fmt.Errorf("jpeg encode failed: %w", err)
	}
	return &entity.Screenshot{
		Data:   buf.Bytes(),
		Format: "jpeg",
		Width:  img.Bounds().Dx(),
		Height: img.Bounds().Dy(),
	}, nil
}

func (d *Driver) CurrentURL() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.url
}

func (d *Driver) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
}

func (d *Driver) resolve(handle entity.ElementHandle) (*Element, error) {
	if d.closed {
		return nil, entity.ErrDriverFatal
	}
	el, ok := handle.(*Element)
	if !ok || el == nil || el.node == nil {
		return nil, fmt.Errorf("foreign element handle %T: %w", handle, entity.ErrStaleReference)
	}
	if el.generation != d.generation {
		return nil, fmt.Errorf("%s: %w", el.Describe(), entity.ErrStaleReference)
	}
	return el, nil
}
