package rod

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	neturl "net/url"
	"strings"
	"sync"
	"time"

	"form-agent/internal/application/port/output"
	"form-agent/internal/domain/entity"

	"github.com/disintegration/imaging"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/cdp"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/ysmood/gson"
)

var _ output.BrowserPort = (*BrowserAdapter)(nil)

var ErrInvalidURL = errors.New("invalid form url")

const (
	defaultTimeout    = 10 * time.Second
	defaultSlowMotion = 0
	idleTimeout       = 5 * time.Second
	maxScreenshotW    = 1024
)

type BrowserConfig struct {
	Headless   bool
	SlowMotion time.Duration
	Timeout    time.Duration
	NoSandbox  bool
	DevTools   bool
	Trace      bool
	// Bin overrides the browser executable; empty lets the launcher find or
	// download one.
	Bin string
}

func DefaultConfig() BrowserConfig {
	return BrowserConfig{
		Headless:   true,
		SlowMotion: defaultSlowMotion,
		Timeout:    defaultTimeout,
		NoSandbox:  false,
		DevTools:   false,
	}
}

type BrowserAdapter struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
	page     *rod.Page
	timeout  time.Duration

	mu     sync.Mutex
	closed bool
}

// Element is a live handle into the current page. It becomes stale as soon
// as the document it came from is replaced.
type Element struct {
	el *rod.Element
}

func (e *Element) Describe() string {
	if e == nil || e.el == nil {
		return "<nil>"
	}
	return e.el.String()
}

func NewBrowserAdapter(ctx context.Context, cfg BrowserConfig) (*BrowserAdapter, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	l := launcher.New().
		Headless(cfg.Headless).
		Devtools(cfg.DevTools).
		NoSandbox(cfg.NoSandbox).
		Delete("use-mock-keychain")
	if cfg.Bin != "" {
		l = l.Bin(cfg.Bin)
	}
	if ctx != nil {
		l = l.Context(ctx)
	}

	url, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	browser := rod.New().
		ControlURL(url).
		Trace(cfg.Trace).
		SlowMotion(cfg.SlowMotion)
	if err := browser.Connect(); err != nil {
		l.Kill()
		l.Cleanup()
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	page, err := browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		_ = browser.Close()
		l.Kill()
		l.Cleanup()
		return nil, fmt.Errorf("failed to open page: %w", err)
	}

	return &BrowserAdapter{
		browser:  browser,
		launcher: l,
		page:     page,
		timeout:  cfg.Timeout,
	}, nil
}

func (b *BrowserAdapter) IsReady() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return !b.closed && b.page != nil
}

func (b *BrowserAdapter) Navigate(ctx context.Context, url string) error {
	if err := b.check(); err != nil {
		return err
	}
	if err := validateURL(url); err != nil {
		return err
	}
	page := b.page.Context(ctx).Timeout(b.timeout)
	if err := page.Navigate(url); err != nil {
		return b.wrap("navigate", err)
	}
	if err := page.WaitLoad(); err != nil {
		return b.wrap("wait load", err)
	}
	// idle is best effort: forms keep long-polling connections open
	_ = b.page.Context(ctx).WaitIdle(idleTimeout)
	return nil
}

func (b *BrowserAdapter) PageSource(ctx context.Context) (string, error) {
	if err := b.check(); err != nil {
		return "", err
	}
	html, err := b.page.Context(ctx).Timeout(b.timeout).HTML()
	if err != nil {
		return "", b.wrap("page source", err)
	}
	return html, nil
}

// FindElements does not wait: an empty result means nothing matches right now.
func (b *BrowserAdapter) FindElements(ctx context.Context, scope entity.ElementHandle, xpath string) ([]entity.ElementHandle, error) {
	if err := b.check(); err != nil {
		return nil, err
	}

	var (
		found rod.Elements
		err   error
	)
	if scope == nil {
		found, err = b.page.Context(ctx).Timeout(b.timeout).ElementsX(xpath)
	} else {
		el, rerr := b.resolve(ctx, scope)
		if rerr != nil {
			return nil, rerr
		}
		found, err = el.ElementsX(xpath)
	}
	if err != nil {
		return nil, b.wrap("find "+xpath, err)
	}

	out := make([]entity.ElementHandle, 0, len(found))
	for _, el := range found {
		out = append(out, &Element{el: el})
	}
	return out, nil
}

// ExecuteScript evaluates a JS function. With a target, `this` is bound to
// that element.
func (b *BrowserAdapter) ExecuteScript(ctx context.Context, target entity.ElementHandle, script string) (string, error) {
	if err := b.check(); err != nil {
		return "", err
	}

	var (
		res *proto.RuntimeRemoteObject
		err error
	)
	if target == nil {
		res, err = b.page.Context(ctx).Timeout(b.timeout).Eval(script)
	} else {
		el, rerr := b.resolve(ctx, target)
		if rerr != nil {
			return "", rerr
		}
		res, err = el.Eval(script)
	}
	if err != nil {
		return "", b.wrap("script", err)
	}
	if res == nil || res.Value.Nil() {
		return "", nil
	}
	return res.Value.String(), nil
}

func (b *BrowserAdapter) Click(ctx context.Context, handle entity.ElementHandle) error {
	el, err := b.resolve(ctx, handle)
	if err != nil {
		return err
	}
	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return b.wrap("click", err)
	}
	return nil
}

func (b *BrowserAdapter) ScriptClick(ctx context.Context, handle entity.ElementHandle) error {
	el, err := b.resolve(ctx, handle)
	if err != nil {
		return err
	}
	if _, err := el.Eval(`() => this.click()`); err != nil {
		return b.wrap("script click", err)
	}
	return nil
}

func (b *BrowserAdapter) Clear(ctx context.Context, handle entity.ElementHandle) error {
	el, err := b.resolve(ctx, handle)
	if err != nil {
		return err
	}
	_, err = el.Eval(`() => {
		if (!('value' in this)) throw new Error('element has no value to clear');
		this.value = '';
		this.dispatchEvent(new Event('input', { bubbles: true }));
	}`)
	if err != nil {
		return b.wrap("clear", err)
	}
	return nil
}

func (b *BrowserAdapter) SelectAllAndDelete(ctx context.Context, handle entity.ElementHandle) error {
	el, err := b.resolve(ctx, handle)
	if err != nil {
		return err
	}
	if err := el.SelectAllText(); err != nil {
		return b.wrap("select all", err)
	}
	if err := el.Type(input.Backspace); err != nil {
		return b.wrap("delete", err)
	}
	return nil
}

func (b *BrowserAdapter) Type(ctx context.Context, handle entity.ElementHandle, text string) error {
	el, err := b.resolve(ctx, handle)
	if err != nil {
		return err
	}
	if err := el.Input(text); err != nil {
		return b.wrap("input", err)
	}
	return nil
}

func (b *BrowserAdapter) PressEscape(ctx context.Context) error {
	if err := b.check(); err != nil {
		return err
	}
	if err := b.page.Context(ctx).Keyboard.Type(input.Escape); err != nil {
		return b.wrap("escape", err)
	}
	return nil
}

func (b *BrowserAdapter) Text(ctx context.Context, handle entity.ElementHandle) (string, error) {
	el, err := b.resolve(ctx, handle)
	if err != nil {
		return "", err
	}
	text, err := el.Text()
	if err != nil {
		return "", b.wrap("text", err)
	}
	return text, nil
}

func (b *BrowserAdapter) Attribute(ctx context.Context, handle entity.ElementHandle, name string) (string, bool, error) {
	el, err := b.resolve(ctx, handle)
	if err != nil {
		return "", false, err
	}
	value, err := el.Attribute(name)
	if err != nil {
		return "", false, b.wrap("attribute "+name, err)
	}
	if value == nil {
		return "", false, nil
	}
	return *value, true, nil
}

func (b *BrowserAdapter) Visible(ctx context.Context, handle entity.ElementHandle) (bool, error) {
	el, err := b.resolve(ctx, handle)
	if err != nil {
		return false, err
	}
	visible, err := el.Visible()
	if err != nil {
		return false, b.wrap("visible", err)
	}
	return visible, nil
}

func (b *BrowserAdapter) Position(ctx context.Context, handle entity.ElementHandle) (entity.Point, error) {
	el, err := b.resolve(ctx, handle)
	if err != nil {
		return entity.Point{}, err
	}
	shape, err := el.Shape()
	if err != nil {
		return entity.Point{}, b.wrap("position", err)
	}
	box := shape.Box()
	if box == nil {
		return entity.Point{}, fmt.Errorf("%s has no layout box: %w", el, entity.ErrElementNotFound)
	}
	return entity.Point{X: box.X, Y: box.Y}, nil
}

func (b *BrowserAdapter) Screenshot(ctx context.Context) (*entity.Screenshot, error) {
	if err := b.check(); err != nil {
		return nil, err
	}
	imgBytes, err := b.page.Context(ctx).Timeout(b.timeout).Screenshot(true, &proto.PageCaptureScreenshot{
		Format:  proto.PageCaptureScreenshotFormatJpeg,
		Quality: gson.Int(80),
	})
	if err != nil {
		return nil, b.wrap("screenshot", err)
	}

	img, _, err := image.Decode(bytes.NewReader(imgBytes))
	if err != nil {
		return nil, fmt.Errorf("image decode failed: %w", err)
	}

	if img.Bounds().Dx() > maxScreenshotW {
		img = imaging.Resize(img, maxScreenshotW, 0, imaging.Lanczos)
	}

	buf := new(bytes.Buffer)
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: 75}); err != nil {
		return nil, fmt.Errorf("jpeg encode failed: %w", err)
	}

	return &entity.Screenshot{
		Data:   buf.Bytes(),
		Format: "jpeg",
		Width:  img.Bounds().Dx(),
		Height: img.Bounds().Dy(),
	}, nil
}

func (b *BrowserAdapter) CurrentURL() string {
	if b.check() != nil {
		return ""
	}
	info, err := b.page.Info()
	if err != nil {
		return ""
	}
	return info.URL
}

func (b *BrowserAdapter) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true

	if b.browser != nil {
		_ = b.browser.Close()
	}
	if b.launcher != nil {
		b.launcher.Kill() // иначе процесс Chrome остаётся висеть
		b.launcher.Cleanup()
	}
}

func (b *BrowserAdapter) check() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return fmt.Errorf("browser closed: %w", entity.ErrDriverFatal)
	}
	return nil
}

func (b *BrowserAdapter) resolve(ctx context.Context, handle entity.ElementHandle) (*rod.Element, error) {
	if err := b.check(); err != nil {
		return nil, err
	}
	el, ok := handle.(*Element)
	if !ok || el == nil || el.el == nil {
		return nil, fmt.Errorf("foreign element handle %T: %w", handle, entity.ErrStaleReference)
	}
	return el.el.Context(ctx).Timeout(b.timeout), nil
}

func validateURL(raw string) error {
	u, err := neturl.Parse(raw)
	if err != nil {
		return fmt.Errorf("%q: %w", raw, ErrInvalidURL)
	}
	switch u.Scheme {
	case "http", "https":
		if u.Host == "" {
			return fmt.Errorf("%q has no host: %w", raw, ErrInvalidURL)
		}
	case "file":
	default:
		return fmt.Errorf("%q: unsupported scheme: %w", raw, ErrInvalidURL)
	}
	return nil
}

func (b *BrowserAdapter) wrap(op string, err error) error {
	return fmt.Errorf("%s: %w", op, classify(err))
}

// classify maps rod and CDP failures onto the domain error taxonomy.
func classify(err error) error {
	var (
		objNotFound  *rod.ObjectNotFoundError
		elNotFound   *rod.ElementNotFoundError
		pageNotFound *rod.PageNotFoundError
	)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case errors.As(err, &objNotFound),
		errors.Is(err, cdp.ErrObjNotFound),
		errors.Is(err, cdp.ErrCtxNotFound),
		errors.Is(err, cdp.ErrCtxDestroyed),
		strings.Contains(err.Error(), "does not belong to the document"):
		return errors.Join(entity.ErrStaleReference, err)
	case errors.As(err, &elNotFound):
		return errors.Join(entity.ErrElementNotFound, err)
	case errors.As(err, &pageNotFound),
		errors.Is(err, cdp.ErrSessionNotFound),
		errors.Is(err, cdp.ErrNotAttachedToActivePage),
		strings.Contains(err.Error(), "use of closed network connection"):
		return errors.Join(entity.ErrDriverFatal, err)
	default:
		return err
	}
}
