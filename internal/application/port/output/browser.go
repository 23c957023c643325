package output

import (
	"context"

	"form-agent/internal/domain/entity"
)

// BrowserPort is the driver boundary. Lookups never wait: FindElements returns
// what is attached right now and callers poll with their own deadlines.
// A nil scope searches the whole document.
type BrowserPort interface {
	Navigate(ctx context.Context, url string) error
	PageSource(ctx context.Context) (string, error)
	FindElements(ctx context.Context, scope entity.ElementHandle, xpath string) ([]entity.ElementHandle, error)
	ExecuteScript(ctx context.Context, target entity.ElementHandle, script string) (string, error)

	Click(ctx context.Context, el entity.ElementHandle) error
	ScriptClick(ctx context.Context, el entity.ElementHandle) error
	Clear(ctx context.Context, el entity.ElementHandle) error
	SelectAllAndDelete(ctx context.Context, el entity.ElementHandle) error
	Type(ctx context.Context, el entity.ElementHandle, text string) error
	PressEscape(ctx context.Context) error

	Text(ctx context.Context, el entity.ElementHandle) (string, error)
	Attribute(ctx context.Context, el entity.ElementHandle, name string) (string, bool, error)
	Visible(ctx context.Context, el entity.ElementHandle) (bool, error)
	Position(ctx context.Context, el entity.ElementHandle) (entity.Point, error)

	Screenshot(ctx context.Context) (*entity.Screenshot, error)
	CurrentURL() string
	Close()
}
