package handshake

import (
	"context"

	"github.com/atotto/clipboard"
	"github.com/m-mizutani/goerr/v2"

	"greengarden/internal/logging"
)

// CapSendSelection is the capability that pushes the page selection.
const CapSendSelection = "sendSelection"

// SelectionSource yields the text currently selected in a page.
type SelectionSource interface {
	Selection(ctx context.Context) (string, error)
}

// StaticSelection is a fixed selection.
type StaticSelection string

// Selection implements SelectionSource.
func (s StaticSelection) Selection(context.Context) (string, error) {
	return string(s), nil
}

// ClipboardSelection reads the system clipboard. Read replaces the clipboard
// reader when set.
type ClipboardSelection struct {
	Read func() (string, error)
}

// Selection implements SelectionSource. A platform without clipboard
// support yields an empty selection.
func (c ClipboardSelection) Selection(context.Context) (string, error) {
	if c.Read == nil && clipboard.Unsupported {
		return "", nil
	}
	read := c.Read
	if read == nil {
		read = clipboard.ReadAll
	}
	s, err := read()
	if err != nil {
		return "", goerr.Wrap(err, "failed to read clipboard")
	}
	return s, nil
}

// Page is a content context that can report its selection.
type Page struct {
	source SelectionSource
}

var _ ContentContext = (*Page)(nil)

// NewPage returns a page. A nil source leaves sendSelection unavailable.
func NewPage(source SelectionSource) *Page {
	return &Page{source: source}
}

// Lookup implements ContentContext.
func (p *Page) Lookup(name string) Capability {
	if name == CapSendSelection && p.source != nil {
		return Available(p.sendSelection)
	}
	return Unavailable
}

// sendSelection pushes the current selection, or an empty one when it
// cannot be read.
func (p *Page) sendSelection(ctx context.Context, port Sender) error {
	text, err := p.source.Selection(ctx)
	if err != nil {
		logging.From(ctx).Debug("selection unreadable", "error", err)
		text = ""
	}
	logging.From(ctx).Debug("sending selection", "length", len(text))
	port.Send(Message{Type: KindSelection, Value: text})
	return nil
}
