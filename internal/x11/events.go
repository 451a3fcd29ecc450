package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/xevent"
	"github.com/BurntSushi/xgbutil/xprop"
	"github.com/BurntSushi/xgbutil/xwindow"
)

// rootProperties are root window properties whose change can move dock
// reservations.
var rootProperties = map[string]bool{
	"_NET_WORKAREA":    true,
	"_NET_CLIENT_LIST": true,
}

// WatchScreenChanges calls onChange from the event loop whenever RandR reports
// a screen, CRTC or output change, or when the work area changes. Callers are
// expected to debounce; a single hotplug produces several notifications.
func (c *Connection) WatchScreenChanges(onChange func()) error {
	mask := uint16(randr.NotifyMaskScreenChange | randr.NotifyMaskCrtcChange | randr.NotifyMaskOutputChange)
	if err := randr.SelectInputChecked(c.XUtil.Conn(), c.Root, mask).Check(); err != nil {
		return fmt.Errorf("failed to select randr input: %w", err)
	}

	xevent.HookFun(func(xu *xgbutil.XUtil, event interface{}) bool {
		switch event.(type) {
		case randr.ScreenChangeNotifyEvent, randr.NotifyEvent:
			onChange()
		}
		return true
	}).Connect(c.XUtil)

	if err := xwindow.New(c.XUtil, c.Root).Listen(xproto.EventMaskPropertyChange); err != nil {
		return fmt.Errorf("failed to listen on root window: %w", err)
	}
	xevent.PropertyNotifyFun(func(xu *xgbutil.XUtil, ev xevent.PropertyNotifyEvent) {
		name, err := xprop.AtomName(xu, ev.Atom)
		if err != nil || !rootProperties[name] {
			return
		}
		onChange()
	}).Connect(c.XUtil, c.Root)

	return nil
}
