package app

import (
	"github.com/nfrund/goby-channels/internal/module"
	"github.com/nfrund/goby-channels/internal/modules/chat"
)

// NewModules returns every active module. This is the single list of enabled
// features.
func NewModules() []module.Module {
	return []module.Module{
		chat.New(),
	}
}
