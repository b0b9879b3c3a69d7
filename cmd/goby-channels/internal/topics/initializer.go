package topics

import (
	"github.com/nfrund/goby-channels/internal/topicmgr"
	"github.com/nfrund/goby-channels/internal/websocket"

	// The chat module registers its typed events at package init.
	_ "github.com/nfrund/goby-channels/internal/modules/chat"
)

// Initialize registers every topic the server knows about with the default
// manager, without starting any service.
func Initialize() (*topicmgr.Manager, error) {
	if err := websocket.RegisterTopics(); err != nil {
		return nil, err
	}
	return topicmgr.Default(), nil
}
