// Package topicmgr keeps the catalogue of bus topics used by the channel server.
//
// Framework topics belong to the WebSocket layer itself and carry no module:
//
//	var ClientReady = topicmgr.DefineFramework(topicmgr.TopicConfig{
//		Name:        "ws.client.ready",
//		Description: "Published when a WebSocket client has joined a channel",
//		Pattern:     "ws.client.ready",
//	})
//
// Module topics are owned by an application module:
//
//	var UserJoined = topicmgr.DefineModule(topicmgr.TopicConfig{
//		Name:        "chat.user.joined",
//		Module:      "chat",
//		Description: "A user joined a channel",
//		Pattern:     "chat.user.joined",
//	})
//
// Topics are registered with a Manager (usually Default()) and can be listed
// for discovery, e.g. by the `topics list` CLI command.
package topicmgr
