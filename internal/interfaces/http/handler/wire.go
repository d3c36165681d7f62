package handler

import (
	"github.com/google/wire"
	"github.com/wupeiyao/larkchat/internal/application/chat"
	"github.com/wupeiyao/larkchat/internal/application/docsync"
)

// ProviderSet Handler ProviderSet
var ProviderSet = wire.NewSet(
	NewDocHandler,
	NewConversationHandler,
	NewWSHandler,
	wire.Bind(new(DocService), new(*docsync.Service)),
	wire.Bind(new(ConversationService), new(*chat.ConversationService)),
	wire.Bind(new(ChatService), new(*chat.Service)),
)
