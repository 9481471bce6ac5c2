package handler

import (
	"relaychat/internal/app/chat"
	"relaychat/internal/app/storage"
	"relaychat/internal/app/store"
	"relaychat/internal/app/verify"
	"relaychat/internal/configs"
)

// AppDeps aggregates the dependencies shared by the HTTP handlers. It is
// built once in main and threaded through the router.
type AppDeps struct {
	Config      *configs.AppConfig
	Store       *store.Store
	Storage     storage.StorageService
	Verify      *verify.Service
	Registry    *chat.Registry
	Broadcaster *chat.Broadcaster
	Sessions    *chat.SessionHandler
}
