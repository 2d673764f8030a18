package handler

import (
	"chatrelay/internal/app/chat"
	"chatrelay/internal/configs"
)

// AppDeps are the collaborators shared by every HTTP handler.
type AppDeps struct {
	Hub    *chat.Hub
	Config *configs.AppConfig
}
