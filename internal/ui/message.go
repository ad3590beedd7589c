package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/wishx/internal/models"
	"github.com/desertthunder/wishx/internal/views"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgMounted MsgKind = iota
	MsgViewUpdated
	MsgActionDone
)

type mounted struct {
	wishlist *models.Wishlist
	err      error
}

type actionDone struct {
	action string
	item   string
	err    error
}

// mountedMsg is the constructor for [MsgMounted]
func mountedMsg(w *models.Wishlist, err error) Msg {
	return Msg{kind: MsgMounted, data: mounted{w, err}}
}

// viewUpdatedMsg is the constructor for [MsgViewUpdated]
func viewUpdatedMsg(ev views.Event) Msg {
	return Msg{kind: MsgViewUpdated, data: ev}
}

// actionDoneMsg is the constructor for [MsgActionDone]
func actionDoneMsg(action, item string, err error) Msg {
	return Msg{kind: MsgActionDone, data: actionDone{action, item, err}}
}
