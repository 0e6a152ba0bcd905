package ws

import (
	"net/http"
)

// Subscriber is the WebSocket attach point; authentication happens on the
// first frame inside the hub.
type Subscriber interface {
	ServeWS(w http.ResponseWriter, r *http.Request)
}

type WSHandler struct {
	hub Subscriber
}

func New(hub Subscriber) *WSHandler {
	return &WSHandler{hub: hub}
}

func (h *WSHandler) Serve(w http.ResponseWriter, r *http.Request) {
	h.hub.ServeWS(w, r)
}
