package langserver

import (
	"context"
)

func (h *langHandler) handleShutdown(ctx context.Context) (interface{}, error) {
	h.mu.Lock()
	h.shutdown = true
	primary := h.primary
	markup := h.markup
	if h.reloadTimer != nil {
		h.reloadTimer.Stop()
		h.reloadTimer = nil
	}
	h.mu.Unlock()

	h.resolver.CloseWatch()
	h.pump.Close()
	if markup != nil {
		markup.shutdown()
	}
	if primary != nil {
		primary.shutdown()
	}
	return nil, nil
}

func (h *langHandler) handleExit(ctx context.Context) error {
	h.mu.Lock()
	done := h.shutdown
	h.mu.Unlock()
	if !done {
		// Exit without a preceding shutdown still has to reap the engines.
		if _, err := h.handleShutdown(ctx); err != nil {
			return err
		}
	}
	conn := h.editorConn()
	if conn != nil {
		return conn.Close()
	}
	return nil
}
