package preview

import (
	"fmt"
	"net/http"
	"time"

	"github.com/starfederation/datastar-go/datastar"
)

const keepAliveEvery = 25 * time.Second

// handleStream patches #note with the current fragment, and the theme
// signal, on connect and after every change.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)
	ch, cancel := s.hub.subscribe()
	defer cancel()

	patch := func() error {
		id, frag := s.Current()
		if id == 0 {
			frag = `<p class="empty">No note selected.</p>`
		}
		if err := sse.PatchElements(frag, datastar.WithSelector("#note"), datastar.WithMode(datastar.ElementPatchModeInner)); err != nil {
			return err
		}
		return sse.PatchSignals([]byte(fmt.Sprintf(`{"theme":%q}`, s.theme())))
	}
	if err := patch(); err != nil {
		return
	}

	keepAlive := time.NewTicker(keepAliveEvery)
	defer keepAlive.Stop()
	for {
		select {
		case <-sse.Context().Done():
			return
		case <-keepAlive.C:
			_ = sse.PatchSignals([]byte(`{}`))
		case <-ch:
			if err := patch(); err != nil {
				s.log.WithError(err).Debug("stream patch")
				return
			}
		}
	}
}
