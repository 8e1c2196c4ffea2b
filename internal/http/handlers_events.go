package http

import (
	"encoding/json"
	"fmt"
	"net/http"

	"fleetledger/internal/auth"
	"fleetledger/internal/live"
)

// handleEvents streams vehicle and transaction snapshots over SSE. The
// client receives the full current state on connect and a fresh snapshot
// after every mutation; the "state" event reports when both collections
// have arrived.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	ownerID := auth.UserID(r.Context())
	ctx := r.Context()

	vehicleCh, cancelVehicles, err := s.vehicleFeed.Subscribe(ctx, ownerID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	defer cancelVehicles()

	txCh, cancelTxs, err := s.transactionFeed.Subscribe(ctx, ownerID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	defer cancelTxs()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	var join live.Join
	writeSSE(w, "state", map[string]string{"state": join.State().String()})
	flusher.Flush()

	for {
		select {
		case <-ctx.Done():
			return
		case vehicles, open := <-vehicleCh:
			if !open {
				return
			}
			out := make([]vehicleDTO, 0, len(vehicles))
			for _, v := range vehicles {
				out = append(out, toVehicleDTO(v))
			}
			writeSSE(w, "vehicles", out)
			if before := join.State(); before != live.Ready {
				join.MarkVehicles()
				if join.State() != before {
					writeSSE(w, "state", map[string]string{"state": join.State().String()})
				}
			}
			flusher.Flush()
		case txs, open := <-txCh:
			if !open {
				return
			}
			out := make([]transactionDTO, 0, len(txs))
			for _, t := range txs {
				out = append(out, toTransactionDTO(t))
			}
			writeSSE(w, "transactions", out)
			if before := join.State(); before != live.Ready {
				join.MarkTransactions()
				if join.State() != before {
					writeSSE(w, "state", map[string]string{"state": join.State().String()})
				}
			}
			flusher.Flush()
		}
	}
}

func writeSSE(w http.ResponseWriter, event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
}
