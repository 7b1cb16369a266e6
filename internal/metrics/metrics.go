package metrics

import (
	"fmt"
	"net/http"
	"sync/atomic"
)

var (
	MessagesReceived     atomic.Int64
	ParseFailures        atomic.Int64
	AlertsRaised         atomic.Int64
	BroadcastFailures    atomic.Int64
	HistoryChannelDrops  atomic.Int64
	HistoryWriteSuccess  atomic.Int64
	HistoryWriteFailures atomic.Int64
)

func HandleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	fmt.Fprintf(w, "fleetsync_messages_received_total %d\n", MessagesReceived.Load())
	fmt.Fprintf(w, "fleetsync_parse_failures_total %d\n", ParseFailures.Load())
	fmt.Fprintf(w, "fleetsync_alerts_raised_total %d\n", AlertsRaised.Load())
	fmt.Fprintf(w, "fleetsync_broadcast_failures_total %d\n", BroadcastFailures.Load())
	fmt.Fprintf(w, "fleetsync_history_channel_drops_total %d\n", HistoryChannelDrops.Load())
	fmt.Fprintf(w, "fleetsync_history_write_success_total %d\n", HistoryWriteSuccess.Load())
	fmt.Fprintf(w, "fleetsync_history_write_failures_total %d\n", HistoryWriteFailures.Load())
}
