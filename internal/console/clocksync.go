package console

// SyncResult is the outcome of one time sync exchange, in seconds.
type SyncResult struct {
	// Offset is added to a device timestamp to get console time.
	Offset float64
	// RTT is the round trip minus the device's turnaround.
	RTT float64
}

// computeSync applies the NTP offset/delay formulas to the four timestamps of
// an exchange: console send, device receive, device send, console receive.
func computeSync(serverSend, clientReceive, clientSend, serverReceive float64) SyncResult {
	theta := ((clientReceive - serverSend) + (clientSend - serverReceive)) / 2
	delta := (serverReceive - serverSend) - (clientSend - clientReceive)
	return SyncResult{Offset: -theta, RTT: delta}
}

// PongDelays splits a ping round trip, in milliseconds.
type PongDelays struct {
	Total      float64
	Network    float64
	Processing float64
}

// computePong maps the device's pong timestamp onto the console clock with
// offset, then splits the round trip at that point.
func computePong(pingSent, client, received, offset float64) PongDelays {
	corrected := client + offset
	return PongDelays{
		Total:      (received - pingSent) * 1000,
		Network:    (received - corrected) * 1000,
		Processing: (corrected - pingSent) * 1000,
	}
}
