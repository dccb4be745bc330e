// Package bench provides the round-trip benchmark engine for udprtt.
//
// A run injects Total request datagrams at a UDP echo target while keeping at
// most MaxConcurrent requests un-acknowledged, matches every reply to the
// request it answers, and hands a per-request snapshot to the statistics layer.
//
// # Basic Usage
//
//	opts := bench.Options{
//		Conn:          conn,          // bound net.PacketConn
//		Target:        targetAddr,    // echo target
//		MaxConcurrent: 1000,
//		Total:         1_000_000,
//		GracePeriod:   3 * time.Second,
//	}
//	r := bench.New(opts)
//	result, err := r.Run(ctx)
//
// # Tasks
//
// Run drives two tasks concurrently:
//   - the sender draws ids from a [Sequencer], acquires a [Permit] from the
//     [Admission] controller, records the entry in the [Store] and transmits;
//   - the receiver waits for replies or the [Shutdown] signal, whichever comes
//     first, and claims each matching entry exactly once, releasing its permit.
//
// After the last id is sent the sender waits GracePeriod and fires the shutdown
// signal. Requests still unclaimed at that point are reported as lost.
//
// # Pacing
//
// Admission control is the only limit by default. RatePerSecond additionally
// paces the sender using [ArrivalModelUniform] or [ArrivalModelPoisson].
package bench
