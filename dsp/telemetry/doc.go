// Package telemetry carries metering data from the audio goroutine to a
// display or logging consumer.
//
// The producer side ([Meter]) runs inside the audio callback: it smooths the
// signal levels and the gain multiplier, decimates them and pushes
// [Sample] values into a lock-free single-producer single-consumer
// [Channel]. It never allocates, blocks or waits. When the channel is full
// samples are dropped and counted.
//
// The consumer side ([History]) drains the channel into a bounded history,
// keeps the most recent entries and folds short-term peaks for meters.
package telemetry
