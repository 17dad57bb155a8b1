package telemetry_test

import (
	"fmt"

	"github.com/cwbudde/algo-comp/dsp/telemetry"
)

func ExampleChannel() {
	ch := telemetry.NewChannel[int](2)

	fmt.Println(ch.TryPush(1), ch.TryPush(2), ch.TryPush(3))
	fmt.Println(ch.DrainInto(nil), ch.Dropped())
	// Output:
	// true true false
	// [1 2] 1
}

func ExampleHistory() {
	ch := telemetry.NewChannel[telemetry.Sample](telemetry.DefaultCapacity)
	meter := telemetry.NewMeter(ch, 48000, 48000)
	history := telemetry.NewHistory(ch, telemetry.DefaultHistoryLength)

	for range 4800 {
		meter.Process(0.5, 0.5, 1)
	}

	fmt.Println(history.Update(), history.Len())
	// Output: 51 51
}
