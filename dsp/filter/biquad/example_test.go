package biquad_test

import (
	"fmt"

	"github.com/cwbudde/algo-comp/dsp/filter/biquad"
)

func ExampleLowpass() {
	c := biquad.Lowpass(1000, 0.7071067811865476, 48000)

	fmt.Printf("1 kHz: %.2f dB\n", c.MagnitudeDB(1000, 48000))
	fmt.Printf("10 kHz: %.1f dB\n", c.MagnitudeDB(10000, 48000))
	// Output:
	// 1 kHz: -3.01 dB
	// 10 kHz: -42.7 dB
}
