// Command gen-frames generates a synthetic People Tracking frame stream
// for dev mode and decoder testing. The output is the raw byte stream the
// sensor would emit on its data channel, optionally salted with line noise
// between frames to exercise resynchronisation.
package main

import (
	"flag"
	"log"
	"math/rand"
	"os"

	"github.com/banshee-data/mmwave.report/internal/mmwave"
)

func main() {
	output := flag.String("o", "frames.bin", "output path")
	frames := flag.Int("n", 100, "number of frames")
	noise := flag.Int("noise", 0, "max random noise bytes injected between frames")
	full := flag.Bool("full", false, "emit full (112 byte) target records instead of lite")
	seed := flag.Int64("seed", 1, "noise RNG seed")
	flag.Parse()

	encoding := mmwave.TargetEncodingLite
	if *full {
		encoding = mmwave.TargetEncodingFull
	}

	rng := rand.New(rand.NewSource(*seed))

	var stream []byte
	for i := 0; i < *frames; i++ {
		phase := float32(i%100) / 100
		points := []mmwave.Point{
			{X: -1 + 2*phase, Y: 3 + phase, Z: 0.9, Doppler: 0.4},
			{X: -1 + 2*phase, Y: 3.1 + phase, Z: 1.1, Doppler: 0.4},
			{X: -0.9 + 2*phase, Y: 3 + phase, Z: 1.4, Doppler: 0.4},
		}
		targets := []mmwave.Target{
			{ID: 1, X: -1 + 2*phase, Y: 3 + phase, Z: 1.0, VX: 0.4, VY: 0.2, Encoding: encoding},
		}
		stream = append(stream, mmwave.EncodeFrame(uint32(i+1), points, targets, encoding)...)

		if *noise > 0 {
			junk := make([]byte, rng.Intn(*noise+1))
			rng.Read(junk)
			stream = append(stream, junk...)
		}

		if (i+1)%100 == 0 {
			log.Printf("%d/%d frames", i+1, *frames)
		}
	}

	if err := os.WriteFile(*output, stream, 0o644); err != nil {
		log.Fatalf("failed to write %s: %v", *output, err)
	}
	log.Printf("✓ Created: %s (%d bytes, %d frames)", *output, len(stream), *frames)
}
