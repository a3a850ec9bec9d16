// Command pcap-replay feeds captured UDP payloads through the frame
// decoder. Some deployments bridge the sensor's UART data channel over
// UDP; replaying a capture reproduces field decode problems on a desk.
//
// Build with -tags pcap for libpcap support; without the tag the command
// explains itself and exits.
package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"

	"github.com/banshee-data/mmwave.report/internal/mmwave"
)

func main() {
	input := flag.String("i", "", "PCAP file to replay (required)")
	udpPort := flag.Int("port", 9000, "UDP port carrying the bridged data channel")
	flag.Parse()

	if *input == "" {
		log.Fatal("-i <capture.pcap> is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	parser := mmwave.NewParser(mmwave.ParserConfig{})
	if err := replayPCAP(ctx, *input, *udpPort, parser); err != nil {
		log.Fatalf("replay failed: %v", err)
	}

	stats := parser.Stats()
	log.Printf("frames=%d truncated=%d badSyncs=%d headerFailures=%d discarded=%d points=%d targets=%d",
		stats.FramesDecoded, stats.TruncatedFrames, stats.BadLengthSyncs,
		stats.HeaderFailures, stats.BytesDiscarded, stats.PointsDecoded, stats.TargetsDecoded)
}
