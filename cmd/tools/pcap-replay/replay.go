//go:build pcap
// +build pcap

package main

import (
	"context"
	"fmt"
	"log"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcap"

	"github.com/banshee-data/mmwave.report/internal/mmwave"
)

// replayPCAP streams every matching UDP payload from the capture through
// the decoder, logging each decoded frame.
func replayPCAP(ctx context.Context, pcapFile string, udpPort int, parser *mmwave.Parser) error {
	handle, err := pcap.OpenOffline(pcapFile)
	if err != nil {
		return fmt.Errorf("failed to open PCAP file %s: %w", pcapFile, err)
	}
	defer handle.Close()

	filterStr := fmt.Sprintf("udp port %d", udpPort)
	if err := handle.SetBPFFilter(filterStr); err != nil {
		return fmt.Errorf("failed to set BPF filter '%s': %w", filterStr, err)
	}

	packetSource := gopacket.NewPacketSource(handle, handle.LinkType())
	packetCount := 0

	for {
		select {
		case <-ctx.Done():
			log.Printf("replay stopping (processed %d packets)", packetCount)
			return ctx.Err()
		case packet := <-packetSource.Packets():
			if packet == nil {
				log.Printf("capture complete: %d packets", packetCount)
				return nil
			}
			packetCount++

			udpLayer := packet.Layer(layers.LayerTypeUDP)
			if udpLayer == nil {
				continue
			}
			udp := udpLayer.(*layers.UDP)

			for _, frame := range parser.Parse(udp.Payload) {
				log.Printf("frame %d: %d points, %d targets, truncated=%v",
					frame.FrameNumber, len(frame.Points), len(frame.Targets), frame.Truncated)
			}
		}
	}
}
