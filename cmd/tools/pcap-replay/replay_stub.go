//go:build !pcap
// +build !pcap

package main

import (
	"context"
	"errors"

	"github.com/banshee-data/mmwave.report/internal/mmwave"
)

func replayPCAP(ctx context.Context, pcapFile string, udpPort int, parser *mmwave.Parser) error {
	return errors.New("built without PCAP support; rebuild with -tags pcap")
}
