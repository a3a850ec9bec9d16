// Package mmwave decodes the binary UART stream produced by TI mmWave
// radar sensors running the People Tracking firmware (IWR6843 family).
//
// The sensor emits frames on its data port: an 8-byte magic word, a
// little-endian header, then a sequence of type-length-value records
// carrying point clouds and tracked-target lists. The stream arrives in
// arbitrarily-sized chunks with no alignment guarantees, so the Parser
// buffers input, resynchronises on the magic word, and drains complete
// frames as they become available.
//
// The decoder is pure computation: it performs no I/O, never blocks, and
// never aborts on malformed bytes. Corrupt input costs at most the bytes
// of one bad sync candidate.
package mmwave
