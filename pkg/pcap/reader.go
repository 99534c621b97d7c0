package pcap

import (
	"errors"
	"fmt"
	"io"
	"os"

	"LteFlowReport/internal/engine/protocol"
	"LteFlowReport/internal/logger"
	"LteFlowReport/internal/model"

	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
)

// Reader reads packets from a pcap file.
type Reader struct {
	file   *os.File
	reader *pcapgo.Reader
}

// NewReader creates a new pcap reader for the given file path.
func NewReader(filePath string) (*Reader, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	reader, err := pcapgo.NewReader(file)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to read pcap header: %w", err)
	}
	return &Reader{file: file, reader: reader}, nil
}

// LinkType returns the link type recorded in the file header.
func (r *Reader) LinkType() layers.LinkType {
	return r.reader.LinkType()
}

// Close closes the underlying file.
func (r *Reader) Close() error {
	return r.file.Close()
}

// ReadPackets reads all packets from the pcap file and sends the parsed
// PacketInfo to the provided channel. It closes the channel when done and
// returns the number of packets the parser skipped.
func (r *Reader) ReadPackets(out chan<- *model.PacketInfo) (skipped int, err error) {
	defer close(out)

	linkType := r.reader.LinkType()
	for {
		data, ci, err := r.reader.ReadPacketData()
		if errors.Is(err, io.EOF) {
			return skipped, nil
		}
		if err != nil {
			return skipped, fmt.Errorf("failed to read packet: %w", err)
		}

		info, err := protocol.ParsePacket(data, linkType, ci.Timestamp)
		if err != nil {
			// Unsupported packet types are expected on a shared link.
			logger.CaptureLog.Debugf("Skipping packet: %v", err)
			skipped++
			continue
		}
		out <- info
	}
}
