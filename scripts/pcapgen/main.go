package main

import (
	"flag"
	"log"
	"math/rand"
	"net"
	"os"
	"time"

	"LteFlowReport/internal/config"
	"LteFlowReport/internal/scenario"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
	"golang.org/x/exp/slices"
)

// frame is one generated packet.
type frame struct {
	ts   time.Time
	data []byte
}

// genOptions shapes the synthetic traffic.
type genOptions struct {
	epoch  time.Time
	jitter time.Duration
	loss   float64
	seed   int64
}

func main() {
	outputFile := flag.String("o", "scenario.pcap", "Output pcap file path")
	configPath := flag.String("config", "", "scenario configuration (default: built-in scenario)")
	numberOfUes := flag.Int("numberOfUes", 0, "override the number of UEs")
	jitter := flag.Duration("jitter", 2*time.Millisecond, "maximum random deviation from the send schedule")
	loss := flag.Float64("loss", 0, "probability of dropping a packet")
	seed := flag.Int64("seed", 1, "random seed")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.LoadConfig(*configPath); err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
	}
	if *numberOfUes > 0 {
		cfg.Scenario.NumberOfUes = *numberOfUes
	}

	frames, err := generate(cfg, genOptions{epoch: time.Unix(0, 0), jitter: *jitter, loss: *loss, seed: *seed})
	if err != nil {
		log.Fatalf("Failed to generate traffic: %v", err)
	}

	f, err := os.Create(*outputFile)
	if err != nil {
		log.Fatalf("Failed to create output file: %v", err)
	}
	defer f.Close()

	pcapWriter := pcapgo.NewWriter(f)
	if err := pcapWriter.WriteFileHeader(65536, layers.LinkTypeEthernet); err != nil {
		log.Fatalf("Failed to write pcap header: %v", err)
	}
	for _, fr := range frames {
		ci := gopacket.CaptureInfo{
			Timestamp:     fr.ts,
			CaptureLength: len(fr.data),
			Length:        len(fr.data),
		}
		if err := pcapWriter.WritePacket(ci, fr.data); err != nil {
			log.Fatalf("Failed to write packet: %v", err)
		}
	}

	log.Printf("Successfully generated %d packets for %d UEs into %s.", len(frames), cfg.Scenario.NumberOfUes, *outputFile)
}

// generate emits one UDP packet per flow and interval from the application
// start until the end of the simulation, in timestamp order.
func generate(cfg *config.Config, opts genOptions) ([]frame, error) {
	flows, err := scenario.Plan(cfg.Scenario)
	if err != nil {
		return nil, err
	}
	simTime, err := cfg.SimDuration()
	if err != nil {
		return nil, err
	}
	interval, err := cfg.PacketInterval()
	if err != nil {
		return nil, err
	}
	rng := rand.New(rand.NewSource(opts.seed))
	payload := make([]byte, cfg.Scenario.PacketSize)

	var frames []frame
	for _, pf := range flows {
		for at := scenario.AppStart; at < simTime; at += interval {
			if opts.loss > 0 && rng.Float64() < opts.loss {
				continue
			}
			ts := opts.epoch.Add(at)
			if opts.jitter > 0 {
				ts = ts.Add(time.Duration(rng.Int63n(int64(opts.jitter))))
			}
			data, err := serializeUDP(pf.FiveTuple.SrcIP, pf.FiveTuple.DstIP, pf.FiveTuple.SrcPort, pf.FiveTuple.DstPort, payload)
			if err != nil {
				return nil, err
			}
			frames = append(frames, frame{ts: ts, data: data})
		}
	}
	slices.SortStableFunc(frames, func(a, b frame) int {
		return a.ts.Compare(b.ts)
	})
	return frames, nil
}

func serializeUDP(src, dst net.IP, sport, dport uint16, payload []byte) ([]byte, error) {
	ethLayer := &layers.Ethernet{
		SrcMAC:       net.HardwareAddr{0x00, 0x11, 0x22, 0x33, 0x44, 0x55},
		DstMAC:       net.HardwareAddr{0x00, 0x66, 0x77, 0x88, 0x99, 0xAA},
		EthernetType: layers.EthernetTypeIPv4,
	}
	ipLayer := &layers.IPv4{
		SrcIP:    src,
		DstIP:    dst,
		Version:  4,
		TTL:      64,
		Protocol: layers.IPProtocolUDP,
	}
	udpLayer := &layers.UDP{SrcPort: layers.UDPPort(sport), DstPort: layers.UDPPort(dport)}
	udpLayer.SetNetworkLayerForChecksum(ipLayer)

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{
		ComputeChecksums: true,
		FixLengths:       true,
	}
	if err := gopacket.SerializeLayers(buf, opts, ethLayer, ipLayer, udpLayer, gopacket.Payload(payload)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
