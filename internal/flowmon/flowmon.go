// Package flowmon reads the XML files written by the ns-3 FlowMonitor
// (FlowMonitor::SerializeToXmlFile) into a model.SimulationResult.
package flowmon

import (
	"encoding/xml"
	"fmt"
	"io"
	"net"
	"os"
	"time"

	"LteFlowReport/internal/logger"
	"LteFlowReport/internal/model"
)

type document struct {
	XMLName   xml.Name       `xml:"FlowMonitor"`
	FlowStats flowStatsList  `xml:"FlowStats"`
	Ipv4      classifierList `xml:"Ipv4FlowClassifier"`
	Ipv6      classifierList `xml:"Ipv6FlowClassifier"`
}

type flowStatsList struct {
	Flows []flowStats `xml:"Flow"`
}

type flowStats struct {
	FlowID            uint32 `xml:"flowId,attr"`
	TimeFirstTxPacket string `xml:"timeFirstTxPacket,attr"`
	TimeFirstRxPacket string `xml:"timeFirstRxPacket,attr"`
	TimeLastTxPacket  string `xml:"timeLastTxPacket,attr"`
	TimeLastRxPacket  string `xml:"timeLastRxPacket,attr"`
	DelaySum          string `xml:"delaySum,attr"`
	JitterSum         string `xml:"jitterSum,attr"`
	TxBytes           uint64 `xml:"txBytes,attr"`
	RxBytes           uint64 `xml:"rxBytes,attr"`
	TxPackets         uint32 `xml:"txPackets,attr"`
	RxPackets         uint32 `xml:"rxPackets,attr"`
	LostPackets       uint32 `xml:"lostPackets,attr"`
}

type classifierList struct {
	Flows []classifiedFlow `xml:"Flow"`
}

type classifiedFlow struct {
	FlowID             uint32 `xml:"flowId,attr"`
	SourceAddress      string `xml:"sourceAddress,attr"`
	DestinationAddress string `xml:"destinationAddress,attr"`
	Protocol           uint8  `xml:"protocol,attr"`
	SourcePort         uint16 `xml:"sourcePort,attr"`
	DestinationPort    uint16 `xml:"destinationPort,attr"`
}

// Load reads a FlowMonitor XML file.
func Load(path string) (model.SimulationResult, error) {
	file, err := os.Open(path)
	if err != nil {
		return model.SimulationResult{}, fmt.Errorf("failed to open flow monitor file: %w", err)
	}
	defer file.Close()

	result, err := Decode(file)
	if err != nil {
		return model.SimulationResult{}, fmt.Errorf("failed to read '%s': %w", path, err)
	}
	logger.FlowmonLog.Infof("Loaded %d flows from %s", len(result.Flows), path)
	return result, nil
}

// Decode parses FlowMonitor XML from r.
func Decode(r io.Reader) (model.SimulationResult, error) {
	var doc document
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return model.SimulationResult{}, fmt.Errorf("failed to decode flow monitor XML: %w", err)
	}

	flows := make(model.FlowTable, len(doc.FlowStats.Flows))
	for _, fs := range doc.FlowStats.Flows {
		id := model.FlowID(fs.FlowID)
		if _, dup := flows[id]; dup {
			return model.SimulationResult{}, fmt.Errorf("duplicate FlowStats entry for flowId=%d", id)
		}
		counters, err := fs.counters()
		if err != nil {
			return model.SimulationResult{}, fmt.Errorf("flowId=%d: %w", id, err)
		}
		flows[id] = counters
	}

	classifier := make(model.MapClassifier)
	for _, list := range []classifierList{doc.Ipv4, doc.Ipv6} {
		for _, cf := range list.Flows {
			id := model.FlowID(cf.FlowID)
			if _, dup := classifier[id]; dup {
				return model.SimulationResult{}, fmt.Errorf("duplicate classifier entry for flowId=%d", id)
			}
			ft, err := cf.fiveTuple()
			if err != nil {
				return model.SimulationResult{}, fmt.Errorf("flowId=%d: %w", id, err)
			}
			classifier[id] = ft
		}
	}

	return model.SimulationResult{Flows: flows, Classifier: classifier}, nil
}

func (fs flowStats) counters() (model.FlowCounters, error) {
	c := model.FlowCounters{
		TxBytes:     fs.TxBytes,
		RxBytes:     fs.RxBytes,
		TxPackets:   fs.TxPackets,
		RxPackets:   fs.RxPackets,
		LostPackets: fs.LostPackets,
	}
	for _, f := range []struct {
		name string
		raw  string
		dst  *time.Duration
	}{
		{"timeFirstTxPacket", fs.TimeFirstTxPacket, &c.TimeFirstTxPacket},
		{"timeFirstRxPacket", fs.TimeFirstRxPacket, &c.TimeFirstRxPacket},
		{"timeLastTxPacket", fs.TimeLastTxPacket, &c.TimeLastTxPacket},
		{"timeLastRxPacket", fs.TimeLastRxPacket, &c.TimeLastRxPacket},
		{"delaySum", fs.DelaySum, &c.DelaySum},
		{"jitterSum", fs.JitterSum, &c.JitterSum},
	} {
		if f.raw == "" {
			continue
		}
		d, err := ParseTime(f.raw)
		if err != nil {
			return c, fmt.Errorf("%s: %w", f.name, err)
		}
		*f.dst = d
	}
	return c, nil
}

func (cf classifiedFlow) fiveTuple() (model.FiveTuple, error) {
	src := net.ParseIP(cf.SourceAddress)
	if src == nil {
		return model.FiveTuple{}, fmt.Errorf("invalid sourceAddress %q", cf.SourceAddress)
	}
	dst := net.ParseIP(cf.DestinationAddress)
	if dst == nil {
		return model.FiveTuple{}, fmt.Errorf("invalid destinationAddress %q", cf.DestinationAddress)
	}
	return model.FiveTuple{
		SrcIP:    src,
		DstIP:    dst,
		SrcPort:  cf.SourcePort,
		DstPort:  cf.DestinationPort,
		Protocol: cf.Protocol,
	}, nil
}
