package codec

import (
	"fmt"
	"math"
	"net"

	"LteFlowReport/internal/model"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// Non-finite numbers are carried as strings: JSON has no literal for them
// and protojson rejects them inside google.protobuf.Value.
const (
	posInf = "inf"
	negInf = "-inf"
	nan    = "nan"
)

// ReportToStruct converts a report into a protobuf Struct.
func ReportToStruct(r *model.AggregateReport) *structpb.Struct {
	flows := make([]*structpb.Value, 0, len(r.Flows))
	for _, f := range r.Flows {
		flows = append(flows, structpb.NewStructValue(&structpb.Struct{Fields: map[string]*structpb.Value{
			"index":          structpb.NewNumberValue(float64(f.Index)),
			"flowId":         structpb.NewNumberValue(float64(f.FlowID)),
			"srcIp":          structpb.NewStringValue(ipString(f.FiveTuple.SrcIP)),
			"dstIp":          structpb.NewStringValue(ipString(f.FiveTuple.DstIP)),
			"srcPort":        structpb.NewNumberValue(float64(f.FiveTuple.SrcPort)),
			"dstPort":        structpb.NewNumberValue(float64(f.FiveTuple.DstPort)),
			"protocol":       structpb.NewNumberValue(float64(f.FiveTuple.Protocol)),
			"throughputKbps": number(f.ThroughputKbps),
			"jitterSeconds":  number(f.JitterSeconds),
			"lostPackets":    structpb.NewNumberValue(float64(f.LostPackets)),
		}}))
	}

	s := r.Spread
	spread := &structpb.Struct{Fields: map[string]*structpb.Value{
		"finiteFlows":    structpb.NewNumberValue(float64(s.FiniteFlows)),
		"nonFiniteFlows": structpb.NewNumberValue(float64(s.NonFiniteFlows)),
		"minKbps":        number(s.MinKbps),
		"maxKbps":        number(s.MaxKbps),
		"meanKbps":       number(s.MeanKbps),
		"stdDevKbps":     number(s.StdDevKbps),
		"fairness":       number(s.Fairness),
	}}

	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"filterSourceAddress": structpb.NewStringValue(r.FilterSourceAddress),
		"expectedCount":       structpb.NewNumberValue(float64(r.ExpectedCount)),
		"matchedCount":        structpb.NewNumberValue(float64(r.MatchedCount)),
		"divisorStrategy":     structpb.NewStringValue(r.DivisorStrategy),
		"divisor":             structpb.NewNumberValue(float64(r.Divisor)),
		"sumThroughputKbps":   number(r.SumThroughputKbps),
		"sumJitterSeconds":    number(r.SumJitterSeconds),
		"sumLostPackets":      number(r.SumLostPackets),
		"meanThroughputKbps":  number(r.MeanThroughputKbps),
		"meanJitterSeconds":   number(r.MeanJitterSeconds),
		"meanLostPackets":     number(r.MeanLostPackets),
		"spread":              structpb.NewStructValue(spread),
		"flows":               structpb.NewListValue(&structpb.ListValue{Values: flows}),
	}}
}

// ReportFromStruct is the inverse of ReportToStruct.
func ReportFromStruct(st *structpb.Struct) (*model.AggregateReport, error) {
	d := decoder{fields: st.GetFields()}
	r := &model.AggregateReport{
		FilterSourceAddress: d.str("filterSourceAddress"),
		ExpectedCount:       int(d.num("expectedCount")),
		MatchedCount:        int(d.num("matchedCount")),
		DivisorStrategy:     d.str("divisorStrategy"),
		Divisor:             int(d.num("divisor")),
		SumThroughputKbps:   d.num("sumThroughputKbps"),
		SumJitterSeconds:    d.num("sumJitterSeconds"),
		SumLostPackets:      d.num("sumLostPackets"),
		MeanThroughputKbps:  d.num("meanThroughputKbps"),
		MeanJitterSeconds:   d.num("meanJitterSeconds"),
		MeanLostPackets:     d.num("meanLostPackets"),
	}

	sd := decoder{fields: d.get("spread").GetStructValue().GetFields()}
	r.Spread = model.Spread{
		FiniteFlows:    int(sd.num("finiteFlows")),
		NonFiniteFlows: int(sd.num("nonFiniteFlows")),
		MinKbps:        sd.num("minKbps"),
		MaxKbps:        sd.num("maxKbps"),
		MeanKbps:       sd.num("meanKbps"),
		StdDevKbps:     sd.num("stdDevKbps"),
		Fairness:       sd.num("fairness"),
	}

	for i, v := range d.get("flows").GetListValue().GetValues() {
		fv := v.GetStructValue()
		if fv == nil {
			return nil, fmt.Errorf("flows[%d]: expected an object", i)
		}
		fd := decoder{fields: fv.GetFields()}
		r.Flows = append(r.Flows, model.FlowReport{
			Index:  int(fd.num("index")),
			FlowID: model.FlowID(fd.num("flowId")),
			FiveTuple: model.FiveTuple{
				SrcIP:    net.ParseIP(fd.str("srcIp")),
				DstIP:    net.ParseIP(fd.str("dstIp")),
				SrcPort:  uint16(fd.num("srcPort")),
				DstPort:  uint16(fd.num("dstPort")),
				Protocol: uint8(fd.num("protocol")),
			},
			ThroughputKbps: fd.num("throughputKbps"),
			JitterSeconds:  fd.num("jitterSeconds"),
			LostPackets:    uint32(fd.num("lostPackets")),
		})
		if fd.err != nil {
			return nil, fmt.Errorf("flows[%d]: %w", i, fd.err)
		}
	}

	if d.err != nil {
		return nil, d.err
	}
	if sd.err != nil {
		return nil, fmt.Errorf("spread: %w", sd.err)
	}
	return r, nil
}

// Marshal encodes a report in protobuf wire format.
func Marshal(r *model.AggregateReport) ([]byte, error) {
	return proto.Marshal(ReportToStruct(r))
}

// Unmarshal decodes a report produced by Marshal.
func Unmarshal(data []byte) (*model.AggregateReport, error) {
	var st structpb.Struct
	if err := proto.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("failed to unmarshal report: %w", err)
	}
	return ReportFromStruct(&st)
}

// MarshalJSON encodes a report as indented JSON.
func MarshalJSON(r *model.AggregateReport) ([]byte, error) {
	return protojson.MarshalOptions{Multiline: true, Indent: "  "}.Marshal(ReportToStruct(r))
}

// UnmarshalJSON decodes a report produced by MarshalJSON.
func UnmarshalJSON(data []byte) (*model.AggregateReport, error) {
	var st structpb.Struct
	if err := protojson.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("failed to unmarshal report JSON: %w", err)
	}
	return ReportFromStruct(&st)
}

func ipString(ip net.IP) string {
	if ip == nil {
		return ""
	}
	return ip.String()
}

func number(v float64) *structpb.Value {
	switch {
	case math.IsNaN(v):
		return structpb.NewStringValue(nan)
	case math.IsInf(v, 1):
		return structpb.NewStringValue(posInf)
	case math.IsInf(v, -1):
		return structpb.NewStringValue(negInf)
	}
	return structpb.NewNumberValue(v)
}

type decoder struct {
	fields map[string]*structpb.Value
	err    error
}

func (d *decoder) get(key string) *structpb.Value {
	return d.fields[key]
}

func (d *decoder) str(key string) string {
	return d.fields[key].GetStringValue()
}

func (d *decoder) num(key string) float64 {
	v, ok := d.fields[key]
	if !ok {
		return 0
	}
	switch k := v.GetKind().(type) {
	case *structpb.Value_NumberValue:
		return k.NumberValue
	case *structpb.Value_StringValue:
		switch k.StringValue {
		case posInf:
			return math.Inf(1)
		case negInf:
			return math.Inf(-1)
		case nan:
			return math.NaN()
		}
	}
	if d.err == nil {
		d.err = fmt.Errorf("field %q: not a number", key)
	}
	return 0
}
