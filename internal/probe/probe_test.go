package probe

import (
	"testing"

	"LteFlowReport/internal/model"

	"github.com/nats-io/nats.go"
)

func TestEncodeDecodeMsg(t *testing.T) {
	r := &model.AggregateReport{
		FilterSourceAddress: "1.0.0.2",
		ExpectedCount:       5,
		MatchedCount:        1,
		MeanThroughputKbps:  160,
		Flows: []model.FlowReport{
			{FlowID: 1, ThroughputKbps: 800, LostPackets: 2},
		},
	}
	msg, err := encodeMsg("lte.reports.summary", r, "2024-01-01_00-00-00")
	if err != nil {
		t.Fatalf("encodeMsg failed: %v", err)
	}
	if msg.Subject != "lte.reports.summary" {
		t.Errorf("Unexpected subject %s", msg.Subject)
	}

	got, ts, err := decodeMsg(msg)
	if err != nil {
		t.Fatalf("decodeMsg failed: %v", err)
	}
	if ts != "2024-01-01_00-00-00" {
		t.Errorf("Unexpected timestamp %q", ts)
	}
	if got.ExpectedCount != 5 || got.MeanThroughputKbps != 160 || len(got.Flows) != 1 || got.Flows[0].LostPackets != 2 {
		t.Errorf("Unexpected decoded report: %+v", got)
	}
}

func TestDecodeMsg_Garbage(t *testing.T) {
	msg := &nats.Msg{Subject: "x", Data: []byte{0xff, 0xff, 0xff}}
	if _, _, err := decodeMsg(msg); err == nil {
		t.Errorf("Expected an error for a non-protobuf payload")
	}
}
