package probe

import (
	"fmt"

	"LteFlowReport/internal/codec"
	"LteFlowReport/internal/config"
	"LteFlowReport/internal/logger"
	"LteFlowReport/internal/model"

	"github.com/nats-io/nats.go"
)

// TimestampHeader carries the report timestamp alongside the payload.
const TimestampHeader = "Report-Timestamp"

// Publisher is responsible for publishing report summaries to a NATS subject.
type Publisher struct {
	nc      *nats.Conn
	subject string
}

// NewPublisher creates a new NATS publisher.
func NewPublisher(cfg config.ProbeConfig) (*Publisher, error) {
	nc, err := nats.Connect(cfg.NATSURL, nats.Name("lte-flow-report"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS at %s: %w", cfg.NATSURL, err)
	}
	logger.ProbeLog.Infof("Connected to NATS server at %s", cfg.NATSURL)
	return &Publisher{nc: nc, subject: cfg.Subject}, nil
}

// Publish serializes the report to Protobuf and publishes it to the
// configured NATS subject.
func (p *Publisher) Publish(r *model.AggregateReport, timestamp string) error {
	msg, err := encodeMsg(p.subject, r, timestamp)
	if err != nil {
		return err
	}
	if err := p.nc.PublishMsg(msg); err != nil {
		return fmt.Errorf("failed to publish report: %w", err)
	}
	return p.nc.Flush()
}

// Close drains and closes the NATS connection.
func (p *Publisher) Close() error {
	if p.nc == nil {
		return nil
	}
	if err := p.nc.Drain(); err != nil {
		return err
	}
	logger.ProbeLog.Info("NATS connection drained and closed.")
	return nil
}

func encodeMsg(subject string, r *model.AggregateReport, timestamp string) (*nats.Msg, error) {
	data, err := codec.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("failed to encode report: %w", err)
	}
	msg := nats.NewMsg(subject)
	msg.Header.Set(TimestampHeader, timestamp)
	msg.Data = data
	return msg, nil
}
