package probe

import (
	"fmt"

	"LteFlowReport/internal/codec"
	"LteFlowReport/internal/config"
	"LteFlowReport/internal/logger"
	"LteFlowReport/internal/model"

	"github.com/nats-io/nats.go"
)

// ReportHandler is a function that processes a received report.
type ReportHandler func(r *model.AggregateReport, timestamp string)

// Subscriber is responsible for subscribing to a NATS subject and processing messages.
type Subscriber struct {
	nc      *nats.Conn
	sub     *nats.Subscription
	subject string
}

// NewSubscriber creates a new NATS subscriber.
func NewSubscriber(cfg config.ProbeConfig) (*Subscriber, error) {
	nc, err := nats.Connect(cfg.NATSURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS at %s: %w", cfg.NATSURL, err)
	}
	logger.ProbeLog.Infof("Connected to NATS server at %s", cfg.NATSURL)
	return &Subscriber{nc: nc, subject: cfg.Subject}, nil
}

// Start subscribes to the configured subject and hands every decodable
// report to handler.
func (s *Subscriber) Start(handler ReportHandler) error {
	sub, err := s.nc.Subscribe(s.subject, func(msg *nats.Msg) {
		r, ts, err := decodeMsg(msg)
		if err != nil {
			logger.ProbeLog.Errorf("Dropping message on %s: %v", msg.Subject, err)
			return
		}
		handler(r, ts)
	})
	if err != nil {
		return err
	}
	s.sub = sub
	logger.ProbeLog.Infof("Subscribed to '%s'. Waiting for messages...", s.subject)
	return nil
}

// Close unsubscribes and closes the NATS connection.
func (s *Subscriber) Close() {
	if s.sub != nil {
		s.sub.Unsubscribe()
	}
	if s.nc != nil {
		s.nc.Close()
		logger.ProbeLog.Info("NATS connection closed.")
	}
}

func decodeMsg(msg *nats.Msg) (*model.AggregateReport, string, error) {
	r, err := codec.Unmarshal(msg.Data)
	if err != nil {
		return nil, "", err
	}
	var ts string
	if msg.Header != nil {
		ts = msg.Header.Get(TimestampHeader)
	}
	return r, ts, nil
}
