package score

import (
	"context"
	"encoding/json"

	"github.com/cockroachdb/errors"
	"github.com/nats-io/nats.go"
)

const natsSubjectPrefix = "glow.scores."

// NATSSink publica cada report em glow.scores.<gameType>.
type NATSSink struct {
	nc *nats.Conn
}

func NewNATSSink(url string) (*NATSSink, error) {
	nc, err := nats.Connect(url,
		nats.Name("goldenglow-scores"),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, errors.Wrap(err, "nats connect")
	}
	return &NATSSink{nc: nc}, nil
}

func (s *NATSSink) Name() string { return "nats" }

func Subject(gameType string) string {
	return natsSubjectPrefix + gameType
}

func (s *NATSSink) Record(ctx context.Context, r Report) error {
	data, err := json.Marshal(r)
	if err != nil {
		return errors.Wrap(err, "encode report")
	}
	msg := nats.NewMsg(Subject(r.GameType))
	msg.Data = data
	msg.Header.Set(nats.MsgIdHdr, r.SessionID+":"+r.ParticipantID)
	if err := s.nc.PublishMsg(msg); err != nil {
		return errors.Wrap(err, "nats publish")
	}
	return nil
}

func (s *NATSSink) Ping(ctx context.Context) error {
	if status := s.nc.Status(); status != nats.CONNECTED {
		return errors.Newf("nats status %s", status)
	}
	return nil
}

func (s *NATSSink) Close() error {
	return s.nc.Drain()
}
