package score

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"goldenglow/internal/metrics"
	"goldenglow/internal/obslog"
)

const releaseTimeout = 5 * time.Second

// Dispatcher entrega reports a todos os sinks num pool de goroutines.
// Report nunca bloqueia quem chama: com o pool cheio o lote é descartado.
type Dispatcher struct {
	pool    *ants.Pool
	sinks   []Sink
	timeout time.Duration
}

func NewDispatcher(workers int, timeout time.Duration, sinks ...Sink) (*Dispatcher, error) {
	pool, err := ants.NewPool(workers,
		ants.WithNonblocking(true),
		ants.WithPanicHandler(func(v any) {
			obslog.L().Error("score_worker_panic", zap.Any("panic", v))
		}),
	)
	if err != nil {
		return nil, errors.Wrap(err, "score worker pool")
	}
	return &Dispatcher{pool: pool, sinks: sinks, timeout: timeout}, nil
}

// Sinks devolve os destinos configurados.
func (d *Dispatcher) Sinks() []Sink {
	return d.sinks
}

// Report agenda a gravação dos reports. Sem sinks não faz nada.
func (d *Dispatcher) Report(reports ...Report) {
	if len(d.sinks) == 0 || len(reports) == 0 {
		return
	}
	err := d.pool.Submit(func() {
		for _, r := range reports {
			for _, sink := range d.sinks {
				d.record(sink, r)
			}
		}
	})
	if err != nil {
		obslog.L().Warn("score_report_dropped",
			zap.String("session_id", reports[0].SessionID),
			zap.Error(err),
		)
		for _, sink := range d.sinks {
			metrics.ScoreReportsTotal.WithLabelValues(sink.Name(), metrics.StatusDropped).Add(float64(len(reports)))
		}
	}
}

func (d *Dispatcher) record(sink Sink, r Report) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	if err := sink.Record(ctx, r); err != nil {
		metrics.ScoreReportsTotal.WithLabelValues(sink.Name(), metrics.StatusFailed).Inc()
		obslog.L().Warn("score_record_failed",
			zap.String("sink", sink.Name()),
			zap.String("session_id", r.SessionID),
			zap.String("participant_id", r.ParticipantID),
			zap.Error(err),
		)
		return
	}
	metrics.ScoreReportsTotal.WithLabelValues(sink.Name(), metrics.StatusOK).Inc()
}

// Close espera as tarefas em andamento e fecha os sinks.
func (d *Dispatcher) Close() error {
	err := d.pool.ReleaseTimeout(releaseTimeout)
	for _, sink := range d.sinks {
		err = errors.CombineErrors(err, errors.Wrapf(sink.Close(), "close %s sink", sink.Name()))
	}
	return err
}
