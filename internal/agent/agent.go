package agent

import (
	"context"
	"math/rand"
	"time"

	"refractiq/internal/logs"
	"refractiq/internal/models"
	"refractiq/internal/queue"

	"github.com/google/uuid"
)

// Options — параметры цикла симулятора.
type Options struct {
	DeviceID    string
	Interval    time.Duration
	Jitter      float64 // доля интервала, ±(jitter*interval)
	FailureRate float64 // вероятность пропуска измерения (имитация сбоя датчика)
}

// Agent — store-and-forward клиент: генерирует измерения, шлёт на сервер,
// при неудаче складывает в durable-очередь и доигрывает её при реконнекте.
// Одиночный последовательный цикл; конкурентных писателей в очередь нет.
type Agent struct {
	opts    Options
	queue   *queue.Queue
	sender  Deliverer
	rng     *rand.Rand
	genFunc func() models.ReadingPayload
}

func New(opts Options, q *queue.Queue, sender Deliverer) *Agent {
	if opts.Interval <= 0 {
		opts.Interval = 15 * time.Second
	}
	a := &Agent{
		opts:   opts,
		queue:  q,
		sender: sender,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	a.genFunc = a.generateReading
	return a
}

// generateReading — правдоподобное измерение рефрактометра: RI жидкостей
// ~1.3300-1.3400, температура 20-30°C, свежий event_id для дедупликации.
func (a *Agent) generateReading() models.ReadingPayload {
	value := 1.33 + a.rng.Float64()*0.01
	temp := 20.0 + a.rng.Float64()*10.0
	eventID := uuid.NewString()
	return models.ReadingPayload{
		DeviceID:     a.opts.DeviceID,
		Ts:           time.Now().UTC(),
		Value:        float64(int(value*10000)) / 10000,
		Unit:         "RI",
		TemperatureC: &temp,
		EventID:      &eventID,
	}
}

// SendOrQueue пытается доставить измерение; при неудаче кладёт его в очередь.
// Никогда не возвращает ошибку доставки наружу — сбой доставки не фатален.
func (a *Agent) SendOrQueue(p models.ReadingPayload) bool {
	if err := a.sender.Deliver(p); err != nil {
		logs.Logger.Warnf("delivery failed, queueing: %v", err)
		if qerr := a.queue.Append(p); qerr != nil {
			logs.Logger.Errorf("queue append: %v", qerr)
		}
		return false
	}
	logs.Logger.Infof("sent %.4f %s @ %s", p.Value, p.Unit, p.Ts.Format(time.RFC3339))
	return true
}

// Flush читает снапшот очереди, пробует доставить каждую запись в исходном
// порядке и переписывает очередь только оставшимися. Переписывание происходит
// строго после всех попыток батча: до него на диске лежит полный снапшот,
// поэтому прерывание может лишь повторить доставку, но не потерять запись.
func (a *Agent) Flush() (int, error) {
	entries, err := a.queue.Load()
	if err != nil {
		return 0, err
	}
	if len(entries) == 0 {
		return 0, nil
	}

	logs.Logger.Infof("flushing %d queued reading(s)", len(entries))

	delivered := 0
	var failed []models.ReadingPayload
	for _, p := range entries {
		if err := a.sender.Deliver(p); err != nil {
			failed = append(failed, p)
			continue
		}
		delivered++
	}

	if err := a.queue.Rewrite(failed); err != nil {
		return delivered, err
	}
	if len(failed) > 0 {
		logs.Logger.Infof("flush: %d sent, %d remain queued", delivered, len(failed))
	} else {
		logs.Logger.Infof("flush: all %d queued readings sent", delivered)
	}
	return delivered, nil
}

// Run — основной цикл: начальный flush, затем генерация/отправка с
// джиттер-паузой (минимум секунда). Отмена проверяется между циклами —
// начатая доставка всегда доигрывается до конца или до таймаута.
func (a *Agent) Run(ctx context.Context) {
	if _, err := a.Flush(); err != nil {
		logs.Logger.Warnf("startup flush: %v", err)
	}

	for {
		if a.opts.FailureRate > 0 && a.rng.Float64() < a.opts.FailureRate {
			logs.Logger.Info("simulating device failure, skipping reading")
		} else {
			p := a.genFunc()
			if a.SendOrQueue(p) {
				// связь есть — удобный момент доиграть накопленное
				if _, err := a.Flush(); err != nil {
					logs.Logger.Warnf("flush: %v", err)
				}
			}
		}

		select {
		case <-ctx.Done():
			a.reportRemaining()
			return
		case <-time.After(a.nextInterval()):
		}
	}
}

// nextInterval — interval * (1 + uniform(-jitter, jitter)), не меньше секунды.
func (a *Agent) nextInterval() time.Duration {
	j := a.opts.Jitter
	factor := 1.0
	if j > 0 {
		factor = 1 + (a.rng.Float64()*2-1)*j
	}
	d := time.Duration(float64(a.opts.Interval) * factor)
	if d < time.Second {
		d = time.Second
	}
	return d
}

func (a *Agent) reportRemaining() {
	n, err := a.queue.Count()
	if err != nil {
		logs.Logger.Warnf("queue count: %v", err)
		return
	}
	if n > 0 {
		logs.Logger.Infof("stopping, %d reading(s) remain in %s", n, a.queue.Path())
	} else {
		logs.Logger.Info("stopping, queue is empty")
	}
}
