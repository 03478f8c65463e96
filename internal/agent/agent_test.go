package agent

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"refractiq/internal/models"
	"refractiq/internal/queue"
)

// fakeDeliverer позволяет управлять исходом доставки по-разному для каждой
// записи и фиксирует порядок попыток.
type fakeDeliverer struct {
	failAll   bool
	failValue map[float64]bool
	attempts  []models.ReadingPayload
}

func (f *fakeDeliverer) Deliver(p models.ReadingPayload) error {
	f.attempts = append(f.attempts, p)
	if f.failAll || f.failValue[p.Value] {
		return errors.New("connection refused")
	}
	return nil
}

func newTestAgent(t *testing.T, d Deliverer) (*Agent, *queue.Queue) {
	t.Helper()
	q := queue.New(filepath.Join(t.TempDir(), "queue.jsonl"))
	a := New(Options{DeviceID: "refr-400", Interval: time.Second}, q, d)
	return a, q
}

func sample(value float64) models.ReadingPayload {
	return models.ReadingPayload{
		DeviceID: "refr-400",
		Ts:       time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		Value:    value,
		Unit:     "RI",
	}
}

func TestSendOrQueueEnqueuesOnFailure(t *testing.T) {
	f := &fakeDeliverer{failAll: true}
	a, q := newTestAgent(t, f)

	if ok := a.SendOrQueue(sample(1.331)); ok {
		t.Fatal("expected delivery failure")
	}
	entries, err := q.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(entries) != 1 || entries[0].Value != 1.331 {
		t.Errorf("queue = %+v", entries)
	}
}

func TestSendOrQueueSkipsQueueOnSuccess(t *testing.T) {
	f := &fakeDeliverer{}
	a, q := newTestAgent(t, f)

	if ok := a.SendOrQueue(sample(1.332)); !ok {
		t.Fatal("expected delivery success")
	}
	if n, _ := q.Count(); n != 0 {
		t.Errorf("queue has %d entries", n)
	}
}

// Свойство round-trip из спеки: 3 измерения копятся при недоступном сервере,
// после восстановления flush доставляет все в исходном порядке и очищает файл.
func TestFlushRoundTrip(t *testing.T) {
	f := &fakeDeliverer{failAll: true}
	a, q := newTestAgent(t, f)

	for _, v := range []float64{1.331, 1.332, 1.333} {
		a.SendOrQueue(sample(v))
	}
	if n, _ := q.Count(); n != 3 {
		t.Fatalf("queued %d, want 3", n)
	}

	// сервер "ожил"
	f.failAll = false
	f.attempts = nil

	delivered, err := a.Flush()
	if err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if delivered != 3 {
		t.Errorf("delivered %d, want 3", delivered)
	}
	if n, _ := q.Count(); n != 0 {
		t.Errorf("queue not empty: %d", n)
	}
	for i, want := range []float64{1.331, 1.332, 1.333} {
		if f.attempts[i].Value != want {
			t.Errorf("attempt %d value %v, want %v (order must be preserved)", i, f.attempts[i].Value, want)
		}
	}
}

// Частичный flush: первый элемент всё ещё не доставляется — он и только он
// остаётся в очереди, без изменений содержимого.
func TestFlushPartial(t *testing.T) {
	f := &fakeDeliverer{failAll: true}
	a, q := newTestAgent(t, f)

	stuck := sample(1.331)
	temp := 22.5
	stuck.TemperatureC = &temp
	a.SendOrQueue(stuck)
	a.SendOrQueue(sample(1.332))

	f.failAll = false
	f.failValue = map[float64]bool{1.331: true}

	delivered, err := a.Flush()
	if err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if delivered != 1 {
		t.Errorf("delivered %d, want 1", delivered)
	}

	entries, err := q.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("queue has %d entries, want 1", len(entries))
	}
	got := entries[0]
	if got.Value != 1.331 || got.TemperatureC == nil || *got.TemperatureC != 22.5 || !got.Ts.Equal(stuck.Ts) {
		t.Errorf("surviving entry mutated: %+v", got)
	}
}

// Crash-safety: пока весь батч не отработан, снапшот на диске не трогается —
// сбой между подтверждением доставки и перезаписью может лишь продублировать
// доставку (сервер дедуплицирует), но не потерять измерение.
func TestFlushDoesNotTouchFileWhileAllFail(t *testing.T) {
	f := &fakeDeliverer{failAll: true}
	a, q := newTestAgent(t, f)

	a.SendOrQueue(sample(1.331))
	a.SendOrQueue(sample(1.332))

	before, _ := q.Load()
	if _, err := a.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	after, err := q.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(after) != len(before) {
		t.Fatalf("queue changed: %d -> %d", len(before), len(after))
	}
	for i := range before {
		if after[i].Value != before[i].Value {
			t.Errorf("entry %d changed", i)
		}
	}
}

func TestFlushEmptyQueueIsNoop(t *testing.T) {
	f := &fakeDeliverer{}
	a, _ := newTestAgent(t, f)

	delivered, err := a.Flush()
	if err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if delivered != 0 || len(f.attempts) != 0 {
		t.Errorf("delivered=%d attempts=%d", delivered, len(f.attempts))
	}
}

// Отмена останавливает цикл между циклами, содержимое очереди не теряется.
func TestRunStopsOnCancelKeepingQueue(t *testing.T) {
	f := &fakeDeliverer{failAll: true}
	q := queue.New(filepath.Join(t.TempDir(), "queue.jsonl"))
	a := New(Options{DeviceID: "refr-401", Interval: time.Hour}, q, f)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		a.Run(ctx)
		close(done)
	}()

	// дождаться первой (неудачной) отправки, затем отменить
	deadline := time.After(5 * time.Second)
	for {
		if n, _ := q.Count(); n >= 1 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("agent never attempted a send")
		case <-time.After(10 * time.Millisecond):
		}
	}
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("agent did not stop after cancellation")
	}

	if n, _ := q.Count(); n < 1 {
		t.Errorf("queued readings lost on shutdown: %d", n)
	}
}

func TestNextIntervalFloorsAtOneSecond(t *testing.T) {
	q := queue.New(filepath.Join(t.TempDir(), "queue.jsonl"))
	a := New(Options{DeviceID: "x", Interval: 1200 * time.Millisecond, Jitter: 0.9}, q, &fakeDeliverer{})

	for i := 0; i < 100; i++ {
		if d := a.nextInterval(); d < time.Second {
			t.Fatalf("interval %v below one second floor", d)
		}
	}
}

func TestGeneratedReadingIsPlausible(t *testing.T) {
	q := queue.New(filepath.Join(t.TempDir(), "queue.jsonl"))
	a := New(Options{DeviceID: "refr-402", Interval: time.Second}, q, &fakeDeliverer{})

	for i := 0; i < 50; i++ {
		p := a.generateReading()
		if p.DeviceID != "refr-402" || p.Unit != "RI" {
			t.Fatalf("payload = %+v", p)
		}
		if p.Value < 1.33 || p.Value > 1.34 {
			t.Errorf("value %v outside simulated band", p.Value)
		}
		if p.TemperatureC == nil || *p.TemperatureC < 20 || *p.TemperatureC > 30 {
			t.Errorf("temperature %v outside simulated band", p.TemperatureC)
		}
		if p.EventID == nil || len(*p.EventID) != 36 {
			t.Errorf("event_id = %v", p.EventID)
		}
	}
}
