package queue

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"

	"refractiq/internal/models"
)

// Queue — durable очередь недоставленных измерений: jsonl-файл, по строке на
// измерение. Один писатель на файл; межпроцессных блокировок нет намеренно.
type Queue struct {
	path string
}

func New(path string) *Queue {
	return &Queue{path: path}
}

// Append дописывает измерение в конец файла и сбрасывает на диск.
func (q *Queue) Append(p models.ReadingPayload) error {
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}
	f, err := os.OpenFile(q.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := f.Write(append(data, '\n')); err != nil {
		return err
	}
	return f.Sync()
}

// Load читает снапшот всей очереди в исходном порядке.
// Отсутствующий файл — пустая очередь.
func (q *Queue) Load() ([]models.ReadingPayload, error) {
	f, err := os.Open(q.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	var out []models.ReadingPayload
	sc := bufio.NewScanner(f)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		var p models.ReadingPayload
		if err := json.Unmarshal(line, &p); err != nil {
			return nil, fmt.Errorf("queue line %d: %w", lineNo, err)
		}
		out = append(out, p)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Rewrite атомарно заменяет очередь оставшимися записями (temp + rename).
// Пустой остаток удаляет файл целиком. Вызывается только ПОСЛЕ того, как все
// попытки доставки батча завершены — до rename на диске лежит старый снапшот,
// поэтому крэш может привести лишь к повторной доставке, но не к потере.
func (q *Queue) Rewrite(remaining []models.ReadingPayload) error {
	if len(remaining) == 0 {
		if err := os.Remove(q.path); err != nil && !os.IsNotExist(err) {
			return err
		}
		return nil
	}

	tmp := q.path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	for _, p := range remaining {
		data, merr := json.Marshal(p)
		if merr != nil {
			f.Close()
			os.Remove(tmp)
			return merr
		}
		if _, werr := f.Write(append(data, '\n')); werr != nil {
			f.Close()
			os.Remove(tmp)
			return werr
		}
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, q.path)
}

// Count — число записей в очереди (для отчёта при остановке).
func (q *Queue) Count() (int, error) {
	entries, err := q.Load()
	if err != nil {
		return 0, err
	}
	return len(entries), nil
}

// Path возвращает путь к файлу очереди.
func (q *Queue) Path() string { return q.path }
