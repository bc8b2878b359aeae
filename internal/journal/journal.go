// Package journal ведёт журнал оформления заказов (write-ahead, JSON lines).
//
// Каждая строка файла содержит одну запись Entry. Оформление открывается записью
// begin с полным планом, затем по одной записи на выполненный шаг и done в
// конце. После сбоя Pending возвращает незавершённые оформления вместе с
// уже выполненными шагами.
package journal

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"GophShop/internal/model"
)

// Step names a checkout stage.
type Step string

const (
	StepBegin   Step = "begin"
	StepCart    Step = "cart"
	StepOrder   Step = "order"
	StepHistory Step = "history"
	StepDone    Step = "done"
)

// StockStep marks the stock decrement of one product.
func StockStep(productID int32) Step {
	return Step("stock:" + strconv.FormatInt(int64(productID), 10))
}

// Product is the catalogue snapshot taken when the checkout started.
type Product struct {
	ID    int32   `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// Plan is everything needed to finish a checkout without re-reading the cart.
type Plan struct {
	UserID    int32            `json:"user_id"`
	OrderTime int64            `json:"order_time"`
	Address   string           `json:"address"`
	Lines     []model.CartItem `json:"lines"`
	Products  []Product        `json:"products"`
}

// OrderID derives the order id of the plan.
func (p Plan) OrderID() int64 { return model.OrderIDFor(p.OrderTime, p.UserID) }

// Entry is one journal line.
type Entry struct {
	ID   uuid.UUID `json:"id"`
	Step Step      `json:"step"`
	At   time.Time `json:"at"`
	Plan *Plan     `json:"plan,omitempty"`
}

// Pending is an unfinished checkout.
type Pending struct {
	ID   uuid.UUID
	Plan Plan
	Done map[Step]bool
}

// Journal appends entries to a single file.
type Journal struct {
	path string
	mu   sync.Mutex
	now  func() time.Time
}

// Open creates the journal file if needed.
func Open(path string) (*Journal, error) {
	fh, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	if err := fh.Close(); err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	return &Journal{path: path, now: time.Now}, nil
}

// Path returns the journal location.
func (j *Journal) Path() string { return j.path }

// Begin records a new checkout plan and returns its id.
func (j *Journal) Begin(ctx context.Context, plan Plan) (uuid.UUID, error) {
	id := uuid.New()
	p := plan
	if err := j.write(ctx, Entry{ID: id, Step: StepBegin, Plan: &p}); err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

// Mark records that step of checkout id finished.
func (j *Journal) Mark(ctx context.Context, id uuid.UUID, step Step) error {
	if step == StepBegin {
		return errors.New("journal: begin is written by Begin")
	}
	return j.write(ctx, Entry{ID: id, Step: step})
}

func (j *Journal) write(ctx context.Context, e Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e.At = j.now().UTC()
	line, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("journal encode: %w", err)
	}
	line = append(line, '\n')

	j.mu.Lock()
	defer j.mu.Unlock()
	fh, err := os.OpenFile(j.path, os.O_RDWR|os.O_APPEND|os.O_CREATE, 0o600)
	if err != nil {
		return fmt.Errorf("journal open: %w", err)
	}
	// оборванная строка закрывается, чтобы не склеиться со следующей
	if st, err := fh.Stat(); err == nil && st.Size() > 0 {
		last := make([]byte, 1)
		if _, err := fh.ReadAt(last, st.Size()-1); err == nil && last[0] != '\n' {
			line = append([]byte{'\n'}, line...)
		}
	}
	if _, err := fh.Write(line); err != nil {
		_ = fh.Close()
		return fmt.Errorf("journal write: %w", err)
	}
	if err := fh.Sync(); err != nil {
		_ = fh.Close()
		return fmt.Errorf("journal sync: %w", err)
	}
	return fh.Close()
}

// Pending lists unfinished checkouts in the order they began. A torn
// last line is ignored; entries for unknown ids are skipped.
func (j *Journal) Pending(ctx context.Context) ([]Pending, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.pending(ctx)
}

func (j *Journal) pending(ctx context.Context) ([]Pending, error) {
	data, err := os.ReadFile(j.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("journal read: %w", err)
	}

	var (
		order []uuid.UUID
		byID  = map[uuid.UUID]*Pending{}
	)
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		raw := bytes.TrimSpace(sc.Bytes())
		if len(raw) == 0 {
			continue
		}
		var e Entry
		if err := json.Unmarshal(raw, &e); err != nil {
			continue
		}
		switch {
		case e.Step == StepBegin && e.Plan != nil:
			if _, ok := byID[e.ID]; !ok {
				order = append(order, e.ID)
			}
			byID[e.ID] = &Pending{ID: e.ID, Plan: *e.Plan, Done: map[Step]bool{}}
		case e.Step == StepDone:
			delete(byID, e.ID)
		default:
			if p, ok := byID[e.ID]; ok {
				p.Done[e.Step] = true
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("journal scan: %w", err)
	}

	out := make([]Pending, 0, len(byID))
	for _, id := range order {
		if p, ok := byID[id]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

// Compact drops finished checkouts from the file. It is a no-op while
// any checkout is still pending.
func (j *Journal) Compact(ctx context.Context) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	pending, err := j.pending(ctx)
	if err != nil {
		return err
	}
	if len(pending) > 0 {
		return nil
	}
	if err := os.Truncate(j.path, 0); err != nil {
		return fmt.Errorf("journal truncate: %w", err)
	}
	return nil
}
