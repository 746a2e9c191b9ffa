package entities

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"
	"time"
)

type Order struct {
	ID       int64
	Type     string
	Products []string
	// дата без времени, всегда полночь UTC
	Date time.Time
}

var (
	ErrInvalidOrder = errors.New("invalid order")
)

// NewDate отбрасывает время и часовой пояс, оставляя календарную дату.
func NewDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func (o *Order) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)
	if err := enc.Encode(o); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (o *Order) Unmarshal(data []byte) error {
	buf := bytes.NewBuffer(data)
	dec := gob.NewDecoder(buf)
	if err := dec.Decode(o); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidOrder, err)
	}
	// gob не различает пустой и nil слайс
	if o.Products == nil {
		o.Products = []string{}
	}
	return nil
}

func init() {
	gob.Register(Order{})
}
