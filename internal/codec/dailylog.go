package codec

import (
	"fmt"

	"github.com/alexanderramin/vigil/internal/domain"
	"github.com/goccy/go-json"
)

// MarshalDailyLog serializes l to JSON and applies c.
func MarshalDailyLog(c Codec, l *domain.DailyLog) ([]byte, error) {
	plain, err := json.Marshal(l)
	if err != nil {
		return nil, fmt.Errorf("marshaling daily log: %w", err)
	}
	return c.Encode(plain)
}

// UnmarshalDailyLog reverses MarshalDailyLog.
func UnmarshalDailyLog(c Codec, data []byte) (*domain.DailyLog, error) {
	plain, err := c.Decode(data)
	if err != nil {
		return nil, err
	}
	var l domain.DailyLog
	if err := json.Unmarshal(plain, &l); err != nil {
		return nil, fmt.Errorf("unmarshaling daily log: %w", err)
	}
	return &l, nil
}
