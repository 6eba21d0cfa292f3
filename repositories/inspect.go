package repositories

import (
	"chat-uol/codec"
	"fmt"
	"strings"
	"time"
)

// Prefixes scanned by the inspection tools.
const (
	ParticipantPrefix = participantPrefix
	MessagePrefix     = messagePrefix
)

// InspectRow is a human readable view of one stored record.
type InspectRow struct {
	Key    string
	Type   string
	Time   string
	Name   string
	Detail string
}

// DescribeRecord decodes a raw Badger entry written by the repositories.
// Unknown keys are reported as RAW rows rather than failing the scan.
func DescribeRecord(key string, val []byte) (InspectRow, error) {
	row := InspectRow{Key: key, Type: "RAW", Time: "--:--:--", Name: "-", Detail: fmt.Sprintf("Size: %d bytes", len(val))}

	switch {
	case strings.HasPrefix(key, participantPrefix):
		var record participantRecord
		if err := codec.Unmarshal(val, &record); err != nil {
			return row, fmt.Errorf("decode participant %q: %w", key, err)
		}
		row.Type = "PARTICIPANT"
		row.Name = record.Name
		row.Time = time.Unix(record.LastSeen, 0).UTC().Format(time.TimeOnly)
		row.Detail = fmt.Sprintf("order=%d", record.Order)
	case strings.HasPrefix(key, messagePrefix):
		var record messageRecord
		if err := codec.Unmarshal(val, &record); err != nil {
			return row, fmt.Errorf("decode message %q: %w", key, err)
		}
		row.Type = strings.ToUpper(record.Kind)
		row.Name = record.From
		row.Time = record.Time
		row.Detail = fmt.Sprintf("-> %s: %s", record.To, record.Text)
	}
	return row, nil
}
