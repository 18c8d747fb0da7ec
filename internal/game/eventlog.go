package game

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/holoocg/holo-server-go/internal/game/rules"
)

// eventRecordNamespace scopes record ids derived with uuid.NewSHA1.
var eventRecordNamespace = uuid.MustParse("6f1c2a4e-8d0b-4c57-9a3e-2b7d5e9f0c14")

// EventRecord is the stable JSON form of one resolved event. Zone fields are
// only present on zone changes.
type EventRecord struct {
	Seq          int      `json:"seq"`
	RecordID     string   `json:"record_id,omitempty"`
	Category     string   `json:"category"`
	Kind         string   `json:"kind"`
	Player       int      `json:"player"`
	Card         int      `json:"card,omitempty"`
	From         string   `json:"from,omitempty"`
	To           string   `json:"to,omitempty"`
	Placement    string   `json:"placement,omitempty"`
	Amount       int      `json:"amount,omitempty"`
	SourceCard   int      `json:"source_card,omitempty"`
	AbilityIndex int      `json:"ability_index"`
	Reason       string   `json:"reason,omitempty"`
	Applied      []string `json:"applied"`
}

// NewEventRecords converts events into records numbered from firstSeq. When
// matchID is set each record gets an id derived from the match and sequence,
// so re-appending the same events yields the same ids.
func NewEventRecords(matchID string, firstSeq int, events []rules.Event) []EventRecord {
	records := make([]EventRecord, 0, len(events))
	for i, e := range events {
		seq := firstSeq + i
		rec := EventRecord{
			Seq:          seq,
			Category:     string(e.Category()),
			Kind:         string(e.Kind),
			Player:       int(e.Player),
			Card:         int(e.Card),
			Amount:       e.Amount,
			SourceCard:   int(e.SourceCard),
			AbilityIndex: e.AbilityIndex,
			Reason:       e.Reason,
			Applied:      append([]string{}, e.Applied...),
		}
		if e.Kind == rules.EventZoneChange {
			rec.From = e.From.String()
			rec.To = e.To.String()
			rec.Placement = e.Placement.String()
		}
		if matchID != "" {
			rec.RecordID = uuid.NewSHA1(eventRecordNamespace, []byte(matchID+"/"+strconv.Itoa(seq))).String()
		}
		records = append(records, rec)
	}
	return records
}

// EncodeEventLog renders events as a JSON array of records in application order.
func EncodeEventLog(events []rules.Event) ([]byte, error) {
	data, err := json.Marshal(NewEventRecords("", 0, events))
	if err != nil {
		return nil, fmt.Errorf("failed to encode event log: %w", err)
	}
	return data, nil
}

// Event rebuilds the rules event a record was made from.
func (r EventRecord) Event() (rules.Event, error) {
	e := rules.Event{
		Kind:         rules.EventKind(r.Kind),
		Player:       rules.PlayerID(r.Player),
		Card:         rules.CardInstanceID(r.Card),
		Amount:       r.Amount,
		SourceCard:   rules.CardInstanceID(r.SourceCard),
		AbilityIndex: r.AbilityIndex,
		Reason:       r.Reason,
	}
	if !e.Kind.Valid() {
		return rules.Event{}, fmt.Errorf("record %d: unknown event kind %q", r.Seq, r.Kind)
	}
	if len(r.Applied) > 0 {
		e.Applied = append([]string(nil), r.Applied...)
	}
	if e.Kind == rules.EventZoneChange {
		from, ok := rules.ParseZoneType(r.From)
		if !ok {
			return rules.Event{}, fmt.Errorf("record %d: unknown zone %q", r.Seq, r.From)
		}
		to, ok := rules.ParseZoneType(r.To)
		if !ok {
			return rules.Event{}, fmt.Errorf("record %d: unknown zone %q", r.Seq, r.To)
		}
		placement, ok := rules.ParsePlacement(r.Placement)
		if !ok {
			return rules.Event{}, fmt.Errorf("record %d: unknown placement %q", r.Seq, r.Placement)
		}
		e.From, e.To, e.Placement = from, to, placement
	}
	return e, nil
}
