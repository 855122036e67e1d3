package ingest

import (
	"encoding/json"
	"time"
)

// Timestamp layouts accepted on the inbound schema. RFC 3339 covers
// producers that send an explicit offset (including a literal Z); the
// naive layout covers producers that omit it, which are treated as UTC.
const (
	naiveTimeLayout = "2006-01-02T15:04:05"

	// dedupSecondLen is the prefix of an ISO-8601 rendering that spans
	// date and time to one-second resolution.
	dedupSecondLen = 19
)

// Reading is one normalized telemetry record, created by the transformer
// and written once to the storage sink. Never mutated after creation.
type Reading struct {
	Time           time.Time
	SiteID         string
	EquipmentType  string
	EquipmentID    string
	DeviceID       int64
	DeviceName     string
	DeviceIP       string
	ObjectType     string
	ObjectInstance int64
	PointID        string
	PointName      string
	HaystackName   string
	Dis            string
	Value          any
	Units          string
	Quality        string
	PollDuration   float64
	PollCycle      string
}

// payload is the raw inbound message schema. Producers disagree on the
// casing of the haystack name field, so both spellings are accepted.
type payload struct {
	Timestamp       string  `json:"timestamp"`
	SiteID          string  `json:"siteId"`
	EquipmentType   string  `json:"equipmentType"`
	EquipmentID     string  `json:"equipmentId"`
	DeviceID        int64   `json:"deviceId"`
	DeviceName      string  `json:"deviceName"`
	DeviceIP        string  `json:"deviceIp"`
	ObjectType      string  `json:"objectType"`
	ObjectInstance  int64   `json:"objectInstance"`
	PointID         string  `json:"pointId"`
	PointName       string  `json:"pointName"`
	HaystackName    string  `json:"haystackName"`
	HaystackNameAlt string  `json:"haystack_name"`
	Dis             string  `json:"dis"`
	Value           any     `json:"value"`
	Units           string  `json:"units"`
	Quality         string  `json:"quality"`
	PollDuration    float64 `json:"pollDuration"`
	PollCycle       string  `json:"pollCycle"`
}

// parsePayload decodes one inbound message.
func parsePayload(data []byte) (*payload, error) {
	var p payload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// canonicalName returns the dedup identity of the point, preferring the
// camelCase field and falling back to the snake_case one.
func (p *payload) canonicalName() string {
	if p.HaystackName != "" {
		return p.HaystackName
	}
	return p.HaystackNameAlt
}

// eventTime derives the reading timestamp: the payload's own timestamp
// when present and parseable, otherwise now.
func (p *payload) eventTime(now time.Time) time.Time {
	if p.Timestamp == "" {
		return now
	}
	if t, err := time.Parse(time.RFC3339Nano, p.Timestamp); err == nil {
		return t
	}
	if t, err := time.ParseInLocation(naiveTimeLayout, p.Timestamp, time.UTC); err == nil {
		return t
	}
	return now
}

// dedupSecond renders the timestamp truncated to one-second resolution.
// The payload's own string is preferred so that producers' renderings
// dedup against themselves byte-for-byte.
func (p *payload) dedupSecond(t time.Time) string {
	if len(p.Timestamp) >= dedupSecondLen {
		return p.Timestamp[:dedupSecondLen]
	}
	return t.UTC().Format(naiveTimeLayout)
}

// toReading maps the payload to a normalized record, applying the field
// defaults of the storage schema: missing object type is "unknown",
// missing quality is "good" (missing numeric identifiers are already
// zero).
func (p *payload) toReading(t time.Time) Reading {
	objectType := p.ObjectType
	if objectType == "" {
		objectType = "unknown"
	}
	quality := p.Quality
	if quality == "" {
		quality = "good"
	}

	return Reading{
		Time:           t,
		SiteID:         p.SiteID,
		EquipmentType:  p.EquipmentType,
		EquipmentID:    p.EquipmentID,
		DeviceID:       p.DeviceID,
		DeviceName:     p.DeviceName,
		DeviceIP:       p.DeviceIP,
		ObjectType:     objectType,
		ObjectInstance: p.ObjectInstance,
		PointID:        p.PointID,
		PointName:      p.PointName,
		HaystackName:   p.canonicalName(),
		Dis:            p.Dis,
		Value:          p.Value,
		Units:          p.Units,
		Quality:        quality,
		PollDuration:   p.PollDuration,
		PollCycle:      p.PollCycle,
	}
}
