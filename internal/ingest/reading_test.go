package ingest

import (
	"testing"
	"time"
)

func TestParsePayload(t *testing.T) {
	data := []byte(`{
		"timestamp": "2026-08-31T10:15:42",
		"siteId": "siteA",
		"equipmentType": "ahu",
		"equipmentId": "ahu-01",
		"deviceId": 1201,
		"deviceName": "AHU-01 Controller",
		"deviceIp": "10.20.1.12",
		"objectType": "analogInput",
		"objectInstance": 3,
		"pointId": "ai3",
		"pointName": "Supply Air Temp",
		"haystackName": "siteA.ahu01.supplyTemp",
		"dis": "Supply Air Temp",
		"value": 21.5,
		"units": "°C",
		"quality": "good",
		"pollDuration": 0.12,
		"pollCycle": "fast"
	}`)

	p, err := parsePayload(data)
	if err != nil {
		t.Fatalf("parsePayload() error = %v", err)
	}
	if p.SiteID != "siteA" {
		t.Errorf("SiteID = %q, want siteA", p.SiteID)
	}
	if p.DeviceID != 1201 {
		t.Errorf("DeviceID = %d, want 1201", p.DeviceID)
	}
	if v, ok := p.Value.(float64); !ok || v != 21.5 {
		t.Errorf("Value = %v (%T), want 21.5 (float64)", p.Value, p.Value)
	}
}

func TestParsePayloadMalformed(t *testing.T) {
	for _, data := range []string{
		`{`,
		`not json at all`,
		`{"deviceId": "not-a-number"}`,
	} {
		if _, err := parsePayload([]byte(data)); err == nil {
			t.Errorf("parsePayload(%q) error = nil, want error", data)
		}
	}
}

func TestCanonicalName(t *testing.T) {
	tests := []struct {
		name    string
		payload payload
		want    string
	}{
		{"camelCase only", payload{HaystackName: "a.b.c"}, "a.b.c"},
		{"snake_case only", payload{HaystackNameAlt: "a.b.c"}, "a.b.c"},
		{"camelCase wins", payload{HaystackName: "camel", HaystackNameAlt: "snake"}, "camel"},
		{"both empty", payload{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.payload.canonicalName(); got != tt.want {
				t.Errorf("canonicalName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEventTime(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		timestamp string
		want      time.Time
	}{
		{
			name:      "naive treated as UTC",
			timestamp: "2026-08-31T10:15:42",
			want:      time.Date(2026, 8, 31, 10, 15, 42, 0, time.UTC),
		},
		{
			name:      "rfc3339 with Z",
			timestamp: "2026-08-31T10:15:42Z",
			want:      time.Date(2026, 8, 31, 10, 15, 42, 0, time.UTC),
		},
		{
			name:      "rfc3339 with offset",
			timestamp: "2026-08-31T10:15:42+02:00",
			want:      time.Date(2026, 8, 31, 10, 15, 42, 0, time.FixedZone("", 2*3600)),
		},
		{
			name:      "fractional seconds",
			timestamp: "2026-08-31T10:15:42.123456Z",
			want:      time.Date(2026, 8, 31, 10, 15, 42, 123456000, time.UTC),
		},
		{
			name:      "empty falls back to now",
			timestamp: "",
			want:      now,
		},
		{
			name:      "garbage falls back to now",
			timestamp: "yesterday-ish",
			want:      now,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := payload{Timestamp: tt.timestamp}
			if got := p.eventTime(now); !got.Equal(tt.want) {
				t.Errorf("eventTime() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDedupSecond(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 5, 0, time.UTC)

	tests := []struct {
		name      string
		timestamp string
		want      string
	}{
		{
			name:      "payload string truncated",
			timestamp: "2026-08-31T10:15:42.987654Z",
			want:      "2026-08-31T10:15:42",
		},
		{
			name:      "exact second resolution kept whole",
			timestamp: "2026-08-31T10:15:42",
			want:      "2026-08-31T10:15:42",
		},
		{
			name:      "short string falls back to derived time",
			timestamp: "10:15:42",
			want:      "2026-08-31T12:00:05",
		},
		{
			name:      "empty falls back to derived time",
			timestamp: "",
			want:      "2026-08-31T12:00:05",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := payload{Timestamp: tt.timestamp}
			ts := p.eventTime(now)
			if got := p.dedupSecond(ts); got != tt.want {
				t.Errorf("dedupSecond() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestToReadingDefaults(t *testing.T) {
	ts := time.Date(2026, 8, 31, 10, 15, 42, 0, time.UTC)
	p := payload{HaystackName: "siteA.ahu01.supplyTemp", Value: 21.5}

	r := p.toReading(ts)

	if r.ObjectType != "unknown" {
		t.Errorf("ObjectType = %q, want unknown", r.ObjectType)
	}
	if r.Quality != "good" {
		t.Errorf("Quality = %q, want good", r.Quality)
	}
	if r.DeviceID != 0 {
		t.Errorf("DeviceID = %d, want 0", r.DeviceID)
	}
	if !r.Time.Equal(ts) {
		t.Errorf("Time = %v, want %v", r.Time, ts)
	}
}

func TestToReadingRoundTrip(t *testing.T) {
	ts := time.Date(2026, 8, 31, 10, 15, 42, 0, time.UTC)
	p := payload{
		Timestamp:      "2026-08-31T10:15:42",
		SiteID:         "siteA",
		EquipmentType:  "ahu",
		EquipmentID:    "ahu-01",
		DeviceID:       1201,
		DeviceName:     "AHU-01 Controller",
		DeviceIP:       "10.20.1.12",
		ObjectType:     "analogInput",
		ObjectInstance: 3,
		PointID:        "ai3",
		PointName:      "Supply Air Temp",
		HaystackName:   "siteA.ahu01.supplyTemp",
		Dis:            "Supply Air Temp",
		Value:          21.5,
		Units:          "°C",
		Quality:        "uncertain",
		PollDuration:   0.12,
		PollCycle:      "fast",
	}

	r := p.toReading(ts)

	want := Reading{
		Time:           ts,
		SiteID:         "siteA",
		EquipmentType:  "ahu",
		EquipmentID:    "ahu-01",
		DeviceID:       1201,
		DeviceName:     "AHU-01 Controller",
		DeviceIP:       "10.20.1.12",
		ObjectType:     "analogInput",
		ObjectInstance: 3,
		PointID:        "ai3",
		PointName:      "Supply Air Temp",
		HaystackName:   "siteA.ahu01.supplyTemp",
		Dis:            "Supply Air Temp",
		Value:          21.5,
		Units:          "°C",
		Quality:        "uncertain",
		PollDuration:   0.12,
		PollCycle:      "fast",
	}
	if r != want {
		t.Errorf("toReading() = %+v, want %+v", r, want)
	}
}
