package report

import (
	"bytes"
	"encoding/json"
)

// Base field names of a Record, in output order.
const (
	FieldCampaignID  = "campaignId"
	FieldImpressions = "impressions"
	FieldClicks      = "clicks"
	FieldCPC         = "cpc"
	FieldCost        = "cost"
	FieldROAS        = "roas"
	FieldKeyEvents   = "keyEvents"
	FieldBounceRate  = "bounceRate"
)

// MetricRow is one campaign. Values are kept as the API returned them.
type MetricRow struct {
	CampaignID  string
	Impressions string
	Clicks      string
	CPC         string
	Cost        string
	ROAS        string
	KeyEvents   string
	BounceRate  string
}

// EventCount is the total of one tracked event over the date range.
type EventCount struct {
	EventName string
	Count     string
}

type Field struct {
	Name  string
	Value string
}

// Record is an ordered set of fields. It marshals to a JSON object with the
// fields in insertion order.
type Record struct {
	fields []Field
	index  map[string]int
}

func NewRecord(m MetricRow) *Record {
	r := &Record{
		fields: make([]Field, 0, 8+len(TrackedEvents)),
		index:  make(map[string]int, 8+len(TrackedEvents)),
	}
	r.Set(FieldCampaignID, m.CampaignID)
	r.Set(FieldImpressions, m.Impressions)
	r.Set(FieldClicks, m.Clicks)
	r.Set(FieldCPC, m.CPC)
	r.Set(FieldCost, m.Cost)
	r.Set(FieldROAS, m.ROAS)
	r.Set(FieldKeyEvents, m.KeyEvents)
	r.Set(FieldBounceRate, m.BounceRate)
	return r
}

// Set replaces the value of an existing field in place, or appends a new one.
func (r *Record) Set(name, value string) {
	if i, ok := r.index[name]; ok {
		r.fields[i].Value = value
		return
	}
	r.index[name] = len(r.fields)
	r.fields = append(r.fields, Field{Name: name, Value: value})
}

func (r *Record) Get(name string) (string, bool) {
	i, ok := r.index[name]
	if !ok {
		return "", false
	}
	return r.fields[i].Value, true
}

func (r *Record) Len() int { return len(r.fields) }

// Fields returns a copy of the fields in order.
func (r *Record) Fields() []Field {
	return append([]Field(nil), r.fields...)
}

// Map returns the fields as an unordered map.
func (r *Record) Map() map[string]string {
	m := make(map[string]string, len(r.fields))
	for _, f := range r.fields {
		m[f.Name] = f.Value
	}
	return m
}

func (r *Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range r.fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(f.Name)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(f.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
