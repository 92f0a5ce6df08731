package models

import (
	"context"
	"net/url"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"cosi/internal/registry/forms"
	"cosi/internal/storage"
	"cosi/pkg/domainerrors"
)

type Reoccurring string

const (
	ReoccurringDays   Reoccurring = "days"
	ReoccurringWeeks  Reoccurring = "weeks"
	ReoccurringMonths Reoccurring = "months"
)

// eventTimeLayout is the wire format event datetimes are persisted in.
const eventTimeLayout = "2006-01-02 15:04:05"

// Event's domain form carries parsed datetimes; the persisted form keeps
// them as strings.
type Event struct {
	MeetingDays []int        `bson:"meeting_days" json:"meeting_days"`
	Start       time.Time    `bson:"start_datetime" json:"start_datetime"`
	End         *time.Time   `bson:"end_datetime" json:"end_datetime"`
	Freq        int          `bson:"freq" json:"freq"`
	Reoccurring *Reoccurring `bson:"reoccurring" json:"reoccurring"`
}

type EventRecord struct {
	MeetingDays   []int        `bson:"meeting_days" json:"meeting_days"`
	StartDatetime string       `bson:"start_datetime" json:"start_datetime"`
	EndDatetime   *string      `bson:"end_datetime" json:"end_datetime"`
	Freq          int          `bson:"freq" json:"freq"`
	Reoccurring   *Reoccurring `bson:"reoccurring" json:"reoccurring"`
}

type EventForm struct {
	MeetingDays   forms.Optional[[]int]  `json:"meeting_days"`
	StartDatetime forms.Optional[string] `json:"start_datetime"`
	EndDatetime   forms.Optional[string] `json:"end_datetime"`
	Freq          forms.Optional[int]    `json:"freq"`
	Reoccurring   forms.Optional[string] `json:"reoccurring"`
}

func (f EventForm) Fields() []forms.Field {
	return []forms.Field{
		{Name: "meeting_days", Value: f.MeetingDays},
		{Name: "start_datetime", Value: f.StartDatetime},
		{Name: "end_datetime", Value: f.EndDatetime},
		{Name: "freq", Value: f.Freq},
		{Name: "reoccurring", Value: f.Reoccurring},
	}
}

// Validate rejects datetimes that would not round-trip through the wire
// format before they reach storage.
func (f EventForm) Validate() error {
	if start, ok := f.StartDatetime.Get(); ok {
		if _, err := time.Parse(eventTimeLayout, start); err != nil {
			return domainerrors.Newf(domainerrors.CodeValidation, "start_datetime must use YYYY-MM-DD HH:MM:SS, got %q", start)
		}
	}
	if end, ok := f.EndDatetime.Get(); ok {
		if _, err := time.Parse(eventTimeLayout, end); err != nil {
			return domainerrors.Newf(domainerrors.CodeValidation, "end_datetime must use YYYY-MM-DD HH:MM:SS, got %q", end)
		}
	}
	return nil
}

func DecodeEventForm(vs url.Values) (EventForm, error) {
	meetingDays, err := forms.QueryInts(vs, "meeting_days")
	if err != nil {
		return EventForm{}, err
	}
	freq, err := forms.QueryInt(vs, "freq")
	if err != nil {
		return EventForm{}, err
	}
	return EventForm{
		MeetingDays:   meetingDays,
		StartDatetime: forms.QueryString(vs, "start_datetime"),
		EndDatetime:   forms.QueryString(vs, "end_datetime"),
		Freq:          freq,
		Reoccurring:   forms.QueryString(vs, "reoccurring"),
	}, nil
}

// EventCodec converts datetimes between their parsed and persisted shapes.
// No cross-collection references are involved.
type EventCodec struct{}

func (EventCodec) Name() string { return CollectionEvent }

func (EventCodec) ToStorage(_ context.Context, _ storage.Database, events []Event) ([]EventRecord, error) {
	records := make([]EventRecord, 0, len(events))
	for _, e := range events {
		rec := EventRecord{
			MeetingDays:   e.MeetingDays,
			StartDatetime: e.Start.Format(eventTimeLayout),
			Freq:          e.Freq,
			Reoccurring:   e.Reoccurring,
		}
		if e.End != nil {
			end := e.End.Format(eventTimeLayout)
			rec.EndDatetime = &end
		}
		records = append(records, rec)
	}
	return records, nil
}

func (EventCodec) ToDomain(_ context.Context, _ storage.Database, recs []EventRecord) ([]Event, error) {
	events := make([]Event, 0, len(recs))
	for _, rec := range recs {
		start, err := time.Parse(eventTimeLayout, rec.StartDatetime)
		if err != nil {
			return nil, domainerrors.Newf(domainerrors.CodeIntegrity, "malformed start_datetime %q", rec.StartDatetime)
		}
		event := Event{
			MeetingDays: rec.MeetingDays,
			Start:       start,
			Freq:        rec.Freq,
			Reoccurring: rec.Reoccurring,
		}
		if rec.EndDatetime != nil {
			end, err := time.Parse(eventTimeLayout, *rec.EndDatetime)
			if err != nil {
				return nil, domainerrors.Newf(domainerrors.CodeIntegrity, "malformed end_datetime %q", *rec.EndDatetime)
			}
			event.End = &end
		}
		events = append(events, event)
	}
	return events, nil
}

func (EventCodec) InlineRefs(_ context.Context, _ storage.Database, _ []bson.M) error {
	return nil
}
