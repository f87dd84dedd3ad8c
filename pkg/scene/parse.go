package scene

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// wire mirrors Description with pointer fields so missing keys can be detected.
type wire struct {
	CrosswalkPresent *bool    `json:"crosswalk_present"`
	Alignment        *string  `json:"alignment"`
	CurbAhead        *bool    `json:"curb_ahead"`
	ObstacleClose    *bool    `json:"obstacle_close"`
	PedestrianSignal *string  `json:"pedestrian_signal"`
	Confidence       *float64 `json:"confidence"`
	Narration        *string  `json:"narration"`
}

// Parse decodes a model response into a Description.
//
// Markdown code fences around the JSON are tolerated. Unknown keys, missing
// required keys, out-of-range enums and a confidence outside [0,1] all fail
// with ErrMalformed; a partially filled Description is never returned.
// A missing pedestrian_signal decodes as SignalNone.
func Parse(raw []byte) (*Description, error) {
	body := stripFences(raw)
	if len(body) == 0 {
		return nil, fmt.Errorf("%w: empty response", ErrMalformed)
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	var w wire
	if err := dec.Decode(&w); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if dec.More() {
		return nil, fmt.Errorf("%w: trailing data", ErrMalformed)
	}

	switch {
	case w.CrosswalkPresent == nil:
		return nil, missing("crosswalk_present")
	case w.Alignment == nil:
		return nil, missing("alignment")
	case w.CurbAhead == nil:
		return nil, missing("curb_ahead")
	case w.ObstacleClose == nil:
		return nil, missing("obstacle_close")
	case w.Confidence == nil:
		return nil, missing("confidence")
	}

	d := &Description{
		CrosswalkPresent: *w.CrosswalkPresent,
		Alignment:        Alignment(*w.Alignment),
		CurbAhead:        *w.CurbAhead,
		ObstacleClose:    *w.ObstacleClose,
		PedestrianSignal: SignalNone,
		Confidence:       *w.Confidence,
	}
	if w.PedestrianSignal != nil {
		d.PedestrianSignal = Signal(*w.PedestrianSignal)
	}
	if w.Narration != nil {
		d.Narration = *w.Narration
	}

	if !d.Alignment.Valid() {
		return nil, fmt.Errorf("%w: alignment %q", ErrMalformed, d.Alignment)
	}
	if !d.PedestrianSignal.Valid() {
		return nil, fmt.Errorf("%w: pedestrian_signal %q", ErrMalformed, d.PedestrianSignal)
	}
	if d.Confidence < 0 || d.Confidence > 1 {
		return nil, fmt.Errorf("%w: confidence %v out of range", ErrMalformed, d.Confidence)
	}
	return d, nil
}

func missing(field string) error {
	return fmt.Errorf("%w: missing %s", ErrMalformed, field)
}

// stripFences removes a surrounding ```json ... ``` block if present.
func stripFences(raw []byte) []byte {
	b := bytes.TrimSpace(raw)
	if !bytes.HasPrefix(b, []byte("```")) {
		return b
	}
	b = b[3:]
	if nl := bytes.IndexByte(b, '\n'); nl >= 0 {
		b = b[nl+1:]
	} else {
		b = bytes.TrimPrefix(b, []byte("json"))
	}
	b = bytes.TrimSpace(b)
	b = bytes.TrimSuffix(b, []byte("```"))
	return bytes.TrimSpace(b)
}
