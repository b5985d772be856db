package motion

import (
	"encoding/json"
	"errors"
	"fmt"
	"unicode/utf8"
)

var ErrDecode = errors.New("decode error")

// payload mirrors the wire format. Every field is optional and absent
// fields are left nil so that they can be defaulted to zero.
type payload struct {
	Timestamp *int64      `json:"timestamp"`
	FrameID   *uint64     `json:"frameId"`
	Accel     *accelData  `json:"accel"`
	Gyro      *gyroData   `json:"gyro"`
	Magnitude *magnitudes `json:"magnitude"`
}

type accelData struct {
	X *float64 `json:"x"`
	Y *float64 `json:"y"`
	Z *float64 `json:"z"`
}

type gyroData struct {
	Pitch *float64 `json:"pitch"`
	Yaw   *float64 `json:"yaw"`
	Roll  *float64 `json:"roll"`
}

type magnitudes struct {
	Accel *float64 `json:"accel"`
	Gyro  *float64 `json:"gyro"`
}

// Decode parses a JSON motion packet. Missing fields default to zero.
// Errors wrap ErrDecode.
func Decode(raw []byte) (Sample, error) {
	if !utf8.Valid(raw) {
		return Sample{}, fmt.Errorf("%w: payload is not valid UTF-8", ErrDecode)
	}
	var p *payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return Sample{}, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	if p == nil {
		return Sample{}, fmt.Errorf("%w: payload is null", ErrDecode)
	}
	s := Sample{
		Timestamp: value(p.Timestamp),
		FrameID:   value(p.FrameID),
	}
	if p.Accel != nil {
		s.Accel = Accel{
			X: value(p.Accel.X),
			Y: value(p.Accel.Y),
			Z: value(p.Accel.Z),
		}
	}
	if p.Gyro != nil {
		s.Gyro = Gyro{
			Pitch: value(p.Gyro.Pitch),
			Yaw:   value(p.Gyro.Yaw),
			Roll:  value(p.Gyro.Roll),
		}
	}
	if p.Magnitude != nil {
		s.Magnitude = Magnitude{
			Accel: value(p.Magnitude.Accel),
			Gyro:  value(p.Magnitude.Gyro),
		}
	}
	return s, nil
}

func value[T any](p *T) T {
	var v T
	if p != nil {
		v = *p
	}
	return v
}
