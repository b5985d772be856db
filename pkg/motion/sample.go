package motion

import (
	"time"
)

// Sample is one motion frame broadcast by the motion service
type Sample struct {
	Timestamp int64     `json:"timestamp"`
	FrameID   uint64    `json:"frameId"`
	Accel     Accel     `json:"accel"`
	Gyro      Gyro      `json:"gyro"`
	Magnitude Magnitude `json:"magnitude"`
}

// Accel is acceleration in G units
type Accel struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Gyro is angular velocity in degrees per second
type Gyro struct {
	Pitch float64 `json:"pitch"`
	Yaw   float64 `json:"yaw"`
	Roll  float64 `json:"roll"`
}

type Magnitude struct {
	Accel float64 `json:"accel"`
	Gyro  float64 `json:"gyro"`
}

// Time returns the sample timestamp, which is in microseconds since the Unix epoch
func (s Sample) Time() time.Time {
	return time.UnixMicro(s.Timestamp)
}
