package chrono

import (
	"time"
	_ "time/tzdata"
)

var jakarta *time.Location

func init() {
	var err error
	jakarta, err = time.LoadLocation("Asia/Jakarta")
	if err != nil {
		panic(err)
	}
}

// Jakarta returns a [*time.Location] for Asia/Jakarta, the timezone job
// listings on id.jobstreet.com are posted in.
func Jakarta() *time.Location {
	return jakarta
}

// TimeAPI is the interface that anything depending on the system clock should use.
type TimeAPI interface {
	// Now returns the current time in Asia/Jakarta.
	Now() time.Time
}

// StandardTime is the standard implementation of TimeAPI using the standard library.
type StandardTime struct{}

func NewStandardTime() StandardTime {
	return StandardTime{}
}

func (StandardTime) Now() time.Time {
	return time.Now().In(jakarta)
}

// FixedTime always returns the same instant.
type FixedTime time.Time

func (f FixedTime) Now() time.Time {
	return time.Time(f).In(jakarta)
}
