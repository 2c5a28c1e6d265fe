package engine

// TimeUnit is the unit a migrated timeout is expressed in.
type TimeUnit int

const (
	Milliseconds TimeUnit = iota
	Seconds
)

// String returns the java.util.concurrent.TimeUnit constant name
func (u TimeUnit) String() string {
	if u == Seconds {
		return "SECONDS"
	}
	return "MILLISECONDS"
}

// InferTimeUnit re-expresses a millisecond count in seconds when it is a
// whole number of seconds, and keeps milliseconds otherwise.
func InferTimeUnit(ms int64) (int64, TimeUnit) {
	if ms >= 1000 && ms%1000 == 0 {
		return ms / 1000, Seconds
	}
	return ms, Milliseconds
}
