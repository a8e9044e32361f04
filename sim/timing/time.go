package timing

import (
	"errors"
	"math"
	"strconv"
)

// VTime defines the time in the simulated space. It carries no unit and no
// wall-clock meaning. The distinguished value Infinity is greater than every
// finite time.
type VTime float64

// Infinity is the time of an event that never happens. A model whose time
// advance is Infinity waits for input only.
var Infinity = VTime(math.Inf(1))

// Zero is the beginning of the simulated time axis.
const Zero VTime = 0

// ErrInfiniteDifference is returned when a subtraction involves an infinite
// subtrahend, for example Infinity - Infinity.
var ErrInfiniteDifference = errors.New("difference with an infinite subtrahend")

// IsInfinity tells if the time is the infinity sentinel.
func (t VTime) IsInfinity() bool {
	return math.IsInf(float64(t), 1)
}

// IsValid returns false for NaN and negative infinity, which can never be
// scheduled.
func (t VTime) IsValid() bool {
	f := float64(t)
	return !math.IsNaN(f) && !math.IsInf(f, -1)
}

// String formats the time. Infinity is printed as "inf".
func (t VTime) String() string {
	if t.IsInfinity() {
		return "inf"
	}

	return strconv.FormatFloat(float64(t), 'g', -1, 64)
}

// Compare returns -1 if a is earlier than b, 1 if a is later than b, and 0
// if they are equal. Infinity equals itself and is greater than any finite
// time.
func Compare(a, b VTime) int {
	switch {
	case a.IsInfinity() && b.IsInfinity():
		return 0
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// Add adds a duration to a time. The sum saturates at Infinity.
func Add(t, d VTime) VTime {
	if t.IsInfinity() || d.IsInfinity() {
		return Infinity
	}

	return t + d
}

// Sub subtracts d from t. Infinity minus a finite value is Infinity.
// Subtracting Infinity is not representable and returns
// ErrInfiniteDifference.
func Sub(t, d VTime) (VTime, error) {
	if d.IsInfinity() {
		return 0, ErrInfiniteDifference
	}

	if t.IsInfinity() {
		return Infinity, nil
	}

	return t - d, nil
}

// Min returns the earlier of two times.
func Min(a, b VTime) VTime {
	if Compare(a, b) <= 0 {
		return a
	}

	return b
}

// Max returns the later of two times.
func Max(a, b VTime) VTime {
	if Compare(a, b) >= 0 {
		return a
	}

	return b
}
