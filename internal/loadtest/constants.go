package loadtest

// HTTP status code constants.
const (
	StatusOK       = 200
	StatusNotFound = 404
	StatusConflict = 409
)

// Worker configuration constants.
const (
	WorkerChannelMultiplier = 2
)

// Runner configuration constants.
const (
	PercentageMultiplier = 100
)
