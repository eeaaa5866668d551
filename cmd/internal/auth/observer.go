package auth

// Operation results reported to an Observer.
const (
	ResultOK       = "ok"
	ResultRejected = "rejected"
	ResultError    = "error"
)

// Observer receives auth outcome counts. app.Metrics implements it.
type Observer interface {
	AuthOperation(op, result string)
	SessionOpened()
}

type noopObserver struct{}

func (noopObserver) AuthOperation(string, string) {}
func (noopObserver) SessionOpened()               {}
